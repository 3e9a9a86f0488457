package order

import (
	"strings"
	"time"
)

// Step identifies one of the four linear workflow steps.
type Step int

const (
	StepUpload     Step = 1
	StepRooms      Step = 2
	StepDirectives Step = 3
	StepLock       Step = 4
)

// FirstStep and LastStep bound the valid step range.
const (
	FirstStep = StepUpload
	LastStep  = StepLock
)

// Valid reports whether s lies within the workflow.
func (s Step) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

// Label returns the user-facing name of the step.
func (s Step) Label() string {
	switch s {
	case StepUpload:
		return "Upload"
	case StepRooms:
		return "Rooms"
	case StepDirectives:
		return "Editing"
	case StepLock:
		return "Review & Lock"
	default:
		return ""
	}
}

// Job is one real-estate photography order.
type Job struct {
	ID        string
	Address   string
	Date      time.Time
	Customer  string
	Locked    bool
	Step      Step
	Revision  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WorkflowState is the per-job view state owned by the workflow controller.
type WorkflowState struct {
	Step   Step `json:"step"`
	Locked bool `json:"locked"`
}

// Asset is one uploaded media file belonging to a job.
type Asset struct {
	ID         string
	JobID      string
	Name       string
	Size       int64
	MediaType  string
	URL        string
	Checksum   string
	CapturedAt time.Time
	Width      int
	Height     int
	Is360      bool
	CreatedAt  time.Time
}

// IsMotion reports whether the asset is a video clip.
func (a Asset) IsMotion() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.MediaType)), "video/")
}

// SameFrame reports whether two assets share pixel dimensions.
func (a Asset) SameFrame(other Asset) bool {
	return a.Width == other.Width && a.Height == other.Height
}

// Stack is a group of assets that become one deliverable framing.
type Stack struct {
	ID       string
	JobID    string
	Position int
	Type     StackType
	RoomType RoomType
	Comment  string
	Assets   []Asset
}

// AssetIDs returns the ordered member asset identifiers.
func (s Stack) AssetIDs() []string {
	ids := make([]string, len(s.Assets))
	for i, asset := range s.Assets {
		ids[i] = asset.ID
	}
	return ids
}

// HasRoomType reports whether a room type has been assigned.
func (s Stack) HasRoomType() bool {
	return strings.TrimSpace(string(s.RoomType)) != ""
}

// Clone returns a deep copy so callers can hand out stacks without sharing
// the asset slice.
func (s Stack) Clone() Stack {
	cp := s
	if s.Assets != nil {
		cp.Assets = make([]Asset, len(s.Assets))
		copy(cp.Assets, s.Assets)
	}
	return cp
}

// CloneStacks deep-copies a stack slice.
func CloneStacks(stacks []Stack) []Stack {
	if stacks == nil {
		return nil
	}
	out := make([]Stack, len(stacks))
	for i, stack := range stacks {
		out[i] = stack.Clone()
	}
	return out
}

// MissingRoomType returns the stacks that still need a room type, in order.
func MissingRoomType(stacks []Stack) []Stack {
	var missing []Stack
	for _, stack := range stacks {
		if !stack.HasRoomType() {
			missing = append(missing, stack)
		}
	}
	return missing
}

// Annotation is the per-stack metadata persisted independently of grouping.
type Annotation struct {
	StackID  string
	RoomType RoomType
	Comment  string
}
