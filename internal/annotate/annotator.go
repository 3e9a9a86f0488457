package annotate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"lichtwerk/internal/logging"
	"lichtwerk/internal/order"
	"lichtwerk/internal/services"
	"lichtwerk/internal/tour"
)

// ErrUnknownRoomType reports a room type outside the closed enumeration.
var ErrUnknownRoomType = fmt.Errorf("%w: unknown room type", services.ErrValidation)

// LockState reports whether the owning job is locked.
type LockState interface {
	Locked() bool
}

// Saver persists a stack annotation.
type Saver interface {
	SaveAnnotation(ctx context.Context, jobID string, annotation order.Annotation) error
}

// Annotator edits stack metadata and the tour graph of one job.
type Annotator struct {
	mu        sync.Mutex
	jobID     string
	lock      LockState
	saver     Saver
	inventory *order.Inventory
	graph     *tour.Graph
	logger    *slog.Logger
}

// New builds an annotator over inventory.
func New(jobID string, lock LockState, saver Saver, inventory *order.Inventory, logger *slog.Logger) *Annotator {
	return &Annotator{
		jobID:     jobID,
		lock:      lock,
		saver:     saver,
		inventory: inventory,
		graph:     &tour.Graph{},
		logger:    logging.NewComponentLogger(logger, "annotate").With(logging.String(logging.FieldJobID, jobID)),
	}
}

func (a *Annotator) locked() bool {
	return a.lock != nil && a.lock.Locked()
}

// SetRoomType assigns a room type to a stack. The value is matched against
// the closed enumeration after Unicode normalization and case folding.
func (a *Annotator) SetRoomType(ctx context.Context, stackID, value string) error {
	if a.locked() {
		return nil
	}
	room, ok := order.ParseRoomType(value)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownRoomType, value)
	}
	return a.annotate(ctx, stackID, func(ann *order.Annotation) { ann.RoomType = room })
}

// ClearRoomType removes the room type from a stack.
func (a *Annotator) ClearRoomType(ctx context.Context, stackID string) error {
	return a.annotate(ctx, stackID, func(ann *order.Annotation) { ann.RoomType = "" })
}

// SetComment replaces the free-text comment of a stack.
func (a *Annotator) SetComment(ctx context.Context, stackID, text string) error {
	text = strings.TrimSpace(text)
	return a.annotate(ctx, stackID, func(ann *order.Annotation) { ann.Comment = text })
}

func (a *Annotator) annotate(ctx context.Context, stackID string, apply func(*order.Annotation)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.locked() {
		return nil
	}

	stack, err := a.inventory.Stack(stackID)
	if err != nil {
		return err
	}
	ann := order.Annotation{StackID: stack.ID, RoomType: stack.RoomType, Comment: stack.Comment}
	apply(&ann)
	if ann.RoomType == stack.RoomType && ann.Comment == stack.Comment {
		return nil
	}

	if a.saver != nil {
		ctx = services.WithJobID(ctx, a.jobID)
		if err := a.saver.SaveAnnotation(ctx, a.jobID, ann); err != nil {
			logging.WarnWithContext(a.logger, "annotation not saved", "annotation_save_failed",
				logging.String(logging.FieldStackID, stackID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "room type or comment unchanged"),
				logging.String(logging.FieldErrorHint, "retry once the backend is reachable"),
			)
			return services.NewTransportError("save annotation", err)
		}
	}

	if err := a.inventory.UpdateStack(stackID, func(s *order.Stack) {
		s.RoomType = ann.RoomType
		s.Comment = ann.Comment
	}); err != nil {
		return err
	}
	a.logger.Debug("stack annotated",
		logging.String(logging.FieldStackID, stackID),
		logging.String("room_type", string(ann.RoomType)),
	)
	return nil
}

// LoadTour replaces the tour graph, typically with the one stored on the job.
func (a *Annotator) LoadTour(t tour.Tour) error {
	graph, err := tour.FromTour(t)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.locked() {
		return nil
	}
	a.graph = graph
	return nil
}

// AddPanorama creates a tour node for a 360° asset of the job.
func (a *Annotator) AddPanorama(assetID, category string, floor int) (tour.Panorama, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.locked() {
		return tour.Panorama{}, nil
	}
	asset, ok := a.inventory.Asset(assetID)
	if !ok {
		return tour.Panorama{}, fmt.Errorf("%w: asset %q", services.ErrNotFound, assetID)
	}
	if !asset.Is360 {
		return tour.Panorama{}, fmt.Errorf("%w: asset %q is not a 360° capture", services.ErrValidation, assetID)
	}
	return a.graph.Add(assetID, category, floor)
}

// RemovePanorama deletes a node and its edges.
func (a *Annotator) RemovePanorama(id string) error {
	return a.editGraph(func(g *tour.Graph) error { return g.Remove(id) })
}

// Connect links two panoramas in both directions.
func (a *Annotator) Connect(from, to string) error {
	return a.editGraph(func(g *tour.Graph) error { return g.Connect(from, to) })
}

// Disconnect removes the link between two panoramas.
func (a *Annotator) Disconnect(from, to string) error {
	return a.editGraph(func(g *tour.Graph) error { return g.Disconnect(from, to) })
}

// SetStartPanorama selects the tour entry node, which must exist.
func (a *Annotator) SetStartPanorama(id string) error {
	return a.editGraph(func(g *tour.Graph) error { return g.SetStart(id) })
}

// SetFloorplanAsset attaches a floorplan image. The empty string clears it.
func (a *Annotator) SetFloorplanAsset(assetID string) error {
	return a.editGraph(func(g *tour.Graph) error {
		if assetID != "" {
			if _, ok := a.inventory.Asset(assetID); !ok {
				return fmt.Errorf("%w: asset %q", services.ErrNotFound, assetID)
			}
		}
		g.SetFloorplan(assetID)
		return nil
	})
}

func (a *Annotator) editGraph(fn func(*tour.Graph) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.locked() {
		return nil
	}
	return fn(a.graph)
}

// Tour returns the serializable tour graph.
func (a *Annotator) Tour() tour.Tour {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.graph.Snapshot()
}

// TourProblems lists integrity problems of the tour graph.
func (a *Annotator) TourProblems() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.graph.Validate()
}
