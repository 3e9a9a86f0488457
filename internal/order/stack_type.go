package order

import "strings"

// StackType classifies how the assets of a stack are combined downstream.
type StackType string

const (
	StackSingle   StackType = "single"
	StackBracket3 StackType = "bracket3"
	StackBracket5 StackType = "bracket5"
	StackVideo    StackType = "video"
	StackPano360  StackType = "pano360"
)

var allStackTypes = []StackType{
	StackSingle,
	StackBracket3,
	StackBracket5,
	StackVideo,
	StackPano360,
}

// AllStackTypes returns the ordered list of known stack types.
func AllStackTypes() []StackType {
	cp := make([]StackType, len(allStackTypes))
	copy(cp, allStackTypes)
	return cp
}

// ParseStackType converts a string into a known StackType.
func ParseStackType(value string) (StackType, bool) {
	normalized := StackType(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range allStackTypes {
		if known == normalized {
			return known, true
		}
	}
	return "", false
}

// BracketWidth returns the exposure count of a bracket type, or 0.
func (t StackType) BracketWidth() int {
	switch t {
	case StackBracket3:
		return 3
	case StackBracket5:
		return 5
	default:
		return 0
	}
}

// BracketTypeForWidth maps an exposure count to its bracket stack type.
func BracketTypeForWidth(width int) (StackType, bool) {
	switch width {
	case 3:
		return StackBracket3, true
	case 5:
		return StackBracket5, true
	default:
		return "", false
	}
}
