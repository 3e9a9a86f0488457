package grouping

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"lichtwerk/internal/order"
)

// DefaultBracketWindow is the largest capture gap between consecutive frames
// of one exposure bracket.
const DefaultBracketWindow = 2 * time.Second

// stackNamespace seeds the UUIDv5 stack identifiers.
var stackNamespace = uuid.MustParse("6f1d2c84-3a0e-5b7f-9c41-52e7d0a8b913")

// Options tunes the clustering heuristics.
type Options struct {
	BracketWindow time.Duration
}

// Engine groups assets into stacks.
type Engine struct {
	window time.Duration
}

// New constructs an Engine. A non-positive window falls back to
// DefaultBracketWindow.
func New(opts Options) Engine {
	window := opts.BracketWindow
	if window <= 0 {
		window = DefaultBracketWindow
	}
	return Engine{window: window}
}

// Window returns the effective bracket window.
func (e Engine) Window() time.Duration {
	if e.window <= 0 {
		return DefaultBracketWindow
	}
	return e.window
}

// Group partitions assets into stacks. Assets sharing an ID are counted once.
func (e Engine) Group(assets []order.Asset) []order.Stack {
	sorted := sortedUnique(assets)
	if len(sorted) == 0 {
		return nil
	}

	var (
		stacks  []order.Stack
		cluster []order.Asset
	)
	flush := func() {
		stacks = append(stacks, splitCluster(cluster)...)
		cluster = nil
	}

	for _, asset := range sorted {
		switch {
		case asset.IsMotion():
			flush()
			stacks = append(stacks, newStack(order.StackVideo, asset))
		case asset.Is360:
			flush()
			stacks = append(stacks, newStack(order.StackPano360, asset))
		case len(cluster) > 0 && e.adjacent(cluster[len(cluster)-1], asset):
			cluster = append(cluster, asset)
		default:
			flush()
			cluster = append(cluster, asset)
		}
	}
	flush()

	for i := range stacks {
		stacks[i].Position = i
	}
	return stacks
}

// Group partitions assets with the default options.
func Group(assets []order.Asset) []order.Stack {
	return New(Options{}).Group(assets)
}

// adjacent reports whether next continues the exposure sequence of prev.
// Frames without a capture timestamp never join a sequence.
func (e Engine) adjacent(prev, next order.Asset) bool {
	if prev.CapturedAt.IsZero() || next.CapturedAt.IsZero() {
		return false
	}
	if !prev.SameFrame(next) {
		return false
	}
	gap := next.CapturedAt.Sub(prev.CapturedAt)
	return gap >= 0 && gap <= e.Window()
}

func splitCluster(cluster []order.Asset) []order.Stack {
	n := len(cluster)
	if n == 0 {
		return nil
	}
	width := 0
	switch {
	case n >= 5:
		width = 5
	case n >= 3:
		width = 3
	}

	var stacks []order.Stack
	idx := 0
	if bracketType, ok := order.BracketTypeForWidth(width); ok {
		for ; idx+width <= n; idx += width {
			stacks = append(stacks, newStack(bracketType, cluster[idx:idx+width]...))
		}
	}
	for ; idx < n; idx++ {
		stacks = append(stacks, newStack(order.StackSingle, cluster[idx]))
	}
	return stacks
}

func newStack(stackType order.StackType, members ...order.Asset) order.Stack {
	assets := make([]order.Asset, len(members))
	copy(assets, members)
	ids := make([]string, len(assets))
	for i, asset := range assets {
		ids[i] = asset.ID
	}
	return order.Stack{
		ID:     StackID(ids),
		JobID:  assets[0].JobID,
		Type:   stackType,
		Assets: assets,
	}
}

// StackID derives the stable identifier of a stack from its member asset IDs.
func StackID(assetIDs []string) string {
	return uuid.NewSHA1(stackNamespace, []byte(strings.Join(assetIDs, "\x00"))).String()
}

func sortedUnique(assets []order.Asset) []order.Asset {
	if len(assets) == 0 {
		return nil
	}
	sorted := make([]order.Asset, len(assets))
	copy(sorted, assets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})

	out := sorted[:0]
	seen := make(map[string]struct{}, len(sorted))
	for _, asset := range sorted {
		if _, dup := seen[asset.ID]; dup {
			continue
		}
		seen[asset.ID] = struct{}{}
		out = append(out, asset)
	}
	return out
}

func less(a, b order.Asset) bool {
	if !a.CapturedAt.Equal(b.CapturedAt) {
		return a.CapturedAt.Before(b.CapturedAt)
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID < b.ID
}
