package tour

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"lichtwerk/internal/services"
)

var panoramaNamespace = uuid.MustParse("0c5b7e3a-91d4-5f26-8a1e-3d7f64c2b0a9")

var (
	ErrUnknownPanorama   = fmt.Errorf("%w: panorama", services.ErrNotFound)
	ErrSelfLoop          = fmt.Errorf("%w: panorama cannot connect to itself", services.ErrValidation)
	ErrDuplicatePanorama = fmt.Errorf("%w: asset already has a panorama", services.ErrValidation)
)

// Panorama is one node of the tour.
type Panorama struct {
	ID          string   `json:"id"`
	AssetID     string   `json:"assetId"`
	Category    string   `json:"category,omitempty"`
	Floor       int      `json:"floor"`
	Connections []string `json:"connections"`
}

// Tour is the serialized form of a Graph.
type Tour struct {
	Panoramas      []Panorama `json:"panoramas"`
	StartPanorama  string     `json:"startPanorama,omitempty"`
	FloorplanAsset string     `json:"floorplanAsset,omitempty"`
}

type node struct {
	Panorama
	links map[string]struct{}
}

// Graph is the mutable panorama graph. The zero value is ready to use.
// Graph is not safe for concurrent use; callers serialize access.
type Graph struct {
	nodes     map[string]*node
	order     []string
	start     string
	floorplan string
}

// PanoramaID derives the stable node identifier for a source asset.
func PanoramaID(assetID string) string {
	return uuid.NewSHA1(panoramaNamespace, []byte(assetID)).String()
}

// Add inserts a panorama for the given source asset. The node ID is derived
// from the asset ID; adding the same asset twice is rejected.
func (g *Graph) Add(assetID, category string, floor int) (Panorama, error) {
	assetID = strings.TrimSpace(assetID)
	if assetID == "" {
		return Panorama{}, fmt.Errorf("%w: panorama asset id is required", services.ErrValidation)
	}
	if g.nodes == nil {
		g.nodes = make(map[string]*node)
	}
	id := PanoramaID(assetID)
	if _, exists := g.nodes[id]; exists {
		return Panorama{}, fmt.Errorf("%w: %s", ErrDuplicatePanorama, assetID)
	}
	n := &node{
		Panorama: Panorama{
			ID:       id,
			AssetID:  assetID,
			Category: strings.TrimSpace(category),
			Floor:    floor,
		},
		links: make(map[string]struct{}),
	}
	g.nodes[id] = n
	g.order = append(g.order, id)
	return n.snapshot(), nil
}

// Remove deletes a panorama together with its edges. Removing the start node
// clears the start reference.
func (g *Graph) Remove(id string) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownPanorama, id)
	}
	for other := range n.links {
		delete(g.nodes[other].links, id)
	}
	delete(g.nodes, id)
	for i, existing := range g.order {
		if existing == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	if g.start == id {
		g.start = ""
	}
	return nil
}

// Connect adds a symmetric edge between a and b. Connecting an existing pair
// is a no-op.
func (g *Graph) Connect(a, b string) error {
	na, nb, err := g.pair(a, b)
	if err != nil {
		return err
	}
	na.links[b] = struct{}{}
	nb.links[a] = struct{}{}
	return nil
}

// Disconnect removes the edge between a and b if present.
func (g *Graph) Disconnect(a, b string) error {
	na, nb, err := g.pair(a, b)
	if err != nil {
		return err
	}
	delete(na.links, b)
	delete(nb.links, a)
	return nil
}

func (g *Graph) pair(a, b string) (*node, *node, error) {
	if a == b {
		return nil, nil, ErrSelfLoop
	}
	na, ok := g.nodes[a]
	if !ok {
		return nil, nil, fmt.Errorf("%w %q", ErrUnknownPanorama, a)
	}
	nb, ok := g.nodes[b]
	if !ok {
		return nil, nil, fmt.Errorf("%w %q", ErrUnknownPanorama, b)
	}
	return na, nb, nil
}

// SetStart designates the entry node of the tour.
func (g *Graph) SetStart(id string) error {
	if _, ok := g.nodes[id]; !ok {
		return fmt.Errorf("%w %q", ErrUnknownPanorama, id)
	}
	g.start = id
	return nil
}

// SetFloorplan records the floorplan asset. An empty value clears it.
func (g *Graph) SetFloorplan(assetID string) {
	g.floorplan = strings.TrimSpace(assetID)
}

// Start returns the start node identifier.
func (g *Graph) Start() string { return g.start }

// Floorplan returns the floorplan asset identifier.
func (g *Graph) Floorplan() string { return g.floorplan }

// Len returns the number of panoramas.
func (g *Graph) Len() int { return len(g.order) }

// Get returns a copy of the panorama with the given ID.
func (g *Graph) Get(id string) (Panorama, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Panorama{}, false
	}
	return n.snapshot(), true
}

// Neighbors returns the sorted IDs connected to id.
func (g *Graph) Neighbors(id string) []string {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	return n.snapshot().Connections
}

// Panoramas returns copies of all nodes in insertion order.
func (g *Graph) Panoramas() []Panorama {
	out := make([]Panorama, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id].snapshot())
	}
	return out
}

// Validate reports structural problems that block committing the tour.
func (g *Graph) Validate() []string {
	var problems []string
	if g.start != "" {
		if _, ok := g.nodes[g.start]; !ok {
			problems = append(problems, fmt.Sprintf("start panorama %q does not exist", g.start))
		}
	}
	for _, id := range g.order {
		n := g.nodes[id]
		for other := range n.links {
			if other == id {
				problems = append(problems, fmt.Sprintf("panorama %q connects to itself", id))
				continue
			}
			peer, ok := g.nodes[other]
			if !ok {
				problems = append(problems, fmt.Sprintf("panorama %q connects to unknown %q", id, other))
				continue
			}
			if _, back := peer.links[id]; !back {
				problems = append(problems, fmt.Sprintf("connection %q -> %q is not symmetric", id, other))
			}
		}
	}
	sort.Strings(problems)
	return problems
}

// Snapshot returns the serializable tour.
func (g *Graph) Snapshot() Tour {
	return Tour{
		Panoramas:      g.Panoramas(),
		StartPanorama:  g.start,
		FloorplanAsset: g.floorplan,
	}
}

// Empty reports whether the tour carries no information worth committing.
func (t Tour) Empty() bool {
	return len(t.Panoramas) == 0 && t.FloorplanAsset == ""
}

// Encode serializes the tour to JSON.
func (t Tour) Encode() ([]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode tour: %w", err)
	}
	return data, nil
}

// Decode parses a tour encoded by Encode.
func Decode(data []byte) (Tour, error) {
	var t Tour
	if len(data) == 0 {
		return t, nil
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return Tour{}, fmt.Errorf("decode tour: %w", err)
	}
	return t, nil
}

// FromTour rebuilds a Graph from a serialized tour, rejecting graphs that
// would violate the graph invariants.
func FromTour(t Tour) (*Graph, error) {
	g := &Graph{}
	idMap := make(map[string]string, len(t.Panoramas))
	for _, p := range t.Panoramas {
		added, err := g.Add(p.AssetID, p.Category, p.Floor)
		if err != nil {
			return nil, err
		}
		idMap[p.ID] = added.ID
	}
	for _, p := range t.Panoramas {
		for _, other := range p.Connections {
			target, ok := idMap[other]
			if !ok {
				return nil, fmt.Errorf("%w %q", ErrUnknownPanorama, other)
			}
			if err := g.Connect(idMap[p.ID], target); err != nil {
				return nil, err
			}
		}
	}
	if t.StartPanorama != "" {
		start, ok := idMap[t.StartPanorama]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownPanorama, t.StartPanorama)
		}
		if err := g.SetStart(start); err != nil {
			return nil, err
		}
	}
	g.SetFloorplan(t.FloorplanAsset)
	return g, nil
}

func (n *node) snapshot() Panorama {
	p := n.Panorama
	p.Connections = make([]string, 0, len(n.links))
	for id := range n.links {
		p.Connections = append(p.Connections, id)
	}
	sort.Strings(p.Connections)
	return p
}
