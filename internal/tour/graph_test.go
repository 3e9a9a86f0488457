package tour_test

import (
	"errors"
	"reflect"
	"testing"

	"lichtwerk/internal/services"
	"lichtwerk/internal/tour"
)

func mustAdd(t *testing.T, g *tour.Graph, assetID string) tour.Panorama {
	t.Helper()
	p, err := g.Add(assetID, "interior", 0)
	if err != nil {
		t.Fatalf("Add(%s): %v", assetID, err)
	}
	return p
}

func TestConnectIsVisibleFromBothNodes(t *testing.T) {
	g := &tour.Graph{}
	a := mustAdd(t, g, "asset-a")
	b := mustAdd(t, g, "asset-b")

	if err := g.Connect(a.ID, b.ID); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if got := g.Neighbors(a.ID); !reflect.DeepEqual(got, []string{b.ID}) {
		t.Fatalf("a neighbors = %v", got)
	}
	if got := g.Neighbors(b.ID); !reflect.DeepEqual(got, []string{a.ID}) {
		t.Fatalf("b neighbors = %v", got)
	}
	if err := g.Connect(b.ID, a.ID); err != nil {
		t.Fatalf("reconnect should be a no-op: %v", err)
	}
	if len(g.Neighbors(a.ID)) != 1 {
		t.Fatal("duplicate connect created a second edge")
	}

	if err := g.Disconnect(b.ID, a.ID); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if len(g.Neighbors(a.ID)) != 0 || len(g.Neighbors(b.ID)) != 0 {
		t.Fatal("expected edge removed from both sides")
	}
}

func TestConnectRejectsSelfLoopAndUnknownNodes(t *testing.T) {
	g := &tour.Graph{}
	a := mustAdd(t, g, "asset-a")

	if err := g.Connect(a.ID, a.ID); !errors.Is(err, tour.ErrSelfLoop) {
		t.Fatalf("expected self loop error, got %v", err)
	}
	if err := g.Connect(a.ID, "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetStartRequiresExistingPanorama(t *testing.T) {
	g := &tour.Graph{}
	if err := g.SetStart("ghost"); !errors.Is(err, tour.ErrUnknownPanorama) {
		t.Fatalf("expected unknown panorama error, got %v", err)
	}
	if g.Start() != "" {
		t.Fatal("rejected start must not be recorded")
	}

	a := mustAdd(t, g, "asset-a")
	if err := g.SetStart(a.ID); err != nil {
		t.Fatalf("SetStart: %v", err)
	}
	if g.Start() != a.ID {
		t.Fatalf("unexpected start %q", g.Start())
	}
}

func TestAddRejectsDuplicateAsset(t *testing.T) {
	g := &tour.Graph{}
	mustAdd(t, g, "asset-a")
	if _, err := g.Add("asset-a", "", 1); !errors.Is(err, tour.ErrDuplicatePanorama) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if _, err := g.Add(" ", "", 0); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for blank asset, got %v", err)
	}
}

func TestRemoveDropsEdgesAndStart(t *testing.T) {
	g := &tour.Graph{}
	a := mustAdd(t, g, "asset-a")
	b := mustAdd(t, g, "asset-b")
	c := mustAdd(t, g, "asset-c")
	_ = g.Connect(a.ID, b.ID)
	_ = g.Connect(b.ID, c.ID)
	_ = g.SetStart(b.ID)

	if err := g.Remove(b.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if g.Len() != 2 {
		t.Fatalf("expected 2 panoramas, got %d", g.Len())
	}
	if g.Start() != "" {
		t.Fatal("expected start cleared")
	}
	if len(g.Neighbors(a.ID)) != 0 || len(g.Neighbors(c.ID)) != 0 {
		t.Fatal("expected edges to removed node to be dropped")
	}
	if problems := g.Validate(); len(problems) != 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	g := &tour.Graph{}
	a := mustAdd(t, g, "asset-a")
	b := mustAdd(t, g, "asset-b")
	_ = g.Connect(a.ID, b.ID)
	_ = g.SetStart(a.ID)
	g.SetFloorplan("floorplan-1")

	data, err := g.Snapshot().Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := tour.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	rebuilt, err := tour.FromTour(decoded)
	if err != nil {
		t.Fatalf("FromTour: %v", err)
	}
	if !reflect.DeepEqual(rebuilt.Snapshot(), g.Snapshot()) {
		t.Fatalf("round trip mismatch:\n got  %+v\n want %+v", rebuilt.Snapshot(), g.Snapshot())
	}
}

func TestFromTourRejectsDanglingStart(t *testing.T) {
	_, err := tour.FromTour(tour.Tour{StartPanorama: "nope"})
	if !errors.Is(err, tour.ErrUnknownPanorama) {
		t.Fatalf("expected unknown panorama, got %v", err)
	}
}

func TestEmptyTour(t *testing.T) {
	if !(tour.Tour{}).Empty() {
		t.Fatal("zero tour should be empty")
	}
	if (tour.Tour{FloorplanAsset: "f"}).Empty() {
		t.Fatal("floorplan-only tour is not empty")
	}
}
