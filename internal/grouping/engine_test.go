package grouping_test

import (
	"fmt"
	"math/rand"
	"reflect"
	"sort"
	"testing"
	"time"

	"lichtwerk/internal/grouping"
	"lichtwerk/internal/order"
)

var base = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func still(id string, offset time.Duration) order.Asset {
	return order.Asset{
		ID:         id,
		JobID:      "job-1",
		Name:       id + ".jpg",
		MediaType:  "image/jpeg",
		CapturedAt: base.Add(offset),
		Width:      6000,
		Height:     4000,
	}
}

// burst returns n frames spaced 500ms apart starting at offset.
func burst(prefix string, n int, offset time.Duration) []order.Asset {
	assets := make([]order.Asset, n)
	for i := range assets {
		assets[i] = still(fmt.Sprintf("%s-%d", prefix, i), offset+time.Duration(i)*500*time.Millisecond)
	}
	return assets
}

func stackTypes(stacks []order.Stack) []order.StackType {
	types := make([]order.StackType, len(stacks))
	for i, stack := range stacks {
		types[i] = stack.Type
	}
	return types
}

func TestThreeFramesWithinWindowFormBracket3(t *testing.T) {
	assets := []order.Asset{
		still("a", 0),
		still("b", 900*time.Millisecond),
		still("c", 1800*time.Millisecond),
	}
	stacks := grouping.Group(assets)
	if len(stacks) != 1 {
		t.Fatalf("expected one stack, got %d", len(stacks))
	}
	if stacks[0].Type != order.StackBracket3 {
		t.Fatalf("expected bracket3, got %s", stacks[0].Type)
	}
	if len(stacks[0].Assets) != 3 {
		t.Fatalf("expected 3 assets, got %d", len(stacks[0].Assets))
	}
	if stacks[0].JobID != "job-1" {
		t.Fatalf("expected job id to carry over, got %q", stacks[0].JobID)
	}
}

func TestPanoramaFormsSingleAssetStack(t *testing.T) {
	pano := still("pano", 0)
	pano.Is360 = true
	pano.Width, pano.Height = 8000, 4000

	stacks := grouping.Group([]order.Asset{pano})
	if len(stacks) != 1 || stacks[0].Type != order.StackPano360 || len(stacks[0].Assets) != 1 {
		t.Fatalf("unexpected stacks: %+v", stacks)
	}
}

func TestMotionAndPanoramaBreakSequences(t *testing.T) {
	video := still("clip", 600*time.Millisecond)
	video.MediaType = "video/mp4"
	pano := still("pano", 1200*time.Millisecond)
	pano.Is360 = true

	assets := []order.Asset{still("a", 0), video, pano, still("b", 1500*time.Millisecond)}
	got := stackTypes(grouping.Group(assets))
	want := []order.StackType{order.StackSingle, order.StackVideo, order.StackPano360, order.StackSingle}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected types: got %v want %v", got, want)
	}
}

func TestClusterSizeTieBreak(t *testing.T) {
	cases := []struct {
		size int
		want []order.StackType
	}{
		{1, []order.StackType{order.StackSingle}},
		{2, []order.StackType{order.StackSingle, order.StackSingle}},
		{3, []order.StackType{order.StackBracket3}},
		{4, []order.StackType{order.StackBracket3, order.StackSingle}},
		{5, []order.StackType{order.StackBracket5}},
		{6, []order.StackType{order.StackBracket5, order.StackSingle}},
		{8, []order.StackType{order.StackBracket5, order.StackSingle, order.StackSingle, order.StackSingle}},
		{10, []order.StackType{order.StackBracket5, order.StackBracket5}},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("size_%d", tc.size), func(t *testing.T) {
			stacks := grouping.Group(burst("f", tc.size, 0))
			if got := stackTypes(stacks); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("size %d: got %v want %v", tc.size, got, tc.want)
			}
			assertPartition(t, burst("f", tc.size, 0), stacks)
		})
	}
}

func TestSequenceBreaksOnGapAndDimensions(t *testing.T) {
	rotated := still("c", 1*time.Second)
	rotated.Width, rotated.Height = 4000, 6000
	assets := []order.Asset{
		still("a", 0),
		still("b", 500*time.Millisecond),
		rotated,
		still("d", 10*time.Second),
	}
	got := stackTypes(grouping.Group(assets))
	want := []order.StackType{order.StackSingle, order.StackSingle, order.StackSingle, order.StackSingle}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected types: got %v want %v", got, want)
	}
}

func TestCustomWindowWidensSequences(t *testing.T) {
	assets := []order.Asset{still("a", 0), still("b", 3*time.Second), still("c", 6*time.Second)}
	if got := grouping.Group(assets); len(got) != 3 {
		t.Fatalf("expected default window to split frames, got %d stacks", len(got))
	}
	engine := grouping.New(grouping.Options{BracketWindow: 4 * time.Second})
	got := engine.Group(assets)
	if len(got) != 1 || got[0].Type != order.StackBracket3 {
		t.Fatalf("expected a bracket3 with a 4s window, got %v", stackTypes(got))
	}
}

func TestFramesWithoutCaptureTimeStaySingle(t *testing.T) {
	assets := []order.Asset{
		{ID: "x", Name: "x.jpg", MediaType: "image/jpeg", Width: 10, Height: 10},
		{ID: "y", Name: "y.jpg", MediaType: "image/jpeg", Width: 10, Height: 10},
		{ID: "z", Name: "z.jpg", MediaType: "image/jpeg", Width: 10, Height: 10},
	}
	for _, stack := range grouping.Group(assets) {
		if stack.Type != order.StackSingle {
			t.Fatalf("expected singles for undated frames, got %s", stack.Type)
		}
	}
}

func TestGroupIsDeterministicAcrossInputOrder(t *testing.T) {
	var assets []order.Asset
	assets = append(assets, burst("k", 3, 0)...)
	assets = append(assets, burst("l", 5, 30*time.Second)...)
	assets = append(assets, burst("m", 7, time.Minute)...)
	pano := still("pano", 2*time.Minute)
	pano.Is360 = true
	assets = append(assets, pano)

	reference := grouping.Group(assets)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := make([]order.Asset, len(assets))
		copy(shuffled, assets)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := grouping.Group(shuffled); !reflect.DeepEqual(got, reference) {
			t.Fatalf("iteration %d produced a different partition", i)
		}
	}
	assertPartition(t, assets, reference)
	for i, stack := range reference {
		if stack.Position != i {
			t.Fatalf("stack %d has position %d", i, stack.Position)
		}
	}
}

func TestGroupDoesNotMutateInputAndDedupes(t *testing.T) {
	assets := burst("d", 3, 0)
	assets = append(assets, assets[1])
	snapshot := make([]order.Asset, len(assets))
	copy(snapshot, assets)

	stacks := grouping.Group(assets)
	if !reflect.DeepEqual(assets, snapshot) {
		t.Fatal("Group mutated its input")
	}
	if len(stacks) != 1 || len(stacks[0].Assets) != 3 {
		t.Fatalf("expected duplicate asset id to be counted once, got %v", stackTypes(stacks))
	}
}

func TestStackIDStableAcrossRegrouping(t *testing.T) {
	first := grouping.Group(burst("s", 3, 0))
	extended := append(burst("s", 3, 0), still("later", time.Hour))
	second := grouping.Group(extended)
	if first[0].ID != second[0].ID {
		t.Fatalf("expected unchanged stack to keep its id: %s vs %s", first[0].ID, second[0].ID)
	}
	if second[0].ID == second[1].ID {
		t.Fatal("expected distinct stacks to have distinct ids")
	}
	if grouping.StackID([]string{"a", "b"}) == grouping.StackID([]string{"ab"}) {
		t.Fatal("stack id must separate member ids")
	}
}

func TestGroupEmptyInput(t *testing.T) {
	if stacks := grouping.Group(nil); stacks != nil {
		t.Fatalf("expected nil stacks, got %v", stacks)
	}
}

func assertPartition(t *testing.T, assets []order.Asset, stacks []order.Stack) {
	t.Helper()
	want := make([]string, 0, len(assets))
	for _, asset := range assets {
		want = append(want, asset.ID)
	}
	var got []string
	for _, stack := range stacks {
		got = append(got, stack.AssetIDs()...)
	}
	sort.Strings(want)
	sort.Strings(got)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("partition mismatch:\n got  %v\n want %v", got, want)
	}
}
