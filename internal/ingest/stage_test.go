package ingest

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"reflect"
	"sync"
	"testing"
	"time"

	"lichtwerk/internal/backend"
	"lichtwerk/internal/logging"
	"lichtwerk/internal/order"
	"lichtwerk/internal/services"
)

type fakeLock struct{ locked bool }

func (f *fakeLock) Locked() bool { return f.locked }

type fakeBackend struct {
	mu        sync.Mutex
	uploads   [][]backend.File
	uploadErr error
	fetchErr  error
	set       backend.StackSet
}

func (f *fakeBackend) Upload(_ context.Context, _ string, files []backend.File) (backend.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return backend.UploadResult{}, f.uploadErr
	}
	f.uploads = append(f.uploads, files)
	return backend.UploadResult{UploadedCount: len(files)}, nil
}

func (f *fakeBackend) FetchStacks(context.Context, string) (backend.StackSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return backend.StackSet{}, f.fetchErr
	}
	return f.set, nil
}

func pngFile(t *testing.T, name string) backend.File {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 3))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return backend.FileFromBytes(name, buf.Bytes(), time.Unix(1700000000, 0))
}

func textFile(name string) backend.File {
	return backend.FileFromBytes(name, []byte("plain text, definitely not a photo"), time.Time{})
}

func authoritativeSet() backend.StackSet {
	a := order.Asset{ID: "a1", Name: "one.png"}
	return backend.StackSet{
		Assets:   []order.Asset{a},
		Stacks:   []order.Stack{{ID: "s1", Type: order.StackSingle, Assets: []order.Asset{a}}},
		Revision: 3,
	}
}

func newStage(fb *fakeBackend, lock *fakeLock, opts ...Option) (*Stage, *order.Inventory) {
	inv := &order.Inventory{}
	return New("job-1", lock, fb, inv, logging.NewNop(), opts...), inv
}

func TestSubmitBatchReplacesLocalState(t *testing.T) {
	fb := &fakeBackend{set: authoritativeSet()}
	var hooked backend.StackSet
	stage, inv := newStage(fb, &fakeLock{}, WithRefreshHook(func(s backend.StackSet) { hooked = s }))
	inv.Replace([]order.Asset{{ID: "stale"}}, []order.Stack{{ID: "stale-stack"}})

	result, err := stage.SubmitBatch(context.Background(), []backend.File{pngFile(t, "one.png")})
	if err != nil {
		t.Fatalf("SubmitBatch: %v", err)
	}
	if result.UploadedCount != 1 || result.Stacks != 1 || result.Assets != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !reflect.DeepEqual(inv.Stacks(), fb.set.Stacks) || !reflect.DeepEqual(inv.Assets(), fb.set.Assets) {
		t.Fatalf("local state not replaced: %+v", inv.Stacks())
	}
	if hooked.Revision != 3 {
		t.Fatalf("refresh hook not called: %+v", hooked)
	}
	if got := fb.uploads[0][0].MediaType; got != "image/png" {
		t.Fatalf("media type not set on upload: %q", got)
	}
}

func TestSubmitBatchOnlyUnsupported(t *testing.T) {
	fb := &fakeBackend{set: authoritativeSet()}
	stage, inv := newStage(fb, &fakeLock{})
	inv.Replace([]order.Asset{{ID: "kept"}}, nil)

	result, err := stage.SubmitBatch(context.Background(), []backend.File{textFile("a.txt"), textFile("b.jpg")})
	var unsupported *services.UnsupportedAssetError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedAssetError, got %v", err)
	}
	if !reflect.DeepEqual(unsupported.Files, []string{"a.txt", "b.jpg"}) || !reflect.DeepEqual(result.Rejected, unsupported.Files) {
		t.Fatalf("unexpected rejected files: %v / %v", unsupported.Files, result.Rejected)
	}
	if len(fb.uploads) != 0 {
		t.Fatal("nothing should be uploaded")
	}
	if assets := inv.Assets(); len(assets) != 1 || assets[0].ID != "kept" {
		t.Fatalf("local state changed: %+v", assets)
	}
}

func TestSubmitBatchPartiallyUnsupported(t *testing.T) {
	fb := &fakeBackend{set: authoritativeSet()}
	stage, _ := newStage(fb, &fakeLock{})

	result, err := stage.SubmitBatch(context.Background(), []backend.File{textFile("notes.doc"), pngFile(t, "one.png")})
	if !errors.Is(err, services.ErrUnsupportedAsset) {
		t.Fatalf("expected unsupported asset error alongside result, got %v", err)
	}
	if result.UploadedCount != 1 || !reflect.DeepEqual(result.Rejected, []string{"notes.doc"}) {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(fb.uploads) != 1 || len(fb.uploads[0]) != 1 || fb.uploads[0][0].Name != "one.png" {
		t.Fatalf("expected only the valid file uploaded: %+v", fb.uploads)
	}
}

func TestSubmitBatchTransportFailureLeavesStateUnchanged(t *testing.T) {
	fb := &fakeBackend{set: authoritativeSet(), uploadErr: errors.New("connection reset")}
	stage, inv := newStage(fb, &fakeLock{})
	inv.Replace([]order.Asset{{ID: "kept"}}, []order.Stack{{ID: "kept-stack"}})

	_, err := stage.SubmitBatch(context.Background(), []backend.File{pngFile(t, "one.png")})
	var transport *services.TransportError
	if !errors.As(err, &transport) || transport.Op != "upload" {
		t.Fatalf("expected upload transport error, got %v", err)
	}
	if stacks := inv.Stacks(); len(stacks) != 1 || stacks[0].ID != "kept-stack" {
		t.Fatalf("local state changed: %+v", stacks)
	}
}

func TestSubmitBatchRefetchFailure(t *testing.T) {
	fb := &fakeBackend{set: authoritativeSet(), fetchErr: errors.New("timeout")}
	stage, inv := newStage(fb, &fakeLock{})

	result, err := stage.SubmitBatch(context.Background(), []backend.File{pngFile(t, "one.png")})
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if result.UploadedCount != 1 {
		t.Fatalf("upload acknowledgement should be reported: %+v", result)
	}
	if len(inv.Stacks()) != 0 {
		t.Fatal("inventory should stay unchanged")
	}

	fb.fetchErr = nil
	if err := stage.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(inv.Stacks()) != 1 {
		t.Fatal("refresh should replace inventory")
	}
}

func TestSubmitBatchGuards(t *testing.T) {
	fb := &fakeBackend{set: authoritativeSet()}
	lock := &fakeLock{}
	stage, _ := newStage(fb, lock, WithLimits(Limits{MaxBatchFiles: 1, MaxFileBytes: 10}))

	if result, err := stage.SubmitBatch(context.Background(), nil); err != nil || result.UploadedCount != 0 {
		t.Fatalf("empty batch should be a no-op, got %+v %v", result, err)
	}
	files := []backend.File{pngFile(t, "a.png"), pngFile(t, "b.png")}
	if _, err := stage.SubmitBatch(context.Background(), files); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected batch limit validation error, got %v", err)
	}
	result, err := stage.SubmitBatch(context.Background(), files[:1])
	var oversized *services.OversizedAssetError
	if !errors.As(err, &oversized) || !errors.Is(err, services.ErrValidation) || errors.Is(err, services.ErrUnsupportedAsset) {
		t.Fatalf("expected oversized file to fail validation, got %v", err)
	}
	if !reflect.DeepEqual(result.Oversized, []string{"a.png"}) || len(result.Rejected) != 0 {
		t.Fatalf("oversized file reported as unsupported: %+v", result)
	}

	lock.locked = true
	if result, err := stage.SubmitBatch(context.Background(), files[:1]); err != nil || result.UploadedCount != 0 {
		t.Fatalf("locked job should ignore submissions, got %+v %v", result, err)
	}
	if len(fb.uploads) != 0 {
		t.Fatal("no uploads expected")
	}
}

func TestSubmitBatchAsyncDeliversOutcome(t *testing.T) {
	fb := &fakeBackend{set: authoritativeSet()}
	stage, inv := newStage(fb, &fakeLock{})

	ch := stage.SubmitBatchAsync(context.Background(), []backend.File{pngFile(t, "one.png")})
	select {
	case outcome, ok := <-ch:
		if !ok {
			t.Fatal("channel closed without outcome")
		}
		if outcome.Err != nil || outcome.Result.UploadedCount != 1 {
			t.Fatalf("unexpected outcome: %+v", outcome)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for outcome")
	}
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after the outcome")
	}
	if len(inv.Stacks()) != 1 {
		t.Fatal("async submit should refresh inventory")
	}
}

func TestSubmitBatchSeparatesOversizedFromUnsupported(t *testing.T) {
	fb := &fakeBackend{set: authoritativeSet()}
	stage, _ := newStage(fb, &fakeLock{}, WithLimits(Limits{MaxFileBytes: 1024}))
	big := backend.FileFromBytes("wohnzimmer.jpg", bytes.Repeat([]byte{0xff}, 4096), time.Time{})

	result, err := stage.SubmitBatch(context.Background(), []backend.File{big, textFile("notes.doc"), pngFile(t, "one.png")})

	var unsupported *services.UnsupportedAssetError
	if !errors.As(err, &unsupported) || !reflect.DeepEqual(unsupported.Files, []string{"notes.doc"}) {
		t.Fatalf("expected notes.doc reported unsupported, got %v", err)
	}
	var oversized *services.OversizedAssetError
	if !errors.As(err, &oversized) || !reflect.DeepEqual(oversized.Files, []string{"wohnzimmer.jpg"}) || oversized.Limit != 1024 {
		t.Fatalf("expected wohnzimmer.jpg reported oversized, got %v", err)
	}
	if !reflect.DeepEqual(result.Rejected, []string{"notes.doc"}) || !reflect.DeepEqual(result.Oversized, []string{"wohnzimmer.jpg"}) {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.UploadedCount != 1 || len(fb.uploads) != 1 || fb.uploads[0][0].Name != "one.png" {
		t.Fatalf("expected only one.png uploaded: %+v", fb.uploads)
	}
}
