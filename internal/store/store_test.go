package store_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lichtwerk/internal/backend"
	"lichtwerk/internal/directives"
	"lichtwerk/internal/logging"
	"lichtwerk/internal/order"
	"lichtwerk/internal/services"
	"lichtwerk/internal/store"
	"lichtwerk/internal/testsupport"
	"lichtwerk/internal/tour"
)

var base = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func at(seconds int) time.Time {
	return base.Add(time.Duration(seconds) * time.Second)
}

func setup(t *testing.T) (*store.Store, order.Job) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	return st, testsupport.NewJob(t, st)
}

func upload(t *testing.T, st *store.Store, jobID string, files ...backend.File) backend.UploadResult {
	t.Helper()
	res, err := st.Upload(context.Background(), jobID, files)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	return res
}

func fetch(t *testing.T, st *store.Store, jobID string) backend.StackSet {
	t.Helper()
	set, err := st.FetchStacks(context.Background(), jobID)
	if err != nil {
		t.Fatalf("FetchStacks: %v", err)
	}
	return set
}

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	if _, err := os.Stat(cfg.DatabasePath()); err != nil {
		t.Fatalf("expected database file: %v", err)
	}
	status, err := st.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if !status.Ready() {
		t.Fatalf("expected ready store, got %+v", status)
	}
	if status.SchemaVersion != 1 {
		t.Fatalf("unexpected schema version %d", status.SchemaVersion)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	st.Close()

	db, err := sql.Open("sqlite", cfg.DatabasePath())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("update version: %v", err)
	}
	db.Close()

	if _, err := store.Open(cfg); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestCreateAndListJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := st.CreateJob(ctx, backend.NewJob{Address: "   "}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for blank address, got %v", err)
	}

	date := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	created, err := st.CreateJob(ctx, backend.NewJob{Address: "Hafenweg 3", Customer: "Kunde", Date: date})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if created.Step != order.StepUpload || created.Locked || created.Revision != 0 {
		t.Fatalf("unexpected new job %+v", created)
	}

	jobs, err := st.ListJobs(ctx)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != created.ID {
		t.Fatalf("unexpected jobs %+v", jobs)
	}
	if !jobs[0].Date.Equal(date) {
		t.Fatalf("job date = %v, want %v", jobs[0].Date, date)
	}

	rec, err := st.FetchJob(ctx, created.ID)
	if err != nil {
		t.Fatalf("FetchJob: %v", err)
	}
	if rec.Job.Address != "Hafenweg 3" || rec.Job.Customer != "Kunde" {
		t.Fatalf("unexpected record %+v", rec.Job)
	}
	if !rec.Tour.Empty() {
		t.Fatalf("expected empty tour, got %+v", rec.Tour)
	}

	if _, err := st.FetchJob(ctx, "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUploadGroupsBracketAndSingles(t *testing.T) {
	st, job := setup(t)

	res := upload(t, st, job.ID,
		testsupport.Photo(t, "IMG_0001.png", 1, at(0)),
		testsupport.Photo(t, "IMG_0002.png", 2, at(1)),
		testsupport.Photo(t, "IMG_0003.png", 3, at(2)),
		testsupport.Photo(t, "IMG_0004.png", 4, at(60)),
	)
	if res.UploadedCount != 4 || len(res.Duplicates) != 0 {
		t.Fatalf("unexpected upload result %+v", res)
	}

	set := fetch(t, st, job.ID)
	if set.Revision != 1 {
		t.Fatalf("revision = %d, want 1", set.Revision)
	}
	if len(set.Assets) != 4 {
		t.Fatalf("expected 4 assets, got %d", len(set.Assets))
	}
	if len(set.Stacks) != 2 {
		t.Fatalf("expected 2 stacks, got %d", len(set.Stacks))
	}
	if set.Stacks[0].Type != order.StackBracket3 || len(set.Stacks[0].Assets) != 3 {
		t.Fatalf("expected 3-bracket first, got %+v", set.Stacks[0])
	}
	if set.Stacks[1].Type != order.StackSingle {
		t.Fatalf("expected single second, got %s", set.Stacks[1].Type)
	}
	for _, asset := range set.Assets {
		if asset.Width != 8 || asset.Height != 6 {
			t.Fatalf("unexpected dimensions %dx%d", asset.Width, asset.Height)
		}
		if !strings.HasPrefix(asset.URL, store.MediaURLPrefix+"jobs/"+job.ID+"/") {
			t.Fatalf("unexpected url %q", asset.URL)
		}
		if _, err := os.Stat(st.Blobs().Path(strings.TrimPrefix(asset.URL, store.MediaURLPrefix))); err != nil {
			t.Fatalf("blob missing for %s: %v", asset.Name, err)
		}
	}

	again := fetch(t, st, job.ID)
	for i := range set.Stacks {
		if again.Stacks[i].ID != set.Stacks[i].ID {
			t.Fatalf("stack ids must be stable across fetches")
		}
	}
}

func TestUploadSkipsDuplicateContent(t *testing.T) {
	st, job := setup(t)

	upload(t, st, job.ID, testsupport.Photo(t, "a.png", 7, at(0)))
	res := upload(t, st, job.ID,
		testsupport.Photo(t, "a-copy.png", 7, at(0)),
		testsupport.Photo(t, "b.png", 8, at(30)),
		testsupport.Photo(t, "b-again.png", 8, at(30)),
	)
	if res.UploadedCount != 1 {
		t.Fatalf("uploaded = %d, want 1", res.UploadedCount)
	}
	if strings.Join(res.Duplicates, ",") != "a-copy.png,b-again.png" {
		t.Fatalf("unexpected duplicates %v", res.Duplicates)
	}

	dup := upload(t, st, job.ID, testsupport.Photo(t, "a.png", 7, at(0)))
	if dup.UploadedCount != 0 || len(dup.Duplicates) != 1 {
		t.Fatalf("unexpected result %+v", dup)
	}
	set := fetch(t, st, job.ID)
	if set.Revision != 2 {
		t.Fatalf("duplicate-only batch must not bump revision, got %d", set.Revision)
	}
	if len(set.Assets) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(set.Assets))
	}
}

func TestUploadRejectsBatchWithUnsupportedFile(t *testing.T) {
	st, job := setup(t)

	_, err := st.Upload(context.Background(), job.ID, []backend.File{
		testsupport.Photo(t, "ok.png", 1, at(0)),
		testsupport.Text("notes.jpg"),
	})
	var unsupported *services.UnsupportedAssetError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedAssetError, got %v", err)
	}
	if len(unsupported.Files) != 1 || unsupported.Files[0] != "notes.jpg" {
		t.Fatalf("unexpected rejected files %v", unsupported.Files)
	}

	set := fetch(t, st, job.ID)
	if len(set.Assets) != 0 || set.Revision != 0 {
		t.Fatalf("failed batch must not record anything: %+v", set)
	}
	entries, _ := os.ReadDir(filepath.Join(st.Blobs().Root(), "jobs", job.ID))
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), ".") {
			t.Fatalf("blob %s left behind", entry.Name())
		}
	}
}

func TestUploadDetectsPanorama(t *testing.T) {
	st, job := setup(t)

	upload(t, st, job.ID,
		testsupport.Photo(t, "flat.png", 1, at(0)),
		testsupport.Panorama(t, "pano.png", 2, at(1)),
	)
	set := fetch(t, st, job.ID)
	var pano order.Stack
	for _, stack := range set.Stacks {
		if stack.Type == order.StackPano360 {
			pano = stack
		}
	}
	if pano.ID == "" || !pano.Assets[0].Is360 {
		t.Fatalf("expected a 360 stack, got %+v", set.Stacks)
	}
}

func TestAnnotationsSurviveRegrouping(t *testing.T) {
	st, job := setup(t)
	ctx := context.Background()

	upload(t, st, job.ID, testsupport.Photo(t, "kitchen.png", 1, at(0)))
	stack := fetch(t, st, job.ID).Stacks[0]

	err := st.SaveAnnotation(ctx, job.ID, order.Annotation{StackID: stack.ID, RoomType: "küche", Comment: "Fenster"})
	if err != nil {
		t.Fatalf("SaveAnnotation: %v", err)
	}

	upload(t, st, job.ID, testsupport.Photo(t, "garden.png", 2, at(600)))
	set := fetch(t, st, job.ID)
	if len(set.Stacks) != 2 {
		t.Fatalf("expected 2 stacks, got %d", len(set.Stacks))
	}
	got := set.Stacks[0]
	if got.ID != stack.ID || got.RoomType != order.RoomKitchen || got.Comment != "Fenster" {
		t.Fatalf("annotation lost: %+v", got)
	}
	if set.Stacks[1].HasRoomType() {
		t.Fatalf("new stack must start unannotated")
	}

	if err := st.SaveAnnotation(ctx, job.ID, order.Annotation{StackID: stack.ID, RoomType: "Ballsaal"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := st.SaveAnnotation(ctx, job.ID, order.Annotation{StackID: "nope", RoomType: order.RoomKitchen}); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCommitLocksJob(t *testing.T) {
	st, job := setup(t)
	ctx := context.Background()

	upload(t, st, job.ID,
		testsupport.Photo(t, "a.png", 1, at(0)),
		testsupport.Panorama(t, "p.png", 2, at(100)),
	)
	set := fetch(t, st, job.ID)

	d := directives.Directives{
		Style:   directives.StyleBright,
		Sky:     directives.SkyBlue,
		Retouch: []directives.RetouchFlag{directives.RetouchLawnGreening},
		Notes:   "Bitte Kabel entfernen",
	}
	req := backend.CommitRequest{Revision: set.Revision, Directives: d, Locked: true}

	if _, err := st.Commit(ctx, job.ID, req); !errors.Is(err, services.ErrRejected) {
		t.Fatalf("expected rejection while rooms are missing, got %v", err)
	}

	for _, stack := range set.Stacks {
		if err := st.SaveAnnotation(ctx, job.ID, order.Annotation{StackID: stack.ID, RoomType: order.RoomLivingRoom}); err != nil {
			t.Fatalf("SaveAnnotation: %v", err)
		}
	}

	stale := req
	stale.Revision = set.Revision - 1
	if _, err := st.Commit(ctx, job.ID, stale); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict for stale revision, got %v", err)
	}

	var pano order.Asset
	for _, asset := range set.Assets {
		if asset.Is360 {
			pano = asset
		}
	}
	panoID := tour.PanoramaID(pano.ID)
	req.Tour = &tour.Tour{
		Panoramas:     []tour.Panorama{{ID: panoID, AssetID: pano.ID, Category: "Wohnzimmer", Connections: []string{}}},
		StartPanorama: panoID,
	}

	res, err := st.Commit(ctx, job.ID, req)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if res.Revision != set.Revision+1 || res.LockedAt.IsZero() {
		t.Fatalf("unexpected commit result %+v", res)
	}

	rec, err := st.FetchJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("FetchJob: %v", err)
	}
	if !rec.Job.Locked || rec.Job.Step != order.StepLock {
		t.Fatalf("job not locked: %+v", rec.Job)
	}
	if rec.Directives.Style != directives.StyleBright || rec.Directives.Notes != d.Notes || !rec.Directives.HasRetouch(directives.RetouchLawnGreening) {
		t.Fatalf("directives not persisted: %+v", rec.Directives)
	}
	if rec.Tour.StartPanorama != panoID || len(rec.Tour.Panoramas) != 1 {
		t.Fatalf("tour not persisted: %+v", rec.Tour)
	}

	if n, _ := st.CommitCount(ctx, job.ID); n != 1 {
		t.Fatalf("commit count = %d, want 1", n)
	}

	again := req
	again.Revision = res.Revision
	if _, err := st.Commit(ctx, job.ID, again); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("second lock must conflict, got %v", err)
	}
	if _, err := st.Upload(ctx, job.ID, []backend.File{testsupport.Photo(t, "late.png", 9, at(900))}); !errors.Is(err, services.ErrRejected) {
		t.Fatalf("upload after lock must be rejected, got %v", err)
	}
	if err := st.SaveAnnotation(ctx, job.ID, order.Annotation{StackID: set.Stacks[0].ID, RoomType: order.RoomKitchen}); !errors.Is(err, services.ErrRejected) {
		t.Fatalf("annotation after lock must be rejected, got %v", err)
	}
}

func TestCommitDraftKeepsJobOpen(t *testing.T) {
	st, job := setup(t)
	ctx := context.Background()

	res, err := st.Commit(ctx, job.ID, backend.CommitRequest{
		Directives: directives.Directives{Window: directives.WindowPulled},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if res.Revision != 1 || !res.LockedAt.IsZero() {
		t.Fatalf("unexpected result %+v", res)
	}
	rec, err := st.FetchJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("FetchJob: %v", err)
	}
	if rec.Job.Locked || rec.Directives.Window != directives.WindowPulled {
		t.Fatalf("unexpected record %+v", rec)
	}

	if _, err := st.Commit(ctx, job.ID, backend.CommitRequest{
		Revision:   1,
		Directives: directives.Directives{Style: "neon"},
	}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCommitWithNoStacksLocks(t *testing.T) {
	st, job := setup(t)

	if _, err := st.Commit(context.Background(), job.ID, backend.CommitRequest{Locked: true}); err != nil {
		t.Fatalf("empty job should lock: %v", err)
	}
}

func TestCommitDraftRecordsStep(t *testing.T) {
	st, job := setup(t)
	ctx := context.Background()

	if _, err := st.Commit(ctx, job.ID, backend.CommitRequest{Step: order.StepDirectives}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	rec, err := st.FetchJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("FetchJob: %v", err)
	}
	if rec.Job.Step != order.StepDirectives {
		t.Fatalf("step = %d, want %d", rec.Job.Step, order.StepDirectives)
	}

	if _, err := st.Commit(ctx, job.ID, backend.CommitRequest{Revision: 1}); err != nil {
		t.Fatalf("Commit without step: %v", err)
	}
	if rec, _ = st.FetchJob(ctx, job.ID); rec.Job.Step != order.StepDirectives {
		t.Fatalf("zero step must keep the stored step, got %d", rec.Job.Step)
	}

	if _, err := st.Commit(ctx, job.ID, backend.CommitRequest{Revision: 2, Step: 9}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected out-of-range step to fail validation, got %v", err)
	}
}

func TestStoreLogsCarryJobID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	st, err := store.Open(testsupport.NewConfig(t), store.WithLogger(logger))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	job := testsupport.NewJob(t, st)

	upload(t, st, job.ID, testsupport.Photo(t, "a.png", 1, at(0)))
	rev := fetch(t, st, job.ID).Revision
	if _, err := st.Commit(context.Background(), job.ID, backend.CommitRequest{Revision: rev}); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	seen := map[string]bool{}
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var record map[string]any
		if err := json.Unmarshal(line, &record); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		msg, _ := record["msg"].(string)
		switch msg {
		case "job created", "assets stored", "job committed":
			if record[logging.FieldJobID] != job.ID {
				t.Fatalf("%q logged without %s: %v", msg, logging.FieldJobID, record)
			}
			seen[msg] = true
		}
	}
	for _, msg := range []string{"job created", "assets stored", "job committed"} {
		if !seen[msg] {
			t.Fatalf("expected a %q record, got %s", msg, buf.String())
		}
	}
}
