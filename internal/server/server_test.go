package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"lichtwerk/internal/api"
	"lichtwerk/internal/server"
	"lichtwerk/internal/store"
	"lichtwerk/internal/testsupport"
)

func newServer(t *testing.T, opts server.Options) (*httptest.Server, *store.Store) {
	t.Helper()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ts := httptest.NewServer(server.FromStore(st, opts).Handler())
	t.Cleanup(ts.Close)
	return ts, st
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func multipartBody(t *testing.T, parts map[string][]byte, captured time.Time) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range parts {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
		header.Set(api.CapturedAtHeader, api.FormatCaptureTime(captured))
		w, err := mw.CreatePart(header)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestHealthIsPublic(t *testing.T) {
	ts, _ := newServer(t, server.Options{Token: "secret"})

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
	health := decode[api.HealthResponse](t, resp)
	if health.Status != "ok" || health.SchemaVersion != 1 {
		t.Fatalf("unexpected health %+v", health)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatal("expected a request id header")
	}
}

func TestAuthRequired(t *testing.T) {
	ts, _ := newServer(t, server.Options{Token: "secret"})

	if resp := doJSON(t, http.MethodGet, ts.URL+"/api/jobs", "", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	if resp := doJSON(t, http.MethodGet, ts.URL+"/api/jobs", "wrong", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", resp.StatusCode)
	}
	if resp := doJSON(t, http.MethodGet, ts.URL+"/api/jobs", "secret", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp.StatusCode)
	}
}

func TestJobLifecycleOverHTTP(t *testing.T) {
	ts, _ := newServer(t, server.Options{})

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/jobs", "", api.CreateJobRequest{Address: "Seestraße 9", Date: "2026-08-01"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	job := decode[api.Job](t, resp)
	if job.ID == "" || job.Date != "2026-08-01" || job.Step != 1 {
		t.Fatalf("unexpected job %+v", job)
	}

	if resp := doJSON(t, http.MethodPost, ts.URL+"/api/jobs", "", api.CreateJobRequest{Address: ""}); resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for blank address, got %d", resp.StatusCode)
	}
	if resp := doJSON(t, http.MethodPost, ts.URL+"/api/jobs", "", map[string]any{"address": "x", "bogus": 1}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/jobs/missing", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if e := decode[api.ErrorResponse](t, resp); e.Code != api.CodeNotFound {
		t.Fatalf("unexpected error body %+v", e)
	}

	photo := testsupport.PNG(t, 8, 6, 1)
	body, contentType := multipartBody(t, map[string][]byte{"IMG_1.png": photo}, time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/jobs/"+job.ID+"/assets", body)
	req.Header.Set("Content-Type", contentType)
	upResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer upResp.Body.Close()
	if upResp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d", upResp.StatusCode)
	}
	if up := decode[api.UploadResponse](t, upResp); up.UploadedCount != 1 {
		t.Fatalf("unexpected upload %+v", up)
	}

	set := decode[api.StackSet](t, doJSON(t, http.MethodGet, ts.URL+"/api/jobs/"+job.ID+"/stacks", "", nil))
	if len(set.Stacks) != 1 || set.Revision != 1 {
		t.Fatalf("unexpected stacks %+v", set)
	}
	if set.Assets[0].CapturedAt == "" {
		t.Fatal("capture time must come from the part header")
	}

	media := doJSON(t, http.MethodGet, ts.URL+set.Assets[0].URL, "", nil)
	if media.StatusCode != http.StatusOK {
		t.Fatalf("media status = %d", media.StatusCode)
	}
	served, _ := io.ReadAll(media.Body)
	if !bytes.Equal(served, photo) {
		t.Fatal("served bytes differ from upload")
	}
	if resp := doJSON(t, http.MethodGet, ts.URL+"/media/jobs/"+job.ID+"/nothing.png", "", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown media, got %d", resp.StatusCode)
	}

	annURL := ts.URL + "/api/jobs/" + job.ID + "/stacks/" + set.Stacks[0].ID + "/annotation"
	if resp := doJSON(t, http.MethodPut, annURL, "", api.AnnotationRequest{RoomType: "Garten"}); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("annotation status = %d", resp.StatusCode)
	}

	commitURL := ts.URL + "/api/jobs/" + job.ID + "/commit"
	if resp := doJSON(t, http.MethodPost, commitURL, "", api.CommitRequest{Revision: 0, Locked: true}); resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for stale revision, got %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodPost, commitURL, "", api.CommitRequest{Revision: 1, Locked: true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("commit status = %d", resp.StatusCode)
	}
	if c := decode[api.CommitResponse](t, resp); c.Revision != 2 || c.LockedAt == "" {
		t.Fatalf("unexpected commit %+v", c)
	}

	if resp := doJSON(t, http.MethodPut, annURL, "", api.AnnotationRequest{RoomType: "Küche"}); resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 after lock, got %d", resp.StatusCode)
	}
}

func TestUploadRejectsUnsupportedAndOversized(t *testing.T) {
	ts, st := newServer(t, server.Options{MaxFileBytes: 4096, MaxBatchFiles: 2})
	job := testsupport.NewJob(t, st)
	url := ts.URL + "/api/jobs/" + job.ID + "/assets"

	post := func(parts map[string][]byte) *http.Response {
		body, contentType := multipartBody(t, parts, time.Time{})
		req, _ := http.NewRequest(http.MethodPost, url, body)
		req.Header.Set("Content-Type", contentType)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("upload: %v", err)
		}
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp := post(map[string][]byte{"notes.jpg": []byte(strings.Repeat("plain text ", 10))})
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", resp.StatusCode)
	}
	if e := decode[api.ErrorResponse](t, resp); len(e.Files) != 1 || e.Files[0] != "notes.jpg" {
		t.Fatalf("unexpected error %+v", e)
	}

	if resp := post(map[string][]byte{"big.png": bytes.Repeat([]byte{1}, 5000)}); resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for oversized file, got %d", resp.StatusCode)
	}

	three := map[string][]byte{
		"a.png": testsupport.PNG(t, 4, 4, 1),
		"b.png": testsupport.PNG(t, 4, 4, 2),
		"c.png": testsupport.PNG(t, 4, 4, 3),
	}
	if resp := post(three); resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for oversized batch, got %d", resp.StatusCode)
	}

	if resp := doJSON(t, http.MethodPost, url, "", map[string]string{}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-multipart body, got %d", resp.StatusCode)
	}
}
