package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lichtwerk/internal/config"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name   string
		path   string
		passed bool
		detail string
	}{
		{"writable dir", dir, true, dir},
		{"missing", filepath.Join(dir, "nope"), false, "missing"},
		{"file", file, false, "not a directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckDirectoryAccess("Media directory", tt.path)
			if result.Passed != tt.passed {
				t.Fatalf("passed = %v, want %v (%s)", result.Passed, tt.passed, result.Detail)
			}
			if !strings.Contains(result.Detail, tt.detail) {
				t.Fatalf("detail %q does not mention %q", result.Detail, tt.detail)
			}
		})
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("test", dir, 1); !result.Passed {
		t.Fatalf("expected pass with a one byte minimum, got: %s", result.Detail)
	}
	if result := CheckFreeSpace("test", dir, ^uint64(0)); result.Passed {
		t.Fatal("expected failure with an impossible minimum")
	}
	if result := CheckFreeSpace("test", filepath.Join(dir, "missing"), 1); result.Passed {
		t.Fatal("expected failure for missing path")
	}
}

func TestCheckBackend_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" || r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if result := CheckBackend(context.Background(), srv.URL+"/", "good"); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckBackend(context.Background(), srv.URL, "bad"); result.Passed {
		t.Fatal("expected failure for bad token")
	}
}

func TestCheckBackend_MissingURL(t *testing.T) {
	if result := CheckBackend(context.Background(), "", "key"); result.Passed {
		t.Fatal("expected failure for missing URL")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatalf("expected nil results, got %v", results)
	}
}

func TestRunAll_SQLiteSkipsBackend(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = base
	cfg.Paths.MediaDir = base
	results := RunAll(context.Background(), &cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Name == "Backend" {
			t.Fatal("backend check should be skipped in sqlite mode")
		}
	}
	if failed := Failed(results[:2]); len(failed) != 0 {
		t.Fatalf("directory checks failed: %+v", failed)
	}
	if !results[0].Required || !results[1].Required || results[2].Required {
		t.Fatalf("unexpected required flags: %+v", results)
	}
}

func TestBlockingIgnoresAdvisoryFailures(t *testing.T) {
	results := []Result{
		{Name: "Data directory", Passed: true, Required: true},
		{Name: "Media free space", Passed: false},
		{Name: "Backend", Passed: false, Required: true, Detail: "rejected api token"},
	}
	if got := Failed(results); len(got) != 2 {
		t.Fatalf("expected 2 failures, got %+v", got)
	}
	blocking := Blocking(results)
	if len(blocking) != 1 || blocking[0].Name != "Backend" {
		t.Fatalf("unexpected blocking results: %+v", blocking)
	}
}

func TestRunAll_HTTPIncludesBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = base
	cfg.Paths.MediaDir = base
	cfg.Backend.Mode = config.BackendHTTP
	cfg.Backend.URL = srv.URL
	results := RunAll(context.Background(), &cfg)
	last := results[len(results)-1]
	if last.Name != "Backend" || !last.Passed {
		t.Fatalf("expected passing backend check, got %+v", last)
	}
}
