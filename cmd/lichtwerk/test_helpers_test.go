package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lichtwerk/internal/api"
	"lichtwerk/internal/config"
	"lichtwerk/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("LICHTWERK_API_TOKEN", "")

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
data_dir = %q
media_dir = %q
log_dir = %q
api_bind = %q

[grouping]
bracket_window_ms = %d

[backend]
mode = "sqlite"

[logging]
level = "error"
`,
		cfg.Paths.DataDir,
		cfg.Paths.MediaDir,
		cfg.Paths.LogDir,
		cfg.Paths.APIBind,
		cfg.Grouping.BracketWindowMS,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// writePhoto writes a PNG to dir and backdates its modification time, which
// the CLI reports as the capture time.
func writePhoto(t *testing.T, dir, name string, data []byte, capturedAt time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	if err := os.Chtimes(path, capturedAt, capturedAt); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
	return path
}

func createJob(t *testing.T, env *cliTestEnv, address string) string {
	t.Helper()
	out, _, err := runCLI(t, env.configPath, "--json", "job", "create", "--address", address, "--date", "2026-03-14")
	if err != nil {
		t.Fatalf("job create: %v", err)
	}
	var job api.Job
	if err := json.Unmarshal([]byte(out), &job); err != nil {
		t.Fatalf("decode job: %v\n%s", err, out)
	}
	if job.ID == "" || job.Address != address {
		t.Fatalf("unexpected job %+v", job)
	}
	return job.ID
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
