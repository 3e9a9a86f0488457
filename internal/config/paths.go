package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// EnvConfigPath names a config file to use when no explicit path is given.
const EnvConfigPath = "LICHTWERK_CONFIG"

// DefaultConfigPath is ~/.config/lichtwerk/config.toml, expanded.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/lichtwerk/config.toml")
}

// locate resolves the config file. An explicit path is used as-is even when
// missing; otherwise $LICHTWERK_CONFIG, the default path and ./lichtwerk.toml
// are tried in order, falling back to the default path.
func locate(explicit string) (string, bool, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		path, err := expandPath(explicit)
		if err != nil {
			return "", false, err
		}
		exists, err := isFile(path)
		return path, exists, err
	}

	fallback, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	candidates := []string{fallback, "lichtwerk.toml"}
	if env := strings.TrimSpace(os.Getenv(EnvConfigPath)); env != "" {
		candidates = append([]string{env}, candidates...)
	}
	for _, candidate := range candidates {
		path, err := expandPath(candidate)
		if err != nil {
			return "", false, err
		}
		exists, err := isFile(path)
		if err != nil {
			return "", false, err
		}
		if exists {
			return path, true, nil
		}
	}
	return fallback, false, nil
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		return !info.IsDir(), nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat config: %w", err)
	}
}

// ExpandPath resolves a leading ~ and returns a clean absolute path.
// The empty string is returned unchanged.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = home + path[1:]
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", path, err)
	}
	return abs, nil
}

// CreateSample writes the annotated sample configuration to path,
// creating its directory.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
