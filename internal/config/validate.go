package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"

	"golang.org/x/text/currency"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateGrouping(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateDirectives(); err != nil {
		return err
	}
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateGrouping() error {
	if c.Grouping.BracketWindowMS <= 0 {
		return errors.New("grouping.bracket_window_ms must be positive")
	}
	return nil
}

func (c *Config) validateIngest() error {
	return ensurePositiveMap(map[string]int{
		"ingest.max_batch_files": c.Ingest.MaxBatchFiles,
		"ingest.max_file_mib":    c.Ingest.MaxFileMiB,
	})
}

func (c *Config) validateDirectives() error {
	if _, err := currency.ParseISO(c.Directives.Currency); err != nil {
		return fmt.Errorf("directives.currency %q is not an ISO 4217 code", c.Directives.Currency)
	}
	for key, value := range c.Directives.Surcharges {
		if key == "" {
			return errors.New("directives.surcharges contains an empty key")
		}
		if value < 0 {
			return fmt.Errorf("directives.surcharges.%s must not be negative", key)
		}
	}
	return nil
}

func (c *Config) validateBackend() error {
	switch c.Backend.Mode {
	case BackendSQLite:
		return nil
	case BackendHTTP:
		parsed, err := url.Parse(c.Backend.URL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("backend.url %q must be an absolute URL when backend.mode is http", c.Backend.URL)
		}
		if c.Backend.TimeoutSeconds <= 0 {
			return errors.New("backend.timeout_seconds must be positive")
		}
		return nil
	default:
		return fmt.Errorf("backend.mode: unsupported value %q (want %q or %q)", c.Backend.Mode, BackendSQLite, BackendHTTP)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
