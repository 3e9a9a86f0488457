package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"lichtwerk/internal/backend/httpbackend"
	"lichtwerk/internal/preflight"
	"lichtwerk/internal/store"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const statusLabelWidth = 20

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check directories, free space and the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			color := shouldColorize(out)

			fmt.Fprintln(out, "System")
			fmt.Fprintln(out, renderStatusLine("Backend mode", statusInfo, cfg.Backend.Mode, color))
			results := preflight.RunAll(cmd.Context(), cfg)
			for _, r := range results {
				kind := statusOK
				switch {
				case !r.Passed && r.Required:
					kind = statusError
				case !r.Passed:
					kind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, color))
			}

			b, err := ctx.openBackend(cmd)
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Job store", statusError, err.Error(), color))
				return fmt.Errorf("backend unavailable")
			}
			healthy := true
			switch client := b.(type) {
			case *store.Store:
				health, err := client.Health(cmd.Context())
				if err != nil || !health.Ready() {
					healthy = false
					detail := health.Error
					if len(health.MissingTables) > 0 {
						detail = "missing tables: " + strings.Join(health.MissingTables, ", ")
					}
					fmt.Fprintln(out, renderStatusLine("Job store", statusError, detail, color))
					break
				}
				fmt.Fprintln(out, renderStatusLine("Job store", statusOK,
					fmt.Sprintf("%s (schema v%d)", health.DBPath, health.SchemaVersion), color))
				fmt.Fprintln(out, renderStatusLine("Jobs", statusInfo, humanize.Comma(int64(health.Jobs)), color))
				fmt.Fprintln(out, renderStatusLine("Assets", statusInfo, humanize.Comma(int64(health.Assets)), color))
			case *httpbackend.Client:
				health, err := client.Health(cmd.Context())
				if err != nil {
					healthy = false
					fmt.Fprintln(out, renderStatusLine("Job store", statusError, err.Error(), color))
					break
				}
				kind := statusOK
				if health.Status != "ok" {
					kind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Job store", kind, health.Status, color))
			}

			if len(preflight.Blocking(results)) > 0 || !healthy {
				return fmt.Errorf("status checks failed")
			}
			return nil
		},
	}
}

func renderStatusLine(label string, kind statusKind, message string, color bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusKindLabel(kind), message)
	}
	base := fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", statusText)
	if color {
		if c := statusKindColor(kind); c != "" {
			return c + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	default:
		return ""
	}
}
