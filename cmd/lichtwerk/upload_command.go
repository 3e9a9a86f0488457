package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"lichtwerk/internal/backend"
	"lichtwerk/internal/media"
	"lichtwerk/internal/services"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <job-id> <path>...",
		Short: "Upload photos, brackets, panoramas and clips to a job",
		Long: `Upload files to a job. Directories are scanned (not recursively) for
supported media. Capture times come from the file modification times.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, total, err := collectUploadFiles(args[1:])
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no files to upload")
			}
			s, err := ctx.openSession(cmd, args[0])
			if err != nil {
				return err
			}
			if s.Workflow().Locked() {
				return errJobLocked
			}

			result, err := s.Ingest().SubmitBatch(cmd.Context(), files)
			partial := result.UploadedCount+len(result.Duplicates) > 0
			if err != nil && !(partial && onlyExcludedFiles(err)) {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Uploaded %d of %d files (%s)\n", result.UploadedCount, len(files), humanize.IBytes(uint64(total)))
			for _, name := range result.Duplicates {
				fmt.Fprintf(out, "  skipped duplicate %s\n", name)
			}
			for _, name := range result.Rejected {
				fmt.Fprintf(out, "  %s %s\n", colorize(out, ansiRed, "unsupported"), name)
			}
			for _, name := range result.Oversized {
				fmt.Fprintf(out, "  %s %s\n", colorize(out, ansiRed, "too large"), name)
			}
			fmt.Fprintf(out, "Job now has %d assets in %d stacks\n", result.Assets, result.Stacks)
			return nil
		},
	}
}

// onlyExcludedFiles reports whether err only names files left out of an
// otherwise successful batch.
func onlyExcludedFiles(err error) bool {
	var unsupported *services.UnsupportedAssetError
	var oversized *services.OversizedAssetError
	if !errors.As(err, &unsupported) && !errors.As(err, &oversized) {
		return false
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if !onlyExcludedFiles(e) {
				return false
			}
		}
	}
	return true
}

// collectUploadFiles expands directories to the supported files they contain
// and returns the batch in name order.
func collectUploadFiles(paths []string) ([]backend.File, int64, error) {
	var candidates []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, 0, err
		}
		if !info.IsDir() {
			candidates = append(candidates, path)
			continue
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, 0, err
		}
		for _, entry := range entries {
			if entry.Type().IsRegular() && media.Supported(entry.Name()) {
				candidates = append(candidates, filepath.Join(path, entry.Name()))
			}
		}
	}
	sort.Strings(candidates)

	files := make([]backend.File, 0, len(candidates))
	var total int64
	for _, path := range candidates {
		f, err := backend.FileFromPath(path)
		if err != nil {
			return nil, 0, err
		}
		total += f.Size
		files = append(files, f)
	}
	return files, total, nil
}
