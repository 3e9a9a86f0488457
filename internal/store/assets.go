package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"lichtwerk/internal/backend"
	"lichtwerk/internal/logging"
	"lichtwerk/internal/media"
	"lichtwerk/internal/order"
	"lichtwerk/internal/services"
)

// MediaURLPrefix is the path under which the HTTP server exposes blobs.
const MediaURLPrefix = "/media/"

const uploadConcurrency = 4

const assetColumns = "id, job_id, name, size, media_type, storage_key, checksum, captured_at, width, height, is360, created_at"

// stored is one file written to the blob store during an upload.
type stored struct {
	file      backend.File
	blob      media.Blob
	mediaType string
	info      media.Info
}

// Upload stores a batch for a job. The batch is all or nothing: an
// unsupported file fails it and nothing is recorded. Files whose content is
// already attached to the job are reported as duplicates.
func (s *Store) Upload(ctx context.Context, jobID string, files []backend.File) (backend.UploadResult, error) {
	job, err := s.loadJob(ctx, s.db, jobID)
	if err != nil {
		return backend.UploadResult{}, err
	}
	if job.job.Locked {
		return backend.UploadResult{}, services.Wrap(services.ErrRejected, "store", "upload", "job is locked", nil)
	}
	if len(files) == 0 {
		return backend.UploadResult{}, nil
	}

	results := make([]stored, len(files))
	var (
		mu      sync.Mutex
		created []string
	)
	cleanup := func() {
		for _, key := range created {
			if err := s.blobs.Remove(key); err != nil {
				logging.WarnWithContext(s.logger, "blob cleanup failed", "blob_cleanup_failed",
					logging.String(logging.FieldJobID, jobID),
					logging.String("storage_key", key),
					logging.Error(err),
					logging.String(logging.FieldImpact, "orphaned blob left in the media directory"),
				)
			}
		}
	}

	prefix := path.Join("jobs", jobID)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for i, file := range files {
		g.Go(func() error {
			entry, err := s.storeFile(gctx, prefix, file)
			if entry.blob.Created {
				mu.Lock()
				created = append(created, entry.blob.Key)
				mu.Unlock()
			}
			if err != nil {
				return err
			}
			results[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		cleanup()
		return backend.UploadResult{}, err
	}

	var rejected []string
	for _, entry := range results {
		if entry.mediaType == "" {
			rejected = append(rejected, entry.file.Name)
		}
	}
	if len(rejected) > 0 {
		cleanup()
		return backend.UploadResult{}, &services.UnsupportedAssetError{Files: rejected}
	}

	var (
		result   backend.UploadResult
		orphaned []string
		kept     map[string]bool
	)
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		result = backend.UploadResult{}
		orphaned = orphaned[:0]
		kept = make(map[string]bool, len(results))
		current, err := s.loadJob(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if current.job.Locked {
			return services.Wrap(services.ErrRejected, "store", "upload", "job is locked", nil)
		}
		seen := make(map[string]bool, len(results))
		stamp := s.timestamp()
		for _, entry := range results {
			checksum := entry.blob.Checksum
			if seen[checksum] {
				result.Duplicates = append(result.Duplicates, entry.file.Name)
				if entry.blob.Created {
					orphaned = append(orphaned, entry.blob.Key)
				}
				continue
			}
			seen[checksum] = true

			var exists int
			if err := tx.QueryRowContext(ctx,
				"SELECT COUNT(1) FROM assets WHERE job_id = ? AND checksum = ?", jobID, checksum,
			).Scan(&exists); err != nil {
				return fmt.Errorf("check duplicate: %w", err)
			}
			if exists > 0 {
				result.Duplicates = append(result.Duplicates, entry.file.Name)
				if entry.blob.Created {
					orphaned = append(orphaned, entry.blob.Key)
				}
				continue
			}

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO assets (`+assetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				uuid.NewString(),
				jobID,
				entry.file.Name,
				entry.blob.Size,
				entry.mediaType,
				entry.blob.Key,
				checksum,
				nullableTime(entry.file.CapturedAt),
				entry.info.Width,
				entry.info.Height,
				sqlBool(entry.info.Is360),
				stamp,
			); err != nil {
				return fmt.Errorf("insert asset %s: %w", entry.file.Name, err)
			}
			kept[entry.blob.Key] = true
			result.UploadedCount++
		}
		if result.UploadedCount == 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE jobs SET revision = revision + 1, updated_at = ? WHERE id = ?", stamp, jobID,
		); err != nil {
			return fmt.Errorf("bump revision: %w", err)
		}
		return nil
	})
	if err != nil {
		cleanup()
		return backend.UploadResult{}, err
	}

	// Content already attached under another extension leaves a second copy.
	for _, key := range orphaned {
		if !kept[key] {
			_ = s.blobs.Remove(key)
		}
	}

	s.logger.Info("assets stored",
		logging.String(logging.FieldJobID, jobID),
		logging.Int("uploaded", result.UploadedCount),
		logging.Int("duplicates", len(result.Duplicates)),
	)
	return result, nil
}

// storeFile writes one file to the blob store and classifies the stored
// bytes. An unsupported file comes back with an empty media type.
func (s *Store) storeFile(ctx context.Context, prefix string, file backend.File) (stored, error) {
	entry := stored{file: file}
	if file.Open == nil {
		return entry, fmt.Errorf("file %s: %w", file.Name, services.ErrValidation)
	}
	rc, err := file.Open()
	if err != nil {
		return entry, fmt.Errorf("open %s: %w", file.Name, err)
	}
	ext := strings.ToLower(path.Ext(file.Name))
	blob, err := s.blobs.Put(ctx, prefix, ext, rc)
	_ = rc.Close()
	if err != nil {
		return entry, fmt.Errorf("store %s: %w", file.Name, err)
	}
	entry.blob = blob

	fh, err := s.blobs.Open(blob.Key)
	if err != nil {
		return entry, fmt.Errorf("reopen %s: %w", file.Name, err)
	}
	defer fh.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(fh, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return entry, fmt.Errorf("read %s: %w", file.Name, err)
	}
	mediaType, kind := media.Detect(file.Name, head[:n])
	if kind == media.KindUnsupported {
		return entry, nil
	}
	entry.mediaType = mediaType

	if kind == media.KindImage {
		if _, err := fh.Seek(0, io.SeekStart); err != nil {
			return entry, fmt.Errorf("rewind %s: %w", file.Name, err)
		}
		info, err := media.Probe(fh)
		if err != nil {
			logging.WarnWithContext(s.logger, "dimension probe failed", "probe_failed",
				logging.String("file", file.Name),
				logging.Error(err),
				logging.String(logging.FieldImpact, "asset stored without dimensions"),
			)
		}
		entry.info = info
	}
	return entry, nil
}

func (s *Store) listAssets(ctx context.Context, q querier, jobID string) ([]order.Asset, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+assetColumns+" FROM assets WHERE job_id = ? ORDER BY captured_at, name, id", jobID)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []order.Asset
	for rows.Next() {
		var (
			asset      order.Asset
			storageKey string
			capturedAt sql.NullString
			is360      int
			createdAt  string
		)
		if err := rows.Scan(
			&asset.ID,
			&asset.JobID,
			&asset.Name,
			&asset.Size,
			&asset.MediaType,
			&storageKey,
			&asset.Checksum,
			&capturedAt,
			&asset.Width,
			&asset.Height,
			&is360,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		asset.URL = MediaURLPrefix + storageKey
		asset.CapturedAt = parseNullTime(capturedAt)
		asset.Is360 = is360 != 0
		if t, ok := parseStamp(createdAt); ok {
			asset.CreatedAt = t
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}
	return assets, nil
}
