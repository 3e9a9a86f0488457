package media

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
)

// Blob describes stored content.
type Blob struct {
	Key      string
	Size     int64
	Checksum string
	// Created is false when identical content already existed at Key.
	Created bool
}

// BlobStore persists asset bytes on the local filesystem under
// <root>/<prefix>/<checksum><ext>.
type BlobStore struct {
	root string
}

// NewBlobStore initializes a store rooted at root.
func NewBlobStore(root string) (*BlobStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("media: root path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("media: ensure root: %w", err)
	}
	return &BlobStore{root: root}, nil
}

// Root returns the configured root directory.
func (s *BlobStore) Root() string {
	if s == nil {
		return ""
	}
	return s.root
}

// Put streams r into the store below prefix, naming the file after the BLAKE3
// checksum of its content. The write goes to a temporary file first and is
// renamed into place once complete.
func (s *BlobStore) Put(ctx context.Context, prefix, ext string, r io.Reader) (Blob, error) {
	if s == nil {
		return Blob{}, errors.New("media: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return Blob{}, err
	}
	cleanPrefix, err := sanitizeKey(prefix)
	if err != nil {
		return Blob{}, err
	}
	dir := filepath.Join(s.root, filepath.FromSlash(cleanPrefix))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Blob{}, fmt.Errorf("media: ensure directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return Blob{}, fmt.Errorf("media: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	hasher := blake3.New()
	written, err := io.Copy(io.MultiWriter(tmp, hasher), &contextReader{ctx: ctx, r: r})
	if err != nil {
		_ = tmp.Close()
		return Blob{}, fmt.Errorf("media: write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Blob{}, fmt.Errorf("media: close blob: %w", err)
	}

	checksum := hex.EncodeToString(hasher.Sum(nil))
	key := cleanPrefix + "/" + checksum + strings.ToLower(ext)
	final := s.Path(key)
	blob := Blob{Key: key, Size: written, Checksum: checksum}
	if info, err := os.Stat(final); err == nil && info.Size() == written {
		return blob, nil
	}
	if err := os.Rename(tmpName, final); err != nil {
		return Blob{}, fmt.Errorf("media: commit blob: %w", err)
	}
	blob.Created = true
	return blob, nil
}

// Open returns a reader for a stored key.
func (s *BlobStore) Open(key string) (*os.File, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return nil, err
	}
	return os.Open(s.Path(cleanKey))
}

// Remove deletes a stored key. Missing keys are not an error.
func (s *BlobStore) Remove(key string) error {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(s.Path(cleanKey)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("media: remove blob: %w", err)
	}
	return nil
}

// Path maps a key to its absolute file path.
func (s *BlobStore) Path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Checksum returns the hex BLAKE3 digest of r.
func Checksum(r io.Reader) (string, error) {
	hasher := blake3.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", fmt.Errorf("media: checksum: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("media: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.ToSlash(filepath.Clean(key))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("media: invalid key")
	}
	return cleaned, nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
