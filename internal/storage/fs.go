package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/starford/photoplay/internal/checksum"
)

// metaDir holds one YAML sidecar per object, mirroring the object tree.
const metaDir = ".meta"

// FS implements Provider backed by the local file system. Download URLs are
// built on endpoint, which is served by the application's object routes.
type FS struct {
	root     string // absolute path to the bucket directory
	bucket   string
	endpoint string
	newToken func() string
	now      func() time.Time
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root, bucket, endpoint string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{
		root:     abs,
		bucket:   bucket,
		endpoint: strings.TrimRight(endpoint, "/"),
		newToken: uuid.NewString,
		now:      time.Now,
	}, nil
}

// Endpoint returns the object endpoint, e.g. http://localhost:8080/v0/b/photoplay/o.
func (f *FS) Endpoint() string { return f.endpoint }

// safePath resolves an object path against base and rejects any result that
// escapes it (directory traversal).
func (f *FS) safePath(base, rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("%w: absolute path %s", ErrInvalidPath, rel)
	}
	if first, _, _ := strings.Cut(filepath.ToSlash(cleaned), "/"); first == metaDir {
		return "", fmt.Errorf("%w: reserved path %s", ErrInvalidPath, rel)
	}
	abs, err := filepath.Abs(filepath.Join(base, cleaned))
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, base+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: escapes bucket root: %s", ErrInvalidPath, rel)
	}
	return abs, nil
}

func (f *FS) metaPath(rel string) (string, error) {
	p, err := f.safePath(filepath.Join(f.root, metaDir), rel)
	if err != nil {
		return "", err
	}
	return p + ".yaml", nil
}

// Put writes data and its metadata atomically and issues a fresh download token.
func (f *FS) Put(ctx context.Context, path string, data []byte, contentType string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	if _, err := os.Stat(f.root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	abs, err := f.safePath(f.root, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	meta, err := f.metaPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	obj := &Object{
		Path:        filepath.ToSlash(filepath.Clean(filepath.FromSlash(path))),
		Bucket:      f.bucket,
		ContentType: contentType,
		Size:        int64(len(data)),
		Checksum:    checksum.Sum(data),
		Token:       f.newToken(),
		CreatedAt:   f.now().UTC(),
	}
	metaBytes, err := yaml.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("%w: encode metadata: %w", ErrUploadFailed, err)
	}

	if err := writeAtomic(abs, data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	if err := writeAtomic(meta, metaBytes); err != nil {
		_ = os.Remove(abs)
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	obj.URL = DownloadURL(f.endpoint, obj.Path, obj.Token)
	return obj, nil
}

// Get returns the object's metadata and bytes.
func (f *FS) Get(_ context.Context, path string) (*Object, []byte, error) {
	abs, err := f.safePath(f.root, path)
	if err != nil {
		return nil, nil, err
	}
	meta, err := f.metaPath(path)
	if err != nil {
		return nil, nil, err
	}
	metaBytes, err := os.ReadFile(meta)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("storage: read metadata %s: %w", path, err)
	}
	var obj Object
	if err := yaml.Unmarshal(metaBytes, &obj); err != nil {
		return nil, nil, fmt.Errorf("storage: decode metadata %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	obj.URL = DownloadURL(f.endpoint, obj.Path, obj.Token)
	return &obj, data, nil
}

// Delete removes the object and its metadata.
func (f *FS) Delete(_ context.Context, path string) error {
	abs, err := f.safePath(f.root, path)
	if err != nil {
		return err
	}
	meta, err := f.metaPath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("storage: delete %s: %w", path, err)
	}
	_ = os.Remove(meta)
	return nil
}

// writeAtomic writes content: tmp file → fsync → rename.
func writeAtomic(abs string, content []byte) error {
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".photoplay-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}
