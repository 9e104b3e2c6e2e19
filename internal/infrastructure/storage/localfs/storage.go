// Package localfs keeps applicant documents, evaluation reports and the manual review log on
// the local filesystem.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
)

// Storage is object storage rooted at a base directory. Keys are slash-separated relative paths.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/storage"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) Save(_ context.Context, key string, data io.Reader) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create key dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func (s *Storage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return openFile(path)
}

func (s *Storage) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimSpace(key)))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", domain.WrapError(domain.ErrInvalidInput, "resolve storage key", fmt.Errorf("invalid key %q", key))
	}
	return filepath.Join(s.basePath, clean), nil
}

// RootedReader opens documents by path, confined to a root directory. Relative paths resolve
// against the root and absolute paths must already sit inside it. Symlinks are followed before
// the containment check.
type RootedReader struct {
	root string
}

func NewRootedReader(root string) (*RootedReader, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve documents root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create documents root: %w", err)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		abs = real
	}
	return &RootedReader{root: abs}, nil
}

func (r *RootedReader) Root() string {
	return r.root
}

// Resolve maps a caller-supplied path to a file under the root or fails with ErrInvalidInput.
func (r *RootedReader) Resolve(path string) (string, error) {
	raw := strings.TrimSpace(path)
	if raw == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "resolve document path", errors.New("empty path"))
	}
	target := filepath.FromSlash(raw)
	if !filepath.IsAbs(target) {
		target = filepath.Join(r.root, target)
	}
	target = filepath.Clean(target)
	if !r.contains(target) {
		return "", outsideRoot(path)
	}

	real, err := filepath.EvalSymlinks(target)
	if err != nil {
		// Missing files surface as not found on Open.
		return target, nil
	}
	if !r.contains(real) {
		return "", outsideRoot(path)
	}
	return real, nil
}

func (r *RootedReader) Open(_ context.Context, path string) (io.ReadCloser, error) {
	resolved, err := r.Resolve(path)
	if err != nil {
		return nil, err
	}
	return openFile(resolved)
}

func (r *RootedReader) contains(target string) bool {
	rel, err := filepath.Rel(r.root, target)
	if err != nil || rel == "." || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func outsideRoot(path string) error {
	return domain.WrapError(domain.ErrInvalidInput, "resolve document path", fmt.Errorf("path %q is outside the documents root", path))
}

// PathReader opens documents by any filesystem path. Only the local CLI uses it.
type PathReader struct{}

func NewPathReader() *PathReader {
	return &PathReader{}
}

func (PathReader) Open(_ context.Context, path string) (io.ReadCloser, error) {
	return openFile(path)
}

func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrNotFound, "open file", err)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}
