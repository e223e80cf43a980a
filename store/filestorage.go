package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
)

// FileStorage accepts uploaded files and returns the URL records should
// reference. Records never hold file contents.
type FileStorage interface {
	Put(ctx context.Context, name string, r io.Reader) (string, error)
}

// LocalFileStorage writes files under Dir. URLs are BaseURL joined with the
// stored file name, or file:// URLs when BaseURL is empty.
type LocalFileStorage struct {
	Dir     string
	BaseURL string
}

// Put stores r under a unique name derived from name.
func (s *LocalFileStorage) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "", errors.New("put file: name is empty")
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("put file: %w", err)
	}
	stored := uuid.NewString() + "-" + base
	path := filepath.Join(s.Dir, stored)
	if err := atomic.WriteFile(path, r); err != nil {
		return "", fmt.Errorf("put file %s: %w", base, err)
	}

	if s.BaseURL == "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("put file %s: %w", base, err)
		}
		return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
	}
	return strings.TrimRight(s.BaseURL, "/") + "/" + url.PathEscape(stored), nil
}
