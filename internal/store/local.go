package store

import (
	"context"
	"errors"
	"erdv/internal/errs"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Local stores files on disk. With an empty root keys are ordinary paths;
// otherwise they are resolved inside root and may not escape it.
type Local struct {
	root string
}

func NewLocal(root string) *Local {
	return &Local{root: root}
}

func (l *Local) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	path, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, mapFSError(err, "failed to stat "+key)
	}
	if fi.IsDir() {
		return nil, errs.New(errs.KindInvalidInput, key+" is a directory")
	}
	return &ObjectInfo{Key: key, Size: fi.Size(), LastModified: fi.ModTime()}, nil
}

func (l *Local) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, mapFSError(err, "failed to open "+key)
	}
	return f, nil
}

func (l *Local) Write(ctx context.Context, key string, data []byte) (string, error) {
	path, err := l.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", errs.Wrap(errs.KindIO, "failed to create output directory", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", errs.Wrap(errs.KindIO, "failed to write "+key, err)
	}
	return path, nil
}

func (l *Local) Close() error { return nil }

func (l *Local) resolve(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errs.New(errs.KindInvalidInput, "path is required")
	}
	if l.root == "" {
		return filepath.Clean(key), nil
	}

	for _, part := range strings.Split(filepath.ToSlash(key), "/") {
		if part == ".." {
			return "", errs.New(errs.KindInvalidInput, "path escapes the storage root: "+key)
		}
	}
	return filepath.Join(l.root, filepath.FromSlash(strings.TrimLeft(key, "/"))), nil
}

func mapFSError(err error, msg string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return errs.Wrap(errs.KindNotFound, msg, err)
	}
	return errs.Wrap(errs.KindIO, msg, err)
}
