package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local stores blobs under a root directory on the filesystem. This is the
// default backend for single-host deployments.
type Local struct {
	root string
}

func NewLocal(root string) (*Local, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root cannot be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}
	return &Local{root: root}, nil
}

// resolve maps a slash-separated key onto the root, refusing keys that would
// escape it.
func (l *Local) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(l.root, clean), nil
}

func (l *Local) Put(ctx context.Context, key string, r io.Reader) error {
	target, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating blob directory: %w", err)
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating blob %s: %w", key, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(target)
		return fmt.Errorf("writing blob %s: %w", key, err)
	}
	return f.Close()
}

func (l *Local) Delete(ctx context.Context, key string) error {
	target, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting blob %s: %w", key, err)
	}
	return nil
}

func (l *Local) DeletePrefix(ctx context.Context, prefix string) error {
	target, err := l.resolve(strings.TrimSuffix(prefix, "/"))
	if err != nil {
		return err
	}
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("deleting blob prefix %s: %w", prefix, err)
	}
	return nil
}

func (l *Local) RenamePrefix(ctx context.Context, oldPrefix, newPrefix string) error {
	from, err := l.resolve(strings.TrimSuffix(oldPrefix, "/"))
	if err != nil {
		return err
	}
	to, err := l.resolve(strings.TrimSuffix(newPrefix, "/"))
	if err != nil {
		return err
	}
	if _, err := os.Stat(from); os.IsNotExist(err) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return fmt.Errorf("creating blob directory: %w", err)
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("renaming blob prefix %s to %s: %w", oldPrefix, newPrefix, err)
	}
	return nil
}
