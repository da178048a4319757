package storage

import (
	"context"
	"fmt"
	"io"
	"path"
)

// BlobStore is the binary storage collaborator. Keys use forward slashes
// regardless of backend.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every blob whose key starts with prefix. Used when
	// a project is deleted to drop its whole namespace.
	DeletePrefix(ctx context.Context, prefix string) error
	// RenamePrefix moves every blob under oldPrefix to newPrefix. Used when a
	// deployment allows slug edits, since blob keys embed the slug.
	RenamePrefix(ctx context.Context, oldPrefix, newPrefix string) error
}

// Blob keys are namespaced by the owning project's slug. If a slug ever
// changes post-creation, the namespace must be recomputed alongside it.

func CoverKey(slug, filename string) string {
	return path.Join("projects", slug, "cover", path.Base(filename))
}

func MediaKey(slug, filename string) string {
	return path.Join("projects", slug, "media", path.Base(filename))
}

func ProjectPrefix(slug string) string {
	return fmt.Sprintf("projects/%s/", slug)
}
