package filestore

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// BundleEntry names one object to place in a zip bundle
type BundleEntry struct {
	Name string
	Key  string
}

// WriteZip streams the given objects into a zip archive on w. Duplicate
// names get a numeric suffix.
func WriteZip(ctx context.Context, store FileStore, w io.Writer, entries []BundleEntry) error {
	zw := zip.NewWriter(w)
	seen := make(map[string]int, len(entries))

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := uniqueName(SanitizeName(e.Name), seen)
		if err := addToZip(ctx, store, zw, name, e.Key); err != nil {
			return fmt.Errorf("%s: %w", e.Name, err)
		}
	}
	return zw.Close()
}

func addToZip(ctx context.Context, store FileStore, zw *zip.Writer, name, key string) error {
	src, err := store.Open(ctx, key)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}

func uniqueName(name string, seen map[string]int) string {
	n := seen[strings.ToLower(name)]
	seen[strings.ToLower(name)] = n + 1
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s(%d)%s", strings.TrimSuffix(name, ext), n, ext)
}
