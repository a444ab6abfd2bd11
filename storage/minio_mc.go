package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

// BucketStats summarizes the objects under a prefix.
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
	// ByExtension counts objects per lower-cased file extension.
	ByExtension map[string]int64
}

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
	ETag         string
}

// Bucket is a small admin view of one bucket, used by the minio command.
type Bucket struct {
	client *minio.Client
	name   string
}

func NewBucket(client *minio.Client, name string) *Bucket {
	return &Bucket{client: client, name: name}
}

func (b *Bucket) Name() string { return b.name }

func (b *Bucket) checkExists(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.name)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", b.name, err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", b.name)
	}
	return nil
}

// List returns the objects under prefix and their totals.
func (b *Bucket) List(ctx context.Context, prefix string, recursive bool) ([]ObjectInfo, *BucketStats, error) {
	if err := b.checkExists(ctx); err != nil {
		return nil, nil, err
	}

	stats := &BucketStats{ByExtension: make(map[string]int64)}
	var objects []ObjectInfo
	for object := range b.client.ListObjects(ctx, b.name, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: recursive,
	}) {
		if object.Err != nil {
			return nil, nil, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		if strings.HasSuffix(object.Key, "/") {
			continue
		}
		stats.TotalObjects++
		stats.TotalSize += object.Size
		if object.LastModified.After(stats.LastModified) {
			stats.LastModified = object.LastModified
		}
		stats.ByExtension[fileExtension(object.Key)]++
		objects = append(objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ContentType:  object.ContentType,
			ETag:         object.ETag,
		})
	}
	return objects, stats, nil
}

// PrintList writes one line per object under prefix.
func (b *Bucket) PrintList(ctx context.Context, w io.Writer, prefix string) error {
	objects, _, err := b.List(ctx, prefix, false)
	if err != nil {
		return err
	}
	for _, obj := range objects {
		fmt.Fprintf(w, "%-48s %10s  %s\n", obj.Key, FormatSize(obj.Size), obj.LastModified.Format(time.RFC3339))
	}
	return nil
}

// PrintStats writes the totals for the whole bucket.
func (b *Bucket) PrintStats(ctx context.Context, w io.Writer) error {
	_, stats, err := b.List(ctx, "", true)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "bucket:        %s\n", b.name)
	fmt.Fprintf(w, "objects:       %d\n", stats.TotalObjects)
	fmt.Fprintf(w, "total size:    %s\n", FormatSize(stats.TotalSize))
	if !stats.LastModified.IsZero() {
		fmt.Fprintf(w, "last modified: %s\n", stats.LastModified.Format(time.RFC3339))
	}

	exts := make([]string, 0, len(stats.ByExtension))
	for ext := range stats.ByExtension {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	for _, ext := range exts {
		fmt.Fprintf(w, "  %-8s %d\n", ext, stats.ByExtension[ext])
	}
	return nil
}

// PrintTree writes the directory structure under prefix.
func (b *Bucket) PrintTree(ctx context.Context, w io.Writer, prefix string) error {
	objects, _, err := b.List(ctx, prefix, true)
	if err != nil {
		return err
	}

	dirs := make(map[string]bool)
	for _, obj := range objects {
		for dir := path.Dir(obj.Key); dir != "." && dir != "/"; dir = path.Dir(dir) {
			dirs[dir] = true
		}
	}
	sorted := make([]string, 0, len(dirs))
	for dir := range dirs {
		sorted = append(sorted, dir)
	}
	sort.Strings(sorted)

	for _, dir := range sorted {
		indent := strings.Repeat("  ", strings.Count(dir, "/"))
		fmt.Fprintf(w, "%s%s/\n", indent, path.Base(dir))
		for _, obj := range objects {
			if path.Dir(obj.Key) == dir {
				fmt.Fprintf(w, "%s  %s (%s)\n", indent, path.Base(obj.Key), FormatSize(obj.Size))
			}
		}
	}
	for _, obj := range objects {
		if !strings.Contains(obj.Key, "/") {
			fmt.Fprintf(w, "%s (%s)\n", obj.Key, FormatSize(obj.Size))
		}
	}
	return nil
}

// DeleteDirectory removes every object under prefix and returns how many
// were removed.
func (b *Bucket) DeleteDirectory(ctx context.Context, prefix string) (int, error) {
	if prefix == "" {
		return 0, fmt.Errorf("refusing to delete without a prefix")
	}
	objects, _, err := b.List(ctx, prefix, true)
	if err != nil {
		return 0, err
	}
	if len(objects) == 0 {
		return 0, fmt.Errorf("directory %s is empty or does not exist", prefix)
	}

	objectsCh := make(chan minio.ObjectInfo, len(objects))
	for _, obj := range objects {
		objectsCh <- minio.ObjectInfo{Key: obj.Key}
	}
	close(objectsCh)

	for rerr := range b.client.RemoveObjects(ctx, b.name, objectsCh, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil {
			return 0, fmt.Errorf("failed to delete object %s: %w", rerr.ObjectName, rerr.Err)
		}
	}
	return len(objects), nil
}

// FormatSize renders a byte count with a binary unit.
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func fileExtension(key string) string {
	ext := strings.ToLower(path.Ext(key))
	if ext == "" {
		return "(none)"
	}
	return ext
}
