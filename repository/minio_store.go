package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
)

// minioSessionStore keeps sessions as <prefix><name>.json objects.
type minioSessionStore struct {
	client *minio.Client
	bucket string
	prefix string
}

func NewMinioSessionStore(client *minio.Client, bucket, prefix string) SessionStore {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &minioSessionStore{client: client, bucket: bucket, prefix: prefix}
}

func (s *minioSessionStore) object(name string) string {
	return s.prefix + name + sessionExt
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func (s *minioSessionStore) Read(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.object(name), minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("minio get session %s: %w", name, err)
	}
	defer obj.Close()

	// GetObject is lazy; the missing key surfaces on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("minio read session %s: %w", name, err)
	}
	return data, nil
}

func (s *minioSessionStore) Write(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.object(name), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("minio put session %s: %w", name, err)
	}
	return nil
}

func (s *minioSessionStore) List(ctx context.Context) ([]string, error) {
	names := []string{}
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: s.prefix}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("minio list sessions: %w", obj.Err)
		}
		base := path.Base(obj.Key)
		if strings.HasSuffix(obj.Key, "/") || path.Ext(base) != sessionExt {
			continue
		}
		names = append(names, strings.TrimSuffix(base, sessionExt))
	}
	sort.Strings(names)
	return names, nil
}

func (s *minioSessionStore) Delete(ctx context.Context, name string) (bool, error) {
	key := s.object(name)
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("minio stat session %s: %w", name, err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return false, fmt.Errorf("minio delete session %s: %w", name, err)
	}
	return true, nil
}
