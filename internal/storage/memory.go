package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryService is an in-process Service used for local runs and tests.
type MemoryService struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

func NewMemoryService() *MemoryService {
	return &MemoryService{objects: make(map[string]memoryObject)}
}

func (m *MemoryService) PutObject(ctx context.Context, body io.Reader, opts PutOptions) (string, error) {
	if opts.Bucket == "" {
		return "", fmt.Errorf("storage bucket is required")
	}
	key := strings.TrimPrefix(opts.Key, "/")
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read object body: %w", err)
	}

	m.mu.Lock()
	m.objects[opts.Bucket+"/"+key] = memoryObject{
		data:        data,
		contentType: opts.ContentType,
		modified:    time.Now().UTC(),
	}
	m.mu.Unlock()

	return fmt.Sprintf("s3://%s/%s", opts.Bucket, key), nil
}

func (m *MemoryService) ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	if bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var objects []ObjectInfo
	for full, obj := range m.objects {
		key, ok := strings.CutPrefix(full, bucket+"/")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		modified := obj.modified
		objects = append(objects, ObjectInfo{
			Key:          key,
			Size:         int64(len(obj.data)),
			LastModified: &modified,
		})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (m *MemoryService) DeletePrefix(ctx context.Context, bucket, prefix string) error {
	if bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}
	if strings.TrimSpace(prefix) == "" {
		return fmt.Errorf("prefix is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for full := range m.objects {
		if strings.HasPrefix(full, bucket+"/"+prefix) {
			delete(m.objects, full)
		}
	}
	return nil
}

func (m *MemoryService) GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	if bucket == "" {
		return "", fmt.Errorf("storage bucket is required")
	}
	u := url.URL{Scheme: "memory", Host: bucket, Path: "/" + key}
	q := u.Query()
	q.Set("expires", time.Now().Add(expires).UTC().Format(time.RFC3339))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Object returns a stored object's content, mainly for assertions.
func (m *MemoryService) Object(bucket, key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, false
	}
	return bytes.Clone(obj.data), true
}

var _ Service = (*MemoryService)(nil)
