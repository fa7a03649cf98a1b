package blob

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// Object is what Memory keeps per key.
type Object struct {
	Data        []byte
	ContentType string
}

// Memory is an in-process Store for tests and local runs without MinIO.
type Memory struct {
	mu      sync.Mutex
	objects map[string]Object
	baseURL string
}

// NewMemory returns an empty store whose URLs are baseURL + "/" + key.
func NewMemory(baseURL string) *Memory {
	return &Memory{objects: make(map[string]Object), baseURL: baseURL}
}

// Put reads the whole body into memory.
func (m *Memory) Put(ctx context.Context, in UploadInput) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, in.Body); err != nil {
		return "", err
	}
	m.mu.Lock()
	m.objects[in.Key] = Object{Data: buf.Bytes(), ContentType: in.ContentType}
	m.mu.Unlock()
	return m.baseURL + "/" + in.Key, nil
}

// Delete forgets key.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Get returns the stored object, if any.
func (m *Memory) Get(key string) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[key]
	return o, ok
}

// Len reports how many objects are stored.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

var _ Store = (*Memory)(nil)
