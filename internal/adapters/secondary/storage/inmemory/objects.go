package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
)

// Objects хранилище объектов в памяти вместо MinIO
type Objects struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewObjects() *Objects {
	return &Objects{objects: make(map[string][]byte)}
}

func (o *Objects) PutObject(_ context.Context, path string, data []byte, _ string) error {
	cp := make([]byte, len(data))
	copy(cp, data)

	o.mu.Lock()
	o.objects[path] = cp
	o.mu.Unlock()
	return nil
}

func (o *Objects) GetObject(_ context.Context, path string) ([]byte, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	data, ok := o.objects[path]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", path, domain.ErrNotFound)
	}
	return data, nil
}

// Keys пути сохранённых объектов
func (o *Objects) Keys() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	keys := make([]string, 0, len(o.objects))
	for k := range o.objects {
		keys = append(keys, k)
	}
	return keys
}
