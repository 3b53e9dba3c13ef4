package services

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Compile-time interface guard.
var _ SettingsRepository = (*MemorySettingsRepository)(nil)

// MemorySettingsRepository keeps settings in a process-local map.
type MemorySettingsRepository struct {
	mu   sync.RWMutex
	data map[string]Setting
}

// NewMemorySettingsRepository returns an empty in-memory repository.
func NewMemorySettingsRepository() *MemorySettingsRepository {
	return &MemorySettingsRepository{data: make(map[string]Setting)}
}

func (r *MemorySettingsRepository) Get(_ context.Context, key string) (*Setting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *MemorySettingsRepository) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	r.data[key] = Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	r.mu.Unlock()
	return nil
}

func (r *MemorySettingsRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[key]; !ok {
		return ErrNotFound
	}
	delete(r.data, key)
	return nil
}

func (r *MemorySettingsRepository) GetAll(_ context.Context) ([]Setting, error) {
	r.mu.RLock()
	out := make([]Setting, 0, len(r.data))
	for _, s := range r.data {
		out = append(out, s)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *MemorySettingsRepository) Ping(context.Context) error { return nil }
