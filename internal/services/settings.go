// Package services holds the durable key/value settings repositories that
// back theme selection, the current view pointer, and (for non-SQL drivers)
// the view catalog.
package services

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a settings key does not exist.
var ErrNotFound = errors.New("setting not found")

// Setting is one persisted key/value pair.
type Setting struct {
	Key       string    `json:"key" example:"theme"`
	Value     string    `json:"value" example:"dark"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SettingsRepository is a durable string-keyed, string-valued store.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (*Setting, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	GetAll(ctx context.Context) ([]Setting, error)
	Ping(ctx context.Context) error
}

// KeyValue adapts a SettingsRepository to the narrow Get/Set contract the
// theme store and view registry consume.
type KeyValue struct {
	repo SettingsRepository
}

// NewKeyValue wraps repo.
func NewKeyValue(repo SettingsRepository) *KeyValue {
	return &KeyValue{repo: repo}
}

// Get returns the value for key. A missing key is reported as ok=false with
// a nil error.
func (kv *KeyValue) Get(ctx context.Context, key string) (string, bool, error) {
	s, err := kv.repo.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s.Value, true, nil
}

// Set stores value under key.
func (kv *KeyValue) Set(ctx context.Context, key, value string) error {
	return kv.repo.Set(ctx, key, value)
}
