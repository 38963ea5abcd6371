package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrKeyNotFound is returned by KVStore.Get when the key has never been set.
var ErrKeyNotFound = errors.New("persistence: key not found")

// KVStore implements the generic get_value/set_value persistence
// interface spec.md §6 names, storing every value as a JSON blob keyed
// by a single string column. The core's well-known keys are
// "{callsign}/state", "{callsign}/ship_assignments",
// "{callsign}/probe_jumpgate_reservations",
// "{callsign}/explorer_reservations", per-ship "schedule" and
// "schedule_progress", "task_manager_state/<system>", and
// "agent_token/<callsign>".
type KVStore struct {
	db *gorm.DB
}

func NewKVStore(db *gorm.DB) *KVStore {
	return &KVStore{db: db}
}

// Set encodes value as JSON and upserts it under key.
func (s *KVStore) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	entry := KVEntry{Key: key, ValueJSON: string(data), UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).Save(&entry).Error
}

// Get decodes the JSON stored under key into out. Returns ErrKeyNotFound
// if the key has never been set, so callers can distinguish "no value
// yet" from a decode failure.
func (s *KVStore) Get(ctx context.Context, key string, out interface{}) error {
	var entry KVEntry
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrKeyNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(entry.ValueJSON), out)
}

// Delete removes a key, a no-op if it was never set.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("key = ?", key).Delete(&KVEntry{}).Error
}
