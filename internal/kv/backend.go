package kv

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"parking-session-backend/internal/db"
	"parking-session-backend/internal/model"
)

// Backend is raw string storage. Each Set must be durable and visible to the
// next Get once it returns. SetMany writes all entries or none.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	SetMany(ctx context.Context, entries map[string]string) error
}

type gormBackend struct {
	db *gorm.DB
}

// NewGormBackend stores entries in the kv_entries table. Calls join a
// transaction carried by the context (see db.Transactor).
func NewGormBackend(db *gorm.DB) Backend {
	return &gormBackend{db: db}
}

func (b *gormBackend) Get(ctx context.Context, key string) (string, bool, error) {
	var entry model.KVEntry
	err := db.Conn(ctx, b.db).Where("key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return entry.Value, true, nil
}

func (b *gormBackend) Set(ctx context.Context, key, value string) error {
	if err := b.upsert(ctx, map[string]string{key: value}); err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

// SetMany upserts every entry in a single statement.
func (b *gormBackend) SetMany(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	if err := b.upsert(ctx, entries); err != nil {
		return fmt.Errorf("failed to write %d keys: %w", len(entries), err)
	}
	return nil
}

func (b *gormBackend) upsert(ctx context.Context, entries map[string]string) error {
	now := time.Now().UTC()
	rows := make([]model.KVEntry, 0, len(entries))
	for key, value := range entries {
		rows = append(rows, model.KVEntry{Key: key, Value: value, UpdatedAt: now})
	}
	slices.SortFunc(rows, func(x, y model.KVEntry) int { return strings.Compare(x.Key, y.Key) })

	return db.Conn(ctx, b.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rows).Error
}

type memoryBackend struct {
	c *cache.Cache
}

// NewMemoryBackend keeps entries in process memory only. Used by tests and
// by deployments that do not need state to survive restarts.
func NewMemoryBackend() Backend {
	return &memoryBackend{c: cache.New(cache.NoExpiration, 0)}
}

func (b *memoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := b.c.Get(key)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, fmt.Errorf("%w: key %q holds %T", ErrMalformedValue, key, v)
	}
	return s, true, nil
}

func (b *memoryBackend) Set(_ context.Context, key, value string) error {
	b.c.Set(key, value, cache.NoExpiration)
	return nil
}

func (b *memoryBackend) SetMany(_ context.Context, entries map[string]string) error {
	for key, value := range entries {
		b.c.Set(key, value, cache.NoExpiration)
	}
	return nil
}
