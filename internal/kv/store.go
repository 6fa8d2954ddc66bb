package kv

import (
	"context"
	"fmt"
	"strconv"
)

// Store adds typed accessors on top of a Backend. Getters return def when the
// key has never been written.
type Store struct {
	backend Backend
}

// New wraps a backend.
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

func (s *Store) GetString(ctx context.Context, key, def string) (string, error) {
	v, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		return def, err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

func (s *Store) SetString(ctx context.Context, key, value string) error {
	return s.backend.Set(ctx, key, value)
}

func (s *Store) GetBool(ctx context.Context, key string, def bool) (bool, error) {
	v, ok, err := s.backend.Get(ctx, key)
	if err != nil || !ok {
		return def, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%w: key %q: %q is not a bool", ErrMalformedValue, key, v)
	}
	return b, nil
}

func (s *Store) SetBool(ctx context.Context, key string, value bool) error {
	return s.backend.Set(ctx, key, strconv.FormatBool(value))
}

func (s *Store) GetInt(ctx context.Context, key string, def int) (int, error) {
	v, ok, err := s.backend.Get(ctx, key)
	if err != nil || !ok {
		return def, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%w: key %q: %q is not an int", ErrMalformedValue, key, v)
	}
	return n, nil
}

func (s *Store) SetInt(ctx context.Context, key string, value int) error {
	return s.backend.Set(ctx, key, strconv.Itoa(value))
}

func (s *Store) GetInt64(ctx context.Context, key string, def int64) (int64, error) {
	v, ok, err := s.backend.Get(ctx, key)
	if err != nil || !ok {
		return def, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def, fmt.Errorf("%w: key %q: %q is not an int64", ErrMalformedValue, key, v)
	}
	return n, nil
}

func (s *Store) SetInt64(ctx context.Context, key string, value int64) error {
	return s.backend.Set(ctx, key, strconv.FormatInt(value, 10))
}

// SetAll writes every value in one backend call, so either all of them are
// stored or none. Values must be string, bool, int or int64.
func (s *Store) SetAll(ctx context.Context, values map[string]any) error {
	entries := make(map[string]string, len(values))
	for key, v := range values {
		switch v := v.(type) {
		case string:
			entries[key] = v
		case bool:
			entries[key] = strconv.FormatBool(v)
		case int:
			entries[key] = strconv.Itoa(v)
		case int64:
			entries[key] = strconv.FormatInt(v, 10)
		default:
			return fmt.Errorf("kv: unsupported value type %T for key %q", v, key)
		}
	}
	return s.backend.SetMany(ctx, entries)
}
