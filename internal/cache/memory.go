package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/radio-t/webradio/podcast"
)

// MemoryStore keeps records in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	renders map[string]podcast.Render
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{renders: make(map[string]podcast.Render)}
}

// Get returns the record for the key
func (s *MemoryStore) Get(_ context.Context, key string) (podcast.Render, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.renders[key]
	if !ok {
		return podcast.Render{}, ErrNotFound
	}
	return r, nil
}

// Save stores the record, replacing an existing one
func (s *MemoryStore) Save(_ context.Context, render podcast.Render) error {
	if render.Key == "" {
		return errors.New("render key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renders[render.Key] = render
	return nil
}

// Delete removes the record, missing keys are ignored
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.renders, key)
	return nil
}

// List returns all records, newest first
func (s *MemoryStore) List(context.Context) ([]podcast.Render, error) {
	s.mu.RLock()
	res := make([]podcast.Render, 0, len(s.renders))
	for _, r := range s.renders {
		res = append(res, r)
	}
	s.mu.RUnlock()
	sortRenders(res)
	return res, nil
}

// Close does nothing
func (s *MemoryStore) Close() error { return nil }
