// Package store keeps finished briefs for lookup and listing.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ppiankov/geoagent/internal/cache"
	"github.com/ppiankov/geoagent/internal/model"
)

// ErrNotFound is returned when no brief has the requested id
var ErrNotFound = errors.New("brief not found")

// BriefStore is a keyed artifact store safe for concurrent use
type BriefStore struct {
	cache cache.Cache
}

// NewBriefStore returns a memory-only store when dir is empty, otherwise one persisted under dir
func NewBriefStore(dir string) *BriefStore {
	if dir == "" {
		return &BriefStore{cache: cache.NewMemoryCache(cache.NoExpiration, time.Hour)}
	}
	return &BriefStore{cache: cache.NewLayeredCache(time.Hour, dir, cache.NoExpiration)}
}

// NewBriefStoreWithCache wraps an existing cache
func NewBriefStoreWithCache(c cache.Cache) *BriefStore {
	return &BriefStore{cache: c}
}

// Add stores b under its id, replacing any previous brief with that id
func (s *BriefStore) Add(b *model.ContentBrief) error {
	if b == nil || b.ID == "" {
		return errors.New("brief has no id")
	}
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal brief: %w", err)
	}
	return s.cache.Set(b.ID, data, cache.NoExpiration)
}

// Get returns the brief with id
func (s *BriefStore) Get(id string) (*model.ContentBrief, error) {
	data, ok := s.cache.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	var b model.ContentBrief
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode brief %s: %w", id, err)
	}
	return &b, nil
}

// List returns all briefs, newest first
func (s *BriefStore) List() ([]*model.ContentBrief, error) {
	keys := s.cache.Keys()
	briefs := make([]*model.ContentBrief, 0, len(keys))
	for _, k := range keys {
		b, err := s.Get(k)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		briefs = append(briefs, b)
	}
	sort.Slice(briefs, func(i, j int) bool {
		ti, tj := briefs[i].Metadata.GeneratedAt, briefs[j].Metadata.GeneratedAt
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return briefs[i].ID > briefs[j].ID
	})
	return briefs, nil
}
