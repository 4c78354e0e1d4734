// Package favorites keeps the set of favorite exercise ids in durable storage.
//
// The set is stored as a JSON array of strings under Key. Ids written by
// older releases under LegacyKey are migrated on the first load. Storage
// failures never reach the caller: a failed read yields an empty set and a
// failed write is logged and ignored.
package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/your-energy-client/pkg/storage"
)

// Storage keys.
const (
	Key       = "your-energy:favorites"
	LegacyKey = "favorites"
)

// Store is the favorites set. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	storage storage.Storage
	logger  zerolog.Logger
}

// New creates a favorites store on top of s.
func New(s storage.Storage, logger zerolog.Logger) *Store {
	return &Store{
		storage: s,
		logger:  logger.With().Str("component", "favorites").Logger(),
	}
}

// Load returns the current set, migrating the legacy key if needed.
func (s *Store) Load(ctx context.Context) map[string]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Add inserts id and reports whether it was absent. Empty ids are ignored.
func (s *Store) Add(ctx context.Context, id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.load(ctx)
	if _, ok := set[id]; ok {
		return false
	}
	set[id] = struct{}{}
	s.save(ctx, set)
	return true
}

// Remove deletes id. Removing an absent id is a no-op.
func (s *Store) Remove(ctx context.Context, id string) {
	id = strings.TrimSpace(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.load(ctx)
	if _, ok := set[id]; !ok {
		return
	}
	delete(set, id)
	s.save(ctx, set)
}

// Has reports whether id is a favorite.
func (s *Store) Has(ctx context.Context, id string) bool {
	_, ok := s.Load(ctx)[strings.TrimSpace(id)]
	return ok
}

// List returns the ids in lexical order.
func (s *Store) List(ctx context.Context) []string {
	return sorted(s.Load(ctx))
}

// Toggle flips id and reports whether it is now a favorite.
func (s *Store) Toggle(ctx context.Context, id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.load(ctx)
	_, was := set[id]
	if was {
		delete(set, id)
	} else {
		set[id] = struct{}{}
	}
	s.save(ctx, set)
	return !was
}

func (s *Store) load(ctx context.Context) map[string]struct{} {
	set := make(map[string]struct{})

	raw, err := s.storage.Get(ctx, Key)
	switch {
	case err == nil:
		if ids, ok := parseIDs(raw); ok {
			addAll(set, ids)
			return set
		}
		s.logger.Warn().Str("key", Key).Msg("Ignoring malformed favorites")
	case !errors.Is(err, storage.ErrNotFound):
		s.logger.Warn().Err(err).Msg("Failed to read favorites")
		return set
	}

	legacy, err := s.storage.Get(ctx, LegacyKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().Err(err).Msg("Failed to read legacy favorites")
		}
		return set
	}
	ids, ok := parseIDs(legacy)
	if !ok {
		return set
	}
	addAll(set, ids)
	s.save(ctx, set)
	s.logger.Info().Int("count", len(set)).Msg("Migrated legacy favorites")
	return set
}

// save writes set under Key and drops the legacy key.
func (s *Store) save(ctx context.Context, set map[string]struct{}) {
	data, err := json.Marshal(sorted(set))
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to encode favorites")
		return
	}
	if err := s.storage.Set(ctx, Key, string(data)); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write favorites")
		return
	}
	if err := s.storage.Delete(ctx, LegacyKey); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to remove legacy favorites")
	}
}

// parseIDs decodes a JSON array of ids. Numbers are accepted and formatted;
// null and empty entries are skipped. ok is false when raw is not an array.
func parseIDs(raw string) (ids []string, ok bool) {
	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil || items == nil {
		return nil, false
	}
	for _, item := range items {
		var id string
		switch v := item.(type) {
		case nil:
			continue
		case string:
			id = v
		case float64:
			id = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			id = fmt.Sprint(v)
		}
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, true
}

func addAll(set map[string]struct{}, ids []string) {
	for _, id := range ids {
		set[id] = struct{}{}
	}
}

func sorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
