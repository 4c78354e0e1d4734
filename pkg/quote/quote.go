// Package quote serves the quote of the day, fetched at most once per
// calendar day and kept in durable storage.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/your-energy-client/pkg/client"
	"github.com/Sternrassler/your-energy-client/pkg/storage"
)

// Storage keys.
const (
	Key             = "your-energy:quote"
	LegacyTextKey   = "quote-text"
	LegacyAuthorKey = "quote-author"
	LegacyDateKey   = "quote-date"
)

// DateLayout is the format of Entry.Date.
const DateLayout = "2006-01-02"

var legacyKeys = []string{LegacyTextKey, LegacyAuthorKey, LegacyDateKey}

// Source fetches a fresh quote.
type Source interface {
	Quote(ctx context.Context) (*client.Quote, error)
}

// Entry is the stored quote.
type Entry struct {
	Quote  string `json:"quote"`
	Author string `json:"author"`
	Date   string `json:"date"`
}

func (e *Entry) complete() bool {
	return e != nil && e.Quote != "" && e.Author != ""
}

// Service resolves the quote of the day.
type Service struct {
	source  Source
	storage storage.Storage
	now     func() time.Time
	logger  zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a quote service.
func New(source Source, store storage.Storage, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		source:  source,
		storage: store,
		now:     time.Now,
		logger:  logger.With().Str("component", "quote").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the stored quote when it was fetched today, otherwise a fresh
// one. When fetching fails the last stored quote is returned, however old.
func (s *Service) Today(ctx context.Context) (*client.Quote, error) {
	today := s.now().Format(DateLayout)
	cached := s.load(ctx)

	if cached.complete() && cached.Date == today {
		return &client.Quote{Quote: cached.Quote, Author: cached.Author}, nil
	}

	fresh, err := s.source.Quote(ctx)
	if err != nil {
		if cached.complete() {
			s.logger.Warn().Err(err).Str("date", cached.Date).Msg("Quote fetch failed, using stored quote")
			return &client.Quote{Quote: cached.Quote, Author: cached.Author}, nil
		}
		return nil, fmt.Errorf("failed to load quote of the day: %w", err)
	}

	next := &Entry{Quote: fresh.Quote, Author: fresh.Author, Date: today}
	if next.complete() {
		s.save(ctx, next)
	}
	return fresh, nil
}

// load reads the stored entry, migrating the legacy keys. It returns nil
// when nothing usable is stored.
func (s *Service) load(ctx context.Context) *Entry {
	raw, err := s.storage.Get(ctx, Key)
	switch {
	case err == nil:
		var e Entry
		if json.Unmarshal([]byte(raw), &e) == nil && e.complete() {
			return &e
		}
	case !errors.Is(err, storage.ErrNotFound):
		s.logger.Warn().Err(err).Msg("Failed to read stored quote")
		return nil
	}

	legacy := &Entry{
		Quote:  s.getLegacy(ctx, LegacyTextKey),
		Author: s.getLegacy(ctx, LegacyAuthorKey),
		Date:   s.getLegacy(ctx, LegacyDateKey),
	}
	if !legacy.complete() {
		return nil
	}
	s.save(ctx, legacy)
	s.logger.Info().Msg("Migrated legacy quote")
	return legacy
}

func (s *Service) getLegacy(ctx context.Context, key string) string {
	v, err := s.storage.Get(ctx, key)
	if err != nil {
		return ""
	}
	return v
}

func (s *Service) save(ctx context.Context, e *Entry) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := s.storage.Set(ctx, Key, string(data)); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to store quote")
		return
	}
	for _, key := range legacyKeys {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("Failed to remove legacy quote key")
		}
	}
}
