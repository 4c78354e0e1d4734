// Package session holds the UI state of one catalog session and drives the
// three coordinated resources: categories, exercise listings and favorites.
//
// Every user gesture maps to one method. Methods update the explicit State
// and start a load; results reach the Presenter asynchronously. Renderers
// attached to the Presenter must not call back into the Session.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/your-energy-client/pkg/batch"
	"github.com/Sternrassler/your-energy-client/pkg/cache"
	"github.com/Sternrassler/your-energy-client/pkg/client"
	"github.com/Sternrassler/your-energy-client/pkg/coordinator"
	"github.com/Sternrassler/your-energy-client/pkg/favorites"
	"github.com/Sternrassler/your-energy-client/pkg/reconciler"
)

// Errors returned by session operations.
var (
	ErrNoCategory    = errors.New("no category selected")
	ErrFavoritesMode = errors.New("not available in favorites mode")
	ErrInvalidPage   = errors.New("page must be >= 1")
)

// Catalog is the subset of the API client a session needs.
type Catalog interface {
	Filters(ctx context.Context, q client.FilterQuery) (*client.FilterPage, error)
	Exercises(ctx context.Context, q client.ExerciseQuery) (*client.ExercisePage, error)
	Exercise(ctx context.Context, id string) (*client.Exercise, error)
}

// Config holds page limits and favorites fan-out settings.
type Config struct {
	FiltersLimit   int
	ExercisesLimit int
	Batch          batch.Config
}

// DefaultConfig returns the default limits.
func DefaultConfig() Config {
	return Config{
		FiltersLimit:   12,
		ExercisesLimit: 10,
		Batch:          batch.DefaultConfig(),
	}
}

// State is the user-selected view state.
type State struct {
	Mode     reconciler.Mode
	Filter   string
	Category string
	Page     int
	Keyword  string
}

// Detail is an exercise with its favorite flag.
type Detail struct {
	Exercise *client.Exercise
	Favorite bool
}

// Session owns the state and the coordinators of one UI.
type Session struct {
	api       Catalog
	favorites *favorites.Store
	presenter *reconciler.Presenter
	config    Config
	logger    zerolog.Logger

	categories *coordinator.Coordinator[client.FilterPage]
	exercises  *coordinator.Coordinator[client.ExercisePage]
	favs       *coordinator.Coordinator[[]client.Exercise]
	details    *batch.Fetcher[*client.Exercise]

	mu    sync.Mutex
	state State
}

// New creates a session in home mode showing the Muscles filter. store
// caches category and exercise pages; it may be nil.
func New(api Catalog, favs *favorites.Store, store cache.Store, presenter *reconciler.Presenter, config Config, logger zerolog.Logger) *Session {
	defaults := DefaultConfig()
	if config.FiltersLimit < 1 {
		config.FiltersLimit = defaults.FiltersLimit
	}
	if config.ExercisesLimit < 1 {
		config.ExercisesLimit = defaults.ExercisesLimit
	}
	logger = logger.With().Str("component", "session").Logger()

	s := &Session{
		api:       api,
		favorites: favs,
		presenter: presenter,
		config:    config,
		logger:    logger,
		details:   batch.NewFetcher(api.Exercise, config.Batch).WithLogger(logger),
		state: State{
			Mode:   reconciler.ModeHome,
			Filter: client.FilterMuscles,
			Page:   1,
		},
	}

	s.categories = coordinator.New(cache.KindCategories, store,
		coordinator.PresenterFunc[client.FilterPage](s.presentCategories), logger)
	s.exercises = coordinator.New(cache.KindExercises, store,
		coordinator.PresenterFunc[client.ExercisePage](s.presentExercises), logger)
	// Favorites depend on the mutable local set, so they are never cached.
	s.favs = coordinator.New(cache.KindFavorites, nil,
		coordinator.PresenterFunc[[]client.Exercise](s.presentFavorites), logger)
	return s
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Wait blocks until every load started so far has settled.
func (s *Session) Wait() {
	s.categories.Wait()
	s.exercises.Wait()
	s.favs.Wait()
}

// Start loads the initial view.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Info().Str("filter", s.state.Filter).Msg("Starting session")
	s.loadCurrent(ctx)
}

// Open replaces the whole state at once and loads the view it describes.
// Zero fields take their defaults: home mode, the Muscles filter, page 1.
func (s *Session) Open(ctx context.Context, st State) error {
	if st.Mode == "" {
		st.Mode = reconciler.ModeHome
	}
	if st.Filter == "" {
		st.Filter = client.FilterMuscles
	}
	if st.Page == 0 {
		st.Page = 1
	}
	st.Category = strings.TrimSpace(st.Category)
	st.Keyword = strings.TrimSpace(st.Keyword)

	if _, err := client.CategoryParam(st.Filter); err != nil {
		return err
	}
	if st.Page < 1 {
		return ErrInvalidPage
	}
	if st.Keyword != "" && st.Category == "" {
		return ErrNoCategory
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch st.Mode {
	case reconciler.ModeHome:
		s.favs.Cancel()
	case reconciler.ModeFavorites:
		s.categories.Cancel()
		s.exercises.Cancel()
	default:
		return fmt.Errorf("unknown mode %q", st.Mode)
	}
	s.state = st
	s.loadCurrent(ctx)
	return nil
}

// SelectFilter shows the categories of filter.
func (s *Session) SelectFilter(ctx context.Context, filter string) error {
	if _, err := client.CategoryParam(filter); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Mode != reconciler.ModeHome {
		return ErrFavoritesMode
	}
	s.state.Filter = filter
	s.state.Category = ""
	s.state.Keyword = ""
	s.state.Page = 1
	s.loadCategories(ctx)
	return nil
}

// SelectCategory shows the first page of exercises in category.
func (s *Session) SelectCategory(ctx context.Context, category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return ErrNoCategory
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Mode != reconciler.ModeHome {
		return ErrFavoritesMode
	}
	s.state.Category = category
	s.state.Keyword = ""
	s.state.Page = 1
	return s.loadExercises(ctx)
}

// Search filters the selected category by keyword. An empty keyword clears
// the search.
func (s *Session) Search(ctx context.Context, keyword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Mode != reconciler.ModeHome {
		return ErrFavoritesMode
	}
	if s.state.Category == "" {
		return ErrNoCategory
	}
	s.state.Keyword = strings.TrimSpace(keyword)
	s.state.Page = 1
	return s.loadExercises(ctx)
}

// GoToPage loads page of the current listing.
func (s *Session) GoToPage(ctx context.Context, page int) error {
	if page < 1 {
		return ErrInvalidPage
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Mode != reconciler.ModeHome {
		return ErrFavoritesMode
	}
	s.state.Page = page
	s.loadCurrent(ctx)
	return nil
}

// ShowCategories returns from an exercise listing to the category cards.
func (s *Session) ShowCategories(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Mode != reconciler.ModeHome {
		return ErrFavoritesMode
	}
	s.state.Category = ""
	s.state.Keyword = ""
	s.state.Page = 1
	s.loadCategories(ctx)
	return nil
}

// SwitchToHome leaves favorites mode and reloads the home view.
func (s *Session) SwitchToHome(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.favs.Cancel()
	s.state.Mode = reconciler.ModeHome
	s.loadCurrent(ctx)
}

// SwitchToFavorites cancels the home resources and shows the favorites.
func (s *Session) SwitchToFavorites(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories.Cancel()
	s.exercises.Cancel()
	s.state.Mode = reconciler.ModeFavorites
	s.loadFavorites(ctx)
}

// AddFavorite marks id as a favorite and reports whether it was new.
func (s *Session) AddFavorite(ctx context.Context, id string) bool {
	added := s.favorites.Add(ctx, id)
	if added {
		s.refreshFavorites(ctx)
	}
	return added
}

// RemoveFavorite unmarks id. In favorites mode the list is reloaded.
func (s *Session) RemoveFavorite(ctx context.Context, id string) {
	s.favorites.Remove(ctx, id)
	s.refreshFavorites(ctx)
}

// ToggleFavorite flips id and reports whether it is now a favorite.
func (s *Session) ToggleFavorite(ctx context.Context, id string) bool {
	now := s.favorites.Toggle(ctx, id)
	s.refreshFavorites(ctx)
	return now
}

// ExerciseDetail fetches one exercise and its favorite flag.
func (s *Session) ExerciseDetail(ctx context.Context, id string) (*Detail, error) {
	exercise, err := s.api.Exercise(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load exercise %s: %w", id, err)
	}
	return &Detail{Exercise: exercise, Favorite: s.favorites.Has(ctx, id)}, nil
}

func (s *Session) refreshFavorites(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Mode == reconciler.ModeFavorites {
		s.loadFavorites(ctx)
	}
}

// loadCurrent reloads whatever home view the state points at. Callers hold mu.
func (s *Session) loadCurrent(ctx context.Context) {
	if s.state.Mode == reconciler.ModeFavorites {
		s.loadFavorites(ctx)
		return
	}
	if s.state.Category != "" {
		if err := s.loadExercises(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Cannot load exercises")
		}
		return
	}
	s.loadCategories(ctx)
}

// loadCategories replaces the home view with category cards. The exercises
// coordinator draws into the same view, so it is cancelled first.
func (s *Session) loadCategories(ctx context.Context) {
	s.exercises.Cancel()
	q := client.FilterQuery{Filter: s.state.Filter, Page: s.state.Page, Limit: s.config.FiltersLimit}
	s.categories.Load(ctx, coordinator.Request[client.FilterPage]{
		Key: cache.KeyFromParams(cache.KindCategories, q.Params()),
		Fetch: func(ctx context.Context) (client.FilterPage, error) {
			page, err := s.api.Filters(ctx, q)
			if err != nil {
				return client.FilterPage{}, err
			}
			return *page, nil
		},
	})
}

func (s *Session) loadExercises(ctx context.Context) error {
	q, err := client.ExerciseQueryFor(s.state.Filter, s.state.Category, s.state.Keyword, s.state.Page, s.config.ExercisesLimit)
	if err != nil {
		return err
	}
	s.categories.Cancel()
	s.exercises.Load(ctx, coordinator.Request[client.ExercisePage]{
		Key: cache.KeyFromParams(cache.KindExercises, q.Params()),
		Fetch: func(ctx context.Context) (client.ExercisePage, error) {
			page, err := s.api.Exercises(ctx, q)
			if err != nil {
				return client.ExercisePage{}, err
			}
			return *page, nil
		},
	})
	return nil
}

func (s *Session) loadFavorites(ctx context.Context) {
	s.favs.Load(ctx, coordinator.Request[[]client.Exercise]{
		Key: cache.RequestKey{Kind: cache.KindFavorites, Page: 1},
		Fetch: func(ctx context.Context) ([]client.Exercise, error) {
			details, err := s.details.FetchAll(ctx, s.favorites.List(ctx))
			if err != nil {
				return nil, err
			}
			exercises := make([]client.Exercise, 0, len(details))
			for _, d := range details {
				exercises = append(exercises, *d)
			}
			return exercises, nil
		},
	})
}

func (s *Session) presentCategories(o coordinator.Outcome[client.FilterPage]) {
	s.presenter.Present(reconciler.Result{
		View:       reconciler.ViewCategories,
		Generation: o.Generation,
		Page:       o.Key.Page,
		TotalPages: o.Value.TotalPages,
		Categories: o.Value.Results,
		Err:        o.Err,
	}, reconciler.ModeHome)
}

func (s *Session) presentExercises(o coordinator.Outcome[client.ExercisePage]) {
	_, category, _ := strings.Cut(o.Key.FilterOrCategory, "=")
	s.presenter.Present(reconciler.Result{
		View:       reconciler.ViewExercises,
		Generation: o.Generation,
		Category:   category,
		Page:       o.Key.Page,
		TotalPages: o.Value.TotalPages,
		Exercises:  o.Value.Results,
		Err:        o.Err,
	}, reconciler.ModeHome)
}

func (s *Session) presentFavorites(o coordinator.Outcome[[]client.Exercise]) {
	s.presenter.Present(reconciler.Result{
		View:       reconciler.ViewFavorites,
		Generation: o.Generation,
		Page:       1,
		TotalPages: 1,
		Exercises:  o.Value,
		Err:        o.Err,
	}, reconciler.ModeFavorites)
}
