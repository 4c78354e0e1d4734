// Package reconciler turns resolved loads into render instructions.
//
// Reconcile is a pure function from a result and the UI mode to a Plan. A
// Presenter applies plans to a Renderer, which is the only part that touches
// an output device. Every instruction replaces the region it targets, so
// applying the same plan twice leaves the same visible state.
package reconciler

import (
	"context"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Sternrassler/your-energy-client/pkg/client"
	"github.com/Sternrassler/your-energy-client/pkg/coordinator"
	"github.com/Sternrassler/your-energy-client/pkg/pagination"
)

// Mode is the top-level UI mode.
type Mode string

const (
	ModeHome      Mode = "home"
	ModeFavorites Mode = "favorites"
)

// View is the listing a result belongs to.
type View string

const (
	ViewCategories View = "categories"
	ViewExercises  View = "exercises"
	ViewFavorites  View = "favorites"
)

// Empty-state texts per view.
const (
	EmptyCategories = "Unfortunately, no categories were found for this filter."
	EmptyExercises  = "Unfortunately, no results were found. You may want to consider other search options."
	EmptyFavorites  = "It appears that you haven't added any exercises to your favorites yet. To get started, you can add exercises that you like to your favorites for easier access in the future."
)

// Result is a resolved load of one view.
type Result struct {
	View       View
	Generation uint64
	// Category is the selected category of an exercise listing.
	Category   string
	Page       int
	TotalPages int
	Categories []client.Filter
	Exercises  []client.Exercise
	Err        error
}

// Op is the kind of a render instruction.
type Op string

const (
	OpBreadcrumbs     Op = "breadcrumbs"
	OpCards           Op = "cards"
	OpEmptyState      Op = "empty"
	OpErrorState      Op = "error"
	OpPagination      Op = "pagination"
	OpClearPagination Op = "clear-pagination"
	OpNotify          Op = "notify"
)

// Level is a notification severity.
type Level string

const (
	LevelError   Level = "error"
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
)

// CardKind distinguishes category cards from exercise cards.
type CardKind string

const (
	CardCategory CardKind = "category"
	CardExercise CardKind = "exercise"
)

// Card is one rendered list item.
type Card struct {
	Kind  CardKind
	ID    string
	Title string
	// Subtitle is the filter of a category card.
	Subtitle       string
	ImgURL         string
	Rating         float64
	BurnedCalories int
	Time           int
	BodyPart       string
	Target         string
	// Removable is set on favorites cards.
	Removable bool
}

// Instruction is one render step.
type Instruction struct {
	Op          Op
	Breadcrumbs []string
	Cards       []Card
	Message     string
	Level       Level
	Pagination  *pagination.Controls
}

// Plan is the ordered instruction list for one result.
type Plan struct {
	View         View
	Generation   uint64
	Mode         Mode
	Instructions []Instruction
}

// Empty reports whether the plan renders nothing.
func (p Plan) Empty() bool { return len(p.Instructions) == 0 }

// Reconcile computes the plan for r in mode. Cancellation-kind errors
// produce an empty plan.
func Reconcile(r Result, mode Mode) Plan {
	plan := Plan{View: r.View, Generation: r.Generation, Mode: mode}

	if r.Err != nil && IsCancellation(r.Err) {
		return plan
	}

	add := func(in Instruction) { plan.Instructions = append(plan.Instructions, in) }
	add(Instruction{Op: OpBreadcrumbs, Breadcrumbs: Breadcrumbs(r.View, mode, r.Category)})

	if r.Err != nil {
		// Favorites fall back to their empty state; the notification carries the failure.
		state := OpErrorState
		if r.View == ViewFavorites {
			state = OpEmptyState
		}
		add(Instruction{Op: state, Message: emptyText(r.View)})
		add(Instruction{Op: OpClearPagination})
		add(Instruction{Op: OpNotify, Level: LevelError, Message: NotificationText(r.Err)})
		return plan
	}

	cards := cardsOf(r, mode)
	if len(cards) == 0 {
		add(Instruction{Op: OpEmptyState, Message: emptyText(r.View)})
		add(Instruction{Op: OpClearPagination})
		return plan
	}

	add(Instruction{Op: OpCards, Cards: cards})
	if controls := pagination.Build(r.TotalPages, r.Page); controls != nil && mode != ModeFavorites {
		add(Instruction{Op: OpPagination, Pagination: controls})
	} else {
		add(Instruction{Op: OpClearPagination})
	}
	return plan
}

// Breadcrumbs returns the header trail of a view.
func Breadcrumbs(view View, mode Mode, category string) []string {
	if mode == ModeFavorites || view == ViewFavorites {
		return []string{"Favorites"}
	}
	if view == ViewExercises && category != "" {
		return []string{"Exercises", Capitalize(category)}
	}
	return []string{"Exercises"}
}

// Capitalize upper-cases the first letter of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// NotificationText is the user-facing message of a failed load.
func NotificationText(err error) string {
	var httpErr *client.HTTPError
	switch {
	case client.IsTimeout(err):
		return "The request timed out. Please try again."
	case errors.As(err, &httpErr) && httpErr.ErrorClass == client.ErrorClassNetwork:
		return "Network error. Please check your connection."
	case errors.As(err, &httpErr) && strings.TrimSpace(httpErr.Message) != "":
		return httpErr.Message
	default:
		return "Failed to load data. Please try again later."
	}
}

// IsCancellation reports whether err must not be surfaced to the user.
func IsCancellation(err error) bool {
	return client.IsCancelled(err) ||
		errors.Is(err, coordinator.ErrSuperseded) ||
		errors.Is(err, context.Canceled)
}

func emptyText(view View) string {
	switch view {
	case ViewCategories:
		return EmptyCategories
	case ViewFavorites:
		return EmptyFavorites
	default:
		return EmptyExercises
	}
}

func cardsOf(r Result, mode Mode) []Card {
	if r.View == ViewCategories {
		cards := make([]Card, 0, len(r.Categories))
		for _, f := range r.Categories {
			cards = append(cards, Card{
				Kind:     CardCategory,
				ID:       f.Name,
				Title:    Capitalize(f.Name),
				Subtitle: f.Filter,
				ImgURL:   f.ImgURL,
			})
		}
		return cards
	}

	removable := mode == ModeFavorites || r.View == ViewFavorites
	cards := make([]Card, 0, len(r.Exercises))
	for _, e := range r.Exercises {
		cards = append(cards, Card{
			Kind:           CardExercise,
			ID:             e.ID,
			Title:          Capitalize(e.Name),
			ImgURL:         e.GifURL,
			Rating:         e.Rating,
			BurnedCalories: e.BurnedCalories,
			Time:           e.Time,
			BodyPart:       e.BodyPart,
			Target:         e.Target,
			Removable:      removable,
		})
	}
	return cards
}
