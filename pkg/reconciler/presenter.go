package reconciler

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/your-energy-client/pkg/pagination"
)

// Renderer binds instructions to an output device. Each method replaces the
// region it draws.
type Renderer interface {
	Breadcrumbs(trail []string)
	Cards(view View, cards []Card)
	EmptyState(view View, message string)
	ErrorState(view View, message string)
	Pagination(controls *pagination.Controls)
	ClearPagination()
	Notify(level Level, message string)
}

// Presenter applies plans to a Renderer. It is safe for concurrent use; the
// three resources of a session share one Presenter.
type Presenter struct {
	mu       sync.Mutex
	renderer Renderer
	logger   zerolog.Logger
}

// NewPresenter creates a Presenter drawing on renderer.
func NewPresenter(renderer Renderer, logger zerolog.Logger) *Presenter {
	return &Presenter{renderer: renderer, logger: logger}
}

// Present reconciles r and applies the resulting plan.
func (p *Presenter) Present(r Result, mode Mode) Plan {
	plan := Reconcile(r, mode)
	p.Apply(plan)
	return plan
}

// Apply renders plan.
func (p *Presenter) Apply(plan Plan) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if plan.Empty() {
		p.logger.Debug().Str("view", string(plan.View)).Uint64("generation", plan.Generation).Msg("Nothing to render")
		return
	}

	for _, in := range plan.Instructions {
		switch in.Op {
		case OpBreadcrumbs:
			p.renderer.Breadcrumbs(in.Breadcrumbs)
		case OpCards:
			p.renderer.Cards(plan.View, in.Cards)
		case OpEmptyState:
			p.renderer.EmptyState(plan.View, in.Message)
		case OpErrorState:
			p.renderer.ErrorState(plan.View, in.Message)
		case OpPagination:
			p.renderer.Pagination(in.Pagination)
		case OpClearPagination:
			p.renderer.ClearPagination()
		case OpNotify:
			p.renderer.Notify(in.Level, in.Message)
		default:
			p.logger.Warn().Str("op", string(in.Op)).Msg("Unknown render instruction")
		}
	}
}

// Notify shows a transient notification outside of any plan.
func (p *Presenter) Notify(level Level, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.renderer.Notify(level, message)
}

