package reconciler

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Sternrassler/your-energy-client/pkg/pagination"
)

// TextRenderer draws plans as plain text.
type TextRenderer struct {
	w io.Writer
}

// NewTextRenderer creates a renderer writing to w.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

// Breadcrumbs implements Renderer.
func (t *TextRenderer) Breadcrumbs(trail []string) {
	fmt.Fprintf(t.w, "== %s ==\n", strings.Join(trail, " / "))
}

// Cards implements Renderer.
func (t *TextRenderer) Cards(view View, cards []Card) {
	tw := tabwriter.NewWriter(t.w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	if view == ViewCategories {
		fmt.Fprintln(tw, "NAME\tFILTER")
		for _, c := range cards {
			fmt.Fprintf(tw, "%s\t%s\n", c.Title, c.Subtitle)
		}
		return
	}

	fmt.Fprintln(tw, "ID\tNAME\tRATING\tCALORIES\tBODY PART\tTARGET\t")
	for _, c := range cards {
		marker := ""
		if c.Removable {
			marker = "[x]"
		}
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%d / %d min\t%s\t%s\t%s\n",
			c.ID, c.Title, c.Rating, c.BurnedCalories, c.Time, c.BodyPart, c.Target, marker)
	}
}

// EmptyState implements Renderer.
func (t *TextRenderer) EmptyState(_ View, message string) {
	fmt.Fprintln(t.w, message)
}

// ErrorState implements Renderer.
func (t *TextRenderer) ErrorState(_ View, message string) {
	fmt.Fprintln(t.w, message)
}

// Pagination implements Renderer.
func (t *TextRenderer) Pagination(c *pagination.Controls) {
	fmt.Fprintln(t.w, FormatControls(c))
}

// ClearPagination implements Renderer.
func (t *TextRenderer) ClearPagination() {}

// Notify implements Renderer.
func (t *TextRenderer) Notify(level Level, message string) {
	fmt.Fprintf(t.w, "[%s] %s\n", level, message)
}

// FormatControls renders a page bar, e.g. "« ‹ [1] 2 3 … 9 10 › »".
// Disabled arrows are replaced by spaces.
func FormatControls(c *pagination.Controls) string {
	if c == nil {
		return ""
	}
	arrow := func(s string, disabled bool) string {
		if disabled {
			return " "
		}
		return s
	}

	parts := []string{arrow("«", c.FirstDisabled), arrow("‹", c.PrevDisabled)}
	for _, item := range c.Items {
		switch {
		case item.IsGap():
			parts = append(parts, "…")
		case item.Active:
			parts = append(parts, fmt.Sprintf("[%d]", item.Page))
		default:
			parts = append(parts, fmt.Sprint(item.Page))
		}
	}
	parts = append(parts, arrow("›", c.NextDisabled), arrow("»", c.LastDisabled))
	return strings.Join(parts, " ")
}
