package pagination

// maxFullPages is the largest page count rendered without a gap.
const maxFullPages = 5

// Item is one element of the page bar: a page number or a gap.
type Item struct {
	// Page is the page number, 0 for a gap.
	Page   int
	Active bool
}

// IsGap reports whether the item is an ellipsis.
func (i Item) IsGap() bool { return i.Page == 0 }

// Controls is the page bar of a listing.
type Controls struct {
	Current    int
	TotalPages int
	Items      []Item

	// First and Prev are disabled on page 1, Next and Last on the final page.
	FirstDisabled bool
	PrevDisabled  bool
	NextDisabled  bool
	LastDisabled  bool
}

// Build returns the controls for a listing or nil when totalPages <= 1.
// page is clamped to [1, totalPages].
func Build(totalPages, page int) *Controls {
	if totalPages <= 1 {
		return nil
	}
	page = Clamp(page, totalPages)

	c := &Controls{
		Current:       page,
		TotalPages:    totalPages,
		FirstDisabled: page == 1,
		PrevDisabled:  page == 1,
		NextDisabled:  page == totalPages,
		LastDisabled:  page == totalPages,
	}

	add := func(p int) {
		c.Items = append(c.Items, Item{Page: p, Active: p == page})
	}
	if totalPages <= maxFullPages {
		for p := 1; p <= totalPages; p++ {
			add(p)
		}
		return c
	}
	for p := 1; p <= 3; p++ {
		add(p)
	}
	c.Items = append(c.Items, Item{})
	add(totalPages - 1)
	add(totalPages)
	return c
}

// Clamp limits page to [1, totalPages]. With totalPages < 1 it returns 1.
func Clamp(page, totalPages int) int {
	if page < 1 || totalPages < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}
