package cache

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Kind names the resource a request belongs to.
type Kind string

// Resources coordinated by the client.
const (
	KindCategories Kind = "filters"
	KindExercises  Kind = "exercises"
	KindFavorites  Kind = "favorites"
)

// RequestKey identifies a cached response. Two keys are equal iff all fields
// are equal, and equal keys always serialize identically.
type RequestKey struct {
	// Kind is the resource kind.
	Kind Kind

	// FilterOrCategory is the filter name for categories (e.g. "Muscles") or
	// "<param>=<category>" for exercise listings (e.g. "bodypart=Arms").
	FilterOrCategory string

	Page  int
	Limit int

	// Keyword is the trimmed search keyword, empty when not searching.
	Keyword string
}

// String generates the cache key string. Field order is fixed:
//
//	your-energy:<kind>:<filterOrCategory>:page=<n>:limit=<n>:keyword=<kw>
//
// Free-text fields are query-escaped so a ':' inside a value cannot shift fields.
func (k RequestKey) String() string {
	parts := []string{
		"your-energy",
		string(k.Kind),
		url.QueryEscape(k.FilterOrCategory),
		fmt.Sprintf("page=%d", k.Page),
		fmt.Sprintf("limit=%d", k.Limit),
		"keyword=" + url.QueryEscape(k.Keyword),
	}
	return strings.Join(parts, ":")
}

// categoryParams are the /exercises parameters that select a category, in
// precedence order.
var categoryParams = []string{"muscles", "bodypart", "equipment"}

// KeyFromParams builds a key from an unordered parameter map as sent to the
// API ("filter", "muscles", "bodypart", "equipment", "page", "limit",
// "keyword"). Values may be strings or ints; anything else is formatted with
// fmt. The result does not depend on how the map was built.
func KeyFromParams(kind Kind, params map[string]any) RequestKey {
	key := RequestKey{
		Kind:    kind,
		Page:    intParam(params["page"]),
		Limit:   intParam(params["limit"]),
		Keyword: strings.TrimSpace(stringParam(params["keyword"])),
	}

	if filter := stringParam(params["filter"]); filter != "" {
		key.FilterOrCategory = filter
		return key
	}
	for _, name := range categoryParams {
		if v := stringParam(params[name]); v != "" {
			key.FilterOrCategory = name + "=" + v
			break
		}
	}
	return key
}

func stringParam(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func intParam(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(n))
		return i
	default:
		return 0
	}
}
