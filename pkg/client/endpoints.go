package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"
)

// Filter names accepted by GET /filters.
const (
	FilterMuscles   = "Muscles"
	FilterBodyParts = "Body parts"
	FilterEquipment = "Equipment"
)

// FilterQuery selects a page of categories.
type FilterQuery struct {
	Filter string
	Page   int
	Limit  int
}

// Params returns the query parameters, defaulting page to 1 and limit to 12.
func (q FilterQuery) Params() Params {
	return Params{
		"filter": q.Filter,
		"page":   positiveOr(q.Page, 1),
		"limit":  positiveOr(q.Limit, 12),
	}
}

// ExerciseQuery selects a page of exercises within one category.
type ExerciseQuery struct {
	Muscles   string
	BodyPart  string
	Equipment string
	Keyword   string
	Page      int
	Limit     int
}

// Params returns the query parameters, defaulting page to 1 and limit to 10.
func (q ExerciseQuery) Params() Params {
	return Params{
		"muscles":   q.Muscles,
		"bodypart":  q.BodyPart,
		"equipment": q.Equipment,
		"keyword":   strings.TrimSpace(q.Keyword),
		"page":      positiveOr(q.Page, 1),
		"limit":     positiveOr(q.Limit, 10),
	}
}

// CategoryParam maps a filter name to the /exercises query parameter.
func CategoryParam(filter string) (string, error) {
	switch filter {
	case FilterMuscles:
		return "muscles", nil
	case FilterBodyParts:
		return "bodypart", nil
	case FilterEquipment:
		return "equipment", nil
	default:
		return "", fmt.Errorf("unknown filter %q", filter)
	}
}

// ExerciseQueryFor builds the query for a category of the given filter.
func ExerciseQueryFor(filter, category, keyword string, page, limit int) (ExerciseQuery, error) {
	param, err := CategoryParam(filter)
	if err != nil {
		return ExerciseQuery{}, err
	}
	q := ExerciseQuery{Keyword: keyword, Page: page, Limit: limit}
	switch param {
	case "muscles":
		q.Muscles = category
	case "bodypart":
		q.BodyPart = category
	case "equipment":
		q.Equipment = category
	}
	return q, nil
}

// Quote fetches the quote of the day.
func (c *Client) Quote(ctx context.Context) (*Quote, error) {
	var quote Quote
	if err := c.getInto(ctx, "/quote", nil, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

// Filters fetches a page of categories.
func (c *Client) Filters(ctx context.Context, q FilterQuery) (*FilterPage, error) {
	var page FilterPage
	if err := c.getInto(ctx, "/filters", q.Params(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Exercises fetches a page of exercises.
func (c *Client) Exercises(ctx context.Context, q ExerciseQuery) (*ExercisePage, error) {
	var page ExercisePage
	if err := c.getInto(ctx, "/exercises", q.Params(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Exercise fetches one exercise by id.
func (c *Client) Exercise(ctx context.Context, id string) (*Exercise, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("exercise id is required")
	}
	var exercise Exercise
	if err := c.getInto(ctx, "/exercises/"+url.PathEscape(id), nil, &exercise); err != nil {
		return nil, err
	}
	return &exercise, nil
}

// RateExercise submits a rating and returns the updated exercise.
func (c *Client) RateExercise(ctx context.Context, id string, rating RatingRequest) (*Exercise, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("exercise id is required")
	}
	resp, err := c.FetchJSON(ctx, http.MethodPatch, "/exercises/"+url.PathEscape(id)+"/rating", RequestOptions{Body: rating})
	if err != nil {
		return nil, err
	}
	var exercise Exercise
	c.decodeLenient(resp, &exercise)
	return &exercise, nil
}

// Subscribe registers an email for the newsletter.
func (c *Client) Subscribe(ctx context.Context, email string) (*SubscriptionResponse, error) {
	resp, err := c.FetchJSON(ctx, http.MethodPost, "/subscription", RequestOptions{
		Body: map[string]string{"email": strings.TrimSpace(email)},
	})
	if err != nil {
		return nil, err
	}
	var out SubscriptionResponse
	c.decodeLenient(resp, &out)
	return &out, nil
}

func (c *Client) getInto(ctx context.Context, path string, params Params, v any) error {
	resp, err := c.FetchJSON(ctx, http.MethodGet, path, RequestOptions{Params: params})
	if err != nil {
		return err
	}
	c.decodeLenient(resp, v)
	return nil
}

// decodeLenient treats a body of the wrong shape like an unparseable one:
// v is reset to its zero value. v must be a non-nil pointer.
func (c *Client) decodeLenient(resp *Response, v any) {
	if err := resp.Decode(v); err != nil {
		reflect.ValueOf(v).Elem().SetZero()
		c.logger.Warn().Err(err).Int("status", resp.StatusCode).Msg("Response body did not match the expected shape")
	}
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
