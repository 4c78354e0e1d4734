// Package testutil provides testing utilities for the catalog client.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/your-energy-client/pkg/client"
	"github.com/gorilla/mux"
)

// Route names accepted by SetHandler and SetResponse.
const (
	RouteQuote        = "quote"
	RouteFilters      = "filters"
	RouteExercises    = "exercises"
	RouteExercise     = "exercise"
	RouteRating       = "rating"
	RouteSubscription = "subscription"
)

// MockResponse defines a canned response for a route.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockCatalog is a configurable in-process catalog API.
type MockCatalog struct {
	server *httptest.Server

	mu            sync.RWMutex
	handlers      map[string]http.HandlerFunc
	filters       []client.Filter
	exercises     []client.Exercise
	subscriptions map[string]bool
	requests      []string
	routeCounts   map[string]int
}

// NewMockCatalog starts a mock catalog API served under /api.
func NewMockCatalog() *MockCatalog {
	m := &MockCatalog{
		handlers:      make(map[string]http.HandlerFunc),
		subscriptions: make(map[string]bool),
		routeCounts:   make(map[string]int),
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/quote", m.route(RouteQuote, m.quoteHandler)).Methods(http.MethodGet)
	api.HandleFunc("/filters", m.route(RouteFilters, m.filtersHandler)).Methods(http.MethodGet)
	api.HandleFunc("/exercises", m.route(RouteExercises, m.exercisesHandler)).Methods(http.MethodGet)
	api.HandleFunc("/exercises/{id}", m.route(RouteExercise, m.exerciseHandler)).Methods(http.MethodGet)
	api.HandleFunc("/exercises/{id}/rating", m.route(RouteRating, m.ratingHandler)).Methods(http.MethodPatch)
	api.HandleFunc("/subscription", m.route(RouteSubscription, m.subscriptionHandler)).Methods(http.MethodPost)

	m.server = httptest.NewServer(r)
	return m
}

// URL returns the API base URL (including the /api prefix).
func (m *MockCatalog) URL() string {
	return m.server.URL + "/api"
}

// Close shuts down the mock server.
func (m *MockCatalog) Close() {
	m.server.Close()
}

// Reset clears request tracking.
func (m *MockCatalog) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.routeCounts = make(map[string]int)
}

// SetHandler overrides the handler for a route.
func (m *MockCatalog) SetHandler(route string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[route] = handler
}

// SetResponse configures a canned response for a route.
func (m *MockCatalog) SetResponse(route string, resp MockResponse) {
	m.SetHandler(route, func(w http.ResponseWriter, r *http.Request) {
		if !Sleep(r, resp.Delay) {
			return
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			_, _ = w.Write([]byte(resp.Body))
		}
	})
}

// AddFilters seeds the category fixtures.
func (m *MockCatalog) AddFilters(filters ...client.Filter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, filters...)
}

// AddExercises seeds the exercise fixtures.
func (m *MockCatalog) AddExercises(exercises ...client.Exercise) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exercises = append(m.exercises, exercises...)
}

// RequestCount returns the number of requests served.
func (m *MockCatalog) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// RouteCount returns the number of requests served by one route.
func (m *MockCatalog) RouteCount(route string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.routeCounts[route]
}

// Requests returns the request URIs in arrival order.
func (m *MockCatalog) Requests() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.requests...)
}

// Sleep waits for d or until the client goes away, reporting whether the
// handler should keep going.
func Sleep(r *http.Request, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-r.Context().Done():
		return false
	}
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NewJSONResponse creates a JSON response with the given status.
func NewJSONResponse(status int, body string) MockResponse {
	return MockResponse{
		StatusCode: status,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return NewJSONResponse(http.StatusInternalServerError, `{"message": "Internal server error"}`)
}

// NewNotFoundResponse creates a 404 response.
func NewNotFoundResponse() MockResponse {
	return NewJSONResponse(http.StatusNotFound, `{"message": "Not found"}`)
}

func (m *MockCatalog) route(name string, fallback http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.requests = append(m.requests, r.URL.RequestURI())
		m.routeCounts[name]++
		handler, ok := m.handlers[name]
		m.mu.Unlock()

		if ok {
			handler(w, r)
			return
		}
		fallback(w, r)
	}
}

func (m *MockCatalog) quoteHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, client.Quote{
		Quote:  "The only bad workout is the one that didn't happen.",
		Author: "Unknown",
	})
}

func (m *MockCatalog) filtersHandler(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")

	m.mu.RLock()
	var matched []client.Filter
	for _, f := range m.filters {
		if filter == "" || f.Filter == filter {
			matched = append(matched, f)
		}
	}
	m.mu.RUnlock()

	WriteJSON(w, http.StatusOK, paginate(matched, r, 12))
}

func (m *MockCatalog) exercisesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	keyword := strings.ToLower(q.Get("keyword"))

	m.mu.RLock()
	var matched []client.Exercise
	for _, e := range m.exercises {
		if v := q.Get("muscles"); v != "" && !strings.EqualFold(e.Target, v) {
			continue
		}
		if v := q.Get("bodypart"); v != "" && !strings.EqualFold(e.BodyPart, v) {
			continue
		}
		if v := q.Get("equipment"); v != "" && !strings.EqualFold(e.Equipment, v) {
			continue
		}
		if keyword != "" && !strings.Contains(strings.ToLower(e.Name), keyword) {
			continue
		}
		matched = append(matched, e)
	}
	m.mu.RUnlock()

	WriteJSON(w, http.StatusOK, paginate(matched, r, 10))
}

func (m *MockCatalog) exerciseHandler(w http.ResponseWriter, r *http.Request) {
	if e, ok := m.findExercise(mux.Vars(r)["id"]); ok {
		WriteJSON(w, http.StatusOK, e)
		return
	}
	WriteJSON(w, http.StatusNotFound, map[string]string{"message": "Exercise not found"})
}

func (m *MockCatalog) ratingHandler(w http.ResponseWriter, r *http.Request) {
	var req client.RatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid body"})
		return
	}
	if req.Rate < 1 || req.Rate > 5 {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"message": "Rate must be between 1 and 5"})
		return
	}
	e, ok := m.findExercise(mux.Vars(r)["id"])
	if !ok {
		WriteJSON(w, http.StatusNotFound, map[string]string{"message": "Exercise not found"})
		return
	}
	e.Rating = float64(req.Rate)
	WriteJSON(w, http.StatusOK, e)
}

func (m *MockCatalog) subscriptionHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"message": "Email is required"})
		return
	}

	m.mu.Lock()
	exists := m.subscriptions[req.Email]
	m.subscriptions[req.Email] = true
	m.mu.Unlock()

	if exists {
		WriteJSON(w, http.StatusConflict, map[string]string{"message": "Subscription already exists"})
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"message": "We're excited to have you on board!"})
}

func (m *MockCatalog) findExercise(id string) (client.Exercise, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.exercises {
		if e.ID == id {
			return e, true
		}
	}
	return client.Exercise{}, false
}

// Exercises builds n exercise fixtures for one body part, ids "<prefix>-1"...
func Exercises(prefix, bodyPart string, n int) []client.Exercise {
	out := make([]client.Exercise, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, client.Exercise{
			ID:             prefix + "-" + strconv.Itoa(i),
			Name:           prefix + " exercise " + strconv.Itoa(i),
			Target:         prefix,
			BodyPart:       bodyPart,
			Equipment:      "body weight",
			Rating:         4.5,
			BurnedCalories: 100 + i,
			Time:           3,
		})
	}
	return out
}

func paginate[T any](items []T, r *http.Request, defaultLimit int) client.Page[T] {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}

	totalPages := (len(items) + limit - 1) / limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (page - 1) * limit
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}

	results := make([]T, 0, end-start)
	results = append(results, items[start:end]...)
	return client.Page[T]{TotalPages: totalPages, Results: results}
}

