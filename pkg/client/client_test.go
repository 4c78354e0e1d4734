package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/your-energy-client/internal/testutil"
	"github.com/Sternrassler/your-energy-client/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, baseURL string) *client.Client {
	t.Helper()
	c, err := client.New(client.DefaultConfig(baseURL, "TestApp/1.0.0"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		config   client.Config
		errorMsg string
	}{
		{
			name:   "valid config",
			config: client.DefaultConfig("http://localhost/api", "TestApp/1.0.0"),
		},
		{
			name:     "empty user agent",
			config:   client.DefaultConfig("http://localhost/api", ""),
			errorMsg: "user-agent is required",
		},
		{
			name:     "relative base url",
			config:   client.DefaultConfig("/api", "TestApp/1.0.0"),
			errorMsg: `base url must be absolute (got "/api")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := client.New(tt.config)
			if tt.errorMsg != "" {
				assert.EqualError(t, err, tt.errorMsg)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, c)
		})
	}
}

func TestBuildURL_OmitsEmptyParams(t *testing.T) {
	c := newClient(t, "http://localhost/api/")

	var missing *string
	keyword := "push"
	got, err := c.BuildURL("/exercises", client.Params{
		"bodypart":  "Arms",
		"muscles":   "",
		"equipment": nil,
		"target":    missing,
		"keyword":   &keyword,
		"page":      1,
		"limit":     10,
	})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost/api/exercises?bodypart=Arms&keyword=push&limit=10&page=1", got)
	assert.NotContains(t, got, "undefined")
}

func TestFetchJSON_NegotiatesBody(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantBody    string
		wantText    string
	}{
		{
			name:        "json body",
			status:      http.StatusOK,
			contentType: "application/json; charset=utf-8",
			body:        `{"quote":"q","author":"a"}`,
			wantBody:    `{"quote":"q","author":"a"}`,
		},
		{
			name:        "text body",
			status:      http.StatusOK,
			contentType: "text/plain",
			body:        "pong",
			wantText:    "pong",
		},
		{
			name:   "no content",
			status: http.StatusNoContent,
		},
		{
			name:        "invalid json degrades to nil body",
			status:      http.StatusOK,
			contentType: "application/json",
			body:        `{"broken":`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.contentType != "" {
					w.Header().Set("Content-Type", tt.contentType)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			c := newClient(t, srv.URL)

			resp, err := c.FetchJSON(context.Background(), http.MethodGet, "/anything", client.RequestOptions{})
			require.NoError(t, err)

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.wantBody, string(resp.Body))
			assert.Equal(t, tt.wantText, resp.Text)
		})
	}
}

func TestFetchJSON_NonSuccessIsAlwaysAnError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantMessage string
		wantClass   client.ErrorClass
	}{
		{
			name:        "json message",
			status:      http.StatusConflict,
			contentType: "application/json",
			body:        `{"message":"Subscription already exists"}`,
			wantMessage: "Subscription already exists",
			wantClass:   client.ErrorClassClient,
		},
		{
			name:        "text message",
			status:      http.StatusBadGateway,
			contentType: "text/plain",
			body:        "upstream down",
			wantMessage: "upstream down",
			wantClass:   client.ErrorClassServer,
		},
		{
			name:        "unparseable json",
			status:      http.StatusInternalServerError,
			contentType: "application/json",
			body:        `<html>`,
			wantMessage: "Request failed",
			wantClass:   client.ErrorClassServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			c := newClient(t, srv.URL)

			_, err := c.FetchJSON(context.Background(), http.MethodGet, "/x", client.RequestOptions{})

			var httpErr *client.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.wantMessage, httpErr.Message)
			assert.Equal(t, tt.wantClass, httpErr.ErrorClass)
			assert.False(t, client.IsCancelled(err))
			assert.False(t, client.IsTimeout(err))
		})
	}
}

func TestFetchJSON_TimeoutIsDistinguishedFromCancellation(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		testutil.Sleep(r, time.Second)
	})
	c := newClient(t, srv.URL)

	_, err := c.FetchJSON(context.Background(), http.MethodGet, "/slow", client.RequestOptions{Timeout: 20 * time.Millisecond})

	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrTimeout)
	assert.False(t, client.IsCancelled(err))
	assert.Equal(t, 0, client.StatusCode(err))
}

func TestFetchJSON_CallerCancellation(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		testutil.Sleep(r, time.Second)
	})
	c := newClient(t, srv.URL)

	superseded := errors.New("superseded")
	ctx, cancel := context.WithCancelCause(context.Background())
	time.AfterFunc(20*time.Millisecond, func() { cancel(superseded) })

	_, err := c.FetchJSON(ctx, http.MethodGet, "/slow", client.RequestOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrCancelled)
	assert.ErrorIs(t, err, superseded)
	assert.False(t, errors.Is(err, client.ErrTimeout))
}

func TestFetchJSON_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	c := newClient(t, baseURL)
	_, err := c.FetchJSON(context.Background(), http.MethodGet, "/quote", client.RequestOptions{})

	var httpErr *client.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, client.ErrorClassNetwork, httpErr.ErrorClass)
	assert.Equal(t, 0, httpErr.StatusCode)
}

func TestFetchJSON_SendsHeaders(t *testing.T) {
	var got http.Header
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	})
	c := newClient(t, srv.URL)

	_, err := c.FetchJSON(context.Background(), http.MethodPost, "/subscription", client.RequestOptions{
		Body: map[string]string{"email": "a@b.co"},
	})
	require.NoError(t, err)

	assert.Equal(t, "TestApp/1.0.0", got.Get("User-Agent"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Len(t, got.Get("X-Request-ID"), 36)
}

func TestFetchJSON_RetriesServerErrorsForGet(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		testutil.WriteJSON(w, http.StatusOK, client.Quote{Quote: "q", Author: "a"})
	})

	cfg := client.DefaultConfig(srv.URL, "TestApp/1.0.0")
	cfg.Retry = client.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffMultiplier: 2}
	c, err := client.New(cfg)
	require.NoError(t, err)

	quote, err := c.Quote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "q", quote.Quote)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEndpoints_AgainstMockCatalog(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.AddExercises(testutil.Exercises("biceps", "upper arms", 3)...)
	mock.AddFilters(
		client.Filter{Name: "biceps", Filter: client.FilterMuscles},
		client.Filter{Name: "upper arms", Filter: client.FilterBodyParts},
	)

	c := newClient(t, mock.URL())
	ctx := context.Background()

	t.Run("filters", func(t *testing.T) {
		page, err := c.Filters(ctx, client.FilterQuery{Filter: client.FilterMuscles})
		require.NoError(t, err)
		assert.Equal(t, 1, page.TotalPages)
		require.Len(t, page.Results, 1)
		assert.Equal(t, "biceps", page.Results[0].Name)
	})

	t.Run("exercises query", func(t *testing.T) {
		mock.Reset()
		q, err := client.ExerciseQueryFor(client.FilterBodyParts, "upper arms", "", 1, 10)
		require.NoError(t, err)

		page, err := c.Exercises(ctx, q)
		require.NoError(t, err)
		assert.Len(t, page.Results, 3)
		assert.Equal(t, []string{"/api/exercises?bodypart=upper+arms&limit=10&page=1"}, mock.Requests())
	})

	t.Run("exercise by id", func(t *testing.T) {
		e, err := c.Exercise(ctx, "biceps-2")
		require.NoError(t, err)
		assert.Equal(t, "biceps exercise 2", e.Name)
		assert.Equal(t, 102, e.BurnedCalories)
	})

	t.Run("missing exercise", func(t *testing.T) {
		_, err := c.Exercise(ctx, "nope")
		assert.Equal(t, http.StatusNotFound, client.StatusCode(err))
	})

	t.Run("rate exercise", func(t *testing.T) {
		e, err := c.RateExercise(ctx, "biceps-1", client.RatingRequest{Rate: 5, Email: "a@b.co", Review: "great"})
		require.NoError(t, err)
		assert.Equal(t, 5.0, e.Rating)
	})

	t.Run("subscribe twice", func(t *testing.T) {
		_, err := c.Subscribe(ctx, "fan@example.com")
		require.NoError(t, err)

		_, err = c.Subscribe(ctx, "fan@example.com")
		var httpErr *client.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, "Subscription already exists", httpErr.Message)
	})
}

func TestEndpoints_WrongShapeDegradesToZeroValue(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"totalPages": 3, "results": "not-a-list"}`))
	})
	c := newClient(t, srv.URL)

	page, err := c.Exercises(context.Background(), client.ExerciseQuery{Muscles: "biceps"})
	require.NoError(t, err)
	assert.Empty(t, page.Results)
	assert.Equal(t, 0, page.TotalPages)
}

func TestExerciseQueryFor(t *testing.T) {
	tests := []struct {
		filter string
		param  string
	}{
		{client.FilterMuscles, "muscles"},
		{client.FilterBodyParts, "bodypart"},
		{client.FilterEquipment, "equipment"},
	}
	for _, tt := range tests {
		q, err := client.ExerciseQueryFor(tt.filter, "x", " squat ", 2, 9)
		require.NoError(t, err)
		params := q.Params()
		assert.Equal(t, "x", params[tt.param])
		assert.Equal(t, "squat", params["keyword"])
		assert.Equal(t, 2, params["page"])
		assert.Equal(t, 9, params["limit"])
	}

	_, err := client.ExerciseQueryFor("Colors", "red", "", 1, 10)
	assert.Error(t, err)
}

func TestResponse_Decode(t *testing.T) {
	var q client.Quote
	require.NoError(t, (&client.Response{}).Decode(&q))
	assert.Equal(t, client.Quote{}, q)

	resp := &client.Response{Body: json.RawMessage(`{"quote":"x","author":"y"}`)}
	require.NoError(t, resp.Decode(&q))
	assert.Equal(t, "x", q.Quote)

	bad := &client.Response{Body: json.RawMessage(`[1]`)}
	err := bad.Decode(&q)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "decode response body"))
}
