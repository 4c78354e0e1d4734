package batch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchAll(t *testing.T) {
	tests := []struct {
		name    string
		ids     []string
		fail    map[string]bool
		want    []string
		wantErr error
	}{
		{
			name: "all succeed in input order",
			ids:  []string{"c", "a", "b"},
			want: []string{"item-c", "item-a", "item-b"},
		},
		{
			name: "failures are dropped",
			ids:  []string{"a", "b", "c", "d"},
			fail: map[string]bool{"b": true, "d": true},
			want: []string{"item-a", "item-c"},
		},
		{
			name:    "all fail",
			ids:     []string{"a", "b"},
			fail:    map[string]bool{"a": true, "b": true},
			want:    []string{},
			wantErr: ErrAllFailed,
		},
		{
			name: "empty batch",
			ids:  nil,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := NewFetcher(func(_ context.Context, id string) (string, error) {
				if tt.fail[id] {
					return "", fmt.Errorf("fetch %s: not found", id)
				}
				return "item-" + id, nil
			}, Config{MaxConcurrency: 2, Timeout: time.Second})

			got, err := fetcher.FetchAll(context.Background(), tt.ids)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetchAll_ConcurrencyLimit(t *testing.T) {
	var active, peak atomic.Int32
	fetcher := NewFetcher(func(_ context.Context, id string) (string, error) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return id, nil
	}, Config{MaxConcurrency: 3, Timeout: time.Second})

	ids := make([]string, 12)
	for i := range ids {
		ids[i] = fmt.Sprint(i)
	}
	got, err := fetcher.FetchAll(context.Background(), ids)
	require.NoError(t, err)
	assert.Len(t, got, 12)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestFetchAll_PerItemTimeout(t *testing.T) {
	fetcher := NewFetcher(func(ctx context.Context, id string) (string, error) {
		if id == "slow" {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return id, nil
	}, Config{MaxConcurrency: 2, Timeout: 20 * time.Millisecond})

	got, err := fetcher.FetchAll(context.Background(), []string{"slow", "fast"})
	require.NoError(t, err)
	assert.Equal(t, []string{"fast"}, got)
}

func TestFetchAll_Cancelled(t *testing.T) {
	cause := errors.New("superseded")
	ctx, cancel := context.WithCancelCause(context.Background())

	started := make(chan struct{}, 4)
	fetcher := NewFetcher(func(ctx context.Context, id string) (string, error) {
		started <- struct{}{}
		<-ctx.Done()
		return "", ctx.Err()
	}, Config{MaxConcurrency: 2, Timeout: time.Minute})

	go func() {
		<-started
		cancel(cause)
	}()

	got, err := fetcher.FetchAll(ctx, []string{"a", "b", "c", "d"})
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, got)
}

func TestNewFetcher_Defaults(t *testing.T) {
	f := NewFetcher(func(context.Context, string) (int, error) { return 0, nil }, Config{})
	assert.Equal(t, DefaultConfig(), f.config)
}
