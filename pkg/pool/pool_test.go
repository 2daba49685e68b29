package pool

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"
)

func TestMap_OrderPreserved(t *testing.T) {
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	out, err := Map(context.Background(), items, 7, func(_ context.Context, n int) (int, error) {
		time.Sleep(time.Duration(rand.Intn(3)) * time.Millisecond) //nolint:gosec // jitter only
		return n * 2, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(out))
	}
	for i, got := range out {
		if got != items[i]*2 {
			t.Errorf("out[%d] = %d, want %d", i, got, items[i]*2)
		}
	}
}

func TestMap_ConcurrencyLimit(t *testing.T) {
	const limit = 3
	items := make([]int, 30)

	var inFlight, peak atomic.Int64
	_, err := Map(context.Background(), items, limit, func(_ context.Context, _ int) (struct{}, error) {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := peak.Load(); got > limit {
		t.Errorf("peak in-flight operations = %d, want <= %d", got, limit)
	}
}

func TestMap_FailFast(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	wantErr := errors.New("boom")

	var started atomic.Int64
	_, err := Map(context.Background(), items, 2, func(_ context.Context, n int) (int, error) {
		started.Add(1)
		if n == 1 {
			return 0, wantErr
		}
		time.Sleep(time.Millisecond)
		return n, nil
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}

func TestMap_FirstErrorWins(t *testing.T) {
	items := []int{0, 1, 2}
	_, err := Map(context.Background(), items, 1, func(_ context.Context, n int) (int, error) {
		return 0, fmt.Errorf("error for item %d", n)
	})
	if err == nil || err.Error() != "error for item 0" {
		t.Fatalf("expected error for item 0, got %v", err)
	}
}

func TestMap_ErrorOnLastItem(t *testing.T) {
	items := []int{0, 1, 2}
	wantErr := errors.New("last item failed")
	_, err := Map(context.Background(), items, 3, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			time.Sleep(5 * time.Millisecond)
			return 0, wantErr
		}
		return n, nil
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}

func TestMap_BadLimit(t *testing.T) {
	for _, limit := range []int{0, -1} {
		_, err := Map(context.Background(), []int{1}, limit, func(_ context.Context, n int) (int, error) {
			return n, nil
		})
		if !errors.Is(err, ErrBadLimit) {
			t.Errorf("limit %d: expected ErrBadLimit, got %v", limit, err)
		}
	}
}

func TestMap_EmptyInput(t *testing.T) {
	out, err := Map(context.Background(), nil, 5, func(_ context.Context, n int) (int, error) {
		return n, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected empty output, got %d results", len(out))
	}
}

func TestMap_LimitLargerThanInput(t *testing.T) {
	out, err := Map(context.Background(), []int{1, 2}, 100, func(_ context.Context, n int) (int, error) {
		return n + 1, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0] != 2 || out[1] != 3 {
		t.Errorf("unexpected output: %v", out)
	}
}
