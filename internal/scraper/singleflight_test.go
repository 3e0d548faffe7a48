package scraper

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDoScrape_SingleExecution(t *testing.T) {
	t.Parallel()
	wrapper := NewCacheWrapper()
	ctx := context.Background()

	var execCount atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			result, _, err := DoScrape(ctx, wrapper, "doc", func() (string, error) {
				execCount.Add(1)
				time.Sleep(50 * time.Millisecond)
				return "result", nil
			})
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if result != "result" {
				t.Errorf("Expected 'result', got %v", result)
			}
		})
	}
	wg.Wait()

	if n := execCount.Load(); n != 1 {
		t.Errorf("Expected function to execute once, but executed %d times", n)
	}
}

func TestDoScrape_ErrorPropagation(t *testing.T) {
	t.Parallel()
	wrapper := NewCacheWrapper()
	expected := errors.New("scrape failed")

	_, _, err := DoScrape(context.Background(), wrapper, "k", func() (int, error) {
		return 0, expected
	})
	if !errors.Is(err, expected) {
		t.Errorf("Expected %v, got %v", expected, err)
	}
}

func TestDoScrape_CanceledContext(t *testing.T) {
	t.Parallel()
	wrapper := NewCacheWrapper()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, _, err := DoScrape(ctx, wrapper, "k", func() (int, error) {
		called = true
		return 1, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if called {
		t.Error("fn should not run with a canceled context")
	}
}
