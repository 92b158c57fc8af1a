package protocol

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sadopc/treq/internal/core/request"
)

func TestGoResolvesWithResult(t *testing.T) {
	c := Go(func() (*Response, error) {
		return &Response{Status: 200, Body: "ok", Stage: StageFinished}, nil
	})
	resp, err := c.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if resp.Status != 200 || resp.Body != "ok" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestGoResolvesWithError(t *testing.T) {
	boom := errors.New("boom")
	resp, err := Go(func() (*Response, error) { return nil, boom }).Wait(context.Background())
	if !errors.Is(err, boom) || resp != nil {
		t.Fatalf("got %v, %v", resp, err)
	}
}

func TestGoRecoversPanic(t *testing.T) {
	_, err := Go(func() (*Response, error) { panic("bad transport") }).Wait(context.Background())
	if err == nil {
		t.Fatal("expected error from panicking producer")
	}
}

func TestGoRejectsEmptyOutcome(t *testing.T) {
	_, err := Go(func() (*Response, error) { return nil, nil }).Wait(context.Background())
	if err == nil {
		t.Fatal("expected error when producer returns nothing")
	}
}

func TestWaitConcurrentCallersSeeSameOutcome(t *testing.T) {
	release := make(chan struct{})
	c := Go(func() (*Response, error) {
		<-release
		return &Response{Status: 201}, nil
	})

	var wg sync.WaitGroup
	results := make([]*Response, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.Wait(context.Background())
		}(i)
	}
	close(release)
	wg.Wait()

	for i, r := range results {
		if r == nil || r != results[0] {
			t.Fatalf("waiter %d saw %v, want %v", i, r, results[0])
		}
	}
}

func TestWaitHonorsContextWithoutCancellingWork(t *testing.T) {
	release := make(chan struct{})
	var finished atomic.Bool
	c := Go(func() (*Response, error) {
		<-release
		finished.Store(true)
		return &Response{Status: 200}, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := c.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}

	close(release)
	resp, err := c.Wait(context.Background())
	if err != nil || resp.Status != 200 || !finished.Load() {
		t.Fatalf("work should finish after an abandoned wait: %v, %v", resp, err)
	}
}

func TestAbandonedCompletionDoesNotBlockProducer(t *testing.T) {
	done := make(chan struct{})
	_ = Go(func() (*Response, error) {
		defer close(done)
		return &Response{Status: 200}, nil
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("producer blocked on an unobserved handle")
	}
}

func TestTransportFuncOwnsCopy(t *testing.T) {
	release := make(chan struct{})
	seen := make(chan string, 1)
	tr := TransportFunc(func(req request.Data) (*Response, error) {
		<-release
		seen <- req.Headers["X"]
		return &Response{Status: 200}, nil
	})

	req := request.New(request.MethodGet, "http://x")
	req.SetHeader("X", "original")
	c := tr.Submit(req)
	req.Headers["X"] = "mutated"
	close(release)

	if _, err := c.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := <-seen; got != "original" {
		t.Fatalf("transport saw %q, want original", got)
	}
}

func TestSortHeadersStable(t *testing.T) {
	h := SortHeaders([]Header{
		{"b", "1"}, {"a", "1"}, {"b", "2"}, {"a", "2"}, {"c", "1"},
	})
	want := []Header{{"a", "1"}, {"a", "2"}, {"b", "1"}, {"b", "2"}, {"c", "1"}}
	for i := range want {
		if h[i] != want[i] {
			t.Fatalf("SortHeaders = %v, want %v", h, want)
		}
	}
}

func TestResolved(t *testing.T) {
	resp, err := Resolved(&Response{Status: 418}, nil).Wait(context.Background())
	if err != nil || resp.Status != 418 {
		t.Fatalf("got %v, %v", resp, err)
	}
}
