// Package runner submits saved requests headlessly, several at a time.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sadopc/treq/internal/core/request"
	"github.com/sadopc/treq/internal/logging"
	"github.com/sadopc/treq/internal/protocol"
)

// Session is the subset of session.Session the runner needs.
type Session interface {
	GetSaved(ctx context.Context, name string) (request.Data, error)
	Submit(ctx context.Context, d request.Data) (*protocol.Response, error)
}

// Runner executes saved requests by name.
type Runner struct {
	sess Session
	log  *slog.Logger
}

// Config holds runner configuration.
type Config struct {
	Names       []string
	Concurrency int           // parallel submissions, at least 1
	Timeout     time.Duration // per request wait, 0 waits forever
	Verbose     bool          // keep bodies and headers in results
}

// Result holds execution results for a single request.
type Result struct {
	Name        string            `json:"name"`
	Method      string            `json:"method"`
	URL         string            `json:"url"`
	StatusCode  int               `json:"status_code"`
	Status      string            `json:"status"`
	Duration    time.Duration     `json:"duration"`
	Size        int64             `json:"size"`
	Error       error             `json:"-"`
	ErrorString string            `json:"error,omitempty"`
	Body        string            `json:"body,omitempty"`
	Headers     []protocol.Header `json:"headers,omitempty"`
}

// New creates a runner over sess.
func New(sess Session, log *slog.Logger) *Runner {
	if log == nil {
		log = logging.Nop()
	}
	return &Runner{sess: sess, log: log}
}

// Run executes the configured requests and returns results in the order
// the names were given. Per request failures land in Result.Error; the
// returned error is only set when nothing could be run.
func (r *Runner) Run(ctx context.Context, cfg Config) ([]Result, error) {
	if len(cfg.Names) == 0 {
		return nil, errors.New("no requests to run")
	}
	limit := cfg.Concurrency
	if limit < 1 {
		limit = 1
	}

	results := make([]Result, len(cfg.Names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, name := range cfg.Names {
		g.Go(func() error {
			results[i] = r.execute(gctx, name, cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) execute(ctx context.Context, name string, cfg Config) Result {
	result := Result{Name: name}

	d, err := r.sess.GetSaved(ctx, name)
	if err != nil {
		return result.fail(err)
	}
	result.Method = d.Method.String()
	result.URL = d.URL.String()

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := r.sess.Submit(ctx, d)
	if err != nil {
		result.Duration = time.Since(start)
		return result.fail(err)
	}
	r.log.Debug("ran saved request", "component", "runner", "name", name, "status", resp.Status)

	result.StatusCode = resp.Status
	result.Status = fmt.Sprintf("%d %s", resp.Status, http.StatusText(resp.Status))
	result.Duration = time.Duration(resp.ResponseTimeMs) * time.Millisecond
	result.Size = resp.Size()
	if cfg.Verbose {
		result.Body = resp.Body
		result.Headers = resp.Headers
	}
	return result
}

func (r Result) fail(err error) Result {
	r.Error = err
	r.ErrorString = err.Error()
	return r
}

// FirstError returns the first failed result's error in input order.
func FirstError(results []Result) error {
	for _, r := range results {
		if r.Error != nil {
			return fmt.Errorf("%s: %w", r.Name, r.Error)
		}
	}
	return nil
}
