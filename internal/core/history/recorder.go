package history

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/sadopc/treq/internal/core/request"
	"github.com/sadopc/treq/internal/logging"
	"github.com/sadopc/treq/internal/protocol"
)

// Recorder is a protocol.Transport that records every outcome of the wrapped
// transport. Recording failures are logged and never reach the submitter.
type Recorder struct {
	next  protocol.Transport
	store *Store
	log   *slog.Logger
	now   func() time.Time
}

// NewRecorder wraps next so its submissions are recorded into store.
func NewRecorder(next protocol.Transport, store *Store, log *slog.Logger) *Recorder {
	if log == nil {
		log = logging.Nop()
	}
	return &Recorder{next: next, store: store, log: log, now: time.Now}
}

// Submit implements protocol.Transport.
func (r *Recorder) Submit(req request.Data) *protocol.Completion {
	owned := req.Clone()
	started := r.now()
	inner := r.next.Submit(owned)
	return protocol.Go(func() (*protocol.Response, error) {
		resp, err := inner.Wait(context.Background())
		r.record(owned, started, resp, err)
		return resp, err
	})
}

func (r *Recorder) record(req request.Data, started time.Time, resp *protocol.Response, err error) {
	e := Entry{
		Method:      req.Method.String(),
		URL:         req.URL.String(),
		RequestBody: req.Body,
		Timestamp:   started,
	}
	if len(req.Headers) > 0 {
		if data, jerr := json.Marshal(req.Headers); jerr == nil {
			e.Headers = string(data)
		}
	}
	if resp != nil {
		e.StatusCode = resp.Status
		e.Duration = time.Duration(resp.ResponseTimeMs) * time.Millisecond
		e.Size = resp.Size()
		e.ResponseBody = resp.Body
	}
	if err != nil {
		e.Error = err.Error()
	}
	if _, aerr := r.store.Add(e); aerr != nil {
		r.log.Warn("recording history failed", "url", e.URL, "error", aerr)
	}
}
