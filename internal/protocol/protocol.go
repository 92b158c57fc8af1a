// Package protocol defines the transport contract used to submit requests and
// the normalized response every transport produces.
package protocol

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sadopc/treq/internal/core/request"
)

// Transport dispatches a request in the background. The returned completion
// resolves exactly once, whether or not anyone waits for it.
type Transport interface {
	Submit(req request.Data) *Completion
}

// TransportFunc adapts a synchronous function into a Transport. Each call runs
// on its own goroutine.
type TransportFunc func(req request.Data) (*Response, error)

// Submit implements Transport.
func (f TransportFunc) Submit(req request.Data) *Completion {
	owned := req.Clone()
	return Go(func() (*Response, error) { return f(owned) })
}

// Stage marks where a response is in its lifecycle.
type Stage int

const (
	StagePending Stage = iota
	StageFinished
	StageFailed
)

var stageNames = [...]string{"pending", "finished", "failed"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Header is one response header line.
type Header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// TimingDetail breaks down where the time of a request went.
type TimingDetail struct {
	DNSLookup    time.Duration `json:"dns_lookup"`
	TCPConnect   time.Duration `json:"tcp_connect"`
	TLSHandshake time.Duration `json:"tls_handshake"`
	TTFB         time.Duration `json:"ttfb"`
	Transfer     time.Duration `json:"transfer"`
	Total        time.Duration `json:"total"`
}

// Response is the normalized result of one submission. Headers are sorted
// ascending by key; values sharing a key keep wire order.
type Response struct {
	Status         int           `json:"status"`
	Body           string        `json:"body"`
	Headers        []Header      `json:"headers"`
	ResponseTimeMs int64         `json:"response_time_ms"`
	Stage          Stage         `json:"stage"`
	Proto          string        `json:"proto,omitempty"`
	Timing         *TimingDetail `json:"timing,omitempty"`
}

// Header returns the first value for key, compared case-insensitively.
func (r *Response) Header(key string) (string, bool) {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Key, key) {
			return h.Value, true
		}
	}
	return "", false
}

// Size returns the body length in bytes.
func (r *Response) Size() int64 {
	return int64(len(r.Body))
}

// SortHeaders stable-sorts headers ascending by key in place and returns them.
func SortHeaders(headers []Header) []Header {
	sort.SliceStable(headers, func(i, j int) bool {
		return headers[i].Key < headers[j].Key
	})
	return headers
}
