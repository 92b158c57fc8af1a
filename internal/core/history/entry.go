package history

import "time"

// Entry represents a single submission.
type Entry struct {
	ID           int64
	Method       string
	URL          string
	StatusCode   int
	Duration     time.Duration
	Size         int64
	RequestBody  string
	ResponseBody string
	Headers      string // JSON-encoded request headers
	Error        string
	Timestamp    time.Time
}

// Filter narrows ListFiltered. Zero fields are ignored; Limit defaults to 50.
type Filter struct {
	Method     string
	StatusCode int
	StatusMin  int
	StatusMax  int
	URLPattern string
	Since      time.Time
	Until      time.Time
	Limit      int
	Offset     int
}
