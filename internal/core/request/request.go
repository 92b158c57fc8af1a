// Package request holds the value types describing one HTTP request.
package request

import "maps"

// Data is the in-memory and persisted definition of one HTTP request.
type Data struct {
	Method  Method            `yaml:"method" json:"method"`
	URL     URL               `yaml:"url" json:"url"`
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Body    string            `yaml:"body,omitempty" json:"body,omitempty"`
}

// New creates request data for the given method and URL text.
func New(method Method, rawURL string) Data {
	return Data{
		Method:  method,
		URL:     ParseURL(rawURL),
		Headers: make(map[string]string),
	}
}

// SetHeader sets a header, replacing any previous value for the same key.
func (d *Data) SetHeader(key, value string) {
	if d.Headers == nil {
		d.Headers = make(map[string]string)
	}
	d.Headers[key] = value
}

// Clone returns a deep copy of d.
func (d Data) Clone() Data {
	d.URL = d.URL.Clone()
	d.Headers = maps.Clone(d.Headers)
	return d
}

// Equal reports structural equality. A nil and an empty header map are equal.
func (d Data) Equal(o Data) bool {
	return d.Method == o.Method &&
		d.Body == o.Body &&
		d.URL.Equal(o.URL) &&
		maps.Equal(d.Headers, o.Headers)
}
