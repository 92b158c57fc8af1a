package request

import (
	"fmt"
	"strings"
)

// Method is an HTTP verb supported by the request store.
type Method int

const (
	MethodGet Method = iota
	MethodPost
	MethodPut
	MethodDelete
	MethodHead
	MethodPatch
)

var methodNames = [...]string{
	MethodGet:    "GET",
	MethodPost:   "POST",
	MethodPut:    "PUT",
	MethodDelete: "DELETE",
	MethodHead:   "HEAD",
	MethodPatch:  "PATCH",
}

// Methods returns every supported method in declaration order.
func Methods() []Method {
	return []Method{MethodGet, MethodPost, MethodPut, MethodDelete, MethodHead, MethodPatch}
}

// ParseMethod parses a verb case-insensitively.
func ParseMethod(s string) (Method, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for m, name := range methodNames {
		if name == upper {
			return Method(m), nil
		}
	}
	return MethodGet, fmt.Errorf("unsupported method %q", s)
}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodNames[m]
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	if m < 0 || int(m) >= len(methodNames) {
		return nil, fmt.Errorf("unsupported method %d", int(m))
	}
	return []byte(methodNames[m]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
