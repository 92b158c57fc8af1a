package request

import (
	"net/url"
	"strconv"
	"strings"
)

// URL is either raw, unvalidated text or a validated set of components.
// A validated URL always has a non-empty Host; Raw is only meaningful
// when Host is empty. Query is the text after '?' exactly as written.
type URL struct {
	Raw      string `yaml:"raw,omitempty" json:"raw,omitempty"`
	Protocol string `yaml:"protocol,omitempty" json:"protocol,omitempty"`
	Host     string `yaml:"host,omitempty" json:"host,omitempty"`
	Port     int    `yaml:"port,omitempty" json:"port,omitempty"`
	Path     string `yaml:"path,omitempty" json:"path,omitempty"`
	Query    string `yaml:"query,omitempty" json:"query,omitempty"`
	Fragment string `yaml:"fragment,omitempty" json:"fragment,omitempty"`
}

// RawURL wraps text without validating it.
func RawURL(s string) URL {
	return URL{Raw: s}
}

// ParseURL splits s into [protocol://]host[:port][/path][?query][#fragment].
// Text that does not fit that shape is kept as a raw URL.
func ParseURL(s string) URL {
	rest := strings.TrimSpace(s)
	if rest == "" || strings.ContainsAny(rest, " \t\r\n") {
		return RawURL(s)
	}

	var u URL
	if i := strings.Index(rest, "://"); i >= 0 {
		scheme := rest[:i]
		if !validScheme(scheme) {
			return RawURL(s)
		}
		u.Protocol = strings.ToLower(scheme)
		rest = rest[i+3:]
	}
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		u.Fragment = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		u.Query = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		u.Path = rest[i:]
		rest = rest[:i]
	}
	if strings.Contains(rest, "@") {
		return RawURL(s)
	}

	host := rest
	if i := strings.LastIndexByte(host, ':'); i >= 0 && !strings.Contains(host[i:], "]") {
		port, err := strconv.Atoi(host[i+1:])
		if err != nil || port < 1 || port > 65535 {
			return RawURL(s)
		}
		u.Port = port
		host = host[:i]
	}
	if host == "" {
		return RawURL(s)
	}
	u.Host = host
	return u
}

func validScheme(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// Validated reports whether u holds parsed components rather than raw text.
func (u URL) Validated() bool {
	return u.Host != ""
}

// WithDefaultProtocol returns a copy of u with protocol set to p when u is
// validated and has none. Raw URLs are returned untouched.
func (u URL) WithDefaultProtocol(p string) URL {
	if !u.Validated() || u.Protocol != "" {
		return u
	}
	out := u.Clone()
	out.Protocol = p
	return out
}

// AddQuery appends an escaped query parameter, converting a raw URL first
// when possible. Existing query text is kept as written.
func (u *URL) AddQuery(key, value string) {
	if !u.Validated() {
		parsed := ParseURL(u.Raw)
		if !parsed.Validated() {
			sep := "?"
			if strings.Contains(u.Raw, "?") {
				sep = "&"
			}
			u.Raw += sep + url.QueryEscape(key) + "=" + url.QueryEscape(value)
			return
		}
		*u = parsed
	}
	if u.Query != "" {
		u.Query += "&"
	}
	u.Query += url.QueryEscape(key) + "=" + url.QueryEscape(value)
}

// Clone returns a copy of u.
func (u URL) Clone() URL {
	return u
}

// Equal reports whether u and o describe the same URL.
func (u URL) Equal(o URL) bool {
	return u.Raw == o.Raw &&
		u.Protocol == o.Protocol &&
		u.Host == o.Host &&
		u.Port == o.Port &&
		u.Path == o.Path &&
		u.Fragment == o.Fragment &&
		u.Query == o.Query
}

func (u URL) String() string {
	if !u.Validated() {
		return u.Raw
	}
	var sb strings.Builder
	if u.Protocol != "" {
		sb.WriteString(u.Protocol)
		sb.WriteString("://")
	}
	sb.WriteString(u.Host)
	if u.Port != 0 {
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(u.Port))
	}
	sb.WriteString(u.Path)
	if u.Query != "" {
		sb.WriteByte('?')
		sb.WriteString(u.Query)
	}
	if u.Fragment != "" {
		sb.WriteByte('#')
		sb.WriteString(u.Fragment)
	}
	return sb.String()
}
