// Package curl converts between request data and curl command lines.
package curl

import (
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/sadopc/treq/internal/core/request"
)

// Format renders d as a single-line curl command. A GET never carries a body.
func Format(d request.Data) string {
	parts := []string{"curl"}

	switch d.Method {
	case request.MethodGet:
	case request.MethodHead:
		parts = append(parts, "-I")
	default:
		parts = append(parts, "-X", d.Method.String())
	}

	for _, k := range sortedKeys(d.Headers) {
		parts = append(parts, "-H", quote(k+": "+d.Headers[k]))
	}

	if d.Body != "" && d.Method != request.MethodGet {
		parts = append(parts, "--data-raw", quote(d.Body))
	}

	parts = append(parts, quote(d.URL.WithDefaultProtocol("http").String()))
	return strings.Join(parts, " ")
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}

// quote wraps s in single quotes for a POSIX shell.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Parse reads a curl command line into request data. Flags that do not
// describe the request itself are skipped.
func Parse(input string) (request.Data, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return request.Data{}, errors.New("empty input")
	}

	input = strings.ReplaceAll(input, "\\\r\n", " ")
	input = strings.ReplaceAll(input, "\\\n", " ")

	return ParseArgs(tokenize(input))
}

// ParseArgs is Parse for a command line that is already split into words.
func ParseArgs(args []string) (request.Data, error) {
	if len(args) > 0 && strings.EqualFold(args[0], "curl") {
		args = args[1:]
	}

	var (
		method  string
		rawURL  string
		data    []string
		asQuery bool
		headers = map[string]string{}
	)

	for i := 0; i < len(args); i++ {
		arg := args[i]
		value := func() (string, bool) {
			if i+1 < len(args) {
				i++
				return args[i], true
			}
			return "", false
		}

		switch arg {
		case "-X", "--request":
			if v, ok := value(); ok {
				method = v
			}
		case "-H", "--header":
			if v, ok := value(); ok {
				if k, hv, ok := strings.Cut(v, ":"); ok && strings.TrimSpace(k) != "" {
					headers[strings.TrimSpace(k)] = strings.TrimSpace(hv)
				}
			}
		case "-d", "--data", "--data-raw", "--data-binary", "--data-ascii", "--data-urlencode":
			if v, ok := value(); ok {
				data = append(data, v)
			}
		case "--json":
			if v, ok := value(); ok {
				data = append(data, v)
				headers["Content-Type"] = "application/json"
				headers["Accept"] = "application/json"
			}
		case "-u", "--user":
			if v, ok := value(); ok {
				headers["Authorization"] = "Basic " + base64.StdEncoding.EncodeToString([]byte(v))
			}
		case "-A", "--user-agent":
			if v, ok := value(); ok {
				headers["User-Agent"] = v
			}
		case "-e", "--referer":
			if v, ok := value(); ok {
				headers["Referer"] = v
			}
		case "-b", "--cookie":
			if v, ok := value(); ok {
				headers["Cookie"] = v
			}
		case "--url":
			if v, ok := value(); ok {
				rawURL = v
			}
		case "-I", "--head":
			method = "HEAD"
		case "-G", "--get":
			asQuery = true
		case "-o", "--output", "-m", "--max-time", "--connect-timeout", "-x", "--proxy", "-w", "--write-out":
			value()
		default:
			if !strings.HasPrefix(arg, "-") && rawURL == "" {
				rawURL = arg
			}
		}
	}

	if rawURL == "" {
		return request.Data{}, errors.New("no URL found in curl command")
	}

	body := strings.Join(data, "&")
	switch {
	case method != "":
	case asQuery:
		method = "GET"
	case body != "":
		method = "POST"
	default:
		method = "GET"
	}
	m, err := request.ParseMethod(method)
	if err != nil {
		return request.Data{}, fmt.Errorf("curl command: %w", err)
	}

	d := request.New(m, rawURL)
	d.Headers = headers
	if asQuery && body != "" {
		q, err := url.ParseQuery(body)
		if err != nil {
			return request.Data{}, fmt.Errorf("curl -G data: %w", err)
		}
		for _, k := range slices.Sorted(maps.Keys(q)) {
			for _, v := range q[k] {
				d.URL.AddQuery(k, v)
			}
		}
		body = ""
	}
	d.Body = body
	return d, nil
}

// tokenize splits a shell command into words, honoring quotes and backslashes.
func tokenize(input string) []string {
	var tokens []string
	var current strings.Builder
	inSingle, inDouble, escaped, inWord := false, false, false, false

	for _, r := range input {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && !inSingle:
			escaped = true
			inWord = true
		case r == '\'' && !inDouble:
			inSingle = !inSingle
			inWord = true
		case r == '"' && !inSingle:
			inDouble = !inDouble
			inWord = true
		case (r == ' ' || r == '\t' || r == '\n') && !inSingle && !inDouble:
			if inWord {
				tokens = append(tokens, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}
	if inWord {
		tokens = append(tokens, current.String())
	}
	return tokens
}
