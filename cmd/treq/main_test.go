package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/treq/internal/core/errs"
)

// isolate points config and data at fresh directories and returns the
// saved request directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))
	return filepath.Join(home, "data", "treq", "v1", "collection", "http")
}

func treq(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errb bytes.Buffer
	code = run(context.Background(), args, &out, &errb)
	return code, out.String(), errb.String()
}

type seen struct {
	method string
	path   string
	query  string
	header http.Header
	body   string
}

func recordingServer(t *testing.T) (*httptest.Server, chan seen) {
	t.Helper()
	reqs := make(chan seen, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		reqs <- seen{r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Clone(), string(body)}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":7}`)
	}))
	t.Cleanup(srv.Close)
	return srv, reqs
}

func TestSendAndReplay(t *testing.T) {
	isolate(t)
	srv, reqs := recordingServer(t)

	code, out, stderr := treq(t, "POST", srv.URL+"/things", "X-Token:abc", "page==2", "name=widget", "count:=3", "--save-as", "thing")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, out, "201 Created")
	assert.Contains(t, out, `"id": 7`)

	got := <-reqs
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/things", got.path)
	assert.Equal(t, "page=2", got.query)
	assert.Equal(t, "abc", got.header.Get("X-Token"))
	assert.JSONEq(t, `{"name":"widget","count":3}`, got.body)

	code, out, stderr = treq(t, "run", "thing", "--body")
	require.Equal(t, exitOK, code, stderr)
	assert.Equal(t, "{\n  \"id\": 7\n}\n", out)
	assert.JSONEq(t, `{"name":"widget","count":3}`, (<-reqs).body)

	code, out, _ = treq(t, "ls")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "thing\n", out)

	code, out, _ = treq(t, "inspect", "thing")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "method: POST")

	code, out, _ = treq(t, "history", "--json")
	require.Equal(t, exitOK, code)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.Len(t, entries, 2)
}

func TestURLOnlyPicksMethod(t *testing.T) {
	isolate(t)
	srv, reqs := recordingServer(t)

	code, _, stderr := treq(t, srv.URL+"/a", "--no-history")
	require.Equal(t, exitOK, code, stderr)
	assert.Equal(t, http.MethodGet, (<-reqs).method)

	code, _, stderr = treq(t, srv.URL+"/a", "k=v", "--no-history")
	require.Equal(t, exitOK, code, stderr)
	assert.Equal(t, http.MethodPost, (<-reqs).method)
}

func TestEditRunSave(t *testing.T) {
	isolate(t)
	srv, reqs := recordingServer(t)

	code, _, stderr := treq(t, "GET", srv.URL+"/v1", "--save-as", "api", "--offline")
	require.Equal(t, exitOK, code, stderr)

	code, out, stderr := treq(t, "edit", "api", "--method", "put", "--url", srv.URL+"/v2", "Accept:text/plain")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, out, "/v2")

	code, _, stderr = treq(t, "run", "api", "q==1", "--save", "--no-history")
	require.Equal(t, exitOK, code, stderr)
	got := <-reqs
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/v2", got.path)
	assert.Equal(t, "q=1", got.query)
	assert.Equal(t, "text/plain", got.header.Get("Accept"))

	code, out, _ = treq(t, "inspect", "api", "--json")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, `"method": "PUT"`)
}

func TestImportCurl(t *testing.T) {
	isolate(t)
	srv, reqs := recordingServer(t)

	code, _, stderr := treq(t, "import", "create", "curl -X POST -H 'X-Api-Key: k1' --data-raw '{\"a\":1}' "+srv.URL+"/items")
	require.Equal(t, exitOK, code, stderr)

	code, out, _ := treq(t, "inspect", "create", "--curl")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "curl -X POST -H 'X-Api-Key: k1' --data-raw '{\"a\":1}' '"+srv.URL+"/items'\n", out)

	code, _, stderr = treq(t, "import", "split", "--", "curl", "-H", "Accept: text/plain", srv.URL+"/split")
	require.Equal(t, exitOK, code, stderr)

	code, _, stderr = treq(t, "run", "create", "--no-history")
	require.Equal(t, exitOK, code, stderr)
	got := <-reqs
	assert.Equal(t, "k1", got.header.Get("X-Api-Key"))
	assert.Equal(t, `{"a":1}`, got.body)

	code, _, _ = treq(t, "import", "broken", "curl -X")
	assert.Equal(t, exitUsage, code)
}

func TestRunSeveral(t *testing.T) {
	isolate(t)
	srv, _ := recordingServer(t)

	for _, name := range []string{"one", "two"} {
		code, _, stderr := treq(t, "GET", srv.URL+"/"+name, "--save-as", name, "--offline")
		require.Equal(t, exitOK, code, stderr)
	}

	code, out, stderr := treq(t, "run", "--all", "--output", "json", "--no-history")
	require.Equal(t, exitOK, code, stderr)
	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "one", results[0]["name"])
	assert.Equal(t, float64(201), results[1]["status_code"])

	code, _, _ = treq(t, "run", "one", "nope", "--no-history")
	assert.Equal(t, exitNotFound, code)
}

func TestRenameRemove(t *testing.T) {
	isolate(t)

	code, _, _ := treq(t, "GET", "http://api.test/", "--save-as", "users", "--offline")
	require.Equal(t, exitOK, code)

	code, _, _ = treq(t, "rename", "users", "all-users")
	require.Equal(t, exitOK, code)

	code, _, stderr := treq(t, "inspect", "users")
	assert.Equal(t, exitNotFound, code)
	assert.Contains(t, stderr, "did you mean all-users")

	code, _, _ = treq(t, "rename", "all-users", "../escape")
	assert.Equal(t, exitInvalidName, code)

	code, _, _ = treq(t, "remove", "all-users")
	assert.Equal(t, exitOK, code)
	code, _, _ = treq(t, "remove", "all-users")
	assert.Equal(t, exitNotFound, code)
}

func TestExitCodes(t *testing.T) {
	dir := isolate(t)

	code, _, _ := treq(t)
	assert.Equal(t, exitUsage, code)

	code, _, _ = treq(t, "run")
	assert.Equal(t, exitUsage, code)

	code, _, _ = treq(t, "ls", "--bogus")
	assert.Equal(t, exitUsage, code)

	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad"), []byte("method: [unterminated"), 0o644))
	code, _, _ = treq(t, "inspect", "bad")
	assert.Equal(t, exitCorrupt, code)
	_, err := os.Stat(filepath.Join(dir, "bad"))
	assert.NoError(t, err, "corrupt file is left in place")

	code, _, _ = treq(t, "GET", "http://127.0.0.1:1/", "--no-history")
	assert.Equal(t, exitTransport, code)

	code, out, _ := treq(t, "version")
	assert.Equal(t, exitOK, code)
	assert.True(t, strings.HasPrefix(out, "treq "))
}

func TestExitCodeMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{fmt.Errorf("x: %w", errs.ErrNotFound), exitNotFound},
		{errs.ErrCorruptData, exitCorrupt},
		{&errs.TransportError{Err: errors.New("refused")}, exitTransport},
		{errs.ErrInvalidName, exitInvalidName},
		{usageErrorf("bad"), exitUsage},
		{errors.New("other"), exitOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), fmt.Sprint(tt.err))
	}
}

func TestSuggest(t *testing.T) {
	names := []string{"get-users", "create-user", "health"}
	got := suggest("usr", names)
	require.NotEmpty(t, got)
	assert.NotContains(t, got, "health")
}

func TestRawBodyAndOverrides(t *testing.T) {
	isolate(t)
	srv, reqs := recordingServer(t)

	code, _, stderr := treq(t, "POST", srv.URL+"/form", "--raw", "a=1&b=2", "Content-Type:application/x-www-form-urlencoded", "--no-history")
	require.Equal(t, exitOK, code, stderr)
	got := <-reqs
	assert.Equal(t, "a=1&b=2", got.body)
	assert.Equal(t, "application/x-www-form-urlencoded", got.header.Get("Content-Type"))

	code, _, stderr = treq(t, srv.URL+"/xml", "--raw", "<note/>", "--no-history")
	require.Equal(t, exitOK, code, stderr)
	got = <-reqs
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "<note/>", got.body)

	code, _, stderr = treq(t, "GET", srv.URL+"/v1", "--save-as", "note", "--offline")
	require.Equal(t, exitOK, code, stderr)
	code, _, stderr = treq(t, "run", "note", "--raw", "plain text", "--method", "patch", "--url", srv.URL+"/v2", "--no-history")
	require.Equal(t, exitOK, code, stderr)
	got = <-reqs
	assert.Equal(t, http.MethodPatch, got.method)
	assert.Equal(t, "/v2", got.path)
	assert.Equal(t, "plain text", got.body)

	code, _, _ = treq(t, "POST", srv.URL+"/mixed", "--raw", "x", "a=b")
	assert.Equal(t, exitUsage, code)
	code, _, _ = treq(t, "run", "note", "other", "--raw", "x")
	assert.Equal(t, exitUsage, code)
	code, _, _ = treq(t, "run", "note", "--method", "BREW")
	assert.Equal(t, exitUsage, code)
}

func TestHistoryFiltersAndDelete(t *testing.T) {
	isolate(t)
	srv, _ := recordingServer(t)

	for _, path := range []string{"/a", "/b"} {
		code, _, stderr := treq(t, "GET", srv.URL+path)
		require.Equal(t, exitOK, code, stderr)
	}

	code, out, _ := treq(t, "history", "--count")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "2\n", out)

	listed := func(args ...string) []map[string]any {
		t.Helper()
		code, out, stderr := treq(t, append([]string{"history", "--json"}, args...)...)
		require.Equal(t, exitOK, code, stderr)
		var entries []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &entries))
		return entries
	}
	assert.Len(t, listed("--status", "2xx"), 2)
	assert.Len(t, listed("--status", "201"), 2)
	assert.Len(t, listed("--status", "400-599"), 0)
	assert.Len(t, listed("--since", "1h"), 2)
	assert.Len(t, listed("--until", "1h"), 0)
	assert.Len(t, listed("--offset", "1"), 1)

	code, _, _ = treq(t, "history", "--status", "teapot")
	assert.Equal(t, exitUsage, code)
	code, _, _ = treq(t, "history", "--since", "yesterday")
	assert.Equal(t, exitUsage, code)

	latest := listed()[0]
	id := fmt.Sprintf("%d", int64(latest["ID"].(float64)))
	code, _, stderr := treq(t, "history", "--delete", id)
	require.Equal(t, exitOK, code, stderr)
	code, out, _ = treq(t, "history", "--count")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "1\n", out)

	code, _, _ = treq(t, "history", "--delete", id)
	assert.Equal(t, exitNotFound, code)
}

func TestParseStatusRange(t *testing.T) {
	tests := []struct {
		in     string
		lo, hi int
	}{
		{"", 0, 0},
		{"404", 404, 404},
		{"4xx", 400, 499},
		{"5XX", 500, 599},
		{"200-299", 200, 299},
	}
	for _, tt := range tests {
		lo, hi, err := parseStatusRange(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, [2]int{tt.lo, tt.hi}, [2]int{lo, hi}, tt.in)
	}
	for _, in := range []string{"x", "0xx", "300-200", "2-"} {
		_, _, err := parseStatusRange(in)
		assert.Equal(t, exitUsage, exitCode(err), in)
	}
}
