package curl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/treq/internal/core/request"
)

func TestFormat(t *testing.T) {
	d := request.New(request.MethodPost, "https://api.example.com/users")
	d.SetHeader("Content-Type", "application/json")
	d.SetHeader("Accept", "*/*")
	d.Body = `{"name":"it's"}`

	got := Format(d)
	want := `curl -X POST -H 'Accept: */*' -H 'Content-Type: application/json' --data-raw '{"name":"it'\''s"}' 'https://api.example.com/users'`
	assert.Equal(t, want, got)
}

func TestFormatGetDropsBodyAndDefaultsProtocol(t *testing.T) {
	d := request.New(request.MethodGet, "localhost:8080/health")
	d.Body = "ignored"

	assert.Equal(t, `curl 'http://localhost:8080/health'`, Format(d))
}

func TestParse(t *testing.T) {
	d, err := Parse(`curl -X PUT -H 'Content-Type: application/json' -H "X-Trace:  abc " --data-raw '{"a":1}' https://api.example.com/items/1`)
	require.NoError(t, err)

	assert.Equal(t, request.MethodPut, d.Method)
	assert.Equal(t, "https://api.example.com/items/1", d.URL.String())
	assert.Equal(t, map[string]string{"Content-Type": "application/json", "X-Trace": "abc"}, d.Headers)
	assert.Equal(t, `{"a":1}`, d.Body)
}

func TestParseImplicitMethods(t *testing.T) {
	d, err := Parse(`curl -d 'x=1' https://example.com`)
	require.NoError(t, err)
	assert.Equal(t, request.MethodPost, d.Method)

	d, err = Parse(`curl -I https://example.com`)
	require.NoError(t, err)
	assert.Equal(t, request.MethodHead, d.Method)

	d, err = Parse(`curl -G -d 'q=go' -d 'page=2' https://example.com/search`)
	require.NoError(t, err)
	assert.Equal(t, request.MethodGet, d.Method)
	assert.Empty(t, d.Body)
	assert.Equal(t, "https://example.com/search?page=2&q=go", d.URL.String())
}

func TestParseAuthAndSkippedFlags(t *testing.T) {
	d, err := Parse("curl \\\n  -u admin:secret \\\n  -s -k -L -o out.txt --max-time 5 \\\n  --url https://example.com/private")
	require.NoError(t, err)
	assert.Equal(t, "Basic YWRtaW46c2VjcmV0", d.Headers["Authorization"])
	assert.Equal(t, "https://example.com/private", d.URL.String())
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{"", "curl", "curl -H 'Accept: */*'", "curl -X OPTIONS https://example.com"} {
		_, err := Parse(input)
		assert.Error(t, err, input)
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	d := request.New(request.MethodPatch, "https://api.example.com/users/1?fields=name")
	d.SetHeader("Authorization", "Bearer t0k'en")
	d.Body = "line one\nline 'two'"

	got, err := Parse(Format(d))
	require.NoError(t, err)
	assert.True(t, d.Equal(got), "got %#v", got)
}

func TestTokenize(t *testing.T) {
	got := tokenize(`curl -H "A: \"b\"" '' 'it'\''s' x\ y`)
	assert.Equal(t, []string{"curl", "-H", `A: "b"`, "", "it's", "x y"}, got)
}
