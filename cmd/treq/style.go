package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/sadopc/treq/internal/core/request"
	"github.com/sadopc/treq/internal/protocol"
	"github.com/sadopc/treq/internal/runner"
)

var (
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	dimStyle    = lipgloss.NewStyle().Faint(true)

	statusStyles = map[int]lipgloss.Style{
		2: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		3: lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		4: lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		5: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}

	methodColors = map[request.Method]lipgloss.Color{
		request.MethodGet:    "10",
		request.MethodPost:   "11",
		request.MethodPut:    "12",
		request.MethodDelete: "9",
		request.MethodHead:   "13",
		request.MethodPatch:  "14",
	}
)

func methodStyle(m request.Method) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(methodColors[m]).Bold(true)
}

func statusLine(resp *protocol.Response) string {
	proto := resp.Proto
	if proto == "" {
		proto = "HTTP/1.1"
	}
	line := fmt.Sprintf("%s %d %s", proto, resp.Status, http.StatusText(resp.Status))
	if st, ok := statusStyles[resp.Status/100]; ok {
		return st.Render(line)
	}
	return line
}

type printOptions struct {
	bodyOnly bool
	verbose  bool
	json     bool
}

// printResponse writes resp to w; timing goes to meta so piped bodies stay clean.
func printResponse(w, meta io.Writer, resp *protocol.Response, opts printOptions) error {
	if opts.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if !opts.bodyOnly {
		fmt.Fprintln(w, statusLine(resp))
		for _, h := range resp.Headers {
			fmt.Fprintf(w, "%s: %s\n", headerStyle.Render(h.Key), h.Value)
		}
		if resp.Body != "" {
			fmt.Fprintln(w)
		}
	}
	writeBody(w, resp.Body)

	if opts.verbose {
		fmt.Fprintln(meta, dimStyle.Render(fmt.Sprintf("%dms, %s", resp.ResponseTimeMs, humanize.Bytes(uint64(resp.Size())))))
		if t := resp.Timing; t != nil {
			fmt.Fprintln(meta, dimStyle.Render(fmt.Sprintf("dns %s, connect %s, tls %s, ttfb %s, transfer %s",
				t.DNSLookup, t.TCPConnect, t.TLSHandshake, t.TTFB, t.Transfer)))
		}
	}
	return nil
}

// printRequest writes d the way it would go on the wire.
func printRequest(w io.Writer, d request.Data) {
	fmt.Fprintf(w, "%s %s\n", methodStyle(d.Method).Render(d.Method.String()), d.URL.String())
	for _, k := range sortedKeys(d.Headers) {
		fmt.Fprintf(w, "%s: %s\n", headerStyle.Render(k), d.Headers[k])
	}
	if d.Body != "" && d.Method != request.MethodGet {
		fmt.Fprintln(w)
		writeBody(w, d.Body)
	}
}

func writeBody(w io.Writer, body string) {
	if body == "" {
		return
	}
	body = runner.FormatBody(body)
	fmt.Fprint(w, body)
	if !strings.HasSuffix(body, "\n") {
		fmt.Fprintln(w)
	}
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
