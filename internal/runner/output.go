package runner

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/tidwall/pretty"
)

// PrintText outputs results in human-readable format.
func PrintText(w io.Writer, results []Result, verbose bool) {
	totalErrors := 0
	totalHTTPFailures := 0

	for _, r := range results {
		icon := "\u2713" // checkmark
		if r.Error != nil || r.StatusCode >= 400 {
			icon = "\u2717" // x mark
		}

		sizeStr := humanize.Bytes(uint64(r.Size))
		durationStr := formatDuration(r.Duration)

		if r.Error != nil {
			totalErrors++
			fmt.Fprintf(w, "%s %-20s %-6s %-40s  %s\n",
				icon, truncate(r.Name, 20), r.Method, truncate(r.URL, 40), durationStr)
			fmt.Fprintf(w, "  \u2514 Error: %s\n", r.Error)
			continue
		}
		if r.StatusCode >= 400 {
			totalHTTPFailures++
		}
		fmt.Fprintf(w, "%s %-20s %-6s %-40s  %s  %s  %s\n",
			icon, truncate(r.Name, 20), r.Method, truncate(r.URL, 40),
			r.Status, durationStr, sizeStr)

		if verbose {
			for _, h := range r.Headers {
				fmt.Fprintf(w, "  %s: %s\n", h.Key, h.Value)
			}
		}
		if verbose && r.Body != "" {
			fmt.Fprintf(w, "  --- Response Body ---\n")
			for _, line := range strings.Split(strings.TrimRight(FormatBody(r.Body), "\n"), "\n") {
				fmt.Fprintf(w, "  %s\n", line)
			}
			fmt.Fprintf(w, "  ---------------------\n")
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Requests: %d total, %d errors, %d HTTP failures\n", len(results), totalErrors, totalHTTPFailures)
}

// FormatBody pretty prints JSON bodies and returns anything else unchanged.
func FormatBody(body string) string {
	if !json.Valid([]byte(body)) {
		return body
	}
	return string(pretty.Pretty([]byte(body)))
}

// PrintJSON outputs results as JSON.
func PrintJSON(w io.Writer, results []Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// JUnit report layout: one suite per run, one case per saved request.
type junitReport struct {
	XMLName xml.Name   `xml:"testsuites"`
	Suite   junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name     string      `xml:"name,attr"`
	Tests    int         `xml:"tests,attr"`
	Failures int         `xml:"failures,attr"`
	Errors   int         `xml:"errors,attr"`
	Time     float64     `xml:"time,attr"`
	Cases    []junitCase `xml:"testcase"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *junitProblem `xml:"failure,omitempty"`
	Error     *junitProblem `xml:"error,omitempty"`
}

type junitProblem struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
}

// PrintJUnit outputs results as JUnit XML for CI. Transport and lookup
// failures are errors; HTTP statuses of 400 and above are failures.
func PrintJUnit(w io.Writer, results []Result) error {
	suite := junitSuite{Name: "treq", Tests: len(results)}
	for _, r := range results {
		c := junitCase{
			Name:      r.Name,
			ClassName: strings.TrimSpace(r.Method + " " + r.URL),
			Time:      r.Duration.Seconds(),
		}
		switch {
		case r.Error != nil:
			suite.Errors++
			c.Error = &junitProblem{Message: r.Error.Error(), Type: "RequestError"}
		case r.StatusCode >= 400:
			suite.Failures++
			c.Failure = &junitProblem{Message: r.Status, Type: "HTTPError"}
		}
		suite.Time += c.Time
		suite.Cases = append(suite.Cases, c)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(junitReport{Suite: suite}); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%d\u00b5s", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
