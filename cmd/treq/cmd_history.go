package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sadopc/treq/internal/core/history"
	"github.com/sadopc/treq/internal/core/request"
)

func historyCmd(ctx context.Context, a *app, args []string) error {
	fs, g := a.newFlagSet("history", "treq history [flags]")
	limit := fs.Int("limit", 20, "Maximum number of entries")
	offset := fs.Int("offset", 0, "Skip this many of the most recent entries")
	search := fs.String("search", "", "Only entries whose URL contains this text")
	method := fs.String("method", "", "Only entries with this method")
	status := fs.String("status", "", "Only entries with this status: `CODE`, 4xx, or 200-299")
	since := fs.String("since", "", "Only entries newer than a duration ago (1h) or a date (2006-01-02, RFC 3339)")
	until := fs.String("until", "", "Only entries older than a duration ago or a date")
	asJSON := fs.Bool("json", false, "Print entries as JSON")
	count := fs.Bool("count", false, "Print the number of recorded entries")
	deleteID := fs.Int64("delete", 0, "Delete the entry with this `ID`")
	clearAll := fs.Bool("clear", false, "Delete all entries")
	positional, err := a.parse(fs, g, args)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return usageErrorf("history takes no arguments")
	}

	store, err := a.openHistory()
	if err != nil {
		return err
	}
	switch {
	case *clearAll:
		return store.Clear()
	case *deleteID != 0:
		return store.Delete(*deleteID)
	case *count:
		n, err := store.Count()
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, n)
		return nil
	}

	f := history.Filter{URLPattern: *search, Limit: *limit, Offset: *offset}
	if *method != "" {
		m, err := request.ParseMethod(*method)
		if err != nil {
			return usageErrorf("%v", err)
		}
		f.Method = m.String()
	}
	if f.StatusMin, f.StatusMax, err = parseStatusRange(*status); err != nil {
		return err
	}
	now := time.Now()
	if f.Since, err = parseTimeBound(*since, now); err != nil {
		return err
	}
	if f.Until, err = parseTimeBound(*until, now); err != nil {
		return err
	}
	entries, err := store.ListFiltered(f)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	for _, e := range entries {
		outcome := fmt.Sprintf("%d", e.StatusCode)
		if e.Error != "" {
			outcome = errorStyle.Render("failed")
		}
		m, _ := request.ParseMethod(e.Method)
		fmt.Fprintf(a.stdout, "%-5d %-16s %s %-6s %s %s\n",
			e.ID,
			humanize.Time(e.Timestamp),
			methodStyle(m).Render(fmt.Sprintf("%-6s", e.Method)),
			outcome,
			e.URL,
			dimStyle.Render(strings.TrimSpace(fmt.Sprintf("%s %s", e.Duration, humanize.Bytes(uint64(e.Size))))),
		)
	}
	return nil
}

// parseStatusRange reads "404", "4xx" or "400-499" into an inclusive range.
func parseStatusRange(s string) (lo, hi int, err error) {
	if s == "" {
		return 0, 0, nil
	}
	bad := usageErrorf("invalid status %q (use 404, 4xx or 400-499)", s)
	if len(s) == 3 && strings.HasSuffix(strings.ToLower(s), "xx") {
		d, err := strconv.Atoi(s[:1])
		if err != nil || d < 1 {
			return 0, 0, bad
		}
		return d * 100, d*100 + 99, nil
	}
	from, to, isRange := strings.Cut(s, "-")
	if lo, err = strconv.Atoi(from); err != nil {
		return 0, 0, bad
	}
	hi = lo
	if isRange {
		if hi, err = strconv.Atoi(to); err != nil || hi < lo {
			return 0, 0, bad
		}
	}
	return lo, hi, nil
}

// parseTimeBound reads a duration before now, an RFC 3339 time, or a local date.
func parseTimeBound(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return now.Add(-d), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, usageErrorf("invalid time %q (use a duration like 2h or a date)", s)
}
