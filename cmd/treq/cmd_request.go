package main

import (
	"context"
	"flag"

	"github.com/sadopc/treq/internal/core/request"
)

// buildFlags override parts of a request before its items are applied.
type buildFlags struct {
	raw    optionalString
	url    string
	method string
}

func (b *buildFlags) register(fs *flag.FlagSet) {
	fs.Var(&b.raw, "raw", "Use `BODY` verbatim as the request body")
	fs.StringVar(&b.url, "url", "", "Replace the URL")
	fs.StringVar(&b.method, "method", "", "Replace the method")
}

func (b *buildFlags) changed() bool {
	return b.raw.set || b.url != "" || b.method != ""
}

// apply overrides method, URL and body of d, then folds items into it.
func (b *buildFlags) apply(d *request.Data, items []item) error {
	if b.raw.set && hasBodyItems(items) {
		return usageErrorf("--raw cannot be combined with body items")
	}
	if b.method != "" {
		m, err := request.ParseMethod(b.method)
		if err != nil {
			return usageErrorf("%v", err)
		}
		d.Method = m
	}
	if b.url != "" {
		d.URL = request.ParseURL(b.url)
	}
	if b.raw.set {
		d.Body = b.raw.value
	}
	return applyItems(d, items)
}

// optionalString is a string flag that records whether it was given, so an
// explicit empty value can clear a field.
type optionalString struct {
	value string
	set   bool
}

func (o *optionalString) String() string {
	if o == nil {
		return ""
	}
	return o.value
}

func (o *optionalString) Set(s string) error {
	o.value, o.set = s, true
	return nil
}

// requestFlags are shared by the commands that send a request.
type requestFlags struct {
	build    buildFlags
	saveAs   string
	bodyOnly bool
	verbose  bool
	json     bool
	offline  bool
}

func (r *requestFlags) register(fs *flag.FlagSet) {
	r.build.register(fs)
	fs.StringVar(&r.saveAs, "save-as", "", "Save the request under NAME before sending")
	fs.BoolVar(&r.bodyOnly, "body", false, "Print only the response body")
	fs.BoolVar(&r.verbose, "verbose", false, "Print timing and size to stderr")
	fs.BoolVar(&r.json, "json", false, "Print the response as JSON")
	fs.BoolVar(&r.offline, "offline", false, "Print the request instead of sending it")
}

func (r *requestFlags) printOptions() printOptions {
	return printOptions{bodyOnly: r.bodyOnly, verbose: r.verbose, json: r.json}
}

// sendCmd handles "treq METHOD URL [items]".
func sendCmd(ctx context.Context, a *app, args []string) error {
	return send(ctx, a, args, true)
}

// urlCmd handles "treq URL [items]".
func urlCmd(ctx context.Context, a *app, args []string) error {
	return send(ctx, a, args, false)
}

func send(ctx context.Context, a *app, args []string, withMethod bool) error {
	fs, g := a.newFlagSet("send", "treq [METHOD] <url> [items] [flags]")
	rf := &requestFlags{}
	rf.register(fs)
	positional, err := a.parse(fs, g, args)
	if err != nil {
		return err
	}

	method := request.MethodGet
	if withMethod {
		if len(positional) == 0 {
			return usageErrorf("method is required")
		}
		if method, err = request.ParseMethod(positional[0]); err != nil {
			return usageErrorf("%v", err)
		}
		positional = positional[1:]
	}

	// --url stands in for the positional URL.
	var rawURL string
	if rf.build.url == "" {
		if len(positional) == 0 {
			return usageErrorf("url is required")
		}
		rawURL, positional = positional[0], positional[1:]
	}

	items, err := parseItems(positional)
	if err != nil {
		return err
	}
	if !withMethod && (hasBodyItems(items) || rf.build.raw.set) {
		method = request.MethodPost
	}

	d := request.New(method, rawURL)
	if err := rf.build.apply(&d, items); err != nil {
		return err
	}
	return submitAndPrint(ctx, a, d, rf)
}

// submitAndPrint optionally saves d, then sends it through the session.
func submitAndPrint(ctx context.Context, a *app, d request.Data, rf *requestFlags) error {
	sess, err := a.session()
	if err != nil {
		return err
	}
	if rf.saveAs != "" {
		if err := sess.SaveAs(ctx, rf.saveAs, d); err != nil {
			return err
		}
	}
	if rf.offline {
		printRequest(a.stdout, d)
		return nil
	}

	id, err := sess.Add(ctx, d)
	if err != nil {
		return err
	}
	resp, err := sess.SubmitByID(ctx, id)
	if err != nil {
		return err
	}
	return printResponse(a.stdout, a.stderr, resp, rf.printOptions())
}
