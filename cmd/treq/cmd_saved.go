package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/sadopc/treq/internal/core/collection"
	"github.com/sadopc/treq/internal/core/errs"
	"github.com/sadopc/treq/internal/core/request"
	"github.com/sadopc/treq/internal/curl"
	"github.com/sadopc/treq/internal/runner"
	"github.com/sadopc/treq/internal/session"
)

func runCmd(ctx context.Context, a *app, args []string) error {
	fs, g := a.newFlagSet("run", "treq run <name>... [items] [flags]")
	rf := &requestFlags{}
	rf.register(fs)
	save := fs.Bool("save", false, "Write item changes back to the saved request")
	all := fs.Bool("all", false, "Run every saved request")
	output := fs.String("output", "text", "Output format when running several requests: text, json, junit")
	positional, err := a.parse(fs, g, args)
	if err != nil {
		return err
	}

	var names, itemArgs []string
	for _, p := range positional {
		if isItem(p) {
			itemArgs = append(itemArgs, p)
		} else {
			names = append(names, p)
		}
	}

	sess, err := a.session()
	if err != nil {
		return err
	}
	if *all {
		if names, err = sess.ListSaved(ctx); err != nil {
			return err
		}
		if len(names) == 0 {
			return fmt.Errorf("no saved requests: %w", errs.ErrNotFound)
		}
	}

	switch {
	case len(names) == 0:
		return usageErrorf("saved request name is required")
	case len(names) == 1 && !*all:
		d, err := a.loadSaved(ctx, sess, names[0])
		if err != nil {
			return err
		}
		items, err := parseItems(itemArgs)
		if err != nil {
			return err
		}
		if err := rf.build.apply(&d, items); err != nil {
			return err
		}
		if *save {
			if err := sess.SaveAs(ctx, names[0], d); err != nil {
				return err
			}
		}
		return submitAndPrint(ctx, a, d, rf)
	case len(itemArgs) > 0 || rf.build.changed():
		return usageErrorf("request items and overrides apply to a single saved request")
	}

	switch *output {
	case "text", "json", "junit":
	default:
		return usageErrorf("invalid output format %q (must be text, json, or junit)", *output)
	}

	results, err := runner.New(sess, a.log).Run(ctx, runner.Config{
		Names:       names,
		Concurrency: a.cfg.Concurrency,
		Timeout:     a.cfg.DefaultTimeout,
		Verbose:     rf.verbose,
	})
	if err != nil {
		return err
	}
	switch *output {
	case "json":
		err = runner.PrintJSON(a.stdout, results)
	case "junit":
		err = runner.PrintJUnit(a.stdout, results)
	default:
		runner.PrintText(a.stdout, results, rf.verbose)
	}
	if err != nil {
		return err
	}
	return runner.FirstError(results)
}

func lsCmd(ctx context.Context, a *app, args []string) error {
	fs, g := a.newFlagSet("ls", "treq ls [pattern] [flags]")
	long := fs.Bool("long", false, "Show method and URL")
	positional, err := a.parse(fs, g, args)
	if err != nil {
		return err
	}
	if len(positional) > 1 {
		return usageErrorf("ls takes at most one pattern")
	}

	sess, err := a.session()
	if err != nil {
		return err
	}
	names, err := sess.ListSaved(ctx)
	if err != nil {
		return err
	}
	if len(positional) == 1 {
		matches := fuzzy.Find(positional[0], names)
		names = make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, m.Str)
		}
	}

	for _, name := range names {
		if !*long {
			fmt.Fprintln(a.stdout, name)
			continue
		}
		d, err := sess.GetSaved(ctx, name)
		if err != nil {
			fmt.Fprintf(a.stdout, "%-24s %s\n", name, errorStyle.Render(errs.Kind(err)))
			continue
		}
		fmt.Fprintf(a.stdout, "%-24s %s %s\n", name,
			methodStyle(d.Method).Render(fmt.Sprintf("%-6s", d.Method)), d.URL.String())
	}
	return nil
}

func inspectCmd(ctx context.Context, a *app, args []string) error {
	fs, g := a.newFlagSet("inspect", "treq inspect <name> [flags]")
	asJSON := fs.Bool("json", false, "Print as JSON instead of YAML")
	asCurl := fs.Bool("curl", false, "Print as a curl command")
	positional, err := a.parse(fs, g, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return usageErrorf("inspect takes exactly one saved request name")
	}

	sess, err := a.session()
	if err != nil {
		return err
	}
	d, err := a.loadSaved(ctx, sess, positional[0])
	if err != nil {
		return err
	}

	var data []byte
	switch {
	case *asCurl:
		data = []byte(curl.Format(d) + "\n")
	case *asJSON:
		data, err = json.MarshalIndent(d, "", "  ")
		data = append(data, '\n')
	default:
		data, err = collection.MarshalRequest(d)
	}
	if err != nil {
		return err
	}
	_, err = a.stdout.Write(data)
	return err
}

// importCmd saves a curl command line under a name. The command may be
// given as one quoted argument or as separate words after "--".
func importCmd(ctx context.Context, a *app, args []string) error {
	fs, g := a.newFlagSet("import", "treq import <name> <curl command>")
	positional, err := a.parse(fs, g, args)
	if err != nil {
		return err
	}
	if len(positional) < 2 {
		return usageErrorf("import needs a name and a curl command")
	}

	var d request.Data
	if len(positional) == 2 {
		d, err = curl.Parse(positional[1])
	} else {
		d, err = curl.ParseArgs(positional[1:])
	}
	if err != nil {
		return usageErrorf("%v", err)
	}

	sess, err := a.session()
	if err != nil {
		return err
	}
	if err := sess.SaveAs(ctx, positional[0], d); err != nil {
		return err
	}
	printRequest(a.stdout, d)
	return nil
}

func editCmd(ctx context.Context, a *app, args []string) error {
	fs, g := a.newFlagSet("edit", "treq edit <name> [items] [flags]")
	bf := &buildFlags{}
	bf.register(fs)
	positional, err := a.parse(fs, g, args)
	if err != nil {
		return err
	}
	if len(positional) == 0 {
		return usageErrorf("edit needs a saved request name")
	}
	name := positional[0]
	items, err := parseItems(positional[1:])
	if err != nil {
		return err
	}

	sess, err := a.session()
	if err != nil {
		return err
	}
	d, err := a.loadSaved(ctx, sess, name)
	if err != nil {
		return err
	}
	if err := bf.apply(&d, items); err != nil {
		return err
	}
	if err := sess.SaveAs(ctx, name, d); err != nil {
		return err
	}
	printRequest(a.stdout, d)
	return nil
}

func renameCmd(ctx context.Context, a *app, args []string) error {
	fs, g := a.newFlagSet("rename", "treq rename <old> <new>")
	positional, err := a.parse(fs, g, args)
	if err != nil {
		return err
	}
	if len(positional) != 2 {
		return usageErrorf("rename takes an old and a new name")
	}
	sess, err := a.session()
	if err != nil {
		return err
	}
	if err := sess.RenameSaved(ctx, positional[0], positional[1]); err != nil {
		return a.withSuggestion(ctx, sess, positional[0], err)
	}
	return nil
}

func removeCmd(ctx context.Context, a *app, args []string) error {
	fs, g := a.newFlagSet("remove", "treq remove <name>...")
	positional, err := a.parse(fs, g, args)
	if err != nil {
		return err
	}
	if len(positional) == 0 {
		return usageErrorf("remove needs at least one saved request name")
	}
	sess, err := a.session()
	if err != nil {
		return err
	}
	for _, name := range positional {
		if err := sess.RemoveSaved(ctx, name); err != nil {
			return a.withSuggestion(ctx, sess, name, err)
		}
	}
	return nil
}

// loadSaved loads name and adds suggestions to a not found error.
func (a *app) loadSaved(ctx context.Context, sess *session.Session, name string) (request.Data, error) {
	d, err := sess.GetSaved(ctx, name)
	if err != nil {
		return d, a.withSuggestion(ctx, sess, name, err)
	}
	return d, nil
}

func (a *app) withSuggestion(ctx context.Context, sess *session.Session, name string, err error) error {
	if !errors.Is(err, errs.ErrNotFound) {
		return err
	}
	names, lerr := sess.ListSaved(ctx)
	if lerr != nil {
		return err
	}
	if s := suggest(name, names); len(s) > 0 {
		return fmt.Errorf("%w (did you mean %s?)", err, strings.Join(s, ", "))
	}
	return err
}
