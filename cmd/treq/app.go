package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/sadopc/treq/internal/config"
	"github.com/sadopc/treq/internal/core/collection"
	"github.com/sadopc/treq/internal/core/history"
	"github.com/sadopc/treq/internal/logging"
	"github.com/sadopc/treq/internal/protocol"
	httpclient "github.com/sadopc/treq/internal/protocol/http"
	"github.com/sadopc/treq/internal/session"
)

// app holds what a single CLI invocation needs. The session and the
// history database are opened lazily by the commands that use them.
type app struct {
	cfg    config.Config
	stdout io.Writer
	stderr io.Writer

	log     *slog.Logger
	sess    *session.Session
	history *history.Store
}

// globalFlags are accepted by every command.
type globalFlags struct {
	timeout  time.Duration
	proxy    string
	insecure bool
	logLevel string
	noHist   bool
}

func (g *globalFlags) register(fs *flag.FlagSet, cfg config.Config) {
	fs.DurationVar(&g.timeout, "timeout", cfg.DefaultTimeout, "Request timeout, 0 for none")
	fs.StringVar(&g.proxy, "proxy", cfg.Proxy, "Proxy URL (http, https, socks5)")
	fs.BoolVar(&g.insecure, "insecure", cfg.TLS.InsecureSkipVerify, "Skip TLS certificate verification")
	fs.StringVar(&g.logLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.BoolVar(&g.noHist, "no-history", !cfg.History, "Do not record this submission")
}

func (g *globalFlags) apply(cfg *config.Config) {
	cfg.DefaultTimeout = g.timeout
	cfg.Proxy = g.proxy
	cfg.TLS.InsecureSkipVerify = g.insecure
	cfg.LogLevel = g.logLevel
	cfg.History = !g.noHist
}

func (a *app) newFlagSet(name, usage string) (*flag.FlagSet, *globalFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	g := &globalFlags{}
	g.register(fs, a.cfg)
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: %s\n\nFlags:\n", usage)
		fs.PrintDefaults()
	}
	return fs, g
}

// parse parses flags anywhere in args and returns the positional arguments.
// Everything after "--" is positional.
func (a *app) parse(fs *flag.FlagSet, g *globalFlags, args []string) ([]string, error) {
	var positional, rest []string
	if i := slices.Index(args, "--"); i >= 0 {
		args, rest = args[:i], args[i+1:]
	}
	for {
		if err := fs.Parse(args); err != nil {
			if err == flag.ErrHelp {
				return nil, err
			}
			return nil, &usageError{msg: err.Error()}
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
	g.apply(&a.cfg)
	return append(positional, rest...), nil
}

// session builds the session from the current configuration.
func (a *app) session() (*session.Session, error) {
	if a.sess != nil {
		return a.sess, nil
	}

	a.log = logging.New(logging.Config{
		Level:  logging.ParseLevel(a.cfg.LogLevel),
		Format: logging.ParseFormat(a.cfg.LogFormat),
		Output: a.stderr,
	})

	client := httpclient.New()
	client.SetLogger(a.log)
	client.SetTimeout(a.cfg.DefaultTimeout)
	client.SetProxy(a.cfg.Proxy, a.cfg.NoProxy)
	tlsConfig, err := a.cfg.TLS.Build()
	if err != nil {
		return nil, fmt.Errorf("tls: %w", err)
	}
	client.SetTLSConfig(tlsConfig)

	var transport protocol.Transport = client
	if a.cfg.History {
		if store, err := a.openHistory(); err != nil {
			a.log.Warn("history disabled", "error", err)
		} else {
			transport = history.NewRecorder(client, store, a.log)
		}
	}

	a.sess = session.New(transport, collection.New(a.cfg.CollectionsDir()), session.WithLogger(a.log))
	return a.sess, nil
}

func (a *app) openHistory() (*history.Store, error) {
	if a.history != nil {
		return a.history, nil
	}
	if err := os.MkdirAll(a.cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	store, err := history.NewStore(a.cfg.HistoryPath())
	if err != nil {
		return nil, err
	}
	a.history = store
	return store, nil
}

func (a *app) close() {
	if a.history != nil {
		a.history.Close()
	}
}

// suggest returns saved names close to name, best match first.
func suggest(name string, names []string) []string {
	matches := fuzzy.Find(name, names)
	out := make([]string, 0, 3)
	for _, m := range matches {
		if len(out) == cap(out) {
			break
		}
		out = append(out, m.Str)
	}
	return out
}
