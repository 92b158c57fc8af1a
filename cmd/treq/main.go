package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sadopc/treq/internal/config"
	"github.com/sadopc/treq/internal/core/errs"
	"github.com/sadopc/treq/internal/core/request"
	"github.com/sadopc/treq/pkg/version"
)

// Exit codes.
const (
	exitOK          = 0
	exitOther       = 1
	exitUsage       = 2
	exitNotFound    = 3
	exitCorrupt     = 4
	exitTransport   = 5
	exitInvalidName = 6
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// run dispatches args and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printHelp(stderr)
		return exitUsage
	}

	switch args[0] {
	case "help", "-h", "--help":
		printHelp(stdout)
		return exitOK
	case "version", "--version":
		fmt.Fprintf(stdout, "treq %s (%s) built %s\n", version.Version, version.Commit, version.Date)
		return exitOK
	case "completion":
		return report(stderr, completionCmd(stdout, args[1:]))
	}

	cmd, ok := commands[args[0]]
	switch {
	case ok:
		args = args[1:]
	case isMethod(args[0]) && len(args) > 1:
		cmd = sendCmd
	default:
		cmd = urlCmd
	}

	a := &app{cfg: config.Load(), stdout: stdout, stderr: stderr}
	defer a.close()
	return report(stderr, cmd(ctx, a, args))
}

func isMethod(s string) bool {
	_, err := request.ParseMethod(s)
	return err == nil
}

type command func(ctx context.Context, a *app, args []string) error

var commands map[string]command

func init() {
	commands = map[string]command{
		"run":     runCmd,
		"ls":      lsCmd,
		"inspect": inspectCmd,
		"edit":    editCmd,
		"rename":  renameCmd,
		"remove":  removeCmd,
		"history": historyCmd,
		"import":  importCmd,
	}
}

// usageError marks bad invocations.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usageErrorf(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// report prints err and maps it to an exit code.
func report(stderr io.Writer, err error) int {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	fmt.Fprintf(stderr, "%s %v\n", errorStyle.Render("Error:"), err)
	return exitCode(err)
}

func exitCode(err error) int {
	var ue *usageError
	if errors.As(err, &ue) {
		return exitUsage
	}
	switch errs.Kind(err) {
	case "":
		return exitOK
	case "not_found":
		return exitNotFound
	case "corrupt_data":
		return exitCorrupt
	case "transport_failure":
		return exitTransport
	case "invalid_name":
		return exitInvalidName
	default:
		return exitOther
	}
}

func printHelp(w io.Writer) {
	fmt.Fprintf(w, `treq - send, save and replay HTTP requests from the terminal

Usage:
  treq <METHOD> <url> [items] [flags]   Send a request
  treq <url> [items] [flags]            Send a GET, or a POST when a body is given
  treq <command> [args] [flags]         Run a subcommand

Request items:
  Key:Value     header (an empty value removes the header)
  key==value    query parameter
  key=value     JSON body field (string)
  key:=json     JSON body field (raw JSON)

Request building flags (send, run, edit):
  --raw BODY    use BODY verbatim; cannot be combined with body fields
  --url URL     replace the URL
  --method M    replace the method

Commands:
  run         Send one or more saved requests
  ls          List saved requests
  inspect     Show a saved request (YAML, JSON or curl)
  import      Save a curl command as a request
  edit        Change a saved request
  rename      Rename a saved request
  remove      Delete a saved request
  history     Show past submissions
  completion  Generate shell completion scripts (bash, zsh, fish)
  version     Print version information
  help        Show this help message

Exit codes:
  0  success
  1  unexpected failure
  2  usage error
  3  request or saved name not found
  4  saved request is corrupt
  5  transport failure
  6  invalid saved name or header name

Run 'treq <command> --help' for more information about a command.
`)
}
