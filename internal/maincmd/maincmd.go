// Package maincmd implements loom's command-line driver: REPL and
// file-runner dispatch, flag parsing, and the sysexits-style exit codes
// from spec §6. It is an external collaborator, not part of the VM's
// contract (§1).
package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
)

const binName = "loom"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<path>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [<path>]
       %[1]s -h|--help
       %[1]s -v|--version

Interpreter for the loom programming language: a small dynamically
typed, class-based language with closures, single-dispatch methods, and
array/map literals, running on a bytecode VM under a mark-sweep GC.

With no <path>, %[1]s starts an interactive REPL, printing "> " before
each line and running that line as a complete program. With a <path>,
%[1]s reads and runs the whole file as a single program.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --trace                   Print a per-instruction bytecode trace
                                  to standard error (diagnostic only,
                                  not a contract of the language).
`, binName)
)

// Cmd holds loom's CLI flags and the parsed positional arguments.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`
	Trace   bool `flag:"trace"`

	args  []string
	flags map[string]bool
}

func (c *Cmd) SetArgs(args []string)          { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) { c.flags = flags }

// Validate enforces §6's argument-count contract: zero positional
// arguments means REPL mode, one means "run this file", anything else
// is a usage error.
func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) > 1 {
		return fmt.Errorf("expected at most one file argument, got %d", len(c.args))
	}
	return nil
}

// Main parses args and dispatches to the REPL or the file runner. It
// returns the sysexits-style code from §6 (0/64/65/70/74) directly,
// rather than mainer's own three-value ExitCode, since the spec's exit
// code contract is more granular than mainer's.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) int {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return exitUsage
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return exitSuccess
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return exitSuccess
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)

	if len(c.args) == 0 {
		return c.repl(ctx, stdio)
	}
	return c.runFile(ctx, stdio, c.args[0])
}
