package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/loomlang/loom/lang/heap"
	"github.com/loomlang/loom/lang/vm"
	"github.com/mna/mainer"
)

// runFile reads path as a single source and runs it as a complete
// program, translating the VM's Result into the sysexits-style code
// from §6. A file-open failure is exit 74.
func (c *Cmd) runFile(ctx context.Context, stdio mainer.Stdio, path string) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", binName, err)
		return exitIOError
	}
	if ctx.Err() != nil {
		return exitSuccess
	}

	gc := heap.NewCollector()
	machine := vm.New(gc, stdio.Stdout, stdio.Stderr, stdio.Stdin)
	if c.Trace {
		machine.SetTrace(stdio.Stderr)
	}

	switch machine.Interpret(string(src)) {
	case vm.ResultCompileError:
		return exitCompileError
	case vm.ResultRuntimeError:
		return exitRuntimeError
	default:
		return exitSuccess
	}
}
