package maincmd

import (
	"bufio"
	"context"
	"fmt"

	"github.com/loomlang/loom/lang/heap"
	"github.com/loomlang/loom/lang/vm"
	"github.com/mna/mainer"
)

// repl runs §6's interactive read-eval-print loop: print "> ", read one
// line, run it as a complete program. Keeping globals across lines is
// not required, so each line gets its own fresh collector and VM.
func (c *Cmd) repl(ctx context.Context, stdio mainer.Stdio) int {
	scanner := bufio.NewScanner(stdio.Stdin)
	for ctx.Err() == nil {
		fmt.Fprint(stdio.Stdout, "> ")
		if !scanner.Scan() {
			break
		}

		gc := heap.NewCollector()
		machine := vm.New(gc, stdio.Stdout, stdio.Stderr, stdio.Stdin)
		if c.Trace {
			machine.SetTrace(stdio.Stderr)
		}
		machine.Interpret(scanner.Text())
	}
	return exitSuccess
}
