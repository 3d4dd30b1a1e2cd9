package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/loomlang/loom/lang/heap"
	"github.com/loomlang/loom/lang/vm"
	"github.com/stretchr/testify/require"
)

// run compiles and interprets src against a fresh VM, returning its
// stdout, stderr and Result.
func run(src string) (string, string, vm.Result) {
	var stdout, stderr bytes.Buffer
	gc := heap.NewCollector()
	machine := vm.New(gc, &stdout, &stderr, strings.NewReader(""))
	result := machine.Interpret(src)
	return stdout.String(), stderr.String(), result
}

// TestEndToEndScenarios exercises the first five end-to-end scenarios
// from spec §8; the sixth (an undefined variable) is
// TestUndefinedGlobalIsRuntimeError.
func TestEndToEndScenarios(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		stdout string
		result vm.Result
	}{
		{
			name:   "arithmetic print, no newline",
			src:    `print 1 + 2;`,
			stdout: "3",
			result: vm.ResultOK,
		},
		{
			name:   "string concatenation",
			src:    `var a = "hi"; println a + " world";`,
			stdout: "hi world\n",
			result: vm.ResultOK,
		},
		{
			name: "closures capture and close over a function-local counter",
			src: `fun mk() { var x = 0; fun inc(){ x = x + 1; return x; } return inc; }
			       var c = mk(); println c(); println c(); println c();`,
			stdout: "1\n2\n3\n",
			result: vm.ResultOK,
		},
		{
			name: "class with init and a bumping method",
			src: `class Counter { init(){ this.n = 0; } bump(){ this.n = this.n + 1; return this.n; } }
			       var k = Counter(); println k.bump(); println k.bump();`,
			stdout: "1\n2\n",
			result: vm.ResultOK,
		},
		{
			name:   "array literal, index read and write",
			src:    `var a = [10, 20, 30]; println a[1]; a[1] = 99; println a[1];`,
			stdout: "20\n99\n",
			result: vm.ResultOK,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stdout, _, result := run(tc.src)
			require.Equal(t, tc.result, result)
			require.Equal(t, tc.stdout, stdout)
		})
	}
}

func TestUndefinedGlobalIsRuntimeError(t *testing.T) {
	stdout, stderr, result := run(`print "undefined: "; print z;`)
	require.Equal(t, vm.ResultRuntimeError, result)
	require.Equal(t, "undefined: ", stdout)
	require.Contains(t, stderr, "Undefined variable 'z'.")
	require.Contains(t, stderr, "[line 1]")
}

func TestRuntimeErrorBacktraceInnermostFirst(t *testing.T) {
	src := `
	fun inner() { return 1 + "x"; }
	fun outer() { return inner(); }
	outer();
	`
	_, stderr, result := run(src)
	require.Equal(t, vm.ResultRuntimeError, result)
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	require.Contains(t, lines[0], "Operands must be two numbers or two strings.")
	require.Contains(t, lines[1], "inner()")
	require.Contains(t, lines[2], "outer()")
	require.Contains(t, lines[3], "in script")
}

func TestTopLevelBlockWithLocalsRuns(t *testing.T) {
	stdout, _, result := run(`var a = 1; { var b = 2; print a + b; } print a;`)
	require.Equal(t, vm.ResultOK, result)
	require.Equal(t, "31", stdout)
}

func TestCompileErrorExitsWithoutRunning(t *testing.T) {
	_, stderr, result := run(`print ;`)
	require.Equal(t, vm.ResultCompileError, result)
	require.NotEmpty(t, stderr)
}

func TestArithmeticAndComparisons(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`print 2 + 3 * 4;`, "14"},
		{`print (2 + 3) * 4;`, "20"},
		{`print 7 % 3;`, "1"},
		{`print 7 / 2;`, "3.5"},
		{`print 1 < 2;`, "true"},
		{`print 1 >= 2;`, "false"},
		{`print 1 == 1.0;`, "true"},
		{`print "a" == "a";`, "true"},
		{`print nil == false;`, "false"},
		{`print !nil;`, "true"},
		{`print -5;`, "-5"},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			stdout, stderr, result := run(tc.src)
			require.Equal(t, vm.ResultOK, result, stderr)
			require.Equal(t, tc.want, stdout)
		})
	}
}

func TestAndOrShortCircuit(t *testing.T) {
	stdout, _, result := run(`
	fun sideEffect() { print "called"; return true; }
	print false and sideEffect();
	print true or sideEffect();
	`)
	require.Equal(t, vm.ResultOK, result)
	require.Equal(t, "falsetrue", stdout)
}

func TestWhileAndForLoops(t *testing.T) {
	stdout, _, result := run(`
	var i = 0;
	while (i < 3) { print i; i = i + 1; }
	for (var j = 0; j < 3; j = j + 1) { print j; }
	`)
	require.Equal(t, vm.ResultOK, result)
	require.Equal(t, "012012", stdout)
}

func TestMapLiteralAndFieldAccess(t *testing.T) {
	stdout, _, result := run(`
	var m = {name: "ok", 1: "one"};
	println m.name;
	println m[1];
	`)
	require.Equal(t, vm.ResultOK, result)
	require.Equal(t, "ok\none\n", stdout)
}

func TestMethodFieldShadowsMethodOnInvoke(t *testing.T) {
	stdout, _, result := run(`
	class Box { greet() { return "method"; } }
	fun field() { return "field"; }
	var b = Box();
	b.greet = field;
	println b.greet();
	`)
	require.Equal(t, vm.ResultOK, result)
	require.Equal(t, "field\n", stdout)
}

func TestBoundMethodCanBeStoredAndCalledLater(t *testing.T) {
	stdout, _, result := run(`
	class Greeter { name(){ return "hi"; } }
	var g = Greeter();
	var fn = g.name;
	println fn();
	`)
	require.Equal(t, vm.ResultOK, result)
	require.Equal(t, "hi\n", stdout)
}

func TestNativeRoundAndStringify(t *testing.T) {
	stdout, _, result := run(`
	println round(7, 2);
	println stringify(nil);
	println stringify(123);
	`)
	require.Equal(t, vm.ResultOK, result)
	require.Equal(t, "8\nnil\n123\n", stdout)
}

func TestClockIsNonNegative(t *testing.T) {
	stdout, _, result := run(`print clock() >= 0.0;`)
	require.Equal(t, vm.ResultOK, result)
	require.Equal(t, "true", stdout)
}

func TestCallingNonCallableIsRuntimeError(t *testing.T) {
	_, stderr, result := run(`var x = 1; x();`)
	require.Equal(t, vm.ResultRuntimeError, result)
	require.Contains(t, stderr, "Can only call functions and classes.")
}

func TestWrongArityIsRuntimeError(t *testing.T) {
	_, stderr, result := run(`fun f(a, b) { return a + b; } f(1);`)
	require.Equal(t, vm.ResultRuntimeError, result)
	require.Contains(t, stderr, "Expected 2 arguments but got 1.")
}

func TestClasslessInstanceStringifiesAsSortedDump(t *testing.T) {
	stdout, _, result := run(`println {b: 2, a: 1};`)
	require.Equal(t, vm.ResultOK, result)
	require.Equal(t, "{a: 1, b: 2}\n", stdout)
}

// TestGCReclaimsUnreachableStrings drives enough string concatenation
// to trigger several collections and asserts that collections ran, that
// most of the garbage strings were reclaimed, and that the VM kept
// running correctly throughout, exercising the allocation-triggered GC
// and the compiler/VM GC roots together (§4.4, §8).
func TestGCReclaimsUnreachableStrings(t *testing.T) {
	var out, errOut bytes.Buffer
	gc := heap.NewCollector()
	machine := vm.New(gc, &out, &errOut, strings.NewReader(""))
	result := machine.Interpret(`
	fun make(n) {
		var s = "";
		var i = 0;
		while (i < n) {
			s = s + "x";
			i = i + 1;
		}
		return s;
	}
	var last = "";
	var i = 0;
	while (i < 200) {
		last = make(20);
		i = i + 1;
	}
	println last;
	`)
	require.Equal(t, vm.ResultOK, result, errOut.String())
	require.Equal(t, strings.Repeat("x", 20)+"\n", out.String())
	require.Greater(t, gc.Collections, 1)
	// 200 calls of make(20) allocate 4000 strings, accounted at 32 bytes
	// each; far less than that is still allocated at the end.
	require.Less(t, gc.BytesAllocated(), int64(4000*32))
}
