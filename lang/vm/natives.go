package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/loomlang/loom/lang/heap"
)

// registerNatives installs the built-in callables as globals at VM
// startup, per §6.
func (vm *VM) registerNatives() {
	vm.defineNative("clock", 0, vm.nativeClock)
	vm.defineNative("readNumber", 0, vm.nativeReadNumber)
	vm.defineNative("stringify", 1, vm.nativeStringify)
	vm.defineNative("round", 2, vm.nativeRound)
}

func (vm *VM) defineNative(name string, arity int, fn heap.NativeFn) {
	native := vm.gc.NewNative(name, arity, fn)
	vm.globals.Set(name, heap.FromObject(native))
}

func (vm *VM) nativeClock([]heap.Value) (heap.Value, error) {
	return heap.Number(time.Since(vm.start).Seconds()), nil
}

// nativeReadNumber reads one line of standard input and parses it as a
// double; unparseable input yields 0, per §6.
func (vm *VM) nativeReadNumber([]heap.Value) (heap.Value, error) {
	line, err := vm.stdin.ReadString('\n')
	if err != nil && line == "" {
		return heap.Number(0), nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
	if err != nil {
		return heap.Number(0), nil
	}
	return heap.Number(n), nil
}

func (vm *VM) nativeStringify(args []heap.Value) (heap.Value, error) {
	return heap.FromObject(vm.gc.NewString(args[0].String())), nil
}

// nativeRound implements round(x, step) = round(x/step) * step.
func (vm *VM) nativeRound(args []heap.Value) (heap.Value, error) {
	if !args[0].IsNumber() || !args[1].IsNumber() {
		return heap.Nil, fmt.Errorf("round expects two numbers")
	}
	x, step := args[0].AsNumber(), args[1].AsNumber()
	return heap.Number(math.Round(x/step) * step), nil
}
