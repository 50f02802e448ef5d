package vm

import (
	"fmt"
	"strings"
)

// StackFrame is a snapshot of one call's activation record, captured by
// CaptureStackTrace when printstack/traceback runs or when
// UncaughtException builds a RuntimeError.
type StackFrame struct {
	QualName string
	PC       int
}

// RuntimeError pairs a message with the call stack captured when it is
// built (RunModule builds it after every frame has returned, so that trace
// is empty) — the uncaught-exception equivalent of a Go error with a
// backtrace attached, in the teacher's style (pkg/vm/errors.go's
// StackFrame/RuntimeError, generalized from message-send frames to Ember's
// CodeObject-based ones).
type RuntimeError struct {
	Message    string
	StackTrace []StackFrame
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.StackTrace) > 0 {
		b.WriteString("\n\nStack trace:")
		for i := len(e.StackTrace) - 1; i >= 0; i-- {
			f := e.StackTrace[i]
			fmt.Fprintf(&b, "\n  at %s [pc=%d]", f.QualName, f.PC)
		}
	}
	return b.String()
}

func newRuntimeError(message string, stack []StackFrame) *RuntimeError {
	return &RuntimeError{Message: message, StackTrace: stack}
}

// CaptureStackTrace snapshots the current call stack, innermost frame last.
func (vm *VM) CaptureStackTrace() []StackFrame {
	trace := make([]StackFrame, len(vm.callStack))
	for i, f := range vm.callStack {
		trace[i] = StackFrame{QualName: f.code.Raw.QualName, PC: f.pc}
	}
	return trace
}

// PrintCallStack writes the current call stack to stdout, innermost frame
// first; backs the printstack/traceback free functions in pkg/builtins.
func (vm *VM) PrintCallStack() {
	trace := vm.CaptureStackTrace()
	if len(trace) == 0 {
		fmt.Println("(no active frames)")
		return
	}
	for i := len(trace) - 1; i >= 0; i-- {
		fmt.Printf("  at %s [pc=%d]\n", trace[i].QualName, trace[i].PC)
	}
}

// UncaughtException formats an exception address that reached the top of
// the call stack as a RuntimeError, calling the exception's __str__.
func (vm *VM) UncaughtException(exception Address) *RuntimeError {
	msg := vm.describeValue(exception)
	if s := vm.CallMethod(exception, "__str__", nil); s != vm.NoneAddr {
		msg = vm.Heap.Get(s).StringVal
	}
	return newRuntimeError(msg, vm.CaptureStackTrace())
}
