package vm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/dustin/go-humanize"
)

// Debugger provides interactive debugging: breakpoints, single-stepping,
// and inspection of the running frame's stack/locals and the main module's
// globals. It pauses execFrame at the top of the instruction loop rather
// than wrapping individual opcode handlers, so every command sees a
// consistent, mid-loop snapshot.
type Debugger struct {
	vm          *VM
	breakpoints map[int]bool
	stepMode    bool
	enabled     bool
	rl          *readline.Instance
}

// NewDebugger creates a debugger attached to vm and wires it in, replacing
// any debugger already attached.
func NewDebugger(vm *VM) *Debugger {
	d := &Debugger{vm: vm, breakpoints: make(map[int]bool)}
	vm.debugger = d
	return d
}

func (d *Debugger) Enable()                 { d.enabled = true }
func (d *Debugger) Disable()                { d.enabled = false }
func (d *Debugger) SetStepMode(on bool)     { d.stepMode = on }
func (d *Debugger) AddBreakpoint(pc int)    { d.breakpoints[pc] = true }
func (d *Debugger) RemoveBreakpoint(pc int) { delete(d.breakpoints, pc) }
func (d *Debugger) ClearBreakpoints()       { d.breakpoints = make(map[int]bool) }

// beforeInstruction is execFrame's single hook into the debugger: called at
// the top of every loop iteration, before the instruction at f.pc is
// fetched. A no-op unless the debugger is enabled and either in step mode
// or at a breakpoint on f.pc.
func (d *Debugger) beforeInstruction(vm *VM, f *Frame) {
	if !d.enabled || (!d.stepMode && !d.breakpoints[f.pc]) {
		return
	}
	fmt.Println("\n=== paused ===")
	d.showCurrentInstruction(f)
	for d.interactivePrompt(f) {
	}
}

func (d *Debugger) showCurrentInstruction(f *Frame) {
	code := f.code.Raw
	if f.pc >= len(code.Instructions) {
		fmt.Println("(at end of frame)")
		return
	}
	instr := code.Instructions[f.pc]
	fmt.Printf("  %4d: %s", f.pc, instr.Op)
	if instr.Operand != 0 {
		fmt.Printf(" %d", instr.Operand)
	}
	fmt.Println()
}

func (d *Debugger) showStack(f *Frame) {
	fmt.Println("Eval stack (top to bottom):")
	if len(f.stack) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for i := len(f.stack) - 1; i >= 0; i-- {
		d.describeAddr(i, f.stack[i])
	}
}

func (d *Debugger) showLocals(f *Frame) {
	fmt.Println("Locals:")
	if len(f.locals) == 0 {
		fmt.Println("  (none)")
		return
	}
	for i, addr := range f.locals {
		if addr != NullAddress {
			d.describeAddr(i, addr)
		}
	}
}

func (d *Debugger) showGlobals() {
	fmt.Println("Globals:")
	m := d.vm.Heap.Get(d.vm.MainModule).ModuleVal.Globals
	if len(m) == 0 {
		fmt.Println("  (none)")
		return
	}
	for name, addr := range m {
		fmt.Printf("  %s = %s\n", name, d.vm.describeValue(addr))
	}
}

func (d *Debugger) showCallStack() {
	fmt.Println("Call stack (innermost last):")
	for i, fr := range d.vm.callStack {
		fmt.Printf("  #%d %s [pc=%d]\n", i, fr.code.Raw.QualName, fr.pc)
	}
}

func (d *Debugger) showStats() {
	s := d.vm.Heap.Stats()
	fmt.Printf("heap: %s live, %s freed, %s slots total\n",
		humanize.Comma(int64(s.LiveObjects)), humanize.Comma(int64(s.FreedSlots)), humanize.Comma(int64(s.TotalSlots)))
}

func (d *Debugger) describeAddr(i int, addr Address) {
	fmt.Printf("  [%d] %s\n", i, d.vm.describeValue(addr))
}

func (d *Debugger) listInstructions(f *Frame) {
	for i, instr := range f.code.Raw.Instructions {
		marker := "  "
		if i == f.pc {
			marker = "->"
		} else if d.breakpoints[i] {
			marker = "* "
		}
		fmt.Printf("%s%4d: %s", marker, i, instr.Op)
		if instr.Operand != 0 {
			fmt.Printf(" %d", instr.Operand)
		}
		fmt.Println()
	}
}

// interactivePrompt reads one command line and executes it. Returns true to
// keep prompting, false once the user has asked to resume (or step) and
// beforeInstruction should return control to execFrame.
func (d *Debugger) interactivePrompt(f *Frame) bool {
	if d.rl == nil {
		rl, err := readline.New("debug> ")
		if err != nil {
			fmt.Println("debugger: readline unavailable:", err)
			d.enabled = false
			return false
		}
		d.rl = rl
	}
	line, err := d.rl.Readline()
	if err != nil {
		d.enabled = false
		return false
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	parts := strings.Fields(line)
	switch parts[0] {
	case "help", "h", "?":
		d.printHelp()
	case "continue", "c":
		d.SetStepMode(false)
		return false
	case "step", "s", "next", "n":
		d.SetStepMode(true)
		return false
	case "stack", "st":
		d.showStack(f)
	case "locals", "l":
		d.showLocals(f)
	case "globals", "g":
		d.showGlobals()
	case "callstack", "cs":
		d.showCallStack()
	case "instruction", "i":
		d.showCurrentInstruction(f)
	case "stats":
		d.showStats()
	case "list", "ls":
		d.listInstructions(f)
	case "breakpoint", "b":
		if len(parts) < 2 {
			fmt.Println("usage: breakpoint <pc>")
			break
		}
		pc, err := strconv.Atoi(parts[1])
		if err != nil {
			fmt.Println("invalid instruction number")
			break
		}
		d.AddBreakpoint(pc)
	case "delete", "d":
		if len(parts) < 2 {
			fmt.Println("usage: delete <pc>")
			break
		}
		pc, err := strconv.Atoi(parts[1])
		if err != nil {
			fmt.Println("invalid instruction number")
			break
		}
		d.RemoveBreakpoint(pc)
	case "quit", "q":
		panic("vm: execution aborted from debugger")
	default:
		fmt.Printf("unknown command %q (try help)\n", parts[0])
	}
	return true
}

func (d *Debugger) printHelp() {
	fmt.Println(`commands:
  continue, c          resume execution
  step, s, next, n     execute one instruction and pause again
  stack, st            show the current frame's eval stack
  locals, l            show the current frame's locals
  globals, g           show the main module's globals
  callstack, cs        show the call stack
  instruction, i       show the current instruction
  list, ls             list all instructions in the current frame
  breakpoint <n>, b    pause before instruction n
  delete <n>, d        remove a breakpoint
  stats                show heap statistics
  quit, q              abort execution`)
}
