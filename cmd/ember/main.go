// Command ember is the language's driver: run a source file, or drop into
// an interactive prompt. Subcommand parsing follows the teacher's
// cmd/smog/main.go in spirit (run/repl/version), reimplemented on top of
// github.com/urfave/cli/v3 instead of a hand-rolled os.Args switch; the REPL
// line-editing follows pkg/vm/debugger.go's github.com/chzyer/readline
// idiom instead of the teacher's bufio.Scanner loop.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/urfave/cli/v3"

	"github.com/emberlang/ember/pkg/builtins"
	"github.com/emberlang/ember/pkg/compiler"
	"github.com/emberlang/ember/pkg/parser"
	"github.com/emberlang/ember/pkg/vm"
)

const version = "0.1.0"

func main() {
	app := &cli.Command{
		Name:  "ember",
		Usage: "run and explore programs in the Ember language",
		Commands: []*cli.Command{
			runCommand,
			replCommand,
			versionCommand,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runREPL()
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var versionCommand = &cli.Command{
	Name:  "version",
	Usage: "print the ember version",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		fmt.Printf("ember version %s\n", version)
		return nil
	},
}

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "parse, compile, and execute a source file",
	ArgsUsage: "<file>",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		if cmd.Args().Len() == 0 {
			return fmt.Errorf("run: no file specified")
		}
		return runFile(cmd.Args().First())
	},
}

var replCommand = &cli.Command{
	Name:  "repl",
	Usage: "start the interactive prompt",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		return runREPL()
	},
}

func runFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filename, err)
	}

	p := parser.New(string(data))
	program, err := p.Parse()
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	bc, err := compiler.New().Compile(program)
	if err != nil {
		return fmt.Errorf("compile error: %w", err)
	}

	v := vm.New()
	builtins.Register(v)
	if _, runErr := v.RunModule(v.Load(bc)); runErr != nil {
		return fmt.Errorf("runtime error: %w", runErr)
	}
	return nil
}

// runREPL drives a persistent VM through successive one-line-or-more
// fragments, each compiled as its own snippet and executed as a fresh
// top-level frame against the same module. Variables declared inside a
// fragment (rather than def/class, which are always mirrored into the main
// module's globals) do not survive past that fragment's frame — the same
// rule that governs a regular module's top-level locals.
func runREPL() error {
	fmt.Printf("ember %s\n", version)
	fmt.Println("Ctrl-D to exit.")

	rl, err := readline.New("ember> ")
	if err != nil {
		return fmt.Errorf("repl: readline unavailable: %w", err)
	}
	defer rl.Close()

	v := vm.New()
	builtins.Register(v)
	c := compiler.New()

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF (Ctrl-D) or readline.ErrInterrupt (Ctrl-C)
			if err == io.EOF {
				return nil
			}
			if err == readline.ErrInterrupt {
				continue
			}
			return nil
		}
		if line == "" {
			continue
		}
		evalREPL(v, c, line)
	}
}

func evalREPL(v *vm.VM, c *compiler.Compiler, input string) {
	p := parser.New(input)
	program, err := p.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse error: %v\n", err)
		for _, e := range p.Errors() {
			fmt.Fprintf(os.Stderr, "  %s\n", e)
		}
		return
	}

	code, err := c.CompileSnippet(program)
	if err != nil {
		fmt.Fprintf(os.Stderr, "compile error: %v\n", err)
		return
	}

	if _, runErr := v.RunModule(v.Load(code)); runErr != nil {
		fmt.Fprintf(os.Stderr, "runtime error: %v\n", runErr)
	}
}
