// Package clicmd implements the command-line driver described in
// SPEC_FULL.md §6: the flag table, exit codes, and pipeline wiring for
// running or compiling vesper source. Structured after the teacher's
// internal/maincmd.Cmd (SetArgs/SetFlags/Validate/Main plus a
// mainer.Parser-driven flag struct), but with the teacher's
// reflection-dispatched subcommands (buildCmds) replaced by direct
// flag branching in Main, since this CLI has one job -- compile and
// run -- rather than a family of named subcommands.
package clicmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mna/mainer"

	"github.com/mna/vesper/internal/cliconfig"
	"github.com/mna/vesper/lang/optimizer"
)

const binName = "vesper"

// Exit codes per SPEC_FULL.md §6's table. Defined locally, rather than
// reused from mainer's own Success/Failure/InvalidArgs, because the
// spec's codes (0/1/2/65/70) are a fixed external contract that must
// hold regardless of what mainer's generic constants happen to equal.
const (
	exitSuccess       mainer.ExitCode = 0
	exitInvalidArgs   mainer.ExitCode = 1
	exitResidualAlloc mainer.ExitCode = 2
	exitCompileError  mainer.ExitCode = 65
	exitRuntimeError  mainer.ExitCode = 70
)

// Cmd is the flag-tagged command struct mainer.Parser populates from
// argv, mirroring the teacher's Cmd shape field for field.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help        bool   `flag:"h,help"`
	Eval        string `flag:"e,eval"`
	Output      string `flag:"o,output"`
	Dump        bool   `flag:"d,dump"`
	Time        bool   `flag:"t,time"`
	Interactive bool   `flag:"i,interactive"`
	Test        bool   `flag:"c,test"`

	// optTokens, defines, and passArgs are filled by preScanArgs before
	// mainer.Parser.Parse ever runs, since spec.md's -O<name>, -Ono-<name>,
	// -D<name>, and -p/--pass all carry a dynamic suffix or consume every
	// remaining argument raw -- shapes mainer's static flag:"..." struct
	// tags have no way to express. Parse only ever sees the flags above
	// plus the positional file list.
	optTokens []string
	defines   []string
	passArgs  []string

	args  []string
	flags map[string]bool
}

func (c *Cmd) SetArgs(args []string)        { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) { c.flags = flags }

// Validate performs no checks: every combination of flags and file
// arguments is accepted.
func (c *Cmd) Validate() error {
	return nil
}

var longUsage = `vesper runs or compiles vesper source files.

Usage: vesper [options] [files] [-p args...]

  -e, --eval STR        compile and run STR instead of reading files
  -o, --output FILE      compile files and write bytecode to FILE
  -O<name>               enable an optimization pass (see -Ohelp)
  -Ono-<name>             disable an optimization pass
  -O<0-4>                 select an optimization level (none..extreme)
  -Oall                   enable every optimization pass
  -Ohelp                  list optimization pass names and exit
  -D<name>                define a preprocessor symbol
  -d, --dump              disassemble instead of running
  -t, --time              print phase timings to stderr
  -i, --interactive       force the REPL even if files were given
  -c, --test              run the files under a tests/ tree, comparing
                          each script's output to its golden file
  -p, --pass ARGS...      pass the remaining arguments to the script as
                          the global "args" array
  -h, --help              print this message and exit
`

func printError(stdio mainer.Stdio, err error) error {
	fmt.Fprintf(stdio.Stderr, "%s: %s\n", binName, err)
	return err
}

// Main parses argv and dispatches to eval/dump/test/run/REPL per
// SPEC_FULL.md §6. args follows the same full-argv convention as the
// teacher's maincmd.Cmd.Main (cmd/vesper/main.go passes os.Args
// unmodified, including the program name at index 0).
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	rest, optTokens, defines, passArgs := preScanArgs(args[1:])
	c.optTokens, c.defines, c.passArgs = optTokens, defines, passArgs

	p := mainer.Parser{EnvVars: false, EnvPrefix: strings.ToUpper(binName) + "_"}
	if err := p.Parse(append([]string{args[0]}, rest...), c); err != nil {
		printError(stdio, err)
		return exitInvalidArgs
	}

	if c.Help {
		fmt.Fprint(stdio.Stdout, longUsage)
		return exitSuccess
	}

	cfg, err := cliconfig.Load()
	if err != nil {
		printError(stdio, err)
		return exitInvalidArgs
	}

	baseOpts := optimizer.ForLevel(levelFromName(cfg.OptLevel))
	opts, help, err := applyOptTokens(c.optTokens, baseOpts)
	if err != nil {
		printError(stdio, err)
		return exitInvalidArgs
	}
	if help {
		fmt.Fprint(stdio.Stdout, helpText())
		return exitSuccess
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)

	run := &runner{
		stdio:   stdio,
		cfg:     cfg,
		opts:    opts,
		defines: c.defines,
		pass:    c.passArgs,
		time:    c.Time,
	}

	switch {
	case c.Eval != "":
		return run.evalString(ctx, c.Eval)
	case c.Output != "":
		return run.compileToFile(c.args, c.Output)
	case c.Dump:
		return run.dump(c.args)
	case c.Test:
		return run.runTests(c.args)
	case c.Interactive, len(c.args) == 0:
		return run.repl(ctx)
	default:
		return run.runFiles(ctx, c.args)
	}
}

func levelFromName(name string) optimizer.Level {
	switch strings.ToLower(name) {
	case "repl":
		return optimizer.REPL
	case "debug":
		return optimizer.DEBUG
	case "release":
		return optimizer.RELEASE
	case "extreme":
		return optimizer.EXTREME
	default:
		return optimizer.NONE
	}
}

// preScanArgs splits raw (program-name-stripped) args into: the
// remainder mainer.Parser can parse through its static flag tags, the
// -O suffixes and -D names pulled out of it, and -p/--pass's trailing
// raw argument list. -p/--pass's "everything after is not a flag"
// semantics is why this must happen before mainer ever sees the args:
// a static flag tag has no way to say "consume the rest of argv
// verbatim".
func preScanArgs(args []string) (rest, optTokens, defines, passArgs []string) {
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "-p" || a == "--pass":
			passArgs = append([]string{}, args[i+1:]...)
			return rest, optTokens, defines, passArgs
		case strings.HasPrefix(a, "-O"):
			optTokens = append(optTokens, strings.TrimPrefix(a, "-O"))
		case strings.HasPrefix(a, "-D"):
			defines = append(defines, strings.TrimPrefix(a, "-D"))
		default:
			rest = append(rest, a)
		}
	}
	return rest, optTokens, defines, passArgs
}
