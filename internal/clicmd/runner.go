package clicmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mna/mainer"

	"github.com/mna/vesper/internal/cliconfig"
	"github.com/mna/vesper/lang/bytecode"
	"github.com/mna/vesper/lang/compiler"
	"github.com/mna/vesper/lang/corelib"
	"github.com/mna/vesper/lang/errs"
	"github.com/mna/vesper/lang/gc"
	"github.com/mna/vesper/lang/optimizer"
	"github.com/mna/vesper/lang/parser"
	"github.com/mna/vesper/lang/preprocess"
	"github.com/mna/vesper/lang/value"
	"github.com/mna/vesper/lang/vm"
)

// runner holds everything a single CLI invocation's pipeline stages
// need, threaded explicitly rather than kept on Cmd so Cmd stays a
// plain flag-parsing target (mainer.Parser reflects over it).
type runner struct {
	stdio   mainer.Stdio
	cfg     cliconfig.Config
	opts    optimizer.Options
	defines []string
	pass    []string
	time    bool
}

// phase times one pipeline stage and reports it to stderr when -t/--time
// is set, per spec.md §6.
func (r *runner) phase(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	if r.time {
		fmt.Fprintf(r.stdio.Stderr, "%s: %s\n", name, time.Since(start))
	}
	return err
}

// compileSource runs preprocess -> parse -> optimize -> emit over src,
// returning the module's main function or the first-stage error list.
func (r *runner) compileSource(src []byte, moduleName string) (*compiler.Function, errs.List) {
	defined := preprocess.NewDefined(r.defines...)

	var processed []byte
	var perrs errs.List
	_ = r.phase("preprocess", func() error {
		var el errs.List
		processed, el = preprocess.Process(src, defined)
		perrs = el
		return el.AsError()
	})
	if perrs.Len() > 0 {
		return nil, perrs
	}

	return r.compileProcessed(processed, moduleName)
}

func (r *runner) compileProcessed(processed []byte, moduleName string) (*compiler.Function, errs.List) {
	var cerrs errs.List
	var fn *compiler.Function

	ast, perrs := parser.Parse(processed)
	if perrs.Len() > 0 {
		return nil, perrs
	}

	_ = r.phase("optimize", func() error {
		optimizer.Optimize(ast, r.opts)
		return nil
	})

	_ = r.phase("emit", func() error {
		fn, cerrs = compiler.Compile(ast, moduleName)
		return cerrs.AsError()
	})
	if cerrs.Len() > 0 {
		return nil, cerrs
	}
	return fn, nil
}

func (r *runner) newHeap() *gc.Heap {
	h := gc.NewHeap()
	h.NextGC = r.cfg.GCInitialThreshold
	h.GrowFactor = r.cfg.GCGrowFactor
	return h
}

func (r *runner) setPassArgs(theVM *vm.VM) {
	elems := make([]value.Value, len(r.pass))
	for i, a := range r.pass {
		elems[i] = value.NewObj(theVM.Heap.NewString(a))
	}
	theVM.Heap.Globals.Set("args", value.NewObj(theVM.Heap.NewArray(elems)))
}

// reportAndExit prints err in the form appropriate to its kind and
// returns the matching exit code: 65 for a compile-time errs.List, 70
// for a runtime *vm.RuntimeError, 1 for anything else (I/O failures
// opening a source file, say).
func (r *runner) reportAndExit(err error) mainer.ExitCode {
	switch e := err.(type) {
	case errs.List:
		errs.Print(r.stdio.Stderr, e)
		return exitCompileError
	case *vm.RuntimeError:
		fmt.Fprintln(r.stdio.Stderr, e.Error())
		return exitRuntimeError
	default:
		fmt.Fprintln(r.stdio.Stderr, err.Error())
		return exitInvalidArgs
	}
}

// evalString compiles and runs src as a module named "eval". ctx is
// accepted for symmetry with runFiles/repl (all three are started
// under mainer.CancelOnSignal in Cmd.Main) but unused: the VM's
// dispatch loop runs to completion synchronously, per spec.md's
// concurrency non-goals -- there is no mid-execution cancellation
// point to wire it into.
func (r *runner) evalString(ctx context.Context, src string) mainer.ExitCode {
	_ = ctx
	fn, cerrs := r.compileSource([]byte(src), "eval")
	if cerrs != nil {
		return r.reportAndExit(cerrs)
	}
	theVM := vm.NewVM(r.newHeap())
	corelib.Register(theVM)
	r.setPassArgs(theVM)
	mod := vm.NewModule("eval", fn)
	result, err := theVM.RunModule(mod)
	if err != nil {
		return r.reportAndExit(err)
	}
	if !result.IsNull() {
		text, derr := corelib.Display(theVM, theVM.ActiveFiber(), result)
		if derr == nil {
			fmt.Fprintln(r.stdio.Stdout, text)
		}
	}
	return r.finish(theVM)
}

// runFiles compiles and runs each file as its own module, named after
// its base filename without extension, stopping at the first error.
func (r *runner) runFiles(ctx context.Context, files []string) mainer.ExitCode {
	_ = ctx
	var theVM *vm.VM
	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(r.stdio.Stderr, err.Error())
			return exitInvalidArgs
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		fn, cerrs := r.compileSource(src, name)
		if cerrs != nil {
			return r.reportAndExit(cerrs)
		}
		if theVM == nil {
			theVM = vm.NewVM(r.newHeap())
			corelib.Register(theVM)
			r.setPassArgs(theVM)
		}
		mod := vm.NewModule(name, fn)
		if _, err := theVM.RunModule(mod); err != nil {
			return r.reportAndExit(err)
		}
	}
	if theVM == nil {
		return exitSuccess
	}
	return r.finish(theVM)
}

// finish tears the heap down and maps a nonzero residual back to exit
// code 2, per spec.md §6.
func (r *runner) finish(theVM *vm.VM) mainer.ExitCode {
	if residual := theVM.Heap.Shutdown(); residual > 0 {
		fmt.Fprintf(r.stdio.Stderr, "%s: %d bytes of residual allocation after shutdown\n", binName, residual)
		return exitResidualAlloc
	}
	return exitSuccess
}

// compileToFile compiles every file into one bytecode image written to
// out, without running any of them.
func (r *runner) compileToFile(files []string, out string) mainer.ExitCode {
	var modules []*vm.Module
	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(r.stdio.Stderr, err.Error())
			return exitInvalidArgs
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		fn, cerrs := r.compileSource(src, name)
		if cerrs != nil {
			return r.reportAndExit(cerrs)
		}
		modules = append(modules, vm.NewModule(name, fn))
	}
	encoded, err := bytecode.Encode(modules)
	if err != nil {
		fmt.Fprintln(r.stdio.Stderr, err.Error())
		return exitInvalidArgs
	}
	if err := os.WriteFile(out, encoded, 0644); err != nil {
		fmt.Fprintln(r.stdio.Stderr, err.Error())
		return exitInvalidArgs
	}
	return exitSuccess
}

// dump disassembles each file's compiled form to stdout instead of
// running it.
func (r *runner) dump(files []string) mainer.ExitCode {
	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(r.stdio.Stderr, err.Error())
			return exitInvalidArgs
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		fn, cerrs := r.compileSource(src, name)
		if cerrs != nil {
			return r.reportAndExit(cerrs)
		}
		fmt.Fprintln(r.stdio.Stdout, compiler.Disassemble(fn))
	}
	return exitSuccess
}

// runTests runs every *.vsp file under each of roots' "tests" tree,
// comparing stdout to a same-named ".want" golden file. This is the
// CLI's own -c/--test feature and is deliberately independent of
// internal/filetest: that package's SourceFiles/DiffOutput take a
// *testing.T and are for this repository's own Go test suite (see
// internal/clicmd/clicmd_test.go), not for a shipped runtime binary
// that cannot assume it's running inside `go test`.
func (r *runner) runTests(roots []string) mainer.ExitCode {
	if len(roots) == 0 {
		roots = []string{"."}
	}
	failed := 0
	total := 0
	for _, root := range roots {
		dir := filepath.Join(root, "tests")
		entries, err := os.ReadDir(dir)
		if err != nil {
			fmt.Fprintln(r.stdio.Stderr, err.Error())
			return exitInvalidArgs
		}
		for _, ent := range entries {
			if ent.IsDir() || filepath.Ext(ent.Name()) != ".vsp" {
				continue
			}
			total++
			path := filepath.Join(dir, ent.Name())
			ok, msg := r.runOneTest(path)
			if !ok {
				failed++
				fmt.Fprintf(r.stdio.Stderr, "FAIL %s: %s\n", path, msg)
			} else {
				fmt.Fprintf(r.stdio.Stdout, "PASS %s\n", path)
			}
		}
	}
	fmt.Fprintf(r.stdio.Stdout, "%d/%d passed\n", total-failed, total)
	if failed > 0 {
		return exitRuntimeError
	}
	return exitSuccess
}

func (r *runner) runOneTest(path string) (ok bool, msg string) {
	src, err := os.ReadFile(path)
	if err != nil {
		return false, err.Error()
	}
	want, err := os.ReadFile(strings.TrimSuffix(path, ".vsp") + ".want")
	if err != nil {
		return false, fmt.Sprintf("missing golden file: %s", err)
	}

	name := strings.TrimSuffix(filepath.Base(path), ".vsp")
	fn, cerrs := r.compileSource(src, name)
	if cerrs != nil {
		return false, cerrs.Error()
	}

	theVM := vm.NewVM(r.newHeap())
	corelib.Register(theVM)
	var out strings.Builder
	theVM.Stdout = &out
	mod := vm.NewModule(name, fn)
	if _, err := theVM.RunModule(mod); err != nil {
		return false, err.Error()
	}
	if out.String() != string(want) {
		return false, fmt.Sprintf("output mismatch:\n got: %q\nwant: %q", out.String(), string(want))
	}
	return true, ""
}

// repl reads statements from stdin one line at a time, compiling and
// running each as its own module against the same VM/heap, so globals
// (and everything reachable from them: class registrations, printed
// output, bare `x = ...` assignments per the identifier-resolution
// order in SPEC_FULL.md §4.6) persist across lines. Each line gets its
// own freshly numbered private-slot space -- compiler.Compile has no
// way to resume a previous line's private numbering -- so a top-level
// `var`/`const` declared on one line is not visible by name on the
// next; giving a value REPL-wide lifetime means assigning a bare name
// (an implicit global) instead of declaring it.
func (r *runner) repl(ctx context.Context) mainer.ExitCode {
	_ = ctx
	theVM := vm.NewVM(r.newHeap())
	corelib.Register(theVM)
	r.setPassArgs(theVM)

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Fprint(r.stdio.Stdout, "> ")
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			fmt.Fprint(r.stdio.Stdout, "> ")
			continue
		}
		fn, cerrs := r.compileSource([]byte(line), "repl")
		if cerrs != nil {
			errs.Print(r.stdio.Stderr, cerrs)
			fmt.Fprint(r.stdio.Stdout, "> ")
			continue
		}
		mod := vm.NewModule("repl", fn)
		result, err := theVM.RunModule(mod)
		if err != nil {
			fmt.Fprintln(r.stdio.Stderr, err.Error())
		} else if !result.IsNull() {
			text, derr := corelib.Display(theVM, theVM.ActiveFiber(), result)
			if derr == nil {
				fmt.Fprintln(r.stdio.Stdout, text)
			}
		}
		fmt.Fprint(r.stdio.Stdout, "> ")
	}
	fmt.Fprintln(r.stdio.Stdout)
	return r.finish(theVM)
}
