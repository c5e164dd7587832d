package clicmd

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/vesper/internal/filetest"
	"github.com/mna/vesper/lang/corelib"
	"github.com/mna/vesper/lang/optimizer"
	"github.com/mna/vesper/lang/vm"
)

var testUpdateCLITests = flag.Bool("test.update-cli-tests", false, "If set, replace expected CLI golden outputs with actual results.")

// TestRunFilesGolden compiles and runs every testdata/in/*.vsp script
// through the same pipeline runFiles uses and diffs its stdout against
// testdata/out's golden files, following the teacher's
// lang/scanner/scanner_test.go layout (testdata/in source files,
// testdata/out expected results, a test.update-*-tests flag to refresh
// them).
func TestRunFilesGolden(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".vsp") {
		t.Run(fi.Name(), func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join(srcDir, fi.Name()))
			require.NoError(t, err)

			r := &runner{
				stdio: mainer.Stdio{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}},
				opts:  optimizer.ForLevel(optimizer.NONE),
			}
			fn, cerrs := r.compileSource(src, fi.Name())
			require.Nil(t, cerrs, "unexpected compile errors: %v", cerrs)

			theVM := vm.NewVM(r.newHeap())
			corelib.Register(theVM)
			var out bytes.Buffer
			theVM.Stdout = &out
			_, err = theVM.RunModule(vm.NewModule(fi.Name(), fn))
			require.NoError(t, err)

			filetest.DiffOutput(t, fi, out.String(), resultDir, testUpdateCLITests)
		})
	}
}

func TestPreScanArgsSplitsPassAndOptFlags(t *testing.T) {
	rest, optTokens, defines, passArgs := preScanArgs([]string{
		"-Orelease", "-Ono-fold-literals", "-DDEBUG", "script.vsp", "-p", "a", "b",
	})
	assert.Equal(t, []string{"script.vsp"}, rest)
	assert.Equal(t, []string{"release", "no-fold-literals"}, optTokens)
	assert.Equal(t, []string{"DEBUG"}, defines)
	assert.Equal(t, []string{"a", "b"}, passArgs)
}

func TestApplyOptTokensLevelThenToggle(t *testing.T) {
	opts, help, err := applyOptTokens([]string{"3", "no-rewrite-for-in-range"}, optimizer.Options{})
	require.NoError(t, err)
	assert.False(t, help)
	assert.True(t, opts.FoldLiterals)
	assert.False(t, opts.RewriteForInRange)
}

func TestApplyOptTokensHelp(t *testing.T) {
	_, help, err := applyOptTokens([]string{"help"}, optimizer.Options{})
	require.NoError(t, err)
	assert.True(t, help)
}

func TestApplyOptTokensUnknownName(t *testing.T) {
	_, _, err := applyOptTokens([]string{"not-a-real-toggle"}, optimizer.Options{})
	assert.Error(t, err)
}
