package preprocess_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/vesper/lang/preprocess"
)

func nonBlankLines(src []byte) []string {
	var out []string
	for _, line := range strings.Split(string(src), "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, strings.TrimSpace(line))
		}
	}
	return out
}

func TestDefineUndef(t *testing.T) {
	src := []byte("#define FOO\nvar a = 1;\n#undef FOO\nvar b = 2;\n")
	d := preprocess.NewDefined()
	out, errl := preprocess.Process(src, d)
	require.Equal(t, 0, errl.Len())
	assert.Equal(t, []string{"var a = 1;", "var b = 2;"}, nonBlankLines(out))
	_, has := d["FOO"]
	assert.False(t, has)
}

func TestIfdefDefined(t *testing.T) {
	src := []byte("#ifdef FOO\nvar a = 1;\n#else\nvar b = 2;\n#endif\n")
	d := preprocess.NewDefined("FOO")
	out, errl := preprocess.Process(src, d)
	require.Equal(t, 0, errl.Len())
	assert.Equal(t, []string{"var a = 1;"}, nonBlankLines(out))
}

func TestIfdefUndefined(t *testing.T) {
	src := []byte("#ifdef FOO\nvar a = 1;\n#else\nvar b = 2;\n#endif\n")
	d := preprocess.NewDefined()
	out, errl := preprocess.Process(src, d)
	require.Equal(t, 0, errl.Len())
	assert.Equal(t, []string{"var b = 2;"}, nonBlankLines(out))
}

func TestIfndef(t *testing.T) {
	src := []byte("#ifndef FOO\nvar a = 1;\n#endif\n")
	d := preprocess.NewDefined("FOO")
	out, errl := preprocess.Process(src, d)
	require.Equal(t, 0, errl.Len())
	assert.Empty(t, nonBlankLines(out))
}

func TestNestedBranches(t *testing.T) {
	src := []byte(
		"#ifdef OUTER\n" +
			"#ifdef INNER\n" +
			"var a = 1;\n" +
			"#else\n" +
			"var b = 2;\n" +
			"#endif\n" +
			"#endif\n")
	d := preprocess.NewDefined("OUTER")
	out, errl := preprocess.Process(src, d)
	require.Equal(t, 0, errl.Len())
	assert.Equal(t, []string{"var b = 2;"}, nonBlankLines(out))
}

func TestLineCountPreserved(t *testing.T) {
	src := []byte("#define FOO\nvar a = 1;\n#ifdef FOO\nvar b = 2;\n#endif\nvar c = 3;\n")
	out, errl := preprocess.Process(src, preprocess.NewDefined())
	require.Equal(t, 0, errl.Len())
	assert.Equal(t, strings.Count(string(src), "\n"), strings.Count(string(out), "\n"))
}

func TestUnknownDirective(t *testing.T) {
	src := []byte("#bogus\nvar a = 1;\n")
	_, errl := preprocess.Process(src, preprocess.NewDefined())
	require.Equal(t, 1, errl.Len())
	assert.Contains(t, errl[0].Msg, "unknown preprocessor directive")
}

func TestUnterminatedIf(t *testing.T) {
	src := []byte("#ifdef FOO\nvar a = 1;\n")
	_, errl := preprocess.Process(src, preprocess.NewDefined())
	require.Equal(t, 1, errl.Len())
	assert.Contains(t, errl[0].Msg, "unterminated #if")
}

func TestElseWithoutIf(t *testing.T) {
	src := []byte("#else\n")
	_, errl := preprocess.Process(src, preprocess.NewDefined())
	require.Equal(t, 1, errl.Len())
	assert.Contains(t, errl[0].Msg, "#else without matching")
}

func TestEndifWithoutIf(t *testing.T) {
	src := []byte("#endif\n")
	_, errl := preprocess.Process(src, preprocess.NewDefined())
	require.Equal(t, 1, errl.Len())
	assert.Contains(t, errl[0].Msg, "#endif without matching")
}
