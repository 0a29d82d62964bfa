package maincmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/snake-lang/snakec/internal/maincmd"
	"github.com/mna/mainer"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.snake")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func stdio(out, errOut *bytes.Buffer) mainer.Stdio {
	return mainer.Stdio{Stdout: out, Stderr: errOut}
}

func TestCheckFileReportsOkForWellFormedProgram(t *testing.T) {
	path := writeTemp(t, "(prim + (num 1) (num 2))")
	var out, errOut bytes.Buffer
	err := maincmd.CheckFile(stdio(&out, &errOut), path)
	require.NoError(t, err)
	require.Equal(t, "ok\n", out.String())
}

func TestCheckFileReportsErrorForUnboundVariable(t *testing.T) {
	path := writeTemp(t, "(var undefined)")
	var out, errOut bytes.Buffer
	err := maincmd.CheckFile(stdio(&out, &errOut), path)
	require.Error(t, err)
	require.NotEmpty(t, errOut.String())
}

func TestUniquifyFileRenamesBinding(t *testing.T) {
	path := writeTemp(t, "(let ((x (num 1))) (var x))")
	var out, errOut bytes.Buffer
	err := maincmd.UniquifyFile(stdio(&out, &errOut), path)
	require.NoError(t, err)
	require.Contains(t, out.String(), "x$")
}

func TestLiftFileListsGlobalFunctions(t *testing.T) {
	path := writeTemp(t, "(fun ((double (n) (prim + (var n) (var n)))) (call double (num 21)))")
	var out, errOut bytes.Buffer
	err := maincmd.LiftFile(stdio(&out, &errOut), path, true)
	require.NoError(t, err)
	require.Contains(t, out.String(), "/1")
}

func TestSeqFileListsFunctionsAndEntry(t *testing.T) {
	path := writeTemp(t, "(prim + (num 1) (num 2))")
	var out, errOut bytes.Buffer
	err := maincmd.SeqFile(stdio(&out, &errOut), path)
	require.NoError(t, err)
	require.Contains(t, out.String(), "entry")
}

func TestCompileFileEmitsAssembly(t *testing.T) {
	path := writeTemp(t, "(prim + (num 1) (num 2))")
	var out, errOut bytes.Buffer
	err := maincmd.CompileFile(stdio(&out, &errOut), path)
	require.NoError(t, err)
	require.Contains(t, out.String(), "section .text")
}
