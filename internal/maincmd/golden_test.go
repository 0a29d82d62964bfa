package maincmd_test

import (
	"bytes"
	"flag"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/snake-lang/snakec/internal/filetest"
	"github.com/snake-lang/snakec/internal/maincmd"
)

var testUpdateUniquifyTests = flag.Bool("test.update-uniquify-tests", false, "If set, replace expected uniquify golden results with actual results.")

// TestUniquifyGolden drives the uniquify subcommand over every .snake file
// in testdata/in and diffs its stdout/stderr against the matching golden
// file in testdata/out, a fixture-driven pattern rebased here onto the
// uniquify pass since front-end tokenizing/parsing is out of scope
// (SPEC_FULL.md Non-goals).
func TestUniquifyGolden(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".snake") {
		t.Run(fi.Name(), func(t *testing.T) {
			var buf, ebuf bytes.Buffer
			stdio := mainer.Stdio{Stdout: &buf, Stderr: &ebuf}

			// error is ignored, we just want it reflected in ebuf
			_ = maincmd.UniquifyFile(stdio, filepath.Join(srcDir, fi.Name()))
			filetest.DiffOutput(t, fi, buf.String(), resultDir, testUpdateUniquifyTests)
			filetest.DiffErrors(t, fi, ebuf.String(), resultDir, testUpdateUniquifyTests)
		})
	}
}
