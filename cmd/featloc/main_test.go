package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/featloc/featloc/report"
)

const testReportXML = `<?xml version="1.0"?>
<dfxml>
  <source>
    <image_filename>/images/nps-2011.E01</image_filename>
  </source>
</dfxml>`

const testDFXML = `<dfxml>
  <fileobject>
    <filename>report.doc</filename>
    <alloc>1</alloc>
    <byte_runs><byte_run img_offset='900' len='200'/></byte_runs>
  </fileobject>
</dfxml>`

func writeTestReport(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"report.xml": testReportXML,
		"email.txt":  "# BANNER\n1000\tfoo@example.com\tctx\n9000\tbar@example.com\tctx\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func writeTestDFXML(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fiwalk.xml")
	require.NoError(t, os.WriteFile(path, []byte(testDFXML), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResolveImageFilename(t *testing.T) {
	t.Parallel()

	rep, err := report.Open(writeTestReport(t))
	require.NoError(t, err)
	defer rep.Close()

	t.Run("recorded in report.xml", func(t *testing.T) {
		assert.Equal(t, "/images/nps-2011.E01", resolveImageFilename(rep, ""))
	})

	t.Run("override wins", func(t *testing.T) {
		assert.Equal(t, "/elsewhere/copy.raw", resolveImageFilename(rep, "/elsewhere/copy.raw"))
	})

	t.Run("no recording", func(t *testing.T) {
		bare, err := report.Open(t.TempDir())
		require.NoError(t, err)
		defer bare.Close()
		assert.Empty(t, resolveImageFilename(bare, ""))
	})
}

func TestListFeatureFiles(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "--list", writeTestReport(t))
	require.NoError(t, err)
	assert.Contains(t, out, "email.txt\n")
	assert.NotContains(t, out, "report.xml")
}

func TestRunAnnotates(t *testing.T) {
	t.Parallel()

	repDir := writeTestReport(t)
	outdir := filepath.Join(t.TempDir(), "out")

	out, err := execute(t, repDir, outdir,
		"--all", "--xmlfile", writeTestDFXML(t), "--image-filename", "/elsewhere/copy.raw")
	require.NoError(t, err)
	assert.Contains(t, out, "Total features: 2")
	assert.Contains(t, out, "Total located:  1")

	// Output files are closed before run returns, so the annotated stream
	// including its summary block is fully on disk.
	data, err := os.ReadFile(filepath.Join(outdir, "annotated_email.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "1000\tfoo@example.com\tctx\treport.doc\t")
	assert.Contains(t, string(data), "9000\tbar@example.com\tctx\n")
	assert.Contains(t, string(data), "# Total features input: 2\n")
}

func TestRunRefusesOverwrite(t *testing.T) {
	t.Parallel()

	repDir := writeTestReport(t)
	outdir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outdir, "annotated_email.txt"), nil, 0o644))

	_, err := execute(t, repDir, outdir, "--all", "--xmlfile", writeTestDFXML(t))
	assert.ErrorContains(t, err, "already exists")
}

func TestRunRequiresFileMap(t *testing.T) {
	t.Parallel()

	_, err := execute(t, writeTestReport(t), t.TempDir(), "--all")
	assert.ErrorContains(t, err, "--xmlfile")
}
