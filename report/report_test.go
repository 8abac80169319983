package report

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reportXML = `<?xml version="1.0"?>
<dfxml>
  <source>
    <image_filename>/images/nps-2011.E01</image_filename>
  </source>
</dfxml>`

var reportFiles = map[string]string{
	"report.xml":             reportXML,
	"email.txt":              "# BANNER\n1000\tfoo@example.com\tctx\n",
	"ccn.txt":                "",
	"email_histogram.txt":    "n=5\tfoo@example.com\n",
	"wordlist_split_000.txt": "hello\n",
	"packets.pcap":           "",
}

func writeReportDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range reportFiles {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func writeReportZip(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "report.zip")
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range reportFiles {
		w, err := zw.Create("nps-2011/" + name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return p
}

func testReport(t *testing.T, open func(*testing.T) string) {
	r, err := Open(open(t))
	require.NoError(t, err)
	defer r.Close()

	t.Run("feature files", func(t *testing.T) {
		names, err := r.FeatureFiles()
		require.NoError(t, err)
		assert.Equal(t, []string{"ccn.txt", "email.txt"}, names)
	})

	t.Run("open feature file", func(t *testing.T) {
		f, err := r.Open("email.txt")
		require.NoError(t, err)
		defer f.Close()
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Contains(t, string(data), "foo@example.com")
	})

	t.Run("open missing file", func(t *testing.T) {
		_, err := r.Open("missing.txt")
		assert.Error(t, err)
	})

	t.Run("image filename", func(t *testing.T) {
		name, err := r.ImageFilename()
		require.NoError(t, err)
		assert.Equal(t, "/images/nps-2011.E01", name)
	})
}

func TestReportDir(t *testing.T) {
	t.Parallel()
	testReport(t, writeReportDir)
}

func TestReportZip(t *testing.T) {
	t.Parallel()
	testReport(t, writeReportZip)
}

func TestOpenMissing(t *testing.T) {
	t.Parallel()
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestImageFilenameMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.xml"), []byte("<dfxml></dfxml>"), 0o644))
	r, err := Open(dir)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ImageFilename()
	assert.ErrorIs(t, err, ErrNoImageFilename)
}
