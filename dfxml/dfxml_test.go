package dfxml

import (
	"strings"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDFXML = `<?xml version="1.0" encoding="UTF-8"?>
<dfxml version="1.0">
  <volume offset="512">
    <fileobject>
      <filename>docs/report.doc</filename>
      <alloc>1</alloc>
      <mtime>2011-05-03T10:00:00Z</mtime>
      <crtime>2011-05-01T10:00:00Z</crtime>
      <hashdigest type='md5'>0cc175b9c0f1b6a831c399e269772661</hashdigest>
      <byte_runs>
        <byte_run img_offset='1048576' len='4096'/>
        <byte_run img_offset='1052672' len='512'/>
      </byte_runs>
    </fileobject>
    <fileobject>
      <filename>deleted.txt</filename>
      <unalloc>1</unalloc>
      <byte_runs>
        <byte_run img_offset='2097152' len='1024'/>
        <byte_run img_offset='bogus' len='1024'/>
        <byte_run img_offset='3145728' len='-1'/>
      </byte_runs>
    </fileobject>
    <fileobject>
      <filename>empty.txt</filename>
      <alloc>1</alloc>
      <byte_runs/>
    </fileobject>
  </volume>
</dfxml>`

func readAll(t *testing.T, doc string) []FileRecord {
	t.Helper()
	var recs []FileRecord
	err := Read(strings.NewReader(doc), func(rec FileRecord) error {
		recs = append(recs, rec)
		return nil
	})
	require.NoError(t, err)
	return recs
}

func TestRead(t *testing.T) {
	t.Parallel()

	recs := readAll(t, sampleDFXML)
	require.Len(t, recs, 3)

	doc := recs[0]
	assert.Equal(t, "docs/report.doc", doc.Name)
	assert.True(t, doc.Allocated)
	assert.Equal(t, digest.Digest("md5:0cc175b9c0f1b6a831c399e269772661"), doc.Digest)
	assert.Equal(t, "2011-05-03T10:00:00Z", doc.Mtime)
	assert.Equal(t, "2011-05-01T10:00:00Z", doc.Crtime)
	assert.Equal(t, []ByteRun{
		{ImgOffset: 1048576, Len: 4096},
		{ImgOffset: 1052672, Len: 512},
	}, doc.Runs)

	del := recs[1]
	assert.Equal(t, "deleted.txt", del.Name)
	assert.False(t, del.Allocated)
	assert.Empty(t, del.Digest)
	// Runs with unparseable attributes are dropped, not fatal.
	assert.Equal(t, []ByteRun{{ImgOffset: 2097152, Len: 1024}}, del.Runs)

	assert.Empty(t, recs[2].Runs)
}

func TestReadCallbackError(t *testing.T) {
	t.Parallel()

	wantErr := assert.AnError
	err := Read(strings.NewReader(sampleDFXML), func(FileRecord) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestReadBrokenStream(t *testing.T) {
	t.Parallel()

	err := Read(strings.NewReader("<dfxml><fileobject><filename>x"), func(FileRecord) error {
		return nil
	})
	assert.Error(t, err)
}

func TestReadNoFileobjects(t *testing.T) {
	t.Parallel()

	recs := readAll(t, `<dfxml version="1.0"></dfxml>`)
	assert.Empty(t, recs)
}
