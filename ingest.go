package featloc

import (
	"fmt"
	"io"
	"math"

	"github.com/featloc/featloc/dfxml"
	"github.com/featloc/featloc/internal/runs"
)

// ingestProgressEvery controls how often Add logs ingestion progress.
const ingestProgressEvery = 1000

// Add inserts every byte run of one file record into the appropriate
// partition.
//
// The owner filename is prefixed with "*" when the record is unallocated.
// Runs whose length is zero or whose end overflows are dropped without
// failing the record.
func (l *Locator) Add(rec FileRecord) {
	info := runs.FileInfo{
		Name:   rec.Name,
		Digest: rec.Digest,
	}
	if !rec.Allocated {
		info.Name = UnallocatedPrefix + rec.Name
	}
	if l.captureTimes {
		info.Times = &runs.MACTimes{
			Crtime: rec.Crtime,
			Ctime:  rec.Ctime,
			Mtime:  rec.Mtime,
			Atime:  rec.Atime,
		}
	}

	db := &l.allocated
	if !rec.Allocated {
		db = &l.unallocated
	}
	for _, run := range rec.Runs {
		if run.Len == 0 || run.ImgOffset > math.MaxUint64-run.Len {
			l.metrics.extentsDropped.Inc()
			l.log().Debug("dropping malformed extent",
				"file", rec.Name, "offset", run.ImgOffset, "len", run.Len)
			continue
		}
		if db.Insert(runs.Extent{Start: run.ImgOffset, End: run.ImgOffset + run.Len, Info: info}) {
			l.metrics.extentsDropped.Inc()
			continue
		}
		l.metrics.extentsIngested.Inc()
	}

	l.fileCount++
	l.metrics.recordsIngested.Inc()
	if l.fileCount%ingestProgressEvery == 0 {
		l.log().Debug("ingestion progress", "files", l.fileCount, "extents", l.Len())
	}
}

// IngestDFXML populates the index from a fiwalk DFXML stream.
//
// Malformed file objects and extents are skipped. It returns ErrEmptyIndex
// when the stream yields no usable extents, and sorts the index so the
// Locator is ready for concurrent resolution.
func (l *Locator) IngestDFXML(r io.Reader) error {
	if err := dfxml.Read(r, func(rec FileRecord) error {
		l.Add(rec)
		return nil
	}); err != nil {
		return fmt.Errorf("featloc: read DFXML: %w", err)
	}
	if l.Len() == 0 {
		return ErrEmptyIndex
	}
	l.Warm()
	return nil
}
