// Package runs implements the byte-run database: a sorted-on-demand
// collection of byte extents mapping image offsets to owning files.
package runs

import (
	"fmt"
	"io"
	"sort"

	"github.com/opencontainers/go-digest"
)

// MACTimes holds the four filesystem timestamps as recorded by the walker.
//
// Values are kept verbatim (the walker's string form) so annotated output
// reproduces them byte-for-byte.
type MACTimes struct {
	Crtime string
	Ctime  string
	Mtime  string
	Atime  string
}

// FileInfo identifies the file owning an extent.
//
// FileInfo is captured at insertion time and never mutated. Name carries a
// leading "*" when the owning file is unallocated. Digest may be empty when
// the walker did not hash the file. Times is nil unless timestamp capture
// was enabled during ingestion.
type FileInfo struct {
	Name   string
	Digest digest.Digest
	Times  *MACTimes
}

// Extent is a half-open byte range [Start, End) attributed to one file.
type Extent struct {
	Start uint64
	End   uint64
	Info  FileInfo
}

// Contains reports whether off falls inside the extent.
func (e Extent) Contains(off uint64) bool {
	return e.Start <= off && off < e.End
}

// ByteRun is a single extent descriptor from a walker file record.
type ByteRun struct {
	ImgOffset uint64
	Len       uint64
}

// FileRecord is one file as reported by the external filesystem walker.
//
// Timestamps are the walker's string form, empty when absent.
type FileRecord struct {
	Name      string
	Allocated bool
	Digest    digest.Digest
	Crtime    string
	Ctime     string
	Mtime     string
	Atime     string
	Runs      []ByteRun
}

// DB holds byte extents and answers point lookups.
//
// Inserts append and mark the database unsorted; the first lookup after an
// insert sorts the extents by start offset. DB is append-only: extents are
// never removed. Lookups after the build phase are safe to run concurrently;
// Insert is not safe to interleave with Lookup.
type DB struct {
	extents []Extent
	dirty   bool
}

// Insert adds an extent. Extents with Start >= End are dropped; the dropped
// return value reports whether that happened.
func (db *DB) Insert(e Extent) (dropped bool) {
	if e.Start >= e.End {
		return true
	}
	db.extents = append(db.extents, e)
	db.dirty = true
	return false
}

// Len returns the number of stored extents.
func (db *DB) Len() int {
	return len(db.extents)
}

// Lookup returns the extent containing off.
//
// An extent whose start equals off wins over an earlier, wider extent that
// also covers off. When several extents share the same start, the leftmost
// one in sorted order is returned; sorting is by start only, so the choice
// among equal starts is stable for a built database but unrelated to
// insertion order.
func (db *DB) Lookup(off uint64) (Extent, bool) {
	if db.dirty {
		sort.Slice(db.extents, func(i, j int) bool {
			return db.extents[i].Start < db.extents[j].Start
		})
		db.dirty = false
	}

	// Leftmost extent with Start >= off.
	i := sort.Search(len(db.extents), func(i int) bool {
		return db.extents[i].Start >= off
	})

	if i < len(db.extents) && db.extents[i].Start == off {
		return db.extents[i], true
	}
	if i == 0 {
		return Extent{}, false
	}
	if prev := db.extents[i-1]; prev.Contains(off) {
		return prev, true
	}
	return Extent{}, false
}

// Extents returns the underlying extent slice. The caller must not modify it.
func (db *DB) Extents() []Extent {
	return db.extents
}

// Dump writes every extent to w, one per line, in current storage order.
func (db *DB) Dump(w io.Writer) {
	for _, e := range db.extents {
		fmt.Fprintf(w, "[%d,%d) %s %s\n", e.Start, e.End, e.Info.Name, e.Info.Digest)
	}
}
