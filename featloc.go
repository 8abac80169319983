package featloc

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/featloc/featloc/internal/offset"
	"github.com/featloc/featloc/internal/runs"
)

// Locator resolves image byte offsets to the files that own them.
//
// It keeps two byte-run databases, one for allocated files and one for
// unallocated (deleted) files, and resolves offsets against the allocated
// partition first. Populate it with [Locator.Add] or [Locator.IngestDFXML],
// or restore one with [LoadSnapshot].
//
// Sorting is lazy, so the first lookup after an insert is a write. Once the
// index is sorted — after [Locator.IngestDFXML], [LoadSnapshot], or an
// explicit [Locator.Warm] following manual [Locator.Add] calls — the Locator
// is read-only and Resolve and Annotate may be called from any number of
// goroutines. Ingestion itself is not safe to run concurrently.
type Locator struct {
	allocated   runs.DB
	unallocated runs.DB
	fileCount   int
	warmed      bool

	captureTimes bool
	logger       *slog.Logger
	reg          prometheus.Registerer
	metrics      *metrics
}

// New creates an empty Locator.
func New(opts ...Option) *Locator {
	l := &Locator{}
	for _, opt := range opts {
		opt(l)
	}
	l.metrics = newMetrics(l.reg)
	return l
}

// log returns the logger, falling back to a discard logger if nil.
func (l *Locator) log() *slog.Logger {
	if l.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l.logger
}

// Len returns the total number of extents across both partitions.
func (l *Locator) Len() int {
	return l.allocated.Len() + l.unallocated.Len()
}

// FileCount returns the number of file records ingested.
func (l *Locator) FileCount() int {
	return l.fileCount
}

// Resolve returns the extent owning the given image offset.
//
// The allocated partition is searched first: an offset currently owned by a
// live file is attributed to that file even when stale metadata from a
// deleted file also claims the region.
func (l *Locator) Resolve(off uint64) (Extent, bool) {
	if e, ok := l.allocated.Lookup(off); ok {
		return e, true
	}
	return l.unallocated.Lookup(off)
}

// ResolvePath decodes a feature path token and resolves the resulting
// offset. It returns ErrMalformedOffset when no offset can be extracted.
func (l *Locator) ResolvePath(token []byte) (Extent, bool, error) {
	off, err := offset.Parse(token)
	if err != nil {
		return Extent{}, false, err
	}
	e, ok := l.Resolve(off)
	return e, ok, nil
}

// Warm sorts both partitions so later lookups never pay the sort cost.
//
// Calling Warm after ingestion completes establishes the build barrier:
// once it returns, the Locator performs no further writes and concurrent
// resolution is safe.
func (l *Locator) Warm() {
	l.allocated.Lookup(0)
	l.unallocated.Lookup(0)
	l.warmed = true
}

// Dump writes every extent in both partitions to w, for debugging.
func (l *Locator) Dump(w io.Writer) {
	fmt.Fprintln(w, "Allocated:")
	l.allocated.Dump(w)
	fmt.Fprintln(w, "Unallocated:")
	l.unallocated.Dump(w)
}
