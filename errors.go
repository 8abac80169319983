package featloc

import (
	"errors"

	"github.com/featloc/featloc/internal/offset"
	"github.com/featloc/featloc/internal/snapfmt"
)

// Sentinel errors re-exported from internal packages.
var (
	// ErrMalformedOffset is returned when a feature path token yields no
	// integer offset. The annotation pipeline recovers from it per record.
	ErrMalformedOffset = offset.ErrMalformed

	// ErrCorruptSnapshot is returned when a snapshot cannot be decoded into
	// a valid index.
	ErrCorruptSnapshot = snapfmt.ErrCorrupt
)

// Sentinel errors specific to this package.
var (
	// ErrMalformedLine is returned when a feature line does not split into
	// exactly three tab-separated fields. The annotation pipeline recovers
	// from it per line.
	ErrMalformedLine = errors.New("featloc: malformed feature line")

	// ErrEmptyIndex is returned when ingestion produced zero byte extents.
	// An empty index guarantees universal non-resolution and indicates an
	// upstream problem, so it is a hard failure.
	ErrEmptyIndex = errors.New("featloc: no byte extents ingested")
)
