package featloc

import "github.com/featloc/featloc/internal/runs"

// --- Re-exports from internal/runs ---

// Extent is a half-open byte range [Start, End) attributed to one file.
type Extent = runs.Extent

// FileInfo identifies the file owning an extent.
type FileInfo = runs.FileInfo

// MACTimes holds the four filesystem timestamps as recorded by the walker.
type MACTimes = runs.MACTimes

// FileRecord is one file as reported by the external filesystem walker.
type FileRecord = runs.FileRecord

// ByteRun is a single extent descriptor from a walker file record.
type ByteRun = runs.ByteRun

// UnallocatedPrefix marks owner filenames whose extents came from deleted or
// otherwise unallocated files.
const UnallocatedPrefix = "*"
