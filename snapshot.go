package featloc

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/featloc/featloc/internal/snapfmt"
)

// SaveSnapshot writes the built index to path as a zstd-compressed blob.
//
// The write is atomic (temp file + rename) so a crashed save never leaves a
// partial snapshot behind. Parent directories are created as needed.
func (l *Locator) SaveSnapshot(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("featloc: create snapshot directory: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".featloc-*")
	if err != nil {
		return fmt.Errorf("featloc: create snapshot: %w", err)
	}
	tmpPath := tmp.Name()

	if err := l.writeSnapshot(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("featloc: write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("featloc: write snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("featloc: write snapshot: %w", err)
	}
	return nil
}

func (l *Locator) writeSnapshot(f *os.File) error {
	enc, err := zstd.NewWriter(f)
	if err != nil {
		return err
	}
	if err := snapfmt.Encode(enc, l.allocated.Extents(), l.unallocated.Extents()); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// LoadSnapshot restores a Locator from a snapshot written by SaveSnapshot.
//
// Decode failures return ErrCorruptSnapshot. The restored index round-trips
// every extent and FileInfo field exactly, resolves identically to the
// original, and is already sorted for concurrent use. Timestamp emission
// follows the snapshot contents, so pass the same WithTimestamps setting the
// index was built with.
func LoadSnapshot(path string, opts ...Option) (*Locator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("featloc: open snapshot: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptSnapshot, err)
	}
	defer dec.Close()

	allocated, unallocated, err := snapfmt.Decode(dec)
	if err != nil {
		return nil, err
	}

	l := New(opts...)
	for _, e := range allocated {
		l.allocated.Insert(e)
	}
	for _, e := range unallocated {
		l.unallocated.Insert(e)
	}
	l.Warm()
	return l, nil
}
