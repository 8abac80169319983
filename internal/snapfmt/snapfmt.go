// Package snapfmt encodes and decodes byte-run databases as a versioned
// binary stream. The root package wraps the stream in zstd; snapfmt itself
// is compression-agnostic.
//
// Layout, little-endian:
//
//	magic    [8]byte  "FLOCSNAP"
//	version  uint16
//	per partition (allocated, then unallocated):
//	    count uint64
//	    count extents: start uint64, end uint64, name, digest,
//	        times flag byte (0 or 1), then four time strings when 1
//
// Strings are uint32 length + bytes.
package snapfmt

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"

	"github.com/featloc/featloc/internal/runs"
)

// Version is the current snapshot format version.
const Version = 1

var magic = [8]byte{'F', 'L', 'O', 'C', 'S', 'N', 'A', 'P'}

// maxStringLen bounds decoded string lengths so a corrupt length field
// cannot drive a huge allocation.
const maxStringLen = 1 << 20

// ErrCorrupt is returned when a snapshot stream cannot be decoded.
var ErrCorrupt = errors.New("featloc: corrupt snapshot")

// Encode writes both partitions to w.
func Encode(w io.Writer, allocated, unallocated []runs.Extent) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(magic[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint16(Version)); err != nil {
		return err
	}
	for _, part := range [][]runs.Extent{allocated, unallocated} {
		if err := binary.Write(bw, binary.LittleEndian, uint64(len(part))); err != nil {
			return err
		}
		for _, e := range part {
			if err := encodeExtent(bw, e); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func encodeExtent(w *bufio.Writer, e runs.Extent) error {
	if err := binary.Write(w, binary.LittleEndian, e.Start); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, e.End); err != nil {
		return err
	}
	if err := writeString(w, e.Info.Name); err != nil {
		return err
	}
	if err := writeString(w, string(e.Info.Digest)); err != nil {
		return err
	}
	if e.Info.Times == nil {
		return w.WriteByte(0)
	}
	if err := w.WriteByte(1); err != nil {
		return err
	}
	for _, s := range []string{e.Info.Times.Crtime, e.Info.Times.Ctime, e.Info.Times.Mtime, e.Info.Times.Atime} {
		if err := writeString(w, s); err != nil {
			return err
		}
	}
	return nil
}

func writeString(w *bufio.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.WriteString(s)
	return err
}

// Decode reads both partitions from r. Any structural problem, including a
// bad magic or version, is reported as ErrCorrupt.
func Decode(r io.Reader) (allocated, unallocated []runs.Extent, err error) {
	br := bufio.NewReader(r)

	var m [8]byte
	if _, err := io.ReadFull(br, m[:]); err != nil {
		return nil, nil, corrupt("read magic: %v", err)
	}
	if m != magic {
		return nil, nil, corrupt("bad magic %q", m[:])
	}
	var version uint16
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, nil, corrupt("read version: %v", err)
	}
	if version != Version {
		return nil, nil, corrupt("unsupported version %d", version)
	}

	parts := make([][]runs.Extent, 2)
	for i := range parts {
		var count uint64
		if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
			return nil, nil, corrupt("read extent count: %v", err)
		}
		exts := make([]runs.Extent, 0, min(count, uint64(1<<16)))
		for n := uint64(0); n < count; n++ {
			e, err := decodeExtent(br)
			if err != nil {
				return nil, nil, err
			}
			exts = append(exts, e)
		}
		parts[i] = exts
	}

	// Trailing bytes mean the stream was not produced by Encode.
	if _, err := br.ReadByte(); err != io.EOF {
		return nil, nil, corrupt("trailing data")
	}
	return parts[0], parts[1], nil
}

func decodeExtent(r *bufio.Reader) (runs.Extent, error) {
	var e runs.Extent
	if err := binary.Read(r, binary.LittleEndian, &e.Start); err != nil {
		return e, corrupt("read extent start: %v", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &e.End); err != nil {
		return e, corrupt("read extent end: %v", err)
	}
	name, err := readString(r)
	if err != nil {
		return e, err
	}
	dig, err := readString(r)
	if err != nil {
		return e, err
	}
	e.Info.Name = name
	e.Info.Digest = digest.Digest(dig)

	flag, err := r.ReadByte()
	if err != nil {
		return e, corrupt("read times flag: %v", err)
	}
	switch flag {
	case 0:
	case 1:
		var mac runs.MACTimes
		for _, p := range []*string{&mac.Crtime, &mac.Ctime, &mac.Mtime, &mac.Atime} {
			if *p, err = readString(r); err != nil {
				return e, err
			}
		}
		e.Info.Times = &mac
	default:
		return e, corrupt("bad times flag %d", flag)
	}
	return e, nil
}

func readString(r *bufio.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", corrupt("read string length: %v", err)
	}
	if n > maxStringLen {
		return "", corrupt("string length %d exceeds limit", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", corrupt("read string: %v", err)
	}
	return string(buf), nil
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}
