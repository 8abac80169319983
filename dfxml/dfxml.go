// Package dfxml reads fiwalk DFXML streams and yields one file record per
// fileobject element.
//
// Only the subset of DFXML that byte-run resolution needs is decoded:
// filename, allocation status, MD5 digest, the four timestamps, and the
// byte_runs extents. Everything else is skipped. Individual malformed
// fileobjects and byte runs are dropped, never fatal; only a broken XML
// stream aborts the read.
package dfxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/opencontainers/go-digest"

	"github.com/featloc/featloc/internal/runs"
)

// FileRecord is the walker-side record type, shared with the root package.
type FileRecord = runs.FileRecord

// ByteRun is a single extent descriptor.
type ByteRun = runs.ByteRun

// fileObject mirrors the DFXML fileobject element.
type fileObject struct {
	Filename string       `xml:"filename"`
	Alloc    *int         `xml:"alloc"`
	Unalloc  *int         `xml:"unalloc"`
	Crtime   string       `xml:"crtime"`
	Ctime    string       `xml:"ctime"`
	Mtime    string       `xml:"mtime"`
	Atime    string       `xml:"atime"`
	Digests  []hashDigest `xml:"hashdigest"`
	ByteRuns struct {
		Runs []byteRun `xml:"byte_run"`
	} `xml:"byte_runs"`
}

type hashDigest struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

// byteRun keeps the offset attributes as strings so a single bad attribute
// drops one run instead of failing the whole fileobject decode.
type byteRun struct {
	ImgOffset string `xml:"img_offset,attr"`
	Len       string `xml:"len,attr"`
}

// allocated reports the fileobject's allocation status. fiwalk emits either
// an <alloc> or an <unalloc> flag; a fileobject with neither is treated as
// allocated.
func (fo *fileObject) allocated() bool {
	if fo.Alloc != nil {
		return *fo.Alloc == 1
	}
	if fo.Unalloc != nil {
		return *fo.Unalloc != 1
	}
	return true
}

// md5 returns the fileobject's MD5 digest, or "" when fiwalk did not hash
// the file.
func (fo *fileObject) md5() digest.Digest {
	for _, h := range fo.Digests {
		if strings.EqualFold(h.Type, "md5") && h.Value != "" {
			return digest.NewDigestFromEncoded(digest.Algorithm("md5"), strings.TrimSpace(h.Value))
		}
	}
	return ""
}

// record converts the decoded fileobject, dropping byte runs whose offset or
// length attributes do not parse as integers.
func (fo *fileObject) record() FileRecord {
	rec := FileRecord{
		Name:      fo.Filename,
		Allocated: fo.allocated(),
		Digest:    fo.md5(),
		Crtime:    fo.Crtime,
		Ctime:     fo.Ctime,
		Mtime:     fo.Mtime,
		Atime:     fo.Atime,
	}
	for _, r := range fo.ByteRuns.Runs {
		off, err := strconv.ParseUint(r.ImgOffset, 10, 64)
		if err != nil {
			continue
		}
		length, err := strconv.ParseUint(r.Len, 10, 64)
		if err != nil {
			continue
		}
		rec.Runs = append(rec.Runs, ByteRun{ImgOffset: off, Len: length})
	}
	return rec
}

// Read streams fileobject elements from r, invoking fn for each record.
//
// Decoding stops when fn returns an error, which is returned unwrapped.
func Read(r io.Reader, fn func(FileRecord) error) error {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("dfxml: read token: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "fileobject" {
			continue
		}

		var fo fileObject
		if err := dec.DecodeElement(&fo, &start); err != nil {
			// A fileobject that fails to decode is skippable as long as the
			// decoder can keep tokenizing the stream.
			var syntax *xml.SyntaxError
			if errors.As(err, &syntax) {
				return fmt.Errorf("dfxml: decode fileobject: %w", err)
			}
			continue
		}
		if err := fn(fo.record()); err != nil {
			return err
		}
	}
}
