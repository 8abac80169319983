// Package report provides read access to bulk_extractor report containers:
// the output directory (or a ZIP archive of one) holding report.xml and the
// feature files a run produced.
package report

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoImageFilename is returned when report.xml does not record the source
// image path.
var ErrNoImageFilename = errors.New("report: no image filename in report.xml")

// Report is an open bulk_extractor report, backed by a directory or a ZIP
// archive.
type Report struct {
	dir string
	zr  *zip.ReadCloser
	// names maps a feature-file name to its path inside the zip. Directory
	// reports resolve names directly against dir.
	names map[string]string
}

// Open opens a report directory or ZIP archive.
func Open(p string) (*Report, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("report: open %s: %w", p, err)
	}
	if info.IsDir() {
		return &Report{dir: p}, nil
	}

	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("report: open %s: %w", p, err)
	}
	r := &Report{zr: zr, names: make(map[string]string)}
	for _, f := range zr.File {
		// Reports zipped with their directory keep one level of nesting.
		base := path.Base(f.Name)
		if _, ok := r.names[base]; !ok {
			r.names[base] = f.Name
		}
	}
	return r, nil
}

// Close releases the underlying archive, if any.
func (r *Report) Close() error {
	if r.zr != nil {
		return r.zr.Close()
	}
	return nil
}

// Open returns the named file from the report.
func (r *Report) Open(name string) (io.ReadCloser, error) {
	if r.zr != nil {
		full, ok := r.names[name]
		if !ok {
			return nil, fmt.Errorf("report: %s: %w", name, os.ErrNotExist)
		}
		f, err := r.zr.Open(full)
		if err != nil {
			return nil, fmt.Errorf("report: open %s: %w", name, err)
		}
		return f, nil
	}
	f, err := os.Open(filepath.Join(r.dir, name))
	if err != nil {
		return nil, fmt.Errorf("report: open %s: %w", name, err)
	}
	return f, nil
}

// FeatureFiles lists the feature files in the report, sorted by name.
//
// Histogram and wordlist outputs are not feature files and are excluded.
func (r *Report) FeatureFiles() ([]string, error) {
	var names []string
	if r.zr != nil {
		for name := range r.names {
			if isFeatureFile(name) {
				names = append(names, name)
			}
		}
	} else {
		entries, err := os.ReadDir(r.dir)
		if err != nil {
			return nil, fmt.Errorf("report: list %s: %w", r.dir, err)
		}
		for _, e := range entries {
			if !e.IsDir() && isFeatureFile(e.Name()) {
				names = append(names, e.Name())
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

func isFeatureFile(name string) bool {
	if !strings.HasSuffix(name, ".txt") {
		return false
	}
	if strings.Contains(name, "histogram") {
		return false
	}
	if strings.HasPrefix(name, "wordlist") {
		return false
	}
	return true
}

// ImageFilename returns the source image path recorded in report.xml.
func (r *Report) ImageFilename() (string, error) {
	f, err := r.Open("report.xml")
	if err != nil {
		return "", err
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return "", ErrNoImageFilename
		}
		if err != nil {
			return "", fmt.Errorf("report: parse report.xml: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "image_filename" {
			continue
		}
		var name string
		if err := dec.DecodeElement(&name, &start); err != nil {
			return "", fmt.Errorf("report: parse report.xml: %w", err)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return "", ErrNoImageFilename
		}
		return name, nil
	}
}
