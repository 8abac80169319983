package featloc

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"time"
)

// Stats are the counters for one annotation pipeline.
//
// Each pipeline owns its own Stats, so any number of pipelines can run
// concurrently over a built index. For every stream, Located + Unresolved
// equals Features.
type Stats struct {
	// Features is the number of non-comment feature records processed.
	Features int

	// Located is the number of features resolved to an owning file.
	Located int

	// Unresolved is the number of features with no covering extent,
	// including features whose path token failed to parse.
	Unresolved int

	// Encoded is the number of features found in carved or transformed
	// regions (path token contains a dash).
	Encoded int

	// Malformed is the number of lines skipped because they did not split
	// into exactly three fields.
	Malformed int

	// Elapsed is the wall-clock duration of the pass.
	Elapsed time.Duration
}

// add accumulates stats from another pipeline into this one.
func (s *Stats) add(other Stats) {
	s.Features += other.Features
	s.Located += other.Located
	s.Unresolved += other.Unresolved
	s.Encoded += other.Encoded
	s.Malformed += other.Malformed
	s.Elapsed += other.Elapsed
}

// AnnotateOption configures one annotation pass.
type AnnotateOption func(*annotateConfig)

type annotateConfig struct {
	terse       bool
	commandLine string
}

// AnnotateTerse omits the context column from annotated output.
func AnnotateTerse(terse bool) AnnotateOption {
	return func(c *annotateConfig) {
		c.terse = terse
	}
}

// AnnotateCommandLine records the invoking command line as a comment in the
// output header.
func AnnotateCommandLine(cmd string) AnnotateOption {
	return func(c *annotateConfig) {
		c.commandLine = cmd
	}
}

// maxLineSize bounds a single feature line. Context fields are at most a few
// hundred bytes in practice; this leaves generous headroom.
const maxLineSize = 4 << 20

// Annotate streams feature records from r, resolves each against the index,
// and writes annotated records plus a trailing summary block to w.
//
// Lines starting with "#" pass through unchanged. Malformed lines and
// unparseable offsets are logged and counted, never fatal; only read and
// write failures (or context cancellation) abort the pass. Annotate never
// mutates the index, so concurrent passes over one built Locator are safe.
func (l *Locator) Annotate(ctx context.Context, r io.Reader, w io.Writer, opts ...AnnotateOption) (Stats, error) {
	var cfg annotateConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	out := bufio.NewWriter(w)
	l.writeHeader(out, cfg)

	var stats Stats
	start := time.Now()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	lineno := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		lineno++
		line := sc.Bytes()

		if isCommentLine(line) {
			out.Write(line)
			out.WriteByte('\n')
			continue
		}

		fields := bytes.Split(line, []byte{'\t'})
		if len(fields) != 3 {
			stats.Malformed++
			l.metrics.malformedLines.Inc()
			l.log().Warn("skipping malformed feature line",
				"line", lineno, "text", string(line), "err", ErrMalformedLine)
			continue
		}
		path, feature, fctx := fields[0], fields[1], fields[2]

		stats.Features++
		l.metrics.featuresTotal.Inc()
		if bytes.IndexByte(path, '-') >= 0 {
			stats.Encoded++
			l.metrics.featuresEncoded.Inc()
		}

		e, found, err := l.ResolvePath(path)
		if err != nil {
			// No offset means no resolution; the record still flows through.
			l.log().Warn("unparseable feature offset", "line", lineno, "err", err)
		}

		out.Write(path)
		out.WriteByte('\t')
		out.Write(feature)
		if !cfg.terse {
			out.WriteByte('\t')
			out.Write(fctx)
		}
		if found {
			stats.Located++
			l.metrics.featuresLocated.Inc()
			writeOwner(out, e)
		} else {
			stats.Unresolved++
			l.metrics.featuresMissed.Inc()
		}
		if err := out.WriteByte('\n'); err != nil {
			return stats, fmt.Errorf("featloc: write annotated stream: %w", err)
		}
	}
	if err := sc.Err(); err != nil {
		return stats, fmt.Errorf("featloc: read feature stream: %w", err)
	}

	stats.Elapsed = time.Since(start)
	writeSummary(out, stats)
	if err := out.Flush(); err != nil {
		return stats, fmt.Errorf("featloc: write annotated stream: %w", err)
	}
	return stats, nil
}

func (l *Locator) writeHeader(out *bufio.Writer, cfg annotateConfig) {
	out.WriteString("# Position\tFeature")
	if !cfg.terse {
		out.WriteString("\tContext")
	}
	out.WriteString("\tFilename\tMD5")
	if l.captureTimes {
		out.WriteString("\tcrtime\tctime\tmtime\tatime")
	}
	out.WriteByte('\n')
	if cfg.commandLine != "" {
		out.WriteString("# ")
		out.WriteString(cfg.commandLine)
		out.WriteByte('\n')
	}
}

// writeOwner appends the owning file's fields to an annotated line.
func writeOwner(out *bufio.Writer, e Extent) {
	out.WriteByte('\t')
	out.WriteString(e.Info.Name)
	out.WriteByte('\t')
	if e.Info.Digest != "" {
		out.WriteString(e.Info.Digest.Encoded())
	}
	if t := e.Info.Times; t != nil {
		for _, s := range []string{t.Crtime, t.Ctime, t.Mtime, t.Atime} {
			out.WriteByte('\t')
			out.WriteString(s)
		}
	}
}

func writeSummary(out *bufio.Writer, stats Stats) {
	fmt.Fprintf(out, "# Total features input: %d\n", stats.Features)
	fmt.Fprintf(out, "# Total features located to files: %d\n", stats.Located)
	fmt.Fprintf(out, "# Total features in unallocated space: %d\n", stats.Unresolved)
	fmt.Fprintf(out, "# Total features in encoded regions: %d\n", stats.Encoded)
	fmt.Fprintf(out, "# Total processing time: %.1f seconds\n", stats.Elapsed.Seconds())
}

// utf8BOM may precede the comment marker in feature files written on
// Windows.
var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// isCommentLine reports whether a feature line is a comment, optionally
// preceded by a UTF-8 byte order mark.
func isCommentLine(line []byte) bool {
	line = bytes.TrimPrefix(line, utf8BOM)
	return len(line) > 0 && line[0] == '#'
}
