// Package offset decodes feature path tokens into absolute image offsets.
package offset

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrMalformed is returned when no integer offset can be extracted from a
// path token.
var ErrMalformed = errors.New("featloc: malformed offset")

// xorRE matches transform tokens of the form <origin>-XOR-<suboffset>.
var xorRE = regexp.MustCompile(`^(\d+)-XOR-(\d+)`)

// Parse decodes a path token into an absolute byte offset.
//
// Three forms are recognized, tried in order:
//
//   - "<A>-XOR-<B>": the feature sits inside an XOR-decoded region carved at
//     A; the image offset is A+B.
//   - "<A>-<rest>": a carved or transformed offset; only the origin before
//     the first dash is used.
//   - "<A>": a plain integer offset.
//
// The XOR form must be checked before the dash split or the suboffset would
// be discarded.
func Parse(token []byte) (uint64, error) {
	if m := xorRE.FindSubmatch(token); m != nil {
		origin, err := strconv.ParseUint(string(m[1]), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformed, token)
		}
		sub, err := strconv.ParseUint(string(m[2]), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformed, token)
		}
		return origin + sub, nil
	}

	if i := bytes.IndexByte(token, '-'); i >= 0 {
		token = token[:i]
	}
	n, err := strconv.ParseUint(string(token), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, token)
	}
	return n, nil
}
