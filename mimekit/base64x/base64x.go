// Package base64x is the MIME base64 codec: standard-alphabet base64
// wrapped at a configurable line length with CRLF terminators, as
// RFC 2045 requires for the base64 content-transfer-encoding. It
// layers line wrapping and streaming byte counts on top of
// encoding/base64 rather than reimplementing the alphabet.
package base64x

import (
	"encoding/base64"
	"io"

	"github.com/bit4id/siaep7/internal/readercounter"
)

const (
	DefaultLineLength = 64
	MaxLineLength      = 76
)

// clampLineLength normalizes to a positive multiple of 4 no greater
// than MaxLineLength.
func clampLineLength(n int) int {
	if n <= 0 {
		n = DefaultLineLength
	}
	n -= n % 4
	if n <= 0 {
		n = 4
	}
	if n > MaxLineLength {
		n -= n % 4
		for n > MaxLineLength {
			n -= 4
		}
	}
	return n
}

// Encoder wraps an io.Writer, base64-encoding everything written to
// it and inserting a CRLF every lineLength encoded characters.
type Encoder struct {
	w         io.Writer
	lineLen   int
	col       int
	pending   [3]byte
	pendingN  int
}

// NewEncoder returns an Encoder writing wrapped base64 to w. A
// lineLength of 0 (or any value that doesn't fit the constraints)
// is clamped per clampLineLength.
func NewEncoder(w io.Writer, lineLength int) *Encoder {
	return &Encoder{w: w, lineLen: clampLineLength(lineLength)}
}

func (e *Encoder) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		n := copy(e.pending[e.pendingN:], p)
		e.pendingN += n
		p = p[n:]
		if e.pendingN == 3 {
			if err := e.flushGroup(e.pending[:3]); err != nil {
				return total - len(p), err
			}
			e.pendingN = 0
		}
	}
	return total, nil
}

func (e *Encoder) flushGroup(group []byte) error {
	var out [4]byte
	base64.StdEncoding.Encode(out[:], group)
	return e.writeEncoded(out[:])
}

func (e *Encoder) writeEncoded(chars []byte) error {
	for len(chars) > 0 {
		room := e.lineLen - e.col
		n := len(chars)
		if n > room {
			n = room
		}
		if _, err := e.w.Write(chars[:n]); err != nil {
			return err
		}
		e.col += n
		chars = chars[n:]
		if e.col == e.lineLen {
			if _, err := e.w.Write([]byte("\r\n")); err != nil {
				return err
			}
			e.col = 0
		}
	}
	return nil
}

// Close flushes any partial 1-2 byte group with padding and, if the
// last line wasn't already terminated, writes a final CRLF.
func (e *Encoder) Close() error {
	if e.pendingN > 0 {
		var out [4]byte
		base64.StdEncoding.Encode(out[:], e.pending[:e.pendingN])
		// StdEncoding.Encode already writes the correct '=' padding for the
		// tail group as long as it's fed exactly the input length it got;
		// Encode expects len(src) input bytes and produces the right output
		// for 1 or 2 trailing bytes because it pads internally per RFC 4648.
		if err := e.writeEncoded(out[:4]); err != nil {
			return err
		}
		e.pendingN = 0
	}
	if e.col != 0 {
		_, err := e.w.Write([]byte("\r\n"))
		e.col = 0
		return err
	}
	return nil
}

// EncodeToString is a convenience wrapper for small in-memory payloads.
func EncodeToString(data []byte, lineLength int) (string, error) {
	var sb bytesBuilder
	enc := NewEncoder(&sb, lineLength)
	if _, err := enc.Write(data); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// bytesBuilder avoids importing strings/bytes just for a Write sink;
// kept tiny and unexported since callers only need EncodeToString.
type bytesBuilder struct{ buf []byte }

func (b *bytesBuilder) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}
func (b *bytesBuilder) String() string { return string(b.buf) }

// Decode reads base64 text from r, tolerating embedded whitespace and
// CR/LF line breaks (real S/MIME bodies wrap at arbitrary widths and
// mail relays sometimes mangle line endings), and returns the decoded
// bytes plus the number of raw bytes consumed from r.
func Decode(r io.Reader) ([]byte, int64, error) {
	counted := readercounter.New(r)
	raw, err := io.ReadAll(counted)
	if err != nil {
		return nil, counted.N, err
	}
	clean := make([]byte, 0, len(raw))
	for _, b := range raw {
		switch {
		case b == '\r' || b == '\n' || b == ' ' || b == '\t':
			continue
		case isBase64Char(b):
			clean = append(clean, b)
		default:
			// silently drop anything else, matching lenient real-world decoders
		}
	}
	out := make([]byte, base64.StdEncoding.DecodedLen(len(clean)))
	n, err := base64.StdEncoding.Decode(out, clean)
	if err != nil {
		return nil, counted.N, err
	}
	return out[:n], counted.N, nil
}

func isBase64Char(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	case b == '+' || b == '/' || b == '=':
		return true
	}
	return false
}
