package core

// streaming.go provides the io.Reader wrappers applied to every input file
// before CSV parsing, all in constant memory:
//
//   - BOMSkippingReader: drops a leading UTF-8 BOM (0xEF 0xBB 0xBF)
//   - StreamingUTF8Sanitizer: replaces invalid UTF-8 bytes with '?'
//   - NewlineNormalizer: turns "\r\n" and lone "\r" into "\n"
//   - StreamingCountingReader: tracks raw bytes read
//
// Use WrapForStreaming to apply all of them in the correct order.

import (
	"io"
	"unicode/utf8"
)

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type BOMSkippingReader struct {
	reader  io.Reader
	checked bool
	buf     [3]byte
	pending []byte
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{reader: r}
}

// Read implements io.Reader. The first call inspects up to three bytes.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		n, err := io.ReadFull(r.reader, r.buf[:])
		if n == 3 && r.buf[0] == 0xEF && r.buf[1] == 0xBB && r.buf[2] == 0xBF {
			n = 0
		}
		r.pending = r.buf[:n]
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return 0, err
		}
		if err != nil && n == 0 {
			return 0, io.EOF
		}
	}

	if len(r.pending) > 0 {
		n := copy(p, r.pending)
		r.pending = r.pending[n:]
		return n, nil
	}

	return r.reader.Read(p)
}

// StreamingUTF8Sanitizer wraps an io.Reader and replaces invalid UTF-8
// bytes with '?' on the fly. A multi-byte sequence split across reads is
// held back until the rest of it arrives.
type StreamingUTF8Sanitizer struct {
	reader  io.Reader
	pending []byte
}

// NewStreamingUTF8Sanitizer creates a new streaming UTF-8 sanitizer.
func NewStreamingUTF8Sanitizer(r io.Reader) *StreamingUTF8Sanitizer {
	return &StreamingUTF8Sanitizer{
		reader:  r,
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

// Read implements io.Reader.
func (s *StreamingUTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	offset := copy(p, s.pending)
	s.pending = s.pending[:copy(s.pending, s.pending[offset:])]

	n, err := s.reader.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}

	if isASCII(p[:n]) {
		return n, err
	}

	return s.sanitize(p[:n], err == io.EOF), err
}

// sanitize rewrites data in place and returns the number of bytes to emit.
// When more input may follow, an incomplete trailing sequence is saved.
func (s *StreamingUTF8Sanitizer) sanitize(data []byte, atEOF bool) int {
	write := 0
	for read := 0; read < len(data); {
		if !atEOF && !utf8.FullRune(data[read:]) {
			s.pending = append(s.pending, data[read:]...)
			return write
		}

		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// NewlineNormalizer converts "\r\n" and lone "\r" line endings to "\n".
// This applies to quoted fields too, the same as a text-mode file read.
type NewlineNormalizer struct {
	reader io.Reader
	lastCR bool
}

// NewNewlineNormalizer creates a line-ending normalizing reader.
func NewNewlineNormalizer(r io.Reader) *NewlineNormalizer {
	return &NewlineNormalizer{reader: r}
}

// Read implements io.Reader.
func (r *NewlineNormalizer) Read(p []byte) (int, error) {
	for {
		n, err := r.reader.Read(p)
		write := 0
		for _, b := range p[:n] {
			switch {
			case b == '\n' && r.lastCR:
				r.lastCR = false
				continue
			case b == '\r':
				r.lastCR = true
				b = '\n'
			default:
				r.lastCR = false
			}
			p[write] = b
			write++
		}
		// A read made only of the "\n" half of a split "\r\n" yields nothing.
		if write > 0 || err != nil || n == 0 {
			return write, err
		}
	}
}

// StreamingCountingReader wraps an io.Reader to track bytes read.
type StreamingCountingReader struct {
	reader    io.Reader
	BytesRead int64
	Total     int64 // If known (0 if unknown)
}

// NewStreamingCountingReader creates a counting reader with optional total size.
func NewStreamingCountingReader(r io.Reader, total int64) *StreamingCountingReader {
	return &StreamingCountingReader{
		reader: r,
		Total:  total,
	}
}

// Read implements io.Reader.
func (r *StreamingCountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// Progress returns the read progress as a percentage (0-100).
// Returns 0 if total is unknown.
func (r *StreamingCountingReader) Progress() int {
	if r.Total <= 0 {
		return 0
	}
	return int(r.BytesRead * 100 / r.Total)
}

// WrapForStreaming applies the input transforms to r.
//
// The counter sits directly on r so it reports raw file bytes. The BOM is
// stripped before sanitizing, and line endings are normalized last.
func WrapForStreaming(r io.Reader, totalSize int64) (io.Reader, *StreamingCountingReader) {
	counter := NewStreamingCountingReader(r, totalSize)
	bom := NewBOMSkippingReader(counter)
	sanitized := NewStreamingUTF8Sanitizer(bom)
	return NewNewlineNormalizer(sanitized), counter
}
