package core

// streaming.go provides the io.Reader wrappers placed under the CSV source.
//
//   - BOMSkippingReader: drops a leading UTF-8 BOM (0xEF 0xBB 0xBF) written by Windows tools
//   - UTF8Sanitizer: replaces invalid UTF-8 with U+FFFD so encoding/csv never sees broken runes
//   - CountingReader: tracks raw bytes read for progress reporting
//
// All of them work in O(buffer) memory; files are never loaded whole.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BOMSkippingReader skips the UTF-8 BOM if the stream starts with one.
type BOMSkippingReader struct {
	r       *bufio.Reader
	checked bool
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{r: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (b *BOMSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		if head, _ := b.r.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
			_, _ = b.r.Discard(len(utf8BOM))
		}
	}
	return b.r.Read(p)
}

// UTF8Sanitizer replaces invalid UTF-8 sequences with U+FFFD on the fly.
// A multi-byte rune split across two reads is held back until it completes.
type UTF8Sanitizer struct {
	r   io.Reader
	buf []byte
	in  []byte // raw bytes not yet decoded
	out bytes.Buffer
	err error
}

// NewUTF8Sanitizer creates a new streaming UTF-8 sanitizer.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{r: r, buf: make([]byte, 32*1024)}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for s.out.Len() == 0 && s.err == nil {
		s.fill()
	}
	if s.out.Len() > 0 {
		return s.out.Read(p)
	}
	return 0, s.err
}

func (s *UTF8Sanitizer) fill() {
	n, err := s.r.Read(s.buf)
	s.in = append(s.in, s.buf[:n]...)
	if err != nil {
		s.err = err
	}
	final := s.err != nil

	for len(s.in) > 0 {
		r, size := utf8.DecodeRune(s.in)
		if r == utf8.RuneError && size <= 1 {
			if !final && !utf8.FullRune(s.in) {
				break
			}
			s.out.WriteRune(utf8.RuneError)
			s.in = s.in[1:]
			continue
		}
		s.out.Write(s.in[:size])
		s.in = s.in[size:]
	}
}

// CountingReader tracks bytes read.
type CountingReader struct {
	r         io.Reader
	BytesRead int64
	Total     int64 // 0 if unknown
}

// NewCountingReader creates a counting reader with optional total size.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{r: r, Total: total}
}

// Read implements io.Reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.BytesRead += int64(n)
	return n, err
}

// Progress returns the read progress as a percentage (0-100), or 0 if the total is unknown.
func (c *CountingReader) Progress() int {
	if c.Total <= 0 {
		return 0
	}
	return int(c.BytesRead * 100 / c.Total)
}

// WrapForStreaming counts raw bytes, strips the BOM, then sanitizes UTF-8.
// The returned reader is what should be handed to the CSV reader.
func WrapForStreaming(r io.Reader, totalSize int64) (io.Reader, *CountingReader) {
	counter := NewCountingReader(r, totalSize)
	return NewUTF8Sanitizer(NewBOMSkippingReader(counter)), counter
}
