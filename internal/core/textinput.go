package core

// textinput.go turns an uploaded file into text for the parser.
//
// Pipeline: size limit, then format dispatch on extension (xlsx is converted,
// xls rejected, everything else read as delimited text), then BOM removal and
// decoding. Text that is not valid UTF-8 is decoded as Windows-1251, the
// encoding legacy spreadsheet exports of Cyrillic customer lists arrive in.
// With fallback disabled invalid bytes are replaced with '?' instead.

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DefaultMaxImportBytes bounds an uploaded file when no limit is configured.
const DefaultMaxImportBytes int64 = 10 << 20

// TextOptions controls ReadImportText.
type TextOptions struct {
	FileName       string
	MaxBytes       int64
	LegacyFallback bool // decode invalid UTF-8 as Windows-1251
}

// ImportText is decoded upload content ready for ParseTable.
type ImportText struct {
	Text      string
	Delimiter string // set when the format fixes it (xlsx)
	Format    string
	Bytes     int64
}

// ReadImportText reads and decodes one uploaded file. Empty content after
// decoding is ErrNothingToImport.
func ReadImportText(r io.Reader, opts TextOptions) (ImportText, error) {
	limit := opts.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxImportBytes
	}

	counter := NewCountingReader(io.LimitReader(r, limit+1))
	raw, err := io.ReadAll(counter)
	if err != nil {
		return ImportText{}, fmt.Errorf("read upload: %w", err)
	}
	if counter.BytesRead > limit {
		return ImportText{}, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, limit)
	}

	out := ImportText{Bytes: counter.BytesRead}

	switch ext := strings.ToLower(filepath.Ext(opts.FileName)); ext {
	case ".xlsx":
		out.Format = "xlsx"
		out.Text, out.Delimiter, err = ConvertXLSX(bytes.NewReader(raw))
		if err != nil {
			return ImportText{}, err
		}
	case ".xls":
		return ImportText{}, fmt.Errorf("%w: legacy .xls workbooks are not supported", ErrUnsupportedFormat)
	default:
		out.Format = "text"
		out.Text, err = decodeText(raw, opts.LegacyFallback)
		if err != nil {
			return ImportText{}, err
		}
	}

	if strings.TrimSpace(out.Text) == "" {
		return ImportText{}, ErrNothingToImport
	}
	return out, nil
}

func decodeText(raw []byte, legacyFallback bool) (string, error) {
	body, err := io.ReadAll(NewBOMSkippingReader(bytes.NewReader(raw)))
	if err != nil {
		return "", err
	}
	if utf8.Valid(body) {
		return string(body), nil
	}
	if legacyFallback {
		decoded, err := charmap.Windows1251.NewDecoder().Bytes(body)
		if err != nil {
			return "", fmt.Errorf("encoding error: %w", err)
		}
		return string(decoded), nil
	}
	clean, err := io.ReadAll(NewUTF8Sanitizer(bytes.NewReader(body)))
	if err != nil {
		return "", err
	}
	return string(clean), nil
}

// UTF8Sanitizer replaces invalid UTF-8 bytes with '?' as it reads.
type UTF8Sanitizer struct {
	reader  io.Reader
	pending []byte // incomplete sequence carried to the next read
}

// NewUTF8Sanitizer wraps r.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{reader: r, pending: make([]byte, 0, utf8.UTFMax)}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	offset := 0
	if len(s.pending) > 0 {
		offset = copy(p, s.pending)
		s.pending = s.pending[:0]
	}

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

// sanitize rewrites data in place and returns the number of bytes kept.
// Unless atEOF, a trailing incomplete sequence is held back in pending.
func (s *UTF8Sanitizer) sanitize(data []byte, atEOF bool) int {
	write := 0
	for read := 0; read < len(data); {
		if !atEOF && isIncompleteRune(data[read:]) {
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

// isIncompleteRune reports whether data is a valid but truncated prefix of a
// multi-byte sequence.
func isIncompleteRune(data []byte) bool {
	if len(data) == 0 || len(data) >= utf8.UTFMax || data[0] < 0xC0 {
		return false
	}
	need := 2
	switch {
	case data[0] >= 0xF0:
		need = 4
	case data[0] >= 0xE0:
		need = 3
	}
	if len(data) >= need {
		return false
	}
	for _, b := range data[1:] {
		if b&0xC0 != 0x80 {
			return false
		}
	}
	return true
}

// BOMSkippingReader drops a leading UTF-8 byte order mark.
type BOMSkippingReader struct {
	reader  io.Reader
	checked bool
	buf     []byte
}

// NewBOMSkippingReader wraps r.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{reader: r}
}

// Read implements io.Reader.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		head := make([]byte, 3)
		n, err := io.ReadFull(r.reader, head)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return 0, err
		}
		head = head[:n]
		if !bytes.HasPrefix(head, []byte{0xEF, 0xBB, 0xBF}) {
			r.buf = head
		}
	}

	if len(r.buf) > 0 {
		n := copy(p, r.buf)
		r.buf = r.buf[n:]
		return n, nil
	}
	return r.reader.Read(p)
}

// CountingReader tracks the bytes read through it.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewCountingReader wraps r.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.reader.Read(p)
	c.BytesRead += int64(n)
	return n, err
}
