package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Charset names the encoding a file was decoded from.
type Charset string

const (
	CharsetUTF8        Charset = "UTF-8"
	CharsetUTF8BOM     Charset = "UTF-8 (BOM)"
	CharsetUTF16LE     Charset = "UTF-16LE"
	CharsetUTF16BE     Charset = "UTF-16BE"
	CharsetWindows1252 Charset = "windows-1252"
	CharsetISO88599    Charset = "ISO-8859-9"
)

const sniffLen = 4096

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Decode sniffs the charset of r and returns a reader yielding UTF-8 together
// with the charset it detected. Spreadsheet exports from school offices are
// often Windows-1252 or UTF-16, so those are recognised before falling back.
//
// Detection order:
//  1. BOM (UTF-8 BOM is stripped; UTF-16 LE/BE is decoded)
//  2. Valid UTF-8 passes through
//  3. chardet heuristics
//  4. Windows-1252
func Decode(r io.Reader) (io.Reader, Charset, error) {
	br := bufio.NewReaderSize(r, sniffLen)

	buf, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("peek: %w", err)
	}

	switch {
	case bytes.HasPrefix(buf, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return br, CharsetUTF8BOM, nil
	case bytes.HasPrefix(buf, bomUTF16LE):
		return utf16Reader(br, unicode.LittleEndian), CharsetUTF16LE, nil
	case bytes.HasPrefix(buf, bomUTF16BE):
		return utf16Reader(br, unicode.BigEndian), CharsetUTF16BE, nil
	case utf8.Valid(buf):
		return br, CharsetUTF8, nil
	}

	if result, err := chardet.NewTextDetector().DetectBest(buf); err == nil {
		switch result.Charset {
		case "UTF-8":
			return br, CharsetUTF8, nil
		case "ISO-8859-9":
			return transform.NewReader(br, charmap.ISO8859_9.NewDecoder()), CharsetISO88599, nil
		}
	}

	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), CharsetWindows1252, nil
}

// NewUTF8Reader is Decode without the charset.
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	out, _, err := Decode(r)
	return out, err
}

func utf16Reader(r io.Reader, order unicode.Endianness) io.Reader {
	return transform.NewReader(r, unicode.UTF16(order, unicode.UseBOM).NewDecoder())
}
