package encodings

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Detect sniffs the text encoding of raw file bytes, returning the encoding
// name and a confidence in [0,1]. BOMs are authoritative; otherwise valid
// UTF-8 wins and Latin-1 is the fallback that always decodes.
func Detect(data []byte) (string, float64) {
	switch {
	case bytes.HasPrefix(data, []byte{0xef, 0xbb, 0xbf}):
		return "utf-8-sig", 1
	case bytes.HasPrefix(data, []byte{0xff, 0xfe}):
		return "utf-16-le", 1
	case bytes.HasPrefix(data, []byte{0xfe, 0xff}):
		return "utf-16-be", 1
	case utf8.Valid(data):
		return "utf-8", 0.99
	default:
		return "latin-1", 0.5
	}
}

func decoder(name string) (*encoding.Decoder, error) {
	switch name {
	case "utf-8", "utf-8-sig":
		return unicode.UTF8BOM.NewDecoder(), nil
	case "utf-16-le":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder(), nil
	case "utf-16-be":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder(), nil
	case "latin-1":
		return charmap.ISO8859_1.NewDecoder(), nil
	default:
		return nil, errors.Errorf("unknown encoding: %v", name)
	}
}

// DecodeLines detects the encoding of data and returns its lines as UTF-8
// strings, plus the detected encoding name and confidence.
func DecodeLines(data []byte) ([]string, string, float64, error) {
	name, confidence := Detect(data)

	d, err := decoder(name)
	if err != nil {
		return nil, name, confidence, err
	}

	decoded, err := d.Bytes(data)
	if err != nil {
		return nil, name, confidence, errors.Wrapf(err, "decoding as %v", name)
	}

	text := strings.ReplaceAll(string(decoded), "\r\n", "\n")
	lines := strings.Split(text, "\n")

	return lines, name, confidence, nil
}
