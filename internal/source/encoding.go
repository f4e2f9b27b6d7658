package source

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/traditionalchinese"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decoders maps supported encoding names to their decoders. A nil entry
// means UTF-8, validated in place.
var decoders = map[string]encoding.Encoding{
	"utf-8-sig": nil,
	"utf-8":     nil,
	"utf8":      nil,
	"big5":      traditionalchinese.Big5,
	"cp950":     traditionalchinese.Big5,
}

// KnownEncoding reports whether name is an encoding the readers can try.
func KnownEncoding(name string) bool {
	_, ok := decoders[strings.ToLower(name)]
	return ok
}

// decode converts data to UTF-8 text using the named encoding. It fails when
// the bytes are not valid in that encoding, so callers can fall through to
// the next candidate.
func decode(data []byte, name string) (string, error) {
	enc, ok := decoders[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("unsupported encoding %q", name)
	}
	if enc == nil {
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return "", errors.New("invalid utf-8")
		}
		return string(data), nil
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	// x/text substitutes U+FFFD for undecodable sequences instead of failing.
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", fmt.Errorf("invalid %s byte sequence", name)
	}
	return string(out), nil
}
