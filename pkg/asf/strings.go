package asf

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// decodeUTF16 decodes little endian text and trims null termination.
func decodeUTF16(b []byte) (string, error) {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	out, err := utf16LE.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode utf16: %w", err)
	}
	return strings.TrimRight(string(out), "\x00"), nil
}

// encodeUTF16 encodes s as little endian text followed by a null terminator.
func encodeUTF16(s string) ([]byte, error) {
	out, err := utf16LE.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encode utf16: %w", err)
	}
	return append(out, 0, 0), nil
}
