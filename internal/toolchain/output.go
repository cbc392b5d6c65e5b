package toolchain

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// Decode converts raw process output to text. Invalid UTF-8 sequences are
// replaced with U+FFFD rather than rejected.
func Decode(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(out)
}

// SplitLines splits s on '\n', dropping one trailing newline and a trailing
// '\r' from each line. Empty input yields no lines.
func SplitLines(s string) []string {
	if s == "" {
		return []string{}
	}
	s = strings.TrimSuffix(s, "\n")
	parts := strings.Split(s, "\n")
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "\r")
	}
	return parts
}
