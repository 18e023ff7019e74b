package nmea

import (
	"fmt"
	"strings"
)

// Checksum returns the XOR checksum of a sentence as two lowercase hex digits.
//
// A leading '$' and a trailing "*" or "*XX" are excluded, so both a bare body
// and a complete sentence yield the same value.
func Checksum(sentence string) string {
	return fmt.Sprintf("%02x", xorBytes(checksumBody(sentence)))
}

// VerifyChecksum reports whether the two hex digits after the final '*' match
// the computed checksum (case-insensitive). Empty or truncated input is never
// valid.
func VerifyChecksum(sentence string) bool {
	n := len(sentence)
	if n < 3 || sentence[n-3] != '*' {
		return false
	}
	return strings.EqualFold(sentence[n-2:], Checksum(sentence))
}

func checksumBody(s string) string {
	s = strings.TrimPrefix(s, "$")
	if n := len(s); n >= 3 && s[n-3] == '*' {
		return s[:n-3]
	}
	return strings.TrimSuffix(s, "*")
}

func xorBytes(s string) byte {
	var ck byte
	for i := 0; i < len(s); i++ {
		ck ^= s[i]
	}
	return ck
}
