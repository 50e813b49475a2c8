package utils

import (
	"bytes"
	"unicode/utf8"
)

// IsBinary reports whether data looks like binary content rather than UTF-8 text.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if !utf8.Valid(data) {
		return true
	}
	return bytes.IndexByte(data, 0) >= 0
}
