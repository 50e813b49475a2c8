package utils_test

import (
	"testing"
	"time"

	"github.com/temirov/pagegen/internal/utils"
)

func TestFormatByteCount(t *testing.T) {
	testCases := []struct {
		name      string
		byteCount int64
		expected  string
	}{
		{name: "negative", byteCount: -1, expected: "0b"},
		{name: "bytes", byteCount: 512, expected: "512b"},
		{name: "one kilobyte", byteCount: 1024, expected: "1kb"},
		{name: "fractional kilobyte", byteCount: 1536, expected: "1.5kb"},
		{name: "ten megabytes", byteCount: 10 * 1024 * 1024, expected: "10mb"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if result := utils.FormatByteCount(testCase.byteCount); result != testCase.expected {
				t.Fatalf("expected %s, got %s", testCase.expected, result)
			}
		})
	}
}

func TestFormatEditedTime(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "empty", raw: "", expected: ""},
		{name: "notion timestamp", raw: "2024-01-02T15:04:00.000Z", expected: "2024-01-02 15:04"},
		{name: "unparseable", raw: "yesterday", expected: "yesterday"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if result := utils.FormatEditedTime(testCase.raw, time.UTC); result != testCase.expected {
				t.Fatalf("expected %q, got %q", testCase.expected, result)
			}
		})
	}
}

func TestIsBinary(t *testing.T) {
	if utils.IsBinary([]byte("plain text")) {
		t.Fatalf("expected text not to be binary")
	}
	if !utils.IsBinary([]byte{0x41, 0x00, 0x42}) {
		t.Fatalf("expected NUL byte to mark binary content")
	}
	if !utils.IsBinary([]byte{0xff, 0xfe}) {
		t.Fatalf("expected invalid UTF-8 to be binary")
	}
}

func TestNewApplicationLogger(t *testing.T) {
	if _, err := utils.NewApplicationLogger("debug"); err != nil {
		t.Fatalf("NewApplicationLogger error: %v", err)
	}
	if _, err := utils.NewApplicationLogger("loud"); err == nil {
		t.Fatalf("expected invalid level to fail")
	}
}
