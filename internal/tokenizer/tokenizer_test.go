package tokenizer

import (
	"errors"
	"testing"
)

type testCounter struct{}

func (testCounter) Name() string { return "stub" }

func (testCounter) CountString(input string) (int, error) { return len([]rune(input)), nil }

type failingCounter struct{}

func (failingCounter) Name() string { return "failing" }

func (failingCounter) CountString(input string) (int, error) { return 0, errors.New("boom") }

func TestCountBytesText(t *testing.T) {
	result, err := CountBytes(testCounter{}, []byte("hello"))
	if err != nil {
		t.Fatalf("CountBytes error: %v", err)
	}
	if !result.Counted || result.Tokens != 5 {
		t.Fatalf("expected 5 counted tokens, got %+v", result)
	}
}

func TestCountBytesBinary(t *testing.T) {
	result, err := CountBytes(testCounter{}, []byte{0x00, 0x01, 0x02})
	if err != nil {
		t.Fatalf("CountBytes error: %v", err)
	}
	if result.Counted {
		t.Fatalf("expected binary data to be skipped")
	}
}

func TestCountBytesNilCounter(t *testing.T) {
	if _, err := CountBytes(nil, []byte("x")); !errors.Is(err, errNilCounter) {
		t.Fatalf("expected errNilCounter, got %v", err)
	}
}

func TestCountFiles(t *testing.T) {
	perFile, total, err := CountFiles(testCounter{}, map[string]string{"a.txt": "abc", "b.bin": "\x00\x01", "c.txt": "de"})
	if err != nil {
		t.Fatalf("CountFiles error: %v", err)
	}
	if total != 5 || perFile["a.txt"] != 3 || perFile["c.txt"] != 2 {
		t.Fatalf("unexpected counts %v total %d", perFile, total)
	}
	if _, counted := perFile["b.bin"]; counted {
		t.Fatalf("expected binary file to be skipped")
	}
	if _, _, failErr := CountFiles(failingCounter{}, map[string]string{"a": "b"}); failErr == nil {
		t.Fatalf("expected counter error to propagate")
	}
}

func TestIsOpenAIModel(t *testing.T) {
	testCases := []struct {
		model    string
		expected bool
	}{
		{model: "gpt-4o", expected: true},
		{model: "text-embedding-3-small", expected: true},
		{model: "claude-3-5-haiku-20241022", expected: false},
		{model: "llama-3", expected: false},
	}
	for _, testCase := range testCases {
		if actual := isOpenAIModel(testCase.model); actual != testCase.expected {
			t.Fatalf("%s: expected %t, got %t", testCase.model, testCase.expected, actual)
		}
	}
}
