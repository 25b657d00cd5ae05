package core

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestBOMSkippingReader(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello,world")...),
			expected: "hello,world",
		},
		{
			name:     "file without BOM",
			input:    []byte("hello,world"),
			expected: "hello,world",
		},
		{
			name:     "empty file",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "shorter than BOM",
			input:    []byte("ab"),
			expected: "ab",
		},
		{
			name:     "partial BOM at start",
			input:    []byte{0xEF, 0xBB, 'a', 'b', 'c'},
			expected: string([]byte{0xEF, 0xBB, 'a', 'b', 'c'}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, slow := range []bool{false, true} {
				var src io.Reader = bytes.NewReader(tt.input)
				if slow {
					src = iotest.OneByteReader(src)
				}
				result, err := io.ReadAll(NewBOMSkippingReader(src))
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if string(result) != tt.expected {
					t.Errorf("slow=%v: got %q, want %q", slow, string(result), tt.expected)
				}
			}
		})
	}
}

func TestStreamingUTF8Sanitizer(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "valid ASCII",
			input:    []byte("hello,world"),
			expected: "hello,world",
		},
		{
			name:     "valid multibyte",
			input:    []byte("café,€5"),
			expected: "café,€5",
		},
		{
			name:     "invalid single byte replaced",
			input:    []byte{'h', 'e', 0x80, 'l', 'o'},
			expected: "he?lo",
		},
		{
			name:     "truncated sequence at EOF",
			input:    []byte{'a', 0xE2, 0x82},
			expected: "a??",
		},
		{
			name:     "empty input",
			input:    []byte{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, slow := range []bool{false, true} {
				var src io.Reader = bytes.NewReader(tt.input)
				if slow {
					// One byte per read splits every multi-byte sequence.
					src = iotest.OneByteReader(src)
				}
				result, err := io.ReadAll(NewStreamingUTF8Sanitizer(src))
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if string(result) != tt.expected {
					t.Errorf("slow=%v: got %q, want %q", slow, string(result), tt.expected)
				}
			}
		})
	}
}

func TestNewlineNormalizer(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"unix", "a\nb\n", "a\nb\n"},
		{"windows", "a\r\nb\r\n", "a\nb\n"},
		{"old mac", "a\rb\r", "a\nb\n"},
		{"mixed", "h\r\nA,B\r1,2\n", "h\nA,B\n1,2\n"},
		{"blank lines", "a\r\n\r\nb", "a\n\nb"},
		{"double CR", "a\r\rb", "a\n\nb"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, slow := range []bool{false, true} {
				var src io.Reader = strings.NewReader(tt.input)
				if slow {
					src = iotest.OneByteReader(src)
				}
				result, err := io.ReadAll(NewNewlineNormalizer(src))
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if string(result) != tt.expected {
					t.Errorf("slow=%v: got %q, want %q", slow, string(result), tt.expected)
				}
			}
		})
	}
}

func TestStreamingCountingReader(t *testing.T) {
	input := strings.Repeat("x", 1000)
	reader := NewStreamingCountingReader(strings.NewReader(input), int64(len(input)))

	buf := make([]byte, 100)
	totalRead := 0
	for {
		n, err := reader.Read(buf)
		totalRead += n
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if totalRead != len(input) {
		t.Errorf("total read = %d, want %d", totalRead, len(input))
	}
	if reader.BytesRead != int64(len(input)) {
		t.Errorf("BytesRead = %d, want %d", reader.BytesRead, len(input))
	}
	if reader.Progress() != 100 {
		t.Errorf("Progress = %d, want 100", reader.Progress())
	}

	unknown := NewStreamingCountingReader(strings.NewReader("abc"), 0)
	io.ReadAll(unknown)
	if unknown.Progress() != 0 {
		t.Errorf("Progress with unknown total = %d, want 0", unknown.Progress())
	}
}

func TestWrapForStreaming(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte{'h', 'e', 0x80, 'l', 'o', '\r', '\n'}...)

	reader, counter := WrapForStreaming(bytes.NewReader(input), int64(len(input)))
	result, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// BOM stripped, invalid byte replaced, CRLF normalized
	expected := "he?lo\n"
	if string(result) != expected {
		t.Errorf("got %q, want %q", string(result), expected)
	}

	// Counter sees the raw bytes, BOM included
	if counter.BytesRead != int64(len(input)) {
		t.Errorf("BytesRead = %d, want %d", counter.BytesRead, len(input))
	}
}
