package fsutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBinary(t *testing.T) {
	tests := []struct {
		name     string
		content  []byte
		expected bool
	}{
		{name: "empty", content: nil, expected: false},
		{name: "ascii", content: []byte("hello world\n"), expected: false},
		{name: "utf8", content: []byte("héllo wörld ✓"), expected: false},
		{name: "nul byte", content: []byte("abc\x00def"), expected: true},
		{name: "utf16 le bom", content: []byte{0xFF, 0xFE, 'h', 0x00, 'i', 0x00}, expected: false},
		{name: "utf16 be bom", content: []byte{0xFE, 0xFF, 0x00, 'h', 0x00, 'i'}, expected: false},
		{name: "utf32 be bom", content: []byte{0x00, 0x00, 0xFE, 0xFF, 0x00, 0x00, 0x00, 'h'}, expected: false},
		{name: "png header", content: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), expected: true},
		{name: "mostly invalid utf8", content: bytes.Repeat([]byte{0xC3, 0x28, 0xFF, 'a'}, 10), expected: true},
		{name: "latin1 accents in text", content: []byte("caf\xe9 au lait, tr\xe8s bon, merci beaucoup"), expected: false},
		{name: "nul past sample", content: append(bytes.Repeat([]byte("a"), SniffSize), 0), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsBinary(tt.content))
		})
	}
}

func TestIsBinary_RuneCutAtSampleBoundary(t *testing.T) {
	content := append(bytes.Repeat([]byte("a"), SniffSize-1), []byte("é")...)
	assert.False(t, IsBinary(content))
}
