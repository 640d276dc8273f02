package fsutil

import "unicode/utf8"

// SniffSize is how many leading bytes IsBinary inspects.
const SniffSize = 8000

// IsBinary reports whether content looks like binary data rather than text.
// A UTF-16 or UTF-32 byte order mark marks text. Otherwise a NUL byte in the
// sample, or a sample that is mostly invalid UTF-8, marks binary.
func IsBinary(content []byte) bool {
	sample := content[:min(len(content), SniffSize)]
	if hasWideBOM(sample) {
		return false
	}

	invalid := 0
	for i := 0; i < len(sample); {
		if sample[i] == 0 {
			return true
		}
		r, size := utf8.DecodeRune(sample[i:])
		if r == utf8.RuneError && size == 1 {
			// A rune cut off by the sample boundary is not evidence.
			if len(sample)-i < utf8.UTFMax && len(content) > len(sample) {
				break
			}
			invalid++
		}
		i += size
	}
	return len(sample) > 0 && invalid*10 > len(sample)*3
}

func hasWideBOM(b []byte) bool {
	if len(b) >= 4 &&
		((b[0] == 0xFF && b[1] == 0xFE && b[2] == 0x00 && b[3] == 0x00) ||
			(b[0] == 0x00 && b[1] == 0x00 && b[2] == 0xFE && b[3] == 0xFF)) {
		return true
	}
	return len(b) >= 2 &&
		((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF))
}
