package render

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

var fence = []byte("---")

// splitFrontMatter separates a leading YAML block delimited by "---" lines
// from the markdown body. Content without a valid block is returned whole
// with empty metadata.
func splitFrontMatter(src []byte) (map[string]any, []byte) {
	meta := map[string]any{}

	first, rest, ok := cutLine(src)
	if !ok || !bytes.Equal(bytes.TrimRight(first, " \t"), fence) {
		return meta, src
	}

	var block []byte
	for remaining := rest; len(remaining) > 0; {
		line, next, _ := cutLine(remaining)
		if bytes.Equal(bytes.TrimRight(line, " \t"), fence) {
			if err := yaml.Unmarshal(block, &meta); err != nil {
				return map[string]any{}, src
			}
			if meta == nil {
				meta = map[string]any{}
			}
			return meta, next
		}
		block = append(block, line...)
		block = append(block, '\n')
		remaining = next
	}
	return meta, src
}

// cutLine splits off the first line, dropping its terminator.
func cutLine(b []byte) (line, rest []byte, found bool) {
	line, rest, found = bytes.Cut(b, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r")), rest, found
}
