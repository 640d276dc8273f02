package render

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var classNames = regexp.MustCompile(`^[a-zA-Z0-9 _-]+$`)

// newPolicy allows user-generated content plus the class attributes the
// highlighter emits.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(classNames).OnElements("pre", "code", "span", "div")
	p.AllowAttrs("id").Matching(bluemonday.Paragraph).OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	return p
}
