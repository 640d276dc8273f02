package render

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/Cyclone1070/fileview/internal/filetype"
)

// Heading is one table-of-contents entry.
type Heading struct {
	Level int    `json:"level"`
	ID    string `json:"id"`
	Text  string `json:"text"`
}

// Document is rendered, sanitized output for the viewer.
type Document struct {
	HTML     string         `json:"html"`
	TOC      []Heading      `json:"toc"`
	Meta     map[string]any `json:"meta"`
	Language string         `json:"language"`
}

// Renderer turns markdown and source files into sanitized HTML. It is safe
// for concurrent use.
type Renderer struct {
	md          goldmark.Markdown
	highlighter *Highlighter
	policy      *bluemonday.Policy
}

// NewRenderer creates a Renderer whose code blocks use the given chroma style.
func NewRenderer(style string) *Renderer {
	hl := NewHighlighter(style)
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(linkRewriter{}, 100)),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			renderer.WithNodeRenderers(util.Prioritized(&codeBlockRenderer{highlighter: hl}, 200)),
		),
	)
	return &Renderer{md: md, highlighter: hl, policy: newPolicy()}
}

// CSS returns the stylesheet for highlighted code.
func (r *Renderer) CSS() (string, error) {
	return r.highlighter.CSS()
}

var documentPathKey = parser.NewContextKey()

// Markdown renders src, the content of the markdown file at file. Relative
// links to other markdown files are rewritten to viewer links resolved
// against the file's directory.
func (r *Renderer) Markdown(file string, src []byte) (*Document, error) {
	meta, body := splitFrontMatter(src)

	pc := parser.NewContext()
	pc.Set(documentPathKey, file)
	doc := r.md.Parser().Parse(text.NewReader(body), parser.WithContext(pc))

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, body, doc); err != nil {
		return nil, fmt.Errorf("render markdown %s: %w", file, err)
	}

	return &Document{
		HTML:     r.policy.Sanitize(buf.String()),
		TOC:      collectHeadings(doc, body),
		Meta:     meta,
		Language: "markdown",
	}, nil
}

// Code renders a source file with syntax highlighting.
func (r *Renderer) Code(file string, src []byte) (*Document, error) {
	lang := filetype.Language(filetype.Ext(file))
	language := lang
	if lang == "text" {
		language = ""
	}
	out, err := r.highlighter.Highlight(string(src), language, path.Base(file))
	if err != nil {
		return nil, fmt.Errorf("render code %s: %w", file, err)
	}
	return &Document{
		HTML:     r.policy.Sanitize(out),
		TOC:      []Heading{},
		Meta:     map[string]any{},
		Language: lang,
	}, nil
}

type linkRewriter struct{}

func (linkRewriter) Transform(doc *ast.Document, _ text.Reader, pc parser.Context) {
	file, _ := pc.Get(documentPathKey).(string)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if link, ok := n.(*ast.Link); ok {
			if dest, ok := rewriteLink(file, string(link.Destination)); ok {
				link.Destination = []byte(dest)
			}
		}
		return ast.WalkContinue, nil
	})
}

// rewriteLink maps a link to a markdown file onto the viewer's ?file= form.
// Links with a scheme, protocol-relative links and pure fragments are kept.
func rewriteLink(file, href string) (string, bool) {
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "//") {
		return "", false
	}
	u, err := url.Parse(href)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	if !strings.HasSuffix(strings.ToLower(u.Path), ".md") {
		return "", false
	}

	target := u.Path
	if !path.IsAbs(target) {
		target = path.Join(path.Dir(file), target)
	}
	out := "?file=" + url.QueryEscape(path.Clean(target))
	if u.Fragment != "" {
		out += "#" + u.Fragment
	}
	return out, true
}

func collectHeadings(doc ast.Node, source []byte) []Heading {
	headings := []Heading{}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		var id string
		if v, ok := h.AttributeString("id"); ok {
			if b, ok := v.([]byte); ok {
				id = string(b)
			}
		}
		headings = append(headings, Heading{Level: h.Level, ID: id, Text: nodeText(h, source)})
		return ast.WalkSkipChildren, nil
	})
	return headings
}

func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
		case *ast.String:
			sb.Write(t.Value)
		default:
			sb.WriteString(nodeText(c, source))
		}
	}
	return sb.String()
}

type codeBlockRenderer struct {
	highlighter *Highlighter
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCode)
}

func (r *codeBlockRenderer) renderFencedCode(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)

	var code bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
	}

	out, err := r.highlighter.Highlight(code.String(), string(n.Language(source)), "")
	if err != nil {
		return ast.WalkStop, err
	}
	_, _ = w.WriteString(out)
	return ast.WalkSkipChildren, nil
}
