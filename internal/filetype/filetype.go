// Package filetype classifies files by extension for viewing, highlighting
// and listing.
package filetype

import (
	"fmt"
	"path/filepath"
	"strings"
)

var viewable = set(
	".md", ".json", ".yaml", ".yml", ".txt", ".py", ".sh", ".js",
	".html", ".css", ".xml", ".ini", ".conf", ".log", ".toml",
	".cfg", ".env", ".rs", ".go", ".java", ".c", ".cpp", ".h",
	".ts", ".tsx", ".jsx", ".sql", ".r", ".rb", ".php", ".pl",
	".lua", ".vim", ".csv", ".diff", ".patch", ".bat", ".ps1",
)

var images = set(".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp", ".svg", ".ico", ".tiff", ".tif")

var languages = map[string]string{
	".json": "json", ".yaml": "yaml", ".yml": "yaml",
	".py": "python", ".sh": "bash", ".js": "javascript",
	".html": "html", ".css": "css", ".txt": "text",
	".xml": "xml", ".ini": "ini", ".conf": "ini",
	".log": "text", ".toml": "toml", ".cfg": "ini",
	".env": "bash", ".rs": "rust", ".go": "go",
	".java": "java", ".c": "c", ".cpp": "cpp", ".h": "c",
	".ts": "typescript", ".tsx": "typescript", ".jsx": "javascript",
	".sql": "sql", ".r": "r", ".rb": "ruby", ".php": "php",
	".pl": "perl", ".lua": "lua", ".vim": "vim",
	".csv": "text", ".diff": "diff", ".patch": "diff",
	".bat": "batch", ".ps1": "powershell",
}

var icons = map[string]string{
	".md": "📄", ".json": "📋", ".yaml": "⚙️", ".yml": "⚙️",
	".py": "🐍", ".sh": "🔧", ".js": "📜", ".html": "🌐",
	".css": "🎨", ".txt": "📝", ".log": "📊",
	".db": "🗄️", ".sqlite": "🗄️",
	".png": "🖼️", ".jpg": "🖼️", ".jpeg": "🖼️", ".gif": "🖼️",
	".pdf": "📕", ".rs": "🦀", ".go": "🐹", ".java": "☕",
	".ts": "📜", ".tsx": "📜", ".jsx": "📜",
}

const (
	dirIcon     = "📁"
	parentIcon  = "⬆️"
	defaultIcon = "📄"
)

func set(exts ...string) map[string]bool {
	m := make(map[string]bool, len(exts))
	for _, e := range exts {
		m[e] = true
	}
	return m
}

// Ext returns the lower-cased extension of name including the dot.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// IsViewable reports whether files with ext render as text. Files without an
// extension are viewable.
func IsViewable(ext string) bool {
	return ext == "" || viewable[ext]
}

func IsImage(ext string) bool { return images[ext] }

func IsMarkdown(ext string) bool { return ext == ".md" }

// Language returns the highlighting language for ext, "text" when unknown.
func Language(ext string) string {
	if lang, ok := languages[ext]; ok {
		return lang
	}
	return "text"
}

// Icon returns the listing icon for a file extension.
func Icon(ext string) string {
	if icon, ok := icons[ext]; ok {
		return icon
	}
	return defaultIcon
}

func DirIcon() string    { return dirIcon }
func ParentIcon() string { return parentIcon }

// FormatSize renders a byte count with one decimal, e.g. "1.5 KB".
func FormatSize(size int64) string {
	value := float64(size)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if value < 1024 {
			return fmt.Sprintf("%.1f %s", value, unit)
		}
		value /= 1024
	}
	return fmt.Sprintf("%.1f TB", value)
}
