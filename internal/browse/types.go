package browse

import (
	"os"
	"time"

	"github.com/Cyclone1070/fileview/internal/access"
)

// FileSystem defines the filesystem operations listing needs.
type FileSystem interface {
	Stat(path string) (os.FileInfo, error)
	ListDir(path string) ([]os.FileInfo, error)
	ReadFileHead(path string, limit int64) ([]byte, error)
}

// PathChecker resolves client paths and entry paths through the access engine.
type PathChecker interface {
	ResolveForRead(raw string) (access.Target, error)
	ResolveCanonical(path string) (access.Target, error)
}

// EntryType is "directory" or "file".
type EntryType string

const (
	TypeDirectory EntryType = "directory"
	TypeFile      EntryType = "file"
)

// Entry is one visible item in a listing.
type Entry struct {
	Name      string    `json:"name"`
	Type      EntryType `json:"type"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	SizeHuman string    `json:"size_human,omitempty"`
	ModTime   time.Time `json:"mtime"`
	Extension string    `json:"extension,omitempty"`
	Viewable  bool      `json:"viewable"`
	Icon      string    `json:"icon"`
}

// Stats counts the visible entries of the whole directory, not just one page.
type Stats struct {
	Directories int `json:"directories"`
	Files       int `json:"files"`
	Viewable    int `json:"viewable"`
}

// Request is a listing request; Dir is a raw client path.
type Request struct {
	Dir    string
	Offset int
	Limit  int
}

// Listing is one page of a directory.
type Listing struct {
	Directory  string  `json:"directory"`
	Parent     *string `json:"parent"`
	ParentIcon string  `json:"parent_icon,omitempty"`
	Items      []Entry `json:"items"`
	Stats      Stats   `json:"stats"`
	Offset     int     `json:"offset"`
	Limit      int     `json:"limit"`
	TotalCount int     `json:"total_count"`
	Truncated  bool    `json:"truncated"`
}
