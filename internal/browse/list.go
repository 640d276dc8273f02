package browse

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Cyclone1070/fileview/internal/access"
	"github.com/Cyclone1070/fileview/internal/filetype"
)

var (
	errNotDirectory = errors.New("not a directory")
	errBadOffset    = errors.New("offset cannot be negative")
	errBadLimit     = errors.New("limit out of range")
)

// Options configures a Lister.
type Options struct {
	DefaultLimit int
	MaxLimit     int
}

// Lister lists directories inside the allowlist.
type Lister struct {
	fs      FileSystem
	paths   PathChecker
	ignores *IgnoreCache
	opts    Options
	logger  *slog.Logger
}

// NewLister creates a Lister with injected dependencies. ignores may be nil.
func NewLister(fs FileSystem, paths PathChecker, ignores *IgnoreCache, opts Options, logger *slog.Logger) *Lister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lister{fs: fs, paths: paths, ignores: ignores, opts: opts, logger: logger}
}

// List returns one page of the directory named by req.Dir. Directories come
// first, then files, each sorted by name. Dot entries, broken links, entries
// matched by the root's ignore file and links resolving outside the
// allowlist are left out.
func (l *Lister) List(ctx context.Context, req Request) (*Listing, error) {
	if req.Offset < 0 {
		return nil, &access.PathError{Op: "browse", Path: req.Dir, Kind: access.KindInvalid, Cause: errBadOffset}
	}
	limit := l.opts.DefaultLimit
	if req.Limit != 0 {
		limit = req.Limit
	}
	if limit < 0 || (l.opts.MaxLimit > 0 && limit > l.opts.MaxLimit) {
		return nil, &access.PathError{Op: "browse", Path: req.Dir, Kind: access.KindInvalid, Cause: errBadLimit}
	}

	target, err := l.paths.ResolveForRead(req.Dir)
	if err != nil {
		return nil, err
	}

	info, err := l.fs.Stat(target.Path)
	if err != nil {
		return nil, &access.PathError{Op: "browse", Path: req.Dir, Kind: access.KindNotFound, Cause: err}
	}
	if !info.IsDir() {
		return nil, &access.PathError{Op: "browse", Path: req.Dir, Kind: access.KindTypeMismatch, Cause: errNotDirectory}
	}

	ignore, err := l.ignores.For(target.Root)
	if err != nil {
		l.logger.Warn("ignore file unreadable, listing without it", "root", target.Root, "error", err)
		ignore = nil
	}

	infos, err := l.fs.ListDir(target.Path)
	if err != nil {
		return nil, &access.PathError{Op: "browse", Path: req.Dir, Kind: access.KindIO, Cause: err}
	}

	entries := make([]Entry, 0, len(infos))
	var stats Stats
	for _, fi := range infos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry, ok := l.describe(target, fi, ignore)
		if !ok {
			continue
		}
		if entry.Type == TypeDirectory {
			stats.Directories++
		} else {
			stats.Files++
		}
		if entry.Viewable {
			stats.Viewable++
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if (entries[i].Type == TypeDirectory) != (entries[j].Type == TypeDirectory) {
			return entries[i].Type == TypeDirectory
		}
		return entries[i].Name < entries[j].Name
	})

	page, pagination := ApplyPagination(entries, req.Offset, limit)

	listing := &Listing{
		Directory:  target.Path,
		Items:      page,
		Stats:      stats,
		Offset:     req.Offset,
		Limit:      limit,
		TotalCount: pagination.TotalCount,
		Truncated:  pagination.Truncated,
	}
	if parent := filepath.Dir(target.Path); parent != target.Path {
		if _, err := l.paths.ResolveCanonical(parent); err == nil {
			listing.Parent = &parent
			listing.ParentIcon = filetype.ParentIcon()
		}
	}
	return listing, nil
}

// describe builds the entry for fi, or reports false if it must stay hidden.
func (l *Lister) describe(dir access.Target, fi os.FileInfo, ignore *IgnoreMatcher) (Entry, bool) {
	name := fi.Name()
	if strings.HasPrefix(name, ".") {
		return Entry{}, false
	}
	full := filepath.Join(dir.Path, name)

	if fi.Mode()&os.ModeSymlink != 0 {
		// Links are shown only when they resolve inside the allowlist.
		target, err := l.paths.ResolveCanonical(full)
		if err != nil {
			return Entry{}, false
		}
		resolved, err := l.fs.Stat(target.Path)
		if err != nil {
			return Entry{}, false
		}
		fi = resolved
	}

	if rel, err := filepath.Rel(dir.Root, full); err == nil && ignore.ShouldIgnore(rel, fi.IsDir()) {
		return Entry{}, false
	}

	if fi.IsDir() {
		return Entry{
			Name:    name,
			Type:    TypeDirectory,
			Path:    full,
			ModTime: fi.ModTime(),
			Icon:    filetype.DirIcon(),
		}, true
	}

	ext := filetype.Ext(name)
	return Entry{
		Name:      name,
		Type:      TypeFile,
		Path:      full,
		Size:      fi.Size(),
		SizeHuman: filetype.FormatSize(fi.Size()),
		ModTime:   fi.ModTime(),
		Extension: ext,
		Viewable:  filetype.IsViewable(ext) || filetype.IsImage(ext),
		Icon:      filetype.Icon(ext),
	}, true
}
