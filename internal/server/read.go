package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Cyclone1070/fileview/internal/access"
	"github.com/Cyclone1070/fileview/internal/browse"
	"github.com/Cyclone1070/fileview/internal/filetype"
	"github.com/Cyclone1070/fileview/internal/fsutil"
	"github.com/Cyclone1070/fileview/internal/imageinfo"
	"github.com/Cyclone1070/fileview/internal/render"
)

type featuresResponse struct {
	FileOperations bool              `json:"file_operations"`
	AllowOverwrite bool              `json:"allow_overwrite"`
	AllowMerge     bool              `json:"allow_merge"`
	PathConversion map[string]string `json:"path_conversion,omitempty"`
}

type configResponse struct {
	Title            string           `json:"title"`
	DefaultDirectory string           `json:"default_directory"`
	AllowedPaths     []string         `json:"allowed_paths"`
	FavoritePaths    []string         `json:"favorite_paths"`
	Features         featuresResponse `json:"features"`
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	st := s.state.Load()
	cfg, pol := st.cfg, st.policy
	resp := configResponse{
		Title:            cfg.Title,
		DefaultDirectory: cfg.DefaultDirectory,
		AllowedPaths:     cfg.AllowedPaths,
		FavoritePaths:    cfg.FavoritePaths,
		Features: featuresResponse{
			FileOperations: pol.MutationsEnabled(),
			AllowOverwrite: pol.AllowOverwrite(),
			AllowMerge:     pol.AllowMerge(),
		},
	}
	if rule := pol.Conversion(); rule != nil {
		resp.Features.PathConversion = map[string]string{"from": rule.From, "to": rule.To}
	}
	writeJSON(w, http.StatusOK, resp)
}

type viewResponse struct {
	Success   bool   `json:"success"`
	File      string `json:"file"`
	Filename  string `json:"filename"`
	Directory string `json:"directory"`
	RawLength int    `json:"raw_length"`
	*render.Document
}

// readViewable resolves and reads a text file for /api/view and /api/raw.
// It writes the error response itself and reports false on failure.
func (s *Server) readViewable(w http.ResponseWriter, r *http.Request, usage string) (access.Target, []byte, bool) {
	raw := r.URL.Query().Get("file")
	if raw == "" {
		writeJSONError(w, http.StatusBadRequest, "No file path provided", usage)
		return access.Target{}, nil, false
	}

	target, err := s.validator.ResolveForRead(raw)
	if err != nil {
		writeFailure(w, r, err)
		return access.Target{}, nil, false
	}
	if !filetype.IsViewable(filetype.Ext(target.Path)) {
		writeJSONError(w, http.StatusBadRequest, "File type not supported", "")
		return access.Target{}, nil, false
	}

	info, err := s.fs.Stat(target.Path)
	if err != nil {
		writeFailure(w, r, &access.PathError{Op: "view", Path: raw, Kind: fsutil.Classify(err), Cause: err})
		return access.Target{}, nil, false
	}
	if info.IsDir() {
		writeFailure(w, r, &access.PathError{Op: "view", Path: raw, Kind: access.KindTypeMismatch, Cause: fmt.Errorf("%s is a directory", target.Path)})
		return access.Target{}, nil, false
	}
	limit := s.config().Limits.MaxViewSize
	if info.Size() > limit {
		writeJSONError(w, http.StatusRequestEntityTooLarge, "File too large to view",
			fmt.Sprintf("limit is %s", filetype.FormatSize(limit)))
		return access.Target{}, nil, false
	}

	etag := ""
	if sum, ok := s.checksums.Get(target.Path, info); ok {
		etag = strconv.Quote(sum)
		if r.Header.Get("If-None-Match") == etag {
			w.Header().Set("ETag", etag)
			w.WriteHeader(http.StatusNotModified)
			return access.Target{}, nil, false
		}
	}

	content, err := s.fs.ReadFileHead(target.Path, limit)
	if err != nil {
		writeFailure(w, r, &access.PathError{Op: "view", Path: raw, Kind: fsutil.Classify(err), Cause: err})
		return access.Target{}, nil, false
	}
	if fsutil.IsBinary(content[:min(len(content), fsutil.SniffSize)]) {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Binary file cannot be displayed", "")
		return access.Target{}, nil, false
	}

	if etag == "" {
		etag = strconv.Quote(s.checksums.Sum(target.Path, info, content))
		if r.Header.Get("If-None-Match") == etag {
			w.Header().Set("ETag", etag)
			w.WriteHeader(http.StatusNotModified)
			return access.Target{}, nil, false
		}
	}
	w.Header().Set("ETag", etag)
	return target, content, true
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	target, content, ok := s.readViewable(w, r, "/api/view?file=/path/to/file.md")
	if !ok {
		return
	}

	var doc *render.Document
	var err error
	if filetype.IsMarkdown(filetype.Ext(target.Path)) {
		doc, err = s.renderer.Markdown(target.Path, content)
	} else {
		doc, err = s.renderer.Code(target.Path, content)
	}
	if err != nil {
		loggerFrom(r.Context()).Error("render failed", "path", target.Path, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to render file", "")
		return
	}

	writeJSON(w, http.StatusOK, viewResponse{
		Success:   true,
		File:      target.Path,
		Filename:  filepath.Base(target.Path),
		Directory: filepath.Dir(target.Path),
		RawLength: len(content),
		Document:  doc,
	})
}

func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	_, content, ok := s.readViewable(w, r, "/api/raw?file=/path/to/file.txt")
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (s *Server) handleHighlightCSS(w http.ResponseWriter, r *http.Request) {
	css, err := s.renderer.CSS()
	if err != nil {
		loggerFrom(r.Context()).Error("stylesheet failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to build stylesheet", "")
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = w.Write([]byte(css))
}

func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

type browseResponse struct {
	Success bool `json:"success"`
	*browse.Listing
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("dir")
	if dir == "" {
		dir = s.config().DefaultDirectory
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	listing, err := s.lister().List(r.Context(), browse.Request{Dir: dir, Offset: offset, Limit: limit})
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, browseResponse{Success: true, Listing: listing})
}

type checkPathResponse struct {
	access.ProbeResult
	IsFile bool `json:"is_file"`
	IsDir  bool `json:"is_dir"`
}

func (s *Server) handleCheckPath(w http.ResponseWriter, r *http.Request) {
	res := s.validator.Probe(r.URL.Query().Get("path"))
	writeJSON(w, http.StatusOK, checkPathResponse{
		ProbeResult: res,
		IsFile:      res.Type == access.TypeFile,
		IsDir:       res.Type == access.TypeDir,
	})
}

// resolveImage resolves the ?file= parameter to an allowed image file.
func (s *Server) resolveImage(w http.ResponseWriter, r *http.Request) (access.Target, bool) {
	raw := r.URL.Query().Get("file")
	if raw == "" {
		writeJSONError(w, http.StatusBadRequest, "No file path provided", "")
		return access.Target{}, false
	}
	target, err := s.validator.ResolveForRead(raw)
	if err != nil {
		writeFailure(w, r, err)
		return access.Target{}, false
	}
	if !filetype.IsImage(filetype.Ext(target.Path)) {
		writeJSONError(w, http.StatusBadRequest, "Not an image", "")
		return access.Target{}, false
	}
	return target, true
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	target, ok := s.resolveImage(w, r)
	if !ok {
		return
	}

	f, err := os.Open(target.Path)
	if err != nil {
		writeFailure(w, r, &access.PathError{Op: "image", Path: target.Path, Kind: fsutil.Classify(err), Cause: err})
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		writeFailure(w, r, &access.PathError{Op: "image", Path: target.Path, Kind: access.KindIO, Cause: err})
		return
	}
	if info.IsDir() {
		writeJSONError(w, http.StatusBadRequest, "Not an image", "")
		return
	}

	// SVG can carry script; never let it run in the viewer's origin.
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; sandbox")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

type imageInfoResponse struct {
	Success bool `json:"success"`
	*imageinfo.Info
}

func (s *Server) handleImageInfo(w http.ResponseWriter, r *http.Request) {
	target, ok := s.resolveImage(w, r)
	if !ok {
		return
	}
	info, err := s.images.Describe(target.Path)
	if err != nil {
		if imageinfo.IsNotImage(err) {
			writeJSONError(w, http.StatusBadRequest, "Not an image", "")
			return
		}
		writeFailure(w, r, &access.PathError{Op: "image", Path: target.Path, Kind: fsutil.Classify(err), Cause: err})
		return
	}
	writeJSON(w, http.StatusOK, imageInfoResponse{Success: true, Info: info})
}
