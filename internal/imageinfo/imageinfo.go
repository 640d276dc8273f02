// Package imageinfo reports metadata for image files.
package imageinfo

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Cyclone1070/fileview/internal/filetype"
)

// HeaderSize is how much of a file is read to decode its dimensions.
const HeaderSize = 64 * 1024

var errNotImage = errors.New("not an image")

// exifFields are the EXIF tags reported, keyed by their EXIF names.
var exifFields = []exif.FieldName{
	exif.Make,
	exif.Model,
	exif.DateTime,
	exif.ExposureTime,
	exif.FNumber,
	exif.ISOSpeedRatings,
	exif.FocalLength,
	exif.ImageWidth,
	exif.ImageLength,
	exif.Software,
}

// Info describes an image file. Width, Height and Mode are zero when the
// format cannot be decoded (e.g. SVG); Format then falls back to the
// extension.
type Info struct {
	Name      string            `json:"name"`
	Path      string            `json:"path"`
	Directory string            `json:"directory"`
	Size      int64             `json:"size"`
	SizeHuman string            `json:"size_human"`
	Modified  time.Time         `json:"modified"`
	Created   time.Time         `json:"created"`
	Extension string            `json:"extension"`
	Width     int               `json:"width,omitempty"`
	Height    int               `json:"height,omitempty"`
	Format    string            `json:"format"`
	Mode      string            `json:"mode,omitempty"`
	EXIF      map[string]string `json:"exif,omitempty"`
}

// FileSystem is the read access Reader needs.
type FileSystem interface {
	Stat(path string) (os.FileInfo, error)
	ReadFileHead(path string, limit int64) ([]byte, error)
}

// Reader collects image metadata.
type Reader struct {
	fs FileSystem
}

func NewReader(fs FileSystem) *Reader {
	return &Reader{fs: fs}
}

// Describe returns metadata for the image at path, which must already be
// resolved and allowed.
func (r *Reader) Describe(path string) (*Info, error) {
	ext := filetype.Ext(path)
	if !filetype.IsImage(ext) {
		return nil, errNotImage
	}
	fi, err := r.fs.Stat(path)
	if err != nil {
		return nil, err
	}

	info := &Info{
		Name:      fi.Name(),
		Path:      path,
		Directory: filepath.Dir(path),
		Size:      fi.Size(),
		SizeHuman: filetype.FormatSize(fi.Size()),
		Modified:  fi.ModTime(),
		Created:   changeTime(fi),
		Extension: ext,
		Format:    strings.TrimPrefix(ext, "."),
	}

	header, err := r.fs.ReadFileHead(path, HeaderSize)
	if err != nil {
		return nil, err
	}
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(header)); err == nil {
		info.Width = cfg.Width
		info.Height = cfg.Height
		info.Format = format
		info.Mode = modeName(cfg.ColorModel)
	}
	info.EXIF = readEXIF(header)
	return info, nil
}

// modeName names a colour model the way image tools usually do: RGB, RGBA,
// L for greyscale, P for palettes.
func modeName(m color.Model) string {
	if _, ok := m.(color.Palette); ok {
		return "P"
	}
	switch m {
	case color.RGBAModel, color.RGBA64Model, color.YCbCrModel:
		return "RGB"
	case color.NRGBAModel, color.NRGBA64Model, color.NYCbCrAModel:
		return "RGBA"
	case color.GrayModel:
		return "L"
	case color.Gray16Model:
		return "I;16"
	case color.CMYKModel:
		return "CMYK"
	case color.AlphaModel, color.Alpha16Model:
		return "A"
	}
	return ""
}

// readEXIF returns the known EXIF fields found in header, or nil.
func readEXIF(header []byte) map[string]string {
	x, err := exif.Decode(bytes.NewReader(header))
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		return nil
	}

	fields := make(map[string]string)
	for _, name := range exifFields {
		tag, err := x.Get(name)
		if err != nil {
			continue
		}
		if v := tagValue(tag); v != "" {
			fields[string(name)] = v
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func tagValue(tag *tiff.Tag) string {
	if tag.Format() == tiff.StringVal {
		s, err := tag.StringVal()
		if err != nil {
			return ""
		}
		return strings.TrimRight(s, "\x00 ")
	}
	return strings.Trim(tag.String(), `"`)
}

// IsNotImage reports whether err came from describing a non-image file.
func IsNotImage(err error) bool {
	return errors.Is(err, errNotImage)
}
