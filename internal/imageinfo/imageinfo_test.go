package imageinfo

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cyclone1070/fileview/internal/fsutil"
)

func writeImage(t *testing.T, path string, encode func(*os.File, image.Image) error) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, encode(f, img))
}

func TestDescribe(t *testing.T) {
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "a.PNG")
	gifPath := filepath.Join(dir, "b.gif")
	svgPath := filepath.Join(dir, "c.svg")
	writeImage(t, pngPath, func(f *os.File, img image.Image) error { return png.Encode(f, img) })
	writeImage(t, gifPath, func(f *os.File, img image.Image) error { return gif.Encode(f, img, nil) })
	require.NoError(t, os.WriteFile(svgPath, []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`), 0o644))

	r := NewReader(fsutil.NewOSFileSystem())

	tests := []struct {
		path   string
		width  int
		height int
		format string
		mode   string
		ext    string
	}{
		{path: pngPath, width: 3, height: 2, format: "png", mode: "RGBA", ext: ".png"},
		{path: gifPath, width: 3, height: 2, format: "gif", mode: "P", ext: ".gif"},
		{path: svgPath, format: "svg", ext: ".svg"},
	}

	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			info, err := r.Describe(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.width, info.Width)
			assert.Equal(t, tt.height, info.Height)
			assert.Equal(t, tt.format, info.Format)
			assert.Equal(t, tt.mode, info.Mode)
			assert.Equal(t, tt.ext, info.Extension)
			assert.Equal(t, filepath.Base(tt.path), info.Name)
			assert.Equal(t, dir, info.Directory)
			assert.Positive(t, info.Size)
			assert.False(t, info.Modified.IsZero())
			assert.False(t, info.Created.IsZero())
			assert.Nil(t, info.EXIF)
		})
	}
}

func TestDescribe_Errors(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))
	r := NewReader(fsutil.NewOSFileSystem())

	_, err := r.Describe(txt)
	assert.True(t, IsNotImage(err))

	_, err = r.Describe(filepath.Join(dir, "missing.png"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.False(t, IsNotImage(err))
}

func TestDescribe_CorruptImageHasNoDimensions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not really a jpeg"), 0o644))

	info, err := NewReader(fsutil.NewOSFileSystem()).Describe(path)

	require.NoError(t, err)
	assert.Zero(t, info.Width)
	assert.Empty(t, info.Mode)
	assert.Equal(t, "jpg", info.Format)
	assert.Equal(t, int64(17), info.Size)
}

// exifSegment builds a JPEG APP1 segment holding a little-endian TIFF IFD
// with Make and Model.
func exifSegment() []byte {
	var tif bytes.Buffer
	le := binary.LittleEndian
	tif.WriteString("II")
	_ = binary.Write(&tif, le, uint16(42))
	_ = binary.Write(&tif, le, uint32(8))

	// IFD0: two entries followed by the next-IFD offset; Make's value lives
	// right after it at offset 8+2+2*12+4 = 38.
	_ = binary.Write(&tif, le, uint16(2))
	_ = binary.Write(&tif, le, []uint16{0x010f, 2})
	_ = binary.Write(&tif, le, []uint32{5, 38})
	_ = binary.Write(&tif, le, []uint16{0x0110, 2})
	_ = binary.Write(&tif, le, uint32(3))
	tif.Write([]byte{'X', '1', 0, 0})
	_ = binary.Write(&tif, le, uint32(0))
	tif.WriteString("Acme\x00")

	payload := append([]byte("Exif\x00\x00"), tif.Bytes()...)
	seg := []byte{0xff, 0xe1, 0, 0}
	binary.BigEndian.PutUint16(seg[2:], uint16(len(payload)+2))
	return append(seg, payload...)
}

func TestDescribe_EXIF(t *testing.T) {
	var enc bytes.Buffer
	require.NoError(t, jpeg.Encode(&enc, image.NewGray(image.Rect(0, 0, 5, 4)), nil))
	raw := enc.Bytes()
	// Splice the APP1 segment in right after SOI.
	data := append(append(append([]byte{}, raw[:2]...), exifSegment()...), raw[2:]...)

	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	info, err := NewReader(fsutil.NewOSFileSystem()).Describe(path)

	require.NoError(t, err)
	assert.Equal(t, 5, info.Width)
	assert.Equal(t, 4, info.Height)
	assert.Equal(t, "jpeg", info.Format)
	assert.Equal(t, "L", info.Mode)
	assert.Equal(t, map[string]string{"Make": "Acme", "Model": "X1"}, info.EXIF)
}

func TestModeName(t *testing.T) {
	assert.Equal(t, "RGB", modeName(color.YCbCrModel))
	assert.Equal(t, "CMYK", modeName(color.CMYKModel))
	assert.Equal(t, "P", modeName(color.Palette{color.Black}))
	assert.Empty(t, modeName(color.ModelFunc(func(c color.Color) color.Color { return c })))
}
