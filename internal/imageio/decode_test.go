package imageio

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/TMunro7/SENG440-Colour-Space-Conversion/internal/csc"
)

func gradient(rows, cols int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 20), B: uint8(x + y), A: 255})
		}
	}
	return img
}

func TestDecode_Formats(t *testing.T) {
	src := gradient(4, 6)

	tests := []struct {
		format string
		encode func(*bytes.Buffer) error
	}{
		{FormatPNG, func(b *bytes.Buffer) error { return png.Encode(b, src) }},
		{FormatBMP, func(b *bytes.Buffer) error { return bmp.Encode(b, src) }},
		{FormatTIFF, func(b *bytes.Buffer) error { return tiff.Encode(b, src, nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.encode(&buf))

			img, err := Decode(&buf, tt.format)
			require.NoError(t, err)
			assert.Equal(t, 4, img.Dims.Rows)
			assert.Equal(t, 6, img.Dims.Cols)
			assert.Equal(t, uint8(50), img.R.At(3, 5))
			assert.Equal(t, uint8(60), img.G.At(3, 5))
			assert.Equal(t, uint8(8), img.B.At(3, 5))
		})
	}
}

func TestDecodeMax(t *testing.T) {
	src := gradient(100, 200)

	tests := []struct {
		format string
		encode func(*bytes.Buffer) error
	}{
		{FormatPNG, func(b *bytes.Buffer) error { return png.Encode(b, src) }},
		{FormatBMP, func(b *bytes.Buffer) error { return bmp.Encode(b, src) }},
		{FormatTIFF, func(b *bytes.Buffer) error { return tiff.Encode(b, src, nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.encode(&buf))
			data := buf.Bytes()

			_, err := DecodeMax(bytes.NewReader(data), tt.format, 24)
			assert.ErrorIs(t, err, ErrTooLarge)

			img, err := DecodeMax(bytes.NewReader(data), tt.format, 200*100)
			require.NoError(t, err)
			assert.Equal(t, 100, img.Dims.Rows)
			assert.Equal(t, 200, img.Dims.Cols)
			assert.Equal(t, uint8(50), img.R.At(3, 5))
		})
	}

	_, err := DecodeMax(bytes.NewReader([]byte("not an image")), FormatPNG, 24)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrTooLarge)
}

func TestDecode_OddDimensions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, gradient(3, 4)))

	_, err := Decode(&buf, FormatPNG)
	assert.ErrorIs(t, err, csc.ErrInvalidDimensions)
}

func TestDecode_Unsupported(t *testing.T) {
	_, err := Decode(bytes.NewReader(nil), "gif")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		format  string
		want    string
		wantErr bool
	}{
		{"in.png", "auto", FormatPNG, false},
		{"IN.PNG", "", FormatPNG, false},
		{"scan.tif", "auto", FormatTIFF, false},
		{"scan.bmp", "auto", FormatBMP, false},
		{"photo.WebP", "auto", FormatWebP, false},
		{"dump.rgb", "auto", FormatRaw, false},
		{"noext", "auto", FormatRaw, false},
		{"in.png", "raw", FormatRaw, false},
		{"in.png", "jpeg", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.format, func(t *testing.T) {
			got, err := DetectFormat(tt.path, tt.format)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	d := dims(t, 2, 4)

	rawPath := filepath.Join(dir, "input")
	require.NoError(t, os.WriteFile(rawPath, bytes.Repeat([]byte{9, 8, 7}, 8), 0o644))
	img, err := Load(rawPath, FormatAuto, d, 8)
	require.NoError(t, err)
	assert.Equal(t, uint8(9), img.R.At(1, 3))
	assert.Equal(t, uint8(7), img.B.At(1, 3))

	pngPath := filepath.Join(dir, "input.png")
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, gradient(4, 6)))
	require.NoError(t, os.WriteFile(pngPath, buf.Bytes(), 0o644))
	img, err = Load(pngPath, FormatAuto, d, 24)
	require.NoError(t, err)
	assert.Equal(t, 6, img.Dims.Cols)

	_, err = Load(pngPath, FormatAuto, d, 23)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = Load(rawPath, FormatAuto, d, 7)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = Load(filepath.Join(dir, "missing.raw"), FormatAuto, d, 0)
	assert.Error(t, err)
}

func TestToImage_FromImage(t *testing.T) {
	src := gradient(4, 6)
	planes, err := FromImage(src)
	require.NoError(t, err)

	back := ToImage(planes)
	assert.Equal(t, src.Pix, back.Pix)
}
