package imageio

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/TMunro7/SENG440-Colour-Space-Conversion/internal/csc"
)

// Input formats accepted by Load.
const (
	FormatAuto = "auto"
	FormatRaw  = "raw"
	FormatPNG  = "png"
	FormatBMP  = "bmp"
	FormatTIFF = "tiff"
	FormatWebP = "webp"
)

var extFormats = map[string]string{
	".raw":  FormatRaw,
	".rgb":  FormatRaw,
	".bin":  FormatRaw,
	".png":  FormatPNG,
	".bmp":  FormatBMP,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
	".webp": FormatWebP,
}

// ValidFormat reports whether name is a format Load understands.
func ValidFormat(name string) bool {
	switch name {
	case FormatAuto, FormatRaw, FormatPNG, FormatBMP, FormatTIFF, FormatWebP:
		return true
	}
	return false
}

// DetectFormat resolves FormatAuto from the file extension. Unknown
// extensions fall back to raw, matching headerless dumps with arbitrary names.
func DetectFormat(path, format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatAuto
	}
	if !ValidFormat(format) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if format != FormatAuto {
		return format, nil
	}
	if f, ok := extFormats[strings.ToLower(filepath.Ext(path))]; ok {
		return f, nil
	}
	return FormatRaw, nil
}

// Load opens path and reads it as format. d is only used for raw input;
// container formats carry their own size, which is checked against
// maxPixels before decoding. maxPixels <= 0 disables the limit.
func Load(path, format string, d csc.Dimensions, maxPixels int) (*csc.RGB, error) {
	format, err := DetectFormat(path, format)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	if format == FormatRaw {
		if err := checkPixels(d.Rows, d.Cols, maxPixels); err != nil {
			return nil, err
		}
		return ReadRaw(f, d)
	}
	return DecodeMax(f, format, maxPixels)
}

type codec struct {
	decode func(io.Reader) (image.Image, error)
	config func(io.Reader) (image.Config, error)
}

var codecs = map[string]codec{
	FormatPNG:  {png.Decode, png.DecodeConfig},
	FormatBMP:  {bmp.Decode, bmp.DecodeConfig},
	FormatTIFF: {tiff.Decode, tiff.DecodeConfig},
	FormatWebP: {webp.Decode, webp.DecodeConfig},
}

// Decode reads a PNG, BMP, TIFF or WebP stream into planes. The decoded image
// must have even dimensions.
func Decode(r io.Reader, format string) (*csc.RGB, error) {
	return DecodeMax(r, format, 0)
}

// DecodeMax is Decode with a pixel limit. The size is read from the stream
// header, so an oversized image fails with ErrTooLarge before its pixels are
// decoded. maxPixels <= 0 disables the limit.
func DecodeMax(r io.Reader, format string, maxPixels int) (*csc.RGB, error) {
	c, ok := codecs[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if maxPixels > 0 {
		var head bytes.Buffer
		cfg, err := c.config(io.TeeReader(r, &head))
		if err != nil {
			return nil, fmt.Errorf("decode %s header: %w", format, err)
		}
		if err := checkPixels(cfg.Height, cfg.Width, maxPixels); err != nil {
			return nil, err
		}
		r = io.MultiReader(&head, r)
	}

	img, err := c.decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}

	return FromImage(img)
}

func checkPixels(rows, cols, maxPixels int) error {
	if maxPixels > 0 && rows*cols > maxPixels {
		return fmt.Errorf("%w: %dx%d is over %d pixels", ErrTooLarge, cols, rows, maxPixels)
	}
	return nil
}

// FromImage copies an image.Image into planes, dropping alpha.
func FromImage(img image.Image) (*csc.RGB, error) {
	b := img.Bounds()
	d, err := csc.NewDimensions(b.Dy(), b.Dx())
	if err != nil {
		return nil, err
	}

	out := csc.NewRGB(d)
	for row := 0; row < d.Rows; row++ {
		rr, gr, br := out.R.Row(row), out.G.Row(row), out.B.Row(row)
		for col := 0; col < d.Cols; col++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+col, b.Min.Y+row)).(color.NRGBA)
			rr[col], gr[col], br[col] = c.R, c.G, c.B
		}
	}
	return out, nil
}

// ToImage converts planes into an opaque *image.NRGBA.
func ToImage(img *csc.RGB) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Dims.Cols, img.Dims.Rows))
	for row := 0; row < img.Dims.Rows; row++ {
		rr, gr, br := img.R.Row(row), img.G.Row(row), img.B.Row(row)
		px := out.Pix[row*out.Stride:]
		for col := range rr {
			px[col*4+0] = rr[col]
			px[col*4+1] = gr[col]
			px[col*4+2] = br[col]
			px[col*4+3] = 255
		}
	}
	return out
}
