// Package imageio loads RGB images into planes and writes converted planes
// back out: raw interleaved RGB, PNG/BMP/TIFF input, PGM/PPM text output and
// the YCC container.
package imageio

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/TMunro7/SENG440-Colour-Space-Conversion/internal/csc"
)

var (
	// ErrShortRead indicates raw input with fewer than rows*cols*3 bytes.
	ErrShortRead = errors.New("raw image shorter than expected")

	// ErrUnsupportedFormat indicates an unknown input format name or extension.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrTooLarge indicates an input with more pixels than the configured limit.
	ErrTooLarge = errors.New("image exceeds pixel limit")
)

// ReadRaw reads d.Pixels() interleaved R,G,B triples in row-major order with
// no header and splits them into planes.
func ReadRaw(r io.Reader, d csc.Dimensions) (*csc.RGB, error) {
	buf := make([]byte, d.Pixels()*3)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: got %d of %d bytes for %s", ErrShortRead, n, len(buf), d)
		}
		return nil, fmt.Errorf("read raw image: %w", err)
	}

	return Deinterleave(buf, d)
}

// Deinterleave splits packed R,G,B triples into a planar image.
func Deinterleave(buf []byte, d csc.Dimensions) (*csc.RGB, error) {
	if len(buf) < d.Pixels()*3 {
		return nil, fmt.Errorf("%w: got %d of %d bytes for %s", ErrShortRead, len(buf), d.Pixels()*3, d)
	}

	img := csc.NewRGB(d)
	i := 0
	for row := 0; row < d.Rows; row++ {
		rr, gr, br := img.R.Row(row), img.G.Row(row), img.B.Row(row)
		for col := 0; col < d.Cols; col++ {
			rr[col] = buf[i]
			gr[col] = buf[i+1]
			br[col] = buf[i+2]
			i += 3
		}
	}
	return img, nil
}

// Interleave packs a planar image into R,G,B triples.
func Interleave(img *csc.RGB) []byte {
	out := make([]byte, 0, img.Dims.Pixels()*3)
	for row := 0; row < img.Dims.Rows; row++ {
		rr, gr, br := img.R.Row(row), img.G.Row(row), img.B.Row(row)
		for col := range rr {
			out = append(out, rr[col], gr[col], br[col])
		}
	}
	return out
}

// WriteRaw writes img as headerless interleaved R,G,B triples.
func WriteRaw(w io.Writer, img *csc.RGB) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(Interleave(img)); err != nil {
		return fmt.Errorf("write raw image: %w", err)
	}
	return bw.Flush()
}
