package imageio

import (
	"bufio"
	"fmt"
	"io"

	"github.com/TMunro7/SENG440-Colour-Space-Conversion/internal/csc"
)

// WritePGM writes p as a plain-text graymap: a P2 header, then one line
// per row with each sample printed as "%3d ".
func WritePGM(w io.Writer, p *csc.Plane) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P2\n%d %d\n255\n", p.Cols, p.Rows); err != nil {
		return fmt.Errorf("write pgm header: %w", err)
	}

	for row := 0; row < p.Rows; row++ {
		for _, v := range p.Row(row) {
			fmt.Fprintf(bw, "%3d ", v)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("write pgm row %d: %w", row, err)
		}
	}
	return bw.Flush()
}

// WritePPM writes img as a plain-text pixmap: a P3 header, then one line
// per row with each pixel printed as "%3d %3d %3d  ".
func WritePPM(w io.Writer, img *csc.RGB) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P3\n%d %d\n255\n", img.Dims.Cols, img.Dims.Rows); err != nil {
		return fmt.Errorf("write ppm header: %w", err)
	}

	for row := 0; row < img.Dims.Rows; row++ {
		rr, gr, br := img.R.Row(row), img.G.Row(row), img.B.Row(row)
		for col := range rr {
			fmt.Fprintf(bw, "%3d %3d %3d  ", rr[col], gr[col], br[col])
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("write ppm row %d: %w", row, err)
		}
	}
	return bw.Flush()
}
