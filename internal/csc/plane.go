package csc

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDimensions indicates rows or cols that are not positive and even.
	ErrInvalidDimensions = errors.New("image dimensions must be positive and even")

	// ErrDimensionMismatch indicates source and destination images of different sizes.
	ErrDimensionMismatch = errors.New("image dimensions do not match")
)

// Dimensions is the size of a full resolution image. Both fields are
// positive and even when built through NewDimensions.
type Dimensions struct {
	Rows int
	Cols int
}

// NewDimensions validates rows and cols.
func NewDimensions(rows, cols int) (Dimensions, error) {
	if rows <= 0 || cols <= 0 || rows%2 != 0 || cols%2 != 0 {
		return Dimensions{}, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, cols)
	}
	return Dimensions{Rows: rows, Cols: cols}, nil
}

// ChromaRows returns the number of rows of a subsampled chroma plane.
func (d Dimensions) ChromaRows() int { return d.Rows >> 1 }

// ChromaCols returns the number of columns of a subsampled chroma plane.
func (d Dimensions) ChromaCols() int { return d.Cols >> 1 }

// Pixels returns Rows*Cols.
func (d Dimensions) Pixels() int { return d.Rows * d.Cols }

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Cols, d.Rows)
}

// Plane is a row-major grid of 8-bit samples backed by one buffer.
type Plane struct {
	Rows   int
	Cols   int
	Stride int
	Pix    []uint8
}

// NewPlane allocates a zeroed rows x cols plane.
func NewPlane(rows, cols int) *Plane {
	return &Plane{
		Rows:   rows,
		Cols:   cols,
		Stride: cols,
		Pix:    make([]uint8, rows*cols),
	}
}

// Row returns the samples of one row. It panics when row is out of range.
func (p *Plane) Row(row int) []uint8 {
	if row < 0 || row >= p.Rows {
		panic(fmt.Sprintf("csc: row %d out of range [0,%d)", row, p.Rows))
	}
	off := row * p.Stride
	return p.Pix[off : off+p.Cols : off+p.Cols]
}

// At returns the sample at (row, col).
func (p *Plane) At(row, col int) uint8 {
	return p.Row(row)[col]
}

// Set stores v at (row, col).
func (p *Plane) Set(row, col int, v uint8) {
	p.Row(row)[col] = v
}

// Fill sets every sample to v.
func (p *Plane) Fill(v uint8) {
	for r := 0; r < p.Rows; r++ {
		row := p.Row(r)
		for i := range row {
			row[i] = v
		}
	}
}

func (p *Plane) sameSize(rows, cols int) bool {
	return p != nil && p.Rows == rows && p.Cols == cols && len(p.Pix) >= (rows-1)*p.Stride+cols
}

// RGB is a planar full resolution RGB image.
type RGB struct {
	Dims    Dimensions
	R, G, B *Plane
}

// NewRGB allocates an RGB image. d must come from NewDimensions.
func NewRGB(d Dimensions) *RGB {
	return &RGB{
		Dims: d,
		R:    NewPlane(d.Rows, d.Cols),
		G:    NewPlane(d.Rows, d.Cols),
		B:    NewPlane(d.Rows, d.Cols),
	}
}

// Validate checks that all three planes match Dims.
func (img *RGB) Validate() error {
	if img == nil {
		return fmt.Errorf("nil RGB image: %w", ErrDimensionMismatch)
	}
	if _, err := NewDimensions(img.Dims.Rows, img.Dims.Cols); err != nil {
		return err
	}
	for _, p := range []*Plane{img.R, img.G, img.B} {
		if !p.sameSize(img.Dims.Rows, img.Dims.Cols) {
			return fmt.Errorf("RGB plane does not match %s: %w", img.Dims, ErrDimensionMismatch)
		}
	}
	return nil
}

// YCbCr is a 4:2:0 image: full resolution Y, half resolution Cb and Cr.
type YCbCr struct {
	Dims      Dimensions
	Y, Cb, Cr *Plane
}

// NewYCbCr allocates a 4:2:0 image. d must come from NewDimensions.
func NewYCbCr(d Dimensions) *YCbCr {
	return &YCbCr{
		Dims: d,
		Y:    NewPlane(d.Rows, d.Cols),
		Cb:   NewPlane(d.ChromaRows(), d.ChromaCols()),
		Cr:   NewPlane(d.ChromaRows(), d.ChromaCols()),
	}
}

// Validate checks luma against Dims and chroma against half of Dims.
func (img *YCbCr) Validate() error {
	if img == nil {
		return fmt.Errorf("nil YCbCr image: %w", ErrDimensionMismatch)
	}
	if _, err := NewDimensions(img.Dims.Rows, img.Dims.Cols); err != nil {
		return err
	}
	if !img.Y.sameSize(img.Dims.Rows, img.Dims.Cols) {
		return fmt.Errorf("luma plane does not match %s: %w", img.Dims, ErrDimensionMismatch)
	}
	cr, cc := img.Dims.ChromaRows(), img.Dims.ChromaCols()
	if !img.Cb.sameSize(cr, cc) || !img.Cr.sameSize(cr, cc) {
		return fmt.Errorf("chroma plane does not match %dx%d: %w", cc, cr, ErrDimensionMismatch)
	}
	return nil
}

func checkPair(rgb *RGB, ycc *YCbCr) error {
	if err := rgb.Validate(); err != nil {
		return err
	}
	if err := ycc.Validate(); err != nil {
		return err
	}
	if rgb.Dims != ycc.Dims {
		return fmt.Errorf("%w: RGB %s, YCbCr %s", ErrDimensionMismatch, rgb.Dims, ycc.Dims)
	}
	return nil
}
