package csc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDimensions(t *testing.T) {
	tests := []struct {
		name    string
		rows    int
		cols    int
		wantErr bool
	}{
		{"original size", 480, 500, false},
		{"smallest", 2, 2, false},
		{"odd rows", 3, 4, true},
		{"odd cols", 4, 5, true},
		{"zero rows", 0, 4, true},
		{"negative cols", 4, -2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDimensions(tt.rows, tt.cols)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDimensions)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.rows/2, d.ChromaRows())
			assert.Equal(t, tt.cols/2, d.ChromaCols())
			assert.Equal(t, tt.rows*tt.cols, d.Pixels())
		})
	}
}

func TestPlaneAccess(t *testing.T) {
	p := NewPlane(2, 3)
	p.Set(1, 2, 42)

	assert.Equal(t, uint8(42), p.At(1, 2))
	assert.Equal(t, uint8(42), p.Pix[5])
	assert.Len(t, p.Row(0), 3)

	assert.Panics(t, func() { p.At(2, 0) })
	assert.Panics(t, func() { p.At(0, 3) })
	assert.Panics(t, func() { p.Set(-1, 0, 1) })
}

func TestPlaneFill(t *testing.T) {
	p := NewPlane(4, 4)
	p.Fill(7)
	for _, v := range p.Pix {
		assert.Equal(t, uint8(7), v)
	}
}

func TestNewYCbCr_ChromaIsHalfSize(t *testing.T) {
	d, err := NewDimensions(480, 500)
	require.NoError(t, err)

	img := NewYCbCr(d)
	require.NoError(t, img.Validate())
	assert.Equal(t, 480, img.Y.Rows)
	assert.Equal(t, 500, img.Y.Cols)
	assert.Equal(t, 240, img.Cb.Rows)
	assert.Equal(t, 250, img.Cb.Cols)
	assert.Equal(t, 240, img.Cr.Rows)
	assert.Equal(t, 250, img.Cr.Cols)
}

func TestValidate_Mismatch(t *testing.T) {
	d, err := NewDimensions(4, 4)
	require.NoError(t, err)

	rgb := NewRGB(d)
	rgb.G = NewPlane(4, 2)
	assert.ErrorIs(t, rgb.Validate(), ErrDimensionMismatch)

	ycc := NewYCbCr(d)
	ycc.Cr = NewPlane(4, 4)
	assert.ErrorIs(t, ycc.Validate(), ErrDimensionMismatch)

	var nilRGB *RGB
	assert.ErrorIs(t, nilRGB.Validate(), ErrDimensionMismatch)
}
