package csc

import (
	"fmt"
	"math"
)

// Diff summarises the error between an image and its reconstruction.
type Diff struct {
	// MaxAbs is the largest per-sample absolute difference for R, G and B.
	MaxAbs [3]int
	// PSNR over all three channels in dB; +Inf when the images are identical.
	PSNR float64
}

// Compare measures b against the reference a.
func Compare(a, b *RGB) (Diff, error) {
	if err := a.Validate(); err != nil {
		return Diff{}, err
	}
	if err := b.Validate(); err != nil {
		return Diff{}, err
	}
	if a.Dims != b.Dims {
		return Diff{}, fmt.Errorf("%w: %s vs %s", ErrDimensionMismatch, a.Dims, b.Dims)
	}

	var d Diff
	var sq uint64
	pa := [3]*Plane{a.R, a.G, a.B}
	pb := [3]*Plane{b.R, b.G, b.B}
	for ch := range pa {
		for row := 0; row < a.Dims.Rows; row++ {
			ra, rb := pa[ch].Row(row), pb[ch].Row(row)
			for i := range ra {
				e := int(ra[i]) - int(rb[i])
				if e < 0 {
					e = -e
				}
				if e > d.MaxAbs[ch] {
					d.MaxAbs[ch] = e
				}
				sq += uint64(e * e)
			}
		}
	}

	if sq == 0 {
		d.PSNR = math.Inf(1)
		return d, nil
	}
	mse := float64(sq) / float64(3*a.Dims.Pixels())
	d.PSNR = 10 * math.Log10(255*255/mse)
	return d, nil
}
