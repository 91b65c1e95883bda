// Package csc implements fixed-point RGB <-> YCbCr 4:2:0 colour space
// conversion on planar 8-bit images.
//
// The forward transform produces full resolution luma and quarter
// resolution chroma. The inverse transform upsamples chroma and rebuilds
// RGB. Both operate on non-overlapping 2x2 blocks and never use floating
// point.
package csc

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrCoefficientOverflow indicates a coefficient set whose intermediate
	// sums cannot be held in a signed 32-bit lane.
	ErrCoefficientOverflow = errors.New("coefficient set overflows 32-bit intermediates")

	// ErrInvalidShift indicates a fixed-point shift outside [1, 16].
	ErrInvalidShift = errors.New("fixed-point shift out of range")
)

// Offsets added to luma and chroma in the forward transform and removed in
// the inverse transform.
const (
	LumaOffset   = 16
	ChromaOffset = 128
)

// Coefficients is a fixed-point coefficient set.
//
// Forward (RGB -> YCbCr), with every term shifted right by K:
//
//	Y  = (16<<K)  + C11*R + C12*G + C13*B
//	Cb = (128<<K) - C21*R - C22*G + C23*B
//	Cr = (128<<K) + C31*R - C32*G - C33*B
//
// Inverse (YCbCr -> RGB), with y=Y-16, cb=Cb-128, cr=Cr-128:
//
//	R = D1*y + D2*cr
//	G = D1*y - D3*cr - D4*cb
//	B = D1*y + D5*cb
//
// The signs are part of the formula; every coefficient is non-negative.
type Coefficients struct {
	K int

	C11, C12, C13 int32
	C21, C22, C23 int32
	C31, C32, C33 int32

	D1, D2, D3, D4, D5 int32
}

// BT601 is the 8-bit studio-swing BT.601 set scaled by 2^8.
var BT601 = Coefficients{
	K: 8,

	C11: 66, C12: 129, C13: 25, // 0.257 0.504 0.098
	C21: 38, C22: 74, C23: 112, // 0.148 0.291 0.439
	C31: 112, C32: 94, C33: 18, // 0.439 0.368 0.071

	D1: 298, // 1.164
	D2: 409, // 1.596
	D3: 208, // 0.813
	D4: 100, // 0.391
	D5: 516, // 2.018
}

// Round is the round-to-nearest term added before the inverse shift.
func (c Coefficients) Round() int32 {
	return 1 << (c.K - 1)
}

// Validate checks the shift range and that no forward or inverse partial
// sum over 8-bit inputs leaves the int32 range. A set that passes produces
// identical results in the scalar and vector variants.
func (c Coefficients) Validate() error {
	if c.K < 1 || c.K > 16 {
		return fmt.Errorf("%w: K=%d", ErrInvalidShift, c.K)
	}

	for _, v := range []int32{
		c.C11, c.C12, c.C13, c.C21, c.C22, c.C23, c.C31, c.C32, c.C33,
		c.D1, c.D2, c.D3, c.D4, c.D5,
	} {
		if v < 0 {
			return fmt.Errorf("coefficient %d is negative: %w", v, ErrCoefficientOverflow)
		}
	}

	bias := int64(ChromaOffset) << c.K
	forward := []int64{
		int64(c.C11) + int64(c.C12) + int64(c.C13),
		int64(c.C21) + int64(c.C22) + int64(c.C23),
		int64(c.C31) + int64(c.C32) + int64(c.C33),
	}
	for _, sum := range forward {
		if bias+255*sum > math.MaxInt32 {
			return fmt.Errorf("forward row sum %d: %w", sum, ErrCoefficientOverflow)
		}
	}

	// |y| <= 239, |cb|,|cr| <= 128
	round := int64(1) << (c.K - 1)
	inverse := []int64{
		239*int64(c.D1) + 128*int64(c.D2),
		239*int64(c.D1) + 128*int64(c.D3) + 128*int64(c.D4),
		239*int64(c.D1) + 128*int64(c.D5),
	}
	for _, sum := range inverse {
		if sum+round > math.MaxInt32 {
			return fmt.Errorf("inverse row sum %d: %w", sum, ErrCoefficientOverflow)
		}
	}

	return nil
}

// clampToByte clamps v to [0, 255].
func clampToByte(v int32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
