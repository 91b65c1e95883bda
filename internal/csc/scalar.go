package csc

import "fmt"

// Scalar is the reference implementation. Every other variant must match
// its output exactly.
type Scalar struct {
	c       Coefficients
	workers int
}

// NewScalar validates c and returns a scalar transformer.
func NewScalar(c Coefficients, opts ...Option) (*Scalar, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	return &Scalar{c: c, workers: o.workers}, nil
}

func (s *Scalar) Variant() Variant { return VariantScalar }

// Forward converts src to 4:2:0. Chroma is clamped per pixel before it is
// downsampled.
func (s *Scalar) Forward(src *RGB, dst *YCbCr) error {
	if err := checkPair(src, dst); err != nil {
		return fmt.Errorf("forward: %w", err)
	}

	blockCols := src.Dims.ChromaCols()
	forEachBand(src.Dims.ChromaRows(), s.workers, func(lo, hi int) {
		for br := lo; br < hi; br++ {
			for bc := 0; bc < blockCols; bc++ {
				s.forwardBlock(src, dst, br, bc)
			}
		}
	})
	return nil
}

func (s *Scalar) forwardBlock(src *RGB, dst *YCbCr, br, bc int) {
	row, col := br<<1, bc<<1

	var cb, cr [4]uint8
	for i := 0; i < 4; i++ {
		pr, pc := row+(i>>1), col+(i&1)
		ri := pr*src.R.Stride + pc
		gi := pr*src.G.Stride + pc
		bi := pr*src.B.Stride + pc

		var y uint8
		y, cb[i], cr[i] = s.c.forwardPixel(int32(src.R.Pix[ri]), int32(src.G.Pix[gi]), int32(src.B.Pix[bi]))
		dst.Y.Pix[pr*dst.Y.Stride+pc] = y
	}

	dst.Cb.Pix[br*dst.Cb.Stride+bc] = Downsample(cb[0], cb[1], cb[2], cb[3])
	dst.Cr.Pix[br*dst.Cr.Stride+bc] = Downsample(cr[0], cr[1], cr[2], cr[3])
}

// Inverse upsamples src chroma and rebuilds RGB.
func (s *Scalar) Inverse(src *YCbCr, dst *RGB) error {
	if err := checkPair(dst, src); err != nil {
		return fmt.Errorf("inverse: %w", err)
	}

	blockCols := src.Dims.ChromaCols()
	forEachBand(src.Dims.ChromaRows(), s.workers, func(lo, hi int) {
		for br := lo; br < hi; br++ {
			for bc := 0; bc < blockCols; bc++ {
				s.inverseBlock(src, dst, br, bc)
			}
		}
	})
	return nil
}

func (s *Scalar) inverseBlock(src *YCbCr, dst *RGB, br, bc int) {
	row, col := br<<1, bc<<1

	var cb, cr [4]uint8
	cb[0], cb[1], cb[2], cb[3] = Upsample(chromaQuad(src.Cb, br, bc))
	cr[0], cr[1], cr[2], cr[3] = Upsample(chromaQuad(src.Cr, br, bc))

	for i := 0; i < 4; i++ {
		pr, pc := row+(i>>1), col+(i&1)
		r, g, b := s.c.inversePixel(src.Y.Pix[pr*src.Y.Stride+pc], cb[i], cr[i])
		dst.R.Pix[pr*dst.R.Stride+pc] = r
		dst.G.Pix[pr*dst.G.Stride+pc] = g
		dst.B.Pix[pr*dst.B.Stride+pc] = b
	}
}

// forwardPixel returns clamped luma and pre-downsample chroma for one pixel.
func (c *Coefficients) forwardPixel(r, g, b int32) (y, cb, cr uint8) {
	y = clampToByte((int32(LumaOffset)<<c.K + c.C11*r + c.C12*g + c.C13*b) >> c.K)
	cb = clampToByte((int32(ChromaOffset)<<c.K - c.C21*r - c.C22*g + c.C23*b) >> c.K)
	cr = clampToByte((int32(ChromaOffset)<<c.K + c.C31*r - c.C32*g - c.C33*b) >> c.K)
	return y, cb, cr
}

// inversePixel rebuilds one RGB pixel with round-to-nearest and saturation.
func (c *Coefficients) inversePixel(yv, cbv, crv uint8) (r, g, b uint8) {
	y := int32(yv) - LumaOffset
	cb := int32(cbv) - ChromaOffset
	cr := int32(crv) - ChromaOffset
	round := c.Round()

	r = clampToByte((c.D1*y + c.D2*cr + round) >> c.K)
	g = clampToByte((c.D1*y - c.D3*cr - c.D4*cb + round) >> c.K)
	b = clampToByte((c.D1*y + c.D5*cb + round) >> c.K)
	return r, g, b
}
