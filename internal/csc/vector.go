package csc

import "fmt"

// lanes4 is a 4 x int32 register holding one 2x2 block in the order
// top-left, top-right, bottom-left, bottom-right.
type lanes4 [4]int32

func splat(v int32) lanes4 { return lanes4{v, v, v, v} }

// mla returns a + b*k.
func (a lanes4) mla(b lanes4, k int32) lanes4 {
	return lanes4{a[0] + b[0]*k, a[1] + b[1]*k, a[2] + b[2]*k, a[3] + b[3]*k}
}

// mls returns a - b*k.
func (a lanes4) mls(b lanes4, k int32) lanes4 {
	return lanes4{a[0] - b[0]*k, a[1] - b[1]*k, a[2] - b[2]*k, a[3] - b[3]*k}
}

func (a lanes4) mul(k int32) lanes4 {
	return lanes4{a[0] * k, a[1] * k, a[2] * k, a[3] * k}
}

func (a lanes4) add(b lanes4) lanes4 {
	return lanes4{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]}
}

func (a lanes4) shr(k int) lanes4 {
	return lanes4{a[0] >> k, a[1] >> k, a[2] >> k, a[3] >> k}
}

// clamp8 clamps every lane to [0, 255].
func (a lanes4) clamp8() lanes4 {
	for i, v := range a {
		a[i] = max(0, min(255, v))
	}
	return a
}

func (a lanes4) sum() int32 { return a[0] + a[1] + a[2] + a[3] }

// loadBlock widens the 2x2 block at (row, col) of p.
func loadBlock(p *Plane, row, col int) lanes4 {
	top := p.Pix[row*p.Stride+col:]
	bot := p.Pix[(row+1)*p.Stride+col:]
	return lanes4{int32(top[0]), int32(top[1]), int32(bot[0]), int32(bot[1])}
}

// storeBlock narrows a and writes it to the 2x2 block at (row, col) of p.
// Lanes must already be in [0, 255].
func storeBlock(p *Plane, row, col int, a lanes4) {
	top := p.Pix[row*p.Stride+col:]
	bot := p.Pix[(row+1)*p.Stride+col:]
	top[0], top[1] = uint8(a[0]), uint8(a[1])
	bot[0], bot[1] = uint8(a[2]), uint8(a[3])
}

// Vector processes one 2x2 block per lane operation. Its output is
// identical to Scalar for any coefficient set that passes Validate.
type Vector struct {
	c       Coefficients
	workers int

	lumaBias   lanes4
	chromaBias lanes4
	round      lanes4
	yOffset    lanes4
	cOffset    lanes4
}

// NewVector validates c and returns a 4-lane transformer.
func NewVector(c Coefficients, opts ...Option) (*Vector, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	return &Vector{
		c:          c,
		workers:    o.workers,
		lumaBias:   splat(LumaOffset << c.K),
		chromaBias: splat(ChromaOffset << c.K),
		round:      splat(c.Round()),
		yOffset:    splat(-LumaOffset),
		cOffset:    splat(-ChromaOffset),
	}, nil
}

func (v *Vector) Variant() Variant { return VariantVector }

// Forward converts src to 4:2:0.
func (v *Vector) Forward(src *RGB, dst *YCbCr) error {
	if err := checkPair(src, dst); err != nil {
		return fmt.Errorf("forward: %w", err)
	}

	blockCols := src.Dims.ChromaCols()
	forEachBand(src.Dims.ChromaRows(), v.workers, func(lo, hi int) {
		for br := lo; br < hi; br++ {
			row := br << 1
			for bc := 0; bc < blockCols; bc++ {
				col := bc << 1
				y, cb, cr := v.forwardLanes(
					loadBlock(src.R, row, col),
					loadBlock(src.G, row, col),
					loadBlock(src.B, row, col),
				)
				storeBlock(dst.Y, row, col, y)
				dst.Cb.Pix[br*dst.Cb.Stride+bc] = uint8(cb.sum() >> 2)
				dst.Cr.Pix[br*dst.Cr.Stride+bc] = uint8(cr.sum() >> 2)
			}
		}
	})
	return nil
}

// forwardLanes returns clamped luma and clamped per-pixel chroma.
func (v *Vector) forwardLanes(r, g, b lanes4) (y, cb, cr lanes4) {
	c := &v.c
	y = v.lumaBias.mla(r, c.C11).mla(g, c.C12).mla(b, c.C13).shr(c.K).clamp8()
	cb = v.chromaBias.mls(r, c.C21).mls(g, c.C22).mla(b, c.C23).shr(c.K).clamp8()
	cr = v.chromaBias.mla(r, c.C31).mls(g, c.C32).mls(b, c.C33).shr(c.K).clamp8()
	return y, cb, cr
}

// Inverse upsamples src chroma and rebuilds RGB.
func (v *Vector) Inverse(src *YCbCr, dst *RGB) error {
	if err := checkPair(dst, src); err != nil {
		return fmt.Errorf("inverse: %w", err)
	}

	blockCols := src.Dims.ChromaCols()
	forEachBand(src.Dims.ChromaRows(), v.workers, func(lo, hi int) {
		for br := lo; br < hi; br++ {
			row := br << 1
			for bc := 0; bc < blockCols; bc++ {
				col := bc << 1
				r, g, b := v.inverseLanes(
					loadBlock(src.Y, row, col),
					upsampleLanes(chromaQuad(src.Cb, br, bc)),
					upsampleLanes(chromaQuad(src.Cr, br, bc)),
				)
				storeBlock(dst.R, row, col, r)
				storeBlock(dst.G, row, col, g)
				storeBlock(dst.B, row, col, b)
			}
		}
	})
	return nil
}

// inverseLanes takes unbiased luma and upsampled chroma and returns
// saturated RGB.
func (v *Vector) inverseLanes(yv, cbv, crv lanes4) (r, g, b lanes4) {
	c := &v.c
	y := yv.add(v.yOffset)
	cb := cbv.add(v.cOffset)
	cr := crv.add(v.cOffset)

	luma := y.mul(c.D1)
	r = luma.mla(cr, c.D2).add(v.round).shr(c.K).clamp8()
	g = luma.mls(cr, c.D3).mls(cb, c.D4).add(v.round).shr(c.K).clamp8()
	b = luma.mla(cb, c.D5).add(v.round).shr(c.K).clamp8()
	return r, g, b
}

func upsampleLanes(c00, c01, c10, c11 uint8) lanes4 {
	tl, tr, bl, br := Upsample(c00, c01, c10, c11)
	return lanes4{int32(tl), int32(tr), int32(bl), int32(br)}
}
