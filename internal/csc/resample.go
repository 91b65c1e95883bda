package csc

// Downsample averages the four chroma samples of a 2x2 block, truncating.
func Downsample(c00, c01, c10, c11 uint8) uint8 {
	return uint8((int(c00) + int(c01) + int(c10) + int(c11)) >> 2)
}

// Upsample expands one subsampled chroma value into the four samples of its
// block. c01, c10 and c11 are the right, below and diagonal neighbours.
// The top-left sample is copied; the others are truncating averages.
func Upsample(c00, c01, c10, c11 uint8) (tl, tr, bl, br uint8) {
	a := int(c00)
	tl = c00
	tr = uint8((a + int(c01)) >> 1)
	bl = uint8((a + int(c10)) >> 1)
	br = uint8((a + int(c01) + int(c10) + int(c11)) >> 2)
	return tl, tr, bl, br
}

// chromaQuad fetches the chroma value of block (br, bc) and its right, below
// and diagonal neighbours. Neighbours past the last row or column clamp to
// the last valid index.
func chromaQuad(p *Plane, br, bc int) (c00, c01, c10, c11 uint8) {
	nr, nc := br+1, bc+1
	if nr >= p.Rows {
		nr = p.Rows - 1
	}
	if nc >= p.Cols {
		nc = p.Cols - 1
	}

	row := p.Pix[br*p.Stride:]
	next := p.Pix[nr*p.Stride:]
	return row[bc], row[nc], next[bc], next[nc]
}
