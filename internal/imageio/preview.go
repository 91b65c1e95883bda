package imageio

import (
	"fmt"
	"io"

	"github.com/HugoSmits86/nativewebp"

	"github.com/TMunro7/SENG440-Colour-Space-Conversion/internal/csc"
)

// WritePreview encodes img as a lossless WebP so the reconstruction can be
// viewed without a netpbm reader.
func WritePreview(w io.Writer, img *csc.RGB) error {
	if err := img.Validate(); err != nil {
		return err
	}
	if err := nativewebp.Encode(w, ToImage(img), nil); err != nil {
		return fmt.Errorf("encode webp preview: %w", err)
	}
	return nil
}
