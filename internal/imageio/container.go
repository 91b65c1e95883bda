package imageio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/TMunro7/SENG440-Colour-Space-Conversion/internal/csc"
)

// ErrBadContainer indicates a YCC stream with a bad header or payload.
var ErrBadContainer = errors.New("malformed YCC container")

// YCC container layout (little endian):
//
//	0  magic "YCC0"
//	4  version (1)
//	5  flags (bit 0: payload is one zstd frame)
//	6  reserved, 2 bytes, must be zero
//	8  rows uint32
//	12 cols uint32
//	16 payload: Y plane, then Cb, then Cr, each row-major without padding
const (
	yccMagic      = "YCC0"
	yccVersion    = 1
	yccHeaderSize = 16

	flagZstd = 1 << 0

	// maxContainerPixels bounds allocations driven by an untrusted header.
	maxContainerPixels = 1 << 26
)

var zstdEncPool = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderConcurrency(1),
			zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
			zstd.WithLowerEncoderMem(true),
		)
		if err != nil {
			panic(err)
		}
		return enc
	},
}

var zstdDecPool = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(true),
			zstd.WithDecoderMaxMemory(maxContainerPixels*2),
		)
		if err != nil {
			panic(err)
		}
		return dec
	},
}

// payloadSize is the number of plane bytes for d: luma plus two chroma planes.
func payloadSize(d csc.Dimensions) int {
	return d.Pixels() + 2*d.ChromaRows()*d.ChromaCols()
}

func appendPlane(dst []byte, p *csc.Plane) []byte {
	for row := 0; row < p.Rows; row++ {
		dst = append(dst, p.Row(row)...)
	}
	return dst
}

// WriteYCC serialises img, compressing the planes with zstd when compress
// is set.
func WriteYCC(w io.Writer, img *csc.YCbCr, compress bool) error {
	if err := img.Validate(); err != nil {
		return err
	}

	raw := make([]byte, 0, payloadSize(img.Dims))
	raw = appendPlane(raw, img.Y)
	raw = appendPlane(raw, img.Cb)
	raw = appendPlane(raw, img.Cr)

	var header [yccHeaderSize]byte
	copy(header[:4], yccMagic)
	header[4] = yccVersion
	binary.LittleEndian.PutUint32(header[8:], uint32(img.Dims.Rows))
	binary.LittleEndian.PutUint32(header[12:], uint32(img.Dims.Cols))

	payload := raw
	if compress {
		header[5] |= flagZstd
		enc := zstdEncPool.Get().(*zstd.Encoder)
		payload = enc.EncodeAll(raw, nil)
		zstdEncPool.Put(enc)
	}

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write ycc header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write ycc payload: %w", err)
	}
	return nil
}

// EncodeYCC is WriteYCC into a byte slice.
func EncodeYCC(img *csc.YCbCr, compress bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteYCC(&buf, img, compress); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadYCC parses a container written by WriteYCC.
func ReadYCC(r io.Reader) (*csc.YCbCr, error) {
	var header [yccHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrBadContainer, err)
	}
	if string(header[:4]) != yccMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrBadContainer, header[:4])
	}
	if header[4] != yccVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadContainer, header[4])
	}
	if unknown := header[5] &^ flagZstd; unknown != 0 {
		return nil, fmt.Errorf("%w: unknown flags %#02x", ErrBadContainer, unknown)
	}
	if header[6] != 0 || header[7] != 0 {
		return nil, fmt.Errorf("%w: reserved bytes set", ErrBadContainer)
	}

	rows := binary.LittleEndian.Uint32(header[8:])
	cols := binary.LittleEndian.Uint32(header[12:])
	if uint64(rows)*uint64(cols) > maxContainerPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds size limit", ErrBadContainer, cols, rows)
	}
	d, err := csc.NewDimensions(int(rows), int(cols))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadContainer, err)
	}

	size := payloadSize(d)
	var raw []byte
	if header[5]&flagZstd != 0 {
		compressed, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read ycc payload: %w", err)
		}
		dec := zstdDecPool.Get().(*zstd.Decoder)
		raw, err = dec.DecodeAll(compressed, make([]byte, 0, size))
		zstdDecPool.Put(dec)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrBadContainer, err)
		}
		if len(raw) != size {
			return nil, fmt.Errorf("%w: payload is %d bytes, want %d", ErrBadContainer, len(raw), size)
		}
	} else {
		raw = make([]byte, size)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("%w: payload: %v", ErrBadContainer, err)
		}
	}

	img := csc.NewYCbCr(d)
	n := copy(img.Y.Pix, raw)
	n += copy(img.Cb.Pix, raw[n:])
	copy(img.Cr.Pix, raw[n:])
	return img, nil
}
