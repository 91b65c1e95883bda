package csc

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrUnknownVariant indicates a variant name that is neither scalar nor vector.
var ErrUnknownVariant = errors.New("unknown transform variant")

// Variant selects an implementation of Transformer.
type Variant int

const (
	VariantScalar Variant = iota
	VariantVector
)

var variantNames = map[Variant]string{
	VariantScalar: "scalar",
	VariantVector: "vector",
}

func (v Variant) String() string {
	if name, ok := variantNames[v]; ok {
		return name
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// ParseVariant maps "scalar" or "vector" (any case) to a Variant.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scalar", "":
		return VariantScalar, nil
	case "vector", "simd":
		return VariantVector, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// Transformer converts whole images in both directions. Implementations
// are safe for concurrent use; they hold only immutable coefficients.
type Transformer interface {
	// Forward converts src to 4:2:0 and writes dst.
	Forward(src *RGB, dst *YCbCr) error
	// Inverse upsamples src and writes the reconstructed RGB to dst.
	Inverse(src *YCbCr, dst *RGB) error
	Variant() Variant
}

type options struct {
	workers int
}

// Option configures a Transformer.
type Option func(*options)

// WithWorkers splits block rows across n goroutines. n < 1 means 1.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.workers = n
	}
}

func buildOptions(opts []Option) options {
	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New returns the Transformer for v.
func New(v Variant, c Coefficients, opts ...Option) (Transformer, error) {
	var (
		t   Transformer
		err error
	)
	switch v {
	case VariantScalar:
		t, err = NewScalar(c, opts...)
	case VariantVector:
		t, err = NewVector(c, opts...)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownVariant, v)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// forEachBand runs fn over [0, blockRows) split into at most workers
// contiguous bands. Bands never share destination rows.
func forEachBand(blockRows, workers int, fn func(lo, hi int)) {
	if workers <= 1 || blockRows < 2 {
		fn(0, blockRows)
		return
	}
	if workers > blockRows {
		workers = blockRows
	}

	band := (blockRows + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < blockRows; lo += band {
		hi := min(lo+band, blockRows)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
