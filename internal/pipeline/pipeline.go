// Package pipeline drives one file through the forward and inverse
// transforms and writes the requested outputs.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/TMunro7/SENG440-Colour-Space-Conversion/internal/config"
	"github.com/TMunro7/SENG440-Colour-Space-Conversion/internal/csc"
	"github.com/TMunro7/SENG440-Colour-Space-Conversion/internal/imageio"
	"github.com/TMunro7/SENG440-Colour-Space-Conversion/internal/logging"
)

// Output file names, relative to OutputConfig.Dir.
const (
	FileR    = "output_R.pgm"
	FileG    = "output_G.pgm"
	FileB    = "output_B.pgm"
	FileY    = "output_Y.pgm"
	FileCb   = "output_Cb.pgm"
	FileCr   = "output_Cr.pgm"
	FileYCC  = "output.ycc"
	FileRGB  = "output_RGB.ppm"
	FileWebP = "output_RGB.webp"
)

// Timings records the wall time of each stage.
type Timings struct {
	Load    time.Duration
	Forward time.Duration
	Inverse time.Duration
	Write   time.Duration
}

// Result describes a completed run.
type Result struct {
	Dims    csc.Dimensions
	Variant csc.Variant
	Files   []string
	Diff    csc.Diff
	Timings Timings
}

// Runner holds the transformer and settings for repeated runs.
type Runner struct {
	cfg *config.Config
	log *logging.Logger
	tr  csc.Transformer
}

// New builds a Runner from cfg. A nil logger uses logging.Default().
func New(cfg *config.Config, log *logging.Logger) (*Runner, error) {
	if log == nil {
		log = logging.Default()
	}

	variant, err := csc.ParseVariant(cfg.Conversion.Variant)
	if err != nil {
		return nil, err
	}
	tr, err := csc.New(variant, csc.BT601, csc.WithWorkers(cfg.Conversion.Workers))
	if err != nil {
		return nil, fmt.Errorf("create transformer: %w", err)
	}

	return &Runner{cfg: cfg, log: log, tr: tr}, nil
}

// Run converts input and writes the outputs into the configured directory.
func (r *Runner) Run(ctx context.Context, input string) (*Result, error) {
	out := r.cfg.Output
	if err := os.MkdirAll(out.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	dims, err := r.cfg.Image.Dimensions()
	if err != nil {
		return nil, err
	}

	res := &Result{Variant: r.tr.Variant()}

	start := time.Now()
	src, err := imageio.Load(input, r.cfg.Image.Format, dims, r.cfg.Image.MaxPixels)
	if err != nil {
		return nil, err
	}
	res.Timings.Load = time.Since(start)
	res.Dims = src.Dims
	r.log.Info("opened input file: %s (%s)", input, src.Dims)

	if out.Diagnostics {
		for _, f := range []struct {
			name string
			p    *csc.Plane
		}{{FileR, src.R}, {FileG, src.G}, {FileB, src.B}} {
			if err := r.writePGM(res, f.name, f.p); err != nil {
				return nil, err
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ycc := csc.NewYCbCr(src.Dims)
	start = time.Now()
	if err := r.tr.Forward(src, ycc); err != nil {
		return nil, err
	}
	res.Timings.Forward = time.Since(start)
	r.log.Debug("forward transform (%s) done in %s", res.Variant, res.Timings.Forward)

	if out.Diagnostics {
		for _, f := range []struct {
			name string
			p    *csc.Plane
		}{{FileY, ycc.Y}, {FileCb, ycc.Cb}, {FileCr, ycc.Cr}} {
			if err := r.writePGM(res, f.name, f.p); err != nil {
				return nil, err
			}
		}
	}

	if out.SaveYCC {
		if ycc, err = r.persist(res, ycc); err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rgb := csc.NewRGB(src.Dims)
	start = time.Now()
	if err := r.tr.Inverse(ycc, rgb); err != nil {
		return nil, err
	}
	res.Timings.Inverse = time.Since(start)
	r.log.Debug("inverse transform (%s) done in %s", res.Variant, res.Timings.Inverse)

	start = time.Now()
	if err := r.writeFile(res, FileRGB, func(w io.Writer) error {
		return imageio.WritePPM(w, rgb)
	}); err != nil {
		return nil, err
	}
	if out.Preview {
		if err := r.writeFile(res, FileWebP, func(w io.Writer) error {
			return imageio.WritePreview(w, rgb)
		}); err != nil {
			return nil, err
		}
	}
	res.Timings.Write = time.Since(start)

	if res.Diff, err = csc.Compare(src, rgb); err != nil {
		return nil, err
	}
	r.log.Info("reconstruction max error R=%d G=%d B=%d, PSNR %.2f dB",
		res.Diff.MaxAbs[0], res.Diff.MaxAbs[1], res.Diff.MaxAbs[2], res.Diff.PSNR)

	if out.PrintRuntime {
		t := res.Timings
		r.log.Info("runtime: load %s, forward %s, inverse %s, write %s", t.Load, t.Forward, t.Inverse, t.Write)
	}

	return res, nil
}

// persist writes the YCC container and reads it back, so the inverse runs
// on exactly what was stored.
func (r *Runner) persist(res *Result, ycc *csc.YCbCr) (*csc.YCbCr, error) {
	compress := r.cfg.Output.Compress
	if err := r.writeFile(res, FileYCC, func(w io.Writer) error {
		return imageio.WriteYCC(w, ycc, compress)
	}); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(r.cfg.Output.Dir, FileYCC))
	if err != nil {
		return nil, fmt.Errorf("reopen %s: %w", FileYCC, err)
	}
	defer f.Close()

	stored, err := imageio.ReadYCC(f)
	if err != nil {
		return nil, fmt.Errorf("read back %s: %w", FileYCC, err)
	}
	return stored, nil
}

func (r *Runner) writePGM(res *Result, name string, p *csc.Plane) error {
	return r.writeFile(res, name, func(w io.Writer) error {
		return imageio.WritePGM(w, p)
	})
}

func (r *Runner) writeFile(res *Result, name string, write func(io.Writer) error) (err error) {
	path := filepath.Join(r.cfg.Output.Dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", name, cerr)
		}
	}()

	if err = write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	res.Files = append(res.Files, path)
	r.log.Debug("wrote %s", path)
	return nil
}
