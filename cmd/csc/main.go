package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/TMunro7/SENG440-Colour-Space-Conversion/internal/config"
	"github.com/TMunro7/SENG440-Colour-Space-Conversion/internal/logging"
	"github.com/TMunro7/SENG440-Colour-Space-Conversion/internal/pipeline"
)

const (
	appName    = "Colour Space Conversion"
	appVersion = "v1.0.0"
)

var errUsage = errors.New("usage")

type parsedArgs struct {
	opts    config.LoadOptions
	input   string
	help    bool
	version bool
}

func parseFlags(args []string, stderr io.Writer) (parsedArgs, error) {
	var p parsedArgs

	fs := flag.NewFlagSet("csc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&p.opts.Rows, "rows", 0, "raw image rows (default 480)")
	fs.IntVar(&p.opts.Cols, "cols", 0, "raw image columns (default 500)")
	fs.StringVar(&p.opts.Format, "format", "", "input format (auto, raw, png, bmp, tiff, webp)")
	fs.StringVar(&p.opts.Variant, "variant", "", "transform variant (scalar, vector)")
	fs.IntVar(&p.opts.Workers, "workers", 0, "goroutines per transform (default 1)")
	fs.StringVar(&p.opts.OutputDir, "out", "", "output directory (default .)")
	fs.BoolVar(&p.opts.Diagnostics, "diagnostics", false, "write per-channel PGM files")
	fs.BoolVar(&p.opts.SaveYCC, "save-ycc", false, "write output.ycc and invert from it")
	compress := fs.Bool("compress", true, "zstd-compress output.ycc")
	fs.BoolVar(&p.opts.Preview, "preview", false, "write a lossless WebP of the reconstruction")
	fs.StringVar(&p.opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&p.opts.LogFormat, "log-format", "", "log format (text, json)")
	fs.BoolVar(&p.help, "help", false, "show help")
	fs.BoolVar(&p.version, "version", false, "show version")

	if err := fs.Parse(args); err != nil {
		return p, err
	}
	p.opts.NoCompress = !*compress
	p.opts.Format = strings.TrimSpace(p.opts.Format)
	p.opts.Variant = strings.TrimSpace(p.opts.Variant)

	if p.help || p.version {
		return p, nil
	}
	if fs.NArg() != 1 {
		return p, errUsage
	}
	p.input = fs.Arg(0)
	return p, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	p, err := parseFlags(args, stderr)
	switch {
	case errors.Is(err, flag.ErrHelp):
		showHelp(stdout)
		return 0
	case err != nil:
		showHelp(stderr)
		return 1
	case p.help:
		showHelp(stdout)
		return 0
	case p.version:
		showVersion(stdout)
		return 0
	}

	cfg, err := config.LoadWithOverrides(p.opts)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}

	var logOut io.Writer = stderr
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(stderr, "failed to open log file: %v\n", err)
			return 1
		}
		defer f.Close()
		logOut = f
	}

	log := logging.New(logOut)
	log.Configure(cfg.Logging.Level, cfg.Logging.Format, nil)

	runner, err := pipeline.New(cfg, log)
	if err != nil {
		log.Error("%v", err)
		return 1
	}

	res, err := runner.Run(ctx, p.input)
	if err != nil {
		log.Error("%v", err)
		return 1
	}

	for _, f := range res.Files {
		fmt.Fprintln(stdout, f)
	}
	return 0
}

func showHelp(w io.Writer) {
	fmt.Fprintln(w, appName)
	fmt.Fprintln(w, "USAGE: csc [options] <input>")
	fmt.Fprintln(w, "OPTIONS:")
	fmt.Fprintln(w, "  -rows N             Raw image rows, even (default 480)")
	fmt.Fprintln(w, "  -cols N             Raw image columns, even (default 500)")
	fmt.Fprintln(w, "  -format F           Input format: auto, raw, png, bmp, tiff, webp")
	fmt.Fprintln(w, "  -variant V          Transform: scalar, vector")
	fmt.Fprintln(w, "  -workers N          Goroutines per transform")
	fmt.Fprintln(w, "  -out DIR            Output directory")
	fmt.Fprintln(w, "  -diagnostics        Write output_{R,G,B,Y,Cb,Cr}.pgm")
	fmt.Fprintln(w, "  -save-ycc           Write output.ycc and invert from the stored copy")
	fmt.Fprintln(w, "  -compress=false     Store output.ycc uncompressed")
	fmt.Fprintln(w, "  -preview            Write output_RGB.webp")
	fmt.Fprintln(w, "  -log-level L        Set log level (debug, info, warn, error)")
	fmt.Fprintln(w, "  -log-format F       Set log format (text, json)")
	fmt.Fprintln(w, "  -version            Show version information")
	fmt.Fprintln(w, "  -help               Show this help message")
	fmt.Fprintln(w, "ENVIRONMENT VARIABLES: IMAGE_ROWS, IMAGE_COLS, IMAGE_FORMAT, CSC_VARIANT, CSC_WORKERS, OUTPUT_DIR, OUTPUT_DIAGNOSTICS, PRINT_RUNTIME, OUTPUT_SAVE_YCC, OUTPUT_COMPRESS, OUTPUT_PREVIEW, LOG_LEVEL, LOG_FORMAT, LOG_FILE")
	fmt.Fprintln(w, "EXAMPLES: csc -rows 480 -cols 500 -diagnostics image.raw")
}

func showVersion(w io.Writer) {
	fmt.Fprintf(w, "%s %s\n", appName, appVersion)
	fmt.Fprintln(w, "Transform: fixed-point BT.601 YCbCr 4:2:0")
}
