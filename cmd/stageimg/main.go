package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/niksmo/modelshop-admin/internal/imageprep"
	"github.com/niksmo/modelshop-admin/pkg/sigctx"
	"github.com/spf13/pflag"
)

const (
	maxDimensionFlag = "max-dimension"
	qualityFlag      = "quality"
	currentFlag      = "current"
	keepGoingFlag    = "keep-going"
)

type flags struct {
	maxDimension int
	quality      int
	current      int
	keepGoing    bool
	files        []string
}

type output struct {
	Name   string `json:"name"`
	Image  string `json:"image,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Error  string `json:"error,omitempty"`
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	f := getFlagsValues()
	validateFlags(f)

	ctx, stop := sigctx.NotifyContext()
	defer stop()

	prep, err := imageprep.New(
		imageprep.WithMaxDimension(f.maxDimension),
		imageprep.WithQuality(f.quality),
	)
	if err != nil {
		slog.Error("invalid options", "err", err)
		fallDown()
	}

	sources, err := readSources(f.files)
	if err != nil {
		slog.Error("failed to read files", "err", err)
		fallDown()
	}

	results, err := prep.Prepare(ctx, f.current, sources)
	if err != nil {
		slog.Error("failed to prepare images", "err", err)
		fallDown()
	}

	if !f.keepGoing {
		if _, err := results.Staged(); err != nil {
			slog.Error("failed to prepare images", "err", err)
			fallDown()
		}
	}

	out := make([]output, len(results))
	for i, r := range results {
		out[i] = output{
			Name:   r.Name,
			Image:  string(r.Image),
			Width:  r.Width,
			Height: r.Height,
		}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		slog.Error("failed to write output", "err", err)
		fallDown()
	}

	if len(results.Failed()) != 0 {
		os.Exit(1)
	}
}

func getFlagsValues() flags {
	var f flags
	pflag.IntVarP(&f.maxDimension, maxDimensionFlag, "d",
		imageprep.DefaultMaxDimension, "bounding square side in pixels")
	pflag.IntVarP(&f.quality, qualityFlag, "q",
		imageprep.DefaultQuality, "JPEG quality, 1..100")
	pflag.IntVarP(&f.current, currentFlag, "c", 0,
		"number of images the product already has")
	pflag.BoolVarP(&f.keepGoing, keepGoingFlag, "k", false,
		"report failed files instead of aborting")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] FILE...\n", filepath.Base(os.Args[0]))
		pflag.PrintDefaults()
	}
	pflag.Parse()
	f.files = pflag.Args()
	return f
}

func validateFlags(f flags) {
	var errs []error

	if len(f.files) == 0 {
		errs = append(errs, errors.New("at least one file: required"))
	}

	if f.current < 0 {
		errs = append(errs, fmt.Errorf("--%s flag: must not be negative", currentFlag))
	}

	if len(errs) != 0 {
		slog.Error("invalid args", "err", errors.Join(errs...))
		pflag.Usage()
		fallDown()
	}
}

func readSources(paths []string) ([]imageprep.Source, error) {
	sources := make([]imageprep.Source, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		sources = append(sources, imageprep.Source{Name: filepath.Base(p), Data: data})
	}
	return sources, nil
}

func fallDown() {
	os.Exit(2)
}
