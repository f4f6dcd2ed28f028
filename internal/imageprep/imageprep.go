// Package imageprep turns user picked image files into staged JPEG data
// URLs that fit within a bounding square.
package imageprep

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log/slog"

	"github.com/niksmo/modelshop-admin/internal/core/domain"
	"github.com/sourcegraph/conc/iter"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxDimension = 1920
	DefaultQuality      = 95
	// DefaultMaxPixels bounds the decoded size of a single source.
	DefaultMaxPixels = 50_000_000

	outputMediaType = "image/jpeg"
)

var ErrDecode = errors.New("failed to decode image")

type Source struct {
	Name string
	Data []byte
}

type Result struct {
	Index  int
	Name   string
	Image  domain.StagedImage
	Width  int
	Height int
	Err    error
}

type Results []Result

// Staged returns the images in input order, or the first failure.
func (rs Results) Staged() ([]domain.StagedImage, error) {
	out := make([]domain.StagedImage, 0, len(rs))
	for _, r := range rs {
		if r.Err != nil {
			return nil, fmt.Errorf("%s: %w", r.Name, r.Err)
		}
		out = append(out, r.Image)
	}
	return out, nil
}

func (rs Results) Failed() Results {
	var out Results
	for _, r := range rs {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

type Opt func(*Preprocessor) error

func WithMaxDimension(px int) Opt {
	return func(p *Preprocessor) error {
		if px < 1 {
			return fmt.Errorf("max dimension must be positive, got %d", px)
		}
		p.maxDim = px
		return nil
	}
}

// WithMaxPixels rejects sources whose declared width*height exceeds n
// before their pixels are decoded.
func WithMaxPixels(n int64) Opt {
	return func(p *Preprocessor) error {
		if n < 1 {
			return fmt.Errorf("max pixels must be positive, got %d", n)
		}
		p.maxPixels = n
		return nil
	}
}

func WithQuality(q int) Opt {
	return func(p *Preprocessor) error {
		if q < 1 || q > 100 {
			return fmt.Errorf("quality must be in [1,100], got %d", q)
		}
		p.quality = q
		return nil
	}
}

type Preprocessor struct {
	maxDim    int
	maxPixels int64
	quality   int
}

func New(opts ...Opt) (Preprocessor, error) {
	const op = "imageprep.New"

	p := Preprocessor{
		maxDim:    DefaultMaxDimension,
		maxPixels: DefaultMaxPixels,
		quality:   DefaultQuality,
	}
	for _, opt := range opts {
		if err := opt(&p); err != nil {
			return Preprocessor{}, fmt.Errorf("%s: %w", op, err)
		}
	}
	return p, nil
}

// Prepare processes all sources concurrently and returns after every one
// of them settled. current is the number of images the product already
// has; the call fails before decoding anything when the total would
// exceed [domain.MaxImages].
func (p Preprocessor) Prepare(
	ctx context.Context, current int, sources []Source,
) (Results, error) {
	const op = "Preprocessor.Prepare"
	log := slog.With("op", op)

	if total := current + len(sources); total > domain.MaxImages {
		return nil, fmt.Errorf(
			"%s: %w: %d exceeds %d", op, domain.ErrTooManyImages, total, domain.MaxImages,
		)
	}

	results := mapper(len(sources)).Map(sources, func(src *Source) Result {
		return p.prepareOne(ctx, *src)
	})

	for i := range results {
		results[i].Index = i
		if err := results[i].Err; err != nil {
			log.Warn("image not prepared", "name", results[i].Name, "err", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return results, nil
}

// mapper runs one goroutine per source.
func mapper(n int) iter.Mapper[Source, Result] {
	return iter.Mapper[Source, Result]{MaxGoroutines: n}
}

func (p Preprocessor) prepareOne(ctx context.Context, src Source) Result {
	res := Result{Name: src.Name}

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(src.Data))
	if err != nil {
		res.Err = fmt.Errorf("%w: %w", ErrDecode, err)
		return res
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > p.maxPixels {
		res.Err = fmt.Errorf(
			"%w: %dx%d exceeds %d pixels", ErrDecode, cfg.Width, cfg.Height, p.maxPixels,
		)
		return res
	}

	img, _, err := image.Decode(bytes.NewReader(src.Data))
	if err != nil {
		res.Err = fmt.Errorf("%w: %w", ErrDecode, err)
		return res
	}

	scaled := p.scale(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: p.quality}); err != nil {
		res.Err = fmt.Errorf("encode jpeg: %w", err)
		return res
	}

	b := scaled.Bounds()
	res.Width, res.Height = b.Dx(), b.Dy()
	res.Image = domain.NewStagedImage(outputMediaType, buf.Bytes())
	return res
}

// scale flattens img onto white and shrinks it to fit the bounding square.
func (p Preprocessor) scale(img image.Image) image.Image {
	src := img.Bounds()
	w, h := FitWithin(src.Dx(), src.Dy(), p.maxDim)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if w == src.Dx() && h == src.Dy() {
		draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Over)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Over, nil)
	return dst
}

// FitWithin returns the size of a w x h image scaled down uniformly so that
// neither side exceeds limit. Images that already fit are kept as is.
func FitWithin(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}

	scale := float64(limit) / float64(w)
	if h > w {
		scale = float64(limit) / float64(h)
	}

	nw := int(float64(w)*scale + 0.5)
	nh := int(float64(h)*scale + 0.5)
	return max(min(nw, limit), 1), max(min(nh, limit), 1)
}
