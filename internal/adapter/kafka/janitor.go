package kafka

import (
	"context"
	"crypto/tls"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/lovoo/goka"
	"github.com/niksmo/modelshop-admin/internal/core/domain"
	"github.com/niksmo/modelshop-admin/internal/core/port"
	"github.com/niksmo/modelshop-admin/pkg/schema"
)

var _ port.ImageJanitorProcessor = (*ImageJanitor)(nil)

const removeTimeout = time.Minute

// An ImageJanitorConfig used for setup [ImageJanitor].
//
// TLSConfig, User and Pass are optional.
type ImageJanitorConfig struct {
	SeedBrokers []string
	Topic       string
	Group       string
	Serde       Serde
	Remover     port.ImageRemover
	Refs        port.ImageRefChecker
	TLSConfig   *tls.Config
	User        string
	Pass        string
}

// An ImageJanitor keeps the last known images of every product in its
// group table and removes blobs that a product no longer references.
type ImageJanitor struct {
	opPrefix string
	proc     processor
	remover  port.ImageRemover
	refs     port.ImageRefChecker
}

func NewImageJanitor(config ImageJanitorConfig) (*ImageJanitor, error) {
	const op = "NewImageJanitor"

	if config.Remover == nil || config.Refs == nil {
		return nil, opErr(ErrMissingDependency, op)
	}

	applySASLTLS(config.TLSConfig, config.User, config.Pass)

	j := &ImageJanitor{
		opPrefix: "ImageJanitor",
		remover:  config.Remover,
		refs:     config.Refs,
	}

	gg := goka.DefineGroup(goka.Group(config.Group),
		goka.Input(
			goka.Stream(config.Topic),
			newProductEventCodec(config.Serde),
			j.processFn,
		),
		goka.Persist(newImageSetCodec()),
	)

	gp, err := goka.NewProcessor(config.SeedBrokers, gg, withNonlogProcOpt())
	if err != nil {
		return nil, opErr(err, op)
	}

	j.proc = processor{opPrefix: j.opPrefix, gp: gp}
	return j, nil
}

func (j *ImageJanitor) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	j.proc.run(ctx, stopFn, wg)
}

func (j *ImageJanitor) Close() {
	j.proc.close()
}

func (j *ImageJanitor) processFn(ctx goka.Context, msg any) {
	event, ok := msg.(schema.ProductEventV1)
	if !ok {
		return
	}

	prev, _ := ctx.Value().(schema.ImageSetV1)
	next, keep := j.apply(ctx.Context(), prev, eventFromSchemaV1(event))
	if !keep {
		ctx.Delete()
		return
	}
	ctx.SetValue(next)
}

// apply removes the images the event dropped and returns the new table
// value. keep is false once the product is gone.
func (j *ImageJanitor) apply(
	ctx context.Context, prev schema.ImageSetV1, evt domain.ProductEvent,
) (next schema.ImageSetV1, keep bool) {
	const op = "apply"
	log := slog.With(
		"op", makeOp(j.opPrefix, op),
		"productID", evt.ProductID,
		"type", evt.Type,
	)

	var dropped []string
	switch evt.Type {
	case domain.ProductDeleted:
		dropped = difference(append(prev.URLs, evt.Images...), nil)
	default:
		dropped = difference(prev.URLs, evt.Images)
		next = schema.ImageSetV1{URLs: slices.Clone(evt.Images)}
		keep = true
	}

	dropped = j.unreferenced(ctx, log, dropped)
	if len(dropped) == 0 {
		return next, keep
	}

	rctx, cancel := context.WithTimeout(ctx, removeTimeout)
	defer cancel()

	if err := j.remover.RemoveImages(rctx, dropped); err != nil {
		log.Error("failed to remove dropped images", "n", len(dropped), "err", err)
		return next, keep
	}
	log.Info("dropped images removed", "n", len(dropped))
	return next, keep
}

// unreferenced filters out urls another product still uses. A url whose
// check failed is kept in the store.
func (j *ImageJanitor) unreferenced(
	ctx context.Context, log *slog.Logger, urls []string,
) []string {
	var out []string
	for _, u := range urls {
		used, err := j.refs.ImageReferenced(ctx, u)
		if err != nil {
			log.Error("failed to check image references", "url", u, "err", err)
			continue
		}
		if used {
			log.Info("image is shared, keeping", "url", u)
			continue
		}
		out = append(out, u)
	}
	return out
}

// difference returns the distinct urls of a missing from b, in order.
func difference(a, b []string) []string {
	var out []string
	for _, u := range a {
		if slices.Contains(b, u) || slices.Contains(out, u) {
			continue
		}
		out = append(out, u)
	}
	return out
}
