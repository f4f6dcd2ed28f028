package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/hamba/avro/v2"
	"github.com/lovoo/goka"
	"github.com/niksmo/modelshop-admin/pkg/schema"
)

// A processor is used for composition.
//
// Running and closing the underlying [goka.Processor]
type processor struct {
	opPrefix string
	gp       *goka.Processor
}

func (p *processor) run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer wg.Done()

	go p.runProc(ctx, stopFn)

	log.Info("preparing...")
	p.waitForReady(ctx)
	log.Info("running")
}

func (p *processor) runProc(ctx context.Context, stopFn context.CancelFunc) {
	const op = "runProc"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer stopFn()

	err := p.gp.Run(ctx)
	if err != nil {
		log.Error("stopped", "err", err)
		return
	}
	log.Info("stopped")
}

func (p *processor) waitForReady(ctx context.Context) {
	const op = "waitForReady"
	log := slog.With("op", makeOp(p.opPrefix, op))

	err := p.gp.WaitForReadyContext(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("fall down while preparing", "err", err)
	}
}

func (p *processor) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))

	log.Info("closing processor...")
	p.gp.Stop()
	log.Info("processor is closed")
}

// A productEventCodec used for serde [schema.ProductEventV1]
type productEventCodec struct {
	serde Serde
}

func newProductEventCodec(s Serde) productEventCodec {
	return productEventCodec{s}
}

func (c productEventCodec) Encode(v any) ([]byte, error) {
	const op = "productEventCodec.Encode"
	if _, ok := v.(schema.ProductEventV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c productEventCodec) Decode(data []byte) (any, error) {
	const op = "productEventCodec.Decode"
	var s schema.ProductEventV1
	if err := c.serde.Decode(data, &s); err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// An imageSetCodec used for serde [schema.ImageSetV1] group table values.
//
// Table values are private to the group, so no registry framing.
type imageSetCodec struct {
	avroSchema avro.Schema
}

func newImageSetCodec() imageSetCodec {
	return imageSetCodec{schema.ImageSetV1Avro()}
}

func (c imageSetCodec) Encode(v any) ([]byte, error) {
	const op = "imageSetCodec.Encode"
	s, ok := v.(schema.ImageSetV1)
	if !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return avro.Marshal(c.avroSchema, s)
}

func (c imageSetCodec) Decode(data []byte) (any, error) {
	const op = "imageSetCodec.Decode"
	var s schema.ImageSetV1
	if err := avro.Unmarshal(c.avroSchema, data, &s); err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}
