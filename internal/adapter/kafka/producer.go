package kafka

import (
	"context"
	"log/slog"

	"github.com/niksmo/modelshop-admin/internal/core/domain"
	"github.com/niksmo/modelshop-admin/internal/core/port"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.ProductEventsPublisher = (*ProductEventsProducer)(nil)

// A ProductEventsProducer publishes [domain.ProductEvent] keyed by
// product id, so events of one product stay ordered.
type ProductEventsProducer struct {
	cl       ProducerClient
	encoder  Encoder
	opPrefix string
}

// NewProductEventsProducer requires [ProducerClientOpt] and [ProducerEncoderOpt].
func NewProductEventsProducer(
	opts ...ProducerOpt,
) (ProductEventsProducer, error) {
	const op = "NewProductEventsProducer"

	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return ProductEventsProducer{}, opErr(err, op)
		}
	}

	return ProductEventsProducer{
		cl:       options.cl,
		encoder:  options.encoder,
		opPrefix: "ProductEventsProducer",
	}, nil
}

func (p ProductEventsProducer) Close() {
	const op = "Close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p ProductEventsProducer) PublishProductEvent(
	ctx context.Context, evt domain.ProductEvent,
) error {
	const op = "PublishProductEvent"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	r, err := p.createRecord(evt)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	res := p.cl.ProduceSync(ctx, r)
	if err := res.FirstErr(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	slog.Debug(
		"product event published",
		"op", makeOp(p.opPrefix, op),
		"productID", evt.ProductID,
		"type", evt.Type,
	)
	return nil
}

func (p ProductEventsProducer) createRecord(
	evt domain.ProductEvent,
) (*kgo.Record, error) {
	const op = "createRecord"

	s := eventToSchemaV1(evt)
	b, err := p.encoder.Encode(s)
	if err != nil {
		return nil, opErr(err, p.opPrefix, op)
	}
	return &kgo.Record{Key: []byte(s.ProductID), Value: b}, nil
}
