package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/IBM/sarama"
	"github.com/lovoo/goka"
	"github.com/niksmo/modelshop-admin/internal/core/domain"
	"github.com/niksmo/modelshop-admin/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"
)

var (
	ErrTooFewOpts        = errors.New("too few options")
	ErrInvalidValueType  = errors.New("invalid value type")
	ErrMissingDependency = errors.New("missing dependency")
)

// A ClientConfig describes how to reach the brokers.
//
// TLSConfig, User and Pass are optional.
type ClientConfig struct {
	SeedBrokers []string
	TLSConfig   *tls.Config
	User        string
	Pass        string
}

func (c ClientConfig) kgoOpts() []kgo.Opt {
	opts := []kgo.Opt{kgo.SeedBrokers(c.SeedBrokers...)}
	if c.TLSConfig != nil {
		opts = append(opts, kgo.DialTLSConfig(c.TLSConfig))
	}
	if c.User != "" {
		opts = append(opts, kgo.SASL(plain.Auth{User: c.User, Pass: c.Pass}.AsMechanism()))
	}
	return opts
}

// applySASLTLS sets security of the goka global sarama config.
func applySASLTLS(tlsConfig *tls.Config, user, pass string) {
	if tlsConfig == nil && user == "" {
		return
	}

	cfg := goka.DefaultConfig()
	if tlsConfig != nil {
		cfg.Net.TLS.Enable = true
		cfg.Net.TLS.Config = tlsConfig
	}
	if user != "" {
		cfg.Net.SASL.Enable = true
		cfg.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		cfg.Net.SASL.User = user
		cfg.Net.SASL.Password = pass
	}
	goka.ReplaceGlobalConfig(cfg)
}

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl      ProducerClient
	encoder Encoder
}

func ProducerClientOpt(
	ctx context.Context, config ClientConfig, topic string,
) ProducerOpt {
	return func(opts *producerOpts) error {
		kopts := append(config.kgoOpts(),
			kgo.DefaultProduceTopicAlways(),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
		)
		cl, err := kgo.NewClient(kopts...)
		if err != nil {
			return err
		}

		if err := cl.Ping(ctx); err != nil {
			cl.Close()
			return err
		}
		opts.cl = cl
		return nil
	}
}

func ProducerEncoderOpt(encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if encoder == nil {
			return errors.New("encoder is nil")
		}
		opts.encoder = encoder
		return nil
	}
}

type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

type Decoder interface {
	Decode(b []byte, v any) error
}

type Serde interface {
	Encoder
	Decoder
}

func withNonlogProcOpt() goka.ProcessorOption {
	return goka.WithLogger(log.New(io.Discard, "", 0))
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}

func eventToSchemaV1(v domain.ProductEvent) (s schema.ProductEventV1) {
	s.Type = string(v.Type)
	s.ProductID = v.ProductID
	s.Name = v.Name
	s.Category = v.Category
	s.Images = make([]string, len(v.Images))
	copy(s.Images, v.Images)
	s.OccurredAt = v.OccurredAt
	return
}

func eventFromSchemaV1(s schema.ProductEventV1) (v domain.ProductEvent) {
	v.Type = domain.ProductEventType(s.Type)
	v.ProductID = s.ProductID
	v.Name = s.Name
	v.Category = s.Category
	v.Images = s.Images
	v.OccurredAt = s.OccurredAt
	return
}
