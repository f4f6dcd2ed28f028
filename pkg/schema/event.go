package schema

import (
	"time"

	"github.com/hamba/avro/v2"
)

const ProductEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "modelshop",
	"name": "product_event",
	"fields": [
		{"name": "type", "type": {
			"type": "enum",
			"name": "product_event_type",
			"symbols": ["created", "updated", "deleted"]
		}},
		{"name": "product_id", "type": "string"},
		{"name": "name", "type": "string"},
		{"name": "category", "type": "string"},
		{"name": "images", "type": {"type": "array", "items": "string"}},
		{"name": "occurred_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

const ImageSetSchemaTextV1 = `{
	"type": "record",
	"namespace": "modelshop",
	"name": "image_set",
	"fields": [
		{"name": "urls", "type": {"type": "array", "items": "string"}}
	]
}`

type (
	ProductEventV1 struct {
		Type       string    `avro:"type"`
		ProductID  string    `avro:"product_id"`
		Name       string    `avro:"name"`
		Category   string    `avro:"category"`
		Images     []string  `avro:"images"`
		OccurredAt time.Time `avro:"occurred_at"`
	}

	// ImageSetV1 is the last known image list of a product.
	ImageSetV1 struct {
		URLs []string `avro:"urls"`
	}
)

func ProductEventV1Avro() avro.Schema {
	return avro.MustParse(ProductEventSchemaTextV1)
}

func ImageSetV1Avro() avro.Schema {
	return avro.MustParse(ImageSetSchemaTextV1)
}
