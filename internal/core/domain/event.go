package domain

import "time"

type ProductEventType string

const (
	ProductCreated ProductEventType = "created"
	ProductUpdated ProductEventType = "updated"
	ProductDeleted ProductEventType = "deleted"
)

type ProductEvent struct {
	Type       ProductEventType
	ProductID  string
	Name       string
	Category   string
	Images     []string
	OccurredAt time.Time
}

func NewProductEvent(t ProductEventType, p Product) ProductEvent {
	return ProductEvent{
		Type:       t,
		ProductID:  p.ID,
		Name:       p.Name,
		Category:   p.Category,
		Images:     p.Images.URLs(),
		OccurredAt: time.Now().UTC(),
	}
}
