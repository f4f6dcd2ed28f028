package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Product struct {
	ID          string
	Name        string
	Description string
	Price       string
	Category    string
	PaymentLink string
	Images      ImageList
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p Product) IsNew() bool {
	return p.ID == ""
}

// ApplyTemplate overwrites price and description with the preset of the
// category. Unknown categories only change the category field.
func (p *Product) ApplyTemplate(category string) {
	p.Category = category
	if t, ok := TemplateFor(category); ok {
		p.Price = t.Price
		p.Description = t.Description
	}
}

// Validate checks a record that is about to be persisted.
func (p Product) Validate() error {
	return ValidateDraft(p, p.Images.Len())
}

// ValidateDraft checks the record fields against imageCount images,
// which may include images not uploaded yet.
func ValidateDraft(p Product, imageCount int) error {
	var verr ValidationError

	if strings.TrimSpace(p.Name) == "" {
		verr.Add("name", "name is required")
	}
	if strings.TrimSpace(p.Description) == "" {
		verr.Add("description", "description is required")
	}
	if strings.TrimSpace(p.Price) == "" {
		verr.Add("price", "price is required")
	}
	if msg := checkPaymentLink(p.PaymentLink); msg != "" {
		verr.Add("paymentLink", msg)
	}
	switch {
	case imageCount < 1:
		verr.Add("images", "at least one image required")
	case imageCount > MaxImages:
		verr.Add("images", fmt.Sprintf("at most %d images allowed", MaxImages))
	}

	return verr.Err()
}

func checkPaymentLink(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return "payment link is required"
	}
	lower := strings.ToLower(link)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return "payment link must be an absolute http(s) URL"
	}
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return "payment link must be an absolute http(s) URL"
	}
	return ""
}
