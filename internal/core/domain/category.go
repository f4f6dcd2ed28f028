package domain

type CategoryTemplate struct {
	Category    string
	Price       string
	Description string
}

const (
	CategoryStarter      = "Starter Package"
	CategoryProfessional = "Professional Package"
	CategoryEnterprise   = "Enterprise Package"
)

var categoryTemplates = []CategoryTemplate{
	{
		Category: CategoryStarter,
		Price:    "$497",
		Description: "Launch your first AI influencer model: one custom persona, " +
			"a starter set of 20 photorealistic images, a short bio and " +
			"a content style guide. Ideal for testing the market.",
	},
	{
		Category: CategoryProfessional,
		Price:    "$997",
		Description: "A fully branded AI influencer model: custom persona and " +
			"backstory, 60 photorealistic images across 3 themed shoots, " +
			"caption pack and posting schedule for the first month.",
	},
	{
		Category: CategoryEnterprise,
		Price:    "$1,997",
		Description: "A done-for-you AI influencer business: premium persona, " +
			"150 images, short-form video loops, monetisation playbook and " +
			"priority support during the first 90 days.",
	},
}

// Categories returns the preset templates in display order.
func Categories() []CategoryTemplate {
	out := make([]CategoryTemplate, len(categoryTemplates))
	copy(out, categoryTemplates)
	return out
}

func TemplateFor(category string) (CategoryTemplate, bool) {
	for _, t := range categoryTemplates {
		if t.Category == category {
			return t, true
		}
	}
	return CategoryTemplate{}, false
}
