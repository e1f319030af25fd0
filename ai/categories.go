package ai

// Categories are the shopping categories classifiers may assign to a query.
var Categories = []string{
	"automotive",
	"baby",
	"beauty",
	"books",
	"clothing",
	"electronics",
	"garden",
	"grocery",
	"health",
	"home",
	"jewelry",
	"kitchen",
	"office",
	"pet",
	"shoes",
	"sports",
	"tools",
	"toys",
}

// BrowseCategories are suggested when a query asks for ideas rather than a product.
var BrowseCategories = []string{"electronics", "home", "kitchen", "clothing", "toys", "beauty"}

// IsCategory reports whether name is one of Categories.
func IsCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}
