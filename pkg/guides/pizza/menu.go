package pizza

import "strings"

// Menu options.
var (
	Crusts = []string{"Thin", "Regular", "Thick", "Gluten-free"}
	Sizes  = []string{`Small (10")`, `Medium (12")`, `Large (14")`, `Extra Large (16")`}

	VegetarianToppings = []string{
		"Mushrooms", "Olives", "Bell Peppers", "Onions",
		"Tomatoes", "Spinach", "Artichokes", "Pineapple",
	}

	MeatToppings = []string{
		"Pepperoni", "Sausage", "Ham", "Bacon",
		"Chicken", "Ground Beef", "Salami",
	}
)

// Categories.
const (
	CategoryVegetarian = "vegetarian"
	CategoryMeat       = "meat"
)

// ToppingsFor returns the topping list of a category.
func ToppingsFor(category string) []string {
	if category == CategoryVegetarian {
		return VegetarianToppings
	}
	return MeatToppings
}

// MatchOption does loose, case-insensitive matching of a free-text answer
// against a menu. An option matches when either string contains the other;
// the first match in menu order wins. Blank input never matches.
func MatchOption(input string, options []string) (string, bool) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return "", false
	}
	for _, option := range options {
		lower := strings.ToLower(option)
		if strings.Contains(input, lower) || strings.Contains(lower, input) {
			return option, true
		}
	}
	return "", false
}

// ParseToppings splits an answer on commas and " and ", keeping the parts
// that match the menu. Unknown parts are ignored.
func ParseToppings(input string, available []string) []string {
	parts := strings.Split(strings.ReplaceAll(input, " and ", ","), ",")
	var selected []string
	for _, part := range parts {
		if topping, ok := MatchOption(part, available); ok {
			selected = append(selected, topping)
		}
	}
	return selected
}

// ParseCategory recognizes "veg..." and "meat" answers.
func ParseCategory(input string) (string, bool) {
	lower := strings.ToLower(input)
	switch {
	case strings.Contains(lower, "veg"):
		return CategoryVegetarian, true
	case strings.Contains(lower, "meat"):
		return CategoryMeat, true
	}
	return "", false
}

// IsConfirmation reports whether a CONFIRM answer accepts the order.
func IsConfirmation(input string) bool {
	lower := strings.ToLower(input)
	return strings.Contains(lower, "yes") ||
		strings.Contains(lower, "confirm") ||
		strings.Contains(lower, "looks good")
}
