package models

import (
	"strings"
	"unicode"
)

// Category is one of the fixed product categories
type Category string

const (
	CategoryMeatAndPoultry      Category = "Meat and Poultry"
	CategorySeafood             Category = "Seafood"
	CategoryFreshFruits         Category = "Fresh Fruits"
	CategoryVegetables          Category = "Vegetable and Leafy Greens"
	CategorySpices              Category = "Spice and Condiments"
	CategoryBeveragesAndSnacks  Category = "Beverages and Snacks"
	CategoryGrainsAndLegumes    Category = "Grains, Legumes and Pulses"
	CategoryTubersAndRoots      Category = "Tubers and Roots"
	CategoryNutsAndSeeds        Category = "Nuts and Seeds"
	CategoryProcessedAndPackage Category = "Processed and Packaged Foods"
	CategoryBeansAffairs        Category = "Beans Affairs"
)

// Categories lists every category in display order
var Categories = []Category{
	CategoryMeatAndPoultry,
	CategorySeafood,
	CategoryFreshFruits,
	CategoryVegetables,
	CategorySpices,
	CategoryBeveragesAndSnacks,
	CategoryGrainsAndLegumes,
	CategoryTubersAndRoots,
	CategoryNutsAndSeeds,
	CategoryProcessedAndPackage,
	CategoryBeansAffairs,
}

// categoryKey lower-cases s and drops all whitespace
func categoryKey(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

// ParseCategory maps user input such as "seafood" or "Fresh  fruits" to its canonical category
func ParseCategory(s string) (Category, bool) {
	key := categoryKey(s)
	if key == "" {
		return "", false
	}
	for _, c := range Categories {
		if categoryKey(string(c)) == key {
			return c, true
		}
	}
	return "", false
}

// CategoryNames returns the canonical labels joined for error messages
func CategoryNames() string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
