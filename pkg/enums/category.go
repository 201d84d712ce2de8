package enums

import "fmt"

// Category is the fixed complaint classification. Departments claim
// categories, so it doubles as the routing key for admin visibility.
type Category string

const (
	CategoryPublicWorks           Category = "Public Works"
	CategoryWaterSewage           Category = "Water & Sewage"
	CategoryTransportation        Category = "Transportation"
	CategoryParksRecreation       Category = "Parks & Recreation"
	CategoryBuildingSafety        Category = "Building & Safety"
	CategoryEnvironmentalServices Category = "Environmental Services"
	CategoryPublicHealth          Category = "Public Health"
	CategoryStreetLighting        Category = "Street Lighting"
	CategoryWasteManagement       Category = "Waste Management"
	CategoryTrafficManagement     Category = "Traffic Management"
)

var validCategories = []Category{
	CategoryPublicWorks,
	CategoryWaterSewage,
	CategoryTransportation,
	CategoryParksRecreation,
	CategoryBuildingSafety,
	CategoryEnvironmentalServices,
	CategoryPublicHealth,
	CategoryStreetLighting,
	CategoryWasteManagement,
	CategoryTrafficManagement,
}

// Categories returns the full category list in declaration order.
func Categories() []Category {
	return append([]Category(nil), validCategories...)
}

// CategoryNames returns the labels as plain strings.
func CategoryNames() []string {
	out := make([]string, 0, len(validCategories))
	for _, c := range validCategories {
		out = append(out, string(c))
	}
	return out
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// IsValid reports whether the value is a known Category.
func (c Category) IsValid() bool {
	for _, candidate := range validCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCategory converts raw input into a Category.
func ParseCategory(value string) (Category, error) {
	for _, candidate := range validCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid category %q", value)
}
