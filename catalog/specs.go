package catalog

import (
	"github.com/shopspring/decimal"

	"straphub-service/models"
)

// Spec is one label/value row of a product's specification table.
type Spec struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// MaterialName is the display material for a product.
func MaterialName(a Analysis) string {
	if a.IsAccessory {
		switch {
		case contains(a.Materials, "glass"), a.AccessoryType == "screenProtector":
			return "Tempered Glass"
		case a.AccessoryType == "case":
			return "Hard Polycarbonate"
		case a.AccessoryType == "charger":
			return "ABS Plastic"
		case a.AccessoryType == "stand":
			return "Aluminum Alloy"
		}
		return "Premium Materials"
	}
	for _, m := range []struct{ key, name string }{
		{"leather", "Genuine Leather"},
		{"silicone", "Premium Silicone"},
		{"milanese", "Milanese Mesh"},
		{"metal", "Stainless Steel"},
		{"nylon", "Woven Nylon"},
		{"resin", "Durable Resin"},
		{"ceramic", "Premium Ceramic"},
	} {
		if contains(a.Materials, m.key) {
			return m.name
		}
	}
	return "Premium Quality"
}

// BrandName is the display device family for a product.
func BrandName(a Analysis) string {
	for _, b := range []struct{ key, name string }{
		{"apple", "Apple Watch"},
		{"samsung", "Samsung Galaxy"},
		{"garmin", "Garmin"},
		{"fitbit", "Fitbit"},
		{"google", "Google Pixel"},
		{"huawei", "Huawei"},
		{"amazfit", "Amazfit"},
	} {
		if contains(a.Brands, b.key) {
			return b.name
		}
	}
	return "Universal"
}

// Specifications builds the spec table shown on the product page.
func Specifications(a Analysis) []Spec {
	specs := []Spec{
		{Label: "Material", Value: MaterialName(a)},
		{Label: "Compatibility", Value: BrandName(a)},
	}

	if a.IsAccessory {
		switch a.AccessoryType {
		case "screenProtector":
			specs = append(specs, Spec{"Hardness", "9H Tempered Glass"}, Spec{"Transparency", "99% HD Clear"})
		case "case":
			specs = append(specs, Spec{"Protection Level", "Full Coverage"}, Spec{"Charging Compatible", "Yes"})
		case "charger", "stand":
			specs = append(specs, Spec{"Input", "USB-C / USB-A"}, Spec{"Fast Charge", "Supported"})
		}
		return specs
	}

	closure := "Pin & Tuck"
	if contains(a.Materials, "milanese") {
		closure = "Magnetic Clasp"
	}
	water := "Yes"
	switch {
	case contains(a.Materials, "leather"):
		water = "Splash Resistant"
	case contains(a.Materials, "nylon"):
		water = "Quick-Dry"
	}
	return append(specs, Spec{"Closure Type", closure}, Spec{"Water Resistant", water})
}

// DiscountPercent is the whole-number saving of price against
// compareAt, or 0 when there is no saving.
func DiscountPercent(price models.Money, compareAt *models.Money) int {
	if compareAt == nil {
		return 0
	}
	p, c := price.Decimal(), compareAt.Decimal()
	if c.LessThanOrEqual(p) {
		return 0
	}
	pct := c.Sub(p).Div(c).Mul(decimal.NewFromInt(100)).Round(0)
	return int(pct.IntPart())
}

// QualifiesForFreeShipping reports whether a single item's price reaches
// the free shipping threshold.
func QualifiesForFreeShipping(price models.Money, threshold decimal.Decimal) bool {
	return price.Decimal().GreaterThanOrEqual(threshold)
}
