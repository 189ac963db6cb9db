package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"straphub-service/models"
)

func gbp(amount string) models.Money {
	return models.Money{Amount: amount, CurrencyCode: "GBP"}
}

func TestDiscountPercent(t *testing.T) {
	compare := gbp("20.00")
	assert.Equal(t, 25, DiscountPercent(gbp("15.00"), &compare))

	same := gbp("15.00")
	assert.Equal(t, 0, DiscountPercent(gbp("15.00"), &same))
	assert.Equal(t, 0, DiscountPercent(gbp("15.00"), nil))

	odd := gbp("19.99")
	assert.Equal(t, 35, DiscountPercent(gbp("12.99"), &odd))
}

func TestSpecifications_Strap(t *testing.T) {
	specs := Specifications(Analyze("Milanese loop for Apple Watch", ""))
	assert.Equal(t, []Spec{
		{Label: "Material", Value: "Milanese Mesh"},
		{Label: "Compatibility", Value: "Apple Watch"},
		{Label: "Closure Type", Value: "Magnetic Clasp"},
		{Label: "Water Resistant", Value: "Yes"},
	}, specs)
}

func TestSpecifications_Leather(t *testing.T) {
	specs := Specifications(Analyze("Genuine leather strap", ""))
	assert.Equal(t, "Genuine Leather", specs[0].Value)
	assert.Equal(t, "Universal", specs[1].Value)
	assert.Equal(t, Spec{Label: "Water Resistant", Value: "Splash Resistant"}, specs[3])
}

func TestQualifiesForFreeShipping(t *testing.T) {
	threshold := decimal.RequireFromString("25.00")
	assert.True(t, QualifiesForFreeShipping(gbp("25.00"), threshold))
	assert.False(t, QualifiesForFreeShipping(gbp("24.99"), threshold))
}
