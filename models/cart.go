package models

import (
	"strings"
	"time"
)

// SnapshotSchemaVersion is the version written into every persisted cart.
const SnapshotSchemaVersion = 1

// PlaceholderImage is shown when a line item has no usable image.
const PlaceholderImage = "/placeholder.svg"

// LineItem is one selected variant plus quantity.
type LineItem struct {
	VariantID       string           `json:"variantId" dynamodbav:"variant_id"`
	Product         ProductSnapshot  `json:"product" dynamodbav:"product"`
	VariantTitle    string           `json:"variantTitle" dynamodbav:"variant_title"`
	SelectedOptions []SelectedOption `json:"selectedOptions" dynamodbav:"selected_options"`
	UnitPrice       Money            `json:"unitPrice" dynamodbav:"unit_price"`
	Quantity        int              `json:"quantity" dynamodbav:"quantity"`
	DisplayImage    string           `json:"displayImage" dynamodbav:"display_image"`
}

// NewLineItem builds a line item for a variant of the product, capturing
// the variant price at the time of the call.
func NewLineItem(p *Product, v *Variant, quantity int) LineItem {
	item := LineItem{
		VariantID:       v.ID,
		Product:         p.Snapshot(),
		VariantTitle:    v.Title,
		SelectedOptions: append([]SelectedOption(nil), v.SelectedOptions...),
		UnitPrice:       v.Price,
		Quantity:        quantity,
	}
	item.DisplayImage = ResolveDisplayImage(item.Product, v)
	return item
}

// ResolveDisplayImage picks the variant image, then a product image that
// mentions one of the variant's option values, then the first product
// image, then the placeholder.
func ResolveDisplayImage(p ProductSnapshot, v *Variant) string {
	if v != nil && v.Image != nil && v.Image.URL != "" {
		return v.Image.URL
	}
	if v != nil {
		for _, opt := range v.SelectedOptions {
			want := strings.ToLower(opt.Value)
			if want == "" || strings.EqualFold(want, "default title") {
				continue
			}
			for _, img := range p.Images {
				if strings.Contains(strings.ToLower(img.AltText), want) ||
					strings.Contains(strings.ToLower(img.URL), want) {
					return img.URL
				}
			}
		}
	}
	if len(p.Images) > 0 && p.Images[0].URL != "" {
		return p.Images[0].URL
	}
	return PlaceholderImage
}

// Subtotal is unit price times quantity.
func (li LineItem) Subtotal() Money {
	return li.UnitPrice.Mul(li.Quantity)
}

// Clone returns a deep copy.
func (li LineItem) Clone() LineItem {
	out := li
	out.Product = li.Product.clone()
	out.SelectedOptions = append([]SelectedOption(nil), li.SelectedOptions...)
	return out
}

// CartSnapshot is the durable record of a session's cart.
type CartSnapshot struct {
	SchemaVersion int        `json:"schemaVersion" dynamodbav:"schema_version"`
	SessionID     string     `json:"sessionId" dynamodbav:"session_id"`
	Items         []LineItem `json:"items" dynamodbav:"items"`
	SavedAt       time.Time  `json:"savedAt" dynamodbav:"saved_at"`
}

// CartView is the read model served to the storefront UI.
type CartView struct {
	Items                []LineItem `json:"items"`
	IsLoading            bool       `json:"isLoading"`
	TotalItemCount       int        `json:"totalItemCount"`
	Subtotal             *Money     `json:"subtotal,omitempty"`
	SubtotalsByCurrency  []Money    `json:"subtotalsByCurrency"`
	MixedCurrency        bool       `json:"mixedCurrency"`
	FreeShippingProgress float64    `json:"freeShippingProgress"`
	AmountToFreeShipping *Money     `json:"amountToFreeShipping,omitempty"`
}
