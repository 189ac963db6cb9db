package models

// Image is a product or variant image.
type Image struct {
	URL     string `json:"url" dynamodbav:"url"`
	AltText string `json:"altText,omitempty" dynamodbav:"alt_text,omitempty"`
}

// SelectedOption is one name/value pair of a variant, e.g. Color=Black.
type SelectedOption struct {
	Name  string `json:"name" dynamodbav:"name"`
	Value string `json:"value" dynamodbav:"value"`
}

// ProductOption lists the values a product offers for one option name.
type ProductOption struct {
	Name   string   `json:"name" dynamodbav:"name"`
	Values []string `json:"values" dynamodbav:"values"`
}

// Variant is a purchasable SKU of a product.
type Variant struct {
	ID               string           `json:"id" dynamodbav:"id"`
	Title            string           `json:"title" dynamodbav:"title"`
	Price            Money            `json:"price" dynamodbav:"price"`
	CompareAtPrice   *Money           `json:"compareAtPrice,omitempty" dynamodbav:"compare_at_price,omitempty"`
	AvailableForSale bool             `json:"availableForSale" dynamodbav:"available_for_sale"`
	SelectedOptions  []SelectedOption `json:"selectedOptions" dynamodbav:"selected_options"`
	Image            *Image           `json:"image,omitempty" dynamodbav:"image,omitempty"`
}

// Product is the catalog shape returned by the storefront gateway.
type Product struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	DescriptionHTML string          `json:"descriptionHtml,omitempty"`
	Handle          string          `json:"handle"`
	Vendor          string          `json:"vendor"`
	MinPrice        Money           `json:"minPrice"`
	CompareAtPrice  *Money          `json:"compareAtPrice,omitempty"`
	Images          []Image         `json:"images"`
	Variants        []Variant       `json:"variants"`
	Options         []ProductOption `json:"options"`
}

// FindVariant returns the variant with the given id.
func (p *Product) FindVariant(id string) (*Variant, bool) {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

// ProductSnapshot is a point-in-time copy of a product, embedded in a
// line item so the cart can render without re-fetching. It is never
// refreshed after the line item is created.
type ProductSnapshot struct {
	ID       string    `json:"id" dynamodbav:"id"`
	Title    string    `json:"title" dynamodbav:"title"`
	Handle   string    `json:"handle" dynamodbav:"handle"`
	Vendor   string    `json:"vendor" dynamodbav:"vendor"`
	Images   []Image   `json:"images" dynamodbav:"images"`
	Variants []Variant `json:"variants" dynamodbav:"variants"`
}

// Snapshot copies the product into a ProductSnapshot.
func (p *Product) Snapshot() ProductSnapshot {
	images := make([]Image, len(p.Images))
	copy(images, p.Images)
	variants := make([]Variant, len(p.Variants))
	for i, v := range p.Variants {
		variants[i] = v.clone()
	}
	return ProductSnapshot{
		ID:       p.ID,
		Title:    p.Title,
		Handle:   p.Handle,
		Vendor:   p.Vendor,
		Images:   images,
		Variants: variants,
	}
}

func (v Variant) clone() Variant {
	out := v
	if v.CompareAtPrice != nil {
		c := *v.CompareAtPrice
		out.CompareAtPrice = &c
	}
	if v.Image != nil {
		img := *v.Image
		out.Image = &img
	}
	out.SelectedOptions = append([]SelectedOption(nil), v.SelectedOptions...)
	return out
}

func (s ProductSnapshot) clone() ProductSnapshot {
	out := s
	out.Images = append([]Image(nil), s.Images...)
	if s.Variants != nil {
		out.Variants = make([]Variant, len(s.Variants))
		for i, v := range s.Variants {
			out.Variants[i] = v.clone()
		}
	}
	return out
}
