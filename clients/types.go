package clients

import (
	"encoding/json"
	"strings"

	"straphub-service/models"
)

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

type moneyNode struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

func (m *moneyNode) toModel() *models.Money {
	if m == nil {
		return nil
	}
	return &models.Money{Amount: m.Amount, CurrencyCode: m.CurrencyCode}
}

type imageNode struct {
	URL     string  `json:"url"`
	AltText *string `json:"altText"`
}

func (i imageNode) toModel() models.Image {
	img := models.Image{URL: i.URL}
	if i.AltText != nil {
		img.AltText = *i.AltText
	}
	return img
}

type variantNode struct {
	ID               string                  `json:"id"`
	Title            string                  `json:"title"`
	Price            moneyNode               `json:"price"`
	CompareAtPrice   *moneyNode              `json:"compareAtPrice"`
	AvailableForSale bool                    `json:"availableForSale"`
	SelectedOptions  []models.SelectedOption `json:"selectedOptions"`
	Image            *imageNode              `json:"image"`
}

type priceRange struct {
	MinVariantPrice moneyNode `json:"minVariantPrice"`
}

type productNode struct {
	ID                  string      `json:"id"`
	Title               string      `json:"title"`
	Description         string      `json:"description"`
	DescriptionHTML     string      `json:"descriptionHtml"`
	Handle              string      `json:"handle"`
	Vendor              string      `json:"vendor"`
	PriceRange          priceRange  `json:"priceRange"`
	CompareAtPriceRange *priceRange `json:"compareAtPriceRange"`
	Images              struct {
		Edges []struct {
			Node imageNode `json:"node"`
		} `json:"edges"`
	} `json:"images"`
	Variants struct {
		Edges []struct {
			Node variantNode `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
	Options []models.ProductOption `json:"options"`
}

func (p productNode) toModel() models.Product {
	out := models.Product{
		ID:              p.ID,
		Title:           p.Title,
		Description:     p.Description,
		DescriptionHTML: p.DescriptionHTML,
		Handle:          p.Handle,
		Vendor:          p.Vendor,
		MinPrice:        *p.PriceRange.MinVariantPrice.toModel(),
		Images:          make([]models.Image, 0, len(p.Images.Edges)),
		Variants:        make([]models.Variant, 0, len(p.Variants.Edges)),
		Options:         p.Options,
	}
	if p.CompareAtPriceRange != nil {
		cmp := p.CompareAtPriceRange.MinVariantPrice
		// The platform reports "0.0" when no variant has a compare-at price.
		if cmp.Amount != "" && !cmp.toModel().IsZero() {
			out.CompareAtPrice = cmp.toModel()
		}
	}
	for _, e := range p.Images.Edges {
		out.Images = append(out.Images, e.Node.toModel())
	}
	for _, e := range p.Variants.Edges {
		v := e.Node
		variant := models.Variant{
			ID:               v.ID,
			Title:            v.Title,
			Price:            *v.Price.toModel(),
			CompareAtPrice:   v.CompareAtPrice.toModel(),
			AvailableForSale: v.AvailableForSale,
			SelectedOptions:  v.SelectedOptions,
		}
		if v.Image != nil {
			img := v.Image.toModel()
			variant.Image = &img
		}
		out.Variants = append(out.Variants, variant)
	}
	return out
}

type productsData struct {
	Products struct {
		Edges []struct {
			Node productNode `json:"node"`
		} `json:"edges"`
	} `json:"products"`
}

type productByHandleData struct {
	ProductByHandle *productNode `json:"productByHandle"`
}

type cartLineInput struct {
	MerchandiseID string `json:"merchandiseId"`
	Quantity      int    `json:"quantity"`
}

type userErrorNode struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

type cartCreateData struct {
	CartCreate struct {
		Cart *struct {
			ID          string `json:"id"`
			CheckoutURL string `json:"checkoutUrl"`
		} `json:"cart"`
		UserErrors []userErrorNode `json:"userErrors"`
	} `json:"cartCreate"`
}

func (u userErrorNode) toModel() UserError {
	return UserError{Field: strings.Join(u.Field, "."), Message: u.Message}
}
