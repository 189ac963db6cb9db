package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "straphub-service/common/errors"
	"straphub-service/services"
)

const (
	defaultProductLimit = 50
	maxProductLimit     = 250
)

// Catalog is the read side of the product catalog.
type Catalog interface {
	ListProducts(ctx context.Context, limit int, query string) ([]services.ProductSummary, error)
	ProductDetail(ctx context.Context, handle string) (*services.ProductDetail, error)
}

type ProductController struct {
	catalog Catalog
}

func NewProductController(catalog Catalog) *ProductController {
	return &ProductController{catalog: catalog}
}

// ListProducts handles GET /products?limit=&q=
func (pc *ProductController) ListProducts(c *gin.Context) {
	limit := defaultProductLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			_ = c.Error(apperrors.Wrap(apperrors.ErrBadRequest, err, "limit must be a positive integer"))
			return
		}
		limit = min(n, maxProductLimit)
	}

	products, err := pc.catalog.ListProducts(c.Request.Context(), limit, strings.TrimSpace(c.Query("q")))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}

// GetProduct handles GET /products/:handle
func (pc *ProductController) GetProduct(c *gin.Context) {
	detail, err := pc.catalog.ProductDetail(c.Request.Context(), c.Param("handle"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, detail)
}
