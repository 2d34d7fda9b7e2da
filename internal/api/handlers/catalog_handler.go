package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/andresuchdata/autoorder/internal/domain"
	"github.com/gin-gonic/gin"
)

// Catalog lists products and categories.
type Catalog interface {
	ListProducts(ctx context.Context, search string, hiddenIDs []int64) ([]domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

type CatalogHandler struct {
	catalog Catalog
}

func NewCatalogHandler(catalog Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// GetProducts returns visible products. Supports ?search= and
// ?hidden=1,2 or repeated ?hidden= values.
func (h *CatalogHandler) GetProducts(c *gin.Context) {
	hidden, err := parseIDList(c.QueryArray("hidden"))
	if err != nil {
		badRequest(c, "invalid hidden ids", err.Error())
		return
	}

	products, err := h.catalog.ListProducts(c.Request.Context(), strings.TrimSpace(c.Query("search")), hidden)
	if err != nil {
		respondError(c, err, "failed to fetch products")
		return
	}

	c.JSON(http.StatusOK, products)
}

func (h *CatalogHandler) GetCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch categories")
		return
	}

	c.JSON(http.StatusOK, categories)
}
