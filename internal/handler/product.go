package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/apierror"
	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/repository"
)

type ProductHandler struct{ products repository.ProductRepository }

func NewProductHandler(products repository.ProductRepository) *ProductHandler {
	return &ProductHandler{products: products}
}

// List returns the active catalog.
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// Get returns one product by id.
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	product, err := h.products.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = apierror.NotFound("product not found")
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}
