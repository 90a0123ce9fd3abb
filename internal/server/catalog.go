package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/tably/internal/catalog/domain"
)

type createProductRequest struct {
	SKU            string `json:"sku" binding:"required"`
	Name           string `json:"name" binding:"required"`
	Category       string `json:"category" binding:"required"`
	UnitPriceCents int64  `json:"unit_price_cents" binding:"required"`
}

func (s *Server) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	product := &catalogdomain.Product{
		SKU:            strings.TrimSpace(req.SKU),
		Name:           strings.TrimSpace(req.Name),
		Category:       strings.TrimSpace(req.Category),
		UnitPriceCents: req.UnitPriceCents,
	}
	if err := s.catalogSvc.Create(c.Request.Context(), product); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

type listProductsQuery struct {
	Category   string `form:"category"`
	OnlyActive bool   `form:"only_active"`
}

func (s *Server) ListProducts(c *gin.Context) {
	var query listProductsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	products, err := s.catalogSvc.List(c.Request.Context(), catalogdomain.ListRequest{
		Category:   strings.TrimSpace(query.Category),
		OnlyActive: query.OnlyActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": products})
}

func (s *Server) DeactivateProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := s.catalogSvc.Deactivate(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id.String(), "is_active": false})
}
