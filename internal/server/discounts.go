package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	discountdomain "github.com/smallbiznis/tably/internal/discount/domain"
)

type createDiscountRequest struct {
	Code            string `json:"code" binding:"required"`
	Name            string `json:"name" binding:"required"`
	Kind            string `json:"kind" binding:"required"`
	ValueBps        int64  `json:"value_bps"`
	ValueCents      int64  `json:"value_cents"`
	MaxCents        int64  `json:"max_cents"`
	RequiresManager bool   `json:"requires_manager"`
}

func (s *Server) CreateDiscountDefinition(c *gin.Context) {
	var req createDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	definition := &discountdomain.Definition{
		Code:            strings.TrimSpace(req.Code),
		Name:            strings.TrimSpace(req.Name),
		Kind:            discountdomain.DiscountKind(strings.ToLower(strings.TrimSpace(req.Kind))),
		ValueBps:        req.ValueBps,
		ValueCents:      req.ValueCents,
		MaxCents:        req.MaxCents,
		RequiresManager: req.RequiresManager,
	}
	if err := s.discountSvc.Create(c.Request.Context(), definition); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, definition)
}

func (s *Server) ListDiscountDefinitions(c *gin.Context) {
	onlyActive := strings.EqualFold(strings.TrimSpace(c.Query("only_active")), "true")

	definitions, err := s.discountSvc.List(c.Request.Context(), onlyActive)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": definitions})
}
