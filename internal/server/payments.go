package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	paymentdomain "github.com/smallbiznis/tably/internal/payment/domain"
	"gorm.io/gorm"
)

type recordPaymentRequest struct {
	OrderID     string `json:"order_id" binding:"required"`
	Method      string `json:"method" binding:"required"`
	AmountCents int64  `json:"amount_cents" binding:"required"`
}

func (s *Server) RecordPayment(c *gin.Context) {
	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	orderID, err := snowflake.ParseString(strings.TrimSpace(req.OrderID))
	if err != nil {
		AbortWithError(c, newValidationError("order_id", "invalid_id", "invalid order_id"))
		return
	}

	recordReq := paymentdomain.RecordRequest{
		OrderID:     orderID,
		Method:      paymentdomain.Method(strings.ToLower(strings.TrimSpace(req.Method))),
		AmountCents: req.AmountCents,
	}
	s.runIdempotent(c, "payment.record", recordReq, func(ctx context.Context, tx *gorm.DB) (int, any, error) {
		result, err := s.paymentSvc.Record(ctx, tx, recordReq)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, result, nil
	})
}

func (s *Server) GetOrderPayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	payment, err := s.paymentSvc.FindByOrder(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}
