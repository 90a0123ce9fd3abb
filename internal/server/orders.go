package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	orderdomain "github.com/smallbiznis/tably/internal/order/domain"
	"gorm.io/gorm"
)

func (s *Server) ListOpenOrders(c *gin.Context) {
	orders, err := s.orderSvc.ListOpen(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders})
}

func (s *Server) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	view, err := s.orderSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type sendLineRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
	Notes     string `json:"notes"`
}

type sendToKitchenRequest struct {
	TableID string            `json:"table_id"`
	OrderID string            `json:"order_id"`
	Lines   []sendLineRequest `json:"lines" binding:"required"`
}

func (s *Server) SendToKitchen(c *gin.Context) {
	var req sendToKitchenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	sendReq := orderdomain.SendRequest{}
	if raw := strings.TrimSpace(req.TableID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("table_id", "invalid_id", "invalid table_id"))
			return
		}
		sendReq.TableID = &id
	}
	if raw := strings.TrimSpace(req.OrderID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("order_id", "invalid_id", "invalid order_id"))
			return
		}
		sendReq.OrderID = &id
	}
	for _, line := range req.Lines {
		productID, err := snowflake.ParseString(strings.TrimSpace(line.ProductID))
		if err != nil {
			AbortWithError(c, newValidationError("lines", "invalid_product_id", "invalid product_id"))
			return
		}
		sendReq.Lines = append(sendReq.Lines, orderdomain.SendLine{
			ProductID: productID,
			Quantity:  line.Quantity,
			Notes:     strings.TrimSpace(line.Notes),
		})
	}

	s.runIdempotent(c, "order.send", sendReq, func(ctx context.Context, tx *gorm.DB) (int, any, error) {
		result, err := s.orderSvc.SendToKitchen(ctx, tx, sendReq)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, result, nil
	})
}

func (s *Server) AdvanceItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	s.runIdempotent(c, "order.item.advance", gin.H{"item_id": id.String()}, func(ctx context.Context, tx *gorm.DB) (int, any, error) {
		item, err := s.orderSvc.AdvanceItem(ctx, tx, id)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, item, nil
	})
}

func (s *Server) ReopenItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	s.runIdempotent(c, "order.item.reopen", gin.H{"item_id": id.String()}, func(ctx context.Context, tx *gorm.DB) (int, any, error) {
		item, err := s.orderSvc.ReopenItem(ctx, tx, id)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, item, nil
	})
}

type voidItemRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (s *Server) VoidItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req voidItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	reason := strings.TrimSpace(req.Reason)
	s.runIdempotent(c, "order.item.void", gin.H{"item_id": id.String(), "reason": reason}, func(ctx context.Context, tx *gorm.DB) (int, any, error) {
		item, err := s.orderSvc.VoidItem(ctx, tx, id, reason)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, item, nil
	})
}

type applyDiscountRequest struct {
	DefinitionID string `json:"definition_id" binding:"required"`
}

func (s *Server) ApplyDiscount(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req applyDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	definitionID, err := snowflake.ParseString(strings.TrimSpace(req.DefinitionID))
	if err != nil {
		AbortWithError(c, newValidationError("definition_id", "invalid_id", "invalid definition_id"))
		return
	}

	s.runIdempotent(c, "order.item.discount", gin.H{"item_id": id.String(), "definition_id": definitionID.String()}, func(ctx context.Context, tx *gorm.DB) (int, any, error) {
		item, err := s.orderSvc.ApplyDiscount(ctx, tx, id, definitionID)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, item, nil
	})
}

func (s *Server) RemoveDiscount(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	s.runIdempotent(c, "order.item.discount.remove", gin.H{"item_id": id.String()}, func(ctx context.Context, tx *gorm.DB) (int, any, error) {
		item, err := s.orderSvc.RemoveDiscount(ctx, tx, id)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, item, nil
	})
}

type compItemRequest struct {
	Quantity int    `json:"quantity" binding:"required"`
	Reason   string `json:"reason" binding:"required"`
}

func (s *Server) CompItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req compItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	compReq := orderdomain.CompRequest{
		ItemID:   id,
		Quantity: req.Quantity,
		Reason:   strings.TrimSpace(req.Reason),
	}
	s.runIdempotent(c, "order.item.comp", compReq, func(ctx context.Context, tx *gorm.DB) (int, any, error) {
		result, err := s.orderSvc.CompItem(ctx, tx, compReq)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, result, nil
	})
}

func (s *Server) GenerateBill(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	s.runIdempotent(c, "order.bill", gin.H{"order_id": id.String()}, func(ctx context.Context, tx *gorm.DB) (int, any, error) {
		result, err := s.orderSvc.GenerateBill(ctx, tx, id)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, result, nil
	})
}

func (s *Server) CloseOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	s.runIdempotent(c, "order.close", gin.H{"order_id": id.String()}, func(ctx context.Context, tx *gorm.DB) (int, any, error) {
		if err := s.paymentSvc.Close(ctx, tx, id); err != nil {
			return 0, nil, err
		}
		return http.StatusOK, gin.H{"order_id": id.String(), "status": string(orderdomain.OrderClosed)}, nil
	})
}
