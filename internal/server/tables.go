package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	tabledomain "github.com/smallbiznis/tably/internal/table/domain"
	"gorm.io/gorm"
)

type createTableRequest struct {
	Label    string `json:"label" binding:"required"`
	Capacity int    `json:"capacity" binding:"required"`
	Shape    string `json:"shape"`
}

func (s *Server) CreateTable(c *gin.Context) {
	var req createTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	table := &tabledomain.Table{
		Label:    strings.TrimSpace(req.Label),
		Capacity: req.Capacity,
		Shape:    strings.TrimSpace(req.Shape),
	}
	if err := s.tableSvc.Create(c.Request.Context(), table); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, table)
}

func (s *Server) ListTables(c *gin.Context) {
	tables, err := s.tableSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tables})
}

func (s *Server) GetTable(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	table, err := s.tableSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

type seatTableRequest struct {
	GuestCount int `json:"guest_count" binding:"required"`
}

func (s *Server) SeatTable(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req seatTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	seatReq := tabledomain.SeatRequest{TableID: id, GuestCount: req.GuestCount}
	s.runIdempotent(c, "table.seat", seatReq, func(ctx context.Context, tx *gorm.DB) (int, any, error) {
		result, err := s.tableSvc.Seat(ctx, tx, seatReq)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, result, nil
	})
}

func (s *Server) UnseatTable(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	s.runIdempotent(c, "table.unseat", gin.H{"table_id": id.String()}, func(ctx context.Context, tx *gorm.DB) (int, any, error) {
		table, err := s.tableSvc.Unseat(ctx, tx, id)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, table, nil
	})
}

func (s *Server) ClearTable(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	s.runIdempotent(c, "table.clear", gin.H{"table_id": id.String()}, func(ctx context.Context, tx *gorm.DB) (int, any, error) {
		table, err := s.tableSvc.Clear(ctx, tx, id)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, table, nil
	})
}

func (s *Server) CleanTable(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	s.runIdempotent(c, "table.clean", gin.H{"table_id": id.String()}, func(ctx context.Context, tx *gorm.DB) (int, any, error) {
		table, err := s.tableSvc.Clean(ctx, tx, id)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, table, nil
	})
}

type blockTableRequest struct {
	Blocked *bool `json:"blocked" binding:"required"`
}

func (s *Server) BlockTable(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req blockTableRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Blocked == nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	blocked := *req.Blocked
	s.runIdempotent(c, "table.block", gin.H{"table_id": id.String(), "blocked": blocked}, func(ctx context.Context, tx *gorm.DB) (int, any, error) {
		table, err := s.tableSvc.SetBlocked(ctx, tx, id, blocked)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, table, nil
	})
}

type reserveTableRequest struct {
	GuestName  string `json:"guest_name" binding:"required"`
	GuestPhone string `json:"guest_phone"`
	PartySize  int    `json:"party_size" binding:"required"`
	ReservedAt string `json:"reserved_at" binding:"required"`
}

func (s *Server) ReserveTable(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req reserveTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	reservedAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.ReservedAt))
	if err != nil {
		AbortWithError(c, newValidationError("reserved_at", "invalid_reserved_at", "invalid reserved_at"))
		return
	}

	reserveReq := tabledomain.ReserveRequest{
		TableID:    id,
		GuestName:  strings.TrimSpace(req.GuestName),
		GuestPhone: strings.TrimSpace(req.GuestPhone),
		PartySize:  req.PartySize,
		ReservedAt: reservedAt,
	}
	s.runIdempotent(c, "table.reserve", reserveReq, func(ctx context.Context, tx *gorm.DB) (int, any, error) {
		reservation, err := s.tableSvc.Reserve(ctx, tx, reserveReq)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, reservation, nil
	})
}
