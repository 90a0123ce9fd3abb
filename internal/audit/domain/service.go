package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Entry is one mutating action to append to the trail.
type Entry struct {
	Action       string
	TargetType   string
	TargetID     string
	BeforeStatus string
	AfterStatus  string
	Metadata     map[string]any
}

type ListRequest struct {
	Action     string
	TargetType string
	TargetID   string
	StartAt    *time.Time
	EndAt      *time.Time
	Limit      int
	Offset     int
}

type Service interface {
	// Record appends an entry using tx so the audit row commits atomically
	// with the mutation it describes. tx may be nil for out-of-band events.
	Record(ctx context.Context, tx *gorm.DB, entry Entry) error
	List(ctx context.Context, req ListRequest) ([]AuditLog, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, req ListRequest) ([]AuditLog, error)
}

var (
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
)
