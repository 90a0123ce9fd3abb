package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AuditLog is an append-only record of a mutating action. Rows are never
// updated or deleted; dispute resolution depends on that.
type AuditLog struct {
	ID           snowflake.ID      `json:"id" gorm:"primaryKey"`
	ActorID      string            `json:"actor_id" gorm:"type:text;not null"`
	ActorRole    string            `json:"actor_role" gorm:"type:text;not null"`
	Action       string            `json:"action" gorm:"type:text;not null;index"`
	TargetType   string            `json:"target_type" gorm:"type:text;not null;index"`
	TargetID     string            `json:"target_id" gorm:"type:text;not null;index"`
	BeforeStatus string            `json:"before_status" gorm:"type:text"`
	AfterStatus  string            `json:"after_status" gorm:"type:text"`
	Metadata     datatypes.JSONMap `json:"metadata"`
	IPAddress    *string           `json:"ip_address,omitempty" gorm:"type:text"`
	UserAgent    *string           `json:"user_agent,omitempty" gorm:"type:text"`
	CreatedAt    time.Time         `json:"created_at" gorm:"not null;index"`
}

func (AuditLog) TableName() string { return "audit_logs" }

// Target types recorded by the state engine.
const (
	TargetTable     = "table"
	TargetOrder     = "order"
	TargetOrderItem = "order_item"
	TargetPayment   = "payment"
	TargetDiscount  = "discount_application"
)
