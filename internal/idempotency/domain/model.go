package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Record stores the terminal result of a mutating request, keyed by
// (operation kind, caller-supplied key). Never mutated after insert.
type Record struct {
	ID          snowflake.ID      `json:"id" gorm:"primaryKey"`
	Kind        string            `json:"kind" gorm:"type:text;not null;uniqueIndex:ux_idem_kind_key,priority:1"`
	Key         string            `json:"key" gorm:"column:idempotency_key;type:text;not null;uniqueIndex:ux_idem_kind_key,priority:2"`
	Fingerprint string            `json:"fingerprint" gorm:"type:text;not null"`
	Status      int               `json:"status" gorm:"not null"`
	Body        datatypes.JSONMap `json:"body"`
	CreatedAt   time.Time         `json:"created_at" gorm:"not null"`
}

func (Record) TableName() string { return "idempotency_records" }

// Fingerprint returns a deterministic digest of the request's semantic
// payload, used to detect key reuse with a different body.
func Fingerprint(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		raw = []byte(err.Error())
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
