package domain

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Outcome is the cacheable result of a unit of work: an HTTP-equivalent
// status plus a response body. A zero Status on error marks the failure as
// non-terminal, so nothing is recorded and a retry re-executes.
type Outcome struct {
	Status int
	Body   datatypes.JSONMap
}

// Work runs the state transition inside tx. The idempotency record is
// inserted in the same transaction, so side effects and the ledger entry
// commit or roll back together.
type Work func(ctx context.Context, tx *gorm.DB) (Outcome, error)

// Executor enforces at-most-once execution for mutating operations.
type Executor interface {
	// Execute runs work under the (kind, key) ledger. An empty key bypasses
	// replay protection. A replayed key returns the stored outcome verbatim;
	// a reused key with a different fingerprint fails with ErrKeyReuse.
	Execute(ctx context.Context, kind, key, fingerprint string, work Work) (Outcome, error)
}

// Locker serializes concurrent first attempts on the same ledger key.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type Repository interface {
	Find(ctx context.Context, db *gorm.DB, kind, key string) (*Record, error)
	// Insert persists the record, returning false when a concurrent writer
	// already owns the (kind, key) pair.
	Insert(ctx context.Context, db *gorm.DB, record *Record) (bool, error)
}

var (
	ErrKeyReuse = errors.New("conflict_key_reuse")
	ErrTimeout  = errors.New("timeout")
)
