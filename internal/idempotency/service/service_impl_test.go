package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/tably/internal/clock"
	"github.com/smallbiznis/tably/internal/idempotency/domain"
	"github.com/smallbiznis/tably/internal/idempotency/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newExecutor(t *testing.T) domain.Executor {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Record{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(Params{
		DB:     db,
		Log:    zaptest.NewLogger(t),
		GenID:  node,
		Clock:  clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		Locker: NewLocalLocker(),
		Repo:   repository.Provide(),
	})
}

func TestExecute_EmptyKeyBypassesLedger(t *testing.T) {
	exec := newExecutor(t)

	calls := 0
	work := func(ctx context.Context, tx *gorm.DB) (domain.Outcome, error) {
		calls++
		return domain.Outcome{Status: 200, Body: datatypes.JSONMap{"n": calls}}, nil
	}

	for i := 0; i < 2; i++ {
		_, err := exec.Execute(context.Background(), "op", "", "fp", work)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}

func TestExecute_ReplaysStoredOutcome(t *testing.T) {
	exec := newExecutor(t)

	calls := 0
	work := func(ctx context.Context, tx *gorm.DB) (domain.Outcome, error) {
		calls++
		return domain.Outcome{Status: 201, Body: datatypes.JSONMap{"order_id": "42"}}, nil
	}

	first, err := exec.Execute(context.Background(), "order.send", "key-1", "fp-1", work)
	require.NoError(t, err)
	assert.Equal(t, 201, first.Status)

	second, err := exec.Execute(context.Background(), "order.send", "key-1", "fp-1", work)
	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, 1, calls, "replay must not re-execute the work")
}

func TestExecute_KeyReuseWithDifferentPayload(t *testing.T) {
	exec := newExecutor(t)

	work := func(ctx context.Context, tx *gorm.DB) (domain.Outcome, error) {
		return domain.Outcome{Status: 200, Body: datatypes.JSONMap{}}, nil
	}

	_, err := exec.Execute(context.Background(), "order.send", "key-1", "fp-a", work)
	require.NoError(t, err)

	_, err = exec.Execute(context.Background(), "order.send", "key-1", "fp-b", work)
	assert.ErrorIs(t, err, domain.ErrKeyReuse)
}

func TestExecute_SameKeyDifferentKind(t *testing.T) {
	exec := newExecutor(t)

	calls := 0
	work := func(ctx context.Context, tx *gorm.DB) (domain.Outcome, error) {
		calls++
		return domain.Outcome{Status: 200, Body: datatypes.JSONMap{}}, nil
	}

	_, err := exec.Execute(context.Background(), "table.seat", "key-1", "fp", work)
	require.NoError(t, err)
	_, err = exec.Execute(context.Background(), "order.send", "key-1", "fp", work)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "kinds keep separate ledgers")
}

func TestExecute_NonTerminalFailureIsNotRecorded(t *testing.T) {
	exec := newExecutor(t)

	boom := errors.New("db went away")
	calls := 0
	work := func(ctx context.Context, tx *gorm.DB) (domain.Outcome, error) {
		calls++
		if calls == 1 {
			return domain.Outcome{}, boom
		}
		return domain.Outcome{Status: 200, Body: datatypes.JSONMap{"ok": true}}, nil
	}

	_, err := exec.Execute(context.Background(), "op", "key-1", "fp", work)
	assert.ErrorIs(t, err, boom)

	// The retry re-executes because no record was written.
	out, err := exec.Execute(context.Background(), "op", "key-1", "fp", work)
	require.NoError(t, err)
	assert.Equal(t, 200, out.Status)
	assert.Equal(t, 2, calls)
}

func TestExecute_TerminalRejectionIsReplayed(t *testing.T) {
	exec := newExecutor(t)

	calls := 0
	work := func(ctx context.Context, tx *gorm.DB) (domain.Outcome, error) {
		calls++
		return domain.Outcome{Status: 409, Body: datatypes.JSONMap{"error": "conflict_already_seated"}}, nil
	}

	first, err := exec.Execute(context.Background(), "table.seat", "key-1", "fp", work)
	require.NoError(t, err)
	assert.Equal(t, 409, first.Status)

	second, err := exec.Execute(context.Background(), "table.seat", "key-1", "fp", work)
	require.NoError(t, err)
	assert.Equal(t, 409, second.Status)
	assert.Equal(t, 1, calls)
}

func TestExecute_ConcurrentFirstAttempts(t *testing.T) {
	exec := newExecutor(t)

	var mu sync.Mutex
	calls := 0
	work := func(ctx context.Context, tx *gorm.DB) (domain.Outcome, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return domain.Outcome{Status: 201, Body: datatypes.JSONMap{"winner": true}}, nil
	}

	var wg sync.WaitGroup
	outcomes := make([]domain.Outcome, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = exec.Execute(context.Background(), "payment.record", "key-1", "fp", work)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 1, calls, "the lock must serialize the first attempts")
	assert.Equal(t, outcomes[0].Status, outcomes[1].Status)
	assert.Equal(t, outcomes[0].Body, outcomes[1].Body)
}
