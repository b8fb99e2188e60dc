package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"walletpay/internal/models/db_models"
	"walletpay/pkg/utils"
)

type capturedSQL struct {
	sql  string
	vars []interface{}
}

// newDryRunDB builds statements with the postgres dialect without connecting
// and records every UPDATE it would have sent.
func newDryRunDB(t *testing.T) (*gorm.DB, *[]capturedSQL) {
	t.Helper()

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 user=walletpay dbname=walletpay sslmode=disable",
	}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)

	var captured []capturedSQL
	err = db.Callback().Update().After("gorm:update").Register("test:capture_sql", func(tx *gorm.DB) {
		captured = append(captured, capturedSQL{
			sql:  tx.Statement.SQL.String(),
			vars: append([]interface{}(nil), tx.Statement.Vars...),
		})
	})
	require.NoError(t, err)
	return db, &captured
}

func TestTransactionUpdateGuardsOnExpectedStatus(t *testing.T) {
	db, captured := newDryRunDB(t)
	repo := NewTransactionRepository(db)

	txn := &db_models.Transaction{
		Amount:   decimal.NewFromInt(500),
		Currency: "JPY",
		Status:   db_models.TxnStatusCompleted,
	}
	txn.ID = uuid.New()

	// Nothing is executed in dry-run mode, so no row matches.
	err := repo.Update(context.Background(), txn, db_models.TxnStatusProcessing)
	require.ErrorIs(t, err, utils.ErrStaleRecord)

	require.Len(t, *captured, 1)
	stmt := (*captured)[0]
	assert.Regexp(t, `^UPDATE "transactions" SET `, stmt.sql)
	assert.Regexp(t, `WHERE status = \$\d+ AND ("transactions"\.)?"id" = \$\d+`, stmt.sql)
	assert.Contains(t, stmt.sql, `"status"=`)
	assert.Contains(t, stmt.sql, `"void_attempted"=`)
	assert.NotContains(t, stmt.sql, `"created_at"=`)
	assert.NotContains(t, stmt.sql, `SET "id"=`)
	assert.Contains(t, stmt.vars, db_models.TxnStatusProcessing)
	assert.Contains(t, stmt.vars, db_models.TxnStatusCompleted)
}

func TestAcquireChargeLeaseSkipsActiveLease(t *testing.T) {
	db, captured := newDryRunDB(t)
	repo := NewSubscriptionRepository(db)

	id := uuid.New()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	until := now.Add(2 * time.Minute)

	acquired, err := repo.AcquireChargeLease(context.Background(), id, now, until)
	require.NoError(t, err)
	assert.False(t, acquired)

	require.Len(t, *captured, 1)
	stmt := (*captured)[0]
	assert.Regexp(t, `^UPDATE "subscriptions" SET `, stmt.sql)
	assert.Contains(t, stmt.sql, `"charge_lease_until"=`)
	assert.Regexp(t, `WHERE \(id = \$\d+ AND status = \$\d+\) AND \(charge_lease_until IS NULL OR charge_lease_until < \$\d+\)`, stmt.sql)
	assert.Contains(t, stmt.vars, id)
	assert.Contains(t, stmt.vars, db_models.SubStatusActive)
	assert.Contains(t, stmt.vars, now)
	assert.Contains(t, stmt.vars, until)
}

func TestCompleteChargeClearsLease(t *testing.T) {
	db, captured := newDryRunDB(t)
	repo := NewSubscriptionRepository(db)

	id := uuid.New()
	last := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	next := last.AddDate(0, 1, 0)

	require.NoError(t, repo.CompleteCharge(context.Background(), id, last, next, nil))

	require.Len(t, *captured, 1)
	stmt := (*captured)[0]
	assert.Contains(t, stmt.sql, `"charge_lease_until"=`)
	assert.Contains(t, stmt.sql, `"next_billing_date"=`)
	assert.NotContains(t, stmt.sql, `"gateway_response"=`)
	assert.Regexp(t, `WHERE id = \$\d+`, stmt.sql)
	assert.Contains(t, stmt.vars, next)
}
