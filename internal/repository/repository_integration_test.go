//go:build integration

package repository_test

// Run with: go test -tags integration ./internal/repository/... -v

import (
	"context"
	"testing"
	"time"

	"cashrecon/internal/infra"
	"cashrecon/internal/model"
	"cashrecon/internal/reconciliation"
	"cashrecon/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"
)

// newPostgres starts an empty database. Callers decide whether to migrate.
func newPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("cashrecon_test"),
		tcPostgres.WithUsername("cashrecon"),
		tcPostgres.WithPassword("cashrecon"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	url, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := infra.NewDatabase(url, false)
	require.NoError(t, err)
	return db
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSnapshotRepo_MissingTableIsStoreUnavailable(t *testing.T) {
	db := newPostgres(t)
	repo := repository.NewSnapshotRepository(db)
	ctx := context.Background()
	date := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	_, err := repo.GetByDate(ctx, date)
	assert.ErrorIs(t, err, reconciliation.ErrStoreUnavailable)

	_, err = repo.Upsert(ctx, reconciliation.Snapshot{Date: date, CashRef: d("10")})
	assert.ErrorIs(t, err, reconciliation.ErrStoreUnavailable)

	_, err = repository.NewSalesLedger(db).QueryByDateWindow(ctx, date, date.AddDate(0, 0, 1))
	assert.ErrorIs(t, err, reconciliation.ErrStoreUnavailable)
}

func TestSnapshotRepo_UpsertReplacesSameDate(t *testing.T) {
	db := newPostgres(t)
	require.NoError(t, infra.RunMigrations(db))
	repo := repository.NewSnapshotRepository(db)
	ctx := context.Background()
	date := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	first, err := repo.Upsert(ctx, reconciliation.Snapshot{
		Date: date, CashLocal: d("250000"), CashRef: d("120.50"), Note: "morning count",
	})
	require.NoError(t, err)
	assert.True(t, d("120.50").Equal(first.CashRef))
	assert.Equal(t, "morning count", first.Note)

	second, err := repo.Upsert(ctx, reconciliation.Snapshot{
		Date: date, CashLocal: d("260000"), CashRef: d("99"), EVC: d("15.25"),
	})
	require.NoError(t, err)
	assert.True(t, d("260000").Equal(second.CashLocal))
	assert.True(t, d("99").Equal(second.CashRef))
	assert.True(t, d("15.25").Equal(second.EVC))
	assert.Empty(t, second.Note)
	assert.WithinDuration(t, first.CreatedAt, second.CreatedAt, time.Millisecond)

	var count int64
	require.NoError(t, db.Model(&model.DailySnapshot{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSnapshotRepo_NegativeAmountRejectedByDatabase(t *testing.T) {
	db := newPostgres(t)
	require.NoError(t, infra.RunMigrations(db))
	repo := repository.NewSnapshotRepository(db)

	_, err := repo.Upsert(context.Background(), reconciliation.Snapshot{
		Date: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), EVC: d("-1"),
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, reconciliation.ErrStoreUnavailable)
}

func TestSnapshotRepo_GetLatestBefore(t *testing.T) {
	db := newPostgres(t)
	require.NoError(t, infra.RunMigrations(db))
	repo := repository.NewSnapshotRepository(db)
	ctx := context.Background()

	for _, day := range []int{4, 8, 11} {
		_, err := repo.Upsert(ctx, reconciliation.Snapshot{
			Date:    time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
			CashRef: decimal.NewFromInt(int64(day)),
		})
		require.NoError(t, err)
	}

	prior, err := repo.GetLatestBefore(ctx, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, prior)
	assert.Equal(t, "2024-03-08", prior.Date.Format(reconciliation.DateLayout))

	none, err := repo.GetLatestBefore(ctx, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, none)

	missing, err := repo.GetByDate(ctx, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLedgerRepo_SalesWindowSkipsVoided(t *testing.T) {
	db := newPostgres(t)
	require.NoError(t, infra.RunMigrations(db))
	ctx := context.Background()

	from := time.Date(2024, 3, 10, 21, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	note := "deyn - Hodan"

	sales := []model.Sale{
		{Total: d("12.00"), Status: "completed", CreatedAt: from},
		{Total: d("30.00"), Status: "completed", Note: &note, CreatedAt: from.Add(5 * time.Hour)},
		{Total: d("99.00"), Status: "voided", CreatedAt: from.Add(6 * time.Hour)},
		{Total: d("7.00"), Status: "completed", CreatedAt: to},
		{Total: d("4.00"), Status: "completed", CreatedAt: from.Add(-time.Second)},
	}
	require.NoError(t, db.Create(&sales).Error)

	recs, err := repository.NewSalesLedger(db).QueryByDateWindow(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.True(t, d("12").Equal(recs[0].Amount))
	assert.Empty(t, recs[0].Memo)
	assert.Equal(t, sales[0].ID.String(), recs[0].ID)
	assert.True(t, d("30").Equal(recs[1].Amount))
	assert.Equal(t, note, recs[1].Memo)
}

func TestLedgerRepo_OutboundLedgers(t *testing.T) {
	db := newPostgres(t)
	require.NoError(t, infra.RunMigrations(db))
	ctx := context.Background()

	from := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	require.NoError(t, db.Create(&model.Expense{
		Category: "rent", Description: "March rent", Amount: d("40"), SpentAt: from.Add(time.Hour),
	}).Error)
	require.NoError(t, db.Create(&model.Invoice{
		Supplier: "Hormuud", Amount: d("15.5"), IssuedAt: from.Add(2 * time.Hour),
	}).Error)
	require.NoError(t, db.Create(&model.CreditPayment{
		CustomerName: "Hodan", Amount: d("8"), PaidAt: to.Add(time.Minute),
	}).Error)

	sources := repository.LedgerSources(db)

	expenses, err := sources.Expenses.QueryByDateWindow(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "March rent", expenses[0].Memo)

	invoices, err := sources.Invoices.QueryByDateWindow(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.True(t, d("15.5").Equal(invoices[0].Amount))

	payments, err := sources.CreditPayments.QueryByDateWindow(ctx, from, to)
	require.NoError(t, err)
	assert.Empty(t, payments)
}
