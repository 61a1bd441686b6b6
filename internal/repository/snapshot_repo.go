package repository

import (
	"context"
	"errors"
	"time"

	"cashrecon/internal/model"
	"cashrecon/internal/money"
	"cashrecon/internal/reconciliation"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type snapshotRepo struct{ db *gorm.DB }

func NewSnapshotRepository(db *gorm.DB) reconciliation.SnapshotStore { return &snapshotRepo{db: db} }

func (r *snapshotRepo) GetByDate(ctx context.Context, date time.Time) (*reconciliation.Snapshot, error) {
	var row model.DailySnapshot
	err := r.db.WithContext(ctx).Where("date = ?", model.NewDate(date)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translateErr(err)
	}
	s := toSnapshot(row)
	return &s, nil
}

func (r *snapshotRepo) GetLatestBefore(ctx context.Context, date time.Time) (*reconciliation.Snapshot, error) {
	var row model.DailySnapshot
	err := r.db.WithContext(ctx).
		Where("date < ?", model.NewDate(date)).
		Order("date DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translateErr(err)
	}
	s := toSnapshot(row)
	return &s, nil
}

// Upsert writes s in a single INSERT ... ON CONFLICT (date) DO UPDATE, so a
// failure leaves the previous row untouched. created_at survives updates.
func (r *snapshotRepo) Upsert(ctx context.Context, s reconciliation.Snapshot) (*reconciliation.Snapshot, error) {
	row := fromSnapshot(s)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"cash_local", "cash_ref", "evc", "wallet2", "merchant", "note", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, translateErr(err)
	}
	saved, err := r.GetByDate(ctx, s.Date)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, reconciliation.ErrSnapshotNotFound
	}
	return saved, nil
}

func toSnapshot(row model.DailySnapshot) reconciliation.Snapshot {
	s := reconciliation.Snapshot{
		Date:      row.Date.Time,
		CashLocal: money.OrZero(row.CashLocal),
		CashRef:   money.OrZero(row.CashRef),
		EVC:       money.OrZero(row.EVC),
		Wallet2:   money.OrZero(row.Wallet2),
		Merchant:  money.OrZero(row.Merchant),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.Note != nil {
		s.Note = *row.Note
	}
	return s
}

func fromSnapshot(s reconciliation.Snapshot) model.DailySnapshot {
	cashLocal, cashRef, evc, wallet2, merchant := s.CashLocal, s.CashRef, s.EVC, s.Wallet2, s.Merchant
	row := model.DailySnapshot{
		Date:      model.NewDate(s.Date),
		CashLocal: &cashLocal,
		CashRef:   &cashRef,
		EVC:       &evc,
		Wallet2:   &wallet2,
		Merchant:  &merchant,
	}
	if s.Note != "" {
		note := s.Note
		row.Note = &note
	}
	return row
}
