package service

import (
	"context"
	"time"

	"cashrecon/internal/dto"
	"cashrecon/internal/reconciliation"

	"github.com/rs/zerolog/log"
)

type SnapshotService interface {
	GetByDate(ctx context.Context, date time.Time) (*reconciliation.Snapshot, error)
	SaveToday(ctx context.Context, req dto.SaveSnapshotRequest) (*SaveResult, error)
}

// SaveResult is the persisted snapshot and the run it triggered. When the
// re-run fails the snapshot is still saved: Outcome is nil and RunErr says why.
type SaveResult struct {
	Snapshot reconciliation.Snapshot
	Outcome  *Outcome
	RunErr   error
}

type snapshotService struct {
	store reconciliation.SnapshotStore
	recon ReconciliationService
}

func NewSnapshotService(store reconciliation.SnapshotStore, recon ReconciliationService) SnapshotService {
	return &snapshotService{store: store, recon: recon}
}

// GetByDate returns reconciliation.ErrSnapshotNotFound when nothing was
// recorded for date.
func (s *snapshotService) GetByDate(ctx context.Context, date time.Time) (*reconciliation.Snapshot, error) {
	snap, err := s.store.GetByDate(ctx, reconciliation.CivilDate(date))
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, reconciliation.ErrSnapshotNotFound
	}
	return snap, nil
}

// SaveToday validates and upserts today's snapshot, then reconciles today
// again. A failed write returns before any run so the previous figures stay
// authoritative. A failed re-run does not undo the write and is reported in
// SaveResult.RunErr.
func (s *snapshotService) SaveToday(ctx context.Context, req dto.SaveSnapshotRequest) (*SaveResult, error) {
	snap := reconciliation.Snapshot{
		Date:      s.recon.Today(),
		CashLocal: req.CashLocal.Decimal,
		CashRef:   req.CashRef.Decimal,
		EVC:       req.EVC.Decimal,
		Wallet2:   req.Wallet2.Decimal,
		Merchant:  req.Merchant.Decimal,
		Note:      req.Note,
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	saved, err := s.store.Upsert(ctx, snap)
	if err != nil {
		log.Error().Err(err).Str("date", snap.Date.Format(reconciliation.DateLayout)).Msg("snapshot: save failed")
		return nil, err
	}
	log.Info().Str("date", saved.Date.Format(reconciliation.DateLayout)).Msg("snapshot: saved")

	fx := s.recon.DefaultFx()
	if req.FxRate != nil {
		fx = req.FxRate.Decimal
	}
	out, err := s.recon.Reconcile(ctx, saved.Date, fx)
	if err != nil {
		log.Warn().Err(err).Str("date", saved.Date.Format(reconciliation.DateLayout)).Msg("snapshot: saved but re-run failed")
		return &SaveResult{Snapshot: *saved, RunErr: err}, nil
	}
	return &SaveResult{Snapshot: *saved, Outcome: out}, nil
}
