package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/obiefule/estateflow/internal/models"
	"github.com/obiefule/estateflow/internal/storage"
)

// Store owns every write to Plot.status. Locking is a SELECT ... FOR UPDATE
// on the targeted rows: two transactions contending for overlapping plots
// serialize on the row locks, and the loser sees status != 'available'.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx runs fn inside one transaction; locks taken by LockAvailable are
// held until fn returns.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return storage.WithTx(ctx, s.db, fn)
}

// LockAvailable takes exclusive row locks on the requested plots, filtered
// to the estate and to status 'available'. It may return fewer plots than
// requested; the caller must treat a partial match as failure.
func (s *Store) LockAvailable(ctx context.Context, estateID uuid.UUID, plotIDs []int64) ([]models.Plot, error) {
	var plots []models.Plot
	err := storage.DB(ctx, s.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("estate_id = ? AND id IN ? AND status = ?", estateID, plotIDs, models.PlotAvailable).
		Find(&plots).Error
	if err != nil {
		return nil, err
	}
	return plots, nil
}

// ListAvailable is the lock-free variant used by previews.
func (s *Store) ListAvailable(ctx context.Context, estateID uuid.UUID, plotIDs []int64) ([]models.Plot, error) {
	var plots []models.Plot
	err := storage.DB(ctx, s.db).
		Where("estate_id = ? AND id IN ? AND status = ?", estateID, plotIDs, models.PlotAvailable).
		Find(&plots).Error
	if err != nil {
		return nil, err
	}
	return plots, nil
}

// LockPlots locks the given plots regardless of status. The finalizer uses
// it to guard the sold transition against a racing confirmation.
func (s *Store) LockPlots(ctx context.Context, plotIDs []int64) ([]models.Plot, error) {
	var plots []models.Plot
	err := storage.DB(ctx, s.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", plotIDs).
		Find(&plots).Error
	if err != nil {
		return nil, err
	}
	return plots, nil
}

// MarkReserved parks the given plots while their purchase awaits payment
// confirmation.
func (s *Store) MarkReserved(ctx context.Context, plotIDs []int64) error {
	return s.setStatus(ctx, plotIDs, models.PlotReserved)
}

// MarkSold flips the given plots to 'sold'. Idempotent.
func (s *Store) MarkSold(ctx context.Context, plotIDs []int64) error {
	return s.setStatus(ctx, plotIDs, models.PlotSold)
}

// MarkAvailable returns the given plots to 'available'. Idempotent; used by
// failure paths so plots never stay stuck behind a dead purchase.
func (s *Store) MarkAvailable(ctx context.Context, plotIDs []int64) error {
	return s.setStatus(ctx, plotIDs, models.PlotAvailable)
}

// MarkAllocated records an administrative allocation.
func (s *Store) MarkAllocated(ctx context.Context, plotIDs []int64) error {
	return s.setStatus(ctx, plotIDs, models.PlotAllocated)
}

func (s *Store) setStatus(ctx context.Context, plotIDs []int64, status models.PlotStatus) error {
	if len(plotIDs) == 0 {
		return nil
	}
	return storage.DB(ctx, s.db).
		Model(&models.Plot{}).
		Where("id IN ?", plotIDs).
		Update("status", status).Error
}

// CountAvailable reports how many plots an estate still has on offer.
func (s *Store) CountAvailable(ctx context.Context, estateID uuid.UUID) (int64, error) {
	var count int64
	err := storage.DB(ctx, s.db).
		Model(&models.Plot{}).
		Where("estate_id = ? AND status = ?", estateID, models.PlotAvailable).
		Count(&count).Error
	return count, err
}
