package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/obiefule/estateflow/internal/models"
	"github.com/obiefule/estateflow/internal/storage"
)

// ErrDuplicateReference is returned when a purchase insert collides with an
// existing payment reference. Callers retry with a fresh reference.
var ErrDuplicateReference = errors.New("payment reference already exists")

type PurchaseRepository interface {
	Create(ctx context.Context, purchase *models.Purchase) error
	GetByReference(ctx context.Context, reference string) (*models.Purchase, error)
	GetByReferenceForUpdate(ctx context.Context, reference string) (*models.Purchase, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus, receipt datatypes.JSON) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error)
}

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) Create(ctx context.Context, purchase *models.Purchase) error {
	if err := storage.DB(ctx, r.db).Create(purchase).Error; err != nil {
		if storage.IsUniqueViolation(err) {
			return ErrDuplicateReference
		}
		return err
	}
	return nil
}

func (r *purchaseRepository) GetByReference(ctx context.Context, reference string) (*models.Purchase, error) {
	return r.getByReference(ctx, reference, false)
}

// GetByReferenceForUpdate locks the purchase row so a racing confirmation
// serializes on it.
func (r *purchaseRepository) GetByReferenceForUpdate(ctx context.Context, reference string) (*models.Purchase, error) {
	return r.getByReference(ctx, reference, true)
}

func (r *purchaseRepository) getByReference(ctx context.Context, reference string, forUpdate bool) (*models.Purchase, error) {
	tx := storage.DB(ctx, r.db)
	if forUpdate {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var purchase models.Purchase
	err := tx.First(&purchase, "reference = ?", reference).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus, receipt datatypes.JSON) error {
	updates := map[string]interface{}{"payment_status": status}
	if receipt != nil {
		updates["receipt"] = receipt
	}
	return storage.DB(ctx, r.db).
		Model(&models.Purchase{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *purchaseRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := storage.DB(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&purchases).Error
	if err != nil {
		return nil, err
	}
	return purchases, nil
}
