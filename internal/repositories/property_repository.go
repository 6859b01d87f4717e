package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/obiefule/estateflow/internal/models"
	"github.com/obiefule/estateflow/internal/storage"
)

// ErrPropertyExists is returned when a second ownership record is attempted
// for the same purchase.
var ErrPropertyExists = errors.New("property already recorded for purchase")

type PropertyRepository interface {
	Create(ctx context.Context, property *models.CustomerProperty) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CustomerProperty, error)
	GetByPurchaseID(ctx context.Context, purchaseID uuid.UUID) (*models.CustomerProperty, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CustomerProperty, error)
}

type propertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

func (r *propertyRepository) Create(ctx context.Context, property *models.CustomerProperty) error {
	if err := storage.DB(ctx, r.db).Create(property).Error; err != nil {
		if storage.IsUniqueViolation(err) {
			return ErrPropertyExists
		}
		return err
	}
	return nil
}

func (r *propertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CustomerProperty, error) {
	var property models.CustomerProperty
	err := storage.DB(ctx, r.db).Preload("Estate").First(&property, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &property, nil
}

func (r *propertyRepository) GetByPurchaseID(ctx context.Context, purchaseID uuid.UUID) (*models.CustomerProperty, error) {
	var property models.CustomerProperty
	err := storage.DB(ctx, r.db).First(&property, "purchase_id = ?", purchaseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &property, nil
}

func (r *propertyRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CustomerProperty, error) {
	var properties []models.CustomerProperty
	err := storage.DB(ctx, r.db).
		Preload("Estate").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&properties).Error
	if err != nil {
		return nil, err
	}
	return properties, nil
}
