package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/obiefule/estateflow/internal/models"
	"github.com/obiefule/estateflow/internal/storage"
)

type EstateRepository interface {
	Create(ctx context.Context, estate *models.Estate) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Estate, error)
	List(ctx context.Context) ([]models.Estate, error)
}

type estateRepository struct {
	db *gorm.DB
}

func NewEstateRepository(db *gorm.DB) EstateRepository {
	return &estateRepository{db: db}
}

func (r *estateRepository) Create(ctx context.Context, estate *models.Estate) error {
	return storage.DB(ctx, r.db).Create(estate).Error
}

func (r *estateRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Estate, error) {
	var estate models.Estate
	err := storage.DB(ctx, r.db).First(&estate, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &estate, nil
}

func (r *estateRepository) List(ctx context.Context) ([]models.Estate, error) {
	var estates []models.Estate
	if err := storage.DB(ctx, r.db).Order("created_at DESC").Find(&estates).Error; err != nil {
		return nil, err
	}
	return estates, nil
}
