package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/obiefule/estateflow/internal/models"
	"github.com/obiefule/estateflow/internal/storage"
)

// UserDirectory is the narrow read contract the purchase flow has on the
// user subsystem: resolve an id to the email the gateway is invoked with.
type UserDirectory interface {
	Email(ctx context.Context, userID uuid.UUID) (string, error)
}

type userDirectory struct {
	db *gorm.DB
}

func NewUserDirectory(db *gorm.DB) UserDirectory {
	return &userDirectory{db: db}
}

func (r *userDirectory) Email(ctx context.Context, userID uuid.UUID) (string, error) {
	var user models.User
	err := storage.DB(ctx, r.db).Select("email").First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("user %s not found", userID)
		}
		return "", err
	}
	return user.Email, nil
}
