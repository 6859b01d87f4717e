package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Estate struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	Name        string    `gorm:"not null"`
	Location    string    `gorm:"not null"`
	Description string
	// PlotPrice and PromoPrice are per plot, in minor currency units.
	PlotPrice  int64  `gorm:"not null"`
	PromoPrice *int64 `gorm:""`
	Plots      []Plot
	UserID     uuid.UUID
	User       User
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (estate *Estate) BeforeCreate(tx *gorm.DB) (err error) {
	if estate.ID == uuid.Nil {
		estate.ID = uuid.New()
	}
	return
}

// EffectivePlotPrice is the promotion price when one is set and undercuts
// the base price, otherwise the base price.
func (estate *Estate) EffectivePlotPrice() int64 {
	if estate.PromoPrice != nil && *estate.PromoPrice < estate.PlotPrice {
		return *estate.PromoPrice
	}
	return estate.PlotPrice
}
