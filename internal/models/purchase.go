package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Purchase is one checkout attempt. Pricing fields are snapshotted at
// creation and never recomputed; the payment status moves from pending to
// paid or failed exactly once.
type Purchase struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID            uuid.UUID `gorm:"type:uuid;not null;index"`
	User              User
	EstateID          uuid.UUID `gorm:"type:uuid;not null;index"`
	Estate            Estate
	PlotIDs           PlotIDs             `gorm:"type:jsonb;not null"`
	TotalPrice        int64               `gorm:"not null"`
	InstallmentMonths int                 `gorm:"not null"`
	MonthlyPayment    int64               `gorm:"not null"`
	Schedule          InstallmentSchedule `gorm:"type:jsonb;not null"`
	Reference         string              `gorm:"not null;uniqueIndex"`
	PaymentLink       string
	PaymentStatus     PaymentStatus  `gorm:"not null;default:'pending';index"`
	Receipt           datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         gorm.DeletedAt `gorm:"index"`
}

func (purchase *Purchase) BeforeCreate(tx *gorm.DB) (err error) {
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	return
}
