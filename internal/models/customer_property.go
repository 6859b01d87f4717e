package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PropertyPaymentStatus string

const (
	PropertyOutstanding PropertyPaymentStatus = "outstanding"
	PropertyFullyPaid   PropertyPaymentStatus = "fully_paid"
	PropertyFailed      PropertyPaymentStatus = "failed"
)

type AcquisitionStatus string

const (
	AcquisitionHeld        AcquisitionStatus = "held"
	AcquisitionReleased    AcquisitionStatus = "released"
	AcquisitionTransferred AcquisitionStatus = "transferred"
)

// CustomerProperty is the durable ownership record created once a purchase
// is confirmed. The unique index on PurchaseID guarantees at most one
// property per purchase even if a confirmation races itself.
type CustomerProperty struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID            uuid.UUID `gorm:"type:uuid;not null;index"`
	User              User
	EstateID          uuid.UUID `gorm:"type:uuid;not null;index"`
	Estate            Estate
	PurchaseID        *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	Purchase          *Purchase
	PlotIDs           PlotIDs `gorm:"type:jsonb;not null"`
	TotalPrice        int64   `gorm:"not null"`
	InstallmentMonths int     `gorm:"not null"`
	// AmountPaid is maintained by the payment ledger; zero until one is wired in.
	AmountPaid        int64                 `gorm:"not null;default:0"`
	PaymentStatus     PropertyPaymentStatus `gorm:"not null;index"`
	AcquisitionStatus AcquisitionStatus     `gorm:"not null;default:'held'"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         gorm.DeletedAt `gorm:"index"`
}

func (property *CustomerProperty) BeforeCreate(tx *gorm.DB) (err error) {
	if property.ID == uuid.Nil {
		property.ID = uuid.New()
	}
	return
}

// Outstanding is the balance still owed on the property.
func (property *CustomerProperty) Outstanding() int64 {
	if property.PaymentStatus != PropertyOutstanding {
		return 0
	}
	if remaining := property.TotalPrice - property.AmountPaid; remaining > 0 {
		return remaining
	}
	return 0
}
