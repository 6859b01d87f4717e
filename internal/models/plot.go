package models

import (
	"time"

	"github.com/google/uuid"
)

type PlotStatus string

const (
	PlotAvailable PlotStatus = "available"
	// PlotReserved is the internal state while a purchase awaits payment
	// confirmation; reserved plots are not offered to other buyers.
	PlotReserved  PlotStatus = "reserved"
	PlotAllocated PlotStatus = "allocated"
	PlotSold      PlotStatus = "sold"
)

// Plot is an individually sellable subdivision of an estate. Plots are
// created in bulk when the estate is set up; only the inventory store
// mutates their status afterwards.
type Plot struct {
	ID         int64      `gorm:"primaryKey;autoIncrement"`
	EstateID   uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_estate_plot_number"`
	Estate     Estate     `gorm:"foreignKey:EstateID"`
	Number     int        `gorm:"not null;uniqueIndex:idx_estate_plot_number"`
	Coordinate string     `gorm:"not null"`
	Status     PlotStatus `gorm:"not null;default:'available';index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
