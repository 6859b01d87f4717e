package metrics

import (
	"context"

	"github.com/google/uuid"

	"github.com/obiefule/estateflow/internal/models"
	"github.com/obiefule/estateflow/internal/repositories"
)

// CustomerMetrics is the aggregate view of everything a customer owns and
// still owes.
type CustomerMetrics struct {
	PurchasedCount   int   `json:"purchased_count"`
	HeldCount        int   `json:"held_count"`
	TotalOutstanding int64 `json:"total_outstanding"`
}

// PropertyGroups buckets a customer's properties by payment progress.
type PropertyGroups struct {
	FullyPaid   []models.CustomerProperty `json:"fully_paid"`
	Outstanding []models.CustomerProperty `json:"outstanding"`
	Held        []models.CustomerProperty `json:"held"`
}

// Reporter derives customer views from persisted purchase state. Read-only
// and safe to call concurrently with anything.
type Reporter interface {
	CustomerMetrics(ctx context.Context, userID uuid.UUID) (*CustomerMetrics, error)
	CustomerProperties(ctx context.Context, userID uuid.UUID) (*PropertyGroups, error)
}

type reporter struct {
	properties repositories.PropertyRepository
}

func NewReporter(properties repositories.PropertyRepository) Reporter {
	return &reporter{properties: properties}
}

func (r *reporter) CustomerMetrics(ctx context.Context, userID uuid.UUID) (*CustomerMetrics, error) {
	properties, err := r.properties.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	m := &CustomerMetrics{}
	for _, p := range properties {
		if p.PaymentStatus == models.PropertyFailed {
			continue
		}
		m.PurchasedCount++
		if p.AcquisitionStatus == models.AcquisitionHeld {
			m.HeldCount++
		}
		m.TotalOutstanding += p.Outstanding()
	}
	return m, nil
}

func (r *reporter) CustomerProperties(ctx context.Context, userID uuid.UUID) (*PropertyGroups, error) {
	properties, err := r.properties.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	groups := &PropertyGroups{
		FullyPaid:   []models.CustomerProperty{},
		Outstanding: []models.CustomerProperty{},
		Held:        []models.CustomerProperty{},
	}
	for _, p := range properties {
		switch p.PaymentStatus {
		case models.PropertyFullyPaid:
			groups.FullyPaid = append(groups.FullyPaid, p)
		case models.PropertyOutstanding:
			groups.Outstanding = append(groups.Outstanding, p)
		}
		if p.AcquisitionStatus == models.AcquisitionHeld && p.PaymentStatus != models.PropertyFailed {
			groups.Held = append(groups.Held, p)
		}
	}
	return groups, nil
}
