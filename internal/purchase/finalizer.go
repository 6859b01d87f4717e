package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/obiefule/estateflow/internal/events"
	"github.com/obiefule/estateflow/internal/gateway"
	"github.com/obiefule/estateflow/internal/models"
	"github.com/obiefule/estateflow/internal/pricing"
	"github.com/obiefule/estateflow/internal/repositories"
)

// Finalizer owns the pending -> paid/failed transition and the creation of
// CustomerProperty records. Nothing else writes either.
type Finalizer struct {
	inventory  InventoryStore
	estates    repositories.EstateRepository
	purchases  repositories.PurchaseRepository
	properties repositories.PropertyRepository
	gateway    gateway.Client
	publisher  events.Publisher
	now        func() time.Time
}

func NewFinalizer(
	inv InventoryStore,
	estates repositories.EstateRepository,
	purchases repositories.PurchaseRepository,
	properties repositories.PropertyRepository,
	gw gateway.Client,
	publisher events.Publisher,
) *Finalizer {
	if publisher == nil {
		publisher = events.Nop()
	}
	return &Finalizer{
		inventory:  inv,
		estates:    estates,
		purchases:  purchases,
		properties: properties,
		gateway:    gw,
		publisher:  publisher,
		now:        time.Now,
	}
}

// Confirm verifies the gateway status for a reference and settles the
// purchase. Calling it again for a settled reference is a no-op returning
// the current state, which makes it safe for webhook retries and for the
// reconciliation job replaying stale references.
func (f *Finalizer) Confirm(ctx context.Context, reference string) (*models.Purchase, error) {
	existing, err := f.purchases.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrPurchaseNotFound
	}
	if existing.PaymentStatus != models.PaymentPending {
		return existing, nil
	}

	verified, err := f.gateway.Verify(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	var result *models.Purchase
	err = f.inventory.WithTx(ctx, func(txCtx context.Context) error {
		locked, err := f.purchases.GetByReferenceForUpdate(txCtx, reference)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrPurchaseNotFound
		}
		// Re-check under the row lock: a concurrent confirmation may have
		// settled the purchase between the first read and here.
		if locked.PaymentStatus != models.PaymentPending {
			result = locked
			return nil
		}

		if verified.Success {
			if err := f.settlePaid(txCtx, locked, verified.Raw); err != nil {
				return err
			}
		} else {
			if err := f.settleFailed(txCtx, locked, verified.Raw); err != nil {
				return err
			}
		}
		result = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	go f.publisher.Publish(events.TopicPurchaseConfirmed, map[string]interface{}{
		"reference": result.Reference,
		"user_id":   result.UserID.String(),
		"status":    string(result.PaymentStatus),
	})

	return result, nil
}

func (f *Finalizer) settlePaid(ctx context.Context, p *models.Purchase, receipt []byte) error {
	plots, err := f.inventory.LockPlots(ctx, p.PlotIDs)
	if err != nil {
		return err
	}
	for _, plot := range plots {
		if plot.Status == models.PlotSold {
			return fmt.Errorf("%w: plot %d, reference %s", ErrPlotAlreadySold, plot.ID, p.Reference)
		}
	}

	if err := f.inventory.MarkSold(ctx, p.PlotIDs); err != nil {
		return err
	}

	paymentStatus := models.PropertyOutstanding
	if p.InstallmentMonths <= 1 {
		paymentStatus = models.PropertyFullyPaid
	}
	property := &models.CustomerProperty{
		UserID:            p.UserID,
		EstateID:          p.EstateID,
		PurchaseID:        &p.ID,
		PlotIDs:           p.PlotIDs,
		TotalPrice:        p.TotalPrice,
		InstallmentMonths: p.InstallmentMonths,
		PaymentStatus:     paymentStatus,
		AcquisitionStatus: models.AcquisitionHeld,
	}
	if err := f.properties.Create(ctx, property); err != nil {
		return err
	}

	if err := f.purchases.SetStatus(ctx, p.ID, models.PaymentPaid, datatypes.JSON(receipt)); err != nil {
		return err
	}
	p.PaymentStatus = models.PaymentPaid
	p.Receipt = datatypes.JSON(receipt)
	return nil
}

func (f *Finalizer) settleFailed(ctx context.Context, p *models.Purchase, receipt []byte) error {
	if err := f.purchases.SetStatus(ctx, p.ID, models.PaymentFailed, datatypes.JSON(receipt)); err != nil {
		return err
	}
	// Failed payments release the plots for other buyers.
	if err := f.inventory.MarkAvailable(ctx, p.PlotIDs); err != nil {
		return err
	}
	p.PaymentStatus = models.PaymentFailed
	p.Receipt = datatypes.JSON(receipt)
	return nil
}

// AllocateInput is an administrative direct allocation: same inventory
// exclusivity as a purchase, no gateway involved.
type AllocateInput struct {
	UserID            uuid.UUID
	EstateID          uuid.UUID
	PlotIDs           []int64
	TotalPrice        *int64
	InstallmentMonths int
	PaymentStatus     models.PropertyPaymentStatus
	AcquisitionStatus models.AcquisitionStatus
}

// Allocate assigns plots to a customer directly, bypassing the gateway.
func (f *Finalizer) Allocate(ctx context.Context, in AllocateInput) (*models.CustomerProperty, error) {
	switch in.PaymentStatus {
	case models.PropertyOutstanding, models.PropertyFullyPaid:
	default:
		return nil, ErrInvalidPaymentStatus
	}
	if in.AcquisitionStatus == "" {
		in.AcquisitionStatus = models.AcquisitionHeld
	}
	if in.InstallmentMonths == 0 {
		in.InstallmentMonths = 1
	}

	estate, err := f.estates.GetByID(ctx, in.EstateID)
	if err != nil {
		return nil, err
	}
	if estate == nil {
		return nil, ErrEstateNotFound
	}

	plotIDs := dedupe(in.PlotIDs)
	quote, err := pricing.Compute(pricing.TermsFor(estate), len(plotIDs), in.InstallmentMonths, f.now())
	if err != nil {
		return nil, err
	}
	total := quote.TotalPrice
	monthly := quote.MonthlyPayment
	schedule := quote.Schedule
	if in.TotalPrice != nil {
		// An overridden price gets its own installment spread; the stored
		// schedule must always sum to the stored total.
		total = *in.TotalPrice
		monthly, schedule, err = pricing.Spread(total, in.InstallmentMonths, f.now())
		if err != nil {
			return nil, err
		}
	}

	var property *models.CustomerProperty
	allocate := func(reference string) error {
		return f.inventory.WithTx(ctx, func(txCtx context.Context) error {
			plots, err := f.inventory.LockAvailable(txCtx, estate.ID, plotIDs)
			if err != nil {
				return err
			}
			if missing := missingIDs(plotIDs, plots); len(missing) > 0 {
				return &UnavailablePlotsError{PlotIDs: missing}
			}

			p := &models.Purchase{
				UserID:            in.UserID,
				EstateID:          estate.ID,
				PlotIDs:           models.PlotIDs(plotIDs),
				TotalPrice:        total,
				InstallmentMonths: in.InstallmentMonths,
				MonthlyPayment:    monthly,
				Schedule:          schedule,
				Reference:         reference,
				PaymentStatus:     models.PaymentPaid,
			}
			if err := f.purchases.Create(txCtx, p); err != nil {
				return err
			}

			if err := f.inventory.MarkAllocated(txCtx, plotIDs); err != nil {
				return err
			}

			property = &models.CustomerProperty{
				UserID:            in.UserID,
				EstateID:          estate.ID,
				PurchaseID:        &p.ID,
				PlotIDs:           models.PlotIDs(plotIDs),
				TotalPrice:        total,
				InstallmentMonths: in.InstallmentMonths,
				PaymentStatus:     in.PaymentStatus,
				AcquisitionStatus: in.AcquisitionStatus,
			}
			return f.properties.Create(txCtx, property)
		})
	}

	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		err = allocate(newReference(allocationReferencePrefix))
		if errors.Is(err, repositories.ErrDuplicateReference) {
			continue
		}
		break
	}
	if err != nil {
		return nil, err
	}

	go f.publisher.Publish(events.TopicPropertyAllocated, map[string]interface{}{
		"user_id":   in.UserID.String(),
		"estate_id": estate.ID.String(),
		"plot_ids":  plotIDs,
	})

	return property, nil
}
