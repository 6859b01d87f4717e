package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/obiefule/estateflow/internal/events"
	"github.com/obiefule/estateflow/internal/gateway"
	"github.com/obiefule/estateflow/internal/models"
	"github.com/obiefule/estateflow/internal/pricing"
	"github.com/obiefule/estateflow/internal/repositories"
)

// InventoryStore is the slice of the inventory contract the purchase flow
// needs. Satisfied by inventory.Store.
type InventoryStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockAvailable(ctx context.Context, estateID uuid.UUID, plotIDs []int64) ([]models.Plot, error)
	ListAvailable(ctx context.Context, estateID uuid.UUID, plotIDs []int64) ([]models.Plot, error)
	LockPlots(ctx context.Context, plotIDs []int64) ([]models.Plot, error)
	MarkReserved(ctx context.Context, plotIDs []int64) error
	MarkSold(ctx context.Context, plotIDs []int64) error
	MarkAvailable(ctx context.Context, plotIDs []int64) error
	MarkAllocated(ctx context.Context, plotIDs []int64) error
}

// Orchestrator drives a purchase attempt from validation through the
// persisted pending purchase. All collaborators are injected; it owns
// plot locking and Purchase creation exclusively.
type Orchestrator struct {
	inventory   InventoryStore
	estates     repositories.EstateRepository
	purchases   repositories.PurchaseRepository
	directory   repositories.UserDirectory
	gateway     gateway.Client
	publisher   events.Publisher
	callbackURL string
	now         func() time.Time
}

func NewOrchestrator(
	inv InventoryStore,
	estates repositories.EstateRepository,
	purchases repositories.PurchaseRepository,
	directory repositories.UserDirectory,
	gw gateway.Client,
	publisher events.Publisher,
	callbackURL string,
) *Orchestrator {
	if publisher == nil {
		publisher = events.Nop()
	}
	return &Orchestrator{
		inventory:   inv,
		estates:     estates,
		purchases:   purchases,
		directory:   directory,
		gateway:     gw,
		publisher:   publisher,
		callbackURL: callbackURL,
		now:         time.Now,
	}
}

// PreviewResult is the read-only pricing view returned before a purchase.
type PreviewResult struct {
	Estate *models.Estate
	Plots  []models.Plot
	Quote  *pricing.Quote
}

// Preview validates availability and prices the request without locking or
// mutating anything.
func (o *Orchestrator) Preview(ctx context.Context, estateID uuid.UUID, plotIDs []int64, months int) (*PreviewResult, error) {
	estate, err := o.estates.GetByID(ctx, estateID)
	if err != nil {
		return nil, err
	}
	if estate == nil {
		return nil, ErrEstateNotFound
	}

	plotIDs = dedupe(plotIDs)
	quote, err := pricing.Compute(pricing.TermsFor(estate), len(plotIDs), months, o.now())
	if err != nil {
		return nil, err
	}

	plots, err := o.inventory.ListAvailable(ctx, estateID, plotIDs)
	if err != nil {
		return nil, err
	}
	if missing := missingIDs(plotIDs, plots); len(missing) > 0 {
		return nil, &UnavailablePlotsError{PlotIDs: missing}
	}

	return &PreviewResult{Estate: estate, Plots: plots, Quote: quote}, nil
}

// Finalize runs the purchase state machine: lock plots, price, initialize
// the gateway payment, persist the pending purchase. Lock through commit is
// one transaction; the gateway call happens inside it so a gateway failure
// rolls everything back and the plots stay available.
func (o *Orchestrator) Finalize(ctx context.Context, userID, estateID uuid.UUID, plotIDs []int64, months int) (*models.Purchase, error) {
	estate, err := o.estates.GetByID(ctx, estateID)
	if err != nil {
		return nil, err
	}
	if estate == nil {
		return nil, ErrEstateNotFound
	}

	plotIDs = dedupe(plotIDs)
	if _, err := pricing.Compute(pricing.TermsFor(estate), len(plotIDs), months, o.now()); err != nil {
		return nil, err
	}

	email, err := o.directory.Email(ctx, userID)
	if err != nil {
		return nil, err
	}

	var purchase *models.Purchase
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		purchase, err = o.attempt(ctx, userID, estate, plotIDs, months, email, newReference(paymentReferencePrefix))
		if errors.Is(err, repositories.ErrDuplicateReference) {
			continue
		}
		break
	}
	if err != nil {
		return nil, err
	}

	go o.publisher.Publish(events.TopicPurchaseInitiated, map[string]interface{}{
		"reference":   purchase.Reference,
		"user_id":     purchase.UserID.String(),
		"estate_id":   purchase.EstateID.String(),
		"plot_ids":    purchase.PlotIDs,
		"total_price": purchase.TotalPrice,
	})

	return purchase, nil
}

func (o *Orchestrator) attempt(ctx context.Context, userID uuid.UUID, estate *models.Estate, plotIDs []int64, months int, email, reference string) (*models.Purchase, error) {
	var purchase *models.Purchase

	err := o.inventory.WithTx(ctx, func(txCtx context.Context) error {
		plots, err := o.inventory.LockAvailable(txCtx, estate.ID, plotIDs)
		if err != nil {
			return err
		}
		if missing := missingIDs(plotIDs, plots); len(missing) > 0 {
			return &UnavailablePlotsError{PlotIDs: missing}
		}

		quote, err := pricing.Compute(pricing.TermsFor(estate), len(plotIDs), months, o.now())
		if err != nil {
			return err
		}

		init, err := o.gateway.Initialize(txCtx, gateway.InitializeRequest{
			Email:       email,
			Amount:      quote.MonthlyPayment,
			Reference:   reference,
			CallbackURL: o.callbackURL,
			Metadata: map[string]interface{}{
				"estate_id":          estate.ID.String(),
				"plot_ids":           plotIDs,
				"installment_months": months,
			},
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrGateway, err)
		}

		purchase = &models.Purchase{
			UserID:            userID,
			EstateID:          estate.ID,
			PlotIDs:           models.PlotIDs(plotIDs),
			TotalPrice:        quote.TotalPrice,
			InstallmentMonths: quote.InstallmentMonths,
			MonthlyPayment:    quote.MonthlyPayment,
			Schedule:          quote.Schedule,
			Reference:         reference,
			PaymentLink:       init.AuthorizationURL,
			PaymentStatus:     models.PaymentPending,
		}
		if err := o.purchases.Create(txCtx, purchase); err != nil {
			return err
		}
		// Reserving the plots closes the pending-payment window to other
		// buyers; confirmation moves them to sold or back to available.
		return o.inventory.MarkReserved(txCtx, plotIDs)
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

// History lists a customer's purchases, newest first.
func (o *Orchestrator) History(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error) {
	return o.purchases.ListByUser(ctx, userID)
}

// dedupe keeps the first occurrence of each plot id, preserving order.
func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// missingIDs returns the requested ids that are absent from plots.
func missingIDs(requested []int64, plots []models.Plot) []int64 {
	found := make(map[int64]struct{}, len(plots))
	for _, p := range plots {
		found[p.ID] = struct{}{}
	}
	var missing []int64
	for _, id := range requested {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
