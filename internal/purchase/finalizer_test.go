package purchase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obiefule/estateflow/internal/models"
)

func TestConfirm(t *testing.T) {
	ctx := context.Background()

	pendingPurchase := func(t *testing.T, w *world, plotIDs []int64, months int) *models.Purchase {
		t.Helper()
		p, err := w.orchestrator().Finalize(ctx, uuid.New(), w.estate.ID, plotIDs, months)
		require.NoError(t, err)
		return p
	}

	t.Run("successful payment sells plots and records ownership", func(t *testing.T) {
		w := newWorld(2)
		p := pendingPurchase(t, w, []int64{1, 2}, 2)

		confirmed, err := w.finalizer().Confirm(ctx, p.Reference)
		require.NoError(t, err)

		assert.Equal(t, models.PaymentPaid, confirmed.PaymentStatus)
		assert.Equal(t, models.PlotSold, w.inventory.status(1))
		assert.Equal(t, models.PlotSold, w.inventory.status(2))

		require.Equal(t, 1, w.properties.count())
		property, err := w.properties.GetByPurchaseID(ctx, confirmed.ID)
		require.NoError(t, err)
		require.NotNil(t, property)
		assert.Equal(t, models.PropertyOutstanding, property.PaymentStatus, "multi-month purchase starts outstanding")
		assert.Equal(t, models.AcquisitionHeld, property.AcquisitionStatus)
		assert.Equal(t, models.PlotIDs{1, 2}, property.PlotIDs)
		assert.Equal(t, p.TotalPrice, property.TotalPrice)
	})

	t.Run("single installment is fully paid", func(t *testing.T) {
		w := newWorld(1)
		p := pendingPurchase(t, w, []int64{1}, 1)

		confirmed, err := w.finalizer().Confirm(ctx, p.Reference)
		require.NoError(t, err)

		property, err := w.properties.GetByPurchaseID(ctx, confirmed.ID)
		require.NoError(t, err)
		require.NotNil(t, property)
		assert.Equal(t, models.PropertyFullyPaid, property.PaymentStatus)
	})

	t.Run("failed payment releases plots", func(t *testing.T) {
		w := newWorld(2)
		p := pendingPurchase(t, w, []int64{1, 2}, 1)
		w.gateway.verifyStatus = "abandoned"

		confirmed, err := w.finalizer().Confirm(ctx, p.Reference)
		require.NoError(t, err)

		assert.Equal(t, models.PaymentFailed, confirmed.PaymentStatus)
		assert.Equal(t, models.PlotAvailable, w.inventory.status(1))
		assert.Equal(t, models.PlotAvailable, w.inventory.status(2))
		assert.Zero(t, w.properties.count())

		// The freed plots can be bought again.
		_, err = w.orchestrator().Finalize(ctx, uuid.New(), w.estate.ID, []int64{1, 2}, 1)
		assert.NoError(t, err)
	})

	t.Run("confirm is idempotent", func(t *testing.T) {
		w := newWorld(1)
		p := pendingPurchase(t, w, []int64{1}, 1)
		fin := w.finalizer()

		first, err := fin.Confirm(ctx, p.Reference)
		require.NoError(t, err)
		second, err := fin.Confirm(ctx, p.Reference)
		require.NoError(t, err)

		assert.Equal(t, first.PaymentStatus, second.PaymentStatus)
		assert.Equal(t, 1, w.properties.count(), "no second ownership record")
		assert.Equal(t, 1, w.gateway.verifyCalls, "settled reference is not re-verified")
		assert.Equal(t, models.PlotSold, w.inventory.status(1))
	})

	t.Run("unknown reference", func(t *testing.T) {
		w := newWorld(1)
		_, err := w.finalizer().Confirm(ctx, "EST-doesnotexist")
		assert.ErrorIs(t, err, ErrPurchaseNotFound)
	})

	t.Run("verification failure aborts without side effects", func(t *testing.T) {
		w := newWorld(1)
		p := pendingPurchase(t, w, []int64{1}, 1)
		w.gateway.verifyErr = errors.New("connect timeout")

		_, err := w.finalizer().Confirm(ctx, p.Reference)
		assert.ErrorIs(t, err, ErrGateway)
		assert.Equal(t, models.PlotReserved, w.inventory.status(1))
		assert.Zero(t, w.properties.count())
	})

	t.Run("refuses to sell a plot twice", func(t *testing.T) {
		w := newWorld(1)
		p := pendingPurchase(t, w, []int64{1}, 1)

		// Another flow already sold the plot out from under the purchase.
		require.NoError(t, w.inventory.MarkSold(ctx, []int64{1}))

		_, err := w.finalizer().Confirm(ctx, p.Reference)
		assert.ErrorIs(t, err, ErrPlotAlreadySold)
		assert.Zero(t, w.properties.count())

		stored, err := w.purchases.GetByReference(ctx, p.Reference)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentPending, stored.PaymentStatus, "left pending for reconciliation")
	})
}

func TestAllocate(t *testing.T) {
	ctx := context.Background()

	t.Run("allocates without the gateway", func(t *testing.T) {
		w := newWorld(2)
		property, err := w.finalizer().Allocate(ctx, AllocateInput{
			UserID:            uuid.New(),
			EstateID:          w.estate.ID,
			PlotIDs:           []int64{1, 2},
			InstallmentMonths: 6,
			PaymentStatus:     models.PropertyOutstanding,
		})
		require.NoError(t, err)

		assert.Equal(t, models.PropertyOutstanding, property.PaymentStatus)
		assert.Equal(t, models.AcquisitionHeld, property.AcquisitionStatus)
		assert.Equal(t, int64(2_000_000), property.TotalPrice)
		assert.Equal(t, models.PlotAllocated, w.inventory.status(1))
		assert.Zero(t, w.gateway.initCalls)
		assert.Equal(t, 1, w.purchases.count(), "allocation records a purchase")
	})

	t.Run("price override wins", func(t *testing.T) {
		w := newWorld(1)
		override := int64(350_000)
		property, err := w.finalizer().Allocate(ctx, AllocateInput{
			UserID:        uuid.New(),
			EstateID:      w.estate.ID,
			PlotIDs:       []int64{1},
			PaymentStatus: models.PropertyFullyPaid,
			TotalPrice:    &override,
		})
		require.NoError(t, err)
		assert.Equal(t, override, property.TotalPrice)
	})

	t.Run("override respreads the installment schedule", func(t *testing.T) {
		w := newWorld(1)
		userID := uuid.New()
		override := int64(350_000)
		_, err := w.finalizer().Allocate(ctx, AllocateInput{
			UserID:            userID,
			EstateID:          w.estate.ID,
			PlotIDs:           []int64{1},
			InstallmentMonths: 4,
			PaymentStatus:     models.PropertyOutstanding,
			TotalPrice:        &override,
		})
		require.NoError(t, err)

		purchases, err := w.purchases.ListByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, purchases, 1)
		stored := purchases[0]

		assert.Equal(t, override, stored.TotalPrice)
		assert.Equal(t, int64(87_500), stored.MonthlyPayment)
		require.Len(t, stored.Schedule, 4)
		var sum int64
		for _, inst := range stored.Schedule {
			sum += inst.Amount
		}
		assert.Equal(t, stored.TotalPrice, sum, "schedule must sum to the stored total")
	})

	t.Run("enforces inventory exclusivity", func(t *testing.T) {
		w := newWorld(2)
		_, err := w.orchestrator().Finalize(ctx, uuid.New(), w.estate.ID, []int64{1}, 1)
		require.NoError(t, err)

		_, err = w.finalizer().Allocate(ctx, AllocateInput{
			UserID:        uuid.New(),
			EstateID:      w.estate.ID,
			PlotIDs:       []int64{1, 2},
			PaymentStatus: models.PropertyFullyPaid,
		})

		var unavailable *UnavailablePlotsError
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, []int64{1}, unavailable.PlotIDs)
		assert.Equal(t, models.PlotAvailable, w.inventory.status(2), "nothing committed")
	})

	t.Run("rejects bad payment status", func(t *testing.T) {
		w := newWorld(1)
		_, err := w.finalizer().Allocate(ctx, AllocateInput{
			UserID:        uuid.New(),
			EstateID:      w.estate.ID,
			PlotIDs:       []int64{1},
			PaymentStatus: "refunded",
		})
		assert.ErrorIs(t, err, ErrInvalidPaymentStatus)
	})

	t.Run("unknown estate", func(t *testing.T) {
		w := newWorld(1)
		_, err := w.finalizer().Allocate(ctx, AllocateInput{
			UserID:        uuid.New(),
			EstateID:      uuid.New(),
			PlotIDs:       []int64{1},
			PaymentStatus: models.PropertyFullyPaid,
		})
		assert.ErrorIs(t, err, ErrEstateNotFound)
	})
}
