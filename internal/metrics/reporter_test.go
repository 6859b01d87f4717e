package metrics

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obiefule/estateflow/internal/models"
)

type fakePropertyRepo struct {
	properties []models.CustomerProperty
}

func (f *fakePropertyRepo) Create(ctx context.Context, p *models.CustomerProperty) error {
	f.properties = append(f.properties, *p)
	return nil
}

func (f *fakePropertyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.CustomerProperty, error) {
	for i := range f.properties {
		if f.properties[i].ID == id {
			return &f.properties[i], nil
		}
	}
	return nil, nil
}

func (f *fakePropertyRepo) GetByPurchaseID(ctx context.Context, purchaseID uuid.UUID) (*models.CustomerProperty, error) {
	for i := range f.properties {
		if f.properties[i].PurchaseID != nil && *f.properties[i].PurchaseID == purchaseID {
			return &f.properties[i], nil
		}
	}
	return nil, nil
}

func (f *fakePropertyRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CustomerProperty, error) {
	var out []models.CustomerProperty
	for _, p := range f.properties {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestCustomerMetrics(t *testing.T) {
	userID := uuid.New()
	otherID := uuid.New()

	repo := &fakePropertyRepo{properties: []models.CustomerProperty{
		{
			UserID: userID, TotalPrice: 2_000_000, AmountPaid: 500_000,
			PaymentStatus: models.PropertyOutstanding, AcquisitionStatus: models.AcquisitionHeld,
		},
		{
			UserID: userID, TotalPrice: 1_000_000,
			PaymentStatus: models.PropertyFullyPaid, AcquisitionStatus: models.AcquisitionTransferred,
		},
		{
			UserID: userID, TotalPrice: 3_000_000,
			PaymentStatus: models.PropertyFailed, AcquisitionStatus: models.AcquisitionHeld,
		},
		{
			UserID: otherID, TotalPrice: 9_000_000,
			PaymentStatus: models.PropertyOutstanding, AcquisitionStatus: models.AcquisitionHeld,
		},
	}}

	reporter := NewReporter(repo)
	m, err := reporter.CustomerMetrics(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, 2, m.PurchasedCount, "failed properties do not count")
	assert.Equal(t, 1, m.HeldCount)
	assert.Equal(t, int64(1_500_000), m.TotalOutstanding)
}

func TestCustomerMetricsEmpty(t *testing.T) {
	reporter := NewReporter(&fakePropertyRepo{})
	m, err := reporter.CustomerMetrics(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Zero(t, m.PurchasedCount)
	assert.Zero(t, m.HeldCount)
	assert.Zero(t, m.TotalOutstanding)
}

func TestCustomerProperties(t *testing.T) {
	userID := uuid.New()
	repo := &fakePropertyRepo{properties: []models.CustomerProperty{
		{UserID: userID, PaymentStatus: models.PropertyOutstanding, AcquisitionStatus: models.AcquisitionHeld},
		{UserID: userID, PaymentStatus: models.PropertyFullyPaid, AcquisitionStatus: models.AcquisitionHeld},
		{UserID: userID, PaymentStatus: models.PropertyFullyPaid, AcquisitionStatus: models.AcquisitionTransferred},
	}}

	groups, err := NewReporter(repo).CustomerProperties(context.Background(), userID)
	require.NoError(t, err)

	assert.Len(t, groups.Outstanding, 1)
	assert.Len(t, groups.FullyPaid, 2)
	assert.Len(t, groups.Held, 2)
}
