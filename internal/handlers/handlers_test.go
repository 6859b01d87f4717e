package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/obiefule/estateflow/internal/metrics"
	"github.com/obiefule/estateflow/internal/models"
	"github.com/obiefule/estateflow/internal/purchase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asUser injects the identity the JWT middleware would normally set.
func asUser(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

type fakePurchaseService struct {
	previewResult *purchase.PreviewResult
	previewErr    error
	finalizeRes   *models.Purchase
	finalizeErr   error

	history    []models.Purchase
	historyErr error

	finalizeCalls int
	lastUserID    uuid.UUID
}

func (f *fakePurchaseService) Preview(ctx context.Context, estateID uuid.UUID, plotIDs []int64, months int) (*purchase.PreviewResult, error) {
	if f.previewErr != nil {
		return nil, f.previewErr
	}
	return f.previewResult, nil
}

func (f *fakePurchaseService) Finalize(ctx context.Context, userID, estateID uuid.UUID, plotIDs []int64, months int) (*models.Purchase, error) {
	f.finalizeCalls++
	f.lastUserID = userID
	if f.finalizeErr != nil {
		return nil, f.finalizeErr
	}
	return f.finalizeRes, nil
}

func (f *fakePurchaseService) History(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history, nil
}

type fakeConfirmService struct {
	result  *models.Purchase
	err     error
	calls   int
	lastRef string
}

func (f *fakeConfirmService) Confirm(ctx context.Context, reference string) (*models.Purchase, error) {
	f.calls++
	f.lastRef = reference
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeAllocateService struct {
	result *models.CustomerProperty
	err    error
	lastIn purchase.AllocateInput
}

func (f *fakeAllocateService) Allocate(ctx context.Context, in purchase.AllocateInput) (*models.CustomerProperty, error) {
	f.lastIn = in
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeReporter struct {
	metrics *metrics.CustomerMetrics
	groups  *metrics.PropertyGroups
	err     error
}

func (f *fakeReporter) CustomerMetrics(ctx context.Context, userID uuid.UUID) (*metrics.CustomerMetrics, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.metrics, nil
}

func (f *fakeReporter) CustomerProperties(ctx context.Context, userID uuid.UUID) (*metrics.PropertyGroups, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.groups, nil
}

type fakePropertyStore struct {
	properties map[uuid.UUID]*models.CustomerProperty
}

func (f *fakePropertyStore) Create(ctx context.Context, p *models.CustomerProperty) error {
	if f.properties == nil {
		f.properties = map[uuid.UUID]*models.CustomerProperty{}
	}
	f.properties[p.ID] = p
	return nil
}

func (f *fakePropertyStore) GetByID(ctx context.Context, id uuid.UUID) (*models.CustomerProperty, error) {
	return f.properties[id], nil
}

func (f *fakePropertyStore) GetByPurchaseID(ctx context.Context, purchaseID uuid.UUID) (*models.CustomerProperty, error) {
	for _, p := range f.properties {
		if p.PurchaseID != nil && *p.PurchaseID == purchaseID {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePropertyStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CustomerProperty, error) {
	var out []models.CustomerProperty
	for _, p := range f.properties {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}
