package purchase

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/obiefule/estateflow/internal/gateway"
	"github.com/obiefule/estateflow/internal/models"
	"github.com/obiefule/estateflow/internal/repositories"
)

// fakeInventory emulates the transactional store: a mutex serializes
// transactions the way row locks do, and statuses are snapshotted at
// transaction start so an error rolls them back.
type fakeInventory struct {
	mu    sync.Mutex
	plots map[int64]*models.Plot
}

func newFakeInventory(plots ...models.Plot) *fakeInventory {
	inv := &fakeInventory{plots: make(map[int64]*models.Plot)}
	for i := range plots {
		p := plots[i]
		inv.plots[p.ID] = &p
	}
	return inv
}

func (f *fakeInventory) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapshot := make(map[int64]models.PlotStatus, len(f.plots))
	for id, p := range f.plots {
		snapshot[id] = p.Status
	}

	if err := fn(ctx); err != nil {
		for id, status := range snapshot {
			f.plots[id].Status = status
		}
		return err
	}
	return nil
}

func (f *fakeInventory) LockAvailable(ctx context.Context, estateID uuid.UUID, plotIDs []int64) ([]models.Plot, error) {
	var out []models.Plot
	for _, id := range plotIDs {
		if p, ok := f.plots[id]; ok && p.EstateID == estateID && p.Status == models.PlotAvailable {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeInventory) ListAvailable(ctx context.Context, estateID uuid.UUID, plotIDs []int64) ([]models.Plot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.LockAvailable(ctx, estateID, plotIDs)
}

func (f *fakeInventory) LockPlots(ctx context.Context, plotIDs []int64) ([]models.Plot, error) {
	var out []models.Plot
	for _, id := range plotIDs {
		if p, ok := f.plots[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeInventory) MarkReserved(ctx context.Context, plotIDs []int64) error {
	return f.setStatus(plotIDs, models.PlotReserved)
}

func (f *fakeInventory) MarkSold(ctx context.Context, plotIDs []int64) error {
	return f.setStatus(plotIDs, models.PlotSold)
}

func (f *fakeInventory) MarkAvailable(ctx context.Context, plotIDs []int64) error {
	return f.setStatus(plotIDs, models.PlotAvailable)
}

func (f *fakeInventory) MarkAllocated(ctx context.Context, plotIDs []int64) error {
	return f.setStatus(plotIDs, models.PlotAllocated)
}

func (f *fakeInventory) setStatus(plotIDs []int64, status models.PlotStatus) error {
	for _, id := range plotIDs {
		if p, ok := f.plots[id]; ok {
			p.Status = status
		}
	}
	return nil
}

func (f *fakeInventory) status(id int64) models.PlotStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plots[id].Status
}

type fakeEstateRepo struct {
	mu      sync.Mutex
	estates map[uuid.UUID]models.Estate
}

func newFakeEstateRepo(estates ...models.Estate) *fakeEstateRepo {
	r := &fakeEstateRepo{estates: make(map[uuid.UUID]models.Estate)}
	for _, e := range estates {
		r.estates[e.ID] = e
	}
	return r
}

func (r *fakeEstateRepo) Create(ctx context.Context, estate *models.Estate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.estates[estate.ID] = *estate
	return nil
}

func (r *fakeEstateRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Estate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.estates[id]; ok {
		return &e, nil
	}
	return nil, nil
}

func (r *fakeEstateRepo) List(ctx context.Context) ([]models.Estate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Estate
	for _, e := range r.estates {
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeEstateRepo) setPromo(id uuid.UUID, promo int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.estates[id]
	e.PromoPrice = &promo
	r.estates[id] = e
}

type fakePurchaseRepo struct {
	mu        sync.Mutex
	purchases map[string]*models.Purchase
}

func newFakePurchaseRepo() *fakePurchaseRepo {
	return &fakePurchaseRepo{purchases: make(map[string]*models.Purchase)}
}

func (r *fakePurchaseRepo) Create(ctx context.Context, p *models.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.purchases[p.Reference]; ok {
		return repositories.ErrDuplicateReference
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.purchases[p.Reference] = &cp
	return nil
}

func (r *fakePurchaseRepo) GetByReference(ctx context.Context, reference string) (*models.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.purchases[reference]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *fakePurchaseRepo) GetByReferenceForUpdate(ctx context.Context, reference string) (*models.Purchase, error) {
	return r.GetByReference(ctx, reference)
}

func (r *fakePurchaseRepo) SetStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus, receipt datatypes.JSON) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.purchases {
		if p.ID == id {
			p.PaymentStatus = status
			if receipt != nil {
				p.Receipt = receipt
			}
			return nil
		}
	}
	return errors.New("purchase not found")
}

func (r *fakePurchaseRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Purchase
	for _, p := range r.purchases {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePurchaseRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.purchases)
}

type fakePropertyRepo struct {
	mu         sync.Mutex
	properties []models.CustomerProperty
}

func (r *fakePropertyRepo) Create(ctx context.Context, p *models.CustomerProperty) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.properties {
		if p.PurchaseID != nil && existing.PurchaseID != nil && *existing.PurchaseID == *p.PurchaseID {
			return repositories.ErrPropertyExists
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.properties = append(r.properties, *p)
	return nil
}

func (r *fakePropertyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.CustomerProperty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.properties {
		if r.properties[i].ID == id {
			cp := r.properties[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakePropertyRepo) GetByPurchaseID(ctx context.Context, purchaseID uuid.UUID) (*models.CustomerProperty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.properties {
		if r.properties[i].PurchaseID != nil && *r.properties[i].PurchaseID == purchaseID {
			cp := r.properties[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakePropertyRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CustomerProperty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.CustomerProperty
	for _, p := range r.properties {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePropertyRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.properties)
}

type fakeGateway struct {
	mu           sync.Mutex
	initCalls    int
	verifyCalls  int
	initErr      error
	verifyErr    error
	verifyStatus string
}

func (g *fakeGateway) Initialize(ctx context.Context, req gateway.InitializeRequest) (*gateway.InitializeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initCalls++
	if g.initErr != nil {
		return nil, g.initErr
	}
	return &gateway.InitializeResult{
		AuthorizationURL: "https://checkout.test/" + req.Reference,
		AccessCode:       "access-" + req.Reference,
	}, nil
}

func (g *fakeGateway) Verify(ctx context.Context, reference string) (*gateway.VerifyResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifyCalls++
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	status := g.verifyStatus
	if status == "" {
		status = "success"
	}
	return &gateway.VerifyResult{
		Success: status == "success",
		Status:  status,
		Raw:     []byte(`{"data":{"status":"` + status + `"}}`),
	}, nil
}

type fakeDirectory struct{}

func (fakeDirectory) Email(ctx context.Context, userID uuid.UUID) (string, error) {
	return "buyer@test.local", nil
}
