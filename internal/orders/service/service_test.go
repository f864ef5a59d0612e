package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	catdomain "orderdesk_backend/internal/catalog/domain"
	"orderdesk_backend/internal/events"
	"orderdesk_backend/internal/orders/domain"
	"orderdesk_backend/internal/orders/repository"
	"orderdesk_backend/internal/orders/transport"
	"orderdesk_backend/platform/apperr"
	"orderdesk_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	mu       sync.Mutex
	orders   map[uuid.UUID]domain.Order
	setLines []repository.SetLinesParams
	linesErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: make(map[uuid.UUID]domain.Order)}
}

func (f *fakeRepo) put(o domain.Order) domain.Order {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	f.orders[o.ID] = o
	return o
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateOrderParams) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.put(domain.Order{
		OrganizationID: params.OrganizationID,
		CustomerPhone:  params.CustomerPhone,
		CustomerName:   params.CustomerName,
		Status:         params.Status,
		Lines:          params.Lines,
		OrderTotal:     params.OrderTotal,
		CreatedAt:      time.Now(),
	}), nil
}

func (f *fakeRepo) GetByID(_ context.Context, _ uuid.UUID, id uuid.UUID) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return domain.Order{}, apperr.NotFound("order not found")
	}
	return order, nil
}

func (f *fakeRepo) ListByOrganization(_ context.Context, _ uuid.UUID) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeRepo) ListByCustomer(_ context.Context, _ uuid.UUID, digits string) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Order, 0)
	for _, o := range f.orders {
		if strings.ReplaceAll(o.CustomerPhone, " ", "") == digits {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeRepo) SetLines(_ context.Context, params repository.SetLinesParams) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setLines = append(f.setLines, params)
	if f.linesErr != nil {
		return domain.Order{}, f.linesErr
	}
	order, ok := f.orders[params.ID]
	if !ok {
		return domain.Order{}, apperr.NotFound("order not found")
	}
	order.Lines = params.Lines
	order.LastEditReason = params.Reason
	if params.ClearTotal {
		order.OrderTotal = nil
	} else if params.OrderTotal != nil {
		order.OrderTotal = params.OrderTotal
	}
	f.orders[params.ID] = order
	return order, nil
}

func (f *fakeRepo) SetStatus(_ context.Context, _ uuid.UUID, id uuid.UUID, status domain.Status) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return domain.Order{}, apperr.NotFound("order not found")
	}
	order.Status = status
	f.orders[id] = order
	return order, nil
}

func (f *fakeRepo) SetShippingAddress(_ context.Context, _ uuid.UUID, id uuid.UUID, address string) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order := f.orders[id]
	order.ShippingAddress = address
	f.orders[id] = order
	return order, nil
}

func (f *fakeRepo) MergeInto(_ context.Context, _ uuid.UUID, sourceID, targetID uuid.UUID) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	source, ok := f.orders[sourceID]
	if !ok {
		return domain.Order{}, apperr.NotFound("order not found")
	}
	target, ok := f.orders[targetID]
	if !ok {
		return domain.Order{}, apperr.NotFound("order not found")
	}
	target.Lines = append(target.Lines, source.Lines...)
	target.OrderTotal = nil
	target.LastEditReason = "merged_append"
	f.orders[targetID] = target
	delete(f.orders, sourceID)
	return target, nil
}

func (f *fakeRepo) Split(_ context.Context, _ uuid.UUID, id uuid.UUID, kept, moved []domain.OrderLine) (domain.Order, domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order := f.orders[id]
	order.Lines = kept
	f.orders[id] = order
	created := f.put(domain.Order{
		OrganizationID: order.OrganizationID,
		CustomerPhone:  order.CustomerPhone,
		Status:         domain.StatusPending,
		Lines:          moved,
		CreatedAt:      time.Now(),
	})
	return order, created, nil
}

func (f *fakeRepo) Delete(_ context.Context, _ uuid.UUID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[id]; !ok {
		return apperr.NotFound("order not found")
	}
	delete(f.orders, id)
	return nil
}

type fakeCatalog struct {
	products []catdomain.Product
}

func (f *fakeCatalog) Products(_ context.Context, _ uuid.UUID) ([]catdomain.Product, error) {
	return f.products, nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(_ context.Context, event events.Event) error {
	b.Publish(context.Background(), event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func newService(repo *fakeRepo, catalog *fakeCatalog) (*Service, *recordingBus) {
	bus := &recordingBus{}
	return New(repo, catalog, bus, logger.New("development"), "AED"), bus
}

func TestSetStatus_ShippingFreezesPricingFirst(t *testing.T) {
	repo := newFakeRepo()
	org := uuid.New()
	order := repo.put(domain.Order{
		OrganizationID: org,
		Status:         domain.StatusPending,
		Lines:          []domain.OrderLine{{Canonical: "onion", Qty: domain.Float(2)}},
	})
	catalog := &fakeCatalog{products: []catdomain.Product{
		{Canonical: "onion", PricePerUnit: domain.Float(5)},
	}}
	svc, bus := newService(repo, catalog)

	resp, err := svc.SetStatus(context.Background(), org, order.ID, domain.StatusShipped)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != "shipped" {
		t.Fatalf("expected shipped, got %s", resp.Status)
	}

	if len(repo.setLines) != 1 {
		t.Fatalf("expected one freeze write, got %d", len(repo.setLines))
	}
	freeze := repo.setLines[0]
	if freeze.Reason != "freeze_pricing_on_shipped" {
		t.Fatalf("unexpected freeze reason %q", freeze.Reason)
	}
	if freeze.OrderTotal == nil || *freeze.OrderTotal != 10 {
		t.Fatalf("expected frozen total 10, got %v", freeze.OrderTotal)
	}

	last := bus.events[len(bus.events)-1].(events.OrderStatusChanged)
	if !last.PricingFrozen {
		t.Fatal("expected PricingFrozen on event")
	}
}

func TestSetStatus_AlreadyFrozenSkipsSnapshot(t *testing.T) {
	repo := newFakeRepo()
	org := uuid.New()
	order := repo.put(domain.Order{
		OrganizationID: org,
		Status:         domain.StatusShipped,
		Lines:          []domain.OrderLine{{Canonical: "onion", PricePerUnit: domain.Float(5), LineTotal: domain.Float(5)}},
	})
	svc, _ := newService(repo, &fakeCatalog{})

	if _, err := svc.SetStatus(context.Background(), org, order.ID, domain.StatusPaid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.setLines) != 0 {
		t.Fatalf("expected no snapshot for shipped->paid, got %d writes", len(repo.setLines))
	}
}

func TestSetStatus_FreezeFailureStillTransitions(t *testing.T) {
	repo := newFakeRepo()
	repo.linesErr = errors.New("db down")
	org := uuid.New()
	order := repo.put(domain.Order{
		OrganizationID: org,
		Status:         domain.StatusPending,
		Lines:          []domain.OrderLine{{Canonical: "onion"}},
	})
	svc, bus := newService(repo, &fakeCatalog{})

	resp, err := svc.SetStatus(context.Background(), org, order.ID, domain.StatusShipped)
	if err != nil {
		t.Fatalf("transition must survive freeze failure, got %v", err)
	}
	if resp.Status != "shipped" {
		t.Fatalf("expected shipped, got %s", resp.Status)
	}

	last := bus.events[len(bus.events)-1].(events.OrderStatusChanged)
	if last.PricingFrozen {
		t.Fatal("expected PricingFrozen false after failed snapshot")
	}
}

func TestSetStatus_InvalidTransitionRejected(t *testing.T) {
	repo := newFakeRepo()
	org := uuid.New()
	order := repo.put(domain.Order{OrganizationID: org, Status: domain.StatusPaid})
	svc, _ := newService(repo, &fakeCatalog{})

	_, err := svc.SetStatus(context.Background(), org, order.ID, domain.StatusPending)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestSetStatus_CancelDoesNotFreeze(t *testing.T) {
	repo := newFakeRepo()
	org := uuid.New()
	order := repo.put(domain.Order{OrganizationID: org, Status: domain.StatusPending})
	svc, _ := newService(repo, &fakeCatalog{})

	if _, err := svc.SetStatus(context.Background(), org, order.ID, domain.StatusCancelled); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.setLines) != 0 {
		t.Fatal("cancel must not snapshot pricing")
	}
}

func TestSetLines_FrozenOrderRejected(t *testing.T) {
	repo := newFakeRepo()
	org := uuid.New()
	order := repo.put(domain.Order{OrganizationID: org, Status: domain.StatusPaid})
	svc, _ := newService(repo, &fakeCatalog{})

	_, err := svc.SetLines(context.Background(), org, order.ID, transport.SetLinesRequest{
		Lines: []transport.OrderLineDTO{{Canonical: "onion"}},
	})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestSetLines_RepricesAndClearsStoredTotal(t *testing.T) {
	repo := newFakeRepo()
	org := uuid.New()
	order := repo.put(domain.Order{
		OrganizationID: org,
		Status:         domain.StatusPending,
		OrderTotal:     domain.Float(50),
	})
	catalog := &fakeCatalog{products: []catdomain.Product{
		{Canonical: "onion", PricePerUnit: domain.Float(3)},
	}}
	svc, _ := newService(repo, catalog)

	resp, err := svc.SetLines(context.Background(), org, order.ID, transport.SetLinesRequest{
		Lines: []transport.OrderLineDTO{{Canonical: "onion", Qty: domain.Float(2)}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.OrderTotal != nil {
		t.Fatal("expected stored total cleared on edit")
	}
	if resp.DisplayTotal == nil || *resp.DisplayTotal != 6 {
		t.Fatalf("expected repriced display total 6, got %v", resp.DisplayTotal)
	}
	if resp.LastEditReason != "edited_replace" {
		t.Fatalf("expected default edit reason, got %q", resp.LastEditReason)
	}
}

func TestMergePrevious_TargetsNextOlderPending(t *testing.T) {
	repo := newFakeRepo()
	org := uuid.New()
	now := time.Now()
	oldest := repo.put(domain.Order{
		OrganizationID: org, CustomerPhone: "100", Status: domain.StatusPending,
		Lines: []domain.OrderLine{{Canonical: "a"}}, CreatedAt: now.Add(-3 * time.Hour),
	})
	middle := repo.put(domain.Order{
		OrganizationID: org, CustomerPhone: "100", Status: domain.StatusPending,
		Lines: []domain.OrderLine{{Canonical: "b"}}, CreatedAt: now.Add(-2 * time.Hour),
	})
	newest := repo.put(domain.Order{
		OrganizationID: org, CustomerPhone: "100", Status: domain.StatusPending,
		Lines: []domain.OrderLine{{Canonical: "c"}}, CreatedAt: now.Add(-1 * time.Hour),
	})
	svc, _ := newService(repo, &fakeCatalog{})

	resp, err := svc.MergePrevious(context.Background(), org, newest.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.ID != middle.ID {
		t.Fatalf("expected merge into next older pending order, got %s", resp.ID)
	}
	if len(resp.Lines) != 2 {
		t.Fatalf("expected combined lines, got %d", len(resp.Lines))
	}
	if _, err := repo.GetByID(context.Background(), org, newest.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatal("expected merged order deleted")
	}
	if _, err := repo.GetByID(context.Background(), org, oldest.ID); err != nil {
		t.Fatal("oldest order must be untouched")
	}
}

func TestMergePrevious_NoTargetConflicts(t *testing.T) {
	repo := newFakeRepo()
	org := uuid.New()
	only := repo.put(domain.Order{
		OrganizationID: org, CustomerPhone: "100", Status: domain.StatusPending, CreatedAt: time.Now(),
	})
	svc, _ := newService(repo, &fakeCatalog{})

	_, err := svc.MergePrevious(context.Background(), org, only.ID)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestMergeSession_CollapsesToSinglePending(t *testing.T) {
	repo := newFakeRepo()
	org := uuid.New()
	now := time.Now()
	oldest := repo.put(domain.Order{
		OrganizationID: org, CustomerPhone: "100", Status: domain.StatusPending,
		Lines: []domain.OrderLine{{Canonical: "a"}}, CreatedAt: now.Add(-3 * time.Hour),
	})
	repo.put(domain.Order{
		OrganizationID: org, CustomerPhone: "100", Status: domain.StatusPending,
		Lines: []domain.OrderLine{{Canonical: "b"}}, CreatedAt: now.Add(-2 * time.Hour),
	})
	repo.put(domain.Order{
		OrganizationID: org, CustomerPhone: "100", Status: domain.StatusPending,
		Lines: []domain.OrderLine{{Canonical: "c"}}, CreatedAt: now.Add(-1 * time.Hour),
	})
	svc, _ := newService(repo, &fakeCatalog{})

	resp, err := svc.MergeSession(context.Background(), org, "100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Merged != 2 {
		t.Fatalf("expected 2 merges, got %d", resp.Merged)
	}
	if resp.Survivor.ID != oldest.ID {
		t.Fatal("expected oldest pending order to survive")
	}
	if len(resp.Survivor.Lines) != 3 {
		t.Fatalf("expected 3 combined lines, got %d", len(resp.Survivor.Lines))
	}

	remaining, _ := repo.ListByCustomer(context.Background(), org, "100")
	if len(remaining) != 1 {
		t.Fatalf("expected exactly one surviving order, got %d", len(remaining))
	}
}

func TestSplit_MovesSelectedLines(t *testing.T) {
	repo := newFakeRepo()
	org := uuid.New()
	order := repo.put(domain.Order{
		OrganizationID: org, Status: domain.StatusPending,
		Lines: []domain.OrderLine{{Canonical: "a"}, {Canonical: "b"}, {Canonical: "c"}},
	})
	svc, _ := newService(repo, &fakeCatalog{})

	resp, err := svc.Split(context.Background(), org, order.ID, transport.SplitRequest{LineIndexes: []int{1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(resp.Original.Lines) != 2 || len(resp.Created.Lines) != 1 {
		t.Fatalf("unexpected split: %d/%d", len(resp.Original.Lines), len(resp.Created.Lines))
	}
	if resp.Created.Lines[0].Canonical != "b" {
		t.Fatalf("expected line b moved, got %q", resp.Created.Lines[0].Canonical)
	}
}

func TestSplit_AllLinesRejected(t *testing.T) {
	repo := newFakeRepo()
	org := uuid.New()
	order := repo.put(domain.Order{
		OrganizationID: org, Status: domain.StatusPending,
		Lines: []domain.OrderLine{{Canonical: "a"}},
	})
	svc, _ := newService(repo, &fakeCatalog{})

	_, err := svc.Split(context.Background(), org, order.ID, transport.SplitRequest{LineIndexes: []int{0}})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
