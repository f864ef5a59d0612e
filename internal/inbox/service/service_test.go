package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	catalogdomain "orderdesk_backend/internal/catalog/domain"
	"orderdesk_backend/internal/events"
	"orderdesk_backend/internal/inbox/domain"
	"orderdesk_backend/internal/inbox/repository"
	"orderdesk_backend/internal/inbox/transport"
	"orderdesk_backend/platform/apperr"
	platformevents "orderdesk_backend/platform/events"
	"orderdesk_backend/platform/logger"
)

type fakeRepo struct {
	messages      []domain.Message
	conversations []domain.Conversation
	states        map[string]*domain.InteractionState
	orgSettings   domain.OrgSettings
	outbox        []domain.OutboxMessage
	resolved      []string
	autoReplySet  map[string]bool
}

var _ repository.Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		states:       make(map[string]*domain.InteractionState),
		orgSettings:  domain.OrgSettings{AutoReplyEnabled: true, IngestMode: domain.IngestLocalBridge},
		autoReplySet: make(map[string]bool),
	}
}

func (f *fakeRepo) CreateMessage(_ context.Context, params repository.CreateMessageParams) (*domain.Message, error) {
	msg := domain.Message{
		ID:             uuid.New(),
		OrganizationID: params.OrganizationID,
		CustomerPhone:  params.CustomerPhone,
		Direction:      params.Direction,
		Text:           params.Text,
		CreatedAt:      time.Now(),
	}
	f.messages = append(f.messages, msg)
	return &msg, nil
}

func (f *fakeRepo) ListMessages(_ context.Context, _ uuid.UUID, phone string, _ int) ([]domain.Message, error) {
	var out []domain.Message
	for _, m := range f.messages {
		if m.CustomerPhone == phone {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListConversations(_ context.Context, _ uuid.UUID) ([]domain.Conversation, error) {
	return f.conversations, nil
}

func (f *fakeRepo) GetInteractionState(_ context.Context, orgID uuid.UUID, phone string) (*domain.InteractionState, error) {
	if state, ok := f.states[phone]; ok {
		copied := *state
		return &copied, nil
	}
	return &domain.InteractionState{
		OrganizationID:   orgID,
		CustomerPhone:    phone,
		AutoReplyEnabled: f.orgSettings.AutoReplyEnabled,
	}, nil
}

func (f *fakeRepo) SetAutoReply(_ context.Context, orgID uuid.UUID, phone string, enabled bool) error {
	f.autoReplySet[phone] = enabled
	state, ok := f.states[phone]
	if !ok {
		state = &domain.InteractionState{OrganizationID: orgID, CustomerPhone: phone}
		f.states[phone] = state
	}
	state.AutoReplyEnabled = enabled
	return nil
}

func (f *fakeRepo) SetLastInquiry(_ context.Context, orgID uuid.UUID, phone string, inquiry domain.Inquiry) error {
	state, ok := f.states[phone]
	if !ok {
		state = &domain.InteractionState{
			OrganizationID:   orgID,
			CustomerPhone:    phone,
			AutoReplyEnabled: f.orgSettings.AutoReplyEnabled,
		}
		f.states[phone] = state
	}
	copied := inquiry
	state.LastInquiry = &copied
	return nil
}

func (f *fakeRepo) ResolveInquiry(_ context.Context, _ uuid.UUID, phone string) error {
	f.resolved = append(f.resolved, phone)
	if state, ok := f.states[phone]; ok && state.LastInquiry != nil {
		state.LastInquiry.Status = domain.InquiryResolved
	}
	return nil
}

func (f *fakeRepo) GetOrgSettings(_ context.Context, orgID uuid.UUID) (*domain.OrgSettings, error) {
	settings := f.orgSettings
	settings.OrganizationID = orgID
	return &settings, nil
}

func (f *fakeRepo) SetOrgAutoReply(_ context.Context, _ uuid.UUID, enabled bool) error {
	f.orgSettings.AutoReplyEnabled = enabled
	return nil
}

func (f *fakeRepo) EnqueueOutbox(_ context.Context, orgID uuid.UUID, toPhone, text string) (*domain.OutboxMessage, error) {
	msg := domain.OutboxMessage{
		ID:             uuid.New(),
		OrganizationID: orgID,
		ToPhone:        toPhone,
		Text:           text,
		Status:         domain.OutboxPending,
		CreatedAt:      time.Now(),
	}
	f.outbox = append(f.outbox, msg)
	return &msg, nil
}

func (f *fakeRepo) GetOutbox(_ context.Context, id uuid.UUID) (*domain.OutboxMessage, error) {
	for i := range f.outbox {
		if f.outbox[i].ID == id {
			return &f.outbox[i], nil
		}
	}
	return nil, apperr.NotFound("outbox message not found")
}

func (f *fakeRepo) MarkOutboxSent(_ context.Context, _ uuid.UUID) error   { return nil }
func (f *fakeRepo) MarkOutboxFailed(_ context.Context, _ uuid.UUID, _ string) error {
	return nil
}

type fakeCatalog struct {
	products []catalogdomain.Product
}

func (f *fakeCatalog) Products(_ context.Context, _ uuid.UUID) ([]catalogdomain.Product, error) {
	return f.products, nil
}

type fakeTasks struct {
	dispatched []uuid.UUID
	followUps  []string
}

func (f *fakeTasks) EnqueueOutboxDispatch(_ context.Context, outboxID, _ uuid.UUID) error {
	f.dispatched = append(f.dispatched, outboxID)
	return nil
}

func (f *fakeTasks) EnqueueInquiryFollowUp(_ context.Context, _ uuid.UUID, phone string, _ time.Duration) error {
	f.followUps = append(f.followUps, phone)
	return nil
}

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *recordingBus) Subscribe(_ string, _ platformevents.Handler) {}

func (b *recordingBus) names() []string {
	var out []string
	for _, e := range b.published {
		out = append(out, e.EventName())
	}
	return out
}

func (b *recordingBus) has(name string) bool {
	for _, e := range b.published {
		if e.EventName() == name {
			return true
		}
	}
	return false
}

func newTestService(repo *fakeRepo, catalog *fakeCatalog, tasks *fakeTasks, bus *recordingBus) *Service {
	return New(repo, catalog, tasks, bus, logger.New("development"), 15*time.Minute)
}

func TestSend_ResolvesInquiryAndDisablesAutoReply(t *testing.T) {
	org := uuid.New()
	repo := newFakeRepo()
	repo.states["971501234567"] = &domain.InteractionState{
		OrganizationID:   org,
		CustomerPhone:    "971501234567",
		AutoReplyEnabled: true,
		LastInquiry: &domain.Inquiry{
			Text:   "how much is the onion?",
			Kind:   domain.KindPrice,
			Status: domain.InquiryUnresolved,
		},
	}
	tasks := &fakeTasks{}
	bus := &recordingBus{}
	svc := newTestService(repo, &fakeCatalog{}, tasks, bus)

	resp, err := svc.Send(context.Background(), org, transport.SendMessageRequest{
		Phone: "+971 50 123 4567",
		Text:  "AED 5 per kg",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if resp.Direction != "out" || resp.CustomerPhone != "971501234567" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	if len(repo.resolved) != 1 || repo.resolved[0] != "971501234567" {
		t.Fatalf("expected inquiry resolved, got %v", repo.resolved)
	}
	if enabled, ok := repo.autoReplySet["971501234567"]; !ok || enabled {
		t.Fatalf("expected auto-reply disabled, got %v %v", enabled, ok)
	}
	if len(repo.outbox) != 1 || len(tasks.dispatched) != 1 {
		t.Fatalf("expected one queued dispatch, got outbox=%d tasks=%d", len(repo.outbox), len(tasks.dispatched))
	}
	if !bus.has("inbox.inquiry.resolved") || !bus.has("inbox.autoreply.changed") {
		t.Fatalf("missing events: %v", bus.names())
	}
}

func TestSend_NoSideEffectsWhenNothingOpen(t *testing.T) {
	org := uuid.New()
	repo := newFakeRepo()
	repo.states["971501234567"] = &domain.InteractionState{
		OrganizationID:   org,
		CustomerPhone:    "971501234567",
		AutoReplyEnabled: false,
	}
	bus := &recordingBus{}
	svc := newTestService(repo, &fakeCatalog{}, &fakeTasks{}, bus)

	if _, err := svc.Send(context.Background(), org, transport.SendMessageRequest{
		Phone: "971501234567",
		Text:  "thanks",
	}); err != nil {
		t.Fatalf("send: %v", err)
	}

	if len(repo.resolved) != 0 {
		t.Fatal("no inquiry should be resolved")
	}
	if bus.has("inbox.inquiry.resolved") || bus.has("inbox.autoreply.changed") {
		t.Fatalf("unexpected events: %v", bus.names())
	}
}

func TestRecordInbound_LabeledInquiry(t *testing.T) {
	org := uuid.New()
	price := 4.5
	repo := newFakeRepo()
	catalog := &fakeCatalog{products: []catalogdomain.Product{
		{ID: uuid.New(), Canonical: "onion", PricePerUnit: &price, IsActive: true},
	}}
	tasks := &fakeTasks{}
	bus := &recordingBus{}
	svc := newTestService(repo, catalog, tasks, bus)

	_, err := svc.RecordInbound(context.Background(), org, transport.InboundMessageRequest{
		Phone: "971501234567",
		Text:  "how much is onion today",
		Kind:  "price",
	})
	if err != nil {
		t.Fatalf("record inbound: %v", err)
	}

	state := repo.states["971501234567"]
	if state == nil || state.LastInquiry == nil {
		t.Fatal("expected inquiry recorded")
	}
	if state.LastInquiry.Kind != domain.KindPrice || state.LastInquiry.Status != domain.InquiryUnresolved {
		t.Fatalf("unexpected inquiry: %+v", state.LastInquiry)
	}
	if state.LastInquiry.Canonical != "onion" {
		t.Fatalf("expected product link, got %q", state.LastInquiry.Canonical)
	}
	if len(tasks.followUps) != 1 {
		t.Fatalf("expected follow-up scheduled, got %d", len(tasks.followUps))
	}
	if !bus.has("inbox.message.received") || !bus.has("inbox.inquiry.detected") {
		t.Fatalf("missing events: %v", bus.names())
	}
}

func TestRecordInbound_OrderTextIsNotInquiry(t *testing.T) {
	org := uuid.New()
	repo := newFakeRepo()
	tasks := &fakeTasks{}
	bus := &recordingBus{}
	svc := newTestService(repo, &fakeCatalog{}, tasks, bus)

	_, err := svc.RecordInbound(context.Background(), org, transport.InboundMessageRequest{
		Phone: "971501234567",
		Text:  "2 kg onion and 1 box tomatoes",
	})
	if err != nil {
		t.Fatalf("record inbound: %v", err)
	}

	if state := repo.states["971501234567"]; state != nil && state.LastInquiry != nil {
		t.Fatalf("unexpected inquiry: %+v", state.LastInquiry)
	}
	if len(tasks.followUps) != 0 {
		t.Fatal("no follow-up should be scheduled")
	}
	if bus.has("inbox.inquiry.detected") {
		t.Fatalf("unexpected events: %v", bus.names())
	}
}

func TestRecordInbound_HeuristicFallsBackToOther(t *testing.T) {
	org := uuid.New()
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeCatalog{}, &fakeTasks{}, &recordingBus{})

	_, err := svc.RecordInbound(context.Background(), org, transport.InboundMessageRequest{
		Phone: "971501234567",
		Text:  "where is my delivery?",
	})
	if err != nil {
		t.Fatalf("record inbound: %v", err)
	}

	state := repo.states["971501234567"]
	if state == nil || state.LastInquiry == nil {
		t.Fatal("expected heuristic inquiry")
	}
	if state.LastInquiry.Kind != domain.KindOther {
		t.Fatalf("expected kind other, got %s", state.LastInquiry.Kind)
	}
}

func TestMarkInquiryResolved_NothingOpen(t *testing.T) {
	org := uuid.New()
	svc := newTestService(newFakeRepo(), &fakeCatalog{}, &fakeTasks{}, &recordingBus{})

	err := svc.MarkInquiryResolved(context.Background(), org, "971501234567")
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestListConversations_Status(t *testing.T) {
	org := uuid.New()
	repo := newFakeRepo()
	now := time.Now()
	repo.conversations = []domain.Conversation{
		{OrganizationID: org, CustomerPhone: "971500000001", LastDirection: domain.DirectionIn, LastText: "how much?", LastAt: now},
		{OrganizationID: org, CustomerPhone: "971500000002", LastDirection: domain.DirectionOut, LastText: "done", LastAt: now},
		{OrganizationID: org, CustomerPhone: "971500000003", LastDirection: domain.DirectionIn, LastText: "2 kg onion", LastAt: now},
	}
	repo.states["971500000001"] = &domain.InteractionState{
		OrganizationID: org,
		CustomerPhone:  "971500000001",
		LastInquiry:    &domain.Inquiry{Text: "how much?", Kind: domain.KindPrice, Status: domain.InquiryUnresolved},
	}
	svc := newTestService(repo, &fakeCatalog{}, &fakeTasks{}, &recordingBus{})

	resp, err := svc.ListConversations(context.Background(), org)
	if err != nil {
		t.Fatalf("list conversations: %v", err)
	}
	if resp.Total != 3 {
		t.Fatalf("expected 3 conversations, got %d", resp.Total)
	}

	want := map[string]string{
		"971500000001": "pending",
		"971500000002": "replied",
		"971500000003": "new",
	}
	for _, conv := range resp.Conversations {
		if conv.Status != want[conv.CustomerPhone] {
			t.Errorf("phone %s: expected status %s, got %s", conv.CustomerPhone, want[conv.CustomerPhone], conv.Status)
		}
	}
}

func TestSetOrgAutoReply_PublishesOrgWideEvent(t *testing.T) {
	org := uuid.New()
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newTestService(repo, &fakeCatalog{}, &fakeTasks{}, bus)

	resp, err := svc.SetOrgAutoReply(context.Background(), org, false)
	if err != nil {
		t.Fatalf("set org auto reply: %v", err)
	}
	if resp.AutoReplyEnabled {
		t.Fatal("expected auto-reply disabled")
	}

	for _, e := range bus.published {
		if changed, ok := e.(events.AutoReplyChanged); ok {
			if changed.CustomerPhone != "" {
				t.Fatalf("org-wide event should have no customer phone, got %q", changed.CustomerPhone)
			}
			return
		}
	}
	t.Fatal("expected AutoReplyChanged event")
}
