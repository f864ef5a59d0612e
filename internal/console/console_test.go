package console

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	catalogdomain "orderdesk_backend/internal/catalog/domain"
	inboxdomain "orderdesk_backend/internal/inbox/domain"
	ordersdomain "orderdesk_backend/internal/orders/domain"
	"orderdesk_backend/platform/logger"
)

type fakeBackend struct {
	mu           sync.Mutex
	orders       []ordersdomain.Order
	messages     map[string][]inboxdomain.Message
	gates        map[string]chan struct{}
	autoReply    map[string]bool
	toggleErr    error
	orgToggleErr error
	merged       []uuid.UUID
	resolved     []string
}

var _ Backend = (*fakeBackend)(nil)

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		messages:  make(map[string][]inboxdomain.Message),
		gates:     make(map[string]chan struct{}),
		autoReply: make(map[string]bool),
	}
}

func (f *fakeBackend) ListOrders(_ context.Context, _ uuid.UUID) ([]ordersdomain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ordersdomain.Order, len(f.orders))
	copy(out, f.orders)
	return out, nil
}

func (f *fakeBackend) ListProducts(_ context.Context, _ uuid.UUID) ([]catalogdomain.Product, error) {
	return nil, nil
}

func (f *fakeBackend) SetOrderLines(_ context.Context, _, orderID uuid.UUID, lines []ordersdomain.OrderLine, _ string) (ordersdomain.Order, error) {
	return ordersdomain.Order{ID: orderID, Lines: lines}, nil
}

func (f *fakeBackend) SetOrderStatus(_ context.Context, _, orderID uuid.UUID, status ordersdomain.Status) (ordersdomain.Order, error) {
	return ordersdomain.Order{ID: orderID, Status: status}, nil
}

func (f *fakeBackend) MergeOrder(_ context.Context, _, orderID uuid.UUID) (ordersdomain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.merged = append(f.merged, orderID)
	var survivor ordersdomain.Order
	kept := f.orders[:0]
	for _, o := range f.orders {
		if o.ID == orderID {
			continue
		}
		kept = append(kept, o)
	}
	f.orders = kept
	if len(f.orders) > 0 {
		survivor = f.orders[0]
	}
	return survivor, nil
}

func (f *fakeBackend) ListConversations(_ context.Context, _ uuid.UUID) ([]inboxdomain.Conversation, error) {
	return nil, nil
}

func (f *fakeBackend) ListMessages(_ context.Context, _ uuid.UUID, phone string, _ int) ([]inboxdomain.Message, error) {
	f.mu.Lock()
	gate := f.gates[phone]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]inboxdomain.Message, len(f.messages[phone]))
	copy(out, f.messages[phone])
	return out, nil
}

func (f *fakeBackend) SendMessage(_ context.Context, orgID uuid.UUID, phone, text string) (inboxdomain.Message, error) {
	msg := inboxdomain.Message{
		ID:             uuid.New(),
		OrganizationID: orgID,
		CustomerPhone:  phone,
		Direction:      inboxdomain.DirectionOut,
		Text:           text,
		CreatedAt:      time.Now(),
	}
	f.mu.Lock()
	f.messages[phone] = append(f.messages[phone], msg)
	f.mu.Unlock()
	return msg, nil
}

func (f *fakeBackend) CustomerAutoReply(_ context.Context, orgID uuid.UUID, phone string) (inboxdomain.InteractionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	enabled, ok := f.autoReply[phone]
	if !ok {
		enabled = true
	}
	return inboxdomain.InteractionState{
		OrganizationID:   orgID,
		CustomerPhone:    phone,
		AutoReplyEnabled: enabled,
	}, nil
}

func (f *fakeBackend) SetCustomerAutoReply(_ context.Context, _ uuid.UUID, phone string, enabled bool) error {
	if f.toggleErr != nil {
		return f.toggleErr
	}
	f.mu.Lock()
	f.autoReply[phone] = enabled
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) SetOrgAutoReply(_ context.Context, _ uuid.UUID, _ bool) error {
	return f.orgToggleErr
}

func (f *fakeBackend) ResolveInquiry(_ context.Context, _ uuid.UUID, phone string) error {
	f.mu.Lock()
	f.resolved = append(f.resolved, phone)
	f.mu.Unlock()
	return nil
}

func message(phone, text string, direction inboxdomain.Direction, at time.Time) inboxdomain.Message {
	return inboxdomain.Message{
		ID:            uuid.New(),
		CustomerPhone: phone,
		Direction:     direction,
		Text:          text,
		CreatedAt:     at,
	}
}

func newTestConsole(backend Backend) *Console {
	return New(backend, logger.New("development"), uuid.New())
}

func TestSetCustomerAutoReply_RollsBackOnFailure(t *testing.T) {
	backend := newFakeBackend()
	c := newTestConsole(backend)
	ctx := context.Background()

	// seed the local toggle
	if enabled, err := c.CustomerAutoReply(ctx, "971500000001"); err != nil || !enabled {
		t.Fatalf("expected enabled toggle, got %v %v", enabled, err)
	}

	backend.toggleErr = errors.New("backend down")
	if err := c.SetCustomerAutoReply(ctx, "971500000001", false); err == nil {
		t.Fatal("expected toggle error")
	}

	enabled, err := c.CustomerAutoReply(ctx, "971500000001")
	if err != nil {
		t.Fatalf("read toggle: %v", err)
	}
	if !enabled {
		t.Fatal("toggle should have rolled back to enabled")
	}
}

func TestSetOrgAutoReply_RollsBackOnFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.orgToggleErr = errors.New("backend down")
	c := newTestConsole(backend)

	if err := c.SetOrgAutoReply(context.Background(), false); err == nil {
		t.Fatal("expected toggle error")
	}
	if !c.OrgAutoReply() {
		t.Fatal("org toggle should have rolled back to enabled")
	}
}

func TestPollMessages_Deduplicates(t *testing.T) {
	backend := newFakeBackend()
	base := time.Now()
	backend.messages["971500000001"] = []inboxdomain.Message{
		message("971500000001", "2 kg onion", inboxdomain.DirectionIn, base),
		message("971500000001", "noted", inboxdomain.DirectionOut, base.Add(time.Minute)),
	}
	c := newTestConsole(backend)
	ctx := context.Background()

	if err := c.SelectConversation(ctx, "971500000001"); err != nil {
		t.Fatalf("select: %v", err)
	}
	// a second poll returns the same window plus one new message
	backend.mu.Lock()
	backend.messages["971500000001"] = append(backend.messages["971500000001"],
		message("971500000001", "thanks", inboxdomain.DirectionIn, base.Add(2*time.Minute)))
	backend.mu.Unlock()

	if err := c.PollMessages(ctx); err != nil {
		t.Fatalf("poll: %v", err)
	}

	msgs := c.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 deduplicated messages, got %d", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt) {
			t.Fatal("messages must be ordered oldest first")
		}
	}
}

func TestSelectConversation_DiscardsStaleResponse(t *testing.T) {
	backend := newFakeBackend()
	base := time.Now()
	backend.messages["971500000001"] = []inboxdomain.Message{
		message("971500000001", "old thread", inboxdomain.DirectionIn, base),
	}
	backend.messages["971500000002"] = []inboxdomain.Message{
		message("971500000002", "new thread", inboxdomain.DirectionIn, base),
	}
	gate := make(chan struct{})
	backend.gates["971500000001"] = gate

	c := newTestConsole(backend)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		// blocks on the gate until after the second selection
		_ = c.SelectConversation(ctx, "971500000001")
	}()

	// switch threads while the first fetch is still in flight
	time.Sleep(10 * time.Millisecond)
	if err := c.SelectConversation(ctx, "971500000002"); err != nil {
		t.Fatalf("select: %v", err)
	}

	close(gate)
	wg.Wait()

	msgs := c.Messages()
	if len(msgs) != 1 || msgs[0].Text != "new thread" {
		t.Fatalf("stale response leaked into new thread: %+v", msgs)
	}
	if c.SelectedPhone() != "971500000002" {
		t.Fatalf("unexpected selection %q", c.SelectedPhone())
	}
}

func TestSendReply_AppendsAndMutesAutoReply(t *testing.T) {
	backend := newFakeBackend()
	c := newTestConsole(backend)
	ctx := context.Background()

	if err := c.SelectConversation(ctx, "971500000001"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := c.SendReply(ctx, "on its way"); err != nil {
		t.Fatalf("send: %v", err)
	}

	msgs := c.Messages()
	if len(msgs) != 1 || msgs[0].Direction != inboxdomain.DirectionOut {
		t.Fatalf("expected reply on thread, got %+v", msgs)
	}
	enabled, err := c.CustomerAutoReply(ctx, "971500000001")
	if err != nil {
		t.Fatalf("read toggle: %v", err)
	}
	if enabled {
		t.Fatal("sending a manual reply must mute auto-reply locally")
	}
}

func TestMergeActive_CollapsesPendingOrders(t *testing.T) {
	backend := newFakeBackend()
	base := time.Now()
	oldest := ordersdomain.Order{
		ID: uuid.New(), CustomerPhone: "971500000001",
		Status: ordersdomain.StatusPending, CreatedAt: base,
	}
	middle := ordersdomain.Order{
		ID: uuid.New(), CustomerPhone: "+971 50 000 0001",
		Status: ordersdomain.StatusPending, CreatedAt: base.Add(time.Hour),
	}
	newest := ordersdomain.Order{
		ID: uuid.New(), CustomerPhone: "971500000001",
		Status: ordersdomain.StatusPending, CreatedAt: base.Add(2 * time.Hour),
	}
	backend.orders = []ordersdomain.Order{oldest, middle, newest}

	c := newTestConsole(backend)
	ctx := context.Background()
	if err := c.RefreshOrders(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := c.SelectConversation(ctx, "971500000001"); err != nil {
		t.Fatalf("select: %v", err)
	}

	if err := c.MergeActive(ctx); err != nil {
		t.Fatalf("merge: %v", err)
	}

	if len(backend.merged) != 2 {
		t.Fatalf("expected 2 merges, got %v", backend.merged)
	}
	// newest first, oldest pending survives
	if backend.merged[0] != newest.ID || backend.merged[1] != middle.ID {
		t.Fatalf("unexpected merge order: %v", backend.merged)
	}

	sess := c.CustomerSession()
	if len(sess.Live) != 1 || sess.Live[0].ID != oldest.ID {
		t.Fatalf("expected oldest order to survive, got %+v", sess.Live)
	}
}
