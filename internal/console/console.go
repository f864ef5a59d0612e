package console

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	inboxdomain "orderdesk_backend/internal/inbox/domain"
	ordersdomain "orderdesk_backend/internal/orders/domain"
	"orderdesk_backend/internal/orders/session"
	"orderdesk_backend/platform/logger"
)

// Console is the in-memory state behind an operator's screen. All
// reads and writes go through the mutex; backend calls happen outside
// it so a slow network never blocks the UI state.
type Console struct {
	backend Backend
	log     *logger.Logger
	orgID   uuid.UUID

	mu            sync.Mutex
	orders        []ordersdomain.Order
	conversations []inboxdomain.Conversation
	messages      []inboxdomain.Message
	seen          map[string]struct{}
	selectedPhone string
	selection     uint64
	autoReply     map[string]bool
	orgAutoReply  bool
	pinnedOrder   uuid.UUID
}

func New(backend Backend, log *logger.Logger, orgID uuid.UUID) *Console {
	return &Console{
		backend:      backend,
		log:          log,
		orgID:        orgID,
		seen:         make(map[string]struct{}),
		autoReply:    make(map[string]bool),
		orgAutoReply: true,
	}
}

// RefreshOrders reloads the order list from the backend.
func (c *Console) RefreshOrders(ctx context.Context) error {
	orders, err := c.backend.ListOrders(ctx, c.orgID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.orders = orders
	c.mu.Unlock()
	return nil
}

// RefreshConversations reloads the inbox thread list.
func (c *Console) RefreshConversations(ctx context.Context) error {
	conversations, err := c.backend.ListConversations(ctx, c.orgID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conversations = conversations
	c.mu.Unlock()
	return nil
}

// Orders returns a copy of the current order list.
func (c *Console) Orders() []ordersdomain.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ordersdomain.Order, len(c.orders))
	copy(out, c.orders)
	return out
}

// Conversations returns a copy of the current thread list.
func (c *Console) Conversations() []inboxdomain.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]inboxdomain.Conversation, len(c.conversations))
	copy(out, c.conversations)
	return out
}

// Messages returns a copy of the selected thread's messages, oldest
// first.
func (c *Console) Messages() []inboxdomain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]inboxdomain.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// SelectedPhone returns the currently open thread's phone key.
func (c *Console) SelectedPhone() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedPhone
}

// SelectConversation opens a thread and loads its messages. Switching
// threads bumps the selection generation; a fetch that completes after
// another thread was selected is discarded instead of overwriting the
// newer thread's messages.
func (c *Console) SelectConversation(ctx context.Context, phone string) error {
	c.mu.Lock()
	c.selectedPhone = phone
	c.selection++
	generation := c.selection
	c.messages = nil
	c.seen = make(map[string]struct{})
	c.pinnedOrder = uuid.Nil
	c.mu.Unlock()

	messages, err := c.backend.ListMessages(ctx, c.orgID, phone, 0)
	if err != nil {
		return err
	}
	c.ingest(generation, messages)
	return nil
}

// PollMessages refetches the open thread. New messages are appended;
// ones already on screen are deduplicated.
func (c *Console) PollMessages(ctx context.Context) error {
	c.mu.Lock()
	phone := c.selectedPhone
	generation := c.selection
	c.mu.Unlock()
	if phone == "" {
		return nil
	}

	messages, err := c.backend.ListMessages(ctx, c.orgID, phone, 0)
	if err != nil {
		return err
	}
	c.ingest(generation, messages)
	return nil
}

// ingest merges fetched messages into the open thread, dropping
// duplicates and whole responses that belong to a stale selection.
func (c *Console) ingest(generation uint64, messages []inboxdomain.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.selection {
		c.log.Debug("stale message response discarded", "generation", generation)
		return
	}
	for _, msg := range messages {
		key := msg.Key()
		if _, dup := c.seen[key]; dup {
			continue
		}
		c.seen[key] = struct{}{}
		c.messages = append(c.messages, msg)
	}
	sort.SliceStable(c.messages, func(i, j int) bool {
		return c.messages[i].CreatedAt.Before(c.messages[j].CreatedAt)
	})
}

// SendReply sends an operator message on the open thread. The server
// resolves the customer's inquiry and disables their auto-reply as a
// side effect, so the local toggle mirrors that.
func (c *Console) SendReply(ctx context.Context, text string) error {
	c.mu.Lock()
	phone := c.selectedPhone
	generation := c.selection
	c.mu.Unlock()
	if phone == "" {
		return nil
	}

	msg, err := c.backend.SendMessage(ctx, c.orgID, phone, text)
	if err != nil {
		return err
	}
	c.ingest(generation, []inboxdomain.Message{msg})

	c.mu.Lock()
	c.autoReply[phone] = false
	c.mu.Unlock()
	return nil
}

// CustomerAutoReply returns the locally known toggle for a customer,
// fetching from the backend the first time.
func (c *Console) CustomerAutoReply(ctx context.Context, phone string) (bool, error) {
	c.mu.Lock()
	enabled, known := c.autoReply[phone]
	c.mu.Unlock()
	if known {
		return enabled, nil
	}

	state, err := c.backend.CustomerAutoReply(ctx, c.orgID, phone)
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	c.autoReply[phone] = state.AutoReplyEnabled
	c.mu.Unlock()
	return state.AutoReplyEnabled, nil
}

// SetCustomerAutoReply flips a customer's auto-reply optimistically.
// The toggle updates on screen at once and reverts if the backend
// rejects the change.
func (c *Console) SetCustomerAutoReply(ctx context.Context, phone string, enabled bool) error {
	c.mu.Lock()
	previous, known := c.autoReply[phone]
	c.mu.Unlock()

	return Run(ctx, Command{
		Apply: func() {
			c.mu.Lock()
			c.autoReply[phone] = enabled
			c.mu.Unlock()
		},
		Commit: func(ctx context.Context) error {
			return c.backend.SetCustomerAutoReply(ctx, c.orgID, phone, enabled)
		},
		Rollback: func() {
			c.mu.Lock()
			if known {
				c.autoReply[phone] = previous
			} else {
				delete(c.autoReply, phone)
			}
			c.mu.Unlock()
		},
	})
}

// SetOrgAutoReply flips the organization-wide default optimistically.
func (c *Console) SetOrgAutoReply(ctx context.Context, enabled bool) error {
	c.mu.Lock()
	previous := c.orgAutoReply
	c.mu.Unlock()

	return Run(ctx, Command{
		Apply: func() {
			c.mu.Lock()
			c.orgAutoReply = enabled
			c.mu.Unlock()
		},
		Commit: func(ctx context.Context) error {
			return c.backend.SetOrgAutoReply(ctx, c.orgID, enabled)
		},
		Rollback: func() {
			c.mu.Lock()
			c.orgAutoReply = previous
			c.mu.Unlock()
		},
	})
}

// OrgAutoReply returns the locally known org-wide toggle.
func (c *Console) OrgAutoReply() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orgAutoReply
}

// ResolveInquiry closes the open inquiry on a thread.
func (c *Console) ResolveInquiry(ctx context.Context, phone string) error {
	return c.backend.ResolveInquiry(ctx, c.orgID, phone)
}

// PinOrder marks one of the customer's live orders as the one being
// worked on; it becomes the session's active order.
func (c *Console) PinOrder(orderID uuid.UUID) {
	c.mu.Lock()
	c.pinnedOrder = orderID
	c.mu.Unlock()
}

// CustomerSession groups the cached orders for the open thread's
// customer into live and past, with the active order picked out.
func (c *Console) CustomerSession() session.Session {
	c.mu.Lock()
	phone := c.selectedPhone
	pinned := c.pinnedOrder
	orders := make([]ordersdomain.Order, len(c.orders))
	copy(orders, c.orders)
	c.mu.Unlock()

	return session.For(phone, pinned, orders)
}

// MergeActive collapses the open customer's pending orders into the
// oldest one, then reloads orders so the view reflects the result.
func (c *Console) MergeActive(ctx context.Context) error {
	sess := c.CustomerSession()
	survivor, toMerge := session.MergePlan(sess)
	if survivor == nil {
		return nil
	}

	for _, order := range toMerge {
		if _, err := c.backend.MergeOrder(ctx, c.orgID, order.ID); err != nil {
			return err
		}
	}
	return c.RefreshOrders(ctx)
}
