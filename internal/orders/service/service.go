package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	catdomain "orderdesk_backend/internal/catalog/domain"
	"orderdesk_backend/internal/events"
	"orderdesk_backend/internal/orders/domain"
	"orderdesk_backend/internal/orders/lifecycle"
	"orderdesk_backend/internal/orders/ports"
	"orderdesk_backend/internal/orders/pricing"
	"orderdesk_backend/internal/orders/repository"
	"orderdesk_backend/internal/orders/session"
	"orderdesk_backend/internal/orders/summary"
	"orderdesk_backend/internal/orders/transport"
	"orderdesk_backend/internal/whatsapp"
	"orderdesk_backend/platform/apperr"
	"orderdesk_backend/platform/logger"
	"orderdesk_backend/platform/phone"
)

const defaultEditReason = "edited_replace"

// Service provides business logic for orders.
type Service struct {
	repo     repository.Repository
	catalog  ports.CatalogSource
	bus      events.Bus
	log      *logger.Logger
	currency string
}

// New creates a new orders service.
func New(repo repository.Repository, catalog ports.CatalogSource, bus events.Bus, log *logger.Logger, currency string) *Service {
	return &Service{repo: repo, catalog: catalog, bus: bus, log: log, currency: currency}
}

// Create ingests a new parsed order.
func (s *Service) Create(ctx context.Context, organizationID uuid.UUID, req transport.CreateOrderRequest) (transport.OrderResponse, error) {
	products := s.products(ctx, organizationID)
	lines := pricing.PriceLines(fromLineDTOs(req.Lines), products)

	order, err := s.repo.Create(ctx, repository.CreateOrderParams{
		OrganizationID:  organizationID,
		CustomerPhone:   req.CustomerPhone,
		CustomerName:    req.CustomerName,
		Status:          domain.StatusPending,
		Lines:           lines,
		OrderTotal:      req.OrderTotal,
		ParseReason:     req.ParseReason,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		return transport.OrderResponse{}, err
	}
	return toOrderResponse(order), nil
}

// List returns all orders for an organization with display pricing
// applied. Frozen orders come back exactly as stored.
func (s *Service) List(ctx context.Context, organizationID uuid.UUID) (transport.OrderListResponse, error) {
	orders, err := s.repo.ListByOrganization(ctx, organizationID)
	if err != nil {
		return transport.OrderListResponse{}, err
	}

	products := s.products(ctx, organizationID)
	items := make([]transport.OrderResponse, 0, len(orders))
	for _, order := range orders {
		items = append(items, toOrderResponse(pricing.EnrichForDisplay(order, products)))
	}
	return transport.OrderListResponse{Items: items, Total: len(items)}, nil
}

// Get returns a single order with display pricing applied.
func (s *Service) Get(ctx context.Context, organizationID, id uuid.UUID) (transport.OrderResponse, error) {
	order, err := s.repo.GetByID(ctx, organizationID, id)
	if err != nil {
		return transport.OrderResponse{}, err
	}
	return toOrderResponse(pricing.EnrichForDisplay(order, s.products(ctx, organizationID))), nil
}

// SetLines replaces an order's lines from an operator edit. Lines are
// re-priced against the catalog and the stored order total is cleared,
// since it covered the previous lines.
func (s *Service) SetLines(ctx context.Context, organizationID, id uuid.UUID, req transport.SetLinesRequest) (transport.OrderResponse, error) {
	current, err := s.repo.GetByID(ctx, organizationID, id)
	if err != nil {
		return transport.OrderResponse{}, err
	}
	if lifecycle.IsFrozen(current.Status) {
		return transport.OrderResponse{}, apperr.Conflict(fmt.Sprintf("order is %s; lines can no longer change", current.Status))
	}

	reason := req.Reason
	if reason == "" {
		reason = defaultEditReason
	}

	lines := pricing.PriceLines(fromLineDTOs(req.Lines), s.products(ctx, organizationID))
	order, err := s.repo.SetLines(ctx, repository.SetLinesParams{
		OrganizationID: organizationID,
		ID:             id,
		Lines:          lines,
		ClearTotal:     true,
		Reason:         reason,
	})
	if err != nil {
		return transport.OrderResponse{}, err
	}

	s.bus.Publish(ctx, events.OrderLinesUpdated{
		BaseEvent:      events.NewBaseEvent(),
		OrderID:        order.ID,
		OrganizationID: organizationID,
		Reason:         reason,
		LineCount:      len(order.Lines),
	})
	return toOrderResponse(order), nil
}

// SetStatus transitions an order. Moving into shipped or paid first
// persists a pricing snapshot so later catalog changes cannot alter
// what the customer was billed. A snapshot failure is logged but does
// not block the transition; the operator asked for a status change,
// not a pricing write.
func (s *Service) SetStatus(ctx context.Context, organizationID, id uuid.UUID, to domain.Status) (transport.OrderResponse, error) {
	if !to.Valid() {
		return transport.OrderResponse{}, apperr.Validation("unknown order status")
	}

	current, err := s.repo.GetByID(ctx, organizationID, id)
	if err != nil {
		return transport.OrderResponse{}, err
	}
	if !lifecycle.CanTransition(current.Status, to) {
		return transport.OrderResponse{}, apperr.Conflict(fmt.Sprintf("cannot move order from %s to %s", current.Status, to))
	}

	frozen := false
	if lifecycle.FreezesPricing(to) && !lifecycle.IsFrozen(current.Status) {
		frozen = s.freezePricing(ctx, current, to)
	}

	order, err := s.repo.SetStatus(ctx, organizationID, id, to)
	if err != nil {
		return transport.OrderResponse{}, err
	}

	s.log.OrderEvent("status_changed", order.ID.String(), string(to))
	s.bus.Publish(ctx, events.OrderStatusChanged{
		BaseEvent:      events.NewBaseEvent(),
		OrderID:        order.ID,
		OrganizationID: organizationID,
		FromStatus:     string(current.Status),
		ToStatus:       string(to),
		PricingFrozen:  frozen,
	})
	return toOrderResponse(order), nil
}

// freezePricing persists the enriched lines and current display total
// so the order's money state stops tracking the catalog.
func (s *Service) freezePricing(ctx context.Context, order domain.Order, to domain.Status) bool {
	enriched := pricing.EnrichForDisplay(order, s.products(ctx, order.OrganizationID))
	totals := pricing.OrderTotals(enriched)

	params := repository.SetLinesParams{
		OrganizationID: order.OrganizationID,
		ID:             order.ID,
		Lines:          enriched.Lines,
		Reason:         "freeze_pricing_on_" + string(to),
	}
	if totals.HasDisplay {
		params.OrderTotal = domain.Float(totals.Display)
	}

	if _, err := s.repo.SetLines(ctx, params); err != nil {
		s.log.Error("pricing freeze failed; continuing with status change",
			"order_id", order.ID.String(),
			"to_status", string(to),
			"error", err.Error(),
		)
		return false
	}
	return true
}

// SetShippingAddress updates the delivery address on an order.
func (s *Service) SetShippingAddress(ctx context.Context, organizationID, id uuid.UUID, address string) (transport.OrderResponse, error) {
	order, err := s.repo.SetShippingAddress(ctx, organizationID, id, address)
	if err != nil {
		return transport.OrderResponse{}, err
	}
	return toOrderResponse(order), nil
}

// Delete removes an order.
func (s *Service) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	return s.repo.Delete(ctx, organizationID, id)
}

// Session builds the customer session around the given order's phone.
func (s *Service) Session(ctx context.Context, organizationID uuid.UUID, customerPhone string, pinnedOrderID uuid.UUID) (transport.SessionResponse, error) {
	orders, err := s.repo.ListByCustomer(ctx, organizationID, phone.Digits(customerPhone))
	if err != nil {
		return transport.SessionResponse{}, err
	}

	products := s.products(ctx, organizationID)
	for i := range orders {
		orders[i] = pricing.EnrichForDisplay(orders[i], products)
	}

	sess := session.For(customerPhone, pinnedOrderID, orders)
	resp := transport.SessionResponse{
		CustomerPhone: customerPhone,
		All:           toOrderResponses(sess.All),
		Live:          toOrderResponses(sess.Live),
		Past:          toOrderResponses(sess.Past),
	}
	if sess.Active != nil {
		id := sess.Active.ID
		resp.ActiveOrderID = &id
	}
	return resp, nil
}

// MergePrevious merges the given order into the customer's next older
// pending order. Conflict when no such order exists.
func (s *Service) MergePrevious(ctx context.Context, organizationID, id uuid.UUID) (transport.OrderResponse, error) {
	order, err := s.repo.GetByID(ctx, organizationID, id)
	if err != nil {
		return transport.OrderResponse{}, err
	}
	if order.Status != domain.StatusPending {
		return transport.OrderResponse{}, apperr.Conflict("only pending orders can be merged")
	}

	orders, err := s.repo.ListByCustomer(ctx, organizationID, phone.Digits(order.CustomerPhone))
	if err != nil {
		return transport.OrderResponse{}, err
	}

	var target *domain.Order
	for i := range orders {
		candidate := orders[i]
		if candidate.ID == order.ID || candidate.Status != domain.StatusPending {
			continue
		}
		if candidate.CreatedAt.Before(order.CreatedAt) {
			if target == nil || candidate.CreatedAt.After(target.CreatedAt) {
				target = &orders[i]
			}
		}
	}
	if target == nil {
		return transport.OrderResponse{}, apperr.Conflict("no previous open order to merge into")
	}

	merged, err := s.repo.MergeInto(ctx, organizationID, order.ID, target.ID)
	if err != nil {
		return transport.OrderResponse{}, err
	}

	s.bus.Publish(ctx, events.OrdersMerged{
		BaseEvent:      events.NewBaseEvent(),
		SurvivorID:     merged.ID,
		MergedID:       order.ID,
		OrganizationID: organizationID,
		CustomerPhone:  merged.CustomerPhone,
	})
	return toOrderResponse(merged), nil
}

// MergeSession collapses all of a customer's pending orders into the
// oldest one, merging newest first.
func (s *Service) MergeSession(ctx context.Context, organizationID uuid.UUID, customerPhone string) (transport.MergeResponse, error) {
	orders, err := s.repo.ListByCustomer(ctx, organizationID, phone.Digits(customerPhone))
	if err != nil {
		return transport.MergeResponse{}, err
	}

	sess := session.For(customerPhone, uuid.Nil, orders)
	survivor, toMerge := session.MergePlan(sess)
	if survivor == nil {
		return transport.MergeResponse{}, apperr.Conflict("nothing to merge for this customer")
	}

	var merged domain.Order
	for _, source := range toMerge {
		merged, err = s.repo.MergeInto(ctx, organizationID, source.ID, survivor.ID)
		if err != nil {
			return transport.MergeResponse{}, err
		}
		s.bus.Publish(ctx, events.OrdersMerged{
			BaseEvent:      events.NewBaseEvent(),
			SurvivorID:     survivor.ID,
			MergedID:       source.ID,
			OrganizationID: organizationID,
			CustomerPhone:  customerPhone,
		})
	}

	return transport.MergeResponse{Survivor: toOrderResponse(merged), Merged: len(toMerge)}, nil
}

// Split moves the selected line indexes into a new pending order.
func (s *Service) Split(ctx context.Context, organizationID, id uuid.UUID, req transport.SplitRequest) (transport.SplitResponse, error) {
	order, err := s.repo.GetByID(ctx, organizationID, id)
	if err != nil {
		return transport.SplitResponse{}, err
	}
	if lifecycle.IsFrozen(order.Status) {
		return transport.SplitResponse{}, apperr.Conflict(fmt.Sprintf("order is %s; lines can no longer change", order.Status))
	}

	selected := make(map[int]bool, len(req.LineIndexes))
	for _, idx := range req.LineIndexes {
		if idx < 0 || idx >= len(order.Lines) {
			return transport.SplitResponse{}, apperr.Validation("line index out of range")
		}
		selected[idx] = true
	}
	if len(selected) == len(order.Lines) {
		return transport.SplitResponse{}, apperr.Validation("cannot split every line out of an order")
	}

	var kept, moved []domain.OrderLine
	for i, line := range order.Lines {
		if selected[i] {
			moved = append(moved, line)
		} else {
			kept = append(kept, line)
		}
	}

	original, created, err := s.repo.Split(ctx, organizationID, id, kept, moved)
	if err != nil {
		return transport.SplitResponse{}, err
	}
	return transport.SplitResponse{
		Original: toOrderResponse(original),
		Created:  toOrderResponse(created),
	}, nil
}

// Summary renders the bill text for an order, enriched for display.
func (s *Service) Summary(ctx context.Context, organizationID, id uuid.UUID) (transport.SummaryResponse, error) {
	order, err := s.repo.GetByID(ctx, organizationID, id)
	if err != nil {
		return transport.SummaryResponse{}, err
	}

	enriched := pricing.EnrichForDisplay(order, s.products(ctx, organizationID))
	text := summary.Build(enriched, s.currency)
	return transport.SummaryResponse{
		Text:    text,
		WebLink: whatsapp.WebLink(order.CustomerPhone, text),
	}, nil
}

// products fetches the catalog snapshot, degrading to no enrichment
// when the catalog is unavailable. Stored pricing still renders.
func (s *Service) products(ctx context.Context, organizationID uuid.UUID) []catdomain.Product {
	products, err := s.catalog.Products(ctx, organizationID)
	if err != nil {
		s.log.Error("catalog snapshot unavailable; serving stored pricing only",
			"organization_id", organizationID.String(),
			"error", err.Error(),
		)
		return nil
	}
	return products
}

func fromLineDTOs(dtos []transport.OrderLineDTO) []domain.OrderLine {
	lines := make([]domain.OrderLine, len(dtos))
	for i, dto := range dtos {
		lines[i] = domain.OrderLine{
			Qty:          dto.Qty,
			Unit:         dto.Unit,
			Canonical:    dto.Canonical,
			Variant:      dto.Variant,
			Brand:        dto.Brand,
			Notes:        dto.Notes,
			PricePerUnit: dto.PricePerUnit,
			LineTotal:    dto.LineTotal,
		}
	}
	return lines
}

func toLineDTOs(lines []domain.OrderLine) []transport.OrderLineDTO {
	dtos := make([]transport.OrderLineDTO, len(lines))
	for i, line := range lines {
		dtos[i] = transport.OrderLineDTO{
			Qty:          line.Qty,
			Unit:         line.Unit,
			Canonical:    line.Canonical,
			Variant:      line.Variant,
			Brand:        line.Brand,
			Notes:        line.Notes,
			PricePerUnit: line.PricePerUnit,
			LineTotal:    line.LineTotal,
		}
	}
	return dtos
}

func toOrderResponse(order domain.Order) transport.OrderResponse {
	totals := pricing.OrderTotals(order)
	resp := transport.OrderResponse{
		ID:              order.ID,
		CustomerPhone:   order.CustomerPhone,
		CustomerName:    order.CustomerName,
		Status:          string(order.Status),
		Frozen:          lifecycle.IsFrozen(order.Status),
		Lines:           toLineDTOs(domain.SanitizeLines(order.Lines)),
		OrderTotal:      order.OrderTotal,
		Subtotal:        totals.Subtotal,
		HasAnyPrice:     totals.HasAnyPrice,
		ParseReason:     order.ParseReason,
		LastEditReason:  order.LastEditReason,
		ShippingAddress: order.ShippingAddress,
		CreatedAt:       order.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       order.UpdatedAt.Format(time.RFC3339),
	}
	if totals.HasDisplay {
		resp.DisplayTotal = domain.Float(totals.Display)
	}
	return resp
}

func toOrderResponses(orders []domain.Order) []transport.OrderResponse {
	out := make([]transport.OrderResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, toOrderResponse(order))
	}
	return out
}
