package session

import (
	"testing"
	"time"

	"orderdesk_backend/internal/orders/domain"

	"github.com/google/uuid"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func order(phone string, status domain.Status, age time.Duration) domain.Order {
	return domain.Order{
		ID:            uuid.New(),
		CustomerPhone: phone,
		Status:        status,
		CreatedAt:     base.Add(-age),
	}
}

func TestFor_GroupsByPhoneDigits(t *testing.T) {
	orders := []domain.Order{
		order("+971 50 123 4567", domain.StatusPending, time.Hour),
		order("971501234567", domain.StatusPaid, 2*time.Hour),
		order("+971 55 999 0000", domain.StatusPending, time.Hour),
	}

	sess := For("9715 0123 4567", uuid.Nil, orders)

	if len(sess.All) != 2 {
		t.Fatalf("expected 2 orders for customer, got %d", len(sess.All))
	}
	if len(sess.Live) != 1 || len(sess.Past) != 1 {
		t.Fatalf("expected 1 live and 1 past, got %d/%d", len(sess.Live), len(sess.Past))
	}
}

func TestFor_AllIsNewestFirst(t *testing.T) {
	oldest := order("100", domain.StatusPaid, 3*time.Hour)
	middle := order("100", domain.StatusPending, 2*time.Hour)
	newest := order("100", domain.StatusPending, time.Hour)

	sess := For("100", uuid.Nil, []domain.Order{oldest, newest, middle})

	if sess.All[0].ID != newest.ID || sess.All[2].ID != oldest.ID {
		t.Fatal("expected reverse-chronological order")
	}
}

func TestFor_ActiveIsNewestLiveByDefault(t *testing.T) {
	shipped := order("100", domain.StatusShipped, time.Hour)
	pendingOld := order("100", domain.StatusPending, 2*time.Hour)
	paid := order("100", domain.StatusPaid, 30*time.Minute)

	sess := For("100", uuid.Nil, []domain.Order{pendingOld, shipped, paid})

	if sess.Active == nil || sess.Active.ID != shipped.ID {
		t.Fatalf("expected newest live order active, got %+v", sess.Active)
	}
}

func TestFor_PinnedOrderBeatsDefault(t *testing.T) {
	a := order("100", domain.StatusPending, time.Hour)
	b := order("100", domain.StatusPaid, 2*time.Hour)

	sess := For("100", b.ID, []domain.Order{a, b})

	if sess.Active == nil || sess.Active.ID != b.ID {
		t.Fatal("expected pinned order to be active")
	}
}

func TestFor_StalePinFallsBackToNewestLive(t *testing.T) {
	a := order("100", domain.StatusPending, time.Hour)

	sess := For("100", uuid.New(), []domain.Order{a})

	if sess.Active == nil || sess.Active.ID != a.ID {
		t.Fatal("expected fallback to newest live order")
	}
}

func TestFor_NoLiveOrdersMeansNoActive(t *testing.T) {
	sess := For("100", uuid.Nil, []domain.Order{
		order("100", domain.StatusPaid, time.Hour),
		order("100", domain.StatusCancelled, 2*time.Hour),
	})

	if sess.Active != nil {
		t.Fatalf("expected no active order, got %+v", sess.Active)
	}
}

func TestFor_BlankPhoneGroupsNothing(t *testing.T) {
	sess := For("n/a", uuid.Nil, []domain.Order{
		order("", domain.StatusPending, time.Hour),
		order("unknown", domain.StatusPending, 2*time.Hour),
	})

	if len(sess.All) != 0 {
		t.Fatalf("expected empty session for digitless phone, got %d orders", len(sess.All))
	}
}

func TestMergePlan_OldestPendingSurvives(t *testing.T) {
	oldest := order("100", domain.StatusPending, 3*time.Hour)
	middle := order("100", domain.StatusPending, 2*time.Hour)
	newest := order("100", domain.StatusPending, time.Hour)
	shipped := order("100", domain.StatusShipped, 90*time.Minute)

	sess := For("100", uuid.Nil, []domain.Order{middle, oldest, newest, shipped})
	survivor, toMerge := MergePlan(sess)

	if survivor == nil || survivor.ID != oldest.ID {
		t.Fatalf("expected oldest pending as survivor, got %+v", survivor)
	}
	if len(toMerge) != 2 {
		t.Fatalf("expected 2 orders to merge, got %d", len(toMerge))
	}
	if toMerge[0].ID != newest.ID || toMerge[1].ID != middle.ID {
		t.Fatal("expected merge queue newest first")
	}
}

func TestMergePlan_SinglePendingNothingToMerge(t *testing.T) {
	sess := For("100", uuid.Nil, []domain.Order{
		order("100", domain.StatusPending, time.Hour),
		order("100", domain.StatusShipped, 2*time.Hour),
	})

	survivor, toMerge := MergePlan(sess)
	if survivor != nil || toMerge != nil {
		t.Fatal("expected no merge plan for a single pending order")
	}
}
