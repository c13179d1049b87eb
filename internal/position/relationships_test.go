package position

import (
	"context"
	"testing"
	"time"

	"aster-trading-bot/internal/database"
	"aster-trading-bot/internal/exchange"
)

func TestLatestRelationships(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("newest created_at wins per tranche", func(t *testing.T) {
		rows := []database.OrderRelationship{
			{ID: 1, TrancheID: intRef(0), TPOrderID: int64Ref(101), CreatedAt: base},
			{ID: 2, TrancheID: intRef(0), TPOrderID: int64Ref(102), CreatedAt: base.Add(time.Minute)},
			{ID: 3, TrancheID: intRef(0), TPOrderID: int64Ref(103), CreatedAt: base.Add(2 * time.Minute)},
			{ID: 4, TrancheID: intRef(1), SLOrderID: int64Ref(201), CreatedAt: base},
		}

		latest := latestRelationships(rows)

		if len(latest) != 2 {
			t.Fatalf("expected one row per tranche, got %d", len(latest))
		}
		if latest[0].TPOrderID == nil || *latest[0].TPOrderID != 103 {
			t.Errorf("tranche 0 must resolve to the newest row, got %+v", latest[0])
		}
		if latest[1].SLOrderID == nil || *latest[1].SLOrderID != 201 {
			t.Errorf("tranche 1 resolution clobbered by tranche 0 rows, got %+v", latest[1])
		}
	})

	t.Run("insertion order does not matter", func(t *testing.T) {
		rows := []database.OrderRelationship{
			{ID: 3, TrancheID: intRef(0), TPOrderID: int64Ref(103), CreatedAt: base.Add(2 * time.Minute)},
			{ID: 1, TrancheID: intRef(0), TPOrderID: int64Ref(101), CreatedAt: base},
			{ID: 2, TrancheID: intRef(0), TPOrderID: int64Ref(102), CreatedAt: base.Add(time.Minute)},
		}

		latest := latestRelationships(rows)

		if len(latest) != 1 || *latest[0].TPOrderID != 103 {
			t.Errorf("expected tp 103 regardless of slice order, got %+v", latest)
		}
	})

	t.Run("created_at tie breaks by id", func(t *testing.T) {
		rows := []database.OrderRelationship{
			{ID: 7, TrancheID: intRef(0), TPOrderID: int64Ref(107), CreatedAt: base},
			{ID: 9, TrancheID: intRef(0), TPOrderID: int64Ref(109), CreatedAt: base},
			{ID: 8, TrancheID: intRef(0), TPOrderID: int64Ref(108), CreatedAt: base},
		}

		latest := latestRelationships(rows)

		if len(latest) != 1 || *latest[0].TPOrderID != 109 {
			t.Errorf("expected the highest id to win the tie, got %+v", latest)
		}
	})

	t.Run("untagged rows form their own group", func(t *testing.T) {
		rows := []database.OrderRelationship{
			{ID: 1, TrancheID: nil, TPOrderID: int64Ref(301), CreatedAt: base},
			{ID: 2, TrancheID: nil, TPOrderID: int64Ref(302), CreatedAt: base.Add(time.Minute)},
			{ID: 3, TrancheID: intRef(0), TPOrderID: int64Ref(303), CreatedAt: base},
		}

		latest := latestRelationships(rows)

		if len(latest) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(latest))
		}
		if latest[0].TPOrderID == nil || *latest[0].TPOrderID != 303 {
			t.Errorf("tagged rows sort first, got %+v", latest[0])
		}
		if latest[1].TPOrderID == nil || *latest[1].TPOrderID != 302 {
			t.Errorf("untagged group must keep only its newest row, got %+v", latest[1])
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := latestRelationships(nil); len(got) != 0 {
			t.Errorf("expected empty result, got %+v", got)
		}
	})
}

func TestGetPositionDetailIgnoresStaleRelationships(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	client := &fakeClient{
		openOrders: []exchange.Order{
			{OrderId: 101, Type: "LIMIT", Status: "NEW", OrigQty: 1, Price: 64000, Side: "SELL"},
			{OrderId: 102, Type: "LIMIT", Status: "NEW", OrigQty: 1, Price: 65000, Side: "SELL"},
		},
	}
	ledger := &fakeLedger{
		tranches: []database.Tranche{
			{TrancheID: 0, TotalQuantity: 1, AvgEntryPrice: 60000},
		},
		relationships: []database.OrderRelationship{
			{ID: 1, TrancheID: intRef(0), TPOrderID: int64Ref(101), CreatedAt: base},
			{ID: 2, TrancheID: intRef(0), TPOrderID: int64Ref(102), CreatedAt: base.Add(time.Minute)},
		},
	}
	svc := newTestService(client, ledger)

	detail, err := svc.GetPositionDetail(context.Background(), "BTCUSDT", "LONG")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(detail.OrderRelationships) != 1 {
		t.Fatalf("expected only the newest relationship row, got %d", len(detail.OrderRelationships))
	}
	if *detail.OrderRelationships[0].TPOrderID != 102 {
		t.Errorf("expected tp 102, got %d", *detail.OrderRelationships[0].TPOrderID)
	}

	if got := detail.OrderStatuses[102].Type; got != "TP_LIMIT" {
		t.Errorf("current tp order must classify as TP_LIMIT, got %q", got)
	}
	if _, ok := detail.OrderStatuses[101]; ok {
		t.Error("superseded tp order id must not be classified")
	}

	if len(detail.Tranches) != 1 {
		t.Fatalf("expected 1 tranche, got %d", len(detail.Tranches))
	}
	if tp := detail.Tranches[0].TPOrderID; tp == nil || *tp != 102 {
		t.Errorf("tranche view must carry the newest tp id, got %v", tp)
	}
}
