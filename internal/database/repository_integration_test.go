package database

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// openTestDB connects to the database named by TEST_DATABASE_URL, runs
// migrations, and truncates every table so each test starts clean.
// Skips the test when the variable is unset.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(pool.Close)

	db := &DB{Pool: pool}
	if err := db.RunMigrations(ctx); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}

	tables := []string{"position_tranches", "trades", "order_relationships", "order_status"}
	for _, table := range tables {
		if _, err := pool.Exec(ctx, "TRUNCATE "+table+" RESTART IDENTITY"); err != nil {
			t.Fatalf("failed to truncate %s: %v", table, err)
		}
	}

	return db
}

func TestListTradesSideFilter(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	longEntry := &Trade{OrderID: 100, Symbol: "BTCUSDT", Side: "BUY", OrderType: "MARKET", Quantity: 1, Status: "FILLED"}
	shortEntry := &Trade{OrderID: 200, Symbol: "BTCUSDT", Side: "SELL", OrderType: "MARKET", Quantity: 1, Status: "FILLED"}
	for _, trade := range []*Trade{longEntry, shortEntry} {
		if err := db.InsertTrade(ctx, trade); err != nil {
			t.Fatalf("failed to insert entry: %v", err)
		}
	}

	// Protective children take the opposite side of their entry: the LONG
	// entry's take-profit is a SELL, the SHORT entry's stop is a BUY.
	longChild := &Trade{OrderID: 101, Symbol: "BTCUSDT", Side: "SELL", OrderType: "TAKE_PROFIT_MARKET", ParentOrderID: int64Ptr(100), Quantity: 1, Status: "NEW"}
	shortChild := &Trade{OrderID: 201, Symbol: "BTCUSDT", Side: "BUY", OrderType: "STOP_MARKET", ParentOrderID: int64Ptr(200), Quantity: 1, Status: "NEW"}
	for _, trade := range []*Trade{longChild, shortChild} {
		if err := db.InsertTrade(ctx, trade); err != nil {
			t.Fatalf("failed to insert child: %v", err)
		}
	}

	trades, err := db.ListTrades(ctx, "BTCUSDT", "LONG", 10)
	if err != nil {
		t.Fatalf("ListTrades failed: %v", err)
	}

	got := map[int64]bool{}
	for _, trade := range trades {
		got[trade.OrderID] = true
	}
	if len(trades) != 2 || !got[100] || !got[101] {
		t.Errorf("expected LONG entry 100 and its child 101, got %v", got)
	}
	if got[200] || got[201] {
		t.Errorf("SHORT side trades leaked into LONG listing: %v", got)
	}

	trades, err = db.ListTrades(ctx, "BTCUSDT", "SHORT", 10)
	if err != nil {
		t.Fatalf("ListTrades failed: %v", err)
	}
	got = map[int64]bool{}
	for _, trade := range trades {
		got[trade.OrderID] = true
	}
	if len(trades) != 2 || !got[200] || !got[201] {
		t.Errorf("expected SHORT entry 200 and its child 201, got %v", got)
	}
}

func TestListTradesKeepsOrphanChildren(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	// Child whose parent entry never got an audit row. It cannot be
	// attributed to a side, so both listings include it.
	orphan := &Trade{OrderID: 300, Symbol: "BTCUSDT", Side: "SELL", OrderType: "STOP_MARKET", ParentOrderID: int64Ptr(999), Quantity: 1, Status: "NEW"}
	if err := db.InsertTrade(ctx, orphan); err != nil {
		t.Fatalf("failed to insert orphan: %v", err)
	}

	for _, side := range []string{"LONG", "SHORT"} {
		trades, err := db.ListTrades(ctx, "BTCUSDT", side, 10)
		if err != nil {
			t.Fatalf("ListTrades %s failed: %v", side, err)
		}
		if len(trades) != 1 || trades[0].OrderID != 300 {
			t.Errorf("%s listing must keep the orphan child, got %+v", side, trades)
		}
	}
}

func TestInsertAndListRelationships(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	side := "LONG"
	rows := []*OrderRelationship{
		{Symbol: "BTCUSDT", PositionSide: &side, TrancheID: intPtr(0), TPOrderID: int64Ptr(101)},
		{Symbol: "BTCUSDT", PositionSide: &side, TrancheID: intPtr(0), TPOrderID: int64Ptr(102)},
		{Symbol: "BTCUSDT", PositionSide: &side, TrancheID: intPtr(1), SLOrderID: int64Ptr(201)},
		// No protective id: invisible to readers
		{Symbol: "BTCUSDT", PositionSide: &side, TrancheID: intPtr(2)},
	}
	for _, r := range rows {
		if err := db.InsertRelationship(ctx, r); err != nil {
			t.Fatalf("failed to insert relationship: %v", err)
		}
		if r.ID == 0 || r.CreatedAt.IsZero() {
			t.Fatalf("insert must return id and created_at, got %+v", r)
		}
	}

	listed, err := db.ListRelationships(ctx, "BTCUSDT", "LONG")
	if err != nil {
		t.Fatalf("ListRelationships failed: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 rows with protective ids, got %d", len(listed))
	}
	for i := 1; i < len(listed); i++ {
		prev, cur := listed[i-1], listed[i]
		if cur.CreatedAt.Before(prev.CreatedAt) ||
			(cur.CreatedAt.Equal(prev.CreatedAt) && cur.ID < prev.ID) {
			t.Errorf("rows out of order at %d: %+v before %+v", i, prev, cur)
		}
	}

	latest, err := db.LatestRelationship(ctx, "BTCUSDT", "LONG", 0)
	if err != nil {
		t.Fatalf("LatestRelationship failed: %v", err)
	}
	if latest == nil || latest.TPOrderID == nil || *latest.TPOrderID != 102 {
		t.Errorf("expected the second tranche-0 row, got %+v", latest)
	}

	latest, err = db.LatestRelationship(ctx, "ETHUSDT", "LONG", 0)
	if err != nil {
		t.Fatalf("LatestRelationship failed: %v", err)
	}
	if latest != nil {
		t.Errorf("expected nil for unknown symbol, got %+v", latest)
	}
}

func TestUpsertTranche(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	tranche := &Tranche{
		TrancheID:     0,
		Symbol:        "BTCUSDT",
		PositionSide:  "LONG",
		TotalQuantity: 1.5,
		AvgEntryPrice: 60000,
		TPOrderID:     int64Ptr(101),
	}
	if err := db.UpsertTranche(ctx, tranche); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	firstID := tranche.ID

	// Same key updates in place
	tranche.TotalQuantity = 2.5
	tranche.AvgEntryPrice = 61000
	tranche.TPOrderID = int64Ptr(102)
	if err := db.UpsertTranche(ctx, tranche); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if tranche.ID != firstID {
		t.Errorf("upsert must keep the row id, got %d then %d", firstID, tranche.ID)
	}

	listed, err := db.ListTranches(ctx, "BTCUSDT", "LONG")
	if err != nil {
		t.Fatalf("ListTranches failed: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 tranche after upsert, got %d", len(listed))
	}
	got := listed[0]
	if got.TotalQuantity != 2.5 || got.AvgEntryPrice != 61000 {
		t.Errorf("updated values not persisted: %+v", got)
	}
	if got.TPOrderID == nil || *got.TPOrderID != 102 {
		t.Errorf("expected tp order 102, got %v", got.TPOrderID)
	}

	if err := db.DeleteTranches(ctx, "BTCUSDT", "LONG"); err != nil {
		t.Fatalf("DeleteTranches failed: %v", err)
	}
	listed, err = db.ListTranches(ctx, "BTCUSDT", "LONG")
	if err != nil {
		t.Fatalf("ListTranches failed: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("expected no tranches after delete, got %d", len(listed))
	}
}

func intPtr(v int) *int { return &v }
