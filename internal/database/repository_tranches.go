package database

import (
	"context"
	"fmt"
)

// ListTranches retrieves all tranches for a symbol and position side,
// ordered by tranche id ascending
func (db *DB) ListTranches(ctx context.Context, symbol, positionSide string) ([]Tranche, error) {
	query := `
		SELECT id, tranche_id, symbol, position_side, total_quantity, avg_entry_price,
			tp_order_id, sl_order_id, unrealized_pnl, created_at, updated_at
		FROM position_tranches
		WHERE symbol = $1 AND position_side = $2
		ORDER BY tranche_id ASC`

	rows, err := db.Pool.Query(ctx, query, symbol, positionSide)
	if err != nil {
		return nil, fmt.Errorf("failed to list tranches: %w", err)
	}
	defer rows.Close()

	var tranches []Tranche
	for rows.Next() {
		var t Tranche
		err := rows.Scan(
			&t.ID, &t.TrancheID, &t.Symbol, &t.PositionSide, &t.TotalQuantity,
			&t.AvgEntryPrice, &t.TPOrderID, &t.SLOrderID, &t.UnrealizedPnl,
			&t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tranche: %w", err)
		}
		tranches = append(tranches, t)
	}

	return tranches, rows.Err()
}

// UpsertTranche creates or updates a tranche row
func (db *DB) UpsertTranche(ctx context.Context, t *Tranche) error {
	query := `
		INSERT INTO position_tranches (
			tranche_id, symbol, position_side, total_quantity, avg_entry_price,
			tp_order_id, sl_order_id, unrealized_pnl
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, position_side, tranche_id) DO UPDATE SET
			total_quantity = EXCLUDED.total_quantity,
			avg_entry_price = EXCLUDED.avg_entry_price,
			tp_order_id = EXCLUDED.tp_order_id,
			sl_order_id = EXCLUDED.sl_order_id,
			unrealized_pnl = EXCLUDED.unrealized_pnl,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id`

	err := db.Pool.QueryRow(ctx, query,
		t.TrancheID, t.Symbol, t.PositionSide, t.TotalQuantity, t.AvgEntryPrice,
		t.TPOrderID, t.SLOrderID, t.UnrealizedPnl,
	).Scan(&t.ID)

	if err != nil {
		return fmt.Errorf("failed to upsert tranche: %w", err)
	}
	return nil
}

// DeleteTranches removes all tranches for a symbol and position side.
// Called after a position close completes.
func (db *DB) DeleteTranches(ctx context.Context, symbol, positionSide string) error {
	query := `DELETE FROM position_tranches WHERE symbol = $1 AND position_side = $2`
	if _, err := db.Pool.Exec(ctx, query, symbol, positionSide); err != nil {
		return fmt.Errorf("failed to delete tranches: %w", err)
	}
	return nil
}
