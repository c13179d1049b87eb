package database

import (
	"context"
	"fmt"
	"time"
)

// ListOrderStatuses retrieves status snapshots for the given order ids
func (db *DB) ListOrderStatuses(ctx context.Context, symbol string, orderIDs []int64) ([]OrderStatusRecord, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT order_id, symbol, side, quantity, price, position_side, status, updated_at
		FROM order_status
		WHERE symbol = $1 AND order_id = ANY($2)`

	rows, err := db.Pool.Query(ctx, query, symbol, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list order statuses: %w", err)
	}
	defer rows.Close()

	var records []OrderStatusRecord
	for rows.Next() {
		var r OrderStatusRecord
		err := rows.Scan(
			&r.OrderID, &r.Symbol, &r.Side, &r.Quantity,
			&r.Price, &r.PositionSide, &r.Status, &r.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order status: %w", err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// UpsertOrderStatus writes or refreshes an order status snapshot
func (db *DB) UpsertOrderStatus(ctx context.Context, r *OrderStatusRecord) error {
	query := `
		INSERT INTO order_status (order_id, symbol, side, quantity, price, position_side, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (order_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			price = EXCLUDED.price,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`

	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now()
	}

	_, err := db.Pool.Exec(ctx, query,
		r.OrderID, r.Symbol, r.Side, r.Quantity, r.Price,
		r.PositionSide, r.Status, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert order status: %w", err)
	}
	return nil
}
