package database

import (
	"context"
	"fmt"
)

// InsertRelationship appends a new tranche-to-order link event
func (db *DB) InsertRelationship(ctx context.Context, r *OrderRelationship) error {
	query := `
		INSERT INTO order_relationships (symbol, position_side, tranche_id, tp_order_id, sl_order_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := db.Pool.QueryRow(ctx, query,
		r.Symbol, r.PositionSide, r.TrancheID, r.TPOrderID, r.SLOrderID,
	).Scan(&r.ID, &r.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert order relationship: %w", err)
	}
	return nil
}

// LatestRelationship returns the most recent relationship row for a tranche
// that carries at least one protective order id. Returns nil when none exists.
func (db *DB) LatestRelationship(ctx context.Context, symbol, positionSide string, trancheID int) (*OrderRelationship, error) {
	query := `
		SELECT id, symbol, position_side, tranche_id, tp_order_id, sl_order_id, created_at
		FROM order_relationships
		WHERE symbol = $1 AND position_side = $2 AND tranche_id = $3
			AND (tp_order_id IS NOT NULL OR sl_order_id IS NOT NULL)
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	r := &OrderRelationship{}
	err := db.Pool.QueryRow(ctx, query, symbol, positionSide, trancheID).Scan(
		&r.ID, &r.Symbol, &r.PositionSide, &r.TrancheID,
		&r.TPOrderID, &r.SLOrderID, &r.CreatedAt,
	)
	if err != nil {
		if err.Error() == "no rows in result set" {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest relationship: %w", err)
	}

	return r, nil
}

// ListRelationships returns every relationship row carrying at least one
// protective order id for a symbol and position side, oldest first. Callers
// pick the authoritative row per tranche; the query is a plain ordered read.
func (db *DB) ListRelationships(ctx context.Context, symbol, positionSide string) ([]OrderRelationship, error) {
	query := `
		SELECT id, symbol, position_side, tranche_id, tp_order_id, sl_order_id, created_at
		FROM order_relationships
		WHERE symbol = $1 AND position_side = $2
			AND (tp_order_id IS NOT NULL OR sl_order_id IS NOT NULL)
		ORDER BY created_at ASC, id ASC`

	rows, err := db.Pool.Query(ctx, query, symbol, positionSide)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}
	defer rows.Close()

	var relationships []OrderRelationship
	for rows.Next() {
		var r OrderRelationship
		err := rows.Scan(
			&r.ID, &r.Symbol, &r.PositionSide, &r.TrancheID,
			&r.TPOrderID, &r.SLOrderID, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		relationships = append(relationships, r)
	}

	return relationships, rows.Err()
}
