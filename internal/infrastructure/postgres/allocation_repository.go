package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/pos-stock-core/internal/domain/entity"
	"github.com/jhoicas/pos-stock-core/internal/domain/repository"
)

var _ repository.AllocationRepository = (*AllocationRepo)(nil)

// AllocationRepo implementación del índice de asignaciones sobre PostgreSQL
// (usable con pool o tx). Tabla append-only.
type AllocationRepo struct {
	q Querier
}

// NewAllocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAllocationRepository(q Querier) *AllocationRepo {
	return &AllocationRepo{q: q}
}

// Create persiste una asignación (porción de salida financiada por un lote).
func (r *AllocationRepo) Create(a *entity.AllocationRecord) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_allocations
			(id, outbound_movement_id, inbound_movement_id, product_id, quantity, unit_price, expiry_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		a.ID, a.OutboundMovementID, a.InboundMovementID, a.ProductID,
		a.Quantity, a.UnitPrice, a.ExpiryDate, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create allocation: %w", translateError(err))
	}
	return nil
}

// ListByOutbound lista las asignaciones de una salida en orden de consumo.
func (r *AllocationRepo) ListByOutbound(outboundMovementID string) ([]*entity.AllocationRecord, error) {
	query := `
		SELECT id, outbound_movement_id, inbound_movement_id, product_id, quantity, unit_price, expiry_date, created_at
		FROM stock_allocations WHERE outbound_movement_id = $1
		ORDER BY created_at ASC, id ASC`
	rows, err := r.q.Query(context.Background(), query, outboundMovementID)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()
	var list []*entity.AllocationRecord
	for rows.Next() {
		var a entity.AllocationRecord
		if err := rows.Scan(&a.ID, &a.OutboundMovementID, &a.InboundMovementID, &a.ProductID,
			&a.Quantity, &a.UnitPrice, &a.ExpiryDate, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}

// SumByInbound suma lo asignado contra un lote de entrada.
func (r *AllocationRepo) SumByInbound(inboundMovementID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0) FROM stock_allocations
		WHERE inbound_movement_id = $1`
	var sum decimal.Decimal
	if err := r.q.QueryRow(context.Background(), query, inboundMovementID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum by inbound: %w", err)
	}
	return sum, nil
}

// SumByProduct suma todo lo asignado de un producto (para disponibilidad).
func (r *AllocationRepo) SumByProduct(productID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0) FROM stock_allocations
		WHERE product_id = $1`
	var sum decimal.Decimal
	if err := r.q.QueryRow(context.Background(), query, productID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum by product: %w", err)
	}
	return sum, nil
}
