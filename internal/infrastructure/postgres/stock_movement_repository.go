package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/pos-stock-core/internal/domain/entity"
	"github.com/jhoicas/pos-stock-core/internal/domain/inventory"
	"github.com/jhoicas/pos-stock-core/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación del libro de stock sobre PostgreSQL
// (usable con pool o tx).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, product_id, category_id, supplier_id, actor_id, movement_type,
		operation_type, quantity, unit_price, total_value, expiry_date, description,
		purchase_date, created_at`

// Create persiste un movimiento nuevo del libro.
func (r *StockMovementRepo) Create(m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(context.Background(), query,
		m.ID, m.ProductID, nullable(m.CategoryID), nullable(m.SupplierID), nullable(m.ActorID),
		m.MovementType, m.OperationType, m.Quantity, m.UnitPrice, m.TotalValue,
		m.ExpiryDate, m.Description, m.PurchaseDate, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", translateError(err))
	}
	return nil
}

// GetByID obtiene un movimiento por ID. Devuelve nil, nil si no existe.
func (r *StockMovementRepo) GetByID(id string) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE id = $1`
	row := r.q.QueryRow(context.Background(), query, id)
	m, err := scanMovement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// SetTotalValue fija el costo real de una salida tras la asignación
// (misma transacción que creó la fila).
func (r *StockMovementRepo) SetTotalValue(id string, total decimal.Decimal) error {
	query := `UPDATE stock_movements SET total_value = $2 WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, id, total)
	if err != nil {
		return fmt.Errorf("set total value: %w", translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set total value: movimiento %s no existe", id)
	}
	return nil
}

// ListByProduct lista movimientos de un producto en un rango de fechas.
func (r *StockMovementRepo) ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE product_id = $1`
	args := []any{productID}
	pos := 2
	if from != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list by product: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// ListOpenInboundForUpdate devuelve los lotes de entrada del producto con su
// restante, en el orden total de consumo, bloqueando las filas del libro
// hasta el fin de la transacción. Son dos sentencias a propósito: bajo
// READ COMMITTED el snapshot de una sentencia se fija ANTES de esperar los
// bloqueos, así que un agregado de asignaciones embebido en el propio SELECT
// FOR UPDATE no vería lo que la transacción contendiente confirmó mientras
// esperábamos, y dos salidas concurrentes consumirían el mismo lote dos
// veces. Primero se adquieren los bloqueos con un SELECT plano; la segunda
// sentencia corre ya con los bloqueos tomados, con snapshot nuevo, y su
// restante es definitivo.
func (r *StockMovementRepo) ListOpenInboundForUpdate(productID string) ([]inventory.BatchState, error) {
	lockQuery := `
		SELECT id FROM stock_movements
		WHERE product_id = $1 AND movement_type = $2
		FOR UPDATE`
	lockRows, err := r.q.Query(context.Background(), lockQuery, productID, entity.MovementTypeInbound)
	if err != nil {
		return nil, fmt.Errorf("lock inbound batches: %w", translateError(err))
	}
	for lockRows.Next() {
	}
	if err := lockRows.Err(); err != nil {
		lockRows.Close()
		return nil, fmt.Errorf("lock inbound batches: %w", translateError(err))
	}
	lockRows.Close()

	query := `
		SELECT m.id, m.quantity - COALESCE((
			SELECT SUM(a.quantity) FROM stock_allocations a
			WHERE a.inbound_movement_id = m.id
		), 0) AS remaining, m.unit_price, m.expiry_date, m.created_at
		FROM stock_movements m
		WHERE m.product_id = $1 AND m.movement_type = $2
		ORDER BY m.expiry_date ASC NULLS LAST, m.created_at ASC, m.id ASC`
	rows, err := r.q.Query(context.Background(), query, productID, entity.MovementTypeInbound)
	if err != nil {
		return nil, fmt.Errorf("read inbound batches: %w", err)
	}
	defer rows.Close()
	var batches []inventory.BatchState
	for rows.Next() {
		var b inventory.BatchState
		if err := rows.Scan(&b.MovementID, &b.Remaining, &b.UnitPrice, &b.ExpiryDate, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read inbound batches: %w", err)
	}
	return batches, nil
}

// SumQuantityByType suma cantidades de un tipo de movimiento para el producto.
func (r *StockMovementRepo) SumQuantityByType(productID, movementType string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0) FROM stock_movements
		WHERE product_id = $1 AND movement_type = $2`
	var sum decimal.Decimal
	if err := r.q.QueryRow(context.Background(), query, productID, movementType).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum quantity: %w", err)
	}
	return sum, nil
}

// SumValueByType suma valores totales de un tipo de movimiento para el producto.
func (r *StockMovementRepo) SumValueByType(productID, movementType string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(total_value), 0) FROM stock_movements
		WHERE product_id = $1 AND movement_type = $2`
	var sum decimal.Decimal
	if err := r.q.QueryRow(context.Background(), query, productID, movementType).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum value: %w", err)
	}
	return sum, nil
}

// scanMovement escanea una fila del libro (pgx.Row o pgx.Rows).
func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var categoryID, supplierID, actorID *string
	err := row.Scan(
		&m.ID, &m.ProductID, &categoryID, &supplierID, &actorID, &m.MovementType,
		&m.OperationType, &m.Quantity, &m.UnitPrice, &m.TotalValue, &m.ExpiryDate,
		&m.Description, &m.PurchaseDate, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if categoryID != nil {
		m.CategoryID = *categoryID
	}
	if supplierID != nil {
		m.SupplierID = *supplierID
	}
	if actorID != nil {
		m.ActorID = *actorID
	}
	return &m, nil
}

// nullable convierte "" en NULL para columnas opcionales.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
