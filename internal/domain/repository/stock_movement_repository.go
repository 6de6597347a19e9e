package repository

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/pos-stock-core/internal/domain/entity"
	"github.com/jhoicas/pos-stock-core/internal/domain/inventory"
)

// StockMovementRepository persistencia del libro de stock (append-only;
// solo la descripción es mutable, y el total de las salidas se fija una
// única vez al terminar la asignación, dentro de la misma transacción).
type StockMovementRepository interface {
	Create(m *entity.StockMovement) error
	GetByID(id string) (*entity.StockMovement, error)
	// SetTotalValue fija el costo real de una salida tras asignar. Solo lo
	// usa el asignador dentro de la transacción que creó el movimiento.
	SetTotalValue(id string, total decimal.Decimal) error
	ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)

	// ListOpenInboundForUpdate devuelve los lotes de entrada del producto con
	// su restante (cantidad − asignado), ordenados por vencimiento ASC NULLS
	// LAST, luego created_at ASC, luego id ASC, bloqueando las filas
	// (SELECT FOR UPDATE) hasta el fin de la transacción. El restante se
	// calcula DESPUÉS de adquirir los bloqueos: lo que ve el caller ya
	// incluye todo lo confirmado por transacciones contendientes.
	ListOpenInboundForUpdate(productID string) ([]inventory.BatchState, error)

	// Agregados para el calculador de disponibilidad (lectura sin bloqueo).
	SumQuantityByType(productID, movementType string) (decimal.Decimal, error)
	SumValueByType(productID, movementType string) (decimal.Decimal, error)
}
