package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del libro de stock.
const (
	MovementTypeInbound  = "inbound"  // entrada (compra, ajuste positivo)
	MovementTypeOutbound = "outbound" // salida (venta, merma, ajuste negativo)
)

// Tipos de operación más comunes. El campo es texto libre: el módulo de
// órdenes de compra o el de recetas pueden escribir los suyos.
const (
	OperationPurchase   = "purchase"
	OperationSale       = "sale"
	OperationWaste      = "waste"
	OperationAdjustment = "adjustment"
)

// StockMovement es una entrada del libro de stock (append-only).
// Para inbound: UnitPrice lo aporta el caller y TotalValue = Quantity * UnitPrice.
// Para outbound: TotalValue NUNCA lo aporta el caller; lo calcula el asignador
// FIFO como suma ponderada de los precios de los lotes consumidos.
// Un movimiento es inmutable una vez creado, salvo la descripción.
type StockMovement struct {
	ID            string
	ProductID     string
	CategoryID    string // etiqueta denormalizada, sin acoplamiento de comportamiento
	SupplierID    string // idem
	ActorID       string // usuario que registró el movimiento (auditoría)
	MovementType  string // inbound, outbound
	OperationType string // purchase, sale, waste, adjustment...
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	TotalValue    decimal.Decimal
	ExpiryDate    *time.Time // solo significativo en inbound
	Description   string
	PurchaseDate  time.Time
	CreatedAt     time.Time
}

// IsExpired indica si el lote (inbound con vencimiento) ya venció a la fecha dada.
func (m *StockMovement) IsExpired(now time.Time) bool {
	if m.ExpiryDate == nil {
		return false
	}
	return m.ExpiryDate.Before(now)
}

// ExpiresWithin indica si el lote vence dentro de la ventana dada y aún no
// venció. El borde es inclusivo: un lote que vence exactamente al cierre de
// la ventana cuenta como próximo a vencer.
func (m *StockMovement) ExpiresWithin(now time.Time, window time.Duration) bool {
	if m.ExpiryDate == nil || m.IsExpired(now) {
		return false
	}
	return !m.ExpiryDate.After(now.Add(window))
}
