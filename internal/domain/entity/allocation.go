package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AllocationRecord vincula un movimiento de salida con el lote de entrada que
// lo financió, congelando precio y vencimiento al momento del consumo.
// Invariantes: la suma de asignaciones contra un lote nunca supera la cantidad
// original del lote; la suma de asignaciones de una salida confirmada es
// exactamente la cantidad solicitada.
type AllocationRecord struct {
	ID                 string
	OutboundMovementID string
	InboundMovementID  string
	ProductID          string // denormalizado para agregados por producto
	Quantity           decimal.Decimal
	UnitPrice          decimal.Decimal // copiado del lote al asignar
	ExpiryDate         *time.Time      // idem
	CreatedAt          time.Time
}
