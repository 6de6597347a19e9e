package repository

import (
	"github.com/shopspring/decimal"
	"github.com/jhoicas/pos-stock-core/internal/domain/entity"
)

// AllocationRepository persistencia del índice de asignaciones (append-only).
type AllocationRepository interface {
	Create(a *entity.AllocationRecord) error
	ListByOutbound(outboundMovementID string) ([]*entity.AllocationRecord, error)
	SumByInbound(inboundMovementID string) (decimal.Decimal, error)
	SumByProduct(productID string) (decimal.Decimal, error)
}
