package inventory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/pos-stock-core/internal/domain"
)

// NearExpiryWindow es la ventana fija de la alerta near_expiry. El sistema
// original usa 7 días sin histéresis; se preserva tal cual.
const NearExpiryWindow = 7 * 24 * time.Hour

// BatchState es la vista que el asignador necesita de un lote de entrada:
// cuánto le queda sin asignar y a qué precio/vencimiento entró.
type BatchState struct {
	MovementID string
	Remaining  decimal.Decimal
	UnitPrice  decimal.Decimal
	ExpiryDate *time.Time
	CreatedAt  time.Time
}

// AllocationLine es una porción del consumo tomada de un lote concreto,
// con precio y vencimiento congelados al momento de asignar.
type AllocationLine struct {
	InboundMovementID string
	Quantity          decimal.Decimal
	UnitPrice         decimal.Decimal
	ExpiryDate        *time.Time
}

// Plan es el resultado de recorrer los lotes: las líneas de asignación y el
// costo real de lo consumido (suma ponderada de precios de los lotes).
type Plan struct {
	Lines     []AllocationLine
	TotalCost decimal.Decimal
}

// SortBatches ordena lotes según el orden total determinista de consumo:
// vence-antes primero (sin vencimiento al final), luego recibido-antes,
// luego ID ascendente. Es el mismo orden que aplica el ORDER BY en SQL;
// existe para callers que traen los lotes sin ordenar (tests, fakes).
func SortBatches(batches []BatchState) {
	sort.SliceStable(batches, func(i, j int) bool {
		a, b := batches[i], batches[j]
		switch {
		case a.ExpiryDate == nil && b.ExpiryDate != nil:
			return false
		case a.ExpiryDate != nil && b.ExpiryDate == nil:
			return true
		case a.ExpiryDate != nil && b.ExpiryDate != nil && !a.ExpiryDate.Equal(*b.ExpiryDate):
			return a.ExpiryDate.Before(*b.ExpiryDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.MovementID < b.MovementID
	})
}

// PlanConsumption recorre los lotes EN EL ORDEN DADO y arma el plan de
// asignación para la cantidad solicitada: take = min(restante, faltante),
// congela precio y vencimiento del lote, acumula costo y corta al completar.
// Si al agotar los lotes queda faltante, devuelve InsufficientStockError con
// el faltante exacto y ningún plan: la salida se satisface completa o no se
// satisface.
func PlanConsumption(productID string, requested decimal.Decimal, batches []BatchState) (*Plan, error) {
	if requested.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	plan := &Plan{TotalCost: decimal.Zero}
	stillNeeded := requested
	for _, b := range batches {
		if stillNeeded.IsZero() {
			break
		}
		if b.Remaining.LessThanOrEqual(decimal.Zero) {
			continue
		}
		take := decimal.Min(b.Remaining, stillNeeded)
		plan.Lines = append(plan.Lines, AllocationLine{
			InboundMovementID: b.MovementID,
			Quantity:          take,
			UnitPrice:         b.UnitPrice,
			ExpiryDate:        b.ExpiryDate,
		})
		plan.TotalCost = plan.TotalCost.Add(take.Mul(b.UnitPrice))
		stillNeeded = stillNeeded.Sub(take)
	}

	if stillNeeded.GreaterThan(decimal.Zero) {
		return nil, &domain.InsufficientStockError{ProductID: productID, Shortfall: stillNeeded}
	}
	return plan, nil
}
