package ledger

import (
	"context"

	"github.com/jhoicas/pos-stock-core/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza que la salida, sus asignaciones y
// el costo calculado se confirman o revierten como una sola unidad.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		allocRepo repository.AllocationRepository,
	) error) error
}

// AvailabilityCache caché opcional delante de las lecturas de disponibilidad.
// Es una optimización externa: la corrección nunca depende de ella, por eso
// todo fallo del caché se registra y se ignora.
type AvailabilityCache interface {
	Get(ctx context.Context, productID string) (*AvailabilityDTO, bool, error)
	Set(ctx context.Context, productID string, value *AvailabilityDTO) error
	Invalidate(ctx context.Context, productID string) error
}

// NoopAvailabilityCache para despliegues sin Redis.
type NoopAvailabilityCache struct{}

func (NoopAvailabilityCache) Get(context.Context, string) (*AvailabilityDTO, bool, error) {
	return nil, false, nil
}
func (NoopAvailabilityCache) Set(context.Context, string, *AvailabilityDTO) error { return nil }
func (NoopAvailabilityCache) Invalidate(context.Context, string) error            { return nil }
