package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/pos-stock-core/internal/domain/entity"
	"github.com/jhoicas/pos-stock-core/internal/domain/repository"
	"github.com/jhoicas/pos-stock-core/pkg/logger"
)

// AvailabilityDTO disponibilidad y valor remanente de un producto.
type AvailabilityDTO struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Value     decimal.Decimal `json:"value"`
}

// AvailabilityCalculator deriva cantidad disponible y valor remanente del
// libro + índice de asignaciones. Solo lectura, sin bloqueos ni efectos:
// lee bajo el aislamiento normal del motor y no observa asignaciones en vuelo.
type AvailabilityCalculator struct {
	movRepo   repository.StockMovementRepository
	allocRepo repository.AllocationRepository
}

// NewAvailabilityCalculator construye el calculador con repos atados al pool.
func NewAvailabilityCalculator(
	movRepo repository.StockMovementRepository,
	allocRepo repository.AllocationRepository,
) *AvailabilityCalculator {
	return &AvailabilityCalculator{movRepo: movRepo, allocRepo: allocRepo}
}

// AvailableQuantity = Σ entradas − Σ asignaciones del producto.
// Como toda salida confirmada queda asignada exacta y completa, coincide
// siempre con Σ entradas − Σ salidas (ver test de la invariante).
func (c *AvailabilityCalculator) AvailableQuantity(productID string) (decimal.Decimal, error) {
	inbound, err := c.movRepo.SumQuantityByType(productID, entity.MovementTypeInbound)
	if err != nil {
		return decimal.Zero, err
	}
	allocated, err := c.allocRepo.SumByProduct(productID)
	if err != nil {
		return decimal.Zero, err
	}
	return inbound.Sub(allocated), nil
}

// StockValue = Σ(cantidad × precio de entrada) − Σ total de salidas:
// el valor remanente al costo original de adquisición.
func (c *AvailabilityCalculator) StockValue(productID string) (decimal.Decimal, error) {
	inboundValue, err := c.movRepo.SumValueByType(productID, entity.MovementTypeInbound)
	if err != nil {
		return decimal.Zero, err
	}
	outboundValue, err := c.movRepo.SumValueByType(productID, entity.MovementTypeOutbound)
	if err != nil {
		return decimal.Zero, err
	}
	return inboundValue.Sub(outboundValue), nil
}

// Availability devuelve cantidad y valor juntos (para el endpoint y el caché).
func (c *AvailabilityCalculator) Availability(productID string) (*AvailabilityDTO, error) {
	qty, err := c.AvailableQuantity(productID)
	if err != nil {
		return nil, err
	}
	value, err := c.StockValue(productID)
	if err != nil {
		return nil, err
	}
	return &AvailabilityDTO{ProductID: productID, Quantity: qty, Value: value}, nil
}

// CachedAvailability decora el calculador con un caché best-effort.
type CachedAvailability struct {
	calc  *AvailabilityCalculator
	cache AvailabilityCache
	log   *logger.Logger
}

// NewCachedAvailability construye el decorador. cache puede ser el Noop.
func NewCachedAvailability(calc *AvailabilityCalculator, cache AvailabilityCache, log *logger.Logger) *CachedAvailability {
	return &CachedAvailability{calc: calc, cache: cache, log: log}
}

// Availability intenta el caché y cae al cálculo real. Errores de caché se
// registran y se ignoran: nunca convierten una lectura válida en error.
func (c *CachedAvailability) Availability(ctx context.Context, productID string) (*AvailabilityDTO, error) {
	if cached, ok, err := c.cache.Get(ctx, productID); err != nil {
		c.log.Warn().Err(err).Str("product_id", productID).Msg("caché de disponibilidad: lectura falló")
	} else if ok {
		return cached, nil
	}
	dto, err := c.calc.Availability(productID)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, productID, dto); err != nil {
		c.log.Warn().Err(err).Str("product_id", productID).Msg("caché de disponibilidad: escritura falló")
	}
	return dto, nil
}

// Invalidate borra la entrada del producto tras una escritura confirmada.
func (c *CachedAvailability) Invalidate(ctx context.Context, productID string) {
	if err := c.cache.Invalidate(ctx, productID); err != nil {
		c.log.Warn().Err(err).Str("product_id", productID).Msg("caché de disponibilidad: invalidación falló")
	}
}
