package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/pos-stock-core/internal/domain"
	"github.com/jhoicas/pos-stock-core/internal/domain/entity"
	"github.com/jhoicas/pos-stock-core/internal/domain/inventory"
	"github.com/jhoicas/pos-stock-core/internal/domain/repository"
	"github.com/jhoicas/pos-stock-core/pkg/logger"
)

// UseCase registra movimientos del libro de stock de forma transaccional.
// Las entradas son un insert plano; las salidas pasan por el asignador FIFO
// por vencimiento, que bloquea los lotes candidatos (SELECT FOR UPDATE),
// escribe las asignaciones y fija el costo real, todo en una transacción.
// Tras cada commit corre el trigger de alertas y se invalida el caché.
type UseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	alerts      *StockAlertTrigger
	cache       *CachedAvailability
	log         *logger.Logger
	now         func() time.Time
}

// NewUseCase construye el caso de uso. alerts y cache corren post-commit y
// son best-effort: sus fallos nunca afectan la escritura ya confirmada.
func NewUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	alerts *StockAlertTrigger,
	cache *CachedAvailability,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		alerts:      alerts,
		cache:       cache,
		now:         time.Now,
		log:         log,
	}
}

// InboundInput entrada para registrar una entrada de stock.
type InboundInput struct {
	ProductID     string
	CategoryID    string
	SupplierID    string
	ActorID       string
	OperationType string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	ExpiryDate    *time.Time
	Description   string
	PurchaseDate  time.Time
}

// OutboundInput entrada para registrar una salida de stock. Sin precio ni
// valor: el costo lo determina el asignador, nunca el caller.
type OutboundInput struct {
	ProductID     string
	CategoryID    string
	SupplierID    string
	ActorID       string
	OperationType string
	Quantity      decimal.Decimal
	Description   string
}

// RecordInbound valida, inserta la entrada con TotalValue = cantidad × precio
// y dispara las alertas tras el commit.
func (uc *UseCase) RecordInbound(ctx context.Context, input InboundInput) (*entity.StockMovement, error) {
	if !input.Quantity.GreaterThan(decimal.Zero) || input.UnitPrice.LessThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	now := uc.now()
	purchaseDate := input.PurchaseDate
	if purchaseDate.IsZero() {
		purchaseDate = now
	}
	mov := &entity.StockMovement{
		ID:            uuid.New().String(),
		ProductID:     input.ProductID,
		CategoryID:    input.CategoryID,
		SupplierID:    input.SupplierID,
		ActorID:       input.ActorID,
		MovementType:  entity.MovementTypeInbound,
		OperationType: input.OperationType,
		Quantity:      input.Quantity,
		UnitPrice:     input.UnitPrice,
		TotalValue:    input.Quantity.Mul(input.UnitPrice),
		ExpiryDate:    input.ExpiryDate,
		Description:   input.Description,
		PurchaseDate:  purchaseDate,
		CreatedAt:     now,
	}

	err = uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		_ repository.AllocationRepository,
	) error {
		return movRepo.Create(mov)
	})
	if err != nil {
		return nil, err
	}

	uc.afterCommit(ctx, product, mov)
	return mov, nil
}

// RecordOutbound satisface la salida consumiendo lotes en orden
// vence-antes-primero. Algoritmo (una transacción):
//  1. inserta la fila de salida con valor pendiente;
//  2. selecciona y bloquea los lotes del producto con su restante, en el
//     orden total determinista (vencimiento ASC NULLS LAST, created_at, id);
//  3. recorre los lotes armando el plan de consumo;
//  4. faltante > 0 → InsufficientStockError y rollback completo: no queda ni
//     la fila de salida;
//  5. inserta las asignaciones, fija TotalValue = costo real y confirma.
//
// Dos salidas concurrentes del mismo producto se serializan en el bloqueo del
// paso 2: la segunda observa el consumo de la primera, así que ningún lote se
// asigna dos veces. Un timeout de bloqueo aflora como ErrContention.
func (uc *UseCase) RecordOutbound(ctx context.Context, input OutboundInput) (*entity.StockMovement, error) {
	if !input.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	now := uc.now()
	mov := &entity.StockMovement{
		ID:            uuid.New().String(),
		ProductID:     input.ProductID,
		CategoryID:    input.CategoryID,
		SupplierID:    input.SupplierID,
		ActorID:       input.ActorID,
		MovementType:  entity.MovementTypeOutbound,
		OperationType: input.OperationType,
		Quantity:      input.Quantity,
		UnitPrice:     decimal.Zero,
		TotalValue:    decimal.Zero, // pendiente hasta asignar
		Description:   input.Description,
		PurchaseDate:  now,
		CreatedAt:     now,
	}

	err = uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		allocRepo repository.AllocationRepository,
	) error {
		if err := movRepo.Create(mov); err != nil {
			return err
		}
		batches, err := movRepo.ListOpenInboundForUpdate(input.ProductID)
		if err != nil {
			return err
		}
		plan, err := inventory.PlanConsumption(input.ProductID, input.Quantity, batches)
		if err != nil {
			return err
		}
		for _, line := range plan.Lines {
			rec := &entity.AllocationRecord{
				ID:                 uuid.New().String(),
				OutboundMovementID: mov.ID,
				InboundMovementID:  line.InboundMovementID,
				ProductID:          input.ProductID,
				Quantity:           line.Quantity,
				UnitPrice:          line.UnitPrice,
				ExpiryDate:         line.ExpiryDate,
				CreatedAt:          now,
			}
			if err := allocRepo.Create(rec); err != nil {
				return err
			}
		}
		mov.TotalValue = plan.TotalCost
		return movRepo.SetTotalValue(mov.ID, plan.TotalCost)
	})
	if err != nil {
		return nil, err
	}

	uc.afterCommit(ctx, product, mov)
	return mov, nil
}

// afterCommit corre alertas e invalidación de caché. Best-effort por contrato:
// la escritura ya confirmó y nada de lo que pase acá la revierte.
func (uc *UseCase) afterCommit(ctx context.Context, product *entity.Product, mov *entity.StockMovement) {
	uc.log.Info().
		Str("movement_id", mov.ID).
		Str("product_id", product.ID).
		Str("movement_type", mov.MovementType).
		Str("quantity", mov.Quantity.String()).
		Msg("movimiento de stock confirmado")
	if uc.cache != nil {
		uc.cache.Invalidate(ctx, product.ID)
	}
	if uc.alerts != nil {
		uc.alerts.Evaluate(product, mov)
	}
}
