package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/jhoicas/pos-stock-core/internal/application/ledger"
	"github.com/jhoicas/pos-stock-core/internal/domain"
	"github.com/jhoicas/pos-stock-core/internal/domain/entity"
	"github.com/jhoicas/pos-stock-core/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Entorno de prueba: caso de uso completo cableado sobre el almacén en
// memoria, con alertas y caché Noop. El TxRunner fake confirma o revierte
// de verdad, así que estos tests ejercitan la atomicidad del flujo entero.
// ──────────────────────────────────────────────────────────────────────────────

type testEnv struct {
	store     *memStore
	uc        *ledger.UseCase
	calc      *ledger.AvailabilityCalculator
	notifRepo *memNotificationRepo
}

func newTestEnv() *testEnv {
	store := newMemStore()
	log := logger.New(logger.Config{Env: "production", Level: "error"})

	movRepo := &memMovementRepo{store: store}
	allocRepo := &memAllocationRepo{store: store}
	notifRepo := &memNotificationRepo{store: store}
	productRepo := &memProductRepo{store: store}

	calc := ledger.NewAvailabilityCalculator(movRepo, allocRepo)
	alerts := ledger.NewStockAlertTrigger(calc, notifRepo, log)
	cached := ledger.NewCachedAvailability(calc, ledger.NoopAvailabilityCache{}, log)
	uc := ledger.NewUseCase(&memTxRunner{store: store}, productRepo, alerts, cached, log)

	return &testEnv{store: store, uc: uc, calc: calc, notifRepo: notifRepo}
}

func (e *testEnv) seedProduct(id, name string, threshold string) *entity.Product {
	p := &entity.Product{
		ID:                id,
		Name:              name,
		SKU:               "SKU-" + id,
		UnitMeasure:       "unidad",
		MinAlertThreshold: dec(threshold),
	}
	e.store.products[id] = p
	return p
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func datePtr(t time.Time) *time.Time { return &t }

func inboundInput(productID, qty, price string, expiry *time.Time) ledger.InboundInput {
	return ledger.InboundInput{
		ProductID:     productID,
		ActorID:       "user-1",
		OperationType: entity.OperationPurchase,
		Quantity:      dec(qty),
		UnitPrice:     dec(price),
		ExpiryDate:    expiry,
	}
}

func outboundInput(productID, qty string) ledger.OutboundInput {
	return ledger.OutboundInput{
		ProductID:     productID,
		ActorID:       "user-1",
		OperationType: entity.OperationSale,
		Quantity:      dec(qty),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Entradas
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordInbound_Basico(t *testing.T) {
	env := newTestEnv()
	env.seedProduct("p1", "Harina", "5")
	ctx := context.Background()

	mov, err := env.uc.RecordInbound(ctx, inboundInput("p1", "10", "2.50", nil))
	require.NoError(t, err)
	require.NotNil(t, mov)

	assert.Equal(t, entity.MovementTypeInbound, mov.MovementType)
	assert.True(t, mov.TotalValue.Equal(dec("25.00")), "total esperado 25.00, fue %s", mov.TotalValue)
	assert.NotEmpty(t, mov.ID)
	assert.False(t, mov.PurchaseDate.IsZero())

	// El movimiento quedó persistido y la disponibilidad lo refleja.
	require.Len(t, env.store.movements, 1)
	qty, err := env.calc.AvailableQuantity("p1")
	require.NoError(t, err)
	assert.True(t, qty.Equal(dec("10")))

	value, err := env.calc.StockValue("p1")
	require.NoError(t, err)
	assert.True(t, value.Equal(dec("25.00")))
}

func TestRecordInbound_Validaciones(t *testing.T) {
	env := newTestEnv()
	env.seedProduct("p1", "Harina", "5")
	ctx := context.Background()

	t.Run("cantidad cero", func(t *testing.T) {
		_, err := env.uc.RecordInbound(ctx, inboundInput("p1", "0", "2.50", nil))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("cantidad negativa", func(t *testing.T) {
		_, err := env.uc.RecordInbound(ctx, inboundInput("p1", "-3", "2.50", nil))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("precio negativo", func(t *testing.T) {
		_, err := env.uc.RecordInbound(ctx, inboundInput("p1", "3", "-1.00", nil))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("producto inexistente", func(t *testing.T) {
		_, err := env.uc.RecordInbound(ctx, inboundInput("fantasma", "3", "1.00", nil))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	// Ninguna validación fallida dejó rastro en el libro.
	assert.Empty(t, env.store.movements)
}

// ──────────────────────────────────────────────────────────────────────────────
// Salidas: asignación vence-antes-primero
// ──────────────────────────────────────────────────────────────────────────────

// El lote más barato llegó primero pero vence después: la salida debe
// consumir primero el lote que vence antes aunque sea más caro, y el costo
// resultante es el de los lotes realmente consumidos.
func TestRecordOutbound_ConsumeVencimientoMasProximo(t *testing.T) {
	env := newTestEnv()
	env.seedProduct("p1", "Leche", "0")
	ctx := context.Background()

	venceTarde := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	venceTemprano := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)

	_, err := env.uc.RecordInbound(ctx, inboundInput("p1", "10", "2.00", datePtr(venceTarde)))
	require.NoError(t, err)
	_, err = env.uc.RecordInbound(ctx, inboundInput("p1", "5", "3.00", datePtr(venceTemprano)))
	require.NoError(t, err)

	out, err := env.uc.RecordOutbound(ctx, outboundInput("p1", "7"))
	require.NoError(t, err)
	require.NotNil(t, out)

	// 5 × 3.00 del lote que vence el 5, luego 2 × 2.00 del que vence el 10.
	assert.True(t, out.TotalValue.Equal(dec("19.00")), "costo esperado 19.00, fue %s", out.TotalValue)

	require.Len(t, env.store.allocations, 2)
	first, second := env.store.allocations[0], env.store.allocations[1]
	assert.True(t, first.Quantity.Equal(dec("5")))
	assert.True(t, first.UnitPrice.Equal(dec("3.00")))
	require.NotNil(t, first.ExpiryDate)
	assert.True(t, first.ExpiryDate.Equal(venceTemprano))
	assert.True(t, second.Quantity.Equal(dec("2")))
	assert.True(t, second.UnitPrice.Equal(dec("2.00")))

	qty, err := env.calc.AvailableQuantity("p1")
	require.NoError(t, err)
	assert.True(t, qty.Equal(dec("8")), "disponible esperado 8, fue %s", qty)

	// Valor remanente al costo de adquisición: 35.00 entradas − 19.00 salida.
	value, err := env.calc.StockValue("p1")
	require.NoError(t, err)
	assert.True(t, value.Equal(dec("16.00")))
}

// Stock insuficiente revierte la transacción completa: ni la fila de salida
// ni asignaciones parciales quedan persistidas, y la disponibilidad no cambia.
func TestRecordOutbound_InsuficienciaRevierteTodo(t *testing.T) {
	env := newTestEnv()
	env.seedProduct("p1", "Leche", "0")
	ctx := context.Background()

	expiry := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	_, err := env.uc.RecordInbound(ctx, inboundInput("p1", "10", "2.00", datePtr(expiry)))
	require.NoError(t, err)
	_, err = env.uc.RecordInbound(ctx, inboundInput("p1", "5", "3.00", datePtr(expiry)))
	require.NoError(t, err)

	out, err := env.uc.RecordOutbound(ctx, outboundInput("p1", "20"))
	require.Error(t, err)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var insErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &insErr)
	assert.Equal(t, "p1", insErr.ProductID)
	assert.True(t, insErr.Shortfall.Equal(dec("5")), "faltante esperado 5, fue %s", insErr.Shortfall)

	// Solo quedaron las dos entradas; nada de la salida fallida.
	assert.Len(t, env.store.movements, 2)
	assert.Empty(t, env.store.allocations)

	qty, err := env.calc.AvailableQuantity("p1")
	require.NoError(t, err)
	assert.True(t, qty.Equal(dec("15")))
}

func TestRecordOutbound_Validaciones(t *testing.T) {
	env := newTestEnv()
	env.seedProduct("p1", "Leche", "0")
	ctx := context.Background()

	t.Run("cantidad cero", func(t *testing.T) {
		_, err := env.uc.RecordOutbound(ctx, outboundInput("p1", "0"))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("producto inexistente", func(t *testing.T) {
		_, err := env.uc.RecordOutbound(ctx, outboundInput("fantasma", "1"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

// Tras una secuencia de entradas y salidas valen las tres invariantes del
// libro: las dos fórmulas de disponibilidad coinciden, ningún lote queda
// sobreasignado y toda salida confirmada está asignada exacta y completa.
func TestRecordOutbound_InvariantesDelLibro(t *testing.T) {
	env := newTestEnv()
	env.seedProduct("p1", "Queso", "0")
	ctx := context.Background()

	e1 := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	e2 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := env.uc.RecordInbound(ctx, inboundInput("p1", "4", "1.50", datePtr(e1)))
	require.NoError(t, err)
	_, err = env.uc.RecordInbound(ctx, inboundInput("p1", "6", "1.75", datePtr(e2)))
	require.NoError(t, err)
	_, err = env.uc.RecordInbound(ctx, inboundInput("p1", "10", "1.20", nil))
	require.NoError(t, err)

	_, err = env.uc.RecordOutbound(ctx, outboundInput("p1", "5"))
	require.NoError(t, err)
	_, err = env.uc.RecordOutbound(ctx, outboundInput("p1", "6.5"))
	require.NoError(t, err)

	movRepo := &memMovementRepo{store: env.store}
	allocRepo := &memAllocationRepo{store: env.store}

	// Fórmula por asignaciones vs fórmula por movimientos.
	inboundQty, err := movRepo.SumQuantityByType("p1", entity.MovementTypeInbound)
	require.NoError(t, err)
	outboundQty, err := movRepo.SumQuantityByType("p1", entity.MovementTypeOutbound)
	require.NoError(t, err)
	allocatedQty, err := allocRepo.SumByProduct("p1")
	require.NoError(t, err)
	assert.True(t, allocatedQty.Equal(outboundQty),
		"asignado %s debe igualar salidas %s", allocatedQty, outboundQty)

	qty, err := env.calc.AvailableQuantity("p1")
	require.NoError(t, err)
	assert.True(t, qty.Equal(inboundQty.Sub(outboundQty)))
	assert.True(t, qty.Equal(dec("8.5")))

	// Ningún lote de entrada entrega más de lo que recibió.
	for _, m := range env.store.movements {
		if m.MovementType != entity.MovementTypeInbound {
			continue
		}
		sum, err := allocRepo.SumByInbound(m.ID)
		require.NoError(t, err)
		assert.True(t, sum.LessThanOrEqual(m.Quantity),
			"lote %s sobreasignado: %s de %s", m.ID, sum, m.Quantity)
	}

	// Cada salida está cubierta por sus asignaciones, exacta y completa.
	for _, m := range env.store.movements {
		if m.MovementType != entity.MovementTypeOutbound {
			continue
		}
		allocs, err := allocRepo.ListByOutbound(m.ID)
		require.NoError(t, err)
		covered := decimal.Zero
		cost := decimal.Zero
		for _, a := range allocs {
			covered = covered.Add(a.Quantity)
			cost = cost.Add(a.Quantity.Mul(a.UnitPrice))
		}
		assert.True(t, covered.Equal(m.Quantity))
		assert.True(t, cost.Equal(m.TotalValue))
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Alertas post-commit
// ──────────────────────────────────────────────────────────────────────────────

func unreadByStatus(t *testing.T, repo *memNotificationRepo, productID, status string) []*entity.Notification {
	t.Helper()
	all, err := repo.ListByProduct(productID, true)
	require.NoError(t, err)
	var out []*entity.Notification
	for _, n := range all {
		if n.Status == status {
			out = append(out, n)
		}
	}
	return out
}

func TestAlertas_StockBajo(t *testing.T) {
	env := newTestEnv()
	env.seedProduct("p1", "Azúcar", "5")
	ctx := context.Background()

	_, err := env.uc.RecordInbound(ctx, inboundInput("p1", "3", "1.00", nil))
	require.NoError(t, err)

	lows := unreadByStatus(t, env.notifRepo, "p1", entity.NotificationLowStock)
	require.Len(t, lows, 1)
	assert.Contains(t, lows[0].Message, "Azúcar")

	// Una cantidad inválida se rechaza antes de llegar al trigger: la alerta
	// existente sigue siendo la única.
	_, err = env.uc.RecordInbound(ctx, inboundInput("p1", "0", "1.00", nil))
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Len(t, unreadByStatus(t, env.notifRepo, "p1", entity.NotificationLowStock), 1)
}

func TestAlertas_Agotado(t *testing.T) {
	env := newTestEnv()
	env.seedProduct("p1", "Café", "2")
	ctx := context.Background()

	_, err := env.uc.RecordInbound(ctx, inboundInput("p1", "4", "5.00", nil))
	require.NoError(t, err)
	_, err = env.uc.RecordOutbound(ctx, outboundInput("p1", "4"))
	require.NoError(t, err)

	assert.Len(t, unreadByStatus(t, env.notifRepo, "p1", entity.NotificationOutOfStock), 1)
	// Agotado y stock bajo son excluyentes: con disponibilidad cero solo
	// aplica agotado.
	assert.Empty(t, unreadByStatus(t, env.notifRepo, "p1", entity.NotificationLowStock))
}

func TestAlertas_Vencimientos(t *testing.T) {
	env := newTestEnv()
	env.seedProduct("p1", "Yogur", "0")
	env.seedProduct("p2", "Crema", "0")
	ctx := context.Background()

	ayer := time.Now().AddDate(0, 0, -1)
	enTresDias := time.Now().AddDate(0, 0, 3)

	_, err := env.uc.RecordInbound(ctx, inboundInput("p1", "10", "1.00", datePtr(ayer)))
	require.NoError(t, err)
	_, err = env.uc.RecordInbound(ctx, inboundInput("p2", "10", "1.00", datePtr(enTresDias)))
	require.NoError(t, err)

	expired := unreadByStatus(t, env.notifRepo, "p1", entity.NotificationExpired)
	require.Len(t, expired, 1)
	assert.Contains(t, expired[0].Message, "venció")
	// Un lote ya vencido no genera además aviso de próximo vencimiento.
	assert.Empty(t, unreadByStatus(t, env.notifRepo, "p1", entity.NotificationNearExpiry))

	near := unreadByStatus(t, env.notifRepo, "p2", entity.NotificationNearExpiry)
	require.Len(t, near, 1)
	assert.Contains(t, near[0].Message, "vence")
	assert.Empty(t, unreadByStatus(t, env.notifRepo, "p2", entity.NotificationExpired))
}

// Mientras exista una alerta sin leer del mismo estado no se inserta otra;
// marcarla leída habilita la re-notificación inmediata (sin cooldown).
func TestAlertas_Deduplicacion(t *testing.T) {
	env := newTestEnv()
	env.seedProduct("p1", "Sal", "10")
	ctx := context.Background()

	_, err := env.uc.RecordInbound(ctx, inboundInput("p1", "2", "0.50", nil))
	require.NoError(t, err)
	_, err = env.uc.RecordInbound(ctx, inboundInput("p1", "1", "0.50", nil))
	require.NoError(t, err)

	lows := unreadByStatus(t, env.notifRepo, "p1", entity.NotificationLowStock)
	require.Len(t, lows, 1, "dos escrituras con el mismo estado deben dejar una sola alerta sin leer")

	require.NoError(t, env.notifRepo.MarkRead(lows[0].ID))

	_, err = env.uc.RecordInbound(ctx, inboundInput("p1", "1", "0.50", nil))
	require.NoError(t, err)
	assert.Len(t, unreadByStatus(t, env.notifRepo, "p1", entity.NotificationLowStock), 1,
		"tras marcar leída, la siguiente escritura vuelve a notificar")

	// Las historias leída + nueva conviven en el listado completo.
	all, err := env.notifRepo.ListByProduct("p1", false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// ──────────────────────────────────────────────────────────────────────────────
// Caché de disponibilidad
// ──────────────────────────────────────────────────────────────────────────────

// Caché de grabación para observar el protocolo Get/Set/Invalidate y simular
// fallos. Los errores del caché jamás deben afectar el resultado.
type recordingCache struct {
	entries    map[string]*ledger.AvailabilityDTO
	failing    bool
	sets, gets int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: make(map[string]*ledger.AvailabilityDTO)}
}

func (c *recordingCache) Get(_ context.Context, productID string) (*ledger.AvailabilityDTO, bool, error) {
	c.gets++
	if c.failing {
		return nil, false, errors.New("redis caído")
	}
	dto, ok := c.entries[productID]
	return dto, ok, nil
}

func (c *recordingCache) Set(_ context.Context, productID string, value *ledger.AvailabilityDTO) error {
	c.sets++
	if c.failing {
		return errors.New("redis caído")
	}
	c.entries[productID] = value
	return nil
}

func (c *recordingCache) Invalidate(_ context.Context, productID string) error {
	if c.failing {
		return errors.New("redis caído")
	}
	delete(c.entries, productID)
	return nil
}

func TestDisponibilidadCacheada(t *testing.T) {
	env := newTestEnv()
	env.seedProduct("p1", "Pan", "0")
	ctx := context.Background()

	_, err := env.uc.RecordInbound(ctx, inboundInput("p1", "12", "0.80", nil))
	require.NoError(t, err)

	log := logger.New(logger.Config{Env: "production", Level: "error"})
	cache := newRecordingCache()
	cached := ledger.NewCachedAvailability(env.calc, cache, log)

	t.Run("miss calcula y puebla", func(t *testing.T) {
		dto, err := cached.Availability(ctx, "p1")
		require.NoError(t, err)
		assert.True(t, dto.Quantity.Equal(dec("12")))
		assert.Equal(t, 1, cache.sets)
	})

	t.Run("hit no recalcula", func(t *testing.T) {
		dto, err := cached.Availability(ctx, "p1")
		require.NoError(t, err)
		assert.True(t, dto.Quantity.Equal(dec("12")))
		assert.Equal(t, 1, cache.sets, "el hit no debe reescribir el caché")
	})

	t.Run("invalidate borra la entrada", func(t *testing.T) {
		cached.Invalidate(ctx, "p1")
		assert.Empty(t, cache.entries)
	})

	t.Run("caché caído no rompe la lectura", func(t *testing.T) {
		cache.failing = true
		dto, err := cached.Availability(ctx, "p1")
		require.NoError(t, err)
		assert.True(t, dto.Quantity.Equal(dec("12")))
	})
}
