package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/pos-stock-core/internal/domain/entity"
	"github.com/jhoicas/pos-stock-core/internal/domain/inventory"
	"github.com/jhoicas/pos-stock-core/internal/domain/repository"
	"github.com/jhoicas/pos-stock-core/pkg/logger"
)

// StockAlertTrigger evalúa las condiciones de alerta después de cada escritura
// confirmada en el libro. Es un hook post-commit explícito: lo invoca el caso
// de uso cuando la transacción ya confirmó, nunca dentro de ella. No devuelve
// error: cualquier fallo se registra y se traga, para que las alertas jamás
// bloqueen ni reviertan el movimiento que las disparó.
type StockAlertTrigger struct {
	availability *AvailabilityCalculator
	notifRepo    repository.NotificationRepository
	log          *logger.Logger
	now          func() time.Time
}

// NewStockAlertTrigger construye el trigger.
func NewStockAlertTrigger(
	availability *AvailabilityCalculator,
	notifRepo repository.NotificationRepository,
	log *logger.Logger,
) *StockAlertTrigger {
	return &StockAlertTrigger{
		availability: availability,
		notifRepo:    notifRepo,
		log:          log,
		now:          time.Now,
	}
}

// Evaluate corre las cuatro condiciones independientes para el producto del
// movimiento recién confirmado. La deduplicación la hace el repositorio:
// no se inserta si ya hay una notificación sin leer del mismo estado.
func (t *StockAlertTrigger) Evaluate(product *entity.Product, mov *entity.StockMovement) {
	available, err := t.availability.AvailableQuantity(product.ID)
	if err != nil {
		t.log.Error().Err(err).Str("product_id", product.ID).Msg("alertas: disponibilidad no calculable")
		return
	}

	if available.LessThanOrEqual(decimal.Zero) {
		t.emit(product, entity.NotificationOutOfStock,
			fmt.Sprintf("%s está agotado", product.Name))
	} else if available.LessThanOrEqual(product.MinAlertThreshold) {
		t.emit(product, entity.NotificationLowStock,
			fmt.Sprintf("%s tiene stock bajo: quedan %s %s", product.Name, available.String(), product.UnitMeasure))
	}

	// Vencimientos: solo aplican al lote de entrada que disparó el trigger.
	if mov.MovementType != entity.MovementTypeInbound || mov.ExpiryDate == nil {
		return
	}
	now := t.now()
	if mov.IsExpired(now) {
		t.emit(product, entity.NotificationExpired,
			fmt.Sprintf("un lote de %s venció el %s", product.Name, mov.ExpiryDate.Format("2006-01-02")))
	} else if mov.ExpiresWithin(now, inventory.NearExpiryWindow) {
		t.emit(product, entity.NotificationNearExpiry,
			fmt.Sprintf("un lote de %s vence el %s", product.Name, mov.ExpiryDate.Format("2006-01-02")))
	}
}

// emit inserta la alerta salvo duplicado sin leer. Best-effort.
func (t *StockAlertTrigger) emit(product *entity.Product, status, message string) {
	created, err := t.notifRepo.CreateIfAbsent(&entity.Notification{
		ProductID: product.ID,
		Message:   message,
		Status:    status,
	})
	if err != nil {
		t.log.Error().Err(err).
			Str("product_id", product.ID).
			Str("status", status).
			Msg("alertas: inserción falló")
		return
	}
	if created {
		t.log.Info().
			Str("product_id", product.ID).
			Str("status", status).
			Msg("alerta de stock emitida")
	}
}
