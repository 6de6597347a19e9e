package entity

import "time"

// Estados de alerta de stock. Son independientes entre sí: un producto puede
// tener a la vez una alerta low_stock y una near_expiry sin leer.
const (
	NotificationOutOfStock = "out_of_stock"
	NotificationLowStock   = "low_stock"
	NotificationExpired    = "expired"
	NotificationNearExpiry = "near_expiry"
)

// Notification es una alerta de stock/vencimiento para la lista de alertas.
// Invariante: a lo sumo una notificación SIN leer por (producto, estado).
// La crea únicamente el trigger de alertas; la marca como leída la UI de
// alertas; no se muta de ninguna otra forma.
type Notification struct {
	ID        string
	ProductID string
	Message   string
	Status    string // out_of_stock, low_stock, expired, near_expiry
	IsRead    bool
	CreatedAt time.Time
}
