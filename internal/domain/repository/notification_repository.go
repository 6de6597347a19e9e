package repository

import "github.com/jhoicas/pos-stock-core/internal/domain/entity"

// NotificationRepository persistencia de alertas de stock.
type NotificationRepository interface {
	// CreateIfAbsent inserta la notificación salvo que ya exista una SIN leer
	// para el mismo (producto, estado). Devuelve true si insertó.
	CreateIfAbsent(n *entity.Notification) (bool, error)
	List(unreadOnly bool, limit, offset int) ([]*entity.Notification, error)
	ListByProduct(productID string, unreadOnly bool) ([]*entity.Notification, error)
	// MarkRead la usa la UI de alertas (colaborador externo); es la única
	// mutación permitida sobre una notificación.
	MarkRead(id string) error
}
