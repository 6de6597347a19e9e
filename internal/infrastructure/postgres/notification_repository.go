package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/pos-stock-core/internal/domain"
	"github.com/jhoicas/pos-stock-core/internal/domain/entity"
	"github.com/jhoicas/pos-stock-core/internal/domain/repository"
)

var _ repository.NotificationRepository = (*NotificationRepo)(nil)

// NotificationRepo implementación de alertas sobre PostgreSQL.
type NotificationRepo struct {
	q Querier
}

// NewNotificationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewNotificationRepository(q Querier) *NotificationRepo {
	return &NotificationRepo{q: q}
}

// CreateIfAbsent inserta salvo que ya exista una notificación SIN leer del
// mismo (producto, estado). El predicado va en el propio INSERT para que dos
// triggers concurrentes no dupliquen; el índice único parcial de la migración
// respalda la invariante y cualquier carrera residual cae en 23505, que
// también se trata como duplicado.
func (r *NotificationRepo) CreateIfAbsent(n *entity.Notification) (bool, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_notifications (id, product_id, message, status, is_read, created_at)
		SELECT $1, $2, $3, $4, false, now()
		WHERE NOT EXISTS (
			SELECT 1 FROM stock_notifications
			WHERE product_id = $2 AND status = $4 AND is_read = false
		)`
	tag, err := r.q.Exec(context.Background(), query, n.ID, n.ProductID, n.Message, n.Status)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("create notification: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

const notificationColumns = `id, product_id, message, status, is_read, created_at`

// List lista alertas, opcionalmente solo las no leídas, más recientes primero.
func (r *NotificationRepo) List(unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM stock_notifications`
	if unreadOnly {
		query += ` WHERE is_read = false`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()
	return scanNotifications(rows)
}

// ListByProduct lista alertas de un producto.
func (r *NotificationRepo) ListByProduct(productID string, unreadOnly bool) ([]*entity.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM stock_notifications WHERE product_id = $1`
	if unreadOnly {
		query += ` AND is_read = false`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	rows, err := r.q.Query(context.Background(), query, productID)
	if err != nil {
		return nil, fmt.Errorf("list notifications by product: %w", err)
	}
	defer rows.Close()
	return scanNotifications(rows)
}

// MarkRead marca una alerta como leída (única mutación permitida).
func (r *NotificationRepo) MarkRead(id string) error {
	query := `UPDATE stock_notifications SET is_read = true WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark notification read: %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanNotifications(rows pgx.Rows) ([]*entity.Notification, error) {
	var list []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		if err := rows.Scan(&n.ID, &n.ProductID, &n.Message, &n.Status, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		list = append(list, &n)
	}
	return list, rows.Err()
}
