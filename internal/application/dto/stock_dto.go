package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/pos-stock-core/internal/domain/entity"
)

// RegisterInboundRequest body para POST /api/stock/movements/inbound.
type RegisterInboundRequest struct {
	ProductID     string          `json:"product_id"`
	CategoryID    string          `json:"category_id,omitempty"`
	SupplierID    string          `json:"supplier_id,omitempty"`
	OperationType string          `json:"operation_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	ExpiryDate    *time.Time      `json:"expiry_date,omitempty"`
	PurchaseDate  *time.Time      `json:"purchase_date,omitempty"`
	Description   string          `json:"description,omitempty"`
}

// RegisterOutboundRequest body para POST /api/stock/movements/outbound.
// Sin precio: el costo real lo fija el asignador.
type RegisterOutboundRequest struct {
	ProductID     string          `json:"product_id"`
	CategoryID    string          `json:"category_id,omitempty"`
	SupplierID    string          `json:"supplier_id,omitempty"`
	OperationType string          `json:"operation_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	Description   string          `json:"description,omitempty"`
}

// MovementResponse representación de un movimiento en respuestas.
type MovementResponse struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id"`
	MovementType  string          `json:"movement_type"`
	OperationType string          `json:"operation_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalValue    decimal.Decimal `json:"total_value"`
	ExpiryDate    *time.Time      `json:"expiry_date,omitempty"`
	Description   string          `json:"description,omitempty"`
	PurchaseDate  time.Time       `json:"purchase_date"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewMovementResponse mapea la entidad a la respuesta HTTP.
func NewMovementResponse(m *entity.StockMovement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		MovementType:  m.MovementType,
		OperationType: m.OperationType,
		Quantity:      m.Quantity,
		UnitPrice:     m.UnitPrice,
		TotalValue:    m.TotalValue,
		ExpiryDate:    m.ExpiryDate,
		Description:   m.Description,
		PurchaseDate:  m.PurchaseDate,
		CreatedAt:     m.CreatedAt,
	}
}

// NotificationResponse representación de una alerta en respuestas.
type NotificationResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// NewNotificationResponse mapea la entidad a la respuesta HTTP.
func NewNotificationResponse(n *entity.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		ProductID: n.ProductID,
		Message:   n.Message,
		Status:    n.Status,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}
