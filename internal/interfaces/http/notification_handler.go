package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/pos-stock-core/internal/application/dto"
	"github.com/jhoicas/pos-stock-core/internal/domain"
	"github.com/jhoicas/pos-stock-core/internal/domain/repository"
)

// NotificationHandler expone la lista de alertas de stock a la UI de alertas.
// Leer/descartar es responsabilidad de esa UI; acá solo está la frontera.
type NotificationHandler struct {
	notifRepo repository.NotificationRepository
}

// NewNotificationHandler construye el handler.
func NewNotificationHandler(notifRepo repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notifRepo: notifRepo}
}

// List godoc
// @Summary      Listar alertas de stock
// @Tags         notifications
// @Security     Bearer
// @Produce      json
// @Param        unread  query  bool  false  "solo alertas sin leer"
// @Param        limit   query  int   false  "máx. 100"
// @Param        offset  query  int   false  "desplazamiento"
// @Success      200  {array}  dto.NotificationResponse
// @Router       /api/notifications [get]
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "paginación inválida"})
	}
	page.DefaultPage()
	unreadOnly := c.QueryBool("unread", false)

	list, err := h.notifRepo.List(unreadOnly, page.Limit, page.Offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]dto.NotificationResponse, 0, len(list))
	for _, n := range list {
		out = append(out, dto.NewNotificationResponse(n))
	}
	return c.JSON(fiber.Map{"total": len(out), "notifications": out})
}

// MarkRead godoc
// @Summary      Marcar una alerta como leída
// @Tags         notifications
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la notificación"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/notifications/{id}/read [patch]
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.notifRepo.MarkRead(id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "notificación no encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(fiber.Map{"message": "notificación marcada como leída"})
}
