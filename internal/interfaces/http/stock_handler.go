package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/pos-stock-core/internal/application/dto"
	"github.com/jhoicas/pos-stock-core/internal/application/ledger"
	"github.com/jhoicas/pos-stock-core/internal/domain"
	"github.com/jhoicas/pos-stock-core/internal/domain/entity"
	"github.com/jhoicas/pos-stock-core/internal/domain/repository"
)

// KardexGenerator genera el PDF de historial de movimientos de un producto.
type KardexGenerator interface {
	Generate(product *entity.Product, movements []*entity.StockMovement, availability *ledger.AvailabilityDTO) ([]byte, error)
}

// StockHandler maneja las peticiones HTTP del libro de stock (protegido).
type StockHandler struct {
	uc           *ledger.UseCase
	availability *ledger.CachedAvailability
	productRepo  repository.ProductRepository
	movRepo      repository.StockMovementRepository
	kardex       KardexGenerator
}

// NewStockHandler construye el handler.
func NewStockHandler(
	uc *ledger.UseCase,
	availability *ledger.CachedAvailability,
	productRepo repository.ProductRepository,
	movRepo repository.StockMovementRepository,
	kardex KardexGenerator,
) *StockHandler {
	return &StockHandler{
		uc:           uc,
		availability: availability,
		productRepo:  productRepo,
		movRepo:      movRepo,
		kardex:       kardex,
	}
}

// RegisterInbound godoc
// @Summary      Registrar entrada de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterInboundRequest  true  "product_id, operation_type, quantity, unit_price, expiry_date opcional"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/movements/inbound [post]
func (h *StockHandler) RegisterInbound(c *fiber.Ctx) error {
	actorID := GetActorID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.RegisterInboundRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	input := ledger.InboundInput{
		ProductID:     in.ProductID,
		CategoryID:    in.CategoryID,
		SupplierID:    in.SupplierID,
		ActorID:       actorID,
		OperationType: in.OperationType,
		Quantity:      in.Quantity,
		UnitPrice:     in.UnitPrice,
		ExpiryDate:    in.ExpiryDate,
		Description:   in.Description,
	}
	if in.PurchaseDate != nil {
		input.PurchaseDate = *in.PurchaseDate
	}
	mov, err := h.uc.RecordInbound(c.Context(), input)
	if err != nil {
		return writeLedgerError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewMovementResponse(mov))
}

// RegisterOutbound godoc
// @Summary      Registrar salida de stock (asignación FIFO por vencimiento)
// @Description  El costo de la salida lo calcula el asignador a partir de los
//
//	lotes realmente consumidos; nunca lo aporta el caller. Si el stock no
//	alcanza, responde 409 con el faltante exacto y no persiste nada.
//
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterOutboundRequest  true  "product_id, operation_type, quantity"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/stock/movements/outbound [post]
func (h *StockHandler) RegisterOutbound(c *fiber.Ctx) error {
	actorID := GetActorID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.RegisterOutboundRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	mov, err := h.uc.RecordOutbound(c.Context(), ledger.OutboundInput{
		ProductID:     in.ProductID,
		CategoryID:    in.CategoryID,
		SupplierID:    in.SupplierID,
		ActorID:       actorID,
		OperationType: in.OperationType,
		Quantity:      in.Quantity,
		Description:   in.Description,
	})
	if err != nil {
		return writeLedgerError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewMovementResponse(mov))
}

// GetAvailability godoc
// @Summary      Disponibilidad y valor remanente de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del producto"
// @Success      200  {object}  ledger.AvailabilityDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/products/{id}/availability [get]
func (h *StockHandler) GetAvailability(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.productRepo.GetByID(productID)
	if err != nil {
		return writeLedgerError(c, err)
	}
	if product == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "producto no encontrado"})
	}
	result, err := h.availability.Availability(c.Context(), productID)
	if err != nil {
		return writeLedgerError(c, err)
	}
	return c.JSON(result)
}

// ListMovements godoc
// @Summary      Historial de movimientos de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del producto"
// @Param        limit   query  int     false  "máx. 100"
// @Param        offset  query  int     false  "desplazamiento"
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/stock/products/{id}/movements [get]
func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	productID := c.Params("id")
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "paginación inválida"})
	}
	page.DefaultPage()

	from, to, err := parseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "rango de fechas inválido (RFC3339)"})
	}

	movements, err := h.movRepo.ListByProduct(productID, from, to, page.Limit, page.Offset)
	if err != nil {
		return writeLedgerError(c, err)
	}
	out := make([]dto.MovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, dto.NewMovementResponse(m))
	}
	return c.JSON(fiber.Map{"total": len(out), "movements": out})
}

// GetKardexPDF godoc
// @Summary      Kardex del producto en PDF
// @Tags         stock
// @Security     Bearer
// @Produce      application/pdf
// @Param        id  path  string  true  "ID del producto"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/products/{id}/kardex.pdf [get]
func (h *StockHandler) GetKardexPDF(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.productRepo.GetByID(productID)
	if err != nil {
		return writeLedgerError(c, err)
	}
	if product == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "producto no encontrado"})
	}
	movements, err := h.movRepo.ListByProduct(productID, nil, nil, 500, 0)
	if err != nil {
		return writeLedgerError(c, err)
	}
	availability, err := h.availability.Availability(c.Context(), productID)
	if err != nil {
		return writeLedgerError(c, err)
	}
	pdfBytes, err := h.kardex.Generate(product, movements, availability)
	if err != nil {
		return writeLedgerError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="kardex-`+product.SKU+`.pdf"`)
	return c.Send(pdfBytes)
}

// writeLedgerError mapea errores de dominio a códigos HTTP.
func writeLedgerError(c *fiber.Ctx, err error) error {
	var insufficient *domain.InsufficientStockError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "producto no encontrado"})
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:      "INSUFFICIENT_STOCK",
			Message:   "stock insuficiente para la cantidad solicitada",
			Shortfall: insufficient.Shortfall.String(),
		})
	case errors.Is(err, domain.ErrContention):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "CONTENTION", Message: "contención de bloqueo, reintentar"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

// parseDateRange parsea from/to en RFC3339; vacío = sin límite.
func parseDateRange(fromStr, toStr string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if fromStr != "" {
		t, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return nil, nil, err
		}
		from = &t
	}
	if toStr != "" {
		t, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return nil, nil, err
		}
		to = &t
	}
	return from, to, nil
}
