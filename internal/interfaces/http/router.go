package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/pos-stock-core/internal/application/ledger"
	"github.com/jhoicas/pos-stock-core/internal/domain/repository"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger       *ledger.UseCase
	Availability *ledger.CachedAvailability
	ProductRepo  repository.ProductRepository
	MovementRepo repository.StockMovementRepository
	NotifRepo    repository.NotificationRepository
	Kardex       KardexGenerator
	JWTSecret    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Libro de stock (protegido)
	stock := protected.Group("/stock")
	stockHandler := NewStockHandler(deps.Ledger, deps.Availability, deps.ProductRepo, deps.MovementRepo, deps.Kardex)
	stock.Post("/movements/inbound", stockHandler.RegisterInbound)
	stock.Post("/movements/outbound", stockHandler.RegisterOutbound)
	stock.Get("/products/:id/availability", stockHandler.GetAvailability)
	stock.Get("/products/:id/movements", stockHandler.ListMovements)
	stock.Get("/products/:id/kardex.pdf", stockHandler.GetKardexPDF)

	// Alertas (protegido)
	notifications := protected.Group("/notifications")
	notificationHandler := NewNotificationHandler(deps.NotifRepo)
	notifications.Get("/", notificationHandler.List)
	notifications.Patch("/:id/read", notificationHandler.MarkRead)
}
