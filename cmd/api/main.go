package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/pos-stock-core/internal/application/ledger"
	infrapdf "github.com/jhoicas/pos-stock-core/internal/infrastructure/pdf"
	"github.com/jhoicas/pos-stock-core/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/pos-stock-core/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/pos-stock-core/internal/interfaces/http"
	"github.com/jhoicas/pos-stock-core/pkg/config"
	"github.com/jhoicas/pos-stock-core/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	productRepo := postgres.NewProductRepository(pool)
	movementRepo := postgres.NewStockMovementRepository(pool)
	allocationRepo := postgres.NewAllocationRepository(pool)
	notificationRepo := postgres.NewNotificationRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Caché de disponibilidad: opcional, REDIS_ADDR vacío lo deshabilita.
	var availabilityCache ledger.AvailabilityCache = ledger.NoopAvailabilityCache{}
	if cfg.Redis.Addr != "" {
		redisCache := infraredis.NewAvailabilityCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("Redis no disponible, caché de disponibilidad deshabilitado")
		} else {
			availabilityCache = redisCache
			defer redisCache.Close()
		}
	}

	availabilityCalc := ledger.NewAvailabilityCalculator(movementRepo, allocationRepo)
	cachedAvailability := ledger.NewCachedAvailability(availabilityCalc, availabilityCache, log)
	alertTrigger := ledger.NewStockAlertTrigger(availabilityCalc, notificationRepo, log)
	ledgerUC := ledger.NewUseCase(txRunner, productRepo, alertTrigger, cachedAvailability, log)
	kardexGenerator := infrapdf.NewKardexGenerator()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs. Solo se monta si el
	// spec generado está presente en el despliegue.
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "POS Stock Core API",
		}))
	} else {
		log.Warn().Msg("docs/swagger.json no encontrado, Swagger UI deshabilitado")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:       ledgerUC,
		Availability: cachedAvailability,
		ProductRepo:  productRepo,
		MovementRepo: movementRepo,
		NotifRepo:    notificationRepo,
		Kardex:       kardexGenerator,
		JWTSecret:    cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
