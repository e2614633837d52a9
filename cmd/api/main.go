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
	"github.com/shopspring/decimal"

	"github.com/jhoicas/clinica-stock-api/docs"
	"github.com/jhoicas/clinica-stock-api/internal/application/auth"
	"github.com/jhoicas/clinica-stock-api/internal/application/usecase"
	"github.com/jhoicas/clinica-stock-api/internal/application/withdrawal"
	"github.com/jhoicas/clinica-stock-api/internal/infrastructure/cache"
	infrapdf "github.com/jhoicas/clinica-stock-api/internal/infrastructure/pdf"
	"github.com/jhoicas/clinica-stock-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/clinica-stock-api/internal/interfaces/http"
	"github.com/jhoicas/clinica-stock-api/pkg/config"
	"github.com/jhoicas/clinica-stock-api/pkg/logger"
)

// @title                       Clínica Stock API
// @version                     1.0
// @description                 Retiros y traslados de stock de la clínica.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		App:   cfg.App.Name,
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().Str("env", cfg.App.Env).Msg("iniciando aplicación")

	// Cantidades como números JSON, no como strings.
	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	migrator, err := postgres.NewMigrator(pool, log.Component("migrate"))
	if err != nil {
		log.Fatal().Err(err).Msg("preparar migraciones")
	}
	defer migrator.Close()
	if err := migrator.Up(); err != nil {
		log.Fatal().Err(err).Msg("aplicar migraciones")
	}

	userRepo := postgres.NewUserRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	unitRepo := postgres.NewProductUnitRepository(pool)
	locationRepo := postgres.NewLocationRepository(pool)
	withdrawalRepo := postgres.NewWithdrawalRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	idempotency, err := cache.NewIdempotencyStore(ctx, cache.RedisConfig{
		Addr:        cfg.Redis.Addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: 3 * time.Second,
	}, cfg.Redis.Fallback, log.Component("idempotency"))
	if err != nil {
		log.Fatal().Err(err).Msg("almacén de idempotencia")
	}
	defer idempotency.Close()

	withdrawalUC := withdrawal.NewWithdrawalUseCase(txRunner, withdrawalRepo, unitRepo, productRepo, locationRepo)
	slipUC := withdrawal.NewSlipUseCase(
		withdrawalUC, productRepo, unitRepo, locationRepo, userRepo,
		infrapdf.NewMarotoSlipGenerator(cfg.App.Name),
	)
	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(log.RequestLogger())

	// Swagger UI: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath:    "/",
		FileContent: []byte(docs.SwaggerInfo.ReadDoc()),
		Path:        "docs",
		Title:       "Clínica Stock API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:         authUC,
		StockUC:        usecase.NewStockUseCase(stockRepo),
		UnitUC:         usecase.NewProductUnitUseCase(unitRepo, productRepo),
		LocationUC:     usecase.NewLocationUseCase(locationRepo),
		AvailabilityUC: withdrawal.NewAvailabilityUseCase(stockRepo, unitRepo, cfg.Withdrawals.AvailabilityWorkers),
		WithdrawalUC:   withdrawalUC,
		SlipUC:         slipUC,
		Idempotency:    idempotency,
		IdempotencyTTL: cfg.Withdrawals.IdempotencyTTL,
		JWTSecret:      cfg.JWT.Secret,
		ServiceName:    cfg.App.Name,
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
