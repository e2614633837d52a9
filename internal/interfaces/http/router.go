package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/clinica-stock-api/internal/application/auth"
	"github.com/jhoicas/clinica-stock-api/internal/application/ports"
	"github.com/jhoicas/clinica-stock-api/internal/application/usecase"
	"github.com/jhoicas/clinica-stock-api/internal/application/withdrawal"
	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	StockUC        *usecase.StockUseCase
	UnitUC         *usecase.ProductUnitUseCase
	LocationUC     *usecase.LocationUseCase
	AvailabilityUC *withdrawal.AvailabilityUseCase
	WithdrawalUC   *withdrawal.WithdrawalUseCase
	SlipUC         *withdrawal.SlipUseCase
	Idempotency    ports.IdempotencyStore
	IdempotencyTTL time.Duration
	JWTSecret      string
	ServiceName    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})

	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Group("/auth").Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	inv := api.Group("/inventory", AuthMiddleware(deps.JWTSecret))
	view := RequireCapability(entity.CapViewStock)
	catalog := RequireCapability(entity.CapManageCatalog)
	request := RequireCapability(entity.CapRequestWithdrawal)
	transfer := RequireCapability(entity.CapTransferBetweenLocations)
	review := RequireCapability(entity.CapReviewWithdrawal)

	invHandler := NewInventoryHandler(deps.StockUC, deps.UnitUC, deps.LocationUC, deps.AvailabilityUC)
	inv.Get("/stock/usercheck", view, invHandler.PersonalStock)
	inv.Get("/stock/location", view, invHandler.LocationStock)
	// Ruta histórica con la errata; se mantiene para clientes existentes.
	inv.Get("/stock/locaation", view, invHandler.LocationStock)

	inv.Get("/productunit/pro/:productId", view, invHandler.UnitsByProduct)
	inv.Get("/productunit/get/:unitId", view, invHandler.GetUnit)
	inv.Post("/productunit", catalog, invHandler.CreateUnit)

	inv.Get("/Location", view, invHandler.ListLocations)
	inv.Post("/Location", catalog, invHandler.CreateLocation)

	inv.Post("/availability", request, invHandler.CheckAvailability)

	wHandler := NewWithdrawalHandler(deps.WithdrawalUC, deps.SlipUC, deps.Idempotency, deps.IdempotencyTTL)
	inv.Post("/stockwithdrawal", request, wHandler.SubmitPersonal)
	inv.Post("/loctolocstockwithdrawal", transfer, wHandler.SubmitTransfer)
	inv.Get("/stockwithdrawal/:id", view, wHandler.GetByID)
	inv.Get("/stockwithdrawal/:id/pdf", view, wHandler.Slip)
	inv.Post("/stockwithdrawal/:id/approve", review, wHandler.Approve)
	inv.Post("/stockwithdrawal/:id/reject", review, wHandler.Reject)
}
