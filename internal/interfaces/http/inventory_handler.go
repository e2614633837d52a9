package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/clinica-stock-api/internal/application/dto"
	"github.com/jhoicas/clinica-stock-api/internal/application/usecase"
	"github.com/jhoicas/clinica-stock-api/internal/application/withdrawal"
	"github.com/jhoicas/clinica-stock-api/internal/domain"
	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
)

// InventoryHandler consultas de stock, unidades, ubicaciones y verificación de disponibilidad.
type InventoryHandler struct {
	stock        *usecase.StockUseCase
	units        *usecase.ProductUnitUseCase
	locations    *usecase.LocationUseCase
	availability *withdrawal.AvailabilityUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	stock *usecase.StockUseCase,
	units *usecase.ProductUnitUseCase,
	locations *usecase.LocationUseCase,
	availability *withdrawal.AvailabilityUseCase,
) *InventoryHandler {
	return &InventoryHandler{stock: stock, units: units, locations: locations, availability: availability}
}

// PersonalStock godoc
// @Summary      Stock personal del usuario
// @Description  Entradas de stock que tiene a cargo el usuario del token. Cantidades en unidad base.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.StockEntryResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock/usercheck [get]
func (h *InventoryHandler) PersonalStock(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	out, err := h.stock.ListPersonal(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err, "")
	}
	return c.JSON(out)
}

// LocationStock godoc
// @Summary      Stock por ubicación
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        locationId  query  string  false  "Filtrar por ubicación. Vacío = todas."
// @Success      200  {array}   dto.StockEntryResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock/location [get]
func (h *InventoryHandler) LocationStock(c *fiber.Ctx) error {
	out, err := h.stock.ListByLocation(c.UserContext(), c.Query("locationId"))
	if err != nil {
		return writeError(c, err, "")
	}
	return c.JSON(out)
}

// UnitsByProduct godoc
// @Summary      Unidades de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "ID del producto"
// @Success      200  {array}   dto.ProductUnitResponse
// @Router       /api/inventory/productunit/pro/{productId} [get]
func (h *InventoryHandler) UnitsByProduct(c *fiber.Ctx) error {
	out, err := h.units.ListByProduct(c.UserContext(), c.Params("productId"))
	if err != nil {
		return writeError(c, err, "producto no encontrado")
	}
	return c.JSON(out)
}

// GetUnit godoc
// @Summary      Obtener una unidad
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        unitId  path  string  true  "ID de la unidad"
// @Success      200  {object}  dto.ProductUnitResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/productunit/get/{unitId} [get]
func (h *InventoryHandler) GetUnit(c *fiber.Ctx) error {
	out, err := h.units.GetByID(c.UserContext(), c.Params("unitId"))
	if err != nil {
		return writeError(c, err, "unidad no encontrada")
	}
	return c.JSON(out)
}

// CreateUnit godoc
// @Summary      Crear unidad de producto
// @Description  La primera unidad de un producto queda como predeterminada; marcar otra como predeterminada desmarca la anterior.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProductUnitRequest  true  "productId, name, conversionToBase, isDefault"
// @Success      201  {object}  dto.ProductUnitResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/productunit [post]
func (h *InventoryHandler) CreateUnit(c *fiber.Ctx) error {
	var in dto.CreateProductUnitRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if details := validateStruct(in); details != nil {
		return validationFailed(c, details)
	}
	out, err := h.units.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, err, "producto no encontrado")
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListLocations godoc
// @Summary      Listar ubicaciones
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite (default 20, máx 100)"
// @Param        offset  query  int  false  "Desplazamiento"
// @Success      200  {object}  dto.LocationListResponse
// @Router       /api/inventory/Location [get]
func (h *InventoryHandler) ListLocations(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	out, err := h.locations.List(c.UserContext(), page)
	if err != nil {
		return writeError(c, err, "")
	}
	return c.JSON(out)
}

// CreateLocation godoc
// @Summary      Crear ubicación
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateLocationRequest  true  "name, description"
// @Success      201  {object}  dto.LocationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/Location [post]
func (h *InventoryHandler) CreateLocation(c *fiber.Ctx) error {
	var in dto.CreateLocationRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if details := validateStruct(in); details != nil {
		return validationFailed(c, details)
	}
	out, err := h.locations.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, err, "")
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// CheckAvailability godoc
// @Summary      Verificar disponibilidad de filas borrador
// @Description  Evalúa cada fila por separado contra el stock actual sin registrar nada.
// @Description  Personal: stock del usuario por lote. Traslado: stock del lote en la ubicación de origen.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AvailabilityRequest  true  "kind, items"
// @Success      200  {object}  dto.AvailabilityResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/availability [post]
func (h *InventoryHandler) CheckAvailability(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.AvailabilityRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if details := validateStruct(in); details != nil {
		return validationFailed(c, details)
	}
	if in.Kind == entity.WithdrawalKindTransfer && !entity.Can(GetRole(c), entity.CapTransferBetweenLocations) {
		return writeError(c, domain.ErrForbidden, "")
	}
	out, err := h.availability.Check(c.UserContext(), userID, in)
	if err != nil {
		return writeError(c, err, "unidad no encontrada")
	}
	return c.JSON(out)
}
