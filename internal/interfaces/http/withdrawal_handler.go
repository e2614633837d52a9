package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/clinica-stock-api/internal/application/dto"
	"github.com/jhoicas/clinica-stock-api/internal/application/ports"
	"github.com/jhoicas/clinica-stock-api/internal/application/withdrawal"
)

// HeaderIdempotencyKey cabecera opcional para evitar envíos duplicados.
const HeaderIdempotencyKey = "Idempotency-Key"

// WithdrawalHandler envío, revisión y comprobante de solicitudes de retiro.
type WithdrawalHandler struct {
	uc          *withdrawal.WithdrawalUseCase
	slip        *withdrawal.SlipUseCase
	idempotency ports.IdempotencyStore
	ttl         time.Duration
}

// NewWithdrawalHandler construye el handler. idempotency puede ser nil (sin deduplicación).
func NewWithdrawalHandler(uc *withdrawal.WithdrawalUseCase, slip *withdrawal.SlipUseCase, idempotency ports.IdempotencyStore, ttl time.Duration) *WithdrawalHandler {
	return &WithdrawalHandler{uc: uc, slip: slip, idempotency: idempotency, ttl: ttl}
}

type submitFunc func(c *fiber.Ctx, userID string, in dto.CreateWithdrawalRequest) (*dto.WithdrawalResponse, error)

// SubmitPersonal godoc
// @Summary      Solicitar retiro de stock personal
// @Description  Bloquea el stock del usuario, verifica cada fila y registra la solicitud como pendiente.
// @Tags         withdrawals
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave para evitar envíos duplicados"
// @Param        body  body  dto.CreateWithdrawalRequest  true  "items: productId, batchId, unitId, quantity"
// @Success      201  {object}  dto.WithdrawalResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse  "INSUFFICIENT_STOCK con el detalle por fila, o DUPLICATE_SUBMISSION"
// @Router       /api/inventory/stockwithdrawal [post]
func (h *WithdrawalHandler) SubmitPersonal(c *fiber.Ctx) error {
	return h.submit(c, func(c *fiber.Ctx, userID string, in dto.CreateWithdrawalRequest) (*dto.WithdrawalResponse, error) {
		return h.uc.SubmitPersonal(c.UserContext(), userID, in)
	})
}

// SubmitTransfer godoc
// @Summary      Solicitar traslado entre ubicaciones
// @Tags         withdrawals
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string  false  "Clave para evitar envíos duplicados"
// @Param        body  body  dto.CreateWithdrawalRequest  true  "items: productId, batchId, unitId, fromLocationId, toLocationId, quantity"
// @Success      201  {object}  dto.WithdrawalResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/loctolocstockwithdrawal [post]
func (h *WithdrawalHandler) SubmitTransfer(c *fiber.Ctx) error {
	return h.submit(c, func(c *fiber.Ctx, userID string, in dto.CreateWithdrawalRequest) (*dto.WithdrawalResponse, error) {
		return h.uc.SubmitTransfer(c.UserContext(), userID, in)
	})
}

func (h *WithdrawalHandler) submit(c *fiber.Ctx, fn submitFunc) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.CreateWithdrawalRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if details := validateStruct(in); details != nil {
		return validationFailed(c, details)
	}

	key := c.Get(HeaderIdempotencyKey)
	if key != "" && h.idempotency != nil {
		// La clave se aísla por usuario.
		key = userID + ":" + key
		first, err := h.idempotency.MarkProcessed(c.UserContext(), key, h.ttl)
		if err != nil {
			return writeError(c, err, "")
		}
		if !first {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE_SUBMISSION", Message: "la solicitud ya fue enviada"})
		}
	}

	out, err := fn(c, userID, in)
	if err != nil {
		if key != "" && h.idempotency != nil {
			// Un envío fallido puede reintentarse con la misma clave.
			if rerr := h.idempotency.Release(c.UserContext(), key); rerr != nil {
				log.Warn().Err(rerr).Str("key", key).Msg("liberar clave de idempotencia")
			}
		}
		return writeError(c, err, "producto, lote, unidad o ubicación no encontrado")
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener solicitud de retiro
// @Tags         withdrawals
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.WithdrawalResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stockwithdrawal/{id} [get]
func (h *WithdrawalHandler) GetByID(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.GetByID(c.UserContext(), userID, GetRole(c), c.Params("id"))
	if err != nil {
		return writeError(c, err, "solicitud no encontrada")
	}
	return c.JSON(out)
}

// Approve godoc
// @Summary      Aprobar solicitud de retiro
// @Description  Vuelve a verificar el stock bajo bloqueo y lo descuenta (o traslada al destino).
// @Tags         withdrawals
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.WithdrawalResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/stockwithdrawal/{id}/approve [post]
func (h *WithdrawalHandler) Approve(c *fiber.Ctx) error {
	return h.review(c, h.uc.Approve)
}

// Reject godoc
// @Summary      Rechazar solicitud de retiro
// @Tags         withdrawals
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.WithdrawalResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/stockwithdrawal/{id}/reject [post]
func (h *WithdrawalHandler) Reject(c *fiber.Ctx) error {
	return h.review(c, h.uc.Reject)
}

func (h *WithdrawalHandler) review(c *fiber.Ctx, fn func(ctx context.Context, reviewerID, id string) (*dto.WithdrawalResponse, error)) error {
	reviewerID := GetUserID(c)
	if reviewerID == "" {
		return unauthorized(c)
	}
	out, err := fn(c.UserContext(), reviewerID, c.Params("id"))
	if err != nil {
		return writeError(c, err, "solicitud no encontrada")
	}
	return c.JSON(out)
}

// Slip godoc
// @Summary      Comprobante PDF de la solicitud
// @Tags         withdrawals
// @Security     Bearer
// @Produce      application/pdf
// @Param        id  path  string  true  "ID de la solicitud"
// @Success      200  {file}    binary
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stockwithdrawal/{id}/pdf [get]
func (h *WithdrawalHandler) Slip(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	pdf, filename, err := h.slip.Render(c.UserContext(), userID, GetRole(c), c.Params("id"))
	if err != nil {
		return writeError(c, err, "solicitud no encontrada")
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+filename+`"`)
	return c.Send(pdf)
}
