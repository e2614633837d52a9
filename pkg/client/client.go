// Package client es el cliente HTTP tipado de la API de stock de la clínica.
// Implementa withdrawal.Lookup para que un formulario de retiro (DraftRow) resuelva
// unidades y stock contra el servidor.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/clinica-stock-api/internal/application/dto"
	"github.com/jhoicas/clinica-stock-api/internal/application/withdrawal"
	"github.com/jhoicas/clinica-stock-api/internal/domain"
	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
)

var _ withdrawal.Lookup = (*Client)(nil)

// Client habla con /api. Es seguro para uso concurrente.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// Option configura el cliente.
type Option func(*Client)

// WithHTTPClient reemplaza el http.Client por defecto.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken fija un JWT ya emitido.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New construye el cliente. baseURL sin la barra final, p. ej. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// APIError respuesta de error del servidor. errors.Is la compara con el error de dominio equivalente.
type APIError struct {
	Status int
	dto.ErrorResponse
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusBadRequest:
		return domain.ErrInvalidInput
	case http.StatusConflict:
		if e.Code == "INSUFFICIENT_STOCK" {
			return domain.ErrInsufficientStock
		}
		return domain.ErrConflict
	}
	return nil
}

// Login obtiene un JWT y lo usa en las llamadas siguientes.
func (c *Client) Login(ctx context.Context, email, password string) (*dto.LoginResponse, error) {
	var out dto.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", dto.LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.token = out.Token
	c.mu.Unlock()
	return &out, nil
}

// Unit GET /api/inventory/productunit/get/:unitId.
func (c *Client) Unit(ctx context.Context, unitID string) (*entity.ProductUnit, error) {
	var out dto.ProductUnitResponse
	if err := c.do(ctx, http.MethodGet, "/api/inventory/productunit/get/"+url.PathEscape(unitID), nil, &out); err != nil {
		return nil, err
	}
	return &entity.ProductUnit{
		ID:               out.ID,
		ProductID:        out.ProductID,
		Name:             out.Name,
		ConversionToBase: out.ConversionToBase,
		IsDefault:        out.IsDefault,
	}, nil
}

// Units GET /api/inventory/productunit/pro/:productId.
func (c *Client) Units(ctx context.Context, productID string) ([]dto.ProductUnitResponse, error) {
	var out []dto.ProductUnitResponse
	if err := c.do(ctx, http.MethodGet, "/api/inventory/productunit/pro/"+url.PathEscape(productID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PersonalStock GET /api/inventory/stock/usercheck.
func (c *Client) PersonalStock(ctx context.Context) ([]*entity.StockEntry, error) {
	var out []dto.StockEntryResponse
	if err := c.do(ctx, http.MethodGet, "/api/inventory/stock/usercheck", nil, &out); err != nil {
		return nil, err
	}
	return toEntries(out), nil
}

// LocationStock GET /api/inventory/stock/location?locationId=.
func (c *Client) LocationStock(ctx context.Context, locationID string) ([]*entity.StockEntry, error) {
	path := "/api/inventory/stock/location"
	if locationID != "" {
		path += "?" + url.Values{"locationId": {locationID}}.Encode()
	}
	var out []dto.StockEntryResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return toEntries(out), nil
}

// CheckAvailability POST /api/inventory/availability.
func (c *Client) CheckAvailability(ctx context.Context, in dto.AvailabilityRequest) (*dto.AvailabilityResponse, error) {
	var out dto.AvailabilityResponse
	if err := c.do(ctx, http.MethodPost, "/api/inventory/availability", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitPersonal POST /api/inventory/stockwithdrawal. idempotencyKey vacío = sin deduplicación.
func (c *Client) SubmitPersonal(ctx context.Context, in dto.CreateWithdrawalRequest, idempotencyKey string) (*dto.WithdrawalResponse, error) {
	var out dto.WithdrawalResponse
	if err := c.doWithKey(ctx, http.MethodPost, "/api/inventory/stockwithdrawal", in, &out, idempotencyKey); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitTransfer POST /api/inventory/loctolocstockwithdrawal.
func (c *Client) SubmitTransfer(ctx context.Context, in dto.CreateWithdrawalRequest, idempotencyKey string) (*dto.WithdrawalResponse, error) {
	var out dto.WithdrawalResponse
	if err := c.doWithKey(ctx, http.MethodPost, "/api/inventory/loctolocstockwithdrawal", in, &out, idempotencyKey); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	return c.doWithKey(ctx, method, path, in, out, "")
}

func (c *Client) doWithKey(ctx context.Context, method, path string, in, out any, idempotencyKey string) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client: serializar request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("client: crear request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		// Cuerpo vacío o no JSON: queda solo el estado.
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&apiErr.ErrorResponse)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decodificar respuesta: %w", err)
	}
	return nil
}

func toEntries(in []dto.StockEntryResponse) []*entity.StockEntry {
	out := make([]*entity.StockEntry, 0, len(in))
	for _, s := range in {
		out = append(out, &entity.StockEntry{
			ID:           s.ID,
			ProductID:    s.ProductID,
			BatchID:      s.BatchID,
			BatchNumber:  s.BatchNumber,
			LocationID:   s.LocationID,
			LocationName: s.LocationName,
			ExpiryDate:   s.ExpiryDate,
			QuantityBase: s.Quantity,
			UpdatedAt:    s.UpdatedAt,
		})
	}
	return out
}
