// Package quote exposes the pricing engine over HTTP.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/storefront-kit/pricing-api/internal/catalog"
	"github.com/storefront-kit/pricing-api/internal/common"
	"github.com/storefront-kit/pricing-api/internal/currency"
	"github.com/storefront-kit/pricing-api/internal/obs"
	"github.com/storefront-kit/pricing-api/internal/pricing"
)

// currencySource resolves a working currency by ISO code.
type currencySource interface {
	ByCode(ctx context.Context, code string) (currency.Currency, error)
}

// customerSource resolves customers and their group memberships.
type customerSource interface {
	CustomerByID(ctx context.Context, id string) (*catalog.Customer, error)
}

// Handler wires the pricing engine to HTTP.
type Handler struct {
	Engine          *pricing.Engine
	Products        pricing.ProductSource
	Customers       customerSource
	Currencies      currencySource
	Validate        *validator.Validate
	PrimaryCurrency string
	Log             zerolog.Logger
}

type selectedAttribute struct {
	AttributeID string `json:"attributeId" validate:"required"`
	ValueID     string `json:"valueId" validate:"required"`
}

type finalPriceRequest struct {
	ProductID        string          `json:"productId" validate:"required"`
	CustomerID       string          `json:"customerId"`
	StoreID          string          `json:"storeId"`
	Currency         string          `json:"currency" validate:"omitempty,len=3"`
	Quantity         int             `json:"quantity" validate:"omitempty,gte=1"`
	AdditionalCharge decimal.Decimal `json:"additionalCharge"`
	IncludeDiscounts bool            `json:"includeDiscounts"`
	RentalStart      *time.Time      `json:"rentalStart"`
	RentalEnd        *time.Time      `json:"rentalEnd"`
}

type unitPriceRequest struct {
	ProductID        string              `json:"productId" validate:"required"`
	CustomerID       string              `json:"customerId"`
	StoreID          string              `json:"storeId"`
	Currency         string              `json:"currency" validate:"omitempty,len=3"`
	Quantity         int                 `json:"quantity" validate:"omitempty,gte=1"`
	CartType         string              `json:"cartType" validate:"omitempty,oneof=shopping wishlist"`
	Attributes       []selectedAttribute `json:"attributes" validate:"dive"`
	EnteredPrice     *decimal.Decimal    `json:"enteredPrice"`
	IncludeDiscounts bool                `json:"includeDiscounts"`
	RentalStart      *time.Time          `json:"rentalStart"`
	RentalEnd        *time.Time          `json:"rentalEnd"`
}

type costRequest struct {
	ProductID  string              `json:"productId" validate:"required"`
	Attributes []selectedAttribute `json:"attributes" validate:"dive"`
}

type appliedDiscountDTO struct {
	DiscountID string `json:"discountId"`
	Name       string `json:"name,omitempty"`
	MaxQty     *int   `json:"maximumDiscountedQuantity,omitempty"`
}

// FinalPrice handles POST /api/v1/pricing/final-price.
func (h *Handler) FinalPrice(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	var payload finalPriceRequest
	if !h.decode(w, r, &payload) {
		h.observe("final_price", "bad_request", started)
		return
	}
	product, cur, customer, ok := h.resolve(w, r.Context(), payload.ProductID, payload.Currency, payload.CustomerID)
	if !ok {
		h.observe("final_price", "rejected", started)
		return
	}
	res, err := h.Engine.FinalPrice(r.Context(), pricing.FinalPriceRequest{
		Product:          product,
		Context:          pricing.PriceContext{Customer: customer, StoreID: payload.StoreID, Currency: cur},
		AdditionalCharge: payload.AdditionalCharge,
		IncludeDiscounts: payload.IncludeDiscounts,
		Quantity:         payload.Quantity,
		RentalStart:      payload.RentalStart,
		RentalEnd:        payload.RentalEnd,
	})
	if err != nil {
		h.writeError(w, r, err)
		h.observe("final_price", "error", started)
		return
	}
	h.observe("final_price", "ok", started)
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"price":            res.Price,
		"discount":         res.Discount,
		"appliedDiscounts": discountDTOs(res.AppliedDiscounts),
		"currency":         cur.Code,
	}})
}

// UnitPrice handles POST /api/v1/pricing/unit-price.
func (h *Handler) UnitPrice(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	var payload unitPriceRequest
	if !h.decode(w, r, &payload) {
		h.observe("unit_price", "bad_request", started)
		return
	}
	product, cur, customer, ok := h.resolve(w, r.Context(), payload.ProductID, payload.Currency, payload.CustomerID)
	if !ok {
		h.observe("unit_price", "rejected", started)
		return
	}
	res, err := h.Engine.UnitPrice(r.Context(), pricing.UnitPriceRequest{
		Product:              product,
		Context:              pricing.PriceContext{Customer: customer, StoreID: payload.StoreID, Currency: cur},
		CartType:             cartType(payload.CartType),
		Quantity:             payload.Quantity,
		Attributes:           toSelection(payload.Attributes),
		CustomerEnteredPrice: payload.EnteredPrice,
		RentalStart:          payload.RentalStart,
		RentalEnd:            payload.RentalEnd,
		IncludeDiscounts:     payload.IncludeDiscounts,
	})
	if err != nil {
		h.writeError(w, r, err)
		h.observe("unit_price", "error", started)
		return
	}
	h.observe("unit_price", "ok", started)
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"price":            res.Price,
		"discount":         res.Discount,
		"appliedDiscounts": discountDTOs(res.AppliedDiscounts),
		"currency":         cur.Code,
	}})
}

// SubTotal handles POST /api/v1/pricing/subtotal.
func (h *Handler) SubTotal(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	var payload unitPriceRequest
	if !h.decode(w, r, &payload) {
		h.observe("subtotal", "bad_request", started)
		return
	}
	product, cur, customer, ok := h.resolve(w, r.Context(), payload.ProductID, payload.Currency, payload.CustomerID)
	if !ok {
		h.observe("subtotal", "rejected", started)
		return
	}
	item := &catalog.CartItem{
		ProductID:    payload.ProductID,
		CartType:     cartType(payload.CartType),
		Quantity:     payload.Quantity,
		Attributes:   toSelection(payload.Attributes),
		EnteredPrice: payload.EnteredPrice,
		RentalStart:  payload.RentalStart,
		RentalEnd:    payload.RentalEnd,
	}
	res, err := h.Engine.SubTotal(r.Context(), pricing.SubTotalRequest{
		Item:             item,
		Product:          product,
		Context:          pricing.PriceContext{Customer: customer, StoreID: payload.StoreID, Currency: cur},
		IncludeDiscounts: payload.IncludeDiscounts,
	})
	if err != nil {
		h.writeError(w, r, err)
		h.observe("subtotal", "error", started)
		return
	}
	h.observe("subtotal", "ok", started)
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"subtotal":         res.SubTotal,
		"discount":         res.Discount,
		"appliedDiscounts": discountDTOs(res.AppliedDiscounts),
		"currency":         cur.Code,
	}})
}

// Cost handles POST /api/v1/pricing/cost.
func (h *Handler) Cost(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	var payload costRequest
	if !h.decode(w, r, &payload) {
		h.observe("cost", "bad_request", started)
		return
	}
	product, err := h.Products.ProductByID(r.Context(), payload.ProductID)
	if err != nil {
		h.writeError(w, r, err)
		h.observe("cost", "error", started)
		return
	}
	if product == nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
		h.observe("cost", "rejected", started)
		return
	}
	cost, err := h.Engine.ProductCost(r.Context(), product, toSelection(payload.Attributes))
	if err != nil {
		h.writeError(w, r, err)
		h.observe("cost", "error", started)
		return
	}
	h.observe("cost", "ok", started)
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"cost": cost}})
}

// decode parses and validates the JSON payload, writing a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON payload", nil)
		return false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(dst); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid request", validationDetails(err))
			return false
		}
	}
	return true
}

// resolve loads the product, working currency, and optional customer shared
// by the price handlers. It writes the HTTP error itself and reports success.
func (h *Handler) resolve(w http.ResponseWriter, ctx context.Context, productID, currencyCode, customerID string) (*catalog.Product, currency.Currency, *catalog.Customer, bool) {
	product, err := h.Products.ProductByID(ctx, productID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load product", nil)
		return nil, currency.Currency{}, nil, false
	}
	if product == nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
		return nil, currency.Currency{}, nil, false
	}

	cur := currency.Currency{Code: h.PrimaryCurrency, Rate: decimal.NewFromInt(1)}
	if code := strings.ToUpper(strings.TrimSpace(currencyCode)); code != "" && code != h.PrimaryCurrency {
		cur, err = h.Currencies.ByCode(ctx, code)
		if err != nil {
			if errors.Is(err, currency.ErrNotFound) {
				common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown currency", map[string]any{"currency": code})
				return nil, currency.Currency{}, nil, false
			}
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load currency", nil)
			return nil, currency.Currency{}, nil, false
		}
	}

	if customerID == "" {
		customerID, _ = common.CustomerID(ctx)
	}
	var customer *catalog.Customer
	if customerID != "" && h.Customers != nil {
		customer, err = h.Customers.CustomerByID(ctx, customerID)
		if err != nil {
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load customer", nil)
			return nil, currency.Currency{}, nil, false
		}
	}
	return product, cur, customer, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *common.AppError
	switch {
	case errors.As(err, &appErr):
		common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
	case errors.Is(err, pricing.ErrNilProduct),
		errors.Is(err, pricing.ErrNilCartItem),
		errors.Is(err, pricing.ErrNilAttributeValue):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, pricing.ErrAssociationCycle):
		common.JSONError(w, http.StatusUnprocessableEntity, "UNPROCESSABLE", "product association cycle", nil)
	case errors.Is(err, currency.ErrNoRate):
		common.JSONError(w, http.StatusUnprocessableEntity, "UNPROCESSABLE", "currency has no exchange rate", nil)
	default:
		h.Log.Error().Err(err).Str("path", r.URL.Path).Msg("quote failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to compute price", nil)
	}
}

func (h *Handler) observe(operation, result string, started time.Time) {
	if obs.QuoteTotal != nil {
		obs.QuoteTotal.WithLabelValues(operation, result).Inc()
	}
	if obs.QuoteDuration != nil {
		obs.QuoteDuration.WithLabelValues(operation).Observe(float64(time.Since(started).Milliseconds()))
	}
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return map[string]any{"fields": fields}
}

func toSelection(attrs []selectedAttribute) []catalog.SelectedAttribute {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]catalog.SelectedAttribute, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, catalog.SelectedAttribute{AttributeID: a.AttributeID, ValueID: a.ValueID})
	}
	return out
}

func cartType(value string) catalog.CartType {
	if value == string(catalog.CartTypeWishlist) {
		return catalog.CartTypeWishlist
	}
	return catalog.CartTypeShopping
}

func discountDTOs(discounts []catalog.AppliedDiscount) []appliedDiscountDTO {
	out := make([]appliedDiscountDTO, 0, len(discounts))
	for _, d := range discounts {
		out = append(out, appliedDiscountDTO{DiscountID: d.DiscountID, Name: d.Name, MaxQty: d.MaximumDiscountedQuantity})
	}
	return out
}
