package quote_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/storefront-kit/pricing-api/internal/catalog"
	"github.com/storefront-kit/pricing-api/internal/currency"
	"github.com/storefront-kit/pricing-api/internal/pricing"
	"github.com/storefront-kit/pricing-api/internal/quote"
)

type fakeProducts map[string]*catalog.Product

func (f fakeProducts) ProductByID(_ context.Context, id string) (*catalog.Product, error) {
	return f[id], nil
}

type fakeCustomers map[string]*catalog.Customer

func (f fakeCustomers) CustomerByID(_ context.Context, id string) (*catalog.Customer, error) {
	return f[id], nil
}

type fakeCurrencies map[string]currency.Currency

func (f fakeCurrencies) ByCode(_ context.Context, code string) (currency.Currency, error) {
	cur, ok := f[code]
	if !ok {
		return currency.Currency{}, currency.ErrNotFound
	}
	return cur, nil
}

func testHandler(t *testing.T) (*quote.Handler, fakeProducts) {
	t.Helper()
	products := fakeProducts{
		"p1": {
			ID:    "p1",
			Name:  "Widget",
			Price: decimal.RequireFromString("49.99"),
			Cost:  decimal.RequireFromString("20"),
			TierPrices: []catalog.TierPrice{
				{Quantity: 10, Price: decimal.RequireFromString("45"), CurrencyCode: "USD"},
			},
		},
	}
	engine := &pricing.Engine{
		Converter: currency.Converter{PrimaryCode: "USD"},
		Products:  products,
	}
	return &quote.Handler{
		Engine:          engine,
		Products:        products,
		Customers:       fakeCustomers{},
		Currencies:      fakeCurrencies{"EUR": {Code: "EUR", Rate: decimal.NewFromInt(2)}},
		Validate:        validator.New(),
		PrimaryCurrency: "USD",
		Log:             zerolog.Nop(),
	}, products
}

func postJSON(t *testing.T, fn http.HandlerFunc, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

type priceResponse struct {
	Data struct {
		Price    decimal.Decimal `json:"price"`
		SubTotal decimal.Decimal `json:"subtotal"`
		Discount decimal.Decimal `json:"discount"`
		Cost     decimal.Decimal `json:"cost"`
		Currency string          `json:"currency"`
	} `json:"data"`
}

func TestFinalPriceHandler(t *testing.T) {
	h, _ := testHandler(t)
	rec := postJSON(t, h.FinalPrice, map[string]any{"productId": "p1", "quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	var res priceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.Data.Price.Equal(decimal.RequireFromString("49.99")), "got %s", res.Data.Price)
	require.Equal(t, "USD", res.Data.Currency)
}

func TestFinalPriceHandlerTierQuantity(t *testing.T) {
	h, _ := testHandler(t)
	rec := postJSON(t, h.FinalPrice, map[string]any{"productId": "p1", "quantity": 10})
	require.Equal(t, http.StatusOK, rec.Code)
	var res priceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.Data.Price.Equal(decimal.NewFromInt(45)), "got %s", res.Data.Price)
}

func TestFinalPriceHandlerCurrencyConversion(t *testing.T) {
	h, _ := testHandler(t)
	rec := postJSON(t, h.FinalPrice, map[string]any{"productId": "p1", "currency": "EUR"})
	require.Equal(t, http.StatusOK, rec.Code)
	var res priceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.Data.Price.Equal(decimal.RequireFromString("99.98")), "got %s", res.Data.Price)
	require.Equal(t, "EUR", res.Data.Currency)
}

func TestFinalPriceHandlerUnknownCurrency(t *testing.T) {
	h, _ := testHandler(t)
	rec := postJSON(t, h.FinalPrice, map[string]any{"productId": "p1", "currency": "XXX"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFinalPriceHandlerMissingProduct(t *testing.T) {
	h, _ := testHandler(t)
	rec := postJSON(t, h.FinalPrice, map[string]any{"productId": "ghost"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFinalPriceHandlerValidation(t *testing.T) {
	h, _ := testHandler(t)
	rec := postJSON(t, h.FinalPrice, map[string]any{"quantity": 1})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, h.FinalPrice, map[string]any{"productId": "p1", "quantity": -2})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnitPriceHandlerEnteredPrice(t *testing.T) {
	h, products := testHandler(t)
	products["p1"].EnteredPrice = true
	rec := postJSON(t, h.UnitPrice, map[string]any{"productId": "p1", "enteredPrice": "25", "quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	var res priceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.Data.Price.Equal(decimal.NewFromInt(25)), "got %s", res.Data.Price)
}

func TestSubTotalHandler(t *testing.T) {
	h, _ := testHandler(t)
	rec := postJSON(t, h.SubTotal, map[string]any{"productId": "p1", "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	var res priceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.Data.SubTotal.Equal(decimal.RequireFromString("99.98")), "got %s", res.Data.SubTotal)
}

func TestCostHandler(t *testing.T) {
	h, _ := testHandler(t)
	rec := postJSON(t, h.Cost, map[string]any{"productId": "p1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var res priceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.Data.Cost.Equal(decimal.NewFromInt(20)), "got %s", res.Data.Cost)
}

func TestHandlerRejectsInvalidJSON(t *testing.T) {
	h, _ := testHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	h.FinalPrice(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
