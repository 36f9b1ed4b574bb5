package quote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeInvalidator struct {
	ids []string
	err error
}

func (f *fakeInvalidator) InvalidateProduct(_ context.Context, id string) error {
	f.ids = append(f.ids, id)
	return f.err
}

func TestSyncRatesUnavailableWithoutQueue(t *testing.T) {
	h := &AdminHandler{Log: zerolog.Nop()}
	rec := httptest.NewRecorder()
	h.SyncRates(rec, httptest.NewRequest(http.MethodPost, "/admin/rates/sync", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestInvalidateProduct(t *testing.T) {
	inv := &fakeInvalidator{}
	h := &AdminHandler{Catalog: inv, Log: zerolog.Nop()}

	r := chi.NewRouter()
	r.Post("/admin/products/{productId}/invalidate", h.InvalidateProduct)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/products/p1/invalidate", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"p1"}, inv.ids)

	var body struct {
		Data struct {
			Invalidated string `json:"invalidated"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "p1", body.Data.Invalidated)
}

func TestInvalidateProductWithoutCatalog(t *testing.T) {
	h := &AdminHandler{Log: zerolog.Nop()}
	r := chi.NewRouter()
	r.Post("/admin/products/{productId}/invalidate", h.InvalidateProduct)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/products/p1/invalidate", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
