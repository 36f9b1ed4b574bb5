package quote

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/storefront-kit/pricing-api/internal/common"
	"github.com/storefront-kit/pricing-api/internal/currency"
)

// productInvalidator drops a cached product aggregate.
type productInvalidator interface {
	InvalidateProduct(ctx context.Context, id string) error
}

// AdminHandler exposes operational endpoints.
type AdminHandler struct {
	Tasks   *asynq.Client
	Catalog productInvalidator
	Log     zerolog.Logger
}

// SyncRates handles POST /api/v1/admin/rates/sync by enqueueing an
// exchange-rate refresh.
func (h *AdminHandler) SyncRates(w http.ResponseWriter, r *http.Request) {
	if h.Tasks == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "task queue not configured", nil)
		return
	}
	info, err := h.Tasks.EnqueueContext(r.Context(), currency.NewSyncTask())
	if err != nil {
		h.Log.Error().Err(err).Msg("enqueue rates sync")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to enqueue rate sync", nil)
		return
	}
	common.JSON(w, http.StatusAccepted, map[string]any{"data": map[string]any{
		"taskId": info.ID,
		"queue":  info.Queue,
	}})
}

// InvalidateProduct handles POST /api/v1/admin/products/{productId}/invalidate,
// dropping the cached aggregate after a catalog change.
func (h *AdminHandler) InvalidateProduct(w http.ResponseWriter, r *http.Request) {
	if h.Catalog == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "catalog not configured", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "productId"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "productId is required", nil)
		return
	}
	if err := h.Catalog.InvalidateProduct(r.Context(), id); err != nil {
		h.Log.Error().Err(err).Str("product_id", id).Msg("invalidate product cache")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to invalidate product", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"invalidated": id}})
}
