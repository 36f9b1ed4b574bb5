package currency

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/storefront-kit/pricing-api/internal/obs"
)

// TaskRatesSync is the asynq task type for refreshing exchange rates.
const TaskRatesSync = "rates:sync"

// NewSyncTask builds the rate refresh task. The task carries no payload; the
// syncer derives the symbol list from the configured currencies.
func NewSyncTask() *asynq.Task {
	return asynq.NewTask(TaskRatesSync, nil, asynq.MaxRetry(3))
}

// Syncer refreshes stored exchange rates from a rate provider.
type Syncer struct {
	Repo     *Repository
	Provider RateProvider
	Primary  string
	Logger   zerolog.Logger
}

// HandleSync implements the asynq handler for TaskRatesSync.
func (s *Syncer) HandleSync(ctx context.Context, _ *asynq.Task) error {
	err := s.sync(ctx)
	if obs.RateSyncTotal != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		obs.RateSyncTotal.WithLabelValues(result).Inc()
	}
	return err
}

func (s *Syncer) sync(ctx context.Context) error {
	currencies, err := s.Repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load currencies: %w", err)
	}
	symbols := make([]string, 0, len(currencies))
	for _, cur := range currencies {
		if cur.Code != s.Primary {
			symbols = append(symbols, cur.Code)
		}
	}
	if len(symbols) == 0 {
		s.Logger.Info().Msg("rates sync: no foreign currencies configured")
		return nil
	}
	rates, err := s.Provider.Latest(ctx, s.Primary, symbols)
	if err != nil {
		return fmt.Errorf("fetch rates: %w", err)
	}
	updated := 0
	for _, code := range symbols {
		rate, ok := rates[code]
		if !ok || !rate.IsPositive() {
			s.Logger.Warn().Str("code", code).Msg("rates sync: provider returned no usable rate")
			continue
		}
		if err := s.Repo.UpsertRate(ctx, code, rate); err != nil {
			return err
		}
		updated++
	}
	s.Logger.Info().Int("updated", updated).Int("requested", len(symbols)).Msg("rates sync complete")
	return nil
}
