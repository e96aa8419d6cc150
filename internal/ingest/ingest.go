// Package ingest wires the fedstat provider to the store: one call fetches
// an indicator from the portal and reconciles it into the catalog.
package ingest

import (
	"context"

	"go.uber.org/zap"

	apperrors "goalstat/internal/errors"
	"goalstat/internal/fedstat"
	"goalstat/internal/store"
)

// Provider is the portal-facing half of the pipeline. *fedstat.Provider
// satisfies it; tests substitute a fake.
type Provider interface {
	FetchIndicator(ctx context.Context, pageURL string) (fedstat.IndicatorData, error)
}

type Pipeline struct {
	provider Provider
	store    store.Store
	logger   *zap.Logger
}

func NewPipeline(provider Provider, st store.Store, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{provider: provider, store: st, logger: logger}
}

// ProcessIndicator fetches the indicator behind pageURL and reconciles the
// decoded series into the store. The indicator must already exist in the
// curated catalog; a miss surfaces as a catalog error and nothing is written.
func (p *Pipeline) ProcessIndicator(ctx context.Context, pageURL string) (store.ReconcileResult, error) {
	data, err := p.provider.FetchIndicator(ctx, pageURL)
	if err != nil {
		return store.ReconcileResult{}, err
	}
	if data.Metadata.Name == "" {
		return store.ReconcileResult{}, apperrors.Schema("indicator page has no title")
	}

	p.logger.Info("indicator fetched",
		zap.String("name", data.Metadata.Name),
		zap.Int("monthly", len(data.Monthly)),
		zap.Int("yearly", len(data.Yearly)),
	)

	result, err := p.store.ReconcileIndicator(ctx, store.ReconcileInput{
		SourceName: data.Metadata.Name,
		Unit:       data.Metadata.Unit,
		Monthly:    data.Monthly,
		Yearly:     data.Yearly,
	})
	if err != nil {
		return store.ReconcileResult{}, err
	}

	p.logger.Info("indicator reconciled",
		zap.Int64("indicator_id", result.IndicatorID),
		zap.Int("monthly_rows", result.MonthlyRows),
		zap.Int("yearly_rows", result.YearlyRows),
	)
	return result, nil
}
