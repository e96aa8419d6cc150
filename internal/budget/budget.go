// Package budget fetches project budget records from a remote JSON endpoint.
package budget

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	apperrors "goalstat/internal/errors"
	"goalstat/internal/model"
)

const fetchTimeout = 30 * time.Second

type Fetcher struct {
	client *http.Client
	logger *zap.Logger
}

func NewFetcher(logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		client: &http.Client{Timeout: fetchTimeout},
		logger: logger,
	}
}

// Fetch downloads the budget feed. The endpoint returns a flat JSON array of
// per-project, per-region, per-year records.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]model.BudgetRecord, error) {
	if url == "" {
		return nil, apperrors.Input("budget feed url is required")
	}

	f.logger.Info("fetching budget feed", zap.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.TypeInput, "build budget request", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperrors.Upstream("fetch budget feed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.Upstream(fmt.Sprintf("budget feed returned status %d", resp.StatusCode), nil)
	}

	var records []model.BudgetRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, apperrors.Upstream("decode budget feed", err)
	}

	f.logger.Info("budget feed fetched", zap.Int("records", len(records)))
	return records, nil
}
