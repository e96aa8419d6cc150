package store

import (
	"context"

	"goalstat/internal/model"
)

// ReconcileInput carries one decoded indicator extraction into storage.
type ReconcileInput struct {
	SourceName string
	Unit       string
	Monthly    []model.MonthlyValue
	Yearly     []model.YearlyValue
}

type ReconcileResult struct {
	IndicatorID   int64
	IndicatorName string
	MonthlyRows   int
	YearlyRows    int
}

type ImportStats struct {
	Processed int
	Inserted  int
	Updated   int
	Skipped   int
}

type Store interface {
	// ReconcileIndicator locates the indicator in the curated catalog and
	// upserts both series in a single all-or-nothing transaction. It never
	// creates indicator rows.
	ReconcileIndicator(ctx context.Context, input ReconcileInput) (ReconcileResult, error)

	// ImportActivities upserts news/activity items, fanning each out to the
	// projects mapped to its national goal. One transaction per call.
	ImportActivities(ctx context.Context, items []model.NewsItem) (ImportStats, error)

	// UpsertBudgets overwrites project budget rows keyed by
	// (project, region, year), auto-vivifying projects and regions.
	UpsertBudgets(ctx context.Context, records []model.BudgetRecord) (int, error)

	// UpsertCatalogIndicator is the catalog-curation entry point; the
	// ingestion pipeline itself never calls it.
	UpsertCatalogIndicator(ctx context.Context, name, unit string) (int64, error)

	ListRegions(ctx context.Context) ([]model.Region, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	IndicatorHistory(ctx context.Context, indicatorID, regionID int64) (model.IndicatorHistory, error)

	Close() error
}

// NopStore discards all writes; it backs dry-run ingestion.
type NopStore struct{}

func (s *NopStore) ReconcileIndicator(_ context.Context, input ReconcileInput) (ReconcileResult, error) {
	return ReconcileResult{
		IndicatorName: input.SourceName,
		MonthlyRows:   len(input.Monthly),
		YearlyRows:    len(input.Yearly),
	}, nil
}

func (s *NopStore) ImportActivities(_ context.Context, items []model.NewsItem) (ImportStats, error) {
	return ImportStats{Processed: len(items)}, nil
}

func (s *NopStore) UpsertBudgets(_ context.Context, records []model.BudgetRecord) (int, error) {
	return len(records), nil
}

func (s *NopStore) UpsertCatalogIndicator(_ context.Context, _, _ string) (int64, error) {
	return 0, nil
}

func (s *NopStore) ListRegions(_ context.Context) ([]model.Region, error) {
	return nil, nil
}

func (s *NopStore) ListProjects(_ context.Context) ([]model.Project, error) {
	return nil, nil
}

func (s *NopStore) IndicatorHistory(_ context.Context, _, _ int64) (model.IndicatorHistory, error) {
	return model.IndicatorHistory{}, nil
}

func (s *NopStore) Close() error {
	return nil
}
