package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	apperrors "goalstat/internal/errors"
	"goalstat/internal/fedstat"
	"goalstat/internal/model"
	"goalstat/internal/store"
)

type fakeProvider struct {
	data fedstat.IndicatorData
	err  error
}

func (f *fakeProvider) FetchIndicator(context.Context, string) (fedstat.IndicatorData, error) {
	return f.data, f.err
}

type recordingStore struct {
	store.NopStore
	input store.ReconcileInput
}

func (s *recordingStore) ReconcileIndicator(_ context.Context, input store.ReconcileInput) (store.ReconcileResult, error) {
	s.input = input
	return store.ReconcileResult{IndicatorID: 7, IndicatorName: input.SourceName}, nil
}

func TestProcessIndicator(t *testing.T) {
	provider := &fakeProvider{data: fedstat.IndicatorData{
		Metadata: model.Metadata{Name: "Уровень бедности", Unit: "%"},
		Monthly: []model.MonthlyValue{{
			RegionName:    "Псковская область",
			ValueDate:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			MeasuredValue: decimal.NewFromInt(10),
		}},
	}}
	st := &recordingStore{}
	pipeline := NewPipeline(provider, st, nil)

	result, err := pipeline.ProcessIndicator(context.Background(), "https://fedstat.ru/indicator/1")
	if err != nil {
		t.Fatalf("ProcessIndicator: %v", err)
	}
	if result.IndicatorID != 7 {
		t.Errorf("result = %+v", result)
	}
	if st.input.SourceName != "Уровень бедности" || st.input.Unit != "%" {
		t.Errorf("input = %+v", st.input)
	}
	if len(st.input.Monthly) != 1 {
		t.Errorf("monthly = %d", len(st.input.Monthly))
	}
}

func TestProcessIndicatorUntitledPage(t *testing.T) {
	provider := &fakeProvider{data: fedstat.IndicatorData{}}
	pipeline := NewPipeline(provider, &store.NopStore{}, nil)

	_, err := pipeline.ProcessIndicator(context.Background(), "https://fedstat.ru/indicator/1")
	if !apperrors.IsType(err, apperrors.TypeSchema) {
		t.Fatalf("err = %v, want SCHEMA_ERROR", err)
	}
}

func TestProcessIndicatorFetchFailure(t *testing.T) {
	provider := &fakeProvider{err: apperrors.Upstream("portal down", nil)}
	st := &recordingStore{}
	pipeline := NewPipeline(provider, st, nil)

	_, err := pipeline.ProcessIndicator(context.Background(), "https://fedstat.ru/indicator/1")
	if !apperrors.IsType(err, apperrors.TypeUpstream) {
		t.Fatalf("err = %v, want UPSTREAM_ERROR", err)
	}
	if st.input.SourceName != "" {
		t.Errorf("store was called: %+v", st.input)
	}
}
