package fedstat

import (
	"reflect"
	"testing"

	apperrors "goalstat/internal/errors"
)

func testSchema(filters map[string]Dimension) *GridSchema {
	return &GridSchema{Title: "t", Unit: "u", Filters: filters}
}

func TestResolveAxes(t *testing.T) {
	schema := testSchema(map[string]Dimension{
		"10": {Title: "Территория"},
		"20": {Title: "Период"},
		"30": {Title: "Год"},
		"40": {Title: "Вид деятельности"},
	})

	axes, err := ResolveAxes(schema)
	if err != nil {
		t.Fatalf("ResolveAxes: %v", err)
	}
	if axes.RegionDimensionID != "10" {
		t.Errorf("region = %q", axes.RegionDimensionID)
	}
	if axes.PeriodDimensionID != "20" {
		t.Errorf("period = %q", axes.PeriodDimensionID)
	}
	if axes.YearDimensionID != "30" {
		t.Errorf("year = %q", axes.YearDimensionID)
	}
	if !reflect.DeepEqual(axes.RowDimensionIDs, []string{"10", "40"}) {
		t.Errorf("rows = %v", axes.RowDimensionIDs)
	}
	if !reflect.DeepEqual(axes.ColumnDimensionIDs, []string{"20", "30"}) {
		t.Errorf("columns = %v", axes.ColumnDimensionIDs)
	}
}

func TestResolveAxesEnglishTitles(t *testing.T) {
	schema := testSchema(map[string]Dimension{
		"1": {Title: "Territory"},
		"2": {Title: "Reporting period"},
	})

	axes, err := ResolveAxes(schema)
	if err != nil {
		t.Fatalf("ResolveAxes: %v", err)
	}
	if axes.RegionDimensionID != "1" || axes.PeriodDimensionID != "2" {
		t.Errorf("axes = %+v", axes)
	}
}

func TestResolveAxesNoRegion(t *testing.T) {
	schema := testSchema(map[string]Dimension{
		"1": {Title: "Период"},
		"2": {Title: "Год"},
	})

	_, err := ResolveAxes(schema)
	if !apperrors.IsType(err, apperrors.TypeSchema) {
		t.Fatalf("err = %v, want SCHEMA_ERROR", err)
	}
}

func TestResolveAxesPeriodAndYearCollide(t *testing.T) {
	// "Период по годам" matches both role keyword sets; the dimension is
	// treated as period only and the year comes out of the field keys.
	schema := testSchema(map[string]Dimension{
		"1": {Title: "Территория"},
		"2": {Title: "Период по годам"},
	})

	axes, err := ResolveAxes(schema)
	if err != nil {
		t.Fatalf("ResolveAxes: %v", err)
	}
	if axes.PeriodDimensionID != "2" {
		t.Errorf("period = %q", axes.PeriodDimensionID)
	}
	if axes.YearDimensionID != "" {
		t.Errorf("year = %q, want empty", axes.YearDimensionID)
	}
	if !reflect.DeepEqual(axes.ColumnDimensionIDs, []string{"2"}) {
		t.Errorf("columns = %v", axes.ColumnDimensionIDs)
	}
}

func TestResolveAxesDeterministicFirstMatch(t *testing.T) {
	// Two region-like dimensions: the numerically smaller ID wins, every run.
	schema := testSchema(map[string]Dimension{
		"12": {Title: "Территория приема"},
		"7":  {Title: "Территория отправления"},
	})

	for i := 0; i < 10; i++ {
		axes, err := ResolveAxes(schema)
		if err != nil {
			t.Fatalf("ResolveAxes: %v", err)
		}
		if axes.RegionDimensionID != "7" {
			t.Fatalf("region = %q, want 7", axes.RegionDimensionID)
		}
	}
}
