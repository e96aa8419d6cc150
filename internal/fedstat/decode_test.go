package fedstat

import (
	"testing"
	"time"
)

func decodeTestSetup(periodValues map[string]string) (*GridSchema, ResolvedAxes) {
	filters := map[string]Dimension{
		"1": {Title: "Территория", Values: map[string]string{}},
	}
	axes := ResolvedAxes{
		RegionDimensionID: "1",
		RowDimensionIDs:   []string{"1"},
	}
	if periodValues != nil {
		filters["2"] = Dimension{Title: "Период", Values: periodValues}
		axes.PeriodDimensionID = "2"
		axes.ColumnDimensionIDs = []string{"2"}
	}
	return &GridSchema{Filters: filters}, axes
}

func TestDecodeResultsMixedRow(t *testing.T) {
	schema, axes := decodeTestSetup(map[string]string{"5": "January"})
	results := []map[string]any{
		{
			"dim1":      "Region A",
			"dim2020_5": "12,3",
			"dim2021":   "45",
		},
	}

	monthly, yearly := DecodeResults(results, schema, axes)

	if len(monthly) != 1 {
		t.Fatalf("monthly = %d rows", len(monthly))
	}
	m := monthly[0]
	if m.RegionName != "Region A" {
		t.Errorf("region = %q", m.RegionName)
	}
	want := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	if !m.ValueDate.Equal(want) {
		t.Errorf("date = %v, want %v", m.ValueDate, want)
	}
	if m.MeasuredValue.String() != "12.3" {
		t.Errorf("value = %s", m.MeasuredValue)
	}

	if len(yearly) != 1 {
		t.Fatalf("yearly = %d rows", len(yearly))
	}
	y := yearly[0]
	if y.RegionName != "Region A" || y.Year != 2021 || y.YearlyValue.String() != "45" {
		t.Errorf("yearly = %+v", y)
	}
}

func TestDecodeResultsKeyShapes(t *testing.T) {
	// The same (2023, January) observation in both composite shapes.
	schema, axes := decodeTestSetup(map[string]string{"7": "январь"})

	for _, field := range []string{"dim2023_7", "dim7_2023"} {
		results := []map[string]any{{"dim1": "Р", field: "1,5"}}
		monthly, yearly := DecodeResults(results, schema, axes)
		if len(yearly) != 0 {
			t.Errorf("%s: yearly = %d rows", field, len(yearly))
		}
		if len(monthly) != 1 {
			t.Fatalf("%s: monthly = %d rows", field, len(monthly))
		}
		if got := monthly[0].ValueDate; got != time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC) {
			t.Errorf("%s: date = %v", field, got)
		}
	}
}

func TestDecodeResultsAnnualMarker(t *testing.T) {
	schema, axes := decodeTestSetup(map[string]string{
		"9": "значение показателя за год",
	})
	results := []map[string]any{{"dim1": "Region A", "dim2022_9": "100,0"}}

	monthly, yearly := DecodeResults(results, schema, axes)
	if len(monthly) != 0 {
		t.Errorf("monthly = %d rows, want 0", len(monthly))
	}
	if len(yearly) != 1 || yearly[0].Year != 2022 || yearly[0].YearlyValue.String() != "100" {
		t.Fatalf("yearly = %+v", yearly)
	}
}

func TestDecodeResultsCumulativeLabels(t *testing.T) {
	schema, axes := decodeTestSetup(map[string]string{
		"5": "январь",
		"6": "январь-декабрь",
		"7": "январь – январь",
	})
	results := []map[string]any{{
		"dim1":      "Region A",
		"dim2020_5": "1",
		"dim2020_6": "12",
		"dim2020_7": "99",
	}}

	monthly, _ := DecodeResults(results, schema, axes)

	// январь and январь-январь are the same calendar point; first wins.
	if len(monthly) != 2 {
		t.Fatalf("monthly = %d rows, want 2", len(monthly))
	}
	byMonth := map[time.Month]string{}
	for _, m := range monthly {
		byMonth[m.ValueDate.Month()] = m.MeasuredValue.String()
	}
	if byMonth[time.January] != "1" {
		t.Errorf("january = %q, want first-seen value", byMonth[time.January])
	}
	if byMonth[time.December] != "12" {
		t.Errorf("december = %q", byMonth[time.December])
	}
}

func TestDecodeResultsSkipsBadRowsAndFields(t *testing.T) {
	schema, axes := decodeTestSetup(map[string]string{"5": "январь", "8": "квартал I"})
	results := []map[string]any{
		{"dim2020_5": "1"},            // no region
		{"dim1": "  ", "dim2020": "2"}, // blank region
		{
			"dim1":       "Region A",
			"dim2020_8":  "3",    // unsupported granularity
			"dim20xx":    "4",    // not a year
			"dim2020_99": "5",    // unknown period value
			"dim2020_5":  "нет",  // non-numeric cell
			"dim2021":    "7,25", // survives
		},
	}

	monthly, yearly := DecodeResults(results, schema, axes)
	if len(monthly) != 0 {
		t.Errorf("monthly = %+v, want empty", monthly)
	}
	if len(yearly) != 1 || yearly[0].Year != 2021 || yearly[0].YearlyValue.String() != "7.25" {
		t.Fatalf("yearly = %+v", yearly)
	}
}

func TestDecodeResultsEmpty(t *testing.T) {
	schema, axes := decodeTestSetup(nil)
	monthly, yearly := DecodeResults(nil, schema, axes)
	if len(monthly) != 0 || len(yearly) != 0 {
		t.Fatalf("monthly = %d, yearly = %d", len(monthly), len(yearly))
	}
}

func TestDecodeResultsNoYearDimensionBareKeys(t *testing.T) {
	schema, axes := decodeTestSetup(nil)
	results := []map[string]any{
		{"dim1": "Region B", "dim2019": "3,14", "dim2020": "2,71"},
	}

	monthly, yearly := DecodeResults(results, schema, axes)
	if len(monthly) != 0 {
		t.Errorf("monthly = %d rows", len(monthly))
	}
	if len(yearly) != 2 {
		t.Fatalf("yearly = %+v", yearly)
	}
}
