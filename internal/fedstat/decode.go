package fedstat

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"goalstat/internal/model"
)

// annualLabel is the portal's marker for a whole-year observation.
const annualLabel = "значение показателя за год"

var annualMarkers = []string{annualLabel, "annual value"}

// monthByLabel maps cumulative period labels to the final month of their
// range. The degenerate "january-january" form appears alongside plain
// "january" for the same calendar point and deduplicates against it.
var monthByLabel = map[string]int{
	"январь":          1,
	"январь-февраль":  2,
	"январь-март":     3,
	"январь-апрель":   4,
	"январь-май":      5,
	"январь-июнь":     6,
	"январь-июль":     7,
	"январь-август":   8,
	"январь-сентябрь": 9,
	"январь-октябрь":  10,
	"январь-ноябрь":   11,
	"январь-декабрь":  12,
	"январь-январь":   1,

	"january":           1,
	"january-february":  2,
	"january-march":     3,
	"january-april":     4,
	"january-may":       5,
	"january-june":      6,
	"january-july":      7,
	"january-august":    8,
	"january-september": 9,
	"january-october":   10,
	"january-november":  11,
	"january-december":  12,
	"january-january":   1,
}

type keyShape int

const (
	shapeBareYear keyShape = iota
	shapeYearPeriod
	shapePeriodYear
)

// decodedKey is one composite field key resolved to a (year, period) pair.
type decodedKey struct {
	Year     int
	PeriodID string
	Shape    keyShape
}

// decodeFieldKey tries the three supported key-shape rules in order:
// a bare 4-digit year, year followed by a known period-value ID, and the
// reversed period-then-year form. Keys matching none are not data fields.
func decodeFieldKey(field string, periodValues map[string]string) (decodedKey, bool) {
	rest, ok := strings.CutPrefix(field, "dim")
	if !ok {
		return decodedKey{}, false
	}

	parts := strings.Split(rest, "_")
	switch {
	case len(parts) == 1:
		if year, ok := parseYear(parts[0]); ok {
			return decodedKey{Year: year, Shape: shapeBareYear}, true
		}
	case len(parts) >= 2:
		if year, ok := parseYear(parts[0]); ok {
			if _, known := periodValues[parts[1]]; known {
				return decodedKey{Year: year, PeriodID: parts[1], Shape: shapeYearPeriod}, true
			}
		}
		if year, ok := parseYear(parts[1]); ok {
			if _, known := periodValues[parts[0]]; known {
				return decodedKey{Year: year, PeriodID: parts[0], Shape: shapePeriodYear}, true
			}
		}
	}
	return decodedKey{}, false
}

func parseYear(value string) (int, bool) {
	if len(value) != 4 || !isDigits(value) {
		return 0, false
	}
	year, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return year, true
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseValue normalizes a raw cell value to a decimal. The portal serves
// stringified numbers with a comma decimal separator; non-numeric cells are
// dropped, not fatal.
func parseValue(raw any) (decimal.Decimal, bool) {
	switch typed := raw.(type) {
	case string:
		normalized := strings.ReplaceAll(strings.TrimSpace(typed), ",", ".")
		if normalized == "" {
			return decimal.Decimal{}, false
		}
		value, err := decimal.NewFromString(normalized)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return value, true
	case json.Number:
		value, err := decimal.NewFromString(typed.String())
		if err != nil {
			return decimal.Decimal{}, false
		}
		return value, true
	case float64:
		return decimal.NewFromFloat(typed), true
	default:
		return decimal.Decimal{}, false
	}
}

func isAnnualLabel(label string) bool {
	lowered := strings.ToLower(label)
	for _, marker := range annualMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

func monthFromLabel(label string) (int, bool) {
	normalized := strings.ToLower(strings.TrimSpace(label))
	normalized = strings.ReplaceAll(normalized, "–", "-")
	normalized = strings.ReplaceAll(normalized, " ", "")
	month, ok := monthByLabel[normalized]
	return month, ok
}

// DecodeResults reshapes the raw cross-tab rows into the two normalized
// series. Rows without a region value and fields without a decodable key are
// skipped silently; duplicates keep the first value encountered. An empty
// result set decodes to two empty series.
func DecodeResults(results []map[string]any, schema *GridSchema, axes ResolvedAxes) ([]model.MonthlyValue, []model.YearlyValue) {
	periodValues := map[string]string{}
	if axes.PeriodDimensionID != "" {
		periodValues = schema.Filters[axes.PeriodDimensionID].Values
	}
	regionField := "dim" + axes.RegionDimensionID

	monthly := make([]model.MonthlyValue, 0)
	yearly := make([]model.YearlyValue, 0)
	monthlySeen := make(map[string]struct{})
	yearlySeen := make(map[string]struct{})

	for _, row := range results {
		region, _ := row[regionField].(string)
		region = strings.TrimSpace(region)
		if region == "" {
			continue
		}

		for _, field := range sortedFields(row) {
			if field == regionField {
				continue
			}
			key, ok := decodeFieldKey(field, periodValues)
			if !ok {
				continue
			}
			value, ok := parseValue(row[field])
			if !ok {
				continue
			}

			label := annualLabel
			if key.PeriodID != "" {
				label = periodValues[key.PeriodID]
			}

			if isAnnualLabel(label) {
				seenKey := region + "\x00" + strconv.Itoa(key.Year)
				if _, dup := yearlySeen[seenKey]; dup {
					continue
				}
				yearlySeen[seenKey] = struct{}{}
				yearly = append(yearly, model.YearlyValue{
					RegionName:  region,
					Year:        key.Year,
					YearlyValue: value,
				})
				continue
			}

			month, ok := monthFromLabel(label)
			if !ok {
				// Unsupported granularity (quarterly etc.) is discarded.
				continue
			}
			seenKey := region + "\x00" + strconv.Itoa(key.Year) + "\x00" + strconv.Itoa(month)
			if _, dup := monthlySeen[seenKey]; dup {
				continue
			}
			monthlySeen[seenKey] = struct{}{}
			monthly = append(monthly, model.MonthlyValue{
				RegionName:    region,
				ValueDate:     time.Date(key.Year, time.Month(month), 1, 0, 0, 0, 0, time.UTC),
				MeasuredValue: value,
			})
		}
	}

	return monthly, yearly
}

// sortedFields fixes first-wins deduplication to a stable order; Go map
// iteration would make it run-dependent.
func sortedFields(row map[string]any) []string {
	fields := make([]string, 0, len(row))
	for field := range row {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}
