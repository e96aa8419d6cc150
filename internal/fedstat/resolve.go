package fedstat

import (
	"strings"

	apperrors "goalstat/internal/errors"
)

// ResolvedAxes assigns the schema's dimensions to cross-tab axes. Region is
// always a row dimension; year and period (when present) become columns.
// Row and column IDs together cover every dimension exactly once.
type ResolvedAxes struct {
	RegionDimensionID  string
	PeriodDimensionID  string
	YearDimensionID    string
	RowDimensionIDs    []string
	ColumnDimensionIDs []string
}

var (
	regionKeywords = []string{"территор", "окато", "оксм", "territor"}
	periodKeywords = []string{"период", "period"}
	yearKeywords   = []string{"год", "year"}
)

// ResolveAxes identifies the region, period, and year dimensions by keyword
// match on their titles and partitions the remainder into row dimensions.
// A schema with no recognizable region dimension cannot be decoded.
func ResolveAxes(schema *GridSchema) (ResolvedAxes, error) {
	axes := ResolvedAxes{
		RegionDimensionID: findRole(schema, regionKeywords),
		PeriodDimensionID: findRole(schema, periodKeywords),
		YearDimensionID:   findRole(schema, yearKeywords),
	}
	if axes.RegionDimensionID == "" {
		return ResolvedAxes{}, apperrors.Schema("no region dimension found in grid schema")
	}
	if axes.YearDimensionID == axes.PeriodDimensionID {
		// A single dimension cannot carry both roles; period wins, year is
		// then recovered from the composite field keys.
		axes.YearDimensionID = ""
	}

	for _, id := range schema.DimensionIDs() {
		if id == axes.PeriodDimensionID || id == axes.YearDimensionID {
			axes.ColumnDimensionIDs = append(axes.ColumnDimensionIDs, id)
			continue
		}
		axes.RowDimensionIDs = append(axes.RowDimensionIDs, id)
	}
	return axes, nil
}

// findRole returns the first dimension (in deterministic ID order) whose
// title contains any of the keywords, case-insensitively. With multiple
// matches the first wins; precedence against real multi-match schemas is
// unverified upstream.
func findRole(schema *GridSchema, keywords []string) string {
	for _, id := range schema.DimensionIDs() {
		title := strings.ToLower(schema.Filters[id].Title)
		for _, keyword := range keywords {
			if strings.Contains(title, keyword) {
				return id
			}
		}
	}
	return ""
}
