package fedstat

import (
	"sort"
	"strconv"
)

// Dimension is one categorical filter axis of the portal grid: a display
// title and an enumerated vocabulary of value IDs.
type Dimension struct {
	Title  string
	Values map[string]string
}

// GridSchema is the decoded grid configuration for one indicator page.
// Dimension and value IDs are opaque identifiers assigned by the portal;
// the schema is immutable once extracted for a given run.
type GridSchema struct {
	Title   string
	Unit    string
	Filters map[string]Dimension
}

// DimensionIDs returns all dimension IDs in deterministic order: numeric IDs
// ascending, then the rest lexically. The portal serves the filter map in
// arbitrary order, so every role-resolution pass walks this order instead.
func (s *GridSchema) DimensionIDs() []string {
	ids := make([]string, 0, len(s.Filters))
	for id := range s.Filters {
		ids = append(ids, id)
	}
	sortNumericAware(ids)
	return ids
}

// sortIDs returns a map's keys in the same deterministic order as
// DimensionIDs, for value-ID vocabularies.
func sortIDs(values map[string]string) []string {
	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sortNumericAware(ids)
	return ids
}

func sortNumericAware(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		ni, errI := strconv.Atoi(ids[i])
		nj, errJ := strconv.Atoi(ids[j])
		switch {
		case errI == nil && errJ == nil:
			return ni < nj
		case errI == nil:
			return true
		case errJ == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})
}
