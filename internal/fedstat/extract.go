package fedstat

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	apperrors "goalstat/internal/errors"
)

// The grid widget is configured by an inline constructor call whose argument
// is an object literal, not valid JSON: bare identifier keys, single-quoted
// strings, trailing commas, and one embedded jQuery selector field. The
// repair below targets exactly that malformation pattern and nothing else.
var (
	fgridRe         = regexp.MustCompile(`(?s)new FGrid\((.*?)\);`)
	blockFieldRe    = regexp.MustCompile(`block\s*:\s*\$\('#grid'\),?`)
	bareKeyRe       = regexp.MustCompile(`([{,]\s*)(\w+)(\s*:)`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

type rawDimensionValue struct {
	Title string `json:"title"`
}

type rawDimension struct {
	Title  string                       `json:"title"`
	Values map[string]rawDimensionValue `json:"values"`
}

type rawGrid struct {
	Title   string                  `json:"title"`
	Unit    string                  `json:"unit"`
	Filters map[string]rawDimension `json:"filters"`
}

// ExtractGridConfig locates the embedded grid configuration in an indicator
// page and parses it into a GridSchema. The fragment being absent or
// unparseable after repair is fatal: no partial schema is ever returned.
func ExtractGridConfig(htmlText string) (*GridSchema, error) {
	fragment := findConfigFragment(htmlText)
	if fragment == "" {
		return nil, apperrors.ConfigNotFound("grid configuration not found in page")
	}

	var raw rawGrid
	if err := json.Unmarshal([]byte(repairConfig(fragment)), &raw); err != nil {
		return nil, apperrors.ConfigParse("grid configuration does not parse after repair", err)
	}

	schema := &GridSchema{
		Title:   strings.TrimSpace(raw.Title),
		Unit:    strings.TrimSpace(raw.Unit),
		Filters: make(map[string]Dimension, len(raw.Filters)),
	}
	for id, dim := range raw.Filters {
		values := make(map[string]string, len(dim.Values))
		for valueID, value := range dim.Values {
			values[valueID] = strings.TrimSpace(value.Title)
		}
		schema.Filters[id] = Dimension{
			Title:  strings.TrimSpace(dim.Title),
			Values: values,
		}
	}
	return schema, nil
}

func findConfigFragment(htmlText string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err == nil {
		var found string
		doc.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
			if match := fgridRe.FindStringSubmatch(script.Text()); match != nil {
				found = match[1]
				return false
			}
			return true
		})
		if found != "" {
			return strings.TrimSpace(found)
		}
	}
	// Fragment inputs and pages goquery cannot normalize fall back to a raw scan.
	if match := fgridRe.FindStringSubmatch(htmlText); match != nil {
		return strings.TrimSpace(match[1])
	}
	return ""
}

func repairConfig(fragment string) string {
	repaired := blockFieldRe.ReplaceAllString(fragment, "")
	repaired = bareKeyRe.ReplaceAllString(repaired, `${1}"${2}"${3}`)
	repaired = strings.ReplaceAll(repaired, "'", `"`)
	repaired = trailingCommaRe.ReplaceAllString(repaired, "${1}")
	return repaired
}
