package fedstat

import (
	"testing"

	apperrors "goalstat/internal/errors"
)

const samplePage = `<html><head>
<script type="text/javascript">
var grid = new FGrid({
	block: $('#grid'),
	title: 'Уровень бедности (в процентах)',
	unit: '%',
	filters: {
		'57831': {
			title: 'Территория',
			values: {
				'1': {title: 'Российская Федерация',},
				'2': {title: 'Псковская область'},
			},
		},
		'57832': {
			title: 'Период',
			values: {
				'5': {title: 'январь'},
				'6': {title: 'январь-февраль'},
			},
		},
		'3': {
			title: 'Год',
			values: {'2020': {title: '2020'},},
		},
	},
});
</script>
</head><body><div id="grid"></div></body></html>`

func TestExtractGridConfig(t *testing.T) {
	schema, err := ExtractGridConfig(samplePage)
	if err != nil {
		t.Fatalf("ExtractGridConfig: %v", err)
	}

	if schema.Title != "Уровень бедности (в процентах)" {
		t.Errorf("title = %q", schema.Title)
	}
	if schema.Unit != "%" {
		t.Errorf("unit = %q", schema.Unit)
	}
	if len(schema.Filters) != 3 {
		t.Fatalf("filters = %d, want 3", len(schema.Filters))
	}

	region, ok := schema.Filters["57831"]
	if !ok {
		t.Fatal("dimension 57831 missing")
	}
	if region.Title != "Территория" {
		t.Errorf("region title = %q", region.Title)
	}
	if region.Values["2"] != "Псковская область" {
		t.Errorf("region value 2 = %q", region.Values["2"])
	}
}

func TestExtractGridConfigDimensionOrder(t *testing.T) {
	schema, err := ExtractGridConfig(samplePage)
	if err != nil {
		t.Fatalf("ExtractGridConfig: %v", err)
	}

	got := schema.DimensionIDs()
	want := []string{"3", "57831", "57832"}
	if len(got) != len(want) {
		t.Fatalf("ids = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids = %v, want %v", got, want)
		}
	}
}

func TestExtractGridConfigNotFound(t *testing.T) {
	_, err := ExtractGridConfig(`<html><body><p>no widget here</p></body></html>`)
	if !apperrors.IsType(err, apperrors.TypeConfigNotFound) {
		t.Fatalf("err = %v, want CONFIG_NOT_FOUND", err)
	}
}

func TestExtractGridConfigUnparseable(t *testing.T) {
	page := `<script>var grid = new FGrid({title: 'broken', filters: {nonsense);</script>`
	_, err := ExtractGridConfig(page)
	if !apperrors.IsType(err, apperrors.TypeConfigParse) {
		t.Fatalf("err = %v, want CONFIG_PARSE_ERROR", err)
	}
}

func TestExtractGridConfigRawFragment(t *testing.T) {
	// Config handed over without surrounding HTML still extracts.
	fragment := `var grid = new FGrid({block: $('#grid'), title: 'x', unit: 'y', filters: {}});`
	schema, err := ExtractGridConfig(fragment)
	if err != nil {
		t.Fatalf("ExtractGridConfig: %v", err)
	}
	if schema.Title != "x" || schema.Unit != "y" {
		t.Errorf("schema = %+v", schema)
	}
}
