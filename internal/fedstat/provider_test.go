package fedstat

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "goalstat/internal/errors"
)

const providerTestPage = `<html><head><script>
var grid = new FGrid({
	block: $('#grid'),
	title: 'Численность населения',
	unit: 'человек',
	filters: {
		'10': {title: 'Территория', values: {'1': {title: 'Российская Федерация'}}},
		'20': {title: 'Период', values: {'5': {title: 'январь'}}},
	},
});
</script></head><body></body></html>`

const providerTestData = `{
	"results": [
		{"dim10": "Российская Федерация", "dim2020_5": "146,7", "dim2021": "146"}
	]
}`

func TestProviderFetchIndicator(t *testing.T) {
	var dataForm map[string][]string
	var pageCookie, dataCookie string

	mux := http.NewServeMux()
	mux.HandleFunc("/indicator/31556", func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua == "" || ua == "Go-http-client/1.1" {
			t.Errorf("page user agent = %q", ua)
		}
		if c, err := r.Cookie("JSESSIONID"); err == nil {
			pageCookie = c.Value
		}
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "abc123"})
		fmt.Fprint(w, providerTestPage)
	})
	mux.HandleFunc("/indicator/dataGrid.do", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		dataForm = r.PostForm
		if c, err := r.Cookie("JSESSIONID"); err == nil {
			dataCookie = c.Value
		}
		fmt.Fprint(w, providerTestData)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	provider := NewWithConfig(Config{
		BaseURL:     server.URL,
		DataPath:    "/indicator/dataGrid.do",
		PageTimeout: 5 * time.Second,
		DataTimeout: 5 * time.Second,
		UserAgent:   "goalstat-test",
	}, nil)

	data, err := provider.FetchIndicator(context.Background(), server.URL+"/indicator/31556")
	if err != nil {
		t.Fatalf("FetchIndicator: %v", err)
	}

	if data.Metadata.Name != "Численность населения" || data.Metadata.Unit != "человек" {
		t.Errorf("metadata = %+v", data.Metadata)
	}
	if len(data.Monthly) != 1 || len(data.Yearly) != 1 {
		t.Fatalf("monthly = %d, yearly = %d", len(data.Monthly), len(data.Yearly))
	}
	if data.Monthly[0].MeasuredValue.String() != "146.7" {
		t.Errorf("monthly value = %s", data.Monthly[0].MeasuredValue)
	}
	if data.Yearly[0].Year != 2021 {
		t.Errorf("yearly year = %d", data.Yearly[0].Year)
	}

	if got := dataForm["id"]; len(got) != 1 || got[0] != "31556" {
		t.Errorf("form id = %v", got)
	}
	if got := dataForm["lineObjectIds"]; len(got) != 1 || got[0] != "10" {
		t.Errorf("lineObjectIds = %v", got)
	}
	if got := dataForm["columnObjectIds"]; len(got) != 1 || got[0] != "20" {
		t.Errorf("columnObjectIds = %v", got)
	}
	wantFilters := []string{"10_1", "20_5"}
	if got := dataForm["selectedFilterIds"]; len(got) != len(wantFilters) {
		t.Errorf("selectedFilterIds = %v", got)
	} else {
		for i, want := range wantFilters {
			if got[i] != want {
				t.Errorf("selectedFilterIds[%d] = %q, want %q", i, got[i], want)
			}
		}
	}

	// The session cookie set by the page response rides along on the data
	// request. The page itself is the first request of a fresh session.
	if pageCookie != "" {
		t.Errorf("page request carried cookie %q", pageCookie)
	}
	if dataCookie != "abc123" {
		t.Errorf("data request cookie = %q, want abc123", dataCookie)
	}
}

func TestProviderPageFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	provider := NewWithConfig(Config{BaseURL: server.URL}, nil)
	_, err := provider.FetchIndicator(context.Background(), server.URL+"/indicator/42")
	if !apperrors.IsType(err, apperrors.TypeUpstream) {
		t.Fatalf("err = %v, want UPSTREAM_ERROR", err)
	}
}

func TestProviderBadURL(t *testing.T) {
	provider := NewWithConfig(Config{}, nil)
	_, err := provider.FetchIndicator(context.Background(), "https://fedstat.ru/about")
	if !apperrors.IsType(err, apperrors.TypeInput) {
		t.Fatalf("err = %v, want INPUT_ERROR", err)
	}
}

func TestIndicatorIDFromURL(t *testing.T) {
	id, err := IndicatorIDFromURL("https://fedstat.ru/indicator/59448")
	if err != nil {
		t.Fatalf("IndicatorIDFromURL: %v", err)
	}
	if id != 59448 {
		t.Errorf("id = %d", id)
	}
}
