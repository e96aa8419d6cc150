package fedstat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "goalstat/internal/errors"
	"goalstat/internal/model"
)

const (
	defaultBaseURL            = "https://fedstat.ru"
	defaultDataPath           = "/indicator/dataGrid.do"
	defaultPageTimeoutSeconds = 20
	defaultDataTimeoutSeconds = 45
	defaultUserAgent          = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
)

var indicatorIDRe = regexp.MustCompile(`/indicator/(\d+)`)

type Config struct {
	BaseURL     string
	DataPath    string
	PageTimeout time.Duration
	DataTimeout time.Duration
	UserAgent   string
}

func ConfigFromEnv() Config {
	return Config{
		BaseURL:     getenv("FEDSTAT_BASE_URL", defaultBaseURL),
		DataPath:    getenv("FEDSTAT_DATA_PATH", defaultDataPath),
		PageTimeout: time.Duration(getenvInt("FEDSTAT_PAGE_TIMEOUT_SECONDS", defaultPageTimeoutSeconds)) * time.Second,
		DataTimeout: time.Duration(getenvInt("FEDSTAT_DATA_TIMEOUT_SECONDS", defaultDataTimeoutSeconds)) * time.Second,
		UserAgent:   getenv("FEDSTAT_USER_AGENT", defaultUserAgent),
	}
}

// Provider extracts one indicator's full cross-tab dataset from the portal.
// Each FetchIndicator call is an independent run with its own cookie-scoped
// session; the portal requires the page fetch and the data fetch to share it.
type Provider struct {
	config    Config
	transport http.RoundTripper
	logger    *zap.Logger
}

func New(logger *zap.Logger) *Provider {
	return NewWithConfig(ConfigFromEnv(), logger)
}

func NewWithConfig(cfg Config, logger *zap.Logger) *Provider {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if strings.TrimSpace(cfg.DataPath) == "" {
		cfg.DataPath = defaultDataPath
	}
	if cfg.PageTimeout == 0 {
		cfg.PageTimeout = defaultPageTimeoutSeconds * time.Second
	}
	if cfg.DataTimeout == 0 {
		cfg.DataTimeout = defaultDataTimeoutSeconds * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{config: cfg, logger: logger}
}

// IndicatorData is the output of one extraction run.
type IndicatorData struct {
	Metadata model.Metadata
	Monthly  []model.MonthlyValue
	Yearly   []model.YearlyValue
}

// IndicatorIDFromURL extracts the numeric indicator identifier from its
// canonical page URL.
func IndicatorIDFromURL(pageURL string) (int64, error) {
	match := indicatorIDRe.FindStringSubmatch(pageURL)
	if match == nil {
		return 0, apperrors.Input("indicator id not found in url: " + pageURL)
	}
	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, apperrors.Input("indicator id not numeric: " + match[1])
	}
	return id, nil
}

// FetchIndicator runs the whole extraction: page fetch, config extraction,
// axis resolution, cross-tab data fetch, decoding. Failures abort the run
// before any storage is touched; cleanup of the run-scoped session is
// guaranteed regardless of outcome.
func (p *Provider) FetchIndicator(ctx context.Context, pageURL string) (IndicatorData, error) {
	indicatorID, err := IndicatorIDFromURL(pageURL)
	if err != nil {
		return IndicatorData{}, err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return IndicatorData{}, apperrors.Internal("cookie jar", err)
	}
	client := &http.Client{Jar: jar, Transport: p.transport}
	defer client.CloseIdleConnections()

	pageHTML, err := p.fetchPage(ctx, client, pageURL)
	if err != nil {
		return IndicatorData{}, err
	}

	schema, err := ExtractGridConfig(pageHTML)
	if err != nil {
		return IndicatorData{}, err
	}
	axes, err := ResolveAxes(schema)
	if err != nil {
		return IndicatorData{}, err
	}
	p.logger.Debug("grid schema extracted",
		zap.Int64("indicator_id", indicatorID),
		zap.String("title", schema.Title),
		zap.Int("dimensions", len(schema.Filters)),
		zap.String("region_dimension", axes.RegionDimensionID),
		zap.String("period_dimension", axes.PeriodDimensionID),
	)

	results, err := p.fetchDataGrid(ctx, client, indicatorID, pageURL, schema, axes)
	if err != nil {
		return IndicatorData{}, err
	}

	monthly, yearly := DecodeResults(results, schema, axes)
	p.logger.Info("indicator decoded",
		zap.Int64("indicator_id", indicatorID),
		zap.String("name", schema.Title),
		zap.Int("rows", len(results)),
		zap.Int("monthly", len(monthly)),
		zap.Int("yearly", len(yearly)),
	)

	return IndicatorData{
		Metadata: model.Metadata{Name: schema.Title, Unit: schema.Unit},
		Monthly:  monthly,
		Yearly:   yearly,
	}, nil
}

func (p *Provider) fetchPage(ctx context.Context, client *http.Client, pageURL string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, p.config.PageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", apperrors.Input("bad indicator url: " + pageURL)
	}
	req.Header.Set("User-Agent", p.config.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", apperrors.Upstream("indicator page fetch failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", apperrors.Newf(apperrors.TypeUpstream, "indicator page fetch failed (%s)", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.Upstream("indicator page read failed", err)
	}
	return string(body), nil
}

type dataGridResponse struct {
	Results []map[string]any `json:"results"`
}

func (p *Provider) fetchDataGrid(ctx context.Context, client *http.Client, indicatorID int64, referer string, schema *GridSchema, axes ResolvedAxes) ([]map[string]any, error) {
	reqCtx, cancel := context.WithTimeout(ctx, p.config.DataTimeout)
	defer cancel()

	payload := buildPayload(indicatorID, schema, axes)
	endpoint := p.config.BaseURL + p.config.DataPath

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
	if err != nil {
		return nil, apperrors.Internal("build data request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", p.config.UserAgent)
	req.Header.Set("Referer", referer)

	resp, err := client.Do(req)
	if err != nil {
		return nil, apperrors.Upstream("data grid request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, apperrors.Newf(apperrors.TypeUpstream, "data grid request failed (%s)", resp.Status)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	var data dataGridResponse
	if err := decoder.Decode(&data); err != nil {
		return nil, apperrors.Upstream("data grid response does not parse", err)
	}
	return data.Results, nil
}

// buildPayload enumerates every known value of every dimension: the full
// cross-product is requested, no server-side filtering is used.
func buildPayload(indicatorID int64, schema *GridSchema, axes ResolvedAxes) url.Values {
	payload := url.Values{}
	payload.Set("id", strconv.FormatInt(indicatorID, 10))
	for _, id := range axes.RowDimensionIDs {
		payload.Add("lineObjectIds", id)
	}
	for _, id := range axes.ColumnDimensionIDs {
		payload.Add("columnObjectIds", id)
	}
	for _, dimID := range schema.DimensionIDs() {
		for _, valueID := range sortIDs(schema.Filters[dimID].Values) {
			payload.Add("selectedFilterIds", dimID+"_"+valueID)
		}
	}
	return payload
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
