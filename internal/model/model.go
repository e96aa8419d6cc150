package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Metadata describes one indicator as presented by the upstream portal.
type Metadata struct {
	Name string
	Unit string
}

// MonthlyValue is one cumulative-period observation mapped to the first day
// of its final month. Unique per (indicator, region, ValueDate).
type MonthlyValue struct {
	RegionName    string
	ValueDate     time.Time
	MeasuredValue decimal.Decimal
}

// YearlyValue is one annual observation. Unique per (indicator, region, Year).
type YearlyValue struct {
	RegionName  string
	Year        int
	YearlyValue decimal.Decimal
}

type Indicator struct {
	ID           int64
	Name         string
	Unit         string
	LastParsedAt time.Time
}

type Region struct {
	ID   int64
	Name string
}

type Project struct {
	ID   int64
	Name string
}

// Activity is one news/activity item attached to a project and region.
type Activity struct {
	ProjectID       int64
	RegionID        int64
	Title           string
	ActivityDate    time.Time
	Link            string
	ResponsibleBody string
	Text            string
	Importance      string
	LastUpdate      time.Time
}

// NewsItem is one entry of the uploaded news feed, as delivered.
type NewsItem struct {
	RegionName    string `json:"region_name"`
	NationalGoal  string `json:"national_goal"`
	Title         string `json:"title"`
	PublishedDate string `json:"published_date"`
	URL           string `json:"url"`
	SourceName    string `json:"source_name"`
	Content       string `json:"content"`
	Importance    string `json:"importance"`
	LastUpdate    string `json:"last_update"`
}

// BudgetRecord is one row of the fixed-shape budget feed.
type BudgetRecord struct {
	ProjectName string          `json:"project_name"`
	RegionName  string          `json:"region_name"`
	Year        int             `json:"year"`
	Allocated   decimal.Decimal `json:"allocated"`
	Executed    decimal.Decimal `json:"executed"`
}

type TimeSeriesPoint struct {
	Date  string          `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// IndicatorHistory is the dashboard view of one indicator's stored series.
type IndicatorHistory struct {
	YearlyData  []TimeSeriesPoint `json:"yearly_data"`
	MonthlyData []TimeSeriesPoint `json:"monthly_data"`
}
