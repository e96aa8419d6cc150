package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	apperrors "goalstat/internal/errors"
	"goalstat/internal/model"
	"goalstat/internal/names"
	"goalstat/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS indicators (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	name           TEXT NOT NULL UNIQUE,
	unit           TEXT NOT NULL DEFAULT '',
	last_parsed_at TEXT
);

CREATE TABLE IF NOT EXISTS regions (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS national_goals (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS national_projects (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS project_to_goal_mapping (
	project_id INTEGER NOT NULL REFERENCES national_projects(id),
	goal_id    INTEGER NOT NULL REFERENCES national_goals(id),
	PRIMARY KEY (project_id, goal_id)
);

CREATE TABLE IF NOT EXISTS indicator_monthly_values (
	indicator_id   INTEGER NOT NULL REFERENCES indicators(id),
	region_id      INTEGER NOT NULL REFERENCES regions(id),
	value_date     TEXT NOT NULL,
	measured_value TEXT NOT NULL,
	PRIMARY KEY (indicator_id, region_id, value_date)
);

CREATE TABLE IF NOT EXISTS indicator_yearly_values (
	indicator_id INTEGER NOT NULL REFERENCES indicators(id),
	region_id    INTEGER NOT NULL REFERENCES regions(id),
	year         INTEGER NOT NULL,
	yearly_value TEXT NOT NULL,
	PRIMARY KEY (indicator_id, region_id, year)
);

CREATE TABLE IF NOT EXISTS project_activities (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id       INTEGER NOT NULL REFERENCES national_projects(id),
	region_id        INTEGER NOT NULL REFERENCES regions(id),
	title            TEXT NOT NULL DEFAULT '',
	activity_date    TEXT,
	link             TEXT NOT NULL UNIQUE,
	responsible_body TEXT NOT NULL DEFAULT '',
	text             TEXT NOT NULL DEFAULT '',
	importance       TEXT NOT NULL DEFAULT '',
	last_update      TEXT
);

CREATE TABLE IF NOT EXISTS project_budgets (
	project_id INTEGER NOT NULL REFERENCES national_projects(id),
	region_id  INTEGER NOT NULL REFERENCES regions(id),
	year       INTEGER NOT NULL,
	allocated  TEXT,
	executed   TEXT,
	PRIMARY KEY (project_id, region_id, year)
);
`

type Store struct {
	db *sqlx.DB
}

func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ReconcileIndicator runs the whole reconciliation as one transaction:
// catalog lookup, metadata touch, region auto-vivification, and both series
// upserts. Any failure rolls the whole unit back; partial application is
// never observable. Re-running with the same input converges on the same
// stored state (overwrite on conflict, last write wins).
func (s *Store) ReconcileIndicator(ctx context.Context, input store.ReconcileInput) (store.ReconcileResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return store.ReconcileResult{}, apperrors.Storage("begin reconcile transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	indicator, err := findIndicator(ctx, tx, input.SourceName)
	if err != nil {
		return store.ReconcileResult{}, err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx,
		`UPDATE indicators SET unit = ?, last_parsed_at = ? WHERE id = ?`,
		input.Unit, now, indicator.ID,
	); err != nil {
		return store.ReconcileResult{}, apperrors.Storage("update indicator metadata", err)
	}

	regionIDs := make(map[string]int64)
	resolveRegion := func(name string) (int64, error) {
		if id, ok := regionIDs[name]; ok {
			return id, nil
		}
		id, err := getOrCreateByName(ctx, tx, "regions", name)
		if err != nil {
			return 0, err
		}
		regionIDs[name] = id
		return id, nil
	}

	result := store.ReconcileResult{IndicatorID: indicator.ID, IndicatorName: indicator.Name}

	for _, value := range input.Yearly {
		regionID, err := resolveRegion(value.RegionName)
		if err != nil {
			return store.ReconcileResult{}, err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO indicator_yearly_values (indicator_id, region_id, year, yearly_value)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(indicator_id, region_id, year)
			 DO UPDATE SET yearly_value = excluded.yearly_value`,
			indicator.ID, regionID, value.Year, value.YearlyValue.String(),
		); err != nil {
			return store.ReconcileResult{}, apperrors.Storage("upsert yearly value", err)
		}
		result.YearlyRows++
	}

	for _, value := range input.Monthly {
		regionID, err := resolveRegion(value.RegionName)
		if err != nil {
			return store.ReconcileResult{}, err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO indicator_monthly_values (indicator_id, region_id, value_date, measured_value)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(indicator_id, region_id, value_date)
			 DO UPDATE SET measured_value = excluded.measured_value`,
			indicator.ID, regionID, value.ValueDate.UTC().Format("2006-01-02"), value.MeasuredValue.String(),
		); err != nil {
			return store.ReconcileResult{}, apperrors.Storage("upsert monthly value", err)
		}
		result.MonthlyRows++
	}

	if err := tx.Commit(); err != nil {
		return store.ReconcileResult{}, apperrors.Storage("commit reconcile transaction", err)
	}
	committed = true
	return result, nil
}

// findIndicator matches the portal display name against the catalog: first
// the alias-or-normalized key, then the HTML-decoded original. Indicators
// are curated externally and never created here.
func findIndicator(ctx context.Context, tx *sqlx.Tx, sourceName string) (model.Indicator, error) {
	for _, key := range names.CatalogKeys(sourceName) {
		var indicator model.Indicator
		err := tx.QueryRowContext(ctx,
			`SELECT id, name FROM indicators WHERE name = ?`, key,
		).Scan(&indicator.ID, &indicator.Name)
		if err == nil {
			return indicator, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return model.Indicator{}, apperrors.Storage("catalog lookup", err)
		}
	}
	return model.Indicator{}, apperrors.CatalogMiss(sourceName)
}

// getOrCreateByName is a conflict-tolerant insert-or-fetch: a duplicate-name
// race resolves to the single surviving row instead of failing.
func getOrCreateByName(ctx context.Context, tx *sqlx.Tx, table, name string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO `+table+` (name) VALUES (?)
		 ON CONFLICT(name) DO UPDATE SET name = excluded.name
		 RETURNING id`,
		name,
	).Scan(&id)
	if err != nil {
		return 0, apperrors.Storage("get or create "+table+" row", err)
	}
	return id, nil
}

// ImportActivities mirrors the news feed into project_activities. Goals must
// already exist in the catalog; items whose goal is unknown or unmapped are
// counted as skipped, not failed. The whole import is one transaction.
func (s *Store) ImportActivities(ctx context.Context, items []model.NewsItem) (store.ImportStats, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return store.ImportStats{}, apperrors.Storage("begin import transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	goalIDs, err := loadNameIndex(ctx, tx, "national_goals", true)
	if err != nil {
		return store.ImportStats{}, err
	}

	var stats store.ImportStats
	for _, item := range items {
		stats.Processed++

		regionName := strings.TrimSpace(item.RegionName)
		if regionName == "" {
			stats.Skipped++
			continue
		}

		// Regions are vivified even for items later skipped on goal miss,
		// so the dashboards know the region exists.
		regionID, err := getOrCreateByName(ctx, tx, "regions", regionName)
		if err != nil {
			return store.ImportStats{}, err
		}

		goalID, ok := goalIDs[strings.ToUpper(strings.TrimSpace(item.NationalGoal))]
		if !ok {
			stats.Skipped++
			continue
		}

		var projectIDs []int64
		if err := tx.SelectContext(ctx, &projectIDs,
			`SELECT project_id FROM project_to_goal_mapping WHERE goal_id = ?`, goalID,
		); err != nil {
			return store.ImportStats{}, apperrors.Storage("load goal projects", err)
		}
		if len(projectIDs) == 0 {
			stats.Skipped++
			continue
		}

		for _, projectID := range projectIDs {
			var exists bool
			if err := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM project_activities WHERE link = ?)`, item.URL,
			).Scan(&exists); err != nil {
				return store.ImportStats{}, apperrors.Storage("check activity link", err)
			}

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO project_activities (
					project_id, region_id, title, activity_date, link,
					responsible_body, text, importance, last_update
				 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
				 ON CONFLICT(link) DO UPDATE SET
					title = excluded.title,
					activity_date = excluded.activity_date,
					responsible_body = excluded.responsible_body,
					text = excluded.text,
					importance = excluded.importance,
					last_update = excluded.last_update`,
				projectID, regionID, item.Title, nullableDate(item.PublishedDate), item.URL,
				item.SourceName, item.Content, item.Importance, nullableDate(item.LastUpdate),
			); err != nil {
				return store.ImportStats{}, apperrors.Storage("upsert activity", err)
			}

			if exists {
				stats.Updated++
			} else {
				stats.Inserted++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return store.ImportStats{}, apperrors.Storage("commit import transaction", err)
	}
	committed = true
	return stats, nil
}

func (s *Store) UpsertBudgets(ctx context.Context, records []model.BudgetRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, apperrors.Storage("begin budget transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	count := 0
	for _, record := range records {
		projectID, err := getOrCreateByName(ctx, tx, "national_projects", strings.TrimSpace(record.ProjectName))
		if err != nil {
			return 0, err
		}
		regionID, err := getOrCreateByName(ctx, tx, "regions", strings.TrimSpace(record.RegionName))
		if err != nil {
			return 0, err
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO project_budgets (project_id, region_id, year, allocated, executed)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(project_id, region_id, year) DO UPDATE SET
				allocated = excluded.allocated,
				executed = excluded.executed`,
			projectID, regionID, record.Year, record.Allocated.String(), record.Executed.String(),
		); err != nil {
			return 0, apperrors.Storage("upsert budget", err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.Storage("commit budget transaction", err)
	}
	committed = true
	return count, nil
}

func (s *Store) UpsertCatalogIndicator(ctx context.Context, name, unit string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO indicators (name, unit) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET unit = excluded.unit
		 RETURNING id`,
		strings.TrimSpace(name), strings.TrimSpace(unit),
	).Scan(&id)
	if err != nil {
		return 0, apperrors.Storage("upsert catalog indicator", err)
	}
	return id, nil
}

func (s *Store) ListRegions(ctx context.Context) ([]model.Region, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM regions ORDER BY name`)
	if err != nil {
		return nil, apperrors.Storage("list regions", err)
	}
	defer rows.Close()

	var regions []model.Region
	for rows.Next() {
		var region model.Region
		if err := rows.Scan(&region.ID, &region.Name); err != nil {
			return nil, apperrors.Storage("scan region", err)
		}
		regions = append(regions, region)
	}
	return regions, rows.Err()
}

func (s *Store) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM national_projects ORDER BY name`)
	if err != nil {
		return nil, apperrors.Storage("list projects", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var project model.Project
		if err := rows.Scan(&project.ID, &project.Name); err != nil {
			return nil, apperrors.Storage("scan project", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (s *Store) IndicatorHistory(ctx context.Context, indicatorID, regionID int64) (model.IndicatorHistory, error) {
	history := model.IndicatorHistory{
		YearlyData:  []model.TimeSeriesPoint{},
		MonthlyData: []model.TimeSeriesPoint{},
	}

	yearlyRows, err := s.db.QueryContext(ctx,
		`SELECT year, yearly_value FROM indicator_yearly_values
		 WHERE indicator_id = ? AND region_id = ? ORDER BY year`,
		indicatorID, regionID,
	)
	if err != nil {
		return model.IndicatorHistory{}, apperrors.Storage("load yearly history", err)
	}
	defer yearlyRows.Close()
	for yearlyRows.Next() {
		var year int
		var raw string
		if err := yearlyRows.Scan(&year, &raw); err != nil {
			return model.IndicatorHistory{}, apperrors.Storage("scan yearly value", err)
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return model.IndicatorHistory{}, apperrors.Storage("decode yearly value", err)
		}
		history.YearlyData = append(history.YearlyData, model.TimeSeriesPoint{
			Date:  fmt.Sprintf("%04d", year),
			Value: value,
		})
	}
	if err := yearlyRows.Err(); err != nil {
		return model.IndicatorHistory{}, apperrors.Storage("iterate yearly history", err)
	}

	monthlyRows, err := s.db.QueryContext(ctx,
		`SELECT value_date, measured_value FROM indicator_monthly_values
		 WHERE indicator_id = ? AND region_id = ? ORDER BY value_date`,
		indicatorID, regionID,
	)
	if err != nil {
		return model.IndicatorHistory{}, apperrors.Storage("load monthly history", err)
	}
	defer monthlyRows.Close()
	for monthlyRows.Next() {
		var date, raw string
		if err := monthlyRows.Scan(&date, &raw); err != nil {
			return model.IndicatorHistory{}, apperrors.Storage("scan monthly value", err)
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return model.IndicatorHistory{}, apperrors.Storage("decode monthly value", err)
		}
		history.MonthlyData = append(history.MonthlyData, model.TimeSeriesPoint{
			Date:  date,
			Value: value,
		})
	}
	if err := monthlyRows.Err(); err != nil {
		return model.IndicatorHistory{}, apperrors.Storage("iterate monthly history", err)
	}

	return history, nil
}

// AddGoalProject links a project to a goal, creating both by name when
// absent. Catalog curation helper used by the CLI, not the pipeline.
func (s *Store) AddGoalProject(ctx context.Context, goalName, projectName string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.Storage("begin catalog transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	goalID, err := getOrCreateByName(ctx, tx, "national_goals", strings.TrimSpace(goalName))
	if err != nil {
		return err
	}
	projectID, err := getOrCreateByName(ctx, tx, "national_projects", strings.TrimSpace(projectName))
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO project_to_goal_mapping (project_id, goal_id) VALUES (?, ?)
		 ON CONFLICT DO NOTHING`,
		projectID, goalID,
	); err != nil {
		return apperrors.Storage("link project to goal", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Storage("commit catalog transaction", err)
	}
	committed = true
	return nil
}

func loadNameIndex(ctx context.Context, tx *sqlx.Tx, table string, upper bool) (map[string]int64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, name FROM `+table)
	if err != nil {
		return nil, apperrors.Storage("load "+table+" index", err)
	}
	defer rows.Close()

	index := make(map[string]int64)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, apperrors.Storage("scan "+table+" row", err)
		}
		if upper {
			name = strings.ToUpper(name)
		}
		index[name] = id
	}
	return index, rows.Err()
}

func nullableDate(value string) any {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return trimmed
}

var _ store.Store = (*Store)(nil)
