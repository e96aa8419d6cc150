// Package httpapi exposes the ingestion pipeline and the stored catalog
// over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"goalstat/internal/budget"
	apperrors "goalstat/internal/errors"
	"goalstat/internal/model"
	"goalstat/internal/news"
	"goalstat/internal/store"
)

// Ingestor runs the fetch-and-reconcile pipeline for one indicator page.
type Ingestor interface {
	ProcessIndicator(ctx context.Context, pageURL string) (store.ReconcileResult, error)
}

// BudgetFetcher downloads the remote budget feed.
type BudgetFetcher interface {
	Fetch(ctx context.Context, url string) ([]model.BudgetRecord, error)
}

type Server struct {
	ingestor Ingestor
	budgets  BudgetFetcher
	store    store.Store
	logger   *zap.Logger
	router   *mux.Router
}

func NewServer(ingestor Ingestor, budgets BudgetFetcher, st store.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		ingestor: ingestor,
		budgets:  budgets,
		store:    st,
		logger:   logger,
		router:   mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/process-indicator", s.handleProcessIndicator).Methods(http.MethodPost)
	api.HandleFunc("/import-news", s.handleImportNews).Methods(http.MethodPost)
	api.HandleFunc("/import-budgets", s.handleImportBudgets).Methods(http.MethodPost)
	api.HandleFunc("/regions", s.handleListRegions).Methods(http.MethodGet)
	api.HandleFunc("/projects", s.handleListProjects).Methods(http.MethodGet)
	api.HandleFunc("/indicators/{id:[0-9]+}/history", s.handleIndicatorHistory).Methods(http.MethodGet)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
}

// ServeHTTP answers CORS preflight before route matching, so every route is
// reachable from a browser without per-route OPTIONS registrations.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	corsMiddleware(s.router).ServeHTTP(w, r)
}

type processRequest struct {
	URL string `json:"url"`
}

type processResponse struct {
	Message          string `json:"message"`
	IndicatorName    string `json:"indicator_name"`
	MonthlyRowsAdded int    `json:"monthly_rows_added"`
	YearlyRowsAdded  int    `json:"yearly_rows_added"`
}

func (s *Server) handleProcessIndicator(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperrors.Wrap(apperrors.TypeInput, "decode request body", err))
		return
	}
	if req.URL == "" {
		s.writeError(w, apperrors.Input("url is required"))
		return
	}

	result, err := s.ingestor.ProcessIndicator(r.Context(), req.URL)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, processResponse{
		Message:          "indicator processed",
		IndicatorName:    result.IndicatorName,
		MonthlyRowsAdded: result.MonthlyRows,
		YearlyRowsAdded:  result.YearlyRows,
	})
}

type importNewsResponse struct {
	Message   string `json:"message"`
	Processed int    `json:"processed"`
	Inserted  int    `json:"inserted"`
	Updated   int    `json:"updated"`
	Skipped   int    `json:"skipped"`
}

// handleImportNews accepts the news feed file as the request body, either a
// bare JSON array or the {"results": [...]} envelope the exporter produces.
func (s *Server) handleImportNews(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, apperrors.Wrap(apperrors.TypeInput, "read request body", err))
		return
	}

	items, err := news.Parse(payload)
	if err != nil {
		s.writeError(w, err)
		return
	}

	stats, err := s.store.ImportActivities(r.Context(), items)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, importNewsResponse{
		Message:   "news imported",
		Processed: stats.Processed,
		Inserted:  stats.Inserted,
		Updated:   stats.Updated,
		Skipped:   stats.Skipped,
	})
}

type importBudgetsRequest struct {
	URL string `json:"url"`
}

type importBudgetsResponse struct {
	Message string `json:"message"`
	Rows    int    `json:"rows"`
}

func (s *Server) handleImportBudgets(w http.ResponseWriter, r *http.Request) {
	var req importBudgetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperrors.Wrap(apperrors.TypeInput, "decode request body", err))
		return
	}
	if req.URL == "" {
		s.writeError(w, apperrors.Input("url is required"))
		return
	}

	records, err := s.budgets.Fetch(r.Context(), req.URL)
	if err != nil {
		s.writeError(w, err)
		return
	}

	rows, err := s.store.UpsertBudgets(r.Context(), records)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, importBudgetsResponse{Message: "budgets imported", Rows: rows})
}

func (s *Server) handleListRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := s.store.ListRegions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if regions == nil {
		regions = []model.Region{}
	}
	s.writeJSON(w, http.StatusOK, regions)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if projects == nil {
		projects = []model.Project{}
	}
	s.writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleIndicatorHistory(w http.ResponseWriter, r *http.Request) {
	indicatorID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.writeError(w, apperrors.Input("bad indicator id"))
		return
	}
	regionID, err := strconv.ParseInt(r.URL.Query().Get("region_id"), 10, 64)
	if err != nil {
		s.writeError(w, apperrors.Input("region_id query parameter is required"))
		return
	}

	history, err := s.store.IndicatorHistory(r.Context(), indicatorID, regionID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	errType := apperrors.TypeOf(err)
	status := statusForType(errType)
	if status >= 500 {
		s.logger.Error("request failed", zap.String("type", string(errType)), zap.Error(err))
	} else {
		s.logger.Warn("request rejected", zap.String("type", string(errType)), zap.Error(err))
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error(), Type: string(errType)})
}

func statusForType(t apperrors.Type) int {
	switch t {
	case apperrors.TypeInput:
		return http.StatusBadRequest
	case apperrors.TypeCatalog:
		return http.StatusNotFound
	case apperrors.TypeUpstream, apperrors.TypeConfigNotFound, apperrors.TypeConfigParse, apperrors.TypeSchema:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write response", zap.Error(err))
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

var _ BudgetFetcher = (*budget.Fetcher)(nil)
