package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"personal-insights/internal/report"
	"personal-insights/internal/storage"
	"personal-insights/pkg/types"
)

// AnalyzeRequest runs the engine either over an inline event batch or,
// when Events is absent, over a window fetched from the event source.
type AnalyzeRequest struct {
	UserID string          `json:"user_id"`
	Events []*types.Event  `json:"events,omitempty"`
	Since  *time.Time      `json:"since,omitempty"`
	Until  *time.Time      `json:"until,omitempty"`
}

// FeedbackRequest appends feedback entries to a user's profile
type FeedbackRequest struct {
	UserID   string           `json:"user_id"`
	Feedback []types.Feedback `json:"feedback"`
}

// FeedbackResponse returns the updated profile summary
type FeedbackResponse struct {
	Profile types.ProfileSummary `json:"profile"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	ctx := r.Context()
	events := req.Events
	if events == nil {
		if s.source == nil {
			s.writeError(w, http.StatusServiceUnavailable, "no event source configured; supply events inline")
			return
		}
		since, until := s.window(req.Since, req.Until)
		fetched, err := s.source.FetchEvents(ctx, req.UserID, since, until)
		if err != nil {
			s.logger.ErrorContext(ctx, "event fetch failed", "user_id", req.UserID, "error", err.Error())
			s.writeError(w, http.StatusBadGateway, "failed to fetch events")
			return
		}
		events = fetched
	}

	profile := s.profiles.Summary(ctx, req.UserID)
	result, err := s.orchestrator.Analyze(ctx, events, &profile)
	if err != nil {
		s.writeAnalysisError(w, r, err)
		return
	}

	if err := s.store.SaveResult(ctx, req.UserID, result); err != nil {
		s.logger.ErrorContext(ctx, "result persistence failed", "user_id", req.UserID, "error", err.Error())
		s.writeError(w, http.StatusInternalServerError, "failed to persist analysis result")
		return
	}

	s.hub.Broadcast(AnalysisEvent{
		UserID:      req.UserID,
		GeneratedAt: result.GeneratedAt,
		EventCount:  result.EventCount,
		Confidence:  result.Confidence,
		Trends:      len(result.Trends),
		Anomalies:   len(result.Anomalies),
	})

	s.writeJSON(w, http.StatusOK, result)
}

// writeAnalysisError maps engine errors onto HTTP statuses: structural
// input problems are the caller's fault, everything else is not.
func (s *Server) writeAnalysisError(w http.ResponseWriter, r *http.Request, err error) {
	var featureErr *types.FeatureExtractionError
	var batchErr *types.InvalidBatchError
	var typeErr *types.UnknownDataTypeError

	switch {
	case errors.As(err, &featureErr), errors.As(err, &batchErr), errors.As(err, &typeErr):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, r.Context().Err()) && r.Context().Err() != nil:
		s.writeError(w, http.StatusRequestTimeout, "analysis deadline exceeded")
	default:
		s.logger.ErrorContext(r.Context(), "analysis failed", "error", err.Error())
		s.writeError(w, http.StatusInternalServerError, "analysis failed")
	}
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if len(req.Feedback) == 0 {
		s.writeError(w, http.StatusBadRequest, "feedback list is empty")
		return
	}

	ctx := r.Context()
	summary, err := s.profiles.AddFeedback(ctx, req.UserID, req.Feedback)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.AppendFeedback(ctx, req.UserID, req.Feedback); err != nil {
		s.logger.ErrorContext(ctx, "feedback persistence failed", "user_id", req.UserID, "error", err.Error())
	}

	s.writeJSON(w, http.StatusOK, FeedbackResponse{Profile: summary})
}

func (s *Server) handleLatestResult(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	result, err := s.store.LatestResult(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNoResult) {
			s.writeError(w, http.StatusNotFound, "no analysis stored for user")
			return
		}
		s.logger.ErrorContext(r.Context(), "result lookup failed", "user_id", userID, "error", err.Error())
		s.writeError(w, http.StatusInternalServerError, "failed to load analysis result")
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	summary := s.profiles.Summary(r.Context(), userID)
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	result, err := s.store.LatestResult(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNoResult) {
			s.writeError(w, http.StatusNotFound, "no analysis stored for user")
			return
		}
		s.logger.ErrorContext(r.Context(), "report lookup failed", "user_id", userID, "error", err.Error())
		s.writeError(w, http.StatusInternalServerError, "failed to load analysis result")
		return
	}

	html, err := report.RenderHTML(result)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "report rendering failed", "user_id", userID, "error", err.Error())
		s.writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(html)
}

// window resolves an analysis window, defaulting to the configured
// lookback ending now.
func (s *Server) window(since, until *time.Time) (time.Time, time.Time) {
	end := time.Now().UTC()
	if until != nil {
		end = until.UTC()
	}
	start := end.AddDate(0, 0, -s.cfg.Analysis.WindowDays)
	if since != nil {
		start = since.UTC()
	}
	return start, end
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("response encoding failed", "error", err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
