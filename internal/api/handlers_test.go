package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personal-insights/internal/analysis"
	"personal-insights/internal/config"
	"personal-insights/internal/learning"
	"personal-insights/internal/logging"
	"personal-insights/internal/storage"
	"personal-insights/pkg/types"
)

func newTestServer(t *testing.T, source storage.EventSource) (*Server, *storage.MemoryStore) {
	t.Helper()

	cfg := config.DefaultConfig()
	orchestrator, err := analysis.NewOrchestrator(analysis.Options{
		ClusterSeed: 42,
		Logger:      logging.NewNoopLogger(),
	})
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	server := NewServer(cfg, orchestrator, learning.NewStore(), store, source, logging.NewNoopLogger())
	return server, store
}

func postJSON(t *testing.T, server *Server, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func get(server *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func sampleEvents() []*types.Event {
	base := time.Now().UTC().AddDate(0, 0, -10)
	events := []*types.Event{}
	for i := 0; i < 8; i++ {
		events = append(events, &types.Event{
			ID:       fmt.Sprintf("evt-%d", i),
			DataType: types.DataTypeHealth,
			Source:   "fitness-tracker",
			Value: map[string]types.FieldValue{
				"steps": types.Num(float64(4000 + i*750)),
			},
			Timestamp: base.AddDate(0, 0, i).UnixMilli(),
		})
	}
	return events
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rec := get(server, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestAnalyzeInlineEvents(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rec := postJSON(t, server, "/api/v1/analyze", AnalyzeRequest{
		UserID: "alice",
		Events: sampleEvents(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result types.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 8, result.EventCount)
	assert.GreaterOrEqual(t, result.Confidence, 0.0)
	assert.LessOrEqual(t, result.Confidence, 1.0)

	// The result must now be retrievable
	rec = get(server, "/api/v1/results/alice/latest")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnalyzeRequiresUserID(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rec := postJSON(t, server, "/api/v1/analyze", AnalyzeRequest{Events: sampleEvents()})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeUnknownDataTypeIsBadRequest(t *testing.T) {
	server, _ := newTestServer(t, nil)

	events := sampleEvents()
	events[0].DataType = "astrology"

	rec := postJSON(t, server, "/api/v1/analyze", AnalyzeRequest{UserID: "alice", Events: events})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "astrology")
}

func TestAnalyzeWithoutSourceIs503(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rec := postJSON(t, server, "/api/v1/analyze", AnalyzeRequest{UserID: "alice"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAnalyzeFetchesFromEventSource(t *testing.T) {
	source := storage.NewMemoryEventSource(sampleEvents())
	server, _ := newTestServer(t, source)

	rec := postJSON(t, server, "/api/v1/analyze", AnalyzeRequest{UserID: "alice"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result types.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 8, result.EventCount)
}

func TestFeedbackUpdatesProfileAndPersists(t *testing.T) {
	server, store := newTestServer(t, nil)

	rec := postJSON(t, server, "/api/v1/feedback", FeedbackRequest{
		UserID: "alice",
		Feedback: []types.Feedback{
			{InsightID: "trend-health", Rating: 0.9, Action: "acted_upon"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp FeedbackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Profile.TotalFeedback)
	assert.InDelta(t, 0.9, resp.Profile.AverageRating, 1e-9)

	log, err := store.FeedbackLog(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, "trend-health", log[0].InsightID)
}

func TestFeedbackRejectsOutOfRangeRating(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rec := postJSON(t, server, "/api/v1/feedback", FeedbackRequest{
		UserID: "alice",
		Feedback: []types.Feedback{
			{InsightID: "trend-health", Rating: 1.5},
		},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeedbackRequiresEntries(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rec := postJSON(t, server, "/api/v1/feedback", FeedbackRequest{UserID: "alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLatestResultNotFound(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rec := get(server, "/api/v1/results/nobody/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfileEndpointZeroForNewUser(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rec := get(server, "/api/v1/profile/newcomer")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary types.ProfileSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Zero(t, summary.TotalFeedback)
}

func TestReportEndpoint(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rec := get(server, "/api/v1/report/alice")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	postRec := postJSON(t, server, "/api/v1/analyze", AnalyzeRequest{
		UserID: "alice",
		Events: sampleEvents(),
	})
	require.Equal(t, http.StatusOK, postRec.Code)

	rec = get(server, "/api/v1/report/alice")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Personal Insights Report")
}
