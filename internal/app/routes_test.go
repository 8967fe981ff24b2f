package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/klokku/scheduler/internal/config"
	"github.com/klokku/scheduler/internal/utils"
	"github.com/klokku/scheduler/pkg/event"
	"github.com/klokku/scheduler/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test setup helper
func setupRouterTest(t *testing.T) (http.Handler, *Dependencies) {
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.Storage.File = filepath.Join(dir, "events.json")
	cfg.Report.Dir = filepath.Join(dir, "reports")

	deps, err := BuildDependencies(context.Background(), cfg, &utils.MockClock{FixedNow: today})
	require.NoError(t, err)
	t.Cleanup(deps.Close)
	return NewRouter(deps), deps
}

func doRequest(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_EventLifecycle(t *testing.T) {
	router, deps := setupRouterTest(t)

	w := doRequest(t, router, http.MethodPost, "/api/event",
		event.EventDTO{Name: "Meeting", Category: "Work", StartTime: "2024-09-04 12:00", Duration: 30})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, router, http.MethodPost, "/api/event",
		event.EventDTO{Name: "Lunch", Category: "Food", StartTime: "2024-09-04 12:15", Duration: 30})
	require.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(t, router, http.MethodPatch, "/api/event",
		event.UpdateRequestDTO{Keys: []string{"2024-09-04 12:00"}, Duration: "+15"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodGet, "/api/event", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var events []event.EventDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&events))
	require.Len(t, events, 1)
	assert.Equal(t, 45, events[0].Duration)

	w = doRequest(t, router, http.MethodDelete, "/api/event/"+url.PathEscape("2024-09-04 12:00"), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, deps.EventStore.Len())

	reloaded, err := event.NewFileRepository(deps.Config.Storage.File).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reloaded)
}

func TestRouter_Report(t *testing.T) {
	router, deps := setupRouterTest(t)
	_, err := deps.EventStore.Create(context.Background(), "Meeting", "Work", today, 30)
	require.NoError(t, err)

	w := doRequest(t, router, http.MethodPost, "/api/report?format=csv", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var dto report.ReportDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
	assert.Equal(t, filepath.Join(deps.Config.Report.Dir, "report_2024_09_06.csv"), dto.Path)
	assert.FileExists(t, dto.Path)
}

func TestRouter_RequestId(t *testing.T) {
	router, _ := setupRouterTest(t)

	w := doRequest(t, router, http.MethodGet, "/api/event", nil)
	assert.NotEmpty(t, w.Header().Get(requestIdHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/event", nil)
	req.Header.Set(requestIdHeader, "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIdHeader))
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router, _ := setupRouterTest(t)

	w := doRequest(t, router, http.MethodPut, "/api/event", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
