package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-tracker-go/internal/frame"
	"vehicle-tracker-go/internal/repository"
	"vehicle-tracker-go/internal/security"
	"vehicle-tracker-go/internal/service"
	"vehicle-tracker-go/internal/tracker"
	"vehicle-tracker-go/pkg/models"
)

// fakeRunService возвращает заранее заданные ответы и запоминает запросы
type fakeRunService struct {
	createReq  models.CreateRunRequest
	createErr  error
	rangesReq  models.GroupRangesRequest
	page, size int
	class      string
	deleted    string
	healthy    bool
}

func (f *fakeRunService) CreateRun(req models.CreateRunRequest) (*models.RunResponse, error) {
	f.createReq = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.RunResponse{ID: "run-1", Name: req.Name, TracksCount: 2}, nil
}

func (f *fakeRunService) GetRun(runID string) (*models.RunResponse, error) {
	if runID != "run-1" {
		return nil, fmt.Errorf("failed to get run: %w", repository.ErrNotFound)
	}
	return &models.RunResponse{ID: runID}, nil
}

func (f *fakeRunService) ListRuns(page, pageSize int) (*models.ListRunsResponse, error) {
	f.page, f.size = page, pageSize
	return &models.ListRunsResponse{Runs: []models.RunResponse{{ID: "run-1"}}, Total: 1, Page: page, Size: pageSize}, nil
}

func (f *fakeRunService) DeleteRun(runID string) error {
	if runID != "run-1" {
		return fmt.Errorf("failed to delete run: %w", repository.ErrNotFound)
	}
	f.deleted = runID
	return nil
}

func (f *fakeRunService) GetTracks(runID, class string) (*models.FeatureCollection, error) {
	f.class = class
	collection := models.NewFeatureCollection()
	collection.Features = append(collection.Features, models.NewTrackFeature([][2]float64{{1, 2}, {3, 4}}, models.TrackProperties{
		MaxConf: 0.9, ID: 1, StartFrame: 1, MaxClass: "car",
	}))
	return &collection, nil
}

func (f *fakeRunService) GroupRanges(req models.GroupRangesRequest) (*models.GroupRangesResponse, error) {
	f.rangesReq = req
	return &models.GroupRangesResponse{Ranges: []models.FrameRangeInfo{{Files: req.Paths}}, Total: 1}, nil
}

func (f *fakeRunService) CheckHealth() *models.HealthResponse {
	if f.healthy {
		return &models.HealthResponse{Status: "healthy", Database: true, Version: "dev"}
	}
	return &models.HealthResponse{Status: "unhealthy", Version: "dev"}
}

func newTestRouter(svc RunService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()

	router := gin.New()
	api := router.Group("/api/v1")
	NewTrackingHandler(svc, logger).RegisterRoutes(api)
	NewRunHandler(svc, logger).RegisterRoutes(api)
	return router
}

func doRequest(router *gin.Engine, method, target string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		var raw []byte
		switch b := body.(type) {
		case string:
			raw = []byte(b)
		default:
			raw, _ = json.Marshal(b)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateRun(t *testing.T) {
	svc := &fakeRunService{}
	router := newTestRouter(svc)
	tMin := 3

	w := doRequest(router, http.MethodPost, "/api/v1/runs", models.CreateRunRequest{
		Name:        "morning",
		Paths:       []string{"day1"},
		Tracker:     &models.TrackerOverrides{TMin: &tMin},
		WriteOutput: true,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var run models.RunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, []string{"day1"}, svc.createReq.Paths)
	require.NotNil(t, svc.createReq.Tracker.TMin)
	assert.Equal(t, 3, *svc.createReq.Tracker.TMin)
	assert.Nil(t, svc.createReq.Tracker.SigmaIoU)
	assert.True(t, svc.createReq.WriteOutput)
}

func TestCreateRunErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   interface{}
		err    error
		status int
	}{
		{name: "malformed body", body: `{"paths": [`, status: http.StatusBadRequest},
		{name: "no paths", body: models.CreateRunRequest{}, status: http.StatusBadRequest},
		{name: "path outside", body: models.CreateRunRequest{Paths: []string{"../x"}}, err: security.ErrPathOutside, status: http.StatusBadRequest},
		{name: "bad file", body: models.CreateRunRequest{Paths: []string{"x"}}, err: fmt.Errorf("failed to preprocess files: %w", frame.ErrConversion), status: http.StatusBadRequest},
		{name: "duplicate frame", body: models.CreateRunRequest{Paths: []string{"x"}}, err: fmt.Errorf("failed to track group 0: %w", tracker.ErrDuplicateFrame), status: http.StatusBadRequest},
		{name: "invalid request", body: models.CreateRunRequest{Paths: []string{"x"}}, err: service.ErrInvalidRequest, status: http.StatusBadRequest},
		{name: "database down", body: models.CreateRunRequest{Paths: []string{"x"}}, err: errors.New("connection refused"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeRunService{createErr: tt.err})
			w := doRequest(router, http.MethodPost, "/api/v1/runs", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestInternalErrorsAreNotExposed(t *testing.T) {
	router := newTestRouter(&fakeRunService{createErr: errors.New("password authentication failed")})
	w := doRequest(router, http.MethodPost, "/api/v1/runs", models.CreateRunRequest{Paths: []string{"x"}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestListRunsPagination(t *testing.T) {
	svc := &fakeRunService{}
	router := newTestRouter(svc)

	w := doRequest(router, http.MethodGet, "/api/v1/runs?page=2&size=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, svc.page)
	assert.Equal(t, 5, svc.size)

	doRequest(router, http.MethodGet, "/api/v1/runs?page=-1&size=1000", nil)
	assert.Equal(t, 1, svc.page)
	assert.Equal(t, 10, svc.size)
}

func TestGetAndDeleteRun(t *testing.T) {
	svc := &fakeRunService{}
	router := newTestRouter(svc)

	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/api/v1/runs/run-1", nil).Code)
	assert.Equal(t, http.StatusNotFound, doRequest(router, http.MethodGet, "/api/v1/runs/missing", nil).Code)

	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodDelete, "/api/v1/runs/run-1", nil).Code)
	assert.Equal(t, "run-1", svc.deleted)
	assert.Equal(t, http.StatusNotFound, doRequest(router, http.MethodDelete, "/api/v1/runs/missing", nil).Code)
}

func TestGetTracks(t *testing.T) {
	svc := &fakeRunService{}
	router := newTestRouter(svc)

	w := doRequest(router, http.MethodGet, "/api/v1/runs/run-1/tracks?class=car", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "car", svc.class)

	var collection models.FeatureCollection
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &collection))
	assert.Equal(t, models.FeatureCollectionType, collection.Type)
	require.Len(t, collection.Features, 1)
	assert.Equal(t, models.LineStringType, collection.Features[0].Geometry.Type)
	assert.Equal(t, 1, collection.Features[0].Properties.ID)
}

func TestGroupRanges(t *testing.T) {
	svc := &fakeRunService{}
	router := newTestRouter(svc)

	w := doRequest(router, http.MethodPost, "/api/v1/ranges", models.GroupRangesRequest{Paths: []string{"day1", "day2"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"day1", "day2"}, svc.rangesReq.Paths)

	w = doRequest(router, http.MethodPost, "/api/v1/ranges", models.GroupRangesRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthCheck(t *testing.T) {
	w := doRequest(newTestRouter(&fakeRunService{healthy: true}), http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(newTestRouter(&fakeRunService{}), http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var health models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.False(t, health.Database)
}
