package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"vehicle-tracker-go/pkg/models"
)

// APIError ответ сервера с неуспешным статусом
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tracking API returned status %d: %s", e.StatusCode, e.Message)
}

// TrackingAPIClient клиент для HTTP API трекинга
type TrackingAPIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewTrackingAPIClient создает новый клиент
func NewTrackingAPIClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *TrackingAPIClient {
	return &TrackingAPIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// CreateRun запускает трекинг файлов на сервере
func (c *TrackingAPIClient) CreateRun(request models.CreateRunRequest) (*models.RunResponse, error) {
	c.logger.Infof("Отправка запроса на трекинг %d путей", len(request.Paths))

	var run models.RunResponse
	if err := c.do(http.MethodPost, "/api/v1/runs", request, &run); err != nil {
		return nil, err
	}

	c.logger.Infof("Запуск %s создан: %d треков", run.ID, run.TracksCount)
	return &run, nil
}

// GetRun получает запуск по ID
func (c *TrackingAPIClient) GetRun(runID string) (*models.RunResponse, error) {
	var run models.RunResponse
	if err := c.do(http.MethodGet, "/api/v1/runs/"+url.PathEscape(runID), nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns получает страницу списка запусков
func (c *TrackingAPIClient) ListRuns(page, size int) (*models.ListRunsResponse, error) {
	query := url.Values{}
	query.Set("page", fmt.Sprint(page))
	query.Set("size", fmt.Sprint(size))

	var runs models.ListRunsResponse
	if err := c.do(http.MethodGet, "/api/v1/runs?"+query.Encode(), nil, &runs); err != nil {
		return nil, err
	}
	return &runs, nil
}

// DeleteRun удаляет запуск
func (c *TrackingAPIClient) DeleteRun(runID string) error {
	return c.do(http.MethodDelete, "/api/v1/runs/"+url.PathEscape(runID), nil, nil)
}

// GetTracks получает треки запуска, опционально только заданного класса
func (c *TrackingAPIClient) GetTracks(runID, class string) (*models.FeatureCollection, error) {
	path := "/api/v1/runs/" + url.PathEscape(runID) + "/tracks"
	if class != "" {
		path += "?" + url.Values{"class": []string{class}}.Encode()
	}

	var tracks models.FeatureCollection
	if err := c.do(http.MethodGet, path, nil, &tracks); err != nil {
		return nil, err
	}
	return &tracks, nil
}

// GroupRanges группирует файлы на сервере по метаданным
func (c *TrackingAPIClient) GroupRanges(request models.GroupRangesRequest) (*models.GroupRangesResponse, error) {
	var ranges models.GroupRangesResponse
	if err := c.do(http.MethodPost, "/api/v1/ranges", request, &ranges); err != nil {
		return nil, err
	}
	return &ranges, nil
}

// CheckHealth проверяет состояние сервера. Ответ 503 тоже разбирается.
func (c *TrackingAPIClient) CheckHealth() (*models.HealthResponse, error) {
	c.logger.Debug("Проверка здоровья API трекинга")

	var health models.HealthResponse
	err := c.do(http.MethodGet, "/api/v1/health", nil, &health)
	if apiErr, ok := err.(*APIError); ok && apiErr.StatusCode == http.StatusServiceUnavailable {
		return &health, nil
	}
	if err != nil {
		return nil, err
	}
	return &health, nil
}

// do выполняет запрос и разбирает JSON ответ в out.
// Тело ответа разбирается и при неуспешном статусе, чтобы вернуть сообщение сервера.
func (c *TrackingAPIClient) do(method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debugf("Отправка %s запроса на %s", method, req.URL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		}
		if out != nil && resp.StatusCode == http.StatusServiceUnavailable {
			_ = json.Unmarshal(respBody, out)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
