package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"vehicle-tracker-go/internal/frame"
	"vehicle-tracker-go/internal/otfile"
	"vehicle-tracker-go/internal/repository"
	"vehicle-tracker-go/internal/security"
	"vehicle-tracker-go/internal/service"
	"vehicle-tracker-go/internal/tracker"
	"vehicle-tracker-go/pkg/models"
)

// RunService операции над запусками трекинга, которые использует API
type RunService interface {
	CreateRun(req models.CreateRunRequest) (*models.RunResponse, error)
	GetRun(runID string) (*models.RunResponse, error)
	ListRuns(page, pageSize int) (*models.ListRunsResponse, error)
	DeleteRun(runID string) error
	GetTracks(runID, class string) (*models.FeatureCollection, error)
	GroupRanges(req models.GroupRangesRequest) (*models.GroupRangesResponse, error)
	CheckHealth() *models.HealthResponse
}

// RunHandler обрабатывает HTTP запросы для работы с сохраненными запусками
type RunHandler struct {
	runService RunService
	logger     *logrus.Logger
}

// NewRunHandler создает новый экземпляр RunHandler
func NewRunHandler(runService RunService, logger *logrus.Logger) *RunHandler {
	return &RunHandler{
		runService: runService,
		logger:     logger,
	}
}

// RegisterRoutes регистрирует маршруты API
func (h *RunHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/runs", h.ListRuns)
	api.GET("/runs/:id", h.GetRun)
	api.DELETE("/runs/:id", h.DeleteRun)
	api.GET("/runs/:id/tracks", h.GetTracks)
}

// ListRuns возвращает список запусков с пагинацией
func (h *RunHandler) ListRuns(c *gin.Context) {
	h.logger.Info("Получен запрос на получение списка запусков")

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	size, err := strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil || size < 1 || size > 100 {
		size = 10
	}

	response, err := h.runService.ListRuns(page, size)
	if err != nil {
		h.logger.Errorf("Ошибка получения списка запусков: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения списка запусков"})
		return
	}

	h.logger.Infof("Возвращено %d запусков из %d", len(response.Runs), response.Total)
	c.JSON(http.StatusOK, response)
}

// GetRun возвращает запуск по ID
func (h *RunHandler) GetRun(c *gin.Context) {
	runID := c.Param("id")
	h.logger.Infof("Получен запрос на получение запуска с ID: %s", runID)

	run, err := h.runService.GetRun(runID)
	if err != nil {
		respondError(c, h.logger, err, "Ошибка получения запуска")
		return
	}

	c.JSON(http.StatusOK, run)
}

// DeleteRun удаляет запуск по ID
func (h *RunHandler) DeleteRun(c *gin.Context) {
	runID := c.Param("id")
	h.logger.Infof("Получен запрос на удаление запуска с ID: %s", runID)

	if err := h.runService.DeleteRun(runID); err != nil {
		respondError(c, h.logger, err, "Ошибка удаления запуска")
		return
	}

	h.logger.Info("Запуск успешно удален")
	c.JSON(http.StatusOK, gin.H{"message": "Запуск успешно удален"})
}

// GetTracks возвращает треки запуска в формате GeoJSON
func (h *RunHandler) GetTracks(c *gin.Context) {
	runID := c.Param("id")
	class := c.Query("class")
	h.logger.Infof("Получен запрос треков запуска %s (класс %q)", runID, class)

	tracks, err := h.runService.GetTracks(runID, class)
	if err != nil {
		respondError(c, h.logger, err, "Ошибка получения треков")
		return
	}

	c.JSON(http.StatusOK, tracks)
}

// statusFor сопоставляет ошибку сервиса с HTTP статусом
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, security.ErrPathOutside),
		errors.Is(err, tracker.ErrInvalidConfig),
		errors.Is(err, tracker.ErrDuplicateFrame),
		errors.Is(err, frame.ErrConversion),
		errors.Is(err, otfile.ErrUnsupportedFile),
		errors.Is(err, otfile.ErrInvalidFile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError логирует ошибку и отвечает статусом, соответствующим ошибке.
// Текст ошибки возвращается клиенту только для ошибок запроса.
func respondError(c *gin.Context, logger *logrus.Logger, err error, message string) {
	status := statusFor(err)
	logger.Errorf("%s: %v", message, err)

	switch status {
	case http.StatusNotFound:
		c.JSON(status, gin.H{"error": "Запуск не найден"})
	case http.StatusBadRequest:
		c.JSON(status, gin.H{"error": err.Error()})
	default:
		c.JSON(status, gin.H{"error": message})
	}
}
