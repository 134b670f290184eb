package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"vehicle-tracker-go/pkg/models"
)

// TrackingHandler обрабатывает запросы на трекинг и группировку файлов
type TrackingHandler struct {
	runService RunService
	logger     *logrus.Logger
}

// NewTrackingHandler создает новый обработчик
func NewTrackingHandler(runService RunService, logger *logrus.Logger) *TrackingHandler {
	return &TrackingHandler{
		runService: runService,
		logger:     logger,
	}
}

// RegisterRoutes регистрирует маршруты API
func (h *TrackingHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/runs", h.CreateRun)
	api.POST("/ranges", h.GroupRanges)
	api.GET("/health", h.HealthCheck)
}

// CreateRun запускает трекинг файлов из директории данных
func (h *TrackingHandler) CreateRun(c *gin.Context) {
	h.logger.Info("Получен запрос на трекинг")

	var req models.CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorf("Ошибка разбора запроса: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат запроса"})
		return
	}
	if len(req.Paths) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Отсутствует обязательный параметр: paths"})
		return
	}

	run, err := h.runService.CreateRun(req)
	if err != nil {
		respondError(c, h.logger, err, "Ошибка трекинга")
		return
	}

	h.logger.Infof("Трекинг успешно завершен, запуск %s", run.ID)
	c.JSON(http.StatusCreated, run)
}

// GroupRanges группирует файлы по метаданным без трекинга
func (h *TrackingHandler) GroupRanges(c *gin.Context) {
	h.logger.Info("Получен запрос на группировку файлов")

	var req models.GroupRangesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorf("Ошибка разбора запроса: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат запроса"})
		return
	}
	if len(req.Paths) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Отсутствует обязательный параметр: paths"})
		return
	}

	response, err := h.runService.GroupRanges(req)
	if err != nil {
		respondError(c, h.logger, err, "Ошибка группировки файлов")
		return
	}

	c.JSON(http.StatusOK, response)
}

// HealthCheck проверяет состояние сервиса
func (h *TrackingHandler) HealthCheck(c *gin.Context) {
	h.logger.Debug("Получен запрос проверки здоровья")

	health := h.runService.CheckHealth()

	statusCode := http.StatusOK
	if health.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, health)
}
