package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vehicle-tracker-go/internal/otfile"
	"vehicle-tracker-go/internal/repository"
	"vehicle-tracker-go/internal/security"
	"vehicle-tracker-go/internal/tracker"
	"vehicle-tracker-go/internal/version"
	"vehicle-tracker-go/pkg/models"
)

// inputSuffixes расширения файлов детекций, которые принимает сервис
var inputSuffixes = []string{otfile.DetectionsSuffix, otfile.JSONSuffix}

// RunService сервис для работы с запусками трекинга
type RunService struct {
	runRepo           repository.RunRepository
	tracking          *TrackingService
	dataDir           string
	defaults          tracker.Config
	timeWithoutFrames time.Duration
	healthCheck       func() error
	logger            *logrus.Logger
}

// NewRunService создает новый сервис запусков
func NewRunService(runRepo repository.RunRepository, tracking *TrackingService, dataDir string, defaults tracker.Config, timeWithoutFrames time.Duration, healthCheck func() error, logger *logrus.Logger) *RunService {
	return &RunService{
		runRepo:           runRepo,
		tracking:          tracking,
		dataDir:           dataDir,
		defaults:          defaults,
		timeWithoutFrames: timeWithoutFrames,
		healthCheck:       healthCheck,
		logger:            logger,
	}
}

// CreateRun выполняет трекинг файлов из директории данных и сохраняет результат
func (s *RunService) CreateRun(req models.CreateRunRequest) (*models.RunResponse, error) {
	files, err := s.resolveFiles(req.Paths)
	if err != nil {
		return nil, err
	}

	opts := RunOptions{
		Tracker:           s.defaults,
		TimeWithoutFrames: s.timeWithoutFrames,
		WriteOutput:       req.WriteOutput,
	}
	if req.Tracker != nil {
		opts.Tracker = s.defaults.WithOverrides(*req.Tracker)
	}
	if req.TimeWithoutFramesSeconds != nil {
		if *req.TimeWithoutFramesSeconds < 0 {
			return nil, fmt.Errorf("%w: time_without_frames_seconds must not be negative", ErrInvalidRequest)
		}
		opts.TimeWithoutFrames = secondsToDuration(*req.TimeWithoutFramesSeconds)
	}

	outcome, err := s.tracking.Track(files, opts)
	if err != nil {
		return nil, err
	}

	runID := s.GenerateRunID()
	name := req.Name
	if name == "" {
		name = fmt.Sprintf("Run %s", runID[:8])
	}
	run := s.outcomeToModel(runID, name, outcome)

	s.logger.Infof("Сохраняем запуск %s в БД. Количество треков: %d", runID, len(run.Tracks))
	if err := s.runRepo.Create(run); err != nil {
		s.logger.Errorf("Ошибка сохранения запуска в БД: %v", err)
		return nil, fmt.Errorf("failed to save run to database: %w", err)
	}

	s.logger.Infof("Запуск %s успешно сохранен", runID)
	return modelToResponse(run), nil
}

// GetRun получает запуск по ID
func (s *RunService) GetRun(runID string) (*models.RunResponse, error) {
	run, err := s.runRepo.GetByID(runID)
	if err != nil {
		s.logger.Errorf("Ошибка получения запуска: %v", err)
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return modelToResponse(run), nil
}

// ListRuns получает список запусков с пагинацией
func (s *RunService) ListRuns(page, pageSize int) (*models.ListRunsResponse, error) {
	s.logger.Infof("Получаем список запусков: страница %d, размер %d", page, pageSize)

	runs, total, err := s.runRepo.List(page, pageSize)
	if err != nil {
		s.logger.Errorf("Ошибка получения списка запусков: %v", err)
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	responses := make([]models.RunResponse, len(runs))
	for i, run := range runs {
		responses[i] = *modelToResponse(run)
		responses[i].Groups = nil
	}

	return &models.ListRunsResponse{
		Runs:  responses,
		Total: total,
		Page:  page,
		Size:  pageSize,
	}, nil
}

// DeleteRun удаляет запуск и его треки
func (s *RunService) DeleteRun(runID string) error {
	s.logger.Infof("Удаляем запуск %s", runID)

	if err := s.runRepo.Delete(runID); err != nil {
		s.logger.Errorf("Ошибка удаления запуска из БД: %v", err)
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

// GetTracks возвращает треки запуска в виде GeoJSON FeatureCollection
func (s *RunService) GetTracks(runID, class string) (*models.FeatureCollection, error) {
	if _, err := s.runRepo.GetByID(runID); err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	tracks, err := s.runRepo.ListTracks(runID, class)
	if err != nil {
		s.logger.Errorf("Ошибка получения треков: %v", err)
		return nil, fmt.Errorf("failed to get tracks: %w", err)
	}

	collection := models.NewFeatureCollection()
	for _, t := range tracks {
		collection.Features = append(collection.Features, models.NewTrackFeature(t.Centers, models.TrackProperties{
			MaxConf:    t.MaxConf,
			ID:         t.TrackID,
			StartFrame: t.StartFrame,
			MaxClass:   t.MaxClass,
		}))
	}
	return &collection, nil
}

// GroupRanges группирует файлы из директории данных по метаданным
func (s *RunService) GroupRanges(req models.GroupRangesRequest) (*models.GroupRangesResponse, error) {
	files, err := s.resolveFiles(req.Paths)
	if err != nil {
		return nil, err
	}

	gap := s.timeWithoutFrames
	if req.TimeWithoutFramesSeconds != nil {
		if *req.TimeWithoutFramesSeconds < 0 {
			return nil, fmt.Errorf("%w: time_without_frames_seconds must not be negative", ErrInvalidRequest)
		}
		gap = secondsToDuration(*req.TimeWithoutFramesSeconds)
	}

	result, err := s.tracking.GroupRanges(files, gap)
	if err != nil {
		return nil, err
	}

	ranges := make([]models.FrameRangeInfo, len(result.FrameRanges))
	for i, r := range result.FrameRanges {
		ranges[i] = models.FrameRangeInfo{
			Files:     s.relativePaths(r.Files),
			StartDate: r.Start,
			EndDate:   r.End,
		}
	}
	return &models.GroupRangesResponse{Ranges: ranges, Total: len(ranges)}, nil
}

// CheckHealth проверяет состояние сервиса и базы данных
func (s *RunService) CheckHealth() *models.HealthResponse {
	s.logger.Debug("Проверяем состояние сервиса")

	health := &models.HealthResponse{
		Status:   "healthy",
		Database: true,
		Version:  version.Version,
	}
	if s.healthCheck != nil {
		if err := s.healthCheck(); err != nil {
			s.logger.Errorf("База данных недоступна: %v", err)
			health.Status = "unhealthy"
			health.Database = false
		}
	}
	return health
}

// GenerateRunID генерирует уникальный ID для запуска
func (s *RunService) GenerateRunID() string {
	return uuid.New().String()
}

// resolveFiles проверяет, что пути лежат внутри директории данных, и раскрывает директории
func (s *RunService) resolveFiles(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: paths are required", ErrInvalidRequest)
	}

	resolved := make([]string, len(paths))
	for i, path := range paths {
		abs, err := security.ResolveWithinDirectory(path, s.dataDir)
		if err != nil {
			s.logger.Warnf("Отклонен путь %q: %v", path, err)
			return nil, err
		}
		resolved[i] = abs
	}

	files, err := otfile.Collect(resolved, inputSuffixes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no detection files found", ErrInvalidRequest)
	}
	return files, nil
}

// relativePaths возвращает пути относительно директории данных
func (s *RunService) relativePaths(files []string) []string {
	base, err := security.ResolveWithinDirectory(".", s.dataDir)
	if err != nil {
		return files
	}
	out := make([]string, len(files))
	for i, file := range files {
		out[i] = relativeTo(base, file)
	}
	return out
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
