package models

import "time"

// Типы GeoJSON, используемые в выходных данных трекера
const (
	FeatureCollectionType = "FeatureCollection"
	FeatureType           = "Feature"
	LineStringType        = "LineString"
)

// TrackProperties свойства завершенного трека
type TrackProperties struct {
	MaxConf    float64 `json:"max_conf"`    // Максимальная уверенность детекций трека
	ID         int     `json:"ID"`          // Идентификатор трека
	StartFrame int     `json:"start_frame"` // Первый кадр трека
	MaxClass   string  `json:"max_class"`   // Наиболее частый класс детекций трека
}

// LineString геометрия трека - ломаная по центрам детекций
type LineString struct {
	Type        string       `json:"type"`
	Coordinates [][2]float64 `json:"coordinates"`
}

// Feature один завершенный трек
type Feature struct {
	Type       string          `json:"type"`
	Geometry   LineString      `json:"geometry"`
	Properties TrackProperties `json:"properties"`
}

// FeatureCollection набор завершенных треков
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// NewFeatureCollection создает пустую коллекцию
func NewFeatureCollection() FeatureCollection {
	return FeatureCollection{
		Type:     FeatureCollectionType,
		Features: []Feature{},
	}
}

// NewTrackFeature создает Feature для трека по списку центров
func NewTrackFeature(centers [][2]float64, props TrackProperties) Feature {
	return Feature{
		Type: FeatureType,
		Geometry: LineString{
			Type:        LineStringType,
			Coordinates: centers,
		},
		Properties: props,
	}
}

// TrackerParams параметры IoU трекера
type TrackerParams struct {
	SigmaL   float64 `json:"sigma_l"`    // Минимальная уверенность детекции для сопоставления
	SigmaH   float64 `json:"sigma_h"`    // Минимальная пиковая уверенность трека
	SigmaIoU float64 `json:"sigma_iou"`  // Минимальный IoU для сопоставления
	TMin     int     `json:"t_min"`      // Минимальная длина трека в кадрах
	TMissMax int     `json:"t_miss_max"` // Максимальное число кадров без сопоставления
}

// TrackerOverrides параметры трекера в запросе. Не указанные поля берутся из настроек по умолчанию.
type TrackerOverrides struct {
	SigmaL   *float64 `json:"sigma_l,omitempty"`
	SigmaH   *float64 `json:"sigma_h,omitempty"`
	SigmaIoU *float64 `json:"sigma_iou,omitempty"`
	TMin     *int     `json:"t_min,omitempty"`
	TMissMax *int     `json:"t_miss_max,omitempty"`
}

// CreateRunRequest запрос на запуск трекинга
type CreateRunRequest struct {
	Name                     string            `json:"name,omitempty"`
	Paths                    []string          `json:"paths"`
	Tracker                  *TrackerOverrides `json:"tracker,omitempty"`
	TimeWithoutFramesSeconds *float64          `json:"time_without_frames_seconds,omitempty"`
	WriteOutput              bool              `json:"write_output"`
}

// GroupRangesRequest запрос на группировку файлов по метаданным
type GroupRangesRequest struct {
	Paths                    []string `json:"paths"`
	TimeWithoutFramesSeconds *float64 `json:"time_without_frames_seconds,omitempty"`
}

// FrameRangeInfo группа файлов одной записи
type FrameRangeInfo struct {
	Files     []string  `json:"files"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// GroupRangesResponse ответ с группами файлов
type GroupRangesResponse struct {
	Ranges []FrameRangeInfo `json:"ranges"`
	Total  int              `json:"total"`
}

// GroupSummary сводка по одной объединенной группе кадров
type GroupSummary struct {
	Index       int       `json:"index"`
	OrderKey    string    `json:"order_key"`
	Files       []string  `json:"files"`
	Frames      int       `json:"frames"`
	Tracks      int       `json:"tracks"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	OutputFiles []string  `json:"output_files,omitempty"`
}

// RunResponse информация о запуске трекинга
type RunResponse struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Tracker           TrackerParams  `json:"tracker"`
	TimeWithoutFrames float64        `json:"time_without_frames_seconds"`
	FilesCount        int            `json:"files_count"`
	GroupsCount       int            `json:"groups_count"`
	FramesCount       int            `json:"frames_count"`
	TracksCount       int            `json:"tracks_count"`
	FirstTrackedStart *time.Time     `json:"first_tracked_video_start,omitempty"`
	LastTrackedEnd    *time.Time     `json:"last_tracked_video_end,omitempty"`
	Groups            []GroupSummary `json:"groups,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// ListRunsResponse ответ со списком запусков
type ListRunsResponse struct {
	Runs  []RunResponse `json:"runs"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Size  int           `json:"size"`
}

// HealthResponse представляет ответ проверки здоровья сервиса
type HealthResponse struct {
	Status   string `json:"status"`   // Статус сервиса (healthy/unhealthy)
	Database bool   `json:"database"` // Доступна ли база данных
	Version  string `json:"version"`  // Версия сервиса
}
