package model

import (
	"time"

	"gorm.io/gorm"

	"vehicle-tracker-go/pkg/models"
)

// TrackingRun представляет запуск трекинга в базе данных
type TrackingRun struct {
	ID   string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name string `gorm:"type:varchar(255);not null" json:"name"`

	// Параметры трекера
	SigmaL            float64 `gorm:"not null" json:"sigma_l"`
	SigmaH            float64 `gorm:"not null" json:"sigma_h"`
	SigmaIoU          float64 `gorm:"not null" json:"sigma_iou"`
	TMin              int     `gorm:"not null" json:"t_min"`
	TMissMax          int     `gorm:"not null" json:"t_miss_max"`
	TimeWithoutFrames float64 `gorm:"not null" json:"time_without_frames_seconds"`

	// Общая статистика
	FilesCount        int        `gorm:"not null;default:0" json:"files_count"`
	GroupsCount       int        `gorm:"not null;default:0" json:"groups_count"`
	FramesCount       int        `gorm:"not null;default:0" json:"frames_count"`
	TracksCount       int        `gorm:"not null;default:0" json:"tracks_count"`
	FirstTrackedStart *time.Time `json:"first_tracked_video_start,omitempty"`
	LastTrackedEnd    *time.Time `json:"last_tracked_video_end,omitempty"`

	Groups []models.GroupSummary `gorm:"serializer:json;type:jsonb" json:"groups"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Связь с треками
	Tracks []Track `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"tracks,omitempty"`
}

// Track представляет завершенный трек запуска
type Track struct {
	ID         uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID      string       `gorm:"type:varchar(36);not null;index" json:"run_id"`
	GroupIndex int          `gorm:"not null" json:"group_index"`
	TrackID    int          `gorm:"not null" json:"track_id"`
	StartFrame int          `gorm:"not null" json:"start_frame"`
	Points     int          `gorm:"not null" json:"points"`
	MaxConf    float64      `gorm:"not null" json:"max_conf"`
	MaxClass   string       `gorm:"type:varchar(64);not null;index" json:"max_class"`
	Centers    [][2]float64 `gorm:"serializer:json;type:jsonb" json:"centers"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Обратная связь с запуском
	Run TrackingRun `gorm:"foreignKey:RunID;references:ID" json:"-"`
}

// TableName указывает имя таблицы для TrackingRun
func (TrackingRun) TableName() string {
	return "tracking_runs"
}

// TableName указывает имя таблицы для Track
func (Track) TableName() string {
	return "tracks"
}
