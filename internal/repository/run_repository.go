package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"vehicle-tracker-go/internal/model"
)

// ErrNotFound запись не найдена
var ErrNotFound = errors.New("not found")

// RunRepository интерфейс для работы с запусками трекинга
type RunRepository interface {
	Create(run *model.TrackingRun) error
	GetByID(id string) (*model.TrackingRun, error)
	List(page, pageSize int) ([]*model.TrackingRun, int64, error)
	Delete(id string) error
	ListTracks(runID, class string) ([]model.Track, error)
}

// runRepository реализация RunRepository
type runRepository struct {
	db *gorm.DB
}

// NewRunRepository создает новый instance RunRepository
func NewRunRepository(db *gorm.DB) RunRepository {
	return &runRepository{
		db: db,
	}
}

// Create создает запуск вместе с треками в одной транзакции
func (r *runRepository) Create(run *model.TrackingRun) error {
	tracks := run.Tracks
	run.Tracks = nil

	tx := r.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	if err := tx.Create(run).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to create run: %w", err)
	}

	for i := range tracks {
		tracks[i].ID = 0 // Обнуляем ID для auto-increment
		tracks[i].RunID = run.ID
	}
	if len(tracks) > 0 {
		if err := tx.CreateInBatches(tracks, 500).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create tracks: %w", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	run.Tracks = tracks
	return nil
}

// GetByID получает запуск по ID без треков
func (r *runRepository) GetByID(id string) (*model.TrackingRun, error) {
	var run model.TrackingRun
	err := r.db.Where("id = ?", id).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("run with id %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// List получает список запусков с пагинацией
func (r *runRepository) List(page, pageSize int) ([]*model.TrackingRun, int64, error) {
	var runs []*model.TrackingRun
	var total int64

	// Подсчитываем общее количество
	if err := r.db.Model(&model.TrackingRun{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count runs: %w", err)
	}

	offset := (page - 1) * pageSize
	err := r.db.
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&runs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list runs: %w", err)
	}

	return runs, total, nil
}

// Delete удаляет запуск и его треки
func (r *runRepository) Delete(id string) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	// Сначала удаляем треки
	if err := tx.Where("run_id = ?", id).Delete(&model.Track{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete tracks: %w", err)
	}

	result := tx.Where("id = ?", id).Delete(&model.TrackingRun{})
	if result.Error != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete run: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		tx.Rollback()
		return fmt.Errorf("run with id %s: %w", id, ErrNotFound)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListTracks получает треки запуска, опционально только заданного класса
func (r *runRepository) ListTracks(runID, class string) ([]model.Track, error) {
	var tracks []model.Track
	query := r.db.Where("run_id = ?", runID)
	if class != "" {
		query = query.Where("max_class = ?", class)
	}
	if err := query.Order("group_index, track_id").Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	return tracks, nil
}
