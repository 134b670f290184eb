package tracker

import (
	"errors"
	"fmt"

	"vehicle-tracker-go/pkg/models"
)

// Name имя трекера в метаданных выходных файлов
const Name = "IOU"

var (
	// ErrInvalidConfig неверные параметры трекера
	ErrInvalidConfig = errors.New("invalid tracker config")
	// ErrDuplicateFrame номер кадра повторяется во входных данных
	ErrDuplicateFrame = errors.New("duplicate frame number")
)

// Config параметры IoU трекера
type Config struct {
	SigmaL   float64 `json:"sigma_l"`
	SigmaH   float64 `json:"sigma_h"`
	SigmaIoU float64 `json:"sigma_iou"`
	TMin     int     `json:"t_min"`
	TMissMax int     `json:"t_miss_max"`
}

// DefaultConfig параметры по умолчанию
func DefaultConfig() Config {
	return Config{
		SigmaL:   0.27,
		SigmaH:   0.42,
		SigmaIoU: 0.38,
		TMin:     5,
		TMissMax: 51,
	}
}

// Validate проверяет параметры
func (c Config) Validate() error {
	for name, value := range map[string]float64{
		"sigma_l":   c.SigmaL,
		"sigma_h":   c.SigmaH,
		"sigma_iou": c.SigmaIoU,
	} {
		if value < 0 || value > 1 {
			return fmt.Errorf("%w: %s must be in [0, 1], got %v", ErrInvalidConfig, name, value)
		}
	}
	if c.TMin < 0 {
		return fmt.Errorf("%w: t_min must not be negative, got %d", ErrInvalidConfig, c.TMin)
	}
	if c.TMissMax < 0 {
		return fmt.Errorf("%w: t_miss_max must not be negative, got %d", ErrInvalidConfig, c.TMissMax)
	}
	return nil
}

// WithOverrides возвращает копию параметров, в которой заменены только указанные поля
func (c Config) WithOverrides(o models.TrackerOverrides) Config {
	if o.SigmaL != nil {
		c.SigmaL = *o.SigmaL
	}
	if o.SigmaH != nil {
		c.SigmaH = *o.SigmaH
	}
	if o.SigmaIoU != nil {
		c.SigmaIoU = *o.SigmaIoU
	}
	if o.TMin != nil {
		c.TMin = *o.TMin
	}
	if o.TMissMax != nil {
		c.TMissMax = *o.TMissMax
	}
	return c
}

// Params возвращает параметры в формате API
func (c Config) Params() models.TrackerParams {
	return models.TrackerParams{
		SigmaL:   c.SigmaL,
		SigmaH:   c.SigmaH,
		SigmaIoU: c.SigmaIoU,
		TMin:     c.TMin,
		TMissMax: c.TMissMax,
	}
}

// metadataBlock описание трекера для метаданных выходных файлов
type metadataBlock struct {
	Name string `json:"name"`
	Config
}

// MetadataBlock возвращает описание трекера и его параметров
func (c Config) MetadataBlock() interface{} {
	return metadataBlock{Name: Name, Config: c}
}
