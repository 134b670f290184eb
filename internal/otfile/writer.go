package otfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/sjson"

	"vehicle-tracker-go/internal/frame"
)

// trackedRecord запись детекции в выходном файле
type trackedRecord struct {
	Class         string  `json:"class"`
	Confidence    float64 `json:"confidence"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	W             float64 `json:"w"`
	H             float64 `json:"h"`
	Frame         int     `json:"frame"`
	Occurrence    float64 `json:"occurrence"`
	InputFilePath string  `json:"input_file_path"`
	Interpolated  bool    `json:"interpolated-detection"`
	TrackID       int     `json:"track-id"`
	First         bool    `json:"first"`
	Finished      bool    `json:"finished"`
}

// Writer записывает результаты трекинга
type Writer struct {
	logger *logrus.Logger
}

// NewWriter создает новый Writer
func NewWriter(logger *logrus.Logger) *Writer {
	return &Writer{logger: logger}
}

// Encode собирает документ {metadata, data: {detections}}
func Encode(metadata json.RawMessage, detections []frame.TrackedDetection) ([]byte, error) {
	records := make([]trackedRecord, len(detections))
	for i, d := range detections {
		records[i] = trackedRecord{
			Class:         d.Label,
			Confidence:    d.Conf,
			X:             d.X,
			Y:             d.Y,
			W:             d.W,
			H:             d.H,
			Frame:         d.Frame,
			Occurrence:    frame.EpochSeconds(d.Occurrence),
			InputFilePath: filepath.ToSlash(d.InputFilePath),
			Interpolated:  d.Interpolated,
			TrackID:       d.TrackID,
			First:         d.First,
			Finished:      d.Finished,
		}
	}

	if len(metadata) == 0 {
		metadata = json.RawMessage("{}")
	}
	doc, err := sjson.SetRawBytes([]byte("{}"), frame.KeyMetadata, metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to set metadata: %w", err)
	}
	doc, err = sjson.SetBytes(doc, frame.KeyData+"."+frame.KeyDetections, records)
	if err != nil {
		return nil, fmt.Errorf("failed to set detections: %w", err)
	}
	return doc, nil
}

// Write записывает файл с треками. Файл сначала пишется во временный и затем переименовывается.
func (w *Writer) Write(path string, metadata json.RawMessage, detections []frame.TrackedDetection) error {
	doc, err := Encode(metadata, detections)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move output file: %w", err)
	}

	w.logger.Infof("Записан файл треков %s (%d детекций)", path, len(detections))
	return nil
}
