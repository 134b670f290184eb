package frame

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/tidwall/sjson"

	"vehicle-tracker-go/internal/version"
)

// Значения по умолчанию для записей с неполными метаданными
var (
	MissingStartDate        = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
	MissingExpectedDuration = 15 * time.Minute
)

// Frame детекции одного кадра видео
type Frame struct {
	Number        int
	Occurrence    time.Time
	InputFilePath string
	Detections    []Detection
}

// DeriveFrameNumber возвращает копию кадра с новым номером
func (f Frame) DeriveFrameNumber(number int) Frame {
	f.Number = number
	return f
}

// OutputFile возвращает путь выходного файла для кадра с заданным расширением
func (f Frame) OutputFile(suffix string) string {
	return replaceSuffix(f.InputFilePath, suffix)
}

// FrameGroup упорядоченная последовательность кадров одной непрерывной записи
type FrameGroup struct {
	Frames   []Frame
	OrderKey string
}

// Len возвращает количество кадров в группе
func (g FrameGroup) Len() int {
	return len(g.Frames)
}

// StartDate время первого кадра
func (g FrameGroup) StartDate() time.Time {
	if len(g.Frames) == 0 {
		return time.Time{}
	}
	return g.Frames[0].Occurrence
}

// EndDate время последнего кадра
func (g FrameGroup) EndDate() time.Time {
	if len(g.Frames) == 0 {
		return time.Time{}
	}
	return g.Frames[len(g.Frames)-1].Occurrence
}

// Merge объединяет две группы в новую. Группа с более ранним началом идет первой,
// кадры второй группы перенумеровываются, продолжая нумерацию первой с ее наибольшего номера.
func (g FrameGroup) Merge(other FrameGroup) FrameGroup {
	if g.StartDate().Before(other.StartDate()) {
		return mergeGroups(g, other, g.OrderKey)
	}
	return mergeGroups(other, g, g.OrderKey)
}

func mergeGroups(first, second FrameGroup, orderKey string) FrameGroup {
	frames := make([]Frame, 0, len(first.Frames)+len(second.Frames))
	frames = append(frames, first.Frames...)

	lastNumber := 0
	for _, f := range first.Frames {
		if f.Number > lastNumber {
			lastNumber = f.Number
		}
	}
	for _, f := range second.Frames {
		lastNumber++
		frames = append(frames, f.DeriveFrameNumber(lastNumber))
	}
	return FrameGroup{Frames: frames, OrderKey: orderKey}
}

// Files возвращает входные файлы группы в порядке появления
func (g FrameGroup) Files() []string {
	seen := make(map[string]bool)
	var files []string
	for _, f := range g.Frames {
		if !seen[f.InputFilePath] {
			seen[f.InputFilePath] = true
			files = append(files, f.InputFilePath)
		}
	}
	return files
}

// OutputFiles возвращает пути выходных файлов для всех входных файлов группы
func (g FrameGroup) OutputFiles(suffix string) []string {
	files := g.Files()
	out := make([]string, len(files))
	for i, file := range files {
		out[i] = replaceSuffix(file, suffix)
	}
	return out
}

// UpdateMetadata добавляет блок tracking в метаданные каждого файла группы
func (g FrameGroup) UpdateMetadata(metadata MetadataByFile, trackerData interface{}) (MetadataByFile, error) {
	return updateMetadata(metadata, g.StartDate(), g.EndDate(), trackerData)
}

// FrameRange группа файлов одной записи, построенная только по метаданным
type FrameRange struct {
	Files []string
	Start time.Time
	End   time.Time
}

// Merge объединяет два диапазона в новый; диапазон с более ранним началом идет первым
func (r FrameRange) Merge(other FrameRange) FrameRange {
	if r.Start.Before(other.Start) {
		return mergeRanges(r, other)
	}
	return mergeRanges(other, r)
}

func mergeRanges(first, second FrameRange) FrameRange {
	files := make([]string, 0, len(first.Files)+len(second.Files))
	files = append(files, first.Files...)
	files = append(files, second.Files...)
	return FrameRange{
		Files: files,
		Start: first.Start,
		End:   second.End,
	}
}

// String возвращает интервал диапазона
func (r FrameRange) String() string {
	return fmt.Sprintf("%s - %s", r.Start, r.End)
}

// UpdateMetadata добавляет блок tracking в метаданные каждого файла диапазона
func (r FrameRange) UpdateMetadata(metadata MetadataByFile, trackerData interface{}) (MetadataByFile, error) {
	return updateMetadata(metadata, r.Start, r.End, trackerData)
}

// MetadataByFile сырые JSON метаданные по пути входного файла
type MetadataByFile map[string]json.RawMessage

// trackingBlock блок метаданных с параметрами трекинга
type trackingBlock struct {
	SoftwareVersion        string      `json:"otvision_version"`
	FirstTrackedVideoStart float64     `json:"first_tracked_video_start"`
	LastTrackedVideoEnd    float64     `json:"last_tracked_video_end"`
	Tracker                interface{} `json:"tracker"`
}

func updateMetadata(metadata MetadataByFile, start, end time.Time, trackerData interface{}) (MetadataByFile, error) {
	block := trackingBlock{
		SoftwareVersion:        version.Version,
		FirstTrackedVideoStart: EpochSeconds(start),
		LastTrackedVideoEnd:    EpochSeconds(end),
		Tracker:                trackerData,
	}

	updated := make(MetadataByFile, len(metadata))
	for file, raw := range metadata {
		if len(raw) == 0 {
			raw = json.RawMessage("{}")
		}
		doc, err := sjson.SetBytes(raw, KeyTrackFormatVersion, version.TrackFormatVersion)
		if err != nil {
			return nil, fmt.Errorf("failed to set format version for %s: %w", file, err)
		}
		doc, err = sjson.SetBytes(doc, KeyTracking, block)
		if err != nil {
			return nil, fmt.Errorf("failed to set tracking metadata for %s: %w", file, err)
		}
		updated[file] = doc
	}
	return updated, nil
}

// EpochSeconds переводит время в секунды Unix с дробной частью
func EpochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func replaceSuffix(path, suffix string) string {
	return path[:len(path)-len(filepath.Ext(path))] + suffix
}
