package service

import (
	"encoding/json"
	"errors"
	"time"

	"vehicle-tracker-go/internal/frame"
	"vehicle-tracker-go/internal/tracker"
)

// ErrInvalidRequest некорректные параметры запроса
var ErrInvalidRequest = errors.New("invalid request")

// OutputWriter записывает файлы с треками
type OutputWriter interface {
	Write(path string, metadata json.RawMessage, detections []frame.TrackedDetection) error
}

// RunOptions параметры одного запуска трекинга
type RunOptions struct {
	Tracker           tracker.Config
	TimeWithoutFrames time.Duration
	FrameOffset       int
	WriteOutput       bool
}

// GroupOutcome результат трекинга одной объединенной группы кадров
type GroupOutcome struct {
	Index       int
	Group       frame.FrameGroup
	Result      *tracker.Result
	Detections  map[string][]frame.TrackedDetection // Детекции треков по входным файлам
	Metadata    frame.MetadataByFile                // Метаданные с блоком tracking
	OutputFiles []string                            // Записанные файлы, если запись включена
}

// RunOutcome результат трекинга набора файлов
type RunOutcome struct {
	Files   []string
	Options RunOptions
	Groups  []GroupOutcome
}

// FramesCount возвращает общее количество кадров
func (o *RunOutcome) FramesCount() int {
	total := 0
	for _, g := range o.Groups {
		total += g.Group.Len()
	}
	return total
}

// TracksCount возвращает общее количество завершенных треков
func (o *RunOutcome) TracksCount() int {
	total := 0
	for _, g := range o.Groups {
		total += len(g.Result.FinishedIDs)
	}
	return total
}

// TrackedSpan возвращает начало первой и конец последней группы
func (o *RunOutcome) TrackedSpan() (time.Time, time.Time, bool) {
	if len(o.Groups) == 0 {
		return time.Time{}, time.Time{}, false
	}
	start := o.Groups[0].Group.StartDate()
	end := o.Groups[0].Group.EndDate()
	for _, g := range o.Groups[1:] {
		if g.Group.StartDate().Before(start) {
			start = g.Group.StartDate()
		}
		if g.Group.EndDate().After(end) {
			end = g.Group.EndDate()
		}
	}
	return start, end, true
}
