package frame

import (
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// ParseDateTime разбирает дату, заданную строкой вида "2006-01-02 15:04:05.999999"
// или временем Unix в секундах (числом или строкой). Результат всегда в UTC.
func ParseDateTime(value gjson.Result, key string) (time.Time, error) {
	if value.Type == gjson.String && strings.Contains(value.Str, "-") {
		return ParseDateString(value.Str)
	}
	seconds, err := toNumber(value, key)
	if err != nil {
		return time.Time{}, err
	}
	return FromEpochSeconds(seconds), nil
}

// ParseDateString разбирает строковую дату. Даты без часового пояса считаются UTC.
func ParseDateString(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.ParseInLocation(DateFormat, value, time.UTC); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.Wrapf(ErrConversion, "unsupported date %q", value)
}

// FromEpochSeconds переводит секунды Unix в время UTC с точностью до микросекунд
func FromEpochSeconds(seconds float64) time.Time {
	whole := math.Floor(seconds)
	micros := math.Round((seconds - whole) * 1e6)
	return time.Unix(int64(whole), int64(micros)*int64(time.Microsecond)).UTC()
}

// FrameGroupParser преобразует данные одного входного файла в FrameGroup
type FrameGroupParser struct {
	InputFilePath     string
	RecordedStartDate time.Time
}

// NewFrameGroupParser создает парсер для файла
func NewFrameGroupParser(inputFilePath string, recordedStartDate time.Time) *FrameGroupParser {
	return &FrameGroupParser{
		InputFilePath:     inputFilePath,
		RecordedStartDate: recordedStartDate,
	}
}

// Convert разбирает объект data (номер кадра -> {occurrence, detections}).
// Номера кадров сдвигаются на frameOffset, кадры сортируются по (времени, номеру).
func (p *FrameGroupParser) Convert(data gjson.Result, frameOffset int) (FrameGroup, error) {
	if !data.IsObject() {
		return FrameGroup{}, errors.Wrapf(ErrConversion, "%s: data is not an object", p.InputFilePath)
	}

	detectionParser := DetectionParser{}
	var frames []Frame
	var parseErr error
	data.ForEach(func(key, value gjson.Result) bool {
		number, err := strconv.Atoi(strings.TrimSpace(key.String()))
		if err != nil {
			parseErr = errors.Wrapf(ErrConversion, "frame key %q is not an integer", key.String())
			return false
		}

		occurrenceValue := value.Get(KeyOccurrence)
		if !occurrenceValue.Exists() {
			parseErr = errors.Wrapf(ErrConversion, "frame %d: field %q is missing", number, KeyOccurrence)
			return false
		}
		occurrence, err := ParseDateTime(occurrenceValue, KeyOccurrence)
		if err != nil {
			parseErr = errors.WithMessagef(err, "frame %d", number)
			return false
		}

		rawDetections := value.Get(KeyDetections)
		if !rawDetections.IsArray() {
			parseErr = errors.Wrapf(ErrConversion, "frame %d: field %q is missing or not a list", number, KeyDetections)
			return false
		}
		detections, err := detectionParser.Convert(rawDetections.Array())
		if err != nil {
			parseErr = errors.WithMessagef(err, "frame %d", number)
			return false
		}

		frames = append(frames, Frame{
			Number:        number + frameOffset,
			Occurrence:    occurrence,
			InputFilePath: p.InputFilePath,
			Detections:    detections,
		})
		return true
	})
	if parseErr != nil {
		return FrameGroup{}, errors.WithMessage(parseErr, p.InputFilePath)
	}

	// Порядок кадров во входных данных не гарантирован
	sort.SliceStable(frames, func(i, j int) bool {
		if !frames[i].Occurrence.Equal(frames[j].Occurrence) {
			return frames[i].Occurrence.Before(frames[j].Occurrence)
		}
		return frames[i].Number < frames[j].Number
	})

	return FrameGroup{Frames: frames, OrderKey: p.OrderKey()}, nil
}

// OrderKey ключ группировки - родительская директория файла
func (p *FrameGroupParser) OrderKey() string {
	return filepath.ToSlash(filepath.Dir(p.InputFilePath))
}
