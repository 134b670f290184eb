package preprocess

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"vehicle-tracker-go/internal/frame"
)

func videoMetadata(metadata json.RawMessage) (gjson.Result, error) {
	video := gjson.GetBytes(metadata, frame.KeyVideo)
	if !video.IsObject() {
		return gjson.Result{}, errors.Wrapf(frame.ErrConversion, "metadata: %q is missing", frame.KeyVideo)
	}
	return video, nil
}

// ExtractStartDate возвращает время начала записи или MissingStartDate, если оно не указано или равно null
func ExtractStartDate(metadata json.RawMessage) (time.Time, error) {
	video, err := videoMetadata(metadata)
	if err != nil {
		return time.Time{}, err
	}

	value := video.Get(frame.KeyRecordedStartDate)
	if value.Type == gjson.Null {
		return frame.MissingStartDate, nil
	}
	start, err := frame.ParseDateTime(value, frame.KeyRecordedStartDate)
	if err != nil {
		return time.Time{}, errors.WithMessage(err, "metadata")
	}
	return start, nil
}

// ExtractExpectedDuration возвращает ожидаемую длительность записи в целых секундах
// или MissingExpectedDuration, если она не указана
func ExtractExpectedDuration(metadata json.RawMessage) (time.Duration, error) {
	video, err := videoMetadata(metadata)
	if err != nil {
		return 0, err
	}

	value := video.Get(frame.KeyExpectedDuration)
	if value.Type == gjson.Null {
		return frame.MissingExpectedDuration, nil
	}

	var seconds float64
	switch value.Type {
	case gjson.Number:
		seconds = value.Num
	case gjson.String:
		seconds, err = strconv.ParseFloat(strings.TrimSpace(value.Str), 64)
		if err != nil {
			return 0, errors.Wrapf(frame.ErrConversion, "metadata: %q is not numeric: %q", frame.KeyExpectedDuration, value.Str)
		}
	default:
		return 0, errors.Wrapf(frame.ErrConversion, "metadata: %q is not numeric: %s", frame.KeyExpectedDuration, value.Raw)
	}
	return time.Duration(int64(seconds)) * time.Second, nil
}
