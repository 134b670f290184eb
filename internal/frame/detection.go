package frame

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"vehicle-tracker-go/internal/geo"
)

// ErrConversion ошибка преобразования входных данных
var ErrConversion = errors.New("conversion error")

// Detection одна классифицированная детекция в кадре
type Detection struct {
	Label string  `json:"class"`
	Conf  float64 `json:"confidence"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
}

// Box возвращает прямоугольник детекции по углам
func (d Detection) Box() geo.Box {
	return geo.CornerBox(d.X, d.Y, d.W, d.H)
}

// Center возвращает центр детекции
func (d Detection) Center() geo.Point {
	return geo.Point{X: d.X, Y: d.Y}
}

// DetectionParser преобразует сырые записи детекций в Detection
type DetectionParser struct{}

// Convert преобразует список сырых детекций. Числовые поля могут быть заданы числом или строкой.
func (DetectionParser) Convert(raw []gjson.Result) ([]Detection, error) {
	detections := make([]Detection, 0, len(raw))
	for i, item := range raw {
		detection, err := convertDetection(item)
		if err != nil {
			return nil, errors.WithMessagef(err, "detection %d", i)
		}
		detections = append(detections, detection)
	}
	return detections, nil
}

func convertDetection(item gjson.Result) (Detection, error) {
	if !item.IsObject() {
		return Detection{}, errors.Wrap(ErrConversion, "detection is not an object")
	}

	label, err := stringField(item, KeyClass)
	if err != nil {
		return Detection{}, err
	}

	var values [5]float64
	for i, key := range []string{KeyConfidence, KeyX, KeyY, KeyW, KeyH} {
		values[i], err = numberField(item, key)
		if err != nil {
			return Detection{}, err
		}
	}

	return Detection{
		Label: label,
		Conf:  values[0],
		X:     values[1],
		Y:     values[2],
		W:     values[3],
		H:     values[4],
	}, nil
}

func stringField(item gjson.Result, key string) (string, error) {
	value := item.Get(key)
	switch value.Type {
	case gjson.String, gjson.Number:
		return value.String(), nil
	case gjson.Null:
		if !value.Exists() {
			return "", errors.Wrapf(ErrConversion, "field %q is missing", key)
		}
	}
	return "", errors.Wrapf(ErrConversion, "field %q is not a string: %s", key, value.Raw)
}

// numberField читает числовое поле, допуская строковое представление числа
func numberField(item gjson.Result, key string) (float64, error) {
	value := item.Get(key)
	if !value.Exists() {
		return 0, errors.Wrapf(ErrConversion, "field %q is missing", key)
	}
	return toNumber(value, key)
}

func toNumber(value gjson.Result, key string) (float64, error) {
	switch value.Type {
	case gjson.Number:
		return value.Num, nil
	case gjson.String:
		number, err := strconv.ParseFloat(strings.TrimSpace(value.Str), 64)
		if err != nil {
			return 0, errors.Wrapf(ErrConversion, "field %q is not numeric: %q", key, value.Str)
		}
		return number, nil
	}
	return 0, errors.Wrapf(ErrConversion, "field %q is not numeric: %s", key, value.Raw)
}
