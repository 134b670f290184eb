package tracker

import (
	"sort"

	"vehicle-tracker-go/internal/frame"
	"vehicle-tracker-go/internal/geo"
	"vehicle-tracker-go/pkg/models"
)

type status int

const (
	statusActive status = iota
	statusFinished
	statusDropped
)

// track состояние одного трека; хранится в пуле трекера и наружу не выдается
type track struct {
	id      int
	frames  []int
	boxes   []geo.Box
	centers []geo.Point
	confs   []float64
	classes []string
	maxConf float64
	age     int
	status  status
}

func newTrack(id, frameNumber int, det frame.Detection) track {
	t := track{id: id, status: statusActive}
	t.add(frameNumber, det)
	return t
}

// add добавляет сопоставленную детекцию и сбрасывает счетчик пропусков
func (t *track) add(frameNumber int, det frame.Detection) {
	t.frames = append(t.frames, frameNumber)
	t.boxes = append(t.boxes, det.Box())
	t.centers = append(t.centers, det.Center())
	t.confs = append(t.confs, det.Conf)
	t.classes = append(t.classes, det.Label)
	if len(t.confs) == 1 || det.Conf > t.maxConf {
		t.maxConf = det.Conf
	}
	t.age = 0
}

func (t *track) lastBox() geo.Box {
	return t.boxes[len(t.boxes)-1]
}

func (t *track) span() int {
	return t.frames[len(t.frames)-1] - t.frames[0]
}

// qualifies проверяет условия завершения: пиковая уверенность и длина трека
func (t *track) qualifies(cfg Config) bool {
	return t.maxConf >= cfg.SigmaH && t.span() >= cfg.TMin
}

// release освобождает историю отброшенного трека
func (t *track) release() {
	t.boxes = nil
	t.centers = nil
	t.confs = nil
	t.classes = nil
}

// dominantClass наиболее частый класс; при равенстве - лексикографически меньший
func (t *track) dominantClass() string {
	counts := make(map[string]int, len(t.classes))
	for _, c := range t.classes {
		counts[c]++
	}

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	best := ""
	bestCount := 0
	for _, label := range labels {
		if counts[label] > bestCount {
			best = label
			bestCount = counts[label]
		}
	}
	return best
}

func (t *track) feature() models.Feature {
	coordinates := make([][2]float64, len(t.centers))
	for i, c := range t.centers {
		coordinates[i] = [2]float64{c.X, c.Y}
	}
	return models.NewTrackFeature(coordinates, models.TrackProperties{
		MaxConf:    t.maxConf,
		ID:         t.id,
		StartFrame: t.frames[0],
		MaxClass:   t.dominantClass(),
	})
}
