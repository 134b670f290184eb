package tracker

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"vehicle-tracker-go/internal/frame"
	"vehicle-tracker-go/internal/geo"
	"vehicle-tracker-go/pkg/models"
)

// Input детекции одного кадра
type Input struct {
	Number     int
	Detections []frame.Detection
}

// Annotation детекция кадра с результатом сопоставления.
// TrackID равен 0 для детекций ниже порога sigma_l.
type Annotation struct {
	Detection frame.Detection
	TrackID   int
	First     bool
	Finished  bool
}

// TrackedFrame размеченные детекции кадра в исходном порядке
type TrackedFrame struct {
	Number     int
	Detections []Annotation
}

// Result результат трекинга
type Result struct {
	Frames      []TrackedFrame
	Features    models.FeatureCollection
	FinishedIDs []int
}

// Tracker жадный IoU трекер
type Tracker struct {
	cfg    Config
	logger *logrus.Logger
}

// New создает трекер с проверенными параметрами
func New(cfg Config, logger *logrus.Logger) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Tracker{cfg: cfg, logger: logger}, nil
}

// Config возвращает параметры трекера
func (tr *Tracker) Config() Config {
	return tr.cfg
}

// InputsFromGroup преобразует кадры группы во входные данные трекера
func InputsFromGroup(group frame.FrameGroup) []Input {
	inputs := make([]Input, len(group.Frames))
	for i, f := range group.Frames {
		inputs[i] = Input{Number: f.Number, Detections: f.Detections}
	}
	return inputs
}

// run состояние одного прогона трекера
type run struct {
	cfg     Config
	pool    []track
	active  []int
	nextID  int
	result  *Result
	emitted map[int]bool
	dropped int
}

// Track последовательно обрабатывает кадры в переданном порядке (по времени кадра).
// Номера кадров должны быть уникальными, но не обязаны возрастать.
func (tr *Tracker) Track(frames []Input) (*Result, error) {
	seen := make(map[int]bool, len(frames))
	for _, input := range frames {
		if seen[input.Number] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateFrame, input.Number)
		}
		seen[input.Number] = true
	}

	r := &run{
		cfg: tr.cfg,
		result: &Result{
			Frames:      make([]TrackedFrame, 0, len(frames)),
			Features:    models.NewFeatureCollection(),
			FinishedIDs: []int{},
		},
		emitted: make(map[int]bool),
	}

	for _, input := range frames {
		r.step(input)
	}

	// Завершаем оставшиеся активные треки
	for _, idx := range r.active {
		r.finish(idx)
	}
	r.active = nil
	r.markFinished()

	tr.logger.WithFields(logrus.Fields{
		"frames":   len(frames),
		"tracks":   r.nextID,
		"finished": len(r.result.FinishedIDs),
		"dropped":  r.dropped,
	}).Debug("Трекинг завершен")

	return r.result, nil
}

// step сопоставляет детекции одного кадра с активными треками
func (r *run) step(input Input) {
	annotations := make([]Annotation, len(input.Detections))
	boxes := make([]geo.Box, len(input.Detections))
	eligible := make([]int, 0, len(input.Detections))
	for i, det := range input.Detections {
		annotations[i] = Annotation{Detection: det}
		boxes[i] = det.Box()
		if det.Conf >= r.cfg.SigmaL {
			eligible = append(eligible, i)
		}
	}

	var updated, saved []int
	for _, idx := range r.active {
		t := &r.pool[idx]

		if pos, ok := r.bestMatch(t, eligible, boxes); ok {
			detIdx := eligible[pos]
			t.add(input.Number, input.Detections[detIdx])
			annotations[detIdx].TrackID = t.id
			eligible = append(eligible[:pos], eligible[pos+1:]...)
			updated = append(updated, idx)
			continue
		}

		if t.age < r.cfg.TMissMax {
			t.age++
			saved = append(saved, idx)
			continue
		}
		r.finish(idx)
	}

	var created []int
	for _, detIdx := range eligible {
		r.nextID++
		r.pool = append(r.pool, newTrack(r.nextID, input.Number, input.Detections[detIdx]))
		annotations[detIdx].TrackID = r.nextID
		annotations[detIdx].First = true
		created = append(created, len(r.pool)-1)
	}

	active := make([]int, 0, len(updated)+len(saved)+len(created))
	active = append(active, updated...)
	active = append(active, saved...)
	r.active = append(active, created...)

	r.result.Frames = append(r.result.Frames, TrackedFrame{Number: input.Number, Detections: annotations})
}

// bestMatch ищет первую детекцию с максимальным IoU к последнему прямоугольнику трека.
// Возвращает позицию в eligible, если IoU не меньше sigma_iou.
func (r *run) bestMatch(t *track, eligible []int, boxes []geo.Box) (int, bool) {
	if len(eligible) == 0 {
		return 0, false
	}

	last := t.lastBox()
	bestPos := 0
	bestIoU := geo.IoU(last, boxes[eligible[0]])
	for pos := 1; pos < len(eligible); pos++ {
		if iou := geo.IoU(last, boxes[eligible[pos]]); iou > bestIoU {
			bestPos = pos
			bestIoU = iou
		}
	}
	return bestPos, bestIoU >= r.cfg.SigmaIoU
}

// finish убирает трек из активных: выдает его, если он проходит пороги, иначе отбрасывает
func (r *run) finish(idx int) {
	t := &r.pool[idx]
	if !t.qualifies(r.cfg) {
		t.status = statusDropped
		t.release()
		r.dropped++
		return
	}

	t.status = statusFinished
	r.emitted[t.id] = true
	r.result.FinishedIDs = append(r.result.FinishedIDs, t.id)
	r.result.Features.Features = append(r.result.Features.Features, t.feature())
}

// markFinished отмечает детекции выданных треков
func (r *run) markFinished() {
	for i := range r.result.Frames {
		detections := r.result.Frames[i].Detections
		for j := range detections {
			if detections[j].TrackID != 0 && r.emitted[detections[j].TrackID] {
				detections[j].Finished = true
			}
		}
	}
}
