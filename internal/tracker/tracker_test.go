package tracker

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-tracker-go/internal/frame"
	"vehicle-tracker-go/pkg/models"
)

func det(label string, conf, x, y float64) frame.Detection {
	return frame.Detection{Label: label, Conf: conf, X: x, Y: y, W: 10, H: 10}
}

func newTestTracker(t *testing.T, cfg Config) *Tracker {
	t.Helper()
	logger, _ := test.NewNullLogger()
	tr, err := New(cfg, logger)
	require.NoError(t, err)
	return tr
}

func sequence(frames ...[]frame.Detection) []Input {
	inputs := make([]Input, len(frames))
	for i, dets := range frames {
		inputs[i] = Input{Number: i + 1, Detections: dets}
	}
	return inputs
}

var scenarioConfig = Config{SigmaL: 0.1, SigmaH: 0.5, SigmaIoU: 0.3, TMin: 2, TMissMax: 1}

func TestTrackSingleObjectAcrossThreeFrames(t *testing.T) {
	tr := newTestTracker(t, scenarioConfig)
	d := det("car", 0.9, 50, 50)

	result, err := tr.Track(sequence([]frame.Detection{d}, []frame.Detection{d}, []frame.Detection{d}))
	require.NoError(t, err)

	require.Len(t, result.Features.Features, 1)
	feature := result.Features.Features[0]
	assert.Equal(t, "FeatureCollection", result.Features.Type)
	assert.Equal(t, "LineString", feature.Geometry.Type)
	assert.Equal(t, 1, feature.Properties.ID)
	assert.Equal(t, 1, feature.Properties.StartFrame)
	assert.Equal(t, 0.9, feature.Properties.MaxConf)
	assert.Equal(t, "car", feature.Properties.MaxClass)
	assert.Equal(t, [][2]float64{{50, 50}, {50, 50}, {50, 50}}, feature.Geometry.Coordinates)
	assert.Equal(t, []int{1}, result.FinishedIDs)

	require.Len(t, result.Frames, 3)
	for i, f := range result.Frames {
		require.Len(t, f.Detections, 1)
		a := f.Detections[0]
		assert.Equal(t, i+1, f.Number)
		assert.Equal(t, 1, a.TrackID)
		assert.Equal(t, i == 0, a.First)
		assert.True(t, a.Finished)
	}
}

func TestTrackSingleFrameDetectionIsNotFinalized(t *testing.T) {
	cfg := scenarioConfig
	cfg.TMissMax = 0

	tr := newTestTracker(t, cfg)
	result, err := tr.Track(sequence(
		[]frame.Detection{det("car", 0.9, 50, 50)},
		nil,
		nil,
	))
	require.NoError(t, err)

	assert.Empty(t, result.Features.Features)
	assert.Empty(t, result.FinishedIDs)
	assert.Equal(t, 1, result.Frames[0].Detections[0].TrackID)
	assert.True(t, result.Frames[0].Detections[0].First)
	assert.False(t, result.Frames[0].Detections[0].Finished)
}

func TestTrackZeroLengthTrackWithZeroTMin(t *testing.T) {
	cfg := scenarioConfig
	cfg.TMissMax = 0
	cfg.TMin = 0

	tr := newTestTracker(t, cfg)
	result, err := tr.Track(sequence([]frame.Detection{det("car", 0.9, 50, 50)}, nil))
	require.NoError(t, err)

	// span 0 >= t_min 0, поэтому трек выдается
	assert.Equal(t, []int{1}, result.FinishedIDs)
}

func TestTrackFinalizationBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		conf     float64
		frames   int
		finished bool
	}{
		{name: "exactly at both thresholds", conf: 0.5, frames: 3, finished: true},
		{name: "confidence below sigma_h", conf: 0.49, frames: 3, finished: false},
		{name: "span below t_min", conf: 0.5, frames: 2, finished: false},
		{name: "above both", conf: 0.95, frames: 6, finished: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// кадры с детекцией, затем пустые кадры, чтобы трек завершился до конца данных
			var frames [][]frame.Detection
			for i := 0; i < tt.frames; i++ {
				frames = append(frames, []frame.Detection{det("car", tt.conf, 50, 50)})
			}
			frames = append(frames, nil, nil, nil)

			tr := newTestTracker(t, scenarioConfig)
			result, err := tr.Track(sequence(frames...))
			require.NoError(t, err)

			if tt.finished {
				assert.Equal(t, []int{1}, result.FinishedIDs)
				require.Len(t, result.Features.Features, 1)
				assert.Equal(t, tt.conf, result.Features.Features[0].Properties.MaxConf)
			} else {
				assert.Empty(t, result.FinishedIDs)
				assert.Empty(t, result.Features.Features)
			}
		})
	}
}

func TestTrackIgnoresDetectionsBelowSigmaL(t *testing.T) {
	tr := newTestTracker(t, scenarioConfig)

	weak := det("car", 0.05, 50, 50)
	result, err := tr.Track(sequence(
		[]frame.Detection{det("car", 0.9, 50, 50)},
		[]frame.Detection{weak, det("car", 0.9, 500, 500)},
		[]frame.Detection{weak},
	))
	require.NoError(t, err)

	second := result.Frames[1].Detections
	require.Len(t, second, 2)
	assert.Equal(t, 0, second[0].TrackID, "weak detection must never be matched")
	assert.False(t, second[0].First)
	assert.Equal(t, weak, second[0].Detection)
	assert.Equal(t, 2, second[1].TrackID)
	assert.True(t, second[1].First)

	third := result.Frames[2].Detections
	assert.Equal(t, 0, third[0].TrackID)
}

func TestTrackSigmaIoUThreshold(t *testing.T) {
	cfg := scenarioConfig
	cfg.SigmaIoU = 0.5

	tr := newTestTracker(t, cfg)
	// сдвиг на 5 пикселей дает IoU 1/3 < 0.5, поэтому создается новый трек
	result, err := tr.Track(sequence(
		[]frame.Detection{det("car", 0.9, 50, 50)},
		[]frame.Detection{det("car", 0.9, 55, 50)},
	))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Frames[1].Detections[0].TrackID)
	assert.True(t, result.Frames[1].Detections[0].First)
}

func TestTrackFirstTrackWinsTie(t *testing.T) {
	tr := newTestTracker(t, scenarioConfig)

	result, err := tr.Track(sequence(
		[]frame.Detection{det("car", 0.9, 50, 50), det("car", 0.9, 50, 50)},
		[]frame.Detection{det("car", 0.9, 50, 50)},
	))
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, []int{result.Frames[0].Detections[0].TrackID, result.Frames[0].Detections[1].TrackID})
	assert.Equal(t, 1, result.Frames[1].Detections[0].TrackID)
}

func TestTrackPicksHighestIoUDetection(t *testing.T) {
	tr := newTestTracker(t, scenarioConfig)

	result, err := tr.Track(sequence(
		[]frame.Detection{det("car", 0.9, 50, 50)},
		[]frame.Detection{det("car", 0.9, 54, 50), det("car", 0.9, 51, 50)},
	))
	require.NoError(t, err)

	second := result.Frames[1].Detections
	assert.Equal(t, 2, second[0].TrackID)
	assert.Equal(t, 1, second[1].TrackID)
	assert.False(t, second[1].First)
}

func TestTrackSurvivesMissesUpToTMissMax(t *testing.T) {
	cfg := scenarioConfig
	cfg.TMissMax = 2

	tr := newTestTracker(t, cfg)
	d := det("car", 0.9, 50, 50)
	result, err := tr.Track(sequence(
		[]frame.Detection{d},
		nil,
		nil,
		[]frame.Detection{d},
	))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Frames[3].Detections[0].TrackID)
	require.Len(t, result.Features.Features, 1)
	assert.Equal(t, [][2]float64{{50, 50}, {50, 50}}, result.Features.Features[0].Geometry.Coordinates)
}

func TestTrackFinishedFlagsAndOrder(t *testing.T) {
	tr := newTestTracker(t, scenarioConfig)
	a := det("car", 0.9, 50, 50)
	b := det("truck", 0.9, 500, 500)

	result, err := tr.Track(sequence(
		[]frame.Detection{a},
		[]frame.Detection{a},
		[]frame.Detection{a, b},
		[]frame.Detection{b},
		[]frame.Detection{b},
	))
	require.NoError(t, err)

	// трек 1 завершается по пропускам в кадре 5, трек 2 - в конце данных
	assert.Equal(t, []int{1, 2}, result.FinishedIDs)
	assert.Equal(t, 3, result.Features.Features[1].Properties.StartFrame)
	assert.Equal(t, "truck", result.Features.Features[1].Properties.MaxClass)
	for _, f := range result.Frames {
		for _, a := range f.Detections {
			assert.True(t, a.Finished, "frame %d track %d", f.Number, a.TrackID)
		}
	}
}

func TestTrackDominantClass(t *testing.T) {
	tr := newTestTracker(t, scenarioConfig)
	result, err := tr.Track(sequence(
		[]frame.Detection{det("truck", 0.9, 50, 50)},
		[]frame.Detection{det("car", 0.6, 50, 50)},
		[]frame.Detection{det("car", 0.6, 50, 50)},
		[]frame.Detection{det("bus", 0.6, 50, 50)},
	))
	require.NoError(t, err)

	require.Len(t, result.Features.Features, 1)
	assert.Equal(t, "car", result.Features.Features[0].Properties.MaxClass)
	assert.Equal(t, 0.9, result.Features.Features[0].Properties.MaxConf)
}

func TestDominantClassTieBreak(t *testing.T) {
	tr := track{classes: []string{"truck", "car", "truck", "car"}}
	assert.Equal(t, "car", tr.dominantClass())
}

func TestTrackEmptyInput(t *testing.T) {
	tr := newTestTracker(t, DefaultConfig())
	result, err := tr.Track(nil)
	require.NoError(t, err)
	assert.Empty(t, result.Frames)
	assert.Empty(t, result.Features.Features)
	assert.Empty(t, result.FinishedIDs)
}

func TestTrackRejectsDuplicateFrames(t *testing.T) {
	tr := newTestTracker(t, DefaultConfig())
	_, err := tr.Track([]Input{{Number: 1}, {Number: 2}, {Number: 1}})
	assert.True(t, errors.Is(err, ErrDuplicateFrame))
}

func TestTrackKeepsInputOrderForUnorderedNumbers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TMin = 1
	tr := newTestTracker(t, cfg)

	result, err := tr.Track([]Input{
		{Number: 2, Detections: []frame.Detection{det("car", 0.9, 10, 10)}},
		{Number: 1, Detections: []frame.Detection{det("car", 0.9, 11, 10)}},
		{Number: 3, Detections: []frame.Detection{det("car", 0.9, 12, 10)}},
	})
	require.NoError(t, err)

	require.Len(t, result.Frames, 3)
	assert.Equal(t, []int{2, 1, 3}, []int{result.Frames[0].Number, result.Frames[1].Number, result.Frames[2].Number})
	assert.Equal(t, []int{1}, result.FinishedIDs)
	require.Len(t, result.Features.Features, 1)
	assert.Equal(t, 2, result.Features.Features[0].Properties.StartFrame)
	for _, f := range result.Frames {
		require.Len(t, f.Detections, 1)
		assert.Equal(t, 1, f.Detections[0].TrackID)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	logger, _ := test.NewNullLogger()
	for _, cfg := range []Config{
		{SigmaL: -0.1},
		{SigmaH: 1.5},
		{SigmaIoU: 2},
		{TMin: -1},
		{TMissMax: -1},
	} {
		_, err := New(cfg, logger)
		assert.True(t, errors.Is(err, ErrInvalidConfig), "%+v", cfg)
	}
}

func TestInputsFromGroup(t *testing.T) {
	group := frame.FrameGroup{Frames: []frame.Frame{
		{Number: 4, Detections: []frame.Detection{det("car", 0.5, 1, 1)}},
		{Number: 5},
	}}
	inputs := InputsFromGroup(group)
	require.Len(t, inputs, 2)
	assert.Equal(t, 4, inputs[0].Number)
	assert.Len(t, inputs[0].Detections, 1)
	assert.Equal(t, 5, inputs[1].Number)
}

func TestConfigWithOverrides(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, cfg, cfg.WithOverrides(models.TrackerOverrides{}))

	sigmaH, tMin := 0.5, 2
	got := cfg.WithOverrides(models.TrackerOverrides{SigmaH: &sigmaH, TMin: &tMin})
	assert.Equal(t, Config{SigmaL: 0.27, SigmaH: 0.5, SigmaIoU: 0.38, TMin: 2, TMissMax: 51}, got)
	assert.Equal(t, 0.42, cfg.SigmaH)
	assert.NoError(t, got.Validate())
}
