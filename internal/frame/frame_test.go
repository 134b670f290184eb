package frame

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

var (
	baseTime   = time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)
	baseSecond = time.Second
)

func makeGroup(file string, start time.Time, count int) FrameGroup {
	frames := make([]Frame, count)
	for i := range frames {
		frames[i] = Frame{
			Number:        i + 1,
			Occurrence:    start.Add(time.Duration(i) * time.Second),
			InputFilePath: file,
			Detections:    []Detection{{Label: "car", Conf: 0.9, X: 10, Y: 10, W: 4, H: 4}},
		}
	}
	return FrameGroup{Frames: frames, OrderKey: "videos"}
}

func frameNumbers(g FrameGroup) []int {
	numbers := make([]int, len(g.Frames))
	for i, f := range g.Frames {
		numbers[i] = f.Number
	}
	return numbers
}

func TestDeriveFrameNumber(t *testing.T) {
	original := Frame{Number: 3, Occurrence: baseTime, InputFilePath: "a.otdet"}
	derived := original.DeriveFrameNumber(42)

	assert.Equal(t, 42, derived.Number)
	assert.Equal(t, 3, original.Number)
	assert.Equal(t, original.Occurrence, derived.Occurrence)
}

func TestFrameGroupMergeRenumbersContiguously(t *testing.T) {
	a := makeGroup("a.otdet", baseTime, 3)
	b := makeGroup("b.otdet", baseTime.Add(10*time.Second), 4)

	merged := a.Merge(b)

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, frameNumbers(merged))
	assert.Equal(t, a.StartDate(), merged.StartDate())
	assert.Equal(t, b.EndDate(), merged.EndDate())
	assert.Equal(t, []string{"a.otdet", "b.otdet"}, merged.Files())

	// исходные группы не изменяются
	assert.Equal(t, []int{1, 2, 3}, frameNumbers(a))
	assert.Equal(t, []int{1, 2, 3, 4}, frameNumbers(b))
}

func TestFrameGroupMergeOrdersByStartDate(t *testing.T) {
	early := makeGroup("early.otdet", baseTime, 2)
	late := makeGroup("late.otdet", baseTime.Add(time.Minute), 2)

	merged := late.Merge(early)

	require.Len(t, merged.Frames, 4)
	assert.Equal(t, "early.otdet", merged.Frames[0].InputFilePath)
	assert.Equal(t, "late.otdet", merged.Frames[3].InputFilePath)
	assert.Equal(t, []int{1, 2, 3, 4}, frameNumbers(merged))
}

func TestFrameGroupMergeContinuesFromLargestNumber(t *testing.T) {
	a := makeGroup("a.otdet", baseTime, 3)
	a.Frames[0].Number, a.Frames[1].Number = 3, 1
	a.Frames[2].Number = 2
	b := makeGroup("b.otdet", baseTime.Add(10*time.Second), 2)

	merged := a.Merge(b)

	assert.Equal(t, []int{3, 1, 2, 4, 5}, frameNumbers(merged))
}

func TestFrameGroupMergeFoldIsConsistent(t *testing.T) {
	a := makeGroup("a.otdet", baseTime, 5)
	b := makeGroup("b.otdet", baseTime.Add(6*time.Second), 3)
	c := makeGroup("c.otdet", baseTime.Add(10*time.Second), 7)

	left := a.Merge(b).Merge(c)
	right := a.Merge(b.Merge(c))

	assert.Equal(t, left.Len(), right.Len())
	assert.Equal(t, 15, left.Len())
	assert.Equal(t, left.EndDate(), right.EndDate())
	assert.Equal(t, frameNumbers(left), frameNumbers(right))
}

func TestFrameGroupEmpty(t *testing.T) {
	var empty FrameGroup
	assert.True(t, empty.StartDate().IsZero())
	assert.True(t, empty.EndDate().IsZero())

	b := makeGroup("b.otdet", baseTime, 2)
	merged := empty.Merge(b)
	assert.Equal(t, []int{1, 2}, frameNumbers(merged))
}

func TestFrameRangeMerge(t *testing.T) {
	first := FrameRange{Files: []string{"a"}, Start: baseTime, End: baseTime.Add(15 * time.Minute)}
	second := FrameRange{Files: []string{"b"}, Start: baseTime.Add(15 * time.Minute), End: baseTime.Add(30 * time.Minute)}

	for _, merged := range []FrameRange{first.Merge(second), second.Merge(first)} {
		assert.Equal(t, []string{"a", "b"}, merged.Files)
		assert.Equal(t, first.Start, merged.Start)
		assert.Equal(t, second.End, merged.End)
	}
	assert.Equal(t, []string{"a"}, first.Files)
}

func TestOutputFiles(t *testing.T) {
	merged := makeGroup("/data/cam/a.otdet", baseTime, 1).Merge(makeGroup("/data/cam/b.otdet", baseTime.Add(time.Second), 1))
	assert.Equal(t, []string{"/data/cam/a.ottrk", "/data/cam/b.ottrk"}, merged.OutputFiles(".ottrk"))
	assert.Equal(t, "/data/cam/a.ottrk", merged.Frames[0].OutputFile(".ottrk"))
}

func TestUpdateMetadata(t *testing.T) {
	group := makeGroup("a.otdet", baseTime, 3)
	metadata := MetadataByFile{
		"a.otdet": json.RawMessage(`{"video":{"width":800,"height":600}}`),
	}
	tracker := map[string]interface{}{"name": "IOU", "sigma_l": 0.27}

	updated, err := group.UpdateMetadata(metadata, tracker)
	require.NoError(t, err)

	doc := gjson.ParseBytes(updated["a.otdet"])
	assert.Equal(t, int64(800), doc.Get("video.width").Int())
	assert.Equal(t, "1.1", doc.Get(KeyTrackFormatVersion).String())
	assert.Equal(t, "IOU", doc.Get("tracking.tracker.name").String())
	assert.InDelta(t, EpochSeconds(baseTime), doc.Get("tracking.first_tracked_video_start").Float(), 1e-6)
	assert.InDelta(t, EpochSeconds(baseTime.Add(2*time.Second)), doc.Get("tracking.last_tracked_video_end").Float(), 1e-6)

	// исходные метаданные не изменяются
	assert.False(t, gjson.GetBytes(metadata["a.otdet"], KeyTracking).Exists())
}

func TestFrameRangeUpdateMetadata(t *testing.T) {
	r := FrameRange{Files: []string{"a"}, Start: baseTime, End: baseTime.Add(time.Hour)}
	updated, err := r.UpdateMetadata(MetadataByFile{"a": nil}, nil)
	require.NoError(t, err)
	assert.InDelta(t, EpochSeconds(baseTime.Add(time.Hour)), gjson.GetBytes(updated["a"], "tracking.last_tracked_video_end").Float(), 1e-6)
}
