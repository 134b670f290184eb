package preprocess

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"vehicle-tracker-go/internal/frame"
	"vehicle-tracker-go/internal/otfile"
)

// RangeResult объединенные диапазоны файлов и их метаданные
type RangeResult struct {
	FrameRanges []frame.FrameRange
	Metadata    frame.MetadataByFile
}

// RangeGrouper группирует файлы в диапазоны только по метаданным, не читая кадры
type RangeGrouper struct {
	timeWithoutFrames time.Duration
	reader            Reader
	logger            *logrus.Logger
}

// NewRangeGrouper создает RangeGrouper
func NewRangeGrouper(timeWithoutFrames time.Duration, reader Reader, logger *logrus.Logger) *RangeGrouper {
	return &RangeGrouper{
		timeWithoutFrames: timeWithoutFrames,
		reader:            reader,
		logger:            logger,
	}
}

// Run читает метаданные файлов и объединяет их в диапазоны
func (g *RangeGrouper) Run(files []string) (*RangeResult, error) {
	metadata := make(frame.MetadataByFile, len(files))
	for _, file := range files {
		if _, ok := metadata[file]; ok {
			continue
		}
		raw, err := g.reader.ReadMetadata(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read metadata of %s: %w", file, err)
		}
		metadata[file] = raw
	}

	ranges, err := g.GroupFiles(metadata)
	if err != nil {
		return nil, err
	}
	return &RangeResult{FrameRanges: ranges, Metadata: metadata}, nil
}

// GroupFiles строит диапазон для каждого файла и объединяет соседние.
// Диапазон файла начинается с recorded_start_date и длится expected_duration.
func (g *RangeGrouper) GroupFiles(metadata frame.MetadataByFile) ([]frame.FrameRange, error) {
	ranges := make([]frame.FrameRange, 0, len(metadata))
	for file, raw := range metadata {
		start, err := ExtractStartDate(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse metadata of %s: %w", file, err)
		}
		duration, err := ExtractExpectedDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse metadata of %s: %w", file, err)
		}
		ranges = append(ranges, frame.FrameRange{
			Files: []string{file},
			Start: start,
			End:   start.Add(duration),
		})
	}
	if len(ranges) == 0 {
		return []frame.FrameRange{}, nil
	}

	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].Start.Equal(ranges[j].Start) {
			return ranges[i].Files[0] < ranges[j].Files[0]
		}
		return ranges[i].Start.Before(ranges[j].Start)
	})

	var merged []frame.FrameRange
	last := ranges[0]
	for _, current := range ranges[1:] {
		if current.Start.Sub(last.End) <= g.timeWithoutFrames {
			last = last.Merge(current)
			continue
		}
		merged = append(merged, last)
		last = current
	}
	merged = append(merged, last)

	g.logger.Infof("Сгруппировано %d файлов в %d диапазонов", len(ranges), len(merged))
	return merged, nil
}

// CreateFrameGroupFrom читает файлы диапазона и собирает из них одну группу кадров.
// Если файлы диапазона не складываются в одну группу, возвращается ErrRangeSplit.
func (g *RangeGrouper) CreateFrameGroupFrom(r frame.FrameRange, frameOffset int) (frame.FrameGroup, frame.MetadataByFile, error) {
	preprocessor := NewPreprocessor(g.timeWithoutFrames, g.reader, g.logger)

	recordings := make([]*otfile.Recording, 0, len(r.Files))
	for _, file := range r.Files {
		recording, err := g.reader.ReadRecording(file)
		if err != nil {
			return frame.FrameGroup{}, nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		recordings = append(recordings, recording)
	}

	result, err := preprocessor.Process(recordings, frameOffset)
	if err != nil {
		return frame.FrameGroup{}, nil, err
	}
	if len(result.FrameGroups) != 1 {
		return frame.FrameGroup{}, nil, fmt.Errorf("%w: range %s gave %d groups", ErrRangeSplit, r, len(result.FrameGroups))
	}
	return result.FrameGroups[0], result.Metadata, nil
}
