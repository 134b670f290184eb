package preprocess

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"vehicle-tracker-go/internal/frame"
	"vehicle-tracker-go/internal/otfile"
)

// DefaultTimeWithoutFrames максимальный разрыв между файлами одной записи
const DefaultTimeWithoutFrames = time.Minute

// ErrRangeSplit диапазон файлов разбился на несколько групп кадров
var ErrRangeSplit = errors.New("frame range did not produce exactly one frame group")

// RecordingReader читает файлы детекций целиком
type RecordingReader interface {
	ReadRecording(path string) (*otfile.Recording, error)
}

// MetadataReader читает только метаданные файлов детекций
type MetadataReader interface {
	ReadMetadata(path string) (json.RawMessage, error)
}

// Reader читает и файлы целиком, и только метаданные
type Reader interface {
	RecordingReader
	MetadataReader
}

// Result объединенные группы кадров и метаданные по файлам
type Result struct {
	FrameGroups []frame.FrameGroup
	Metadata    frame.MetadataByFile
}

// Preprocessor читает файлы детекций и объединяет файлы одной записи в группы кадров.
// Файлы считаются одной записью, если разрыв между ними не больше timeWithoutFrames.
type Preprocessor struct {
	timeWithoutFrames time.Duration
	reader            RecordingReader
	logger            *logrus.Logger
}

// NewPreprocessor создает Preprocessor
func NewPreprocessor(timeWithoutFrames time.Duration, reader RecordingReader, logger *logrus.Logger) *Preprocessor {
	return &Preprocessor{
		timeWithoutFrames: timeWithoutFrames,
		reader:            reader,
		logger:            logger,
	}
}

// TimeWithoutFrames возвращает допустимый разрыв между файлами
func (p *Preprocessor) TimeWithoutFrames() time.Duration {
	return p.timeWithoutFrames
}

// Run читает все файлы, разбирает их и объединяет группы кадров
func (p *Preprocessor) Run(files []string, frameOffset int) (*Result, error) {
	recordings := make([]*otfile.Recording, 0, len(files))
	seen := make(map[string]bool, len(files))
	for _, file := range files {
		if seen[file] {
			continue
		}
		seen[file] = true

		recording, err := p.reader.ReadRecording(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		recordings = append(recordings, recording)
	}
	return p.Process(recordings, frameOffset)
}

// Process разбирает прочитанные файлы и объединяет группы кадров
func (p *Preprocessor) Process(recordings []*otfile.Recording, frameOffset int) (*Result, error) {
	groups, metadata, err := p.parseFrameGroups(recordings, frameOffset)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return &Result{FrameGroups: []frame.FrameGroup{}, Metadata: metadata}, nil
	}

	merged := mergeGroups(groups, p.timeWithoutFrames)
	p.logger.Infof("Объединено %d файлов в %d групп кадров", len(groups), len(merged))
	return &Result{FrameGroups: merged, Metadata: metadata}, nil
}

// parseFrameGroups разбирает каждый файл в отдельную группу кадров
func (p *Preprocessor) parseFrameGroups(recordings []*otfile.Recording, frameOffset int) ([]frame.FrameGroup, frame.MetadataByFile, error) {
	groups := make([]frame.FrameGroup, 0, len(recordings))
	metadata := make(frame.MetadataByFile, len(recordings))
	for _, recording := range recordings {
		metadata[recording.Path] = recording.Metadata

		startDate, err := ExtractStartDate(recording.Metadata)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s: %w", recording.Path, err)
		}

		group, err := frame.NewFrameGroupParser(recording.Path, startDate).Convert(recording.Data, frameOffset)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s: %w", recording.Path, err)
		}
		if group.Len() == 0 {
			p.logger.Warnf("Файл %s не содержит кадров и пропущен", recording.Path)
			continue
		}
		groups = append(groups, group)
	}
	return groups, metadata, nil
}

// mergeGroups сортирует группы по времени начала и последовательно объединяет соседние,
// если разрыв между концом одной и началом следующей не больше gap
func mergeGroups(groups []frame.FrameGroup, gap time.Duration) []frame.FrameGroup {
	sorted := make([]frame.FrameGroup, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartDate().Before(sorted[j].StartDate())
	})

	var merged []frame.FrameGroup
	last := sorted[0]
	for _, current := range sorted[1:] {
		if current.StartDate().Sub(last.EndDate()) <= gap {
			last = last.Merge(current)
			continue
		}
		merged = append(merged, last)
		last = current
	}
	return append(merged, last)
}
