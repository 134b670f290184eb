package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"vehicle-tracker-go/internal/frame"
	"vehicle-tracker-go/internal/otfile"
	"vehicle-tracker-go/internal/preprocess"
	"vehicle-tracker-go/internal/tracker"
)

// TrackingService сервис трекинга: объединение файлов, трекинг групп и запись результатов
type TrackingService struct {
	reader preprocess.Reader
	writer OutputWriter
	logger *logrus.Logger
}

// NewTrackingService создает новый сервис трекинга
func NewTrackingService(reader preprocess.Reader, writer OutputWriter, logger *logrus.Logger) *TrackingService {
	return &TrackingService{
		reader: reader,
		writer: writer,
		logger: logger,
	}
}

// Track объединяет файлы в группы кадров и прогоняет каждую группу через новый трекер
func (s *TrackingService) Track(files []string, opts RunOptions) (*RunOutcome, error) {
	s.logger.Infof("Начинаем трекинг %d файлов", len(files))
	startTime := time.Now()

	if err := opts.Tracker.Validate(); err != nil {
		return nil, err
	}

	preprocessor := preprocess.NewPreprocessor(opts.TimeWithoutFrames, s.reader, s.logger)
	preprocessed, err := preprocessor.Run(files, opts.FrameOffset)
	if err != nil {
		s.logger.Errorf("Ошибка чтения файлов детекций: %v", err)
		return nil, fmt.Errorf("failed to preprocess files: %w", err)
	}

	outcome := &RunOutcome{
		Files:   files,
		Options: opts,
		Groups:  make([]GroupOutcome, 0, len(preprocessed.FrameGroups)),
	}
	for i, group := range preprocessed.FrameGroups {
		groupOutcome, err := s.trackGroup(i, group, preprocessed.Metadata, opts)
		if err != nil {
			return nil, err
		}
		outcome.Groups = append(outcome.Groups, *groupOutcome)
	}

	s.logger.Infof("Трекинг завершен за %v: %d групп, %d кадров, %d треков",
		time.Since(startTime), len(outcome.Groups), outcome.FramesCount(), outcome.TracksCount())
	return outcome, nil
}

// trackGroup выполняет трекинг одной группы и, если нужно, записывает файлы треков
func (s *TrackingService) trackGroup(index int, group frame.FrameGroup, metadata frame.MetadataByFile, opts RunOptions) (*GroupOutcome, error) {
	trk, err := tracker.New(opts.Tracker, s.logger)
	if err != nil {
		return nil, err
	}

	result, err := trk.Track(tracker.InputsFromGroup(group))
	if err != nil {
		return nil, fmt.Errorf("failed to track group %d: %w", index, err)
	}

	groupMetadata := make(frame.MetadataByFile)
	for _, file := range group.Files() {
		groupMetadata[file] = metadata[file]
	}
	groupMetadata, err = group.UpdateMetadata(groupMetadata, opts.Tracker.MetadataBlock())
	if err != nil {
		return nil, fmt.Errorf("failed to update metadata of group %d: %w", index, err)
	}

	detections := frame.NewSplitter(group).Split(trackedDetections(group, result))

	outcome := &GroupOutcome{
		Index:      index,
		Group:      group,
		Result:     result,
		Detections: detections,
		Metadata:   groupMetadata,
	}
	s.logger.Infof("Группа %d (%s): %d кадров, %d треков", index, group.OrderKey, group.Len(), len(result.FinishedIDs))

	if opts.WriteOutput {
		files, err := s.writeGroup(outcome)
		if err != nil {
			return nil, err
		}
		outcome.OutputFiles = files
	}
	return outcome, nil
}

// writeGroup записывает по одному файлу треков на каждый входной файл группы
func (s *TrackingService) writeGroup(outcome *GroupOutcome) ([]string, error) {
	files := outcome.Group.Files()
	sort.Strings(files)

	written := make([]string, 0, len(files))
	for _, file := range files {
		path := frame.Frame{InputFilePath: file}.OutputFile(otfile.TracksSuffix)
		if err := s.writer.Write(path, outcome.Metadata[file], outcome.Detections[file]); err != nil {
			s.logger.Errorf("Ошибка записи файла треков %s: %v", path, err)
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// trackedDetections собирает детекции, попавшие в треки, в порядке кадров
func trackedDetections(group frame.FrameGroup, result *tracker.Result) []frame.TrackedDetection {
	var detections []frame.TrackedDetection
	for i, tracked := range result.Frames {
		f := group.Frames[i]
		for _, annotation := range tracked.Detections {
			if annotation.TrackID == 0 {
				continue
			}
			detections = append(detections, frame.TrackedDetection{
				Detection:     annotation.Detection,
				Frame:         tracked.Number,
				Occurrence:    f.Occurrence,
				InputFilePath: f.InputFilePath,
				TrackID:       annotation.TrackID,
				First:         annotation.First,
				Finished:      annotation.Finished,
			})
		}
	}
	return detections
}

// GroupRanges группирует файлы по метаданным без чтения кадров
func (s *TrackingService) GroupRanges(files []string, timeWithoutFrames time.Duration) (*preprocess.RangeResult, error) {
	s.logger.Infof("Группируем %d файлов по метаданным", len(files))

	result, err := preprocess.NewRangeGrouper(timeWithoutFrames, s.reader, s.logger).Run(files)
	if err != nil {
		s.logger.Errorf("Ошибка группировки файлов: %v", err)
		return nil, fmt.Errorf("failed to group files: %w", err)
	}
	return result, nil
}

// TrackRanges выполняет трекинг каждого диапазона, построенного по метаданным.
// Каждый диапазон должен складываться ровно в одну группу кадров.
func (s *TrackingService) TrackRanges(ranges []frame.FrameRange, opts RunOptions) (*RunOutcome, error) {
	if err := opts.Tracker.Validate(); err != nil {
		return nil, err
	}

	grouper := preprocess.NewRangeGrouper(opts.TimeWithoutFrames, s.reader, s.logger)
	outcome := &RunOutcome{Options: opts, Groups: make([]GroupOutcome, 0, len(ranges))}
	for i, r := range ranges {
		s.logger.Infof("Трекинг диапазона %s (%d файлов)", r, len(r.Files))
		outcome.Files = append(outcome.Files, r.Files...)

		group, metadata, err := grouper.CreateFrameGroupFrom(r, opts.FrameOffset)
		if err != nil {
			return nil, fmt.Errorf("failed to build frame group for range %s: %w", r, err)
		}
		groupOutcome, err := s.trackGroup(i, group, metadata, opts)
		if err != nil {
			return nil, err
		}
		outcome.Groups = append(outcome.Groups, *groupOutcome)
	}
	return outcome, nil
}
