package frame

import (
	"sort"
	"time"
)

// TrackedDetection детекция с привязкой к кадру, файлу и треку
type TrackedDetection struct {
	Detection
	Frame         int
	Occurrence    time.Time
	InputFilePath string
	Interpolated  bool
	TrackID       int
	First         bool
	Finished      bool
}

// Splitter разделяет детекции объединенной группы обратно по входным файлам.
// FirstFrames - номер первого кадра каждого файла в объединенной группе; если файл
// в нем отсутствует, началом считается кадр первой детекции файла.
type Splitter struct {
	FirstFrames map[string]int
}

// NewSplitter создает Splitter с первыми кадрами файлов группы
func NewSplitter(group FrameGroup) Splitter {
	first := make(map[string]int)
	for _, f := range group.Frames {
		if n, ok := first[f.InputFilePath]; !ok || f.Number < n {
			first[f.InputFilePath] = f.Number
		}
	}
	return Splitter{FirstFrames: first}
}

// Split сортирует детекции по (файлу, кадру, треку) и перенумеровывает кадры так,
// что нумерация каждого файла начинается с 1.
func (s Splitter) Split(detections []TrackedDetection) map[string][]TrackedDetection {
	sorted := make([]TrackedDetection, len(detections))
	copy(sorted, detections)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.InputFilePath != b.InputFilePath {
			return a.InputFilePath < b.InputFilePath
		}
		if a.Frame != b.Frame {
			return a.Frame < b.Frame
		}
		return a.TrackID < b.TrackID
	})

	groups := make(map[string][]TrackedDetection)
	currentPath := ""
	frameOffset := 0
	for i, detection := range sorted {
		if i == 0 || detection.InputFilePath != currentPath {
			currentPath = detection.InputFilePath
			frameOffset = detection.Frame - 1
			if first, ok := s.FirstFrames[currentPath]; ok {
				frameOffset = first - 1
			}
		}
		detection.Frame -= frameOffset
		groups[currentPath] = append(groups[currentPath], detection)
	}
	return groups
}
