package service

import (
	"path/filepath"

	"vehicle-tracker-go/internal/model"
	"vehicle-tracker-go/pkg/models"
)

// outcomeToModel преобразует результат трекинга в модель базы данных
func (s *RunService) outcomeToModel(runID, name string, outcome *RunOutcome) *model.TrackingRun {
	cfg := outcome.Options.Tracker
	run := &model.TrackingRun{
		ID:                runID,
		Name:              name,
		SigmaL:            cfg.SigmaL,
		SigmaH:            cfg.SigmaH,
		SigmaIoU:          cfg.SigmaIoU,
		TMin:              cfg.TMin,
		TMissMax:          cfg.TMissMax,
		TimeWithoutFrames: outcome.Options.TimeWithoutFrames.Seconds(),
		FilesCount:        len(outcome.Files),
		GroupsCount:       len(outcome.Groups),
		FramesCount:       outcome.FramesCount(),
		TracksCount:       outcome.TracksCount(),
	}
	if start, end, ok := outcome.TrackedSpan(); ok {
		run.FirstTrackedStart = &start
		run.LastTrackedEnd = &end
	}

	for _, g := range outcome.Groups {
		run.Groups = append(run.Groups, models.GroupSummary{
			Index:       g.Index,
			OrderKey:    g.Group.OrderKey,
			Files:       s.relativePaths(g.Group.Files()),
			Frames:      g.Group.Len(),
			Tracks:      len(g.Result.FinishedIDs),
			StartDate:   g.Group.StartDate(),
			EndDate:     g.Group.EndDate(),
			OutputFiles: s.relativePaths(g.OutputFiles),
		})

		// Преобразуем треки группы
		for _, feature := range g.Result.Features.Features {
			props := feature.Properties
			run.Tracks = append(run.Tracks, model.Track{
				RunID:      runID,
				GroupIndex: g.Index,
				TrackID:    props.ID,
				StartFrame: props.StartFrame,
				Points:     len(feature.Geometry.Coordinates),
				MaxConf:    props.MaxConf,
				MaxClass:   props.MaxClass,
				Centers:    feature.Geometry.Coordinates,
			})
		}
	}
	return run
}

// modelToResponse преобразует модель базы данных в ответ API
func modelToResponse(run *model.TrackingRun) *models.RunResponse {
	return &models.RunResponse{
		ID:   run.ID,
		Name: run.Name,
		Tracker: models.TrackerParams{
			SigmaL:   run.SigmaL,
			SigmaH:   run.SigmaH,
			SigmaIoU: run.SigmaIoU,
			TMin:     run.TMin,
			TMissMax: run.TMissMax,
		},
		TimeWithoutFrames: run.TimeWithoutFrames,
		FilesCount:        run.FilesCount,
		GroupsCount:       run.GroupsCount,
		FramesCount:       run.FramesCount,
		TracksCount:       run.TracksCount,
		FirstTrackedStart: run.FirstTrackedStart,
		LastTrackedEnd:    run.LastTrackedEnd,
		Groups:            run.Groups,
		CreatedAt:         run.CreatedAt,
	}
}

// relativeTo возвращает путь относительно base в виде со слешами
func relativeTo(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
