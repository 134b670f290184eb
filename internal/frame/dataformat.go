package frame

// Ключи JSON формата файлов детекций и треков
const (
	KeyMetadata          = "metadata"
	KeyVideo             = "video"
	KeyRecordedStartDate = "recorded_start_date"
	KeyExpectedDuration  = "expected_duration"
	KeyData              = "data"
	KeyDetections        = "detections"
	KeyOccurrence        = "occurrence"
	KeyClass             = "class"
	KeyConfidence        = "confidence"
	KeyX                 = "x"
	KeyY                 = "y"
	KeyW                 = "w"
	KeyH                 = "h"
	KeyFrame             = "frame"
	KeyInputFilePath     = "input_file_path"
	KeyInterpolated      = "interpolated-detection"
	KeyTrackID           = "track-id"
	KeyFirst             = "first"
	KeyFinished          = "finished"

	KeyTrackFormatVersion     = "ottrack_version"
	KeyTracking               = "tracking"
	KeySoftwareVersion        = "otvision_version"
	KeyFirstTrackedVideoStart = "first_tracked_video_start"
	KeyLastTrackedVideoEnd    = "last_tracked_video_end"
	KeyTracker                = "tracker"
)

// DateFormat формат строковых дат во входных файлах
const DateFormat = "2006-01-02 15:04:05.999999"
