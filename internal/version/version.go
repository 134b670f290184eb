package version

var (
	// Version текущая версия приложения
	Version = "dev"
	// GitSHA хеш коммита сборки
	GitSHA = "unknown"
	// BuildTime время сборки
	BuildTime = "unknown"
)

// TrackFormatVersion версия формата файлов с результатами трекинга
const TrackFormatVersion = "1.1"
