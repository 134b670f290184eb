package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"vehicle-tracker-go/internal/config"
	"vehicle-tracker-go/internal/otfile"
	"vehicle-tracker-go/internal/service"
	"vehicle-tracker-go/pkg/models"
)

func main() {
	cfg := config.LoadConfig()
	defaults := cfg.TrackerConfig()

	sigmaL := flag.Float64("sigma-l", defaults.SigmaL, "minimum detection confidence for matching")
	sigmaH := flag.Float64("sigma-h", defaults.SigmaH, "minimum peak confidence of a finished track")
	sigmaIoU := flag.Float64("sigma-iou", defaults.SigmaIoU, "minimum IoU for matching")
	tMin := flag.Int("t-min", defaults.TMin, "minimum track length in frames")
	tMissMax := flag.Int("t-miss-max", defaults.TMissMax, "maximum frames a track may go unmatched")
	gap := flag.Duration("time-without-frames", cfg.Tracker.TimeWithoutFrames, "maximum gap between files of one recording")
	frameOffset := flag.Int("frame-offset", 0, "offset added to every frame number")
	byRanges := flag.Bool("ranges", false, "group files by metadata before reading frames")
	dryRun := flag.Bool("dry-run", false, "track without writing .ottrk files")
	geojsonPath := flag.String("geojson", "", "write finished tracks of all groups as GeoJSON to this file")
	logLevel := flag.String("log-level", cfg.Logging.Level, "log level")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <file or directory>...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	files, err := otfile.Collect(flag.Args(), []string{otfile.DetectionsSuffix, otfile.JSONSuffix})
	if err != nil {
		logger.Fatalf("Ошибка поиска файлов: %v", err)
	}
	if len(files) == 0 {
		logger.Fatalf("Не найдено файлов детекций в %s", strings.Join(flag.Args(), ", "))
	}

	opts := service.RunOptions{
		Tracker:           defaults,
		TimeWithoutFrames: *gap,
		FrameOffset:       *frameOffset,
		WriteOutput:       !*dryRun,
	}
	opts.Tracker.SigmaL = *sigmaL
	opts.Tracker.SigmaH = *sigmaH
	opts.Tracker.SigmaIoU = *sigmaIoU
	opts.Tracker.TMin = *tMin
	opts.Tracker.TMissMax = *tMissMax

	svc := service.NewTrackingService(otfile.NewReader(logger), otfile.NewWriter(logger), logger)

	var outcome *service.RunOutcome
	if *byRanges {
		ranges, err := svc.GroupRanges(files, *gap)
		if err != nil {
			logger.Fatalf("Ошибка группировки файлов: %v", err)
		}
		outcome, err = svc.TrackRanges(ranges.FrameRanges, opts)
		if err != nil {
			logger.Fatalf("Ошибка трекинга: %v", err)
		}
	} else {
		outcome, err = svc.Track(files, opts)
		if err != nil {
			logger.Fatalf("Ошибка трекинга: %v", err)
		}
	}

	if *geojsonPath != "" {
		if err := writeFeatures(*geojsonPath, outcome); err != nil {
			logger.Fatalf("Ошибка записи GeoJSON: %v", err)
		}
		logger.Infof("Треки записаны в %s", *geojsonPath)
	}

	for _, g := range outcome.Groups {
		fmt.Printf("group %d\t%s\tframes=%d\ttracks=%d\tfiles=%d\n",
			g.Index, g.Group.OrderKey, g.Group.Len(), len(g.Result.FinishedIDs), len(g.Group.Files()))
	}
	fmt.Printf("total\tgroups=%d\tframes=%d\ttracks=%d\n", len(outcome.Groups), outcome.FramesCount(), outcome.TracksCount())
}

// writeFeatures записывает треки всех групп в одну FeatureCollection
func writeFeatures(path string, outcome *service.RunOutcome) error {
	collection := models.NewFeatureCollection()
	for _, g := range outcome.Groups {
		collection.Features = append(collection.Features, g.Result.Features.Features...)
	}

	data, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode features: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
