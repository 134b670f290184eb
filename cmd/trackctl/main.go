package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"vehicle-tracker-go/internal/client"
	"vehicle-tracker-go/internal/config"
	"vehicle-tracker-go/pkg/models"
)

const usage = `Usage: trackctl [flags] <command> [args]

Commands:
  health                  check the server
  run <path>...           track files under the server data directory
  ranges <path>...        group files by metadata
  list                    list runs
  get <id>                show a run
  tracks <id> [class]     print tracks of a run as GeoJSON
  delete <id>             delete a run
`

func main() {
	cfg := config.LoadConfig()

	baseURL := flag.String("url", cfg.Client.BaseURL, "tracking API base URL")
	timeout := flag.Duration("timeout", time.Duration(cfg.Client.Timeout)*time.Second, "request timeout")
	name := flag.String("name", "", "run name")
	write := flag.Bool("write", false, "write .ottrk files next to the inputs")
	page := flag.Int("page", 1, "page for list")
	size := flag.Int("size", 10, "page size for list")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	api := client.NewTrackingAPIClient(*baseURL, *timeout, logger)
	command, args := flag.Arg(0), flag.Args()[1:]

	var result interface{}
	var err error
	switch command {
	case "health":
		result, err = api.CheckHealth()
	case "run":
		requireArgs(args, 1)
		result, err = api.CreateRun(models.CreateRunRequest{Name: *name, Paths: args, WriteOutput: *write})
	case "ranges":
		requireArgs(args, 1)
		result, err = api.GroupRanges(models.GroupRangesRequest{Paths: args})
	case "list":
		result, err = api.ListRuns(*page, *size)
	case "get":
		requireArgs(args, 1)
		result, err = api.GetRun(args[0])
	case "tracks":
		requireArgs(args, 1)
		class := ""
		if len(args) > 1 {
			class = args[1]
		}
		result, err = api.GetTracks(args[0], class)
	case "delete":
		requireArgs(args, 1)
		err = api.DeleteRun(args[0])
		result = map[string]string{"deleted": args[0]}
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Errorf("Ошибка выполнения команды %s: %v", command, err)
		os.Exit(1)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		logger.Fatalf("Ошибка вывода результата: %v", err)
	}
}

func requireArgs(args []string, n int) {
	if len(args) < n {
		flag.Usage()
		os.Exit(2)
	}
}
