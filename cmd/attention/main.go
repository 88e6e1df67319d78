// Command attention analyses a face-landmark stream recorded from a lecture
// video, stores the session in SQLite and writes its artifacts to disk.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/attention.report/internal/config"
	"github.com/banshee-data/attention.report/internal/fsutil"
	"github.com/banshee-data/attention.report/internal/monitoring"
	"github.com/banshee-data/attention.report/internal/timeutil"
	"github.com/banshee-data/attention.report/internal/version"
)

var (
	inputPath      = flag.String("input", "", "JSON-lines landmark stream to analyse (required)")
	configPath     = flag.String("config", "", "analysis config JSON (built-in defaults when empty)")
	dbPath         = flag.String("db", "", "session database path (overrides database_path)")
	outDir         = flag.String("out", "", "artifact directory (overrides storage_path)")
	transcriptPath = flag.String("transcript", "", "transcript segments JSON used for notes")
	videoName      = flag.String("video", "", "video filename recorded on the session (defaults to the input name)")
	writeReport    = flag.Bool("report", true, "render report.html and timeline.png")
	workers        = flag.Int("workers", 0, "feature extraction workers (0 keeps the configured value)")
	debug          = flag.Bool("debug", false, "enable debug logging")
	showVersion    = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("attention"))
		return
	}
	if *inputPath == "" {
		log.Fatal("-input is required")
	}
	monitoring.SetDebug(*debug)

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess, err := run(ctx, runOptions{
		Input:      *inputPath,
		Transcript: *transcriptPath,
		Video:      *videoName,
		Report:     *writeReport,
		Config:     cfg,
		FS:         fsutil.OSFileSystem{},
		Clock:      timeutil.RealClock{},
	})
	if err != nil {
		log.Fatalf("analyse %s: %v", *inputPath, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sess); err != nil {
		log.Fatalf("write session: %v", err)
	}
}

// loadConfig layers the config file, the environment and the flags, in
// that order.
func loadConfig() (*config.AnalysisConfig, error) {
	cfg := config.EmptyAnalysisConfig()
	if *configPath != "" {
		loaded, err := config.LoadAnalysisConfig(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if *workers > 0 {
		cfg.Workers = workers
	}
	if *dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	if *outDir != "" {
		cfg.StoragePath = outDir
	}
	return cfg, cfg.Validate()
}
