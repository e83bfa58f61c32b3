// Command photostat scans a folder of photos, extracts their metadata, and
// prints aggregate statistics. It is a thin collaborator around the core:
// it only walks the filesystem, reports progress, and renders tables.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/alxgraphy/photostat/core/ingest"
	"github.com/alxgraphy/photostat/core/report"
	"github.com/alxgraphy/photostat/core/stats"
)

func main() {
	if len(os.Args) < 2 || os.Args[1] != "scan" {
		fmt.Println("Usage: photostat scan <folder> [--json] [--workers N] [--freq daily|weekly|monthly|yearly]")
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		report.PrintError(err.Error())
		os.Exit(1)
	}

	flags := flag.NewFlagSet("scan", flag.ExitOnError)
	jsonOut := flags.Bool("json", false, "print the report as JSON")
	workers := flags.Int("workers", cfg.Workers, "worker pool size (0 = all CPUs)")
	freq := flags.String("freq", cfg.Stats.Frequency, "timeline frequency")

	dir := parseScanArgs(flags, os.Args[2:])
	if dir == "" {
		report.PrintError("no folder given")
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging.Level)

	inputs, err := collectInputs(dir, logger)
	if err != nil {
		report.PrintError(err.Error())
		os.Exit(1)
	}
	if len(inputs) == 0 {
		report.PrintError("no files found in " + dir)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	corpus, err := ingest.Ingest(ctx, inputs, ingest.Options{
		Workers: *workers,
		Progress: func(done, total int) {
			logger.Debug().Int("done", done).Int("total", total).Msg("file processed")
		},
	})
	if err != nil {
		logger.Warn().Err(err).Msg("batch aborted, reporting partial results")
	}
	logger.Info().
		Str("batch_id", corpus.BatchID.String()).
		Int("records", len(corpus.Records)).
		Int("failures", len(corpus.Failures)).
		Dur("elapsed", time.Since(start)).
		Msg("ingestion complete")

	opts := cfg.statsOptions()
	opts.Frequency = stats.Frequency(*freq)

	printer := report.NewPrinter(*jsonOut)
	if err := printer.PrintReport(corpus, stats.Compute(corpus, opts)); err != nil {
		report.PrintError(err.Error())
		os.Exit(1)
	}
}

// parseScanArgs accepts flags on either side of the folder argument: flag
// parsing stops at the first positional, so a second pass picks up flags
// placed after the folder, as the usage line advertises.
func parseScanArgs(flags *flag.FlagSet, args []string) string {
	flags.Parse(args)
	dir := flags.Arg(0)
	if flags.NArg() > 1 {
		flags.Parse(flags.Args()[1:])
	}
	return dir
}

// collectInputs reads every regular file under dir. Nothing is filtered by
// extension here: the sniffer decides what is supported, and unsupported
// strays belong in the report as failures.
func collectInputs(dir string, logger zerolog.Logger) ([]ingest.Input, error) {
	var inputs []ingest.Input
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn().Str("file", path).Err(err).Msg("unreadable, skipped")
			return nil
		}
		rel, rerr := filepath.Rel(dir, path)
		if rerr != nil {
			rel = d.Name()
		}
		inputs = append(inputs, ingest.Input{Name: rel, Data: data})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return inputs, nil
}

func newLogger(level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}

	logger := zerolog.New(output).With().Timestamp().Logger()

	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	return logger
}
