package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/trackforge/trackforge/pkg/engine"
	"github.com/trackforge/trackforge/pkg/ingest"
	"github.com/trackforge/trackforge/pkg/util"
	"github.com/trackforge/trackforge/pkg/wire"
)

// FileJob processes CSV files straight to wire JSON on disk, no queue or
// database involved.
type FileJob struct {
	Engine    *engine.Engine
	OutputDir string
	Verbose   bool
}

// Run processes every given path, walking directories for .csv files.
// Tracks across files run concurrently; failures are logged and counted,
// and only a fully-failed run is an error.
func (job *FileJob) Run(ctx context.Context, paths []string) error {
	files, err := collectCSVFiles(paths)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no csv files found")
	}

	if err := os.MkdirAll(job.OutputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	p := pool.NewWithResults[int]()
	p.WithMaxGoroutines(8)

	for _, file := range files {
		p.Go(func() int {
			return job.processFile(ctx, file)
		})
	}

	var processed int
	for _, count := range p.Wait() {
		processed += count
	}

	if processed == 0 {
		return fmt.Errorf("no tracks processed")
	}

	log.Info().Int("tracks", processed).Int("files", len(files)).Msg("Batch run complete")
	return nil
}

func (job *FileJob) processFile(ctx context.Context, path string) int {
	tracks, err := ingest.LoadFile(path)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("Failed to load file")
		return 0
	}

	var processed int
	for _, t := range tracks {
		result, err := job.Engine.Process(ctx, t)
		if err != nil {
			log.Error().Err(err).Str("vehicle", t.VehicleID).Msg("Failed to process track")
			continue
		}
		if result.Partial {
			log.Warn().Str("vehicle", t.VehicleID).Msg("Partial result")
		}

		if job.Verbose {
			pretty.Println(result.Analysis)
		}

		stepMS := int64(job.Engine.Config().InterpolationStepSeconds * 1000)
		envelope := wire.NewEnvelope(result.Track, stepMS)

		if err := job.writeEnvelope(envelope); err != nil {
			log.Error().Err(err).Str("vehicle", t.VehicleID).Msg("Failed to write envelope")
			continue
		}
		processed++
	}

	return processed
}

func (job *FileJob) writeEnvelope(envelope *wire.Envelope) error {
	payload, err := envelope.Marshal()
	if err != nil {
		return err
	}

	outputPath := filepath.Join(job.OutputDir, fmt.Sprintf("%s.json", envelope.VehicleID))
	return os.WriteFile(outputPath, payload, 0644)
}

func collectCSVFiles(paths []string) ([]string, error) {
	var files []string

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				files = append(files, filepath.Join(path, entry.Name()))
			}
		}
	}

	files = util.Filter(files, func(file string) bool {
		return strings.EqualFold(filepath.Ext(file), ".csv")
	})

	return files, nil
}
