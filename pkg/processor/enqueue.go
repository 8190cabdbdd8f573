package processor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
	"github.com/trackforge/trackforge/pkg/database"
	"github.com/trackforge/trackforge/pkg/ingest"
)

// EnqueueFiles loads CSV fix logs, publishes one TrackRequest per vehicle
// onto the processing queue and records an ingest audit document per file.
func EnqueueFiles(queue rmq.Queue, paths []string) error {
	var enqueued int

	ingestRecordsCollection := database.GetCollection("ingest_records")

	for _, path := range paths {
		tracks, err := ingest.LoadFile(path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("Failed to load file")
			continue
		}

		if _, err := ingestRecordsCollection.InsertOne(context.Background(), newIngestRecord(path, tracks)); err != nil {
			log.Error().Err(err).Str("file", path).Msg("Failed to record ingest")
		}

		for _, t := range tracks {
			request := TrackRequest{
				VehicleID:  t.VehicleID,
				SourceFile: t.SourceFile,
				Fixes:      t.Fixes,
			}

			requestJson, err := json.Marshal(request)
			if err != nil {
				log.Error().Err(err).Str("vehicle", t.VehicleID).Msg("Failed to marshal track request")
				continue
			}

			if err := queue.PublishBytes(requestJson); err != nil {
				log.Error().Err(err).Str("vehicle", t.VehicleID).Msg("Failed to publish track request")
				continue
			}
			enqueued++
		}
	}

	if enqueued == 0 {
		return fmt.Errorf("no tracks enqueued")
	}

	log.Info().Int("tracks", enqueued).Msg("Track requests enqueued")
	return nil
}
