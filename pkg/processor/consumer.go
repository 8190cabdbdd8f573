package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
	"github.com/trackforge/trackforge/pkg/database"
	"github.com/trackforge/trackforge/pkg/elastic_client"
	"github.com/trackforge/trackforge/pkg/engine"
	"github.com/trackforge/trackforge/pkg/redis_client"
	"github.com/trackforge/trackforge/pkg/resultcache"
	"github.com/trackforge/trackforge/pkg/track"
	"github.com/trackforge/trackforge/pkg/wire"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const numConsumers = 5
const batchSize = 50

const requestQueueName = "resample-queue"
const renderQueueName = "render-queue"

func StartConsumers(eng *engine.Engine) {
	resultcache.Create()

	log.Info().Msg("Starting track processing consumers")

	queue, err := redis_client.QueueConnection.OpenQueue(requestQueueName)
	if err != nil {
		panic(err)
	}
	if err := queue.StartConsuming(numConsumers*batchSize, 1*time.Second); err != nil {
		panic(err)
	}

	renderQueue, err := redis_client.QueueConnection.OpenQueue(renderQueueName)
	if err != nil {
		panic(err)
	}

	for i := 0; i < numConsumers; i++ {
		go startTrackConsumer(queue, renderQueue, eng, i)
	}
}

func startTrackConsumer(queue rmq.Queue, renderQueue rmq.Queue, eng *engine.Engine, id int) {
	log.Info().Msgf("Starting track consumer %d", id)

	if _, err := queue.AddBatchConsumer(fmt.Sprintf("resample-queue-%d", id), batchSize, 2*time.Second, NewBatchConsumer(eng, renderQueue, id)); err != nil {
		panic(err)
	}
}

type BatchConsumer struct {
	engine      *engine.Engine
	renderQueue rmq.Queue
	id          int
}

func NewBatchConsumer(eng *engine.Engine, renderQueue rmq.Queue, id int) *BatchConsumer {
	return &BatchConsumer{engine: eng, renderQueue: renderQueue, id: id}
}

func (consumer *BatchConsumer) Consume(batch rmq.Deliveries) {
	payloads := batch.Payloads()

	var trackOperations []mongo.WriteModel

	for _, payload := range payloads {
		var request *TrackRequest
		if err := json.Unmarshal([]byte(payload), &request); err != nil {
			if batchErrors := batch.Reject(); len(batchErrors) > 0 {
				for _, err := range batchErrors {
					log.Error().Err(err).Msg("Failed to reject track request")
				}
			}
			continue
		}

		writeModel := consumer.processRequest(request)
		if writeModel != nil {
			trackOperations = append(trackOperations, writeModel)
		}
	}

	if len(trackOperations) > 0 {
		processedTracksCollection := database.GetCollection("processed_tracks")

		startTime := time.Now()
		_, err := processedTracksCollection.BulkWrite(context.Background(), trackOperations, &options.BulkWriteOptions{})
		log.Info().Int("Length", len(trackOperations)).Str("Time", time.Since(startTime).String()).Msg("Bulk write")

		if err != nil {
			log.Fatal().Err(err).Msg("Failed to bulk write processed tracks")
		}
	}

	if ackErrors := batch.Ack(); len(ackErrors) > 0 {
		for _, err := range ackErrors {
			log.Fatal().Err(err).Msg("Failed to consume track request")
		}
	}
}

func (consumer *BatchConsumer) processRequest(request *TrackRequest) mongo.WriteModel {
	result, err := consumer.engine.Process(context.Background(), &track.Track{
		VehicleID:  request.VehicleID,
		SourceFile: request.SourceFile,
		Fixes:      request.Fixes,
	})
	if err != nil {
		log.Error().Err(err).Str("vehicle", request.VehicleID).Msg("Failed to process track")
		return nil
	}

	configHash := consumer.engine.Config().Hash()
	stepMS := int64(consumer.engine.Config().InterpolationStepSeconds * 1000)
	envelope := wire.NewEnvelope(result.Track, stepMS)

	if err := resultcache.Set(context.Background(), request.VehicleID, configHash, envelope); err != nil {
		log.Error().Err(err).Str("vehicle", request.VehicleID).Msg("Failed to cache envelope")
	}

	consumer.publishEnvelope(envelope)
	indexAuditEvent(request, result, configHash)

	spanStart, spanEnd, _ := result.Track.Span()

	document := ProcessedTrack{
		VehicleID:        request.VehicleID,
		ConfigHash:       configHash,
		SourceFile:       request.SourceFile,
		SpanStart:        spanStart,
		SpanEnd:          spanEnd,
		Analysis:         result.Analysis,
		Envelope:         envelope,
		Partial:          result.Partial,
		CreationDateTime: time.Now(),
	}

	writeModel := mongo.NewReplaceOneModel()
	writeModel.SetFilter(bson.M{"vehicleid": request.VehicleID, "confighash": configHash})
	writeModel.SetReplacement(document)
	writeModel.SetUpsert(true)

	return writeModel
}

func (consumer *BatchConsumer) publishEnvelope(envelope *wire.Envelope) {
	payload, err := envelope.Marshal()
	if err != nil {
		log.Error().Err(err).Str("vehicle", envelope.VehicleID).Msg("Failed to marshal envelope")
		return
	}

	if err := consumer.renderQueue.PublishBytes(payload); err != nil {
		log.Error().Err(err).Str("vehicle", envelope.VehicleID).Msg("Failed to publish envelope")
	}
}

func indexAuditEvent(request *TrackRequest, result *engine.Result, configHash string) {
	event := processingAuditEvent{
		VehicleID:        request.VehicleID,
		ConfigHash:       configHash,
		SourceFile:       request.SourceFile,
		FixCount:         len(result.Track.Fixes),
		SegmentCount:     len(result.Track.Segments),
		PointCount:       len(result.Track.Points),
		GapSegments:      result.Analysis.GapSegments,
		Conflicts:        result.Analysis.ConflictCount,
		Anomalies:        result.Analysis.AnomalyCount,
		Partial:          result.Partial,
		ReliabilityScore: result.Analysis.ReliabilityScore,
		Timestamp:        time.Now(),
	}

	document, err := json.Marshal(event)
	if err != nil {
		return
	}

	year, week := time.Now().ISOWeek()
	elastic_client.IndexRequest(fmt.Sprintf("track-processing-events-%d-%02d", year, week), bytes.NewReader(document))
}
