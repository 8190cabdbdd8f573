package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
	"github.com/rs/zerolog/log"
	"github.com/trackforge/trackforge/pkg/database"
	"github.com/trackforge/trackforge/pkg/engine"
	"github.com/trackforge/trackforge/pkg/processor"
	"github.com/trackforge/trackforge/pkg/resultcache"
	"go.mongodb.org/mongo-driver/bson"

	iso8601 "github.com/senseyeio/duration"
)

var trackEngine *engine.Engine

func TracksRouter(router fiber.Router, eng *engine.Engine) {
	trackEngine = eng

	router.Get("/", listTracks)
	router.Get("/:identifier", getTrack)
	router.Get("/:identifier/envelope", getTrackEnvelope)
}

func listTracks(c *fiber.Ctx) error {
	query := bson.M{"confighash": trackEngine.Config().Hash()}

	// Optional time window: ?from=<RFC3339>&window=<ISO8601 duration>
	if fromQuery := c.Query("from"); fromQuery != "" {
		fromDateTime, err := time.Parse(time.RFC3339, fromQuery)
		if err != nil {
			c.SendStatus(fiber.StatusBadRequest)
			return c.JSON(fiber.Map{
				"error": "Parameter from must be an RFC3339 datetime",
			})
		}

		spanFilter := bson.M{"$gte": fromDateTime}

		if windowQuery := c.Query("window"); windowQuery != "" {
			windowDuration, err := iso8601.ParseISO8601(windowQuery)
			if err != nil {
				c.SendStatus(fiber.StatusBadRequest)
				return c.JSON(fiber.Map{
					"error": "Parameter window must be an ISO8601 duration",
				})
			}
			spanFilter["$lt"] = windowDuration.Shift(fromDateTime)
		}

		query["spanstart"] = spanFilter
	}

	summaries := []engine.Analysis{}

	processedTracksCollection := database.GetCollection("processed_tracks")
	cursor, _ := processedTracksCollection.Find(context.Background(), query)

	for cursor.Next(context.TODO()) {
		var processedTrack *processor.ProcessedTrack
		err := cursor.Decode(&processedTrack)
		if err != nil {
			log.Error().Err(err).Msg("Failed to decode processed track")
			continue
		}

		summaries = append(summaries, processedTrack.Analysis)
	}

	summariesReduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: []string{"basic"},
	}, summaries)

	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Sherrif could not reduce track summaries",
		})
	}

	return c.JSON(summariesReduced)
}

func getTrack(c *fiber.Ctx) error {
	identifier := c.Params("identifier")

	processedTracksCollection := database.GetCollection("processed_tracks")
	var processedTrack *processor.ProcessedTrack
	processedTracksCollection.FindOne(context.Background(), bson.M{
		"vehicleid":  identifier,
		"confighash": trackEngine.Config().Hash(),
	}).Decode(&processedTrack)

	if processedTrack == nil {
		c.SendStatus(fiber.StatusNotFound)
		return c.JSON(fiber.Map{
			"error": "Could not find a processed track for that vehicle",
		})
	}

	group := "basic"
	if c.Query("detail") == "forensic" {
		group = "forensic"
	}

	analysisReduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: []string{group},
	}, processedTrack.Analysis)

	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Sherrif could not reduce track analysis",
		})
	}

	return c.JSON(fiber.Map{
		"vehicle_id":  processedTrack.VehicleID,
		"config_hash": processedTrack.ConfigHash,
		"source_file": processedTrack.SourceFile,
		"span_start":  processedTrack.SpanStart,
		"span_end":    processedTrack.SpanEnd,
		"partial":     processedTrack.Partial,
		"analysis":    analysisReduced,
	})
}

func getTrackEnvelope(c *fiber.Ctx) error {
	identifier := c.Params("identifier")
	configHash := trackEngine.Config().Hash()

	if cached, err := resultcache.Get(c.Context(), identifier, configHash); err == nil {
		return c.JSON(cached.Envelope)
	}

	processedTracksCollection := database.GetCollection("processed_tracks")
	var processedTrack *processor.ProcessedTrack
	processedTracksCollection.FindOne(context.Background(), bson.M{
		"vehicleid":  identifier,
		"confighash": configHash,
	}).Decode(&processedTrack)

	if processedTrack == nil || processedTrack.Envelope == nil {
		c.SendStatus(fiber.StatusNotFound)
		return c.JSON(fiber.Map{
			"error": "Could not find an envelope for that vehicle",
		})
	}

	if err := resultcache.Set(c.Context(), identifier, configHash, processedTrack.Envelope); err != nil {
		log.Error().Err(err).Str("vehicle", identifier).Msg("Failed to cache envelope")
	}

	return c.JSON(processedTrack.Envelope)
}
