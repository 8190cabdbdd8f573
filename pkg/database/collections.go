package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func createIndexes() {
	createProcessedTracksIndexes()
	createIngestRecordsIndexes()
}

func createProcessedTracksIndexes() {
	processedTracksCollection := GetCollection("processed_tracks")
	processedTracksIndex := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "vehicleid", Value: 1},
				{Key: "confighash", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "vehicleid", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "spanstart", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "sourcefile", Value: 1}},
		},
	}

	opts := options.CreateIndexes()
	_, err := processedTracksCollection.Indexes().CreateMany(context.Background(), processedTracksIndex, opts)
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}

func createIngestRecordsIndexes() {
	ingestRecordsCollection := GetCollection("ingest_records")
	_, err := ingestRecordsCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "sourcefile", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "creationdatetime", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(14 * 24 * 3600), // Expire after 14 days
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}
