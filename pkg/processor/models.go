package processor

import (
	"time"

	"github.com/trackforge/trackforge/pkg/engine"
	"github.com/trackforge/trackforge/pkg/track"
	"github.com/trackforge/trackforge/pkg/wire"
)

// TrackRequest is the queue payload asking for one track to be processed.
type TrackRequest struct {
	VehicleID  string      `json:"vehicle_id"`
	SourceFile string      `json:"source_file,omitempty"`
	Fixes      []track.Fix `json:"fixes"`
}

// ProcessedTrack is the MongoDB document for one engine result.
type ProcessedTrack struct {
	VehicleID  string `bson:"vehicleid"`
	ConfigHash string `bson:"confighash"`
	SourceFile string `bson:"sourcefile,omitempty"`

	SpanStart time.Time `bson:"spanstart"`
	SpanEnd   time.Time `bson:"spanend"`

	Analysis engine.Analysis `bson:"analysis"`
	Envelope *wire.Envelope  `bson:"envelope"`
	Partial  bool            `bson:"partial,omitempty"`

	CreationDateTime time.Time `bson:"creationdatetime"`
}

// IngestRecord is the MongoDB audit document for one ingested file.
// Records expire via the TTL index on creationdatetime.
type IngestRecord struct {
	SourceFile       string    `bson:"sourcefile"`
	Vehicles         int       `bson:"vehicles"`
	Fixes            int       `bson:"fixes"`
	CreationDateTime time.Time `bson:"creationdatetime"`
}

func newIngestRecord(sourceFile string, tracks []*track.Track) IngestRecord {
	record := IngestRecord{
		SourceFile:       sourceFile,
		Vehicles:         len(tracks),
		CreationDateTime: time.Now(),
	}
	for _, t := range tracks {
		record.Fixes += len(t.Fixes)
	}
	return record
}

// processingAuditEvent is the Elasticsearch record for one processed track.
type processingAuditEvent struct {
	VehicleID  string `json:"vehicle_id"`
	ConfigHash string `json:"config_hash"`
	SourceFile string `json:"source_file,omitempty"`

	FixCount     int  `json:"fix_count"`
	SegmentCount int  `json:"segment_count"`
	PointCount   int  `json:"point_count"`
	GapSegments  int  `json:"gap_segments"`
	Conflicts    int  `json:"conflict_segments"`
	Anomalies    int  `json:"anomaly_segments"`
	Partial      bool `json:"partial"`

	ReliabilityScore float64 `json:"reliability_score"`

	Timestamp time.Time `json:"timestamp"`
}
