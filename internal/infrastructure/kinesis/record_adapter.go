package kinesis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/example/storefront/internal/infrastructure/store"
	"go.uber.org/zap"
)

// ErrIncompleteImage is returned when a stream image lacks id, aggregate_id or event_type
var ErrIncompleteImage = errors.New("stream image is missing event fields")

// FromKinesisRecord decodes a record written by the DynamoDB to Kinesis stream
// integration. Only INSERTs carry new events; other changes return nil, nil.
func FromKinesisRecord(record events.KinesisEventRecord) (*store.Event, error) {
	var change events.DynamoDBEventRecord
	if err := json.Unmarshal(record.Kinesis.Data, &change); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stream record: %w", err)
	}
	return FromStreamRecord(change)
}

// FromStreamRecord decodes a DynamoDB Streams record directly
func FromStreamRecord(record events.DynamoDBEventRecord) (*store.Event, error) {
	if record.EventName != string(events.DynamoDBOperationTypeInsert) {
		return nil, nil
	}
	return fromImage(record.Change.NewImage)
}

// fromImage reads the attribute layout DynamoEventStore writes
func fromImage(image map[string]events.DynamoDBAttributeValue) (*store.Event, error) {
	if image == nil {
		return nil, fmt.Errorf("%w: image is nil", ErrIncompleteImage)
	}

	str := func(name string) string {
		if v, ok := image[name]; ok && v.DataType() == events.DataTypeString {
			return v.String()
		}
		return ""
	}

	event := &store.Event{
		ID:            str("id"),
		AggregateID:   str("aggregate_id"),
		AggregateType: str("aggregate_type"),
		EventType:     str("event_type"),
		Data:          json.RawMessage(str("data")),
	}
	if event.ID == "" || event.AggregateID == "" || event.EventType == "" {
		return nil, fmt.Errorf("%w: id=%q aggregate_id=%q event_type=%q",
			ErrIncompleteImage, event.ID, event.AggregateID, event.EventType)
	}

	if createdAt := str("created_at"); createdAt != "" {
		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		event.Timestamp = t
	}
	if v, ok := image["version"]; ok {
		version, err := v.Integer()
		if err != nil {
			return nil, fmt.Errorf("failed to parse version: %w", err)
		}
		event.Version = int(version)
	}

	return event, nil
}

// ProjectFunc applies one decoded event
type ProjectFunc func(ctx context.Context, event store.Event) error

// ProcessBatch decodes and projects every record of a Lambda batch. Records
// that fail either step are reported by sequence number so Lambda retries
// only those; the rest of the batch still succeeds.
func ProcessBatch(ctx context.Context, batch events.KinesisEvent, project ProjectFunc, logger *zap.Logger) events.KinesisEventResponse {
	if logger == nil {
		logger = zap.NewNop()
	}

	var failures []events.KinesisBatchItemFailure
	fail := func(record events.KinesisEventRecord, msg string, err error) {
		logger.Error(msg, zap.String("record_id", record.EventID), zap.Error(err))
		failures = append(failures, events.KinesisBatchItemFailure{
			ItemIdentifier: record.Kinesis.SequenceNumber,
		})
	}

	for _, record := range batch.Records {
		event, err := FromKinesisRecord(record)
		if err != nil {
			fail(record, "failed to convert record", err)
			continue
		}
		if event == nil {
			continue
		}
		if err := project(ctx, *event); err != nil {
			fail(record, "failed to project event", err)
			continue
		}
		logger.Debug("projected event",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.EventType),
			zap.String("aggregate_id", event.AggregateID))
	}

	logger.Info("processed batch",
		zap.Int("records", len(batch.Records)),
		zap.Int("failed", len(failures)))
	return events.KinesisEventResponse{BatchItemFailures: failures}
}
