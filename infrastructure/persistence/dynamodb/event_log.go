package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"canvas-ai/domain/events"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// maxBatchWrite is DynamoDB's limit on items per BatchWriteItem call
const maxBatchWrite = 25

// DefaultEventRetention bounds how long event records are kept
const DefaultEventRetention = 30 * 24 * time.Hour

// EventRecord represents how events are stored in DynamoDB
type EventRecord struct {
	PK          string                 `dynamodbav:"PK"` // EVENTS#<aggregate_id>
	SK          string                 `dynamodbav:"SK"` // EVENT#<timestamp>#<event_id>
	EventID     string                 `dynamodbav:"EventID"`
	EventType   string                 `dynamodbav:"EventType"`
	AggregateID string                 `dynamodbav:"AggregateID"`
	EventData   map[string]interface{} `dynamodbav:"EventData"`
	Timestamp   string                 `dynamodbav:"Timestamp"`
	Version     int                    `dynamodbav:"Version"`
	TTL         int64                  `dynamodbav:"TTL,omitempty"`
}

// EventLog appends domain events to the table as an audit trail.
// It satisfies ports.EventPublisher.
type EventLog struct {
	client    Client
	tableName string
	retention time.Duration
}

// NewEventLog creates a new EventLog
func NewEventLog(client Client, tableName string, retention time.Duration) *EventLog {
	if retention <= 0 {
		retention = DefaultEventRetention
	}
	return &EventLog{
		client:    client,
		tableName: tableName,
		retention: retention,
	}
}

// Publish appends a single event
func (l *EventLog) Publish(ctx context.Context, event events.DomainEvent) error {
	return l.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch appends events in batches of 25
func (l *EventLog) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	if len(domainEvents) == 0 {
		return nil
	}

	writeRequests := make([]types.WriteRequest, 0, len(domainEvents))
	for _, event := range domainEvents {
		record, err := l.toRecord(event)
		if err != nil {
			return fmt.Errorf("failed to convert event to record: %w", err)
		}
		item, err := attributevalue.MarshalMap(record)
		if err != nil {
			return fmt.Errorf("failed to marshal event record: %w", err)
		}
		writeRequests = append(writeRequests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: item},
		})
	}

	for i := 0; i < len(writeRequests); i += maxBatchWrite {
		end := i + maxBatchWrite
		if end > len(writeRequests) {
			end = len(writeRequests)
		}

		result, err := l.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				l.tableName: writeRequests[i:end],
			},
		})
		if err != nil {
			return fmt.Errorf("failed to write events batch: %w", err)
		}
		if n := len(result.UnprocessedItems[l.tableName]); n > 0 {
			return fmt.Errorf("failed to write %d events", n)
		}
	}
	return nil
}

// Recent returns up to limit records for aggregateID, newest first
func (l *EventLog) Recent(ctx context.Context, aggregateID string, limit int32) ([]EventRecord, error) {
	keyCond := expression.Key("PK").Equal(expression.Value("EVENTS#" + aggregateID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build key condition: %w", err)
	}

	result, err := l.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(l.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	records := make([]EventRecord, 0, len(result.Items))
	for _, item := range result.Items {
		var record EventRecord
		if err := attributevalue.UnmarshalMap(item, &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event record: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (l *EventLog) toRecord(event events.DomainEvent) (*EventRecord, error) {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	eventData := make(map[string]interface{})
	if err := json.Unmarshal(eventBytes, &eventData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event to map: %w", err)
	}

	timestamp := event.GetTimestamp().UTC()
	eventID := uuid.New().String()

	return &EventRecord{
		PK:          "EVENTS#" + event.GetAggregateID(),
		SK:          fmt.Sprintf("EVENT#%s#%s", timestamp.Format(time.RFC3339Nano), eventID),
		EventID:     eventID,
		EventType:   event.GetEventType(),
		AggregateID: event.GetAggregateID(),
		EventData:   eventData,
		Timestamp:   timestamp.Format(time.RFC3339),
		Version:     event.GetVersion(),
		TTL:         timestamp.Add(l.retention).Unix(),
	}, nil
}
