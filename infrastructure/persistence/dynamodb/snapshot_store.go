package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const snapshotSortKey = "SNAPSHOT"

// SnapshotStore implements ports.SnapshotStore with one item per key
type SnapshotStore struct {
	client    Client
	tableName string
	logger    *zap.Logger
	now       func() time.Time
}

// NewSnapshotStore creates a new SnapshotStore
func NewSnapshotStore(client Client, tableName string, logger *zap.Logger) *SnapshotStore {
	return &SnapshotStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
		now:       time.Now,
	}
}

// snapshotItem represents the DynamoDB item structure for a stored document
type snapshotItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	Data       []byte `dynamodbav:"Data"`
	Size       int    `dynamodbav:"Size"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
}

func snapshotKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "APP#" + key},
		"SK": &types.AttributeValueMemberS{Value: snapshotSortKey},
	}
}

// Get loads the stored document bytes
func (s *SnapshotStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	proj := expression.NamesList(expression.Name("Data"), expression.Name("UpdatedAt"))
	expr, err := expression.NewBuilder().WithProjection(proj).Build()
	if err != nil {
		return nil, false, fmt.Errorf("failed to build projection: %w", err)
	}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(s.tableName),
		Key:                      snapshotKey(key),
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
		ConsistentRead:           aws.Bool(true),
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get snapshot: %w", err)
	}
	if result.Item == nil {
		return nil, false, nil
	}

	var item snapshotItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	s.logger.Debug("Loaded snapshot from DynamoDB",
		zap.String("key", key),
		zap.Int("size", len(item.Data)),
		zap.String("updatedAt", item.UpdatedAt),
	)
	return item.Data, true, nil
}

// Put replaces the stored document
func (s *SnapshotStore) Put(ctx context.Context, key string, data []byte) error {
	item := snapshotItem{
		PK:         "APP#" + key,
		SK:         snapshotSortKey,
		EntityType: "SNAPSHOT",
		Data:       data,
		Size:       len(data),
		UpdatedAt:  s.now().UTC().Format(time.RFC3339Nano),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("failed to put snapshot: %w", err)
	}
	return nil
}

// Delete removes the stored document; a missing item is not an error
func (s *SnapshotStore) Delete(ctx context.Context, key string) error {
	cond := expression.AttributeExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(s.tableName),
		Key:                      snapshotKey(key),
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			return nil
		}
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
