package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// MetricsPublisher is the subset of the CloudWatch client used here
type MetricsPublisher interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics sends command metrics to CloudWatch.
// A nil receiver or nil client makes every call a no-op.
type CloudWatchMetrics struct {
	namespace string
	client    MetricsPublisher
	logger    *zap.Logger
}

// NewCloudWatchMetrics creates a new metrics instance
func NewCloudWatchMetrics(namespace string, client MetricsPublisher, logger *zap.Logger) *CloudWatchMetrics {
	return &CloudWatchMetrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

// RecordCommandExecution records metrics for command execution
func (m *CloudWatchMetrics) RecordCommandExecution(ctx context.Context, commandName string, duration time.Duration, success bool) {
	if m == nil || m.client == nil {
		return // Skip if no client configured
	}

	status := "success"
	if !success {
		status = "failure"
	}
	dimensions := []types.Dimension{
		{Name: aws.String("CommandName"), Value: aws.String(commandName)},
		{Name: aws.String("Status"), Value: aws.String(status)},
	}
	now := time.Now()

	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String("CommandExecution"),
				Dimensions: dimensions,
				Value:      aws.Float64(float64(duration.Milliseconds())),
				Unit:       types.StandardUnitMilliseconds,
				Timestamp:  aws.Time(now),
			},
			{
				MetricName: aws.String("CommandCount"),
				Dimensions: dimensions,
				Value:      aws.Float64(1),
				Unit:       types.StandardUnitCount,
				Timestamp:  aws.Time(now),
			},
		},
	}

	// Detached from the request so a finished request doesn't drop its metrics
	if _, err := m.client.PutMetricData(context.WithoutCancel(ctx), input); err != nil {
		// Log error but don't fail the operation
		m.logger.Warn("Failed to send metrics", zap.Error(err))
	}
}
