package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"canvas-ai/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLog_PublishAndRecent(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	log := NewEventLog(client, "canvas", time.Hour)

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	var batch []events.DomainEvent
	for i := 0; i < 30; i++ {
		batch = append(batch, events.NewGraphPatched([]string{fmt.Sprintf("add_node %d", i)}, i+1, base.Add(time.Duration(i)*time.Second)))
	}

	require.NoError(t, log.PublishBatch(ctx, batch))
	assert.Equal(t, 2, client.batches, "30 events need two batches of at most 25")

	records, err := log.Recent(ctx, events.GraphAggregateID, 5)
	require.NoError(t, err)
	require.Len(t, records, 5)

	newest := records[0]
	assert.Equal(t, events.TypeGraphPatched, newest.EventType)
	assert.Equal(t, 30, newest.Version)
	assert.Equal(t, "EVENTS#"+events.GraphAggregateID, newest.PK)
	assert.True(t, strings.HasPrefix(newest.SK, "EVENT#2024-05-01T10:00:29Z#"))
	assert.Equal(t, base.Add(29*time.Second).Add(time.Hour).Unix(), newest.TTL)
	assert.Equal(t, events.TypeGraphPatched, newest.EventData["event_type"])
	assert.Equal(t, 26, records[4].Version)
}

func TestEventLog_Publish(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	log := NewEventLog(client, "canvas", 0)

	require.NoError(t, log.Publish(ctx, events.NewGraphCleared(time.Now())))
	require.NoError(t, log.PublishBatch(ctx, nil))
	assert.Equal(t, 1, client.batches)

	client.err = errors.New("unavailable")
	assert.Error(t, log.Publish(ctx, events.NewGraphCleared(time.Now())))
}
