package aggregate

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type counter struct {
	ID      string `json:"id"`
	Total   int    `json:"total"`
	Version int    `json:"version"`
}

type added struct {
	N int `json:"n"`
}

func (c *counter) GetID() string   { return c.ID }
func (c *counter) GetVersion() int { return c.Version }

func (c *counter) ApplyEvent(e store.Event) error {
	var data added
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return err
	}
	c.ID = e.AggregateID
	c.Total += data.N
	c.Version = e.Version
	return nil
}

func newCounter() *counter { return &counter{} }

func TestLoadAggregate_NoHistory(t *testing.T) {
	es := mocks.NewMockEventStore()

	c, found, err := LoadAggregate(context.Background(), es, "c-1", newCounter)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, c.Total)
}

func TestLoadAggregate_ReplaysEvents(t *testing.T) {
	es := mocks.NewMockEventStore()
	for i := 1; i <= 3; i++ {
		require.NoError(t, es.AddEvent("c-1", "Counter", "Added", added{N: i}))
	}

	c, found, err := LoadAggregate(context.Background(), es, "c-1", newCounter)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 6, c.Total)
	assert.Equal(t, 3, c.Version)
}

func TestLoadAggregate_StartsFromSnapshot(t *testing.T) {
	es := mocks.NewMockEventStore()
	for i := 0; i < 12; i++ {
		require.NoError(t, es.AddEvent("c-1", "Counter", "Added", added{N: 1}))
	}
	state, _ := json.Marshal(counter{ID: "c-1", Total: 100, Version: 10})
	es.SetSnapshot(store.Snapshot{AggregateID: "c-1", AggregateType: "Counter", Version: 10, State: state})

	c, found, err := LoadAggregate(context.Background(), es, "c-1", newCounter)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 102, c.Total, "snapshot state plus events 11 and 12")
	assert.Equal(t, 12, c.Version)
}

func TestLoadAggregate_SnapshotError(t *testing.T) {
	es := mocks.NewMockEventStore()
	es.GetSnapshotErr = errors.New("db down")

	_, _, err := LoadAggregate(context.Background(), es, "c-1", newCounter)
	assert.Error(t, err)
}

func TestCommit_AppliesEventAndSnapshotsAtThreshold(t *testing.T) {
	ctx := context.Background()
	es := mocks.NewMockEventStore()
	c := &counter{ID: "c-1"}

	for i := 0; i < store.SnapshotThreshold; i++ {
		_, err := Commit(ctx, es, nil, c, "Counter", "Added", added{N: 2})
		require.NoError(t, err)
	}

	assert.Equal(t, 20, c.Total)
	assert.Equal(t, 10, c.Version)
	require.Len(t, es.SaveSnapshotCalls, 1)
	assert.Equal(t, 10, es.SaveSnapshotCalls[0].Version)

	var snap counter
	require.NoError(t, json.Unmarshal(es.SaveSnapshotCalls[0].State, &snap))
	assert.Equal(t, 20, snap.Total, "snapshot holds the state after the tenth event")
}

func TestCommit_SnapshotFailureIsLogged(t *testing.T) {
	ctx := context.Background()
	es := mocks.NewMockEventStore()
	es.SaveSnapshotErr = errors.New("disk full")
	core, logs := observer.New(zap.WarnLevel)
	c := &counter{ID: "c-1"}

	for i := 0; i < store.SnapshotThreshold; i++ {
		_, err := Commit(ctx, es, zap.New(core), c, "Counter", "Added", added{N: 1})
		require.NoError(t, err)
	}

	assert.Equal(t, 1, logs.FilterMessage("failed to create snapshot").Len())
}

func TestCommit_AppendError(t *testing.T) {
	es := mocks.NewMockEventStore()
	es.AppendErr = store.ErrVersionConflict
	c := &counter{ID: "c-1"}

	_, err := Commit(context.Background(), es, nil, c, "Counter", "Added", added{N: 1})
	assert.ErrorIs(t, err, store.ErrVersionConflict)
	assert.Equal(t, 0, c.Total)
}
