package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framegraph/framegraph/internal/core/journal"
)

func testRecord(graphID uuid.UUID, trigger journal.Trigger, start time.Time) *journal.Record {
	return &journal.Record{
		ID:        uuid.New(),
		GraphID:   graphID,
		Trigger:   trigger,
		StartTime: start,
		EndTime:   start.Add(5 * time.Millisecond),
		Nodes: []journal.NodeRecord{
			{NodeID: uuid.New(), Duration: 3 * time.Millisecond},
		},
	}
}

func TestWriter_AppendLoad(t *testing.T) {
	w := NewWriter(Config{})
	defer w.Close()
	ctx := context.Background()

	record := testRecord(uuid.New(), journal.TriggerManual, time.Now())
	require.NoError(t, w.Append(ctx, record))

	loaded, err := w.Load(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, loaded.ID)
	assert.Equal(t, record.GraphID, loaded.GraphID)
	assert.Equal(t, journal.TriggerManual, loaded.Trigger)
	require.Len(t, loaded.Nodes, 1)
	assert.Equal(t, record.Nodes[0].NodeID, loaded.Nodes[0].NodeID)
}

func TestWriter_AppendValidates(t *testing.T) {
	w := NewWriter(Config{})
	defer w.Close()

	err := w.Append(context.Background(), &journal.Record{ID: uuid.New()})
	assert.ErrorIs(t, err, journal.ErrInvalidGraphID)
}

func TestWriter_LoadMissing(t *testing.T) {
	w := NewWriter(Config{})
	defer w.Close()

	_, err := w.Load(context.Background(), uuid.New())
	assert.ErrorIs(t, err, journal.ErrRecordNotFound)
}

func TestWriter_ListNewestFirst(t *testing.T) {
	w := NewWriter(Config{})
	defer w.Close()
	ctx := context.Background()
	graphID := uuid.New()
	base := time.Now()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		r := testRecord(graphID, journal.TriggerManual, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, w.Append(ctx, r))
		ids = append(ids, r.ID)
	}

	records, err := w.List(ctx, journal.Filter{})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, ids[2], records[0].ID)
	assert.Equal(t, ids[0], records[2].ID)
}

func TestWriter_ListFilters(t *testing.T) {
	w := NewWriter(Config{})
	defer w.Close()
	ctx := context.Background()
	graphA := uuid.New()
	graphB := uuid.New()
	base := time.Now()

	require.NoError(t, w.Append(ctx, testRecord(graphA, journal.TriggerManual, base)))
	require.NoError(t, w.Append(ctx, testRecord(graphA, journal.TriggerEdit, base.Add(time.Second))))
	require.NoError(t, w.Append(ctx, testRecord(graphB, journal.TriggerEdit, base.Add(2*time.Second))))

	t.Run("by graph", func(t *testing.T) {
		records, err := w.List(ctx, journal.Filter{GraphID: graphA})
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("by trigger", func(t *testing.T) {
		records, err := w.List(ctx, journal.Filter{Trigger: journal.TriggerEdit})
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("by since", func(t *testing.T) {
		since := base.Add(500 * time.Millisecond)
		records, err := w.List(ctx, journal.Filter{Since: &since})
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("with limit", func(t *testing.T) {
		records, err := w.List(ctx, journal.Filter{Limit: 1})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, graphB, records[0].GraphID)
	})

	t.Run("negative limit", func(t *testing.T) {
		_, err := w.List(ctx, journal.Filter{Limit: -1})
		assert.Error(t, err)
	})
}

func TestWriter_BoundsRecords(t *testing.T) {
	w := NewWriter(Config{MaxRecords: 2})
	defer w.Close()
	ctx := context.Background()
	graphID := uuid.New()

	first := testRecord(graphID, journal.TriggerManual, time.Now())
	require.NoError(t, w.Append(ctx, first))
	require.NoError(t, w.Append(ctx, testRecord(graphID, journal.TriggerManual, time.Now())))
	require.NoError(t, w.Append(ctx, testRecord(graphID, journal.TriggerManual, time.Now())))

	_, err := w.Load(ctx, first.ID)
	assert.ErrorIs(t, err, journal.ErrRecordNotFound, "oldest record drops past the bound")

	records, err := w.List(ctx, journal.Filter{})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
