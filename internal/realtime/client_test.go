package realtime

import (
	"testing"

	"github.com/regami-app/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(seq uint64) models.Event {
	return models.Event{Type: models.EventNewMatch, Seq: seq}
}

// drain reads everything currently queued for the write pump.
func drain(c *Client) []models.Event {
	var out []models.Event
	for {
		select {
		case evt := <-c.send:
			out = append(out, evt)
		default:
			return out
		}
	}
}

func TestClientBuffersDuringBackfill(t *testing.T) {
	c := NewClient(1, nil)

	// Live events arriving while the missed-event query runs are held back.
	assert.True(t, c.Deliver(event(5)))
	assert.True(t, c.Deliver(event(6)))
	assert.Empty(t, drain(c))

	require.True(t, c.FinishBackfill([]models.Event{event(3), event(4)}))

	got := drain(c)
	require.Len(t, got, 4)
	for i, evt := range got {
		assert.Equal(t, uint64(i+3), evt.Seq, "events must come out in sequence order")
	}
}

func TestFinishBackfillDropsOverlapWithLiveEvents(t *testing.T) {
	c := NewClient(1, nil)

	// Seq 4 was both written to the log before the backfill query and pushed
	// live while it ran; the client must send it once.
	assert.True(t, c.Deliver(event(4)))
	assert.True(t, c.Deliver(event(5)))
	require.True(t, c.FinishBackfill([]models.Event{event(3), event(4)}))

	got := drain(c)
	require.Len(t, got, 3)
	assert.Equal(t, uint64(3), got[0].Seq)
	assert.Equal(t, uint64(4), got[1].Seq)
	assert.Equal(t, uint64(5), got[2].Seq)
}

func TestDeliverDropsStaleSequences(t *testing.T) {
	c := NewClient(1, nil)
	require.True(t, c.FinishBackfill(nil))

	assert.True(t, c.Deliver(event(7)))
	// A duplicate or older event is swallowed, not re-sent.
	assert.True(t, c.Deliver(event(7)))
	assert.True(t, c.Deliver(event(6)))
	assert.True(t, c.Deliver(event(8)))

	got := drain(c)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(7), got[0].Seq)
	assert.Equal(t, uint64(8), got[1].Seq)
}

func TestDeliverSlowConsumer(t *testing.T) {
	c := NewClient(1, nil)
	c.send = make(chan models.Event, 2)
	require.True(t, c.FinishBackfill(nil))

	assert.True(t, c.Deliver(event(1)))
	assert.True(t, c.Deliver(event(2)))
	// The buffer is full and nothing is reading: the caller must drop us.
	assert.False(t, c.Deliver(event(3)))
}

func TestDeliverAfterClose(t *testing.T) {
	c := NewClient(1, nil)
	c.Close()
	c.Close() // idempotent

	assert.False(t, c.Deliver(event(1)))
	assert.False(t, c.FinishBackfill(nil))
}
