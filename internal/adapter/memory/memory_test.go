package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightdoor/leadrouter/internal/adapter/memory"
	domainassign "github.com/brightdoor/leadrouter/internal/domain/assignment"
	portassign "github.com/brightdoor/leadrouter/internal/port/assignment"
)

func TestIdempotencyCache(t *testing.T) {
	ctx := context.Background()

	t.Run("miss then hit", func(t *testing.T) {
		c := memory.NewIdempotencyCache(time.Minute)

		_, ok, err := c.Check(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, c.Record(ctx, "k", "POST /op", []byte(`{"a":1}`)))

		got, ok, err := c.Check(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte(`{"a":1}`), got)
	})

	t.Run("first write wins", func(t *testing.T) {
		c := memory.NewIdempotencyCache(time.Minute)
		require.NoError(t, c.Record(ctx, "k", "POST /op", []byte("first")))
		require.NoError(t, c.Record(ctx, "k", "POST /op", []byte("second")))

		got, ok, err := c.Check(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("first"), got)
	})

	t.Run("expired entries miss", func(t *testing.T) {
		c := memory.NewIdempotencyCache(time.Millisecond)
		require.NoError(t, c.Record(ctx, "k", "POST /op", []byte("x")))
		time.Sleep(5 * time.Millisecond)

		_, ok, err := c.Check(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestAssignmentStore_ActiveLookup(t *testing.T) {
	ctx := context.Background()
	s := memory.NewAssignmentStore()
	leadID := uuid.New()

	_, err := s.FindActiveByLead(ctx, leadID)
	assert.ErrorIs(t, err, portassign.ErrNoActiveAssignment)

	created, err := s.Create(ctx, domainassign.New(leadID, uuid.New(), domainassign.TypeAutomatic, 1, 0, 5))
	require.NoError(t, err)

	active, err := s.FindActiveByLead(ctx, leadID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, active.ID)

	_, err = s.UpdateStatus(ctx, created.ID, domainassign.StatusRejected, "")
	require.NoError(t, err)

	_, err = s.FindActiveByLead(ctx, leadID)
	assert.ErrorIs(t, err, portassign.ErrNoActiveAssignment)
}

func TestAssignmentStore_ListOrdering(t *testing.T) {
	ctx := context.Background()
	s := memory.NewAssignmentStore()
	agentID := uuid.New()

	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		a := domainassign.New(uuid.New(), agentID, domainassign.TypeManual, 1, 0, 5)
		a.AssignedAt = base.Add(time.Duration(i) * time.Minute)
		_, err := s.Create(ctx, a)
		require.NoError(t, err)
	}

	rows, err := s.ListByAgent(ctx, agentID, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i := 1; i < len(rows); i++ {
		assert.True(t, rows[i].AssignedAt.Before(rows[i-1].AssignedAt), "newest first")
	}

	limited, err := s.ListByAgent(ctx, agentID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
