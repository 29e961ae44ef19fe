package repositories

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/regami-app/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func appendNotification(t *testing.T, repo NotificationRepository, recipientID uint, msg string) *models.Notification {
	t.Helper()
	n := &models.Notification{
		RecipientID: recipientID,
		Type:        models.EventNewMatch,
		Payload:     json.RawMessage(`{"match_id":1}`),
		Message:     msg,
	}
	require.NoError(t, repo.Append(n))
	return n
}

func TestAppendAssignsGapFreeSequence(t *testing.T) {
	repo := NewPostgresNotificationRepository(newTestDB(t))

	for i := 1; i <= 5; i++ {
		n := appendNotification(t, repo, 1, fmt.Sprintf("event %d", i))
		assert.Equal(t, uint64(i), n.Seq)
	}
}

func TestAppendSequencesAreIndependentPerRecipient(t *testing.T) {
	repo := NewPostgresNotificationRepository(newTestDB(t))

	a1 := appendNotification(t, repo, 1, "a1")
	b1 := appendNotification(t, repo, 2, "b1")
	a2 := appendNotification(t, repo, 1, "a2")

	assert.Equal(t, uint64(1), a1.Seq)
	assert.Equal(t, uint64(1), b1.Seq)
	assert.Equal(t, uint64(2), a2.Seq)
}

func TestAppendConcurrentProducers(t *testing.T) {
	repo := NewPostgresNotificationRepository(newTestDB(t))

	// Many producers race to append for the same recipient, including the
	// allocation of their very first sequence number.
	const producers = 16
	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n := &models.Notification{
				RecipientID: 1,
				Type:        models.EventNewMatch,
				Message:     fmt.Sprintf("producer %d", i),
			}
			assert.NoError(t, repo.Append(n))
		}(i)
	}
	wg.Wait()

	// The feed holds exactly seq 1..producers, no gaps, no duplicates.
	got, err := repo.ListSince(1, 0, 0)
	require.NoError(t, err)
	require.Len(t, got, producers)
	for i, n := range got {
		assert.Equal(t, uint64(i+1), n.Seq)
	}
}

func TestListSince(t *testing.T) {
	repo := NewPostgresNotificationRepository(newTestDB(t))

	for i := 1; i <= 4; i++ {
		appendNotification(t, repo, 1, fmt.Sprintf("event %d", i))
	}
	appendNotification(t, repo, 2, "other user")

	got, err := repo.ListSince(1, 2, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(3), got[0].Seq)
	assert.Equal(t, uint64(4), got[1].Seq)

	// since_seq=0 means the full feed, in sequence order.
	all, err := repo.ListSince(1, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i, n := range all {
		assert.Equal(t, uint64(i+1), n.Seq)
	}

	// Limit caps the page.
	page, err := repo.ListSince(1, 0, 3)
	require.NoError(t, err)
	assert.Len(t, page, 3)
}

func TestMarkReadAndUnreadCount(t *testing.T) {
	repo := NewPostgresNotificationRepository(newTestDB(t))

	n1 := appendNotification(t, repo, 1, "one")
	appendNotification(t, repo, 1, "two")

	count, err := repo.UnreadCount(1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, repo.MarkRead(n1.ID, 1))

	count, err = repo.UnreadCount(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMarkReadRejectsOtherRecipients(t *testing.T) {
	repo := NewPostgresNotificationRepository(newTestDB(t))

	n := appendNotification(t, repo, 1, "mine")

	assert.ErrorIs(t, repo.MarkRead(n.ID, 2), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.MarkRead(999, 1), gorm.ErrRecordNotFound)
}

func TestMarkAllRead(t *testing.T) {
	repo := NewPostgresNotificationRepository(newTestDB(t))

	appendNotification(t, repo, 1, "one")
	appendNotification(t, repo, 1, "two")
	appendNotification(t, repo, 2, "other")

	require.NoError(t, repo.MarkAllRead(1))

	count, err := repo.UnreadCount(1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	count, err = repo.UnreadCount(2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
