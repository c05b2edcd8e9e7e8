package repositories

import (
	"testing"

	"github.com/encoreline/backend/internal/apperrors"
	"github.com/encoreline/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendFriendRequest(t *testing.T) {
	db := openTestDB(t)
	users := seedUsers(t, db, 2)
	repo := NewPostgresFriendRequestRepository(db)

	req, err := repo.Send(users[0], users[1])
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestPending, req.Status)
	assert.Equal(t, users[0], req.SenderID)
	assert.Equal(t, users[1], req.ReceiverID)

	count, err := repo.PendingCountFor(users[1])
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Sending again while pending keeps a single row.
	again, err := repo.Send(users[0], users[1])
	require.NoError(t, err)
	assert.Equal(t, req.ID, again.ID)

	count, err = repo.PendingCountFor(users[1])
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSendFriendRequestToSelfRejected(t *testing.T) {
	db := openTestDB(t)
	users := seedUsers(t, db, 1)
	repo := NewPostgresFriendRequestRepository(db)

	_, err := repo.Send(users[0], users[0])
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidTarget, apperrors.CodeOf(err))

	var rows int64
	require.NoError(t, db.Model(&models.FriendRequest{}).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestStatusTransitionsAreMonotonic(t *testing.T) {
	db := openTestDB(t)
	users := seedUsers(t, db, 2)
	repo := NewPostgresFriendRequestRepository(db)

	req, err := repo.Send(users[0], users[1])
	require.NoError(t, err)

	changed, err := repo.UpdateStatusIfPending(req.ID, models.FriendRequestAccepted)
	require.NoError(t, err)
	assert.True(t, changed)

	// A second accept and a late decline are both silent no-ops.
	changed, err = repo.UpdateStatusIfPending(req.ID, models.FriendRequestAccepted)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = repo.UpdateStatusIfPending(req.ID, models.FriendRequestDeclined)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := repo.GetByID(req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestAccepted, got.Status)
}

func TestResendAfterDeclineReopensRequest(t *testing.T) {
	db := openTestDB(t)
	users := seedUsers(t, db, 2)
	repo := NewPostgresFriendRequestRepository(db)

	req, err := repo.Send(users[0], users[1])
	require.NoError(t, err)

	changed, err := repo.UpdateStatusIfPending(req.ID, models.FriendRequestDeclined)
	require.NoError(t, err)
	require.True(t, changed)

	count, err := repo.PendingCountFor(users[1])
	require.NoError(t, err)
	assert.Zero(t, count)

	// Resending upserts onto the declined row and resets it to pending:
	// the sender is allowed to ask again.
	reopened, err := repo.Send(users[0], users[1])
	require.NoError(t, err)
	assert.Equal(t, req.ID, reopened.ID)
	assert.Equal(t, models.FriendRequestPending, reopened.Status)

	count, err = repo.PendingCountFor(users[1])
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestListPendingFor(t *testing.T) {
	db := openTestDB(t)
	users := seedUsers(t, db, 3)
	repo := NewPostgresFriendRequestRepository(db)

	_, err := repo.Send(users[0], users[2])
	require.NoError(t, err)
	_, err = repo.Send(users[1], users[2])
	require.NoError(t, err)

	requests, err := repo.ListPendingFor(users[2])
	require.NoError(t, err)
	require.Len(t, requests, 2)
	for _, req := range requests {
		require.NotNil(t, req.Sender)
		assert.NotEmpty(t, req.Sender.Username)
	}

	// Requests addressed to someone else stay out of the list.
	requests, err = repo.ListPendingFor(users[0])
	require.NoError(t, err)
	assert.Empty(t, requests)
}

func TestDeleteBetweenRemovesEitherDirection(t *testing.T) {
	db := openTestDB(t)
	users := seedUsers(t, db, 2)
	repo := NewPostgresFriendRequestRepository(db)

	_, err := repo.Send(users[1], users[0])
	require.NoError(t, err)

	require.NoError(t, repo.DeleteBetween(users[0], users[1]))

	_, err = repo.GetBySenderReceiver(users[1], users[0])
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
