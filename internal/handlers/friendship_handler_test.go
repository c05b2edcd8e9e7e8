package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/encoreline/backend/internal/models"
	"github.com/encoreline/backend/internal/realtime"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sendRequest(t *testing.T, env *testEnv, from, to uint) {
	t.Helper()
	body := fmt.Sprintf(`{"receiver_id": %d}`, to)
	c, rec := env.request(http.MethodPost, "/api/friends/request", from, body)
	require.NoError(t, env.friendship.SendFriendRequest(c))
	require.Equal(t, http.StatusCreated, rec.Code)
}

func pendingRequests(t *testing.T, env *testEnv, user uint) []models.FriendRequest {
	t.Helper()
	c, rec := env.request(http.MethodGet, "/api/friends/requests/pending", user, "")
	require.NoError(t, env.friendship.GetPendingFriendRequests(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Requests []models.FriendRequest `json:"requests"`
		Count    int                    `json:"count"`
	}
	decodeJSON(t, rec, &resp)
	require.Len(t, resp.Requests, resp.Count)
	return resp.Requests
}

func friendsOf(t *testing.T, env *testEnv, user uint) []models.User {
	t.Helper()
	c, rec := env.request(http.MethodGet, "/api/friends", user, "")
	require.NoError(t, env.friendship.GetFriends(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var friends []models.User
	decodeJSON(t, rec, &friends)
	return friends
}

func countsFor(t *testing.T, env *testEnv, asUser, userID uint) map[string]int64 {
	t.Helper()
	c, rec := env.request(http.MethodGet, "/api/users/:id/counts", asUser, "")
	env.withParam(c, "id", userID)
	require.NoError(t, env.follow.GetCounts(c))
	require.Equal(t, http.StatusOK, rec.Code)

	counts := map[string]int64{}
	decodeJSON(t, rec, &counts)
	return counts
}

// TestFriendRequestAcceptFlow walks the full lifecycle: a request is sent,
// shows up in the receiver's pending badge, and accepting it makes the
// friendship visible from both sides.
func TestFriendRequestAcceptFlow(t *testing.T) {
	env := newTestEnv(t, 2)
	alice, bob := env.users[0], env.users[1]

	sendRequest(t, env, alice, bob)

	counts := countsFor(t, env, bob, bob)
	assert.Equal(t, int64(1), counts["pending_requests"])

	pending := pendingRequests(t, env, bob)
	require.Len(t, pending, 1)
	assert.Equal(t, alice, pending[0].SenderID)
	require.NotNil(t, pending[0].Sender)
	assert.Equal(t, "fan1", pending[0].Sender.Username)

	c, rec := env.request(http.MethodPost, "/api/friends/request/:id/accept", bob, "")
	env.withParam(c, "id", pending[0].ID)
	require.NoError(t, env.friendship.AcceptFriendRequest(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var accepted struct {
		Status models.FriendRequestStatus `json:"status"`
	}
	decodeJSON(t, rec, &accepted)
	assert.Equal(t, models.FriendRequestAccepted, accepted.Status)

	counts = countsFor(t, env, bob, bob)
	assert.Zero(t, counts["pending_requests"])
	assert.Equal(t, int64(1), counts["friends"])

	bobFriends := friendsOf(t, env, bob)
	require.Len(t, bobFriends, 1)
	assert.Equal(t, alice, bobFriends[0].ID)

	aliceFriends := friendsOf(t, env, alice)
	require.Len(t, aliceFriends, 1)
	assert.Equal(t, bob, aliceFriends[0].ID)
}

// TestAcceptIsIdempotent checks that accepting twice does not duplicate
// friendship rows or fail: the second accept reports the settled status.
func TestAcceptIsIdempotent(t *testing.T) {
	env := newTestEnv(t, 2)
	alice, bob := env.users[0], env.users[1]

	sendRequest(t, env, alice, bob)
	req, err := env.requestRepo.GetBySenderReceiver(alice, bob)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		c, rec := env.request(http.MethodPost, "/api/friends/request/:id/accept", bob, "")
		env.withParam(c, "id", req.ID)
		require.NoError(t, env.friendship.AcceptFriendRequest(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Status models.FriendRequestStatus `json:"status"`
		}
		decodeJSON(t, rec, &resp)
		assert.Equal(t, models.FriendRequestAccepted, resp.Status)
	}

	assert.Len(t, friendsOf(t, env, bob), 1)
	assert.Len(t, friendsOf(t, env, alice), 1)
}

// TestAcceptRetryRepairsMissingFriendshipRows covers the crash window
// between the status flip and the mirrored writes: the request row says
// accepted but no friendship rows exist. A retried accept must write them
// instead of returning early on the terminal status.
func TestAcceptRetryRepairsMissingFriendshipRows(t *testing.T) {
	env := newTestEnv(t, 2)
	alice, bob := env.users[0], env.users[1]

	sendRequest(t, env, alice, bob)
	req, err := env.requestRepo.GetBySenderReceiver(alice, bob)
	require.NoError(t, err)

	// Flip the status the way the handler does, but stop before the
	// friendship rows are written.
	changed, err := env.requestRepo.UpdateStatusIfPending(req.ID, models.FriendRequestAccepted)
	require.NoError(t, err)
	require.True(t, changed)
	require.Empty(t, friendsOf(t, env, bob))

	c, rec := env.request(http.MethodPost, "/api/friends/request/:id/accept", bob, "")
	env.withParam(c, "id", req.ID)
	require.NoError(t, env.friendship.AcceptFriendRequest(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status models.FriendRequestStatus `json:"status"`
	}
	decodeJSON(t, rec, &resp)
	assert.Equal(t, models.FriendRequestAccepted, resp.Status)

	require.Len(t, friendsOf(t, env, bob), 1)
	require.Len(t, friendsOf(t, env, alice), 1)
}

func TestAcceptRequiresReceiver(t *testing.T) {
	env := newTestEnv(t, 3)
	alice, bob, carol := env.users[0], env.users[1], env.users[2]

	sendRequest(t, env, alice, bob)
	req, err := env.requestRepo.GetBySenderReceiver(alice, bob)
	require.NoError(t, err)

	// Neither the sender nor a bystander may settle the request.
	for _, intruder := range []uint{alice, carol} {
		c, _ := env.request(http.MethodPost, "/api/friends/request/:id/accept", intruder, "")
		env.withParam(c, "id", req.ID)
		err := env.friendship.AcceptFriendRequest(c)
		require.Error(t, err)
		httpErr, ok := err.(*echo.HTTPError)
		if assert.True(t, ok) {
			assert.Equal(t, http.StatusForbidden, httpErr.Code)
		}
	}
}

func TestAcceptUnknownRequest(t *testing.T) {
	env := newTestEnv(t, 1)

	c, _ := env.request(http.MethodPost, "/api/friends/request/:id/accept", env.users[0], "")
	env.withParam(c, "id", 424242)
	err := env.friendship.AcceptFriendRequest(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	if assert.True(t, ok) {
		assert.Equal(t, http.StatusNotFound, httpErr.Code)
	}
}

// TestResendAfterDecline verifies that declining is not a permanent ban:
// a fresh send reopens the same request row as pending.
func TestResendAfterDecline(t *testing.T) {
	env := newTestEnv(t, 2)
	alice, bob := env.users[0], env.users[1]

	sendRequest(t, env, alice, bob)
	req, err := env.requestRepo.GetBySenderReceiver(alice, bob)
	require.NoError(t, err)

	c, rec := env.request(http.MethodPost, "/api/friends/request/:id/decline", bob, "")
	env.withParam(c, "id", req.ID)
	require.NoError(t, env.friendship.DeclineFriendRequest(c))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Empty(t, pendingRequests(t, env, bob))
	assert.Empty(t, friendsOf(t, env, bob))

	sendRequest(t, env, alice, bob)

	pending := pendingRequests(t, env, bob)
	require.Len(t, pending, 1)
	assert.Equal(t, req.ID, pending[0].ID)
	assert.Equal(t, models.FriendRequestPending, pending[0].Status)
}

// TestUnfriend removes both directions and the request row, so the pair
// can start over from a clean slate.
func TestUnfriend(t *testing.T) {
	env := newTestEnv(t, 2)
	alice, bob := env.users[0], env.users[1]

	sendRequest(t, env, alice, bob)
	req, err := env.requestRepo.GetBySenderReceiver(alice, bob)
	require.NoError(t, err)

	c, _ := env.request(http.MethodPost, "/api/friends/request/:id/accept", bob, "")
	env.withParam(c, "id", req.ID)
	require.NoError(t, env.friendship.AcceptFriendRequest(c))

	c, rec := env.request(http.MethodDelete, "/api/friends/:id", alice, "")
	env.withParam(c, "id", bob)
	require.NoError(t, env.friendship.DeleteFriend(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Empty(t, friendsOf(t, env, alice))
	assert.Empty(t, friendsOf(t, env, bob))

	// The old accepted request row is gone, so a new send starts pending.
	sendRequest(t, env, bob, alice)
	pending := pendingRequests(t, env, alice)
	require.Len(t, pending, 1)
	assert.Equal(t, models.FriendRequestPending, pending[0].Status)
}

func TestUnfriendStranger(t *testing.T) {
	env := newTestEnv(t, 2)

	c, _ := env.request(http.MethodDelete, "/api/friends/:id", env.users[0], "")
	env.withParam(c, "id", env.users[1])
	err := env.friendship.DeleteFriend(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	if assert.True(t, ok) {
		assert.Equal(t, http.StatusNotFound, httpErr.Code)
	}
}

// TestAcceptJournalsAndInvalidates checks the side channels: the audit
// journal records the accept and both users get friendship invalidations.
func TestAcceptJournalsAndInvalidates(t *testing.T) {
	env := newTestEnv(t, 2)
	alice, bob := env.users[0], env.users[1]

	sendRequest(t, env, alice, bob)
	req, err := env.requestRepo.GetBySenderReceiver(alice, bob)
	require.NoError(t, err)

	invalidated := map[string]map[uint]int{
		realtime.CollectionFriendships:    {},
		realtime.CollectionFriendRequests: {},
	}
	for _, collection := range []string{realtime.CollectionFriendships, realtime.CollectionFriendRequests} {
		for _, user := range []uint{alice, bob} {
			collection, user := collection, user
			sub := env.notifier.Subscribe(collection, user, func(realtime.Event) {
				invalidated[collection][user]++
			})
			defer env.notifier.Unsubscribe(sub)
		}
	}

	c, _ := env.request(http.MethodPost, "/api/friends/request/:id/accept", bob, "")
	env.withParam(c, "id", req.ID)
	require.NoError(t, env.friendship.AcceptFriendRequest(c))

	// Both sides refresh their friends lists, and both sides refresh their
	// request views: the receiver's pending sheet and the sender's outgoing
	// request state.
	for _, collection := range []string{realtime.CollectionFriendships, realtime.CollectionFriendRequests} {
		assert.Equal(t, 1, invalidated[collection][alice], collection)
		assert.Equal(t, 1, invalidated[collection][bob], collection)
	}

	events, err := env.journal.ListByActor(context.Background(), bob, 0, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.RelationEventRequestAccept, events[0].Type)
	assert.Equal(t, alice, events[0].SubjectID)
}
