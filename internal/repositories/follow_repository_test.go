package repositories

import (
	"testing"

	"github.com/encoreline/backend/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowIdempotent(t *testing.T) {
	db := openTestDB(t)
	users := seedUsers(t, db, 2)
	repo := NewPostgresFollowRepository(db)

	created, err := repo.Follow(users[0], users[1])
	require.NoError(t, err)
	assert.True(t, created)

	// Second follow of the same target is not an error and creates nothing.
	created, err = repo.Follow(users[0], users[1])
	require.NoError(t, err)
	assert.False(t, created)

	count, err := repo.GetFollowersCount(users[1])
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestFollowSelfRejected(t *testing.T) {
	db := openTestDB(t)
	users := seedUsers(t, db, 1)
	repo := NewPostgresFollowRepository(db)

	_, err := repo.Follow(users[0], users[0])
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidTarget, apperrors.CodeOf(err))

	count, err := repo.GetFollowersCount(users[0])
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUnfollowMissingEdgeIsNoop(t *testing.T) {
	db := openTestDB(t)
	users := seedUsers(t, db, 2)
	repo := NewPostgresFollowRepository(db)

	removed, err := repo.Unfollow(users[0], users[1])
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestFollowUnfollowCountScenario(t *testing.T) {
	db := openTestDB(t)
	users := seedUsers(t, db, 2)
	repo := NewPostgresFollowRepository(db)

	_, err := repo.Follow(users[0], users[1])
	require.NoError(t, err)

	count, err := repo.GetFollowersCount(users[1])
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	following, err := repo.IsFollowing(users[0], users[1])
	require.NoError(t, err)
	assert.True(t, following)

	removed, err := repo.Unfollow(users[0], users[1])
	require.NoError(t, err)
	assert.True(t, removed)

	count, err = repo.GetFollowersCount(users[1])
	require.NoError(t, err)
	assert.Zero(t, count)

	following, err = repo.IsFollowing(users[0], users[1])
	require.NoError(t, err)
	assert.False(t, following)
}

func TestFollowLists(t *testing.T) {
	db := openTestDB(t)
	users := seedUsers(t, db, 3)
	repo := NewPostgresFollowRepository(db)

	_, err := repo.Follow(users[0], users[2])
	require.NoError(t, err)
	_, err = repo.Follow(users[1], users[2])
	require.NoError(t, err)

	followers, err := repo.GetFollowers(users[2])
	require.NoError(t, err)
	require.Len(t, followers, 2)

	following, err := repo.GetFollowing(users[0])
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, users[2], following[0].ID)

	ids, err := repo.GetFollowingIDs(users[0])
	require.NoError(t, err)
	assert.Equal(t, []uint{users[2]}, ids)
}
