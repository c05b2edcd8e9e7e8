package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/encoreline/backend/internal/models"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CountRepository derives the relation counts shown next to a profile.
// Read-only: callers re-invoke after any mutation or invalidation event.
type CountRepository interface {
	FollowerCount(ctx context.Context, userID uint) (int64, error)
	FollowingCount(ctx context.Context, userID uint) (int64, error)
	FriendCount(ctx context.Context, userID uint) (int64, error)
	PendingRequestCount(ctx context.Context, userID uint) (int64, error)
}

// countCacheTTL keeps Redis entries short-lived; invalidation events make
// clients re-read well before expiry anyway.
const countCacheTTL = 30 * time.Second

// RelationCountRepository implements CountRepository over the denormalized
// counters on the user row, a Redis cache in front of them, and direct
// COUNT queries as the fallback.
type RelationCountRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewRelationCountRepository creates a new RelationCountRepository. rdb may
// be nil; counts then skip the cache layer.
func NewRelationCountRepository(db *gorm.DB, rdb *redis.Client) *RelationCountRepository {
	return &RelationCountRepository{db: db, rdb: rdb}
}

// FollowerCount prefers the precomputed aggregate on the user row. When the
// row is missing or the counter has drifted negative, it falls back to a
// direct count over follow edges. Never returns a negative number.
func (r *RelationCountRepository) FollowerCount(ctx context.Context, userID uint) (int64, error) {
	return r.cached(ctx, fmt.Sprintf("counts:followers:%d", userID), func() (int64, error) {
		var user models.User
		err := r.db.Select("followers_count").First(&user, userID).Error
		if err == nil && user.FollowersCount >= 0 {
			return user.FollowersCount, nil
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, err
		}
		var count int64
		if err := r.db.Model(&models.Follow{}).Where("following_id = ?", userID).Count(&count).Error; err != nil {
			return 0, err
		}
		return count, nil
	})
}

// FollowingCount mirrors FollowerCount for the outgoing direction.
func (r *RelationCountRepository) FollowingCount(ctx context.Context, userID uint) (int64, error) {
	return r.cached(ctx, fmt.Sprintf("counts:following:%d", userID), func() (int64, error) {
		var user models.User
		err := r.db.Select("following_count").First(&user, userID).Error
		if err == nil && user.FollowingCount >= 0 {
			return user.FollowingCount, nil
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, err
		}
		var count int64
		if err := r.db.Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&count).Error; err != nil {
			return 0, err
		}
		return count, nil
	})
}

// FriendCount is a direct count over the user's directed friendship rows.
func (r *RelationCountRepository) FriendCount(ctx context.Context, userID uint) (int64, error) {
	return r.cached(ctx, fmt.Sprintf("counts:friends:%d", userID), func() (int64, error) {
		var count int64
		err := r.db.Model(&models.Friendship{}).
			Where("user_id = ? AND status = ?", userID, models.FriendRequestAccepted).
			Count(&count).Error
		return count, err
	})
}

// PendingRequestCount drives the pending-request badge, so it is always a
// direct count and never cached.
func (r *RelationCountRepository) PendingRequestCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.FriendRequest{}).
		Where("receiver_id = ? AND status = ?", userID, models.FriendRequestPending).
		Count(&count).Error
	return count, err
}

// cached reads key from Redis before computing; cache faults fall through
// to compute so a dead Redis never breaks count reads.
func (r *RelationCountRepository) cached(ctx context.Context, key string, compute func() (int64, error)) (int64, error) {
	if r.rdb != nil {
		if val, err := r.rdb.Get(ctx, key).Result(); err == nil {
			if n, perr := strconv.ParseInt(val, 10, 64); perr == nil {
				return clamp(n), nil
			}
		}
	}
	n, err := compute()
	if err != nil {
		return 0, err
	}
	n = clamp(n)
	if r.rdb != nil {
		r.rdb.Set(ctx, key, strconv.FormatInt(n, 10), countCacheTTL)
	}
	return n, nil
}

func clamp(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
