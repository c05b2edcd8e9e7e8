package repositories

import (
	"fmt"
	"log"

	"github.com/encoreline/backend/internal/apperrors"
	"github.com/encoreline/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FriendshipRepository defines the interface for friendship operations.
// Friendships are stored as two mirrored directed rows so each side can
// list its friends with a single directed query.
type FriendshipRepository interface {
	UpsertDirected(userID, friendID uint) error
	Reconcile(senderID, receiverID uint) error
	ListFriends(userID uint) ([]models.User, error)
	AreFriends(userID, friendID uint) (bool, error)
	FriendCount(userID uint) (int64, error)
	DeleteBoth(userA, userB uint) error
}

// PostgresFriendshipRepository implements FriendshipRepository for PostgreSQL
type PostgresFriendshipRepository struct {
	db *gorm.DB
}

// NewPostgresFriendshipRepository creates a new PostgresFriendshipRepository
func NewPostgresFriendshipRepository(db *gorm.DB) *PostgresFriendshipRepository {
	return &PostgresFriendshipRepository{db: db}
}

// UpsertDirected writes one direction of a friendship, keyed on
// (user_id, friend_id) so retries are idempotent.
func (r *PostgresFriendshipRepository) UpsertDirected(userID, friendID uint) error {
	row := &models.Friendship{
		UserID:   userID,
		FriendID: friendID,
		Status:   models.FriendRequestAccepted,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "friend_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"status": models.FriendRequestAccepted}),
	}).Create(row).Error
}

// Reconcile turns an accepted request (sender -> receiver) into a
// bidirectionally queryable friendship via two independent upserts. The
// writes are intentionally not wrapped in a transaction; see reconcile for
// the tolerance policy.
func (r *PostgresFriendshipRepository) Reconcile(senderID, receiverID uint) error {
	return reconcile(r.UpsertDirected, senderID, receiverID)
}

// reconcile issues the receiver->sender row first, then the mirror. A
// duplicate on either side is success (the row is already there). Any
// failure on one side is tolerated when the other side landed: a one-sided
// friendship is accepted skew, and the next accept or retry writes the
// missing mirror. Only when neither direction produced a row does the
// whole operation fail.
func reconcile(upsert func(userID, friendID uint) error, senderID, receiverID uint) error {
	err1 := upsert(receiverID, senderID)
	err2 := upsert(senderID, receiverID)

	ok1 := err1 == nil || apperrors.IsDuplicate(err1)
	ok2 := err2 == nil || apperrors.IsDuplicate(err2)

	switch {
	case ok1 && ok2:
		return nil
	case ok1:
		log.Printf("friendship mirror (%d -> %d) failed, one-sided until retry: %v", senderID, receiverID, err2)
		return nil
	case ok2:
		log.Printf("friendship mirror (%d -> %d) failed, one-sided until retry: %v", receiverID, senderID, err1)
		return nil
	}
	return fmt.Errorf("failed to create friendship between %d and %d: %v; mirror: %v", senderID, receiverID, err1, err2)
}

// ListFriends returns the profiles of everyone the user has a directed
// friendship row towards.
func (r *PostgresFriendshipRepository) ListFriends(userID uint) ([]models.User, error) {
	var friends []models.User
	err := r.db.Where("id IN (?)",
		r.db.Table("friendships").Select("friend_id").Where("user_id = ? AND status = ?", userID, models.FriendRequestAccepted),
	).Find(&friends).Error
	return friends, err
}

// AreFriends reports whether the friendship is visible from userID's side.
func (r *PostgresFriendshipRepository) AreFriends(userID, friendID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Friendship{}).
		Where("user_id = ? AND friend_id = ? AND status = ?", userID, friendID, models.FriendRequestAccepted).
		Count(&count).Error
	return count > 0, err
}

// FriendCount counts the user's directed friendship rows.
func (r *PostgresFriendshipRepository) FriendCount(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Friendship{}).
		Where("user_id = ? AND status = ?", userID, models.FriendRequestAccepted).
		Count(&count).Error
	return count, err
}

// DeleteBoth removes both mirrored rows (unfriend). Missing rows are fine;
// a one-sided friendship unfriends cleanly too.
func (r *PostgresFriendshipRepository) DeleteBoth(userA, userB uint) error {
	return r.db.Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
		userA, userB, userB, userA).Delete(&models.Friendship{}).Error
}
