package repositories

import (
	"github.com/encoreline/backend/internal/apperrors"
	"github.com/encoreline/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FriendRequestRepository defines the interface for friend request operations
type FriendRequestRepository interface {
	Send(senderID, receiverID uint) (*models.FriendRequest, error)
	GetByID(id uint) (*models.FriendRequest, error)
	GetBySenderReceiver(senderID, receiverID uint) (*models.FriendRequest, error)
	ListPendingFor(receiverID uint) ([]models.FriendRequest, error)
	PendingCountFor(receiverID uint) (int64, error)
	UpdateStatusIfPending(id uint, status models.FriendRequestStatus) (bool, error)
	DeleteBetween(userA, userB uint) error
}

// PostgresFriendRequestRepository implements FriendRequestRepository for PostgreSQL
type PostgresFriendRequestRepository struct {
	db *gorm.DB
}

// NewPostgresFriendRequestRepository creates a new PostgresFriendRequestRepository
func NewPostgresFriendRequestRepository(db *gorm.DB) *PostgresFriendRequestRepository {
	return &PostgresFriendRequestRepository{db: db}
}

// Send upserts a friend request keyed on (sender_id, receiver_id). Because
// this is an upsert rather than insert-if-absent, sending again after a
// decline resets the row to pending: the sender is allowed to ask again.
func (r *PostgresFriendRequestRepository) Send(senderID, receiverID uint) (*models.FriendRequest, error) {
	if senderID == receiverID {
		return nil, apperrors.NewInvalidTarget("cannot send a friend request to yourself")
	}
	req := &models.FriendRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     models.FriendRequestPending,
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sender_id"}, {Name: "receiver_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"status": models.FriendRequestPending}),
	}).Create(req).Error
	if err != nil {
		return nil, err
	}
	// The upsert path does not populate the ID of a pre-existing row, so
	// read the row back.
	return r.GetBySenderReceiver(senderID, receiverID)
}

// GetByID retrieves a friend request by ID
func (r *PostgresFriendRequestRepository) GetByID(id uint) (*models.FriendRequest, error) {
	var req models.FriendRequest
	if err := r.db.First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// GetBySenderReceiver retrieves a friend request by sender and receiver IDs
func (r *PostgresFriendRequestRepository) GetBySenderReceiver(senderID, receiverID uint) (*models.FriendRequest, error) {
	var req models.FriendRequest
	if err := r.db.Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// ListPendingFor retrieves all pending friend requests addressed to a user,
// sender profile preloaded for display.
func (r *PostgresFriendRequestRepository) ListPendingFor(receiverID uint) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := r.db.Preload("Sender").
		Where("receiver_id = ? AND status = ?", receiverID, models.FriendRequestPending).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// PendingCountFor counts pending requests addressed to a user.
func (r *PostgresFriendRequestRepository) PendingCountFor(receiverID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.FriendRequest{}).
		Where("receiver_id = ? AND status = ?", receiverID, models.FriendRequestPending).
		Count(&count).Error
	return count, err
}

// UpdateStatusIfPending moves a request to a terminal status, but only if
// it is still pending. The WHERE clause doubles as a compare-and-swap: a
// concurrent accept or decline that got there first leaves zero rows
// affected, which the caller treats as a silent no-op. Transitions are
// monotonic; a terminal row is never rewritten here.
func (r *PostgresFriendRequestRepository) UpdateStatusIfPending(id uint, status models.FriendRequestStatus) (bool, error) {
	res := r.db.Model(&models.FriendRequest{}).
		Where("id = ? AND status = ?", id, models.FriendRequestPending).
		Update("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteBetween removes the request row between two users in either
// direction. Used by unfriend so a stale accepted request does not linger.
func (r *PostgresFriendRequestRepository) DeleteBetween(userA, userB uint) error {
	return r.db.Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
		userA, userB, userB, userA).Delete(&models.FriendRequest{}).Error
}
