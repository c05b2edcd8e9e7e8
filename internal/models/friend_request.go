package models

import "time"

// FriendRequestStatus represents the lifecycle state of a friend request.
type FriendRequestStatus string

const (
	// FriendRequestPending is the initial state of every request.
	FriendRequestPending FriendRequestStatus = "pending"
	// FriendRequestAccepted is terminal; reached only from pending.
	FriendRequestAccepted FriendRequestStatus = "accepted"
	// FriendRequestDeclined is terminal; a later resend reopens the row.
	FriendRequestDeclined FriendRequestStatus = "declined"
)

// FriendRequest is the pending proposal preceding a friendship. One row per
// (sender, receiver) pair; sending again upserts onto the existing row,
// which resets a declined request back to pending.
type FriendRequest struct {
	ID         uint                `json:"id" gorm:"primaryKey"`
	SenderID   uint                `json:"sender_id" gorm:"index;uniqueIndex:idx_sender_receiver"`
	ReceiverID uint                `json:"receiver_id" gorm:"index;uniqueIndex:idx_sender_receiver"`
	Status     FriendRequestStatus `json:"status" gorm:"type:varchar(20);default:'pending'"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`

	Sender *User `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
}

// CreateFriendRequest defines the request body for sending a friend request
type CreateFriendRequest struct {
	ReceiverID uint `json:"receiver_id" validate:"required"`
}
