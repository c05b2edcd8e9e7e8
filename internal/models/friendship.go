package models

import "time"

// Friendship is one direction of a mutual relation. An accepted request
// produces two mirrored rows, (A,B) and (B,A), so "my friends" from either
// side is a single directed lookup. The mirror is eventually consistent:
// the two rows are written independently and a crash between them leaves a
// one-sided friendship until the next accept repairs it.
type Friendship struct {
	ID        uint                `json:"id" gorm:"primaryKey"`
	UserID    uint                `json:"user_id" gorm:"index;uniqueIndex:idx_user_friend"`
	FriendID  uint                `json:"friend_id" gorm:"uniqueIndex:idx_user_friend"`
	Status    FriendRequestStatus `json:"status" gorm:"type:varchar(20);default:'accepted'"`
	CreatedAt time.Time           `json:"created_at"`
}
