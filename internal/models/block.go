package models

import "time"

// Block is a directed relation with an independent lifecycle. Creating a
// block does not retract existing follows, requests, or friendships; the
// presentation layer consults it when rendering.
type Block struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	BlockerID uint      `json:"blocker_id" gorm:"index;uniqueIndex:idx_blocker_blocked"`
	BlockedID uint      `json:"blocked_id" gorm:"uniqueIndex:idx_blocker_blocked"`
	CreatedAt time.Time `json:"created_at"`
}
