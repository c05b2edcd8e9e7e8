package models

import "time"

// Follow is a one-directional subscription edge. No reciprocity is
// required; the pair is unique so a repeated follow collapses onto the
// existing row instead of erroring.
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  uint      `json:"follower_id" gorm:"index;uniqueIndex:idx_follower_following"`
	FollowingID uint      `json:"following_id" gorm:"index;uniqueIndex:idx_follower_following"`
	CreatedAt   time.Time `json:"created_at"`
}
