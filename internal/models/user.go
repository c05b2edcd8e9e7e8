package models

import (
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

// User is the profile row the relationship subsystem reads. Profile content
// is owned by the profile subsystem; the denormalized follower/following
// counters live here because the count aggregator prefers them over a live
// COUNT query.
type User struct {
	gorm.Model     `json:"-"`
	ID             uint   `json:"id" gorm:"primaryKey"`
	Username       string `json:"username" gorm:"uniqueIndex;size:30"`
	DisplayName    string `json:"display_name"`
	Email          string `json:"email" gorm:"uniqueIndex"`
	AvatarURL      string `json:"avatar_url,omitempty"`
	Bio            string `json:"bio,omitempty"`
	FollowersCount int64  `json:"followers_count" gorm:"default:0"`
	FollowingCount int64  `json:"following_count" gorm:"default:0"`
	Password       string `json:"-"`
	FirebaseUID    string `json:"firebase_uid,omitempty" gorm:"uniqueIndex"`
}

type SignupRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=30,alphanum"`
	DisplayName string `json:"display_name" validate:"required,min=2,max=50"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
}

type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type FirebaseLoginRequest struct {
	IDToken     string `json:"id_token" validate:"required"`
	Username    string `json:"username,omitempty" validate:"omitempty,min=3,max=30,alphanum"`
	DisplayName string `json:"display_name,omitempty" validate:"omitempty,min=2,max=50"`
}

type UpdateProfileRequest struct {
	DisplayName string `json:"display_name,omitempty" validate:"omitempty,min=2,max=50"`
	AvatarURL   string `json:"avatar_url,omitempty" validate:"omitempty,url"`
	Bio         string `json:"bio,omitempty" validate:"omitempty,max=300"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
