package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Relation event types recorded in the audit journal.
const (
	RelationEventFollow        = "follow"
	RelationEventUnfollow      = "unfollow"
	RelationEventRequestSent   = "request_sent"
	RelationEventRequestAccept = "request_accepted"
	RelationEventRequestDecl   = "request_declined"
	RelationEventUnfriend      = "unfriend"
	RelationEventBlock         = "block"
	RelationEventUnblock       = "unblock"
)

// RelationEvent is an append-only audit document (MongoDB) describing one
// relation mutation. It is history, not state: readers must never derive
// counts or membership from it.
type RelationEvent struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Type      string             `json:"type" bson:"type"`
	ActorID   uint               `json:"actor_id" bson:"actor_id"`
	SubjectID uint               `json:"subject_id" bson:"subject_id"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
