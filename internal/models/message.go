package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a chat message between the two parties of a match, stored in
// MongoDB. The match id is the conversation key. Ordering within a
// conversation is the sender's write order; clients sort by CreatedAt.
type Message struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	MatchID     uint               `json:"match_id" bson:"match_id"`
	SenderID    uint               `json:"sender_id" bson:"sender_id"`
	RecipientID uint               `json:"recipient_id" bson:"recipient_id"`
	Content     string             `json:"content" bson:"content"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}

// SendMessageRequest defines the request body for sending a chat message
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}
