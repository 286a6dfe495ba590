package models

import "time"

// Conversation is the single canonical row for an unordered pair of users.
// UserLowID < UserHighID always holds; the composite unique index is what
// guarantees at most one conversation per pair even under concurrent creates.
type Conversation struct {
	Model
	UserLowID  uint `json:"user_low_id" gorm:"not null;uniqueIndex:idx_conversations_pair,priority:1"`
	UserHighID uint `json:"user_high_id" gorm:"not null;uniqueIndex:idx_conversations_pair,priority:2"`

	UserLow  User `json:"-" gorm:"foreignKey:UserLowID"`
	UserHigh User `json:"-" gorm:"foreignKey:UserHighID"`

	// LastMessageAt is bumped in the same transaction as each message insert
	// and drives inbox ordering. Nil until the first message.
	LastMessageAt *time.Time `json:"last_message_at"`
}

// HasParticipant reports whether userID is one of the two members.
func (c *Conversation) HasParticipant(userID uint) bool {
	return userID == c.UserLowID || userID == c.UserHighID
}

// ConversationResponse is the boundary shape: the row plus both participant
// summaries and, for inbox listings, the most recent message.
type ConversationResponse struct {
	ID            uint             `json:"id"`
	Participants  []UserSummary    `json:"participants"`
	LastMessageAt *time.Time       `json:"last_message_at"`
	LastMessage   *MessageResponse `json:"last_message,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

type CreateConversationRequest struct {
	ParticipantID uint `json:"participant_id" binding:"required,min=1"`
}
