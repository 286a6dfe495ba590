package models

import "time"

const (
	// MaxMessageLength bounds message content, counted in characters after
	// trimming.
	MaxMessageLength = 5000
)

// Message belongs to exactly one conversation and is immutable once created.
// CreatedAt (with ID as tiebreak) is the sole ordering key.
type Message struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ConversationID uint      `json:"conversation_id" gorm:"not null;index:idx_messages_conversation_created,priority:1"`
	SenderID       uint      `json:"sender_id" gorm:"not null"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	IsRead         bool      `json:"is_read" gorm:"default:false"`
	CreatedAt      time.Time `json:"created_at" gorm:"index:idx_messages_conversation_created,priority:2"`

	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID"`
	Sender       User         `json:"-" gorm:"foreignKey:SenderID"`
}

// MessageResponse is the delivered shape with the sender summary attached.
type MessageResponse struct {
	ID             uint        `json:"id"`
	ConversationID uint        `json:"conversation_id"`
	Sender         UserSummary `json:"sender"`
	Content        string      `json:"content"`
	IsRead         bool        `json:"is_read"`
	CreatedAt      time.Time   `json:"created_at"`
}

type SendMessageRequest struct {
	ConversationID uint   `json:"conversation_id" binding:"required,min=1"`
	Content        string `json:"content" binding:"required,max=5000"`
}

// Pagination describes one window of a message listing.
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
	Limit int   `json:"limit"`
}

type MessagePage struct {
	Messages   []MessageResponse `json:"messages"`
	Pagination Pagination        `json:"pagination"`
}
