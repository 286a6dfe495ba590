package db

import (
	"github.com/pkg/errors"
	apiError "github.com/techagentng/converse/errors"
	"github.com/techagentng/converse/models"
	"gorm.io/gorm"
)

// ErrDuplicatePair is returned when an insert loses the race on the canonical
// pair index; the caller re-fetches the surviving row.
var ErrDuplicatePair = errors.New("conversation already exists for pair")

type ConversationRepository interface {
	FindByPair(userLow, userHigh uint) (*models.Conversation, error)
	CreateConversation(conversation *models.Conversation) (*models.Conversation, error)
	FindConversationByID(id uint) (*models.Conversation, error)
	GetUserConversations(userID uint) ([]models.Conversation, error)
	GetLatestMessage(conversationID uint) (*models.Message, error)
	CreateMessage(message *models.Message) (*models.Message, error)
	GetMessages(conversationID uint, offset, limit int) ([]models.Message, error)
	CountMessages(conversationID uint) (int64, error)
}

type conversationRepo struct {
	DB *gorm.DB
}

func NewConversationRepo(db *GormDB) ConversationRepository {
	return &conversationRepo{db.DB}
}

func (c *conversationRepo) FindByPair(userLow, userHigh uint) (*models.Conversation, error) {
	var conversation models.Conversation
	err := c.DB.
		Preload("UserLow").
		Preload("UserHigh").
		Where("user_low_id = ? AND user_high_id = ?", userLow, userHigh).
		First(&conversation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, errors.Wrap(err, "gorm find conversation error")
	}
	return &conversation, nil
}

// CreateConversation inserts the canonical row. A concurrent duplicate create
// surfaces as ErrDuplicatePair via the unique (user_low_id, user_high_id)
// index rather than a second row.
func (c *conversationRepo) CreateConversation(conversation *models.Conversation) (*models.Conversation, error) {
	if err := c.DB.Create(conversation).Error; err != nil {
		if apiError.IsUniqueViolation(err) {
			return nil, ErrDuplicatePair
		}
		return nil, errors.Wrap(err, "gorm create conversation error")
	}
	return c.FindConversationByID(conversation.ID)
}

func (c *conversationRepo) FindConversationByID(id uint) (*models.Conversation, error) {
	var conversation models.Conversation
	err := c.DB.
		Preload("UserLow").
		Preload("UserHigh").
		Where("id = ?", id).
		First(&conversation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, errors.Wrap(err, "gorm find conversation error")
	}
	return &conversation, nil
}

// GetUserConversations returns every conversation the user participates in,
// most recently active first. Rows that never saw a message sort after all
// active ones, newest created first.
func (c *conversationRepo) GetUserConversations(userID uint) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := c.DB.
		Preload("UserLow").
		Preload("UserHigh").
		Where("user_low_id = ? OR user_high_id = ?", userID, userID).
		Order("last_message_at IS NULL, last_message_at DESC, created_at DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, errors.Wrap(err, "gorm list conversations error")
	}
	return conversations, nil
}

// GetLatestMessage returns the newest message of a conversation, or
// gorm.ErrRecordNotFound when it has none.
func (c *conversationRepo) GetLatestMessage(conversationID uint) (*models.Message, error) {
	var message models.Message
	err := c.DB.
		Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// CreateMessage persists the message and bumps the conversation's
// last_message_at in one transaction, so inbox ordering never observes one
// write without the other.
func (c *conversationRepo) CreateMessage(message *models.Message) (*models.Message, error) {
	err := c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", message.ConversationID).
			Update("last_message_at", message.CreatedAt).Error
	})
	if err != nil {
		return nil, errors.Wrap(err, "gorm create message error")
	}

	var created models.Message
	if err := c.DB.Preload("Sender").First(&created, message.ID).Error; err != nil {
		return nil, errors.Wrap(err, "gorm reload message error")
	}
	return &created, nil
}

// GetMessages returns one window ordered most-recent-first. Ties on
// created_at break by id so paging stays deterministic; the service reverses
// the window before delivery.
func (c *conversationRepo) GetMessages(conversationID uint, offset, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := c.DB.
		Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, errors.Wrap(err, "gorm list messages error")
	}
	return messages, nil
}

func (c *conversationRepo) CountMessages(conversationID uint) (int64, error) {
	var count int64
	err := c.DB.Model(&models.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "gorm count messages error")
	}
	return count, nil
}
