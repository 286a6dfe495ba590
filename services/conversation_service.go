package services

import (
	"errors"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/techagentng/converse/config"
	"github.com/techagentng/converse/db"
	apiError "github.com/techagentng/converse/errors"
	"github.com/techagentng/converse/models"
	"gorm.io/gorm"
)

const defaultMessageLimit = 50

type ConversationService interface {
	CreateOrGetConversation(requesterID, otherID uint) (*models.ConversationResponse, *apiError.Error)
	SendMessage(conversationID, senderID uint, content string) (*models.MessageResponse, *apiError.Error)
	GetConversationMessages(conversationID, requesterID uint, page, limit int) (*models.MessagePage, *apiError.Error)
	GetUserConversations(userID uint) ([]models.ConversationResponse, *apiError.Error)
}

type conversationService struct {
	Config           *config.Config
	conversationRepo db.ConversationRepository
	userRepo         db.UserRepository
}

func NewConversationService(conversationRepo db.ConversationRepository, userRepo db.UserRepository, conf *config.Config) ConversationService {
	return &conversationService{
		Config:           conf,
		conversationRepo: conversationRepo,
		userRepo:         userRepo,
	}
}

// CreateOrGetConversation returns the single canonical conversation for the
// unordered pair, creating it lazily on first contact. Lookup is idempotent:
// an existing row comes back untouched, no timestamp mutation.
func (s *conversationService) CreateOrGetConversation(requesterID, otherID uint) (*models.ConversationResponse, *apiError.Error) {
	if requesterID == otherID {
		return nil, apiError.InvalidOperation("cannot create a conversation with yourself")
	}

	if _, err := s.userRepo.FindUserByID(otherID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.NotFound("participant not found")
		}
		log.Printf("error finding participant %d: %v", otherID, err)
		return nil, apiError.ErrInternalServerError
	}

	low, high := canonicalPair(requesterID, otherID)

	conversation, err := s.conversationRepo.FindByPair(low, high)
	if err == nil {
		return s.toConversationResponse(conversation, false), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("error looking up conversation (%d,%d): %v", low, high, err)
		return nil, apiError.ErrInternalServerError
	}

	conversation, err = s.conversationRepo.CreateConversation(&models.Conversation{
		UserLowID:  low,
		UserHighID: high,
	})
	if errors.Is(err, db.ErrDuplicatePair) {
		// Lost the insert race; the winner's row is the conversation.
		conversation, err = s.conversationRepo.FindByPair(low, high)
	}
	if err != nil {
		log.Printf("error creating conversation (%d,%d): %v", low, high, err)
		return nil, apiError.ErrInternalServerError
	}

	return s.toConversationResponse(conversation, false), nil
}

// SendMessage appends a message for a participant and advances the
// conversation's last activity in the same unit of work.
func (s *conversationService) SendMessage(conversationID, senderID uint, content string) (*models.MessageResponse, *apiError.Error) {
	if _, apiErr := s.requireMembership(conversationID, senderID); apiErr != nil {
		return nil, apiErr
	}

	// The boundary validates length already; rejecting here keeps the engine
	// safe against other callers.
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, apiError.InvalidOperation("message content cannot be empty")
	}
	if utf8.RuneCountInString(trimmed) > models.MaxMessageLength {
		return nil, apiError.InvalidOperation("message content exceeds maximum length")
	}

	message, err := s.conversationRepo.CreateMessage(&models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        trimmed,
	})
	if err != nil {
		log.Printf("error creating message in conversation %d: %v", conversationID, err)
		return nil, apiError.ErrInternalServerError
	}

	resp := toMessageResponse(message)
	return &resp, nil
}

// GetConversationMessages returns one page of messages. The store is queried
// most-recent-first so page 1 is always the latest window, then the window is
// reversed to chronological order before delivery. Deliberate contract, not a
// bug: an ascending query with the same offset would return a different
// page 1 on a growing conversation.
func (s *conversationService) GetConversationMessages(conversationID, requesterID uint, page, limit int) (*models.MessagePage, *apiError.Error) {
	if _, apiErr := s.requireMembership(conversationID, requesterID); apiErr != nil {
		return nil, apiErr
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultMessageLimit
	}
	offset := (page - 1) * limit

	total, err := s.conversationRepo.CountMessages(conversationID)
	if err != nil {
		log.Printf("error counting messages in conversation %d: %v", conversationID, err)
		return nil, apiError.ErrInternalServerError
	}

	messages, err := s.conversationRepo.GetMessages(conversationID, offset, limit)
	if err != nil {
		log.Printf("error listing messages in conversation %d: %v", conversationID, err)
		return nil, apiError.ErrInternalServerError
	}

	// Reverse the DESC window so the page reads oldest first.
	responses := make([]models.MessageResponse, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		responses = append(responses, toMessageResponse(&messages[i]))
	}

	pages := int((total + int64(limit) - 1) / int64(limit))

	return &models.MessagePage{
		Messages: responses,
		Pagination: models.Pagination{
			Total: total,
			Page:  page,
			Pages: pages,
			Limit: limit,
		},
	}, nil
}

// GetUserConversations lists the user's inbox, most recently active first,
// each conversation annotated with its latest message.
func (s *conversationService) GetUserConversations(userID uint) ([]models.ConversationResponse, *apiError.Error) {
	conversations, err := s.conversationRepo.GetUserConversations(userID)
	if err != nil {
		log.Printf("error listing conversations for user %d: %v", userID, err)
		return nil, apiError.ErrInternalServerError
	}

	responses := make([]models.ConversationResponse, 0, len(conversations))
	for i := range conversations {
		responses = append(responses, *s.toConversationResponse(&conversations[i], true))
	}
	return responses, nil
}

// requireMembership loads the conversation and enforces that userID is one of
// its two participants. Every read/write goes through this check.
func (s *conversationService) requireMembership(conversationID, userID uint) (*models.Conversation, *apiError.Error) {
	conversation, err := s.conversationRepo.FindConversationByID(conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.NotFound("conversation not found")
		}
		log.Printf("error finding conversation %d: %v", conversationID, err)
		return nil, apiError.ErrInternalServerError
	}

	if !conversation.HasParticipant(userID) {
		return nil, apiError.Forbidden("you are not part of this conversation")
	}

	return conversation, nil
}

func (s *conversationService) toConversationResponse(conversation *models.Conversation, withLastMessage bool) *models.ConversationResponse {
	resp := &models.ConversationResponse{
		ID:            conversation.ID,
		Participants:  []models.UserSummary{conversation.UserLow.Summary(), conversation.UserHigh.Summary()},
		LastMessageAt: conversation.LastMessageAt,
		CreatedAt:     conversation.CreatedAt,
	}

	if withLastMessage {
		latest, err := s.conversationRepo.GetLatestMessage(conversation.ID)
		if err == nil {
			m := toMessageResponse(latest)
			resp.LastMessage = &m
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("error loading latest message for conversation %d: %v", conversation.ID, err)
		}
	}

	return resp
}

func toMessageResponse(message *models.Message) models.MessageResponse {
	return models.MessageResponse{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		Sender:         message.Sender.Summary(),
		Content:        message.Content,
		IsRead:         message.IsRead,
		CreatedAt:      message.CreatedAt,
	}
}

func canonicalPair(a, b uint) (uint, uint) {
	if a < b {
		return a, b
	}
	return b, a
}
