package messaging

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/careline/go-careline/internal/database"
	"github.com/careline/go-careline/internal/types"
	"github.com/google/uuid"
	"github.com/teris-io/shortid"
)

// ErrEmptyMessage is returned when a send carries no body.
var ErrEmptyMessage = errors.New("message body is required")

type Service struct {
	log *log.Logger
	db  database.CarelineRepository
	now func() time.Time
}

func NewService(logger *log.Logger, db database.CarelineRepository) *Service {
	return &Service{
		log: logger,
		db:  db,
		now: func() time.Time { return time.Now().UTC().Round(time.Millisecond) },
	}
}

// conversationEntry is one element of a conversation's embedded message
// list, stored as JSONB.
type conversationEntry struct {
	Id         string    `json:"id"`
	SenderId   int       `json:"sender_id"`
	ReceiverId int       `json:"receiver_id"`
	Body       string    `json:"body"`
	Timestamp  time.Time `json:"timestamp"`
}

// Send resolves the caller and counterpart to account identities,
// appends the message to the pair's conversation (creating it on first
// contact), and mirrors the entry into the durable message log.
func (s *Service) Send(callerRole string, callerId, counterpartId int, body string) (types.ChatMessage, error) {
	if body == "" {
		return types.ChatMessage{}, ErrEmptyMessage
	}

	senderId, receiverId, err := s.ResolvePair(callerRole, callerId, counterpartId)
	if err != nil {
		return types.ChatMessage{}, err
	}

	entry := conversationEntry{
		Id:         uuid.NewString(),
		SenderId:   senderId,
		ReceiverId: receiverId,
		Body:       body,
		Timestamp:  s.now(),
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return types.ChatMessage{}, fmt.Errorf("marshal entry: %w", err)
	}

	// external id is only used when this send creates the conversation
	externalId, err := shortid.Generate()
	if err != nil {
		return types.ChatMessage{}, fmt.Errorf("generate conversation id: %w", err)
	}

	a, b := NormalizePair(senderId, receiverId)
	conv, err := s.db.AppendConversationMessage(a, b, externalId, raw)
	if err != nil {
		return types.ChatMessage{}, fmt.Errorf("append conversation message: %w", err)
	}

	if _, err := s.db.CreateMessage(database.CreateMessageParams{
		ConversationId: conv.Id,
		SenderId:       senderId,
		ReceiverId:     receiverId,
		SenderRole:     callerRole,
		Body:           body,
		CreatedAt:      entry.Timestamp,
	}); err != nil {
		return types.ChatMessage{}, fmt.Errorf("log message: %w", err)
	}

	return types.ChatMessage{
		ConversationId: conv.ExternalId,
		SenderId:       senderId,
		ReceiverId:     receiverId,
		Body:           body,
		Timestamp:      entry.Timestamp,
	}, nil
}

// History returns the conversation between the caller and counterpart,
// partitioned into messages the caller sent and messages they received.
// A pair with no conversation yet yields empty partitions.
func (s *Service) History(callerRole string, callerId, counterpartId int) (types.ChatHistory, error) {
	senderId, receiverId, err := s.ResolvePair(callerRole, callerId, counterpartId)
	if err != nil {
		return types.ChatHistory{}, err
	}

	history := types.ChatHistory{
		Sent:     make([]types.ChatMessage, 0),
		Received: make([]types.ChatMessage, 0),
	}

	a, b := NormalizePair(senderId, receiverId)
	conv, err := s.db.GetConversation(a, b)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return history, nil
		}
		return types.ChatHistory{}, fmt.Errorf("get conversation: %w", err)
	}

	var entries []conversationEntry
	if len(conv.Messages) > 0 {
		if err := json.Unmarshal(conv.Messages, &entries); err != nil {
			return types.ChatHistory{}, fmt.Errorf("unmarshal conversation messages: %w", err)
		}
	}

	history.ConversationId = conv.ExternalId
	for _, e := range entries {
		msg := types.ChatMessage{
			ConversationId: conv.ExternalId,
			SenderId:       e.SenderId,
			ReceiverId:     e.ReceiverId,
			Body:           e.Body,
			Timestamp:      e.Timestamp,
		}

		switch {
		case e.SenderId == senderId && e.ReceiverId == receiverId:
			history.Sent = append(history.Sent, msg)
		case e.SenderId == receiverId && e.ReceiverId == senderId:
			history.Received = append(history.Received, msg)
		}
	}

	return history, nil
}

// MessageLog reads the flat durable log for the caller's conversation
// with the counterpart, newest first. It is the secondary read path over
// the same events as History.
func (s *Service) MessageLog(callerRole string, callerId, counterpartId, limit int) ([]types.ChatMessage, error) {
	senderId, receiverId, err := s.ResolvePair(callerRole, callerId, counterpartId)
	if err != nil {
		return nil, err
	}

	a, b := NormalizePair(senderId, receiverId)
	conv, err := s.db.GetConversation(a, b)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []types.ChatMessage{}, nil
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	logged, err := s.db.ListMessageLog(conv.Id, limit)
	if err != nil {
		return nil, fmt.Errorf("list message log: %w", err)
	}

	messages := make([]types.ChatMessage, 0, len(logged))
	for _, m := range logged {
		messages = append(messages, types.ChatMessage{
			ConversationId: conv.ExternalId,
			SenderId:       m.SenderId,
			ReceiverId:     m.ReceiverId,
			Body:           m.Body,
			Timestamp:      m.CreatedAt,
		})
	}

	return messages, nil
}
