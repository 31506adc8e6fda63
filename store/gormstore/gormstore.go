// Package gormstore persists conversation turns to a relational database via
// GORM. It backs the same core.ConversationStore interface as the in-memory
// store, with SQLite as the default driver.
package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/craftlane/chatbridge/core"
)

// messageRecord is the persisted shape of a conversation turn. The composite
// index serves the recent-messages query: filter by conversation, order by
// creation time.
type messageRecord struct {
	ID             string    `gorm:"primaryKey;size:36"`
	ConversationID string    `gorm:"size:64;not null;index:idx_messages_conversation_recent,priority:1"`
	Role           string    `gorm:"size:16;not null"`
	Content        string    `gorm:"type:text;not null"`
	AgentType      string    `gorm:"size:32"`
	Metadata       string    `gorm:"type:text"`
	CreatedAt      time.Time `gorm:"index:idx_messages_conversation_recent,priority:2"`
}

func (messageRecord) TableName() string { return "agent_messages" }

// Store is a core.ConversationStore backed by a GORM database.
type Store struct {
	db *gorm.DB
}

// Open creates a store over a SQLite database at the given DSN, migrating
// the schema on the way. Use ":memory:" for an ephemeral database.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return New(db)
}

// New creates a store over an existing GORM handle, migrating the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&messageRecord{}); err != nil {
		return nil, fmt.Errorf("migrate message schema: %w", err)
	}
	return &Store{db: db}, nil
}

// RecentMessages implements core.ConversationStore. It fetches the newest
// limit turns via the conversation index and returns them oldest first.
func (s *Store) RecentMessages(ctx context.Context, conversationID string, limit int) ([]core.Message, error) {
	if conversationID == "" {
		return nil, errors.New("conversation id must not be empty")
	}

	q := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var records []messageRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load recent messages: %w", err)
	}

	msgs := make([]core.Message, len(records))
	for i, rec := range records {
		msg, err := rec.toMessage()
		if err != nil {
			return nil, err
		}
		// Reverse the DESC result back into chronological order.
		msgs[len(records)-1-i] = msg
	}
	return msgs, nil
}

// SaveMessage implements core.ConversationStore.
func (s *Store) SaveMessage(ctx context.Context, conversationID, content string, role core.Role, agentType core.AgentType, metadata map[string]any) (core.Message, error) {
	if conversationID == "" {
		return core.Message{}, errors.New("conversation id must not be empty")
	}
	if content == "" {
		return core.Message{}, errors.New("message content must not be empty")
	}

	encoded := ""
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return core.Message{}, fmt.Errorf("encode message metadata: %w", err)
		}
		encoded = string(raw)
	}

	rec := messageRecord{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           string(role),
		Content:        content,
		AgentType:      string(agentType),
		Metadata:       encoded,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return core.Message{}, fmt.Errorf("save message: %w", err)
	}
	return rec.toMessage()
}

func (r messageRecord) toMessage() (core.Message, error) {
	var metadata map[string]any
	if r.Metadata != "" {
		if err := json.Unmarshal([]byte(r.Metadata), &metadata); err != nil {
			return core.Message{}, fmt.Errorf("decode message metadata: %w", err)
		}
	}
	return core.Message{
		ID:        r.ID,
		Role:      core.Role(r.Role),
		Content:   r.Content,
		Timestamp: r.CreatedAt,
		AgentType: core.AgentType(r.AgentType),
		Metadata:  metadata,
	}, nil
}
