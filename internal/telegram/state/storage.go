package state

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned by Storage when a user has no chat state
var ErrNotFound = errors.New("telegram session not found")

// TelegramSession maps a Telegram user to the intake session they are filling in
type TelegramSession struct {
	UserID    int64           `json:"user_id"`
	ChatID    int64           `json:"chat_id"`
	SessionID string          `json:"session_id,omitempty"`
	StateData json.RawMessage `json:"state_data,omitempty"` // Telegram-specific UI state
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StateData contains telegram-specific UI state (stored in StateData JSONB)
type StateData struct {
	// Version for compatibility tracking (current version: 1)
	Version int `json:"version,omitempty"`

	// Message carrying the current question; edited in place on transitions
	LastMessageID int `json:"last_message_id,omitempty"`

	// Confirmation for destructive actions
	PendingConfirmation string `json:"pending_confirmation,omitempty"` // "cancel"
}

const (
	// StateDataCurrentVersion is the current version of StateData
	StateDataCurrentVersion = 1
)

// Storage defines the interface for telegram session persistence
type Storage interface {
	// Get retrieves telegram session by user ID
	Get(ctx context.Context, userID int64) (*TelegramSession, error)

	// Set saves telegram session
	Set(ctx context.Context, session *TelegramSession) error

	// Delete removes telegram session
	Delete(ctx context.Context, userID int64) error

	// GetBySessionID retrieves telegram session by intake session ID
	GetBySessionID(ctx context.Context, sessionID string) (*TelegramSession, error)
}
