package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const stateDataKey contextKey = "state_data"

// StateDataFromContext retrieves StateData from context if available
func StateDataFromContext(ctx context.Context) (*StateData, bool) {
	data, ok := ctx.Value(stateDataKey).(*StateData)
	return data, ok
}

// ContextWithStateData attaches StateData to context for request-scoped caching
func ContextWithStateData(ctx context.Context, data *StateData) context.Context {
	return context.WithValue(ctx, stateDataKey, data)
}

// Manager manages telegram sessions
type Manager struct {
	storage Storage
	now     func() time.Time
}

// NewManager creates a new state manager
func NewManager(storage Storage) *Manager {
	return &Manager{
		storage: storage,
		now:     time.Now,
	}
}

// GetSession retrieves telegram session from storage
func (m *Manager) GetSession(ctx context.Context, userID int64) (*TelegramSession, error) {
	session, err := m.storage.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get telegram session from storage: %w", err)
	}

	return session, nil
}

// ActiveSessionID returns the intake session bound to the user, or "" when none
func (m *Manager) ActiveSessionID(ctx context.Context, userID int64) (string, error) {
	session, err := m.storage.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get telegram session from storage: %w", err)
	}
	return session.SessionID, nil
}

// SetSession saves telegram session to storage
func (m *Manager) SetSession(ctx context.Context, session *TelegramSession) error {
	session.UpdatedAt = m.now()

	if err := m.storage.Set(ctx, session); err != nil {
		return fmt.Errorf("save telegram session to storage: %w", err)
	}

	return nil
}

// DeleteSession removes telegram session from storage
func (m *Manager) DeleteSession(ctx context.Context, userID int64) error {
	if err := m.storage.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete telegram session from storage: %w", err)
	}

	return nil
}

// GetStateData extracts typed state data
// First checks context for cached data, then loads from storage if needed
func (m *Manager) GetStateData(ctx context.Context, userID int64) (*StateData, error) {
	if data, ok := StateDataFromContext(ctx); ok {
		return data, nil
	}

	session, err := m.GetSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	return decodeStateData(session.StateData)
}

// UpdateStateData updates state data
func (m *Manager) UpdateStateData(ctx context.Context, userID int64, data *StateData) error {
	session, err := m.GetSession(ctx, userID)
	if err != nil {
		return err
	}

	data.Version = StateDataCurrentVersion

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal state data: %w", err)
	}

	session.StateData = jsonData
	return m.SetSession(ctx, session)
}

// BindSession points the user at a new intake session and resets the UI state
func (m *Manager) BindSession(ctx context.Context, userID, chatID int64, sessionID string) error {
	now := m.now()

	session, err := m.storage.Get(ctx, userID)
	switch {
	case errors.Is(err, ErrNotFound):
		session = &TelegramSession{
			UserID:    userID,
			CreatedAt: now,
		}
	case err != nil:
		return fmt.Errorf("get telegram session from storage: %w", err)
	}

	session.ChatID = chatID
	session.SessionID = sessionID
	session.StateData = json.RawMessage(`{"version":1}`)

	return m.SetSession(ctx, session)
}

// GetBySessionID retrieves telegram session by session ID
func (m *Manager) GetBySessionID(ctx context.Context, sessionID string) (*TelegramSession, error) {
	return m.storage.GetBySessionID(ctx, sessionID)
}

func decodeStateData(raw json.RawMessage) (*StateData, error) {
	if len(raw) == 0 {
		return &StateData{Version: StateDataCurrentVersion}, nil
	}

	var data StateData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshal state data: %w", err)
	}

	if data.Version == 0 {
		data.Version = StateDataCurrentVersion
	}

	return &data, nil
}
