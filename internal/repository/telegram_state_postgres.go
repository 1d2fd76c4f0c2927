package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sellershield/intake-backend/internal/telegram/state"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	getTelegramSession = `SELECT user_id, chat_id, session_id, state_data, created_at, updated_at
FROM telegram_sessions
WHERE user_id = $1 AND updated_at > $2`

	getTelegramSessionBySessionID = `SELECT user_id, chat_id, session_id, state_data, created_at, updated_at
FROM telegram_sessions
WHERE session_id = $1 AND updated_at > $2`

	upsertTelegramSession = `INSERT INTO telegram_sessions (user_id, chat_id, session_id, state_data, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id) DO UPDATE SET
    chat_id = EXCLUDED.chat_id,
    session_id = EXCLUDED.session_id,
    state_data = EXCLUDED.state_data,
    updated_at = EXCLUDED.updated_at`

	deleteTelegramSession = `DELETE FROM telegram_sessions WHERE user_id = $1`

	deleteStaleTelegramSessions = `DELETE FROM telegram_sessions WHERE updated_at <= $1`
)

// TelegramSessionRepository handles telegram session mapping persistence.
// Rows not updated within ttl are treated as absent.
type TelegramSessionRepository struct {
	db  DBTX
	ttl time.Duration
	now func() time.Time
}

// NewTelegramStateRepository creates a new telegram session repository
func NewTelegramStateRepository(db DBTX, ttl time.Duration) *TelegramSessionRepository {
	return &TelegramSessionRepository{
		db:  db,
		ttl: ttl,
		now: time.Now,
	}
}

// Get retrieves telegram session by user ID
func (r *TelegramSessionRepository) Get(ctx context.Context, userID int64) (*state.TelegramSession, error) {
	row := r.db.QueryRow(ctx, getTelegramSession, userID, r.cutoff())

	session, err := scanTelegramSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", userID, state.ErrNotFound)
		}
		return nil, fmt.Errorf("query telegram session: %w", err)
	}

	return session, nil
}

// Set saves telegram session
func (r *TelegramSessionRepository) Set(ctx context.Context, session *state.TelegramSession) error {
	sessionID, err := toPgUUID(session.SessionID)
	if err != nil {
		return err
	}

	stateData := []byte(session.StateData)
	if len(stateData) == 0 {
		stateData = []byte("{}")
	}

	createdAt := session.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}
	updatedAt := session.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = r.now()
	}

	_, err = r.db.Exec(ctx, upsertTelegramSession,
		session.UserID,
		session.ChatID,
		sessionID,
		stateData,
		pgtype.Timestamp{Time: createdAt.UTC(), Valid: true},
		pgtype.Timestamp{Time: updatedAt.UTC(), Valid: true},
	)
	if err != nil {
		return fmt.Errorf("upsert telegram session: %w", err)
	}

	return nil
}

// Delete removes telegram session
func (r *TelegramSessionRepository) Delete(ctx context.Context, userID int64) error {
	if _, err := r.db.Exec(ctx, deleteTelegramSession, userID); err != nil {
		return fmt.Errorf("delete telegram session: %w", err)
	}

	return nil
}

// GetBySessionID retrieves telegram session by intake session ID
func (r *TelegramSessionRepository) GetBySessionID(ctx context.Context, sessionID string) (*state.TelegramSession, error) {
	id, err := toPgUUID(sessionID)
	if err != nil {
		return nil, err
	}
	if !id.Valid {
		return nil, fmt.Errorf("empty session: %w", state.ErrNotFound)
	}

	row := r.db.QueryRow(ctx, getTelegramSessionBySessionID, id, r.cutoff())

	session, err := scanTelegramSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", sessionID, state.ErrNotFound)
		}
		return nil, fmt.Errorf("query telegram session by session: %w", err)
	}

	return session, nil
}

// PurgeExpired deletes rows that outlived the TTL
func (r *TelegramSessionRepository) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, deleteStaleTelegramSessions, r.cutoff())
	if err != nil {
		return 0, fmt.Errorf("purge telegram sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *TelegramSessionRepository) cutoff() pgtype.Timestamp {
	if r.ttl <= 0 {
		return pgtype.Timestamp{Time: time.Time{}, Valid: true}
	}
	return pgtype.Timestamp{Time: r.now().Add(-r.ttl).UTC(), Valid: true}
}

func scanTelegramSession(row pgx.Row) (*state.TelegramSession, error) {
	var (
		session   state.TelegramSession
		sessionID pgtype.UUID
		stateData []byte
		createdAt pgtype.Timestamp
		updatedAt pgtype.Timestamp
	)

	if err := row.Scan(&session.UserID, &session.ChatID, &sessionID, &stateData, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if sessionID.Valid {
		session.SessionID = uuid.UUID(sessionID.Bytes).String()
	}
	if len(stateData) > 0 {
		session.StateData = json.RawMessage(stateData)
	} else {
		session.StateData = json.RawMessage("{}")
	}
	session.CreatedAt = createdAt.Time
	session.UpdatedAt = updatedAt.Time

	return &session, nil
}

func toPgUUID(id string) (pgtype.UUID, error) {
	if id == "" {
		return pgtype.UUID{}, nil
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("invalid session ID format: %w", err)
	}

	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}
