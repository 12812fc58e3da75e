package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists users and messages in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initChatSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initChatSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			full_name TEXT NOT NULL,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			avatar_url TEXT NOT NULL DEFAULT '',
			is_assistant BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (lower(email));`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			sender_id TEXT NOT NULL,
			receiver_id TEXT NOT NULL,
			text_body TEXT NOT NULL DEFAULT '',
			attachment_url TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_pair_created
			ON messages (least(sender_id, receiver_id), greatest(sender_id, receiver_id), created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init chat schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u User) (User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, full_name, email, password_hash, avatar_url, is_assistant, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.FullName, u.Email, u.PasswordHash, u.AvatarURL, u.IsAssistant, u.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrDuplicateEmail
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) UserByID(ctx context.Context, id string) (User, error) {
	return s.userWhere(ctx, `id = $1`, id)
}

func (s *PostgresStore) UserByEmail(ctx context.Context, email string) (User, error) {
	return s.userWhere(ctx, `lower(email) = lower($1)`, email)
}

func (s *PostgresStore) userWhere(ctx context.Context, where string, arg any) (User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, full_name, email, password_hash, avatar_url, is_assistant, created_at
		 FROM users WHERE `+where, arg)
	var u User
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.AvatarURL, &u.IsAssistant, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) UpsertAssistant(ctx context.Context, u User) (User, error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.IsAssistant = true

	row := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, full_name, email, password_hash, avatar_url, is_assistant, created_at)
		 VALUES ($1, $2, $3, $4, $5, TRUE, $6)
		 ON CONFLICT (id) DO UPDATE SET
			full_name=EXCLUDED.full_name,
			avatar_url=EXCLUDED.avatar_url,
			is_assistant=TRUE
		 RETURNING id, full_name, email, password_hash, avatar_url, is_assistant, created_at`,
		u.ID, u.FullName, u.Email, u.PasswordHash, u.AvatarURL, u.CreatedAt,
	)
	var out User
	if err := row.Scan(&out.ID, &out.FullName, &out.Email, &out.PasswordHash, &out.AvatarURL, &out.IsAssistant, &out.CreatedAt); err != nil {
		return User{}, fmt.Errorf("upsert assistant: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListUsersExcept(ctx context.Context, userID string) ([]User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, full_name, email, password_hash, avatar_url, is_assistant, created_at
		 FROM users WHERE id <> $1
		 ORDER BY is_assistant DESC, full_name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.AvatarURL, &u.IsAssistant, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) InsertMessage(ctx context.Context, m Message) (Message, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO messages (id, sender_id, receiver_id, text_body, attachment_url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.SenderID, m.ReceiverID, m.Text, m.AttachmentURL, m.CreatedAt,
	)
	if err != nil {
		return Message{}, fmt.Errorf("insert message: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) Conversation(ctx context.Context, userA, userB string) ([]Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, sender_id, receiver_id, text_body, attachment_url, created_at
		 FROM messages
		 WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		 ORDER BY created_at ASC, id ASC`,
		userA, userB,
	)
	if err != nil {
		return nil, fmt.Errorf("query conversation: %w", err)
	}
	return scanMessages(rows)
}

func (s *PostgresStore) RecentConversation(ctx context.Context, userA, userB string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, sender_id, receiver_id, text_body, attachment_url, created_at
		 FROM messages
		 WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		 ORDER BY created_at DESC, id DESC LIMIT $3`,
		userA, userB, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent conversation: %w", err)
	}
	items, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	// Reverse into chronological order for prompt coherence.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}

func scanMessages(rows pgx.Rows) ([]Message, error) {
	defer rows.Close()
	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Text, &m.AttachmentURL, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
