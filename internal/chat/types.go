package chat

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a user lookup misses.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when a signup reuses an existing email.
	ErrDuplicateEmail = errors.New("email already registered")
)

// User is a chat participant. The assistant is a regular user row flagged
// IsAssistant whose replies are machine-generated.
type User struct {
	ID           string    `json:"_id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	AvatarURL    string    `json:"profilePic"`
	IsAssistant  bool      `json:"isAiAssistant,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Message is one chat message between exactly two users. Immutable once
// persisted; at least one of Text/AttachmentURL is set by the caller.
type Message struct {
	ID            string    `json:"_id"`
	SenderID      string    `json:"senderId"`
	ReceiverID    string    `json:"receiverId"`
	Text          string    `json:"text,omitempty"`
	AttachmentURL string    `json:"image,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Store persists users and messages.
//
// Conversation queries are symmetric: the (a, b) history equals the (b, a)
// history, ascending by creation time. RecentConversation returns the most
// recent limit messages re-ordered ascending, bounding prompt-assembly cost.
type Store interface {
	CreateUser(ctx context.Context, u User) (User, error)
	UserByID(ctx context.Context, id string) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	UpsertAssistant(ctx context.Context, u User) (User, error)
	ListUsersExcept(ctx context.Context, userID string) ([]User, error)

	InsertMessage(ctx context.Context, m Message) (Message, error)
	Conversation(ctx context.Context, userA, userB string) ([]Message, error)
	RecentConversation(ctx context.Context, userA, userB string, limit int) ([]Message, error)

	Close() error
}
