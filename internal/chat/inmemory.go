package chat

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process store for local/dev use and tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	users    map[string]User
	messages []Message
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[string]User)}
}

func (s *InMemoryStore) CreateUser(_ context.Context, u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return User{}, ErrDuplicateEmail
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *InMemoryStore) UserByID(_ context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *InMemoryStore) UserByEmail(_ context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *InMemoryStore) UpsertAssistant(_ context.Context, u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[u.ID]
	if ok {
		existing.FullName = u.FullName
		existing.AvatarURL = u.AvatarURL
		existing.IsAssistant = true
		s.users[u.ID] = existing
		return existing, nil
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.IsAssistant = true
	s.users[u.ID] = u
	return u, nil
}

func (s *InMemoryStore) ListUsersExcept(_ context.Context, userID string) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		if u.ID == userID {
			continue
		}
		out = append(out, u)
	}
	// Assistant first, then stable by name for a predictable contact list.
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsAssistant != out[j].IsAssistant {
			return out[i].IsAssistant
		}
		return out[i].FullName < out[j].FullName
	})
	return out, nil
}

func (s *InMemoryStore) InsertMessage(_ context.Context, m Message) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	s.messages = append(s.messages, m)
	return m, nil
}

func (s *InMemoryStore) Conversation(_ context.Context, userA, userB string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterConversation(userA, userB), nil
}

func (s *InMemoryStore) RecentConversation(_ context.Context, userA, userB string, limit int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 20
	}
	all := s.filterConversation(userA, userB)
	if limit >= len(all) {
		return all, nil
	}
	return all[len(all)-limit:], nil
}

// filterConversation returns messages in insertion order, which equals
// ascending creation order for an append-only slice.
func (s *InMemoryStore) filterConversation(userA, userB string) []Message {
	var out []Message
	for _, m := range s.messages {
		if (m.SenderID == userA && m.ReceiverID == userB) ||
			(m.SenderID == userB && m.ReceiverID == userA) {
			out = append(out, m)
		}
	}
	return out
}

func (s *InMemoryStore) Close() error { return nil }
