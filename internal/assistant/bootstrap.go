package assistant

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"github.com/fabiogreco/duet/internal/auth"
	"github.com/fabiogreco/duet/internal/chat"
)

// Assistant identities must be 24-character hex strings.
var assistantIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

type BootstrapConfig struct {
	AssistantID string
	Name        string
	AvatarURL   string
}

// EnsureUser validates the configured assistant identity and creates or
// refreshes its user row. An invalid identity is fatal to assistant setup
// only; callers keep serving chat without the assistant.
func EnsureUser(ctx context.Context, store chat.Store, cfg BootstrapConfig) (chat.User, error) {
	if !assistantIDPattern.MatchString(cfg.AssistantID) {
		return chat.User{}, fmt.Errorf("assistant id must be a 24-character hex string, got %q", cfg.AssistantID)
	}

	// The assistant never logs in; give it an unguessable throwaway password.
	hash, err := auth.HashPassword(uuid.NewString())
	if err != nil {
		return chat.User{}, fmt.Errorf("assistant password: %w", err)
	}

	user, err := store.UpsertAssistant(ctx, chat.User{
		ID:           cfg.AssistantID,
		FullName:     cfg.Name,
		Email:        fmt.Sprintf("assistant-%s@virtual.local", cfg.AssistantID),
		PasswordHash: hash,
		AvatarURL:    cfg.AvatarURL,
	})
	if err != nil {
		return chat.User{}, fmt.Errorf("ensure assistant user: %w", err)
	}
	return user, nil
}
