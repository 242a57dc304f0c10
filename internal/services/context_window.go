package services

import (
	"fmt"

	"aletheia/internal/models"
	"aletheia/internal/store"

	"github.com/google/uuid"
)

// ContextWindowManager selects the bounded recent-message slice presented to
// downstream consumers, keeping per-turn cost independent of total history
// length.
type ContextWindowManager struct {
	store *store.SessionStore
}

// NewContextWindowManager creates a window manager over the session store
func NewContextWindowManager(s *store.SessionStore) *ContextWindowManager {
	return &ContextWindowManager{store: s}
}

// Window returns the most recent size messages in chronological order
// (oldest first within the slice). Requests larger than the available history
// degrade to the full history instead of erroring; a non-positive size is an
// invalid argument.
func (m *ContextWindowManager) Window(sessionID uuid.UUID, size int) ([]models.Message, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: context window size must be positive, got %d", models.ErrInvalidArgument, size)
	}

	messages, err := m.store.Messages(sessionID)
	if err != nil {
		return nil, err
	}

	if len(messages) <= size {
		return messages, nil
	}
	return messages[len(messages)-size:], nil
}
