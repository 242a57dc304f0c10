package store

import (
	"log"
	"sort"
	"sync"
	"time"

	"aletheia/internal/models"

	"github.com/google/uuid"
)

// SessionStore is the volatile, process-wide home of session and message
// records. All mutation goes through its synchronized entry points: the
// registry mutex only guards the session map itself, while each session
// carries its own lock so concurrent turns on different sessions never block
// each other.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*sessionEntry
	now      func() time.Time
}

type sessionEntry struct {
	mu       sync.Mutex
	session  models.Session
	messages []models.Message
}

// NewSessionStore creates an empty session store
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[uuid.UUID]*sessionEntry),
		now:      time.Now,
	}
}

// SetClock overrides the store's clock. Test hook.
func (s *SessionStore) SetClock(now func() time.Time) {
	s.now = now
}

// Create registers a new active session. An empty userID means anonymous.
func (s *SessionStore) Create(userID string, confidencePrior float64) models.Session {
	now := s.now()
	session := models.Session{
		ID:                uuid.New(),
		UserID:            userID,
		CreatedAt:         now,
		LastMessageAt:     now,
		TopicWeights:      make(map[string]float64),
		ContextConfidence: confidencePrior,
		IsActive:          true,
	}

	s.mu.Lock()
	s.sessions[session.ID] = &sessionEntry{session: session}
	s.mu.Unlock()

	log.Printf("💬 [STORE] Session created: %s (user: %q)", session.ID, userID)
	return cloneSession(session)
}

// Get returns a copy of the session, or ErrSessionNotFound.
func (s *SessionStore) Get(id uuid.UUID) (models.Session, error) {
	entry, err := s.entry(id)
	if err != nil {
		return models.Session{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return cloneSession(entry.session), nil
}

// List returns session copies filtered by user and activity, ordered most
// recently active first.
func (s *SessionStore) List(userID string, activeOnly bool) []models.Session {
	s.mu.RLock()
	entries := make([]*sessionEntry, 0, len(s.sessions))
	for _, entry := range s.sessions {
		entries = append(entries, entry)
	}
	s.mu.RUnlock()

	sessions := make([]models.Session, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		session := cloneSession(entry.session)
		entry.mu.Unlock()

		if userID != "" && session.UserID != userID {
			continue
		}
		if activeOnly && !session.IsActive {
			continue
		}
		sessions = append(sessions, session)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastMessageAt.After(sessions[j].LastMessageAt)
	})
	return sessions
}

// Messages returns a copy of the session's ordered message history.
func (s *SessionStore) Messages(id uuid.UUID) ([]models.Message, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return cloneMessages(entry.messages), nil
}

// AppendMessage stores a new message on an active session, bumping the
// message counter and the activity timestamp atomically. confidence is the
// frozen per-turn snapshot and applies to assistant messages only.
func (s *SessionStore) AppendMessage(id uuid.UUID, role models.MessageRole, content string, ideaRefs []uuid.UUID, confidence *float64) (models.Message, error) {
	entry, err := s.entry(id)
	if err != nil {
		return models.Message{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !entry.session.IsActive {
		return models.Message{}, models.ErrSessionClosed
	}

	msg := models.Message{
		ID:        uuid.New(),
		SessionID: id,
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
	}
	if len(ideaRefs) > 0 {
		msg.IdeaRefs = append([]uuid.UUID(nil), ideaRefs...)
	}
	if confidence != nil {
		v := *confidence
		msg.ContextConfidence = &v
	}

	entry.messages = append(entry.messages, msg)
	entry.session.MessageCount++
	entry.session.Touch(msg.Timestamp)

	return cloneMessage(msg), nil
}

// Update applies a mutator to the session under its lock and returns the
// resulting copy. Closed sessions are read-only and reject updates.
func (s *SessionStore) Update(id uuid.UUID, mutate func(*models.Session)) (models.Session, error) {
	entry, err := s.entry(id)
	if err != nil {
		return models.Session{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !entry.session.IsActive {
		return models.Session{}, models.ErrSessionClosed
	}

	mutate(&entry.session)
	return cloneSession(entry.session), nil
}

// Close deactivates a session. Closing is terminal and idempotent: a second
// close succeeds without side effects, an unknown id is ErrSessionNotFound.
func (s *SessionStore) Close(id uuid.UUID) error {
	entry, err := s.entry(id)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !entry.session.IsActive {
		return nil
	}
	entry.session.IsActive = false
	entry.session.Touch(s.now())
	log.Printf("🔒 [STORE] Session closed: %s", id)
	return nil
}

// Delete removes a session and its messages entirely. Used by the retention
// sweep; callers elsewhere should Close instead.
func (s *SessionStore) Delete(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// Count returns the total number of sessions.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ActiveCount returns the number of active sessions.
func (s *SessionStore) ActiveCount() int {
	s.mu.RLock()
	entries := make([]*sessionEntry, 0, len(s.sessions))
	for _, entry := range s.sessions {
		entries = append(entries, entry)
	}
	s.mu.RUnlock()

	count := 0
	for _, entry := range entries {
		entry.mu.Lock()
		if entry.session.IsActive {
			count++
		}
		entry.mu.Unlock()
	}
	return count
}

func (s *SessionStore) entry(id uuid.UUID) (*sessionEntry, error) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return entry, nil
}

func cloneSession(in models.Session) models.Session {
	out := in
	out.Topics = append([]string(nil), in.Topics...)
	out.TopicWeights = make(map[string]float64, len(in.TopicWeights))
	for k, v := range in.TopicWeights {
		out.TopicWeights[k] = v
	}
	return out
}

func cloneMessage(in models.Message) models.Message {
	out := in
	if in.IdeaRefs != nil {
		out.IdeaRefs = append([]uuid.UUID(nil), in.IdeaRefs...)
	}
	if in.ContextConfidence != nil {
		v := *in.ContextConfidence
		out.ContextConfidence = &v
	}
	return out
}

func cloneMessages(in []models.Message) []models.Message {
	out := make([]models.Message, len(in))
	for i, msg := range in {
		out[i] = cloneMessage(msg)
	}
	return out
}
