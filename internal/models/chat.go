package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageRole identifies who authored a message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// FeedbackType is the user's verdict on a surfaced idea
type FeedbackType string

const (
	FeedbackAccept FeedbackType = "accept"
	FeedbackReject FeedbackType = "reject"
	FeedbackFlag   FeedbackType = "flag"
)

// IsValid reports whether the feedback type is one of the recognized values
func (f FeedbackType) IsValid() bool {
	switch f {
	case FeedbackAccept, FeedbackReject, FeedbackFlag:
		return true
	}
	return false
}

// Session is a bounded conversation with accumulated topic and confidence state
type Session struct {
	ID            uuid.UUID `json:"id"`
	UserID        string    `json:"user_id,omitempty"` // empty means anonymous
	CreatedAt     time.Time `json:"created_at"`
	LastMessageAt time.Time `json:"last_message_at"`

	// Topics holds distinct labels in first-seen order; TopicWeights holds
	// the accumulated weight per label. The two are kept in lockstep: every
	// label in Topics has a positive weight and vice versa.
	Topics       []string           `json:"topics"`
	TopicWeights map[string]float64 `json:"topic_weights"`

	MessageCount  int `json:"message_count"`
	IdeasGenerated int `json:"ideas_generated"`
	IdeasAccepted  int `json:"ideas_accepted"`

	// ContextConfidence is recomputed after every turn and feedback event,
	// never hand-set past creation.
	ContextConfidence float64 `json:"context_confidence"`

	IsActive bool `json:"is_active"`
}

// AddTopicWeight accumulates weight for a topic, registering the label on
// first sight. Non-positive contributions are ignored.
func (s *Session) AddTopicWeight(label string, weight float64) {
	if label == "" || weight <= 0 {
		return
	}
	if s.TopicWeights == nil {
		s.TopicWeights = make(map[string]float64)
	}
	if _, seen := s.TopicWeights[label]; !seen {
		s.Topics = append(s.Topics, label)
	}
	s.TopicWeights[label] += weight
}

// Touch updates the last activity timestamp
func (s *Session) Touch(now time.Time) {
	s.LastMessageAt = now
}

// Message is a single immutable conversation turn
type Message struct {
	ID        uuid.UUID   `json:"id"`
	SessionID uuid.UUID   `json:"session_id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`

	// IdeaRefs and ContextConfidence are populated on assistant messages
	// only. ContextConfidence is the frozen per-turn snapshot, distinct from
	// the session's mutable confidence.
	IdeaRefs          []uuid.UUID `json:"idea_refs,omitempty"`
	ContextConfidence *float64    `json:"context_confidence,omitempty"`
}

// ChatRequest is the inbound send-message envelope
type ChatRequest struct {
	SessionID     *uuid.UUID `json:"session_id,omitempty"` // nil creates a new session
	Message       string     `json:"message"`
	ContextWindow int        `json:"context_window,omitempty"` // 0 means the configured default
	Topics        []string   `json:"topics,omitempty"`         // caller-supplied topic hints
	IncludeIdeas  bool       `json:"include_ideas,omitempty"`
}

// ChatResponse is the full response envelope for one chat turn
type ChatResponse struct {
	SessionID          uuid.UUID        `json:"session_id"`
	MessageID          uuid.UUID        `json:"message_id"`
	Content            string           `json:"content"`
	Ideas              []IdeaSuggestion `json:"ideas"`
	TopicsDiscussed    []string         `json:"topics_discussed"` // topics from this turn only
	ContextConfidence  float64          `json:"context_confidence"`
	MnemosyneAvailable bool             `json:"mnemosyne_available"`
	LatencyMS          int64            `json:"latency_ms"`
}

// FeedbackRequest records a user's verdict on an idea within a session
type FeedbackRequest struct {
	SessionID    uuid.UUID    `json:"session_id"`
	IdeaID       uuid.UUID    `json:"idea_id"`
	FeedbackType FeedbackType `json:"feedback_type"`
	Comment      string       `json:"comment,omitempty"`
}

// FeedbackResponse confirms a feedback event and carries the re-scored
// confidence so callers can display it without a second read.
type FeedbackResponse struct {
	Success                  bool    `json:"success"`
	Message                  string  `json:"message"`
	UpdatedContextConfidence float64 `json:"updated_context_confidence,omitempty"`
}

// SessionListResponse wraps a filtered session listing
type SessionListResponse struct {
	Sessions    []Session `json:"sessions"`
	Total       int       `json:"total"`
	ActiveCount int       `json:"active_count"`
}

// SessionHistoryResponse is a session with its full ordered message history
type SessionHistoryResponse struct {
	Session         Session     `json:"session"`
	Messages        []Message   `json:"messages"`
	IdeasReferenced []uuid.UUID `json:"ideas_referenced"`
}
