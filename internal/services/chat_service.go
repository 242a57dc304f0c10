package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"aletheia/internal/models"
	"aletheia/internal/store"
)

// ChatService orchestrates one chat turn end to end: session resolution,
// topic extraction, context assembly, optional external lookups, response
// generation, and confidence scoring. External collaborators (semantic
// memory, idea discovery) are soft dependencies: any of them may be nil or
// failing and the turn still completes.
type ChatService struct {
	store     *store.SessionStore
	extractor *TopicExtractor
	scorer    *ConfidenceScorer
	window    *ContextWindowManager
	generator ResponseGenerator

	// Optional collaborators; nil disables the capability
	mnemosyne MnemosyneClient
	ideas     IdeaProvider

	externalTimeout time.Duration
	defaultWindow   int

	now func() time.Time
}

// NewChatService wires the chat orchestrator. mnemosyne and ideas may be nil.
func NewChatService(
	sessions *store.SessionStore,
	extractor *TopicExtractor,
	scorer *ConfidenceScorer,
	window *ContextWindowManager,
	generator ResponseGenerator,
	mnemosyne MnemosyneClient,
	ideas IdeaProvider,
	externalTimeout time.Duration,
	defaultWindow int,
) *ChatService {
	if generator == nil {
		generator = &StubGenerator{}
	}
	if externalTimeout <= 0 {
		externalTimeout = 5 * time.Second
	}
	if defaultWindow <= 0 {
		defaultWindow = 10
	}
	return &ChatService{
		store:           sessions,
		extractor:       extractor,
		scorer:          scorer,
		window:          window,
		generator:       generator,
		mnemosyne:       mnemosyne,
		ideas:           ideas,
		externalTimeout: externalTimeout,
		defaultWindow:   defaultWindow,
		now:             time.Now,
	}
}

// SetClock overrides the time source for tests
func (s *ChatService) SetClock(now func() time.Time) {
	s.now = now
}

// SendMessage processes one user turn and returns the full response envelope
func (s *ChatService) SendMessage(ctx context.Context, userID string, req models.ChatRequest) (models.ChatResponse, error) {
	started := s.now()
	if m := GetMetrics(); m != nil {
		m.RecordChatRequest()
	}

	// Resolve or create the session
	var session models.Session
	if req.SessionID != nil {
		existing, err := s.store.Get(*req.SessionID)
		if err != nil {
			return models.ChatResponse{}, fmt.Errorf("resolve session: %w", err)
		}
		if !existing.IsActive {
			return models.ChatResponse{}, fmt.Errorf("resolve session %s: %w", existing.ID, models.ErrSessionClosed)
		}
		session = existing
	} else {
		session = s.store.Create(userID, s.scorer.Prior)
		log.Printf("💬 [CHAT] Created session %s for user %q", session.ID, userID)
	}

	if _, err := s.store.AppendMessage(session.ID, models.RoleUser, req.Message, nil, nil); err != nil {
		return models.ChatResponse{}, fmt.Errorf("append user message: %w", err)
	}

	// Fold extracted topics plus caller hints into the session's running
	// weights. Hints count as a single unit of weight each. turnTopics keeps
	// only this turn's topics for the response envelope.
	extracted := s.extractor.Extract(req.Message)
	turnTopics := make([]string, 0, len(req.Topics)+len(extracted))
	seenTurn := make(map[string]bool)
	for _, hint := range req.Topics {
		if hint == "" || seenTurn[hint] {
			continue
		}
		seenTurn[hint] = true
		turnTopics = append(turnTopics, hint)
	}
	for _, label := range sortedLabels(extracted) {
		if !seenTurn[label] {
			seenTurn[label] = true
			turnTopics = append(turnTopics, label)
		}
	}
	session, err := s.store.Update(session.ID, func(sess *models.Session) {
		for _, hint := range req.Topics {
			sess.AddTopicWeight(hint, 1.0)
		}
		for _, label := range sortedLabels(extracted) {
			sess.AddTopicWeight(label, extracted[label])
		}
	})
	if err != nil {
		return models.ChatResponse{}, fmt.Errorf("merge topics: %w", err)
	}

	windowSize := req.ContextWindow
	if windowSize < 0 {
		return models.ChatResponse{}, fmt.Errorf("context window size %d: %w", windowSize, models.ErrInvalidArgument)
	}
	if windowSize == 0 {
		windowSize = s.defaultWindow
	}
	history, err := s.window.Window(session.ID, windowSize)
	if err != nil {
		return models.ChatResponse{}, fmt.Errorf("assemble context window: %w", err)
	}

	// Query semantic memory outside any session lock; failure degrades the
	// turn rather than failing it.
	queried, available, retrieved := s.queryMemory(ctx, session.Topics)

	var suggestions []models.IdeaSuggestion
	if req.IncludeIdeas && s.ideas != nil {
		suggestions = s.searchIdeas(ctx, session.Topics)
		if len(suggestions) > 0 {
			session, err = s.store.Update(session.ID, func(sess *models.Session) {
				sess.IdeasGenerated += len(suggestions)
			})
			if err != nil {
				return models.ChatResponse{}, fmt.Errorf("record generated ideas: %w", err)
			}
		}
	}
	if suggestions == nil {
		suggestions = []models.IdeaSuggestion{}
	}

	content, err := s.generator.Generate(ctx, GenerationInput{
		Message:   req.Message,
		History:   history,
		Topics:    session.Topics,
		Retrieved: retrieved,
	})
	if err != nil || content == "" {
		// The turn must always produce content; fall back to the stub.
		if err != nil {
			log.Printf("⚠️ [CHAT] Response generation failed, using fallback: %v", err)
			if m := GetMetrics(); m != nil {
				m.RecordExternalUnavailable("generator")
			}
		}
		content, _ = (&StubGenerator{}).Generate(ctx, GenerationInput{
			Message:   req.Message,
			History:   history,
			Topics:    session.Topics,
			Retrieved: retrieved,
		})
	}

	confidence := s.scorer.Score(ConfidenceInput{
		Session:           session,
		ExternalQueried:   queried,
		ExternalAvailable: available,
		Now:               s.now(),
	})

	ideaRefs := make([]uuid.UUID, 0, len(suggestions))
	for _, sugg := range suggestions {
		ideaRefs = append(ideaRefs, sugg.IdeaID)
	}

	frozen := confidence
	assistantMsg, err := s.store.AppendMessage(session.ID, models.RoleAssistant, content, ideaRefs, &frozen)
	if err != nil {
		return models.ChatResponse{}, fmt.Errorf("append assistant message: %w", err)
	}

	session, err = s.store.Update(session.ID, func(sess *models.Session) {
		sess.ContextConfidence = confidence
	})
	if err != nil {
		return models.ChatResponse{}, fmt.Errorf("update session confidence: %w", err)
	}

	latency := s.now().Sub(started)
	if m := GetMetrics(); m != nil {
		m.RecordChatLatency(latency.Seconds())
	}

	return models.ChatResponse{
		SessionID:          session.ID,
		MessageID:          assistantMsg.ID,
		Content:            content,
		Ideas:              suggestions,
		TopicsDiscussed:    turnTopics,
		ContextConfidence:  confidence,
		MnemosyneAvailable: queried && available,
		LatencyMS:          latency.Milliseconds(),
	}, nil
}

// queryMemory calls the semantic-memory collaborator with a bounded timeout.
// It returns whether a query was attempted, whether it succeeded, and any
// retrieved summaries.
func (s *ChatService) queryMemory(ctx context.Context, topics []string) (queried, available bool, retrieved []string) {
	if s.mnemosyne == nil {
		return false, false, nil
	}
	callCtx, cancel := context.WithTimeout(ctx, s.externalTimeout)
	defer cancel()

	memCtx, err := s.mnemosyne.Query(callCtx, topics, s.now().Add(-24*time.Hour))
	if err != nil {
		log.Printf("⚠️ [CHAT] Mnemosyne unavailable, continuing in degraded mode: %v", err)
		if m := GetMetrics(); m != nil {
			m.RecordExternalUnavailable("mnemosyne")
		}
		return true, false, nil
	}
	if memCtx == nil {
		return true, true, nil
	}
	return true, true, memCtx.Summaries
}

// searchIdeas asks the idea provider for suggestions, treating failure as an
// empty result.
func (s *ChatService) searchIdeas(ctx context.Context, topics []string) []models.IdeaSuggestion {
	callCtx, cancel := context.WithTimeout(ctx, s.externalTimeout)
	defer cancel()

	suggestions, err := s.ideas.Search(callCtx, topics)
	if err != nil {
		log.Printf("⚠️ [CHAT] Idea search failed, continuing without suggestions: %v", err)
		if m := GetMetrics(); m != nil {
			m.RecordExternalUnavailable("ideas")
		}
		return nil
	}
	return suggestions
}

// CreateSession starts a new empty session for the user
func (s *ChatService) CreateSession(userID string) models.Session {
	session := s.store.Create(userID, s.scorer.Prior)
	log.Printf("💬 [CHAT] Created session %s for user %q", session.ID, userID)
	return session
}

// GetSession returns a session snapshot by ID
func (s *ChatService) GetSession(id uuid.UUID) (models.Session, error) {
	return s.store.Get(id)
}

// ListSessions returns sessions for a user, most recently active first
func (s *ChatService) ListSessions(userID string, activeOnly bool) models.SessionListResponse {
	sessions := s.store.List(userID, activeOnly)
	active := 0
	for _, sess := range sessions {
		if sess.IsActive {
			active++
		}
	}
	return models.SessionListResponse{
		Sessions:    sessions,
		Total:       len(sessions),
		ActiveCount: active,
	}
}

// GetSessionHistory returns a session with its full ordered message log
func (s *ChatService) GetSessionHistory(id uuid.UUID) (models.SessionHistoryResponse, error) {
	session, err := s.store.Get(id)
	if err != nil {
		return models.SessionHistoryResponse{}, err
	}
	messages, err := s.store.Messages(id)
	if err != nil {
		return models.SessionHistoryResponse{}, err
	}

	seen := make(map[uuid.UUID]bool)
	var ideaRefs []uuid.UUID
	for _, msg := range messages {
		for _, ref := range msg.IdeaRefs {
			if !seen[ref] {
				seen[ref] = true
				ideaRefs = append(ideaRefs, ref)
			}
		}
	}

	return models.SessionHistoryResponse{
		Session:         session,
		Messages:        messages,
		IdeasReferenced: ideaRefs,
	}, nil
}

// CloseSession marks a session read-only. Closing twice is a no-op.
func (s *ChatService) CloseSession(id uuid.UUID) error {
	if err := s.store.Close(id); err != nil {
		return err
	}
	log.Printf("💬 [CHAT] Closed session %s", id)
	return nil
}

// sortedLabels gives map iteration a stable order so repeated turns with the
// same text register topics identically.
func sortedLabels(weights map[string]float64) []string {
	labels := make([]string, 0, len(weights))
	for label := range weights {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
