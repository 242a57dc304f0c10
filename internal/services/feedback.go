package services

import (
	"fmt"
	"log"
	"time"

	"aletheia/internal/models"
	"aletheia/internal/store"
)

// FeedbackProcessor applies accept/reject/flag signals to session state and
// triggers confidence re-scoring through the store's atomic update path.
type FeedbackProcessor struct {
	store  *store.SessionStore
	scorer *ConfidenceScorer
	now    func() time.Time
}

// NewFeedbackProcessor creates a feedback processor
func NewFeedbackProcessor(s *store.SessionStore, scorer *ConfidenceScorer) *FeedbackProcessor {
	return &FeedbackProcessor{store: s, scorer: scorer, now: time.Now}
}

// Apply validates and applies one feedback event. Validation happens before
// any state mutation: an unknown session, a closed session, or an
// unrecognized feedback type each surface the matching taxonomy error with no
// partial effect.
func (p *FeedbackProcessor) Apply(req models.FeedbackRequest) (models.FeedbackResponse, error) {
	if !req.FeedbackType.IsValid() {
		return models.FeedbackResponse{}, fmt.Errorf("%w: %q", models.ErrInvalidFeedbackType, req.FeedbackType)
	}

	session, err := p.store.Get(req.SessionID)
	if err != nil {
		return models.FeedbackResponse{}, err
	}
	if !session.IsActive {
		return models.FeedbackResponse{}, models.ErrSessionClosed
	}

	now := p.now()
	updated, err := p.store.Update(req.SessionID, func(s *models.Session) {
		if req.FeedbackType == models.FeedbackAccept {
			s.IdeasAccepted++
		}
		s.ContextConfidence = p.scorer.Score(ConfidenceInput{
			Session:        *s,
			RecentFeedback: []models.FeedbackType{req.FeedbackType},
			Now:            now,
		})
	})
	if err != nil {
		return models.FeedbackResponse{}, err
	}

	if metrics := GetMetrics(); metrics != nil {
		metrics.RecordFeedback(string(req.FeedbackType))
	}

	log.Printf("👍 [FEEDBACK] Recorded %s for idea %s on session %s (confidence: %.2f)",
		req.FeedbackType, req.IdeaID, req.SessionID, updated.ContextConfidence)

	return models.FeedbackResponse{
		Success:                  true,
		Message:                  "feedback recorded",
		UpdatedContextConfidence: updated.ContextConfidence,
	}, nil
}
