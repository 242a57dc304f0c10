package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"aletheia/internal/models"
	"aletheia/internal/store"
)

func newFeedbackFixture() (*store.SessionStore, *FeedbackProcessor, models.Session) {
	s := store.NewSessionStore()
	scorer := NewConfidenceScorer(0.8, 24*time.Hour)
	p := NewFeedbackProcessor(s, scorer)
	session := s.Create("user-1", scorer.Prior)
	return s, p, session
}

func TestApplyAcceptRaisesConfidence(t *testing.T) {
	s, p, session := newFeedbackFixture()

	resp, err := p.Apply(models.FeedbackRequest{
		SessionID:    session.ID,
		IdeaID:       uuid.New(),
		FeedbackType: models.FeedbackAccept,
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !resp.Success {
		t.Error("Expected success response")
	}
	if resp.UpdatedContextConfidence < 0.8 {
		t.Errorf("Expected confidence >= prior after accept, got %f", resp.UpdatedContextConfidence)
	}

	updated, _ := s.Get(session.ID)
	if updated.IdeasAccepted != 1 {
		t.Errorf("Expected IdeasAccepted 1, got %d", updated.IdeasAccepted)
	}
	if updated.ContextConfidence != resp.UpdatedContextConfidence {
		t.Error("Expected response confidence to match stored session confidence")
	}
}

func TestApplyRejectLowersConfidence(t *testing.T) {
	_, p, session := newFeedbackFixture()

	resp, err := p.Apply(models.FeedbackRequest{
		SessionID:    session.ID,
		IdeaID:       uuid.New(),
		FeedbackType: models.FeedbackReject,
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if resp.UpdatedContextConfidence >= 0.8 {
		t.Errorf("Expected confidence below prior after reject, got %f", resp.UpdatedContextConfidence)
	}
}

func TestApplyInvalidFeedbackType(t *testing.T) {
	s, p, session := newFeedbackFixture()

	_, err := p.Apply(models.FeedbackRequest{
		SessionID:    session.ID,
		IdeaID:       uuid.New(),
		FeedbackType: "meh",
	})
	if !errors.Is(err, models.ErrInvalidFeedbackType) {
		t.Errorf("Expected ErrInvalidFeedbackType, got %v", err)
	}

	// Validation happens before mutation
	unchanged, _ := s.Get(session.ID)
	if unchanged.IdeasAccepted != 0 || unchanged.ContextConfidence != 0.8 {
		t.Error("Expected no state change after rejected validation")
	}
}

func TestApplyUnknownSession(t *testing.T) {
	_, p, _ := newFeedbackFixture()

	_, err := p.Apply(models.FeedbackRequest{
		SessionID:    uuid.New(),
		IdeaID:       uuid.New(),
		FeedbackType: models.FeedbackAccept,
	})
	if !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestApplyClosedSession(t *testing.T) {
	s, p, session := newFeedbackFixture()
	if err := s.Close(session.ID); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, err := p.Apply(models.FeedbackRequest{
		SessionID:    session.ID,
		IdeaID:       uuid.New(),
		FeedbackType: models.FeedbackAccept,
	})
	if !errors.Is(err, models.ErrSessionClosed) {
		t.Errorf("Expected ErrSessionClosed, got %v", err)
	}
}
