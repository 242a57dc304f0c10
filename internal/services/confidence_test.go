package services

import (
	"testing"
	"time"

	"aletheia/internal/models"
)

func freshSession(now time.Time) models.Session {
	return models.Session{
		CreatedAt:     now,
		LastMessageAt: now,
		IsActive:      true,
	}
}

func TestScoreDefaultsToPrior(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	s := NewConfidenceScorer(0.8, 24*time.Hour)

	got := s.Score(ConfidenceInput{Session: freshSession(now), Now: now})
	if got != 0.8 {
		t.Errorf("Expected prior 0.8 with no signals, got %f", got)
	}
}

func TestScoreExternalAvailability(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	s := NewConfidenceScorer(0.8, 24*time.Hour)
	session := freshSession(now)

	notConfigured := s.Score(ConfidenceInput{Session: session, Now: now})
	reachable := s.Score(ConfidenceInput{Session: session, ExternalQueried: true, ExternalAvailable: true, Now: now})
	unreachable := s.Score(ConfidenceInput{Session: session, ExternalQueried: true, ExternalAvailable: false, Now: now})

	if reachable <= notConfigured {
		t.Errorf("Expected external context to raise confidence: %f <= %f", reachable, notConfigured)
	}
	if unreachable >= notConfigured {
		t.Errorf("Expected failed external call to lower confidence: %f >= %f", unreachable, notConfigured)
	}
	if unreachable >= reachable {
		t.Errorf("Expected unreachable < reachable: %f >= %f", unreachable, reachable)
	}
}

func TestScoreFeedbackSignals(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	s := NewConfidenceScorer(0.8, 24*time.Hour)
	session := freshSession(now)

	tests := []struct {
		name     string
		feedback []models.FeedbackType
		want     func(base, got float64) bool
	}{
		{"accept raises", []models.FeedbackType{models.FeedbackAccept}, func(base, got float64) bool { return got > base }},
		{"reject lowers", []models.FeedbackType{models.FeedbackReject}, func(base, got float64) bool { return got < base }},
		{"flag is neutral", []models.FeedbackType{models.FeedbackFlag}, func(base, got float64) bool { return got == base }},
	}

	base := s.Score(ConfidenceInput{Session: session, Now: now})
	for _, tt := range tests {
		got := s.Score(ConfidenceInput{Session: session, RecentFeedback: tt.feedback, Now: now})
		if !tt.want(base, got) {
			t.Errorf("%s: base=%f got=%f", tt.name, base, got)
		}
	}
}

func TestScoreAfterAcceptStaysAtLeastPrior(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	s := NewConfidenceScorer(0.8, 24*time.Hour)
	session := freshSession(now)
	session.IdeasAccepted = 1

	got := s.Score(ConfidenceInput{
		Session:        session,
		RecentFeedback: []models.FeedbackType{models.FeedbackAccept},
		Now:            now,
	})
	if got < 0.8 {
		t.Errorf("Expected confidence >= prior after an accept, got %f", got)
	}
}

func TestScoreHistoryBonusIsCapped(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	s := NewConfidenceScorer(0.8, 24*time.Hour)

	few := freshSession(now)
	few.IdeasAccepted = 5
	many := freshSession(now)
	many.IdeasAccepted = 500

	fewScore := s.Score(ConfidenceInput{Session: few, Now: now})
	manyScore := s.Score(ConfidenceInput{Session: many, Now: now})
	if manyScore != fewScore {
		t.Errorf("Expected history bonus to cap: %f vs %f", fewScore, manyScore)
	}
}

func TestScoreIsClamped(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	s := NewConfidenceScorer(0.8, 24*time.Hour)
	session := freshSession(now)
	session.IdeasAccepted = 1000

	got := s.Score(ConfidenceInput{
		Session:           session,
		ExternalQueried:   true,
		ExternalAvailable: true,
		RecentFeedback: []models.FeedbackType{
			models.FeedbackAccept, models.FeedbackAccept, models.FeedbackAccept,
			models.FeedbackAccept, models.FeedbackAccept, models.FeedbackAccept,
		},
		Now: now,
	})
	if got > 1.0 {
		t.Errorf("Expected score clamped to 1.0, got %f", got)
	}
}

func TestScoreDecaysTowardPriorWhenStale(t *testing.T) {
	start := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	s := NewConfidenceScorer(0.8, 24*time.Hour)

	session := freshSession(start)
	session.IdeasAccepted = 5 // lifts score above prior while fresh

	fresh := s.Score(ConfidenceInput{Session: session, Now: start.Add(1 * time.Hour)})
	stale := s.Score(ConfidenceInput{Session: session, Now: start.Add(5 * 24 * time.Hour)})

	if fresh <= 0.8 {
		t.Fatalf("Test setup expects a lifted fresh score, got %f", fresh)
	}
	if stale >= fresh {
		t.Errorf("Expected stale score to decay: %f >= %f", stale, fresh)
	}
	if stale < 0.8 {
		t.Errorf("Decay should approach the prior, not undershoot it: %f", stale)
	}
}

func TestScoreIsPure(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	s := NewConfidenceScorer(0.8, 24*time.Hour)
	in := ConfidenceInput{
		Session:           freshSession(now),
		ExternalQueried:   true,
		ExternalAvailable: true,
		RecentFeedback:    []models.FeedbackType{models.FeedbackAccept},
		Now:               now,
	}

	if s.Score(in) != s.Score(in) {
		t.Error("Expected identical inputs to produce identical scores")
	}
}
