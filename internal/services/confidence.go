package services

import (
	"time"

	"aletheia/internal/models"
)

// ConfidenceScorer blends session age, feedback history, and external-context
// availability into a single scalar in [0, 1]. It is a pure function of its
// input: identical inputs always produce identical output, since confidence
// is user-visible and tested.
type ConfidenceScorer struct {
	Prior float64 // starting value, also the session default at creation

	ExternalBonus      float64 // semantic-memory query answered this turn
	UnavailablePenalty float64 // queried but unreachable; smaller than the bonus

	AcceptBonus   float64 // per recent accept event
	RejectPenalty float64 // per recent reject event

	HistoryBonus    float64 // per accepted idea accumulated on the session
	HistoryBonusCap float64

	// Beyond FreshnessWindow the adjusted score decays back toward the
	// prior, reflecting reduced trust in stale context.
	FreshnessWindow time.Duration
	DecayPerDay     float64
}

// NewConfidenceScorer returns a scorer with the documented defaults
func NewConfidenceScorer(prior float64, freshness time.Duration) *ConfidenceScorer {
	if prior <= 0 || prior > 1 {
		prior = 0.8
	}
	if freshness <= 0 {
		freshness = 24 * time.Hour
	}
	return &ConfidenceScorer{
		Prior:              prior,
		ExternalBonus:      0.1,
		UnavailablePenalty: 0.05,
		AcceptBonus:        0.05,
		RejectPenalty:      0.05,
		HistoryBonus:       0.02,
		HistoryBonusCap:    0.1,
		FreshnessWindow:    freshness,
		DecayPerDay:        0.5,
	}
}

// ConfidenceInput carries everything the scorer consults for one evaluation
type ConfidenceInput struct {
	Session models.Session

	// ExternalQueried is false when no semantic-memory client is configured;
	// in that case availability carries no signal either way.
	ExternalQueried   bool
	ExternalAvailable bool

	RecentFeedback []models.FeedbackType

	Now time.Time
}

// Score computes the confidence value for the given input, clamped to [0, 1]
func (s *ConfidenceScorer) Score(in ConfidenceInput) float64 {
	score := s.Prior

	if in.ExternalQueried {
		if in.ExternalAvailable {
			score += s.ExternalBonus
		} else {
			score -= s.UnavailablePenalty
		}
	}

	for _, fb := range in.RecentFeedback {
		switch fb {
		case models.FeedbackAccept:
			score += s.AcceptBonus
		case models.FeedbackReject:
			score -= s.RejectPenalty
		case models.FeedbackFlag:
			// flag records intent to revisit, no penalty
		}
	}

	history := s.HistoryBonus * float64(in.Session.IdeasAccepted)
	if history > s.HistoryBonusCap {
		history = s.HistoryBonusCap
	}
	score += history

	score = s.decayTowardPrior(score, in.Session.LastMessageAt, in.Now)

	return clamp01(score)
}

// decayTowardPrior pulls the adjusted score back toward the prior once the
// session's last activity ages past the freshness window.
func (s *ConfidenceScorer) decayTowardPrior(score float64, lastActive, now time.Time) float64 {
	if lastActive.IsZero() || now.IsZero() {
		return score
	}
	age := now.Sub(lastActive)
	if age <= s.FreshnessWindow {
		return score
	}
	staleDays := (age - s.FreshnessWindow).Hours() / 24
	factor := 1.0 / (1.0 + s.DecayPerDay*staleDays)
	return s.Prior + (score-s.Prior)*factor
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
