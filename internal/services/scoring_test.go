package services

import (
	"testing"

	"github.com/google/uuid"

	"aletheia/internal/config"
	"aletheia/internal/models"
)

func TestScoreIdeaComposite(t *testing.T) {
	s := NewScoringService(nil, nil, nil)

	score := s.ScoreIdea(models.Idea{
		ID:      uuid.New(),
		Title:   "Stablecoin settlement rails",
		Content: "How stablecoin and stablecoins adoption changes treasury operations and liquidity management.",
	})

	if score.Relevance <= 0 {
		t.Errorf("Expected positive relevance for on-topic content, got %f", score.Relevance)
	}
	if score.Novelty != 0.8 {
		t.Errorf("Expected placeholder novelty 0.8, got %f", score.Novelty)
	}
	if score.Topicality != 0.7 {
		t.Errorf("Expected placeholder topicality 0.7, got %f", score.Topicality)
	}

	want := score.Relevance*0.3 + score.Novelty*0.4 + score.Topicality*0.3
	if diff := score.Composite - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Composite mismatch: got %f want %f", score.Composite, want)
	}
}

func TestScoreIdeaOffTopic(t *testing.T) {
	s := NewScoringService(nil, nil, nil)

	score := s.ScoreIdea(models.Idea{
		ID:      uuid.New(),
		Title:   "Gardening tips",
		Content: "How to grow tomatoes in a small garden.",
	})
	if score.Relevance != 0 {
		t.Errorf("Expected zero relevance for off-topic content, got %f", score.Relevance)
	}
}

func TestScoreIdeaExcludedTopicZeroesRelevance(t *testing.T) {
	s := NewScoringService(nil, nil, nil)

	score := s.ScoreIdea(models.Idea{
		ID:      uuid.New(),
		Title:   "Stablecoin celebrity gossip roundup",
		Content: "stablecoin liquidity treasury",
	})
	if score.Relevance != 0 {
		t.Errorf("Expected excluded content to zero relevance, got %f", score.Relevance)
	}
}

func TestPassesThreshold(t *testing.T) {
	s := NewScoringService(nil, nil, nil)

	tests := []struct {
		composite float64
		want      bool
	}{
		{0.64, false},
		{0.65, true},
		{0.9, true},
	}
	for _, tt := range tests {
		got := s.PassesThreshold(models.IdeaScore{Composite: tt.composite})
		if got != tt.want {
			t.Errorf("PassesThreshold(%f) = %v, want %v", tt.composite, got, tt.want)
		}
	}
}

func TestRelevancePrefersStrongerTopicMatch(t *testing.T) {
	s := NewScoringService(nil, nil, nil)

	primaryHit := s.ScoreIdea(models.Idea{ID: uuid.New(), Title: "x", Content: "tokenized deposits and deposit token design"})
	secondaryHit := s.ScoreIdea(models.Idea{ID: uuid.New(), Title: "x", Content: "general business news"})

	if primaryHit.Relevance <= secondaryHit.Relevance {
		t.Errorf("Expected primary-topic content to outscore secondary-only: %f <= %f",
			primaryHit.Relevance, secondaryHit.Relevance)
	}
}

func TestScoringReload(t *testing.T) {
	s := NewScoringService(nil, nil, nil)

	s.Reload(&config.TopicsConfig{
		Primary: []config.TopicConfig{{Name: "space", Keywords: []string{"orbital"}, Weight: 1.0}},
		Scoring: config.ScoringConfig{
			NoveltyWeight:    0.4,
			TopicalityWeight: 0.3,
			RelevanceWeight:  0.3,
			MinimumScore:     0.5,
		},
	})

	score := s.ScoreIdea(models.Idea{ID: uuid.New(), Title: "x", Content: "orbital launch cadence"})
	if score.Relevance <= 0 {
		t.Errorf("Expected reloaded vocabulary to apply, got relevance %f", score.Relevance)
	}
	if !s.PassesThreshold(models.IdeaScore{Composite: 0.55}) {
		t.Error("Expected reloaded minimum score 0.5 to apply")
	}
}

func TestCustomScorePolicies(t *testing.T) {
	policy := &FixedScorePolicy{NoveltyScore: 0.5, TopicalityScore: 0.4}
	s := NewScoringService(nil, policy, policy)

	score := s.ScoreIdea(models.Idea{ID: uuid.New(), Title: "x", Content: "liquidity"})
	if score.Novelty != 0.5 || score.Topicality != 0.4 {
		t.Errorf("Expected custom policy scores, got novelty=%f topicality=%f", score.Novelty, score.Topicality)
	}
}
