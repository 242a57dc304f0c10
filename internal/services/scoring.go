package services

import (
	"log"
	"strings"
	"sync"

	"aletheia/internal/config"
	"aletheia/internal/models"
)

// NoveltyPolicy scores how novel an idea is relative to what the system has
// already seen. The default is a fixed placeholder; a real implementation
// would consult semantic similarity against prior ideas.
type NoveltyPolicy interface {
	Novelty(idea models.Idea) float64
}

// TopicalityPolicy scores content freshness and trend alignment. Also a
// placeholder extension point.
type TopicalityPolicy interface {
	Topicality(idea models.Idea) float64
}

// FixedScorePolicy is the placeholder policy for both novelty and topicality.
// It lives behind the interfaces so real algorithms can be swapped in without
// touching the scoring path.
type FixedScorePolicy struct {
	NoveltyScore    float64
	TopicalityScore float64
}

// DefaultFixedScorePolicy returns the launch defaults: high novelty until
// semantic dedup exists, moderate topicality until trend detection exists.
func DefaultFixedScorePolicy() *FixedScorePolicy {
	return &FixedScorePolicy{NoveltyScore: 0.8, TopicalityScore: 0.7}
}

// Novelty implements NoveltyPolicy
func (p *FixedScorePolicy) Novelty(models.Idea) float64 { return p.NoveltyScore }

// Topicality implements TopicalityPolicy
func (p *FixedScorePolicy) Topicality(models.Idea) float64 { return p.TopicalityScore }

// ScoringService scores ideas on relevance, novelty, and topicality against
// the configured topic vocabulary.
type ScoringService struct {
	mu         sync.RWMutex
	cfg        *config.TopicsConfig
	novelty    NoveltyPolicy
	topicality TopicalityPolicy
}

// NewScoringService creates a scoring service with the given policies
func NewScoringService(cfg *config.TopicsConfig, novelty NoveltyPolicy, topicality TopicalityPolicy) *ScoringService {
	if cfg == nil {
		cfg = config.DefaultTopics()
	}
	if novelty == nil || topicality == nil {
		fixed := DefaultFixedScorePolicy()
		if novelty == nil {
			novelty = fixed
		}
		if topicality == nil {
			topicality = fixed
		}
	}
	return &ScoringService{cfg: cfg, novelty: novelty, topicality: topicality}
}

// Reload swaps in a new vocabulary/scoring configuration
func (s *ScoringService) Reload(cfg *config.TopicsConfig) {
	if cfg == nil {
		return
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// ScoreIdea computes component scores and the weighted composite
func (s *ScoringService) ScoreIdea(idea models.Idea) models.IdeaScore {
	s.mu.RLock()
	cfg := s.cfg
	s.mu.RUnlock()

	relevance := s.relevance(cfg, idea)
	novelty := s.novelty.Novelty(idea)
	topicality := s.topicality.Topicality(idea)

	composite := relevance*cfg.Scoring.RelevanceWeight +
		novelty*cfg.Scoring.NoveltyWeight +
		topicality*cfg.Scoring.TopicalityWeight

	score := models.IdeaScore{
		IdeaID:     idea.ID,
		Relevance:  relevance,
		Novelty:    novelty,
		Topicality: topicality,
		Composite:  composite,
	}

	log.Printf("📈 [SCORING] Idea %s scored %.3f (relevance %.2f, novelty %.2f, topicality %.2f)",
		idea.ID, composite, relevance, novelty, topicality)
	return score
}

// PassesThreshold reports whether a score meets the configured minimum
func (s *ScoringService) PassesThreshold(score models.IdeaScore) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return score.Composite >= s.cfg.Scoring.MinimumScore
}

// MinContentLength exposes the configured filter threshold for ingestion
func (s *ScoringService) MinContentLength() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Filters.MinContentLength
}

// relevance blends the best primary and secondary topic matches, with
// excluded topics zeroing the score outright.
func (s *ScoringService) relevance(cfg *config.TopicsConfig, idea models.Idea) float64 {
	content := strings.ToLower(idea.Title + " " + idea.Content)

	for _, excluded := range cfg.Exclude {
		if excluded != "" && strings.Contains(content, strings.ToLower(excluded)) {
			return 0
		}
	}

	primary := bestTopicMatch(cfg.Primary, content)
	secondary := bestTopicMatch(cfg.Secondary, content)

	relevance := primary*0.7 + secondary*0.3
	if relevance > 1 {
		relevance = 1
	}
	return relevance
}

// bestTopicMatch returns the strongest single-topic score in the group:
// keyword hit ratio capped at 1, scaled by the topic weight.
func bestTopicMatch(topics []config.TopicConfig, content string) float64 {
	best := 0.0
	for _, topic := range topics {
		if len(topic.Keywords) == 0 {
			continue
		}
		matches := 0
		for _, keyword := range topic.Keywords {
			if strings.Contains(content, strings.ToLower(keyword)) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}
		ratio := float64(matches) / float64(len(topic.Keywords))
		if ratio > 1 {
			ratio = 1
		}
		if score := ratio * topic.Weight; score > best {
			best = score
		}
	}
	return best
}
