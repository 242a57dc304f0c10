package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"aletheia/internal/models"
)

// IdeaProvider supplies scored idea suggestions relevant to a set of topics.
// The chat orchestrator treats it as optional: a nil provider means idea
// discovery is disabled for the deployment.
type IdeaProvider interface {
	Search(ctx context.Context, topics []string) ([]models.IdeaSuggestion, error)
}

const (
	briefMaxLen      = 200
	searchCacheTTL   = 30 * time.Second
	maxSearchResults = 5
)

// IdeaService maintains the volatile idea catalog and serves scored
// suggestions to the chat flow. Ideas expire with their TTL; nothing
// is persisted.
type IdeaService struct {
	catalog *cache.Cache
	scores  *cache.Cache
	search  *cache.Cache
	scorer  *ScoringService
}

// NewIdeaService creates an idea service with the given idea TTL
func NewIdeaService(scorer *ScoringService, ideaTTL time.Duration) *IdeaService {
	if ideaTTL <= 0 {
		ideaTTL = 7 * 24 * time.Hour
	}
	return &IdeaService{
		catalog: cache.New(ideaTTL, 10*time.Minute),
		scores:  cache.New(ideaTTL, 10*time.Minute),
		search:  cache.New(searchCacheTTL, time.Minute),
		scorer:  scorer,
	}
}

// Add scores and stores a new idea, returning it with its score
func (s *IdeaService) Add(idea models.Idea) models.IdeaResponse {
	if idea.ID == uuid.Nil {
		idea.ID = uuid.New()
	}
	if idea.CreatedAt.IsZero() {
		idea.CreatedAt = time.Now().UTC()
	}
	if idea.Status == "" {
		idea.Status = models.IdeaPending
	}
	if idea.WordCount == 0 {
		idea.WordCount = len(strings.Fields(idea.Content))
	}

	score := s.scorer.ScoreIdea(idea)

	s.catalog.SetDefault(idea.ID.String(), idea)
	s.scores.SetDefault(idea.ID.String(), score)
	s.search.Flush()

	if m := GetMetrics(); m != nil {
		m.RecordIdeaIngested(string(idea.SourceType))
	}
	log.Printf("💡 [IDEAS] Added idea %s (%s, score %.3f): %s", idea.ID, idea.SourceType, score.Composite, idea.Title)

	return models.IdeaResponse{
		Idea:            idea,
		Score:           score,
		PassesThreshold: s.scorer.PassesThreshold(score),
	}
}

// Get returns an idea and its score by ID
func (s *IdeaService) Get(id uuid.UUID) (models.Idea, models.IdeaScore, error) {
	raw, ok := s.catalog.Get(id.String())
	if !ok {
		return models.Idea{}, models.IdeaScore{}, fmt.Errorf("lookup idea %s: %w", id, models.ErrIdeaNotFound)
	}
	idea := raw.(models.Idea)
	score := models.IdeaScore{IdeaID: id}
	if rawScore, ok := s.scores.Get(id.String()); ok {
		score = rawScore.(models.IdeaScore)
	}
	return idea, score, nil
}

// Approve marks an idea approved
func (s *IdeaService) Approve(id uuid.UUID) (models.Idea, error) {
	return s.setStatus(id, models.IdeaApproved)
}

// Reject marks an idea rejected. Rejected ideas stay in the catalog until
// their TTL so they are not re-suggested, but Search skips them.
func (s *IdeaService) Reject(id uuid.UUID) (models.Idea, error) {
	return s.setStatus(id, models.IdeaRejected)
}

func (s *IdeaService) setStatus(id uuid.UUID, status models.IdeaStatus) (models.Idea, error) {
	raw, ok := s.catalog.Get(id.String())
	if !ok {
		return models.Idea{}, fmt.Errorf("update idea %s: %w", id, models.ErrIdeaNotFound)
	}
	idea := raw.(models.Idea)
	idea.Status = status
	s.catalog.SetDefault(id.String(), idea)
	s.search.Flush()
	log.Printf("💡 [IDEAS] Idea %s marked %s", id, status)
	return idea, nil
}

// Search implements IdeaProvider: it returns the highest-scoring non-rejected
// ideas whose content overlaps the requested topics. Results are cached
// briefly since consecutive chat turns tend to share topic sets.
func (s *IdeaService) Search(ctx context.Context, topics []string) ([]models.IdeaSuggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := searchKey(topics)
	if raw, ok := s.search.Get(key); ok {
		return raw.([]models.IdeaSuggestion), nil
	}

	type candidate struct {
		suggestion models.IdeaSuggestion
		composite  float64
	}
	var candidates []candidate

	for id, item := range s.catalog.Items() {
		idea, ok := item.Object.(models.Idea)
		if !ok || idea.Status == models.IdeaRejected {
			continue
		}
		if len(topics) > 0 && !matchesTopics(idea, topics) {
			continue
		}
		composite := 0.0
		if rawScore, ok := s.scores.Get(id); ok {
			composite = rawScore.(models.IdeaScore).Composite
		}
		candidates = append(candidates, candidate{
			suggestion: models.IdeaSuggestion{
				IdeaID: idea.ID,
				Title:  idea.Title,
				Brief:  brief(idea.Content),
				Score:  composite,
			},
			composite: composite,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].composite > candidates[j].composite
	})
	if len(candidates) > maxSearchResults {
		candidates = candidates[:maxSearchResults]
	}

	suggestions := make([]models.IdeaSuggestion, 0, len(candidates))
	for _, c := range candidates {
		suggestions = append(suggestions, c.suggestion)
	}

	s.search.SetDefault(key, suggestions)
	return suggestions, nil
}

// Count returns the number of ideas currently in the catalog
func (s *IdeaService) Count() int {
	return s.catalog.ItemCount()
}

func matchesTopics(idea models.Idea, topics []string) bool {
	content := strings.ToLower(idea.Title + " " + idea.Content)
	for _, topic := range topics {
		topic = strings.ToLower(topic)
		if topic == "" {
			continue
		}
		if strings.Contains(content, topic) {
			return true
		}
		for _, tag := range idea.Tags {
			if strings.EqualFold(tag, topic) {
				return true
			}
		}
	}
	return false
}

func brief(content string) string {
	content = strings.TrimSpace(content)
	if len(content) <= briefMaxLen {
		return content
	}
	cut := content[:briefMaxLen]
	if idx := strings.LastIndex(cut, " "); idx > briefMaxLen/2 {
		cut = cut[:idx]
	}
	return cut + "..."
}

func searchKey(topics []string) string {
	if len(topics) == 0 {
		return "*"
	}
	sorted := make([]string, len(topics))
	for i, t := range topics {
		sorted[i] = strings.ToLower(t)
	}
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}
