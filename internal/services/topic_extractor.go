package services

import (
	"strings"
	"sync"

	"aletheia/internal/config"
)

// TopicExtractor maps free text onto the configured topic vocabulary. It is a
// deterministic keyword matcher: a topic is emitted when any of its trigger
// keywords occurs in the lower-cased input, with a contribution weight that
// grows with the occurrence count. The vocabulary can be swapped at runtime
// (hot reload of topics.yaml).
type TopicExtractor struct {
	mu    sync.RWMutex
	vocab *config.TopicsConfig
}

// NewTopicExtractor creates an extractor over the given vocabulary
func NewTopicExtractor(vocab *config.TopicsConfig) *TopicExtractor {
	if vocab == nil {
		vocab = config.DefaultTopics()
	}
	return &TopicExtractor{vocab: vocab}
}

// Reload swaps in a new vocabulary
func (e *TopicExtractor) Reload(vocab *config.TopicsConfig) {
	if vocab == nil {
		return
	}
	e.mu.Lock()
	e.vocab = vocab
	e.mu.Unlock()
}

// Extract returns the per-turn weight contribution for every topic the text
// mentions. Text with no configured keywords yields an empty map; that is a
// normal outcome, not an error.
func (e *TopicExtractor) Extract(text string) map[string]float64 {
	e.mu.RLock()
	vocab := e.vocab
	e.mu.RUnlock()

	contributions := make(map[string]float64)
	if strings.TrimSpace(text) == "" {
		return contributions
	}

	lowered := strings.ToLower(text)
	for _, group := range [][]config.TopicConfig{vocab.Primary, vocab.Secondary} {
		for _, topic := range group {
			count := 0
			for _, keyword := range topic.Keywords {
				kw := strings.ToLower(strings.TrimSpace(keyword))
				if kw == "" {
					continue
				}
				count += strings.Count(lowered, kw)
			}
			if count > 0 {
				weight := topic.Weight
				if weight <= 0 {
					weight = 1.0
				}
				contributions[topic.Name] += float64(count) * weight
			}
		}
	}
	return contributions
}
