package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// TopicConfig describes one entry in the topic vocabulary: a canonical label
// plus the trigger keywords that map free text onto it.
type TopicConfig struct {
	Name      string   `yaml:"name"`
	Keywords  []string `yaml:"keywords"`
	Weight    float64  `yaml:"weight"`
	Subtopics []string `yaml:"subtopics,omitempty"`
}

// ScoringConfig holds idea-scoring weights and thresholds
type ScoringConfig struct {
	NoveltyWeight    float64 `yaml:"novelty_weight"`
	TopicalityWeight float64 `yaml:"topicality_weight"`
	RelevanceWeight  float64 `yaml:"relevance_weight"`
	MinimumScore     float64 `yaml:"minimum_score"`
}

// FilterConfig holds content filtering thresholds for ingestion
type FilterConfig struct {
	MinContentLength int      `yaml:"min_content_length"`
	MaxAgeDays       int      `yaml:"max_age_days"`
	Languages        []string `yaml:"languages"`
}

// TopicsConfig is the full topic vocabulary + scoring configuration
type TopicsConfig struct {
	Primary   []TopicConfig `yaml:"primary"`
	Secondary []TopicConfig `yaml:"secondary"`
	Exclude   []string      `yaml:"exclude"`
	Scoring   ScoringConfig `yaml:"scoring"`
	Filters   FilterConfig  `yaml:"filters"`
}

type topicsFile struct {
	Topics struct {
		Primary   []TopicConfig `yaml:"primary"`
		Secondary []TopicConfig `yaml:"secondary"`
		Exclude   []string      `yaml:"exclude"`
	} `yaml:"topics"`
	Scoring ScoringConfig `yaml:"scoring"`
	Filters FilterConfig  `yaml:"filters"`
}

// DefaultTopics returns the compiled-in vocabulary used when no YAML file is
// present. Labels and weights mirror the product's launch focus areas.
func DefaultTopics() *TopicsConfig {
	return &TopicsConfig{
		Primary: []TopicConfig{
			{Name: "tokenized deposits", Keywords: []string{"tokenized deposits", "tokenized deposit", "deposit token"}, Weight: 1.0},
			{Name: "stablecoins", Keywords: []string{"stablecoin", "stablecoins"}, Weight: 1.0},
			{Name: "liquidity", Keywords: []string{"liquidity"}, Weight: 0.9},
			{Name: "treasury", Keywords: []string{"treasury", "treasuries"}, Weight: 0.9},
		},
		Secondary: []TopicConfig{
			{Name: "AI", Keywords: []string{"ai", "artificial intelligence", "machine learning"}, Weight: 0.7},
			{Name: "technology", Keywords: []string{"technology", "tech"}, Weight: 0.6},
			{Name: "business", Keywords: []string{"business"}, Weight: 0.6},
			{Name: "commerce", Keywords: []string{"commerce", "payments"}, Weight: 0.6},
		},
		Exclude: []string{"celebrity gossip", "horoscope"},
		Scoring: ScoringConfig{
			NoveltyWeight:    0.4,
			TopicalityWeight: 0.3,
			RelevanceWeight:  0.3,
			MinimumScore:     0.65,
		},
		Filters: FilterConfig{
			MinContentLength: 500,
			MaxAgeDays:       7,
			Languages:        []string{"en"},
		},
	}
}

// LoadTopics loads the topic vocabulary from a YAML file, falling back to the
// compiled defaults when the file is missing.
func LoadTopics(path string) (*TopicsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("⚠️  [CONFIG] Topics file %s not found, using built-in defaults", path)
			return DefaultTopics(), nil
		}
		return nil, fmt.Errorf("failed to read topics file: %w", err)
	}

	var file topicsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse topics YAML: %w", err)
	}

	cfg := &TopicsConfig{
		Primary:   file.Topics.Primary,
		Secondary: file.Topics.Secondary,
		Exclude:   file.Topics.Exclude,
		Scoring:   file.Scoring,
		Filters:   file.Filters,
	}

	// Zero weights would make the composite meaningless; backfill defaults.
	def := DefaultTopics()
	if cfg.Scoring.NoveltyWeight == 0 && cfg.Scoring.TopicalityWeight == 0 && cfg.Scoring.RelevanceWeight == 0 {
		cfg.Scoring = def.Scoring
	}
	if cfg.Filters.MinContentLength == 0 {
		cfg.Filters = def.Filters
	}

	return cfg, nil
}

// WatchTopics watches the topics file and invokes onReload with the freshly
// parsed vocabulary whenever it changes. Returns a stop function. A missing
// file is not an error; the watcher simply covers the parent directory so a
// later creation is picked up too.
func WatchTopics(path string, onReload func(*TopicsConfig)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create topics watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := LoadTopics(path)
				if err != nil {
					log.Printf("⚠️  [CONFIG] Failed to reload topics from %s: %v", path, err)
					continue
				}
				log.Printf("🔄 [CONFIG] Topics reloaded from %s (%d primary, %d secondary)",
					path, len(cfg.Primary), len(cfg.Secondary))
				onReload(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("⚠️  [CONFIG] Topics watcher error: %v", err)
			}
		}
	}()

	return func() { watcher.Close() }, nil
}
