package models

import (
	"time"

	"github.com/google/uuid"
)

// SourceType identifies where an idea's content came from
type SourceType string

const (
	SourceURL    SourceType = "url"
	SourceRSS    SourceType = "rss"
	SourcePDF    SourceType = "pdf"
	SourceManual SourceType = "manual"
)

// IdeaStatus tracks an idea through the review lifecycle
type IdeaStatus string

const (
	IdeaPending  IdeaStatus = "pending"
	IdeaApproved IdeaStatus = "approved"
	IdeaRejected IdeaStatus = "rejected"
)

// Idea is a candidate content idea discovered from an ingested source
type Idea struct {
	ID         uuid.UUID         `json:"id"`
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	SourceType SourceType        `json:"source_type"`
	SourceURL  string            `json:"source_url,omitempty"`
	SourceName string            `json:"source_name,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	WordCount  int               `json:"word_count"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Status     IdeaStatus        `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
}

// IdeaScore holds the component and composite scores for one idea
type IdeaScore struct {
	IdeaID     uuid.UUID `json:"idea_id"`
	Relevance  float64   `json:"relevance_score"`
	Novelty    float64   `json:"novelty_score"`
	Topicality float64   `json:"topicality_score"`
	Composite  float64   `json:"composite_score"`
}

// IdeaSuggestion is the compact idea shape attached to chat turns
type IdeaSuggestion struct {
	IdeaID uuid.UUID `json:"idea_id"`
	Title  string    `json:"title"`
	Brief  string    `json:"brief"`
	Score  float64   `json:"score"`
}

// IdeaResponse pairs an idea with its score for the ingestion endpoints
type IdeaResponse struct {
	Idea            Idea      `json:"idea"`
	Score           IdeaScore `json:"score"`
	PassesThreshold bool      `json:"passes_threshold"`
}
