package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithSession returns a logger with session context fields attached.
// Use this for all logging within a chat turn.
func WithSession(sessionID, userID string) *slog.Logger {
	return slog.With(
		"session_id", sessionID,
		"user_id", userID,
	)
}

// WithIdea returns a logger scoped to a specific idea.
func WithIdea(logger *slog.Logger, ideaID, sourceType string) *slog.Logger {
	return logger.With(
		"idea_id", ideaID,
		"source_type", sourceType,
	)
}
