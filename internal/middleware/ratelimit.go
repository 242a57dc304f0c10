package middleware

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	// Global limits (per IP)
	GlobalAPIMax        int
	GlobalAPIExpiration time.Duration

	// Public read endpoints (per IP)
	PublicReadMax        int
	PublicReadExpiration time.Duration

	// Chat turns (per user when known, otherwise per IP)
	ChatMax        int
	ChatExpiration time.Duration

	// Ingestion endpoints trigger outbound fetches, so they get the
	// tightest budget.
	IngestMax        int
	IngestExpiration time.Duration
}

// DefaultRateLimitConfig returns production-safe defaults
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		GlobalAPIMax:        200,
		GlobalAPIExpiration: 1 * time.Minute,

		PublicReadMax:        120,
		PublicReadExpiration: 1 * time.Minute,

		ChatMax:        60,
		ChatExpiration: 1 * time.Minute,

		IngestMax:        10,
		IngestExpiration: 1 * time.Minute,
	}
}

// LoadRateLimitConfig loads config from environment variables with defaults
func LoadRateLimitConfig() *RateLimitConfig {
	config := DefaultRateLimitConfig()

	if v := os.Getenv("RATE_LIMIT_GLOBAL_API"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.GlobalAPIMax = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_PUBLIC_READ"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.PublicReadMax = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_CHAT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.ChatMax = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_INGEST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.IngestMax = n
		}
	}

	// Development mode: more lenient limits
	if os.Getenv("ENVIRONMENT") == "development" {
		config.GlobalAPIMax = 1000
		config.ChatMax = 300
		config.IngestMax = 100
		log.Println("⚠️  [RATE-LIMIT] Development mode: using relaxed rate limits")
	}

	return config
}

// GlobalAPIRateLimiter creates a rate limiter for all API requests
func GlobalAPIRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.GlobalAPIMax,
		Expiration: config.GlobalAPIExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "global:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("🚫 [RATE-LIMIT] Global limit reached for IP: %s", c.IP())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many requests. Please slow down.",
				"retry_after": int(config.GlobalAPIExpiration.Seconds()),
			})
		},
	})
}

// PublicReadRateLimiter for public read-only endpoints
func PublicReadRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.PublicReadMax,
		Expiration: config.PublicReadExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "public:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("⚠️  [RATE-LIMIT] Public endpoint limit reached for IP: %s on %s", c.IP(), c.Path())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many requests to this endpoint.",
				"retry_after": int(config.PublicReadExpiration.Seconds()),
			})
		},
	})
}

// ChatRateLimiter for chat turns (uses user ID when the caller supplies one)
func ChatRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.ChatMax,
		Expiration: config.ChatExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			if userID := c.Get("X-User-ID"); userID != "" {
				return "chat:" + userID
			}
			return "chat-ip:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("⚠️  [RATE-LIMIT] Chat limit reached for IP: %s", c.IP())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many messages. Please wait before sending more.",
				"retry_after": int(config.ChatExpiration.Seconds()),
			})
		},
	})
}

// IngestRateLimiter for ingestion endpoints
func IngestRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.IngestMax,
		Expiration: config.IngestExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			if userID := c.Get("X-User-ID"); userID != "" {
				return "ingest:" + userID
			}
			return "ingest-ip:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("🚫 [RATE-LIMIT] Ingestion limit reached for IP: %s", c.IP())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Ingestion rate limit reached. Please wait before submitting more sources.",
				"retry_after": int(config.IngestExpiration.Seconds()),
			})
		},
	})
}
