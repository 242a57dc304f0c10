package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"aletheia/internal/models"
	"aletheia/internal/services"
	"aletheia/internal/store"
)

func newTestApp() (*fiber.App, *store.SessionStore) {
	sessions := store.NewSessionStore()
	scorer := services.NewConfidenceScorer(0.8, 24*time.Hour)
	chat := services.NewChatService(
		sessions,
		services.NewTopicExtractor(nil),
		scorer,
		services.NewContextWindowManager(sessions),
		&services.StubGenerator{},
		nil, nil,
		time.Second, 10,
	)
	feedback := services.NewFeedbackProcessor(sessions, scorer)
	handler := NewChatHandler(chat, feedback)

	app := fiber.New()
	app.Post("/api/chat", handler.SendMessage)
	app.Post("/api/chat/feedback", handler.SubmitFeedback)
	app.Post("/api/chat/sessions", handler.CreateSession)
	app.Get("/api/chat/sessions", handler.ListSessions)
	app.Get("/api/chat/sessions/:id", handler.GetSession)
	app.Get("/api/chat/sessions/:id/history", handler.GetHistory)
	app.Delete("/api/chat/sessions/:id", handler.CloseSession)
	return app, sessions
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestChatEndpoint(t *testing.T) {
	app, _ := newTestApp()

	resp := postJSON(t, app, "/api/chat", map[string]any{
		"message": "tell me about stablecoins",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	body := decode[models.ChatResponse](t, resp)
	if body.SessionID == uuid.Nil {
		t.Error("Expected a session ID")
	}
	if body.Content == "" {
		t.Error("Expected non-empty content")
	}
	if body.ContextConfidence != 0.8 {
		t.Errorf("Expected confidence 0.8, got %f", body.ContextConfidence)
	}
}

func TestChatEndpointRequiresMessage(t *testing.T) {
	app, _ := newTestApp()

	resp := postJSON(t, app, "/api/chat", map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing message, got %d", resp.StatusCode)
	}
}

func TestChatEndpointRejectsNegativeWindow(t *testing.T) {
	app, _ := newTestApp()

	resp := postJSON(t, app, "/api/chat", map[string]any{
		"message":        "hello",
		"context_window": -1,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for negative context window, got %d", resp.StatusCode)
	}
	body := decode[map[string]string](t, resp)
	if body["reason"] != "invalid_argument" {
		t.Errorf("Expected reason invalid_argument, got %q", body["reason"])
	}
}

func TestChatEndpointUnknownSession(t *testing.T) {
	app, _ := newTestApp()

	resp := postJSON(t, app, "/api/chat", map[string]any{
		"session_id": uuid.New().String(),
		"message":    "hello",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown session, got %d", resp.StatusCode)
	}
	body := decode[map[string]string](t, resp)
	if body["reason"] != "session_not_found" {
		t.Errorf("Expected reason session_not_found, got %q", body["reason"])
	}
}

func TestChatEndpointClosedSession(t *testing.T) {
	app, sessions := newTestApp()
	session := sessions.Create("", 0.8)
	if err := sessions.Close(session.ID); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	resp := postJSON(t, app, "/api/chat", map[string]any{
		"session_id": session.ID.String(),
		"message":    "late message",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409 for closed session, got %d", resp.StatusCode)
	}
}

func TestSessionLifecycleEndpoints(t *testing.T) {
	app, _ := newTestApp()

	// Create
	resp := postJSON(t, app, "/api/chat/sessions", map[string]any{})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}
	created := decode[models.Session](t, resp)

	// Get
	req := httptest.NewRequest("GET", fmt.Sprintf("/api/chat/sessions/%s", created.ID), nil)
	getResp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if getResp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 on get, got %d", getResp.StatusCode)
	}

	// Close, twice (idempotent)
	for i := 0; i < 2; i++ {
		delReq := httptest.NewRequest("DELETE", fmt.Sprintf("/api/chat/sessions/%s", created.ID), nil)
		closeResp, err := app.Test(delReq, -1)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if closeResp.StatusCode != http.StatusOK {
			t.Errorf("Expected 200 on close attempt %d, got %d", i+1, closeResp.StatusCode)
		}
	}

	// History still readable after close
	req = httptest.NewRequest("GET", fmt.Sprintf("/api/chat/sessions/%s/history", created.ID), nil)
	histResp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if histResp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 on history, got %d", histResp.StatusCode)
	}
}

func TestSessionEndpointRejectsBadID(t *testing.T) {
	app, _ := newTestApp()

	req := httptest.NewRequest("GET", "/api/chat/sessions/not-a-uuid", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed ID, got %d", resp.StatusCode)
	}
}

func TestFeedbackEndpoint(t *testing.T) {
	app, sessions := newTestApp()
	session := sessions.Create("", 0.8)

	resp := postJSON(t, app, "/api/chat/feedback", map[string]any{
		"session_id":    session.ID.String(),
		"idea_id":       uuid.New().String(),
		"feedback_type": "accept",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	body := decode[models.FeedbackResponse](t, resp)
	if !body.Success {
		t.Error("Expected success response")
	}
	if body.UpdatedContextConfidence < 0.8 {
		t.Errorf("Expected confidence >= 0.8 after accept, got %f", body.UpdatedContextConfidence)
	}
}

func TestFeedbackEndpointInvalidType(t *testing.T) {
	app, sessions := newTestApp()
	session := sessions.Create("", 0.8)

	resp := postJSON(t, app, "/api/chat/feedback", map[string]any{
		"session_id":    session.ID.String(),
		"idea_id":       uuid.New().String(),
		"feedback_type": "maybe",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid feedback type, got %d", resp.StatusCode)
	}
	body := decode[map[string]string](t, resp)
	if body["reason"] != "invalid_feedback_type" {
		t.Errorf("Expected reason invalid_feedback_type, got %q", body["reason"])
	}
}

func TestListSessionsEndpoint(t *testing.T) {
	app, sessions := newTestApp()
	sessions.Create("", 0.8)
	sessions.Create("", 0.8)

	req := httptest.NewRequest("GET", "/api/chat/sessions", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	body := decode[models.SessionListResponse](t, resp)
	if body.Total != 2 || body.ActiveCount != 2 {
		t.Errorf("Expected 2 active sessions, got total=%d active=%d", body.Total, body.ActiveCount)
	}
}

func TestHealthEndpoint(t *testing.T) {
	sessions := store.NewSessionStore()
	sessions.Create("", 0.8)

	app := fiber.New()
	app.Get("/health", NewHealthHandler(sessions).Handle)

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", body["status"])
	}
	if body["active_sessions"].(float64) != 1 {
		t.Errorf("Expected 1 active session, got %v", body["active_sessions"])
	}
}
