package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/permbroker-org/permbroker/pkg/api/service"
	"github.com/permbroker-org/permbroker/pkg/broker"
	"github.com/permbroker-org/permbroker/pkg/frame"
	"github.com/permbroker-org/permbroker/pkg/policy"
)

// newTestServer wires a server whose policy prompts for everything, so every
// request lands in the prompt queue.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	b := broker.New(nil, nil)
	frames := frame.NewRegistry()
	prompts := service.NewPromptService(nil)
	tickets := service.NewTicketService(nil)

	rules, err := policy.ParseRules([]byte("default: prompt\n"))
	if err != nil {
		t.Fatalf("parse rules: %v", err)
	}
	engine := policy.NewEngine(rules, prompts, nil)
	b.SetRequestHandler(engine.RequestHandler())
	b.SetCheckHandler(engine.CheckHandler())

	return NewServer(Config{}, b, frames, prompts, tickets, nil)
}

func doJSON(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	srv.Engine().ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("parse response %q: %v", w.Body.String(), err)
		}
	}
	return w, resp
}

func TestRequestPromptResolveFlow(t *testing.T) {
	srv := newTestServer(t)

	w, resp := doJSON(t, srv, http.MethodPost, "/api/v1/frame",
		`{"origin": "https://a.test", "url": "https://a.test/page"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create frame returned %d: %s", w.Code, w.Body.String())
	}
	frameID := resp["id"].(float64)

	w, resp = doJSON(t, srv, http.MethodPost, "/api/v1/permission/request",
		`{"frame_id": 1, "permissions": ["geolocation"], "user_gesture": true}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("request returned %d: %s", w.Code, w.Body.String())
	}
	ticketID, _ := resp["id"].(string)
	if ticketID == "" {
		t.Fatalf("ticket id missing: %v", resp)
	}
	if resp["done"] != false {
		t.Fatalf("expected pending ticket, got %v", resp)
	}

	// The prompt-everything policy queued one prompt.
	w, resp = doJSON(t, srv, http.MethodGet, "/api/v1/prompt", "")
	if w.Code != http.StatusOK {
		t.Fatalf("prompt list returned %d", w.Code)
	}
	prompts := resp["prompts"].([]any)
	if len(prompts) != 1 {
		t.Fatalf("expected one pending prompt, got %d", len(prompts))
	}
	prompt := prompts[0].(map[string]any)
	if prompt["permission"] != "geolocation" {
		t.Fatalf("unexpected prompt: %v", prompt)
	}
	if prompt["frame_id"] != frameID {
		t.Fatalf("expected prompt bound to frame %v, got %v", frameID, prompt["frame_id"])
	}

	promptID := prompt["id"].(string)
	w, _ = doJSON(t, srv, http.MethodPost, "/api/v1/prompt/"+promptID, `{"granted": true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("prompt decide returned %d: %s", w.Code, w.Body.String())
	}

	// Double decision is rejected.
	w, _ = doJSON(t, srv, http.MethodPost, "/api/v1/prompt/"+promptID, `{"granted": false}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for answered prompt, got %d", w.Code)
	}

	// The ticket completed with the prompt's grant.
	w, resp = doJSON(t, srv, http.MethodGet, "/api/v1/permission/request/"+ticketID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("ticket poll returned %d", w.Code)
	}
	if resp["done"] != true {
		t.Fatalf("expected completed ticket, got %v", resp)
	}
	statuses := resp["statuses"].([]any)
	if len(statuses) != 1 || statuses[0] != "granted" {
		t.Fatalf("expected [granted], got %v", statuses)
	}
}

func TestRequestForUnknownFrame(t *testing.T) {
	srv := newTestServer(t)
	w, _ := doJSON(t, srv, http.MethodPost, "/api/v1/permission/request",
		`{"frame_id": 42, "permissions": ["usb"]}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestCheckEndpoint(t *testing.T) {
	srv := newTestServer(t)

	// Prompt-everything policy: synchronous checks deny.
	w, resp := doJSON(t, srv, http.MethodPost, "/api/v1/permission/check",
		`{"permission": "clipboardRead", "origin": "https://a.test"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("check returned %d", w.Code)
	}
	if resp["granted"] != false || resp["status"] != "denied" {
		t.Fatalf("expected denied check, got %v", resp)
	}
}

func TestStatusEndpointFailOpen(t *testing.T) {
	b := broker.New(nil, nil)
	srv := NewServer(Config{}, b, frame.NewRegistry(), service.NewPromptService(nil), service.NewTicketService(nil), nil)

	// No check handler registered: fail-open, status granted.
	w, resp := doJSON(t, srv, http.MethodGet,
		"/api/v1/permission/status?permission=notifications&origin=https://a.test", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status returned %d", w.Code)
	}
	if resp["status"] != "granted" {
		t.Fatalf("expected fail-open granted, got %v", resp)
	}

	w, _ = doJSON(t, srv, http.MethodGet, "/api/v1/permission/status", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without permission parameter, got %d", w.Code)
	}
}

func TestFrameLifecycleEndpoints(t *testing.T) {
	srv := newTestServer(t)

	w, _ := doJSON(t, srv, http.MethodPost, "/api/v1/frame", `{"origin": "https://a.test"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create frame returned %d", w.Code)
	}

	w, resp := doJSON(t, srv, http.MethodPost, "/api/v1/frame/1/navigate",
		`{"url": "https://a.test/inner"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("navigate returned %d", w.Code)
	}
	if resp["url"] != "https://a.test/inner" {
		t.Fatalf("expected committed url update, got %v", resp)
	}

	w, _ = doJSON(t, srv, http.MethodDelete, "/api/v1/frame/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete returned %d", w.Code)
	}
	w, _ = doJSON(t, srv, http.MethodGet, "/api/v1/frame/1", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after teardown, got %d", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	b := broker.New(nil, nil)
	srv := NewServer(Config{APIKey: "secret"}, b, frame.NewRegistry(), service.NewPromptService(nil), service.NewTicketService(nil), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/frame", nil)
	srv.Engine().ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/v1/frame", nil)
	req.Header.Set("X-API-Key", "secret")
	srv.Engine().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with key, got %d", w.Code)
	}

	// Health stays open.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/health", nil)
	srv.Engine().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected open health endpoint, got %d", w.Code)
	}
}
