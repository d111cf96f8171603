package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/voxkit/assistant-widget/internal/service"
	"github.com/voxkit/assistant-widget/internal/service/assistant"
)

func newTestServer() (*Server, *service.SessionService) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	sessions := service.NewSessionService("test-secret", time.Minute)
	return NewServer(sessions, assistant.NewService("Testy", 0, logger), logger), sessions
}

func doJSON(t *testing.T, handler echo.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec
}

func TestCreateSession(t *testing.T) {
	srv, sessions := newTestServer()

	rec := doJSON(t, srv.CreateSession, http.MethodPost, "/session",
		`{"public_key":"pk-1","assistant_id":"a-1"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}
	var resp CreateSessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.CallID == "" || resp.Token == "" {
		t.Fatalf("incomplete session: %+v", resp)
	}
	if !strings.HasPrefix(resp.WebsocketURL, "ws://") || !strings.HasSuffix(resp.WebsocketURL, "/call/"+resp.CallID) {
		t.Errorf("WebsocketURL = %q", resp.WebsocketURL)
	}

	claims, err := sessions.Validate(resp.Token)
	if err != nil {
		t.Fatalf("minted token does not validate: %v", err)
	}
	if claims.PublicKey != "pk-1" || claims.CallID != resp.CallID {
		t.Errorf("claims = %+v", claims)
	}
}

func TestCreateSessionMissingPublicKey(t *testing.T) {
	srv, _ := newTestServer()

	rec := doJSON(t, srv.CreateSession, http.MethodPost, "/session", `{"assistant_id":"a-1"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestCreateSessionMissingAssistant(t *testing.T) {
	srv, _ := newTestServer()

	rec := doJSON(t, srv.CreateSession, http.MethodPost, "/session", `{"public_key":"pk-1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateSessionAcceptsInlineAssistant(t *testing.T) {
	srv, _ := newTestServer()

	rec := doJSON(t, srv.CreateSession, http.MethodPost, "/session",
		`{"public_key":"pk-1","assistant":{"name":"inline"}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}
}

func TestChat(t *testing.T) {
	srv, _ := newTestServer()

	rec := doJSON(t, srv.Chat, http.MethodPost, "/chat",
		`{"message":"hello","history":[{"role":"user","content":"earlier"},{"role":"assistant","content":"noted"}]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var resp ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Reply == "" {
		t.Fatal("empty reply")
	}
}

func TestChatMissingMessage(t *testing.T) {
	srv, _ := newTestServer()

	rec := doJSON(t, srv.Chat, http.MethodPost, "/chat", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != "message is required" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestAuthMiddleware(t *testing.T) {
	srv, sessions := newTestServer()
	e := echo.New()

	handler := srv.AuthMiddleware(func(c echo.Context) error {
		claims := GetClaims(c)
		if claims == nil {
			t.Error("claims missing from context")
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.String(http.StatusOK, claims.CallID)
	})

	token, err := sessions.Mint("pk-1", "call-1", "a-1")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/call/call-1", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		rec := httptest.NewRecorder()
		if err := handler(e.NewContext(req, rec)); err != nil {
			t.Fatalf("handler: %v", err)
		}
		if rec.Code != http.StatusOK || rec.Body.String() != "call-1" {
			t.Fatalf("status = %d body = %q", rec.Code, rec.Body)
		}
	})

	t.Run("query parameter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/call/call-1?token="+token, nil)
		rec := httptest.NewRecorder()
		if err := handler(e.NewContext(req, rec)); err != nil {
			t.Fatalf("handler: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/call/call-1", nil)
		rec := httptest.NewRecorder()
		if err := handler(e.NewContext(req, rec)); err != nil {
			t.Fatalf("handler: %v", err)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/call/call-1", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer not-a-token")
		rec := httptest.NewRecorder()
		if err := handler(e.NewContext(req, rec)); err != nil {
			t.Fatalf("handler: %v", err)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})
}
