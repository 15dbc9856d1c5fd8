package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fdg312/coach-hub/internal/config"
	"github.com/fdg312/coach-hub/internal/userctx"
)

func testConfig(mode string, required bool) *config.Config {
	return &config.Config{
		AuthMode:      mode,
		AuthRequired:  required,
		JWTSecret:     "test-secret-key-for-testing-only",
		JWTIssuer:     "coach-hub-test",
		JWTTTLMinutes: 60,
	}
}

type seen struct {
	userID        string
	hasUser       bool
	authenticated bool
	called        bool
}

func recordingHandler(s *seen) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.called = true
		s.userID, s.hasUser = userctx.GetUserID(r.Context())
		s.authenticated = userctx.IsAuthenticated(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestHandleDevAuth(t *testing.T) {
	service := NewService(testConfig("dev", false))
	handler := NewHandlers(service)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/dev", nil)
	w := httptest.NewRecorder()

	handler.HandleDevAuth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d. Body: %s", w.Code, w.Body.String())
	}

	var resp DevAuthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("expected access_token not empty")
	}
	if resp.TokenType != "Bearer" {
		t.Errorf("expected token_type Bearer, got %q", resp.TokenType)
	}
	if resp.ExpiresIn != int64(time.Hour.Seconds()) {
		t.Errorf("expected expires_in 3600, got %d", resp.ExpiresIn)
	}

	sub, err := service.VerifyJWT(resp.AccessToken)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if sub != "dev-user" {
		t.Errorf("expected sub dev-user, got %q", sub)
	}
}

func TestHandleDevAuthCustomUser(t *testing.T) {
	handler := NewHandlers(NewService(testConfig("dev", false)))

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/dev", bytes.NewBufferString(`{"user_id":"sam@example.com"}`))
	w := httptest.NewRecorder()
	handler.HandleDevAuth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var resp DevAuthResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.UserID != "sam@example.com" {
		t.Errorf("expected user_id sam@example.com, got %q", resp.UserID)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/auth/dev", bytes.NewBufferString(`{"user_id":"no spaces allowed"}`))
	w = httptest.NewRecorder()
	handler.HandleDevAuth(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestVerifyJWT(t *testing.T) {
	service := NewService(testConfig("dev", true))

	token, err := service.generateJWTWithTTL("userA", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if sub, err := service.VerifyJWT(token); err != nil || sub != "userA" {
		t.Fatalf("expected userA, got %q, %v", sub, err)
	}

	other := NewService(&config.Config{JWTSecret: "another-secret", JWTIssuer: "coach-hub-test"})
	if _, err := other.VerifyJWT(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for wrong secret, got %v", err)
	}

	wrongIssuer := NewService(&config.Config{JWTSecret: "test-secret-key-for-testing-only", JWTIssuer: "someone-else"})
	if _, err := wrongIssuer.VerifyJWT(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for wrong issuer, got %v", err)
	}

	expired := NewService(testConfig("dev", true))
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.generateJWTWithTTL("userA", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := service.VerifyJWT(old); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestMiddlewareLocalUser(t *testing.T) {
	cfg := testConfig("none", false)
	mw := NewMiddleware(cfg, NewService(cfg))

	var s seen
	w := httptest.NewRecorder()
	mw.Handler(recordingHandler(&s)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/profile", nil))

	if !s.called || s.userID != DefaultUserID || !s.authenticated {
		t.Fatalf("expected authenticated default user, got %+v", s)
	}
}

func TestMiddlewareRequireAuth(t *testing.T) {
	cfg := testConfig("dev", true)
	service := NewService(cfg)
	mw := NewMiddleware(cfg, service)

	t.Run("ValidToken", func(t *testing.T) {
		token, err := service.generateJWTWithTTL("test_user_123", time.Hour)
		if err != nil {
			t.Fatal(err)
		}

		var s seen
		req := httptest.NewRequest(http.MethodGet, "/v1/profile", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		mw.Handler(recordingHandler(&s)).ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
		if s.userID != "test_user_123" || !s.authenticated {
			t.Errorf("expected authenticated test_user_123, got %+v", s)
		}
	})

	t.Run("MissingToken", func(t *testing.T) {
		var s seen
		w := httptest.NewRecorder()
		mw.Handler(recordingHandler(&s)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/profile", nil))

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", w.Code)
		}
		if s.called {
			t.Error("handler must not run without a token")
		}
	})

	t.Run("InvalidToken", func(t *testing.T) {
		var s seen
		req := httptest.NewRequest(http.MethodGet, "/v1/profile", nil)
		req.Header.Set("Authorization", "Bearer invalid_token")
		w := httptest.NewRecorder()
		mw.Handler(recordingHandler(&s)).ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", w.Code)
		}
	})

	t.Run("PublicPath", func(t *testing.T) {
		var s seen
		w := httptest.NewRecorder()
		mw.Handler(recordingHandler(&s)).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/auth/dev", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
	})
}

func TestMiddlewareOptionalAuth(t *testing.T) {
	cfg := testConfig("dev", false)
	service := NewService(cfg)
	mw := NewMiddleware(cfg, service)

	var s seen
	w := httptest.NewRecorder()
	mw.Handler(recordingHandler(&s)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/coach/messages", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if s.userID != DefaultUserID || s.authenticated {
		t.Errorf("expected unauthenticated default user, got %+v", s)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/coach/messages", nil)
	req.Header.Set("Authorization", "Bearer broken")
	w = httptest.NewRecorder()
	mw.Handler(recordingHandler(&seen{})).ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for a bad token, got %d", w.Code)
	}
}
