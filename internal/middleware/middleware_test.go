package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cantinaverde/cantina/internal/app/models/dto"
	"github.com/cantinaverde/cantina/internal/pkg/apperrors"
	"github.com/cantinaverde/cantina/internal/pkg/auth"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestIsAllowedOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:5173", true},
		{"http://localhost", true},
		{"http://127.0.0.1:8080", true},
		{"http://[::1]:3000", true},
		{"https://localhost:5173", false},
		{"http://localhost.evil.com", false},
		{"http://192.168.0.10:5173", false},
		{"https://cantina.example.org", true},
	}
	for _, tt := range tests {
		if got := IsAllowedOrigin(tt.origin, []string{"https://cantina.example.org"}); got != tt.want {
			t.Errorf("IsAllowedOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func newCORSRouter() *gin.Engine {
	r := gin.New()
	r.Use(CORS(nil))
	r.GET("/api/turmas", func(c *gin.Context) { c.JSON(http.StatusOK, []string{}) })
	return r
}

func TestCORS(t *testing.T) {
	r := newCORSRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/turmas", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Errorf("Allow-Credentials = %q, want unset", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/turmas", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q for foreign origin", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	r := newCORSRouter()
	req := httptest.NewRequest(http.MethodOptions, "/api/turmas", nil)
	req.Header.Set("Origin", "http://127.0.0.1:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK && w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://127.0.0.1:5173" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestRateLimitByIP(t *testing.T) {
	r := gin.New()
	r.POST("/auth/login", RateLimitByIP(2, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes[i] = w.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestHandleAPIError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    dto.ErrorCode
		message string
	}{
		{"table", apperrors.NewCustomError(apperrors.ErrTableNotAllowed, "table x is not allowed"), 404, dto.ErrorCodeTableNotFound, "table x is not allowed"},
		{"not found", apperrors.ErrResourceNotFound, 404, dto.ErrorCodeResourceNotFound, "Resource not found"},
		{"user", apperrors.ErrUserNotFound, 404, dto.ErrorCodeResourceNotFound, "User not found"},
		{"forbidden", apperrors.NewForbiddenError("permission denied"), 403, dto.ErrorCodeForbidden, "permission denied"},
		{"credentials", apperrors.ErrInvalidCredentials, 401, dto.ErrorCodeInvalidCredentials, "Invalid credentials"},
		{"empty", apperrors.ErrEmptyPayload, 400, dto.ErrorCodeEmptyPayload, "Request body is empty"},
		{"column", apperrors.NewCustomError(apperrors.ErrUnknownColumn, "unknown column \"x\"").WithField("x"), 400, dto.ErrorCodeUnknownColumn, "unknown column \"x\""},
		{"stock", apperrors.ErrInvalidQuantity, 400, dto.ErrorCodeValidationFailed, "Invalid quantity"},
		{"wrapped storage", fmt.Errorf("failed to insert: %w", errors.New("connection refused")), 500, dto.ErrorCodeInternalServer, "Internal server error"},
		{"unique violation", fmt.Errorf("failed to insert: %w", &pgconn.PgError{Code: "23505", Message: "connection refused"}), 500, dto.ErrorCodeDatabaseError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/x", nil)

			HandleAPIError(c, tt.err)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			resp := decodeError(t, w)
			if resp.Success || resp.Error == nil {
				t.Fatalf("body = %s", w.Body.String())
			}
			if resp.Error.Code != tt.code || resp.Error.Message != tt.message {
				t.Errorf("error = %+v", resp.Error)
			}
			if strings.Contains(w.Body.String(), "connection refused") {
				t.Error("storage details must not leak")
			}
		})
	}
}

func newAuthRouter(jwtService *auth.JWTService) *gin.Engine {
	m := NewAuthMiddleware(jwtService)
	whoami := func(c *gin.Context) {
		a := ActorFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": a.UserID, "role": a.Role})
	}
	r := gin.New()
	r.GET("/auth/me", m.JWTAuth(), whoami)
	r.GET("/realtime", m.WebSocketAuth(), whoami)
	return r
}

func TestJWTAuth(t *testing.T) {
	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: "secret", TokenExp: time.Hour})
	token, _, err := jwtService.GenerateToken("u1", "user@cantina.com", "user")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	r := newAuthRouter(jwtService)

	tests := []struct {
		name   string
		header string
		target string
		status int
	}{
		{"bearer", "Bearer " + token, "/auth/me", http.StatusOK},
		{"query token refused on api routes", "", "/auth/me?token=" + token, http.StatusUnauthorized},
		{"missing", "", "/auth/me", http.StatusUnauthorized},
		{"not bearer", "Basic abc", "/auth/me", http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", "/auth/me", http.StatusUnauthorized},
		{"websocket query token", "", "/realtime?token=" + token, http.StatusOK},
		{"websocket bearer", "Bearer " + token, "/realtime", http.StatusOK},
		{"websocket garbage query token", "", "/realtime?token=abc", http.StatusUnauthorized},
		{"websocket missing", "", "/realtime", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
			if tt.status == http.StatusOK && !strings.Contains(w.Body.String(), `"id":"u1"`) {
				t.Errorf("body = %s", w.Body.String())
			}
		})
	}
}

func TestRequestLoggerAndRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zerolog.Nop()), Recovery(zerolog.Nop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if resp := decodeError(t, w); resp.Error.Code != dto.ErrorCodeInternalServer {
		t.Errorf("code = %s", resp.Error.Code)
	}
}
