package middleware

import (
	"net/http"
	"regexp"
	"time"

	"github.com/cantinaverde/cantina/internal/app/models/dto"
	"github.com/cantinaverde/cantina/internal/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"
)

// Origins of the UI dev server and the packaged desktop build
var localOrigins = []*regexp.Regexp{
	regexp.MustCompile(`^http://localhost(:\d+)?$`),
	regexp.MustCompile(`^http://127\.0\.0\.1(:\d+)?$`),
	regexp.MustCompile(`^http://\[::1\](:\d+)?$`),
}

// WrapHTTP adapts a net/http middleware to gin. The chain continues only if
// the wrapped middleware calls its next handler.
func WrapHTTP(mw func(http.Handler) http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		passed := false
		mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Next()
		})).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}

// IsAllowedOrigin reports whether a browser origin may call the API
func IsAllowedOrigin(origin string, extra []string) bool {
	for _, re := range localOrigins {
		if re.MatchString(origin) {
			return true
		}
	}
	for _, o := range extra {
		if o == origin {
			return true
		}
	}
	return false
}

// CORS allows the local UI origins plus extra. Credentials are never allowed;
// the UI sends its token in the Authorization header.
func CORS(extra []string) gin.HandlerFunc {
	return WrapHTTP(cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return IsAllowedOrigin(origin, extra)
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "apikey", "Prefer"},
		ExposedHeaders:   []string{"X-Total-Count"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// RateLimitByIP limits requests per client IP within window
func RateLimitByIP(requests int, window time.Duration) gin.HandlerFunc {
	return WrapHTTP(httprate.Limit(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			detail := dto.NewErrorDetail(dto.ErrorCodeRateLimited, "Too many requests").
				WithSeverity(dto.ErrorSeverityWarning)
			writeJSON(w, http.StatusTooManyRequests, dto.NewErrorResponse(detail))
		}),
	))
}

// RequestLogger logs every request and records its metrics
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.TrackActiveRequest(true)
		defer metrics.TrackActiveRequest(false)

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		metrics.RecordAPIRequest(c.Request.Method, c.FullPath(), status, duration)

		event := log.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = log.Error()
		case status >= http.StatusBadRequest:
			event = log.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", duration).
			Str("ip", c.ClientIP()).
			Str("userID", c.GetString(ContextUserID)).
			Msg("Request")
	}
}

// Recovery turns panics into a logged 500
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("Panic recovered")
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			dto.NewErrorResponse(dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")))
	})
}
