package middleware

import (
	"cmp"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/biblioteca/internal/adapters/http/dto"
	"github.com/jsamuelsen/biblioteca/internal/platform/config"
	"github.com/jsamuelsen/biblioteca/internal/platform/logging"
)

const (
	defaultSubjectHeader = "X-User-ID"
	subjectKey           = "subject"
)

// RequireSubject rejects requests that carry no subject. The gateway in
// front of the service authenticates callers and forwards the subject in
// cfg.SubjectHeader (X-User-ID by default).
func RequireSubject(cfg *config.AuthConfig) gin.HandlerFunc {
	header := defaultSubjectHeader
	if cfg != nil {
		header = cmp.Or(cfg.SubjectHeader, header)
	}

	return func(c *gin.Context) {
		subject := strings.TrimSpace(c.GetHeader(header))
		if subject == "" {
			abort(c, http.StatusForbidden, dto.ErrorCodeForbidden, "authentication required")
			return
		}

		c.Set(subjectKey, subject)
		c.Request = c.Request.WithContext(logging.With(c.Request.Context(), slog.String("subject", subject)))

		c.Next()
	}
}

// Subject returns the subject accepted by RequireSubject, or "".
func Subject(c *gin.Context) string {
	return c.GetString(subjectKey)
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(code, message).WithTraceID(dto.TraceID(c)))
}
