package telemetry

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/biblioteca/internal/platform/logging"
)

func TestMiddleware_SetsTraceHeaderFromActiveSpan(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	var logs bytes.Buffer

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		ctx := logging.WithContext(c.Request.Context(), slog.New(slog.NewJSONHandler(&logs, nil)))
		ctx, span := tp.Tracer("test").Start(ctx, c.Request.URL.Path)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	engine.Use(Middleware("biblioteca"))

	var traceID string
	engine.GET("/api/v1/quotes", func(c *gin.Context) {
		traceID = trace.SpanFromContext(c.Request.Context()).SpanContext().TraceID().String()
		logging.FromContext(c.Request.Context()).Info("listing quotes")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, traceID, w.Header().Get("X-Trace-ID"))
	assert.Contains(t, logs.String(), `"trace_id":"`+traceID+`"`)
}

func TestMiddleware_NoSpanNoHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(Middleware("biblioteca"))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, w.Header().Get("X-Trace-ID"))
}

func TestRouteOf(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var route string
	engine := gin.New()
	engine.GET("/api/v1/logs/:id", func(c *gin.Context) { route = routeOf(c) })

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/logs/abc", nil))

	assert.Equal(t, "/api/v1/logs/:id", route)
}
