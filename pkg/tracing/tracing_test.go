package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestMiddleware_PassesThrough(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")
	called := false
	h := Middleware(tracer, func(*http.Request) string { return "/api/v1/questions" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusTeapot)
		}),
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/questions", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestFail(t *testing.T) {
	_, span := noop.NewTracerProvider().Tracer("test").Start(context.Background(), "op")
	defer span.End()

	err := errors.New("boom")
	assert.Same(t, err, Fail(span, err))
	assert.NoError(t, Fail(span, nil))
}

func TestTracer_NotNil(t *testing.T) {
	assert.NotNil(t, Tracer())
}
