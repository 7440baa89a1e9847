package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderledger/internal/core/apperror"
	appctx "orderledger/internal/core/context"
	"orderledger/internal/infrastructure/storage/postgres"
	"orderledger/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(Recovery(), Trace(), Logger(logger.NewNop()), ErrorHandler())
	r.Use(extra...)
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_AppError(t *testing.T) {
	r := newEngine()
	r.GET("/x", func(c *gin.Context) {
		_ = c.Error(apperror.NewNotFound("customer", "42"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, apperror.CodeNotFound, body["code"])
}

func TestErrorHandler_WrappedAppError(t *testing.T) {
	r := newEngine()
	r.GET("/x", func(c *gin.Context) {
		_ = c.Error(fmt.Errorf("update sales order: %w", apperror.NewConcurrentModification("sales order", "1")))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperror.CodeConcurrentModification, decode(t, w)["code"])
}

func TestErrorHandler_UnknownErrorIsHidden(t *testing.T) {
	r := newEngine()
	r.GET("/x", func(c *gin.Context) {
		_ = c.Error(errors.New("pq: password authentication failed"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.Equal(t, apperror.CodeInternal, decode(t, w)["code"])
}

func TestRecovery(t *testing.T) {
	r := newEngine()
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeInternal, decode(t, w)["code"])
}

func TestTrace_PropagatesIDs(t *testing.T) {
	r := newEngine()
	var seen string
	r.GET("/x", func(c *gin.Context) {
		seen = appctx.GetRequestID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-1", seen)
	assert.Equal(t, "req-1", w.Header().Get(HeaderRequestID))
	assert.NotEmpty(t, w.Header().Get(HeaderTraceID))
}

// memIdempotency keeps keys in memory with the same semantics as the SQL store.
type memIdempotency struct {
	hashes  map[string]string
	replays map[string]*postgres.IdempotencyReplay
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{hashes: map[string]string{}, replays: map[string]*postgres.IdempotencyReplay{}}
}

func (m *memIdempotency) AcquireKey(ctx context.Context, key, operation, requestHash string) (*postgres.IdempotencyReplay, error) {
	h, ok := m.hashes[key]
	if !ok {
		m.hashes[key] = operation + requestHash
		return nil, nil
	}
	if h != operation+requestHash {
		return nil, apperror.NewIdempotencyMismatch(key)
	}
	if r := m.replays[key]; r != nil {
		return r, nil
	}
	return nil, apperror.NewIdempotencyConflict(key)
}

func (m *memIdempotency) CompleteKey(ctx context.Context, key string, status int, ct string, response any) error {
	body, _ := json.Marshal(response)
	m.replays[key] = &postgres.IdempotencyReplay{StatusCode: status, ContentType: ct, Body: body}
	return nil
}

func (m *memIdempotency) FailKey(ctx context.Context, key string, status int, ct string, response any) error {
	return m.CompleteKey(ctx, key, status, ct, response)
}

func TestIdempotency_ReplaysCompletedRequest(t *testing.T) {
	store := newMemIdempotency()
	calls := 0
	r := newEngine(Idempotency(store))
	r.POST("/orders/:id/payments", func(c *gin.Context) {
		calls++
		body, _ := io.ReadAll(c.Request.Body)
		resp := gin.H{"calls": calls, "echo": string(body)}
		CompleteIdempotency(c, http.StatusCreated, "application/json; charset=utf-8", resp)
		c.JSON(http.StatusCreated, resp)
	})

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/orders/1/payments", strings.NewReader(body))
		req.Header.Set(HeaderIdempotencyKey, "k-1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	first := send(`{"amountPaid":"100"}`)
	second := send(`{"amountPaid":"100"}`)

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))

	third := send(`{"amountPaid":"999"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, third.Code)
	assert.Equal(t, 1, calls)
}

func TestIdempotency_FailedRequestReplaysError(t *testing.T) {
	store := newMemIdempotency()
	calls := 0
	r := newEngine(Idempotency(store))
	r.PUT("/x", func(c *gin.Context) {
		calls++
		_ = c.Error(apperror.NewValidation("amount paid must be positive"))
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPut, "/x", strings.NewReader(`{}`))
		req.Header.Set(HeaderIdempotencyKey, "k-2")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	assert.Equal(t, 1, calls)
}

func TestIdempotency_WithoutHeaderPassesThrough(t *testing.T) {
	calls := 0
	r := newEngine(Idempotency(newMemIdempotency()))
	r.POST("/x", func(c *gin.Context) {
		calls++
		c.Status(http.StatusNoContent)
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{}`)))
	}
	assert.Equal(t, 2, calls)
}

// brokenBody fails every read, like a client that hangs up mid-upload.
type brokenBody struct{}

func (brokenBody) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestIdempotency_UnreadableBodyIsBadRequest(t *testing.T) {
	store := newMemIdempotency()
	calls := 0
	r := newEngine(Idempotency(store))
	r.POST("/x", func(c *gin.Context) {
		calls++
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/x", brokenBody{})
	req.Header.Set(HeaderIdempotencyKey, "k-broken")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeValidation, decode(t, w)["code"])
	assert.Zero(t, calls)
	assert.Empty(t, store.hashes, "key must not be acquired")
}
