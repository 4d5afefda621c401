package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/alovak/cardflow-gateway/internal/logging"
)

func setupRouter(t *testing.T, status int) (http.Handler, *int32) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	var calls int32
	r := chi.NewRouter()
	r.Use(Idempotency(cache, time.Minute, logging.Discard()))
	r.Post("/transactions/purchase", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(`{"transaction_id":"` + uuid.NewString() + `"}`))
	})
	r.Post("/transactions/refund", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"refund":true}`))
	})
	r.Get("/transactions/purchase", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})
	return r, &calls
}

func post(h http.Handler, key string) *httptest.ResponseRecorder {
	return postTo(h, "/transactions/purchase", key)
}

func postTo(h http.Handler, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("{}"))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	h, calls := setupRouter(t, http.StatusOK)

	w := post(h, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Zero(t, atomic.LoadInt32(calls))

	req := httptest.NewRequest(http.MethodGet, "/transactions/purchase", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestIdempotencyReturnsCachedResponse(t *testing.T) {
	h, calls := setupRouter(t, http.StatusOK)
	key := uuid.NewString()

	first := post(h, key)
	require.Equal(t, http.StatusOK, first.Code)

	second := post(h, key)
	require.Equal(t, http.StatusOK, second.Code)
	require.Equal(t, first.Body.String(), second.Body.String())
	require.Equal(t, "application/json", second.Header().Get("Content-Type"))
	require.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	require.EqualValues(t, 1, atomic.LoadInt32(calls))

	third := post(h, uuid.NewString())
	require.NotEqual(t, first.Body.String(), third.Body.String())
	require.EqualValues(t, 2, atomic.LoadInt32(calls))
}

func TestIdempotencyDoesNotStoreServerErrors(t *testing.T) {
	h, calls := setupRouter(t, http.StatusBadGateway)
	key := uuid.NewString()

	require.Equal(t, http.StatusBadGateway, post(h, key).Code)
	require.Equal(t, http.StatusBadGateway, post(h, key).Code)
	require.EqualValues(t, 2, atomic.LoadInt32(calls))
}

func TestIdempotencyKeyIsScopedToRoute(t *testing.T) {
	h, calls := setupRouter(t, http.StatusOK)
	key := uuid.NewString()

	purchase := postTo(h, "/transactions/purchase", key)
	require.Equal(t, http.StatusOK, purchase.Code)

	refund := postTo(h, "/transactions/refund", key)
	require.Equal(t, http.StatusCreated, refund.Code)
	require.JSONEq(t, `{"refund":true}`, refund.Body.String())
	require.Empty(t, refund.Header().Get("Idempotent-Replayed"))
	require.EqualValues(t, 2, atomic.LoadInt32(calls))

	again := postTo(h, "/transactions/refund", key)
	require.Equal(t, "true", again.Header().Get("Idempotent-Replayed"))
	require.EqualValues(t, 2, atomic.LoadInt32(calls))
}
