package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/exp/slog"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	idempotencyPrefix    = "idempotency:v1:"
	inProgressMarker     = "__in_progress__"
	storeTimeout         = 2 * time.Second
)

type storedResponse struct {
	Status  int               `json:"status"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers"`
}

// Idempotency replays the stored response for a repeated Idempotency-Key so a retried
// POST never reaches the gateway twice. Server errors are not stored.
func Idempotency(cache *redis.Client, ttl time.Duration, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(IdempotencyKeyHeader)
			if key == "" {
				http.Error(w, "missing Idempotency-Key header", http.StatusBadRequest)
				return
			}
			// a key only replays for the operation it was first used with
			cacheKey := idempotencyPrefix + r.Method + ":" + r.URL.Path + ":" + key

			ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
			defer cancel()

			cached, err := cache.Get(ctx, cacheKey).Result()
			if err == nil {
				replay(w, cached, key, logger)
				return
			}
			if err != redis.Nil {
				logger.Error("idempotency lookup failed", slog.String("key", key), slog.Any("err", err))
				http.Error(w, "idempotency store failure", http.StatusInternalServerError)
				return
			}

			reserved, err := cache.SetNX(ctx, cacheKey, inProgressMarker, ttl).Result()
			if err != nil {
				logger.Error("idempotency reservation failed", slog.String("key", key), slog.Any("err", err))
				http.Error(w, "idempotency reservation failure", http.StatusInternalServerError)
				return
			}
			if !reserved {
				http.Error(w, "duplicate request currently processing", http.StatusConflict)
				return
			}

			var body bytes.Buffer
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&body)
			next.ServeHTTP(ww, r)

			persistCtx, persistCancel := context.WithTimeout(context.Background(), storeTimeout)
			defer persistCancel()

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status >= http.StatusInternalServerError {
				cache.Del(persistCtx, cacheKey)
				return
			}

			stored := storedResponse{Status: status, Body: body.String(), Headers: map[string]string{}}
			for h := range w.Header() {
				stored.Headers[h] = w.Header().Get(h)
			}
			payload, err := json.Marshal(stored)
			if err != nil {
				logger.Error("failed to encode idempotent response", slog.String("key", key), slog.Any("err", err))
				cache.Del(persistCtx, cacheKey)
				return
			}
			if err := cache.Set(persistCtx, cacheKey, payload, ttl).Err(); err != nil {
				logger.Error("failed to persist idempotent response", slog.String("key", key), slog.Any("err", err))
				cache.Del(persistCtx, cacheKey)
			}
		})
	}
}

func replay(w http.ResponseWriter, cached, key string, logger *slog.Logger) {
	if cached == inProgressMarker {
		http.Error(w, "duplicate request currently processing", http.StatusConflict)
		return
	}

	var stored storedResponse
	if err := json.Unmarshal([]byte(cached), &stored); err != nil {
		logger.Warn("failed to decode stored idempotent response", slog.String("key", key), slog.Any("err", err))
		http.Error(w, "duplicate request", http.StatusConflict)
		return
	}
	for header, value := range stored.Headers {
		if strings.EqualFold(header, "Content-Length") {
			continue
		}
		w.Header().Set(header, value)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(stored.Status)
	w.Write([]byte(stored.Body))
}
