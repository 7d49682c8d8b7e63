package middleware

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/geopoint/geopoint-backend-go/internal/handler/http/response"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/cache"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/jwt"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	ReplayedHeader    = "Idempotent-Replayed"

	idempotencyLockTTL = 30 * time.Second
	idempotencyTTL     = 24 * time.Hour
)

// StoredResponse is what a replay writes back
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

func idempotencyKey(r *http.Request, userID, key string) string {
	return fmt.Sprintf("idemp:%s:%s:%s", r.URL.Path, userID, key)
}

// Idempotency replays the stored response of a POST that carried the same Idempotency-Key.
// A nil client or a Redis failure lets the request through.
func Idempotency(rdb *redis.Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyHeader)
			if rdb == nil || key == "" || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > 128 {
				response.BadRequest(w, "Idempotency-Key must not exceed 128 characters", nil)
				return
			}

			claims, err := jwt.ClaimsFromContext(r.Context())
			if err != nil {
				response.HandleError(w, err)
				return
			}

			ctx := r.Context()
			cacheKey := idempotencyKey(r, claims.UserID, key)
			lockKey := cacheKey + ":lock"

			var stored StoredResponse
			found, err := cache.GetJSON(ctx, rdb, cacheKey, &stored)
			if err != nil {
				slog.WarnContext(ctx, "idempotency lookup failed", "key", cacheKey, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if found {
				w.Header().Set("Content-Type", stored.ContentType)
				w.Header().Set(ReplayedHeader, "true")
				w.WriteHeader(stored.Status)
				_, _ = w.Write(stored.Body)
				return
			}

			acquired, err := rdb.SetNX(ctx, lockKey, 1, idempotencyLockTTL).Result()
			if err != nil {
				slog.WarnContext(ctx, "idempotency lock failed", "key", lockKey, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !acquired {
				response.Conflict(w, "A request with this Idempotency-Key is still being processed")
				return
			}

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			var body bytes.Buffer
			ww.Tee(&body)

			defer func() {
				bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
				defer cancel()

				// server errors are not replayed so the client can retry
				if status := ww.Status(); status > 0 && status < http.StatusInternalServerError {
					stored := StoredResponse{Status: status, ContentType: ww.Header().Get("Content-Type"), Body: body.Bytes()}
					if err := cache.SetJSON(bg, rdb, cacheKey, stored, idempotencyTTL); err != nil {
						slog.WarnContext(ctx, "idempotency store failed", "key", cacheKey, "error", err)
					}
				}
				if err := rdb.Del(bg, lockKey).Err(); err != nil {
					slog.WarnContext(ctx, "idempotency unlock failed", "key", lockKey, "error", err)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
