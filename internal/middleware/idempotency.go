package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"leave-portal/internal/shared/apperror"
	"leave-portal/internal/shared/contextutil"
	"leave-portal/internal/shared/response"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"

	idempotencyTTL  = 24 * time.Hour
	idempotencyLock = 30 * time.Second
)

type cachedResponse struct {
	Status      int             `json:"status"`
	Body        json.RawMessage `json:"body"`
	RequestHash string          `json:"request_hash"`
}

type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func IdempotencyKey(path, userID, key string) string {
	return fmt.Sprintf("idemp:%s:%s:%s", path, userID, key)
}

// RequestHash fingerprints a request body so a reused key can be told apart
// from a genuine retry.
func RequestHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Idempotency replays the stored response for a repeated POST carrying the
// same Idempotency-Key and body from the same user. The same key with a
// different body is refused with 422. Server errors are not stored so the
// client can retry them. Must run after AuthMiddleware.
func Idempotency(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		idempKey := c.GetHeader(HeaderIdempotencyKey)
		if rdb == nil || idempKey == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		log := contextutil.GetLogger(ctx, zap.L())
		cacheKey := IdempotencyKey(c.FullPath(), c.GetString(ContextUserID), idempKey)
		lockKey := cacheKey + ":lock"

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "request body could not be read", nil)
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		requestHash := RequestHash(body)

		val, err := rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			var cached cachedResponse
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				if cached.RequestHash != requestHash {
					log.Warn("idempotency key reused with a different body", zap.String("key", cacheKey))
					response.Error(c, http.StatusUnprocessableEntity, apperror.CodeIdempotencyKeyReused,
						"this Idempotency-Key was already used for a different request", nil)
					c.Abort()
					return
				}
				c.Header(HeaderReplayed, "true")
				c.Data(cached.Status, "application/json; charset=utf-8", cached.Body)
				c.Abort()
				return
			}
			log.Warn("idempotency cache entry unreadable", zap.String("key", cacheKey))
		} else if !errors.Is(err, redis.Nil) {
			log.Warn("idempotency lookup failed, continuing without it", zap.Error(err))
			c.Next()
			return
		}

		isNew, err := rdb.SetNX(ctx, lockKey, "locked", idempotencyLock).Result()
		if err != nil {
			log.Warn("idempotency lock failed, continuing without it", zap.Error(err))
			c.Next()
			return
		}
		if !isNew {
			response.Error(c, http.StatusConflict, apperror.CodeConflict, "a request with this Idempotency-Key is still being processed", nil)
			c.Abort()
			return
		}

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		if status := w.Status(); status < http.StatusInternalServerError {
			payload, err := json.Marshal(cachedResponse{Status: status, Body: w.body.Bytes(), RequestHash: requestHash})
			if err == nil {
				err = rdb.Set(ctx, cacheKey, string(payload), idempotencyTTL).Err()
			}
			if err != nil {
				log.Warn("idempotency store failed", zap.String("key", cacheKey), zap.Error(err))
			}
		}
		if err := rdb.Del(ctx, lockKey).Err(); err != nil {
			log.Warn("idempotency unlock failed", zap.String("key", lockKey), zap.Error(err))
		}
	}
}
