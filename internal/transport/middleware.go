package transport

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portidem "github.com/brightdoor/leadrouter/internal/port/idempotency"
)

// noisyPaths are high-frequency read paths logged at Debug to keep Info clean.
var noisyPaths = map[string]bool{
	"/api/agents/": true,
	"/api/ws":      true,
}

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if c.Request.Method == "OPTIONS" {
			return
		}
		if c.Request.Method == "GET" && noisyPaths[c.Request.URL.Path] {
			return
		}

		slog.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS, PUT")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Idempotency-Key")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

// bodyCapture tees the response so the idempotency middleware can store it.
type bodyCapture struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the stored response for a repeated
// Idempotency-Key instead of re-executing the operation. Assignment
// operations are not idempotent on their own — a retried reassign would
// stack rows. Applies to mutating methods only; requests without the header
// pass through untouched.
func IdempotencyMiddleware(store portidem.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		key := c.GetHeader("Idempotency-Key")
		if key == "" {
			c.Next()
			return
		}

		if result, ok, err := store.Check(c.Request.Context(), key); err != nil {
			slog.ErrorContext(c.Request.Context(), "idempotency check failed", "key", key, "error", err)
		} else if ok {
			c.Header("Idempotent-Replay", "true")
			c.Data(http.StatusOK, "application/json", result)
			c.Abort()
			return
		}

		capture := &bodyCapture{ResponseWriter: c.Writer}
		c.Writer = capture
		c.Next()

		// Only successful outcomes are replayable; a failed request may
		// legitimately be retried with the same key.
		if c.Writer.Status() >= 200 && c.Writer.Status() < 300 {
			op := c.Request.Method + " " + c.FullPath()
			if err := store.Record(c.Request.Context(), key, op, capture.buf.Bytes()); err != nil {
				slog.ErrorContext(c.Request.Context(), "idempotency record failed", "key", key, "error", err)
			}
		}
	}
}
