package logging

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/0xReLogic/Greeter/internal/config"
)

// RequestContextMiddleware attaches a request scoped logger to every request
// and, when enabled, propagates a request identifier in both directions.
func RequestContextMiddleware(cfg config.LoggingConfig) func(http.Handler) http.Handler {
	requestHeader := RequestHeaderName(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := L()

			var requestID string
			if cfg.RequestID.Enabled {
				requestID = strings.TrimSpace(r.Header.Get(requestHeader))
				if requestID == "" {
					requestID = generateIdentifier("req")
					r.Header.Set(requestHeader, requestID)
				}
				w.Header().Set(requestHeader, requestID)
				logger = logger.With().Str("request_id", requestID).Logger()
			}

			ctx = contextWithLogger(ctx, logger, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func generateIdentifier(prefix string) string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(b))
}
