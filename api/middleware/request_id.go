package middleware

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/homeward/settlement-backend/api/responses"
	"github.com/homeward/settlement-backend/pkg/logger"
)

const correlationIDHeader = "X-Correlation-Id"

// Inbound ids end up in logs and error bodies; anything else is replaced.
var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// RequestID tags the request with the caller's id, the upstream correlation
// id, or a fresh uuid, and echoes it on the response.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := inboundRequestID(r)
			w.Header().Set(responses.RequestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func inboundRequestID(r *http.Request) string {
	for _, header := range []string{responses.RequestIDHeader, correlationIDHeader} {
		if id := r.Header.Get(header); requestIDPattern.MatchString(id) {
			return id
		}
	}
	return uuid.NewString()
}
