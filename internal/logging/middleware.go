package logging

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type ctxKey struct{}

// requestInfo is filled in by handlers further down the chain
type requestInfo struct {
	userID string
}

// SetUserID attaches the authenticated user to the access log line of the
// current request. It is a no-op outside AccessLog.
func SetUserID(ctx context.Context, userID string) {
	if info, ok := ctx.Value(ctxKey{}).(*requestInfo); ok {
		info.userID = userID
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// AccessLog logs one line per request
func AccessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			info := &requestInfo{}
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), ctxKey{}, info)))

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", rec.bytes),
				zap.Duration("duration", time.Since(start)),
			}
			if info.userID != "" {
				fields = append(fields, zap.String("user_id", info.userID))
			}

			switch {
			case status >= 500:
				logger.Error("request", fields...)
			case status >= 400:
				logger.Warn("request", fields...)
			default:
				logger.Info("request", fields...)
			}
		})
	}
}
