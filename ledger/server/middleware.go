package server

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/juju/ratelimit"
	"github.com/pingcap/log"
	"github.com/unrolled/render"
	"github.com/urfave/negroni"
	"go.uber.org/zap"
)

const apiKeyHeader = "X-API-Key"

// requireAPIKey rejects requests whose X-API-Key header does not match key. An empty key rejects
// every request.
func requireAPIKey(key string, rd *render.Render, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(apiKeyHeader)
		if len(key) == 0 || len(got) == 0 || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			writeError(rd, w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next(w, r)
	}
}

// rateLimiter is a negroni middleware answering 429 once the token bucket is empty.
type rateLimiter struct {
	bucket *ratelimit.Bucket
	rd     *render.Render
}

func newRateLimiter(rate float64, burst int64, rd *render.Render) *rateLimiter {
	return &rateLimiter{
		bucket: ratelimit.NewBucketWithRate(rate, burst),
		rd:     rd,
	}
}

func (l *rateLimiter) ServeHTTP(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	if l.bucket.TakeAvailable(1) == 0 {
		writeError(l.rd, w, http.StatusTooManyRequests, "too many requests")
		return
	}
	next(w, r)
}

// accessLog logs every request at debug level.
func accessLog(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	start := time.Now()
	next(w, r)
	res := w.(negroni.ResponseWriter)
	log.Debug("http request",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", res.Status()),
		zap.Duration("cost", time.Since(start)))
}
