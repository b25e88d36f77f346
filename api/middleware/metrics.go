package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/agrisoko/farmhub-backend/pkg/metrics"
)

// Metrics observes every completed request under its chi route pattern, so
// parameterized paths collapse into one label.
func Metrics(httpMetrics *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(rec, r)

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			httpMetrics.Observe(r.Method, routePattern(r), strconv.Itoa(rec.status), time.Since(start))
		})
	}
}
