package delivery

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tinashem/speechai/internal/metrics"
)

// CollectMetrics records a counter and duration for every request,
// labelled by the chi route pattern so path params don't explode the
// label cardinality.
func CollectMetrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			endpoint := chi.RouteContext(r.Context()).RoutePattern()
			if endpoint == "" {
				endpoint = r.URL.Path
			}
			m.RecordHTTPRequest(r.Method, endpoint, strconv.Itoa(ww.Status()), time.Since(start).Seconds())
		})
	}
}
