package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	httpDuration    *prometheus.HistogramVec
	routesBuilt     *prometheus.CounterVec
	profileFailures *prometheus.CounterVec
	floodedShare    prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "safepath",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		routesBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safepath",
			Name:      "routes_built_total",
			Help:      "Routes returned to clients by label and source.",
		}, []string{"label", "source"}),
		profileFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safepath",
			Name:      "route_profile_failures_total",
			Help:      "Risk profiles for which no strategy produced a route.",
		}, []string{"profile"}),
		floodedShare: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "safepath",
			Name:      "route_flooded_percentage",
			Help:      "Flooded share of returned routes.",
			Buckets:   []float64{0, 5, 10, 25, 50, 75, 100},
		}),
	}
	reg.MustRegister(m.httpDuration, m.routesBuilt, m.profileFailures, m.floodedShare)
	return m
}

func (m *Metrics) observeRoutes(routes []datastructure.Route, failures map[datastructure.RiskProfile]error) {
	if m == nil {
		return
	}
	for _, r := range routes {
		m.routesBuilt.WithLabelValues(string(r.Label), string(r.Source)).Inc()
		m.floodedShare.Observe(r.FloodAnalysis.FloodedPercentage)
	}
	for profile := range failures {
		m.profileFailures.WithLabelValues(string(profile)).Inc()
	}
}

// PromeHttpMiddleware records request duration labelled by the matched chi route pattern.
func PromeHttpMiddleware(m *Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				path = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.httpDuration.WithLabelValues(r.Method, path, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
		})
	}
}
