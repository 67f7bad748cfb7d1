package obs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	authAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Authentication attempts by result.",
		},
		[]string{"result"},
	)

	tokensIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_tokens_issued_total",
			Help: "Issued tokens by kind.",
		},
		[]string{"kind"},
	)

	rateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_rate_limited_total",
			Help: "Requests rejected by the rate limiter, by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Init registers the metrics with the default registry. Call once at startup.
func Init() {
	prometheus.MustRegister(authAttemptsTotal, tokensIssuedTotal, rateLimitedTotal)
}

// Handler exposes the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// AuthAttempt counts a login attempt; result is "success" or "failure".
func AuthAttempt(result string) {
	authAttemptsTotal.WithLabelValues(result).Inc()
}

// TokenIssued counts an issued token by kind.
func TokenIssued(kind string) {
	tokensIssuedTotal.WithLabelValues(kind).Inc()
}

// RateLimited counts a rejected request by endpoint.
func RateLimited(endpoint string) {
	rateLimitedTotal.WithLabelValues(endpoint).Inc()
}
