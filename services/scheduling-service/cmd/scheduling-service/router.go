package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/teambook/libs/httpx"
	"github.com/md-rashed-zaman/teambook/libs/runtime"
	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type routerDeps struct {
	Availability   *handlers.AvailabilityHandler
	Team           *handlers.TeamHandler
	Booking        *handlers.BookingHandler
	Checks         []runtime.ReadyCheck
	Metrics        *prometheus.Registry
	RateLimit      httpx.Middleware
	RequestTimeout time.Duration
	BodyLimit      int64
	CORS           httpx.CORSPolicy
	Logger         *slog.Logger
}

// newRouter mounts the API. Only the availability route is rate limited; it
// is the one that fans out to the automation service. It is also the only
// route without a request timeout because it may poll for a minute.
func newRouter(d routerDeps, service string) http.Handler {
	mux := runtime.NewBaseMuxWithReady(d.Checks...)
	if d.Metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{}))
	}

	bounded := func(h http.HandlerFunc) http.Handler {
		if d.RequestTimeout <= 0 {
			return h
		}
		return httpx.WithTimeout(d.RequestTimeout)(h)
	}

	mux.Handle("/api/v1/availability", httpx.Chain(http.HandlerFunc(d.Availability.Resolve), d.RateLimit))
	mux.Handle("/api/v1/team-members/search", bounded(d.Team.Search))
	mux.Handle("/api/v1/team-members/{id}", bounded(d.Team.Get))
	mux.Handle("/api/v1/bookings", bounded(d.Booking.Create))

	var bodyLimit httpx.Middleware
	if d.BodyLimit > 0 {
		bodyLimit = httpx.WithBodyLimit(d.BodyLimit)
	}

	handler := httpx.Chain(mux,
		httpx.WithRecover(d.Logger),
		httpx.WithCORS(d.CORS),
		httpx.WithRequestID,
		httpx.WithAccessLog(d.Logger),
		bodyLimit,
	)
	return otelhttp.NewHandler(handler, service)
}
