package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ActiveWebSockets tracks currently connected feed sockets.
var ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "wall_active_websockets",
	Help: "Number of currently connected feed WebSocket clients.",
})

// FeedReloads counts full feed reloads applied to the shared feed.
var FeedReloads = promauto.NewCounter(prometheus.CounterOpts{
	Name: "wall_feed_reloads_total",
	Help: "Number of full feed reloads applied to the shared feed.",
})

// InitMetrics creates the Prometheus middleware for the given service name.
func InitMetrics(service string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(service)
}

// MetricsMiddleware wraps the fiberprometheus middleware as a fiber.Handler.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	return p.Middleware
}
