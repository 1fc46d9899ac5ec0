// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blog_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	AccountEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_account_events_total",
		Help: "Account lifecycle events (register, login, confirm, reset ...) by outcome.",
	}, []string{"event", "outcome"})

	MailQueuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blog_mail_queued_total",
		Help: "Messages accepted by the mail dispatcher.",
	})

	MailDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blog_mail_dropped_total",
		Help: "Messages dropped because the dispatch buffer was full.",
	})

	MailPublishFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blog_mail_publish_failed_total",
		Help: "Messages the dispatcher failed to publish to the broker.",
	})

	MailDeliveredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_mail_delivered_total",
		Help: "Messages handed to SMTP by the mail worker, by outcome.",
	}, []string{"outcome"})

	MailQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "blog_mail_queue_depth",
		Help: "Messages waiting in the in-process dispatch buffer.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AccountEventsTotal,
		MailQueuedTotal,
		MailDroppedTotal,
		MailPublishFailedTotal,
		MailDeliveredTotal,
		MailQueueDepth,
	)
}

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// Middleware records request count and latency per matched route.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			HTTPRequestsTotal.WithLabelValues(route, c.Request().Method, strconv.Itoa(status)).Inc()
			HTTPRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Account records one account event.
func Account(event string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	AccountEventsTotal.WithLabelValues(event, outcome).Inc()
}
