package observability

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"loan-portal/internal/storage"
)

// Metrics holds the Prometheus collectors exported by the server.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	AuthFailuresTotal *prometheus.CounterVec

	StorageOperationsTotal   *prometheus.CounterVec
	StorageOperationDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all collectors on registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loan_portal_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loan_portal_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loan_portal_auth_failures_total",
				Help: "Rejected authentication or authorization attempts",
			},
			[]string{"reason"},
		),
		StorageOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loan_portal_storage_operations_total",
				Help: "Total number of object storage operations",
			},
			[]string{"operation", "status"},
		),
		StorageOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loan_portal_storage_operation_duration_seconds",
				Help:    "Object storage operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthFailuresTotal,
		m.StorageOperationsTotal,
		m.StorageOperationDuration,
	)
	return m
}

// AuthFailure counts a rejected request. reason is a short fixed label such as "missing_token".
func (m *Metrics) AuthFailure(reason string) {
	if m == nil {
		return
	}
	m.AuthFailuresTotal.WithLabelValues(reason).Inc()
}

// Middleware records request counts and latencies labelled by the matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

func (m *Metrics) observeStorage(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.StorageOperationsTotal.WithLabelValues(operation, status).Inc()
	m.StorageOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// InstrumentStorage wraps svc so every call is counted and timed.
func InstrumentStorage(svc storage.Service, m *Metrics) storage.Service {
	if m == nil || svc == nil {
		return svc
	}
	return &instrumentedStorage{next: svc, metrics: m}
}

type instrumentedStorage struct {
	next    storage.Service
	metrics *Metrics
}

func (s *instrumentedStorage) Upload(ctx context.Context, body io.Reader, opts storage.UploadOptions) (string, error) {
	start := time.Now()
	location, err := s.next.Upload(ctx, body, opts)
	s.metrics.observeStorage("upload", start, err)
	return location, err
}

func (s *instrumentedStorage) ListObjects(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	start := time.Now()
	objects, err := s.next.ListObjects(ctx, bucket, prefix)
	s.metrics.observeStorage("list", start, err)
	return objects, err
}

func (s *instrumentedStorage) DeleteObject(ctx context.Context, bucket, key string) error {
	start := time.Now()
	err := s.next.DeleteObject(ctx, bucket, key)
	s.metrics.observeStorage("delete", start, err)
	return err
}

func (s *instrumentedStorage) GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	start := time.Now()
	url, err := s.next.GetObjectURL(ctx, bucket, key, expires)
	s.metrics.observeStorage("presign", start, err)
	return url, err
}
