package observability

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/learny-backend/internal/pkg/envutil"
	"github.com/yungbote/learny-backend/internal/pkg/logger"
)

// Metrics holds the service's prometheus collectors on a private registry.
// All methods are nil-safe so callers never branch on whether metrics are on.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	gatewayRequests    *prometheus.CounterVec
	gatewayLatency     *prometheus.HistogramVec
	gatewaySuggestions *prometheus.CounterVec

	reconcileRuns  *prometheus.CounterVec
	reconcileAdded prometheus.Counter

	conversationsActive prometheus.Gauge
	conversationTurns   *prometheus.CounterVec

	llmRequests *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec
	llmTokens   *prometheus.CounterVec

	lessonContent *prometheus.CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", true)
}

func Current() *Metrics {
	return instance
}

// Init builds the process-wide Metrics once. It returns nil when
// METRICS_ENABLED is false.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("prometheus metrics initialized")
		}
	})
	return instance
}

// NewMetrics builds an independent Metrics; tests use it to avoid the global.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "learny_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "learny_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "learny_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		gatewayRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "learny_gateway_requests_total",
			Help: "Suggestion gateway requests by prompt and outcome (ok|empty|failure).",
		}, []string{"prompt", "outcome"}),
		gatewayLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "learny_gateway_request_duration_seconds",
			Help:    "Suggestion gateway latency in seconds by prompt.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 40, 90},
		}, []string{"prompt"}),
		gatewaySuggestions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "learny_gateway_suggestions_total",
			Help: "Lesson suggestions returned by the gateway by prompt.",
		}, []string{"prompt"}),
		reconcileRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "learny_reconcile_runs_total",
			Help: "Goal reconciliation runs by result (skipped|satisfied|topped_up).",
		}, []string{"result"}),
		reconcileAdded: f.NewCounter(prometheus.CounterOpts{
			Name: "learny_reconcile_added_total",
			Help: "Suggestions added by goal reconciliation.",
		}),
		conversationsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "learny_conversations_active",
			Help: "Open course-building conversations.",
		}),
		conversationTurns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "learny_conversation_turns_total",
			Help: "Transcript turns appended by role and kind.",
		}, []string{"role", "kind"}),
		llmRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "learny_llm_requests_total",
			Help: "Generator requests by provider/model/status.",
		}, []string{"provider", "model", "status"}),
		llmLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "learny_llm_request_duration_seconds",
			Help:    "Generator request latency in seconds by provider/model.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider", "model"}),
		llmTokens: f.NewCounterVec(prometheus.CounterOpts{
			Name: "learny_llm_tokens_total",
			Help: "Generator tokens by provider/model/direction.",
		}, []string{"provider", "model", "direction"}),
		lessonContent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "learny_lesson_content_total",
			Help: "Lesson content generations by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	method = orUnknown(method)
	route = orUnknown(route)
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveGateway(prompt, outcome string, dur time.Duration, suggestions int) {
	if m == nil {
		return
	}
	prompt = orUnknown(prompt)
	m.gatewayRequests.WithLabelValues(prompt, orUnknown(outcome)).Inc()
	m.gatewayLatency.WithLabelValues(prompt).Observe(dur.Seconds())
	if suggestions > 0 {
		m.gatewaySuggestions.WithLabelValues(prompt).Add(float64(suggestions))
	}
}

func (m *Metrics) ObserveReconcile(result string, added int) {
	if m == nil {
		return
	}
	m.reconcileRuns.WithLabelValues(orUnknown(result)).Inc()
	if added > 0 {
		m.reconcileAdded.Add(float64(added))
	}
}

func (m *Metrics) ConversationOpened() {
	if m == nil {
		return
	}
	m.conversationsActive.Inc()
}

func (m *Metrics) ConversationClosed() {
	if m == nil {
		return
	}
	m.conversationsActive.Dec()
}

func (m *Metrics) IncTurn(role, kind string) {
	if m == nil {
		return
	}
	m.conversationTurns.WithLabelValues(orUnknown(role), orUnknown(kind)).Inc()
}

func (m *Metrics) ObserveLLMRequest(provider, model, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	provider = orUnknown(provider)
	model = orUnknown(model)
	if status == "" {
		status = "0"
	}
	m.llmRequests.WithLabelValues(provider, model, status).Inc()
	if dur > 0 {
		m.llmLatency.WithLabelValues(provider, model).Observe(dur.Seconds())
	}
	if inputTokens > 0 {
		m.llmTokens.WithLabelValues(provider, model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.llmTokens.WithLabelValues(provider, model, "output").Add(float64(outputTokens))
	}
}

func (m *Metrics) IncLessonContent(outcome string) {
	if m == nil {
		return
	}
	m.lessonContent.WithLabelValues(orUnknown(outcome)).Inc()
}

func orUnknown(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}
