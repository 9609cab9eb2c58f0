package metrics

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeMalformed = "malformed"
	OutcomeNotFound  = "not_found"
)

type Recorder interface {
	IncPincodeCacheHit()
	IncPincodeCacheMiss()
	IncUpstreamCall(endpoint, outcome string)
	IncComplaintsLogged()
	IncUpload(accepted bool)
	IncChatRule(rule string)
	Handler() http.Handler
}

type Provider struct {
	registry *prometheus.Registry

	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	upstreamCalls *prometheus.CounterVec
	complaints    prometheus.Counter
	uploads       *prometheus.CounterVec
	chatRules     *prometheus.CounterVec
}

// New returns a prometheus backed recorder, or a noop one when disabled.
// Every Provider owns its registry so several can live in one process.
func New(enabled bool) Recorder {
	if !enabled {
		return Noop()
	}

	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Provider{
		registry: reg,

		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "postbot_pincode_cache_hits_total",
			Help: "Pincode lookups served from cache",
		}),
		cacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "postbot_pincode_cache_misses_total",
			Help: "Pincode lookups that went upstream",
		}),
		upstreamCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "postbot_upstream_calls_total",
			Help: "Calls to third-party APIs by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		complaints: f.NewCounter(prometheus.CounterOpts{
			Name: "postbot_complaints_logged_total",
			Help: "Complaint records appended to the ledger",
		}),
		uploads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "postbot_uploads_total",
			Help: "Image uploads by result",
		}, []string{"result"}),
		chatRules: f.NewCounterVec(prometheus.CounterOpts{
			Name: "postbot_chat_rules_total",
			Help: "Chat requests by the dispatch rule that answered them",
		}, []string{"rule"}),
	}
}

func (m *Provider) IncPincodeCacheHit()  { m.cacheHits.Inc() }
func (m *Provider) IncPincodeCacheMiss() { m.cacheMisses.Inc() }
func (m *Provider) IncComplaintsLogged() { m.complaints.Inc() }

func (m *Provider) IncUpstreamCall(endpoint, outcome string) {
	m.upstreamCalls.WithLabelValues(endpoint, outcome).Inc()
}

func (m *Provider) IncUpload(accepted bool) {
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	m.uploads.WithLabelValues(result).Inc()
}

func (m *Provider) IncChatRule(rule string) {
	m.chatRules.WithLabelValues(rule).Inc()
}

func (m *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type noopMetrics struct{}

func Noop() Recorder { return noopMetrics{} }

func (noopMetrics) IncPincodeCacheHit()         {}
func (noopMetrics) IncPincodeCacheMiss()        {}
func (noopMetrics) IncUpstreamCall(_, _ string) {}
func (noopMetrics) IncComplaintsLogged()        {}
func (noopMetrics) IncUpload(_ bool)            {}
func (noopMetrics) IncChatRule(_ string)        {}
func (noopMetrics) Handler() http.Handler       { return http.NotFoundHandler() }

func Inject(key string, rec Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(key, rec)
	}
}
