package metrics

import (
	"time"

	v1 "github.com/aevon-lab/rule-engine/internal/api/v1"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rules"

// Collector exports engine counters to Prometheus. It implements engine.Observer.
type Collector struct {
	messagesProcessed prometheus.Counter
	alertsTriggered   *prometheus.CounterVec
	alertsByDevice    *prometheus.CounterVec
	evaluationSeconds prometheus.Histogram
	windowsEvicted    prometheus.Counter
	windowsRemoved    prometheus.Counter

	perDevice bool
}

// Options tunes the collector.
type Options struct {
	// PerDevice enables the device_id-labelled alert counter. Leave it off for
	// large fleets; each device adds a series.
	PerDevice bool
}

// NewCollector registers the rule engine metrics on reg.
func NewCollector(reg prometheus.Registerer, opts Options) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		messagesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_processed_total",
			Help:      "Envelopes evaluated by the rule engine",
		}),
		alertsTriggered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_triggered_total",
			Help:      "Alerts fired by rule kind",
		}, []string{"type"}),
		alertsByDevice: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_by_device_total",
			Help:      "Alerts fired per device and rule kind",
		}, []string{"device_id", "type"}),
		evaluationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_seconds",
			Help:      "Time spent evaluating one envelope, excluding alert delivery",
			Buckets:   []float64{.00001, .000025, .00005, .0001, .00025, .0005, .001, .0025, .005, .01},
		}),
		windowsEvicted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "window_entries_evicted_total",
			Help:      "Window entries dropped by janitor age sweeps",
		}),
		windowsRemoved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "windows_removed_total",
			Help:      "Device windows deleted by janitor sweeps after emptying",
		}),
		perDevice: opts.PerDevice,
	}
}

// RegisterWindowGauge exports the live device window count read from fn at scrape time.
func RegisterWindowGauge(reg prometheus.Registerer, fn func() int) {
	promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "windows_active",
		Help:      "Devices currently holding a window",
	}, func() float64 { return float64(fn()) })
}

func (c *Collector) EnvelopeProcessed(string) {
	c.messagesProcessed.Inc()
}

func (c *Collector) AlertFired(kind v1.AlertKind, deviceID string) {
	c.alertsTriggered.WithLabelValues(string(kind)).Inc()
	if c.perDevice {
		c.alertsByDevice.WithLabelValues(deviceID, string(kind)).Inc()
	}
}

func (c *Collector) EvaluationObserved(d time.Duration) {
	c.evaluationSeconds.Observe(d.Seconds())
}

func (c *Collector) WindowsSwept(evicted, removed int) {
	c.windowsEvicted.Add(float64(evicted))
	c.windowsRemoved.Add(float64(removed))
}
