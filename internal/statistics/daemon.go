package statistics

import (
	"time"

	"github.com/fanctld/fanctld/internal/snapshot"
	"github.com/fanctld/fanctld/internal/trigger"
	"github.com/prometheus/client_golang/prometheus"
)

var tickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "tick_duration_seconds",
	Help:      "Duration of a single control loop tick",
	Buckets:   []float64{0.1, 0.25, 0.5, 0.75, 1.0, 2.5, 5.0, 10.0},
})

// ObserveTick records the duration of one control loop tick.
func ObserveTick(duration time.Duration) {
	tickDuration.Observe(duration.Seconds())
}

// DaemonCollector exports the process wide safety state and tick timing.
type DaemonCollector struct {
	snapshots *snapshot.Holder

	isPanic     *prometheus.Desc
	isThreshold *prometheus.Desc
	lastTickAge *prometheus.Desc
}

func NewDaemonCollector(snapshots *snapshot.Holder) *DaemonCollector {
	return &DaemonCollector{
		snapshots: snapshots,
		isPanic: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "is_panic"),
			"Is in panic mode",
			nil, nil,
		),
		isThreshold: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "is_threshold"),
			"Is in threshold mode",
			nil, nil,
		),
		lastTickAge: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "last_tick_seconds_ago"),
			"The time in seconds since the last control loop tick",
			nil, nil,
		),
	}
}

func (collector *DaemonCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.isPanic
	ch <- collector.isThreshold
	ch <- collector.lastTickAge
	tickDuration.Describe(ch)
}

func (collector *DaemonCollector) Collect(ch chan<- prometheus.Metric) {
	tickDuration.Collect(ch)

	tick := collector.snapshots.Load()
	if tick == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(collector.isPanic, prometheus.GaugeValue, boolValue(tick.State == trigger.StatePanic))
	ch <- prometheus.MustNewConstMetric(collector.isThreshold, prometheus.GaugeValue, boolValue(tick.State == trigger.StateThreshold))
	ch <- prometheus.MustNewConstMetric(collector.lastTickAge, prometheus.GaugeValue, time.Since(tick.Time).Seconds())
}
