package statistics

import (
	"math"

	"github.com/fanctld/fanctld/internal/snapshot"
	"github.com/prometheus/client_golang/prometheus"
)

const fanSubsystem = "fan"

// FanCollector exports the fan part of the most recent tick.
type FanCollector struct {
	snapshots *snapshot.Holder

	pwm           *prometheus.Desc
	pwmNormalized *prometheus.Desc
	rpm           *prometheus.Desc
	pwmLineStart  *prometheus.Desc
	pwmLineEnd    *prometheus.Desc
	isStopped     *prometheus.Desc
	isFailing     *prometheus.Desc
}

func NewFanCollector(snapshots *snapshot.Holder) *FanCollector {
	return &FanCollector{
		snapshots: snapshots,
		pwm: prometheus.NewDesc(prometheus.BuildFQName(namespace, fanSubsystem, "pwm"),
			"Current PWM value of the fan (from 0 to 255)",
			[]string{"fan"}, nil,
		),
		pwmNormalized: prometheus.NewDesc(prometheus.BuildFQName(namespace, fanSubsystem, "pwm_normalized"),
			"Current target speed of the fan (from 0.0 to 1.0, within the pwm_line_start and pwm_line_end interval)",
			[]string{"fan"}, nil,
		),
		rpm: prometheus.NewDesc(prometheus.BuildFQName(namespace, fanSubsystem, "rpm"),
			"Fan speed (in RPM) as reported by the fan",
			[]string{"fan"}, nil,
		),
		pwmLineStart: prometheus.NewDesc(prometheus.BuildFQName(namespace, fanSubsystem, "pwm_line_start"),
			"PWM value the fan runs at when the target speed is 0.0",
			[]string{"fan"}, nil,
		),
		pwmLineEnd: prometheus.NewDesc(prometheus.BuildFQName(namespace, fanSubsystem, "pwm_line_end"),
			"PWM value the fan runs at when the target speed is 1.0",
			[]string{"fan"}, nil,
		),
		isStopped: prometheus.NewDesc(prometheus.BuildFQName(namespace, fanSubsystem, "is_stopped"),
			"Is the fan stopped because the corresponding temperatures are already low",
			[]string{"fan"}, nil,
		),
		isFailing: prometheus.NewDesc(prometheus.BuildFQName(namespace, fanSubsystem, "is_failing"),
			"Is the fan marked as failing (e.g. because it has jammed)",
			[]string{"fan"}, nil,
		),
	}
}

func (collector *FanCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.pwm
	ch <- collector.pwmNormalized
	ch <- collector.rpm
	ch <- collector.pwmLineStart
	ch <- collector.pwmLineEnd
	ch <- collector.isStopped
	ch <- collector.isFailing
}

func (collector *FanCollector) Collect(ch chan<- prometheus.Metric) {
	tick := collector.snapshots.Load()
	if tick == nil {
		return
	}
	for _, fan := range tick.Fans {
		id := fan.ID

		rpm := math.NaN()
		if fan.HasRpm {
			rpm = float64(fan.Rpm)
		}

		ch <- prometheus.MustNewConstMetric(collector.pwm, prometheus.GaugeValue, float64(fan.Pwm), id)
		ch <- prometheus.MustNewConstMetric(collector.pwmNormalized, prometheus.GaugeValue, fan.Speed, id)
		ch <- prometheus.MustNewConstMetric(collector.rpm, prometheus.GaugeValue, rpm, id)
		ch <- prometheus.MustNewConstMetric(collector.pwmLineStart, prometheus.GaugeValue, float64(fan.LineStart), id)
		ch <- prometheus.MustNewConstMetric(collector.pwmLineEnd, prometheus.GaugeValue, float64(fan.LineEnd), id)
		ch <- prometheus.MustNewConstMetric(collector.isStopped, prometheus.GaugeValue, boolValue(fan.IsStopped), id)
		ch <- prometheus.MustNewConstMetric(collector.isFailing, prometheus.GaugeValue, boolValue(fan.IsFailing), id)
	}
}
