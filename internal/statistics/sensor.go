package statistics

import (
	"math"

	"github.com/fanctld/fanctld/internal/snapshot"
	"github.com/prometheus/client_golang/prometheus"
)

const sensorSubsystem = "temperature"

// SensorCollector exports the sensor part of the most recent tick.
type SensorCollector struct {
	snapshots *snapshot.Holder

	current     *prometheus.Desc
	currentRaw  *prometheus.Desc
	min         *prometheus.Desc
	max         *prometheus.Desc
	panic       *prometheus.Desc
	isFailing   *prometheus.Desc
	isPanic     *prometheus.Desc
	isThreshold *prometheus.Desc
}

func NewSensorCollector(snapshots *snapshot.Holder) *SensorCollector {
	return &SensorCollector{
		snapshots: snapshots,
		current: prometheus.NewDesc(prometheus.BuildFQName(namespace, sensorSubsystem, "current"),
			"The current (filtered) temperature value (in Celsius) of the sensor",
			[]string{"sensor"}, nil,
		),
		currentRaw: prometheus.NewDesc(prometheus.BuildFQName(namespace, sensorSubsystem, "current_raw"),
			"The current (unfiltered) temperature value (in Celsius) of the sensor",
			[]string{"sensor"}, nil,
		),
		min: prometheus.NewDesc(prometheus.BuildFQName(namespace, sensorSubsystem, "min"),
			"The min temperature value (in Celsius) of the sensor",
			[]string{"sensor"}, nil,
		),
		max: prometheus.NewDesc(prometheus.BuildFQName(namespace, sensorSubsystem, "max"),
			"The max temperature value (in Celsius) of the sensor",
			[]string{"sensor"}, nil,
		),
		panic: prometheus.NewDesc(prometheus.BuildFQName(namespace, sensorSubsystem, "panic"),
			"The panic temperature value (in Celsius) of the sensor",
			[]string{"sensor"}, nil,
		),
		isFailing: prometheus.NewDesc(prometheus.BuildFQName(namespace, sensorSubsystem, "is_failing"),
			"The sensor is failing (it isn't returning any data)",
			[]string{"sensor"}, nil,
		),
		isPanic: prometheus.NewDesc(prometheus.BuildFQName(namespace, sensorSubsystem, "is_panic"),
			"Is the panic temperature reached for the sensor",
			[]string{"sensor"}, nil,
		),
		isThreshold: prometheus.NewDesc(prometheus.BuildFQName(namespace, sensorSubsystem, "is_threshold"),
			"Is the max temperature reached for the sensor",
			[]string{"sensor"}, nil,
		),
	}
}

func (collector *SensorCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.current
	ch <- collector.currentRaw
	ch <- collector.min
	ch <- collector.max
	ch <- collector.panic
	ch <- collector.isFailing
	ch <- collector.isPanic
	ch <- collector.isThreshold
}

func (collector *SensorCollector) Collect(ch chan<- prometheus.Metric) {
	tick := collector.snapshots.Load()
	if tick == nil {
		return
	}
	for _, sensor := range tick.Sensors {
		id := sensor.ID

		panicValue := math.NaN()
		if sensor.Panic != nil {
			panicValue = *sensor.Panic
		}

		ch <- prometheus.MustNewConstMetric(collector.current, prometheus.GaugeValue, sensor.Value, id)
		ch <- prometheus.MustNewConstMetric(collector.currentRaw, prometheus.GaugeValue, sensor.Raw, id)
		ch <- prometheus.MustNewConstMetric(collector.min, prometheus.GaugeValue, sensor.Min, id)
		ch <- prometheus.MustNewConstMetric(collector.max, prometheus.GaugeValue, sensor.Max, id)
		ch <- prometheus.MustNewConstMetric(collector.panic, prometheus.GaugeValue, panicValue, id)
		ch <- prometheus.MustNewConstMetric(collector.isFailing, prometheus.GaugeValue, boolValue(sensor.Failing), id)
		ch <- prometheus.MustNewConstMetric(collector.isPanic, prometheus.GaugeValue, boolValue(sensor.IsPanic), id)
		ch <- prometheus.MustNewConstMetric(collector.isThreshold, prometheus.GaugeValue, boolValue(sensor.IsThreshold), id)
	}
}
