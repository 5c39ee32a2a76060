package statistics

import (
	"github.com/fanctld/fanctld/internal/snapshot"
	"github.com/prometheus/client_golang/prometheus"
)

const arduinoSubsystem = "arduino"

// ArduinoCollector exports the board part of the most recent tick.
type ArduinoCollector struct {
	snapshots *snapshot.Holder

	isConnected *prometheus.Desc
	statusAge   *prometheus.Desc
}

func NewArduinoCollector(snapshots *snapshot.Holder) *ArduinoCollector {
	return &ArduinoCollector{
		snapshots: snapshots,
		isConnected: prometheus.NewDesc(prometheus.BuildFQName(namespace, arduinoSubsystem, "is_connected"),
			"Is the Arduino board connected via serial",
			[]string{"arduino"}, nil,
		),
		statusAge: prometheus.NewDesc(prometheus.BuildFQName(namespace, arduinoSubsystem, "status_age_seconds"),
			"Seconds since the last status message from the Arduino board (measured at the latest tick)",
			[]string{"arduino"}, nil,
		),
	}
}

func (collector *ArduinoCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.isConnected
	ch <- collector.statusAge
}

func (collector *ArduinoCollector) Collect(ch chan<- prometheus.Metric) {
	tick := collector.snapshots.Load()
	if tick == nil {
		return
	}
	for _, board := range tick.Boards {
		ch <- prometheus.MustNewConstMetric(collector.isConnected, prometheus.GaugeValue, boolValue(board.Connected), board.ID)
		ch <- prometheus.MustNewConstMetric(collector.statusAge, prometheus.GaugeValue, board.StatusAge, board.ID)
	}
}
