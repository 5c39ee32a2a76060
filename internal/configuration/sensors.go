package configuration

type SensorConfig struct {
	ID    string   `json:"id"`
	Min   float64  `json:"min"`
	Max   float64  `json:"max"`
	Panic *float64 `json:"panic,omitempty"`

	Filters []FilterConfig `json:"filters,omitempty"`

	File      *FileSensorConfig      `json:"file,omitempty"`
	Cmd       *CmdSensorConfig       `json:"cmd,omitempty"`
	HddTemp   *HddTempSensorConfig   `json:"hddtemp,omitempty"`
	Snmp      *SnmpSensorConfig      `json:"snmp,omitempty"`
	Nvidia    *NvidiaSensorConfig    `json:"nvidia,omitempty"`
	Aggregate *AggregateSensorConfig `json:"aggregate,omitempty"`
}

type FileSensorConfig struct {
	// Path to a sysfs-like file containing the temperature.
	// May contain glob characters, in which case it must match exactly one file.
	Path string `json:"path"`
}

type CmdSensorConfig struct {
	Exec string   `json:"exec"`
	Args []string `json:"args,omitempty"`
}

type HddTempSensorConfig struct {
	// Glob of block devices passed to hddtemp, e.g. "/dev/sd?"
	Devices string `json:"devices"`
	// Path of the hddtemp binary
	Exec string `json:"exec,omitempty"`
}

type SnmpSensorConfig struct {
	Target    string `json:"target"`
	Port      uint16 `json:"port,omitempty"`
	Community string `json:"community,omitempty"`
	Oid       string `json:"oid"`
	// Divisor applied to the raw integer value, e.g. 10 for deci-degrees
	Scale float64 `json:"scale,omitempty"`
}

type NvidiaSensorConfig struct {
	Index int `json:"index"`
}

const (
	AggregateOpMax = "max"
	AggregateOpAvg = "avg"
)

type AggregateSensorConfig struct {
	Sensors []string `json:"sensors"`
	Op      string   `json:"op,omitempty"`
}

type FilterConfig struct {
	MovingMedian   *MovingMedianFilterConfig   `json:"movingMedian,omitempty"`
	MovingQuantile *MovingQuantileFilterConfig `json:"movingQuantile,omitempty"`
}

type MovingMedianFilterConfig struct {
	Window int `json:"window"`
}

type MovingQuantileFilterConfig struct {
	Quantile float64 `json:"quantile"`
	Window   int     `json:"window"`
}
