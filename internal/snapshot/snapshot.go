package snapshot

import (
	"sync/atomic"
	"time"

	"github.com/fanctld/fanctld/internal/trigger"
)

// SensorReading is the state of one sensor at the end of a tick.
type SensorReading struct {
	ID string

	// Value is the filtered reading, Raw the value before filtering
	Value float64
	Raw   float64

	Min   float64
	Max   float64
	Panic *float64

	Failing     bool
	IsPanic     bool
	IsThreshold bool
}

// FanStatus is the state of one fan at the end of a tick.
type FanStatus struct {
	ID string

	// Speed is the computed target in [0..1], Pwm the applied value
	Speed float64
	Pwm   int

	Rpm    int
	HasRpm bool

	LineStart int
	LineEnd   int

	IsStopped bool
	IsFailing bool
}

// BoardStatus is the state of one Arduino link at the end of a tick.
type BoardStatus struct {
	ID        string
	Connected bool
	// StatusAge is seconds since the last status message, NaN if none
	StatusAge float64
}

// Tick is the complete outcome of one control cycle. It is immutable
// once published.
type Tick struct {
	Time     time.Time
	Duration time.Duration

	State trigger.State

	Sensors []SensorReading
	Fans    []FanStatus
	Boards  []BoardStatus
}

// Holder hands completed ticks from the control loop to readers. Readers
// always observe a fully written tick or none at all.
type Holder struct {
	current atomic.Pointer[Tick]
}

func (h *Holder) Publish(tick *Tick) {
	h.current.Store(tick)
}

// Load returns the most recent tick, or nil before the first one.
func (h *Holder) Load() *Tick {
	return h.current.Load()
}

// Current is where the control loop publishes and every reader looks.
var Current = &Holder{}
