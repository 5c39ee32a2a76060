package trigger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fanctld/fanctld/internal/report"
	"github.com/fanctld/fanctld/internal/ui"
)

type State int

const (
	StateNormal State = iota
	StateThreshold
	StatePanic
)

func (s State) String() string {
	switch s {
	case StatePanic:
		return "panic"
	case StateThreshold:
		return "threshold"
	default:
		return "normal"
	}
}

// SensorState is one sensor's contribution to the safety evaluation.
type SensorState struct {
	ID      string
	Value   float64
	Max     float64
	Panic   *float64
	Failing bool
}

// FanState is one fan's contribution to the safety evaluation.
type FanState struct {
	ID      string
	Rpm     int
	HasRpm  bool
	LastPwm int
	HasPwm  bool
	Failing bool
}

// Evaluation is the outcome of one safety check.
type Evaluation struct {
	State   State
	Reasons []string
}

// Evaluate computes the safety state from scratch. Nothing is carried
// over between calls, a single healthy evaluation clears any alert.
//
// Panic wins over everything: a sensor at or above its panic temperature,
// or a fan that stands still despite being driven. Threshold is advisory:
// a sensor at or above its max temperature, or any failing sensor or fan.
func Evaluate(sensors []SensorState, fans []FanState) Evaluation {
	var panicReasons []string
	var thresholdReasons []string

	for _, sensor := range sensors {
		if sensor.Failing {
			thresholdReasons = append(thresholdReasons, fmt.Sprintf("sensor %s is failing", sensor.ID))
			continue
		}
		if sensor.Panic != nil && sensor.Value >= *sensor.Panic {
			panicReasons = append(panicReasons, fmt.Sprintf("sensor %s reached its panic temperature: %.1f >= %.1f", sensor.ID, sensor.Value, *sensor.Panic))
		}
		if sensor.Value >= sensor.Max {
			thresholdReasons = append(thresholdReasons, fmt.Sprintf("sensor %s reached its max temperature: %.1f >= %.1f", sensor.ID, sensor.Value, sensor.Max))
		}
	}

	for _, fan := range fans {
		if fan.Failing {
			thresholdReasons = append(thresholdReasons, fmt.Sprintf("fan %s is failing", fan.ID))
			continue
		}
		if fan.HasRpm && fan.Rpm == 0 && fan.HasPwm && fan.LastPwm > 0 {
			panicReasons = append(panicReasons, fmt.Sprintf("fan %s is jammed: no rotation at PWM %d", fan.ID, fan.LastPwm))
		}
	}

	if len(panicReasons) > 0 {
		return Evaluation{State: StatePanic, Reasons: panicReasons}
	}
	if len(thresholdReasons) > 0 {
		return Evaluation{State: StateThreshold, Reasons: thresholdReasons}
	}
	return Evaluation{State: StateNormal}
}

// Monitor watches safety state transitions and notifies the operator
// through the reporter.
type Monitor struct {
	Reporter *report.Reporter

	current State
}

func NewMonitor(reporter *report.Reporter) *Monitor {
	return &Monitor{
		Reporter: reporter,
		current:  StateNormal,
	}
}

func (m *Monitor) Current() State {
	return m.current
}

// Observe records the evaluation of the current cycle. On a state change
// the leave hook of the old state and the enter hook of the new state are
// run, and the change is reported.
func (m *Monitor) Observe(evaluation Evaluation) {
	previous := m.current
	if evaluation.State == previous {
		return
	}
	m.current = evaluation.State

	details := strings.Join(sortedReasons(evaluation.Reasons), "\n")
	switch {
	case evaluation.State == StateNormal:
		m.Reporter.Report(
			fmt.Sprintf("Leaving %s MODE", strings.ToUpper(previous.String())),
			fmt.Sprintf("Leaving %s MODE.", strings.ToUpper(previous.String())),
		)
	default:
		ui.Warning("Safety state changed: %s -> %s", previous, evaluation.State)
		m.Reporter.Report(
			fmt.Sprintf("Entered %s MODE", strings.ToUpper(evaluation.State.String())),
			fmt.Sprintf("Entered %s MODE. Take a look as soon as possible!\n%s", strings.ToUpper(evaluation.State.String()), details),
		)
	}

	m.Reporter.RunHook(m.leaveHook(previous))
	m.Reporter.RunHook(m.enterHook(evaluation.State))
}

// Shutdown runs the leave hook of the active state. Called when the
// daemon exits, so a restart does not fire the enter hooks twice without
// a matching leave.
func (m *Monitor) Shutdown() {
	if m.current == StateNormal {
		return
	}
	m.Reporter.Report(
		fmt.Sprintf("Leaving %s MODE", strings.ToUpper(m.current.String())),
		fmt.Sprintf("Leaving %s MODE because of shutting down or restarting.", strings.ToUpper(m.current.String())),
	)
	m.Reporter.RunHook(m.leaveHook(m.current))
	m.current = StateNormal
}

func (m *Monitor) enterHook(state State) string {
	switch state {
	case StatePanic:
		return m.Reporter.Config.PanicEnterCmd
	case StateThreshold:
		return m.Reporter.Config.ThresholdEnterCmd
	}
	return ""
}

func (m *Monitor) leaveHook(state State) string {
	switch state {
	case StatePanic:
		return m.Reporter.Config.PanicLeaveCmd
	case StateThreshold:
		return m.Reporter.Config.ThresholdLeaveCmd
	}
	return ""
}

func sortedReasons(reasons []string) []string {
	result := append([]string{}, reasons...)
	sort.Strings(result)
	return result
}
