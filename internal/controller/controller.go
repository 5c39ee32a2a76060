package controller

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/fanctld/fanctld/internal/arduino"
	"github.com/fanctld/fanctld/internal/configuration"
	"github.com/fanctld/fanctld/internal/fans"
	"github.com/fanctld/fanctld/internal/filters"
	"github.com/fanctld/fanctld/internal/mapping"
	"github.com/fanctld/fanctld/internal/sensors"
	"github.com/fanctld/fanctld/internal/snapshot"
	"github.com/fanctld/fanctld/internal/statistics"
	"github.com/fanctld/fanctld/internal/trigger"
	"github.com/fanctld/fanctld/internal/ui"
)

// Controller runs the closed loop: read all sensors, map temperatures to
// fan speeds, evaluate the safety state and apply PWM values. One
// instance drives all configured fans.
type Controller struct {
	config configuration.Configuration

	sensors []sensors.Sensor
	fans    []fans.Fan
	boards  []arduino.Link

	monitor   *trigger.Monitor
	snapshots *snapshot.Holder

	// Sink receives every published tick, e.g. for the history store.
	// Sends never block, a slow consumer loses ticks.
	Sink chan<- *snapshot.Tick

	sensorsById map[string]sensors.Sensor
	filters     map[string][]filters.Filter

	// readings of the cycle currently being computed
	readings map[string]reading
	// fans whose most recent PWM apply failed
	applyFailed map[string]bool
}

// reading is the outcome of one sensor for one cycle.
type reading struct {
	// raw is the value as read, NaN when the read failed
	raw float64
	// value is the reading after filtering, NaN when failing
	value float64
	err   error
}

// readDeadline is implemented by sensors whose backend needs more time
// than the configured sensor timeout.
type readDeadline interface {
	ReadTimeout() time.Duration
}

func NewController(
	config configuration.Configuration,
	sensorList []sensors.Sensor,
	fanList []fans.Fan,
	boardList []arduino.Link,
	monitor *trigger.Monitor,
	snapshots *snapshot.Holder,
) *Controller {
	c := &Controller{
		config:      config,
		sensors:     sensorList,
		fans:        fanList,
		boards:      boardList,
		monitor:     monitor,
		snapshots:   snapshots,
		sensorsById: make(map[string]sensors.Sensor, len(sensorList)),
		filters:     make(map[string][]filters.Filter, len(sensorList)),
		applyFailed: map[string]bool{},
	}
	for _, s := range sensorList {
		id := s.GetId()
		c.sensorsById[id] = s
		c.filters[id] = filters.NewChain(s.GetConfig().Filters)
		if aggregate, ok := s.(*sensors.AggregateSensor); ok {
			aggregate.Lookup = c.resolveReading
		}
	}
	return c
}

// Run drives the loop until the context is cancelled. On the way out
// every controllable fan is set to full speed, control is released and
// the board connections are closed.
func (c *Controller) Run(ctx context.Context) error {
	for _, board := range c.boards {
		if err := board.Connect(); err != nil {
			ui.Warning("Unable to connect to arduino board %s: %v", board.GetId(), err)
		}
	}

	defer c.shutdown()

	if err := c.takeControl(); err != nil {
		return err
	}

	if err := c.firstTick(); err != nil {
		return err
	}

	interval := c.config.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	tick := time.Tick(interval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			c.tick()
		}
	}
}

func (c *Controller) takeControl() error {
	for _, fan := range c.fans {
		if err := fan.TakeControl(); err != nil {
			return fmt.Errorf("unable to take control of fan %s: %s", fan.GetId(), err.Error())
		}
	}
	return nil
}

// shutdown drives every controllable fan to full speed, hands control
// back and closes the board connections.
func (c *Controller) shutdown() {
	ui.Info("Setting all fans to full speed and releasing control...")
	for _, fan := range c.fans {
		if !fan.Supports(fans.FeaturePwmControl) {
			continue
		}
		if err := fan.SetPwm(fans.MaxPwmValue); err != nil {
			ui.Warning("Unable to set fan %s to full speed: %v", fan.GetId(), err)
		}
		fan.ReleaseControl()
	}
	c.monitor.Shutdown()
	for _, board := range c.boards {
		board.Close()
	}
}

// firstTick doubles as a smoke test: when not a single sensor produces a
// reading, the machine is better served by the full speed fallback of a
// dying daemon than by a loop that runs blind forever.
func (c *Controller) firstTick() error {
	tick := c.tick()
	if len(tick.Sensors) == 0 {
		return nil
	}
	for _, sensorReading := range tick.Sensors {
		if !sensorReading.Failing {
			return nil
		}
	}
	return fmt.Errorf("no sensor produced a reading on the first cycle, check the configuration")
}

// tick runs one full control cycle and publishes its outcome.
func (c *Controller) tick() *snapshot.Tick {
	start := time.Now()

	c.readSensors()
	sensorStates, sensorSpeeds, sensorReadings := c.sensorOutcome()

	mappingSpeeds := mapping.MappingSpeeds(c.config.Mappings, sensorSpeeds)
	fanSpeeds := mapping.FanSpeeds(c.config.Mappings, mappingSpeeds)

	fanStates, observations := c.checkFans()
	evaluation := trigger.Evaluate(sensorStates, fanStates)

	applied, failed := c.applySpeeds(evaluation.State, fanSpeeds)
	c.monitor.Observe(evaluation)

	tick := c.buildSnapshot(start, evaluation, sensorReadings, fanSpeeds, observations, applied, failed)
	c.snapshots.Publish(tick)
	c.offer(tick)
	statistics.ObserveTick(tick.Duration)

	ui.Debug("Tick finished in %v (state: %s)", tick.Duration, evaluation.State)
	return tick
}

// readSensors fetches all sensors of this cycle into c.readings. Plain
// sensors are read concurrently, aggregates afterwards from the cycle's
// readings.
func (c *Controller) readSensors() {
	c.readings = make(map[string]reading, len(c.sensors))

	type result struct {
		id  string
		raw float64
		err error
	}
	results := make(chan result)

	pending := 0
	for _, s := range c.sensors {
		if s.GetConfig().Aggregate != nil {
			continue
		}
		pending++
		go func(s sensors.Sensor) {
			raw, err := readSensor(s, c.timeoutFor(s))
			results <- result{id: s.GetId(), raw: raw, err: err}
		}(s)
	}

	// filters are stateful, they are applied here and not in the workers
	for ; pending > 0; pending-- {
		r := <-results
		if r.err != nil {
			ui.Warning("Error reading sensor %s: %v", r.id, r.err)
		}
		c.readings[r.id] = c.filtered(r.id, r.raw, r.err)
	}

	for _, s := range c.sensors {
		if s.GetConfig().Aggregate == nil {
			continue
		}
		if _, err := c.resolveReading(s.GetId()); err != nil {
			ui.Warning("Error reading sensor %s: %v", s.GetId(), err)
		}
	}
}

// readSensor bounds a single sensor read. The read itself cannot be
// interrupted, a sensor stuck on dead hardware keeps its goroutine until
// the read returns, but the cycle moves on without it.
func readSensor(s sensors.Sensor, timeout time.Duration) (float64, error) {
	type outcome struct {
		value float64
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		value, err := s.GetValue()
		done <- outcome{value: value, err: err}
	}()

	select {
	case result := <-done:
		return result.value, result.err
	case <-time.After(timeout):
		return 0, fmt.Errorf("sensor %s did not produce a reading within %s", s.GetId(), timeout)
	}
}

func (c *Controller) timeoutFor(s sensors.Sensor) time.Duration {
	timeout := c.config.SensorTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if slow, ok := s.(readDeadline); ok {
		if deadline := slow.ReadTimeout(); deadline > timeout {
			timeout = deadline
		}
	}
	return timeout
}

// resolveReading returns the filtered reading of a sensor within the
// current cycle. An aggregate sensor that has not been evaluated yet is
// evaluated on first use, so aggregates may reference each other as long
// as the configuration is free of cycles.
func (c *Controller) resolveReading(id string) (float64, error) {
	if r, ok := c.readings[id]; ok {
		if r.err != nil {
			return 0, r.err
		}
		return r.value, nil
	}

	s, ok := c.sensorsById[id]
	if !ok {
		return 0, fmt.Errorf("unknown sensor: %s", id)
	}
	raw, err := s.GetValue()
	r := c.filtered(id, raw, err)
	c.readings[id] = r
	if r.err != nil {
		return 0, r.err
	}
	return r.value, nil
}

func (c *Controller) filtered(id string, raw float64, err error) reading {
	if err != nil {
		raw = math.NaN()
	}
	value, err := filters.ApplyChain(c.filters[id], raw, err)
	if err != nil {
		value = math.NaN()
	}
	return reading{raw: raw, value: value, err: err}
}

// sensorOutcome turns the readings of this cycle into the safety inputs,
// the cooling demand per sensor and the snapshot entries. A failing
// sensor has no demand entry, the mapping counts that as full demand.
func (c *Controller) sensorOutcome() ([]trigger.SensorState, map[string]float64, []snapshot.SensorReading) {
	states := make([]trigger.SensorState, 0, len(c.sensors))
	speeds := make(map[string]float64, len(c.sensors))
	readings := make([]snapshot.SensorReading, 0, len(c.sensors))

	for _, s := range c.sensors {
		id := s.GetId()
		r := c.readings[id]
		min, max := s.Bounds()
		config := s.GetConfig()
		failing := r.err != nil

		if !failing {
			speeds[id] = mapping.TemperatureSpeed(r.value, min, max)
		}

		states = append(states, trigger.SensorState{
			ID:      id,
			Value:   r.value,
			Max:     max,
			Panic:   config.Panic,
			Failing: failing,
		})

		readings = append(readings, snapshot.SensorReading{
			ID:          id,
			Value:       r.value,
			Raw:         r.raw,
			Min:         min,
			Max:         max,
			Panic:       config.Panic,
			Failing:     failing,
			IsPanic:     !failing && config.Panic != nil && r.value >= *config.Panic,
			IsThreshold: !failing && r.value >= max,
		})
	}
	return states, speeds, readings
}

// fanObservation is what one fan reported at the start of the cycle,
// before any new PWM value was applied.
type fanObservation struct {
	rpm     int
	hasRpm  bool
	failing bool
}

// checkFans collects the RPM of every fan that reports one and builds
// the safety inputs. The jam check compares against the PWM applied in
// an earlier cycle, commands of the current cycle happen afterwards.
func (c *Controller) checkFans() ([]trigger.FanState, map[string]fanObservation) {
	states := make([]trigger.FanState, 0, len(c.fans))
	observations := make(map[string]fanObservation, len(c.fans))

	for _, fan := range c.fans {
		id := fan.GetId()

		var observation fanObservation
		if fan.Supports(fans.FeatureRpmSensor) {
			rpm, err := fan.GetRpm()
			if err != nil {
				ui.Warning("Error reading RPM of fan %s: %v", id, err)
				observation.failing = true
			} else {
				observation.rpm = rpm
				observation.hasRpm = true
			}
		}
		if c.applyFailed[id] {
			observation.failing = true
		}
		observations[id] = observation

		state := trigger.FanState{
			ID:      id,
			Rpm:     observation.rpm,
			HasRpm:  observation.hasRpm,
			Failing: observation.failing,
		}
		if pwm, ok := fan.GetLastSetPwm(); ok {
			state.LastPwm = pwm
			state.HasPwm = true
		}
		states = append(states, state)
	}
	return states, observations
}

// applySpeeds commands the PWM value of every mapped controllable fan,
// or full speed on all of them while panicking. Fans outside every
// mapping are not driven. A failed apply is recorded and reconsidered
// by the safety check of the next cycle.
func (c *Controller) applySpeeds(state trigger.State, fanSpeeds map[string]float64) (map[string]int, map[string]bool) {
	applied := make(map[string]int, len(c.fans))
	failed := map[string]bool{}

	for _, fan := range c.fans {
		if !fan.Supports(fans.FeaturePwmControl) {
			continue
		}
		id := fan.GetId()

		var pwm int
		if state == trigger.StatePanic {
			pwm = fans.MaxPwmValue
		} else if speed, ok := fanSpeeds[id]; ok {
			pwm = fans.PwmForSpeed(fan.GetConfig(), speed)
		} else {
			continue
		}

		if err := fan.SetPwm(pwm); err != nil {
			ui.Error("Unable to set fan %s to PWM %d: %v", id, pwm, err)
			failed[id] = true
			continue
		}
		applied[id] = pwm
	}

	c.applyFailed = failed
	return applied, failed
}

func (c *Controller) buildSnapshot(
	start time.Time,
	evaluation trigger.Evaluation,
	sensorReadings []snapshot.SensorReading,
	fanSpeeds map[string]float64,
	observations map[string]fanObservation,
	applied map[string]int,
	failed map[string]bool,
) *snapshot.Tick {
	fanStatuses := make([]snapshot.FanStatus, 0, len(c.fans))
	for _, fan := range c.fans {
		id := fan.GetId()
		config := fan.GetConfig()
		observation := observations[id]

		speed := fanSpeeds[id]
		if evaluation.State == trigger.StatePanic && fan.Supports(fans.FeaturePwmControl) {
			speed = 1
		}

		pwm, hasPwm := applied[id]
		if !hasPwm {
			pwm, hasPwm = observePwm(fan)
		}

		stopped := false
		if observation.hasRpm {
			stopped = observation.rpm == 0
		} else if hasPwm {
			stopped = pwm == 0
		}

		fanStatuses = append(fanStatuses, snapshot.FanStatus{
			ID:        id,
			Speed:     speed,
			Pwm:       pwm,
			Rpm:       observation.rpm,
			HasRpm:    observation.hasRpm,
			LineStart: config.LineStart(),
			LineEnd:   config.LineEnd(),
			IsStopped: stopped,
			IsFailing: observation.failing || failed[id],
		})
	}

	boards := make([]snapshot.BoardStatus, 0, len(c.boards))
	for _, board := range c.boards {
		boards = append(boards, snapshot.BoardStatus{
			ID:        board.GetId(),
			Connected: board.IsConnected(),
			StatusAge: board.StatusAge(),
		})
	}

	return &snapshot.Tick{
		Time:     start,
		Duration: time.Since(start),
		State:    evaluation.State,
		Sensors:  sensorReadings,
		Fans:     fanStatuses,
		Boards:   boards,
	}
}

// observePwm reports the PWM value of a fan that was not commanded this
// cycle, preferring what the hardware reports over our own accounting.
func observePwm(fan fans.Fan) (int, bool) {
	if fan.Supports(fans.FeaturePwmSensor) {
		if pwm, err := fan.GetPwm(); err == nil {
			return pwm, true
		}
	}
	return fan.GetLastSetPwm()
}

func (c *Controller) offer(tick *snapshot.Tick) {
	if c.Sink == nil {
		return
	}
	select {
	case c.Sink <- tick:
	default:
		ui.Debug("Tick history writer is behind, dropping tick")
	}
}
