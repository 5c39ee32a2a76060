package fans

import (
	"fmt"
	"math"

	"github.com/fanctld/fanctld/internal/arduino"
	"github.com/fanctld/fanctld/internal/configuration"
	"github.com/fanctld/fanctld/internal/util"
	cmap "github.com/orcaman/concurrent-map/v2"
)

const (
	MaxPwmValue = 255
	MinPwmValue = 0
)

type FeatureFlag int

const (
	// FeatureRpmSensor marks fans that can report their rotation speed
	FeatureRpmSensor FeatureFlag = 0
	// FeaturePwmSensor marks fans that can report their applied PWM value
	FeaturePwmSensor FeatureFlag = 1
	// FeaturePwmControl marks fans whose PWM value can be set
	FeaturePwmControl FeatureFlag = 2
)

// FanMap contains all active fans keyed by their id.
var FanMap = cmap.New[Fan]()

type Fan interface {
	GetId() string

	GetConfig() configuration.FanConfig

	ShouldNeverStop() bool

	// GetRpm returns the current RPM value of this fan
	GetRpm() (int, error)

	// GetPwm returns the PWM value currently applied to this fan
	GetPwm() (int, error)

	// SetPwm applies the given PWM value to this fan
	SetPwm(pwm int) error

	// GetLastSetPwm returns the most recent successfully applied PWM
	// value. The second return value is false until the first apply.
	GetLastSetPwm() (int, bool)

	// TakeControl prepares the fan for manual speed control, for fans
	// that are otherwise managed by the motherboard.
	TakeControl() error

	// ReleaseControl hands the fan back to whoever controlled it before
	// TakeControl.
	ReleaseControl()

	Supports(feature FeatureFlag) bool
}

func NewFan(config configuration.FanConfig) (Fan, error) {
	if config.File != nil {
		return NewFileFan(config)
	}

	if config.Cmd != nil {
		return &CmdFan{
			Config: config,
		}, nil
	}

	if config.Arduino != nil {
		link, ok := arduino.ConnectionMap.Get(config.Arduino.Arduino)
		if !ok {
			return nil, fmt.Errorf("fan %s references unknown arduino board: %s", config.ID, config.Arduino.Arduino)
		}
		return &ArduinoFan{
			Config: config,
			Link:   link,
		}, nil
	}

	return nil, fmt.Errorf("unable to process fan configuration: %s", config.ID)
}

// PwmForSpeed converts a target speed in [0..1] into the PWM value for the
// given fan. The fan's PWM line maps speed 1.0 to pwmLineEnd and any
// nonzero speed proportionally between pwmLineStart and pwmLineEnd. At
// speed zero a fan that may stop gets PWM 0, a neverStop fan stays at
// pwmLineStart.
func PwmForSpeed(config configuration.FanConfig, speed float64) int {
	speed = util.Coerce(speed, 0, 1)
	if speed == 0 && !config.NeverStop.Get() {
		return MinPwmValue
	}
	start := float64(config.LineStart())
	end := float64(config.LineEnd())
	pwm := int(math.Round(start + speed*(end-start)))
	if pwm < MinPwmValue {
		return MinPwmValue
	}
	if pwm > MaxPwmValue {
		return MaxPwmValue
	}
	return pwm
}
