package fans

import (
	"github.com/fanctld/fanctld/internal/arduino"
	"github.com/fanctld/fanctld/internal/configuration"
)

// ArduinoFan is a fan attached to an Arduino board: PWM is commanded on
// one pin, the tacho signal is measured on another.
type ArduinoFan struct {
	Config configuration.FanConfig
	Link   arduino.Link

	lastSetPwm    int
	hasLastSetPwm bool
}

func (fan *ArduinoFan) GetId() string {
	return fan.Config.ID
}

func (fan *ArduinoFan) GetConfig() configuration.FanConfig {
	return fan.Config
}

func (fan *ArduinoFan) ShouldNeverStop() bool {
	return fan.Config.NeverStop.Get()
}

func (fan *ArduinoFan) GetRpm() (int, error) {
	return fan.Link.GetRpm(fan.Config.Arduino.TachoPin)
}

func (fan *ArduinoFan) GetPwm() (int, error) {
	return fan.Link.GetPwm(fan.Config.Arduino.PwmPin)
}

func (fan *ArduinoFan) SetPwm(pwm int) error {
	if err := fan.Link.SetPwm(fan.Config.Arduino.PwmPin, pwm); err != nil {
		return err
	}
	fan.lastSetPwm = pwm
	fan.hasLastSetPwm = true
	return nil
}

func (fan *ArduinoFan) GetLastSetPwm() (int, bool) {
	return fan.lastSetPwm, fan.hasLastSetPwm
}

// TakeControl does nothing, the board connection has its own lifecycle
// and is reopened on demand when commands are sent.
func (fan *ArduinoFan) TakeControl() error {
	return nil
}

func (fan *ArduinoFan) ReleaseControl() {
}

func (fan *ArduinoFan) Supports(feature FeatureFlag) bool {
	switch feature {
	case FeatureRpmSensor:
		return true
	case FeaturePwmSensor:
		return true
	case FeaturePwmControl:
		return true
	}
	return false
}
