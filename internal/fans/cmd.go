package fans

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fanctld/fanctld/internal/configuration"
	"github.com/fanctld/fanctld/internal/util"
)

// CmdFan delegates fan control to external commands. A fan with only a
// getRpm command is a read-only fan that is monitored but never driven.
type CmdFan struct {
	Config configuration.FanConfig

	lastSetPwm    int
	hasLastSetPwm bool
}

func (fan *CmdFan) GetId() string {
	return fan.Config.ID
}

func (fan *CmdFan) GetConfig() configuration.FanConfig {
	return fan.Config
}

func (fan *CmdFan) ShouldNeverStop() bool {
	return fan.Config.NeverStop.Get()
}

func (fan *CmdFan) GetRpm() (int, error) {
	if !fan.Supports(FeatureRpmSensor) {
		return 0, nil
	}

	conf := fan.Config.Cmd.GetRpm
	timeout := 2 * time.Second
	result, err := util.SafeCmdExecution(conf.Exec, conf.Args, timeout)
	if err != nil {
		return 0, err
	}

	rpm, err := strconv.ParseFloat(strings.TrimSpace(result), 64)
	if err != nil {
		return 0, err
	}
	return int(rpm), nil
}

// GetPwm reports the last applied PWM value. There is no query command,
// so before the first apply there is nothing to report.
func (fan *CmdFan) GetPwm() (int, error) {
	if !fan.hasLastSetPwm {
		return 0, fmt.Errorf("fan %s has no PWM value yet", fan.Config.ID)
	}
	return fan.lastSetPwm, nil
}

func (fan *CmdFan) SetPwm(pwm int) error {
	if !fan.Supports(FeaturePwmControl) {
		return fmt.Errorf("fan %s is read-only", fan.Config.ID)
	}

	conf := fan.Config.Cmd.SetPwm
	args := make([]string, 0, len(conf.Args))
	for _, arg := range conf.Args {
		args = append(args, strings.ReplaceAll(arg, "%pwm%", strconv.Itoa(pwm)))
	}

	timeout := 2 * time.Second
	if _, err := util.SafeCmdExecution(conf.Exec, args, timeout); err != nil {
		return err
	}
	fan.lastSetPwm = pwm
	fan.hasLastSetPwm = true
	return nil
}

func (fan *CmdFan) GetLastSetPwm() (int, bool) {
	return fan.lastSetPwm, fan.hasLastSetPwm
}

func (fan *CmdFan) TakeControl() error {
	return nil
}

func (fan *CmdFan) ReleaseControl() {
}

func (fan *CmdFan) Supports(feature FeatureFlag) bool {
	switch feature {
	case FeatureRpmSensor:
		return fan.Config.Cmd.GetRpm != nil
	case FeaturePwmSensor:
		return false
	case FeaturePwmControl:
		return fan.Config.Cmd.SetPwm != nil
	}
	return false
}
