package fans

import (
	"os"
	"strings"

	"github.com/fanctld/fanctld/internal/configuration"
	"github.com/fanctld/fanctld/internal/ui"
	"github.com/fanctld/fanctld/internal/util"
	"github.com/mitchellh/go-homedir"
)

// FileFan drives a fan through a sysfs-style PWM file, optionally reading
// its speed from a matching fan input file.
type FileFan struct {
	Config configuration.FanConfig

	PwmPath string
	RpmPath string

	// state of <pwm>_enable before TakeControl, restored on release
	savedPwmEnable int
	controlTaken   bool

	lastSetPwm    int
	hasLastSetPwm bool
}

func NewFileFan(config configuration.FanConfig) (*FileFan, error) {
	pwmPath, err := resolveFanPath(config.File.PwmPath)
	if err != nil {
		return nil, err
	}
	rpmPath := ""
	if config.File.RpmPath != "" {
		rpmPath, err = resolveFanPath(config.File.RpmPath)
		if err != nil {
			return nil, err
		}
	}
	return &FileFan{
		Config:  config,
		PwmPath: pwmPath,
		RpmPath: rpmPath,
	}, nil
}

func resolveFanPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		return homedir.Expand(path)
	}
	return path, nil
}

func (fan *FileFan) GetId() string {
	return fan.Config.ID
}

func (fan *FileFan) GetConfig() configuration.FanConfig {
	return fan.Config
}

func (fan *FileFan) ShouldNeverStop() bool {
	return fan.Config.NeverStop.Get()
}

func (fan *FileFan) GetRpm() (int, error) {
	return util.ReadIntFromFile(fan.RpmPath)
}

func (fan *FileFan) GetPwm() (int, error) {
	return util.ReadIntFromFile(fan.PwmPath)
}

func (fan *FileFan) SetPwm(pwm int) error {
	if err := util.WriteIntToFile(pwm, fan.PwmPath); err != nil {
		return err
	}
	fan.lastSetPwm = pwm
	fan.hasLastSetPwm = true
	return nil
}

func (fan *FileFan) GetLastSetPwm() (int, bool) {
	return fan.lastSetPwm, fan.hasLastSetPwm
}

func (fan *FileFan) pwmEnablePath() string {
	return fan.PwmPath + "_enable"
}

// TakeControl switches the fan to manual PWM mode, remembering the
// previous pwm_enable value. Fans without a pwm_enable file are assumed to
// be always writable.
func (fan *FileFan) TakeControl() error {
	path := fan.pwmEnablePath()
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	saved, err := util.ReadIntFromFile(path)
	if err != nil {
		return err
	}
	if err := util.WriteIntToFile(1, path); err != nil {
		return err
	}
	fan.savedPwmEnable = saved
	fan.controlTaken = true
	return nil
}

// ReleaseControl restores the pwm_enable value seen at TakeControl. If
// that fails the fan is forced to manual mode at full speed, leaving it
// audible rather than stopped.
func (fan *FileFan) ReleaseControl() {
	if !fan.controlTaken {
		return
	}
	fan.controlTaken = false
	path := fan.pwmEnablePath()
	if err := util.WriteIntToFile(fan.savedPwmEnable, path); err == nil {
		return
	}
	ui.Warning("Unable to restore pwm_enable of fan %s, forcing full speed", fan.Config.ID)
	_ = util.WriteIntToFile(1, path)
	_ = fan.SetPwm(MaxPwmValue)
}

func (fan *FileFan) Supports(feature FeatureFlag) bool {
	switch feature {
	case FeatureRpmSensor:
		return fan.RpmPath != ""
	case FeaturePwmSensor:
		return true
	case FeaturePwmControl:
		return true
	}
	return false
}
