package configuration

const (
	DefaultPwmLineStart = 100
	DefaultPwmLineEnd   = 240
)

type FanConfig struct {
	ID string `json:"id"`

	PwmLineStart *int            `json:"pwmLineStart,omitempty"`
	PwmLineEnd   *int            `json:"pwmLineEnd,omitempty"`
	NeverStop    DefaultTrueBool `json:"neverStop"`

	File    *FileFanConfig    `json:"file,omitempty"`
	Cmd     *CmdFanConfig     `json:"cmd,omitempty"`
	Arduino *ArduinoFanConfig `json:"arduino,omitempty"`
}

// LineStart returns the PWM value mapped to speed 0.0.
func (c FanConfig) LineStart() int {
	if c.PwmLineStart == nil {
		return DefaultPwmLineStart
	}
	return *c.PwmLineStart
}

// LineEnd returns the PWM value mapped to speed 1.0.
func (c FanConfig) LineEnd() int {
	if c.PwmLineEnd == nil {
		return DefaultPwmLineEnd
	}
	return *c.PwmLineEnd
}

type FileFanConfig struct {
	PwmPath string `json:"pwmPath"`
	RpmPath string `json:"rpmPath,omitempty"`
}

type CmdFanConfig struct {
	SetPwm *ExecConfig `json:"setPwm,omitempty"`
	GetRpm *ExecConfig `json:"getRpm,omitempty"`
}

type ExecConfig struct {
	Exec string   `json:"exec"`
	Args []string `json:"args,omitempty"`
}

type ArduinoFanConfig struct {
	// ID of the arduino board definition this fan is attached to
	Arduino  string `json:"arduino"`
	PwmPin   int    `json:"pwmPin"`
	TachoPin int    `json:"tachoPin"`
}
