package configuration

import "time"

// ReportConfig defines shell commands that are run on safety state
// transitions. Cmd receives the transition via %REASON% and %MESSAGE%
// placeholders, the enter/leave commands run verbatim.
type ReportConfig struct {
	Cmd string `json:"cmd,omitempty"`

	PanicEnterCmd     string `json:"panicEnterCmd,omitempty"`
	PanicLeaveCmd     string `json:"panicLeaveCmd,omitempty"`
	ThresholdEnterCmd string `json:"thresholdEnterCmd,omitempty"`
	ThresholdLeaveCmd string `json:"thresholdLeaveCmd,omitempty"`

	Timeout time.Duration `json:"timeout,omitempty"`
}

func (c ReportConfig) Empty() bool {
	return c.Cmd == "" &&
		c.PanicEnterCmd == "" && c.PanicLeaveCmd == "" &&
		c.ThresholdEnterCmd == "" && c.ThresholdLeaveCmd == ""
}
