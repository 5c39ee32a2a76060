package report

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/fanctld/fanctld/internal/configuration"
	"github.com/fanctld/fanctld/internal/ui"
)

const defaultTimeout = 5 * time.Second

// Reporter notifies the operator about safety state changes by running
// configured shell commands. A failing or missing command never disturbs
// the control loop, it is logged and forgotten.
type Reporter struct {
	Config configuration.ReportConfig

	// Execute runs one shell command line. It defaults to /bin/sh -c with
	// the configured timeout and is swappable for tests.
	Execute func(command string) error

	// Notify raises a desktop notification, used when no report command
	// is configured.
	Notify func(title string, text string)
}

func NewReporter(config configuration.ReportConfig) *Reporter {
	reporter := &Reporter{
		Config: config,
	}
	reporter.Execute = reporter.runShell
	reporter.Notify = ui.NotifyWarn
	return reporter
}

// Report substitutes %REASON% and %MESSAGE% into the configured report
// command and runs it. Without a configured command the report goes out
// as a desktop notification, so a workstation user still notices.
func (r *Reporter) Report(reason string, message string) {
	ui.Info("[REPORT] Reason: %s. Message: %s", reason, message)
	command := r.Config.Cmd
	if command == "" {
		if r.Notify != nil {
			r.Notify(reason, message)
		}
		return
	}
	command = strings.ReplaceAll(command, "%REASON%", reason)
	command = strings.ReplaceAll(command, "%MESSAGE%", message)
	if err := r.Execute(command); err != nil {
		ui.Warning("Report command failed: %v", err)
	}
}

// RunHook runs one of the configured enter/leave commands verbatim.
func (r *Reporter) RunHook(command string) {
	if command == "" {
		return
	}
	if err := r.Execute(command); err != nil {
		ui.Warning("Unable to execute trigger command %s: %v", command, err)
	}
}

func (r *Reporter) timeout() time.Duration {
	if r.Config.Timeout <= 0 {
		return defaultTimeout
	}
	return r.Config.Timeout
}

func (r *Reporter) runShell(command string) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout())
	defer cancel()
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return err
	}
	output := strings.TrimSpace(string(out))
	if output != "" {
		ui.Debug("Report command output: %s", output)
	}
	return nil
}
