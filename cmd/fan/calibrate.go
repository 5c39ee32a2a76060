package fan

import (
	"fmt"
	"time"

	"github.com/fanctld/fanctld/internal/configuration"
	"github.com/fanctld/fanctld/internal/fans"
	"github.com/fanctld/fanctld/internal/persistence"
	"github.com/fanctld/fanctld/internal/ui"
	"github.com/fanctld/fanctld/internal/util"
	"github.com/guptarohit/asciigraph"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

const (
	calibrateSettle        = 2 * time.Second
	calibrateInitialSettle = 7 * time.Second
	calibrateStepAccurate  = 5
	calibrateStepFast      = 25
)

var (
	calibrateFast     bool
	calibrateDecrease bool
	calibrateCsv      bool
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Measure the PWM to RPM response of a fan",
	Long: `Sweeps the fan through its PWM range and records the RPM at every
step. The measurement is persisted and helps picking pwmLineStart and
pwmLineEnd values for the fan.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if calibrateCsv {
			pterm.DisableOutput()
		}

		fan, err := getFan(fanId)
		if err != nil {
			return err
		}
		if !fan.Supports(fans.FeaturePwmControl) {
			return fmt.Errorf("fan %s is not controllable, nothing to calibrate", fan.GetId())
		}
		if !fan.Supports(fans.FeatureRpmSensor) {
			return fmt.Errorf("fan %s has no rpm sensor, nothing to measure", fan.GetId())
		}
		if err := freshen(fan); err != nil {
			return err
		}

		if err := fan.TakeControl(); err != nil {
			return err
		}
		defer fan.ReleaseControl()

		step := calibrateStepAccurate
		if calibrateFast {
			step = calibrateStepFast
		}
		start, end := fans.MinPwmValue, fans.MaxPwmValue
		if calibrateDecrease {
			start, end = end, start
		}

		ui.Info("Measuring response of %s from %d to %d in steps of %d...", fan.GetId(), start, end, step)

		if err := fan.SetPwm(start); err != nil {
			return err
		}
		// let the fan spin up (or down) to the sweep start
		time.Sleep(calibrateInitialSettle)

		measurement := map[int]float64{}
		pwm := start
		for {
			if err := fan.SetPwm(pwm); err != nil {
				return err
			}
			time.Sleep(calibrateSettle)

			rpm, err := fan.GetRpm()
			if err != nil {
				return fmt.Errorf("unable to read rpm at pwm %d: %s", pwm, err)
			}
			measurement[pwm] = float64(rpm)
			ui.Printfln("PWM %3d -> RPM %d", pwm, rpm)

			if pwm == end {
				break
			}
			if calibrateDecrease {
				pwm -= step
				if pwm < end {
					pwm = end
				}
			} else {
				pwm += step
				if pwm > end {
					pwm = end
				}
			}
		}

		dbPath := configuration.CurrentConfig.DbPath
		p := persistence.NewPersistence(dbPath)
		if err := p.Init(); err != nil {
			return err
		}
		if err := p.SaveCalibration(fan.GetId(), measurement); err != nil {
			return err
		}
		ui.Info("Saved measurement of %s to %s", fan.GetId(), dbPath)

		if calibrateCsv {
			printCsv(measurement)
			return nil
		}

		plotMeasurement(measurement)
		suggestLine(fan.GetConfig(), measurement)
		return nil
	},
}

func printCsv(measurement map[int]float64) {
	fmt.Printf("pwm,rpm\n")
	for _, pwm := range util.SortedKeys(measurement) {
		fmt.Printf("%d,%d\n", pwm, int(measurement[pwm]))
	}
}

func plotMeasurement(measurement map[int]float64) {
	keys := util.SortedKeys(measurement)
	values := make([]float64, 0, len(keys))
	for _, k := range keys {
		values = append(values, measurement[k])
	}
	graph := asciigraph.Plot(values, asciigraph.Height(15), asciigraph.Width(100), asciigraph.Caption("RPM / PWM"))
	ui.Printfln(graph)
}

// suggestLine derives pwmLineStart and pwmLineEnd hints from the sweep:
// the lowest PWM that kept the fan spinning and the lowest PWM that
// reached the maximum measured RPM.
func suggestLine(config configuration.FanConfig, measurement map[int]float64) {
	keys := util.SortedKeys(measurement)

	lineStart := -1
	rpms := make([]float64, 0, len(keys))
	for _, pwm := range keys {
		rpms = append(rpms, measurement[pwm])
		if lineStart < 0 && measurement[pwm] > 0 {
			lineStart = pwm
		}
	}
	if lineStart < 0 {
		ui.Warning("Fan never reported any rotation, check the tacho wiring")
		return
	}

	maxRpm := util.Max(rpms)
	lineEnd := fans.MaxPwmValue
	for _, pwm := range keys {
		if measurement[pwm] >= 0.99*maxRpm {
			lineEnd = pwm
			break
		}
	}

	ui.Info("Configured line: pwmLineStart %d, pwmLineEnd %d", config.LineStart(), config.LineEnd())
	ui.Info("Measured line: pwmLineStart %d, pwmLineEnd %d", lineStart, lineEnd)
}

func init() {
	calibrateCmd.Flags().BoolVarP(&calibrateFast, "fast", "f", false, "Sweep in steps of 25 instead of 5")
	calibrateCmd.Flags().BoolVarP(&calibrateDecrease, "decrease", "d", false, "Sweep from 255 down to 0 instead of up")
	calibrateCmd.Flags().BoolVarP(&calibrateCsv, "csv", "", false, "Print the measurement as csv instead of a plot")
	Command.AddCommand(calibrateCmd)
}
