package fan

import (
	"bytes"
	"strconv"

	"github.com/fanctld/fanctld/internal/configuration"
	"github.com/fanctld/fanctld/internal/fans"
	"github.com/fanctld/fanctld/internal/persistence"
	"github.com/fanctld/fanctld/internal/ui"
	"github.com/fanctld/fanctld/internal/util"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
)

var curveCmd = &cobra.Command{
	Use:   "curve",
	Short: "Print the fan response curve(s) to console",
	Long:  ``,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		loadConfig()

		p := persistence.NewPersistence(configuration.CurrentConfig.DbPath)

		printed := 0
		for _, config := range configuration.CurrentConfig.Fans {
			if len(fanId) > 0 && config.ID != fanId {
				continue
			}

			if printed > 0 {
				ui.Printfln("")
				ui.Printfln("")
			}
			printed++

			printFanCurve(p, config)
		}

		if printed == 0 && len(fanId) > 0 {
			ui.Fatal("No fan with id found: %s", fanId)
		}
	},
}

func printFanCurve(p persistence.Persistence, config configuration.FanConfig) {
	ui.Printfln(config.ID)

	tab := table.Table{
		Headers: []string{"", ""},
		Rows: [][]string{
			{"Never stop", strconv.FormatBool(config.NeverStop.Get())},
			{"Line start PWM", strconv.Itoa(config.LineStart())},
			{"Line end PWM", strconv.Itoa(config.LineEnd())},
		},
	}
	var buf bytes.Buffer
	if err := tab.WriteTable(&buf, tableConfig()); err != nil {
		ui.Fatal("Error printing table: %v", err)
	}
	ui.Printfln(buf.String())

	// the configured linear response
	values := make([]float64, 0, 101)
	for i := 0; i <= 100; i++ {
		values = append(values, float64(fans.PwmForSpeed(config, float64(i)/100.0)))
	}
	graph := asciigraph.Plot(values, asciigraph.Height(15), asciigraph.Width(100), asciigraph.Caption("PWM / speed %"))
	ui.Printfln(graph)
	ui.Printfln("")

	// the measured response, if the fan has been calibrated
	measurement, err := p.LoadCalibration(config.ID)
	if err != nil {
		ui.Printfln("No calibration data yet...")
		return
	}

	keys := util.SortedKeys(measurement)
	rpms := make([]float64, 0, len(keys))
	for _, k := range keys {
		rpms = append(rpms, measurement[k])
	}
	graph = asciigraph.Plot(rpms, asciigraph.Height(15), asciigraph.Width(100), asciigraph.Caption("RPM / PWM"))
	ui.Printfln(graph)
}

func init() {
	Command.AddCommand(curveCmd)
}
