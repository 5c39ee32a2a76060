package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/fanctld/fanctld/cmd/global"
	"github.com/fanctld/fanctld/internal/hwmon"
	"github.com/fanctld/fanctld/internal/ui"
	"github.com/mgutz/ansi"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
	"go.bug.st/serial"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect devices",
	Long:  `Detects hwmon temperature sensors, fans and serial ports and prints them as a list`,
	Run: func(cmd *cobra.Command, args []string) {
		setupUi()

		tableConfig := &table.Config{
			ShowIndex:       false,
			Color:           !global.NoColor,
			AlternateColors: true,
			TitleColorCode:  ansi.ColorCode("white+buf"),
			AltColorCodes: []string{
				ansi.ColorCode("white"),
				ansi.ColorCode("white:236"),
			},
		}

		// === hwmon chips
		chips := hwmon.GetChips()
		for _, chip := range chips {
			if len(chip.Name) <= 0 {
				continue
			}

			ui.Printfln("> %s", chip.Name)

			var fanRows [][]string
			for _, fan := range chip.Fans {
				pwmText := "N/A"
				if len(fan.PwmOutput) > 0 {
					pwmText = strconv.Itoa(fan.Pwm)
				}
				fanRows = append(fanRows, []string{
					"", strconv.Itoa(fan.Index), fan.Label, strconv.Itoa(fan.Rpm), pwmText, fan.PwmOutput,
				})
			}
			fanTable := table.Table{
				Headers: []string{"Fans   ", "Index", "Label", "RPM", "PWM", "Output"},
				Rows:    fanRows,
			}

			var sensorRows [][]string
			for _, sensor := range chip.Sensors {
				_, file := filepath.Split(sensor.Input)
				labelAndFile := fmt.Sprintf("%s (%s)", sensor.Label, file)

				sensorRows = append(sensorRows, []string{
					"", strconv.Itoa(sensor.Index), labelAndFile, strconv.Itoa(int(sensor.Value)),
				})
			}
			sensorTable := table.Table{
				Headers: []string{"Sensors", "Index", "Label", "Value"},
				Rows:    sensorRows,
			}

			for _, tab := range []table.Table{fanTable, sensorTable} {
				if tab.Rows == nil {
					continue
				}
				var buf bytes.Buffer
				if err := tab.WriteTable(&buf, tableConfig); err != nil {
					ui.Fatal("Error printing table: %v", err)
				}
				ui.Printfln(buf.String())
			}
		}

		// === serial ports, candidates for arduino boards
		ports, err := serial.GetPortsList()
		if err != nil {
			ui.Warning("Unable to list serial ports: %v", err)
			return
		}
		if len(ports) <= 0 {
			return
		}

		ui.Printfln("> serial ports")
		var portRows [][]string
		for _, port := range ports {
			portRows = append(portRows, []string{"", port})
		}
		portTable := table.Table{
			Headers: []string{"Ports  ", "Device"},
			Rows:    portRows,
		}
		var buf bytes.Buffer
		if err := portTable.WriteTable(&buf, tableConfig); err != nil {
			ui.Fatal("Error printing table: %v", err)
		}
		ui.Printfln(buf.String())
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
