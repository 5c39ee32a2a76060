package fan

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/fanctld/fanctld/internal/configuration"
	"github.com/fanctld/fanctld/internal/ui"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the configured fans to console",
	Long:  ``,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		loadConfig()

		var rows [][]string
		for _, config := range configuration.CurrentConfig.Fans {
			rows = append(rows, []string{
				"",
				config.ID,
				fanType(config),
				strconv.FormatBool(config.NeverStop.Get()),
				strconv.Itoa(config.LineStart()),
				strconv.Itoa(config.LineEnd()),
				strings.Join(mappedBy(config.ID), ", "),
			})
		}

		tab := table.Table{
			Headers: []string{"Fans   ", "ID", "Type", "Never stop", "Line start", "Line end", "Mapped by"},
			Rows:    rows,
		}
		var buf bytes.Buffer
		if err := tab.WriteTable(&buf, tableConfig()); err != nil {
			ui.Fatal("Error printing table: %v", err)
		}
		ui.Printfln(buf.String())
	},
}

func fanType(config configuration.FanConfig) string {
	switch {
	case config.File != nil:
		return "file"
	case config.Cmd != nil:
		return "cmd"
	case config.Arduino != nil:
		return "arduino"
	}
	return "unknown"
}

func mappedBy(fanId string) []string {
	var mappings []string
	for _, mappingConfig := range configuration.CurrentConfig.Mappings {
		for _, mappingFan := range mappingConfig.Fans {
			if mappingFan.Fan == fanId {
				mappings = append(mappings, mappingConfig.ID)
				break
			}
		}
	}
	return mappings
}

func init() {
	Command.AddCommand(listCmd)
}
