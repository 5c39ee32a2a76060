package fan

import (
	"fmt"
	"strings"

	"github.com/fanctld/fanctld/cmd/global"
	"github.com/fanctld/fanctld/internal/arduino"
	"github.com/fanctld/fanctld/internal/configuration"
	"github.com/fanctld/fanctld/internal/fans"
	"github.com/fanctld/fanctld/internal/ui"
	"github.com/mgutz/ansi"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
)

var fanId string

var Command = &cobra.Command{
	Use:              "fan",
	Short:            "Fan related commands",
	Long:             ``,
	TraverseChildren: true,
}

func init() {
	// not marked required, list and curve work without it
	Command.PersistentFlags().StringVarP(
		&fanId,
		"id", "i",
		"",
		"Fan ID as specified in the config",
	)
}

func loadConfig() {
	configPath := configuration.DetectConfigFile()
	ui.Info("Using configuration file at: %s", configPath)
	configuration.LoadConfig()
	if err := configuration.Validate(configPath); err != nil {
		ui.Fatal("%v", err)
	}

	for _, config := range configuration.CurrentConfig.Arduinos {
		arduino.ConnectionMap.Set(config.ID, arduino.NewConnection(config))
	}
}

func getFan(id string) (fans.Fan, error) {
	loadConfig()

	if len(id) <= 0 {
		return nil, fmt.Errorf("required flag \"id\" not set")
	}

	availableFanIds := []string{}
	for _, config := range configuration.CurrentConfig.Fans {
		availableFanIds = append(availableFanIds, config.ID)
		if config.ID == id {
			return fans.NewFan(config)
		}
	}

	return nil, fmt.Errorf("no fan with id found: %s, options: %s", id, strings.Join(availableFanIds, ", "))
}

func tableConfig() *table.Config {
	return &table.Config{
		ShowIndex:       false,
		Color:           !global.NoColor,
		AlternateColors: true,
		TitleColorCode:  ansi.ColorCode("white+buf"),
		AltColorCodes: []string{
			ansi.ColorCode("white"),
			ansi.ColorCode("white:236"),
		},
	}
}

// freshen connects the board of an arduino fan and waits for one status
// message, so a one-shot read sees current data.
func freshen(fan fans.Fan) error {
	arduinoFan, ok := fan.(*fans.ArduinoFan)
	if !ok {
		return nil
	}
	if err := arduinoFan.Link.Connect(); err != nil {
		return err
	}
	return arduinoFan.Link.WaitForStatus(arduinoFan.Link.GetConfig().Ttl())
}
