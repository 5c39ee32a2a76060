package configuration

import (
	"os"
	"time"

	"github.com/fanctld/fanctld/internal/ui"
	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Configuration struct {
	DbPath  string `json:"dbPath"`
	PidFile string `json:"pidFile,omitempty"`

	Interval      time.Duration `json:"interval"`
	SensorTimeout time.Duration `json:"sensorTimeout"`

	Statistics StatisticsConfig `json:"statistics"`
	Api        ApiConfig        `json:"api"`
	Profiling  ProfilingConfig  `json:"profiling"`
	Telemetry  TelemetryConfig  `json:"telemetry"`

	Arduinos []ArduinoConfig `json:"arduinos"`
	Sensors  []SensorConfig  `json:"sensors"`
	Fans     []FanConfig     `json:"fans"`
	Mappings []MappingConfig `json:"mappings"`

	Report ReportConfig `json:"report"`
}

var CurrentConfig Configuration

// InitConfig reads in config file and ENV variables if set.
func InitConfig(cfgFile string) {
	viper.SetConfigName("fanctld")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			ui.Error("Couldn't detect home directory: %v", err)
			os.Exit(1)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.AddConfigPath("/etc/fanctld/")
	}

	viper.AutomaticEnv() // read in environment variables that match

	setDefaultValues()
}

func setDefaultValues() {
	viper.SetDefault("dbpath", "/etc/fanctld/fanctld.db")
	viper.SetDefault("interval", 5*time.Second)
	viper.SetDefault("sensorTimeout", 2*time.Second)

	viper.SetDefault("statistics.enabled", false)
	viper.SetDefault("statistics.port", 8083)
	viper.SetDefault("api.enabled", false)
	viper.SetDefault("api.host", "localhost")
	viper.SetDefault("api.port", 8084)
	viper.SetDefault("profiling.enabled", false)
	viper.SetDefault("profiling.host", "localhost")
	viper.SetDefault("profiling.port", 6060)
	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.retention", 7*24*time.Hour)
	viper.SetDefault("report.timeout", 5*time.Second)

	viper.SetDefault("arduinos", []ArduinoConfig{})
	viper.SetDefault("sensors", []SensorConfig{})
	viper.SetDefault("fans", []FanConfig{})
	viper.SetDefault("mappings", []MappingConfig{})
}

// DetectConfigFile returns the path of the configuration file
// that will be used for loading the configuration.
func DetectConfigFile() string {
	if err := viper.ReadInConfig(); err != nil {
		// config file is required, so we fail here
		ui.Fatal("Error reading config file, %s", err)
	}
	// this is only populated _after_ ReadInConfig()
	return viper.ConfigFileUsed()
}

// LoadConfig decodes the read configuration file into CurrentConfig.
func LoadConfig() {
	err := viper.Unmarshal(
		&CurrentConfig,
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			MappingFanHookFunc(),
			DefaultTrueBoolHookFunc(),
		)),
	)
	if err != nil {
		ui.Fatal("unable to decode into struct, %v", err)
	}
}
