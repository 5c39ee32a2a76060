package configuration

import "time"

type StatisticsConfig struct {
	Enabled bool `json:"enabled"`
	Port    int  `json:"port,omitempty"`
}

type ApiConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

type ProfilingConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port,omitempty"`
}

type TelemetryConfig struct {
	Enabled   bool          `json:"enabled"`
	DbPath    string        `json:"dbPath,omitempty"`
	Retention time.Duration `json:"retention,omitempty"`
}
