package configuration

import "time"

const (
	DefaultBaudRate  = 115200
	DefaultStatusTtl = 5 * time.Second
)

type ArduinoConfig struct {
	ID        string        `json:"id"`
	SerialUrl string        `json:"serialUrl"`
	BaudRate  int           `json:"baudRate,omitempty"`
	StatusTtl time.Duration `json:"statusTtl,omitempty"`
}

// Baud returns the configured baud rate or the firmware default.
func (c ArduinoConfig) Baud() int {
	if c.BaudRate <= 0 {
		return DefaultBaudRate
	}
	return c.BaudRate
}

// Ttl returns the configured status liveness window or the firmware default.
func (c ArduinoConfig) Ttl() time.Duration {
	if c.StatusTtl <= 0 {
		return DefaultStatusTtl
	}
	return c.StatusTtl
}
