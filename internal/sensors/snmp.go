package sensors

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fanctld/fanctld/internal/configuration"
	"github.com/gosnmp/gosnmp"
)

type SnmpSensor struct {
	Config configuration.SensorConfig

	client *gosnmp.GoSNMP
}

func NewSnmpSensor(config configuration.SensorConfig) (*SnmpSensor, error) {
	snmpConfig := config.Snmp

	port := snmpConfig.Port
	if port == 0 {
		port = 161
	}
	community := snmpConfig.Community
	if community == "" {
		community = "public"
	}

	client := &gosnmp.GoSNMP{
		Target:    snmpConfig.Target,
		Port:      port,
		Community: community,
		Version:   gosnmp.Version2c,
		Timeout:   2 * time.Second,
		Retries:   1,
	}
	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("sensor %s: %s", config.ID, err.Error())
	}

	return &SnmpSensor{
		Config: config,
		client: client,
	}, nil
}

func (sensor *SnmpSensor) GetId() string {
	return sensor.Config.ID
}

func (sensor *SnmpSensor) GetConfig() configuration.SensorConfig {
	return sensor.Config
}

// GetValue polls the configured OID and scales the result to degrees
// celsius using the configured divisor.
func (sensor *SnmpSensor) GetValue() (float64, error) {
	result, err := sensor.client.Get([]string{sensor.Config.Snmp.Oid})
	if err != nil {
		return 0, err
	}
	if len(result.Variables) <= 0 {
		return 0, fmt.Errorf("empty response for OID %s", sensor.Config.Snmp.Oid)
	}

	variable := result.Variables[0]
	value, err := decodeSnmpValue(variable)
	if err != nil {
		return 0, err
	}

	scale := sensor.Config.Snmp.Scale
	if scale == 0 {
		scale = 1
	}
	return value / scale, nil
}

func decodeSnmpValue(variable gosnmp.SnmpPDU) (float64, error) {
	switch variable.Type {
	case gosnmp.OctetString:
		text := strings.TrimSpace(string(variable.Value.([]byte)))
		return strconv.ParseFloat(text, 64)
	case gosnmp.NoSuchObject, gosnmp.NoSuchInstance:
		return 0, fmt.Errorf("no such OID %s", variable.Name)
	default:
		return float64(gosnmp.ToBigInt(variable.Value).Int64()), nil
	}
}

func (sensor *SnmpSensor) Bounds() (float64, float64) {
	return sensor.Config.Min, sensor.Config.Max
}
