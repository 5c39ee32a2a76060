package configuration

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fanctld/fanctld/internal/ui"
	"github.com/fanctld/fanctld/internal/util"
	"github.com/looplab/tarjan"
)

func Validate(configPath string) error {
	return validateConfig(&CurrentConfig, configPath)
}

func validateConfig(config *Configuration, path string) error {
	if config.Interval <= 0 {
		return errors.New("tick interval must be > 0")
	}
	if config.SensorTimeout <= 0 {
		return errors.New("sensor timeout must be > 0")
	}
	if config.Telemetry.Enabled && len(config.Telemetry.DbPath) <= 0 {
		return errors.New("telemetry is enabled but telemetry.dbPath is not set")
	}

	err := validateArduinos(config)
	if err != nil {
		return err
	}
	err = validateSensors(config)
	if err != nil {
		return err
	}
	err = validateFans(config)
	if err != nil {
		return err
	}
	err = validateMappings(config)
	if err != nil {
		return err
	}

	// only enforced when running as root
	if containsExecutedCommands(config) && os.Geteuid() == 0 {
		if _, err := util.CheckFilePermissionsForExecution(path); err != nil {
			return errors.New(fmt.Sprintf("Config file '%s' has invalid permissions: %s", path, err))
		}
	}

	return nil
}

// containsExecutedCommands reports whether the configuration defines any
// shell command the daemon would run, which makes the config file itself
// security sensitive.
func containsExecutedCommands(config *Configuration) bool {
	for _, sensorConfig := range config.Sensors {
		if sensorConfig.Cmd != nil || sensorConfig.HddTemp != nil {
			return true
		}
	}
	for _, fanConfig := range config.Fans {
		if fanConfig.Cmd != nil {
			return true
		}
	}
	return !config.Report.Empty()
}

func validateArduinos(config *Configuration) error {
	ids := map[string]bool{}
	for _, arduinoConfig := range config.Arduinos {
		if len(arduinoConfig.ID) <= 0 {
			return errors.New("Arduino board without an id")
		}
		if ids[arduinoConfig.ID] {
			return errors.New(fmt.Sprintf("Duplicate arduino id: %s", arduinoConfig.ID))
		}
		ids[arduinoConfig.ID] = true

		if len(arduinoConfig.SerialUrl) <= 0 {
			return errors.New(fmt.Sprintf("Arduino %s: serialUrl is missing", arduinoConfig.ID))
		}
		if arduinoConfig.BaudRate < 0 {
			return errors.New(fmt.Sprintf("Arduino %s: invalid baud rate", arduinoConfig.ID))
		}
		if arduinoConfig.StatusTtl < 0 {
			return errors.New(fmt.Sprintf("Arduino %s: invalid status ttl", arduinoConfig.ID))
		}
	}
	return nil
}

func validateSensors(config *Configuration) error {
	ids := map[string]bool{}
	for _, sensorConfig := range config.Sensors {
		if len(sensorConfig.ID) <= 0 {
			return errors.New("Sensor without an id")
		}
		if ids[sensorConfig.ID] {
			return errors.New(fmt.Sprintf("Duplicate sensor id: %s", sensorConfig.ID))
		}
		ids[sensorConfig.ID] = true

		subConfigs := 0
		if sensorConfig.File != nil {
			subConfigs++
		}
		if sensorConfig.Cmd != nil {
			subConfigs++
		}
		if sensorConfig.HddTemp != nil {
			subConfigs++
		}
		if sensorConfig.Snmp != nil {
			subConfigs++
		}
		if sensorConfig.Nvidia != nil {
			subConfigs++
		}
		if sensorConfig.Aggregate != nil {
			subConfigs++
		}
		if subConfigs > 1 {
			return errors.New(fmt.Sprintf("Sensor %s: only one sensor type can be used per sensor definition block", sensorConfig.ID))
		}
		if subConfigs <= 0 {
			return errors.New(fmt.Sprintf("Sensor %s: sub-configuration for sensor is missing, use one of: file | cmd | hddtemp | snmp | nvidia | aggregate", sensorConfig.ID))
		}

		if sensorConfig.Max <= sensorConfig.Min {
			return errors.New(fmt.Sprintf("Sensor %s: max (%.1f) must be greater than min (%.1f)", sensorConfig.ID, sensorConfig.Max, sensorConfig.Min))
		}

		if err := validateFilters(sensorConfig); err != nil {
			return err
		}

		if sensorConfig.File != nil && len(sensorConfig.File.Path) <= 0 {
			return errors.New(fmt.Sprintf("Sensor %s: file path is missing", sensorConfig.ID))
		}
		if sensorConfig.Cmd != nil && len(sensorConfig.Cmd.Exec) <= 0 {
			return errors.New(fmt.Sprintf("Sensor %s: cmd exec is missing", sensorConfig.ID))
		}
		if sensorConfig.HddTemp != nil && len(sensorConfig.HddTemp.Devices) <= 0 {
			return errors.New(fmt.Sprintf("Sensor %s: hddtemp devices is missing", sensorConfig.ID))
		}
		if sensorConfig.Snmp != nil {
			if len(sensorConfig.Snmp.Target) <= 0 {
				return errors.New(fmt.Sprintf("Sensor %s: snmp target is missing", sensorConfig.ID))
			}
			if len(sensorConfig.Snmp.Oid) <= 0 {
				return errors.New(fmt.Sprintf("Sensor %s: snmp oid is missing", sensorConfig.ID))
			}
			if sensorConfig.Snmp.Scale < 0 {
				return errors.New(fmt.Sprintf("Sensor %s: snmp scale must be >= 0", sensorConfig.ID))
			}
		}
		if sensorConfig.Nvidia != nil && sensorConfig.Nvidia.Index < 0 {
			return errors.New(fmt.Sprintf("Sensor %s: invalid nvidia device index", sensorConfig.ID))
		}
		if sensorConfig.Aggregate != nil {
			if len(sensorConfig.Aggregate.Sensors) <= 0 {
				return errors.New(fmt.Sprintf("Sensor %s: aggregate sensor list is empty", sensorConfig.ID))
			}
			switch sensorConfig.Aggregate.Op {
			case "", AggregateOpMax, AggregateOpAvg:
			default:
				return errors.New(fmt.Sprintf("Sensor %s: unknown aggregate op '%s', use one of: max | avg", sensorConfig.ID, sensorConfig.Aggregate.Op))
			}
		}

		if !isSensorConfigInUse(sensorConfig, config) {
			ui.Warning("Unused sensor configuration: %s", sensorConfig.ID)
		}
	}

	for _, sensorConfig := range config.Sensors {
		if sensorConfig.Aggregate == nil {
			continue
		}
		for _, ref := range sensorConfig.Aggregate.Sensors {
			if !ids[ref] {
				return errors.New(fmt.Sprintf("Sensor %s: aggregate references unknown sensor '%s'", sensorConfig.ID, ref))
			}
			if ref == sensorConfig.ID {
				return errors.New(fmt.Sprintf("Sensor %s: aggregate references itself", sensorConfig.ID))
			}
		}
	}

	return validateNoSensorLoops(config)
}

func validateFilters(sensorConfig SensorConfig) error {
	for _, filterConfig := range sensorConfig.Filters {
		subConfigs := 0
		if filterConfig.MovingMedian != nil {
			subConfigs++
			if filterConfig.MovingMedian.Window <= 0 {
				return errors.New(fmt.Sprintf("Sensor %s: movingMedian window must be > 0", sensorConfig.ID))
			}
		}
		if filterConfig.MovingQuantile != nil {
			subConfigs++
			if filterConfig.MovingQuantile.Window <= 0 {
				return errors.New(fmt.Sprintf("Sensor %s: movingQuantile window must be > 0", sensorConfig.ID))
			}
			quantile := filterConfig.MovingQuantile.Quantile
			if quantile <= 0 || quantile >= 1 {
				return errors.New(fmt.Sprintf("Sensor %s: movingQuantile quantile must be in (0, 1)", sensorConfig.ID))
			}
		}
		if subConfigs != 1 {
			return errors.New(fmt.Sprintf("Sensor %s: each filter entry must define exactly one of: movingMedian | movingQuantile", sensorConfig.ID))
		}
	}
	return nil
}

// validateNoSensorLoops detects reference cycles between aggregate sensors.
func validateNoSensorLoops(config *Configuration) error {
	graph := make(map[interface{}][]interface{})
	for _, sensorConfig := range config.Sensors {
		var refs []interface{}
		if sensorConfig.Aggregate != nil {
			for _, ref := range sensorConfig.Aggregate.Sensors {
				refs = append(refs, ref)
			}
		}
		graph[sensorConfig.ID] = refs
	}

	output := tarjan.Connections(graph)
	for _, items := range output {
		if len(items) > 1 {
			cycle := make([]string, 0, len(items))
			for _, item := range items {
				cycle = append(cycle, fmt.Sprintf("%v", item))
			}
			return errors.New(fmt.Sprintf("You have created an aggregate sensor cycle, thats not allowed: %s", strings.Join(cycle, " -> ")))
		}
	}
	return nil
}

func isSensorConfigInUse(config SensorConfig, wholeConfig *Configuration) bool {
	for _, mappingConfig := range wholeConfig.Mappings {
		if util.ContainsString(mappingConfig.Sensors, config.ID) {
			return true
		}
	}
	for _, sensorConfig := range wholeConfig.Sensors {
		if sensorConfig.Aggregate != nil && util.ContainsString(sensorConfig.Aggregate.Sensors, config.ID) {
			return true
		}
	}
	return false
}

func validateFans(config *Configuration) error {
	arduinoIds := map[string]bool{}
	for _, arduinoConfig := range config.Arduinos {
		arduinoIds[arduinoConfig.ID] = true
	}

	ids := map[string]bool{}
	pwmPins := map[string]bool{}
	tachoPins := map[string]bool{}
	for _, fanConfig := range config.Fans {
		if len(fanConfig.ID) <= 0 {
			return errors.New("Fan without an id")
		}
		if ids[fanConfig.ID] {
			return errors.New(fmt.Sprintf("Duplicate fan id: %s", fanConfig.ID))
		}
		ids[fanConfig.ID] = true

		subConfigs := 0
		if fanConfig.File != nil {
			subConfigs++
		}
		if fanConfig.Cmd != nil {
			subConfigs++
		}
		if fanConfig.Arduino != nil {
			subConfigs++
		}
		if subConfigs > 1 {
			return errors.New(fmt.Sprintf("Fan %s: only one fan type can be used per fan definition block", fanConfig.ID))
		}
		if subConfigs <= 0 {
			return errors.New(fmt.Sprintf("Fan %s: sub-configuration for fan is missing, use one of: file | cmd | arduino", fanConfig.ID))
		}

		lineStart := fanConfig.LineStart()
		lineEnd := fanConfig.LineEnd()
		if lineStart < 0 || lineStart > 255 {
			return errors.New(fmt.Sprintf("Fan %s: pwmLineStart must be in [0, 255]", fanConfig.ID))
		}
		if lineEnd < 0 || lineEnd > 255 {
			return errors.New(fmt.Sprintf("Fan %s: pwmLineEnd must be in [0, 255]", fanConfig.ID))
		}
		if lineStart > lineEnd {
			return errors.New(fmt.Sprintf("Fan %s: pwmLineStart (%d) must not exceed pwmLineEnd (%d)", fanConfig.ID, lineStart, lineEnd))
		}

		if fanConfig.File != nil && len(fanConfig.File.PwmPath) <= 0 {
			return errors.New(fmt.Sprintf("Fan %s: file pwmPath is missing", fanConfig.ID))
		}
		if fanConfig.Cmd != nil {
			if fanConfig.Cmd.SetPwm == nil && fanConfig.Cmd.GetRpm == nil {
				return errors.New(fmt.Sprintf("Fan %s: cmd fan needs at least one of setPwm | getRpm", fanConfig.ID))
			}
			if fanConfig.Cmd.SetPwm != nil && len(fanConfig.Cmd.SetPwm.Exec) <= 0 {
				return errors.New(fmt.Sprintf("Fan %s: setPwm exec is missing", fanConfig.ID))
			}
			if fanConfig.Cmd.GetRpm != nil && len(fanConfig.Cmd.GetRpm.Exec) <= 0 {
				return errors.New(fmt.Sprintf("Fan %s: getRpm exec is missing", fanConfig.ID))
			}
		}
		if fanConfig.Arduino != nil {
			arduinoFan := fanConfig.Arduino
			if !arduinoIds[arduinoFan.Arduino] {
				return errors.New(fmt.Sprintf("Fan %s: unknown arduino '%s'", fanConfig.ID, arduinoFan.Arduino))
			}
			if arduinoFan.PwmPin < 0 || arduinoFan.PwmPin > 255 {
				return errors.New(fmt.Sprintf("Fan %s: pwmPin must be in [0, 255]", fanConfig.ID))
			}
			if arduinoFan.TachoPin < 0 || arduinoFan.TachoPin > 255 {
				return errors.New(fmt.Sprintf("Fan %s: tachoPin must be in [0, 255]", fanConfig.ID))
			}
			pwmKey := fmt.Sprintf("%s:%d", arduinoFan.Arduino, arduinoFan.PwmPin)
			if pwmPins[pwmKey] {
				return errors.New(fmt.Sprintf("Fan %s: pwm pin %d on arduino '%s' is already in use", fanConfig.ID, arduinoFan.PwmPin, arduinoFan.Arduino))
			}
			pwmPins[pwmKey] = true
			tachoKey := fmt.Sprintf("%s:%d", arduinoFan.Arduino, arduinoFan.TachoPin)
			if tachoPins[tachoKey] {
				return errors.New(fmt.Sprintf("Fan %s: tacho pin %d on arduino '%s' is already in use", fanConfig.ID, arduinoFan.TachoPin, arduinoFan.Arduino))
			}
			tachoPins[tachoKey] = true
		}

		if !isFanConfigInUse(fanConfig, config.Mappings) {
			ui.Warning("Unused fan configuration: %s", fanConfig.ID)
		}
	}
	return nil
}

func isFanConfigInUse(config FanConfig, mappings []MappingConfig) bool {
	for _, mappingConfig := range mappings {
		for _, mappingFan := range mappingConfig.Fans {
			if mappingFan.Fan == config.ID {
				return true
			}
		}
	}
	return false
}

func validateMappings(config *Configuration) error {
	sensorIds := map[string]bool{}
	for _, sensorConfig := range config.Sensors {
		sensorIds[sensorConfig.ID] = true
	}
	fanIds := map[string]bool{}
	for _, fanConfig := range config.Fans {
		fanIds[fanConfig.ID] = true
	}

	ids := map[string]bool{}
	for _, mappingConfig := range config.Mappings {
		if len(mappingConfig.ID) <= 0 {
			return errors.New("Mapping without an id")
		}
		if ids[mappingConfig.ID] {
			return errors.New(fmt.Sprintf("Duplicate mapping id: %s", mappingConfig.ID))
		}
		ids[mappingConfig.ID] = true

		if len(mappingConfig.Fans) <= 0 {
			return errors.New(fmt.Sprintf("Mapping %s: fan list is empty", mappingConfig.ID))
		}
		if len(mappingConfig.Sensors) <= 0 {
			return errors.New(fmt.Sprintf("Mapping %s: sensor list is empty", mappingConfig.ID))
		}

		seenFans := map[string]bool{}
		for _, mappingFan := range mappingConfig.Fans {
			if !fanIds[mappingFan.Fan] {
				return errors.New(fmt.Sprintf("Mapping %s: unknown fan '%s'", mappingConfig.ID, mappingFan.Fan))
			}
			if seenFans[mappingFan.Fan] {
				return errors.New(fmt.Sprintf("Mapping %s: fan '%s' is listed twice", mappingConfig.ID, mappingFan.Fan))
			}
			seenFans[mappingFan.Fan] = true
			if mappingFan.Modifier <= 0 {
				return errors.New(fmt.Sprintf("Mapping %s: fan '%s' modifier must be > 0", mappingConfig.ID, mappingFan.Fan))
			}
		}
		for _, sensorRef := range mappingConfig.Sensors {
			if !sensorIds[sensorRef] {
				return errors.New(fmt.Sprintf("Mapping %s: unknown sensor '%s'", mappingConfig.ID, sensorRef))
			}
		}
	}
	return nil
}
