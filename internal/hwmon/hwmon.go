package hwmon

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fanctld/fanctld/internal/util"
	"github.com/md14454/gosensors"
)

const (
	BusTypeIsa  = 1
	BusTypePci  = 2
	BusTypeAcpi = 5
)

var platformRegex = regexp.MustCompile(`/platform/([^/]+)/`)

// Chip is one hwmon device found on the host, with the inputs and outputs
// an operator can reference from the configuration file.
type Chip struct {
	Name     string
	DType    string
	Modalias string
	Platform string
	Path     string

	Sensors []TempInput
	Fans    []FanOutput
}

// TempInput is a temperature input of a chip. Value holds the reading
// taken during the scan, in degrees celsius.
type TempInput struct {
	Label string
	Index int
	Input string
	Value float64
}

// FanOutput is a fan of a chip. PwmOutput is empty when the fan has a
// tacho input but no matching pwm file.
type FanOutput struct {
	Label     string
	Index     int
	RpmInput  string
	PwmOutput string
	Rpm       int
	Pwm       int
}

// GetChips scans the host using libsensors and returns every chip that has
// at least one temperature input or fan.
func GetChips() []*Chip {
	gosensors.Init()
	defer gosensors.Cleanup()
	chips := gosensors.GetDetectedChips()

	var list []*Chip

	for i := 0; i < len(chips); i++ {
		chip := chips[i]

		identifier := computeIdentifier(chip)
		platform := findPlatform(chip.Path)
		if len(platform) <= 0 {
			platform = identifier
		}

		fanList := getFans(chip)
		sensorList := getTempInputs(chip)

		if len(fanList) <= 0 && len(sensorList) <= 0 {
			continue
		}

		c := &Chip{
			Name:     identifier,
			DType:    util.GetDeviceType(chip.Path),
			Modalias: util.GetDeviceModalias(chip.Path),
			Platform: platform,
			Path:     chip.Path,
			Fans:     fanList,
			Sensors:  sensorList,
		}
		list = append(list, c)
	}

	return list
}

func getTempInputs(chip gosensors.Chip) []TempInput {
	var sensorList []TempInput

	features := chip.GetFeatures()
	for j := 0; j < len(features); j++ {
		feature := features[j]

		if feature.Type != gosensors.FeatureTypeTemp {
			continue
		}

		subfeatures := feature.GetSubFeatures()
		if !containsSubFeature(subfeatures, gosensors.SubFeatureTypeTempInput) {
			continue
		}
		inputSubFeature := getSubFeature(subfeatures, gosensors.SubFeatureTypeTempInput)

		sensorList = append(
			sensorList,
			TempInput{
				Label: util.GetLabel(chip.Path, inputSubFeature.Name),
				Index: len(sensorList) + 1,
				Input: fmt.Sprintf("%s/%s", chip.Path, inputSubFeature.Name),
				Value: inputSubFeature.GetValue(),
			})
	}

	return sensorList
}

func getFans(chip gosensors.Chip) []FanOutput {
	var fanList []FanOutput

	features := chip.GetFeatures()
	for j := 0; j < len(features); j++ {
		feature := features[j]

		if feature.Type != gosensors.FeatureTypeFan {
			continue
		}

		subfeatures := feature.GetSubFeatures()
		if !containsSubFeature(subfeatures, gosensors.SubFeatureTypeFanInput) {
			continue
		}
		inputSubFeature := getSubFeature(subfeatures, gosensors.SubFeatureTypeFanInput)
		rpmInput := fmt.Sprintf("%s/%s", chip.Path, inputSubFeature.Name)

		fan := FanOutput{
			Label:    util.GetLabel(chip.Path, inputSubFeature.Name),
			Index:    len(fanList) + 1,
			RpmInput: rpmInput,
			Rpm:      int(inputSubFeature.GetValue()),
		}

		// a "fan3_input" tacho usually pairs with a "pwm3" output
		pwmOutput := pwmPathFor(chip.Path, inputSubFeature.Name)
		if pwm, err := util.ReadIntFromFile(pwmOutput); err == nil {
			fan.PwmOutput = pwmOutput
			fan.Pwm = pwm
		}

		fanList = append(fanList, fan)
	}

	return fanList
}

func pwmPathFor(devicePath string, fanInput string) string {
	number := strings.TrimSuffix(strings.TrimPrefix(fanInput, "fan"), "_input")
	return fmt.Sprintf("%s/pwm%s", devicePath, number)
}

func getSubFeature(subfeatures []gosensors.SubFeature, input gosensors.SubFeatureType) gosensors.SubFeature {
	for _, a := range subfeatures {
		if a.Type == input {
			return a
		}
	}
	panic(fmt.Errorf("no such subfeature: %v", input))
}

func containsSubFeature(s []gosensors.SubFeature, e gosensors.SubFeatureType) bool {
	for _, a := range s {
		if a.Type == e {
			return true
		}
	}
	return false
}

func computeIdentifier(chip gosensors.Chip) (name string) {
	name = chip.Prefix

	devicePath := chip.Path
	if len(name) <= 0 {
		name = util.GetDeviceName(devicePath)
	}

	if len(name) <= 0 {
		_, name = filepath.Split(devicePath)
	}

	identifier := name
	switch chip.Bus.Type {
	case BusTypeIsa:
		identifier = fmt.Sprintf("%s-isa-%d", identifier, chip.Bus.Nr)
	case BusTypePci:
		identifier = fmt.Sprintf("%s-pci-%d", identifier, chip.Bus.Nr)
	case BusTypeAcpi:
		identifier = fmt.Sprintf("%s-acpi-%d", identifier, chip.Bus.Nr)
	}

	return identifier
}

func findPlatform(devicePath string) string {
	platformMatch := platformRegex.FindStringSubmatch(devicePath)
	if len(platformMatch) < 2 {
		return ""
	}
	return platformMatch[1]
}
