package hwmon

import (
	"testing"

	"github.com/md14454/gosensors"
	"github.com/stretchr/testify/assert"
)

func TestComputeIdentifierIsa(t *testing.T) {
	// GIVEN
	c := gosensors.Chip{
		Prefix: "nct6798",
		Bus: gosensors.Bus{
			Type: BusTypeIsa,
			Nr:   0,
		},
		Path: "/sys/class/hwmon/hwmon2",
	}

	// WHEN
	result := computeIdentifier(c)

	// THEN
	assert.Equal(t, "nct6798-isa-0", result)
}

func TestComputeIdentifierPci(t *testing.T) {
	// GIVEN
	c := gosensors.Chip{
		Prefix: "nvme",
		Bus: gosensors.Bus{
			Type: BusTypePci,
			Nr:   1,
		},
		Path: "/sys/class/hwmon/hwmon4",
	}

	// WHEN
	result := computeIdentifier(c)

	// THEN
	assert.Equal(t, "nvme-pci-1", result)
}

func TestComputeIdentifierAcpi(t *testing.T) {
	// GIVEN
	c := gosensors.Chip{
		Prefix: "acpitz",
		Bus: gosensors.Bus{
			Type: BusTypeAcpi,
			Nr:   0,
		},
		Path: "/sys/class/hwmon/hwmon0",
	}

	// WHEN
	result := computeIdentifier(c)

	// THEN
	assert.Equal(t, "acpitz-acpi-0", result)
}

func TestComputeIdentifierUnknownBusKeepsPrefix(t *testing.T) {
	// GIVEN
	c := gosensors.Chip{
		Prefix: "k10temp",
		Bus: gosensors.Bus{
			Type: 0,
			Nr:   0,
		},
		Path: "/sys/class/hwmon/hwmon1",
	}

	// WHEN
	result := computeIdentifier(c)

	// THEN
	assert.Equal(t, "k10temp", result)
}

func TestFindPlatform(t *testing.T) {
	// GIVEN
	devicePath := "/sys/devices/platform/nct6775.656/hwmon/hwmon2"

	// WHEN
	platform := findPlatform(devicePath)

	// THEN
	assert.Equal(t, "nct6775.656", platform)
}

func TestFindPlatformWithoutPlatformDevice(t *testing.T) {
	// GIVEN
	devicePath := "/sys/devices/pci0000:00/0000:00:0e.0/nvme/nvme0/hwmon3"

	// WHEN
	platform := findPlatform(devicePath)

	// THEN
	assert.Equal(t, "", platform)
}

func TestPwmPathForFanInput(t *testing.T) {
	// GIVEN
	devicePath := "/sys/class/hwmon/hwmon2"

	// WHEN
	result := pwmPathFor(devicePath, "fan3_input")

	// THEN
	assert.Equal(t, "/sys/class/hwmon/hwmon2/pwm3", result)
}
