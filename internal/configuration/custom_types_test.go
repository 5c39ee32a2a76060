package configuration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMappingFanPlainName(t *testing.T) {
	// GIVEN
	value := "intake"

	// WHEN
	result, err := ParseMappingFan(value)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, MappingFanConfig{Fan: "intake", Modifier: 1.0}, result)
}

func TestParseMappingFanWithModifier(t *testing.T) {
	// GIVEN
	value := "outtake*0.6"

	// WHEN
	result, err := ParseMappingFan(value)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, MappingFanConfig{Fan: "outtake", Modifier: 0.6}, result)
}

func TestParseMappingFanWithSpaces(t *testing.T) {
	// GIVEN
	value := " outtake * 0.6 "

	// WHEN
	result, err := ParseMappingFan(value)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, MappingFanConfig{Fan: "outtake", Modifier: 0.6}, result)
}

func TestParseMappingFanInvalidModifier(t *testing.T) {
	// GIVEN
	value := "outtake*fast"

	// WHEN
	_, err := ParseMappingFan(value)

	// THEN
	assert.Error(t, err)
}

func TestParseMappingFanEmpty(t *testing.T) {
	// GIVEN
	value := ""

	// WHEN
	_, err := ParseMappingFan(value)

	// THEN
	assert.Error(t, err)
}

func TestParseMappingFanTooManyParts(t *testing.T) {
	// GIVEN
	value := "a*b*c"

	// WHEN
	_, err := ParseMappingFan(value)

	// THEN
	assert.Error(t, err)
}

func TestDefaultTrueBoolAbsent(t *testing.T) {
	// GIVEN
	var value DefaultTrueBool

	// WHEN
	result := value.Get()

	// THEN
	assert.True(t, result)
}

func TestDefaultTrueBoolExplicitFalse(t *testing.T) {
	// GIVEN
	value := DefaultTrueBool{Optional[bool]{Value: false, Present: true}}

	// WHEN
	result := value.Get()

	// THEN
	assert.False(t, result)
}

func TestFanConfigLineDefaults(t *testing.T) {
	// GIVEN
	config := FanConfig{ID: "intake"}

	// WHEN
	start := config.LineStart()
	end := config.LineEnd()

	// THEN
	assert.Equal(t, DefaultPwmLineStart, start)
	assert.Equal(t, DefaultPwmLineEnd, end)
}
