package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerceInRange(t *testing.T) {
	// GIVEN
	value := 0.5

	// WHEN
	result := Coerce(value, 0, 1)

	// THEN
	assert.Equal(t, 0.5, result)
}

func TestCoerceBelowRange(t *testing.T) {
	// GIVEN
	value := -1.3

	// WHEN
	result := Coerce(value, 0, 1)

	// THEN
	assert.Equal(t, 0.0, result)
}

func TestCoerceAboveRange(t *testing.T) {
	// GIVEN
	value := 255.1

	// WHEN
	result := Coerce(value, 0, 255)

	// THEN
	assert.Equal(t, 255.0, result)
}
