package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsString(t *testing.T) {
	// GIVEN
	values := []string{"intake", "outtake"}

	// WHEN
	result := ContainsString(values, "intake")

	// THEN
	assert.True(t, result)
}

func TestContainsStringMissing(t *testing.T) {
	// GIVEN
	values := []string{"intake", "outtake"}

	// WHEN
	result := ContainsString(values, "rear")

	// THEN
	assert.False(t, result)
}

func TestMax(t *testing.T) {
	// GIVEN
	values := []float64{0.2, 0.8, 0.5}

	// WHEN
	result := Max(values)

	// THEN
	assert.Equal(t, 0.8, result)
}

func TestMaxEmpty(t *testing.T) {
	// GIVEN
	var values []float64

	// WHEN
	result := Max(values)

	// THEN
	assert.Equal(t, 0.0, result)
}

func TestSortedKeys(t *testing.T) {
	// GIVEN
	input := map[int]float64{
		100: 800,
		0:   0,
		50:  500,
	}

	// WHEN
	result := SortedKeys(input)

	// THEN
	assert.Equal(t, []int{0, 50, 100}, result)
}
