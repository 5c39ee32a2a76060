package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	LinearResponse = map[int]float64{
		0:   0.0,
		128: 600.0,
		255: 1200.0,
	}

	NeverStoppingResponse = map[int]float64{
		0:   450.0,
		50:  450.0,
		255: 1300.0,
	}
)

func testPersistence(t *testing.T) Persistence {
	tmp := t.TempDir()
	return NewPersistence(filepath.Join(tmp, "fanctld.db"))
}

func TestPersistence_SaveCalibration(t *testing.T) {
	// GIVEN
	p := testPersistence(t)

	// WHEN
	err := p.SaveCalibration("intake", LinearResponse)

	// THEN
	assert.NoError(t, err)
}

func TestPersistence_LoadCalibration(t *testing.T) {
	// GIVEN
	p := testPersistence(t)
	_ = p.SaveCalibration("rear", NeverStoppingResponse)

	// WHEN
	measurement, err := p.LoadCalibration("rear")

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, NeverStoppingResponse, measurement)
}

func TestPersistence_LoadCalibration_Unknown(t *testing.T) {
	// GIVEN
	p := testPersistence(t)
	_ = p.SaveCalibration("intake", LinearResponse)

	// WHEN
	measurement, err := p.LoadCalibration("rear")

	// THEN
	assert.Error(t, err)
	assert.Nil(t, measurement)
}

func TestPersistence_SaveCalibration_Overwrites(t *testing.T) {
	// GIVEN
	p := testPersistence(t)
	_ = p.SaveCalibration("intake", LinearResponse)
	_ = p.SaveCalibration("intake", NeverStoppingResponse)

	// WHEN
	measurement, err := p.LoadCalibration("intake")

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, NeverStoppingResponse, measurement)
}

func TestPersistence_DeleteCalibration(t *testing.T) {
	// GIVEN
	p := testPersistence(t)
	_ = p.SaveCalibration("intake", LinearResponse)

	// WHEN
	err := p.DeleteCalibration("intake")
	assert.NoError(t, err)

	// THEN
	measurement, err := p.LoadCalibration("intake")
	assert.Nil(t, measurement)
	assert.Error(t, err)
}

func TestPersistence_DeleteCalibration_Unknown(t *testing.T) {
	// GIVEN
	p := testPersistence(t)

	// WHEN
	err := p.DeleteCalibration("intake")

	// THEN
	assert.NoError(t, err)
}
