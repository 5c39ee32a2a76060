package telemetry

import (
	"context"
	"database/sql"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/fanctld/fanctld/internal/snapshot"
	"github.com/fanctld/fanctld/internal/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTick(at time.Time) *snapshot.Tick {
	panicTemp := 80.0
	return &snapshot.Tick{
		Time:     at,
		Duration: 42 * time.Millisecond,
		State:    trigger.StateNormal,
		Sensors: []snapshot.SensorReading{
			{ID: "cpu", Value: 57.5, Raw: 58.0, Min: 50, Max: 65, Panic: &panicTemp},
			{ID: "hdd", Value: math.NaN(), Raw: math.NaN(), Min: 35, Max: 48, Failing: true},
		},
		Fans: []snapshot.FanStatus{
			{ID: "intake", Speed: 0.5, Pwm: 170, Rpm: 1200, HasRpm: true},
			{ID: "rear", Speed: 0.5, Pwm: 170},
		},
	}
}

func newTestRepository(t *testing.T) (Repository, string) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	repo, err := NewRepository(dbPath)
	require.NoError(t, err)
	return repo, dbPath
}

func queryRows(t *testing.T, dbPath string) []map[string]string {
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	rows, err := db.Query("SELECT state, sensors, fans FROM ticks ORDER BY timestamp")
	require.NoError(t, err)
	defer func() {
		_ = rows.Close()
	}()

	var result []map[string]string
	for rows.Next() {
		var state, sensors, fans string
		require.NoError(t, rows.Scan(&state, &sensors, &fans))
		result = append(result, map[string]string{
			"state":   state,
			"sensors": sensors,
			"fans":    fans,
		})
	}
	require.NoError(t, rows.Err())
	return result
}

func TestStoreAppendsRows(t *testing.T) {
	// GIVEN
	repo, dbPath := newTestRepository(t)
	now := time.Now()

	// WHEN
	err := repo.Store(testTick(now.Add(-time.Minute)))
	require.NoError(t, err)
	err = repo.Store(testTick(now))
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	// THEN
	stored := queryRows(t, dbPath)
	require.Len(t, stored, 2)
	assert.Equal(t, "normal", stored[0]["state"])
	assert.Contains(t, stored[0]["sensors"], `"cpu":57.5`)
	assert.Contains(t, stored[0]["fans"], `"intake":{"pwm":170,"rpm":1200}`)
}

func TestStoreEncodesFailingSensorAsNull(t *testing.T) {
	// GIVEN
	repo, dbPath := newTestRepository(t)

	// WHEN
	err := repo.Store(testTick(time.Now()))
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	// THEN
	stored := queryRows(t, dbPath)
	require.Len(t, stored, 1)
	assert.Contains(t, stored[0]["sensors"], `"hdd":null`)
	assert.Contains(t, stored[0]["fans"], `"rear":{"pwm":170,"rpm":null}`)
}

func TestPruneRemovesOldRows(t *testing.T) {
	// GIVEN
	repo, dbPath := newTestRepository(t)
	require.NoError(t, repo.Store(testTick(time.Now().Add(-10*24*time.Hour))))
	require.NoError(t, repo.Store(testTick(time.Now())))

	// WHEN
	removed, err := repo.Prune(7 * 24 * time.Hour)

	// THEN
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	require.NoError(t, repo.Close())
	assert.Len(t, queryRows(t, dbPath), 1)
}

func TestDrainStoresUntilChannelCloses(t *testing.T) {
	// GIVEN
	repo, dbPath := newTestRepository(t)
	ticks := make(chan *snapshot.Tick)
	done := make(chan struct{})
	go func() {
		Drain(context.Background(), repo, ticks)
		close(done)
	}()

	// WHEN
	ticks <- testTick(time.Now().Add(-time.Second))
	ticks <- testTick(time.Now())
	close(ticks)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("drain did not stop after the channel closed")
	}

	// THEN
	require.NoError(t, repo.Close())
	assert.Len(t, queryRows(t, dbPath), 2)
}

func TestDrainStopsOnContextCancel(t *testing.T) {
	// GIVEN
	repo, _ := newTestRepository(t)
	defer func() {
		_ = repo.Close()
	}()
	ctx, cancel := context.WithCancel(context.Background())
	ticks := make(chan *snapshot.Tick)
	done := make(chan struct{})
	go func() {
		Drain(ctx, repo, ticks)
		close(done)
	}()

	// WHEN
	cancel()

	// THEN
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("drain did not stop after context cancellation")
	}
}

func TestNewRepositoryWithoutPath(t *testing.T) {
	// WHEN
	repo, err := NewRepository("")

	// THEN
	assert.Nil(t, repo)
	assert.Error(t, err)
}
