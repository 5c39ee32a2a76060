package snapshot

import (
	"sync"
	"testing"
	"time"

	"github.com/fanctld/fanctld/internal/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolderEmptyBeforeFirstPublish(t *testing.T) {
	// GIVEN
	holder := &Holder{}

	// THEN
	assert.Nil(t, holder.Load())
}

func TestHolderReturnsLatestTick(t *testing.T) {
	// GIVEN
	holder := &Holder{}
	first := &Tick{Time: time.Now(), State: trigger.StateNormal}
	second := &Tick{Time: time.Now(), State: trigger.StatePanic}

	// WHEN
	holder.Publish(first)
	holder.Publish(second)

	// THEN
	loaded := holder.Load()
	require.NotNil(t, loaded)
	assert.Equal(t, trigger.StatePanic, loaded.State)
}

func TestHolderConcurrentReaders(t *testing.T) {
	// GIVEN a publisher racing many readers
	holder := &Holder{}
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			holder.Publish(&Tick{
				Sensors: []SensorReading{{ID: "cpu", Value: float64(i)}},
			})
		}
	}()

	for reader := 0; reader < 4; reader++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				tick := holder.Load()
				if tick == nil {
					continue
				}
				// a published tick is always complete
				if assert.Len(t, tick.Sensors, 1) {
					assert.Equal(t, "cpu", tick.Sensors[0].ID)
				}
			}
		}()
	}

	wg.Wait()
}
