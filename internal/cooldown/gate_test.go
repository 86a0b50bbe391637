package cooldown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGateSuppressesInsideWindow(t *testing.T) {
	g := New(600 * time.Second)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, g.Allow("ETHUSDT", now), "first signal for a symbol always passes")
	g.Record("ETHUSDT", now)

	assert.False(t, g.Allow("ETHUSDT", now.Add(300*time.Second)))
	assert.False(t, g.Allow("ETHUSDT", now.Add(599*time.Second)))
	assert.True(t, g.Allow("ETHUSDT", now.Add(600*time.Second)), "gate reopens at the boundary instant")
	assert.True(t, g.Allow("ETHUSDT", now.Add(601*time.Second)))
}

func TestGatePerSymbol(t *testing.T) {
	g := New(time.Hour)
	now := time.Now()
	g.Record("BTCUSDT", now)

	assert.False(t, g.Allow("BTCUSDT", now.Add(time.Minute)))
	assert.True(t, g.Allow("SOLUSDT", now.Add(time.Minute)), "cooldown state is isolated per symbol")
}

func TestGateAllowWithoutRecordDoesNotArm(t *testing.T) {
	g := New(time.Hour)
	now := time.Now()

	// Allow alone must not start a window; only Record arms it.
	assert.True(t, g.Allow("ETHUSDT", now))
	assert.True(t, g.Allow("ETHUSDT", now.Add(time.Second)))
}

func TestGateDisabledWindow(t *testing.T) {
	g := New(0)
	now := time.Now()
	g.Record("ETHUSDT", now)
	assert.True(t, g.Allow("ETHUSDT", now))
}

func TestGateReset(t *testing.T) {
	g := New(time.Hour)
	now := time.Now()
	g.Record("ETHUSDT", now)
	assert.False(t, g.Allow("ETHUSDT", now.Add(time.Minute)))

	g.Reset()
	assert.True(t, g.Allow("ETHUSDT", now.Add(time.Minute)))
}
