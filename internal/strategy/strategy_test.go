package strategy

import (
	"context"
	"testing"
	"time"

	"rangepulse/internal/domain"
	"rangepulse/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

func fakeoutScenario() []*domain.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(idx int, o, h, l, c float64) *domain.Candle {
		return &domain.Candle{
			OpenTime: base.Add(time.Duration(idx) * 5 * time.Minute),
			Symbol:   "ETHUSDT", Interval: "5m",
			Open: o, High: h, Low: l, Close: c,
			Volume: 100, IsFinal: true,
		}
	}
	out := make([]*domain.Candle, 0, 14)
	for i := 0; i < 12; i++ {
		out = append(out, mk(i, 105, 110, 100, 105))
	}
	out = append(out, mk(12, 100.5, 101.5, 98, 101))
	out = append(out, mk(13, 101, 104.5, 100.5, 104))
	return out
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		logger   ports.Logger
		wantErr  bool
		wantName string
	}{
		{name: "default mode is fakeout", cfg: Config{}, logger: &mockLogger{}, wantName: "fakeout"},
		{name: "fakeout", cfg: Config{Mode: ModeFakeout}, logger: &mockLogger{}, wantName: "fakeout"},
		{name: "breakout retest", cfg: Config{Mode: ModeBreakoutRetest}, logger: &mockLogger{}, wantName: "breakout_retest"},
		{name: "reversion", cfg: Config{Mode: ModeReversion}, logger: &mockLogger{}, wantName: "reversion"},
		{name: "sweep displacement", cfg: Config{Mode: ModeSweepDisplacement}, logger: &mockLogger{}, wantName: "sweep_displacement"},
		{name: "unknown mode", cfg: Config{Mode: "supertrend"}, logger: &mockLogger{}, wantErr: true},
		{name: "nil logger", cfg: Config{Mode: ModeFakeout}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New(tt.cfg, tt.logger)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, e)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, e.Name())
			assert.Greater(t, e.MinCandles(), 0)
		})
	}
}

func TestDetectIsPure(t *testing.T) {
	e, err := New(Config{Mode: ModeFakeout}, &mockLogger{})
	require.NoError(t, err)

	candles := fakeoutScenario()
	first := e.Detect(context.Background(), candles)
	require.NotNil(t, first)

	// Identical snapshot and configuration must yield an identical result.
	for i := 0; i < 5; i++ {
		again := e.Detect(context.Background(), candles)
		require.NotNil(t, again)
		assert.Equal(t, *first, *again)
	}
}

func TestDetectShortHistory(t *testing.T) {
	e, err := New(Config{Mode: ModeFakeout}, &mockLogger{})
	require.NoError(t, err)
	assert.Nil(t, e.Detect(context.Background(), fakeoutScenario()[:5]))
}
