package ohlc

import (
	"rangepulse/internal/domain"
)

// Buffer is a bounded, time-ordered candle history for one symbol. The last
// element may be an in-progress candle that is replaced in place until its
// close flag flips. The buffer is owned by a single goroutine (the stream
// consumer) and needs no internal locking.
type Buffer struct {
	capacity int
	candles  []*domain.Candle
}

// NewBuffer creates an empty buffer with the given capacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Buffer{
		capacity: capacity,
		candles:  make([]*domain.Candle, 0, capacity),
	}
}

const defaultCapacity = 150

// Preload replaces the buffer contents with externally fetched history,
// ordered oldest to newest, truncated to capacity by dropping the oldest.
func (b *Buffer) Preload(history []*domain.Candle) {
	if len(history) > b.capacity {
		history = history[len(history)-b.capacity:]
	}
	b.candles = b.candles[:0]
	b.candles = append(b.candles, history...)
}

// Update merges a streamed candle update. An update matching the current
// in-progress candle's open time replaces it; a strictly newer update is
// appended, evicting the oldest candle at capacity. Older or duplicate
// updates are dropped, which makes replays of the same open bar idempotent.
func (b *Buffer) Update(c *domain.Candle) {
	n := len(b.candles)
	if n == 0 {
		b.candles = append(b.candles, c)
		return
	}

	last := b.candles[n-1]
	if c.OpenTime.Equal(last.OpenTime) {
		// Same bar: refresh in place. A closed bar is immutable, so a
		// replayed update for an already-final bar is ignored.
		if !last.IsFinal {
			b.candles[n-1] = c
		}
		return
	}
	if c.OpenTime.Before(last.OpenTime) {
		return
	}

	if n == b.capacity {
		copy(b.candles, b.candles[1:])
		b.candles[n-1] = c
		return
	}
	b.candles = append(b.candles, c)
}

// Len returns the number of candles currently held.
func (b *Buffer) Len() int {
	return len(b.candles)
}

// Closed returns a copy of the buffer holding only final candles, oldest
// first. The copy is safe to hand to the detector while streaming continues.
func (b *Buffer) Closed() []*domain.Candle {
	out := make([]*domain.Candle, 0, len(b.candles))
	for _, c := range b.candles {
		if c.IsFinal {
			out = append(out, c)
		}
	}
	return out
}

// Manager owns one Buffer per symbol.
type Manager struct {
	capacity int
	buffers  map[string]*Buffer
}

// NewManager creates a buffer manager with the given per-symbol capacity.
func NewManager(capacity int) *Manager {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Manager{
		capacity: capacity,
		buffers:  make(map[string]*Buffer),
	}
}

func (m *Manager) buffer(symbol string) *Buffer {
	buf, ok := m.buffers[symbol]
	if !ok {
		buf = NewBuffer(m.capacity)
		m.buffers[symbol] = buf
	}
	return buf
}

// Preload replaces a symbol's history. Used at startup and on symbol-set
// refresh, never from the streaming hot path.
func (m *Manager) Preload(symbol string, history []*domain.Candle) {
	m.buffer(symbol).Preload(history)
}

// Update merges a streamed candle update for a symbol.
func (m *Manager) Update(symbol string, c *domain.Candle) {
	m.buffer(symbol).Update(c)
}

// Closed returns a symbol's closed candles, oldest first. Unknown symbols
// yield an empty slice.
func (m *Manager) Closed(symbol string) []*domain.Candle {
	buf, ok := m.buffers[symbol]
	if !ok {
		return nil
	}
	return buf.Closed()
}

// Len returns the buffer length for a symbol.
func (m *Manager) Len(symbol string) int {
	buf, ok := m.buffers[symbol]
	if !ok {
		return 0
	}
	return buf.Len()
}

// Reset drops all buffers, e.g. when the symbol set is rebuilt.
func (m *Manager) Reset() {
	m.buffers = make(map[string]*Buffer)
}
