package app

import (
	"sync"
	"time"

	"rangepulse/internal/domain"
)

// ConnPhase names the connection states of the reconnect loop. The scanner
// always moves Disconnected -> Connecting -> Connected and drains back to
// Disconnected on stream loss, soft restart, or shutdown.
type ConnPhase int

const (
	PhaseDisconnected ConnPhase = iota
	PhaseConnecting
	PhaseConnected
	PhaseDraining
)

func (p ConnPhase) String() string {
	switch p {
	case PhaseConnecting:
		return "connecting"
	case PhaseConnected:
		return "connected"
	case PhaseDraining:
		return "draining"
	default:
		return "disconnected"
	}
}

// Snapshot is an immutable copy of the runtime controls, read once per
// stream event so a control change mid-pipeline cannot produce a half-old,
// half-new decision.
type Snapshot struct {
	Running      bool
	Scanning     bool
	MinTier      domain.Tier
	Cooldown     time.Duration
	ForceRefresh bool
	SoftRestart  bool
	Phase        ConnPhase
}

// State holds the mutable runtime controls of the scanner. An operator
// surface (admin commands, API) would mutate these; the scanner only ever
// reads them through Snapshot.
type State struct {
	mu           sync.Mutex
	running      bool
	scanning     bool
	minTier      domain.Tier
	cooldown     time.Duration
	forceRefresh bool
	softRestart  bool
	phase        ConnPhase
}

// NewState creates the runtime state with scanning enabled.
func NewState(minTier domain.Tier, cooldown time.Duration) *State {
	return &State{
		running:  true,
		scanning: true,
		minTier:  minTier,
		cooldown: cooldown,
	}
}

// Snapshot returns a consistent copy of all controls.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Running:      s.running,
		Scanning:     s.scanning,
		MinTier:      s.minTier,
		Cooldown:     s.cooldown,
		ForceRefresh: s.forceRefresh,
		SoftRestart:  s.softRestart,
		Phase:        s.phase,
	}
}

// setPhase records the current connection phase for observers.
func (s *State) setPhase(p ConnPhase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = p
}

// Stop requests a full shutdown of the scanner loop.
func (s *State) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// SetScanning pauses or resumes signal evaluation without dropping the
// stream or the buffers.
func (s *State) SetScanning(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scanning = on
}

// SetMinTier changes the minimum tier required for delivery.
func (s *State) SetMinTier(t domain.Tier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.minTier = t
}

// SetCooldown changes the per-symbol cooldown window.
func (s *State) SetCooldown(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cooldown = d
}

// RequestRefresh asks the scanner to rebuild its symbol universe at the
// next reconnect opportunity.
func (s *State) RequestRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forceRefresh = true
}

// RequestSoftRestart asks the scanner to tear down the stream, re-preload
// and resubscribe without exiting the process.
func (s *State) RequestSoftRestart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.softRestart = true
}

// consumeRefresh reports and clears a pending refresh request.
func (s *State) consumeRefresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.forceRefresh
	s.forceRefresh = false
	return v
}

// consumeSoftRestart reports and clears a pending soft-restart request.
func (s *State) consumeSoftRestart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.softRestart
	s.softRestart = false
	return v
}
