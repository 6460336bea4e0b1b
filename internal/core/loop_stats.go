package core

import "time"

// LoopStats accumulates timing of the fixed-step loop
type LoopStats struct {
	Frames    int
	Steps     int
	Clamped   int
	StepTime  time.Duration
	Simulated time.Duration
}

// AverageStep returns the mean wall time spent per fixed step
func (ls LoopStats) AverageStep() time.Duration {
	if ls.Steps == 0 {
		return 0
	}
	return ls.StepTime / time.Duration(ls.Steps)
}

// LoopStats returns a copy of the loop timing counters
func (s *Session) LoopStats() LoopStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
