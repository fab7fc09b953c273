package scheduler

// LastCheckKey returns the store key holding the last check timestamp.
// This is exported for testing purposes only.
func (s *Scheduler) LastCheckKey() string {
	return s.keys.LastCheck()
}
