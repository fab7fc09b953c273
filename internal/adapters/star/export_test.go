package star

// SourceCount returns the number of script sources held for serialization.
func (e *Environment) SourceCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.sources)
}
