package ledger

// Sequence hands out monotonically increasing identifiers starting at 1.
// It is not safe for concurrent use; the owning store serializes access.
type Sequence struct {
	last int64
}

// Next advances the sequence and returns the new identifier
func (s *Sequence) Next() int64 {
	s.last++
	return s.last
}

// Last returns the most recently issued identifier, or 0 if none was issued
func (s *Sequence) Last() int64 {
	return s.last
}
