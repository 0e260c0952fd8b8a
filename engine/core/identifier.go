package core

import "sync/atomic"

// IdentifierFactory hands out strictly increasing identifiers, starting at 0.
// Identifiers are never reused.
type IdentifierFactory struct {
	next atomic.Uint32
}

func (f *IdentifierFactory) Next() uint32 {
	return f.next.Add(1) - 1
}
