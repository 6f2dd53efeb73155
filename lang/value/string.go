package value

import "sync"

// String is an interned, immutable runtime string handle. Two calls to
// Intern with equal content always return the same *String, which is what
// makes handle-identity equality (used throughout the Value union) coincide
// with content equality for strings.
type String struct {
	s string
}

// Go returns the string's content as a native Go string.
func (s *String) Go() string { return s.s }

func (s *String) Len() int { return len(s.s) }

// Interner deduplicates String allocations by content. The compiler keeps
// one Interner per compilation and uses it for every identifier name and
// string literal it turns into a constant, so that two references to the
// same global name, or two occurrences of the same string literal, share a
// single constant-pool slot.
type Interner struct {
	mu      sync.Mutex
	strings map[string]*String
}

// NewInterner creates an empty Interner.
func NewInterner() *Interner {
	return &Interner{strings: make(map[string]*String)}
}

// Intern returns the canonical *String for s, allocating one if this is the
// first time this content has been seen.
func (in *Interner) Intern(s string) *String {
	in.mu.Lock()
	defer in.mu.Unlock()
	if h, ok := in.strings[s]; ok {
		return h
	}
	h := &String{s: s}
	in.strings[s] = h
	return h
}
