package value

// String is a mutable byte buffer with reserve-then-append semantics and a
// cached 32-bit FNV-1a hash. Interning (the canonical-table lookup that
// makes two equal strings the same object, invariant I2) is owned by
// lang/gc's heap, not by String itself: String only knows how to hash and
// grow its own buffer.
//
// Grounded on lang/types/string.go's length-cached byte-slice wrapper,
// generalized with explicit capacity tracking since SPEC_FULL.md strings
// are mutated in place (append/reserve) rather than rebuilt per operation.
type String struct {
	Object
	buf    []byte
	hash   uint32
	hashed bool
}

var _ Obj = (*String)(nil)

// NewString wraps s as a fresh String object with no reserved headroom
// beyond len(s). The heap, not this constructor, is responsible for
// interning: two calls with equal bytes produce two distinct objects
// unless routed through Heap.Intern.
func NewString(s string) *String {
	return &String{Object: NewObject(KindString), buf: []byte(s)}
}

func (s *String) String() string { return string(s.buf) }
func (s *String) Len() int       { return len(s.buf) }
func (s *String) Bytes() []byte  { return s.buf }

// Hash returns the cached FNV-1a hash of the current contents, computing
// it lazily on first use and invalidating it on any mutation.
func (s *String) Hash() uint32 {
	if !s.hashed {
		s.hash = fnv1a(s.buf)
		s.hashed = true
	}
	return s.hash
}

// Reserve grows the buffer's capacity to at least n bytes without
// changing its length, so a subsequent burst of Append calls does not
// repeatedly reallocate.
func (s *String) Reserve(n int) {
	if cap(s.buf) >= n {
		return
	}
	grown := make([]byte, len(s.buf), n)
	copy(grown, s.buf)
	s.buf = grown
}

// Append adds bytes to the end of the buffer, invalidating the cached
// hash.
func (s *String) Append(b []byte) {
	s.buf = append(s.buf, b...)
	s.hashed = false
}

func fnv1a(b []byte) uint32 {
	const (
		offset = 2166136261
		prime  = 16777619
	)
	h := uint32(offset)
	for _, c := range b {
		h ^= uint32(c)
		h *= prime
	}
	return h
}
