package value

// Range is a {from, to} pair of doubles; direction is determined by the
// sign of to-from, so 0..3 counts up and 3..0 counts down.
type Range struct {
	Object
	From, To float64
}

var _ Obj = (*Range)(nil)

func NewRange(from, to float64) *Range {
	return &Range{Object: NewObject(KindRange), From: from, To: to}
}

// Ascending reports whether iterating this range counts up.
func (r *Range) Ascending() bool { return r.To >= r.From }

func (r *Range) String() string {
	return formatFloat(r.From) + ".." + formatFloat(r.To)
}
