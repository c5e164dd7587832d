package gc

import "github.com/mna/vesper/lang/value"

// sizeOf approximates an object's footprint for bytes_allocated
// accounting. It does not need to be exact, only monotonic with the
// object's real size, since its only purpose is deciding when next_gc
// is crossed.
func sizeOf(o value.Obj) int64 {
	const headerSize = 24

	switch v := o.(type) {
	case *value.String:
		return headerSize + int64(v.Len())
	case *value.Array:
		return headerSize + int64(v.Len())*16
	case *value.Map:
		return headerSize + int64(v.Len())*32
	case *value.Range, *value.Field, *value.Reference, *value.BoundMethod:
		return headerSize + 16
	case *value.Class:
		return headerSize + 64
	case *value.Instance:
		return headerSize + int64(v.Fields.Len())*16 + 16
	default:
		return headerSize + 32
	}
}
