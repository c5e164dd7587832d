package value

import "strconv"

// formatFloat renders a number the way corelib's Number.toString and
// string interpolation do: integral values print without a decimal
// point, grounded on lang/machine/float.go's %g-based formatting but
// using strconv directly to avoid a trailing ".0"-less/with mismatch
// across the two cases.
func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
