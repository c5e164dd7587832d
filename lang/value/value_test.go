package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/vesper/lang/value"
)

func TestTruthy(t *testing.T) {
	assert.False(t, value.NullValue.Truthy())
	assert.False(t, value.FalseValue.Truthy())
	assert.True(t, value.TrueValue.Truthy())
	assert.False(t, value.NewNumber(0).Truthy())
	assert.True(t, value.NewNumber(-1).Truthy())
	assert.True(t, value.NewObj(value.NewArray(nil)).Truthy())
}

func TestEqual(t *testing.T) {
	assert.True(t, value.Equal(value.NewNumber(1), value.NewNumber(1)))
	assert.False(t, value.Equal(value.NewNumber(1), value.NewNumber(2)))
	assert.True(t, value.Equal(value.NullValue, value.NullValue))
	assert.False(t, value.Equal(value.NullValue, value.FalseValue))

	s1 := value.NewString("a")
	s2 := value.NewString("a")
	assert.False(t, value.Equal(value.NewObj(s1), value.NewObj(s2)), "distinct objects are not equal without interning")
	assert.True(t, value.Equal(value.NewObj(s1), value.NewObj(s1)))
}

func TestStringHashAndAppend(t *testing.T) {
	s := value.NewString("abc")
	h1 := s.Hash()
	s.Append([]byte("d"))
	assert.Equal(t, "abcd", s.String())
	assert.NotEqual(t, h1, s.Hash())
}

func TestArrayPushPop(t *testing.T) {
	a := value.NewArray(nil)
	a.Push(value.NewNumber(1))
	a.Push(value.NewNumber(2))
	require.Equal(t, 2, a.Len())
	v, ok := a.Pop()
	require.True(t, ok)
	assert.Equal(t, float64(2), v.AsNumber())
}

func TestMapGetSet(t *testing.T) {
	m := value.NewMap(0)
	require.NoError(t, m.Set("x", value.NewNumber(42)))
	v, ok := m.Get("x")
	require.True(t, ok)
	assert.Equal(t, float64(42), v.AsNumber())
	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestMapIndexFn(t *testing.T) {
	backing := map[string]value.Value{"y": value.NewNumber(7)}
	m := value.NewMap(0)
	m.IndexFn = func(key string, set bool, v value.Value) (value.Value, bool, error) {
		if set {
			backing[key] = v
			return value.NullValue, true, nil
		}
		got, ok := backing[key]
		return got, ok, nil
	}
	v, ok := m.Get("y")
	require.True(t, ok)
	assert.Equal(t, float64(7), v.AsNumber())
}

func TestRangeDirection(t *testing.T) {
	up := value.NewRange(0, 3)
	down := value.NewRange(3, 0)
	assert.True(t, up.Ascending())
	assert.False(t, down.Ascending())
}

func TestClassInheritCopiesConstructor(t *testing.T) {
	base := value.NewClass("Base")
	ctor := value.NewObj(value.NewString("ctor-placeholder"))
	base.Methods.Set("constructor", ctor)

	sub := value.NewClass("Sub")
	sub.Inherit(base)

	got, ok := sub.Methods.Get("constructor")
	require.True(t, ok)
	assert.True(t, value.Equal(got, ctor))
	assert.True(t, value.Equal(sub.Initializer, ctor))
	assert.Same(t, base, sub.Super)
}

func TestClassFindMethodWalksChain(t *testing.T) {
	base := value.NewClass("Base")
	base.Methods.Set("greet", value.NewNumber(1))
	sub := value.NewClass("Sub")

	_, ok := sub.FindMethod("greet")
	assert.False(t, ok, "FindMethod only walks Sub's own chain until Inherit links Super")

	sub.Inherit(base)
	v, ok := sub.FindMethod("greet")
	require.True(t, ok)
	assert.Equal(t, float64(1), v.AsNumber())
}

func TestReferenceReadWrite(t *testing.T) {
	slot := value.NewNumber(1)
	ref := value.NewReference(&slot)
	assert.Equal(t, float64(1), ref.Get().AsNumber())
	ref.Set(value.NewNumber(2))
	assert.Equal(t, float64(2), slot.AsNumber())
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "Number", value.NewNumber(1).TypeName())
	assert.Equal(t, "Null", value.NullValue.TypeName())
	assert.Equal(t, "Bool", value.TrueValue.TypeName())

	cls := value.NewClass("Vec")
	inst := value.NewInstance(cls)
	assert.Equal(t, "Vec", value.NewObj(inst).TypeName())
}
