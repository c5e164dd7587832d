package value

// Class: name, optional superclass, method table, static-field table,
// optional initializer pointer. Inheritance copies methods and statics
// from super into self at class-creation time (the CLASS/INHERIT
// opcodes in lang/compiler).
type Class struct {
	Object
	Name        string
	Super       *Class
	Methods     *Map // name -> callable Value
	Statics     *Map // name -> Value
	Initializer Value
}

var _ Obj = (*Class)(nil)
var _ Tracer = (*Class)(nil)

// NewClass creates a class with no superclass set yet. CLASS only
// allocates the bare class; the VM's INHERIT opcode calls Inherit
// separately once the superclass value is resolved on the stack.
// INHERIT is emitted only for a class declared with ":Super"; a class
// declared without one keeps no superclass and does not inherit from
// Object.
func NewClass(name string) *Class {
	return &Class{
		Object:  NewObject(KindClass),
		Name:    name,
		Methods: NewMap(0),
		Statics: NewMap(0),
	}
}

// Inherit sets c's superclass and copies its methods and static fields
// into c, satisfying invariant I6 ("a class's initializer, if any, is
// reachable via the methods table under the name constructor") by
// letting a subclass that declares no constructor of its own fall back
// to the copied one.
func (c *Class) Inherit(super *Class) {
	c.Super = super
	super.Methods.Each(func(name string, v Value) { c.Methods.Set(name, v) })
	super.Statics.Each(func(name string, v Value) { c.Statics.Set(name, v) })
	if ctor, ok := c.Methods.Get("constructor"); ok {
		c.Initializer = ctor
	}
}

// FindMethod walks the class chain looking for name, matching
// SPEC_FULL.md §4.6's "IS walks the right-hand class's chain upward".
func (c *Class) FindMethod(name string) (Value, bool) {
	for cl := c; cl != nil; cl = cl.Super {
		if v, ok := cl.Methods.Get(name); ok {
			return v, true
		}
	}
	return NullValue, false
}

func (c *Class) Trace(mark func(Value)) {
	if c.Super != nil {
		mark(NewObj(c.Super))
	}
	c.Methods.Trace(mark)
	c.Statics.Trace(mark)
	mark(c.Initializer)
}

// Instance: class pointer + fields table.
type Instance struct {
	Object
	Class  *Class
	Fields *Map
}

var _ Obj = (*Instance)(nil)
var _ Tracer = (*Instance)(nil)

func NewInstance(cls *Class) *Instance {
	return &Instance{Object: NewObject(KindInstance), Class: cls, Fields: NewMap(0)}
}

func (i *Instance) Trace(mark func(Value)) {
	mark(NewObj(i.Class))
	i.Fields.Trace(mark)
}

// BoundMethod: receiver value + callable method value; created lazily
// when an unbound method is read through an instance.
type BoundMethod struct {
	Object
	Receiver Value
	Method   Value
}

var _ Obj = (*BoundMethod)(nil)
var _ Tracer = (*BoundMethod)(nil)

func NewBoundMethod(receiver, method Value) *BoundMethod {
	return &BoundMethod{Object: NewObject(KindBoundMethod), Receiver: receiver, Method: method}
}

func (b *BoundMethod) Trace(mark func(Value)) {
	mark(b.Receiver)
	mark(b.Method)
}

// Field: a (getter, setter) pair used to implement computed properties,
// both per-instance and static.
type Field struct {
	Object
	Getter Value
	Setter Value
}

var _ Obj = (*Field)(nil)
var _ Tracer = (*Field)(nil)

func NewField(getter, setter Value) *Field {
	return &Field{Object: NewObject(KindField), Getter: getter, Setter: setter}
}

func (f *Field) Trace(mark func(Value)) {
	mark(f.Getter)
	mark(f.Setter)
}
