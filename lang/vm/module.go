package vm

import (
	"github.com/mna/vesper/lang/compiler"
	"github.com/mna/vesper/lang/value"
)

// Module holds one compiled source file's runtime state: its main
// function, its module-level private-variable vector, a lazily
// populated fiber for running it, and the cached result of having run
// it once, per SPEC_FULL.md §3's Module description.
//
// A module is created on first compile of its name; recompiling the
// same name (an incremental `-e`/REPL session adding more top-level
// declarations) reuses it and extends Privates monotonically rather
// than renumbering existing slots, matching the module-lifecycle
// invariant in SPEC_FULL.md §3.
type Module struct {
	value.Object
	Name         string
	Main         *compiler.Function
	Privates     []value.Value
	PrivateNames map[string]int // nil when private-name elision is on

	mainFiber *Fiber
	Result    value.Value
	Ran       bool
}

var _ value.Obj = (*Module)(nil)
var _ value.Tracer = (*Module)(nil)

func NewModule(name string, main *compiler.Function) *Module {
	m := &Module{
		Object:       value.NewObject(value.KindModule),
		Name:         name,
		Main:         main,
		PrivateNames: make(map[string]int),
	}
	if main != nil {
		m.ExtendPrivates(main.PrivateNames)
	}
	return m
}

// ExtendPrivates grows m.Privates/PrivateNames to cover a recompile
// that registered additional module-level declarations, preserving
// every existing slot's index.
func (m *Module) ExtendPrivates(names []string) {
	for _, n := range names {
		if _, ok := m.PrivateNames[n]; ok {
			continue
		}
		m.PrivateNames[n] = len(m.Privates)
		m.Privates = append(m.Privates, value.NullValue)
	}
}

func (m *Module) Trace(mark func(value.Value)) {
	mark(m.Result)
	mark(value.NewObj(m.Main))
	if m.mainFiber != nil {
		mark(value.NewObj(m.mainFiber))
	}
	for _, v := range m.Privates {
		mark(v)
	}
}
