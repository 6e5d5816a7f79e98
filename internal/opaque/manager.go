package opaque

import (
	"slices"

	"go.uber.org/zap"

	"bridgegen/internal/bridged"
	"bridgegen/internal/composite"
	"bridgegen/internal/logger"
	"bridgegen/internal/repr"
	"bridgegen/primitive"
)

// State is the lifecycle state of a declared opaque type.
type State int

const (
	// Declared types have no free entry point.
	Declared State = iota
	// HasFreeEntryPoint is entered once, when an owned value of a
	// systems-side, non-inline type is first observed.
	HasFreeEntryPoint
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	if s == HasFreeEntryPoint {
		return "has_free_entry_point"
	}

	return "declared"
}

type entry struct {
	decl  *bridged.OpaqueDecl
	state State
	uses  map[bridged.RefMode]int
}

// Manager records opaque declarations and how their values are used.
type Manager struct {
	synth   *repr.Synthesizer
	log     *zap.SugaredLogger
	entries map[string]*entry
	order   []string
}

// NewManager returns a manager spelling wire types through synth. A nil log
// selects the global logger.
func NewManager(synth *repr.Synthesizer, log *zap.SugaredLogger) *Manager {
	if log == nil {
		log = logger.Named("opaque")
	}

	return &Manager{synth: synth, log: log, entries: make(map[string]*entry)}
}

// Declare registers d. Declaring the same name twice keeps the first
// declaration; conflicts are reported by bridged.Table.
func (m *Manager) Declare(d *bridged.OpaqueDecl) {
	if _, ok := m.entries[d.Name]; ok {
		return
	}

	m.entries[d.Name] = &entry{decl: d, uses: make(map[bridged.RefMode]int)}
	m.order = append(m.order, d.Name)
}

// Decls returns the declarations in declaration order.
func (m *Manager) Decls() []*bridged.OpaqueDecl {
	out := make([]*bridged.OpaqueDecl, len(m.order))
	for i, name := range m.order {
		out[i] = m.entries[name].decl
	}

	return out
}

// Observe records every opaque value reachable in t.
func (m *Manager) Observe(t bridged.Type) {
	bridged.Visit[struct{}](t, observer{m})
}

// ObserveSignature records the receiver, parameters and result of sig.
// owner is the opaque type of a method, or empty for a free function.
func (m *Manager) ObserveSignature(owner string, sig *bridged.Signature) {
	if e, ok := m.entries[owner]; ok && sig.Receiver != bridged.ReceiverNone {
		m.use(e, receiverMode(sig.Receiver))
	}

	for _, p := range sig.Params {
		m.Observe(p.Type)
	}

	if sig.Return != nil {
		m.Observe(sig.Return)
	}
}

// Uses returns the distinct reference modes observed for name, ordered.
func (m *Manager) Uses(name string) []bridged.RefMode {
	e, ok := m.entries[name]
	if !ok {
		return nil
	}

	var modes []bridged.RefMode

	for mode, n := range e.uses {
		if n > 0 {
			modes = append(modes, mode)
		}
	}

	slices.Sort(modes)

	return modes
}

// State returns the lifecycle state of name.
func (m *Manager) State(name string) State {
	if e, ok := m.entries[name]; ok {
		return e.state
	}

	return Declared
}

func (m *Manager) use(e *entry, mode bridged.RefMode) {
	e.uses[mode]++

	if mode != bridged.Owned || e.state == HasFreeEntryPoint || !freeable(e.decl) {
		return
	}

	e.state = HasFreeEntryPoint
	m.log.Debugw("free entry point required", "type", e.decl.Name)
}

func freeable(d *bridged.OpaqueDecl) bool {
	return d.Side == bridged.SideSystems && d.InlineSize == 0 && !d.AlreadyDeclared
}

func receiverMode(r bridged.Receiver) bridged.RefMode {
	switch r {
	case bridged.ReceiverRef:
		return bridged.Borrowed
	case bridged.ReceiverMut:
		return bridged.BorrowedMut
	default:
		return bridged.Owned
	}
}

// EntryPoints returns the entry points of the opaque type name: its free or
// release entry point, derives, then methods in declaration order.
func (m *Manager) EntryPoints(name string) []EntryPoint {
	e, ok := m.entries[name]
	if !ok {
		return nil
	}

	d := e.decl
	namer := m.synth.Namer()
	self := bridged.Opaque{Decl: d}

	var out []EntryPoint

	switch {
	case e.state == HasFreeEntryPoint:
		out = append(out, EntryPoint{
			Name:    namer.Free(d.Name),
			Kind:    EntryFree,
			Definer: bridged.SideSystems,
			Owner:   d.Name,
			Params:  []Param{{Name: "this", Wire: m.synth.Wire(self)}},
			Return:  m.synth.Wire(bridged.Null{}),
		})
	case d.Side == bridged.SideManaged && !d.AlreadyDeclared:
		out = append(out, EntryPoint{
			Name:    namer.Free(d.Name),
			Kind:    EntryRelease,
			Definer: bridged.SideManaged,
			Owner:   d.Name,
			Params:  []Param{{Name: "this", Wire: m.synth.Wire(self)}},
			Return:  m.synth.Wire(bridged.Null{}),
		})
	}

	if d.Side == bridged.SideSystems && d.InlineSize == 0 && !d.AlreadyDeclared {
		ref := m.synth.Wire(bridged.Opaque{Decl: d, Mode: bridged.Borrowed})

		if d.Equatable {
			out = append(out, EntryPoint{
				Name:    namer.PartialEq(d.Name),
				Kind:    EntryPartialEq,
				Definer: bridged.SideSystems,
				Owner:   d.Name,
				Params:  []Param{{Name: "lhs", Wire: ref}, {Name: "rhs", Wire: ref}},
				Return:  m.synth.Wire(bridged.Prim(primitive.KindBool)),
			})
		}

		if d.Hashable {
			out = append(out, EntryPoint{
				Name:    namer.Hash(d.Name),
				Kind:    EntryHash,
				Definer: bridged.SideSystems,
				Owner:   d.Name,
				Params:  []Param{{Name: "this", Wire: ref}},
				Return:  m.synth.Wire(bridged.Prim(primitive.KindU64)),
			})
		}
	}

	for _, sig := range d.Methods {
		out = append(out, m.method(d, sig))
	}

	return out
}

func (m *Manager) method(d *bridged.OpaqueDecl, sig *bridged.Signature) EntryPoint {
	ep := EntryPoint{
		Name:    m.synth.Namer().Method(d.Name, sig.Name),
		Kind:    EntryMethod,
		Definer: d.Side,
		Owner:   d.Name,
		Op:      sig.Name,
		Method:  sig,
		Return:  m.synth.Wire(sig.Return),
	}

	if sig.Receiver != bridged.ReceiverNone {
		this := bridged.Opaque{Decl: d, Mode: receiverMode(sig.Receiver)}
		ep.Params = append(ep.Params, Param{Name: "this", Wire: m.synth.Wire(this)})
	}

	for _, p := range sig.Params {
		ep.Params = append(ep.Params, Param{Name: p.Name, Wire: m.synth.Wire(p.Type)})
	}

	return ep
}

// VecEntryPoints returns the sequence operations of p in composite.VecOps
// order.
func (m *Manager) VecEntryPoints(p composite.SequencePolicy) []EntryPoint {
	namer := m.synth.Namer()
	vec := m.synth.Wire(bridged.Sequence{Elem: p.Elem})
	borrowed := vec
	borrowed.Ownership = repr.Borrowed

	usize := m.synth.Wire(bridged.Prim(primitive.KindUsize))
	void := m.synth.Wire(bridged.Null{})
	elem := m.synth.Wire(p.Elem)
	opt := m.synth.Wire(bridged.Optional{Inner: p.Elem})

	view := func(mode bridged.RefMode) repr.WireType {
		if p.Flow == composite.ElementByValue {
			return opt
		}

		if o, ok := p.Elem.(bridged.Opaque); ok {
			return m.synth.Wire(bridged.Optional{Inner: bridged.Opaque{Decl: o.Decl, Mode: mode}})
		}

		// Text elements are cloned out of the sequence.
		return opt
	}

	var asPtr repr.WireType
	if prim, ok := p.Elem.(bridged.Primitive); ok {
		asPtr = m.synth.Wire(bridged.Pointer{Pointee: prim})
	} else {
		asPtr = m.synth.Wire(bridged.Pointer{PointeeName: "c_void"})
	}

	this := Param{Name: "vec", Wire: borrowed}
	index := Param{Name: "index", Wire: usize}

	ops := map[string]EntryPoint{
		"new":     {Return: vec},
		"drop":    {Params: []Param{{Name: "vec", Wire: vec}}, Return: void},
		"len":     {Params: []Param{this}, Return: usize},
		"get":     {Params: []Param{this, index}, Return: view(bridged.Borrowed)},
		"get_mut": {Params: []Param{this, index}, Return: view(bridged.BorrowedMut)},
		"push":    {Params: []Param{this, {Name: "val", Wire: elem}}, Return: void},
		"pop":     {Params: []Param{this}, Return: opt},
		"as_ptr":  {Params: []Param{this}, Return: asPtr},
	}

	out := make([]EntryPoint, 0, len(composite.VecOps))

	for _, op := range composite.VecOps {
		ep := ops[op]
		ep.Name = namer.VecOp(p.Segment, op)
		ep.Kind = EntryVecOp
		ep.Definer = bridged.SideSystems
		ep.Owner = p.Segment
		ep.Op = op
		out = append(out, ep)
	}

	return out
}

type observer struct {
	m *Manager
}

func (o observer) VisitPrimitive(bridged.Primitive) struct{} { return struct{}{} }
func (o observer) VisitNull(bridged.Null) struct{}           { return struct{}{} }
func (o observer) VisitStr(bridged.Str) struct{}             { return struct{}{} }
func (o observer) VisitString(bridged.String) struct{}       { return struct{}{} }
func (o observer) VisitPointer(bridged.Pointer) struct{}     { return struct{}{} }

// Products and sums are observed through their field declarations.
func (o observer) VisitProduct(bridged.Product) struct{} { return struct{}{} }
func (o observer) VisitSum(bridged.Sum) struct{}         { return struct{}{} }

func (o observer) VisitSlice(t bridged.Slice) struct{}       { return o.m.visit(t.Elem) }
func (o observer) VisitSequence(t bridged.Sequence) struct{} { return o.m.visit(t.Elem) }
func (o observer) VisitOptional(t bridged.Optional) struct{} { return o.m.visit(t.Inner) }

func (o observer) VisitResult(t bridged.Result) struct{} {
	o.m.Observe(t.Ok)
	return o.m.visit(t.Err)
}

func (o observer) VisitTuple(t bridged.Tuple) struct{} {
	for _, e := range t.Elems {
		o.m.Observe(e)
	}

	return struct{}{}
}

func (o observer) VisitOpaque(t bridged.Opaque) struct{} {
	if e, ok := o.m.entries[t.Name()]; ok {
		o.m.use(e, t.Mode)
	}

	return struct{}{}
}

func (m *Manager) visit(t bridged.Type) struct{} {
	m.Observe(t)
	return struct{}{}
}
