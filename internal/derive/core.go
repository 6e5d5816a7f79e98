package derive

import (
	"bridgegen/internal/bridged"
	"bridgegen/internal/composite"
	"bridgegen/internal/decl"
	"bridgegen/internal/naming"
	"bridgegen/internal/opaque"
	"bridgegen/internal/repr"
	"bridgegen/primitive"
)

// coreModule names the core artifacts in logs and errors.
const coreModule = "core"

type corePrimitive struct {
	primitive.Spelling
	Placeholder string
	Option      string
}

// coreString holds the entry point symbols of owned text.
type coreString struct {
	New        string
	NewWithStr string
	Len        string
	AsStr      string
	Trim       string
	Free       string
	NewIdent   string
	WithIdent  string
	LenIdent   string
	AsStrIdent string
	TrimIdent  string
	FreeIdent  string
	Prototypes []string
	StrWire    string
	SliceWire  string
	ResultWire string
}

type coreData struct {
	Generated  string
	Primitives []corePrimitive
	String     coreString
	Exports    []rustFn
	Prototypes []string
	Vecs       []swiftVec
}

// Core returns the runtime artifacts every group depends on: the shared wire
// structs, primitive optionals, owned text and sequences of primitives and
// text. The systems-side file is the root of the runtime crate that
// Config.RuntimePath names.
func Core(cfg Config) ([]File, error) {
	cfg = cfg.withDefaults()
	cfg.RuntimePath = "crate"

	s := newSession(cfg, &decl.File{Module: coreModule})
	data := s.coreData()

	systems, err := execute(coreSystemsTemplate, data)
	if err != nil {
		return nil, err
	}

	managed, err := execute(coreManagedTemplate, data)
	if err != nil {
		return nil, err
	}

	header, err := execute(coreHeaderTemplate, data)
	if err != nil {
		return nil, err
	}

	s.log.Infow("core artifacts derived", "primitives", len(data.Primitives), "sequences", len(data.Vecs))

	return []File{
		{Name: CoreSystemsName, Content: systems},
		{Name: CoreManagedName, Content: managed},
		{Name: CoreHeaderName, Content: header},
	}, nil
}

func (s *session) coreData() *coreData {
	data := &coreData{Generated: generatedHeader, String: s.coreString()}

	policies := make([]composite.SequencePolicy, 0, primitive.KindTotal)

	for _, k := range primitive.All() {
		sp := k.Spell()
		data.Primitives = append(data.Primitives, corePrimitive{
			Spelling:    sp,
			Placeholder: k.Placeholder(),
			Option:      naming.OptionPrimitive(sp.Mangled),
		})

		policies = append(policies, composite.NewSequencePolicy(bridged.Prim(k)))
	}

	policies = append(policies, composite.NewSequencePolicy(bridged.String{}))

	for _, p := range policies {
		eps := s.opaques.VecEntryPoints(p)
		for _, ep := range eps {
			data.Exports = append(data.Exports, s.rustVecOp(p, ep))
			data.Prototypes = append(data.Prototypes, prototype(ep.Name, ep.Params, ep.Return))
		}

		data.Vecs = append(data.Vecs, s.swiftVec(p))
	}

	return data
}

func (s *session) coreString() coreString {
	n := s.namer()
	str := s.synth.Wire(bridged.Str{})
	owned := s.synth.Wire(bridged.String{})
	borrowed := owned
	borrowed.Ownership = repr.Borrowed
	usize := s.synth.Wire(bridged.Prim(primitive.KindUsize))
	void := s.synth.Wire(bridged.Null{})

	c := coreString{
		New:        n.Method("RustString", "new"),
		NewWithStr: n.Method("RustString", "new_with_str"),
		Len:        n.Method("RustString", "len"),
		AsStr:      n.Method("RustString", "as_str"),
		Trim:       n.Method("RustString", "trim"),
		Free:       n.Free("RustString"),
		StrWire:    naming.RustStr,
		SliceWire:  naming.FfiSlice,
		ResultWire: naming.ResultPtrAndPtr,
	}

	c.NewIdent = naming.RustIdent(c.New)
	c.WithIdent = naming.RustIdent(c.NewWithStr)
	c.LenIdent = naming.RustIdent(c.Len)
	c.AsStrIdent = naming.RustIdent(c.AsStr)
	c.TrimIdent = naming.RustIdent(c.Trim)
	c.FreeIdent = naming.RustIdent(c.Free)

	this := []opaque.Param{{Name: "this", Wire: borrowed}}

	c.Prototypes = []string{
		prototype(c.New, nil, owned),
		prototype(c.NewWithStr, []opaque.Param{{Name: "str", Wire: str}}, owned),
		prototype(c.Len, this, usize),
		prototype(c.AsStr, this, str),
		prototype(c.Trim, this, str),
		prototype(c.Free, []opaque.Param{{Name: "this", Wire: owned}}, void),
	}

	return c
}
