package derive

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"bridgegen/internal/bridged"
	"bridgegen/internal/convert"
	"bridgegen/internal/decl"
	"bridgegen/internal/diagnostic"
	"bridgegen/internal/errors"
	"bridgegen/internal/match"
	"bridgegen/internal/naming"
	"bridgegen/internal/opaque"
	"bridgegen/internal/repr"
	"bridgegen/internal/typeexpr"
)

const (
	hintUnresolved = "declare the type under opaque_types, structs or enums"
	maxSuggestions = 3
)

// Facade derives artifacts from declaration files. It holds no state between
// calls and is safe for concurrent use.
type Facade struct {
	cfg Config
}

// New returns a facade using cfg.
func New(cfg Config) *Facade {
	return &Facade{cfg: cfg.withDefaults()}
}

// Derive classifies, checks and synthesizes every declaration of file and
// renders the artifacts. Artifacts is nil whenever the diagnostics hold an
// error. The error reports cancellation or a rendering failure, never a
// problem with the declarations.
func (f *Facade) Derive(ctx context.Context, file *decl.File) (*Artifacts, diagnostic.Diagnostics, error) {
	s := newSession(f.cfg, file)

	if err := s.prepare(ctx); err != nil {
		return nil, s.diags, err
	}

	return s.finish(ctx)
}

// DeriveAll derives files that are built into one program. Names shared
// between the files are checked: a type or function declared by two files,
// or a wire name synthesized differently by two files, is a declaration
// conflict. A wire declaration or sequence synthesized identically by several
// files is emitted by the first of them only and imported by the others.
// Artifacts and diagnostics are returned in the order of files.
func (f *Facade) DeriveAll(ctx context.Context, files []*decl.File) ([]*Artifacts, []diagnostic.Diagnostics, error) {
	sessions := make([]*session, len(files))

	for i, file := range files {
		s := newSession(f.cfg, file)
		if err := s.prepare(ctx); err != nil {
			return nil, nil, err
		}

		sessions[i] = s
	}

	link(sessions)

	arts := make([]*Artifacts, len(files))
	diags := make([]diagnostic.Diagnostics, len(files))

	for i, s := range sessions {
		art, d, err := s.finish(ctx)
		if err != nil {
			return nil, nil, err
		}

		arts[i], diags[i] = art, d
	}

	return arts, diags, nil
}

// prepare runs every phase before rendering.
func (s *session) prepare(ctx context.Context) error {
	// Malformed declarations cannot be classified and unclassified types
	// cannot be synthesized, so those phases stop on errors.
	phases := []struct {
		name string
		run  func()
		gate bool
	}{
		{"validate", s.validate, true},
		{"register", s.register, false},
		{"classify", s.classify, true},
		{"synthesize", s.synthesize, false},
	}

	for _, phase := range phases {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "deriving %s", s.file.Module)
		}

		phase.run()
		s.log.Debugw("phase done", "module", s.file.Module, "phase", phase.name, "diagnostics", s.diags.Len())

		if phase.gate && s.diags.HasErrors() {
			break
		}
	}

	return nil
}

// finish renders the artifacts unless an error was recorded.
func (s *session) finish(ctx context.Context) (*Artifacts, diagnostic.Diagnostics, error) {
	s.diags.Sort()

	if s.diags.HasErrors() {
		return nil, s.diags, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, s.diags, errors.Wrapf(err, "deriving %s", s.file.Module)
	}

	art, err := s.render()
	if err != nil {
		return nil, s.diags, errors.Wrapf(err, "rendering %s", s.file.Module)
	}

	return art, s.diags, nil
}

// opaqueSource pairs a registered opaque declaration with its origin.
type opaqueSource struct {
	src   *decl.OpaqueType
	decl  *bridged.OpaqueDecl
	index int
}

// function is a classified free function.
type function struct {
	sig   *bridged.Signature
	index int
}

type session struct {
	cfg  Config
	file *decl.File
	log  *zap.SugaredLogger

	table      *bridged.Table
	classifier *bridged.Classifier
	registry   *repr.Registry
	synth      *repr.Synthesizer
	opaques    *opaque.Manager
	gen        *convert.Generator

	opaqueSources []opaqueSource
	structs       []*bridged.StructDecl
	structIndex   []int
	enums         []*bridged.EnumDecl
	enumIndex     []int
	functions     []function

	diags     diagnostic.Diagnostics
	explained map[string]struct{}

	// Set by link: wire types another group emits.
	linked   []string
	includes []string
}

func newSession(cfg Config, file *decl.File) *session {
	table := bridged.NewTable()
	registry := repr.NewRegistry()
	synth := repr.NewSynthesizer(naming.New(cfg.Prefix), cfg.RuntimePath, registry)

	return &session{
		cfg:        cfg,
		file:       file,
		log:        cfg.Logger,
		table:      table,
		classifier: bridged.NewClassifier(table),
		registry:   registry,
		synth:      synth,
		opaques:    opaque.NewManager(synth, cfg.Logger.Named("opaque")),
		gen:        convert.NewGenerator(synth),
		explained:  make(map[string]struct{}),
	}
}

func sideOf(side string) bridged.Side {
	if side == decl.SideManaged {
		return bridged.SideManaged
	}

	return bridged.SideSystems
}

func receiverOf(m *decl.Method) bridged.Receiver {
	switch m.Receiver {
	case decl.ReceiverRef:
		return bridged.ReceiverRef
	case decl.ReceiverMut:
		return bridged.ReceiverMut
	case decl.ReceiverOwned:
		return bridged.ReceiverOwned
	case decl.ReceiverNone:
		return bridged.ReceiverNone
	}

	if m.Init {
		return bridged.ReceiverNone
	}

	return bridged.ReceiverRef
}

func (s *session) conflict(err error, subject, loc string) {
	s.diags.AddError(diagnostic.CodeDeclarationConflict, err.Error(), subject, loc)
}

func (s *session) skipped(kind, name, loc string) {
	s.diags.AddInfo(diagnostic.CodeAlreadyDeclared,
		fmt.Sprintf("%s %s is declared by another group and is not emitted", kind, name), kind+" "+name, loc)
}

func (s *session) validate() {
	s.diags.Merge(decl.Validate(s.file))
}

// register fills the declaration table. Types are classified later so that
// declarations may refer to each other in any order.
func (s *session) register() {
	for i := range s.file.OpaqueTypes {
		o := &s.file.OpaqueTypes[i]
		loc := fmt.Sprintf("opaque_types.%d", i)

		d := &bridged.OpaqueDecl{
			Name:            o.Name,
			Side:            sideOf(o.Side),
			InlineSize:      o.Copy,
			Equatable:       o.Equatable,
			Hashable:        o.Hashable,
			AlreadyDeclared: o.AlreadyDeclared,
		}

		if err := s.table.AddOpaque(d); err != nil {
			s.conflict(err, "type "+o.Name, loc)
			continue
		}

		if o.AlreadyDeclared {
			s.skipped("type", o.Name, loc)
		}

		s.opaques.Declare(d)
		s.opaqueSources = append(s.opaqueSources, opaqueSource{src: o, decl: d, index: i})
	}

	for i := range s.file.Structs {
		st := &s.file.Structs[i]
		loc := fmt.Sprintf("structs.%d", i)

		d := &bridged.StructDecl{
			Name:            st.Name,
			ManagedName:     st.ManagedName,
			Unnamed:         st.Unnamed,
			AlreadyDeclared: st.AlreadyDeclared,
			Fields:          fieldDecls(st.Fields),
		}

		if err := s.table.AddStruct(d); err != nil {
			s.conflict(err, "struct "+st.Name, loc)
			continue
		}

		if st.AlreadyDeclared {
			s.skipped("struct", st.Name, loc)
		}

		s.structs = append(s.structs, d)
		s.structIndex = append(s.structIndex, i)
	}

	for i := range s.file.Enums {
		en := &s.file.Enums[i]
		loc := fmt.Sprintf("enums.%d", i)

		d := &bridged.EnumDecl{
			Name:            en.Name,
			ManagedName:     en.ManagedName,
			AlreadyDeclared: en.AlreadyDeclared,
		}

		for _, v := range en.Variants {
			d.Variants = append(d.Variants, bridged.VariantDecl{Name: v.Name, Unnamed: v.Unnamed, Fields: fieldDecls(v.Fields)})
		}

		if err := s.table.AddEnum(d); err != nil {
			s.conflict(err, "enum "+en.Name, loc)
			continue
		}

		if en.AlreadyDeclared {
			s.skipped("enum", en.Name, loc)
		}

		s.enums = append(s.enums, d)
		s.enumIndex = append(s.enumIndex, i)
	}

	s.log.Debugw("declarations registered", "module", s.file.Module, "count", s.table.Len())
}

func fieldDecls(fields []decl.Field) []bridged.FieldDecl {
	out := make([]bridged.FieldDecl, len(fields))
	for i, f := range fields {
		out[i] = bridged.FieldDecl{Name: f.Name, Src: f.Type}
	}

	return out
}

// resolve classifies src and checks its composition. Every failure is
// recorded; the type is returned only when usable.
func (s *session) resolve(src, subject, loc string, field bool) (bridged.Type, bool) {
	if src == "" {
		return bridged.Null{}, true
	}

	t, err := s.classifier.ClassifyString(src)
	if err != nil {
		var (
			syntaxErr *typeexpr.SyntaxError
			unresErr  *bridged.UnresolvedError
		)

		switch {
		case errors.As(err, &syntaxErr):
			s.diags.AddError(diagnostic.CodeSyntax, err.Error(), subject, loc)
		case errors.As(err, &unresErr):
			s.diags.AddError(diagnostic.CodeUnresolvedType, err.Error(), subject, loc, s.unresolvedHints(unresErr)...)
		default:
			s.diags.AddError(diagnostic.CodeUnresolvedType, err.Error(), subject, loc)
		}

		return nil, false
	}

	check := checkType
	if field {
		check = checkFieldType
	}

	problems := check(t)
	for _, p := range problems {
		s.diags.AddError(diagnostic.CodeUnsupportedShape, p.String(), subject, loc)
	}

	if len(problems) > 0 {
		return nil, false
	}

	s.explain(t, subject, loc)

	return t, true
}

// unresolvedHints suggests declared or built-in names close to an unknown
// one before the generic advice.
func (s *session) unresolvedHints(err *bridged.UnresolvedError) []string {
	if err.Undeclared == "" {
		return nil
	}

	var hints []string
	for _, name := range match.Names(match.Suggest(err.Undeclared, s.table.Names(), maxSuggestions)) {
		hints = append(hints, fmt.Sprintf("did you mean %s?", name))
	}

	return append(hints, hintUnresolved)
}

func (s *session) classify() {
	for i, d := range s.structs {
		s.classifyFields("struct "+d.Name, fmt.Sprintf("structs.%d", s.structIndex[i]), d.Fields)
	}

	for i, d := range s.enums {
		for j := range d.Variants {
			loc := fmt.Sprintf("enums.%d.variants.%d", s.enumIndex[i], j)
			s.classifyFields("enum "+d.Name, loc, d.Variants[j].Fields)
		}
	}

	for _, o := range s.opaqueSources {
		for j := range o.src.Methods {
			m := &o.src.Methods[j]
			loc := fmt.Sprintf("opaque_types.%d.methods.%d", o.index, j)

			sig, ok := s.signature(fmt.Sprintf("method %s.%s", o.decl.Name, m.Name), loc, signatureSource{
				name:        m.Name,
				systemsName: m.RustName,
				managedName: m.ManagedName,
				side:        o.decl.Side,
				receiver:    receiverOf(m),
				init:        m.Init,
				args:        m.Args,
				ret:         m.Return,
			})
			if !ok {
				continue
			}

			if sig.Init {
				s.checkInit(o.decl, sig, loc)
			}

			o.decl.Methods = append(o.decl.Methods, sig)
		}
	}

	for i := range s.file.Functions {
		fn := &s.file.Functions[i]
		loc := fmt.Sprintf("functions.%d", i)

		sig, ok := s.signature("fn "+fn.Name, loc, signatureSource{
			name:        fn.Name,
			systemsName: fn.RustName,
			managedName: fn.ManagedName,
			side:        sideOf(fn.Side),
			async:       fn.Async,
			args:        fn.Args,
			ret:         fn.Return,
		})
		if ok {
			s.functions = append(s.functions, function{sig: sig, index: i})
		}
	}
}

func (s *session) classifyFields(subject, prefix string, fields []bridged.FieldDecl) {
	for i := range fields {
		f := &fields[i]

		t, ok := s.resolve(f.Src, subject, fmt.Sprintf("%s.fields.%d", prefix, i), true)
		if ok {
			f.Type = t
		}
	}
}

type signatureSource struct {
	name        string
	systemsName string
	managedName string
	side        bridged.Side
	receiver    bridged.Receiver
	init        bool
	async       bool
	args        []decl.Arg
	ret         string
}

func (s *session) signature(subject, loc string, src signatureSource) (*bridged.Signature, bool) {
	sig := &bridged.Signature{
		Name:        src.name,
		SystemsName: src.systemsName,
		ManagedName: src.managedName,
		Side:        src.side,
		Receiver:    src.receiver,
		Init:        src.init,
		Async:       src.async,
	}

	ok := true

	for i, a := range src.args {
		argLoc := fmt.Sprintf("%s.args.%d", loc, i)

		t, resolved := s.resolve(a.Type, subject, argLoc, false)
		if !resolved {
			ok = false
			continue
		}

		ok = s.checkParam(sig, t, subject, argLoc) && ok
		sig.Params = append(sig.Params, bridged.Param{Name: a.Name, Type: t})
	}

	ret, resolved := s.resolve(src.ret, subject, loc+".return", false)
	if !resolved {
		return nil, false
	}

	sig.Return = ret
	ok = s.checkReturn(sig, ret, subject, loc+".return") && ok

	s.log.Debugw("signature classified", "subject", subject, "params", len(sig.Params), "ok", ok)

	return sig, ok
}

func (s *session) checkParam(sig *bridged.Signature, t bridged.Type, subject, loc string) bool {
	if _, isNull := t.(bridged.Null); isNull {
		s.diags.AddError(diagnostic.CodeUnsupportedShape, "parameters cannot have type ()", subject, loc)
		return false
	}

	if sig.Async && holdsBorrow(t) {
		s.diags.AddError(diagnostic.CodeUnsupportedShape,
			fmt.Sprintf("async functions cannot take borrowed %s", t), subject, loc)

		return false
	}

	return true
}

func (s *session) checkReturn(sig *bridged.Signature, t bridged.Type, subject, loc string) bool {
	switch {
	case sig.Async && holdsBorrow(t):
		s.diags.AddError(diagnostic.CodeUnsupportedShape,
			fmt.Sprintf("async functions cannot return borrowed %s", t), subject, loc)
	case sig.Side == bridged.SideManaged && holdsBorrow(t):
		s.diags.AddError(diagnostic.CodeUnsupportedShape,
			fmt.Sprintf("managed-side functions cannot return borrowed %s", t), subject, loc)
	default:
		return true
	}

	return false
}

// checkInit accepts initializers returning the type itself, optionally
// inside an Option or the Ok side of a Result.
func (s *session) checkInit(d *bridged.OpaqueDecl, sig *bridged.Signature, loc string) {
	isSelf := func(t bridged.Type) bool {
		o, ok := t.(bridged.Opaque)
		return ok && o.Decl == d && o.Mode == bridged.Owned
	}

	switch r := sig.Return.(type) {
	case bridged.Optional:
		if isSelf(r.Inner) {
			return
		}
	case bridged.Result:
		if isSelf(r.Ok) {
			return
		}
	default:
		if isSelf(r) {
			return
		}
	}

	s.diags.AddError(diagnostic.CodeInvalidDeclaration,
		fmt.Sprintf("initializer must return %[1]s, Option<%[1]s> or Result<%[1]s, E>, not %s", d.Name, sig.Return),
		fmt.Sprintf("method %s.%s", d.Name, sig.Name), loc+".return")
}

// synthesize records every wire declaration and opaque use.
func (s *session) synthesize() {
	for _, d := range s.structs {
		s.synth.Wire(bridged.Product{Decl: d})

		for _, f := range d.Fields {
			s.opaques.Observe(f.Type)
		}
	}

	for _, d := range s.enums {
		s.synth.Wire(bridged.Sum{Decl: d})

		for _, v := range d.Variants {
			for _, f := range v.Fields {
				s.opaques.Observe(f.Type)
			}
		}
	}

	for _, o := range s.opaqueSources {
		if o.decl.InlineSize > 0 {
			s.synth.Wire(bridged.Opaque{Decl: o.decl})
		}

		for _, sig := range o.decl.Methods {
			s.wireSignature(sig)
			s.opaques.ObserveSignature(o.decl.Name, sig)
		}
	}

	for _, fn := range s.functions {
		s.wireSignature(fn.sig)
		s.opaques.ObserveSignature("", fn.sig)
	}

	for _, p := range s.registry.Sequences() {
		s.opaques.VecEntryPoints(p)
		s.checkSequence(p.Elem)
	}

	for _, c := range s.registry.Conflicts() {
		s.diags.AddError(diagnostic.CodeDeclarationConflict, c.Error(), c.Name, "")
	}

	for _, name := range s.registry.SelfContained() {
		s.diags.AddError(diagnostic.CodeUnsupportedShape,
			fmt.Sprintf("%s embeds itself by value; wrap the recursive field in a Vec or an opaque type", name), name, "")
	}

	if _, err := s.registry.Ordered(); err != nil {
		s.diags.AddError(diagnostic.CodeUnsupportedShape, err.Error(), "", "")
	}

	s.log.Debugw("wire declarations synthesized", "module", s.file.Module, "count", s.registry.Len())
}

func (s *session) wireSignature(sig *bridged.Signature) {
	for _, p := range sig.Params {
		s.synth.Wire(p.Type)
	}

	s.synth.Wire(sig.Return)
}

// checkSequence rejects by-value sequence elements that cannot be cloned out
// of the sequence by get.
func (s *session) checkSequence(elem bridged.Type) {
	switch elem.(type) {
	case bridged.Product, bridged.Sum:
	default:
		return
	}

	if opaque, found := heldOpaque(elem, map[string]bool{}); found {
		s.diags.AddError(diagnostic.CodeUnsupportedShape,
			fmt.Sprintf("Vec<%s> needs cloneable elements but %s holds opaque type %s", elem, elem, opaque),
			elem.String(), "")
	}
}
