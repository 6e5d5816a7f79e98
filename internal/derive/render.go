package derive

import (
	"bytes"
	"strings"
	"text/template"

	"bridgegen/internal/bridged"
	"bridgegen/internal/composite"
	"bridgegen/internal/convert"
	"bridgegen/internal/naming"
	"bridgegen/internal/opaque"
	"bridgegen/internal/repr"
)

const generatedHeader = "Code generated by bridgegen. DO NOT EDIT."

var funcs = template.FuncMap{
	"indent":    indent,
	"join":      strings.Join,
	"rustList":  rustList,
	"swiftList": swiftList,
}

// indent prefixes every non-empty line of s after the first with n spaces.
func indent(n int, s string) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")

	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = pad + lines[i]
		}
	}

	return strings.Join(lines, "\n")
}

func execute(t *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// render builds the three artifacts. The header is rendered last so that
// every wire declaration the conversions touch is already registered.
func (s *session) render() (*Artifacts, error) {
	systems, err := execute(systemsTemplate, s.systemsFile())
	if err != nil {
		return nil, err
	}

	managed, err := execute(managedTemplate, s.managedFile())
	if err != nil {
		return nil, err
	}

	hdr, err := s.headerFile()
	if err != nil {
		return nil, err
	}

	header, err := execute(headerTemplate, hdr)
	if err != nil {
		return nil, err
	}

	s.log.Infow("artifacts derived", "module", s.file.Module,
		"systems_bytes", len(systems), "managed_bytes", len(managed), "header_bytes", len(header))

	return &Artifacts{Module: s.file.Module, Systems: systems, Managed: managed, Header: header}, nil
}

// emitted reports whether this group emits the definitions of an opaque type.
func emitted(d *bridged.OpaqueDecl) bool {
	return !d.AlreadyDeclared
}

// groupSequences returns the sequence policies this group emits. Sequences
// of primitives and strings live in the core artifacts.
func (s *session) groupSequences() []composite.SequencePolicy {
	var out []composite.SequencePolicy

	for _, p := range s.registry.Sequences() {
		switch e := p.Elem.(type) {
		case bridged.Primitive, bridged.String:
			continue
		case bridged.Opaque:
			if e.Decl.AlreadyDeclared {
				continue
			}
		case bridged.Product:
			if e.Decl.AlreadyDeclared {
				continue
			}
		case bridged.Sum:
			if e.Decl.AlreadyDeclared {
				continue
			}
		}

		out = append(out, p)
	}

	return out
}

// entryPoints returns every entry point of the group in declaration order:
// opaque types, then sequences, then free functions are handled separately.
func (s *session) entryPoints() []opaque.EntryPoint {
	var out []opaque.EntryPoint

	for _, o := range s.opaqueSources {
		if emitted(o.decl) {
			out = append(out, s.opaques.EntryPoints(o.decl.Name)...)
		}
	}

	for _, p := range s.groupSequences() {
		out = append(out, s.opaques.VecEntryPoints(p)...)
	}

	return out
}

func (s *session) namer() naming.Namer { return s.synth.Namer() }

func (s *session) rule(t bridged.Type) convert.Rule { return s.gen.Rule(t) }

// receiverType is the bridged type of a method receiver.
func receiverType(d *bridged.OpaqueDecl, r bridged.Receiver) bridged.Opaque {
	mode := bridged.Owned

	switch r {
	case bridged.ReceiverRef:
		mode = bridged.Borrowed
	case bridged.ReceiverMut:
		mode = bridged.BorrowedMut
	}

	return bridged.Opaque{Decl: d, Mode: mode}
}

func systemsName(sig *bridged.Signature) string {
	if sig.SystemsName != "" {
		return sig.SystemsName
	}

	return sig.Name
}

func managedName(sig *bridged.Signature) string {
	if sig.ManagedName != "" {
		return sig.ManagedName
	}

	return sig.Name
}

func isVoid(t bridged.Type) bool {
	_, ok := t.(bridged.Null)
	return ok
}

// scoped nests expr inside the scopes of its converted arguments and returns
// the resulting expression.
func scoped(expr string, scopes []*convert.Scope) string {
	for i := len(scopes) - 1; i >= 0; i-- {
		expr = scopes[i].Wrap("return " + expr)
	}

	return expr
}

// wireParam is a named wire parameter spelled for one artifact.
type wireParam struct {
	Name string
	Type string
}

func rustList(params []wireParam) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Name + ": " + p.Type
	}

	return strings.Join(parts, ", ")
}

func swiftList(params []wireParam) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = "_ " + p.Name + ": " + p.Type
	}

	return strings.Join(parts, ", ")
}

func rustParams(params []opaque.Param) []wireParam {
	out := make([]wireParam, len(params))
	for i, p := range params {
		out[i] = wireParam{Name: p.Name, Type: p.Wire.Rust}
	}

	return out
}

func wireReturn(w repr.WireType, spell func(repr.WireType) string) string {
	if w.C == "void" {
		return ""
	}

	return spell(w)
}
