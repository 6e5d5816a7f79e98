package derive

import (
	"fmt"
	"slices"
	"strings"

	"bridgegen/internal/bridged"
	"bridgegen/internal/layout"
	"bridgegen/internal/opaque"
	"bridgegen/internal/repr"
)

type cMember struct {
	Type string
	Name string
}

// cDecl is one typedef of the header.
type cDecl struct {
	// Kind is "struct", "union" or "enum".
	Kind    string
	Name    string
	Members []cMember
	// Enumerators of an enum.
	Enumerators []string
	Assert      string
}

type headerData struct {
	Generated  string
	Module     string
	CoreHeader string
	Includes   []string
	Decls      []cDecl
	Prototypes []string
}

func (s *session) headerFile() (*headerData, error) {
	ordered, err := s.registry.Ordered()
	if err != nil {
		return nil, err
	}

	data := &headerData{
		Generated:  generatedHeader,
		Module:     s.file.Module,
		CoreHeader: CoreHeaderName,
		Includes:   slices.Sorted(slices.Values(s.includes)),
	}

	for _, d := range ordered {
		data.Decls = append(data.Decls, cDecls(d)...)
	}

	for _, ep := range s.entryPoints() {
		if ep.Definer == bridged.SideSystems {
			data.Prototypes = append(data.Prototypes, prototype(ep.Name, ep.Params, ep.Return))
		}
	}

	for _, fn := range s.functions {
		if fn.sig.Side != bridged.SideSystems {
			continue
		}

		params := s.functionParams(fn.sig)

		if fn.sig.Async {
			data.Prototypes = append(data.Prototypes, s.asyncPrototype(fn.sig, params))
			continue
		}

		data.Prototypes = append(data.Prototypes, prototype(s.namer().Function(fn.sig.Name), params, s.synth.Wire(fn.sig.Return)))
	}

	return data, nil
}

func (s *session) functionParams(sig *bridged.Signature) []opaque.Param {
	params := make([]opaque.Param, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = opaque.Param{Name: p.Name, Wire: s.synth.Wire(p.Type)}
	}

	return params
}

func cParams(params []opaque.Param) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.Wire.C + " " + p.Name
	}

	return out
}

func prototype(name string, params []opaque.Param, ret repr.WireType) string {
	list := "void"
	if len(params) > 0 {
		list = strings.Join(cParams(params), ", ")
	}

	return fmt.Sprintf("%s %s(%s);", ret.C, name, list)
}

func (s *session) asyncPrototype(sig *bridged.Signature, params []opaque.Param) string {
	callback := "void (*callback)(void*)"
	if ret := s.synth.Wire(sig.Return); ret.C != "void" {
		callback = fmt.Sprintf("void (*callback)(void*, %s)", ret.C)
	}

	list := append([]string{"void* callback_wrapper", callback}, cParams(params)...)

	return fmt.Sprintf("void %s(%s);", s.namer().Function(sig.Name), strings.Join(list, ", "))
}

func cMembers(members []repr.Member) []cMember {
	if len(members) == 0 {
		return []cMember{{Type: "uint8_t", Name: "_private"}}
	}

	out := make([]cMember, len(members))
	for i, m := range members {
		out[i] = cMember{Type: m.Wire.C, Name: m.Name}
	}

	return out
}

// cDecls spells a registry declaration as one or more typedefs, dependencies
// first.
func cDecls(d *repr.Decl) []cDecl {
	switch d.Kind {
	case repr.DeclInline:
		return []cDecl{{
			Kind:    "struct",
			Name:    d.Name,
			Members: []cMember{{Type: "uint8_t", Name: fmt.Sprintf("bytes[%d]", d.Size)}},
			Assert:  layout.StaticAssert("struct "+d.Name, d.Size),
		}}
	case repr.DeclResult:
		return []cDecl{
			{Kind: "enum", Name: d.TagName(), Enumerators: []string{d.Name + "$ResultOk", d.Name + "$ResultErr"}},
			{Kind: "union", Name: d.FieldsName(), Members: cMembers(d.Members)},
			{Kind: "struct", Name: d.Name, Members: []cMember{
				{Type: d.TagName(), Name: "tag"},
				{Type: "union " + d.FieldsName(), Name: "payload"},
			}},
		}
	case repr.DeclEnum:
		return enumDecls(d)
	default:
		return []cDecl{{Kind: "struct", Name: d.Name, Members: cMembers(d.Members)}}
	}
}

func enumDecls(d *repr.Decl) []cDecl {
	var (
		out         []cDecl
		enumerators []string
		union       []cMember
	)

	for _, v := range d.Variants {
		enumerators = append(enumerators, v.Tag)

		if v.Fields != "" {
			out = append(out, cDecl{Kind: "struct", Name: v.Fields, Members: cMembers(v.Members)})
			union = append(union, cMember{Type: "struct " + v.Fields, Name: v.Name})
		}
	}

	out = append(out, cDecl{Kind: "enum", Name: d.TagName(), Enumerators: enumerators})

	main := cDecl{Kind: "struct", Name: d.Name, Members: []cMember{{Type: d.TagName(), Name: "tag"}}}

	if d.HasPayload() {
		out = append(out, cDecl{Kind: "union", Name: d.FieldsName(), Members: union})
		main.Members = append(main.Members, cMember{Type: "union " + d.FieldsName(), Name: "payload"})
	}

	return append(out, main)
}
