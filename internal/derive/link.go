package derive

import (
	"fmt"
	"slices"

	"bridgegen/internal/diagnostic"
	"bridgegen/internal/naming"
	"bridgegen/internal/repr"
)

const hintAlreadyDeclared = "keep one declaration and mark the others already_declared: true"

// wireClaim records the first group emitting a wire declaration.
type wireClaim struct {
	module string
	kind   repr.DeclKind
	layout string
}

// link checks the names groups of one program share. The first group to
// emit a synthesized wire declaration keeps it; identical copies in later
// groups become imports. Sequence operations need no claim: they are emitted
// by the group declaring the element type or by the core artifacts.
func link(sessions []*session) {
	var (
		types = make(map[string]string)
		wires = make(map[string]wireClaim)
	)

	// Groups with errors render nothing and claim nothing.
	usable := make([]*session, 0, len(sessions))
	external := make([][]*repr.Decl, 0, len(sessions))

	for _, s := range sessions {
		if s.diags.HasErrors() {
			continue
		}

		var ext []*repr.Decl
		for _, d := range s.registry.Decls() {
			if d.External {
				ext = append(ext, d)
			}
		}

		usable = append(usable, s)
		external = append(external, ext)
	}

	for _, s := range usable {
		s.claimDeclarations(types)
		s.claimWires(wires)
	}

	for i, s := range usable {
		s.checkExternal(wires, external[i])
	}
}

// claimDeclarations rejects types and functions another group declares.
func (s *session) claimDeclarations(owners map[string]string) {
	claim := func(key, subject, loc string, hints ...string) {
		if owner, taken := owners[key]; taken {
			s.diags.AddError(diagnostic.CodeDeclarationConflict,
				fmt.Sprintf("%s is also declared by module %s", subject, owner), subject, loc, hints...)

			return
		}

		owners[key] = s.file.Module
	}

	for _, o := range s.opaqueSources {
		if !o.decl.AlreadyDeclared {
			claim(o.decl.Name, "type "+o.decl.Name, fmt.Sprintf("opaque_types.%d", o.index), hintAlreadyDeclared)
		}
	}

	for i, d := range s.structs {
		if !d.AlreadyDeclared {
			claim(d.Name, "struct "+d.Name, fmt.Sprintf("structs.%d", s.structIndex[i]), hintAlreadyDeclared)
		}
	}

	for i, d := range s.enums {
		if !d.AlreadyDeclared {
			claim(d.Name, "enum "+d.Name, fmt.Sprintf("enums.%d", s.enumIndex[i]), hintAlreadyDeclared)
		}
	}

	for _, fn := range s.functions {
		claim("fn "+fn.sig.Name, "fn "+fn.sig.Name, fmt.Sprintf("functions.%d", fn.index))
	}
}

// claimWires imports synthesized declarations an earlier group emits with the
// same layout and rejects the ones it lays out differently.
func (s *session) claimWires(claims map[string]wireClaim) {
	for _, d := range s.registry.Decls() {
		if d.External {
			continue
		}

		layout := d.Layout()

		c, taken := claims[d.Name]

		switch {
		case !taken:
			claims[d.Name] = wireClaim{module: s.file.Module, kind: d.Kind, layout: layout}
		case declaredKind(d.Kind) && c.kind == d.Kind:
			// Reported by claimDeclarations.
		case c.layout != layout:
			s.diags.AddError(diagnostic.CodeDeclarationConflict,
				fmt.Sprintf("wire name %s is synthesized differently by module %s", d.Name, c.module), d.Name, "")
		default:
			d.External = true
			s.importWire(d, c.module)
		}
	}
}

// checkExternal compares already declared types that spell out their fields
// with their declaration in another group of the same program.
func (s *session) checkExternal(claims map[string]wireClaim, external []*repr.Decl) {
	for _, d := range external {
		c, ok := claims[d.Name]
		if !ok || c.layout == d.Layout() || bare(d) {
			continue
		}

		subject := fmt.Sprintf("%s %s", d.Kind, d.Type)
		s.diags.AddError(diagnostic.CodeDeclarationConflict,
			fmt.Sprintf("already declared %s does not match its declaration in module %s", d.Type, c.module), subject, "")
	}
}

// bare reports an already declared struct or enum listed without fields.
func bare(d *repr.Decl) bool {
	return d.Kind != repr.DeclInline && len(d.Members) == 0 && len(d.Variants) == 0
}

func declaredKind(k repr.DeclKind) bool {
	switch k {
	case repr.DeclStruct, repr.DeclEnum, repr.DeclInline:
		return true
	default:
		return false
	}
}

// importWire makes the systems artifact use the definition of module and the
// header include its declarations.
func (s *session) importWire(d *repr.Decl, module string) {
	idents := []string{naming.RustIdent(d.Name)}
	if d.Kind == repr.DeclResult {
		idents = append(idents, naming.RustIdent(d.TagName()), naming.RustIdent(d.FieldsName()))
	}

	for _, ident := range idents {
		s.linked = append(s.linked, module+"::"+ident)
	}

	if header := module + ".h"; !slices.Contains(s.includes, header) {
		s.includes = append(s.includes, header)
	}
}
