package decl

import (
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"

	"bridgegen/internal/diagnostic"
)

// SupportedVersions is the range of schema versions this build reads.
const SupportedVersions = "1.x"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks the structure of f. Type expressions are not parsed here;
// classification reports them with their declaration context.
func Validate(f *File) diagnostic.Diagnostics {
	var res diagnostic.Diagnostics

	if f == nil {
		res.AddError(diagnostic.CodeInvalidDeclaration, "declaration file is nil", "", "")
		return res
	}

	validateVersion(&res, f.Version)

	if !identRe.MatchString(f.Module) {
		res.AddError(diagnostic.CodeInvalidDeclaration,
			fmt.Sprintf("module name %q is not an identifier", f.Module), "", "module")
	}

	for i := range f.OpaqueTypes {
		validateOpaque(&res, &f.OpaqueTypes[i])
	}

	for i := range f.Structs {
		s := &f.Structs[i]
		subject := "struct " + s.Name
		checkIdent(&res, subject, "name", s.Name)
		validateFields(&res, subject, "", s.Fields, s.Unnamed)
	}

	for i := range f.Enums {
		e := &f.Enums[i]
		subject := "enum " + e.Name
		checkIdent(&res, subject, "name", e.Name)

		if len(e.Variants) == 0 {
			res.AddError(diagnostic.CodeInvalidDeclaration, "enum has no variants", subject, "variants")
		}

		seen := map[string]struct{}{}

		for j := range e.Variants {
			v := &e.Variants[j]
			loc := fmt.Sprintf("variants.%d", j)
			checkIdent(&res, subject, loc, v.Name)

			if _, dup := seen[v.Name]; dup {
				res.AddError(diagnostic.CodeDeclarationConflict, fmt.Sprintf("duplicate variant %q", v.Name), subject, loc)
			}

			seen[v.Name] = struct{}{}

			validateFields(&res, subject, loc+".", v.Fields, v.Unnamed)
		}
	}

	for i := range f.Functions {
		fn := &f.Functions[i]
		subject := "fn " + fn.Name
		checkIdent(&res, subject, "name", fn.Name)
		checkSide(&res, subject, fn.Side)
		validateArgs(&res, subject, fn.Args)

		if fn.Async && fn.Side != SideSystems {
			res.AddError(diagnostic.CodeInvalidDeclaration,
				"async is only supported on systems-side functions", subject, "async")
		}
	}

	return res
}

func validateVersion(res *diagnostic.Diagnostics, version string) {
	if version == "" {
		// Parsed files default to the current version.
		return
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		res.AddError(diagnostic.CodeInvalidDeclaration, fmt.Sprintf("invalid version %q: %v", version, err), "", "version")
		return
	}

	supported, _ := semver.NewConstraint(SupportedVersions)
	if !supported.Check(v) {
		res.AddError(diagnostic.CodeInvalidDeclaration,
			fmt.Sprintf("unsupported version %s, expected %s", version, SupportedVersions), "", "version")
	}
}

func validateOpaque(res *diagnostic.Diagnostics, o *OpaqueType) {
	subject := "type " + o.Name
	checkIdent(res, subject, "name", o.Name)
	checkSide(res, subject, o.Side)

	if o.Copy < 0 {
		res.AddError(diagnostic.CodeInvalidDeclaration, fmt.Sprintf("copy size %d is negative", o.Copy), subject, "copy")
	}

	if o.Copy > 0 && o.Side == SideManaged {
		res.AddError(diagnostic.CodeInvalidDeclaration, "managed-side types cannot be copied by value", subject, "copy")
	}

	if (o.Equatable || o.Hashable) && o.Side == SideManaged {
		res.AddError(diagnostic.CodeInvalidDeclaration,
			"equatable and hashable are only supported on systems-side types", subject, "")
	}

	if o.Hashable && !o.Equatable {
		res.AddError(diagnostic.CodeInvalidDeclaration, "hashable types must also be equatable", subject, "hashable")
	}

	if (o.Equatable || o.Hashable) && o.Copy > 0 {
		res.AddError(diagnostic.CodeInvalidDeclaration,
			"equatable and hashable are not supported on types copied by value", subject, "")
	}

	seen := map[string]struct{}{}

	for i := range o.Methods {
		m := &o.Methods[i]
		loc := fmt.Sprintf("methods.%d", i)
		checkIdent(res, subject, loc, m.Name)

		if _, dup := seen[m.Name]; dup {
			res.AddError(diagnostic.CodeDeclarationConflict, fmt.Sprintf("duplicate method %q", m.Name), subject, loc)
		}

		seen[m.Name] = struct{}{}

		switch m.Receiver {
		case ReceiverNone, ReceiverRef, ReceiverMut, ReceiverOwned:
		default:
			res.AddError(diagnostic.CodeInvalidDeclaration,
				fmt.Sprintf("unknown receiver %q", m.Receiver), subject, loc+".receiver",
				"use one of none, ref, mut, owned")
		}

		if m.Init && m.Receiver != ReceiverNone {
			res.AddError(diagnostic.CodeInvalidDeclaration, "an initializer cannot take a receiver", subject, loc)
		}

		if m.Init && m.Return == "" {
			res.AddError(diagnostic.CodeInvalidDeclaration, "an initializer must return the type", subject, loc+".return")
		}

		validateArgs(res, subject, m.Args)
	}
}

func validateFields(res *diagnostic.Diagnostics, subject, prefix string, fields []Field, unnamed bool) {
	seen := map[string]struct{}{}

	for i, fd := range fields {
		loc := fmt.Sprintf("%sfields.%d", prefix, i)

		if fd.Type == "" {
			res.AddError(diagnostic.CodeInvalidDeclaration, "field has no type", subject, loc)
		}

		if unnamed {
			if fd.Name != "" {
				res.AddError(diagnostic.CodeInvalidDeclaration, "unnamed fields cannot have a name", subject, loc)
			}

			continue
		}

		checkIdent(res, subject, loc, fd.Name)

		if _, dup := seen[fd.Name]; dup {
			res.AddError(diagnostic.CodeDeclarationConflict, fmt.Sprintf("duplicate field %q", fd.Name), subject, loc)
		}

		seen[fd.Name] = struct{}{}
	}
}

func validateArgs(res *diagnostic.Diagnostics, subject string, args []Arg) {
	seen := map[string]struct{}{}

	for i, a := range args {
		loc := fmt.Sprintf("args.%d", i)
		checkIdent(res, subject, loc, a.Name)

		if a.Type == "" {
			res.AddError(diagnostic.CodeInvalidDeclaration, "argument has no type", subject, loc)
		}

		if _, dup := seen[a.Name]; dup {
			res.AddError(diagnostic.CodeDeclarationConflict, fmt.Sprintf("duplicate argument %q", a.Name), subject, loc)
		}

		seen[a.Name] = struct{}{}
	}
}

func checkIdent(res *diagnostic.Diagnostics, subject, loc, name string) {
	if !identRe.MatchString(name) {
		res.AddError(diagnostic.CodeInvalidDeclaration, fmt.Sprintf("%q is not an identifier", name), subject, loc)
	}
}

func checkSide(res *diagnostic.Diagnostics, subject, side string) {
	if side != SideSystems && side != SideManaged {
		res.AddError(diagnostic.CodeInvalidDeclaration,
			fmt.Sprintf("unknown side %q", side), subject, "side", "use systems or managed")
	}
}
