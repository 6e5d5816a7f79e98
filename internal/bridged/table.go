package bridged

import (
	"fmt"
	"slices"

	"bridgegen/primitive"
)

// Receiver is how a method takes its opaque receiver.
type Receiver int

const (
	// ReceiverNone marks a static method (no receiver).
	ReceiverNone Receiver = iota
	ReceiverRef
	ReceiverMut
	ReceiverOwned
)

// String returns the systems-side spelling of the receiver.
func (r Receiver) String() string {
	switch r {
	case ReceiverRef:
		return "&self"
	case ReceiverMut:
		return "&mut self"
	case ReceiverOwned:
		return "self"
	default:
		return ""
	}
}

// Param is a named, classified function parameter.
type Param struct {
	Name string
	Type Type
}

// Signature is a classified function or method.
type Signature struct {
	Name string
	// SystemsName overrides the systems-side identifier (rust_name).
	SystemsName string
	// ManagedName overrides the managed-side identifier.
	ManagedName string
	Side        Side
	Receiver    Receiver
	Init        bool
	Async       bool
	Params      []Param
	// Return is Null for functions without a result.
	Return Type
}

// OpaqueDecl declares a type whose layout stays hidden behind a pointer, or
// that crosses by value as InlineSize raw bytes.
type OpaqueDecl struct {
	Name            string
	Side            Side
	InlineSize      int
	Equatable       bool
	Hashable        bool
	AlreadyDeclared bool
	Methods         []*Signature
}

// FieldDecl is a struct field or a variant field. Src is the declared type
// expression; Type is filled once the table is complete.
type FieldDecl struct {
	Name string
	Src  string
	Type Type
}

// StructDecl declares a product type shared by both sides.
type StructDecl struct {
	Name            string
	ManagedName     string
	Fields          []FieldDecl
	Unnamed         bool
	AlreadyDeclared bool
}

// ManagedIdent returns the managed-side name of the struct.
func (d *StructDecl) ManagedIdent() string {
	if d.ManagedName != "" {
		return d.ManagedName
	}

	return d.Name
}

// VariantDecl is one alternative of an enum.
type VariantDecl struct {
	Name    string
	Fields  []FieldDecl
	Unnamed bool
}

// HasData reports whether the variant carries fields.
func (v *VariantDecl) HasData() bool {
	return len(v.Fields) > 0
}

// EnumDecl declares a sum type shared by both sides.
type EnumDecl struct {
	Name            string
	ManagedName     string
	Variants        []VariantDecl
	AlreadyDeclared bool
}

// ManagedIdent returns the managed-side name of the enum.
func (d *EnumDecl) ManagedIdent() string {
	if d.ManagedName != "" {
		return d.ManagedName
	}

	return d.Name
}

// HasData reports whether any variant carries fields.
func (d *EnumDecl) HasData() bool {
	for i := range d.Variants {
		if d.Variants[i].HasData() {
			return true
		}
	}

	return false
}

// ConflictError reports a second declaration of an identifier.
type ConflictError struct {
	Name     string
	Existing string
	New      string
}

func (e *ConflictError) Error() string {
	if e.Existing == "built-in" {
		return fmt.Sprintf("%s %q shadows a built-in type", e.New, e.Name)
	}

	return fmt.Sprintf("%s %q is already declared as %s", e.New, e.Name, e.Existing)
}

var builtinNames = map[string]struct{}{
	"String": {}, "str": {}, "Vec": {}, "Option": {}, "Result": {},
	"Box": {}, "c_void": {}, "Self": {},
}

func isBuiltin(name string) bool {
	if _, ok := builtinNames[name]; ok {
		return true
	}

	return primitive.FromIdent(name).IsValid()
}

// Table holds the user declarations visible to the classifier.
type Table struct {
	kinds   map[string]string
	opaques map[string]*OpaqueDecl
	structs map[string]*StructDecl
	enums   map[string]*EnumDecl

	opaqueOrder []*OpaqueDecl
	structOrder []*StructDecl
	enumOrder   []*EnumDecl
}

// NewTable returns an empty declaration table.
func NewTable() *Table {
	return &Table{
		kinds:   make(map[string]string),
		opaques: make(map[string]*OpaqueDecl),
		structs: make(map[string]*StructDecl),
		enums:   make(map[string]*EnumDecl),
	}
}

func (t *Table) claim(name, kind string) error {
	if isBuiltin(name) {
		return &ConflictError{Name: name, Existing: "built-in", New: kind}
	}

	if existing, ok := t.kinds[name]; ok {
		return &ConflictError{Name: name, Existing: existing, New: kind}
	}

	t.kinds[name] = kind

	return nil
}

// AddOpaque registers an opaque type. A name that is already taken returns a
// *ConflictError and leaves the table unchanged.
func (t *Table) AddOpaque(d *OpaqueDecl) error {
	if err := t.claim(d.Name, "opaque type"); err != nil {
		return err
	}

	t.opaques[d.Name] = d
	t.opaqueOrder = append(t.opaqueOrder, d)

	return nil
}

// AddStruct registers a struct.
func (t *Table) AddStruct(d *StructDecl) error {
	if err := t.claim(d.Name, "struct"); err != nil {
		return err
	}

	t.structs[d.Name] = d
	t.structOrder = append(t.structOrder, d)

	return nil
}

// AddEnum registers an enum.
func (t *Table) AddEnum(d *EnumDecl) error {
	if err := t.claim(d.Name, "enum"); err != nil {
		return err
	}

	t.enums[d.Name] = d
	t.enumOrder = append(t.enumOrder, d)

	return nil
}

func (t *Table) Opaque(name string) (*OpaqueDecl, bool) {
	d, ok := t.opaques[name]
	return d, ok
}

func (t *Table) Struct(name string) (*StructDecl, bool) {
	d, ok := t.structs[name]
	return d, ok
}

func (t *Table) Enum(name string) (*EnumDecl, bool) {
	d, ok := t.enums[name]
	return d, ok
}

// Opaques returns opaque declarations in registration order.
func (t *Table) Opaques() []*OpaqueDecl { return t.opaqueOrder }

// Structs returns struct declarations in registration order.
func (t *Table) Structs() []*StructDecl { return t.structOrder }

// Enums returns enum declarations in registration order.
func (t *Table) Enums() []*EnumDecl { return t.enumOrder }

// Names returns every declared name and every built-in type name, sorted.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.kinds)+len(builtinNames)+int(primitive.KindTotal))
	for name := range t.kinds {
		names = append(names, name)
	}

	for name := range builtinNames {
		names = append(names, name)
	}

	for _, k := range primitive.All() {
		names = append(names, k.Spell().Systems)
	}

	slices.Sort(names)

	return slices.Compact(names)
}

// Len returns the number of registered declarations.
func (t *Table) Len() int { return len(t.kinds) }
