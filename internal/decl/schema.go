package decl

// File is the root of a declaration file.
type File struct {
	// Version of the declaration schema.
	Version string `yaml:"version,omitempty" toml:"version,omitempty"`

	// Module names the generated artifacts (<module>.rs, .swift, .h).
	Module string `yaml:"module" toml:"module"`

	OpaqueTypes []OpaqueType `yaml:"opaque_types,omitempty" toml:"opaque_types,omitempty"`
	Structs     []Struct     `yaml:"structs,omitempty" toml:"structs,omitempty"`
	Enums       []Enum       `yaml:"enums,omitempty" toml:"enums,omitempty"`
	Functions   []Function   `yaml:"functions,omitempty" toml:"functions,omitempty"`

	// Path is the file the declarations were loaded from; empty for Parse.
	Path string `yaml:"-" toml:"-"`
}

// Side values.
const (
	SideSystems = "systems"
	SideManaged = "managed"
)

// Receiver values.
const (
	ReceiverNone  = "none"
	ReceiverRef   = "ref"
	ReceiverMut   = "mut"
	ReceiverOwned = "owned"
)

// OpaqueType declares a type whose layout stays private to its side.
type OpaqueType struct {
	Name string `yaml:"name" toml:"name"`
	// Side is "systems" (default) or "managed".
	Side string `yaml:"side,omitempty" toml:"side,omitempty"`
	// Copy is the inline size in bytes; 0 keeps the type behind a pointer.
	Copy            int      `yaml:"copy,omitempty" toml:"copy,omitempty"`
	Equatable       bool     `yaml:"equatable,omitempty" toml:"equatable,omitempty"`
	Hashable        bool     `yaml:"hashable,omitempty" toml:"hashable,omitempty"`
	AlreadyDeclared bool     `yaml:"already_declared,omitempty" toml:"already_declared,omitempty"`
	Methods         []Method `yaml:"methods,omitempty" toml:"methods,omitempty"`
}

// Method is a function attached to an opaque type.
type Method struct {
	Name string `yaml:"name" toml:"name"`
	// Init marks a static initializer returning the type.
	Init bool `yaml:"init,omitempty" toml:"init,omitempty"`
	// Receiver is "ref" (default), "mut", "owned" or "none".
	Receiver    string `yaml:"receiver,omitempty" toml:"receiver,omitempty"`
	Args        []Arg  `yaml:"args,omitempty" toml:"args,omitempty"`
	Return      string `yaml:"return,omitempty" toml:"return,omitempty"`
	RustName    string `yaml:"rust_name,omitempty" toml:"rust_name,omitempty"`
	ManagedName string `yaml:"managed_name,omitempty" toml:"managed_name,omitempty"`
}

// Arg is a named parameter.
type Arg struct {
	Name string `yaml:"name" toml:"name"`
	Type string `yaml:"type" toml:"type"`
}

// Field is a struct or variant field. Name is empty for unnamed fields.
type Field struct {
	Name string `yaml:"name,omitempty" toml:"name,omitempty"`
	Type string `yaml:"type" toml:"type"`
}

// Struct declares a product type shared by both sides.
type Struct struct {
	Name            string  `yaml:"name" toml:"name"`
	ManagedName     string  `yaml:"managed_name,omitempty" toml:"managed_name,omitempty"`
	Unnamed         bool    `yaml:"unnamed,omitempty" toml:"unnamed,omitempty"`
	AlreadyDeclared bool    `yaml:"already_declared,omitempty" toml:"already_declared,omitempty"`
	Fields          []Field `yaml:"fields,omitempty" toml:"fields,omitempty"`
}

// Variant is one alternative of an enum.
type Variant struct {
	Name    string  `yaml:"name" toml:"name"`
	Unnamed bool    `yaml:"unnamed,omitempty" toml:"unnamed,omitempty"`
	Fields  []Field `yaml:"fields,omitempty" toml:"fields,omitempty"`
}

// Enum declares a sum type shared by both sides.
type Enum struct {
	Name            string    `yaml:"name" toml:"name"`
	ManagedName     string    `yaml:"managed_name,omitempty" toml:"managed_name,omitempty"`
	AlreadyDeclared bool      `yaml:"already_declared,omitempty" toml:"already_declared,omitempty"`
	Variants        []Variant `yaml:"variants,omitempty" toml:"variants,omitempty"`
}

// Function is a free function implemented on Side and called from the other.
type Function struct {
	Name string `yaml:"name" toml:"name"`
	// Side is "systems" (default): implemented in Rust, called from Swift.
	Side        string `yaml:"side,omitempty" toml:"side,omitempty"`
	Async       bool   `yaml:"async,omitempty" toml:"async,omitempty"`
	Args        []Arg  `yaml:"args,omitempty" toml:"args,omitempty"`
	Return      string `yaml:"return,omitempty" toml:"return,omitempty"`
	RustName    string `yaml:"rust_name,omitempty" toml:"rust_name,omitempty"`
	ManagedName string `yaml:"managed_name,omitempty" toml:"managed_name,omitempty"`
}
