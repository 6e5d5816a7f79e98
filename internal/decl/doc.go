// Package decl reads declaration files: the opaque types, shared structs and
// enums, and functions of one bridge module, written in YAML or TOML.
//
// Example:
//
//	version: "1"
//	module: ffi
//	opaque_types:
//	  - name: Counter
//	    methods:
//	      - { name: new, init: true, return: Counter }
//	      - { name: value, receiver: ref, return: u32 }
//	functions:
//	  - name: parse
//	    args: [{ name: text, type: "&str" }]
//	    return: "Result<Counter, String>"
package decl
