package derive

import "text/template"

const systemsSource = `// {{.Generated}}
// Systems-side glue of bridge module {{.Module}}.
#![allow(non_snake_case, non_camel_case_types, dead_code, unused_unsafe)]
{{range .Imports}}
use super::{{.}};
{{- end}}
{{range .Wire}}{{template "wire" .}}{{end}}
{{- range .Shared}}{{template "shared" .}}{{end}}
{{- range .Managed}}
pub struct {{.Name}}(pub *mut std::ffi::c_void);

impl Drop for {{.Name}} {
    fn drop(&mut self) {
        unsafe { {{.Release}}(self.0) }
    }
}
{{if .Methods}}
impl {{.Name}} {
{{- range .Methods}}
    pub fn {{.Ident}}({{.Receiver}}{{if and .Receiver .Params}}, {{end}}{{rustList .Params}}){{if .Return}} -> {{.Return}}{{end}} {
        {{indent 8 .Body}}
    }
{{- end}}
}
{{end}}{{end}}
{{- range .Wrappers}}
pub fn {{.Ident}}({{rustList .Params}}){{if .Return}} -> {{.Return}}{{end}} {
    {{indent 4 .Body}}
}
{{end}}
{{- range .Exports}}
#[export_name = "{{.Symbol}}"]
pub extern "C" fn {{.Ident}}({{rustList .Params}}){{if .Return}} -> {{.Return}}{{end}} {
    {{indent 4 .Body}}
}
{{end}}
{{- if .Externs}}
extern "C" {
{{- range .Externs}}
    #[link_name = "{{.Symbol}}"]
    fn {{.Ident}}({{rustList .Params}}){{if .Return}} -> {{.Return}}{{end}};
{{- end}}
}
{{end}}`

const systemsWire = `{{define "wire"}}
{{- if eq .Kind "inline"}}
#[repr(C)]
#[derive(Copy, Clone)]
pub struct {{.Ident}} {
    pub bytes: [u8; {{.Size}}],
}

impl {{.Ident}} {
    #[inline(always)]
    pub fn from_rust_repr(val: {{.Native}}) -> Self {
        unsafe { std::mem::transmute(val) }
    }

    #[inline(always)]
    pub fn into_rust_repr(self) -> {{.Native}} {
        unsafe { std::mem::transmute(self) }
    }
}

const _: () = assert!(std::mem::size_of::<{{.Native}}>() == {{.Size}});
{{else if eq .Kind "enum"}}
#[repr(C)]
#[derive(Copy, Clone)]
pub enum {{.Ident}} {
{{- range .Variants}}
    {{.}},
{{- end}}
}
{{else}}
#[repr(C)]
#[derive(Copy, Clone)]
pub {{.Kind}} {{.Ident}} {
{{- range .Members}}
    pub {{.Name}}: {{.Type}},
{{- end}}
}
{{end}}{{end}}`

const systemsShared = `{{define "shared"}}
{{if .Clone}}#[derive(Clone)]
{{end -}}
{{if .Enum -}}
pub enum {{.Name}} {
{{- range .Variants}}
    {{.Name}}{{if .Fields}}{{if .Unnamed}}({{range $i, $f := .Fields}}{{if $i}}, {{end}}{{$f.Type}}{{end}}){{else}} { {{range $i, $f := .Fields}}{{if $i}}, {{end}}{{$f.Name}}: {{$f.Type}}{{end}} }{{end}}{{end}},
{{- end}}
}
{{- else if .Unnamed -}}
pub struct {{.Name}}({{range $i, $f := .Fields}}{{if $i}}, {{end}}pub {{$f.Type}}{{end}});
{{- else -}}
pub struct {{.Name}} {
{{- range .Fields}}
    pub {{.Name}}: {{.Type}},
{{- end}}
}
{{- end}}

impl {{.Name}} {
    #[doc(hidden)]
    #[inline(always)]
    pub fn into_ffi_repr(self) -> {{.Wire}} {
        {{indent 8 .IntoFfi}}
    }
}

impl {{.Wire}} {
    #[doc(hidden)]
    #[inline(always)]
    pub fn into_rust_repr(self) -> {{.Name}} {
        {{indent 8 .IntoRust}}
    }
}
{{end}}`

const managedSource = `// {{.Generated}}
// Managed-side glue of bridge module {{.Module}}.
{{range .Classes}}
public class {{.Name}}Ref {
    var ptr: UnsafeMutableRawPointer

    public init(ptr: UnsafeMutableRawPointer) {
        self.ptr = ptr
    }
}

public class {{.Name}}RefMut: {{.Name}}Ref {
    public override init(ptr: UnsafeMutableRawPointer) {
        super.init(ptr: ptr)
    }
}
{{if .Free}}
public final class {{.Name}}: {{.Name}}RefMut {
    var isOwned: Bool = true

    public override init(ptr: UnsafeMutableRawPointer) {
        super.init(ptr: ptr)
    }

    deinit {
        if isOwned {
            {{.Free}}(ptr)
        }
    }
}
{{end}}
{{- if .Ref}}
extension {{.Name}}Ref {
{{- range .Ref}}
    {{.Head}} {
        {{indent 8 .Body}}
    }
{{- end}}
}
{{end}}
{{- if .RefMut}}
extension {{.Name}}RefMut {
{{- range .RefMut}}
    {{.Head}} {
        {{indent 8 .Body}}
    }
{{- end}}
}
{{end}}
{{- if and .Free .Owned}}
extension {{.Name}} {
{{- range .Owned}}
    {{.Head}} {
        {{indent 8 .Body}}
    }
{{- end}}
}
{{end}}
{{- if .Equatable}}
extension {{.Name}}Ref: Equatable {
    public static func == (lhs: {{.Name}}Ref, rhs: {{.Name}}Ref) -> Bool {
        {{.Equatable}}(lhs.ptr, rhs.ptr)
    }
}
{{end}}
{{- if .Hashable}}
extension {{.Name}}Ref: Hashable {
    public func hash(into hasher: inout Hasher) {
        hasher.combine({{.Hashable}}(ptr))
    }
}
{{end}}{{end}}
{{- range .Inline}}
public struct {{.Name}} {
    fileprivate var bytes: {{.Wire}}

    func intoFfiRepr() -> {{.Wire}} {
        bytes
    }
}

extension {{.Wire}} {
    func intoSwiftRepr() -> {{.Name}} {
        {{.Name}}(bytes: self)
    }
}
{{end}}
{{- range .Shared}}
{{- if .Enum}}
public enum {{.Name}} {
{{- range .Cases}}
    {{.}}
{{- end}}
}
{{- else}}
public struct {{.Name}} {
{{- range .Fields}}
    public var {{.Name}}: {{.Type}}
{{- end}}

    public init({{range $i, $f := .Fields}}{{if $i}}, {{end}}{{$f.Name}}: {{$f.Type}}{{end}}) {
{{- range .Fields}}
        self.{{.Name}} = {{.Name}}
{{- end}}
    }
}
{{- end}}

extension {{.Name}} {
    func intoFfiRepr() -> {{.Wire}} {
        {{if .Enum}}{{indent 8 .IntoFfi}}{{else}}return {{.IntoFfi}}{{end}}
    }
}

extension {{.Wire}} {
    func intoSwiftRepr() -> {{.Name}} {
        {{if .Enum}}{{indent 8 .IntoSwift}}{{else}}return {{.IntoSwift}}{{end}}
    }
}
{{end}}
{{- range .Vecs}}{{template "vectorizable" .}}{{end}}
{{- range .Functions}}
{{.Head}} {
    {{indent 4 .Body}}
}
{{end}}
{{- range .Async}}
class {{.Wrapper}} {
    var cb: ({{.Native}}) -> ()

    public init(cb: @escaping ({{.Native}}) -> ()) {
        self.cb = cb
    }
}
{{end}}
{{- range .Exports}}
@_cdecl("{{.Symbol}}")
func {{.Ident}}({{swiftList .Params}}){{if .Return}} -> {{.Return}}{{end}} {
    {{indent 4 .Body}}
}
{{end}}`

const vectorizableSource = `{{define "vectorizable"}}
extension {{.Type}}: Vectorizable {
    public typealias SelfRef = {{.SelfRef}}
    public typealias SelfRefMut = {{.SelfRefMut}}

    public static func vecOfSelfNew() -> UnsafeMutableRawPointer {
        {{.New}}()
    }

    public static func vecOfSelfFree(vecPtr: UnsafeMutableRawPointer) {
        {{.Free}}(vecPtr)
    }

    public static func vecOfSelfPush(vecPtr: UnsafeMutableRawPointer, value: {{.Type}}) {
        {{.Push}}
    }

    public static func vecOfSelfPop(vecPtr: UnsafeMutableRawPointer) -> Optional<{{.Type}}> {
        {{indent 8 .Pop}}
    }

    public static func vecOfSelfGet(vecPtr: UnsafeMutableRawPointer, index: UInt) -> Optional<SelfRef> {
        {{indent 8 .Get}}
    }

    public static func vecOfSelfGetMut(vecPtr: UnsafeMutableRawPointer, index: UInt) -> Optional<SelfRefMut> {
        {{indent 8 .GetMut}}
    }

    public static func vecOfSelfLen(vecPtr: UnsafeMutableRawPointer) -> UInt {
        {{.Len}}(vecPtr)
    }
}
{{end}}`

const headerSource = `// {{.Generated}}
// C declarations of bridge module {{.Module}}.
#pragma once
#include <stdint.h>
#include <stdbool.h>
#include "{{.CoreHeader}}"
{{- range .Includes}}
#include "{{.}}"
{{- end}}
{{range .Decls}}
{{- if eq .Kind "enum"}}
typedef enum {{.Name}} { {{join .Enumerators ", "}} } {{.Name}};
{{- else}}
typedef {{.Kind}} {{.Name}} { {{range .Members}}{{.Type}} {{.Name}}; {{end}}} {{.Name}};
{{- end}}
{{- if .Assert}}
{{.Assert}}
{{- end}}
{{- end}}
{{range .Prototypes}}
{{.}}
{{- end}}
`

var (
	systemsTemplate = template.Must(template.Must(template.Must(
		template.New("systems").Funcs(funcs).Parse(systemsSource)).
		Parse(systemsWire)).
		Parse(systemsShared))

	managedTemplate = template.Must(template.Must(
		template.New("managed").Funcs(funcs).Parse(managedSource)).
		Parse(vectorizableSource))

	headerTemplate = template.Must(template.New("header").Funcs(funcs).Parse(headerSource))
)
