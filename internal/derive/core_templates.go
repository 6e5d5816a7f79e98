package derive

import "text/template"

const coreSystemsSource = `// {{.Generated}}
// Runtime support shared by every bridge module.
#![allow(non_snake_case, non_camel_case_types, dead_code, unused_unsafe)]

pub mod string {
    #[repr(C)]
    #[derive(Copy, Clone)]
    pub struct RustStr {
        pub start: *const u8,
        pub len: usize,
    }

    impl RustStr {
        pub fn from_str(s: &str) -> Self {
            RustStr { start: s.as_ptr(), len: s.len() }
        }

        pub fn to_str<'a>(self) -> &'a str {
            unsafe { std::str::from_utf8_unchecked(std::slice::from_raw_parts(self.start, self.len)) }
        }
    }

    pub struct RustString(pub String);

    impl RustString {
        pub fn box_into_raw(self) -> *mut RustString {
            Box::into_raw(Box::new(self))
        }
    }
{{with .String}}
    #[export_name = "{{.New}}"]
    pub extern "C" fn {{.NewIdent}}() -> *mut RustString {
        RustString(String::new()).box_into_raw()
    }

    #[export_name = "{{.NewWithStr}}"]
    pub extern "C" fn {{.WithIdent}}(str: RustStr) -> *mut RustString {
        RustString(str.to_str().to_string()).box_into_raw()
    }

    #[export_name = "{{.Len}}"]
    pub extern "C" fn {{.LenIdent}}(this: *const RustString) -> usize {
        unsafe { &*this }.0.len()
    }

    #[export_name = "{{.AsStr}}"]
    pub extern "C" fn {{.AsStrIdent}}(this: *const RustString) -> RustStr {
        RustStr::from_str(unsafe { &*this }.0.as_str())
    }

    #[export_name = "{{.Trim}}"]
    pub extern "C" fn {{.TrimIdent}}(this: *const RustString) -> RustStr {
        RustStr::from_str(unsafe { &*this }.0.trim())
    }

    #[export_name = "{{.Free}}"]
    pub extern "C" fn {{.FreeIdent}}(this: *mut RustString) {
        drop(unsafe { Box::from_raw(this) })
    }
{{- end}}
}

#[repr(C)]
pub struct FfiSlice<T> {
    pub start: *const T,
    pub len: usize,
}

impl<T> Clone for FfiSlice<T> {
    fn clone(&self) -> Self {
        *self
    }
}

impl<T> Copy for FfiSlice<T> {}

impl<T> FfiSlice<T> {
    pub fn from_slice(slice: &[T]) -> Self {
        FfiSlice { start: slice.as_ptr(), len: slice.len() }
    }

    pub fn null() -> Self {
        FfiSlice { start: std::ptr::null(), len: 0 }
    }

    pub fn as_slice<'a>(self) -> &'a [T] {
        unsafe { std::slice::from_raw_parts(self.start, self.len) }
    }

    pub fn as_mut_slice<'a>(self) -> &'a mut [T] {
        unsafe { std::slice::from_raw_parts_mut(self.start as *mut T, self.len) }
    }
}

pub mod option {
{{- range .Primitives}}
    #[repr(C)]
    #[derive(Copy, Clone)]
    pub struct Option{{.Mangled}} {
        pub val: {{.Systems}},
        pub is_some: bool,
    }
{{end -}}
}

pub mod result {
    #[repr(C)]
    #[derive(Copy, Clone)]
    pub struct ResultPtrAndPtr {
        pub is_ok: bool,
        pub ok_or_err: *mut std::ffi::c_void,
    }
}

pub mod async_support {
    use std::future::Future;
    use std::pin::Pin;
    use std::sync::Arc;
    use std::task::{Context, Poll, Wake, Waker};

    pub struct SwiftCallbackWrapper(pub *mut std::ffi::c_void);

    unsafe impl Send for SwiftCallbackWrapper {}

    struct ThreadWaker(std::thread::Thread);

    impl Wake for ThreadWaker {
        fn wake(self: Arc<Self>) {
            self.0.unpark();
        }
    }

    fn block_on<F: Future>(fut: F) -> F::Output {
        let mut fut = std::pin::pin!(fut);
        let waker = Waker::from(Arc::new(ThreadWaker(std::thread::current())));
        let mut cx = Context::from_waker(&waker);

        loop {
            match fut.as_mut().poll(&mut cx) {
                Poll::Ready(val) => return val,
                Poll::Pending => std::thread::park(),
            }
        }
    }

    pub fn spawn_task(task: Pin<Box<dyn Future<Output = ()> + Send + 'static>>) {
        std::thread::spawn(move || block_on(task));
    }
}
{{range .Exports}}
#[export_name = "{{.Symbol}}"]
pub extern "C" fn {{.Ident}}({{rustList .Params}}){{if .Return}} -> {{.Return}}{{end}} {
    {{indent 4 .Body}}
}
{{end}}`

const coreManagedSource = `// {{.Generated}}
// Runtime support shared by every bridge module.

public protocol ToRustStr {
    func toRustStr<T>(_ withUnsafeRustStr: (RustStr) -> T) -> T
}

extension String: ToRustStr {
    public func toRustStr<T>(_ withUnsafeRustStr: (RustStr) -> T) -> T {
        var copy = self
        return copy.withUTF8 { buf in
            withUnsafeRustStr(RustStr(start: UnsafeMutablePointer(mutating: buf.baseAddress), len: UInt(buf.count)))
        }
    }
}

extension RustStr: ToRustStr {
    public func toRustStr<T>(_ withUnsafeRustStr: (RustStr) -> T) -> T {
        withUnsafeRustStr(self)
    }
}

extension RustStr {
    func toBufferPointer() -> UnsafeBufferPointer<UInt8> {
        UnsafeBufferPointer(start: start, count: Int(len))
    }

    public func toString() -> String {
        String(decoding: toBufferPointer(), as: UTF8.self)
    }
}

func optionalRustStrToRustStr<S: ToRustStr, T>(_ str: Optional<S>, _ withUnsafeRustStr: (RustStr) -> T) -> T {
    if let val = str {
        return val.toRustStr(withUnsafeRustStr)
    } else {
        return withUnsafeRustStr(RustStr(start: nil, len: 0))
    }
}

public protocol IntoRustString {
    func intoRustString() -> RustString
}
{{with .String}}
public class RustStringRef {
    var ptr: UnsafeMutableRawPointer

    public init(ptr: UnsafeMutableRawPointer) {
        self.ptr = ptr
    }

    public func len() -> UInt {
        {{.Len}}(ptr)
    }

    public func as_str() -> RustStr {
        {{.AsStr}}(ptr)
    }

    public func trim() -> RustStr {
        {{.Trim}}(ptr)
    }

    public func toString() -> String {
        as_str().toString()
    }
}

public class RustStringRefMut: RustStringRef {
    public override init(ptr: UnsafeMutableRawPointer) {
        super.init(ptr: ptr)
    }
}

public final class RustString: RustStringRefMut {
    var isOwned: Bool = true

    public override init(ptr: UnsafeMutableRawPointer) {
        super.init(ptr: ptr)
    }

    public convenience init() {
        self.init(ptr: {{.New}}())
    }

    public convenience init<S: ToRustStr>(_ value: S) {
        self.init(ptr: value.toRustStr({ str in {{.NewWithStr}}(str) }))
    }

    deinit {
        if isOwned {
            {{.Free}}(ptr)
        }
    }
}
{{- end}}

extension String: IntoRustString {
    public func intoRustString() -> RustString {
        RustString(self)
    }
}

extension RustString: IntoRustString {
    public func intoRustString() -> RustString {
        self
    }
}

public protocol Vectorizable {
    associatedtype SelfRef
    associatedtype SelfRefMut

    static func vecOfSelfNew() -> UnsafeMutableRawPointer
    static func vecOfSelfFree(vecPtr: UnsafeMutableRawPointer)
    static func vecOfSelfPush(vecPtr: UnsafeMutableRawPointer, value: Self)
    static func vecOfSelfPop(vecPtr: UnsafeMutableRawPointer) -> Optional<Self>
    static func vecOfSelfGet(vecPtr: UnsafeMutableRawPointer, index: UInt) -> Optional<SelfRef>
    static func vecOfSelfGetMut(vecPtr: UnsafeMutableRawPointer, index: UInt) -> Optional<SelfRefMut>
    static func vecOfSelfLen(vecPtr: UnsafeMutableRawPointer) -> UInt
}

public class RustVec<T: Vectorizable> {
    var ptr: UnsafeMutableRawPointer
    var isOwned: Bool = true

    public init(ptr: UnsafeMutableRawPointer) {
        self.ptr = ptr
    }

    public init() {
        ptr = T.vecOfSelfNew()
    }

    public func push(value: T) {
        T.vecOfSelfPush(vecPtr: ptr, value: value)
    }

    public func pop() -> Optional<T> {
        T.vecOfSelfPop(vecPtr: ptr)
    }

    public func get(index: UInt) -> Optional<T.SelfRef> {
        T.vecOfSelfGet(vecPtr: ptr, index: index)
    }

    public func get_mut(index: UInt) -> Optional<T.SelfRefMut> {
        T.vecOfSelfGetMut(vecPtr: ptr, index: index)
    }

    public func len() -> UInt {
        T.vecOfSelfLen(vecPtr: ptr)
    }

    deinit {
        if isOwned {
            T.vecOfSelfFree(vecPtr: ptr)
        }
    }
}

extension RustVec: Sequence {
    public func makeIterator() -> RustVecIterator<T> {
        RustVecIterator(self)
    }
}

public struct RustVecIterator<T: Vectorizable>: IteratorProtocol {
    var rustVec: RustVec<T>
    var index: UInt = 0

    init(_ rustVec: RustVec<T>) {
        self.rustVec = rustVec
    }

    public mutating func next() -> T.SelfRef? {
        let val = rustVec.get(index: index)
        index += 1
        return val
    }
}

public enum RustResult<T, E> {
    case Ok(T)
    case Err(E)
}

extension RustResult {
    public func ok() -> T? {
        switch self {
        case .Ok(let ok):
            return ok
        case .Err(_):
            return nil
        }
    }

    public func err() -> E? {
        switch self {
        case .Ok(_):
            return nil
        case .Err(let err):
            return err
        }
    }
}

extension {{.String.SliceWire}} {
    static func null() -> {{.String.SliceWire}} {
        {{.String.SliceWire}}(start: nil, len: 0)
    }

    func toUnsafeBufferPointer<T>() -> UnsafeBufferPointer<T> {
        UnsafeBufferPointer(start: start?.assumingMemoryBound(to: T.self), count: Int(len))
    }

    func toUnsafeMutableBufferPointer<T>() -> UnsafeMutableBufferPointer<T> {
        UnsafeMutableBufferPointer(start: start?.assumingMemoryBound(to: T.self), count: Int(len))
    }
}

extension UnsafeBufferPointer {
    func toFfiSlice() -> {{.String.SliceWire}} {
        {{.String.SliceWire}}(start: UnsafeMutableRawPointer(mutating: baseAddress), len: UInt(count))
    }
}

extension UnsafeMutableBufferPointer {
    func toFfiSlice() -> {{.String.SliceWire}} {
        {{.String.SliceWire}}(start: UnsafeMutableRawPointer(baseAddress), len: UInt(count))
    }
}
{{range .Primitives}}
extension {{.Option}} {
    func intoSwiftRepr() -> Optional<{{.Managed}}> {
        if self.is_some {
            return self.val
        } else {
            return nil
        }
    }
}

extension Optional where Wrapped == {{.Managed}} {
    func intoFfiRepr() -> {{.Option}} {
        {{.Option}}(val: self ?? {{.Placeholder}}, is_some: self != nil)
    }
}
{{end}}
{{- range .Vecs}}{{template "vectorizable" .}}{{end}}`

const coreHeaderSource = `// {{.Generated}}
// C declarations of the runtime support.
#pragma once
#include <stdint.h>
#include <stdbool.h>

typedef struct {{.String.StrWire}} { uint8_t* start; uintptr_t len; } {{.String.StrWire}};
typedef struct {{.String.SliceWire}} { void* start; uintptr_t len; } {{.String.SliceWire}};
typedef struct {{.String.ResultWire}} { bool is_ok; void* ok_or_err; } {{.String.ResultWire}};
{{range .Primitives}}
typedef struct {{.Option}} { {{.C}} val; bool is_some; } {{.Option}};
{{- end}}
{{range .String.Prototypes}}
{{.}}
{{- end}}
{{range .Prototypes}}
{{.}}
{{- end}}
`

var (
	coreSystemsTemplate = template.Must(template.New("core_systems").Funcs(funcs).Parse(coreSystemsSource))

	coreManagedTemplate = template.Must(template.Must(
		template.New("core_managed").Funcs(funcs).Parse(coreManagedSource)).
		Parse(vectorizableSource))

	coreHeaderTemplate = template.Must(template.New("core_header").Funcs(funcs).Parse(coreHeaderSource))
)
