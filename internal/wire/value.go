package wire

// Value is a Go value of a bridged type.
//
//	Primitive      uint8 ... int64, float32, float64, bool; usize and isize
//	               are uint64 and int64
//	()             Unit
//	&str, String   string
//	&[T], Vec<T>   []Value
//	Option<T>      Option
//	Result<T, E>   Result
//	*const T       Address
//	tuple, struct  Record
//	enum           Variant
//	opaque         any value; []byte of the declared size for copy types
type Value any

// Unit is the only value of ().
type Unit struct{}

// Option is a present or absent value.
type Option struct {
	Some  bool
	Value Value
}

// Some returns a present option holding v.
func Some(v Value) Option { return Option{Some: true, Value: v} }

// None is the absent option.
var None = Option{}

// Result is an Ok or Err value.
type Result struct {
	Ok    bool
	Value Value
}

// Ok returns a successful result.
func Ok(v Value) Result { return Result{Ok: true, Value: v} }

// Err returns a failed result.
func Err(v Value) Result { return Result{Value: v} }

// Address is a raw pointer value.
type Address uint64

// Record holds the elements of a tuple or the fields of a struct in order.
type Record []Value

// Variant is one alternative of an enum with its fields.
type Variant struct {
	Index  int
	Fields Record
}
