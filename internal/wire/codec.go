package wire

import (
	"encoding/binary"
	"math"

	"bridgegen/internal/bridged"
	"bridgegen/internal/composite"
	"bridgegen/internal/errors"
	"bridgegen/internal/layout"
	"bridgegen/primitive"
)

const wordSize = 8

// ErrValueMismatch is returned when a value does not fit its bridged type.
var ErrValueMismatch = errors.New("value does not match type")

// Codec converts values to and from their wire bytes. It is not safe for
// concurrent use; the heap it allocates from is.
type Codec struct {
	heap   *Heap
	layout *layout.Calculator
}

// NewCodec returns a codec boxing heap data in heap.
func NewCodec(heap *Heap) *Codec {
	return &Codec{heap: heap, layout: layout.NewCalculator()}
}

// Heap returns the heap the codec allocates from.
func (c *Codec) Heap() *Heap { return c.heap }

// Size returns the number of wire bytes of t.
func (c *Codec) Size(t bridged.Type) int {
	return c.layout.Calculate(t).Size
}

// Lower encodes v as the wire bytes of t. Strings, sequences and owned
// opaque values are boxed on the heap.
func (c *Codec) Lower(t bridged.Type, v Value) ([]byte, error) {
	buf := make([]byte, c.Size(t))
	if err := c.put(t, v, buf); err != nil {
		return nil, errors.Wrapf(err, "lowering %s", t)
	}

	return buf, nil
}

// Lift decodes the wire bytes of t. Owned heap data is freed; borrowed data
// stays with its owner.
func (c *Codec) Lift(t bridged.Type, b []byte) (Value, error) {
	size := c.Size(t)
	if len(b) < size {
		return nil, errors.Newf("lifting %s: need %d bytes, have %d", t, size, len(b))
	}

	v, err := c.get(t, b[:size])
	if err != nil {
		return nil, errors.Wrapf(err, "lifting %s", t)
	}

	return v, nil
}

func (c *Codec) put(t bridged.Type, v Value, buf []byte) error {
	return bridged.Visit[error](t, lowerer{c: c, v: v, buf: buf})
}

func (c *Codec) get(t bridged.Type, buf []byte) (Value, error) {
	r := bridged.Visit[lifted](t, lifter{c: c, buf: buf})
	return r.v, r.err
}

func mismatch(t bridged.Type, v Value) error {
	return errors.Wrapf(ErrValueMismatch, "%T for %s", v, t)
}

func putBits(buf []byte, size int, bits uint64) {
	var tmp [8]byte

	binary.LittleEndian.PutUint64(tmp[:], bits)
	copy(buf[:size], tmp[:size])
}

func readBits(buf []byte, size int) uint64 {
	var tmp [8]byte

	copy(tmp[:size], buf[:size])

	return binary.LittleEndian.Uint64(tmp[:])
}

func putWord(buf []byte, w uint64) { binary.LittleEndian.PutUint64(buf[:wordSize], w) }

func readWord(buf []byte) uint64 { return binary.LittleEndian.Uint64(buf[:wordSize]) }

func bitsOf(k primitive.KindEnum, v Value) (uint64, bool) {
	switch k {
	case primitive.KindU8:
		x, ok := v.(uint8)
		return uint64(x), ok
	case primitive.KindI8:
		x, ok := v.(int8)
		return uint64(x), ok
	case primitive.KindU16:
		x, ok := v.(uint16)
		return uint64(x), ok
	case primitive.KindI16:
		x, ok := v.(int16)
		return uint64(x), ok
	case primitive.KindU32:
		x, ok := v.(uint32)
		return uint64(x), ok
	case primitive.KindI32:
		x, ok := v.(int32)
		return uint64(x), ok
	case primitive.KindU64, primitive.KindUsize:
		x, ok := v.(uint64)
		return x, ok
	case primitive.KindI64, primitive.KindIsize:
		x, ok := v.(int64)
		return uint64(x), ok
	case primitive.KindF32:
		x, ok := v.(float32)
		return uint64(math.Float32bits(x)), ok
	case primitive.KindF64:
		x, ok := v.(float64)
		return math.Float64bits(x), ok
	case primitive.KindBool:
		x, ok := v.(bool)
		if x {
			return 1, ok
		}

		return 0, ok
	default:
		return 0, false
	}
}

func valueOf(k primitive.KindEnum, bits uint64) Value {
	switch k {
	case primitive.KindU8:
		return uint8(bits)
	case primitive.KindI8:
		return int8(bits)
	case primitive.KindU16:
		return uint16(bits)
	case primitive.KindI16:
		return int16(bits)
	case primitive.KindU32:
		return uint32(bits)
	case primitive.KindI32:
		return int32(bits)
	case primitive.KindU64, primitive.KindUsize:
		return bits
	case primitive.KindI64, primitive.KindIsize:
		return int64(bits)
	case primitive.KindF32:
		return math.Float32frombits(uint32(bits))
	case primitive.KindF64:
		return math.Float64frombits(bits)
	case primitive.KindBool:
		return bits != 0
	default:
		panic("internal error: invalid primitive kind " + k.String())
	}
}

// zero is the value a tag-only or nullable representation stands for.
func zero(t bridged.Type) Value {
	if _, ok := t.(bridged.Product); ok {
		return Record{}
	}

	return Unit{}
}

// placeholder fills the payload slot of an absent tagged optional the way the
// generated glue does. Non-primitive slots stay zeroed.
func placeholder(inner bridged.Type, buf []byte) error {
	p, ok := inner.(bridged.Primitive)
	if !ok {
		return nil
	}

	bits, err := p.Of.ParseLiteral(p.Of.Placeholder())
	if err != nil {
		return errors.Wrapf(err, "placeholder for %s", p)
	}

	putBits(buf, p.Of.Size(), bits)

	return nil
}

// optionSlots returns the offsets of the presence flag and the payload of a
// tagged optional. Runtime-provided primitive optionals put the payload first.
func (c *Codec) optionSlots(inner bridged.Type) (tag, val int) {
	flag := bridged.Prim(primitive.KindBool)

	if _, ok := inner.(bridged.Primitive); ok {
		info := c.layout.Record([]bridged.Type{inner, flag})
		return info.Offsets[1], info.Offsets[0]
	}

	info := c.layout.Record([]bridged.Type{flag, inner})

	return info.Offsets[0], info.Offsets[1]
}

// sequence is the heap object behind a Vec.
type sequence struct {
	n    int
	data []byte
}

func (c *Codec) lowerElems(elem bridged.Type, elems []Value) ([]byte, error) {
	size := c.Size(elem)
	data := make([]byte, len(elems)*size)

	for i, e := range elems {
		if err := c.put(elem, e, data[i*size:(i+1)*size]); err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
	}

	return data, nil
}

func (c *Codec) liftElems(elem bridged.Type, data []byte, n int) ([]Value, error) {
	size := c.Size(elem)
	if n*size > len(data) {
		return nil, errors.Newf("%d elements of %d bytes exceed %d bytes", n, size, len(data))
	}

	out := make([]Value, n)

	for i := range out {
		v, err := c.get(elem, data[i*size:(i+1)*size])
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}

		out[i] = v
	}

	return out, nil
}

func (c *Codec) lowerRecord(t bridged.Type, types []bridged.Type, v Value, buf []byte) error {
	rec, ok := v.(Record)
	if !ok || len(rec) != len(types) {
		return mismatch(t, v)
	}

	offsets := c.layout.Record(types).Offsets

	for i, ft := range types {
		if err := c.put(ft, rec[i], buf[offsets[i]:]); err != nil {
			return errors.Wrapf(err, "field %d", i)
		}
	}

	return nil
}

func (c *Codec) liftRecord(types []bridged.Type, buf []byte) (Record, error) {
	offsets := c.layout.Record(types).Offsets
	rec := make(Record, len(types))

	for i, ft := range types {
		v, err := c.get(ft, buf[offsets[i]:])
		if err != nil {
			return nil, errors.Wrapf(err, "field %d", i)
		}

		rec[i] = v
	}

	return rec, nil
}

func fieldTypes(fields []bridged.FieldDecl) []bridged.Type {
	out := make([]bridged.Type, len(fields))
	for i, f := range fields {
		out[i] = f.Type
	}

	return out
}

func (c *Codec) borrowBytes(p Handle) ([]byte, error) {
	obj, err := c.heap.Borrow(p)
	if err != nil {
		return nil, err
	}

	data, ok := obj.([]byte)
	if !ok {
		return nil, errors.Newf("handle %#x holds %T, not bytes", uint64(p), obj)
	}

	return data, nil
}

type lowerer struct {
	c   *Codec
	v   Value
	buf []byte
}

func (l lowerer) VisitPrimitive(t bridged.Primitive) error {
	bits, ok := bitsOf(t.Of, l.v)
	if !ok {
		return mismatch(t, l.v)
	}

	putBits(l.buf, t.Of.Size(), bits)

	return nil
}

func (l lowerer) VisitNull(t bridged.Null) error {
	if _, ok := l.v.(Unit); !ok {
		return mismatch(t, l.v)
	}

	return nil
}

func (l lowerer) VisitStr(t bridged.Str) error {
	s, ok := l.v.(string)
	if !ok {
		return mismatch(t, l.v)
	}

	putWord(l.buf, uint64(l.c.heap.Box([]byte(s))))
	putWord(l.buf[wordSize:], uint64(len(s)))

	return nil
}

func (l lowerer) VisitString(t bridged.String) error {
	s, ok := l.v.(string)
	if !ok {
		return mismatch(t, l.v)
	}

	putWord(l.buf, uint64(l.c.heap.Box([]byte(s))))

	return nil
}

func (l lowerer) VisitSlice(t bridged.Slice) error {
	elems, ok := l.v.([]Value)
	if !ok {
		return mismatch(t, l.v)
	}

	data, err := l.c.lowerElems(t.Elem, elems)
	if err != nil {
		return err
	}

	putWord(l.buf, uint64(l.c.heap.Box(data)))
	putWord(l.buf[wordSize:], uint64(len(elems)))

	return nil
}

func (l lowerer) VisitSequence(t bridged.Sequence) error {
	elems, ok := l.v.([]Value)
	if !ok {
		return mismatch(t, l.v)
	}

	data, err := l.c.lowerElems(t.Elem, elems)
	if err != nil {
		return err
	}

	putWord(l.buf, uint64(l.c.heap.Box(&sequence{n: len(elems), data: data})))

	return nil
}

func (l lowerer) VisitOptional(t bridged.Optional) error {
	opt, ok := l.v.(Option)
	if !ok {
		return mismatch(t, l.v)
	}

	strategy, _ := composite.SelectOptional(t.Inner)

	switch strategy {
	case composite.OptionalTagOnly:
		if opt.Some {
			l.buf[0] = 1
		}

		return nil
	case composite.OptionalSentinelReuse:
		if !opt.Some {
			return nil
		}

		return l.c.put(t.Inner, opt.Value, l.buf)
	default:
		tag, val := l.c.optionSlots(t.Inner)
		if !opt.Some {
			return placeholder(t.Inner, l.buf[val:])
		}

		l.buf[tag] = 1

		return l.c.put(t.Inner, opt.Value, l.buf[val:])
	}
}

func (l lowerer) VisitResult(t bridged.Result) error {
	r, ok := l.v.(Result)
	if !ok {
		return mismatch(t, l.v)
	}

	arm := t.Err
	if r.Ok {
		arm = t.Ok
	}

	strategy, _ := composite.SelectResult(t.Ok, t.Err)

	switch strategy {
	case composite.ResultBoolOnly:
		if r.Ok {
			l.buf[0] = 1
		}

		return nil
	case composite.ResultPtrAndPtr:
		if r.Ok {
			l.buf[0] = 1
		}

		return l.c.put(arm, r.Value, l.buf[wordSize:])
	case composite.ResultNullablePointer:
		if r.Ok == composite.NullMeansOk(t) {
			return nil
		}

		return l.c.put(arm, r.Value, l.buf)
	default:
		tag := uint64(1)
		if r.Ok {
			tag = 0
		}

		putBits(l.buf, 4, tag)

		if bridged.ShapeOf(arm) == bridged.ShapeZeroByte {
			return nil
		}

		return l.c.put(arm, r.Value, l.buf[l.c.layout.Calculate(t).Payload:])
	}
}

func (l lowerer) VisitPointer(t bridged.Pointer) error {
	a, ok := l.v.(Address)
	if !ok {
		return mismatch(t, l.v)
	}

	putWord(l.buf, uint64(a))

	return nil
}

func (l lowerer) VisitTuple(t bridged.Tuple) error {
	return l.c.lowerRecord(t, t.Elems, l.v, l.buf)
}

func (l lowerer) VisitOpaque(t bridged.Opaque) error {
	if !t.Inline() {
		putWord(l.buf, uint64(l.c.heap.Box(l.v)))
		return nil
	}

	b, ok := l.v.([]byte)
	if !ok || len(b) != t.Decl.InlineSize {
		return mismatch(t, l.v)
	}

	copy(l.buf, b)

	return nil
}

func (l lowerer) VisitProduct(t bridged.Product) error {
	if len(t.Decl.Fields) == 0 {
		if rec, ok := l.v.(Record); !ok || len(rec) != 0 {
			return mismatch(t, l.v)
		}

		return nil
	}

	return l.c.lowerRecord(t, fieldTypes(t.Decl.Fields), l.v, l.buf)
}

func (l lowerer) VisitSum(t bridged.Sum) error {
	variant, ok := l.v.(Variant)
	if !ok || variant.Index < 0 || variant.Index >= len(t.Decl.Variants) {
		return mismatch(t, l.v)
	}

	putBits(l.buf, 4, uint64(variant.Index))

	vd := &t.Decl.Variants[variant.Index]
	if !vd.HasData() {
		return nil
	}

	payload := l.c.layout.Calculate(t).Payload

	return errors.Wrapf(l.c.lowerRecord(t, fieldTypes(vd.Fields), variant.Fields, l.buf[payload:]), "variant %s", vd.Name)
}

type lifted struct {
	v   Value
	err error
}

func fail(err error) lifted { return lifted{err: err} }

func lift(v Value, err error) lifted { return lifted{v: v, err: err} }

type lifter struct {
	c   *Codec
	buf []byte
}

func (l lifter) VisitPrimitive(t bridged.Primitive) lifted {
	return lifted{v: valueOf(t.Of, readBits(l.buf, t.Of.Size()))}
}

func (l lifter) VisitNull(bridged.Null) lifted { return lifted{v: Unit{}} }

func (l lifter) VisitStr(bridged.Str) lifted {
	data, err := l.c.borrowBytes(Handle(readWord(l.buf)))
	if err != nil {
		return fail(err)
	}

	n := readWord(l.buf[wordSize:])
	if n > uint64(len(data)) {
		return fail(errors.Newf("str length %d exceeds %d bytes", n, len(data)))
	}

	return lifted{v: string(data[:n])}
}

func (l lifter) VisitString(bridged.String) lifted {
	p := Handle(readWord(l.buf))

	obj, err := l.c.heap.Take(p)
	if err != nil {
		return fail(err)
	}

	data, ok := obj.([]byte)
	if !ok {
		return fail(errors.Newf("handle %#x holds %T, not a string", uint64(p), obj))
	}

	return lifted{v: string(data)}
}

func (l lifter) VisitSlice(t bridged.Slice) lifted {
	data, err := l.c.borrowBytes(Handle(readWord(l.buf)))
	if err != nil {
		return fail(err)
	}

	return lift(l.c.liftElems(t.Elem, data, int(readWord(l.buf[wordSize:]))))
}

func (l lifter) VisitSequence(t bridged.Sequence) lifted {
	p := Handle(readWord(l.buf))

	obj, err := l.c.heap.Take(p)
	if err != nil {
		return fail(err)
	}

	seq, ok := obj.(*sequence)
	if !ok {
		return fail(errors.Newf("handle %#x holds %T, not a Vec", uint64(p), obj))
	}

	return lift(l.c.liftElems(t.Elem, seq.data, seq.n))
}

func (l lifter) VisitOptional(t bridged.Optional) lifted {
	strategy, _ := composite.SelectOptional(t.Inner)

	switch strategy {
	case composite.OptionalTagOnly:
		if l.buf[0] == 0 {
			return lifted{v: None}
		}

		return lifted{v: Some(zero(t.Inner))}
	case composite.OptionalSentinelReuse:
		if readWord(l.buf) == 0 {
			return lifted{v: None}
		}

		v, err := l.c.get(t.Inner, l.buf)
		if err != nil {
			return fail(err)
		}

		return lifted{v: Some(v)}
	default:
		tag, val := l.c.optionSlots(t.Inner)
		if l.buf[tag] == 0 {
			return lifted{v: None}
		}

		v, err := l.c.get(t.Inner, l.buf[val:])
		if err != nil {
			return fail(err)
		}

		return lifted{v: Some(v)}
	}
}

func (l lifter) VisitResult(t bridged.Result) lifted {
	result := func(ok bool, arm bridged.Type, buf []byte) lifted {
		v, err := l.c.get(arm, buf)
		if err != nil {
			return fail(err)
		}

		return lifted{v: Result{Ok: ok, Value: v}}
	}

	strategy, _ := composite.SelectResult(t.Ok, t.Err)

	switch strategy {
	case composite.ResultBoolOnly:
		if l.buf[0] != 0 {
			return lifted{v: Ok(zero(t.Ok))}
		}

		return lifted{v: Err(zero(t.Err))}
	case composite.ResultPtrAndPtr:
		if l.buf[0] != 0 {
			return result(true, t.Ok, l.buf[wordSize:])
		}

		return result(false, t.Err, l.buf[wordSize:])
	case composite.ResultNullablePointer:
		nullOk := composite.NullMeansOk(t)

		if readWord(l.buf) == 0 {
			if nullOk {
				return lifted{v: Ok(zero(t.Ok))}
			}

			return lifted{v: Err(zero(t.Err))}
		}

		if nullOk {
			return result(false, t.Err, l.buf)
		}

		return result(true, t.Ok, l.buf)
	default:
		ok, arm := true, t.Ok

		switch readBits(l.buf, 4) {
		case 0:
		case 1:
			ok, arm = false, t.Err
		default:
			return fail(errors.Newf("invalid result tag %d", readBits(l.buf, 4)))
		}

		if bridged.ShapeOf(arm) == bridged.ShapeZeroByte {
			return lifted{v: Result{Ok: ok, Value: zero(arm)}}
		}

		return result(ok, arm, l.buf[l.c.layout.Calculate(t).Payload:])
	}
}

func (l lifter) VisitPointer(bridged.Pointer) lifted {
	return lifted{v: Address(readWord(l.buf))}
}

func (l lifter) VisitTuple(t bridged.Tuple) lifted {
	return lift(l.c.liftRecord(t.Elems, l.buf))
}

func (l lifter) VisitOpaque(t bridged.Opaque) lifted {
	if t.Inline() {
		b := make([]byte, t.Decl.InlineSize)
		copy(b, l.buf)

		return lifted{v: b}
	}

	p := Handle(readWord(l.buf))
	if t.Mode == bridged.Owned {
		return lift(l.c.heap.Take(p))
	}

	return lift(l.c.heap.Borrow(p))
}

func (l lifter) VisitProduct(t bridged.Product) lifted {
	if len(t.Decl.Fields) == 0 {
		return lifted{v: Record{}}
	}

	return lift(l.c.liftRecord(fieldTypes(t.Decl.Fields), l.buf))
}

func (l lifter) VisitSum(t bridged.Sum) lifted {
	index := int(readBits(l.buf, 4))
	if index >= len(t.Decl.Variants) {
		return fail(errors.Newf("invalid %s tag %d", t, index))
	}

	vd := &t.Decl.Variants[index]
	if !vd.HasData() {
		return lifted{v: Variant{Index: index}}
	}

	fields, err := l.c.liftRecord(fieldTypes(vd.Fields), l.buf[l.c.layout.Calculate(t).Payload:])
	if err != nil {
		return fail(errors.Wrapf(err, "variant %s", vd.Name))
	}

	return lifted{v: Variant{Index: index, Fields: fields}}
}
