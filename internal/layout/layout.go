// Package layout computes the C layout of bridged types on the wire.
//
// Pointers are 8 bytes, enum tags are C enums of 4 bytes, records are padded
// to their largest member alignment. Only 64-bit targets are modelled.
package layout

import (
	"fmt"

	"bridgegen/internal/bridged"
	"bridgegen/internal/composite"
)

const (
	pointerSize = 8
	tagSize     = 4
)

// Info is the size and alignment of a wire type.
type Info struct {
	Size  int
	Align int
	// Offsets holds member offsets of record-shaped layouts (tuples,
	// products, tagged optionals, pointer pairs) in declaration order.
	Offsets []int
	// Payload is the offset of the union of a tagged layout.
	Payload int
}

// AlignTo rounds offset up to a multiple of align.
func AlignTo(offset, align int) int {
	if align <= 1 {
		return offset
	}

	return (offset + align - 1) / align * align
}

// Calculator computes and caches layouts keyed by canonical type.
type Calculator struct {
	cache   map[string]Info
	pending map[string]struct{}
}

func NewCalculator() *Calculator {
	return &Calculator{
		cache:   make(map[string]Info),
		pending: make(map[string]struct{}),
	}
}

// Calculate returns the layout of t. It panics on a type that embeds itself
// by value; such declarations are rejected before layout is requested.
func (c *Calculator) Calculate(t bridged.Type) Info {
	key := t.String()
	if cached, ok := c.cache[key]; ok {
		return cached
	}

	if _, ok := c.pending[key]; ok {
		panic(fmt.Sprintf("internal error: %s contains itself by value", key))
	}

	c.pending[key] = struct{}{}
	info := bridged.Visit[Info](t, c)
	delete(c.pending, key)

	c.cache[key] = info

	return info
}

// Record lays out members one after another.
func (c *Calculator) Record(members []bridged.Type) Info {
	infos := make([]Info, len(members))
	for i, m := range members {
		infos[i] = c.Calculate(m)
	}

	return record(infos)
}

func record(members []Info) Info {
	maxAlign := 1
	offset := 0
	offsets := make([]int, len(members))

	for i, m := range members {
		offset = AlignTo(offset, m.Align)
		offsets[i] = offset

		if m.Align > maxAlign {
			maxAlign = m.Align
		}

		offset += m.Size
	}

	return Info{Size: AlignTo(offset, maxAlign), Align: maxAlign, Offsets: offsets}
}

// tagged lays out a 4-byte tag followed by the union of payloads.
func tagged(payloads []Info) Info {
	maxAlign := tagSize
	maxSize := 0

	for _, p := range payloads {
		maxAlign = max(maxAlign, p.Align)
		maxSize = max(maxSize, p.Size)
	}

	if maxSize == 0 {
		return Info{Size: tagSize, Align: tagSize}
	}

	payload := AlignTo(tagSize, maxAlign)

	return Info{Size: AlignTo(payload+maxSize, maxAlign), Align: maxAlign, Payload: payload}
}

func scalar(size int) Info {
	return Info{Size: size, Align: size}
}

func (c *Calculator) VisitPrimitive(t bridged.Primitive) Info { return scalar(t.Of.Size()) }
func (c *Calculator) VisitNull(bridged.Null) Info             { return Info{Size: 0, Align: 1} }

func (c *Calculator) VisitStr(bridged.Str) Info {
	return record([]Info{scalar(pointerSize), scalar(pointerSize)})
}

func (c *Calculator) VisitString(bridged.String) Info     { return scalar(pointerSize) }
func (c *Calculator) VisitSequence(bridged.Sequence) Info { return scalar(pointerSize) }
func (c *Calculator) VisitPointer(bridged.Pointer) Info   { return scalar(pointerSize) }

func (c *Calculator) VisitSlice(bridged.Slice) Info {
	return record([]Info{scalar(pointerSize), scalar(pointerSize)})
}

func (c *Calculator) VisitOptional(t bridged.Optional) Info {
	strategy, _ := composite.SelectOptional(t.Inner)

	switch strategy {
	case composite.OptionalTagOnly:
		return scalar(1)
	case composite.OptionalSentinelReuse:
		return c.Calculate(t.Inner)
	default:
		return record([]Info{scalar(1), c.Calculate(t.Inner)})
	}
}

func (c *Calculator) VisitResult(t bridged.Result) Info {
	strategy, _ := composite.SelectResult(t.Ok, t.Err)

	switch strategy {
	case composite.ResultBoolOnly:
		return scalar(1)
	case composite.ResultPtrAndPtr:
		return record([]Info{scalar(1), scalar(pointerSize)})
	case composite.ResultNullablePointer:
		return scalar(pointerSize)
	default:
		return tagged([]Info{c.Calculate(t.Ok), c.Calculate(t.Err)})
	}
}

func (c *Calculator) VisitTuple(t bridged.Tuple) Info { return c.Record(t.Elems) }

func (c *Calculator) VisitOpaque(t bridged.Opaque) Info {
	if t.Inline() {
		return Info{Size: t.Decl.InlineSize, Align: 1}
	}

	return scalar(pointerSize)
}

func (c *Calculator) VisitProduct(t bridged.Product) Info {
	if len(t.Decl.Fields) == 0 {
		// uint8_t _private
		return scalar(1)
	}

	return c.Record(fieldTypes(t.Decl.Fields))
}

func (c *Calculator) VisitSum(t bridged.Sum) Info {
	payloads := make([]Info, 0, len(t.Decl.Variants))

	for i := range t.Decl.Variants {
		if v := &t.Decl.Variants[i]; v.HasData() {
			payloads = append(payloads, c.Record(fieldTypes(v.Fields)))
		}
	}

	return tagged(payloads)
}

// Variant returns the layout of the field struct of a data-bearing variant.
func (c *Calculator) Variant(v *bridged.VariantDecl) Info {
	return c.Record(fieldTypes(v.Fields))
}

func fieldTypes(fields []bridged.FieldDecl) []bridged.Type {
	types := make([]bridged.Type, len(fields))
	for i, f := range fields {
		if f.Type == nil {
			panic("internal error: field " + f.Name + " used before classification")
		}

		types[i] = f.Type
	}

	return types
}

// StaticAssert returns a C11 assertion pinning the size of a wire struct.
func StaticAssert(cName string, size int) string {
	return fmt.Sprintf("_Static_assert(sizeof(%s) == %d, %q);", cName, size, "layout of "+cName)
}
