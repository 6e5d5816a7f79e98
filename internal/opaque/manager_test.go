package opaque_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridgegen/internal/bridged"
	"bridgegen/internal/composite"
	"bridgegen/internal/naming"
	"bridgegen/internal/opaque"
	"bridgegen/internal/repr"
	"bridgegen/primitive"
)

type fixture struct {
	c   *bridged.Classifier
	mgr *opaque.Manager
}

func newFixture(t *testing.T, decls ...*bridged.OpaqueDecl) *fixture {
	t.Helper()

	table := bridged.NewTable()
	synth := repr.NewSynthesizer(naming.New(""), "", repr.NewRegistry())
	mgr := opaque.NewManager(synth, nil)

	for _, d := range decls {
		require.NoError(t, table.AddOpaque(d))
		mgr.Declare(d)
	}

	return &fixture{c: bridged.NewClassifier(table), mgr: mgr}
}

func (f *fixture) observe(t *testing.T, srcs ...string) {
	t.Helper()

	for _, src := range srcs {
		typ, err := f.c.ClassifyString(src)
		require.NoError(t, err, src)
		f.mgr.Observe(typ)
	}
}

func kinds(eps []opaque.EntryPoint) []string {
	out := make([]string, len(eps))
	for i, ep := range eps {
		out[i] = ep.Kind.String() + " " + ep.Name
	}

	return out
}

func TestFreeEntryPointOnlyForOwnedSystemsTypes(t *testing.T) {
	t.Parallel()

	f := newFixture(t,
		&bridged.OpaqueDecl{Name: "Owned"},
		&bridged.OpaqueDecl{Name: "BorrowedOnly"},
		&bridged.OpaqueDecl{Name: "Inline", InlineSize: 4},
		&bridged.OpaqueDecl{Name: "Elsewhere", AlreadyDeclared: true},
		&bridged.OpaqueDecl{Name: "Callback", Side: bridged.SideManaged},
	)

	f.observe(t, "Option<Owned>", "Vec<Owned>", "&BorrowedOnly", "&mut BorrowedOnly", "Inline", "Elsewhere", "Callback")

	assert.Equal(t, opaque.HasFreeEntryPoint, f.mgr.State("Owned"))
	assert.Equal(t, opaque.Declared, f.mgr.State("BorrowedOnly"))
	assert.Equal(t, opaque.Declared, f.mgr.State("Inline"))
	assert.Equal(t, opaque.Declared, f.mgr.State("Elsewhere"))
	assert.Equal(t, opaque.Declared, f.mgr.State("Callback"))

	assert.Equal(t, []string{"free __swift_bridge__$Owned$_free"}, kinds(f.mgr.EntryPoints("Owned")))
	assert.Empty(t, f.mgr.EntryPoints("BorrowedOnly"))
	assert.Empty(t, f.mgr.EntryPoints("Inline"))
	assert.Empty(t, f.mgr.EntryPoints("Elsewhere"))

	release := f.mgr.EntryPoints("Callback")
	require.Len(t, release, 1)
	assert.Equal(t, opaque.EntryRelease, release[0].Kind)
	assert.Equal(t, bridged.SideManaged, release[0].Definer)
	assert.Equal(t, "__swift_bridge__$Callback$_free", release[0].Name)
	assert.True(t, release[0].Void())
}

func TestFreeEnteredOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &bridged.OpaqueDecl{Name: "Handle"})
	f.observe(t, "Handle", "Handle", "Result<Handle, String>")

	var frees int

	for _, ep := range f.mgr.EntryPoints("Handle") {
		if ep.Kind == opaque.EntryFree {
			frees++
		}
	}

	assert.Equal(t, 1, frees)
}

func TestUses(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &bridged.OpaqueDecl{Name: "Handle"})
	f.observe(t, "&mut Handle", "(u8, &Handle)")

	assert.Equal(t, []bridged.RefMode{bridged.Borrowed, bridged.BorrowedMut}, f.mgr.Uses("Handle"))
	assert.Nil(t, f.mgr.Uses("Missing"))
}

func TestMethodsAndDerives(t *testing.T) {
	t.Parallel()

	d := &bridged.OpaqueDecl{Name: "Counter", Equatable: true, Hashable: true}
	f := newFixture(t, d)

	d.Methods = []*bridged.Signature{
		{Name: "new", Init: true, Return: bridged.Opaque{Decl: d}},
		{Name: "value", Receiver: bridged.ReceiverRef, Return: bridged.Prim(primitive.KindU32)},
		{Name: "consume", Receiver: bridged.ReceiverOwned, Return: bridged.Null{}},
	}

	for _, sig := range d.Methods {
		f.mgr.ObserveSignature("Counter", sig)
	}

	eps := f.mgr.EntryPoints("Counter")
	want := []string{
		"free __swift_bridge__$Counter$_free",
		"partial_eq __swift_bridge__$Counter$_partial_eq",
		"hash __swift_bridge__$Counter$_hash",
		"method __swift_bridge__$Counter$new",
		"method __swift_bridge__$Counter$value",
		"method __swift_bridge__$Counter$consume",
	}

	if diff := cmp.Diff(want, kinds(eps)); diff != "" {
		t.Errorf("EntryPoints mismatch (-want +got):\n%s", diff)
	}

	assert.Empty(t, eps[3].Params)
	assert.Equal(t, "void*", eps[3].Return.C)

	require.Len(t, eps[4].Params, 1)
	assert.Equal(t, "this", eps[4].Params[0].Name)
	assert.Equal(t, repr.Borrowed, eps[4].Params[0].Wire.Ownership)

	assert.Equal(t, repr.Moved, eps[5].Params[0].Wire.Ownership)
	assert.True(t, eps[5].Void())

	assert.Equal(t, "bool", eps[1].Return.C)
	assert.Equal(t, "uint64_t", eps[2].Return.C)
}

func TestVecEntryPoints(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &bridged.OpaqueDecl{Name: "Handle"})

	typ, err := f.c.ClassifyString("Handle")
	require.NoError(t, err)

	eps := f.mgr.VecEntryPoints(composite.NewSequencePolicy(typ))
	require.Len(t, eps, len(composite.VecOps))

	names := make([]string, len(eps))
	for i, ep := range eps {
		names[i] = ep.Name
		assert.Equal(t, opaque.EntryVecOp, ep.Kind)
	}

	assert.Equal(t, "__swift_bridge__$Vec_Handle$new", names[0])
	assert.Equal(t, "__swift_bridge__$Vec_Handle$as_ptr", names[7])

	get := eps[3]
	assert.Equal(t, "*const super::Handle", get.Return.Rust)
	assert.True(t, get.Return.Nullable)

	pop := eps[6]
	assert.Equal(t, "*mut super::Handle", pop.Return.Rust)
	assert.Equal(t, repr.Moved, pop.Return.Ownership)

	u8s := f.mgr.VecEntryPoints(composite.NewSequencePolicy(bridged.Prim(primitive.KindU8)))
	assert.Equal(t, "__swift_bridge__$Vec_u8$get", u8s[3].Name)
	assert.Equal(t, "struct __private__OptionU8", u8s[3].Return.C)
	assert.Equal(t, "*const u8", u8s[7].Return.Rust)
}
