package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soypat/go-ccpp/ir"
)

func TestParseTableKind(t *testing.T) {
	for _, s := range []string{"scheme", "Scheme", "MODULE", "ddt"} {
		if _, err := ParseTableKind(s); err != nil {
			t.Errorf("%q: %v", s, err)
		}
	}
	if _, err := ParseTableKind("host"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestSuiteViews(t *testing.T) {
	s := NewSuite("S", "1.0", NewGroup("physics", "A", "B"), NewGroup("radiation", "C"))
	require.NoError(t, Verify(s.Operation))
	assert.Equal(t, "S", s.SuiteName())
	assert.Equal(t, "1.0", s.Version())
	var schemes []string
	for _, gop := range s.Body().Ops() {
		g, ok := AsGroup(gop)
		require.True(t, ok)
		for _, sop := range g.Body().Ops() {
			schemes = append(schemes, SchemeName(sop))
		}
	}
	assert.Equal(t, []string{"A", "B", "C"}, schemes)

	_, ok := AsModule(s.Operation)
	assert.False(t, ok)
}

func TestArgProperties(t *testing.T) {
	a, err := NewArg("x", "real", map[string]string{PropIntent: "in", PropUnits: "K", PropLongName: ""}, true)
	require.NoError(t, err)
	assert.Equal(t, "x", a.ArgName())
	assert.Equal(t, "real", a.ArgType())
	intent, ok := a.Attr(PropIntent)
	assert.True(t, ok)
	assert.Equal(t, "in", intent)
	_, ok = a.Attr(PropLongName)
	assert.False(t, ok, "empty properties are omitted")
	assert.True(t, a.Optional())

	_, err = NewArg("x", "real", map[string]string{"colour": "red"}, false)
	assert.Error(t, err)
}

func TestTablePropertiesDependencies(t *testing.T) {
	errflg, err := NewArg("errflg", "integer", map[string]string{PropIntent: "out"}, false)
	require.NoError(t, err)
	tp := NewTableProperties("A", KindScheme, []string{"a.F90", "b.F90"}, "physics", NewArgTable("A_init", KindScheme, errflg))
	require.NoError(t, Verify(tp.Operation))
	assert.Equal(t, []string{"a.F90", "b.F90"}, tp.Dependencies())
	assert.Equal(t, "physics", tp.RelativePath())
	assert.Equal(t, KindScheme, tp.Kind())
}

func TestFuncVerify(t *testing.T) {
	ft := ir.FunctionType{Outputs: []ir.Type{ir.MemRefType{Elem: ir.I32}}}
	fn := NewFunc("f", ft, func(body *ir.Block) {
		slot := NewAlloca(ir.MemRefType{Elem: ir.I32}, "errflg")
		zero := NewIntConstant(0, 32)
		body.AddOp(slot, zero, NewStore(zero.Result(0), slot.Result(0)))
		load, err := NewLoad(slot.Result(0))
		require.NoError(t, err)
		cmp := NewCmpI(CmpIEq, load.Result(0), zero.Result(0))
		then := ir.NewBlock()
		then.AddOp(NewYield())
		body.AddOp(load, cmp, NewIf(cmp.Result(0), then, nil).Operation, NewReturn(slot.Result(0)))
	})
	mod := NewModule("m", fn.Operation, NewDeclaration("g", ir.FunctionType{}).Operation)
	require.NoError(t, Verify(mod.Operation))
	assert.False(t, fn.IsDeclaration())
	assert.Equal(t, "f", fn.SymName())

	got, ok := FindModule(NewModule("", mod.Operation), "m")
	require.True(t, ok)
	assert.Same(t, mod.Operation, got.Operation)

	// A function returning the wrong types fails verification.
	bad := NewFunc("bad", ft, func(body *ir.Block) { body.AddOp(NewReturn()) })
	assert.Error(t, Verify(bad.Operation))
}

func TestVerifyRejectsBadPredicate(t *testing.T) {
	c := NewIntConstant(1, 32)
	cmp := NewCmpI("approx", c.Result(0), c.Result(0))
	mod := NewModule("", c, cmp)
	assert.ErrorContains(t, Verify(mod.Operation), "unknown predicate")
}

func TestNewBinary(t *testing.T) {
	a := NewIntConstant(1, 32)
	b := NewIntConstant(2, 64)
	_, err := NewBinary(AddI, a.Result(0), b.Result(0))
	assert.Error(t, err)
	_, err = NewBinary("arith.pow", a.Result(0), a.Result(0))
	assert.Error(t, err)
	add, err := NewBinary(AddI, a.Result(0), a.Result(0))
	require.NoError(t, err)
	assert.Equal(t, "i32", add.Result(0).Type().String())
}
