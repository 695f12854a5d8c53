package meta

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soypat/go-ccpp/dialect"
	"github.com/soypat/go-ccpp/ir"
)

func schemeProps(t *testing.T) *TableProperties {
	t.Helper()
	p := NewTableProperties("A", dialect.KindScheme)
	p.Dependencies = []string{"machine.F90"}
	p.RelativePath = "physics"
	initTable := NewArgumentTable("A_init", dialect.KindScheme)
	require.NoError(t, initTable.Add(&Argument{Name: "x", Type: "real", Kind: "kind_phys", Intent: IntentIn, Units: "K", StandardName: "air_temperature"}))
	require.NoError(t, initTable.Add(&Argument{Name: "msg", Type: "character", Kind: "len=512", Intent: IntentOut}))
	require.NoError(t, initTable.Add(&Argument{Name: "errflg", Type: "integer", Intent: IntentOut, Optional: true}))
	require.NoError(t, p.AddTable(initTable))
	fin := NewArgumentTable("A_finalize", dialect.KindScheme)
	require.NoError(t, fin.Add(&Argument{Name: "errflg", Type: "integer"}))
	require.NoError(t, p.AddTable(fin))
	return p
}

func TestDuplicates(t *testing.T) {
	p := schemeProps(t)
	tbl, _ := p.Table("A_init")
	err := tbl.Add(&Argument{Name: "x", Type: "real"})
	assert.True(t, errors.Is(err, ErrDuplicate))
	err = p.AddTable(NewArgumentTable("A_init", dialect.KindScheme))
	assert.True(t, errors.Is(err, ErrDuplicate))

	md := NewMetadata()
	require.NoError(t, md.Add(p))
	err = md.Add(NewTableProperties("A", dialect.KindModule))
	assert.True(t, errors.Is(err, ErrDuplicate))
}

func TestArgTableLookup(t *testing.T) {
	md := NewMetadata()
	require.NoError(t, md.Add(schemeProps(t)))
	host := NewTableProperties("host", dialect.KindModule)
	require.NoError(t, host.AddTable(NewArgumentTable("B_init", dialect.KindScheme)))
	require.NoError(t, md.Add(host))

	tbl, err := md.ArgTable("A", "A_init")
	require.NoError(t, err)
	assert.Len(t, tbl.Args, 3)
	tbl, err = md.ArgTable("B", "B_init")
	require.NoError(t, err)
	assert.Equal(t, "B_init", tbl.Name)
	_, err = md.ArgTable("A", "A_run")
	assert.True(t, errors.Is(err, ErrMissingArgTable))
}

func TestIntent(t *testing.T) {
	cases := []struct {
		intent    Intent
		in, out   bool
		effective Intent
	}{
		0: {intent: IntentIn, in: true, effective: IntentIn},
		1: {intent: IntentOut, out: true, effective: IntentOut},
		2: {intent: IntentInOut, in: true, out: true, effective: IntentInOut},
		3: {intent: IntentUnspecified, in: true, out: true, effective: IntentInOut},
	}
	for i, c := range cases {
		a := &Argument{Name: "v", Type: "real", Intent: c.intent}
		if a.IsInput() != c.in || a.IsOutput() != c.out || a.EffectiveIntent() != c.effective {
			t.Errorf("case %d: got in=%v out=%v effective=%q", i, a.IsInput(), a.IsOutput(), a.EffectiveIntent())
		}
	}
	got, err := ParseIntent("INOUT")
	require.NoError(t, err)
	assert.Equal(t, IntentInOut, got)
	_, err = ParseIntent("sideways")
	assert.Error(t, err)
}

func TestArgumentType(t *testing.T) {
	cases := []struct {
		arg    Argument
		expect string
		err    error
	}{
		0: {arg: Argument{Type: "real", Kind: "kind_phys"}, expect: "memref<f64>"},
		1: {arg: Argument{Type: "integer"}, expect: "memref<i32>"},
		2: {arg: Argument{Type: "character", Kind: "len=8"}, expect: "memref<8xi8>"},
		3: {arg: Argument{Type: "character", Kind: "len = 16"}, expect: "memref<16xi8>"},
		4: {arg: Argument{Type: "character", Kind: "len=*"}, err: dialect.ErrDynamicExtent},
		5: {arg: Argument{Type: "character", Kind: "len=:"}, err: dialect.ErrDynamicExtent},
		6: {arg: Argument{Type: "character", Kind: "len=n"}, err: dialect.ErrDynamicExtent},
	}
	for i, c := range cases {
		c.arg.Name = "v"
		got, err := ArgumentType(&c.arg)
		if c.err != nil {
			if !errors.Is(err, c.err) {
				t.Errorf("case %d: expected %v, got %v", i, c.err, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("case %d: %v", i, err)
			continue
		}
		if got.String() != c.expect {
			t.Errorf("case %d: expected %s, got %s", i, c.expect, got)
		}
	}
	_, err := ArgumentType(&Argument{Name: "b", Type: "logical"})
	assert.ErrorContains(t, err, "unknown metadata type")
}

func TestSignature(t *testing.T) {
	p := schemeProps(t)
	tbl, _ := p.Table("A_init")
	ft, err := Signature(tbl)
	require.NoError(t, err)
	assert.Equal(t, "(memref<f64>) -> (memref<512xi8>, memref<i32>)", ft.String())

	fin, _ := p.Table("A_finalize")
	ft, err = Signature(fin)
	require.NoError(t, err)
	assert.Equal(t, "(memref<i32>) -> (memref<i32>)", ft.String())
}

func TestSameType(t *testing.T) {
	assert.True(t, SameType(&Argument{Type: "real", Kind: "kind_phys"}, &Argument{Type: "REAL", Kind: "kind_phys"}))
	assert.True(t, SameType(&Argument{Type: "character", Kind: "len=8"}, &Argument{Type: "character", Kind: "len = 8"}))
	assert.False(t, SameType(&Argument{Type: "real"}, &Argument{Type: "integer"}))
	assert.False(t, SameType(&Argument{Type: "character", Kind: "len=8"}, &Argument{Type: "character", Kind: "len=9"}))
}

func TestRecoverMetadata(t *testing.T) {
	want := schemeProps(t)
	tpop, err := TablePropertiesOp(want)
	require.NoError(t, err)
	require.NoError(t, dialect.Verify(tpop.Operation))
	mod := dialect.NewModule("ccpp", tpop.Operation)

	md, err := BuildMetadata(mod.Operation)
	require.NoError(t, err)
	got, ok := md.Get("A")
	require.True(t, ok)
	opts := cmpopts.IgnoreUnexported(TableProperties{}, ArgumentTable{})
	if diff := cmp.Diff(want, got, opts); diff != "" {
		t.Errorf("recovered metadata mismatch (-want +got):\n%s", diff)
	}
	tbl, err := md.ArgTable("A", "A_init")
	require.NoError(t, err)
	_, ok = tbl.Arg("errflg")
	assert.True(t, ok, "index must be rebuilt on recovery")
}

func TestRecoverMetadataErrors(t *testing.T) {
	a := NewTableProperties("A", dialect.KindScheme)
	op1, err := TablePropertiesOp(a)
	require.NoError(t, err)
	op2, err := TablePropertiesOp(a)
	require.NoError(t, err)
	bad, err := dialect.NewArg("v", "real", map[string]string{dialect.PropIntent: "sideways"}, false)
	require.NoError(t, err)
	badTable := dialect.NewTableProperties("B", dialect.KindScheme, nil, "", dialect.NewArgTable("B_run", dialect.KindScheme, bad))
	mod := dialect.NewModule("", op1.Operation, op2.Operation, badTable.Operation)

	_, err = BuildMetadata(mod.Operation)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.ErrorContains(t, err, "unknown intent")
}

func TestRecoverSuites(t *testing.T) {
	want := &Suite{Name: "S", Version: "1.0", Groups: []Group{
		{Name: "g1", Schemes: []Scheme{{Name: "A"}, {Name: "B"}}},
		{Name: "g2", Schemes: []Scheme{{Name: "C"}}},
	}}
	other := &Suite{Name: "T", Groups: []Group{{Name: "g", Schemes: []Scheme{{Name: "A"}}}}}
	mod := dialect.NewModule("ccpp", SuiteOp(want).Operation, SuiteOp(other).Operation)

	suites, err := BuildSuites(mod.Operation)
	require.NoError(t, err)
	require.Len(t, suites.List(), 2)
	got, ok := suites.Get("S")
	require.True(t, ok)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("suite mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"A", "B", "C"}, got.SchemeNames())
	_, ok = suites.Get("U")
	assert.False(t, ok)
}

func TestGatherSignatures(t *testing.T) {
	decl := dialect.NewDeclaration("A_init", ir.FunctionType{Outputs: []ir.Type{ir.MemRefType{Elem: ir.I32}}})
	def := dialect.NewFunc("S_suite_init", ir.FunctionType{}, func(b *ir.Block) { b.AddOp(dialect.NewReturn()) })
	mod := dialect.NewModule("", dialect.NewModule("ccpp", decl.Operation).Operation, def.Operation)
	sigs := GatherSignatures(mod.Operation)
	require.Len(t, sigs, 1)
	assert.Same(t, decl.Operation, sigs["A_init"].Operation)
}
