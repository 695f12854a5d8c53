package ftn

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soypat/go-ccpp/dialect"
	"github.com/soypat/go-ccpp/ir"
	"github.com/soypat/go-ccpp/meta"
	"github.com/soypat/go-ccpp/transform"
)

func argTable(t *testing.T, name string, args ...*meta.Argument) *meta.ArgumentTable {
	t.Helper()
	tbl := meta.NewArgumentTable(name, dialect.KindScheme)
	for _, a := range args {
		require.NoError(t, tbl.Add(a))
	}
	return tbl
}

// suiteCAP generates the init subroutine of S = [A, B] and wraps it in
// module S_cap along with the scheme declarations.
func suiteCAP(t *testing.T) dialect.ModuleOp {
	t.Helper()
	md := meta.NewMetadata()
	sigs := make(map[string]dialect.FuncOp)
	for name, tbl := range map[string]*meta.ArgumentTable{
		"A": argTable(t, "A_init",
			&meta.Argument{Name: "x", Type: "real", Intent: meta.IntentIn},
			&meta.Argument{Name: "errflg", Type: "integer", Intent: meta.IntentOut}),
		"B": argTable(t, "B_init",
			&meta.Argument{Name: "x", Type: "real", Intent: meta.IntentIn},
			&meta.Argument{Name: "errflg", Type: "integer", Intent: meta.IntentOut},
			&meta.Argument{Name: "y", Type: "real", Intent: meta.IntentOut}),
	} {
		props := meta.NewTableProperties(name, dialect.KindScheme)
		require.NoError(t, props.AddTable(tbl))
		require.NoError(t, md.Add(props))
		ft, err := meta.Signature(tbl)
		require.NoError(t, err)
		sigs[tbl.Name] = dialect.NewDeclaration(tbl.Name, ft)
	}
	suite := &meta.Suite{Name: "S", Groups: []meta.Group{{Name: "g", Schemes: []meta.Scheme{{Name: "A"}, {Name: "B"}}}}}
	fn, decls, err := transform.GeneratePhase(suite, md, sigs, transform.PhaseInit)
	require.NoError(t, err)
	return dialect.NewModule("S_cap", append([]*ir.Operation{fn.Operation}, decls...)...)
}

const suiteCAPSource = `// FILE: S_cap

subroutine S_suite_initialize(x, errflg, y)
  real(kind=8), intent(out) :: x
  integer, intent(out) :: errflg
  real(kind=8), intent(out) :: y
  integer :: v0
  integer :: v1
  integer :: v2
  logical :: v3
  integer :: v4
  integer :: v5
  logical :: v6

  v0 = 0
  errflg = v0
  v1 = 0
  v2 = errflg
  v3 = v2 .eq. v1
  if (v3) then
    call A_init(x, errflg)
    v4 = 0
    v5 = errflg
    v6 = v5 .eq. v4
    if (v6) then
      call B_init(x, errflg, y)
    end if
  end if
end subroutine S_suite_initialize
`

func TestPrint_suiteCAP(t *testing.T) {
	top := dialect.NewModule("", suiteCAP(t).Operation)
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, top))
	if diff := cmp.Diff(suiteCAPSource, buf.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestPrint_modulesAndDivider(t *testing.T) {
	top := dialect.NewModule("",
		suiteCAP(t).Operation,
		dialect.NewModule("empty").Operation,
		dialect.NewAlloca(ir.MemRefType{Elem: ir.I32}, "ignored"),
	)
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, top))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "// FILE: S_cap\n"))
	assert.True(t, strings.HasSuffix(out, "end subroutine S_suite_initialize\n// -----\n// FILE: empty\n"))
	assert.Equal(t, 1, strings.Count(out, "// -----"))
	assert.NotContains(t, out, "subroutine A_init", "declarations have no body to print")

	var single bytes.Buffer
	require.NoError(t, PrintModule(&single, suiteCAP(t)))
	assert.Equal(t, strings.TrimPrefix(suiteCAPSource, "// FILE: S_cap\n"), single.String())
}

// build returns a function whose body is filled by fill and terminated by
// returning the values fill returns.
func build(name string, ft ir.FunctionType, fill func(b *ir.Block) []*ir.Value) dialect.FuncOp {
	return dialect.NewFunc(name, ft, func(b *ir.Block) {
		b.AddOp(dialect.NewReturn(fill(b)...))
	})
}

func render(t *testing.T, f dialect.FuncOp) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	err := PrintModule(&buf, dialect.NewModule("m", f.Operation))
	return buf.String(), err
}

func TestPrint_expressions(t *testing.T) {
	arr := ir.MemRefType{Elem: ir.F64, Shape: []int64{4}}
	ft := ir.FunctionType{Inputs: []ir.Type{ir.Index, ir.F64}, Outputs: []ir.Type{arr}}
	f := build("kernel", ft, func(b *ir.Block) []*ir.Value {
		i, a := b.Args()[0], b.Args()[1]
		a.NameHint = "a"
		buf := dialect.NewAlloca(arr, "buf")
		two, _ := dialect.NewConstant(ir.FloatAttr{Value: 2, Type: ir.F64})
		mul, _ := dialect.NewBinary(dialect.MulF, a, two.Result(0))
		store := dialect.NewStore(mul.Result(0), buf.Result(0), i)
		load, _ := dialect.NewLoad(buf.Result(0), i)
		gt := dialect.NewCmpF(dialect.CmpFOgt, load.Result(0), a)
		never := dialect.NewCmpF(dialect.CmpFFalse, a, a)
		then := ir.NewBlock()
		flag, _ := dialect.NewConstant(ir.Int(1, 1))
		then.AddOp(flag, dialect.NewYield())
		els := ir.NewBlock()
		zero, _ := dialect.NewConstant(ir.FloatAttr{Value: 0, Type: ir.F64})
		els.AddOp(zero, dialect.NewStore(zero.Result(0), buf.Result(0), i), dialect.NewYield())
		b.AddOp(buf, two, mul, store, load, gt, never, dialect.NewIf(gt.Result(0), then, els).Operation)
		return []*ir.Value{buf.Result(0)}
	})
	got, err := render(t, f)
	require.NoError(t, err)
	want := `
subroutine kernel(v0, a, buf)
  integer, intent(in) :: v0
  real(kind=8), intent(in) :: a
  real(kind=8), dimension(4), intent(out) :: buf
  real(kind=8) :: v1
  real(kind=8) :: v2
  real(kind=8) :: v3
  logical :: v4
  logical :: v5
  real(kind=8) :: v6

  v1 = 2.0
  v2 = a * v1
  buf(v0) = v2
  v3 = buf(v0)
  v4 = v3 > a
  if (v4) then
    v5 = .true.
  else
    v6 = 0.0
    buf(v0) = v6
  end if
end subroutine kernel
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestPrint_siblingBranchesShareHint(t *testing.T) {
	f := build("k", ir.FunctionType{}, func(b *ir.Block) []*ir.Value {
		cond := dialect.NewIntConstant(1, 1)
		then := ir.NewBlock()
		three := dialect.NewIntConstant(3, 32)
		three.Result(0).NameHint = "t"
		then.AddOp(three, dialect.NewYield())
		els := ir.NewBlock()
		two, _ := dialect.NewConstant(ir.FloatAttr{Value: 2, Type: ir.F64})
		two.Result(0).NameHint = "t"
		els.AddOp(two, dialect.NewYield())
		b.AddOp(cond, dialect.NewIf(cond.Result(0), then, els).Operation)
		return nil
	})
	got, err := render(t, f)
	require.NoError(t, err)
	want := `
subroutine k()
  logical :: v0
  integer :: t
  real(kind=8) :: t1

  v0 = .true.
  if (v0) then
    t = 3
  else
    t1 = 2.0
  end if
end subroutine k
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestPrint_callWithoutCopy(t *testing.T) {
	ft := ir.FunctionType{Outputs: []ir.Type{ir.MemRefType{Elem: ir.I32}}}
	f := build("caller", ft, func(b *ir.Block) []*ir.Value {
		n := dialect.NewAlloca(ir.MemRefType{Elem: ir.I32}, "n")
		msg := ir.MemRefType{Elem: ir.I8, Shape: []int64{64}}
		call := dialect.NewCall("info", []*ir.Value{n.Result(0)}, []ir.Type{msg})
		b.AddOp(n, call.Operation)
		return []*ir.Value{n.Result(0)}
	})
	got, err := render(t, f)
	require.NoError(t, err)
	assert.Contains(t, got, "  character(len=64) :: v0\n")
	assert.Contains(t, got, "  call info(n, v0)\n")
}

func TestPrint_errors(t *testing.T) {
	dyn := ir.MemRefType{Elem: ir.F64, Shape: []int64{ir.Dynamic}}
	cases := []struct {
		name string
		fn   dialect.FuncOp
		want error
	}{
		{
			name: "dynamic local",
			fn: build("f", ir.FunctionType{}, func(b *ir.Block) []*ir.Value {
				b.AddOp(dialect.NewAlloca(dyn, "q"))
				return nil
			}),
			want: dialect.ErrDynamicExtent,
		},
		{
			name: "dynamic output",
			fn: build("f", ir.FunctionType{Outputs: []ir.Type{dyn}}, func(b *ir.Block) []*ir.Value {
				q := dialect.NewAlloca(dyn, "q")
				b.AddOp(q)
				return []*ir.Value{q.Result(0)}
			}),
			want: dialect.ErrDynamicExtent,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Print(&buf, dialect.NewModule("", dialect.NewModule("m", c.fn.Operation).Operation))
			assert.True(t, errors.Is(err, c.want), "got %v", err)
			assert.Zero(t, buf.Len(), "nothing is written on error")
		})
	}

	unknown := build("f", ir.FunctionType{}, func(b *ir.Block) []*ir.Value {
		b.AddOp(ir.NewOperation("test.op", nil, nil, nil))
		return nil
	})
	_, err := render(t, unknown)
	assert.ErrorContains(t, err, "cannot render test.op")

	// A value defined inside a conditional is not visible after it.
	leak := build("f", ir.FunctionType{}, func(b *ir.Block) []*ir.Value {
		cond := dialect.NewIntConstant(1, 1)
		then := ir.NewBlock()
		inner := dialect.NewIntConstant(3, 32)
		then.AddOp(inner, dialect.NewYield())
		slot := dialect.NewAlloca(ir.MemRefType{Elem: ir.I32}, "s")
		b.AddOp(cond, slot, dialect.NewIf(cond.Result(0), then, nil).Operation, dialect.NewStore(inner.Result(0), slot.Result(0)))
		return nil
	})
	_, err = render(t, leak)
	assert.ErrorContains(t, err, "outside of the scope")
}

func TestTypeName(t *testing.T) {
	cases := []struct {
		typ  ir.Type
		want string
	}{
		{ir.F32, "real(kind=4)"},
		{ir.F64, "real(kind=8)"},
		{ir.I1, "logical"},
		{ir.I8, "character"},
		{ir.I16, "integer(kind=2)"},
		{ir.I32, "integer"},
		{ir.I64, "integer(kind=8)"},
		{ir.Index, "integer"},
		{ir.MemRefType{Elem: ir.I32}, "integer"},
		{ir.MemRefType{Elem: ir.I8, Shape: []int64{512}}, "character(len=512)"},
		{ir.MemRefType{Elem: ir.F64, Shape: []int64{3, 4}}, "real(kind=8), dimension(3, 4)"},
		{ir.MemRefType{Elem: ir.I8, Shape: []int64{2, 8}}, "character, dimension(2, 8)"},
	}
	for _, c := range cases {
		got, err := TypeName(c.typ)
		if err != nil {
			t.Errorf("%s: %v", c.typ, err)
			continue
		}
		if got != c.want {
			t.Errorf("%s: expected %q, got %q", c.typ, c.want, got)
		}
	}
	for _, bad := range []ir.Type{ir.MemRefType{Elem: ir.I8, Shape: []int64{ir.Dynamic}}, ir.IntegerType{Width: 7}, ir.FunctionType{}} {
		if _, err := TypeName(bad); err == nil {
			t.Errorf("%s: expected error", bad)
		}
	}
}

func TestLiteral(t *testing.T) {
	cases := []struct {
		attr ir.Attribute
		want string
	}{
		{ir.Int(1, 1), ".true."},
		{ir.Int(0, 1), ".false."},
		{ir.Int(-42, 32), "-42"},
		{ir.FloatAttr{Value: 0, Type: ir.F64}, "0.0"},
		{ir.FloatAttr{Value: 3, Type: ir.F64}, "3.0"},
		{ir.FloatAttr{Value: 0.25, Type: ir.F32}, "0.25"},
	}
	for _, c := range cases {
		got, err := literal(c.attr)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
	_, err := literal(ir.StringAttr("x"))
	assert.Error(t, err)
}

func TestComparisonOperators(t *testing.T) {
	for _, name := range []string{dialect.CmpI, dialect.CmpF} {
		for pred, sym := range comparisonOperators[name] {
			op := ir.NewOperation(name, nil, []ir.Type{ir.I1}, map[string]ir.Attribute{dialect.PropPredicate: ir.StringAttr(pred)})
			got, ok, err := comparisonOperator(op)
			require.NoError(t, err)
			assert.Equal(t, sym, got)
			assert.Equal(t, sym != "", ok, "%s %s", name, pred)
		}
	}
	op := ir.NewOperation(dialect.CmpI, nil, []ir.Type{ir.I1}, map[string]ir.Attribute{dialect.PropPredicate: ir.StringAttr("oeq")})
	_, _, err := comparisonOperator(op)
	assert.Error(t, err)
	for _, name := range dialect.BinaryOps {
		assert.Contains(t, binaryOperators, name)
	}
}
