package dialect

import (
	"fmt"
	"slices"

	"github.com/soypat/go-ccpp/ir"
)

// CmpIPredicate selects the relation tested by arith.cmpi.
type CmpIPredicate string

const (
	CmpIEq  CmpIPredicate = "eq"
	CmpINe  CmpIPredicate = "ne"
	CmpISlt CmpIPredicate = "slt"
	CmpISle CmpIPredicate = "sle"
	CmpISgt CmpIPredicate = "sgt"
	CmpISge CmpIPredicate = "sge"
	CmpIUlt CmpIPredicate = "ult"
	CmpIUle CmpIPredicate = "ule"
	CmpIUgt CmpIPredicate = "ugt"
	CmpIUge CmpIPredicate = "uge"
)

// CmpFPredicate selects the relation tested by arith.cmpf. Ordered
// predicates (o*) are false when either operand is NaN, unordered
// predicates (u*) are true.
type CmpFPredicate string

const (
	CmpFFalse CmpFPredicate = "false"
	CmpFOeq   CmpFPredicate = "oeq"
	CmpFOgt   CmpFPredicate = "ogt"
	CmpFOge   CmpFPredicate = "oge"
	CmpFOlt   CmpFPredicate = "olt"
	CmpFOle   CmpFPredicate = "ole"
	CmpFOne   CmpFPredicate = "one"
	CmpFOrd   CmpFPredicate = "ord"
	CmpFUeq   CmpFPredicate = "ueq"
	CmpFUgt   CmpFPredicate = "ugt"
	CmpFUge   CmpFPredicate = "uge"
	CmpFUlt   CmpFPredicate = "ult"
	CmpFUle   CmpFPredicate = "ule"
	CmpFUne   CmpFPredicate = "une"
	CmpFUno   CmpFPredicate = "uno"
	CmpFTrue  CmpFPredicate = "true"
)

var cmpIPredicates = []CmpIPredicate{CmpIEq, CmpINe, CmpISlt, CmpISle, CmpISgt, CmpISge, CmpIUlt, CmpIUle, CmpIUgt, CmpIUge}

var cmpFPredicates = []CmpFPredicate{
	CmpFFalse, CmpFOeq, CmpFOgt, CmpFOge, CmpFOlt, CmpFOle, CmpFOne, CmpFOrd,
	CmpFUeq, CmpFUgt, CmpFUge, CmpFUlt, CmpFUle, CmpFUne, CmpFUno, CmpFTrue,
}

// BinaryOps lists the two operand arithmetic operations.
var BinaryOps = []string{AddI, AddF, SubI, SubF, MulI, MulF, DivSI, DivUI, DivF, RemSI, RemUI, ShLI, AndI, OrI}

// IsBinary reports whether name is one of [BinaryOps].
func IsBinary(name string) bool { return slices.Contains(BinaryOps, name) }

// NewConstant returns an operation materializing attr. The result type is
// the type of the attribute.
func NewConstant(attr ir.Attribute) (*ir.Operation, error) {
	var t ir.Type
	switch a := attr.(type) {
	case ir.IntegerAttr:
		t = a.Type
	case ir.FloatAttr:
		t = a.Type
	default:
		return nil, fmt.Errorf("arith.constant does not accept %T", attr)
	}
	return ir.NewOperation(Constant, nil, []ir.Type{t}, map[string]ir.Attribute{PropValue: attr}), nil
}

// NewIntConstant is shorthand for an integer constant of the given width.
func NewIntConstant(v int64, width int) *ir.Operation {
	op, _ := NewConstant(ir.Int(v, width))
	return op
}

// NewBinary returns the arithmetic operation name applied to lhs and rhs.
func NewBinary(name string, lhs, rhs *ir.Value) (*ir.Operation, error) {
	if !IsBinary(name) {
		return nil, fmt.Errorf("%s is not a binary arithmetic operation", name)
	}
	if !ir.TypesEqual(lhs.Type(), rhs.Type()) {
		return nil, fmt.Errorf("%s operand types differ: %s and %s", name, lhs.Type(), rhs.Type())
	}
	return ir.NewOperation(name, []*ir.Value{lhs, rhs}, []ir.Type{lhs.Type()}, nil), nil
}

// NewCmpI compares two integers yielding an i1.
func NewCmpI(pred CmpIPredicate, lhs, rhs *ir.Value) *ir.Operation {
	props := map[string]ir.Attribute{PropPredicate: ir.StringAttr(pred)}
	return ir.NewOperation(CmpI, []*ir.Value{lhs, rhs}, []ir.Type{ir.I1}, props)
}

// NewCmpF compares two floats yielding an i1.
func NewCmpF(pred CmpFPredicate, lhs, rhs *ir.Value) *ir.Operation {
	props := map[string]ir.Attribute{PropPredicate: ir.StringAttr(pred)}
	return ir.NewOperation(CmpF, []*ir.Value{lhs, rhs}, []ir.Type{ir.I1}, props)
}

// Predicate returns the predicate of a cmpi or cmpf operation.
func Predicate(op *ir.Operation) string { return stringProp(op, PropPredicate) }
