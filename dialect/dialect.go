// Package dialect defines the operation kinds understood by the CAP
// generator and the Fortran backend, with constructors and typed views over
// [ir.Operation].
//
// A view such as [FuncOp] wraps an *ir.Operation of the matching kind and
// exposes its properties and regions by name. Views are obtained with the
// As* functions, which report false for operations of another kind.
package dialect

import (
	"fmt"

	"github.com/soypat/go-ccpp/ir"
)

// Operation names.
const (
	Module = "builtin.module"

	Func   = "func.func"
	Call   = "func.call"
	Return = "func.return"

	Alloca = "memref.alloca"
	Load   = "memref.load"
	Store  = "memref.store"
	Copy   = "memref.copy"

	Constant = "arith.constant"
	CmpI     = "arith.cmpi"
	CmpF     = "arith.cmpf"
	AddI     = "arith.addi"
	AddF     = "arith.addf"
	SubI     = "arith.subi"
	SubF     = "arith.subf"
	MulI     = "arith.muli"
	MulF     = "arith.mulf"
	DivSI    = "arith.divsi"
	DivUI    = "arith.divui"
	DivF     = "arith.divf"
	RemSI    = "arith.remsi"
	RemUI    = "arith.remui"
	ShLI     = "arith.shli"
	AndI     = "arith.andi"
	OrI      = "arith.ori"

	If    = "scf.if"
	Yield = "scf.yield"

	Suite           = "ccpp.suite"
	Group           = "ccpp.group"
	Scheme          = "ccpp.scheme"
	TableProperties = "ccpp.table_properties"
	ArgTable        = "ccpp.arg_table"
	Arg             = "ccpp.arg"
)

// Property keys shared by several operation kinds.
const (
	PropSymName      = "sym_name"
	PropFunctionType = "function_type"
	PropCallee       = "callee"
	PropValue        = "value"
	PropPredicate    = "predicate"
	PropName         = "name"
	PropType         = "type"
)

func stringProp(op *ir.Operation, key string) string {
	s, _ := op.StringProp(key)
	return s
}

// singleBlockRegion returns a region holding one block with ops appended.
func singleBlockRegion(ops ...*ir.Operation) (*ir.Region, *ir.Block) {
	b := ir.NewBlock()
	b.AddOp(ops...)
	return ir.NewRegion(b), b
}

func kindError(op *ir.Operation, want string) error {
	return fmt.Errorf("expected %s operation, got %s", want, op.Name)
}
