package dialect

import "github.com/soypat/go-ccpp/ir"

// IfOp executes its then region when the i1 condition holds and its else
// region otherwise. An empty else region is omitted when printed.
type IfOp struct{ *ir.Operation }

// NewIf returns a conditional on cond. then and els may be nil; a nil then
// block becomes an empty block, a nil els leaves the else region empty.
func NewIf(cond *ir.Value, then, els *ir.Block) IfOp {
	if then == nil {
		then = ir.NewBlock()
	}
	elseRegion := ir.NewRegion()
	if els != nil {
		elseRegion.AddBlock(els)
	}
	return IfOp{ir.NewOperation(If, []*ir.Value{cond}, nil, nil, ir.NewRegion(then), elseRegion)}
}

// AsIf returns op as an [IfOp] if it is one.
func AsIf(op *ir.Operation) (IfOp, bool) {
	if op == nil || op.Name != If {
		return IfOp{}, false
	}
	return IfOp{op}, true
}

func (i IfOp) Cond() *ir.Value { return i.Operand(0) }
func (i IfOp) Then() *ir.Block { return i.Region(0).Block() }
func (i IfOp) Else() *ir.Block { return i.Region(1).Block() }
func (i IfOp) HasElse() bool   { return i.Else() != nil && i.Else().Len() > 0 }

// NewYield returns the terminator of an scf region.
func NewYield() *ir.Operation { return ir.NewOperation(Yield, nil, nil, nil) }
