package dialect

import (
	"errors"
	"fmt"

	"github.com/soypat/go-ccpp/ir"
)

// NewAlloca allocates a local memory slot of type t. hint names the slot in
// printed output.
func NewAlloca(t ir.MemRefType, hint string) *ir.Operation {
	op := ir.NewOperation(Alloca, nil, []ir.Type{t}, nil)
	op.Result(0).NameHint = hint
	return op
}

// NewLoad reads the element of mem at indices. Scalar slots take no indices.
func NewLoad(mem *ir.Value, indices ...*ir.Value) (*ir.Operation, error) {
	mt, ok := mem.Type().(ir.MemRefType)
	if !ok {
		return nil, fmt.Errorf("memref.load of non memref type %s", mem.Type())
	}
	operands := append([]*ir.Value{mem}, indices...)
	return ir.NewOperation(Load, operands, []ir.Type{mt.Elem}, nil), nil
}

// NewStore writes value into mem at indices.
func NewStore(value, mem *ir.Value, indices ...*ir.Value) *ir.Operation {
	operands := append([]*ir.Value{value, mem}, indices...)
	return ir.NewOperation(Store, operands, nil, nil)
}

// NewCopy copies the contents of source into target.
func NewCopy(source, target *ir.Value) *ir.Operation {
	return ir.NewOperation(Copy, []*ir.Value{source, target}, nil, nil)
}

// ErrDynamicExtent is returned when a memref of unknown extent reaches a
// stage that needs static sizes.
var ErrDynamicExtent = errors.New("dynamic extent not supported")
