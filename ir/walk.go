package ir

// A Visitor's Visit method is invoked for each operation encountered by Walk.
// If the result visitor w is not nil, Walk visits each of the operations
// nested in the regions of op with the visitor w, followed by a call of
// w.Visit(nil).
type Visitor interface {
	Visit(op *Operation) (w Visitor)
}

// Walk traverses an operation tree in depth-first order: It starts by calling
// v.Visit(op); op must not be nil. If the visitor w returned by
// v.Visit(op) is not nil, Walk is invoked recursively with visitor
// w for each operation of each block of each region of op, followed by a call of
// w.Visit(nil).
//
// Walk iterates over a snapshot of each block, so a visitor may detach the
// operation it is visiting.
func Walk(v Visitor, op *Operation) {
	if v = v.Visit(op); v == nil {
		return
	}
	for _, r := range op.regions {
		for _, b := range r.blocks {
			for _, child := range snapshot(b) {
				Walk(v, child)
			}
		}
	}
	v.Visit(nil)
}

type inspector func(*Operation) bool

func (f inspector) Visit(op *Operation) Visitor {
	if f(op) {
		return f
	}
	return nil
}

// Inspect traverses an operation tree in depth-first order: It starts by
// calling f(op); op must not be nil. If f returns true, Inspect invokes f
// recursively for each nested operation, followed by a call of f(nil).
func Inspect(op *Operation, f func(*Operation) bool) {
	Walk(inspector(f), op)
}

// Collect returns every operation named name in the tree rooted at op, in
// pre-order, op included.
func Collect(op *Operation, name string) []*Operation {
	var found []*Operation
	Inspect(op, func(o *Operation) bool {
		if o != nil && o.Name == name {
			found = append(found, o)
		}
		return o != nil
	})
	return found
}

func snapshot(b *Block) []*Operation {
	ops := make([]*Operation, len(b.ops))
	copy(ops, b.ops)
	return ops
}
