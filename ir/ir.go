// Package ir implements a generic operation tree: named operations carrying
// typed properties, ordered regions of blocks, and SSA values connecting an
// operation's results to the operands of later operations.
//
// The tree is the persistence format shared by every pipeline stage. It is
// mutated in place (insertion, detachment, relocation) by a single goroutine;
// none of the types in this package are safe for concurrent use.
package ir

import (
	"errors"
	"fmt"
	"slices"
)

// Value is an SSA value: either the result of an operation or the argument
// of a block.
type Value struct {
	typ Type
	// NameHint is an optional author supplied name used by printers.
	NameHint string

	owner *Operation // defining operation, nil for block arguments.
	block *Block     // owning block for block arguments.
	index int        // result or argument index.
	uses  []Use
}

// Use records that Op reads a value as operand number Index.
type Use struct {
	Op    *Operation
	Index int
}

// Type returns the type of the value.
func (v *Value) Type() Type { return v.typ }

// Owner returns the operation defining v, or nil if v is a block argument.
func (v *Value) Owner() *Operation { return v.owner }

// Block returns the block v is an argument of, or nil if v is an operation result.
func (v *Value) Block() *Block { return v.block }

// Index returns the result or block argument index of v.
func (v *Value) Index() int { return v.index }

// Uses returns the operations reading v in the order the uses were created.
func (v *Value) Uses() []Use { return slices.Clone(v.uses) }

// HasUses reports whether any operation reads v.
func (v *Value) HasUses() bool { return len(v.uses) > 0 }

func (v *Value) addUse(op *Operation, idx int) {
	v.uses = append(v.uses, Use{Op: op, Index: idx})
}

func (v *Value) removeUse(op *Operation, idx int) {
	for i, u := range v.uses {
		if u.Op == op && u.Index == idx {
			v.uses = slices.Delete(v.uses, i, i+1)
			return
		}
	}
}

// ReplaceAllUsesWith makes every user of v read repl instead.
func (v *Value) ReplaceAllUsesWith(repl *Value) {
	for _, u := range v.Uses() {
		u.Op.SetOperand(u.Index, repl)
	}
}

// Operation is a node of the tree. Name identifies its kind, for example
// "func.call" or "ccpp.suite".
type Operation struct {
	Name       string
	Properties map[string]Attribute

	operands []*Value
	results  []*Value
	regions  []*Region
	parent   *Block
	erased   bool
}

// NewOperation creates a detached operation. Regions passed in must not
// belong to another operation.
func NewOperation(name string, operands []*Value, resultTypes []Type, props map[string]Attribute, regions ...*Region) *Operation {
	op := &Operation{
		Name:       name,
		Properties: props,
		operands:   make([]*Value, len(operands)),
	}
	if op.Properties == nil {
		op.Properties = make(map[string]Attribute)
	}
	for i, v := range operands {
		op.SetOperand(i, v)
	}
	for i, t := range resultTypes {
		op.results = append(op.results, &Value{typ: t, owner: op, index: i})
	}
	for _, r := range regions {
		if r.parent != nil {
			panic("ir: region already attached to " + r.parent.Name)
		}
		r.parent = op
		op.regions = append(op.regions, r)
	}
	return op
}

// Operands returns the operand list. The returned slice must not be modified.
func (op *Operation) Operands() []*Value { return op.operands }

// Operand returns operand i.
func (op *Operation) Operand(i int) *Value { return op.operands[i] }

// NumOperands returns the amount of operands.
func (op *Operation) NumOperands() int { return len(op.operands) }

// SetOperand replaces operand i keeping use lists consistent.
func (op *Operation) SetOperand(i int, v *Value) {
	if old := op.operands[i]; old != nil {
		old.removeUse(op, i)
	}
	op.operands[i] = v
	if v != nil {
		v.addUse(op, i)
	}
}

// Results returns the values defined by op. The returned slice must not be modified.
func (op *Operation) Results() []*Value { return op.results }

// Result returns result i.
func (op *Operation) Result(i int) *Value { return op.results[i] }

// NumResults returns the amount of results.
func (op *Operation) NumResults() int { return len(op.results) }

// Regions returns the regions nested in op.
func (op *Operation) Regions() []*Region { return op.regions }

// Region returns region i.
func (op *Operation) Region(i int) *Region { return op.regions[i] }

// Parent returns the block containing op, or nil if op is detached.
func (op *Operation) Parent() *Block { return op.parent }

// ParentOp returns the operation whose region contains op, or nil.
func (op *Operation) ParentOp() *Operation {
	if op.parent == nil {
		return nil
	}
	return op.parent.ParentOp()
}

// Prop returns property key or nil if unset.
func (op *Operation) Prop(key string) Attribute { return op.Properties[key] }

// StringProp returns the string value of property key and whether it was a set [StringAttr].
func (op *Operation) StringProp(key string) (string, bool) {
	s, ok := op.Properties[key].(StringAttr)
	return string(s), ok
}

// SetProp sets property key. A nil attribute deletes the property.
func (op *Operation) SetProp(key string, attr Attribute) {
	if attr == nil {
		delete(op.Properties, key)
		return
	}
	op.Properties[key] = attr
}

// IsErased reports whether op was erased from the tree.
func (op *Operation) IsErased() bool { return op.erased }

// Detach removes op from its parent block without touching its operands or uses.
// Detaching an already detached operation is a no-op.
func (op *Operation) Detach() {
	if op.parent == nil {
		return
	}
	op.parent.remove(op)
	op.parent = nil
}

// Erase detaches op and drops its operand uses and those of every nested
// operation. Results of op must not have uses outside of op.
func (op *Operation) Erase() error {
	for _, r := range op.results {
		for _, u := range r.uses {
			if !op.isAncestorOf(u.Op) {
				return fmt.Errorf("ir: erasing %s: result %d still used by %s", op.Name, r.index, u.Op.Name)
			}
		}
	}
	op.Detach()
	op.dropUses()
	return nil
}

func (op *Operation) dropUses() {
	for i := range op.operands {
		op.SetOperand(i, nil)
	}
	for _, r := range op.regions {
		for _, b := range r.blocks {
			for _, child := range b.ops {
				child.dropUses()
			}
		}
	}
	op.erased = true
}

func (op *Operation) isAncestorOf(other *Operation) bool {
	for o := other; o != nil; o = o.ParentOp() {
		if o == op {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of op. Operands defined inside op are remapped to
// their clones; operands defined outside are shared with the original.
func (op *Operation) Clone() *Operation {
	return op.clone(make(map[*Value]*Value))
}

func (op *Operation) clone(mapping map[*Value]*Value) *Operation {
	operands := make([]*Value, len(op.operands))
	for i, v := range op.operands {
		if m, ok := mapping[v]; ok {
			v = m
		}
		operands[i] = v
	}
	resultTypes := make([]Type, len(op.results))
	for i, r := range op.results {
		resultTypes[i] = r.typ
	}
	props := make(map[string]Attribute, len(op.Properties))
	for k, a := range op.Properties {
		props[k] = a
	}
	regions := make([]*Region, len(op.regions))
	for i, r := range op.regions {
		nr := NewRegion()
		for _, b := range r.blocks {
			nb := &Block{}
			for _, a := range b.args {
				na := &Value{typ: a.typ, NameHint: a.NameHint, block: nb, index: a.index}
				nb.args = append(nb.args, na)
				mapping[a] = na
			}
			for _, child := range b.ops {
				nb.AddOp(child.clone(mapping))
			}
			nr.AddBlock(nb)
		}
		regions[i] = nr
	}
	c := NewOperation(op.Name, operands, resultTypes, props, regions...)
	for i, r := range op.results {
		c.results[i].NameHint = r.NameHint
		mapping[r] = c.results[i]
	}
	return c
}

func (op *Operation) String() string {
	return fmt.Sprintf("%s(%d operands, %d results, %d regions)", op.Name, len(op.operands), len(op.results), len(op.regions))
}

// Region is an ordered list of blocks owned by an operation.
type Region struct {
	blocks []*Block
	parent *Operation
}

// NewRegion creates a detached region holding blocks.
func NewRegion(blocks ...*Block) *Region {
	r := &Region{}
	for _, b := range blocks {
		r.AddBlock(b)
	}
	return r
}

// Blocks returns the blocks of the region. The returned slice must not be modified.
func (r *Region) Blocks() []*Block { return r.blocks }

// Block returns the first block of r or nil if r is empty.
func (r *Region) Block() *Block {
	if len(r.blocks) == 0 {
		return nil
	}
	return r.blocks[0]
}

// Empty reports whether r has no blocks.
func (r *Region) Empty() bool { return len(r.blocks) == 0 }

// Parent returns the operation owning r.
func (r *Region) Parent() *Operation { return r.parent }

// AddBlock appends b to r.
func (r *Region) AddBlock(b *Block) {
	if b.parent != nil {
		panic("ir: block already attached to a region")
	}
	b.parent = r
	r.blocks = append(r.blocks, b)
}

// Block is an ordered list of operations with optional arguments.
type Block struct {
	args   []*Value
	ops    []*Operation
	parent *Region
}

// NewBlock creates a detached block with arguments of the given types.
func NewBlock(argTypes ...Type) *Block {
	b := &Block{}
	for i, t := range argTypes {
		b.args = append(b.args, &Value{typ: t, block: b, index: i})
	}
	return b
}

// Args returns the block arguments.
func (b *Block) Args() []*Value { return b.args }

// Ops returns the operations of b in order. The returned slice must not be
// modified and is invalidated by insertions and removals.
func (b *Block) Ops() []*Operation { return b.ops }

// Len returns the amount of operations in b.
func (b *Block) Len() int { return len(b.ops) }

// Last returns the last operation of b or nil if b is empty.
func (b *Block) Last() *Operation {
	if len(b.ops) == 0 {
		return nil
	}
	return b.ops[len(b.ops)-1]
}

// Parent returns the region containing b.
func (b *Block) Parent() *Region { return b.parent }

// ParentOp returns the operation owning the region containing b.
func (b *Block) ParentOp() *Operation {
	if b.parent == nil {
		return nil
	}
	return b.parent.parent
}

// AddOp appends detached operations to the end of b.
func (b *Block) AddOp(ops ...*Operation) {
	for _, op := range ops {
		b.InsertAt(len(b.ops), op)
	}
}

// InsertAt inserts a detached operation at position i of b.
func (b *Block) InsertAt(i int, op *Operation) {
	if op.parent != nil {
		panic("ir: inserting attached operation " + op.Name)
	}
	b.ops = slices.Insert(b.ops, i, op)
	op.parent = b
}

// Index returns the position of op in b or -1.
func (b *Block) Index(op *Operation) int {
	return slices.Index(b.ops, op)
}

func (b *Block) remove(op *Operation) {
	if i := b.Index(op); i >= 0 {
		b.ops = slices.Delete(b.ops, i, i+1)
	}
}

// Verify checks structural invariants of the tree rooted at op: parent links,
// operand definitions and use lists. All violations found are returned joined.
func Verify(op *Operation) error {
	var errs []error
	Inspect(op, func(o *Operation) bool {
		if o == nil {
			return false
		}
		for i, v := range o.operands {
			if v == nil {
				errs = append(errs, fmt.Errorf("%s: operand %d is undefined", o.Name, i))
				continue
			}
			if !slices.Contains(v.uses, Use{Op: o, Index: i}) {
				errs = append(errs, fmt.Errorf("%s: operand %d missing from use list", o.Name, i))
			}
		}
		for _, r := range o.regions {
			if r.parent != o {
				errs = append(errs, fmt.Errorf("%s: region parent link broken", o.Name))
			}
			for _, b := range r.blocks {
				if b.parent != r {
					errs = append(errs, fmt.Errorf("%s: block parent link broken", o.Name))
				}
				for _, child := range b.ops {
					if child.parent != b {
						errs = append(errs, fmt.Errorf("%s: child %s parent link broken", o.Name, child.Name))
					}
				}
			}
		}
		return true
	})
	return errors.Join(errs...)
}
