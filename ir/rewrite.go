package ir

import (
	"errors"
	"fmt"
)

// RewritePattern matches an operation and optionally rewrites the tree
// around it through rw. Implementations report whether they matched; a
// returned error aborts the walk.
type RewritePattern interface {
	MatchAndRewrite(op *Operation, rw *Rewriter) (matched bool, err error)
}

type opPattern struct {
	name string
	fn   func(*Operation, *Rewriter) error
}

func (p opPattern) MatchAndRewrite(op *Operation, rw *Rewriter) (bool, error) {
	if op.Name != p.name {
		return false, nil
	}
	return true, p.fn(op, rw)
}

// OnOp returns a pattern that calls fn for every operation named name.
func OnOp(name string, fn func(op *Operation, rw *Rewriter) error) RewritePattern {
	return opPattern{name: name, fn: fn}
}

type insertKind uint8

const (
	insertAtStart insertKind = iota
	insertAtEnd
	insertBefore
	insertAfter
)

// InsertPoint locates where a [Rewriter] inserts operations. It is resolved
// at insertion time, so it remains valid while the block changes.
type InsertPoint struct {
	kind   insertKind
	block  *Block
	anchor *Operation
}

// AtStart inserts at the beginning of b.
func AtStart(b *Block) InsertPoint { return InsertPoint{kind: insertAtStart, block: b} }

// AtEnd inserts at the end of b.
func AtEnd(b *Block) InsertPoint { return InsertPoint{kind: insertAtEnd, block: b} }

// Before inserts immediately before op.
func Before(op *Operation) InsertPoint { return InsertPoint{kind: insertBefore, anchor: op} }

// After inserts immediately after op.
func After(op *Operation) InsertPoint { return InsertPoint{kind: insertAfter, anchor: op} }

func (ip InsertPoint) resolve() (*Block, int, error) {
	switch ip.kind {
	case insertAtStart:
		return ip.block, 0, nil
	case insertAtEnd:
		return ip.block, ip.block.Len(), nil
	}
	b := ip.anchor.parent
	if b == nil {
		return nil, 0, fmt.Errorf("ir: insertion anchor %s is detached", ip.anchor.Name)
	}
	i := b.Index(ip.anchor)
	if ip.kind == insertAfter {
		i++
	}
	return b, i, nil
}

// Rewriter mutates the tree on behalf of rewrite patterns and records
// whether anything changed.
type Rewriter struct {
	changed bool
}

// Changed reports whether the rewriter modified the tree.
func (rw *Rewriter) Changed() bool { return rw.changed }

// InsertOp inserts detached operations at ip in order.
func (rw *Rewriter) InsertOp(ip InsertPoint, ops ...*Operation) error {
	b, i, err := ip.resolve()
	if err != nil {
		return err
	}
	for j, op := range ops {
		b.InsertAt(i+j, op)
	}
	rw.changed = true
	return nil
}

// MoveOp detaches op from its current block and inserts it at ip. Uses are
// left untouched.
func (rw *Rewriter) MoveOp(op *Operation, ip InsertPoint) error {
	op.Detach()
	return rw.InsertOp(ip, op)
}

// EraseOp removes op and everything nested in it from the tree.
func (rw *Rewriter) EraseOp(op *Operation) error {
	if err := op.Erase(); err != nil {
		return err
	}
	rw.changed = true
	return nil
}

// ReplaceOp inserts newOps before op, redirects the uses of op's results to
// newResults and erases op.
func (rw *Rewriter) ReplaceOp(op *Operation, newOps []*Operation, newResults []*Value) error {
	if len(newResults) != len(op.results) {
		return fmt.Errorf("ir: replacing %s: want %d results, got %d", op.Name, len(op.results), len(newResults))
	}
	if err := rw.InsertOp(Before(op), newOps...); err != nil {
		return err
	}
	for i, r := range op.results {
		r.ReplaceAllUsesWith(newResults[i])
	}
	return rw.EraseOp(op)
}

// RewriteWalker applies a set of patterns to every operation nested in a
// root operation. The first pattern that matches an operation wins.
type RewriteWalker struct {
	Patterns []RewritePattern
	// ApplyRecursively repeats the walk until no pattern changes the tree.
	ApplyRecursively bool
	// MaxIterations bounds ApplyRecursively. Zero means 16.
	MaxIterations int
}

var errNoFixpoint = errors.New("ir: rewrite did not converge")

// Rewrite walks the operations nested in root. Operations inserted during a
// walk are not visited by that walk. It returns whether the tree changed.
func (w *RewriteWalker) Rewrite(root *Operation) (changed bool, err error) {
	maxIter := w.MaxIterations
	if maxIter <= 0 {
		maxIter = 16
	}
	for iter := 0; ; iter++ {
		rw := &Rewriter{}
		if err := w.rewriteRegions(root, rw); err != nil {
			return changed, err
		}
		changed = changed || rw.changed
		if !w.ApplyRecursively || !rw.changed {
			return changed, nil
		}
		if iter+1 >= maxIter {
			return changed, errNoFixpoint
		}
	}
}

func (w *RewriteWalker) rewriteRegions(op *Operation, rw *Rewriter) error {
	for _, r := range op.regions {
		for _, b := range r.blocks {
			for _, child := range snapshot(b) {
				if child.erased {
					continue
				}
				if err := w.rewriteOp(child, rw); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (w *RewriteWalker) rewriteOp(op *Operation, rw *Rewriter) error {
	for _, p := range w.Patterns {
		matched, err := p.MatchAndRewrite(op, rw)
		if err != nil {
			return err
		}
		if matched {
			break
		}
	}
	if op.erased {
		return nil
	}
	return w.rewriteRegions(op, rw)
}
