package ir

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewriteReplace(t *testing.T) {
	mod, body := newModule()
	c := NewOperation("arith.constant", nil, []Type{I32}, map[string]Attribute{"value": Int(3, 32)})
	ret := NewOperation("func.return", []*Value{c.Result(0)}, nil, nil)
	body.AddOp(c, ret)

	w := RewriteWalker{Patterns: []RewritePattern{
		OnOp("arith.constant", func(op *Operation, rw *Rewriter) error {
			if AttrsEqual(op.Prop("value"), Int(4, 32)) {
				return nil
			}
			repl := NewOperation("arith.constant", nil, []Type{I32}, map[string]Attribute{"value": Int(4, 32)})
			return rw.ReplaceOp(op, []*Operation{repl}, repl.Results())
		}),
	}}
	changed, err := w.Rewrite(mod)
	require.NoError(t, err)
	assert.True(t, changed)
	require.Equal(t, 2, body.Len())
	assert.True(t, c.IsErased())
	assert.Same(t, body.Ops()[0].Result(0), ret.Operand(0))
	require.NoError(t, Verify(mod))

	// Second walk is a no-op.
	changed, err = w.Rewrite(mod)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestRewriteMoveIntoNewContainer(t *testing.T) {
	mod, body := newModule()
	for _, name := range []string{"ccpp.suite", "other", "ccpp.suite"} {
		body.AddOp(NewOperation(name, nil, nil, nil))
	}
	dst := NewBlock()
	container := NewOperation("builtin.module", nil, nil, nil, NewRegion(dst))

	visited := 0
	w := RewriteWalker{Patterns: []RewritePattern{
		OnOp("ccpp.suite", func(op *Operation, rw *Rewriter) error {
			visited++
			return rw.MoveOp(op, AtEnd(dst))
		}),
	}}
	_, err := w.Rewrite(mod)
	require.NoError(t, err)
	require.NoError(t, (&Rewriter{}).InsertOp(AtEnd(body), container))

	assert.Equal(t, 2, visited, "moved operations must not be revisited")
	assert.Equal(t, 2, dst.Len())
	require.Equal(t, 2, body.Len())
	assert.Equal(t, "other", body.Ops()[0].Name)
	assert.Same(t, container, body.Ops()[1])
}

func TestRewriteFirstPatternWins(t *testing.T) {
	mod, body := newModule()
	body.AddOp(NewOperation("x", nil, nil, nil))
	var hits []string
	record := func(tag string) RewritePattern {
		return OnOp("x", func(*Operation, *Rewriter) error {
			hits = append(hits, tag)
			return nil
		})
	}
	w := RewriteWalker{Patterns: []RewritePattern{record("first"), record("second")}}
	changed, err := w.Rewrite(mod)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, []string{"first"}, hits)
}

func TestRewriteInsertBeforeAfter(t *testing.T) {
	mod, body := newModule()
	mid := NewOperation("mid", nil, nil, nil)
	body.AddOp(mid)
	rw := &Rewriter{}
	require.NoError(t, rw.InsertOp(Before(mid), NewOperation("a", nil, nil, nil), NewOperation("b", nil, nil, nil)))
	require.NoError(t, rw.InsertOp(After(mid), NewOperation("c", nil, nil, nil)))
	require.NoError(t, rw.InsertOp(AtStart(body), NewOperation("start", nil, nil, nil)))
	var names []string
	for _, op := range body.Ops() {
		names = append(names, op.Name)
	}
	assert.Equal(t, []string{"start", "a", "b", "mid", "c"}, names)
	assert.True(t, rw.Changed())
	require.NoError(t, Verify(mod))

	err := rw.InsertOp(Before(NewOperation("detached", nil, nil, nil)), NewOperation("d", nil, nil, nil))
	assert.Error(t, err)
}

func TestRewriteNoFixpoint(t *testing.T) {
	mod, body := newModule()
	body.AddOp(NewOperation("grow", nil, nil, nil))
	w := RewriteWalker{
		ApplyRecursively: true,
		MaxIterations:    3,
		Patterns: []RewritePattern{
			OnOp("grow", func(op *Operation, rw *Rewriter) error {
				return rw.InsertOp(After(op), NewOperation("grow", nil, nil, nil))
			}),
		},
	}
	changed, err := w.Rewrite(mod)
	assert.True(t, changed)
	assert.True(t, errors.Is(err, errNoFixpoint))
}
