package ftn

import (
	"fmt"
	"strconv"

	"github.com/soypat/go-ccpp/ir"
)

// defaultPrefix starts the synthesized name of a value without a hint.
const defaultPrefix = "v"

// unit is the state shared by every scope of one subroutine.
type unit struct {
	counter  int
	locals   []local
	declared map[string]ir.Type
	// dummies are the values passed as arguments. They are declared in the
	// subroutine header instead of as locals.
	dummies map[*ir.Value]bool
}

type local struct {
	name string
	typ  ir.Type
}

func newUnit() *unit {
	return &unit{declared: make(map[string]ir.Type), dummies: make(map[*ir.Value]bool)}
}

// declare adds a local variable. Scopes may reuse a name released by a
// nested scope; the type must then be the same.
func (u *unit) declare(name string, t ir.Type) error {
	if prev, ok := u.declared[name]; ok {
		if !ir.TypesEqual(prev, t) {
			return fmt.Errorf("local %s declared as %s and %s", name, prev, t)
		}
		return nil
	}
	u.declared[name] = t
	u.locals = append(u.locals, local{name: name, typ: t})
	return nil
}

// scope binds values to names. A nested scope starts with a copy of the
// bindings of its parent; names bound inside it are dropped on return.
type scope struct {
	names map[*ir.Value]string
	taken map[string]bool
	u     *unit
}

func newScope(u *unit) scope {
	return scope{names: make(map[*ir.Value]string), taken: make(map[string]bool), u: u}
}

func (s scope) descend() scope {
	child := scope{
		names: make(map[*ir.Value]string, len(s.names)),
		taken: make(map[string]bool, len(s.taken)),
		u:     s.u,
	}
	for v, name := range s.names {
		child.names[v] = name
	}
	for name := range s.taken {
		child.taken[name] = true
	}
	return child
}

func (s scope) lookup(v *ir.Value) (string, bool) {
	name, ok := s.names[v]
	return name, ok
}

// bind names v once. The hint is used as is when free, otherwise a counter
// is appended to it, or to the default prefix when there is no hint. A name
// is not free if another scope declared it as a local of a different type.
func (s scope) bind(v *ir.Value, hint string) string {
	if name, ok := s.names[v]; ok {
		return name
	}
	name := hint
	if name == "" || !s.free(name, v.Type()) {
		prefix := hint
		if prefix == "" {
			prefix = defaultPrefix
		}
		for {
			name = prefix + strconv.Itoa(s.u.counter)
			s.u.counter++
			if s.free(name, v.Type()) {
				break
			}
		}
	}
	s.alias(v, name)
	return name
}

func (s scope) free(name string, t ir.Type) bool {
	if s.taken[name] {
		return false
	}
	prev, ok := s.u.declared[name]
	return !ok || ir.TypesEqual(prev, t)
}

// alias binds v to the name of another value.
func (s scope) alias(v *ir.Value, name string) {
	s.names[v] = name
	s.taken[name] = true
}
