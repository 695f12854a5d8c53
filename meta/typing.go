package meta

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/soypat/go-ccpp/dialect"
	"github.com/soypat/go-ccpp/ir"
)

var baseTypes = map[string]ir.Type{
	"character": ir.I8,
	"integer":   ir.I32,
	"real":      ir.F64,
}

// BaseType returns the element type of the metadata type name.
func BaseType(name string) (ir.Type, error) {
	t, ok := baseTypes[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown metadata type %q", name)
	}
	return t, nil
}

// ArgumentType returns the memory slot type holding arg. A kind of the form
// len=N gives a buffer of N elements; len=* and len=: are of unknown extent
// and rejected with [dialect.ErrDynamicExtent].
func ArgumentType(arg *Argument) (ir.MemRefType, error) {
	elem, err := BaseType(arg.Type)
	if err != nil {
		return ir.MemRefType{}, fmt.Errorf("argument %s: %w", arg.Name, err)
	}
	n, ok, err := kindLength(arg.Kind)
	if err != nil {
		return ir.MemRefType{}, fmt.Errorf("argument %s: %w", arg.Name, err)
	}
	if !ok {
		return ir.MemRefType{Elem: elem}, nil
	}
	return ir.MemRefType{Elem: elem, Shape: []int64{n}}, nil
}

// kindLength extracts N from a len=N kind. ok is false for kinds not
// specifying a length.
func kindLength(kind string) (n int64, ok bool, err error) {
	key, value, found := strings.Cut(kind, "=")
	if !found || strings.TrimSpace(strings.ToLower(key)) != "len" {
		return 0, false, nil
	}
	value = strings.TrimSpace(value)
	n, err = strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		return 0, false, fmt.Errorf("kind %q: %w", kind, dialect.ErrDynamicExtent)
	}
	return n, true, nil
}

// SameType reports whether a and b declare the same type and kind.
func SameType(a, b *Argument) bool {
	return strings.EqualFold(a.Type, b.Type) && strings.EqualFold(strings.ReplaceAll(a.Kind, " ", ""), strings.ReplaceAll(b.Kind, " ", ""))
}

// Signature returns the function type of a subroutine described by t.
// Inputs are the types of in and inout arguments, outputs those of out
// and inout arguments, both in declaration order.
func Signature(t *ArgumentTable) (ir.FunctionType, error) {
	var ft ir.FunctionType
	for _, arg := range t.Args {
		typ, err := ArgumentType(arg)
		if err != nil {
			return ir.FunctionType{}, fmt.Errorf("table %s: %w", t.Name, err)
		}
		if !arg.IsInput() && !arg.IsOutput() {
			return ir.FunctionType{}, fmt.Errorf("table %s: argument %s: unknown intent %q", t.Name, arg.Name, arg.Intent)
		}
		if arg.IsInput() {
			ft.Inputs = append(ft.Inputs, typ)
		}
		if arg.IsOutput() {
			ft.Outputs = append(ft.Outputs, typ)
		}
	}
	return ft, nil
}
