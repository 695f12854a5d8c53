package ftn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/soypat/go-ccpp/dialect"
	"github.com/soypat/go-ccpp/ir"
)

// TypeName returns the Fortran declaration type of t. A memref of i8 with
// one dimension is a fixed length character, other memrefs are arrays and
// a memref without dimensions declares its element type. Memrefs of unknown
// extent are rejected with [dialect.ErrDynamicExtent].
func TypeName(t ir.Type) (string, error) {
	switch t := t.(type) {
	case ir.FloatType:
		switch t.Width {
		case 32:
			return "real(kind=4)", nil
		case 64:
			return "real(kind=8)", nil
		}
	case ir.IntegerType:
		switch t.Width {
		case 1:
			return "logical", nil
		case 8:
			return "character", nil
		case 16:
			return "integer(kind=2)", nil
		case 32:
			return "integer", nil
		case 64:
			return "integer(kind=8)", nil
		}
	case ir.IndexType:
		return "integer", nil
	case ir.MemRefType:
		if t.HasDynamicShape() {
			return "", fmt.Errorf("%s: %w", t, dialect.ErrDynamicExtent)
		}
		elem, err := TypeName(t.Elem)
		if err != nil {
			return "", err
		}
		switch {
		case len(t.Shape) == 0:
			return elem, nil
		case len(t.Shape) == 1 && ir.TypesEqual(t.Elem, ir.I8):
			return "character(len=" + strconv.FormatInt(t.Shape[0], 10) + ")", nil
		}
		dims := make([]string, len(t.Shape))
		for i, d := range t.Shape {
			dims[i] = strconv.FormatInt(d, 10)
		}
		return elem + ", dimension(" + strings.Join(dims, ", ") + ")", nil
	}
	return "", fmt.Errorf("type %s has no Fortran equivalent", t)
}
