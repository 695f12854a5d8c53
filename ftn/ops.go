package ftn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/soypat/go-ccpp/dialect"
	"github.com/soypat/go-ccpp/ir"
)

var binaryOperators = map[string]string{
	dialect.AddI:  "+",
	dialect.AddF:  "+",
	dialect.SubI:  "-",
	dialect.SubF:  "-",
	dialect.MulI:  "*",
	dialect.MulF:  "*",
	dialect.DivSI: "/",
	dialect.DivUI: "/",
	dialect.DivF:  "/",
	dialect.RemSI: "%",
	dialect.RemUI: "%",
	dialect.ShLI:  "<<",
	dialect.AndI:  "&",
	dialect.OrI:   "|",
}

// Comparison operators by predicate. Integer comparisons ignore signedness.
// An empty operator marks a predicate that is constant or tests for NaN and
// has no infix form; such comparisons are omitted from the output.
var comparisonOperators = map[string]map[string]string{
	dialect.CmpI: {
		string(dialect.CmpIEq):  ".eq.",
		string(dialect.CmpINe):  ".ne.",
		string(dialect.CmpISlt): ".lt.",
		string(dialect.CmpISle): ".le.",
		string(dialect.CmpISgt): ".gt.",
		string(dialect.CmpISge): ".ge.",
		string(dialect.CmpIUlt): ".lt.",
		string(dialect.CmpIUle): ".le.",
		string(dialect.CmpIUgt): ".gt.",
		string(dialect.CmpIUge): ".ge.",
	},
	dialect.CmpF: {
		string(dialect.CmpFFalse): "",
		string(dialect.CmpFOeq):   "==",
		string(dialect.CmpFOgt):   ">",
		string(dialect.CmpFOge):   ">=",
		string(dialect.CmpFOlt):   "<",
		string(dialect.CmpFOle):   "<=",
		string(dialect.CmpFOne):   "/=",
		string(dialect.CmpFOrd):   "",
		string(dialect.CmpFUeq):   "==",
		string(dialect.CmpFUgt):   ">",
		string(dialect.CmpFUge):   ">=",
		string(dialect.CmpFUlt):   "<",
		string(dialect.CmpFUle):   "<=",
		string(dialect.CmpFUne):   "/=",
		string(dialect.CmpFUno):   "",
		string(dialect.CmpFTrue):  "",
	},
}

// comparisonOperator returns the infix operator of a cmpi or cmpf
// operation. ok is false for predicates without one.
func comparisonOperator(op *ir.Operation) (sym string, ok bool, err error) {
	pred := dialect.Predicate(op)
	sym, known := comparisonOperators[op.Name][pred]
	if !known {
		return "", false, fmt.Errorf("%s: unknown predicate %q", op.Name, pred)
	}
	return sym, sym != "", nil
}

// literal renders the value of a constant.
func literal(a ir.Attribute) (string, error) {
	switch a := a.(type) {
	case ir.IntegerAttr:
		if ir.TypesEqual(a.Type, ir.I1) {
			if a.Value != 0 {
				return ".true.", nil
			}
			return ".false.", nil
		}
		return strconv.FormatInt(a.Value, 10), nil
	case ir.FloatAttr:
		if a.Value == 0 {
			return "0.0", nil
		}
		s := strconv.FormatFloat(a.Value, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEIN") {
			s += ".0"
		}
		return s, nil
	}
	return "", fmt.Errorf("constant %s has no Fortran literal", a)
}
