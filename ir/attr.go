package ir

import (
	"strconv"
)

// Attribute is a compile time constant attached to an operation as a property.
type Attribute interface {
	String() string
	isAttr()
}

// StringAttr is a string property.
type StringAttr string

// IntegerAttr is an integer constant of a given integer type.
type IntegerAttr struct {
	Value int64
	Type  Type
}

// FloatAttr is a floating point constant of a given float type.
type FloatAttr struct {
	Value float64
	Type  Type
}

// UnitAttr is a flag property whose presence is its value.
type UnitAttr struct{}

// TypeAttr holds a type as a property, e.g. a function signature.
type TypeAttr struct{ Type Type }

// SymbolRefAttr names another operation by its symbol, e.g. a callee.
type SymbolRefAttr string

func (StringAttr) isAttr()    {}
func (IntegerAttr) isAttr()   {}
func (FloatAttr) isAttr()     {}
func (UnitAttr) isAttr()      {}
func (TypeAttr) isAttr()      {}
func (SymbolRefAttr) isAttr() {}

func (a StringAttr) String() string    { return strconv.Quote(string(a)) }
func (a IntegerAttr) String() string   { return strconv.FormatInt(a.Value, 10) + " : " + a.Type.String() }
func (a FloatAttr) String() string     { return strconv.FormatFloat(a.Value, 'g', -1, 64) + " : " + a.Type.String() }
func (UnitAttr) String() string        { return "unit" }
func (a TypeAttr) String() string      { return a.Type.String() }
func (a SymbolRefAttr) String() string { return "@" + string(a) }

// Int returns an [IntegerAttr] of the given bit width.
func Int(v int64, width int) IntegerAttr {
	return IntegerAttr{Value: v, Type: IntegerType{Width: width}}
}

// AttrsEqual reports whether a and b hold the same constant.
func AttrsEqual(a, b Attribute) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}
