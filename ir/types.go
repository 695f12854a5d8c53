package ir

import (
	"errors"
	"strconv"
	"strings"
)

// Dynamic marks a memref dimension whose extent is unknown until run time.
const Dynamic int64 = -1

// Type is the type of a [Value]. Types are compared by their textual form, see [TypesEqual].
type Type interface {
	String() string
	isType()
}

// IntegerType is a signless integer of Width bits.
type IntegerType struct{ Width int }

// FloatType is an IEEE floating point number of Width bits.
type FloatType struct{ Width int }

// IndexType is a target sized integer used for indexing.
type IndexType struct{}

// MemRefType is a region of memory holding elements of type Elem.
// An empty Shape describes a rank-0 (scalar) memory slot.
type MemRefType struct {
	Elem  Type
	Shape []int64
}

// FunctionType maps input types to output types.
type FunctionType struct {
	Inputs  []Type
	Outputs []Type
}

var (
	I1    = IntegerType{Width: 1}
	I8    = IntegerType{Width: 8}
	I16   = IntegerType{Width: 16}
	I32   = IntegerType{Width: 32}
	I64   = IntegerType{Width: 64}
	F32   = FloatType{Width: 32}
	F64   = FloatType{Width: 64}
	Index = IndexType{}
)

func (IntegerType) isType()  {}
func (FloatType) isType()    {}
func (IndexType) isType()    {}
func (MemRefType) isType()   {}
func (FunctionType) isType() {}

func (t IntegerType) String() string { return "i" + strconv.Itoa(t.Width) }
func (t FloatType) String() string   { return "f" + strconv.Itoa(t.Width) }
func (IndexType) String() string     { return "index" }

func (t MemRefType) String() string {
	var sb strings.Builder
	sb.WriteString("memref<")
	for _, d := range t.Shape {
		if d == Dynamic {
			sb.WriteByte('?')
		} else {
			sb.WriteString(strconv.FormatInt(d, 10))
		}
		sb.WriteByte('x')
	}
	sb.WriteString(t.Elem.String())
	sb.WriteByte('>')
	return sb.String()
}

// HasDynamicShape reports whether any dimension of t is [Dynamic].
func (t MemRefType) HasDynamicShape() bool {
	for _, d := range t.Shape {
		if d == Dynamic {
			return true
		}
	}
	return false
}

func (t FunctionType) String() string {
	var sb strings.Builder
	writeTypeList(&sb, t.Inputs)
	sb.WriteString(" -> ")
	writeTypeList(&sb, t.Outputs)
	return sb.String()
}

func writeTypeList(sb *strings.Builder, types []Type) {
	sb.WriteByte('(')
	for i, t := range types {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.String())
	}
	sb.WriteByte(')')
}

// TypesEqual reports whether a and b denote the same type.
func TypesEqual(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}

// TypeListsEqual reports whether a and b are element-wise equal.
func TypeListsEqual(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !TypesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

var errBadType = errors.New("malformed type")

// ParseType parses the textual form of a type as produced by its String method.
func ParseType(s string) (Type, error) {
	p := typeParser{s: s}
	t, err := p.parse()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.s) {
		return nil, p.errorf("unexpected trailing text")
	}
	return t, nil
}

type typeParser struct {
	s   string
	pos int
}

func (p *typeParser) errorf(msg string) error {
	return &typeError{src: p.s, pos: p.pos, msg: msg}
}

type typeError struct {
	src string
	pos int
	msg string
}

func (e *typeError) Error() string {
	return "type " + strconv.Quote(e.src) + " at offset " + strconv.Itoa(e.pos) + ": " + e.msg
}

func (e *typeError) Unwrap() error { return errBadType }

func (p *typeParser) consume(prefix string) bool {
	if strings.HasPrefix(p.s[p.pos:], prefix) {
		p.pos += len(prefix)
		return true
	}
	return false
}

func (p *typeParser) digits() (int64, bool) {
	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
		p.pos++
	}
	if start == p.pos {
		return 0, false
	}
	n, err := strconv.ParseInt(p.s[start:p.pos], 10, 64)
	return n, err == nil
}

func (p *typeParser) parse() (Type, error) {
	switch {
	case p.consume("index"):
		return Index, nil
	case p.consume("memref<"):
		return p.parseMemRef()
	case p.consume("("):
		return p.parseFunction()
	case p.consume("i"):
		w, ok := p.digits()
		if !ok || w <= 0 {
			return nil, p.errorf("expected integer width")
		}
		return IntegerType{Width: int(w)}, nil
	case p.consume("f"):
		w, ok := p.digits()
		if !ok || (w != 16 && w != 32 && w != 64) {
			return nil, p.errorf("expected float width 16, 32 or 64")
		}
		return FloatType{Width: int(w)}, nil
	}
	return nil, p.errorf("unknown type")
}

func (p *typeParser) parseMemRef() (Type, error) {
	var shape []int64
	for {
		save := p.pos
		if p.consume("?x") {
			shape = append(shape, Dynamic)
			continue
		}
		if d, ok := p.digits(); ok && p.consume("x") {
			shape = append(shape, d)
			continue
		}
		p.pos = save
		break
	}
	elem, err := p.parse()
	if err != nil {
		return nil, err
	}
	if !p.consume(">") {
		return nil, p.errorf("expected '>'")
	}
	return MemRefType{Elem: elem, Shape: shape}, nil
}

func (p *typeParser) parseFunction() (Type, error) {
	inputs, err := p.parseTypeListTail()
	if err != nil {
		return nil, err
	}
	if !p.consume(" -> ") {
		return nil, p.errorf("expected ' -> '")
	}
	var outputs []Type
	if p.consume("(") {
		outputs, err = p.parseTypeListTail()
	} else {
		var t Type
		t, err = p.parse()
		outputs = []Type{t}
	}
	if err != nil {
		return nil, err
	}
	return FunctionType{Inputs: inputs, Outputs: outputs}, nil
}

// parseTypeListTail parses "t1, t2)" after the opening parenthesis.
func (p *typeParser) parseTypeListTail() ([]Type, error) {
	var types []Type
	if p.consume(")") {
		return types, nil
	}
	for {
		t, err := p.parse()
		if err != nil {
			return nil, err
		}
		types = append(types, t)
		if p.consume(")") {
			return types, nil
		}
		if !p.consume(", ") {
			return nil, p.errorf("expected ', ' or ')'")
		}
	}
}
