package dialect

import "github.com/soypat/go-ccpp/ir"

// FuncOp is a subroutine. A FuncOp with an empty body region is an external
// declaration.
type FuncOp struct{ *ir.Operation }

// NewFunc returns a function named name whose body block has one argument
// per input of typ. build, if not nil, is called to fill the body.
func NewFunc(name string, typ ir.FunctionType, build func(body *ir.Block)) FuncOp {
	body := ir.NewBlock(typ.Inputs...)
	if build != nil {
		build(body)
	}
	return FuncOp{ir.NewOperation(Func, nil, nil, funcProps(name, typ), ir.NewRegion(body))}
}

// NewDeclaration returns a body-less function, a stub for a subroutine
// defined elsewhere.
func NewDeclaration(name string, typ ir.FunctionType) FuncOp {
	return FuncOp{ir.NewOperation(Func, nil, nil, funcProps(name, typ), ir.NewRegion())}
}

func funcProps(name string, typ ir.FunctionType) map[string]ir.Attribute {
	return map[string]ir.Attribute{
		PropSymName:      ir.StringAttr(name),
		PropFunctionType: ir.TypeAttr{Type: typ},
	}
}

// AsFunc returns op as a [FuncOp] if it is one.
func AsFunc(op *ir.Operation) (FuncOp, bool) {
	if op == nil || op.Name != Func {
		return FuncOp{}, false
	}
	return FuncOp{op}, true
}

func (f FuncOp) SymName() string { return stringProp(f.Operation, PropSymName) }

// Type returns the signature of f.
func (f FuncOp) Type() ir.FunctionType {
	ta, _ := f.Prop(PropFunctionType).(ir.TypeAttr)
	ft, _ := ta.Type.(ir.FunctionType)
	return ft
}

// IsDeclaration reports whether f has no body.
func (f FuncOp) IsDeclaration() bool { return f.Region(0).Empty() }

// Body returns the entry block of f, nil for declarations.
func (f FuncOp) Body() *ir.Block { return f.Region(0).Block() }

// Declaration returns a body-less copy of f with the same name and signature.
func (f FuncOp) Declaration() FuncOp { return NewDeclaration(f.SymName(), f.Type()) }

// CallOp invokes a function by name.
type CallOp struct{ *ir.Operation }

// NewCall returns a call of callee.
func NewCall(callee string, args []*ir.Value, resultTypes []ir.Type) CallOp {
	props := map[string]ir.Attribute{PropCallee: ir.SymbolRefAttr(callee)}
	return CallOp{ir.NewOperation(Call, args, resultTypes, props)}
}

// AsCall returns op as a [CallOp] if it is one.
func AsCall(op *ir.Operation) (CallOp, bool) {
	if op == nil || op.Name != Call {
		return CallOp{}, false
	}
	return CallOp{op}, true
}

// Callee returns the name of the called function.
func (c CallOp) Callee() string {
	s, _ := c.Prop(PropCallee).(ir.SymbolRefAttr)
	return string(s)
}

// NewReturn returns a terminator handing values back to the caller.
func NewReturn(values ...*ir.Value) *ir.Operation {
	return ir.NewOperation(Return, values, nil, nil)
}
