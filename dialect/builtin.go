package dialect

import "github.com/soypat/go-ccpp/ir"

// ModuleOp is a named container of top level operations.
type ModuleOp struct{ *ir.Operation }

// NewModule returns a module holding ops. An empty name leaves the module
// anonymous, as the top level of a tree usually is.
func NewModule(name string, ops ...*ir.Operation) ModuleOp {
	region, _ := singleBlockRegion(ops...)
	props := map[string]ir.Attribute{}
	if name != "" {
		props[PropSymName] = ir.StringAttr(name)
	}
	return ModuleOp{ir.NewOperation(Module, nil, nil, props, region)}
}

// AsModule returns op as a [ModuleOp] if it is one.
func AsModule(op *ir.Operation) (ModuleOp, bool) {
	if op == nil || op.Name != Module {
		return ModuleOp{}, false
	}
	return ModuleOp{op}, true
}

// SymName returns the module name or the empty string for an anonymous module.
func (m ModuleOp) SymName() string { return stringProp(m.Operation, PropSymName) }

// Body returns the single block of the module.
func (m ModuleOp) Body() *ir.Block { return m.Region(0).Block() }

// FindModule returns the module named name directly nested in top.
func FindModule(top ModuleOp, name string) (ModuleOp, bool) {
	for _, op := range top.Body().Ops() {
		if m, ok := AsModule(op); ok && m.SymName() == name {
			return m, true
		}
	}
	return ModuleOp{}, false
}
