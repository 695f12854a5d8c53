package dialect

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/soypat/go-ccpp/ir"
)

// TableKind tags table_properties and arg_table operations.
type TableKind string

const (
	KindScheme TableKind = "scheme"
	KindModule TableKind = "module"
	KindDDT    TableKind = "ddt"
)

// ParseTableKind accepts the metadata spelling of a table kind.
func ParseTableKind(s string) (TableKind, error) {
	switch k := TableKind(strings.ToLower(s)); k {
	case KindScheme, KindModule, KindDDT:
		return k, nil
	}
	return "", fmt.Errorf("unknown table type %q", s)
}

// Property keys of ccpp operations.
const (
	PropSuiteName    = "suite_name"
	PropVersion      = "version"
	PropGroupName    = "group_name"
	PropSchemeName   = "scheme_name"
	PropDependencies = "dependencies"
	PropRelativePath = "relative_path"
	PropStandardName = "standard_name"
	PropLongName     = "long_name"
	PropKind         = "kind"
	PropIntent       = "intent"
	PropUnits        = "units"
	PropDimensions   = "dimensions"
	PropOptional     = "optional"
)

// ArgStringProps lists the optional string properties of ccpp.arg.
var ArgStringProps = []string{PropStandardName, PropLongName, PropKind, PropIntent, PropUnits, PropDimensions}

// SuiteOp is a suite descriptor holding groups.
type SuiteOp struct{ *ir.Operation }

// NewSuite returns a suite named name. An empty version is omitted.
func NewSuite(name, version string, groups ...GroupOp) SuiteOp {
	props := map[string]ir.Attribute{PropSuiteName: ir.StringAttr(name)}
	if version != "" {
		props[PropVersion] = ir.StringAttr(version)
	}
	region, b := singleBlockRegion()
	for _, g := range groups {
		b.AddOp(g.Operation)
	}
	return SuiteOp{ir.NewOperation(Suite, nil, nil, props, region)}
}

func AsSuite(op *ir.Operation) (SuiteOp, bool) {
	if op == nil || op.Name != Suite {
		return SuiteOp{}, false
	}
	return SuiteOp{op}, true
}

func (s SuiteOp) SuiteName() string { return stringProp(s.Operation, PropSuiteName) }
func (s SuiteOp) Version() string   { return stringProp(s.Operation, PropVersion) }
func (s SuiteOp) Body() *ir.Block   { return s.Region(0).Block() }

// GroupOp is an ordered list of scheme references.
type GroupOp struct{ *ir.Operation }

func NewGroup(name string, schemes ...string) GroupOp {
	region, b := singleBlockRegion()
	for _, s := range schemes {
		b.AddOp(NewScheme(s))
	}
	props := map[string]ir.Attribute{PropGroupName: ir.StringAttr(name)}
	return GroupOp{ir.NewOperation(Group, nil, nil, props, region)}
}

func AsGroup(op *ir.Operation) (GroupOp, bool) {
	if op == nil || op.Name != Group {
		return GroupOp{}, false
	}
	return GroupOp{op}, true
}

func (g GroupOp) GroupName() string { return stringProp(g.Operation, PropGroupName) }
func (g GroupOp) Body() *ir.Block   { return g.Region(0).Block() }

// NewScheme returns a reference to the scheme named name.
func NewScheme(name string) *ir.Operation {
	return ir.NewOperation(Scheme, nil, nil, map[string]ir.Attribute{PropSchemeName: ir.StringAttr(name)})
}

// SchemeName returns the scheme referenced by a ccpp.scheme operation.
func SchemeName(op *ir.Operation) string { return stringProp(op, PropSchemeName) }

// TablePropertiesOp holds the argument tables of one metadata file.
type TablePropertiesOp struct{ *ir.Operation }

// NewTableProperties returns a table_properties operation. Empty
// dependencies and relative path are omitted.
func NewTableProperties(name string, kind TableKind, dependencies []string, relativePath string, tables ...ArgTableOp) TablePropertiesOp {
	props := map[string]ir.Attribute{
		PropName: ir.StringAttr(name),
		PropType: ir.StringAttr(kind),
	}
	if len(dependencies) > 0 {
		props[PropDependencies] = ir.StringAttr(strings.Join(dependencies, ","))
	}
	if relativePath != "" {
		props[PropRelativePath] = ir.StringAttr(relativePath)
	}
	region, b := singleBlockRegion()
	for _, t := range tables {
		b.AddOp(t.Operation)
	}
	return TablePropertiesOp{ir.NewOperation(TableProperties, nil, nil, props, region)}
}

func AsTableProperties(op *ir.Operation) (TablePropertiesOp, bool) {
	if op == nil || op.Name != TableProperties {
		return TablePropertiesOp{}, false
	}
	return TablePropertiesOp{op}, true
}

func (t TablePropertiesOp) TableName() string    { return stringProp(t.Operation, PropName) }
func (t TablePropertiesOp) Kind() TableKind      { return TableKind(stringProp(t.Operation, PropType)) }
func (t TablePropertiesOp) RelativePath() string { return stringProp(t.Operation, PropRelativePath) }
func (t TablePropertiesOp) Body() *ir.Block      { return t.Region(0).Block() }

// Dependencies returns the comma separated dependency list split in order.
func (t TablePropertiesOp) Dependencies() []string {
	s := stringProp(t.Operation, PropDependencies)
	if s == "" {
		return nil
	}
	deps := strings.Split(s, ",")
	for i := range deps {
		deps[i] = strings.TrimSpace(deps[i])
	}
	return deps
}

// ArgTableOp describes the arguments of one scheme phase subroutine.
type ArgTableOp struct{ *ir.Operation }

func NewArgTable(name string, kind TableKind, args ...ArgOp) ArgTableOp {
	props := map[string]ir.Attribute{
		PropName: ir.StringAttr(name),
		PropType: ir.StringAttr(kind),
	}
	region, b := singleBlockRegion()
	for _, a := range args {
		b.AddOp(a.Operation)
	}
	return ArgTableOp{ir.NewOperation(ArgTable, nil, nil, props, region)}
}

func AsArgTable(op *ir.Operation) (ArgTableOp, bool) {
	if op == nil || op.Name != ArgTable {
		return ArgTableOp{}, false
	}
	return ArgTableOp{op}, true
}

func (t ArgTableOp) TableName() string { return stringProp(t.Operation, PropName) }
func (t ArgTableOp) Kind() TableKind   { return TableKind(stringProp(t.Operation, PropType)) }
func (t ArgTableOp) Body() *ir.Block   { return t.Region(0).Block() }

// ArgOp is one argument of an argument table.
type ArgOp struct{ *ir.Operation }

// NewArg returns an argument named name of metadata type typ. props holds
// optional string properties keyed as in [ArgStringProps]; empty values are
// omitted.
func NewArg(name, typ string, props map[string]string, optional bool) (ArgOp, error) {
	attrs := map[string]ir.Attribute{
		PropName: ir.StringAttr(name),
		PropType: ir.StringAttr(typ),
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !slices.Contains(ArgStringProps, k) {
			return ArgOp{}, fmt.Errorf("argument %s: unknown property %q", name, k)
		}
		if props[k] != "" {
			attrs[k] = ir.StringAttr(props[k])
		}
	}
	if optional {
		attrs[PropOptional] = ir.UnitAttr{}
	}
	return ArgOp{ir.NewOperation(Arg, nil, nil, attrs)}, nil
}

func AsArg(op *ir.Operation) (ArgOp, bool) {
	if op == nil || op.Name != Arg {
		return ArgOp{}, false
	}
	return ArgOp{op}, true
}

func (a ArgOp) ArgName() string { return stringProp(a.Operation, PropName) }
func (a ArgOp) ArgType() string { return stringProp(a.Operation, PropType) }

// Attr returns an optional string property and whether it is set.
func (a ArgOp) Attr(key string) (string, bool) { return a.StringProp(key) }

// Optional reports whether the argument may be omitted by callers.
func (a ArgOp) Optional() bool {
	_, ok := a.Prop(PropOptional).(ir.UnitAttr)
	return ok
}
