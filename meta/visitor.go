package meta

import (
	"errors"
	"fmt"

	"github.com/soypat/go-ccpp/dialect"
	"github.com/soypat/go-ccpp/ir"
)

// BuildMetadata recovers the metadata model from every ccpp.table_properties
// operation nested in root. Malformed tables are reported joined.
func BuildMetadata(root *ir.Operation) (*Metadata, error) {
	v := &metadataVisitor{md: NewMetadata()}
	ir.Walk(v, root)
	return v.md, errors.Join(v.errs...)
}

type metadataVisitor struct {
	md   *Metadata
	errs []error
}

func (v *metadataVisitor) Visit(op *ir.Operation) ir.Visitor {
	if op == nil {
		return nil
	}
	tp, ok := dialect.AsTableProperties(op)
	if !ok {
		return v
	}
	props := NewTableProperties(tp.TableName(), tp.Kind())
	props.Dependencies = tp.Dependencies()
	props.RelativePath = tp.RelativePath()
	if err := v.md.Add(props); err != nil {
		v.errs = append(v.errs, err)
		return nil
	}
	return &propertiesVisitor{parent: v, props: props}
}

type propertiesVisitor struct {
	parent *metadataVisitor
	props  *TableProperties
}

func (v *propertiesVisitor) Visit(op *ir.Operation) ir.Visitor {
	if op == nil {
		return nil
	}
	at, ok := dialect.AsArgTable(op)
	if !ok {
		v.parent.errs = append(v.parent.errs, fmt.Errorf("table properties %s: unexpected %s", v.props.Name, op.Name))
		return nil
	}
	table := NewArgumentTable(at.TableName(), at.Kind())
	if err := v.props.AddTable(table); err != nil {
		v.parent.errs = append(v.parent.errs, err)
		return nil
	}
	return &tableVisitor{parent: v.parent, table: table}
}

type tableVisitor struct {
	parent *metadataVisitor
	table  *ArgumentTable
}

func (v *tableVisitor) Visit(op *ir.Operation) ir.Visitor {
	if op == nil {
		return nil
	}
	a, ok := dialect.AsArg(op)
	if !ok {
		v.parent.errs = append(v.parent.errs, fmt.Errorf("argument table %s: unexpected %s", v.table.Name, op.Name))
		return nil
	}
	arg, err := argumentFromOp(a)
	if err == nil {
		err = v.table.Add(arg)
	}
	if err != nil {
		v.parent.errs = append(v.parent.errs, fmt.Errorf("argument table %s: %w", v.table.Name, err))
	}
	return nil
}

func argumentFromOp(a dialect.ArgOp) (*Argument, error) {
	attr := func(key string) string {
		s, _ := a.Attr(key)
		return s
	}
	intent, err := ParseIntent(attr(dialect.PropIntent))
	if err != nil {
		return nil, fmt.Errorf("argument %s: %w", a.ArgName(), err)
	}
	return &Argument{
		Name:         a.ArgName(),
		Type:         a.ArgType(),
		Kind:         attr(dialect.PropKind),
		Intent:       intent,
		StandardName: attr(dialect.PropStandardName),
		LongName:     attr(dialect.PropLongName),
		Units:        attr(dialect.PropUnits),
		Dimensions:   attr(dialect.PropDimensions),
		Optional:     a.Optional(),
	}, nil
}

// Suites is the set of suite descriptors recovered from a tree.
type Suites struct {
	list  []*Suite
	index map[string]int
}

// List returns the suites in tree order.
func (s *Suites) List() []*Suite { return s.list }

// Get returns the suite named name.
func (s *Suites) Get(name string) (*Suite, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.list[i], true
}

// BuildSuites recovers the suite descriptors from every ccpp.suite operation
// nested in root.
func BuildSuites(root *ir.Operation) (*Suites, error) {
	suites := &Suites{index: make(map[string]int)}
	var errs []error
	ir.Inspect(root, func(op *ir.Operation) bool {
		so, ok := dialect.AsSuite(op)
		if !ok {
			return op != nil
		}
		s, err := suiteFromOp(so)
		if err != nil {
			errs = append(errs, err)
			return false
		}
		if _, dup := suites.index[s.Name]; dup {
			errs = append(errs, fmt.Errorf("suite %q: %w", s.Name, ErrDuplicate))
			return false
		}
		suites.index[s.Name] = len(suites.list)
		suites.list = append(suites.list, s)
		return false
	})
	return suites, errors.Join(errs...)
}

func suiteFromOp(so dialect.SuiteOp) (*Suite, error) {
	s := &Suite{Name: so.SuiteName(), Version: so.Version()}
	for _, op := range so.Body().Ops() {
		g, ok := dialect.AsGroup(op)
		if !ok {
			return nil, fmt.Errorf("suite %s: unexpected %s", s.Name, op.Name)
		}
		group := Group{Name: g.GroupName()}
		for _, sop := range g.Body().Ops() {
			if sop.Name != dialect.Scheme {
				return nil, fmt.Errorf("suite %s: group %s: unexpected %s", s.Name, group.Name, sop.Name)
			}
			group.Schemes = append(group.Schemes, Scheme{Name: dialect.SchemeName(sop)})
		}
		s.Groups = append(s.Groups, group)
	}
	return s, nil
}

// GatherSignatures returns the function declarations nested in root keyed
// by name.
func GatherSignatures(root *ir.Operation) map[string]dialect.FuncOp {
	sigs := make(map[string]dialect.FuncOp)
	ir.Inspect(root, func(op *ir.Operation) bool {
		f, ok := dialect.AsFunc(op)
		if !ok {
			return op != nil
		}
		if f.IsDeclaration() {
			sigs[f.SymName()] = f
		}
		return false
	})
	return sigs
}
