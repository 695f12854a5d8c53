package meta

import (
	"fmt"

	"github.com/soypat/go-ccpp/dialect"
)

// TablePropertiesOp returns the ccpp.table_properties operation persisting p.
func TablePropertiesOp(p *TableProperties) (dialect.TablePropertiesOp, error) {
	tables := make([]dialect.ArgTableOp, 0, len(p.Tables))
	for _, t := range p.Tables {
		args := make([]dialect.ArgOp, 0, len(t.Args))
		for _, a := range t.Args {
			op, err := dialect.NewArg(a.Name, a.Type, a.props(), a.Optional)
			if err != nil {
				return dialect.TablePropertiesOp{}, fmt.Errorf("%s: %w", a.Pos, err)
			}
			args = append(args, op)
		}
		tables = append(tables, dialect.NewArgTable(t.Name, t.Kind, args...))
	}
	return dialect.NewTableProperties(p.Name, p.Kind, p.Dependencies, p.RelativePath, tables...), nil
}

// SuiteOp returns the ccpp.suite operation persisting s.
func SuiteOp(s *Suite) dialect.SuiteOp {
	groups := make([]dialect.GroupOp, 0, len(s.Groups))
	for _, g := range s.Groups {
		names := make([]string, len(g.Schemes))
		for i, sc := range g.Schemes {
			names[i] = sc.Name
		}
		groups = append(groups, dialect.NewGroup(g.Name, names...))
	}
	return dialect.NewSuite(s.Name, s.Version, groups...)
}
