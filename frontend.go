// Package ccpp reads CCPP metadata tables and suite definition files and
// persists them as ccpp operations in an operation tree, the input of the
// suite cap generation passes.
package ccpp

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/soypat/go-ccpp/dialect"
	"github.com/soypat/go-ccpp/ir"
	"github.com/soypat/go-ccpp/meta"
)

// ParseMetadata parses the metadata file read from r. Every malformed line
// is reported; the returned error joins [*ParserError]s.
func ParseMetadata(source string, r io.Reader) (*meta.TableProperties, error) {
	var p Parser
	if err := p.Reset(source, r); err != nil {
		return nil, err
	}
	props := p.Parse()
	if err := p.Err(); err != nil {
		return nil, err
	}
	return props, nil
}

// Project is the set of inputs describing a CCPP build: suites, scheme
// metadata and host model metadata.
type Project struct {
	Suites  []*meta.Suite
	Schemes []*meta.TableProperties
	Hosts   []*meta.TableProperties
}

// LoadProject reads and parses the named files. Errors of all files are
// returned joined.
func LoadProject(suiteFiles, schemeFiles, hostFiles []string) (*Project, error) {
	var prj Project
	var errs []error
	for _, name := range suiteFiles {
		s, err := readFile(name, ReadSuite)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		prj.Suites = append(prj.Suites, s)
	}
	for _, files := range []struct {
		names []string
		dst   *[]*meta.TableProperties
	}{
		{names: schemeFiles, dst: &prj.Schemes},
		{names: hostFiles, dst: &prj.Hosts},
	} {
		for _, name := range files.names {
			props, err := readFile(name, ParseMetadata)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			*files.dst = append(*files.dst, props)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &prj, nil
}

func readFile[T any](name string, parse func(string, io.Reader) (T, error)) (T, error) {
	fp, err := os.Open(name)
	if err != nil {
		var zero T
		return zero, err
	}
	defer fp.Close()
	return parse(name, fp)
}

// Build returns an anonymous top level module holding one ccpp.suite per
// suite followed by one ccpp.table_properties per scheme and host metadata
// file, in that order.
func (prj *Project) Build() (dialect.ModuleOp, error) {
	var ops []*ir.Operation
	suites := make(map[string]bool)
	for _, s := range prj.Suites {
		if suites[s.Name] {
			return dialect.ModuleOp{}, fmt.Errorf("suite %q: %w", s.Name, meta.ErrDuplicate)
		}
		suites[s.Name] = true
		ops = append(ops, meta.SuiteOp(s).Operation)
	}
	seen := meta.NewMetadata()
	for _, props := range append(append([]*meta.TableProperties{}, prj.Schemes...), prj.Hosts...) {
		if err := seen.Add(props); err != nil {
			return dialect.ModuleOp{}, err
		}
		op, err := meta.TablePropertiesOp(props)
		if err != nil {
			return dialect.ModuleOp{}, err
		}
		ops = append(ops, op.Operation)
	}
	return dialect.NewModule("", ops...), nil
}
