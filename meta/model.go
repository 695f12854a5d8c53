// Package meta holds the metadata and suite descriptor models of a CCPP
// project, their conversion to operation tree types, and the read-only
// visitors that recover the models from a tree.
package meta

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/soypat/go-ccpp/dialect"
)

var (
	// ErrDuplicate is returned when a table properties block, argument table
	// or argument is declared twice in the same scope.
	ErrDuplicate = errors.New("duplicate declaration")
	// ErrMissingArgTable is returned when no argument table matches a scheme phase.
	ErrMissingArgTable = errors.New("missing argument table")
)

// Intent is the data flow direction of an argument.
type Intent string

const (
	IntentUnspecified Intent = ""
	IntentIn          Intent = "in"
	IntentOut         Intent = "out"
	IntentInOut       Intent = "inout"
)

// ParseIntent accepts in, out and inout in any case. The empty string is
// an unspecified intent.
func ParseIntent(s string) (Intent, error) {
	switch i := Intent(strings.ToLower(strings.TrimSpace(s))); i {
	case IntentUnspecified, IntentIn, IntentOut, IntentInOut:
		return i, nil
	}
	return "", fmt.Errorf("unknown intent %q", s)
}

// Pos locates a declaration in a metadata file. The zero Pos is unknown.
type Pos struct {
	File string
	Line int
}

func (p Pos) String() string {
	if p.File == "" && p.Line == 0 {
		return "-"
	}
	return p.File + ":" + strconv.Itoa(p.Line)
}

// Argument is one entry of an argument table.
type Argument struct {
	Name         string
	Type         string // character, integer or real.
	Kind         string
	Intent       Intent
	StandardName string
	LongName     string
	Units        string
	Dimensions   string
	Optional     bool
	Pos          Pos
}

// EffectiveIntent returns the intent the generator acts upon. An
// unspecified intent is treated as inout.
func (a *Argument) EffectiveIntent() Intent {
	if a.Intent == IntentUnspecified {
		return IntentInOut
	}
	return a.Intent
}

// IsInput reports whether callers pass the argument in.
func (a *Argument) IsInput() bool {
	i := a.EffectiveIntent()
	return i == IntentIn || i == IntentInOut
}

// IsOutput reports whether the callee hands the argument back.
func (a *Argument) IsOutput() bool {
	i := a.EffectiveIntent()
	return i == IntentOut || i == IntentInOut
}

// props returns the optional string properties of a keyed as ccpp.arg
// properties.
func (a *Argument) props() map[string]string {
	return map[string]string{
		dialect.PropStandardName: a.StandardName,
		dialect.PropLongName:     a.LongName,
		dialect.PropKind:         a.Kind,
		dialect.PropIntent:       string(a.Intent),
		dialect.PropUnits:        a.Units,
		dialect.PropDimensions:   a.Dimensions,
	}
}

// ArgumentTable lists the arguments of one subroutine in declaration order.
type ArgumentTable struct {
	Name  string
	Kind  dialect.TableKind
	Args  []*Argument
	Pos   Pos
	index map[string]int
}

func NewArgumentTable(name string, kind dialect.TableKind) *ArgumentTable {
	return &ArgumentTable{Name: name, Kind: kind, index: make(map[string]int)}
}

// Add appends arg. An argument name may appear once per table.
func (t *ArgumentTable) Add(arg *Argument) error {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if _, dup := t.index[arg.Name]; dup {
		return fmt.Errorf("%s: argument %q in table %s: %w", arg.Pos, arg.Name, t.Name, ErrDuplicate)
	}
	t.index[arg.Name] = len(t.Args)
	t.Args = append(t.Args, arg)
	return nil
}

// Arg returns the argument named name.
func (t *ArgumentTable) Arg(name string) (*Argument, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.Args[i], true
}

// TableProperties describes one metadata file: its kind, dependencies and
// the argument tables it declares.
type TableProperties struct {
	Name         string
	Kind         dialect.TableKind
	Dependencies []string
	RelativePath string
	Tables       []*ArgumentTable
	Pos          Pos
	index        map[string]int
}

func NewTableProperties(name string, kind dialect.TableKind) *TableProperties {
	return &TableProperties{Name: name, Kind: kind, index: make(map[string]int)}
}

// AddTable appends t. A table name may appear once per table properties.
func (p *TableProperties) AddTable(t *ArgumentTable) error {
	if p.index == nil {
		p.index = make(map[string]int)
	}
	if _, dup := p.index[t.Name]; dup {
		return fmt.Errorf("%s: argument table %q in %s: %w", t.Pos, t.Name, p.Name, ErrDuplicate)
	}
	p.index[t.Name] = len(p.Tables)
	p.Tables = append(p.Tables, t)
	return nil
}

// Table returns the argument table named name.
func (p *TableProperties) Table(name string) (*ArgumentTable, bool) {
	i, ok := p.index[name]
	if !ok {
		return nil, false
	}
	return p.Tables[i], true
}

// Metadata is the set of table properties of a project in insertion order.
type Metadata struct {
	props []*TableProperties
	index map[string]int
}

func NewMetadata() *Metadata {
	return &Metadata{index: make(map[string]int)}
}

// Add registers p. Table properties names are unique.
func (m *Metadata) Add(p *TableProperties) error {
	if _, dup := m.index[p.Name]; dup {
		return fmt.Errorf("%s: table properties %q: %w", p.Pos, p.Name, ErrDuplicate)
	}
	m.index[p.Name] = len(m.props)
	m.props = append(m.props, p)
	return nil
}

// Properties returns every table properties in insertion order.
func (m *Metadata) Properties() []*TableProperties { return m.props }

// Get returns the table properties named name.
func (m *Metadata) Get(name string) (*TableProperties, bool) {
	i, ok := m.index[name]
	if !ok {
		return nil, false
	}
	return m.props[i], true
}

// ArgTable resolves the argument table named table of scheme. The table is
// looked up in the table properties named after the scheme first and in
// every other table properties second, so host metadata files may bundle
// several schemes.
func (m *Metadata) ArgTable(scheme, table string) (*ArgumentTable, error) {
	if p, ok := m.Get(scheme); ok {
		if t, ok := p.Table(table); ok {
			return t, nil
		}
	}
	for _, p := range m.props {
		if t, ok := p.Table(table); ok {
			return t, nil
		}
	}
	return nil, fmt.Errorf("scheme %s: table %s: %w", scheme, table, ErrMissingArgTable)
}
