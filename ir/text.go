package ir

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// The textual form of a tree is a YAML document. Every operation is a mapping
//
//	op: func.call
//	operands: ["%3", "%4"]
//	results: [{id: "%5", type: memref<f64>, hint: x}]
//	properties: {callee: {sym: A_init}}
//	regions: [{blocks: [{args: [...], ops: [...]}]}]
//
// and every property is a single key mapping: {str: s}, {int: n, type: t},
// {float: x, type: t}, {unit: true}, {type: t} or {sym: name}.

type opDoc struct {
	Op         string             `yaml:"op"`
	Operands   []string           `yaml:"operands,omitempty,flow"`
	Results    []valueDoc         `yaml:"results,omitempty"`
	Properties map[string]attrDoc `yaml:"properties,omitempty"`
	Regions    []regionDoc        `yaml:"regions,omitempty"`
}

type valueDoc struct {
	ID   string `yaml:"id"`
	Type string `yaml:"type"`
	Hint string `yaml:"hint,omitempty"`
}

type regionDoc struct {
	Blocks []blockDoc `yaml:"blocks"`
}

type blockDoc struct {
	Args []valueDoc `yaml:"args,omitempty"`
	Ops  []opDoc    `yaml:"ops,omitempty"`
}

type attrDoc struct {
	Str   *string  `yaml:"str,omitempty"`
	Int   *int64   `yaml:"int,omitempty"`
	Float *float64 `yaml:"float,omitempty"`
	Unit  bool     `yaml:"unit,omitempty"`
	Type  string   `yaml:"type,omitempty"`
	Sym   *string  `yaml:"sym,omitempty"`
}

// SyntaxError is returned by [Unmarshal] for malformed input.
type SyntaxError struct {
	Source string
	Line   int
	Col    int
	Msg    string
}

func (e *SyntaxError) Error() string {
	b := []byte(e.Source)
	b = append(b, ':')
	b = strconv.AppendInt(b, int64(e.Line), 10)
	if e.Col > 0 {
		b = append(b, ':')
		b = strconv.AppendInt(b, int64(e.Col), 10)
	}
	b = append(b, ": "...)
	b = append(b, e.Msg...)
	return string(b)
}

// Marshal writes the textual form of the tree rooted at op to w.
func Marshal(w io.Writer, op *Operation) error {
	m := marshaler{ids: make(map[*Value]string)}
	doc := m.op(op)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

type marshaler struct {
	ids  map[*Value]string
	next int
}

func (m *marshaler) id(v *Value) string {
	if id, ok := m.ids[v]; ok {
		return id
	}
	id := "%" + strconv.Itoa(m.next)
	m.next++
	m.ids[v] = id
	return id
}

func (m *marshaler) value(v *Value) valueDoc {
	return valueDoc{ID: m.id(v), Type: v.typ.String(), Hint: v.NameHint}
}

func (m *marshaler) op(op *Operation) opDoc {
	doc := opDoc{Op: op.Name}
	for _, v := range op.operands {
		doc.Operands = append(doc.Operands, m.id(v))
	}
	for _, r := range op.results {
		doc.Results = append(doc.Results, m.value(r))
	}
	if len(op.Properties) > 0 {
		doc.Properties = make(map[string]attrDoc, len(op.Properties))
		for k, a := range op.Properties {
			doc.Properties[k] = marshalAttr(a)
		}
	}
	for _, r := range op.regions {
		rd := regionDoc{Blocks: []blockDoc{}}
		for _, b := range r.blocks {
			var bd blockDoc
			for _, a := range b.args {
				bd.Args = append(bd.Args, m.value(a))
			}
			for _, child := range b.ops {
				bd.Ops = append(bd.Ops, m.op(child))
			}
			rd.Blocks = append(rd.Blocks, bd)
		}
		doc.Regions = append(doc.Regions, rd)
	}
	return doc
}

func marshalAttr(a Attribute) attrDoc {
	switch a := a.(type) {
	case StringAttr:
		s := string(a)
		return attrDoc{Str: &s}
	case IntegerAttr:
		v := a.Value
		return attrDoc{Int: &v, Type: a.Type.String()}
	case FloatAttr:
		v := a.Value
		return attrDoc{Float: &v, Type: a.Type.String()}
	case UnitAttr:
		return attrDoc{Unit: true}
	case TypeAttr:
		return attrDoc{Type: a.Type.String()}
	case SymbolRefAttr:
		s := string(a)
		return attrDoc{Sym: &s}
	}
	panic(fmt.Sprintf("ir: unknown attribute %T", a))
}

// Unmarshal parses the textual form read from r. source names the input in
// error messages. Malformed input yields a [*SyntaxError].
func Unmarshal(source string, r io.Reader) (*Operation, error) {
	var root yaml.Node
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &SyntaxError{Source: source, Line: 1, Msg: "empty input"}
		}
		return nil, yamlSyntaxError(source, err)
	}
	u := unmarshaler{source: source, defs: make(map[string]*Value)}
	node := &root
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	op, err := u.op(node)
	if err != nil {
		return nil, err
	}
	for _, f := range u.fixups {
		v, ok := u.defs[f.id]
		if !ok {
			return nil, u.errorf(f.node, "use of undefined value %s", f.id)
		}
		f.op.SetOperand(f.index, v)
	}
	return op, nil
}

var yamlLineRe = regexp.MustCompile(`line (\d+)`)

func yamlSyntaxError(source string, err error) *SyntaxError {
	se := &SyntaxError{Source: source, Msg: err.Error()}
	if m := yamlLineRe.FindStringSubmatch(err.Error()); m != nil {
		se.Line, _ = strconv.Atoi(m[1])
	}
	return se
}

type fixup struct {
	op    *Operation
	index int
	id    string
	node  *yaml.Node
}

type unmarshaler struct {
	source string
	defs   map[string]*Value
	fixups []fixup
}

func (u *unmarshaler) errorf(n *yaml.Node, format string, args ...any) error {
	return &SyntaxError{Source: u.source, Line: n.Line, Col: n.Column, Msg: fmt.Sprintf(format, args...)}
}

func (u *unmarshaler) define(n *yaml.Node, id string, v *Value) error {
	if _, dup := u.defs[id]; dup {
		return u.errorf(n, "value %s redefined", id)
	}
	u.defs[id] = v
	return nil
}

// mapping returns the key/value pairs of a mapping node in document order.
func (u *unmarshaler) mapping(n *yaml.Node) ([][2]*yaml.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, u.errorf(n, "expected mapping")
	}
	pairs := make([][2]*yaml.Node, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		pairs = append(pairs, [2]*yaml.Node{n.Content[i], n.Content[i+1]})
	}
	return pairs, nil
}

func (u *unmarshaler) sequence(n *yaml.Node) ([]*yaml.Node, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, u.errorf(n, "expected sequence")
	}
	return n.Content, nil
}

func (u *unmarshaler) valueDefs(n *yaml.Node) ([]valueDoc, []*yaml.Node, error) {
	items, err := u.sequence(n)
	if err != nil {
		return nil, nil, err
	}
	docs := make([]valueDoc, len(items))
	for i, item := range items {
		if err := item.Decode(&docs[i]); err != nil {
			return nil, nil, u.errorf(item, "bad value definition: %v", err)
		}
		if docs[i].ID == "" || docs[i].Type == "" {
			return nil, nil, u.errorf(item, "value definition requires id and type")
		}
	}
	return docs, items, nil
}

func (u *unmarshaler) op(n *yaml.Node) (*Operation, error) {
	pairs, err := u.mapping(n)
	if err != nil {
		return nil, err
	}
	var (
		name        string
		operandIDs  []string
		operandNode []*yaml.Node
		results     []valueDoc
		resultNodes []*yaml.Node
		props       = make(map[string]Attribute)
		regions     []*Region
	)
	for _, kv := range pairs {
		key, val := kv[0], kv[1]
		switch key.Value {
		case "op":
			name = val.Value
		case "operands":
			items, err := u.sequence(val)
			if err != nil {
				return nil, err
			}
			for _, item := range items {
				operandIDs = append(operandIDs, item.Value)
				operandNode = append(operandNode, item)
			}
		case "results":
			results, resultNodes, err = u.valueDefs(val)
			if err != nil {
				return nil, err
			}
		case "properties":
			propPairs, err := u.mapping(val)
			if err != nil {
				return nil, err
			}
			for _, p := range propPairs {
				a, err := u.attr(p[1])
				if err != nil {
					return nil, err
				}
				props[p[0].Value] = a
			}
		case "regions":
			items, err := u.sequence(val)
			if err != nil {
				return nil, err
			}
			for _, item := range items {
				r, err := u.region(item)
				if err != nil {
					return nil, err
				}
				regions = append(regions, r)
			}
		default:
			return nil, u.errorf(key, "unknown operation field %q", key.Value)
		}
	}
	if name == "" {
		return nil, u.errorf(n, "operation without name")
	}
	resultTypes := make([]Type, len(results))
	for i, r := range results {
		t, err := ParseType(r.Type)
		if err != nil {
			return nil, u.errorf(resultNodes[i], "%v", err)
		}
		resultTypes[i] = t
	}
	op := NewOperation(name, make([]*Value, len(operandIDs)), resultTypes, props, regions...)
	for i, r := range results {
		op.results[i].NameHint = r.Hint
		if err := u.define(resultNodes[i], r.ID, op.results[i]); err != nil {
			return nil, err
		}
	}
	for i, id := range operandIDs {
		u.fixups = append(u.fixups, fixup{op: op, index: i, id: id, node: operandNode[i]})
	}
	return op, nil
}

func (u *unmarshaler) region(n *yaml.Node) (*Region, error) {
	pairs, err := u.mapping(n)
	if err != nil {
		return nil, err
	}
	r := NewRegion()
	for _, kv := range pairs {
		if kv[0].Value != "blocks" {
			return nil, u.errorf(kv[0], "unknown region field %q", kv[0].Value)
		}
		items, err := u.sequence(kv[1])
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			b, err := u.block(item)
			if err != nil {
				return nil, err
			}
			r.AddBlock(b)
		}
	}
	return r, nil
}

func (u *unmarshaler) block(n *yaml.Node) (*Block, error) {
	pairs, err := u.mapping(n)
	if err != nil {
		return nil, err
	}
	b := NewBlock()
	for _, kv := range pairs {
		key, val := kv[0], kv[1]
		switch key.Value {
		case "args":
			args, nodes, err := u.valueDefs(val)
			if err != nil {
				return nil, err
			}
			for i, a := range args {
				t, err := ParseType(a.Type)
				if err != nil {
					return nil, u.errorf(nodes[i], "%v", err)
				}
				v := &Value{typ: t, NameHint: a.Hint, block: b, index: len(b.args)}
				b.args = append(b.args, v)
				if err := u.define(nodes[i], a.ID, v); err != nil {
					return nil, err
				}
			}
		case "ops":
			items, err := u.sequence(val)
			if err != nil {
				return nil, err
			}
			for _, item := range items {
				op, err := u.op(item)
				if err != nil {
					return nil, err
				}
				b.AddOp(op)
			}
		default:
			return nil, u.errorf(key, "unknown block field %q", key.Value)
		}
	}
	return b, nil
}

func (u *unmarshaler) attr(n *yaml.Node) (Attribute, error) {
	var d attrDoc
	if err := n.Decode(&d); err != nil {
		return nil, u.errorf(n, "bad property: %v", err)
	}
	var typ Type
	if d.Type != "" {
		t, err := ParseType(d.Type)
		if err != nil {
			return nil, u.errorf(n, "%v", err)
		}
		typ = t
	}
	switch {
	case d.Str != nil:
		return StringAttr(*d.Str), nil
	case d.Sym != nil:
		return SymbolRefAttr(*d.Sym), nil
	case d.Int != nil:
		if typ == nil {
			typ = I64
		}
		return IntegerAttr{Value: *d.Int, Type: typ}, nil
	case d.Float != nil:
		if typ == nil {
			typ = F64
		}
		return FloatAttr{Value: *d.Float, Type: typ}, nil
	case d.Unit:
		return UnitAttr{}, nil
	case typ != nil:
		return TypeAttr{Type: typ}, nil
	}
	return nil, u.errorf(n, "empty property")
}

// SortedPropertyKeys returns the property keys of op in lexical order.
func SortedPropertyKeys(op *Operation) []string {
	keys := make([]string, 0, len(op.Properties))
	for k := range op.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
