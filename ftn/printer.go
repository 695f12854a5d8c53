// Package ftn renders an operation tree as Fortran source, one subroutine per
// function with a body. Every value producing operation is assigned to its
// own local variable; expressions are never nested.
package ftn

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/soypat/go-ccpp/dialect"
	"github.com/soypat/go-ccpp/ir"
)

const (
	indentUnit = "  "
	divider    = "// -----\n"
)

// Print renders every module directly nested in top, each under a
// "// FILE: <name>" header, separated by "// -----" lines. Nothing is
// written to w if an operation cannot be rendered.
func Print(w io.Writer, top dialect.ModuleOp) error {
	var buf bytes.Buffer
	first := true
	for _, op := range top.Body().Ops() {
		m, ok := dialect.AsModule(op)
		if !ok {
			continue
		}
		if !first {
			buf.WriteString(divider)
		}
		first = false
		buf.WriteString("// FILE: " + m.SymName() + "\n")
		if err := printModule(&buf, m); err != nil {
			return err
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// PrintModule renders the subroutines of m.
func PrintModule(w io.Writer, m dialect.ModuleOp) error {
	var buf bytes.Buffer
	if err := printModule(&buf, m); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func printModule(buf *bytes.Buffer, m dialect.ModuleOp) error {
	for _, op := range m.Body().Ops() {
		f, ok := dialect.AsFunc(op)
		if !ok || f.IsDeclaration() {
			continue
		}
		if err := printSubroutine(buf, f); err != nil {
			return fmt.Errorf("module %s: subroutine %s: %w", m.SymName(), f.SymName(), err)
		}
	}
	return nil
}

type dummy struct {
	name   string
	typ    ir.Type
	intent string
}

func printSubroutine(buf *bytes.Buffer, f dialect.FuncOp) error {
	body := f.Body()
	ret := body.Last()
	if ret == nil || ret.Name != dialect.Return {
		return errors.New("body does not end in " + dialect.Return)
	}
	u := newUnit()
	sc := newScope(u)
	var dummies []dummy
	for _, arg := range body.Args() {
		u.dummies[arg] = true
		dummies = append(dummies, dummy{name: sc.bind(arg, arg.NameHint), typ: arg.Type(), intent: "in"})
	}
	for _, v := range ret.Operands() {
		if u.dummies[v] {
			return fmt.Errorf("value %s returned twice or also an input", v.NameHint)
		}
		u.dummies[v] = true
	}

	var stmts bytes.Buffer
	p := printer{w: &stmts, u: u}
	if err := p.block(sc, body, 1); err != nil {
		return err
	}
	for _, v := range ret.Operands() {
		name, ok := sc.lookup(v)
		if !ok {
			return errors.New("returned value is not defined in the subroutine body")
		}
		dummies = append(dummies, dummy{name: name, typ: v.Type(), intent: "out"})
	}

	names := make([]string, len(dummies))
	for i, d := range dummies {
		names[i] = d.name
	}
	fmt.Fprintf(buf, "\nsubroutine %s(%s)\n", f.SymName(), strings.Join(names, ", "))
	for _, d := range dummies {
		typ, err := TypeName(d.typ)
		if err != nil {
			return fmt.Errorf("argument %s: %w", d.name, err)
		}
		fmt.Fprintf(buf, "%s%s, intent(%s) :: %s\n", indentUnit, typ, d.intent, d.name)
	}
	for _, l := range u.locals {
		typ, err := TypeName(l.typ)
		if err != nil {
			return fmt.Errorf("local %s: %w", l.name, err)
		}
		fmt.Fprintf(buf, "%s%s :: %s\n", indentUnit, typ, l.name)
	}
	buf.WriteByte('\n')
	buf.Write(stmts.Bytes())
	fmt.Fprintf(buf, "end subroutine %s\n", f.SymName())
	return nil
}

// printer writes the statements of one subroutine.
type printer struct {
	w io.Writer
	u *unit
}

func (p *printer) line(indent int, format string, args ...any) {
	io.WriteString(p.w, strings.Repeat(indentUnit, indent))
	fmt.Fprintf(p.w, format, args...)
	io.WriteString(p.w, "\n")
}

func (p *printer) block(sc scope, b *ir.Block, indent int) error {
	for _, op := range b.Ops() {
		if err := p.op(sc, op, indent); err != nil {
			return err
		}
	}
	return nil
}

// define binds a name to v and declares it as a local unless it is an
// argument of the subroutine.
func (p *printer) define(sc scope, v *ir.Value) (string, error) {
	name := sc.bind(v, v.NameHint)
	if p.u.dummies[v] {
		return name, nil
	}
	return name, p.u.declare(name, v.Type())
}

// assign materializes expr into a new variable holding v.
func (p *printer) assign(sc scope, v *ir.Value, expr string, indent int) error {
	name, err := p.define(sc, v)
	if err != nil {
		return err
	}
	p.line(indent, "%s = %s", name, expr)
	return nil
}

func use(sc scope, v *ir.Value) (string, error) {
	if v == nil {
		return "", errors.New("undefined operand")
	}
	name, ok := sc.lookup(v)
	if !ok {
		return "", fmt.Errorf("value of type %s used outside of the scope defining it", v.Type())
	}
	return name, nil
}

func useAll(sc scope, vs []*ir.Value) ([]string, error) {
	names := make([]string, len(vs))
	for i, v := range vs {
		name, err := use(sc, v)
		if err != nil {
			return nil, err
		}
		names[i] = name
	}
	return names, nil
}

// element renders mem, indexed when indices are given.
func element(sc scope, mem *ir.Value, indices []*ir.Value) (string, error) {
	name, err := use(sc, mem)
	if err != nil {
		return "", err
	}
	if len(indices) == 0 {
		return name, nil
	}
	idx, err := useAll(sc, indices)
	if err != nil {
		return "", err
	}
	return name + "(" + strings.Join(idx, ", ") + ")", nil
}

func (p *printer) op(sc scope, op *ir.Operation, indent int) error {
	switch op.Name {
	case dialect.Alloca:
		_, err := p.define(sc, op.Result(0))
		return err

	case dialect.Constant:
		lit, err := literal(op.Prop(dialect.PropValue))
		if err != nil {
			return err
		}
		return p.assign(sc, op.Result(0), lit, indent)

	case dialect.Load:
		src, err := element(sc, op.Operand(0), op.Operands()[1:])
		if err != nil {
			return err
		}
		return p.assign(sc, op.Result(0), src, indent)

	case dialect.CmpI, dialect.CmpF:
		sym, ok, err := comparisonOperator(op)
		if err != nil || !ok {
			return err
		}
		return p.binary(sc, op, sym, indent)

	case dialect.Store:
		value, err := use(sc, op.Operand(0))
		if err != nil {
			return err
		}
		dst, err := element(sc, op.Operand(1), op.Operands()[2:])
		if err != nil {
			return err
		}
		p.line(indent, "%s = %s", dst, value)
		return nil

	case dialect.Copy:
		names, err := useAll(sc, op.Operands())
		if err != nil {
			return err
		}
		if names[0] != names[1] {
			p.line(indent, "%s = %s", names[1], names[0])
		}
		return nil

	case dialect.Call:
		return p.call(sc, op, indent)

	case dialect.If:
		return p.ifStmt(sc, op, indent)

	case dialect.Yield, dialect.Return:
		return nil
	}
	if sym, ok := binaryOperators[op.Name]; ok {
		return p.binary(sc, op, sym, indent)
	}
	return fmt.Errorf("cannot render %s", op.Name)
}

func (p *printer) binary(sc scope, op *ir.Operation, sym string, indent int) error {
	operands, err := useAll(sc, op.Operands())
	if err != nil {
		return err
	}
	return p.assign(sc, op.Result(0), operands[0]+" "+sym+" "+operands[1], indent)
}

// call renders a subroutine call. A result copied into a variable by the
// following memref.copy is passed as that variable; other results get a
// new local.
func (p *printer) call(sc scope, op *ir.Operation, indent int) error {
	c, _ := dialect.AsCall(op)
	args, err := useAll(sc, c.Operands())
	if err != nil {
		return err
	}
	for _, r := range c.Results() {
		if dst := copyTarget(r); dst != nil {
			if name, ok := sc.lookup(dst); ok {
				sc.alias(r, name)
				args = append(args, name)
				continue
			}
		}
		name, err := p.define(sc, r)
		if err != nil {
			return err
		}
		args = append(args, name)
	}
	p.line(indent, "call %s(%s)", c.Callee(), strings.Join(args, ", "))
	return nil
}

// copyTarget returns the destination of the first memref.copy reading v.
func copyTarget(v *ir.Value) *ir.Value {
	for _, u := range v.Uses() {
		if u.Op.Name == dialect.Copy && u.Index == 0 {
			return u.Op.Operand(1)
		}
	}
	return nil
}

func (p *printer) ifStmt(sc scope, op *ir.Operation, indent int) error {
	i, _ := dialect.AsIf(op)
	cond, err := use(sc, i.Cond())
	if err != nil {
		return err
	}
	p.line(indent, "if (%s) then", cond)
	if err := p.block(sc.descend(), i.Then(), indent+1); err != nil {
		return err
	}
	if i.HasElse() {
		p.line(indent, "else")
		if err := p.block(sc.descend(), i.Else(), indent+1); err != nil {
			return err
		}
	}
	p.line(indent, "end if")
	return nil
}
