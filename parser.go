package ccpp

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/soypat/go-ccpp/dialect"
	"github.com/soypat/go-ccpp/meta"
	"github.com/soypat/go-ccpp/token"
)

// ParserError is a metadata malformation located in its source file.
type ParserError struct {
	sp  sourcePos
	msg string
}

func (pe *ParserError) Error() string {
	var dst []byte
	dst = pe.sp.AppendString(dst)
	dst = append(dst, ':', ' ')
	dst = append(dst, pe.msg...)
	return string(dst)
}

// Line returns the 1 based line the error was found on.
func (pe *ParserError) Line() int { return pe.sp.Line }

type sourcePos struct {
	Source string
	Line   int
	Col    int
}

func (l *sourcePos) String() string {
	return string(l.AppendString(nil))
}

func (l *sourcePos) AppendString(b []byte) []byte {
	if b == nil {
		b = make([]byte, 0, len(l.Source)+3+3)
	}
	b = append(b, l.Source...)
	b = append(b, ':')

	b = strconv.AppendInt(b, int64(l.Line), 10)
	if l.Col > 0 {
		b = append(b, ':')
		b = strconv.AppendInt(b, int64(l.Col), 10)
	}
	return b
}

type blockKind int

const (
	blockNone blockKind = iota
	blockProperties
	blockTable
	blockArg
)

func (b blockKind) String() string {
	switch b {
	case blockProperties:
		return token.TablePropertiesHeader.String()
	case blockTable:
		return token.ArgTableHeader.String()
	case blockArg:
		return "argument"
	}
	return "top level"
}

// Parser reads one metadata file into a [meta.TableProperties]. Errors are
// collected with their position so one pass reports every malformed line.
type Parser struct {
	l       Lexer
	errors  []ParserError
	maxErrs int

	props *meta.TableProperties
	table *meta.ArgumentTable
	arg   *meta.Argument
	block blockKind
}

// Reset prepares the parser to read source from r.
func (p *Parser) Reset(source string, r io.Reader) error {
	err := p.l.Reset(source, r)
	if err != nil {
		return err
	}
	if p.maxErrs == 0 {
		p.maxErrs = 20
	}
	*p = Parser{
		l:       p.l,
		maxErrs: p.maxErrs,
		errors:  p.errors[:0],
	}
	return nil
}

// Errors returns the errors collected by the last call to Parse.
func (p *Parser) Errors() []ParserError {
	return p.errors
}

// Err returns the collected errors joined, or nil.
func (p *Parser) Err() error {
	errs := make([]error, len(p.errors))
	for i := range p.errors {
		errs[i] = &p.errors[i]
	}
	return errors.Join(errs...)
}

// Parse reads the whole input. The returned table properties is nil if the
// file declares none; check [Parser.Err] for malformations.
func (p *Parser) Parse() *meta.TableProperties {
	for len(p.errors) < p.maxErrs {
		tok, lit := p.l.NextToken()
		switch {
		case tok == token.EOF:
			p.flushTable()
			if p.props == nil {
				p.addError("missing " + token.TablePropertiesHeader.String() + " block")
			} else if p.props.Name == "" {
				p.addErrorAt(p.props.Pos.Line, "table properties without name")
			}
			return p.props
		case tok == token.NewLine, tok == token.LineComment:
		case tok == token.TablePropertiesHeader:
			if p.props != nil {
				p.addError("duplicate " + tok.String() + " block")
			} else {
				p.props = meta.NewTableProperties("", "")
				p.props.Pos = p.pos()
			}
			p.block = blockProperties
			p.expectEndOfLine()
		case tok == token.ArgTableHeader:
			p.flushTable()
			if p.props == nil {
				p.addError(tok.String() + " outside of " + token.TablePropertiesHeader.String())
			}
			p.table = meta.NewArgumentTable("", "")
			p.table.Pos = p.pos()
			p.block = blockTable
			p.expectEndOfLine()
		case tok == token.ArgHeader:
			p.flushArg()
			if p.table == nil {
				p.addError("argument " + strconv.Quote(string(lit)) + " outside of " + token.ArgTableHeader.String())
				p.skipLine()
				continue
			}
			p.arg = &meta.Argument{Name: string(lit), Pos: p.pos()}
			p.block = blockArg
			p.expectEndOfLine()
		case tok.IsKey() || tok == token.Identifier:
			p.parseKeyValue(tok, string(lit))
		default:
			p.addError("malformed line starting with " + strconv.Quote(string(lit)))
			p.skipLine()
		}
	}
	p.addError("too many errors")
	return p.props
}

func (p *Parser) parseKeyValue(key token.Token, keyLit string) {
	keyPos := p.sourcePos()
	if tok, _ := p.l.NextToken(); tok != token.Equals {
		p.addError("expected '=' after " + strconv.Quote(keyLit))
		if !tok.IsEndOfLine() {
			p.skipLine()
		}
		return
	}
	_, value := p.l.NextToken()
	val := string(value)
	if key == token.Identifier {
		p.addErrorPos(keyPos, "unknown key "+strconv.Quote(keyLit))
		return
	}
	var err error
	switch p.block {
	case blockProperties:
		if !key.IsTablePropertiesKey() {
			break
		}
		err = p.setPropertiesKey(key, val)
		p.expectEndOfLine()
		p.reportKey(keyPos, keyLit, err)
		return
	case blockTable:
		if !key.IsArgTableKey() {
			break
		}
		err = p.setTableKey(key, val)
		p.expectEndOfLine()
		p.reportKey(keyPos, keyLit, err)
		return
	case blockArg:
		if !key.IsArgumentKey() {
			break
		}
		err = p.setArgKey(key, val)
		p.expectEndOfLine()
		p.reportKey(keyPos, keyLit, err)
		return
	}
	p.addErrorPos(keyPos, "key "+strconv.Quote(keyLit)+" not allowed in "+p.block.String()+" block")
	p.expectEndOfLine()
}

func (p *Parser) reportKey(pos sourcePos, key string, err error) {
	if err != nil {
		p.addErrorPos(pos, key+": "+err.Error())
	}
}

func (p *Parser) setPropertiesKey(key token.Token, val string) (err error) {
	switch key {
	case token.KeyName:
		p.props.Name = val
	case token.KeyType:
		p.props.Kind, err = dialect.ParseTableKind(val)
	case token.KeyDependencies:
		for _, dep := range strings.Split(val, ",") {
			if dep = strings.TrimSpace(dep); dep != "" {
				p.props.Dependencies = append(p.props.Dependencies, dep)
			}
		}
	case token.KeyRelativePath:
		p.props.RelativePath = val
	}
	return err
}

func (p *Parser) setTableKey(key token.Token, val string) (err error) {
	switch key {
	case token.KeyName:
		p.table.Name = val
	case token.KeyType:
		p.table.Kind, err = dialect.ParseTableKind(val)
	}
	return err
}

func (p *Parser) setArgKey(key token.Token, val string) (err error) {
	a := p.arg
	switch key {
	case token.KeyType:
		a.Type = strings.ToLower(val)
	case token.KeyStandardName:
		a.StandardName = val
	case token.KeyLongName:
		a.LongName = val
	case token.KeyKind:
		a.Kind = val
	case token.KeyIntent:
		a.Intent, err = meta.ParseIntent(val)
	case token.KeyUnits:
		a.Units = val
	case token.KeyOptional:
		a.Optional, err = parseLogical(val)
	case token.KeyDimensions:
		if strings.ReplaceAll(val, " ", "") != "()" {
			return errors.New("only scalar arguments are supported, got dimensions " + val)
		}
		a.Dimensions = "()"
	}
	return err
}

func parseLogical(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "t", ".true.":
		return true, nil
	case "false", "f", ".false.":
		return false, nil
	}
	return false, errors.New("expected True or False, got " + strconv.Quote(s))
}

func (p *Parser) flushArg() {
	if p.arg == nil {
		return
	}
	arg := p.arg
	p.arg = nil
	if arg.Type == "" {
		p.addErrorAt(arg.Pos.Line, "argument "+strconv.Quote(arg.Name)+" without type")
	}
	if err := p.table.Add(arg); err != nil {
		p.addErrorAt(arg.Pos.Line, "duplicate argument "+strconv.Quote(arg.Name)+" in table "+p.table.Name)
	}
}

func (p *Parser) flushTable() {
	p.flushArg()
	if p.table == nil {
		return
	}
	t := p.table
	p.table = nil
	if t.Name == "" {
		p.addErrorAt(t.Pos.Line, "argument table without name")
		return
	}
	if p.props == nil {
		return
	}
	if err := p.props.AddTable(t); err != nil {
		p.addErrorAt(t.Pos.Line, "duplicate argument table "+strconv.Quote(t.Name))
	}
}

// expectEndOfLine consumes the end of the current line reporting any
// trailing content.
func (p *Parser) expectEndOfLine() {
	tok, lit := p.l.NextToken()
	if tok.IsEndOfLine() {
		return
	}
	p.addError("unexpected " + strconv.Quote(string(lit)) + " at end of line")
	p.skipLine()
}

func (p *Parser) skipLine() {
	for {
		tok, _ := p.l.NextToken()
		if tok == token.NewLine || tok.IsIllegalOrEOF() {
			return
		}
	}
}

func (p *Parser) pos() meta.Pos {
	line, _ := p.l.TokenLineCol()
	return meta.Pos{File: p.l.Source(), Line: line}
}

func (p *Parser) sourcePos() sourcePos {
	line, col := p.l.TokenLineCol()
	return sourcePos{Source: p.l.Source(), Line: line, Col: col}
}

func (p *Parser) addErrorPos(pos sourcePos, msg string) {
	p.errors = append(p.errors, ParserError{sp: pos, msg: msg})
}

func (p *Parser) addErrorAt(line int, msg string) {
	p.addErrorPos(sourcePos{Source: p.l.Source(), Line: line}, msg)
}

func (p *Parser) addError(msg string) {
	p.addErrorPos(p.sourcePos(), msg)
}
