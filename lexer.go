package ccpp

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"unicode/utf8"

	"github.com/soypat/go-ccpp/token"
)

// Lexer tokenizes CCPP metadata files. The format is line oriented: a line
// is a header ([ccpp-table-properties], [ccpp-arg-table] or [ name ]), a
// key = value pair, a # comment or blank.
type Lexer struct {
	input bufio.Reader
	ch    rune // current character (utf8)
	err   error
	buf   []byte // accumulation buffer.

	source    string // filename or source name.
	line      int    // file line number (position of current char)
	col       int    // column number in line (position of current char)
	pos       int    // byte position.
	tokenLine int    // line number where the last token started
	tokenCol  int    // column number where the last token started
	// valueNext is set after an '=' so the rest of the line is read raw.
	valueNext bool
}

// Reset discards all state and buffered data and begins a new lexing
// procedure on the input r. It performs a single utf8 read to initialize.
func (l *Lexer) Reset(source string, r io.Reader) error {
	if r == nil {
		return errors.New("nil reader")
	} else if source == "" {
		return errors.New("no source name")
	}
	*l = Lexer{
		input:  l.input,
		buf:    l.buf[:0],
		line:   1,
		source: source,
	}
	l.input.Reset(r)
	l.readChar()
	if l.err == io.EOF {
		return nil
	}
	return l.err
}

// Source returns the name the lexer was reset with. Usually a filename.
func (l *Lexer) Source() string { return l.source }

// Err returns the lexer error. Reaching the end of input is not an error.
func (l *Lexer) Err() error {
	if l.err == io.EOF {
		return nil
	}
	return l.err
}

// TokenLineCol returns the line/col where the last returned token started.
func (l *Lexer) TokenLineCol() (line, col int) {
	return l.tokenLine, l.tokenCol
}

// NextToken returns the next token and its literal. Literals are returned
// for identifiers, keys, values, comments and argument headers, where the
// literal is the argument name. The returned byte slice is reused between
// calls to NextToken.
func (l *Lexer) NextToken() (tok token.Token, literal []byte) {
	if l.source == "" {
		l.err = errors.New("lexer uninitialized")
		return token.Illegal, nil
	}
	if l.valueNext {
		l.valueNext = false
		l.skipBlanks()
		l.tokenLine, l.tokenCol = l.line, l.col
		return token.Value, bytes.TrimSpace(l.readUntilNewline())
	}
	l.skipBlanks()
	l.tokenLine, l.tokenCol = l.line, l.col
	ch := l.ch
	switch {
	case ch == 0:
		if l.err != nil && l.err != io.EOF {
			return token.Illegal, nil
		}
		return token.EOF, nil
	case ch == '\n':
		l.readChar()
		return token.NewLine, nil
	case ch == '#':
		l.readChar()
		return token.LineComment, bytes.TrimSpace(l.readUntilNewline())
	case ch == '[':
		l.readChar()
		l.buf = l.buf[:0]
		for l.ch != ']' && l.ch != '\n' && l.ch != 0 {
			l.buf = utf8.AppendRune(l.buf, l.ch)
			l.readChar()
		}
		if l.ch != ']' {
			return token.Illegal, l.buf
		}
		l.readChar()
		tok, name := token.LookupHeader(l.buf)
		if tok == token.Illegal {
			return tok, l.buf
		}
		return tok, name
	case ch == '=':
		l.readChar()
		l.valueNext = true
		return token.Equals, nil
	case isKeyChar(ch):
		l.buf = l.buf[:0]
		for isKeyChar(l.ch) {
			l.buf = utf8.AppendRune(l.buf, l.ch)
			l.readChar()
		}
		return token.LookupKey(l.buf), l.buf
	}
	l.readChar()
	l.buf = utf8.AppendRune(l.buf[:0], ch)
	return token.Illegal, l.buf
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	r, sz, err := l.input.ReadRune()
	if err != nil {
		l.ch = 0
		if l.err == nil {
			l.err = err
		}
		return
	}
	l.ch = r
	l.col++
	l.pos += sz
}

func (l *Lexer) skipBlanks() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.readChar()
	}
}

// readUntilNewline reads the rest of the line excluding the newline.
func (l *Lexer) readUntilNewline() []byte {
	l.buf = l.buf[:0]
	for l.ch != '\n' && l.ch != 0 {
		l.buf = utf8.AppendRune(l.buf, l.ch)
		l.readChar()
	}
	return l.buf
}

func isKeyChar(ch rune) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' || ch == '_' || ch == '-'
}
