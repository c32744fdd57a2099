package lexer

import (
	"unicode/utf8"

	"declang/pkg/langerr"
	"declang/pkg/symtab"
	"declang/pkg/token"
)

// Declarations is the view of the symbol table the redeclaration guard needs.
type Declarations interface {
	Lookup(name string) (symtab.Entry, bool)
}

type Option func(*Lexer)

// WithDeclaredGuard makes every identifier read fail with a redeclaration
// error once decls holds it as a DECLARE entry, including plain reads such as
// `show x`. This is the legacy lexing mode; the default leaves redeclaration
// to the symbol table.
func WithDeclaredGuard(decls Declarations) Option {
	return func(l *Lexer) { l.guard = decls }
}

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
	line         int
	column       int

	guard Declarations
}

func New(input string, opts ...Option) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition += 1
	l.column += 1
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) atEnd() bool {
	return l.position >= len(l.input)
}

// NextToken returns the next token. Once the input is exhausted it keeps
// returning EOF.
func (l *Lexer) NextToken() (token.Token, error) {
	for !l.atEnd() && isSpace(l.ch) {
		l.readChar()
	}

	line, col := l.line, l.column
	if l.atEnd() {
		return token.Token{Type: token.EOF, Literal: "", Line: line, Column: col}, nil
	}

	var tok token.Token
	switch l.ch {
	case '+', '-', '*', '/', '=':
		tok = newToken(token.OPERATOR, l.ch, line, col)
	case '<', '>':
		if l.peekChar() == '=' {
			ch := l.ch
			l.readChar()
			tok = token.Token{Type: token.OPERATOR, Literal: string(ch) + string(l.ch), Line: line, Column: col}
		} else {
			tok = newToken(token.OPERATOR, l.ch, line, col)
		}
	case '(':
		tok = newToken(token.LPAREN, l.ch, line, col)
	case ')':
		tok = newToken(token.RPAREN, l.ch, line, col)
	case '"':
		lit, err := l.readString()
		if err != nil {
			return token.Token{}, err.At(line, col)
		}
		return token.Token{Type: token.STRING, Literal: lit, Line: line, Column: col}, nil
	default:
		if isLetter(l.ch) {
			tok.Literal = l.readIdentifier()
			tok.Type = token.LookupIdent(tok.Literal)
			tok.Line = line
			tok.Column = col
			if tok.Type == token.CHAR {
				if err := l.checkRedeclaration(tok.Literal); err != nil {
					return token.Token{}, err.At(line, col)
				}
			}
			return tok, nil
		} else if isDigit(l.ch) {
			tok.Type = token.INTEGER
			tok.Literal = l.readNumber()
			tok.Line = line
			tok.Column = col
			return tok, nil
		}
		r, size := utf8.DecodeRuneInString(l.input[l.position:])
		if r == utf8.RuneError && size == 1 {
			return token.Token{}, langerr.New(langerr.KindInvalidCharacter, "invalid character: %q", l.input[l.position:l.position+1]).At(line, col)
		}
		return token.Token{}, langerr.New(langerr.KindInvalidCharacter, "invalid character: %c", r).At(line, col)
	}

	l.readChar()
	return tok, nil
}

func (l *Lexer) checkRedeclaration(name string) *langerr.Error {
	if l.guard == nil {
		return nil
	}
	if e, ok := l.guard.Lookup(name); ok && e.DeclarationType == symtab.DeclareKind {
		return langerr.New(langerr.KindRedeclaration, "redeclaration of variable '%s' not allowed", name)
	}
	return nil
}

func newToken(tokenType token.TokenType, ch byte, line, col int) token.Token {
	return token.Token{Type: tokenType, Literal: string(ch), Line: line, Column: col}
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for !l.atEnd() && isLetter(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\v' || ch == '\f'
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z'
}

func (l *Lexer) readNumber() string {
	position := l.position
	for !l.atEnd() && isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// readString consumes a double-quoted literal and returns its contents.
// Backslashes are kept as written.
func (l *Lexer) readString() (string, *langerr.Error) {
	l.readChar() // opening quote
	position := l.position
	for !l.atEnd() && l.ch != '"' {
		l.readChar()
	}
	if l.atEnd() {
		return "", langerr.New(langerr.KindUnterminatedString, "unterminated string")
	}
	lit := l.input[position:l.position]
	l.readChar() // closing quote
	return lit, nil
}
