// Package langerr defines the error kinds a declang run can fail with.
package langerr

import (
	"errors"
	"fmt"
)

// Kind classifies a run failure.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindRedeclaration
	KindUndeclaredVariable
	KindAlreadyDeclared
	KindUnterminatedString
	KindInvalidCharacter
	KindUnexpectedToken
	KindInvalidFactor
	KindInvalidShowStatement
	KindNotAbleToParse
	KindDivisionByZero
)

var kindNames = map[Kind]string{
	KindRedeclaration:        "REDECLARATION",
	KindUndeclaredVariable:   "UNDECLARED_VARIABLE",
	KindAlreadyDeclared:      "ALREADY_DECLARED",
	KindUnterminatedString:   "UNTERMINATED_STRING",
	KindInvalidCharacter:     "INVALID_CHARACTER",
	KindUnexpectedToken:      "UNEXPECTED_TOKEN",
	KindInvalidFactor:        "INVALID_FACTOR",
	KindInvalidShowStatement: "INVALID_SHOW_STATEMENT",
	KindNotAbleToParse:       "NOT_ABLE_TO_PARSE",
	KindDivisionByZero:       "DIVISION_BY_ZERO",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "INVALID"
}

// ParseKind maps a kind name such as "DIVISION_BY_ZERO" back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return KindInvalid, false
}

// Error is a failure at a position in the source. Line is 0 when the
// failure has no source position (symbol table operations).
type Error struct {
	Kind   Kind
	Msg    string
	Line   int
	Column int
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
	}
	return e.Msg
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrRedeclaration        = &Error{Kind: KindRedeclaration, Msg: "redeclaration"}
	ErrUndeclaredVariable   = &Error{Kind: KindUndeclaredVariable, Msg: "undeclared variable"}
	ErrAlreadyDeclared      = &Error{Kind: KindAlreadyDeclared, Msg: "already declared"}
	ErrUnterminatedString   = &Error{Kind: KindUnterminatedString, Msg: "unterminated string"}
	ErrInvalidCharacter     = &Error{Kind: KindInvalidCharacter, Msg: "invalid character"}
	ErrUnexpectedToken      = &Error{Kind: KindUnexpectedToken, Msg: "unexpected token"}
	ErrInvalidFactor        = &Error{Kind: KindInvalidFactor, Msg: "invalid factor"}
	ErrInvalidShowStatement = &Error{Kind: KindInvalidShowStatement, Msg: "invalid show statement"}
	ErrNotAbleToParse       = &Error{Kind: KindNotAbleToParse, Msg: "not able to parse"}
	ErrDivisionByZero       = &Error{Kind: KindDivisionByZero, Msg: "division by zero"}
)

func New(kind Kind, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, a...)}
}

// At returns a copy of e positioned at line:col, unless e already has a
// position.
func (e *Error) At(line, col int) *Error {
	if e.Line > 0 {
		return e
	}
	cp := *e
	cp.Line = line
	cp.Column = col
	return &cp
}

// KindOf returns the kind of err, or KindInvalid when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInvalid
}
