package token

import "fmt"

type TokenType string

const (
	EOF = "EOF"

	// Literals
	INTEGER = "INTEGER"
	STRING  = "STRING"
	CHAR    = "CHAR" // identifier

	// + - * / = < > <= >=, distinguished by Literal
	OPERATOR = "OPERATOR"

	// Delimiters
	LPAREN = "LPAREN"
	RPAREN = "RPAREN"

	// Keywords
	DECLARE = "DECLARE"
	SHOW    = "SHOW"
	IF      = "IF"
	THEN    = "THEN"
	ELSE    = "ELSE"
)

type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

func (t Token) String() string {
	return fmt.Sprintf("Token(%s, %q, %d:%d)", t.Type, t.Literal, t.Line, t.Column)
}

// Is reports whether t is an OPERATOR token with the given symbol.
func (t Token) Is(op string) bool {
	return t.Type == OPERATOR && t.Literal == op
}

var keywords = map[string]TokenType{
	"declare": DECLARE,
	"show":    SHOW,
	"if":      IF,
	"then":    THEN,
	"else":    ELSE,
}

func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return CHAR
}
