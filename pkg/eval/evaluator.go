// Package eval runs declang scripts. Parsing and execution are a single
// recursive-descent pass: each statement takes effect as soon as it has been
// read, and no syntax tree is built.
//
// Each show statement reaches the output writer as exactly one Write call
// holding the shown text and a trailing newline.
package eval

import (
	"errors"
	"io"
	"strconv"

	"declang/pkg/langerr"
	"declang/pkg/lexer"
	"declang/pkg/symtab"
	"declang/pkg/token"
)

type Option func(*Evaluator)

// WithLegacyGuard turns on the lexer's redeclaration guard against the run's
// own symbol table. Under it any identifier read after its declaration fails.
func WithLegacyGuard() Option {
	return func(e *Evaluator) { e.legacy = true }
}

type Evaluator struct {
	l   *lexer.Lexer
	env *symtab.Table
	out io.Writer

	curToken token.Token
	legacy   bool
}

// New prepares a run of input against env, writing `show` output to out.
// Passing the same env to several evaluators shares variables between them,
// which is how the REPL keeps state across lines.
func New(input string, env *symtab.Table, out io.Writer, opts ...Option) *Evaluator {
	e := &Evaluator{env: env, out: out}
	for _, opt := range opts {
		opt(e)
	}
	var lexOpts []lexer.Option
	if e.legacy {
		lexOpts = append(lexOpts, lexer.WithDeclaredGuard(env))
	}
	e.l = lexer.New(input, lexOpts...)
	return e
}

// Run executes input on a fresh symbol table.
func Run(input string, out io.Writer, opts ...Option) error {
	return New(input, symtab.New(), out, opts...).Run()
}

// Run executes statements until EOF. The first error aborts the run; output
// already written stays written.
func (e *Evaluator) Run() error {
	if err := e.nextToken(); err != nil {
		return err
	}
	for e.curToken.Type != token.EOF {
		if err := e.statement(); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) nextToken() error {
	tok, err := e.l.NextToken()
	if err != nil {
		return err
	}
	e.curToken = tok
	return nil
}

func (e *Evaluator) expect(t token.TokenType) error {
	if e.curToken.Type != t {
		return e.errorf(langerr.KindUnexpectedToken, "expected %s but found %s", t, e.curToken.Type)
	}
	return e.nextToken()
}

func (e *Evaluator) expectOperator(op string) error {
	if !e.curToken.Is(op) {
		found := string(e.curToken.Type)
		if e.curToken.Type == token.OPERATOR {
			found = e.curToken.Literal
		}
		return e.errorf(langerr.KindUnexpectedToken, "expected %s but found %s", op, found)
	}
	return e.nextToken()
}

// sequence runs statements until ELSE or EOF, leaving that token current.
func (e *Evaluator) sequence() error {
	for e.curToken.Type != token.EOF && e.curToken.Type != token.ELSE {
		if err := e.statement(); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) statement() error {
	switch e.curToken.Type {
	case token.DECLARE:
		return e.declaration()
	case token.SHOW:
		return e.show()
	case token.CHAR:
		return e.assignment()
	case token.IF:
		return e.conditional()
	default:
		return e.errorf(langerr.KindNotAbleToParse, "not able to parse: %s", e.curToken.Literal)
	}
}

func (e *Evaluator) declaration() error {
	if err := e.expect(token.DECLARE); err != nil {
		return err
	}
	name := e.curToken
	if err := e.expect(token.CHAR); err != nil {
		return err
	}
	if err := e.expectOperator("="); err != nil {
		return err
	}
	value, err := e.expr()
	if err != nil {
		return err
	}
	err = e.env.Declare(name.Literal, strconv.FormatInt(value, 10), symtab.DeclareKind, symtab.IntegerType)
	return at(err, name)
}

func (e *Evaluator) show() error {
	if err := e.expect(token.SHOW); err != nil {
		return err
	}
	tok := e.curToken
	var text string
	switch tok.Type {
	case token.STRING:
		text = tok.Literal
	case token.CHAR:
		val, err := e.env.Value(tok.Literal)
		if err != nil {
			return at(err, tok)
		}
		text = val
	default:
		return e.errorf(langerr.KindInvalidShowStatement, "invalid show statement")
	}
	if _, err := io.WriteString(e.out, text+"\n"); err != nil {
		return err
	}
	return e.nextToken()
}

func (e *Evaluator) assignment() error {
	name := e.curToken
	if err := e.env.Check(name.Literal); err != nil {
		return at(err, name)
	}
	if err := e.expect(token.CHAR); err != nil {
		return err
	}
	if err := e.expectOperator("="); err != nil {
		return err
	}
	value, err := e.expr()
	if err != nil {
		return err
	}
	return at(e.env.Assign(name.Literal, strconv.FormatInt(value, 10)), name)
}

// conditional handles `if expr then seq [else seq]`. There is no closing
// keyword, so whichever branch is not taken extends to the end of the input
// (then-branch: up to the first ELSE) and is discarded unexecuted.
func (e *Evaluator) conditional() error {
	if err := e.expect(token.IF); err != nil {
		return err
	}
	cond, err := e.expr()
	if err != nil {
		return err
	}

	if cond != 0 {
		if err := e.expect(token.THEN); err != nil {
			return err
		}
		if err := e.sequence(); err != nil {
			return err
		}
		if e.curToken.Type == token.ELSE {
			return e.skipUntil(token.EOF)
		}
		return nil
	}

	if err := e.skipUntil(token.ELSE); err != nil {
		return err
	}
	if e.curToken.Type == token.ELSE {
		if err := e.expect(token.ELSE); err != nil {
			return err
		}
		return e.sequence()
	}
	return nil
}

// skipUntil discards tokens until t or EOF is current. Lexical errors in the
// discarded text still abort the run.
func (e *Evaluator) skipUntil(t token.TokenType) error {
	for e.curToken.Type != t && e.curToken.Type != token.EOF {
		if err := e.nextToken(); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) errorf(kind langerr.Kind, format string, a ...interface{}) error {
	return langerr.New(kind, format, a...).At(e.curToken.Line, e.curToken.Column)
}

// at positions a symbol table error at tok.
func at(err error, tok token.Token) error {
	if err == nil {
		return nil
	}
	var le *langerr.Error
	if errors.As(err, &le) {
		return le.At(tok.Line, tok.Column)
	}
	return err
}
