package eval

import (
	"strconv"

	"declang/pkg/langerr"
	"declang/pkg/token"
)

// expr parses `term {(+|-) term | cmp expr}`. A comparison takes the whole
// remaining expression as its right operand, so `1 < 2 < 3` is `1 < (2 < 3)`.
// Comparisons yield 1 or 0.
func (e *Evaluator) expr() (int64, error) {
	result, err := e.term()
	if err != nil {
		return 0, err
	}

	for e.curToken.Type == token.OPERATOR {
		op := e.curToken.Literal
		switch op {
		case "+", "-":
			if err := e.nextToken(); err != nil {
				return 0, err
			}
			right, err := e.term()
			if err != nil {
				return 0, err
			}
			if op == "+" {
				result += right
			} else {
				result -= right
			}
		case "<", ">", "<=", ">=":
			if err := e.nextToken(); err != nil {
				return 0, err
			}
			right, err := e.expr()
			if err != nil {
				return 0, err
			}
			result = compare(op, result, right)
		default:
			return result, nil
		}
	}

	return result, nil
}

func compare(op string, left, right int64) int64 {
	var ok bool
	switch op {
	case "<":
		ok = left < right
	case ">":
		ok = left > right
	case "<=":
		ok = left <= right
	case ">=":
		ok = left >= right
	}
	if ok {
		return 1
	}
	return 0
}

// term parses `factor {(*|/) factor}`. Division truncates toward zero.
func (e *Evaluator) term() (int64, error) {
	result, err := e.factor()
	if err != nil {
		return 0, err
	}

	for e.curToken.Is("*") || e.curToken.Is("/") {
		op := e.curToken
		if err := e.nextToken(); err != nil {
			return 0, err
		}
		right, err := e.factor()
		if err != nil {
			return 0, err
		}
		if op.Literal == "*" {
			result *= right
			continue
		}
		if right == 0 {
			return 0, langerr.New(langerr.KindDivisionByZero, "division by zero").At(op.Line, op.Column)
		}
		result /= right
	}

	return result, nil
}

func (e *Evaluator) factor() (int64, error) {
	tok := e.curToken

	switch tok.Type {
	case token.INTEGER:
		val, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			return 0, e.errorf(langerr.KindInvalidFactor, "integer literal out of range: %s", tok.Literal)
		}
		return val, e.nextToken()
	case token.CHAR:
		raw, err := e.env.Value(tok.Literal)
		if err != nil {
			return 0, at(err, tok)
		}
		val, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, e.errorf(langerr.KindInvalidFactor, "variable '%s' does not hold an integer", tok.Literal)
		}
		return val, e.nextToken()
	case token.LPAREN:
		if err := e.nextToken(); err != nil {
			return 0, err
		}
		val, err := e.expr()
		if err != nil {
			return 0, err
		}
		return val, e.expect(token.RPAREN)
	default:
		return 0, e.errorf(langerr.KindInvalidFactor, "invalid factor: %s", tok.Literal)
	}
}
