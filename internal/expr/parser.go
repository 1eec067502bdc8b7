package expr

import (
	"fmt"

	"github.com/cctr-run/cctr/internal/value"
)

type parser struct {
	lx  *lexer
	tok token
}

// Parse parses a full constraint expression, including the top-level forall
// quantifier form.
func Parse(src string) (Expr, error) {
	p := &parser{lx: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	e, err := p.parseForall()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tEOF {
		return nil, fmt.Errorf("unexpected trailing token at position %d", p.lx.pos)
	}
	return e, nil
}

func (p *parser) advance() error {
	t, err := p.lx.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) parseForall() (Expr, error) {
	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind == tForall {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind != tIdent {
			return nil, fmt.Errorf("expected identifier after forall")
		}
		ident := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind != tIn {
			return nil, fmt.Errorf("expected 'in' after forall identifier")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		coll, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		return &ForallExpr{Ident: ident, Collection: coll, Predicate: left}, nil
	}
	return left, nil
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tOr {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseRel()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tAnd {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseRel()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "and", Left: left, Right: right}
	}
	return left, nil
}

// parseRel handles contains/startswith/endswith/matches/in, optionally
// prefixed by the lexical pair "not <op>".
func (p *parser) parseRel() (Expr, error) {
	left, err := p.parseCompare()
	if err != nil {
		return nil, err
	}
	for {
		neg := false
		if p.tok.kind == tNot {
			if err := p.advance(); err != nil {
				return nil, err
			}
			neg = true
		}
		var op string
		switch p.tok.kind {
		case tContains:
			op = "contains"
		case tStartswith:
			op = "startswith"
		case tEndswith:
			op = "endswith"
		case tMatches:
			op = "matches"
		case tIn:
			op = "in"
		default:
			if neg {
				return nil, fmt.Errorf("expected relational operator after 'not'")
			}
			return left, nil
		}
		var right Expr
		if op == "matches" {
			// The lexer cursor sits just past "matches": read the /regex/
			// literal from there before lexing the next token.
			pattern, err := p.lx.readRegexLiteral()
			if err != nil {
				return nil, err
			}
			right = &RegexExpr{Pattern: pattern}
			if err := p.advance(); err != nil {
				return nil, err
			}
		} else {
			if err := p.advance(); err != nil {
				return nil, err
			}
			right, err = p.parseCompare()
			if err != nil {
				return nil, err
			}
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right, Neg: neg}
	}
}

func (p *parser) parseCompare() (Expr, error) {
	left, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.tok.kind {
		case tEq:
			op = "=="
		case tNe:
			op = "!="
		case tLt:
			op = "<"
		case tLe:
			op = "<="
		case tGt:
			op = ">"
		case tGe:
			op = ">="
		default:
			return left, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseAdd() (Expr, error) {
	left, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tPlus || p.tok.kind == tMinus {
		op := "+"
		if p.tok.kind == tMinus {
			op = "-"
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseMul() (Expr, error) {
	left, err := p.parsePow()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tStar || p.tok.kind == tSlash || p.tok.kind == tPercent {
		var op string
		switch p.tok.kind {
		case tStar:
			op = "*"
		case tSlash:
			op = "/"
		case tPercent:
			op = "%"
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parsePow()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

// parsePow is right-associative: 2^3^2 == 2^(3^2).
func (p *parser) parsePow() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.tok.kind == tCaret {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parsePow()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: "^", Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.tok.kind == tMinus {
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "-", Expr: operand}, nil
	}
	if p.tok.kind == tNot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "not", Expr: operand}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Expr, error) {
	e, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		switch p.tok.kind {
		case tDot:
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.tok.kind != tIdent {
				return nil, fmt.Errorf("expected identifier after '.'")
			}
			name := p.tok.text
			if err := p.advance(); err != nil {
				return nil, err
			}
			e = &FieldExpr{Recv: e, Name: name}
		case tLBracket:
			if err := p.advance(); err != nil {
				return nil, err
			}
			idx, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if p.tok.kind != tRBracket {
				return nil, fmt.Errorf("expected ']'")
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
			e = &IndexExpr{Recv: e, Index: idx}
		default:
			return e, nil
		}
	}
}

func (p *parser) parseAtom() (Expr, error) {
	switch p.tok.kind {
	case tNumber:
		v := value.Number(p.tok.num)
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &LiteralExpr{Val: v}, nil
	case tString:
		v := value.String(p.tok.text)
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &LiteralExpr{Val: v}, nil
	case tTrue:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &LiteralExpr{Val: value.Bool(true)}, nil
	case tFalse:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &LiteralExpr{Val: value.Bool(false)}, nil
	case tNull:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &LiteralExpr{Val: value.Null()}, nil
	case tLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseForall()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tRParen {
			return nil, fmt.Errorf("expected ')'")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return e, nil
	case tLBracket:
		if err := p.advance(); err != nil {
			return nil, err
		}
		var items []Expr
		if p.tok.kind != tRBracket {
			for {
				item, err := p.parseOr()
				if err != nil {
					return nil, err
				}
				items = append(items, item)
				if p.tok.kind == tComma {
					if err := p.advance(); err != nil {
						return nil, err
					}
					continue
				}
				break
			}
		}
		if p.tok.kind != tRBracket {
			return nil, fmt.Errorf("expected ']'")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ArrayExpr{Items: items}, nil
	case tIdent:
		name := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind == tLParen {
			if err := p.advance(); err != nil {
				return nil, err
			}
			var args []Expr
			if p.tok.kind != tRParen {
				for {
					arg, err := p.parseOr()
					if err != nil {
						return nil, err
					}
					args = append(args, arg)
					if p.tok.kind == tComma {
						if err := p.advance(); err != nil {
							return nil, err
						}
						continue
					}
					break
				}
			}
			if p.tok.kind != tRParen {
				return nil, fmt.Errorf("expected ')' closing call to %s", name)
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
			return &CallExpr{Name: name, Args: args}, nil
		}
		return &IdentExpr{Name: name}, nil
	}
	return nil, fmt.Errorf("unexpected token in expression")
}
