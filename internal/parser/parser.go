// Package parser implements a Pratt (precedence-climbing) parser over
// internal/lexer's token stream, building the internal/ast tree described
// in spec.md §4.2. Parse errors are embedded as *ast.ErrorExpr sentinel
// nodes rather than aborting the parse, so one illegal construct never
// prevents diagnosing the rest of the program (multi-error diagnostics).
package parser

import (
	"fmt"
	"strconv"

	"github.com/edgerules/edgerules/internal/ast"
	"github.com/edgerules/edgerules/internal/lexer"
	"github.com/edgerules/edgerules/internal/token"
)

// Precedence levels, high = binds tighter. See SPEC_FULL.md §4.2 for how
// these were derived from spec.md's prose precedence table, including the
// deliberately unusual placement of unary `not` between comparisons and
// `and`/`or` (spec.md §8's "not x > y parses as not (x > y)").
const (
	lowest     = 0
	orPrec     = 20 // and / or / xor
	notPrec    = 25 // unary "not" operand threshold
	cmpPrec    = 40 // = <> < > <= >=
	rangePrec  = 45 // ..
	sumPrec    = 50 // + -
	prodPrec   = 60 // * /
	powerPrec  = 70 // ^ (right-assoc)
	unaryPrec  = 80 // unary -
	postfixPrec = 90 // . [ (
)

var infixPrecedence = map[token.Type]int{
	token.AND:        orPrec,
	token.OR:         orPrec,
	token.XOR:        orPrec,
	token.ASSIGN:     cmpPrec,
	token.NOT_EQ:     cmpPrec,
	token.LESS:       cmpPrec,
	token.GREATER:    cmpPrec,
	token.LESS_EQ:    cmpPrec,
	token.GREATER_EQ: cmpPrec,
	token.DOTDOT:     rangePrec,
	token.PLUS:       sumPrec,
	token.MINUS:      sumPrec,
	token.ASTERISK:   prodPrec,
	token.SLASH:      prodPrec,
	token.CARET:      powerPrec,
	token.DOT:        postfixPrec,
	token.LBRACK:     postfixPrec,
}

// Parser builds an internal/ast tree from one internal/lexer stream.
type Parser struct {
	l       *lexer.Lexer
	errors  []*Error
	curTok  token.Token
	peekTok token.Token
}

// New creates a Parser over l and primes the two-token lookahead window.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.next()
	p.next()
	return p
}

// Errors returns every parse error accumulated so far.
func (p *Parser) Errors() []*Error { return p.errors }

func (p *Parser) next() {
	p.curTok = p.peekTok
	p.peekTok = p.l.NextToken()
}

func (p *Parser) addError(kind ErrorKind, pos token.Position, format string, args ...any) {
	p.errors = append(p.errors, &Error{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

func (p *Parser) curIs(t token.Type) bool  { return p.curTok.Type == t }
func (p *Parser) peekIs(t token.Type) bool { return p.peekTok.Type == t }

// expect consumes curTok if it matches t, else records a MissingToken error
// and leaves the cursor in place so synchronize() can recover.
func (p *Parser) expect(t token.Type) bool {
	if p.curIs(t) {
		p.next()
		return true
	}
	p.addError(MissingToken, p.curTok.Pos, "expected %s, got %s %q", t, p.curTok.Type, p.curTok.Literal)
	return false
}

// synchronize skips tokens until a likely recovery point: a separator, a
// closing brace, or EOF. Used after a parse error so the parser can keep
// collecting further diagnostics instead of stopping at the first one.
func (p *Parser) synchronize() {
	for !p.curIs(token.EOF) && !p.curIs(token.RBRACE) {
		if p.curIs(token.SEMICOLON) {
			p.next()
			return
		}
		p.next()
	}
}

func errAt(pos token.Position, msg string) *ast.ErrorExpr {
	e := &ast.ErrorExpr{Message: msg}
	e.Tok = token.New(token.ILLEGAL, "", pos)
	return e
}

// ParseProgram parses the whole source as a root context object literal
// (spec.md's end-to-end examples are all written as `{ ... }`).
func (p *Parser) ParseProgram() *ast.ContextObject {
	if !p.curIs(token.LBRACE) {
		p.addError(UnexpectedToken, p.curTok.Pos, "program must be a context object starting with '{'")
		return ast.NewContextObject(p.curTok)
	}
	return p.parseContextBody()
}

// ParseExpression parses a single bare expression (for evaluate_expression).
func (p *Parser) ParseExpression() ast.Expression {
	expr := p.parseExpr(lowest)
	if !p.curIs(token.EOF) {
		p.addError(UnexpectedToken, p.curTok.Pos, "unexpected trailing token %q", p.curTok.Literal)
	}
	return expr
}

// parseContextBody parses `{ field|func|type ... }`, already expecting
// curTok == '{'.
func (p *Parser) parseContextBody() *ast.ContextObject {
	startTok := p.curTok
	ctx := ast.NewContextObject(startTok)
	p.next() // consume '{'

	var pending []*ast.Annotation

	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		if p.curIs(token.SEMICOLON) {
			p.next()
			continue
		}
		if p.curIs(token.AT) {
			pending = append(pending, p.parseAnnotation())
			continue
		}
		switch {
		case p.curIs(token.FUNC):
			fn := p.parseFunctionDef()
			fn.Annotations = pending
			ctx.SetField(&ast.Field{Tok: fn.Tok, Name: fn.Name, Value: fn, Annotations: pending})
			pending = nil
		case p.curIs(token.TYPE):
			td := p.parseTypeDef()
			ctx.TypeDefs = append(ctx.TypeDefs, td)
			pending = nil
		case p.curIs(token.IDENT):
			f := p.parseField(pending)
			if f != nil {
				ctx.SetField(f)
				if nested, ok := f.Value.(*ast.ContextObject); ok {
					ctx.AttachChild(nested)
					nested.Annotations = append(nested.Annotations, pending...)
				}
			}
			pending = nil
		default:
			p.addError(UnexpectedToken, p.curTok.Pos, "unexpected token %q in context body", p.curTok.Literal)
			p.synchronize()
		}
	}

	if !p.expect(token.RBRACE) {
		// already recorded a MissingToken error; nothing more to do.
	}
	return ctx
}

func (p *Parser) parseAnnotation() *ast.Annotation {
	p.next() // consume '@'
	name := p.curTok.Literal
	if !p.curIs(token.IDENT) {
		p.addError(UnexpectedToken, p.curTok.Pos, "expected annotation name after '@'")
	} else {
		p.next()
	}
	ann := &ast.Annotation{Name: name}
	if p.curIs(token.LPAREN) {
		p.next()
		if p.curIs(token.STRING) {
			ann.Arg = p.curTok.Literal
			p.next()
		}
		p.expect(token.RPAREN)
	}
	return ann
}

func (p *Parser) parseField(pending []*ast.Annotation) *ast.Field {
	tok := p.curTok
	name := p.curTok.Literal
	p.next() // consume name
	if !p.expect(token.COLON) {
		p.synchronize()
		return &ast.Field{Tok: tok, Name: name, Value: errAt(tok.Pos, "missing ':' after field name"), Annotations: pending}
	}
	value := p.parseExpr(lowest)
	return &ast.Field{Tok: tok, Name: name, Value: value, Annotations: pending}
}

func (p *Parser) parseParams() []*ast.Param {
	var params []*ast.Param
	p.expect(token.LPAREN)
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		name := p.curTok.Literal
		p.expect(token.IDENT)
		param := &ast.Param{Name: name}
		if p.curIs(token.COLON) {
			p.next()
			param.TypeRef = p.parseTypeRefString()
		}
		params = append(params, param)
		if p.curIs(token.COMMA) {
			p.next()
		}
	}
	p.expect(token.RPAREN)
	return params
}

// parseTypeRefString reads a bare type-reference token sequence such as
// `Number` or `Number[]`, returning it verbatim (the parser records it;
// nothing downstream enforces it — spec.md Open Question (a)).
func (p *Parser) parseTypeRefString() string {
	name := p.curTok.Literal
	if p.curIs(token.IDENT) {
		p.next()
	}
	if p.curIs(token.LBRACK) {
		p.next()
		p.expect(token.RBRACK)
		name += "[]"
	}
	return name
}

func (p *Parser) parseFunctionDef() *ast.FunctionDefinition {
	tok := p.curTok
	p.next() // consume 'func'
	name := p.curTok.Literal
	p.expect(token.IDENT)
	params := p.parseParams()
	fn := &ast.FunctionDefinition{Name: name, Params: params}
	fn.Tok = tok
	if p.expect(token.COLON) {
		if p.curIs(token.LBRACE) {
			fn.Body = p.parseContextBody()
		} else {
			p.addError(MissingToken, p.curTok.Pos, "function body must be a context object")
			fn.Body = ast.NewContextObject(p.curTok)
		}
	}
	return fn
}

func (p *Parser) parseTypeDef() *ast.TypeDef {
	tok := p.curTok
	p.next() // consume 'type'
	name := p.curTok.Literal
	p.expect(token.IDENT)
	p.expect(token.COLON)
	td := &ast.TypeDef{Tok: tok, Name: name}
	if p.curIs(token.LBRACE) {
		td.Inline = p.parseContextBody()
	} else {
		ref := p.parseTypeRefString()
		isArray := false
		if len(ref) > 2 && ref[len(ref)-2:] == "[]" {
			isArray = true
			ref = ref[:len(ref)-2]
		}
		td.Ref = &ast.TypeRef{Named: ref, IsArray: isArray}
	}
	return td
}

// parseExpr is the Pratt loop: parse a prefix expression, then keep
// absorbing infix/postfix operators whose precedence exceeds minPrec.
func (p *Parser) parseExpr(minPrec int) ast.Expression {
	left := p.parsePrefix()

	for {
		prec, ok := infixPrecedence[p.curTok.Type]
		if !ok || prec <= minPrec {
			break
		}
		left = p.parseInfix(left, prec)
	}
	return left
}

func (p *Parser) parsePrefix() ast.Expression {
	tok := p.curTok
	switch tok.Type {
	case token.NUMBER:
		p.next()
		v, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.addError(UnexpectedToken, tok.Pos, "invalid number literal %q", tok.Literal)
			return errAt(tok.Pos, "invalid number literal")
		}
		n := &ast.NumberLiteral{Value: v}
		n.Tok = tok
		return n
	case token.STRING:
		p.next()
		s := &ast.StringLiteral{Value: tok.Literal}
		s.Tok = tok
		return s
	case token.TRUE, token.FALSE:
		p.next()
		b := &ast.BoolLiteral{Value: tok.Type == token.TRUE}
		b.Tok = tok
		return b
	case token.IDENT:
		return p.parseIdentifierOrCall()
	case token.LPAREN:
		p.next()
		inner := p.parseExpr(lowest)
		p.expect(token.RPAREN)
		return inner
	case token.LBRACK:
		return p.parseArrayLiteral()
	case token.LBRACE:
		return p.parseContextBody()
	case token.IF:
		return p.parseIfExpr()
	case token.FOR:
		return p.parseForExpr()
	case token.MINUS:
		p.next()
		operand := p.parseExpr(unaryPrec)
		u := &ast.UnaryExpr{Op: "-", Operand: operand}
		u.Tok = tok
		return u
	case token.NOT:
		p.next()
		operand := p.parseExpr(notPrec)
		u := &ast.UnaryExpr{Op: "not", Operand: operand}
		u.Tok = tok
		return u
	default:
		p.addError(UnexpectedToken, tok.Pos, "unexpected token %q in expression", tok.Literal)
		p.next()
		return errAt(tok.Pos, "unexpected token in expression")
	}
}

// parseIdentifierOrCall handles a bare name, or name(args) when the name is
// immediately followed by '(' — the only call form this grammar has, since
// EdgeRules has no first-class functions (spec.md Non-goals).
func (p *Parser) parseIdentifierOrCall() ast.Expression {
	tok := p.curTok
	name := tok.Literal
	p.next()

	if p.curIs(token.LPAREN) {
		p.next()
		var args []ast.Expression
		for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
			args = append(args, p.parseExpr(lowest))
			if p.curIs(token.COMMA) {
				p.next()
			}
		}
		p.expect(token.RPAREN)
		call := &ast.CallExpr{Name: name, Args: args}
		call.Tok = tok
		return call
	}

	id := &ast.Identifier{Name: name}
	id.Tok = tok
	return id
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	tok := p.curTok
	p.next() // consume '['
	var elems []ast.Expression
	for !p.curIs(token.RBRACK) && !p.curIs(token.EOF) {
		elems = append(elems, p.parseExpr(lowest))
		if p.curIs(token.COMMA) {
			p.next()
		}
	}
	p.expect(token.RBRACK)
	a := &ast.ArrayLiteral{Elements: elems}
	a.Tok = tok
	return a
}

func (p *Parser) parseIfExpr() ast.Expression {
	tok := p.curTok
	p.next() // consume 'if'
	cond := p.parseExpr(lowest)
	if !p.expect(token.THEN) {
		p.addError(MissingToken, p.curTok.Pos, "expected 'then'")
	}
	thenExpr := p.parseExpr(lowest)
	if !p.expect(token.ELSE) {
		p.addError(MissingToken, p.curTok.Pos, "expected 'else'")
	}
	elseExpr := p.parseExpr(lowest)
	ifExpr := &ast.IfExpr{Cond: cond, Then: thenExpr, Else: elseExpr}
	ifExpr.Tok = tok
	return ifExpr
}

func (p *Parser) parseForExpr() ast.Expression {
	tok := p.curTok
	p.next() // consume 'for'
	varName := p.curTok.Literal
	p.expect(token.IDENT)
	if !p.expect(token.IN) {
		p.addError(MissingToken, p.curTok.Pos, "expected 'in'")
	}
	iterable := p.parseExpr(lowest)
	if !p.expect(token.RETURN) {
		p.addError(MissingToken, p.curTok.Pos, "expected 'return'")
	}
	body := p.parseExpr(lowest)
	f := &ast.ForInExpr{Var: varName, Iterable: iterable, Body: body}
	f.Tok = tok
	return f
}

// parseInfix consumes one infix/postfix operator, already known to bind
// tighter than the caller's minPrec.
func (p *Parser) parseInfix(left ast.Expression, prec int) ast.Expression {
	tok := p.curTok
	switch tok.Type {
	case token.DOT:
		p.next()
		if !p.curIs(token.IDENT) {
			p.addError(SelectionRequiresVariable, p.curTok.Pos, "field selection requires a name after '.'")
			return left
		}
		field := p.curTok.Literal
		p.next()
		fs := &ast.FieldSelect{Target: left, Field: field}
		fs.Tok = tok
		return fs
	case token.LBRACK:
		return p.parseIndexOrFilter(left, tok)
	case token.CARET:
		p.next()
		right := p.parseExpr(prec - 1) // right-associative
		return binExpr(tok, "^", left, right)
	case token.DOTDOT:
		p.next()
		right := p.parseExpr(prec)
		r := &ast.RangeExpr{Start: left, End: right}
		r.Tok = tok
		return r
	default:
		opLit := opLiteral(tok.Type)
		p.next()
		right := p.parseExpr(prec)
		return binExpr(tok, opLit, left, right)
	}
}

func (p *Parser) parseIndexOrFilter(target ast.Expression, tok token.Token) ast.Expression {
	p.next() // consume '['
	if p.curIs(token.RBRACK) {
		p.addError(IncompleteFilter, p.curTok.Pos, "empty '[]' is neither an index nor a filter")
		p.next()
		return target
	}
	selector := p.parseExpr(lowest)
	if !p.curIs(token.RBRACK) {
		p.addError(IncompleteFilter, p.curTok.Pos, "unterminated '[' filter/index")
	} else {
		p.next()
	}
	node := &ast.IndexOrFilterExpr{Target: target, Selector: selector, IsFilter: referencesFilterElement(selector)}
	node.Tok = tok
	return node
}

// referencesFilterElement walks selector's subtree for a reference to the
// reserved `it`/`...` filter-element placeholder; its presence is what
// distinguishes a filter predicate from a plain numeric index (see
// ast.IndexOrFilterExpr's doc comment).
func referencesFilterElement(e ast.Expression) bool {
	switch n := e.(type) {
	case *ast.Identifier:
		return n.IsFilterElement()
	case *ast.UnaryExpr:
		return referencesFilterElement(n.Operand)
	case *ast.BinaryExpr:
		return referencesFilterElement(n.Left) || referencesFilterElement(n.Right)
	case *ast.FieldSelect:
		return referencesFilterElement(n.Target)
	case *ast.IndexOrFilterExpr:
		return referencesFilterElement(n.Target) || referencesFilterElement(n.Selector)
	case *ast.CallExpr:
		for _, a := range n.Args {
			if referencesFilterElement(a) {
				return true
			}
		}
		return false
	case *ast.IfExpr:
		return referencesFilterElement(n.Cond) || referencesFilterElement(n.Then) || referencesFilterElement(n.Else)
	case *ast.ArrayLiteral:
		for _, el := range n.Elements {
			if referencesFilterElement(el) {
				return true
			}
		}
		return false
	case *ast.RangeExpr:
		return referencesFilterElement(n.Start) || referencesFilterElement(n.End)
	default:
		return false
	}
}

func opLiteral(t token.Type) string {
	switch t {
	case token.PLUS:
		return "+"
	case token.MINUS:
		return "-"
	case token.ASTERISK:
		return "*"
	case token.SLASH:
		return "/"
	case token.ASSIGN:
		return "="
	case token.NOT_EQ:
		return "<>"
	case token.LESS:
		return "<"
	case token.GREATER:
		return ">"
	case token.LESS_EQ:
		return "<="
	case token.GREATER_EQ:
		return ">="
	case token.AND:
		return "and"
	case token.OR:
		return "or"
	case token.XOR:
		return "xor"
	default:
		return t.String()
	}
}

func binExpr(tok token.Token, op string, left, right ast.Expression) *ast.BinaryExpr {
	b := &ast.BinaryExpr{Op: op, Left: left, Right: right}
	b.Tok = tok
	return b
}
