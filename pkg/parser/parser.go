// Package parser implements a hand-written recursive descent parser from
// the MCSH token tree (pkg/lexer) into the MCSH AST (pkg/ast), following
// spec.md §4.P.
package parser

import (
	"fmt"

	"github.com/Fancyflame/mcsh/pkg/ast"
	"github.com/Fancyflame/mcsh/pkg/lexer"
)

// Precedence levels for the binary expression ladder (lowest to highest).
// Unary `!`/`-` and postfix call/atom parsing sit above precMulti and are
// handled directly by parseUnary/parseAtom rather than as table entries.
const (
	precLowest = iota
	precOr     // ||
	precAnd    // &&
	precEquality
	precRelational
	precAdditive
	precMulti
)

var binOpPrecedence = map[lexer.Punct]int{
	lexer.PuncOrOr:     precOr,
	lexer.PuncAndAnd:   precAnd,
	lexer.PuncEqEq:     precEquality,
	lexer.PuncNotEq:    precEquality,
	lexer.PuncLt:       precRelational,
	lexer.PuncLtEq:     precRelational,
	lexer.PuncGt:       precRelational,
	lexer.PuncGtEq:     precRelational,
	lexer.PuncPlus:     precAdditive,
	lexer.PuncMinus:    precAdditive,
	lexer.PuncStar:     precMulti,
	lexer.PuncSlash:    precMulti,
	lexer.PuncPercent:  precMulti,
}

var binOpKind = map[lexer.Punct]ast.BinOp{
	lexer.PuncOrOr:   ast.OpOr,
	lexer.PuncAndAnd: ast.OpAnd,
	lexer.PuncEqEq:   ast.OpEq,
	lexer.PuncNotEq:  ast.OpNe,
	lexer.PuncLt:     ast.OpLt,
	lexer.PuncLtEq:   ast.OpLe,
	lexer.PuncGt:     ast.OpGt,
	lexer.PuncGtEq:   ast.OpGe,
	lexer.PuncPlus:   ast.OpAdd,
	lexer.PuncMinus:  ast.OpSub,
	lexer.PuncStar:   ast.OpMul,
	lexer.PuncSlash:  ast.OpDiv,
	lexer.PuncPercent: ast.OpRem,
}

// ParseError reports a syntax error together with the cursor window
// surrounding it, per spec.md §4.P/§4.L.
type ParseError struct {
	Message string
	Window  string
}

func (e *ParseError) Error() string {
	if e.Window == "" {
		return e.Message
	}
	return e.Message + "\n" + e.Window
}

// Parser consumes a token cursor and produces MCSH definitions.
type Parser struct {
	c *lexer.Cursor
}

// New creates a Parser over the top-level token stream.
func New(toks []Token) *Parser {
	return &Parser{c: lexer.NewCursor(toks)}
}

// Token is a re-export so callers need only import pkg/lexer for Tokenize.
type Token = lexer.Token

// ParseProgram parses every top-level definition until EOF.
func ParseProgram(toks []Token) ([]ast.Definition, error) {
	p := New(toks)
	var defs []ast.Definition
	for !p.c.Eof() {
		def, err := p.parseDefinition()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (p *Parser) errf(format string, args ...any) error {
	return &ParseError{
		Message: fmt.Sprintf(format, args...),
		Window:  p.c.PrintErr("parse error"),
	}
}

func (p *Parser) peek() Token    { return p.c.Peek() }
func (p *Parser) peekN(n int) Token { return p.c.PeekN(n) }
func (p *Parser) advance() Token { return p.c.Step(1) }

func (p *Parser) isIdent(name string) bool {
	t := p.peek()
	return t.Kind == lexer.KindIdent && t.Ident == name
}

func (p *Parser) isPunct(punct lexer.Punct) bool {
	t := p.peek()
	return t.Kind == lexer.KindPunct && t.Punct == punct
}

func (p *Parser) expectIdent(name string) error {
	if !p.isIdent(name) {
		return p.errf("expected `%s`, found %s", name, p.peek())
	}
	p.advance()
	return nil
}

func (p *Parser) expectPunct(punct lexer.Punct) error {
	if !p.isPunct(punct) {
		return p.errf("expected `%s`, found %s", punct, p.peek())
	}
	p.advance()
	return nil
}

func (p *Parser) expectName() (string, ast.Position, error) {
	t := p.peek()
	if t.Kind != lexer.KindIdent {
		return "", ast.Position{}, p.errf("expected an identifier, found %s", t)
	}
	p.advance()
	return t.Ident, ast.Position{Line: t.Line, Column: t.Column}, nil
}

func (p *Parser) expectGroup(d lexer.Delimiter) (*lexer.Group, error) {
	t := p.peek()
	if t.Kind != lexer.KindGroup || t.Group.Delimiter != d {
		return nil, p.errf("expected a %c...%c group, found %s", d.Open(), d.Close(), t)
	}
	p.advance()
	return t.Group, nil
}

// ---- Definitions ----

func (p *Parser) parseDefinition() (ast.Definition, error) {
	export := false
	if p.isIdent("export") {
		p.advance()
		export = true
	}
	switch {
	case p.isIdent("fn"):
		return p.parseFunction(export)
	case p.isIdent("const"):
		if export {
			return nil, p.errf("`const` cannot be exported")
		}
		return p.parseConstant()
	case p.isIdent("static"):
		return p.parseStatic(export)
	default:
		return nil, p.errf("expected `fn`, `const`, or `static`, found %s", p.peek())
	}
}

func (p *Parser) parseFunction(export bool) (*ast.Function, error) {
	pos := p.tokPos()
	if err := p.expectIdent("fn"); err != nil {
		return nil, err
	}
	name, _, err := p.expectName()
	if err != nil {
		return nil, err
	}
	argsGroup, err := p.expectGroup(lexer.DelimParen)
	if err != nil {
		return nil, err
	}
	args, err := parseArgNames(argsGroup.Content)
	if err != nil {
		return nil, err
	}
	bodyGroup, err := p.expectGroup(lexer.DelimBrace)
	if err != nil {
		return nil, err
	}
	body, err := parseStmtsFull(bodyGroup.Content)
	if err != nil {
		return nil, err
	}
	return &ast.Function{Name: name, Export: export, Args: args, Body: body, Pos: pos}, nil
}

func parseArgNames(toks []Token) ([]string, error) {
	p := New(toks)
	var names []string
	for !p.c.Eof() {
		name, _, err := p.expectName()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		if p.c.Eof() {
			break
		}
		if err := p.expectPunct(lexer.PuncComma); err != nil {
			return nil, err
		}
	}
	return names, nil
}

func (p *Parser) parseConstant() (*ast.Constant, error) {
	pos := p.tokPos()
	if err := p.expectIdent("const"); err != nil {
		return nil, err
	}
	name, _, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(lexer.PuncEq); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(lexer.PuncSemi); err != nil {
		return nil, err
	}
	return &ast.Constant{Name: name, Expr: expr, Pos: pos}, nil
}

func (p *Parser) parseStatic(export bool) (*ast.Static, error) {
	pos := p.tokPos()
	if err := p.expectIdent("static"); err != nil {
		return nil, err
	}
	name, _, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(lexer.PuncEq); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(lexer.PuncSemi); err != nil {
		return nil, err
	}
	return &ast.Static{Name: name, Export: export, Expr: expr, Pos: pos}, nil
}

func (p *Parser) tokPos() ast.Position {
	t := p.peek()
	return ast.Position{Line: t.Line, Column: t.Column}
}

// ---- Statements ----

// parseStmtsFull parses a full statement sequence from an owned token
// slice (a block group's contents) until exhaustion.
func parseStmtsFull(toks []Token) ([]ast.Stmt, error) {
	p := New(toks)
	var stmts []ast.Stmt
	for !p.c.Eof() {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch {
	case p.isIdent("let"):
		return p.parseLet()
	case p.isIdent("while"):
		return p.parseWhile()
	case p.isIdent("if"):
		return p.parseIf()
	case p.isIdent("match"):
		return p.parseMatch()
	case p.isIdent("return"):
		return p.parseReturn()
	case p.isIdent("break"):
		pos := p.tokPos()
		p.advance()
		if err := p.expectPunct(lexer.PuncSemi); err != nil {
			return nil, err
		}
		return &ast.Break{Pos: pos}, nil
	case p.isIdent("continue"):
		pos := p.tokPos()
		p.advance()
		if err := p.expectPunct(lexer.PuncSemi); err != nil {
			return nil, err
		}
		return &ast.Continue{Pos: pos}, nil
	case p.isIdent("yield"):
		pos := p.tokPos()
		p.advance()
		if err := p.expectPunct(lexer.PuncSemi); err != nil {
			return nil, err
		}
		return &ast.Yield{Pos: pos}, nil
	case p.isIdent("debugger"):
		pos := p.tokPos()
		p.advance()
		if err := p.expectPunct(lexer.PuncSemi); err != nil {
			return nil, err
		}
		return &ast.Debugger{Pos: pos}, nil
	case p.isIdent("fn"), p.isIdent("const"), p.isIdent("static"), p.isIdent("export"):
		def, err := p.parseDefinition()
		if err != nil {
			return nil, err
		}
		return &ast.DefStmt{Def: def}, nil
	case p.peek().Kind == lexer.KindGroup && p.peek().Group.Delimiter == lexer.DelimBrace:
		return p.parseBlockStmt()
	}

	// Disambiguate `ident = expr;`, `ident >< ident;`, `ident!group;`,
	// and a bare expression statement, all of which start with a token
	// the cases above don't claim.
	if p.peek().Kind == lexer.KindIdent {
		if p.peekN(1).Kind == lexer.KindPunct && p.peekN(1).Punct == lexer.PuncEq {
			return p.parseReassign()
		}
		if p.peekN(1).Kind == lexer.KindPunct && p.peekN(1).Punct == lexer.PuncSwap {
			return p.parseSwap()
		}
		if p.peekN(1).Kind == lexer.KindPunct && p.peekN(1).Punct == lexer.PuncBang {
			call, err := p.parseMacroCall()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(lexer.PuncSemi); err != nil {
				return nil, err
			}
			return &ast.MacroCallStmt{Call: call}, nil
		}
	}

	expr, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(lexer.PuncSemi); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Expr: expr}, nil
}

func (p *Parser) parseBlockStmt() (*ast.Block, error) {
	g, err := p.expectGroup(lexer.DelimBrace)
	if err != nil {
		return nil, err
	}
	stmts, err := parseStmtsFull(g.Content)
	if err != nil {
		return nil, err
	}
	return &ast.Block{Stmts: stmts}, nil
}

func (p *Parser) parseLet() (*ast.Assign, error) {
	pos := p.tokPos()
	if err := p.expectIdent("let"); err != nil {
		return nil, err
	}
	name, _, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(lexer.PuncEq); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(lexer.PuncSemi); err != nil {
		return nil, err
	}
	return &ast.Assign{IsBind: true, Name: name, Expr: expr, Pos: pos}, nil
}

func (p *Parser) parseReassign() (*ast.Assign, error) {
	name, pos, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(lexer.PuncEq); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(lexer.PuncSemi); err != nil {
		return nil, err
	}
	return &ast.Assign{IsBind: false, Name: name, Expr: expr, Pos: pos}, nil
}

func (p *Parser) parseSwap() (*ast.Swap, error) {
	lhs, pos, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(lexer.PuncSwap); err != nil {
		return nil, err
	}
	rhs, _, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(lexer.PuncSemi); err != nil {
		return nil, err
	}
	return &ast.Swap{Lhs: lhs, Rhs: rhs, Pos: pos}, nil
}

func (p *Parser) parseWhile() (*ast.While, error) {
	pos := p.tokPos()
	if err := p.expectIdent("while"); err != nil {
		return nil, err
	}
	cond, err := p.parseExprNoBraceAmbiguity()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlockStmt()
	if err != nil {
		return nil, err
	}
	return &ast.While{Cond: cond, Body: body.Stmts, Pos: pos}, nil
}

func (p *Parser) parseIf() (*ast.If, error) {
	pos := p.tokPos()
	var arms []ast.IfArm
	if err := p.expectIdent("if"); err != nil {
		return nil, err
	}
	for {
		cond, err := p.parseExprNoBraceAmbiguity()
		if err != nil {
			return nil, err
		}
		body, err := p.parseBlockStmt()
		if err != nil {
			return nil, err
		}
		arms = append(arms, ast.IfArm{Cond: cond, Body: body.Stmts})
		if p.isIdent("else") && p.peekN(1).Kind == lexer.KindIdent && p.peekN(1).Ident == "if" {
			p.advance()
			p.advance()
			continue
		}
		break
	}
	var defaultBody []ast.Stmt
	if p.isIdent("else") {
		p.advance()
		body, err := p.parseBlockStmt()
		if err != nil {
			return nil, err
		}
		defaultBody = body.Stmts
	}
	return &ast.If{Arms: arms, Default: defaultBody, Pos: pos}, nil
}

// parseExprNoBraceAmbiguity parses a condition expression for `if`/`while`.
// MCSH has no struct-literal or brace-expression atom at statement-head
// position, so the expression grammar itself never reaches for a `{`; the
// following `{ ... }` body is always the block, not part of the
// expression. This wrapper exists only to name that invariant at the call
// sites instead of leaving it implicit.
func (p *Parser) parseExprNoBraceAmbiguity() (ast.Expr, error) {
	return p.parseExpr(precLowest)
}

func (p *Parser) parseMatch() (*ast.Match, error) {
	pos := p.tokPos()
	if err := p.expectIdent("match"); err != nil {
		return nil, err
	}
	expr, err := p.parseExprNoBraceAmbiguity()
	if err != nil {
		return nil, err
	}
	g, err := p.expectGroup(lexer.DelimBrace)
	if err != nil {
		return nil, err
	}
	arms, err := parseMatchArms(g.Content)
	if err != nil {
		return nil, err
	}
	return &ast.Match{Expr: expr, Arms: arms, Pos: pos}, nil
}

func parseMatchArms(toks []Token) ([]ast.MatchArm, error) {
	p := New(toks)
	var arms []ast.MatchArm
	for !p.c.Eof() {
		var key *int32
		if p.isPunct(lexer.PuncRange) {
			p.advance()
		} else {
			v, err := p.parseMatchKey()
			if err != nil {
				return nil, err
			}
			key = &v
		}
		if err := p.expectPunct(lexer.PuncFatArrow); err != nil {
			return nil, err
		}
		var body []ast.Stmt
		if p.peek().Kind == lexer.KindGroup && p.peek().Group.Delimiter == lexer.DelimBrace {
			blk, err := p.parseBlockStmt()
			if err != nil {
				return nil, err
			}
			body = blk.Stmts
		} else {
			stmt, err := p.parseStmt()
			if err != nil {
				return nil, err
			}
			body = []ast.Stmt{stmt}
		}
		arms = append(arms, ast.MatchArm{Key: key, Body: body})
		if p.isPunct(lexer.PuncComma) {
			p.advance()
		}
	}
	return arms, nil
}

func (p *Parser) parseMatchKey() (int32, error) {
	neg := false
	if p.isPunct(lexer.PuncMinus) {
		p.advance()
		neg = true
	}
	t := p.peek()
	if t.Kind != lexer.KindInt {
		return 0, p.errf("expected an integer match arm, found %s", t)
	}
	p.advance()
	if neg {
		return -t.Int, nil
	}
	return t.Int, nil
}

func (p *Parser) parseReturn() (*ast.Return, error) {
	pos := p.tokPos()
	if err := p.expectIdent("return"); err != nil {
		return nil, err
	}
	if p.isPunct(lexer.PuncSemi) {
		p.advance()
		return &ast.Return{Pos: pos}, nil
	}
	expr, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(lexer.PuncSemi); err != nil {
		return nil, err
	}
	return &ast.Return{Expr: expr, Pos: pos}, nil
}

// ---- Expressions ----

func (p *Parser) parseExpr(minPrec int) (ast.Expr, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.Kind != lexer.KindPunct {
			break
		}
		prec, ok := binOpPrecedence[t.Punct]
		if !ok || prec < minPrec {
			break
		}
		op := binOpKind[t.Punct]
		pos := p.tokPos()
		p.advance()
		rhs, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		lhs = &ast.Binary{Op: op, Lhs: lhs, Rhs: rhs, Pos: pos}
	}
	return lhs, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	pos := p.tokPos()
	if p.isPunct(lexer.PuncBang) {
		p.advance()
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: ast.UnNot, Expr: expr, Pos: pos}, nil
	}
	if p.isPunct(lexer.PuncMinus) {
		p.advance()
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: ast.UnNeg, Expr: expr, Pos: pos}, nil
	}
	return p.parseAtom()
}

func (p *Parser) parseAtom() (ast.Expr, error) {
	t := p.peek()
	pos := ast.Position{Line: t.Line, Column: t.Column}

	switch {
	case t.Kind == lexer.KindInt:
		p.advance()
		return &ast.Integer{Value: t.Int, Pos: pos}, nil

	case t.Kind == lexer.KindStr:
		p.advance()
		return &ast.Str{Value: t.Str, Pos: pos}, nil

	case t.Kind == lexer.KindGroup && t.Group.Delimiter == lexer.DelimParen:
		p.advance()
		inner := New(t.Group.Content)
		expr, err := inner.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		if !inner.c.Eof() {
			return nil, inner.errf("unexpected trailing tokens in parenthesized expression")
		}
		return expr, nil

	case t.Kind == lexer.KindIdent:
		if p.peekN(1).Kind == lexer.KindPunct && p.peekN(1).Punct == lexer.PuncBang {
			return p.parseMacroCall()
		}
		if p.peekN(1).Kind == lexer.KindGroup && p.peekN(1).Group.Delimiter == lexer.DelimParen {
			return p.parseCall()
		}
		p.advance()
		return &ast.Var{Name: t.Ident, Pos: pos}, nil

	default:
		return nil, p.errf("expected an expression, found %s", t)
	}
}

func (p *Parser) parseCall() (*ast.Call, error) {
	name, pos, err := p.expectName()
	if err != nil {
		return nil, err
	}
	g, err := p.expectGroup(lexer.DelimParen)
	if err != nil {
		return nil, err
	}
	args, err := parseArgExprs(g.Content)
	if err != nil {
		return nil, err
	}
	return &ast.Call{Name: name, Args: args, Pos: pos}, nil
}

// ParseExprFromTokens parses a single, fully-consumed expression from an
// owned token slice, used by pkg/atoi to interpret macro arguments that
// were captured unparsed at parse time (spec.md §4.M).
func ParseExprFromTokens(toks []Token) (ast.Expr, error) {
	p := New(toks)
	expr, err := p.parseExpr(precLowest)
	if err != nil {
		return nil, err
	}
	if !p.c.Eof() {
		return nil, p.errf("unexpected trailing tokens after expression")
	}
	return expr, nil
}

func parseArgExprs(toks []Token) ([]ast.Expr, error) {
	p := New(toks)
	var args []ast.Expr
	for !p.c.Eof() {
		expr, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		args = append(args, expr)
		if p.c.Eof() {
			break
		}
		if err := p.expectPunct(lexer.PuncComma); err != nil {
			return nil, err
		}
	}
	return args, nil
}

func (p *Parser) parseMacroCall() (*ast.MacroCall, error) {
	name, pos, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(lexer.PuncBang); err != nil {
		return nil, err
	}
	t := p.peek()
	if t.Kind != lexer.KindGroup {
		return nil, p.errf("expected a macro argument group, found %s", t)
	}
	p.advance()
	return &ast.MacroCall{
		Name:      name,
		Delimiter: rune(t.Group.Delimiter.Open()),
		Raw:       lexer.NewCursor(t.Group.Content),
		Pos:       pos,
	}, nil
}
