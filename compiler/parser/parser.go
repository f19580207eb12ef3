package parser

import (
	"fmt"
	"strconv"
	"strings"

	"slate/compiler"
	"slate/compiler/ast"
	"slate/compiler/lexer"
	"slate/compiler/types"
)

// parserContext is a cursor over the token stream. The first syntax error
// aborts the parse; there is no recovery.
type parserContext struct {
	source  string
	tokens  lexer.TokenStream
	current lexer.Token
	typeCtx *types.Context
	err     *compiler.Diagnostic
}

// Parse consumes the token stream and produces the program tree. The type
// registry resolves the type names in function signatures.
func Parse(source string, tokens lexer.TokenStream, typeCtx *types.Context) (*ast.Program, *compiler.Diagnostic) {
	ctx := &parserContext{
		source:  source,
		tokens:  tokens,
		typeCtx: typeCtx,
	}
	ctx.advance()

	program := ctx.parseProgram()
	if ctx.err != nil {
		return nil, ctx.err
	}
	return program, nil
}

func (ctx *parserContext) fail(kind compiler.DiagnosticKind, msg string) {
	if ctx.err == nil {
		ctx.err = compiler.NewDiagnostic(ctx.source, msg, ctx.location(), compiler.PipelineParser, kind)
	}
}

func (ctx *parserContext) failed() bool { return ctx.err != nil }

func (ctx *parserContext) location() compiler.Location {
	if ctx.current == nil {
		return compiler.LocationZero
	}
	l := ctx.current.Location()
	return compiler.Location{Index: l.Index, Line: l.Line, Column: l.Column}
}

// advance moves the cursor to the next token that is not whitespace, eol or
// comment. Unknown and invalid tokens abort the parse.
func (ctx *parserContext) advance() {
	for {
		t, err := ctx.tokens.Read()
		if err != nil || t == nil {
			ctx.fail(compiler.KindParse, "unexpected end of token stream")
			return
		}
		ctx.current = t

		switch t.Id() {
		case lexer.TokenUnknown:
			ctx.fail(compiler.KindSyntax, "unknown token: "+t.Text())
			return
		case lexer.TokenInvalid:
			ctx.fail(compiler.KindSyntax, "invalid token: "+t.Text())
			return
		case lexer.TokenWhitespace, lexer.TokenEOL, lexer.TokenComment:
			continue
		}
		return
	}
}

// is checks if the current token matches the given token id.
func (ctx *parserContext) is(tokenId lexer.TokenId) bool {
	return ctx.current != nil && tokenId == ctx.current.Id()
}

// consume advances over the current token when it matches.
func (ctx *parserContext) consume(tokenId lexer.TokenId) bool {
	if ctx.is(tokenId) {
		ctx.advance()
		return true
	}
	return false
}

// expect is consume that fails the parse on a mismatch.
func (ctx *parserContext) expect(tokenId lexer.TokenId) bool {
	if ctx.consume(tokenId) {
		return true
	}
	if !ctx.failed() {
		ctx.fail(compiler.KindSyntax, fmt.Sprintf("unexpected token %q", ctx.current.Text()))
	}
	return false
}

// peekIs checks the meaningful token after the current one without moving
// the cursor; the stream is rewound to where it was.
func (ctx *parserContext) peekIs(tokenId lexer.TokenId) bool {
	mark := ctx.tokens.Mark()
	defer ctx.tokens.GotoMark(mark)

	for {
		t, err := ctx.tokens.Read()
		if err != nil || t == nil {
			return false
		}
		switch t.Id() {
		case lexer.TokenWhitespace, lexer.TokenEOL, lexer.TokenComment:
			continue
		}
		return t.Id() == tokenId
	}
}

// take returns the current token and advances over it.
func (ctx *parserContext) take() lexer.Token {
	t := ctx.current
	ctx.advance()
	return t
}

// ----------------------------------------------------------------------------
// declarations

func (ctx *parserContext) parseProgram() *ast.Program {
	info := ctx.location()
	var functions []*ast.Function
	for !ctx.is(lexer.TokenEOF) && !ctx.failed() {
		fn := ctx.parseFunction()
		if fn == nil {
			return nil
		}
		functions = append(functions, fn)
	}
	return ast.NewProgram(info, functions)
}

func (ctx *parserContext) parseFunction() *ast.Function {
	info := ctx.location()
	if !ctx.expect(lexer.TokenFunction) {
		return nil
	}
	if !ctx.is(lexer.TokenIdentifier) {
		ctx.fail(compiler.KindSyntax, "expected a function name")
		return nil
	}
	name := ctx.take().Text()

	if !ctx.expect(lexer.TokenParenOpen) {
		return nil
	}
	var args []*ast.Argument
	var sigArgs []types.SignatureArg
	for !ctx.is(lexer.TokenParenClose) && !ctx.failed() {
		if len(args) > 0 && !ctx.expect(lexer.TokenComma) {
			return nil
		}
		arg, argType := ctx.parseArgument()
		if arg == nil {
			return nil
		}
		args = append(args, arg)
		sigArgs = append(sigArgs, types.SignatureArg{Name: arg.Name(), Type: argType})
	}
	if !ctx.expect(lexer.TokenParenClose) {
		return nil
	}

	var ret *types.Type
	if ctx.consume(lexer.TokenColon) {
		t, ok := ctx.parseType()
		if !ok {
			return nil
		}
		ret = &t
	}

	body := ctx.parseBlock()
	if body == nil {
		return nil
	}

	sig := types.NewSignature(sigArgs, ret)
	return ast.NewFunction(info, name, sig, args, body)
}

func (ctx *parserContext) parseArgument() (*ast.Argument, types.Type) {
	info := ctx.location()
	if !ctx.is(lexer.TokenIdentifier) {
		ctx.fail(compiler.KindSyntax, "expected an argument name")
		return nil, types.Type{}
	}
	name := ctx.take().Text()
	if !ctx.expect(lexer.TokenColon) {
		return nil, types.Type{}
	}
	t, ok := ctx.parseType()
	if !ok {
		return nil, types.Type{}
	}
	return ast.NewArgument(info, name, t), t
}

func (ctx *parserContext) parseType() (types.Type, bool) {
	if !ctx.is(lexer.TokenIdentifier) {
		ctx.fail(compiler.KindSyntax, "expected a type name")
		return types.Type{}, false
	}
	name := ctx.take().Text()
	t, ok := ctx.typeCtx.Get(name)
	if !ok {
		ctx.fail(compiler.KindType, fmt.Sprintf("type %q is not defined", name))
		return types.Type{}, false
	}
	return t, true
}

func (ctx *parserContext) parseBlock() *ast.Block {
	info := ctx.location()
	cmpStmt := ctx.parseCompoundStatement()
	if cmpStmt == nil {
		return nil
	}
	return ast.NewBlock(info, cmpStmt)
}

// ----------------------------------------------------------------------------
// statements

func (ctx *parserContext) parseCompoundStatement() *ast.CompoundStatement {
	info := ctx.location()
	if !ctx.expect(lexer.TokenBracesOpen) {
		return nil
	}
	var stmts []ast.Statement
	for !ctx.is(lexer.TokenBracesClose) && !ctx.is(lexer.TokenEOF) && !ctx.failed() {
		stmt := ctx.parseStatement()
		if stmt == nil {
			return nil
		}
		stmts = append(stmts, stmt)
	}
	if !ctx.expect(lexer.TokenBracesClose) {
		return nil
	}
	return ast.NewCompoundStatement(info, stmts)
}

func (ctx *parserContext) parseStatement() ast.Statement {
	info := ctx.location()

	switch {
	case ctx.is(lexer.TokenLet):
		stmt := ctx.parseVariableDecl()
		if stmt == nil || !ctx.expect(lexer.TokenSemiColon) {
			return nil
		}
		return stmt

	case ctx.is(lexer.TokenReturn):
		stmt := ctx.parseReturn()
		if stmt == nil || !ctx.expect(lexer.TokenSemiColon) {
			return nil
		}
		return stmt

	case ctx.is(lexer.TokenIf):
		return ctx.parseIfStatement()

	case ctx.is(lexer.TokenFor):
		return ctx.parseForStatement()

	case ctx.is(lexer.TokenWhile):
		return ctx.parseWhileStatement()

	case ctx.consume(lexer.TokenBreak):
		if !ctx.expect(lexer.TokenSemiColon) {
			return nil
		}
		return ast.NewBreakStatement(info)

	case ctx.consume(lexer.TokenContinue):
		if !ctx.expect(lexer.TokenSemiColon) {
			return nil
		}
		return ast.NewContinueStatement(info)

	case ctx.is(lexer.TokenBracesOpen):
		return ctx.parseCompoundStatement()

	case ctx.is(lexer.TokenIdentifier) && ctx.peekIs(lexer.TokenAssign):
		stmt := ctx.parseAssignment()
		if stmt == nil || !ctx.expect(lexer.TokenSemiColon) {
			return nil
		}
		return stmt

	default:
		stmt := ctx.parseAssignOrExpression()
		if stmt == nil || !ctx.expect(lexer.TokenSemiColon) {
			return nil
		}
		return stmt
	}
}

// parseAssignment handles the simple `name = expr` form, recognized by
// peeking one token past the identifier.
func (ctx *parserContext) parseAssignment() ast.Statement {
	info := ctx.location()
	lv := ast.NewVariableRef(info, ctx.take().Text())
	if !ctx.expect(lexer.TokenAssign) {
		return nil
	}
	rv := ctx.parseExpression()
	if rv == nil {
		return nil
	}
	return ast.NewAssignment(info, lv, rv)
}

func (ctx *parserContext) parseVariableDecl() ast.Statement {
	info := ctx.location()
	if !ctx.expect(lexer.TokenLet) {
		return nil
	}
	if !ctx.is(lexer.TokenIdentifier) {
		ctx.fail(compiler.KindSyntax, "expected a variable name")
		return nil
	}
	name := ctx.take().Text()
	if !ctx.expect(lexer.TokenAssign) {
		return nil
	}
	init := ctx.parseExpression()
	if init == nil {
		return nil
	}
	return ast.NewVariableDecl(info, name, init)
}

func (ctx *parserContext) parseReturn() ast.Statement {
	info := ctx.location()
	if !ctx.expect(lexer.TokenReturn) {
		return nil
	}
	if ctx.is(lexer.TokenSemiColon) {
		return ast.NewReturnStatement(info, nil)
	}
	value := ctx.parseExpression()
	if value == nil {
		return nil
	}
	return ast.NewReturnStatement(info, value)
}

// parseAssignOrExpression parses an expression; a trailing '=' turns it
// into an assignment with the expression as target. This covers the
// targets the identifier fast path cannot see, like `a[0] = e`.
func (ctx *parserContext) parseAssignOrExpression() ast.Statement {
	info := ctx.location()
	expr := ctx.parseExpression()
	if expr == nil {
		return nil
	}
	if ctx.consume(lexer.TokenAssign) {
		rv := ctx.parseExpression()
		if rv == nil {
			return nil
		}
		return ast.NewAssignment(info, expr, rv)
	}
	return ast.NewExpressionStatement(info, expr)
}

func (ctx *parserContext) parseIfStatement() ast.Statement {
	info := ctx.location()
	if !ctx.expect(lexer.TokenIf) || !ctx.expect(lexer.TokenParenOpen) {
		return nil
	}
	cond := ctx.parseExpression()
	if cond == nil || !ctx.expect(lexer.TokenParenClose) {
		return nil
	}
	then := ctx.parseStatement()
	if then == nil {
		return nil
	}

	var els ast.Statement
	if ctx.consume(lexer.TokenElse) {
		if ctx.is(lexer.TokenIf) {
			els = ctx.parseIfStatement()
		} else {
			els = ctx.parseStatement()
		}
		if els == nil {
			return nil
		}
	}
	return ast.NewIfStatement(info, cond, then, els)
}

func (ctx *parserContext) parseForStatement() ast.Statement {
	info := ctx.location()
	if !ctx.expect(lexer.TokenFor) || !ctx.expect(lexer.TokenParenOpen) {
		return nil
	}

	var initStmt ast.Statement
	if ctx.is(lexer.TokenLet) {
		initStmt = ctx.parseVariableDecl()
	} else {
		initInfo := ctx.location()
		expr := ctx.parseExpression()
		if expr != nil {
			initStmt = ast.NewExpressionStatement(initInfo, expr)
		}
	}
	if initStmt == nil || !ctx.expect(lexer.TokenSemiColon) {
		return nil
	}

	cond := ctx.parseExpression()
	if cond == nil || !ctx.expect(lexer.TokenSemiColon) {
		return nil
	}
	next := ctx.parseExpression()
	if next == nil || !ctx.expect(lexer.TokenParenClose) {
		return nil
	}
	body := ctx.parseStatement()
	if body == nil {
		return nil
	}
	return ast.NewForStatement(info, initStmt, cond, next, body)
}

func (ctx *parserContext) parseWhileStatement() ast.Statement {
	info := ctx.location()
	if !ctx.expect(lexer.TokenWhile) || !ctx.expect(lexer.TokenParenOpen) {
		return nil
	}
	cond := ctx.parseExpression()
	if cond == nil || !ctx.expect(lexer.TokenParenClose) {
		return nil
	}
	body := ctx.parseStatement()
	if body == nil {
		return nil
	}
	return ast.NewWhileStatement(info, cond, body)
}

// ----------------------------------------------------------------------------
// expressions, by descending precedence

func (ctx *parserContext) parseExpression() ast.Expression {
	return ctx.parseEquality()
}

func (ctx *parserContext) parseEquality() ast.Expression {
	equality := ctx.parseRelational()
	for equality != nil {
		info := ctx.location()
		if ctx.consume(lexer.TokenEquals) {
			equality = ctx.binary(info, ast.OpEqual, equality, ctx.parseRelational())
		} else if ctx.consume(lexer.TokenNotEquals) {
			equality = ctx.binary(info, ast.OpNotEqual, equality, ctx.parseRelational())
		} else {
			break
		}
	}
	return equality
}

func (ctx *parserContext) parseRelational() ast.Expression {
	relational := ctx.parseAdd()
	for relational != nil {
		info := ctx.location()
		if ctx.consume(lexer.TokenLess) {
			relational = ctx.binary(info, ast.OpLessThan, relational, ctx.parseAdd())
		} else if ctx.consume(lexer.TokenGreater) {
			relational = ctx.binary(info, ast.OpGreaterThan, relational, ctx.parseAdd())
		} else if ctx.consume(lexer.TokenLessOrEquals) {
			relational = ctx.binary(info, ast.OpLessEqual, relational, ctx.parseAdd())
		} else if ctx.consume(lexer.TokenGreaterOrEquals) {
			relational = ctx.binary(info, ast.OpGreaterEqual, relational, ctx.parseAdd())
		} else {
			break
		}
	}
	return relational
}

func (ctx *parserContext) parseAdd() ast.Expression {
	add := ctx.parseMul()
	for add != nil {
		info := ctx.location()
		if ctx.consume(lexer.TokenPlus) {
			add = ctx.binary(info, ast.OpAdd, add, ctx.parseMul())
		} else if ctx.consume(lexer.TokenMinus) {
			add = ctx.binary(info, ast.OpSubtract, add, ctx.parseMul())
		} else {
			break
		}
	}
	return add
}

func (ctx *parserContext) parseMul() ast.Expression {
	mul := ctx.parseUnary()
	for mul != nil {
		info := ctx.location()
		if ctx.consume(lexer.TokenAsterisk) {
			mul = ctx.binary(info, ast.OpMultiply, mul, ctx.parseUnary())
		} else if ctx.consume(lexer.TokenSlash) {
			mul = ctx.binary(info, ast.OpDivide, mul, ctx.parseUnary())
		} else {
			break
		}
	}
	return mul
}

func (ctx *parserContext) binary(info compiler.Location, op ast.BinaryOp, left, right ast.Expression) ast.Expression {
	if left == nil || right == nil {
		return nil
	}
	return ast.NewBinaryOperator(info, op, left, right)
}

func (ctx *parserContext) parseUnary() ast.Expression {
	info := ctx.location()
	if ctx.consume(lexer.TokenPlus) {
		operand := ctx.parsePrimary()
		if operand == nil {
			return nil
		}
		return ast.NewUnaryOperator(info, ast.OpPlus, operand)
	}
	if ctx.consume(lexer.TokenMinus) {
		operand := ctx.parsePrimary()
		if operand == nil {
			return nil
		}
		return ast.NewUnaryOperator(info, ast.OpMinus, operand)
	}

	node := ctx.parsePrimary()
	if node == nil {
		return nil
	}
	info = ctx.location()
	if ctx.consume(lexer.TokenIncrement) {
		return ast.NewIncDecOperator(info, ast.OpIncrement, node)
	}
	if ctx.consume(lexer.TokenDecrement) {
		return ast.NewIncDecOperator(info, ast.OpDecrement, node)
	}
	return node
}

func (ctx *parserContext) parsePrimary() ast.Expression {
	info := ctx.location()
	var primary ast.Expression

	switch {
	case ctx.consume(lexer.TokenParenOpen):
		primary = ctx.parseExpression()
		if primary == nil || !ctx.expect(lexer.TokenParenClose) {
			return nil
		}

	case ctx.is(lexer.TokenNumber):
		text := ctx.take().Text()
		value, err := strconv.ParseInt(strings.ReplaceAll(text, "_", ""), 0, 32)
		if err != nil {
			ctx.fail(compiler.KindSyntax, fmt.Sprintf("invalid integer literal %q", text))
			return nil
		}
		primary = ast.NewIntegerLiteral(info, int32(value))

	case ctx.is(lexer.TokenFloat):
		text := ctx.take().Text()
		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			ctx.fail(compiler.KindSyntax, fmt.Sprintf("invalid double literal %q", text))
			return nil
		}
		primary = ast.NewDoubleLiteral(info, value)

	case ctx.is(lexer.TokenString):
		text := ctx.take().Text()
		primary = ast.NewStringLiteral(info, strings.Trim(text, "\""))

	case ctx.consume(lexer.TokenTrue):
		primary = ast.NewBooleanLiteral(info, true)

	case ctx.consume(lexer.TokenFalse):
		primary = ast.NewBooleanLiteral(info, false)

	case ctx.is(lexer.TokenIdentifier):
		primary = ast.NewVariableRef(info, ctx.take().Text())

	case ctx.consume(lexer.TokenBracketOpen):
		var elements []ast.Expression
		for !ctx.is(lexer.TokenBracketClose) && !ctx.failed() {
			if len(elements) > 0 && !ctx.expect(lexer.TokenComma) {
				return nil
			}
			el := ctx.parseExpression()
			if el == nil {
				return nil
			}
			elements = append(elements, el)
		}
		if !ctx.expect(lexer.TokenBracketClose) {
			return nil
		}
		primary = ast.NewArrayLiteral(info, elements)

	default:
		ctx.fail(compiler.KindSyntax,
			fmt.Sprintf("unexpected token: expected numeric or symbol but %q", ctx.current.Text()))
		return nil
	}

	// indexing and calls extend a primary to the right
	for primary != nil {
		info = ctx.location()
		if ctx.consume(lexer.TokenBracketOpen) {
			index := ctx.parseExpression()
			if index == nil || !ctx.expect(lexer.TokenBracketClose) {
				return nil
			}
			primary = ast.NewIndexingOperator(info, primary, index)
		} else if ctx.consume(lexer.TokenParenOpen) {
			var args []ast.Expression
			for !ctx.is(lexer.TokenParenClose) && !ctx.failed() {
				if len(args) > 0 && !ctx.expect(lexer.TokenComma) {
					return nil
				}
				arg := ctx.parseExpression()
				if arg == nil {
					return nil
				}
				args = append(args, arg)
			}
			if !ctx.expect(lexer.TokenParenClose) {
				return nil
			}
			primary = ast.NewCallOperator(info, primary, args)
		} else {
			break
		}
	}
	return primary
}
