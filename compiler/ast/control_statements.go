package ast

import (
	"fmt"

	"slate/compiler"
	"slate/compiler/ir"
	"slate/compiler/types"
)

// genbb creates a block attached to the function currently being emitted.
func genbb(g *GenContext, name string) *ir.Block {
	return g.Builder.NewBlockIn(name, g.Builder.GetInsertBlock().Parent())
}

func requireBooleanCond(cond Expression, tc *types.Context) error {
	if !cond.Type().Equals(tc.Boolean()) {
		return errType(cond.Info(), fmt.Sprintf("condition expression should be boolean but %s",
			cond.Type().Name()))
	}
	return nil
}

// IfStatement branches on its condition; both arms fall through to a merge
// block unless they already terminate.
type IfStatement struct {
	nodeData
	cond Expression
	then Statement
	els  Statement // nil, a Statement, or a chained *IfStatement
}

func NewIfStatement(info compiler.Location, cond Expression, then, els Statement) *IfStatement {
	return &IfStatement{
		nodeData: newNodeData(info, cond, then, els),
		cond:     cond,
		then:     then,
		els:      els,
	}
}

func (s *IfStatement) String() string { return "if" }

func (s *IfStatement) ResolveType(tc *types.Context) error {
	return requireBooleanCond(s.cond, tc)
}

func (s *IfStatement) Gen(g *GenContext) error {
	condVal, err := s.cond.Eval(g)
	if err != nil {
		return err
	}
	origin := g.Builder.GetInsertBlock()

	thenbb := genbb(g, "then")
	g.Builder.SetInsertPoint(thenbb)
	if err := s.then.Gen(g); err != nil {
		return err
	}
	thenEnd := g.Builder.GetInsertBlock()

	if s.els != nil {
		elsbb := genbb(g, "else")
		g.Builder.SetInsertPoint(elsbb)
		if err := s.els.Gen(g); err != nil {
			return err
		}
		elsEnd := g.Builder.GetInsertBlock()

		merge := genbb(g, "merge-if")
		if elsEnd.Terminator() == nil {
			g.Builder.SetInsertPoint(elsEnd)
			g.Builder.CreateBr(merge)
		}
		g.Builder.SetInsertPoint(origin)
		g.Builder.CreateCondBr(condVal, thenbb, elsbb)
		if thenEnd.Terminator() == nil {
			g.Builder.SetInsertPoint(thenEnd)
			g.Builder.CreateBr(merge)
		}
		g.Builder.SetInsertPoint(merge)
	} else {
		merge := genbb(g, "merge-if")
		if thenEnd.Terminator() == nil {
			g.Builder.SetInsertPoint(thenEnd)
			g.Builder.CreateBr(merge)
		}
		g.Builder.SetInsertPoint(origin)
		g.Builder.CreateCondBr(condVal, thenbb, merge)
		g.Builder.SetInsertPoint(merge)
	}
	return nil
}

// ForStatement owns the scope its init declaration lives in. The next and
// merge blocks are created ahead of emission and threaded into every
// break/continue in the body; the innermost loop wins.
type ForStatement struct {
	nodeData
	initStmt Statement
	cond     Expression
	next     Expression
	body     Statement
	scope    *Scope
	nextbb   *ir.Block
	mergebb  *ir.Block
}

func NewForStatement(info compiler.Location, initStmt Statement, cond, next Expression, body Statement) *ForStatement {
	return &ForStatement{
		nodeData: newNodeData(info, initStmt, cond, next, body),
		initStmt: initStmt,
		cond:     cond,
		next:     next,
		body:     body,
		scope:    NewScope("for"),
	}
}

func (s *ForStatement) String() string { return "for" }

func (s *ForStatement) Scope() *Scope { return s.scope }

func (s *ForStatement) ResolveScope() error {
	return defaultScopeInitializer(s)
}

func (s *ForStatement) ResolveType(tc *types.Context) error {
	return requireBooleanCond(s.cond, tc)
}

func (s *ForStatement) Init(g *GenContext) error {
	s.mergebb = g.Builder.NewBlock("merge-for")
	s.nextbb = g.Builder.NewBlock("next-for")

	return WalkDFPO(s, func(n Node) error {
		switch stmt := n.(type) {
		case *ContinueStatement:
			stmt.setNextBlock(s.nextbb)
		case *BreakStatement:
			stmt.setEscapeBlock(s.mergebb)
		}
		return nil
	})
}

// Gen sequences: init statement, branch to the header, conditional branch
// into the body or out to merge, body, branch to next, next expression,
// branch back to the header. The body runs before the next expression.
func (s *ForStatement) Gen(g *GenContext) error {
	fn := g.Builder.GetInsertBlock().Parent()
	headerbb := genbb(g, "for-header")
	bodybb := genbb(g, "for-body")

	if err := s.initStmt.Gen(g); err != nil {
		return err
	}
	g.Builder.CreateBr(headerbb)

	g.Builder.SetInsertPoint(headerbb)
	condVal, err := s.cond.Eval(g)
	if err != nil {
		return err
	}
	g.Builder.CreateCondBr(condVal, bodybb, s.mergebb)

	g.Builder.SetInsertPoint(bodybb)
	if err := s.body.Gen(g); err != nil {
		return err
	}

	s.nextbb.InsertInto(fn)
	if g.Builder.GetInsertBlock().Terminator() == nil {
		g.Builder.CreateBr(s.nextbb)
	}

	g.Builder.SetInsertPoint(s.nextbb)
	if _, err := s.next.Eval(g); err != nil {
		return err
	}
	g.Builder.CreateBr(headerbb)

	s.mergebb.InsertInto(fn)
	g.Builder.SetInsertPoint(s.mergebb)
	return nil
}

// WhileStatement re-evaluates its condition in a dedicated block the body
// falls back to.
type WhileStatement struct {
	nodeData
	cond    Expression
	body    Statement
	condbb  *ir.Block
	mergebb *ir.Block
}

func NewWhileStatement(info compiler.Location, cond Expression, body Statement) *WhileStatement {
	return &WhileStatement{
		nodeData: newNodeData(info, cond, body),
		cond:     cond,
		body:     body,
	}
}

func (s *WhileStatement) String() string { return "while" }

func (s *WhileStatement) ResolveType(tc *types.Context) error {
	return requireBooleanCond(s.cond, tc)
}

func (s *WhileStatement) Init(g *GenContext) error {
	s.mergebb = g.Builder.NewBlock("while-merge")
	s.condbb = g.Builder.NewBlock("while-cond")

	return WalkDFPO(s, func(n Node) error {
		switch stmt := n.(type) {
		case *ContinueStatement:
			stmt.setNextBlock(s.condbb)
		case *BreakStatement:
			stmt.setEscapeBlock(s.mergebb)
		}
		return nil
	})
}

func (s *WhileStatement) Gen(g *GenContext) error {
	fn := g.Builder.GetInsertBlock().Parent()
	g.Builder.CreateBr(s.condbb)

	bodybb := g.Builder.NewBlockIn("while-body", fn)
	s.condbb.InsertInto(fn)
	s.mergebb.InsertInto(fn)

	g.Builder.SetInsertPoint(s.condbb)
	condVal, err := s.cond.Eval(g)
	if err != nil {
		return err
	}
	g.Builder.CreateCondBr(condVal, bodybb, s.mergebb)

	g.Builder.SetInsertPoint(bodybb)
	if err := s.body.Gen(g); err != nil {
		return err
	}
	if g.Builder.GetInsertBlock().Terminator() == nil {
		g.Builder.CreateBr(s.condbb)
	}

	g.Builder.SetInsertPoint(s.mergebb)
	return nil
}

// ContinueStatement branches to the innermost loop's next/condition block.
type ContinueStatement struct {
	nodeData
	nextbb *ir.Block
}

func NewContinueStatement(info compiler.Location) *ContinueStatement {
	return &ContinueStatement{nodeData: newNodeData(info)}
}

func (s *ContinueStatement) String() string { return "continue" }

func (s *ContinueStatement) setNextBlock(bb *ir.Block) {
	if s.nextbb == nil {
		s.nextbb = bb
	}
}

func (s *ContinueStatement) Gen(g *GenContext) error {
	if s.nextbb == nil {
		return errSyntax(s.Info(), "continue statement must be inside for/while statement")
	}
	g.Builder.CreateBr(s.nextbb)
	return nil
}

// BreakStatement branches to the innermost loop's merge block.
type BreakStatement struct {
	nodeData
	escapebb *ir.Block
}

func NewBreakStatement(info compiler.Location) *BreakStatement {
	return &BreakStatement{nodeData: newNodeData(info)}
}

func (s *BreakStatement) String() string { return "break" }

func (s *BreakStatement) setEscapeBlock(bb *ir.Block) {
	if s.escapebb == nil {
		s.escapebb = bb
	}
}

func (s *BreakStatement) Gen(g *GenContext) error {
	if s.escapebb == nil {
		return errSyntax(s.Info(), "break statement must be inside for/while statement")
	}
	g.Builder.CreateBr(s.escapebb)
	return nil
}
