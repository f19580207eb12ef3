package ast

import (
	"slate/compiler"
	"slate/compiler/ir"
	"slate/compiler/types"
)

// CompoundStatement is a braced statement list; it owns the scope its
// declarations live in.
type CompoundStatement struct {
	nodeData
	scope *Scope
}

func NewCompoundStatement(info compiler.Location, stmts []Statement) *CompoundStatement {
	c := &CompoundStatement{
		nodeData: newNodeData(info),
		scope:    NewScope("block"),
	}
	for _, s := range stmts {
		c.appendChild(s)
	}
	return c
}

func (c *CompoundStatement) String() string { return "{...}" }

func (c *CompoundStatement) Scope() *Scope { return c.scope }

func (c *CompoundStatement) ResolveScope() error {
	return defaultScopeInitializer(c)
}

func (c *CompoundStatement) Statements() []Statement {
	return compiler.OfType[Statement](c.Children())
}

func (c *CompoundStatement) Gen(g *GenContext) error {
	for _, s := range c.Statements() {
		if err := s.Gen(g); err != nil {
			return err
		}
	}
	return nil
}

// Block is a function body. It establishes the function-local return
// lowering protocol: one entry block holding all hoisted allocations, one
// deferred return block every return statement branches to, and a stack
// slot the return value flows through.
type Block struct {
	nodeData
	cmpStmt  *CompoundStatement
	parentFn *ir.Function
	retType  types.Type
	prologue func(g *GenContext) error
}

func NewBlock(info compiler.Location, cmpStmt *CompoundStatement) *Block {
	b := &Block{
		nodeData: newNodeData(info),
		cmpStmt:  cmpStmt,
	}
	b.appendChild(cmpStmt)
	return b
}

func (b *Block) String() string { return "body" }

func (b *Block) setParentFunc(fn *ir.Function) { b.parentFn = fn }

func (b *Block) setReturnType(t types.Type) { b.retType = t }

func (b *Block) setPrologue(fn func(g *GenContext) error) { b.prologue = fn }

func (b *Block) Gen(g *GenContext) error {
	entry := g.Builder.NewBlockIn("entry", b.parentFn)
	g.Builder.SetInsertPoint(entry)

	// created now, inserted only after the body so it prints last
	retbb := g.Builder.NewBlock("return")

	if b.prologue != nil {
		if err := b.prologue(g); err != nil {
			return err
		}
	}

	var retptr ir.Value
	isVoid := b.retType.Name() == "void"
	if b.retType.IsResolved() && !isVoid {
		retptr = g.Builder.CreateAlloca(b.retType.Inst(), "ret")
	}

	// hoist every local allocation into the entry block and hand every
	// return statement the slot and block it lowers through
	err := WalkDFPO(b, func(n Node) error {
		switch stmt := n.(type) {
		case *VariableDecl:
			stmt.hoist(g)
		case *ReturnStatement:
			stmt.setReturnTarget(retptr, retbb)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := b.cmpStmt.Gen(g); err != nil {
		return err
	}

	if g.Builder.GetInsertBlock().Terminator() == nil {
		g.Builder.CreateBr(retbb)
	}

	// rewrite every return site's terminator into a branch to the return
	// block, clearing any stray terminator left behind
	err = WalkDFPO(b, func(n Node) error {
		if ret, ok := n.(*ReturnStatement); ok {
			ret.rewriteBranch(g)
		}
		return nil
	})
	if err != nil {
		return err
	}

	retbb.InsertInto(b.parentFn)
	g.Builder.SetInsertPoint(retbb)

	if retptr != nil {
		retVal := g.Builder.CreateLoad(b.retType.Inst(), retptr)
		g.Builder.CreateRet(retVal)
	} else {
		g.Builder.CreateRetVoid()
	}
	return nil
}
