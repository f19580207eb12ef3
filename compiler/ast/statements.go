package ast

import (
	"fmt"

	"slate/compiler"
	"slate/compiler/ir"
	"slate/compiler/types"
)

// VariableDecl is a `let name = expr` declaration. It is both the
// declaration site of its symbol and the mutable substance references load
// from and store to. The declared type is the initializer's type.
type VariableDecl struct {
	nodeData
	name   string
	init   Expression
	symbol *Symbol
	typ    types.Type
	ptr    ir.Value
}

func NewVariableDecl(info compiler.Location, name string, init Expression) *VariableDecl {
	d := &VariableDecl{
		nodeData: newNodeData(info, init),
		name:     name,
		init:     init,
	}
	d.symbol = NewSymbol(name, SymbolLocalVariable, d)
	return d
}

func (d *VariableDecl) String() string { return "let " + d.name }

func (d *VariableDecl) Name() string { return d.name }

func (d *VariableDecl) Sym() *Symbol { return d.symbol }

func (d *VariableDecl) ResolveSymbol() error {
	scope := d.symbol.Scope()
	if scope == nil {
		return errSymbol(d.Info(), fmt.Sprintf("variable %q has no enclosing scope", d.name))
	}
	if scope.ExistsOnSameScope(d.name) {
		return errSymbol(d.Info(), fmt.Sprintf("symbol %q is already defined", d.name))
	}
	scope.Register(d.symbol)
	return nil
}

func (d *VariableDecl) ResolveType(tc *types.Context) error {
	t := d.init.Type()
	if !t.IsResolved() {
		return errType(d.Info(), fmt.Sprintf("cannot infer the type of %q", d.name))
	}
	if t.Equals(tc.Void()) {
		return errType(d.Info(), fmt.Sprintf("variable %q cannot be of type void", d.name))
	}
	d.typ = t
	return nil
}

func (d *VariableDecl) Type() types.Type { return d.typ }

// hoist reserves the stack slot; it runs with the insertion point in the
// entry block so the slot dominates every use.
func (d *VariableDecl) hoist(g *GenContext) {
	if d.ptr == nil {
		d.ptr = g.Builder.CreateAlloca(d.typ.Inst(), d.name)
	}
}

func (d *VariableDecl) Ptr(g *GenContext) (ir.Value, error) {
	if d.ptr == nil {
		return nil, errCodeGen(d.Info(), fmt.Sprintf("variable %q has no storage", d.name))
	}
	return d.ptr, nil
}

func (d *VariableDecl) Eval(g *GenContext) (ir.Value, error) {
	ptr, err := d.Ptr(g)
	if err != nil {
		return nil, err
	}
	return g.Builder.CreateLoad(d.typ.Inst(), ptr), nil
}

func (d *VariableDecl) Set(g *GenContext, v ir.Value) error {
	ptr, err := d.Ptr(g)
	if err != nil {
		return err
	}
	g.Builder.CreateStore(v, ptr)
	return nil
}

func (d *VariableDecl) Gen(g *GenContext) error {
	v, err := d.init.Eval(g)
	if err != nil {
		return err
	}
	return d.Set(g, v)
}

// Assignment stores the right-hand value into the left-hand substance.
type Assignment struct {
	nodeData
	lv Expression
	rv Expression
}

func NewAssignment(info compiler.Location, lv, rv Expression) *Assignment {
	return &Assignment{
		nodeData: newNodeData(info, lv, rv),
		lv:       lv,
		rv:       rv,
	}
}

func (a *Assignment) String() string { return "=" }

func (a *Assignment) ResolveType(tc *types.Context) error {
	if _, ok := a.lv.(MutableSubstance); !ok {
		return errType(a.Info(), "this value is not assignable")
	}
	if !a.lv.Type().Equals(a.rv.Type()) {
		return errType(a.Info(), fmt.Sprintf("type mismatch: '%s' vs '%s'",
			a.lv.Type().Name(), a.rv.Type().Name()))
	}
	return nil
}

func (a *Assignment) Gen(g *GenContext) error {
	v, err := a.rv.Eval(g)
	if err != nil {
		return err
	}
	lv, ok := a.lv.(MutableSubstance)
	if !ok {
		return errCast(a.Info(), "assignment target is not a mutable substance")
	}
	return lv.Set(g, v)
}

// ReturnStatement stores its value into the function's return slot and
// branches to the single return block; both are threaded in by the
// enclosing Block before emission.
type ReturnStatement struct {
	nodeData
	value    Expression // nil for an empty return
	typ      types.Type
	retptr   ir.Value
	retbb    *ir.Block
	parentbb *ir.Block
}

func NewReturnStatement(info compiler.Location, value Expression) *ReturnStatement {
	return &ReturnStatement{
		nodeData: newNodeData(info, value),
		value:    value,
	}
}

func (r *ReturnStatement) String() string { return "return" }

func (r *ReturnStatement) ResolveType(tc *types.Context) error {
	if r.value == nil {
		r.typ = tc.Void()
		return nil
	}
	r.typ = r.value.Type()
	return nil
}

func (r *ReturnStatement) Type() types.Type { return r.typ }

func (r *ReturnStatement) setReturnTarget(retptr ir.Value, retbb *ir.Block) {
	r.retptr = retptr
	r.retbb = retbb
}

func (r *ReturnStatement) Gen(g *GenContext) error {
	if r.retbb == nil {
		return errCodeGen(r.Info(), "return statement outside a function body")
	}
	if r.value != nil && r.retptr != nil {
		v, err := r.value.Eval(g)
		if err != nil {
			return err
		}
		g.Builder.CreateStore(v, r.retptr)
	}
	r.parentbb = g.Builder.GetInsertBlock()
	g.Builder.CreateBr(r.retbb)
	return nil
}

// rewriteBranch replaces the parent block's terminator with the branch to
// the return block, dropping any stray terminator emitted in between.
func (r *ReturnStatement) rewriteBranch(g *GenContext) {
	if r.parentbb == nil {
		return
	}
	origin := g.Builder.GetInsertBlock()
	r.parentbb.RemoveTerminator()
	g.Builder.SetInsertPoint(r.parentbb)
	g.Builder.CreateBr(r.retbb)
	g.Builder.SetInsertPoint(origin)
}

// ExpressionStatement evaluates an expression for its side effects.
type ExpressionStatement struct {
	nodeData
	expr Expression
}

func NewExpressionStatement(info compiler.Location, expr Expression) *ExpressionStatement {
	return &ExpressionStatement{
		nodeData: newNodeData(info, expr),
		expr:     expr,
	}
}

func (s *ExpressionStatement) String() string { return "expr" }

func (s *ExpressionStatement) Gen(g *GenContext) error {
	_, err := s.expr.Eval(g)
	return err
}
