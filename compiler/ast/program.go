package ast

import (
	"fmt"

	"slate/compiler"
	"slate/compiler/ir"
	"slate/compiler/types"
)

// Program is the root node; it owns the global scope the function symbols
// live in.
type Program struct {
	nodeData
	scope *Scope
}

func NewProgram(info compiler.Location, functions []*Function) *Program {
	p := &Program{
		nodeData: newNodeData(info),
		scope:    NewScope("global"),
	}
	for _, f := range functions {
		p.appendChild(f)
	}
	return p
}

func (p *Program) String() string { return "program" }

func (p *Program) Scope() *Scope { return p.scope }

func (p *Program) ResolveScope() error {
	return defaultScopeInitializer(p)
}

func (p *Program) Functions() []*Function {
	return compiler.OfType[*Function](p.Children())
}

func (p *Program) Gen(g *GenContext) error {
	for _, f := range p.Functions() {
		if err := f.Gen(g); err != nil {
			return err
		}
	}
	return nil
}

// Argument is one function parameter. Arguments are spilled to a stack slot
// in the entry block, which gives them the same mutable-substance semantics
// as local variables.
type Argument struct {
	nodeData
	name   string
	typ    types.Type
	symbol *Symbol
	ptr    ir.Value
}

func NewArgument(info compiler.Location, name string, typ types.Type) *Argument {
	a := &Argument{
		nodeData: newNodeData(info),
		name:     name,
		typ:      typ,
	}
	a.symbol = NewSymbol(name, SymbolFunctionArgument, a)
	return a
}

func (a *Argument) String() string { return fmt.Sprintf("%s:%s", a.name, a.typ.Name()) }

func (a *Argument) Name() string { return a.name }

func (a *Argument) Sym() *Symbol { return a.symbol }

func (a *Argument) ResolveSymbol() error {
	scope := a.symbol.Scope()
	if scope.ExistsOnSameScope(a.name) {
		return errSymbol(a.Info(), fmt.Sprintf("symbol %q is already defined", a.name))
	}
	scope.Register(a.symbol)
	return nil
}

func (a *Argument) Type() types.Type { return a.typ }

func (a *Argument) spill(g *GenContext, incoming ir.Value) {
	a.ptr = g.Builder.CreateAlloca(a.typ.Inst(), a.name)
	g.Builder.CreateStore(incoming, a.ptr)
}

func (a *Argument) Ptr(g *GenContext) (ir.Value, error) {
	if a.ptr == nil {
		return nil, errCodeGen(a.Info(), fmt.Sprintf("argument %q has no storage", a.name))
	}
	return a.ptr, nil
}

func (a *Argument) Eval(g *GenContext) (ir.Value, error) {
	ptr, err := a.Ptr(g)
	if err != nil {
		return nil, err
	}
	return g.Builder.CreateLoad(a.typ.Inst(), ptr), nil
}

func (a *Argument) Set(g *GenContext, v ir.Value) error {
	ptr, err := a.Ptr(g)
	if err != nil {
		return err
	}
	g.Builder.CreateStore(v, ptr)
	return nil
}

// Function owns a signature, one Argument node per parameter and a body.
type Function struct {
	nodeData
	name   string
	sig    *types.Signature
	args   []*Argument
	body   *Block
	scope  *Scope
	symbol *Symbol
	typ    types.Type
	irFn   *ir.Function
}

func NewFunction(info compiler.Location, name string, sig *types.Signature, args []*Argument, body *Block) *Function {
	f := &Function{
		nodeData: newNodeData(info),
		name:     name,
		sig:      sig,
		args:     args,
		body:     body,
		scope:    NewScope(name),
	}
	f.symbol = NewSymbol(name, SymbolFunction, f)
	for _, a := range args {
		f.appendChild(a)
	}
	f.appendChild(body)
	return f
}

func (f *Function) String() string {
	return fmt.Sprintf("function %s%s", f.name, f.sig)
}

func (f *Function) Name() string { return f.name }

func (f *Function) Signature() *types.Signature { return f.sig }

func (f *Function) Scope() *Scope { return f.scope }

func (f *Function) Sym() *Symbol { return f.symbol }

func (f *Function) ResolveScope() error {
	return defaultScopeInitializer(f)
}

// ResolveSymbol registers the function name into the enclosing scope.
func (f *Function) ResolveSymbol() error {
	scope := f.symbol.Scope()
	if scope == nil {
		return errSymbol(f.Info(), fmt.Sprintf("function %q has no enclosing scope", f.name))
	}
	if scope.ExistsOnSameScope(f.name) {
		return errSymbol(f.Info(), fmt.Sprintf("symbol %q is already defined", f.name))
	}
	scope.Register(f.symbol)
	return nil
}

// inferReturnType joins the types of all return statements in the body; a
// body without returns yields void. Disagreeing returns are an error.
func (f *Function) inferReturnType(tc *types.Context) (types.Type, error) {
	var inferred types.Type
	err := WalkDFPO(f.body, func(n Node) error {
		ret, ok := n.(*ReturnStatement)
		if !ok {
			return nil
		}
		if inferred.IsResolved() && !ret.typ.Equals(inferred) {
			return errType(ret.Info(), fmt.Sprintf("return type mismatch: %s vs %s",
				inferred.Name(), ret.typ.Name()))
		}
		inferred = ret.typ
		return nil
	})
	if err != nil {
		return types.Type{}, err
	}
	if !inferred.IsResolved() {
		return tc.Void(), nil
	}
	return inferred, nil
}

func (f *Function) ResolveType(tc *types.Context) error {
	inferred, err := f.inferReturnType(tc)
	if err != nil {
		return err
	}

	if f.sig.Ret != nil && !inferred.Equals(*f.sig.Ret) {
		return errType(f.Info(), fmt.Sprintf("return type mismatch: %s vs %s",
			inferred.Name(), f.sig.Ret.Name()))
	}
	if f.sig.Ret == nil {
		f.sig.SetInferredReturnType(inferred)
	}

	f.body.setReturnType(*f.sig.Ret)
	f.typ = tc.Function(f.sig)
	return nil
}

func (f *Function) Type() types.Type { return f.typ }

// Init materializes the function in the module with its finalized signature
// so calls in any function body can reference it during emission.
func (f *Function) Init(g *GenContext) error {
	params := make([]*ir.Param, len(f.sig.Args))
	for i, a := range f.sig.Args {
		params[i] = &ir.Param{Name: a.Name, Ty: a.Type.Inst()}
	}
	f.irFn = g.Builder.CreateFunction(f.name, params, f.sig.Ret.Inst())
	return nil
}

func (f *Function) IRFunction() *ir.Function { return f.irFn }

func (f *Function) Gen(g *GenContext) error {
	f.body.setParentFunc(f.irFn)
	f.body.setPrologue(func(g *GenContext) error {
		for i, a := range f.args {
			a.spill(g, f.irFn.Params[i])
		}
		return nil
	})
	return f.body.Gen(g)
}
