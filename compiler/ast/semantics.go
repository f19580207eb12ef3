package ast

import (
	"slate/compiler"
	"slate/compiler/ir"
	"slate/compiler/types"
)

// The semantic capabilities a node can opt into. The resolution passes walk
// the tree and invoke every node that implements the pass's capability.

// ScopeSemantic nodes own a lexical scope.
type ScopeSemantic interface {
	Node
	Scope() *Scope
	ResolveScope() error
}

// SymbolSemantic nodes declare or reference a name.
type SymbolSemantic interface {
	Node
	ResolveSymbol() error
}

// TypeSemantic nodes carry a resolved type derived from their children.
type TypeSemantic interface {
	Node
	ResolveType(tc *types.Context) error
}

// SymbolNode is implemented by every node that carries a Symbol, both
// declaration sites and references; the scope pass homes them.
type SymbolNode interface {
	Node
	Sym() *Symbol
}

// Value nodes evaluate to a runtime value.
type Value interface {
	Node
	Type() types.Type
	Eval(g *GenContext) (ir.Value, error)
}

// Expression is the statement-position view of a value.
type Expression = Value

// Substance values have an address.
type Substance interface {
	Value
	Ptr(g *GenContext) (ir.Value, error)
}

// MutableSubstance values additionally support being assigned.
type MutableSubstance interface {
	Substance
	Set(g *GenContext, v ir.Value) error
}

// Literal nodes hold a compile-time constant with a canonical text form.
type Literal interface {
	Node
	ValueString() string
}

// Statement nodes emit IR.
type Statement interface {
	Node
	Gen(g *GenContext) error
}

// initializer is the pre-emission hook; it runs over the whole tree in
// depth-first post-order before any Gen.
type initializer interface {
	Init(g *GenContext) error
}

// GenContext carries the emission collaborators: the module under
// construction, the builder holding the single current insertion point, and
// the type registry.
type GenContext struct {
	Module  *ir.Module
	Builder *ir.Builder
	Types   *types.Context
}

func NewGenContext(m *ir.Module, tc *types.Context) *GenContext {
	return &GenContext{
		Module:  m,
		Builder: ir.NewBuilder(m),
		Types:   tc,
	}
}

// ----------------------------------------------------------------------------
// diagnostics

func errSyntax(info compiler.Location, msg string) *compiler.Diagnostic {
	return compiler.NewDiagnostic("", msg, info, compiler.PipelineCodeGen, compiler.KindSyntax)
}

func errSymbol(info compiler.Location, msg string) *compiler.Diagnostic {
	return compiler.NewDiagnostic("", msg, info, compiler.PipelineSymbolResolution, compiler.KindSymbol)
}

func errType(info compiler.Location, msg string) *compiler.Diagnostic {
	return compiler.NewDiagnostic("", msg, info, compiler.PipelineTypeResolution, compiler.KindType)
}

func errCast(info compiler.Location, msg string) *compiler.Diagnostic {
	return compiler.NewDiagnostic("", msg, info, compiler.PipelineTypeResolution, compiler.KindCast)
}

func errRange(info compiler.Location, msg string) *compiler.Diagnostic {
	return compiler.NewDiagnostic("", msg, info, compiler.PipelineTypeResolution, compiler.KindRange)
}

func errCodeGen(info compiler.Location, msg string) *compiler.Diagnostic {
	return compiler.NewDiagnostic("", msg, info, compiler.PipelineCodeGen, compiler.KindCodeGen)
}

// ----------------------------------------------------------------------------
// passes

// Resolve runs the semantic pipeline over the tree in its fixed order:
// scope resolution (breadth-first), symbol resolution (breadth-first), type
// resolution (depth-first post-order). Every pass fails fast.
func Resolve(root Node, tc *types.Context) error {
	err := WalkBF(root, func(n Node) error {
		if ss, ok := n.(ScopeSemantic); ok {
			return ss.ResolveScope()
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = WalkBF(root, func(n Node) error {
		if ss, ok := n.(SymbolSemantic); ok {
			return ss.ResolveSymbol()
		}
		return nil
	})
	if err != nil {
		return err
	}

	return WalkDFPO(root, func(n Node) error {
		if ts, ok := n.(TypeSemantic); ok {
			return ts.ResolveType(tc)
		}
		return nil
	})
}

// Generate runs the pre-emission init hooks depth-first post-order, then
// emits the whole tree.
func Generate(root Statement, g *GenContext) error {
	err := WalkDFPO(root, func(n Node) error {
		if in, ok := n.(initializer); ok {
			return in.Init(g)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := root.Gen(g); err != nil {
		return err
	}
	if err := g.Builder.Err(); err != nil {
		return errCodeGen(root.Info(), err.Error())
	}
	return nil
}

// defaultScopeInitializer links every scope-owning descendant to the owner's
// scope and homes every symbol-carrying descendant there. Breadth-first
// order makes nested owners re-home their own subtrees afterwards, so the
// nearest enclosing owner wins.
func defaultScopeInitializer(owner ScopeSemantic) error {
	return WalkBF(owner, func(n Node) error {
		if ss, ok := n.(ScopeSemantic); ok {
			ss.Scope().SetParent(owner.Scope())
		}
		if sn, ok := n.(SymbolNode); ok && n != Node(owner) {
			sn.Sym().setScope(owner.Scope())
		}
		return nil
	})
}
