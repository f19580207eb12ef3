package ast

import (
	"fmt"
	"strconv"
	"strings"

	"slate/compiler"
	"slate/compiler/ir"
	"slate/compiler/types"
)

// IntegerLiteral is a 32-bit signed constant.
type IntegerLiteral struct {
	nodeData
	value int32
	typ   types.Type
}

func NewIntegerLiteral(info compiler.Location, value int32) *IntegerLiteral {
	return &IntegerLiteral{nodeData: newNodeData(info), value: value}
}

func (e *IntegerLiteral) String() string      { return e.ValueString() }
func (e *IntegerLiteral) ValueString() string { return strconv.FormatInt(int64(e.value), 10) }
func (e *IntegerLiteral) Value() int32        { return e.value }

func (e *IntegerLiteral) ResolveType(tc *types.Context) error {
	e.typ = tc.Integer()
	return nil
}

func (e *IntegerLiteral) Type() types.Type { return e.typ }

func (e *IntegerLiteral) Eval(g *GenContext) (ir.Value, error) {
	return ir.ConstI32(e.value), nil
}

// DoubleLiteral is a floating point constant.
type DoubleLiteral struct {
	nodeData
	value float64
	typ   types.Type
}

func NewDoubleLiteral(info compiler.Location, value float64) *DoubleLiteral {
	return &DoubleLiteral{nodeData: newNodeData(info), value: value}
}

func (e *DoubleLiteral) String() string      { return e.ValueString() }
func (e *DoubleLiteral) ValueString() string { return strconv.FormatFloat(e.value, 'g', -1, 64) }

func (e *DoubleLiteral) ResolveType(tc *types.Context) error {
	e.typ = tc.Double()
	return nil
}

func (e *DoubleLiteral) Type() types.Type { return e.typ }

func (e *DoubleLiteral) Eval(g *GenContext) (ir.Value, error) {
	return ir.ConstFloat(e.value), nil
}

// BooleanLiteral is true or false.
type BooleanLiteral struct {
	nodeData
	value bool
	typ   types.Type
}

func NewBooleanLiteral(info compiler.Location, value bool) *BooleanLiteral {
	return &BooleanLiteral{nodeData: newNodeData(info), value: value}
}

func (e *BooleanLiteral) String() string      { return e.ValueString() }
func (e *BooleanLiteral) ValueString() string { return strconv.FormatBool(e.value) }

func (e *BooleanLiteral) ResolveType(tc *types.Context) error {
	e.typ = tc.Boolean()
	return nil
}

func (e *BooleanLiteral) Type() types.Type { return e.typ }

func (e *BooleanLiteral) Eval(g *GenContext) (ir.Value, error) {
	return ir.ConstBool(e.value), nil
}

// StringLiteral lowers to a global constant char array with a terminating
// null; its value is the array head address.
type StringLiteral struct {
	nodeData
	value string
	typ   types.Type
}

func NewStringLiteral(info compiler.Location, value string) *StringLiteral {
	return &StringLiteral{nodeData: newNodeData(info), value: value}
}

func (e *StringLiteral) String() string      { return e.ValueString() }
func (e *StringLiteral) ValueString() string { return strconv.Quote(e.value) }

func (e *StringLiteral) ResolveType(tc *types.Context) error {
	e.typ = tc.String(len(e.value) + 1)
	return nil
}

func (e *StringLiteral) Type() types.Type { return e.typ }

func (e *StringLiteral) Eval(g *GenContext) (ir.Value, error) {
	return g.Builder.CreateGlobalString(e.value), nil
}

// ArrayLiteral allocates element storage and fills it; its value is the
// array head address. Empty literals have no type and are rejected.
type ArrayLiteral struct {
	nodeData
	elements []Expression
	typ      types.Type
	valstr   string
}

func NewArrayLiteral(info compiler.Location, elements []Expression) *ArrayLiteral {
	a := &ArrayLiteral{nodeData: newNodeData(info), elements: elements}
	var parts []string
	for _, e := range elements {
		a.appendChild(e)
		if lit, ok := e.(Literal); ok {
			parts = append(parts, lit.ValueString())
		}
	}
	a.valstr = strings.Join(parts, " , ")
	return a
}

func (e *ArrayLiteral) String() string { return "[" + e.valstr + "]" }

func (e *ArrayLiteral) ResolveType(tc *types.Context) error {
	if len(e.elements) == 0 {
		return errType(e.Info(), "cannot infer the element type of an empty array")
	}
	elemType := e.elements[0].Type()
	for _, el := range e.elements[1:] {
		if !el.Type().Equals(elemType) {
			return errType(el.Info(), fmt.Sprintf("array elements must share one type: '%s' vs '%s'",
				elemType.Name(), el.Type().Name()))
		}
	}
	e.typ = tc.Array(elemType, len(e.elements))
	return nil
}

func (e *ArrayLiteral) Type() types.Type { return e.typ }

func (e *ArrayLiteral) Eval(g *GenContext) (ir.Value, error) {
	array, ok := types.AsArray(e.typ.Kind())
	if !ok {
		return nil, errCast(e.Info(), "array literal without array kind")
	}
	arrayTy := ir.ArrayOf(array.Elem.Inst(), array.Size)
	ptr := g.Builder.CreateAlloca(arrayTy, "array")
	for i, el := range e.elements {
		v, err := el.Eval(g)
		if err != nil {
			return nil, err
		}
		elemPtr := g.Builder.CreateGEP(arrayTy, ptr, ir.ConstI64(0), ir.ConstI64(int64(i)))
		g.Builder.CreateStore(v, elemPtr)
	}
	return ptr, nil
}

// VariableRef is a use of a name; symbol resolution binds it to its
// declaration and all substance behavior delegates there.
type VariableRef struct {
	nodeData
	name   string
	symbol *Symbol // the reference's own symbol, homed by the scope pass
	bound  *Symbol // the declaration the name resolved to
	typ    types.Type
}

func NewVariableRef(info compiler.Location, name string) *VariableRef {
	r := &VariableRef{nodeData: newNodeData(info), name: name}
	r.symbol = NewSymbol(name, SymbolLocalVariable, r)
	return r
}

func (e *VariableRef) String() string { return e.name }

func (e *VariableRef) Name() string { return e.name }

func (e *VariableRef) Sym() *Symbol { return e.symbol }

// Binding returns the declaration symbol the reference resolved to.
func (e *VariableRef) Binding() *Symbol { return e.bound }

func (e *VariableRef) ResolveSymbol() error {
	scope := e.symbol.Scope()
	if scope == nil {
		return errSymbol(e.Info(), fmt.Sprintf("symbol %q has no enclosing scope", e.name))
	}
	target := scope.Find(e.name)
	if target == nil {
		return errSymbol(e.Info(), fmt.Sprintf("symbol %q is not defined", e.name))
	}
	e.bound = target
	e.symbol.Kind = target.Kind
	return nil
}

func (e *VariableRef) ResolveType(tc *types.Context) error {
	switch decl := e.bound.Decl.(type) {
	case *Function:
		if decl.sig.Ret == nil {
			return errType(e.Info(), fmt.Sprintf("the return type of %q is not resolved yet", e.name))
		}
		e.typ = tc.Function(decl.sig)
	case Value:
		e.typ = decl.Type()
	default:
		return errCast(e.Info(), fmt.Sprintf("symbol %q is not a value", e.name))
	}
	return nil
}

func (e *VariableRef) Type() types.Type { return e.typ }

func (e *VariableRef) substance() (MutableSubstance, error) {
	sub, ok := e.bound.Decl.(MutableSubstance)
	if !ok {
		return nil, errSymbol(e.Info(), fmt.Sprintf("%s %q is not assignable", e.bound.Kind, e.name))
	}
	return sub, nil
}

func (e *VariableRef) Eval(g *GenContext) (ir.Value, error) {
	value, ok := e.bound.Decl.(Value)
	if !ok {
		return nil, errSymbol(e.Info(), fmt.Sprintf("%s %q cannot be used as a value", e.bound.Kind, e.name))
	}
	return value.Eval(g)
}

func (e *VariableRef) Ptr(g *GenContext) (ir.Value, error) {
	sub, err := e.substance()
	if err != nil {
		return nil, err
	}
	return sub.Ptr(g)
}

func (e *VariableRef) Set(g *GenContext, v ir.Value) error {
	sub, err := e.substance()
	if err != nil {
		return err
	}
	return sub.Set(g, v)
}
