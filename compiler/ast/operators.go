package ast

import (
	"fmt"

	"slate/compiler"
	"slate/compiler/ir"
	"slate/compiler/types"
)

type BinaryOp int

const (
	// magma
	OpAdd BinaryOp = iota
	OpSubtract
	OpMultiply
	OpDivide
	// equality
	OpEqual
	OpNotEqual
	// ordering
	OpLessThan
	OpLessEqual
	OpGreaterThan
	OpGreaterEqual
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSubtract:
		return "-"
	case OpMultiply:
		return "*"
	case OpDivide:
		return "/"
	case OpEqual:
		return "=="
	case OpNotEqual:
		return "!="
	case OpLessThan:
		return "<"
	case OpLessEqual:
		return "<="
	case OpGreaterThan:
		return ">"
	case OpGreaterEqual:
		return ">="
	}
	return "?"
}

func (op BinaryOp) isMagma() bool { return op <= OpDivide }

func (op BinaryOp) isEquality() bool { return op == OpEqual || op == OpNotEqual }

// BinaryOperator covers arithmetic and comparison. The operator itself
// never inspects the operand type; it asks the type's trait to produce the
// IR, so integer and double addition differ only in the trait dispatched.
type BinaryOperator struct {
	nodeData
	op    BinaryOp
	left  Expression
	right Expression
	typ   types.Type
}

func NewBinaryOperator(info compiler.Location, op BinaryOp, left, right Expression) *BinaryOperator {
	return &BinaryOperator{
		nodeData: newNodeData(info, left, right),
		op:       op,
		left:     left,
		right:    right,
	}
}

func (e *BinaryOperator) String() string { return e.op.String() }

func (e *BinaryOperator) Op() BinaryOp { return e.op }

func (e *BinaryOperator) ResolveType(tc *types.Context) error {
	lt, rt := e.left.Type(), e.right.Type()
	if !lt.Equals(rt) {
		return errType(e.Info(), fmt.Sprintf("type mismatch: '%s' vs '%s'", lt.Name(), rt.Name()))
	}

	switch {
	case e.op.isMagma():
		if _, ok := lt.Trait().(types.Field); !ok {
			return errType(e.Info(), fmt.Sprintf("operator %s is not defined for type %s", e.op, lt.Name()))
		}
		e.typ = lt
	case e.op.isEquality():
		if _, ok := lt.Trait().(types.Boolean); !ok {
			return errType(e.Info(), fmt.Sprintf("operator %s is not defined for type %s", e.op, lt.Name()))
		}
		e.typ = tc.Boolean()
	default:
		if _, ok := lt.Trait().(types.Ordered); !ok {
			return errType(e.Info(), fmt.Sprintf("operator %s is not defined for type %s", e.op, lt.Name()))
		}
		e.typ = tc.Boolean()
	}
	return nil
}

func (e *BinaryOperator) Type() types.Type { return e.typ }

func (e *BinaryOperator) Eval(g *GenContext) (ir.Value, error) {
	lv, err := e.left.Eval(g)
	if err != nil {
		return nil, err
	}
	rv, err := e.right.Eval(g)
	if err != nil {
		return nil, err
	}

	trait := e.left.Type().Trait()
	b := g.Builder

	switch e.op {
	case OpAdd, OpSubtract, OpMultiply, OpDivide:
		field, ok := trait.(types.Field)
		if !ok {
			return nil, errCast(e.Info(), fmt.Sprintf("trait of %s is not a Field", e.left.Type().Name()))
		}
		switch e.op {
		case OpAdd:
			return field.Add(b, lv, rv), nil
		case OpSubtract:
			return field.Sub(b, lv, rv), nil
		case OpMultiply:
			return field.Mul(b, lv, rv), nil
		default:
			return field.Div(b, lv, rv), nil
		}
	case OpEqual, OpNotEqual:
		boolean, ok := trait.(types.Boolean)
		if !ok {
			return nil, errCast(e.Info(), fmt.Sprintf("trait of %s is not Boolean", e.left.Type().Name()))
		}
		if e.op == OpEqual {
			return boolean.Eq(b, lv, rv), nil
		}
		return boolean.Ne(b, lv, rv), nil
	default:
		ordered, ok := trait.(types.Ordered)
		if !ok {
			return nil, errCast(e.Info(), fmt.Sprintf("trait of %s is not Ordered", e.left.Type().Name()))
		}
		switch e.op {
		case OpLessThan:
			return ordered.Lt(b, lv, rv), nil
		case OpLessEqual:
			return ordered.Le(b, lv, rv), nil
		case OpGreaterThan:
			return ordered.Gt(b, lv, rv), nil
		default:
			return ordered.Ge(b, lv, rv), nil
		}
	}
}

type UnaryOp int

const (
	OpPlus UnaryOp = iota
	OpMinus
)

func (op UnaryOp) String() string {
	if op == OpMinus {
		return "(-)"
	}
	return "(+)"
}

// UnaryOperator is the sign operator; plus is the identity.
type UnaryOperator struct {
	nodeData
	op      UnaryOp
	operand Expression
	typ     types.Type
}

func NewUnaryOperator(info compiler.Location, op UnaryOp, operand Expression) *UnaryOperator {
	return &UnaryOperator{
		nodeData: newNodeData(info, operand),
		op:       op,
		operand:  operand,
	}
}

func (e *UnaryOperator) String() string { return e.op.String() }

func (e *UnaryOperator) ResolveType(tc *types.Context) error {
	if _, ok := e.operand.Type().Trait().(types.Ordered); !ok {
		return errType(e.Info(), fmt.Sprintf("operator %s is not defined for type %s",
			e.op, e.operand.Type().Name()))
	}
	e.typ = e.operand.Type()
	return nil
}

func (e *UnaryOperator) Type() types.Type { return e.typ }

func (e *UnaryOperator) Eval(g *GenContext) (ir.Value, error) {
	v, err := e.operand.Eval(g)
	if err != nil {
		return nil, err
	}
	ordered, ok := e.operand.Type().Trait().(types.Ordered)
	if !ok {
		return nil, errCast(e.Info(), fmt.Sprintf("trait of %s is not Ordered", e.operand.Type().Name()))
	}
	if e.op == OpMinus {
		return ordered.Minus(g.Builder, v), nil
	}
	return ordered.Plus(g.Builder, v), nil
}

type IncDecOp int

const (
	OpIncrement IncDecOp = iota
	OpDecrement
)

func (op IncDecOp) String() string {
	if op == OpIncrement {
		return "(...)++"
	}
	return "(...)--"
}

// IncDecOperator is the post-fix increment/decrement: the operand, a
// mutable substance of a Field type, is stepped by the trait's unit and the
// pre-value is the operator's value.
type IncDecOperator struct {
	nodeData
	op      IncDecOp
	operand Expression
	typ     types.Type
}

func NewIncDecOperator(info compiler.Location, op IncDecOp, operand Expression) *IncDecOperator {
	return &IncDecOperator{
		nodeData: newNodeData(info, operand),
		op:       op,
		operand:  operand,
	}
}

func (e *IncDecOperator) String() string { return e.op.String() }

func (e *IncDecOperator) ResolveType(tc *types.Context) error {
	if _, ok := e.operand.(MutableSubstance); !ok {
		return errType(e.Info(), "this value is not assignable")
	}
	if _, ok := e.operand.Type().Trait().(types.Field); !ok {
		return errType(e.Info(), fmt.Sprintf("operator %s is not defined for type %s",
			e.op, e.operand.Type().Name()))
	}
	e.typ = e.operand.Type()
	return nil
}

func (e *IncDecOperator) Type() types.Type { return e.typ }

func (e *IncDecOperator) Eval(g *GenContext) (ir.Value, error) {
	sub, ok := e.operand.(MutableSubstance)
	if !ok {
		return nil, errCast(e.Info(), "operand is not a mutable substance")
	}
	field, ok := e.operand.Type().Trait().(types.Field)
	if !ok {
		return nil, errCast(e.Info(), fmt.Sprintf("trait of %s is not a Field", e.operand.Type().Name()))
	}

	prev, err := sub.Eval(g)
	if err != nil {
		return nil, err
	}
	unit := field.Unit()
	var stepped ir.Value
	if e.op == OpIncrement {
		stepped = field.Add(g.Builder, prev, unit)
	} else {
		stepped = field.Sub(g.Builder, prev, unit)
	}
	if err := sub.Set(g, stepped); err != nil {
		return nil, err
	}
	return prev, nil
}

// IndexingOperator addresses one element of an indexable value. With a
// constant index into an array of known size the access is bounds-checked
// at compile time.
type IndexingOperator struct {
	nodeData
	arraylike Expression
	index     Expression
	typ       types.Type
}

func NewIndexingOperator(info compiler.Location, arraylike, index Expression) *IndexingOperator {
	return &IndexingOperator{
		nodeData:  newNodeData(info, arraylike, index),
		arraylike: arraylike,
		index:     index,
	}
}

func (e *IndexingOperator) String() string { return "[]" }

func (e *IndexingOperator) ResolveType(tc *types.Context) error {
	at := e.arraylike.Type()
	if _, ok := at.Trait().(types.Indexable); !ok {
		return errType(e.Info(), fmt.Sprintf("type %s is not indexable", at.Name()))
	}
	if !e.index.Type().Equals(tc.Integer()) {
		return errType(e.index.Info(), fmt.Sprintf("array index must be integer but %s",
			e.index.Type().Name()))
	}

	array, ok := types.AsArray(at.Kind())
	if !ok {
		return errCast(e.Info(), fmt.Sprintf("indexable type %s has no array kind", at.Name()))
	}
	if lit, ok := e.index.(*IntegerLiteral); ok {
		if lit.Value() < 0 || int(lit.Value()) >= array.Size {
			return errRange(lit.Info(), fmt.Sprintf("index %d is out of range [0, %d)",
				lit.Value(), array.Size))
		}
	}

	e.typ = array.Elem
	return nil
}

func (e *IndexingOperator) Type() types.Type { return e.typ }

func (e *IndexingOperator) Ptr(g *GenContext) (ir.Value, error) {
	at := e.arraylike.Type()
	indexable, ok := at.Trait().(types.Indexable)
	if !ok {
		return nil, errCast(e.Info(), fmt.Sprintf("trait of %s is not Indexable", at.Name()))
	}
	array, ok := types.AsArray(at.Kind())
	if !ok {
		return nil, errCast(e.Info(), fmt.Sprintf("indexable type %s has no array kind", at.Name()))
	}

	head, err := e.arraylike.Eval(g)
	if err != nil {
		return nil, err
	}
	idx, err := e.index.Eval(g)
	if err != nil {
		return nil, err
	}
	return indexable.At(g.Builder, array, head, idx), nil
}

func (e *IndexingOperator) Eval(g *GenContext) (ir.Value, error) {
	ptr, err := e.Ptr(g)
	if err != nil {
		return nil, err
	}
	return g.Builder.CreateLoad(e.typ.Inst(), ptr), nil
}

func (e *IndexingOperator) Set(g *GenContext, v ir.Value) error {
	ptr, err := e.Ptr(g)
	if err != nil {
		return err
	}
	g.Builder.CreateStore(v, ptr)
	return nil
}

// CallOperator invokes a named function. Arity and argument types are
// checked against the callee's signature during type resolution; emission
// dispatches through the function type's Callable trait.
type CallOperator struct {
	nodeData
	callee Expression
	args   []Expression
	target *Function
	typ    types.Type
}

func NewCallOperator(info compiler.Location, callee Expression, args []Expression) *CallOperator {
	c := &CallOperator{
		nodeData: newNodeData(info, callee),
		callee:   callee,
		args:     args,
	}
	for _, a := range args {
		c.appendChild(a)
	}
	return c
}

func (e *CallOperator) String() string { return "call" }

func (e *CallOperator) ResolveType(tc *types.Context) error {
	ref, ok := e.callee.(*VariableRef)
	if !ok {
		return errType(e.callee.Info(), "this expression is not callable")
	}
	binding := ref.Binding()
	if binding.Kind != SymbolFunction {
		return errSymbol(e.callee.Info(), fmt.Sprintf("%s %q is not a function", binding.Kind, ref.Name()))
	}
	target, ok := binding.Decl.(*Function)
	if !ok {
		return errCast(e.callee.Info(), fmt.Sprintf("symbol %q is not bound to a function", ref.Name()))
	}

	sig := target.Signature()
	if len(e.args) != len(sig.Args) {
		return errType(e.Info(), fmt.Sprintf("%q expects %d arguments but got %d",
			target.Name(), len(sig.Args), len(e.args)))
	}
	for i, arg := range e.args {
		if !arg.Type().Equals(sig.Args[i].Type) {
			return errType(arg.Info(), fmt.Sprintf("argument %q must be %s but %s",
				sig.Args[i].Name, sig.Args[i].Type.Name(), arg.Type().Name()))
		}
	}
	if sig.Ret == nil {
		return errType(e.Info(), fmt.Sprintf("the return type of %q is not resolved yet", target.Name()))
	}

	e.target = target
	e.typ = *sig.Ret
	return nil
}

func (e *CallOperator) Type() types.Type { return e.typ }

func (e *CallOperator) Eval(g *GenContext) (ir.Value, error) {
	irArgs := make([]ir.Value, len(e.args))
	for i, a := range e.args {
		v, err := a.Eval(g)
		if err != nil {
			return nil, err
		}
		irArgs[i] = v
	}

	fnType := g.Types.Function(e.target.Signature())
	callable, ok := fnType.Trait().(types.Callable)
	if !ok {
		return nil, errCast(e.Info(), fmt.Sprintf("trait of %s is not Callable", fnType.Name()))
	}
	if e.target.IRFunction() == nil {
		return nil, errCodeGen(e.Info(), fmt.Sprintf("function %q was not materialized", e.target.Name()))
	}
	return callable.Call(g.Builder, e.target.IRFunction(), irArgs), nil
}
