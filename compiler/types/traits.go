package types

import (
	"slate/compiler/ir"
)

// Trait is the behavioral surface of a type. Operators never look at the
// concrete type of their operands; they narrow the operand type's trait to
// the capability they need and let it produce the IR.
type Trait interface {
	TraitName() string
}

// Boolean supports equality comparison.
type Boolean interface {
	Trait
	Eq(b *ir.Builder, lv, rv ir.Value) ir.Value
	Ne(b *ir.Builder, lv, rv ir.Value) ir.Value
}

// Field supports the arithmetic operators and carries the multiplicative
// unit used by increment/decrement.
type Field interface {
	Trait
	Unit() ir.Value
	Add(b *ir.Builder, lv, rv ir.Value) ir.Value
	Sub(b *ir.Builder, lv, rv ir.Value) ir.Value
	Mul(b *ir.Builder, lv, rv ir.Value) ir.Value
	Div(b *ir.Builder, lv, rv ir.Value) ir.Value
}

// Ordered extends Field and Boolean with sign and ordering.
type Ordered interface {
	Field
	Boolean
	Plus(b *ir.Builder, v ir.Value) ir.Value
	Minus(b *ir.Builder, v ir.Value) ir.Value
	Lt(b *ir.Builder, lv, rv ir.Value) ir.Value
	Le(b *ir.Builder, lv, rv ir.Value) ir.Value
	Gt(b *ir.Builder, lv, rv ir.Value) ir.Value
	Ge(b *ir.Builder, lv, rv ir.Value) ir.Value
}

// Indexable produces the address of an element.
type Indexable interface {
	Trait
	At(b *ir.Builder, array *ArrayKind, ptr, idx ir.Value) ir.Value
}

// Callable invokes a function value.
type Callable interface {
	Trait
	Call(b *ir.Builder, fn *ir.Function, args []ir.Value) ir.Value
}

// ----------------------------------------------------------------------------
// builtin type traits

type AnyTrait struct{}

func (t *AnyTrait) TraitName() string { return "any" }

type IntegerTrait struct{}

func (t *IntegerTrait) TraitName() string { return "IntegerTrait" }

func (t *IntegerTrait) Unit() ir.Value { return ir.ConstI32(1) }

func (t *IntegerTrait) Add(b *ir.Builder, lv, rv ir.Value) ir.Value { return b.CreateAdd(lv, rv) }
func (t *IntegerTrait) Sub(b *ir.Builder, lv, rv ir.Value) ir.Value { return b.CreateSub(lv, rv) }
func (t *IntegerTrait) Mul(b *ir.Builder, lv, rv ir.Value) ir.Value { return b.CreateMul(lv, rv) }
func (t *IntegerTrait) Div(b *ir.Builder, lv, rv ir.Value) ir.Value { return b.CreateSDiv(lv, rv) }

func (t *IntegerTrait) Plus(b *ir.Builder, v ir.Value) ir.Value  { return v }
func (t *IntegerTrait) Minus(b *ir.Builder, v ir.Value) ir.Value { return b.CreateNeg(v) }

func (t *IntegerTrait) Eq(b *ir.Builder, lv, rv ir.Value) ir.Value {
	return b.CreateICmp(ir.PredEQ, lv, rv)
}
func (t *IntegerTrait) Ne(b *ir.Builder, lv, rv ir.Value) ir.Value {
	return b.CreateICmp(ir.PredNE, lv, rv)
}
func (t *IntegerTrait) Lt(b *ir.Builder, lv, rv ir.Value) ir.Value {
	return b.CreateICmp(ir.PredSLT, lv, rv)
}
func (t *IntegerTrait) Le(b *ir.Builder, lv, rv ir.Value) ir.Value {
	return b.CreateICmp(ir.PredSLE, lv, rv)
}
func (t *IntegerTrait) Gt(b *ir.Builder, lv, rv ir.Value) ir.Value {
	return b.CreateICmp(ir.PredSGT, lv, rv)
}
func (t *IntegerTrait) Ge(b *ir.Builder, lv, rv ir.Value) ir.Value {
	return b.CreateICmp(ir.PredSGE, lv, rv)
}

type DoubleTrait struct{}

func (t *DoubleTrait) TraitName() string { return "DoubleTrait" }

func (t *DoubleTrait) Unit() ir.Value { return ir.ConstFloat(1.0) }

func (t *DoubleTrait) Add(b *ir.Builder, lv, rv ir.Value) ir.Value { return b.CreateFAdd(lv, rv) }
func (t *DoubleTrait) Sub(b *ir.Builder, lv, rv ir.Value) ir.Value { return b.CreateFSub(lv, rv) }
func (t *DoubleTrait) Mul(b *ir.Builder, lv, rv ir.Value) ir.Value { return b.CreateFMul(lv, rv) }
func (t *DoubleTrait) Div(b *ir.Builder, lv, rv ir.Value) ir.Value { return b.CreateFDiv(lv, rv) }

func (t *DoubleTrait) Plus(b *ir.Builder, v ir.Value) ir.Value  { return v }
func (t *DoubleTrait) Minus(b *ir.Builder, v ir.Value) ir.Value { return b.CreateFNeg(v) }

func (t *DoubleTrait) Eq(b *ir.Builder, lv, rv ir.Value) ir.Value {
	return b.CreateFCmp(ir.PredOEQ, lv, rv)
}
func (t *DoubleTrait) Ne(b *ir.Builder, lv, rv ir.Value) ir.Value {
	return b.CreateFCmp(ir.PredONE, lv, rv)
}
func (t *DoubleTrait) Lt(b *ir.Builder, lv, rv ir.Value) ir.Value {
	return b.CreateFCmp(ir.PredOLT, lv, rv)
}
func (t *DoubleTrait) Le(b *ir.Builder, lv, rv ir.Value) ir.Value {
	return b.CreateFCmp(ir.PredOLE, lv, rv)
}
func (t *DoubleTrait) Gt(b *ir.Builder, lv, rv ir.Value) ir.Value {
	return b.CreateFCmp(ir.PredOGT, lv, rv)
}
func (t *DoubleTrait) Ge(b *ir.Builder, lv, rv ir.Value) ir.Value {
	return b.CreateFCmp(ir.PredOGE, lv, rv)
}

// BooleanValueTrait is the trait of the boolean type itself.
type BooleanValueTrait struct{}

func (t *BooleanValueTrait) TraitName() string { return "BooleanValueTrait" }

func (t *BooleanValueTrait) Eq(b *ir.Builder, lv, rv ir.Value) ir.Value {
	return b.CreateICmp(ir.PredEQ, lv, rv)
}
func (t *BooleanValueTrait) Ne(b *ir.Builder, lv, rv ir.Value) ir.Value {
	return b.CreateICmp(ir.PredNE, lv, rv)
}

type CharacterTrait struct{}

func (t *CharacterTrait) TraitName() string { return "CharacterTrait" }

func (t *CharacterTrait) Eq(b *ir.Builder, lv, rv ir.Value) ir.Value {
	return b.CreateICmp(ir.PredEQ, lv, rv)
}
func (t *CharacterTrait) Ne(b *ir.Builder, lv, rv ir.Value) ir.Value {
	return b.CreateICmp(ir.PredNE, lv, rv)
}

type ArrayTrait struct{}

func (t *ArrayTrait) TraitName() string { return "ArrayTrait" }

func (t *ArrayTrait) At(b *ir.Builder, array *ArrayKind, ptr, idx ir.Value) ir.Value {
	arrayTy := ir.ArrayOf(array.Elem.Inst(), array.Size)
	zero := ir.ConstI64(0)
	return b.CreateGEP(arrayTy, ptr, zero, idx)
}

type StringTrait struct{}

func (t *StringTrait) TraitName() string { return "StringTrait" }

func (t *StringTrait) At(b *ir.Builder, array *ArrayKind, ptr, idx ir.Value) ir.Value {
	arrayTy := ir.ArrayOf(ir.I8, array.Size)
	zero := ir.ConstI64(0)
	return b.CreateGEP(arrayTy, ptr, zero, idx)
}

type FunctionTrait struct{}

func (t *FunctionTrait) TraitName() string { return "FunctionTrait" }

func (t *FunctionTrait) Call(b *ir.Builder, fn *ir.Function, args []ir.Value) ir.Value {
	return b.CreateCall(fn, args)
}
