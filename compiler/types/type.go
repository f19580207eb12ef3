package types

import (
	"fmt"

	"slate/compiler/ir"
)

// Type pairs a registry name with its low-level handle, structural kind and
// behavioral trait. Types are cheap value-like handles; equality is by name.
type Type struct {
	name  string
	inst  ir.Type
	trait Trait
	kind  Kind
}

func (t Type) Name() string  { return t.name }
func (t Type) Inst() ir.Type { return t.inst }
func (t Type) Trait() Trait  { return t.trait }
func (t Type) Kind() Kind    { return t.kind }

// IsResolved reports whether the type has been filled in by the type pass.
func (t Type) IsResolved() bool { return t.name != "" }

func (t Type) Equals(o Type) bool { return t.name == o.name }

func (t Type) String() string { return t.name }

// Context is the process-wide type registry, populated with the builtin
// types at construction and then treated as read-only during a compile.
// Compound types register themselves on first use.
type Context struct {
	typeset map[string]Type
}

func NewContext() *Context {
	c := &Context{typeset: make(map[string]Type)}

	c.define("integer", ir.I32, &IntegerTrait{})
	c.define("double", ir.Double, &DoubleTrait{})
	c.define("boolean", ir.I1, &BooleanValueTrait{})
	c.define("char", ir.I8, &CharacterTrait{})
	c.define("void", ir.Void, &AnyTrait{})

	return c
}

func (c *Context) define(name string, inst ir.Type, trait Trait) {
	c.typeset[name] = Type{
		name:  name,
		inst:  inst,
		trait: trait,
		kind:  &PrimitiveKind{},
	}
}

// Get looks up a registered type by name.
func (c *Context) Get(name string) (Type, bool) {
	t, ok := c.typeset[name]
	return t, ok
}

// MustGet looks up a builtin; absence is a compiler defect.
func (c *Context) MustGet(name string) Type {
	t, ok := c.typeset[name]
	if !ok {
		panic(fmt.Sprintf("type %s is not defined", name))
	}
	return t
}

func (c *Context) Integer() Type { return c.MustGet("integer") }
func (c *Context) Double() Type  { return c.MustGet("double") }
func (c *Context) Boolean() Type { return c.MustGet("boolean") }
func (c *Context) Char() Type    { return c.MustGet("char") }
func (c *Context) Void() Type    { return c.MustGet("void") }

// Array applies the array kind constructor to an element type, memoizing by
// registry name. The low-level handle is the array head pointer.
func (c *Context) Array(elem Type, size int) Type {
	name := fmt.Sprintf("array[%d] of %s", size, elem.Name())
	if t, ok := c.typeset[name]; ok {
		return t
	}
	t := Type{
		name:  name,
		inst:  ir.PointerTo(elem.Inst()),
		trait: &ArrayTrait{},
		kind:  &ArrayKind{Elem: elem, Size: size},
	}
	c.typeset[name] = t
	return t
}

// String applies the string kind: an array-of-char specialization whose
// registry name is "string". Each application carries its own length in the
// kind; all string types compare equal.
func (c *Context) String(size int) Type {
	t := Type{
		name:  "string",
		inst:  ir.PointerTo(ir.I8),
		trait: &StringTrait{},
		kind:  &StringKind{ArrayKind{Elem: c.Char(), Size: size}},
	}
	if _, ok := c.typeset["string"]; !ok {
		c.typeset["string"] = t
	}
	return t
}

// Function applies the function kind to a finalized signature.
func (c *Context) Function(sig *Signature) Type {
	name := "function" + sig.String()
	if t, ok := c.typeset[name]; ok {
		return t
	}
	params := make([]ir.Type, len(sig.Args))
	for i, a := range sig.Args {
		params[i] = a.Type.Inst()
	}
	var ret ir.Type = ir.Void
	if sig.Ret != nil {
		ret = sig.Ret.Inst()
	}
	t := Type{
		name:  name,
		inst:  ir.FunctionOf(params, ret),
		trait: &FunctionTrait{},
		kind:  &FunctionKind{Sig: sig},
	}
	c.typeset[name] = t
	return t
}

// Pointer applies the pointer kind; present for completeness of the kind
// set, the source language has no pointer syntax.
func (c *Context) Pointer(elem Type) Type {
	name := elem.Name() + "*"
	if t, ok := c.typeset[name]; ok {
		return t
	}
	t := Type{
		name:  name,
		inst:  ir.PointerTo(elem.Inst()),
		trait: &AnyTrait{},
		kind:  &PointerKind{Elem: elem},
	}
	c.typeset[name] = t
	return t
}
