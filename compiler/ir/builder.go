package ir

import (
	"fmt"
)

// Builder appends instructions at a single insertion point, in the style of
// an LLVM IRBuilder. Misuse (no insertion point, appending to a detached
// block) is latched into an error that poisons all further building; callers
// check Err() once after emitting. Operand types are not checked.
type Builder struct {
	m   *Module
	cur *Block
	err error
}

func NewBuilder(m *Module) *Builder {
	return &Builder{m: m}
}

func (b *Builder) Module() *Module { return b.m }

func (b *Builder) Err() error { return b.err }

func (b *Builder) fail(format string, args ...any) {
	if b.err == nil {
		b.err = fmt.Errorf(format, args...)
	}
}

// CreateFunction materializes a function in the module.
func (b *Builder) CreateFunction(name string, params []*Param, ret Type) *Function {
	fn := &Function{
		Name:   name,
		Params: params,
		Ret:    ret,
		module: b.m,
		names:  make(map[string]int),
		labels: make(map[string]int),
	}
	// parameter names are taken; a slot named after one gets a suffix
	for _, p := range params {
		fn.names[p.Name] = 1
	}
	b.m.Functions = append(b.m.Functions, fn)
	return fn
}

// NewBlock creates a detached block; insert it with Block.InsertInto.
func (b *Builder) NewBlock(label string) *Block {
	return &Block{Label: label}
}

// NewBlockIn creates a block and inserts it into fn immediately.
func (b *Builder) NewBlockIn(label string, fn *Function) *Block {
	blk := &Block{Label: label}
	blk.InsertInto(fn)
	return blk
}

func (b *Builder) SetInsertPoint(blk *Block) { b.cur = blk }

func (b *Builder) GetInsertBlock() *Block { return b.cur }

func (b *Builder) append(in *Instr, name string) *Instr {
	if b.err != nil {
		return in
	}
	if b.cur == nil {
		b.fail("no insertion point set")
		return in
	}
	fn := b.cur.fn
	if fn == nil {
		// detached block: there is no function to name values against, so
		// the instruction is dropped and the misuse latched. Blocks take
		// instructions only after InsertInto.
		b.fail("appending to a detached block %q", b.cur.Label)
		return in
	}
	if in.producesValue() {
		in.name = fn.uniqueName(name)
	}
	b.cur.Instrs = append(b.cur.Instrs, in)
	return in
}

func (b *Builder) CreateAlloca(t Type, name string) Value {
	return b.append(&Instr{Op: OpAlloca, Ty: PointerTo(t)}, name)
}

func (b *Builder) CreateLoad(t Type, ptr Value) Value {
	return b.append(&Instr{Op: OpLoad, Ty: t, Args: []Value{ptr}}, "")
}

func (b *Builder) CreateStore(v, ptr Value) {
	b.append(&Instr{Op: OpStore, Ty: Void, Args: []Value{v, ptr}}, "")
}

func (b *Builder) binary(op Op, l, r Value) Value {
	return b.append(&Instr{Op: op, Ty: l.Type(), Args: []Value{l, r}}, "")
}

func (b *Builder) CreateAdd(l, r Value) Value  { return b.binary(OpAdd, l, r) }
func (b *Builder) CreateSub(l, r Value) Value  { return b.binary(OpSub, l, r) }
func (b *Builder) CreateMul(l, r Value) Value  { return b.binary(OpMul, l, r) }
func (b *Builder) CreateSDiv(l, r Value) Value { return b.binary(OpSDiv, l, r) }
func (b *Builder) CreateFAdd(l, r Value) Value { return b.binary(OpFAdd, l, r) }
func (b *Builder) CreateFSub(l, r Value) Value { return b.binary(OpFSub, l, r) }
func (b *Builder) CreateFMul(l, r Value) Value { return b.binary(OpFMul, l, r) }
func (b *Builder) CreateFDiv(l, r Value) Value { return b.binary(OpFDiv, l, r) }

func (b *Builder) CreateNeg(v Value) Value {
	return b.append(&Instr{Op: OpNeg, Ty: v.Type(), Args: []Value{v}}, "")
}

func (b *Builder) CreateFNeg(v Value) Value {
	return b.append(&Instr{Op: OpFNeg, Ty: v.Type(), Args: []Value{v}}, "")
}

func (b *Builder) CreateICmp(pred Predicate, l, r Value) Value {
	return b.append(&Instr{Op: OpICmp, Ty: I1, Pred: pred, Args: []Value{l, r}}, "")
}

func (b *Builder) CreateFCmp(pred Predicate, l, r Value) Value {
	return b.append(&Instr{Op: OpFCmp, Ty: I1, Pred: pred, Args: []Value{l, r}}, "")
}

// CreateGEP computes an element address within t, the pointee type of ptr.
// For an array type the index list is (0, i) and the result is a pointer to
// the element type.
func (b *Builder) CreateGEP(t Type, ptr Value, idxs ...Value) Value {
	result := PointerTo(t)
	if at, ok := t.(*ArrayType); ok && len(idxs) == 2 {
		result = PointerTo(at.Elem)
	}
	args := append([]Value{ptr}, idxs...)
	return b.append(&Instr{Op: OpGEP, Ty: result, Src: t, Args: args}, "")
}

// CreateGlobalString interns a NUL-terminated constant character array and
// returns its address.
func (b *Builder) CreateGlobalString(s string) Value {
	data := append([]byte(s), 0)
	g := &Global{
		Name: fmt.Sprintf("str%d", b.m.nextGlobal),
		Ty:   ArrayOf(I8, len(data)),
		Data: data,
	}
	b.m.nextGlobal++
	b.m.Globals = append(b.m.Globals, g)
	return g
}

func (b *Builder) CreateBr(target *Block) {
	b.append(&Instr{Op: OpBr, Ty: Void, Targets: []*Block{target}}, "")
}

func (b *Builder) CreateCondBr(cond Value, then, els *Block) {
	b.append(&Instr{Op: OpCondBr, Ty: Void, Args: []Value{cond}, Targets: []*Block{then, els}}, "")
}

func (b *Builder) CreateRet(v Value) {
	b.append(&Instr{Op: OpRet, Ty: Void, Args: []Value{v}}, "")
}

func (b *Builder) CreateRetVoid() {
	b.append(&Instr{Op: OpRetVoid, Ty: Void}, "")
}

func (b *Builder) CreateCall(fn *Function, args []Value) Value {
	return b.append(&Instr{Op: OpCall, Ty: fn.Ret, Callee: fn, Args: args}, "")
}

// ConstI32, ConstI8, ConstBool and ConstFloat build constant operands.
func ConstI32(v int32) Value     { return &ConstInt{Ty: I32, V: int64(v)} }
func ConstI64(v int64) Value     { return &ConstInt{Ty: I64, V: v} }
func ConstI8(v int8) Value       { return &ConstInt{Ty: I8, V: int64(v)} }
func ConstFloat(v float64) Value { return &ConstDouble{V: v} }
func ConstBool(v bool) Value {
	if v {
		return &ConstInt{Ty: I1, V: 1}
	}
	return &ConstInt{Ty: I1, V: 0}
}
