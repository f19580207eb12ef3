package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slate/compiler/ir"
)

func Test_Run_ConstantReturn(t *testing.T) {
	m := ir.NewModule("test")
	b := ir.NewBuilder(m)

	fn := b.CreateFunction("entry", nil, ir.I32)
	entry := b.NewBlockIn("entry", fn)
	b.SetInsertPoint(entry)
	b.CreateRet(ir.ConstI32(42))
	require.NoError(t, b.Err())

	value, err := New(m).Run("entry")
	require.NoError(t, err)
	assert.Equal(t, int32(42), value)
}

func Test_Run_BranchesAndSlots(t *testing.T) {
	m := ir.NewModule("test")
	b := ir.NewBuilder(m)

	fn := b.CreateFunction("entry", nil, ir.I32)
	entry := b.NewBlockIn("entry", fn)
	thenbb := b.NewBlockIn("then", fn)
	elsebb := b.NewBlockIn("else", fn)

	b.SetInsertPoint(entry)
	slot := b.CreateAlloca(ir.I32, "x")
	b.CreateStore(ir.ConstI32(10), slot)
	loaded := b.CreateLoad(ir.I32, slot)
	cond := b.CreateICmp(ir.PredSGT, loaded, ir.ConstI32(5))
	b.CreateCondBr(cond, thenbb, elsebb)

	b.SetInsertPoint(thenbb)
	b.CreateRet(ir.ConstI32(1))
	b.SetInsertPoint(elsebb)
	b.CreateRet(ir.ConstI32(0))
	require.NoError(t, b.Err())

	value, err := New(m).Run("entry")
	require.NoError(t, err)
	assert.Equal(t, int32(1), value)
}

func Test_Run_CallWithArguments(t *testing.T) {
	m := ir.NewModule("test")
	b := ir.NewBuilder(m)

	add := b.CreateFunction("add", []*ir.Param{
		{Name: "x", Ty: ir.I32},
		{Name: "y", Ty: ir.I32},
	}, ir.I32)
	addEntry := b.NewBlockIn("entry", add)
	b.SetInsertPoint(addEntry)
	sum := b.CreateAdd(add.Params[0], add.Params[1])
	b.CreateRet(sum)

	entryFn := b.CreateFunction("entry", nil, ir.I32)
	entry := b.NewBlockIn("entry", entryFn)
	b.SetInsertPoint(entry)
	result := b.CreateCall(add, []ir.Value{ir.ConstI32(40), ir.ConstI32(2)})
	b.CreateRet(result)
	require.NoError(t, b.Err())

	value, err := New(m).Run("entry")
	require.NoError(t, err)
	assert.Equal(t, int32(42), value)
}

func Test_Run_GlobalStringElements(t *testing.T) {
	m := ir.NewModule("test")
	b := ir.NewBuilder(m)

	g := b.CreateGlobalString("AB")

	fn := b.CreateFunction("entry", nil, ir.I32)
	entry := b.NewBlockIn("entry", fn)
	b.SetInsertPoint(entry)
	elem := b.CreateGEP(ir.ArrayOf(ir.I8, 3), g, ir.ConstI64(0), ir.ConstI64(1))
	loaded := b.CreateLoad(ir.I8, elem)
	cmp := b.CreateICmp(ir.PredEQ, loaded, ir.ConstI8('B'))

	thenbb := b.NewBlockIn("then", fn)
	elsebb := b.NewBlockIn("else", fn)
	b.CreateCondBr(cmp, thenbb, elsebb)
	b.SetInsertPoint(thenbb)
	b.CreateRet(ir.ConstI32(1))
	b.SetInsertPoint(elsebb)
	b.CreateRet(ir.ConstI32(0))
	require.NoError(t, b.Err())

	value, err := New(m).Run("entry")
	require.NoError(t, err)
	assert.Equal(t, int32(1), value)
}

func Test_Run_MissingFunction(t *testing.T) {
	m := ir.NewModule("test")
	_, err := New(m).Run("entry")
	assert.Error(t, err)
}

func Test_Run_InfiniteLoopIsBounded(t *testing.T) {
	m := ir.NewModule("test")
	b := ir.NewBuilder(m)

	fn := b.CreateFunction("entry", nil, ir.I32)
	entry := b.NewBlockIn("entry", fn)
	spin := b.NewBlockIn("spin", fn)
	b.SetInsertPoint(entry)
	b.CreateBr(spin)
	b.SetInsertPoint(spin)
	b.CreateBr(spin)
	require.NoError(t, b.Err())

	_, err := New(m).Run("entry")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps")
}
