// Package exec runs compiled modules in-process. It stands in for the JIT
// collaborator: the driver hands it a module and the name of a function to
// execute.
package exec

import (
	"fmt"

	"slate/compiler/ir"
)

// stepLimit bounds runaway loops in executed programs.
const stepLimit = 10_000_000

// Executor evaluates the SSA instruction stream of one module.
type Executor struct {
	m       *ir.Module
	globals map[*ir.Global]*ref
	steps   int
}

func New(m *ir.Module) *Executor {
	return &Executor{
		m:       m,
		globals: make(map[*ir.Global]*ref),
	}
}

// ref is a runtime address: a cell slice plus an element offset. Allocas
// and globals produce refs; loads and stores dereference them.
type ref struct {
	cells []any
	off   int
}

// Run executes the named function with the given argument values and
// returns its result (nil for void).
func (e *Executor) Run(name string, args ...any) (any, error) {
	fn := e.m.Lookup(name)
	if fn == nil {
		return nil, fmt.Errorf("function %q is not defined in module %q", name, e.m.Name)
	}
	e.steps = 0
	return e.call(fn, args)
}

func (e *Executor) call(fn *ir.Function, args []any) (any, error) {
	if len(args) != len(fn.Params) {
		return nil, fmt.Errorf("%s expects %d arguments but got %d", fn.Name, len(fn.Params), len(args))
	}
	frame := &frame{
		params: make(map[*ir.Param]any, len(args)),
		values: make(map[*ir.Instr]any),
	}
	for i, p := range fn.Params {
		frame.params[p] = args[i]
	}

	block := fn.Entry()
	if block == nil {
		return nil, fmt.Errorf("%s has no entry block", fn.Name)
	}

	for {
		next, result, done, err := e.execBlock(block, frame)
		if err != nil {
			return nil, err
		}
		if done {
			return result, nil
		}
		block = next
	}
}

type frame struct {
	params map[*ir.Param]any
	values map[*ir.Instr]any
}

// execBlock runs instructions until a terminator acts; a temporary
// terminator mid-block transfers control the same way a closing one does.
func (e *Executor) execBlock(b *ir.Block, fr *frame) (next *ir.Block, result any, done bool, err error) {
	for _, in := range b.Instrs {
		e.steps++
		if e.steps > stepLimit {
			return nil, nil, false, fmt.Errorf("execution exceeded %d steps", stepLimit)
		}

		switch in.Op {
		case ir.OpBr:
			return in.Targets[0], nil, false, nil

		case ir.OpCondBr:
			cond, err := e.operand(in.Args[0], fr)
			if err != nil {
				return nil, nil, false, err
			}
			if cond.(bool) {
				return in.Targets[0], nil, false, nil
			}
			return in.Targets[1], nil, false, nil

		case ir.OpRet:
			v, err := e.operand(in.Args[0], fr)
			if err != nil {
				return nil, nil, false, err
			}
			return nil, v, true, nil

		case ir.OpRetVoid:
			return nil, nil, true, nil

		default:
			if err := e.execInstr(in, fr); err != nil {
				return nil, nil, false, err
			}
		}
	}
	return nil, nil, false, fmt.Errorf("block %q ran off its end", b.Label)
}

func (e *Executor) execInstr(in *ir.Instr, fr *frame) error {
	args := make([]any, len(in.Args))
	for i, a := range in.Args {
		v, err := e.operand(a, fr)
		if err != nil {
			return err
		}
		args[i] = v
	}

	switch in.Op {
	case ir.OpAlloca:
		count := 1
		if at, ok := in.Ty.(*ir.PointerType).Elem.(*ir.ArrayType); ok {
			count = at.Len
		}
		fr.values[in] = &ref{cells: make([]any, count)}

	case ir.OpLoad:
		r, ok := args[0].(*ref)
		if !ok {
			return fmt.Errorf("load from a non-address operand")
		}
		fr.values[in] = r.cells[r.off]

	case ir.OpStore:
		r, ok := args[1].(*ref)
		if !ok {
			return fmt.Errorf("store to a non-address operand")
		}
		r.cells[r.off] = args[0]

	case ir.OpAdd:
		fr.values[in] = args[0].(int32) + args[1].(int32)
	case ir.OpSub:
		fr.values[in] = args[0].(int32) - args[1].(int32)
	case ir.OpMul:
		fr.values[in] = args[0].(int32) * args[1].(int32)
	case ir.OpSDiv:
		if args[1].(int32) == 0 {
			return fmt.Errorf("integer division by zero")
		}
		fr.values[in] = args[0].(int32) / args[1].(int32)

	case ir.OpFAdd:
		fr.values[in] = args[0].(float64) + args[1].(float64)
	case ir.OpFSub:
		fr.values[in] = args[0].(float64) - args[1].(float64)
	case ir.OpFMul:
		fr.values[in] = args[0].(float64) * args[1].(float64)
	case ir.OpFDiv:
		fr.values[in] = args[0].(float64) / args[1].(float64)

	case ir.OpNeg:
		fr.values[in] = -args[0].(int32)
	case ir.OpFNeg:
		fr.values[in] = -args[0].(float64)

	case ir.OpICmp:
		l, r := toInt64(args[0]), toInt64(args[1])
		fr.values[in] = comparesInt(in.Pred, l, r)

	case ir.OpFCmp:
		fr.values[in] = comparesFloat(in.Pred, args[0].(float64), args[1].(float64))

	case ir.OpGEP:
		base, ok := args[0].(*ref)
		if !ok {
			return fmt.Errorf("address computation on a non-address operand")
		}
		idx := toInt64(args[len(args)-1])
		fr.values[in] = &ref{cells: base.cells, off: base.off + int(idx)}

	case ir.OpCall:
		result, err := e.call(in.Callee, args)
		if err != nil {
			return err
		}
		if _, isVoid := in.Callee.Ret.(*ir.VoidType); !isVoid {
			fr.values[in] = result
		}

	default:
		return fmt.Errorf("unsupported instruction in block stream")
	}
	return nil
}

func (e *Executor) operand(v ir.Value, fr *frame) (any, error) {
	switch cv := v.(type) {
	case *ir.ConstInt:
		switch cv.Ty.Bits {
		case 1:
			return cv.V != 0, nil
		case 8:
			return int8(cv.V), nil
		case 32:
			return int32(cv.V), nil
		default:
			return cv.V, nil
		}
	case *ir.ConstDouble:
		return cv.V, nil
	case *ir.Param:
		val, ok := fr.params[cv]
		if !ok {
			return nil, fmt.Errorf("parameter %%%s has no incoming value", cv.Name)
		}
		return val, nil
	case *ir.Global:
		return e.globalRef(cv), nil
	case *ir.Instr:
		val, ok := fr.values[cv]
		if !ok {
			return nil, fmt.Errorf("use of %s before its definition", cv.Operand())
		}
		return val, nil
	}
	return nil, fmt.Errorf("unsupported operand kind")
}

func (e *Executor) globalRef(g *ir.Global) *ref {
	if r, ok := e.globals[g]; ok {
		return r
	}
	cells := make([]any, len(g.Data))
	for i, b := range g.Data {
		cells[i] = int8(b)
	}
	r := &ref{cells: cells}
	e.globals[g] = r
	return r
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case bool:
		if n {
			return 1
		}
		return 0
	case int8:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	}
	return 0
}

func comparesInt(pred ir.Predicate, l, r int64) bool {
	switch pred {
	case ir.PredEQ:
		return l == r
	case ir.PredNE:
		return l != r
	case ir.PredSLT:
		return l < r
	case ir.PredSLE:
		return l <= r
	case ir.PredSGT:
		return l > r
	case ir.PredSGE:
		return l >= r
	}
	return false
}

func comparesFloat(pred ir.Predicate, l, r float64) bool {
	switch pred {
	case ir.PredOEQ:
		return l == r
	case ir.PredONE:
		return l != r
	case ir.PredOLT:
		return l < r
	case ir.PredOLE:
		return l <= r
	case ir.PredOGT:
		return l > r
	case ir.PredOGE:
		return l >= r
	}
	return false
}
