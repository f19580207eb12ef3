package compile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slate/compiler"
	"slate/compiler/exec"
)

// Helper to compile code and require success.
func compileCode(t *testing.T, testName, code string) *CompilationResult {
	t.Helper()
	result, err := Pipeline(&PipelineOptions{SourceFile: testName, SourceCode: code})
	require.NoError(t, err, "compile error")
	require.True(t, result.Success)
	require.NotNil(t, result.Module)
	return result
}

// Helper to compile and run the entry function.
func runEntry(t *testing.T, testName, code string) any {
	t.Helper()
	result := compileCode(t, testName, code)
	value, err := exec.New(result.Module).Run("entry")
	require.NoError(t, err)
	return value
}

// Helper to require a failed compile of a particular kind.
func requireCompileError(t *testing.T, code string, kind compiler.DiagnosticKind) *compiler.Diagnostic {
	t.Helper()
	result, err := Pipeline(&PipelineOptions{SourceFile: "test", SourceCode: code})
	require.Error(t, err)
	require.NotNil(t, result.Diagnostic)
	assert.Nil(t, result.Module, "no partial module on failure")
	assert.Equal(t, kind, result.Diagnostic.Kind, "unexpected diagnostic: %v", result.Diagnostic)
	return result.Diagnostic
}

// ----------------------------------------------------------------------------
// end-to-end scenarios

func Test_Run_Arithmetic(t *testing.T) {
	code := "function entry():integer { return 1 + 2 * 3; }"
	assert.Equal(t, int32(7), runEntry(t, "Test_Run_Arithmetic", code))
}

func Test_Run_IfElse(t *testing.T) {
	code := `function entry():integer {
		let x = 10;
		let y = 3;
		if (x > y) { return x - y; } else { return y - x; }
	}`
	assert.Equal(t, int32(7), runEntry(t, "Test_Run_IfElse", code))
}

func Test_Run_ForLoop(t *testing.T) {
	code := `function entry():integer {
		let s = 0;
		for (let i = 0; i < 5; i++) { s = s + i; }
		return s;
	}`
	assert.Equal(t, int32(10), runEntry(t, "Test_Run_ForLoop", code))
}

func Test_Run_WhileBreak(t *testing.T) {
	code := `function entry():integer {
		let i = 0;
		while (i < 3) { i++; if (i == 2) { break; } }
		return i;
	}`
	assert.Equal(t, int32(2), runEntry(t, "Test_Run_WhileBreak", code))
}

func Test_Run_ArrayIndexing(t *testing.T) {
	code := `function entry():integer {
		let a = [10, 20, 30];
		return a[2];
	}`
	assert.Equal(t, int32(30), runEntry(t, "Test_Run_ArrayIndexing", code))
}

func Test_Run_FunctionCall(t *testing.T) {
	code := `function add(x:integer, y:integer):integer { return x+y; }
	function entry():integer { return add(40, 2); }`
	assert.Equal(t, int32(42), runEntry(t, "Test_Run_FunctionCall", code))
}

func Test_Run_CallBeforeDeclaration(t *testing.T) {
	code := `function entry():integer { return twice(21); }
	function twice(x:integer):integer { return x * 2; }`
	assert.Equal(t, int32(42), runEntry(t, "Test_Run_CallBeforeDeclaration", code))
}

func Test_Run_Continue(t *testing.T) {
	code := `function entry():integer {
		let s = 0;
		for (let i = 0; i < 6; i++) {
			if (i == 3) { continue; }
			s = s + i;
		}
		return s;
	}`
	// 0+1+2+4+5
	assert.Equal(t, int32(12), runEntry(t, "Test_Run_Continue", code))
}

func Test_Run_NestedLoops(t *testing.T) {
	code := `function entry():integer {
		let total = 0;
		for (let i = 0; i < 3; i++) {
			for (let j = 0; j < 3; j++) {
				if (j == 2) { break; }
				total = total + 1;
			}
		}
		return total;
	}`
	// the inner break leaves the outer loop running
	assert.Equal(t, int32(6), runEntry(t, "Test_Run_NestedLoops", code))
}

func Test_Run_ArgumentsAreMutable(t *testing.T) {
	code := `function bump(x:integer):integer { x++; return x; }
	function entry():integer { return bump(41); }`
	assert.Equal(t, int32(42), runEntry(t, "Test_Run_ArgumentsAreMutable", code))
}

func Test_Run_Decrement(t *testing.T) {
	code := `function entry():integer {
		let i = 10;
		let pre = i--;
		return pre * 100 + i;
	}`
	// post-decrement yields the pre-value
	assert.Equal(t, int32(1009), runEntry(t, "Test_Run_Decrement", code))
}

func Test_Run_UnaryMinus(t *testing.T) {
	code := `function entry():integer { let a = 5; return -a + 7; }`
	assert.Equal(t, int32(2), runEntry(t, "Test_Run_UnaryMinus", code))
}

func Test_Run_ShadowedVariable(t *testing.T) {
	code := `function entry():integer {
		let a = 1;
		{
			let a = 2;
			a = a + 10;
		}
		return a;
	}`
	// the inner assignment touches the inner binding only
	assert.Equal(t, int32(1), runEntry(t, "Test_Run_ShadowedVariable", code))
}

func Test_Run_AssignToArrayElement(t *testing.T) {
	code := `function entry():integer {
		let a = [1, 2, 3];
		a[1] = 20;
		return a[0] + a[1] + a[2];
	}`
	assert.Equal(t, int32(24), runEntry(t, "Test_Run_AssignToArrayElement", code))
}

func Test_Run_StringIndexing(t *testing.T) {
	code := `function entry():integer {
		let s = "AB";
		if (s[1] == s[1]) { return 1; }
		return 0;
	}`
	assert.Equal(t, int32(1), runEntry(t, "Test_Run_StringIndexing", code))
}

func Test_Run_ReturnInsideLoop(t *testing.T) {
	code := `function entry():integer {
		for (let i = 0; i < 100; i++) {
			if (i == 7) { return i; }
		}
		return 0;
	}`
	assert.Equal(t, int32(7), runEntry(t, "Test_Run_ReturnInsideLoop", code))
}

func Test_Run_DoubleArithmetic(t *testing.T) {
	code := `function half(x:double):double { return x / 2.0; }
	function entry():integer {
		if (half(5.0) == 2.5) { return 1; }
		return 0;
	}`
	assert.Equal(t, int32(1), runEntry(t, "Test_Run_DoubleArithmetic", code))
}

func Test_Run_BooleanEquality(t *testing.T) {
	code := `function entry():integer {
		let flag = true;
		if (flag != false) { return 1; }
		return 0;
	}`
	assert.Equal(t, int32(1), runEntry(t, "Test_Run_BooleanEquality", code))
}

func Test_Run_DivisionByZeroTraps(t *testing.T) {
	code := `function entry():integer { let z = 0; return 1 / z; }`
	result := compileCode(t, "Test_Run_DivisionByZeroTraps", code)
	_, err := exec.New(result.Module).Run("entry")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "division by zero")
}

func Test_Run_Convenience(t *testing.T) {
	value, err := Run("Test_Run_Convenience", "function entry():integer { return 5; }")
	require.NoError(t, err)
	assert.Equal(t, int32(5), value)
}

// ----------------------------------------------------------------------------
// expected compile errors

func Test_Error_DuplicateDeclaration(t *testing.T) {
	code := `function entry():integer { let a = 1; let a = 2; return a; }`
	requireCompileError(t, code, compiler.KindSymbol)
}

func Test_Error_UnboundSymbol(t *testing.T) {
	code := `function entry():integer { return ghost; }`
	requireCompileError(t, code, compiler.KindSymbol)
}

func Test_Error_MixedReturnTypes(t *testing.T) {
	code := `function entry():integer {
		if (true) { return 1; }
		return true;
	}`
	requireCompileError(t, code, compiler.KindType)
}

func Test_Error_ConstantIndexOutOfRange(t *testing.T) {
	code := `function entry():integer { let a = [1, 2]; return a[5]; }`
	requireCompileError(t, code, compiler.KindRange)
}

func Test_Error_NonBooleanCondition(t *testing.T) {
	code := `function entry():integer { if (1) { } return 0; }`
	requireCompileError(t, code, compiler.KindType)
}

func Test_Error_OperandTypeMismatch(t *testing.T) {
	code := `function entry():integer { return 1 + 2.0; }`
	requireCompileError(t, code, compiler.KindType)
}

func Test_Error_ArithmeticOnBoolean(t *testing.T) {
	code := `function entry():integer { let x = true + false; return 0; }`
	requireCompileError(t, code, compiler.KindType)
}

func Test_Error_OrderingOnBoolean(t *testing.T) {
	code := `function entry():integer { if (true < false) { } return 0; }`
	requireCompileError(t, code, compiler.KindType)
}

func Test_Error_AssignTypeMismatch(t *testing.T) {
	code := `function entry():integer { let a = 1; a = 2.0; return a; }`
	requireCompileError(t, code, compiler.KindType)
}

func Test_Error_AssignToNonSubstance(t *testing.T) {
	code := `function entry():integer { 1 = 2; return 0; }`
	requireCompileError(t, code, compiler.KindType)
}

func Test_Error_EmptyArrayLiteral(t *testing.T) {
	code := `function entry():integer { let a = []; return 0; }`
	requireCompileError(t, code, compiler.KindType)
}

func Test_Error_HeterogeneousArrayLiteral(t *testing.T) {
	code := `function entry():integer { let a = [1, true]; return 0; }`
	requireCompileError(t, code, compiler.KindType)
}

func Test_Error_CallArityMismatch(t *testing.T) {
	code := `function add(x:integer, y:integer):integer { return x+y; }
	function entry():integer { return add(1); }`
	requireCompileError(t, code, compiler.KindType)
}

func Test_Error_CallArgumentTypeMismatch(t *testing.T) {
	code := `function add(x:integer, y:integer):integer { return x+y; }
	function entry():integer { return add(1, true); }`
	requireCompileError(t, code, compiler.KindType)
}

func Test_Error_CallingAVariable(t *testing.T) {
	code := `function entry():integer { let f = 1; return f(2); }`
	requireCompileError(t, code, compiler.KindSymbol)
}

func Test_Error_DuplicateFunction(t *testing.T) {
	code := `function f():integer { return 1; }
	function f():integer { return 2; }
	function entry():integer { return f(); }`
	requireCompileError(t, code, compiler.KindSymbol)
}

func Test_Error_DeclaredReturnTypeMismatch(t *testing.T) {
	code := `function entry():integer { return true; }`
	requireCompileError(t, code, compiler.KindType)
}

func Test_Error_IndexOnNonIndexable(t *testing.T) {
	code := `function entry():integer { let a = 1; return a[0]; }`
	requireCompileError(t, code, compiler.KindType)
}

func Test_Error_NonIntegerIndex(t *testing.T) {
	code := `function entry():integer { let a = [1, 2]; return a[true]; }`
	requireCompileError(t, code, compiler.KindType)
}

func Test_Error_BreakOutsideLoop(t *testing.T) {
	code := `function entry():integer { break; return 0; }`
	requireCompileError(t, code, compiler.KindSyntax)
}

func Test_Error_ContinueOutsideLoop(t *testing.T) {
	code := `function entry():integer { continue; return 0; }`
	requireCompileError(t, code, compiler.KindSyntax)
}

func Test_Error_SyntaxError(t *testing.T) {
	code := `function entry():integer { return 1 + ; }`
	requireCompileError(t, code, compiler.KindSyntax)
}

func Test_Error_DiagnosticCarriesLocation(t *testing.T) {
	code := "function entry():integer {\n\tlet a = 1;\n\tlet a = 2;\n\treturn a;\n}"
	diag := requireCompileError(t, code, compiler.KindSymbol)
	assert.Equal(t, 3, diag.Location.Line)

	annotated := diag.Annotate(code)
	assert.Contains(t, annotated, "let a = 2;")
	assert.Contains(t, annotated, "^")
}

// ----------------------------------------------------------------------------
// emitted IR shape

func Test_IR_SingleReturnPerFunction(t *testing.T) {
	code := `function entry():integer {
		if (true) { return 1; }
		return 2;
	}`
	result := compileCode(t, "Test_IR_SingleReturnPerFunction", code)
	text := result.Module.String()

	assert.Equal(t, 1, strings.Count(text, "ret i32"), "exactly one ret instruction:\n%s", text)

	// the ret lives in the dedicated return block
	retBlock := text[strings.Index(text, "return:"):]
	assert.Contains(t, retBlock, "ret i32")
}

func Test_IR_VoidFunctionReturnsVoid(t *testing.T) {
	code := `function noop():void { return; }
	function entry():integer { noop(); return 0; }`
	result := compileCode(t, "Test_IR_VoidFunctionReturnsVoid", code)
	text := result.Module.String()

	assert.Contains(t, text, "define void @noop()")
	assert.Contains(t, text, "ret void")
	assert.Contains(t, text, "call void @noop()")
}

func Test_IR_AllocasAreHoistedIntoEntry(t *testing.T) {
	code := `function entry():integer {
		let a = 1;
		while (a < 3) { let b = a; a = b + 1; }
		return a;
	}`
	result := compileCode(t, "Test_IR_AllocasAreHoistedIntoEntry", code)
	text := result.Module.String()

	entryBlock := text[strings.Index(text, "entry:"):strings.Index(text, "while-cond")]
	assert.Contains(t, entryBlock, "%a = alloca i32")
	assert.Contains(t, entryBlock, "%b = alloca i32")
}

func Test_IR_StringLiteralBecomesGlobal(t *testing.T) {
	code := `function entry():integer { let s = "hi"; return 0; }`
	result := compileCode(t, "Test_IR_StringLiteralBecomesGlobal", code)
	text := result.Module.String()

	assert.Contains(t, text, `@str0 = constant [3 x i8] c"hi\00"`)
}

func Test_IR_LoopBlocksAreThreaded(t *testing.T) {
	code := `function entry():integer {
		for (let i = 0; i < 4; i++) { if (i == 2) { break; } }
		return 0;
	}`
	result := compileCode(t, "Test_IR_LoopBlocksAreThreaded", code)
	text := result.Module.String()

	assert.Contains(t, text, "for-header")
	assert.Contains(t, text, "for-body")
	assert.Contains(t, text, "next-for")
	assert.Contains(t, text, "br label %merge-for")
}

func Test_Pipeline_StopAfterParse(t *testing.T) {
	result, err := Pipeline(&PipelineOptions{
		SourceFile:     "test",
		SourceCode:     "function entry():integer { return 1; }",
		StopAfterParse: true,
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotNil(t, result.Program)
	assert.Nil(t, result.Module)
}

func Test_Pipeline_NoSource(t *testing.T) {
	_, err := Pipeline(&PipelineOptions{})
	assert.Error(t, err)
}
