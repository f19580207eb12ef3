package compile

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"slate/compiler"
	"slate/compiler/ast"
	"slate/compiler/exec"
	"slate/compiler/ir"
	"slate/compiler/lexer"
	"slate/compiler/parser"
	"slate/compiler/types"
)

// CompilationResult contains the output of the compilation pipeline
type CompilationResult struct {
	// Source information
	SourceFile string
	SourceCode string

	// Intermediate representations
	Tokens  lexer.TokenStream
	Program *ast.Program
	Module  *ir.Module
	Types   *types.Context

	// Error tracking; the pipeline fails fast at the first diagnostic
	Diagnostic *compiler.Diagnostic

	// Success flag
	Success bool
}

// PipelineOptions configures the compilation pipeline
type PipelineOptions struct {
	// Source input
	SourceFile string
	SourceCode string

	// Pipeline control flags
	StopAfterLex     bool
	StopAfterParse   bool
	StopAfterResolve bool

	// Debug output
	DumpTokens bool
	DumpAST    bool
	DumpIR     bool
	Verbose    bool
}

// DefaultPipelineOptions returns default pipeline options
func DefaultPipelineOptions() *PipelineOptions {
	return &PipelineOptions{}
}

// Pipeline runs the complete compilation pipeline. No module survives a
// failed stage: callers get the diagnostic and a nil Module.
func Pipeline(opts *PipelineOptions) (*CompilationResult, error) {
	result := &CompilationResult{
		SourceFile: opts.SourceFile,
		SourceCode: opts.SourceCode,
	}

	// ==========================================================================
	// Stage 1: Lexical Analysis (Tokenization)
	// ==========================================================================
	if opts.Verbose {
		fmt.Println("==> Stage 1: Lexical Analysis")
	}

	if opts.SourceCode == "" && opts.SourceFile != "" {
		code, err := os.ReadFile(opts.SourceFile)
		if err != nil {
			return result, fmt.Errorf("failed to read source file: %w", err)
		}
		result.SourceCode = string(code)
	}
	if result.SourceCode == "" {
		return result, fmt.Errorf("no source provided")
	}
	tokenizer := lexer.TokenizerFromReader(strings.NewReader(result.SourceCode))

	result.Tokens = lexer.NewTokenStream(tokenizer.Tokens(), 1024)

	if opts.DumpTokens {
		lexer.DumpTokens(result.Tokens)
	}

	if opts.StopAfterLex {
		result.Success = true
		return result, nil
	}

	// ==========================================================================
	// Stage 2: Syntax Analysis (Parsing)
	// ==========================================================================
	if opts.Verbose {
		fmt.Println("==> Stage 2: Syntax Analysis (Parsing)")
	}

	sourceID := opts.SourceFile
	if sourceID == "" {
		sourceID = "<string>"
	}

	result.Types = types.NewContext()
	program, diag := parser.Parse(sourceID, result.Tokens, result.Types)
	if diag != nil {
		return result, result.fail(diag)
	}
	result.Program = program

	if opts.DumpAST {
		fmt.Println("===============   AST   ===============")
		fmt.Print(ast.Dump(program))
	}

	if opts.StopAfterParse {
		result.Success = true
		return result, nil
	}

	// ==========================================================================
	// Stage 3: Semantic Resolution (scopes, symbols, types)
	// ==========================================================================
	if opts.Verbose {
		fmt.Println("==> Stage 3: Semantic Resolution")
	}

	if err := ast.Resolve(program, result.Types); err != nil {
		return result, result.fail(asDiagnostic(err, sourceID))
	}

	if opts.StopAfterResolve {
		result.Success = true
		return result, nil
	}

	// ==========================================================================
	// Stage 4: IR Emission
	// ==========================================================================
	if opts.Verbose {
		fmt.Println("==> Stage 4: IR Emission")
	}

	module := ir.NewModule(sourceID)
	g := ast.NewGenContext(module, result.Types)
	if err := ast.Generate(program, g); err != nil {
		return result, result.fail(asDiagnostic(err, sourceID))
	}
	result.Module = module

	if opts.DumpIR {
		fmt.Println("===============    IR    ===============")
		fmt.Print(module.String())
	}

	result.Success = true
	return result, nil
}

// Run compiles and executes the entry function of the given source code.
func Run(sourceFile, sourceCode string) (any, error) {
	result, err := Pipeline(&PipelineOptions{SourceFile: sourceFile, SourceCode: sourceCode})
	if err != nil {
		return nil, err
	}
	return exec.New(result.Module).Run("entry")
}

func (r *CompilationResult) fail(diag *compiler.Diagnostic) error {
	if diag.Source == "" || diag.Source == "<string>" {
		diag.Source = r.SourceFile
	}
	r.Diagnostic = diag
	r.Module = nil
	return diag
}

func asDiagnostic(err error, source string) *compiler.Diagnostic {
	var d *compiler.Diagnostic
	if errors.As(err, &d) {
		if d.Source == "" {
			d.Source = source
		}
		return d
	}
	return compiler.NewDiagnostic(source, err.Error(), compiler.LocationZero,
		compiler.PipelineInternal, compiler.KindInternal)
}
