package compiler

import (
	"fmt"
	"strings"
)

type Location struct {
	Index  int // file stream index
	Line   int // code line
	Column int // column on line
}

var LocationZero = Location{0, 0, 0}

type PipelinePhase uint8

const (
	PipelineInternal PipelinePhase = iota
	PipelineTokenizer
	PipelineParser
	PipelineScopeResolution
	PipelineSymbolResolution
	PipelineTypeResolution
	PipelineCodeGen
)

type DiagnosticSeverity uint8

const (
	SeverityCritical DiagnosticSeverity = iota
	SeverityError
	SeverityWarning
	SeverityInfo
	SeverityVerbose
)

// DiagnosticKind classifies what went wrong, independent of where in the
// pipeline it was detected.
type DiagnosticKind uint8

const (
	KindInternal DiagnosticKind = iota
	KindSyntax
	KindParse
	KindSymbol
	KindType
	KindCast
	KindRange
	KindCodeGen
)

func (k DiagnosticKind) String() string {
	switch k {
	case KindSyntax:
		return "SyntaxError"
	case KindParse:
		return "ParseError"
	case KindSymbol:
		return "SymbolError"
	case KindType:
		return "TypeError"
	case KindCast:
		return "CastError"
	case KindRange:
		return "RangeError"
	case KindCodeGen:
		return "CodeGenError"
	}
	return "InternalError"
}

type Diagnostic struct {
	Source   string
	Message  string
	Location Location
	Phase    PipelinePhase
	Kind     DiagnosticKind
	Severity DiagnosticSeverity
}

func NewDiagnostic(source, message string, location Location, phase PipelinePhase, kind DiagnosticKind) *Diagnostic {
	return &Diagnostic{
		Source:   source,
		Message:  message,
		Location: location,
		Phase:    phase,
		Kind:     kind,
		Severity: SeverityError,
	}
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.Source, d.Location.Line, d.Location.Column, d.Kind, d.Message)
}

func (d *Diagnostic) String() string {
	return d.Error()
}

// Annotate renders the offending source line with a caret under the
// diagnostic's column.
func (d *Diagnostic) Annotate(code string) string {
	lines := strings.Split(code, "\n")
	if d.Location.Line < 1 || d.Location.Line > len(lines) {
		return d.Error()
	}

	line := lines[d.Location.Line-1]
	col := d.Location.Column
	if col < 1 {
		col = 1
	}
	if col > len(line)+1 {
		col = len(line) + 1
	}

	var sb strings.Builder
	sb.WriteString(d.Error())
	sb.WriteByte('\n')
	sb.WriteString(line)
	sb.WriteByte('\n')
	sb.WriteString(strings.Repeat(" ", col-1))
	sb.WriteByte('^')
	return sb.String()
}
