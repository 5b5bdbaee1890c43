package eon

import (
	"errors"
	"fmt"
)

// UserMessage is the static text shown to users when a document fails to compile.
const UserMessage = "EON syntax error: check the block structure and separators."

// ErrSyntax matches every compile failure via errors.Is.
var ErrSyntax = errors.New("eon: syntax error")

// Pos is a location in the source text. Line and Col are 1-based.
type Pos struct {
	Offset int `json:"offset" yaml:"offset"`
	Line   int `json:"line" yaml:"line"`
	Col    int `json:"col" yaml:"col"`
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// SyntaxError reports source that cannot be structurally parsed.
type SyntaxError struct {
	Pos Pos
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("eon: syntax error at %s: %s", e.Pos, e.Msg)
}

// Is makes every SyntaxError match ErrSyntax.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

func syntaxErrorf(pos Pos, format string, args ...any) *SyntaxError {
	return &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Severity grades a Diagnostic. Diagnostics never change the compiled graph.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Diagnostic is a non-fatal observation made while compiling.
type Diagnostic struct {
	Pos      Pos      `json:"pos" yaml:"pos"`
	Severity Severity `json:"severity" yaml:"severity"`
	Code     string   `json:"code" yaml:"code"`
	Msg      string   `json:"message" yaml:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s (%s)", d.Pos, d.Severity, d.Msg, d.Code)
}

// Diagnostic codes.
const (
	CodeDuplicateNode     = "duplicate-node"
	CodeDuplicateOrbit    = "duplicate-orbit"
	CodeDuplicateMember   = "duplicate-member"
	CodeMissingParent     = "missing-parent"
	CodeUnresolvedParent  = "unresolved-parent"
	CodeUnknownProperty   = "unknown-property"
	CodeNonPositiveNumber = "non-positive"
)
