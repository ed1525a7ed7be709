package heist

import (
	"errors"
	"fmt"
)

// Kinds of macro errors, to be tested with errors.Is.
var (
	ErrNoRuleMatched           = errors.New("no rule matched")
	ErrEllipsisCountMismatch   = errors.New("ellipsis count mismatch")
	ErrOverconsumedBinding     = errors.New("binding overconsumed")
	ErrUnboundTemplateVariable = errors.New("unbound template variable")
	ErrMalformedRule           = errors.New("malformed syntax rule")
)

// MacroError describes a failure to define or expand a macro.
type MacroError struct {
	Macro  *Symbol // nil if the macro has no name yet
	Rule   int     // index of the rule, or -1
	Form   Any
	Err    error
	Detail string
}

func (e *MacroError) Error() string {
	s := "MacroError: "
	if e.Macro != nil {
		s += string(*e.Macro) + ": "
	}
	s += e.Err.Error()
	if e.Rule >= 0 {
		s += fmt.Sprintf(" in rule %d", e.Rule)
	}
	if e.Detail != "" {
		s += ": " + e.Detail
	}
	if e.Form != nil {
		s += ": " + Stringify(e.Form, true)
	}
	return s
}

func (e *MacroError) Unwrap() error {
	return e.Err
}
