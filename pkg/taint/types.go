// Package taint implements the backward, interprocedural taint tracer:
// given a parsed PHP file (as phpast nodes), a sink name list and a sink
// line, it decides whether user-controllable input reaches the sink and
// reports the originating expression. Single-file core, include-following
// handled by the deep tracer in include.go.
package taint

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/taintwave/phpsentinel/pkg/phpast"
)

// Code is the tracer's verdict tag. Strength order, highest wins:
// CONTROLLED > NEW_RULE > REPAIRED > UNKNOWN > UNCONTROLLED.
type Code int

const (
	Uncontrolled Code = -1
	Controlled   Code = 1
	Repaired     Code = 2
	Unknown      Code = 3
	NewRule      Code = 4
)

func (c Code) String() string {
	switch c {
	case Uncontrolled:
		return "UNCONTROLLED"
	case Controlled:
		return "CONTROLLED"
	case Repaired:
		return "REPAIRED"
	case Unknown:
		return "UNKNOWN"
	case NewRule:
		return "NEW_RULE"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// strength ranks a code for the "strongest non-negative wins" aggregation
// rule used for multi-expression statements.
func strength(c Code) int {
	switch c {
	case Controlled:
		return 4
	case NewRule:
		return 3
	case Repaired:
		return 2
	case Unknown:
		return 1
	default:
		return 0
	}
}

// stronger returns whichever of a, b has higher strength, a on ties.
func stronger(a, b Verdict) Verdict {
	if strength(b.Code) > strength(a.Code) {
		return b
	}
	return a
}

// SymbolKind tags which Symbol variant is in play.
type SymbolKind int

const (
	SymVar SymbolKind = iota
	SymArrayElem
	SymObjProp
	SymCallResult
	SymNewInstance
	SymConstant
)

// Symbol is the value threaded through a trace. Name is always set; which
// of Key, Prop and Args is also meaningful depends on Kind; this mirrors a tagged union more
// directly than a Go interface would, since the tracer needs to
// rebuild a Symbol's defining AST form (Key, Args) at several points.
type Symbol struct {
	Kind SymbolKind
	Name string // Var/ArrayElem/ObjProp base name, CallResult/NewInstance callee, Constant name
	Key  phpast.Node
	Prop string
	Args []phpast.Node
}

func VarSymbol(name string) Symbol { return Symbol{Kind: SymVar, Name: name} }

// SymbolFromNode converts an AST expression into the Symbol the tracer
// threads backward, collapsing nested Var(Var(x)) wrapping.
func SymbolFromNode(n phpast.Node) Symbol {
	n = Collapse(n)
	switch v := n.(type) {
	case *phpast.Variable:
		return Symbol{Kind: SymVar, Name: v.Name}
	case *phpast.ArrayOffset:
		return Symbol{Kind: SymArrayElem, Name: phpast.Name(v.Base), Key: v.Key}
	case *phpast.ObjectProperty:
		return Symbol{Kind: SymObjProp, Name: phpast.Name(v.Base), Prop: v.Prop}
	case *phpast.FunctionCall:
		return Symbol{Kind: SymCallResult, Name: v.Name, Args: v.Args}
	case *phpast.MethodCall:
		return Symbol{Kind: SymCallResult, Name: v.Name, Args: v.Args}
	case *phpast.New:
		return Symbol{Kind: SymNewInstance, Name: v.ClassName, Args: v.Args}
	case *phpast.Constant:
		return Symbol{Kind: SymConstant, Name: v.Name}
	default:
		return Symbol{Kind: SymVar, Name: phpast.Name(n)}
	}
}

// Collapse strips `@` Silence wrappers, so the operator never changes a
// classification, and is the single call site every classification and
// comparison routes through. phpast.Variable stores its name as a flat
// string rather than a nested Node, so a nested Var(Var(x)) chain can
// never actually form here; a future Variable variant that *can* nest
// (PHP's `$$x`) only needs its unwrapping added in this one place.
func Collapse(n phpast.Node) phpast.Node {
	for {
		s, ok := n.(*phpast.Silence)
		if !ok || s.Expr == nil {
			return n
		}
		n = s.Expr
	}
}

// Verdict is the tracer's return value: a code plus the origin expression
// that justified it and that origin's source line.
type Verdict struct {
	Code       Code
	Origin     Symbol
	OriginLine int
}

func uncontrolled(line int, origin Symbol) Verdict {
	return Verdict{Code: Uncontrolled, Origin: origin, OriginLine: line}
}

// Finding is the scan result record.
type Finding struct {
	ID         string
	Code       Code
	Source     string
	SourceLine int
	Sink       string
	SinkParam  int
	SinkLine   int
}

func newFinding(v Verdict, sink string, param int, sinkLine int) Finding {
	return Finding{
		ID:         uuid.New().String(),
		Code:       v.Code,
		Source:     symbolLabel(v.Origin),
		SourceLine: v.OriginLine,
		Sink:       sink,
		SinkParam:  param,
		SinkLine:   sinkLine,
	}
}

func symbolLabel(s Symbol) string {
	switch s.Kind {
	case SymArrayElem:
		return s.Name + "[...]"
	case SymObjProp:
		return s.Name + "->" + s.Prop
	case SymCallResult:
		return s.Name + "(...)"
	case SymNewInstance:
		return "new " + s.Name
	case SymConstant:
		return s.Name
	default:
		return s.Name
	}
}

// PendingRule is a typed record in place of a raw sub-AST, with enough for
// an orchestrator to synthesize a follow-up scan targeting every call site
// of the function or class the taint flowed out through. Nothing in this
// package builds one: a NEW_RULE verdict carries only its code, origin and
// origin line, and surfaces as a Finding with Code NewRule.
type PendingRule struct {
	Kind         string // "function" or "class"
	Name         string
	Parameter    string
	FormalParams []*phpast.FormalParameter
}

// Logger is the core's diagnostic-event contract. No structured schema —
// human-readable messages only.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// NopLogger discards every event; the zero value of Config uses it so a
// caller who doesn't care about diagnostics never needs a nil check.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...interface{}) {}
func (NopLogger) Infof(string, ...interface{})  {}
func (NopLogger) Warnf(string, ...interface{})  {}
