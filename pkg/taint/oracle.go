package taint

import (
	"strings"

	"github.com/taintwave/phpsentinel/pkg/phpast"
	"github.com/taintwave/phpsentinel/pkg/sinkcfg"
)

// Classify is the controllability oracle: it decides whether an expression
// is directly known-tainted, possibly tainted, or provably safe, without
// looking at anything preceding it in the file.
func Classify(expr phpast.Node) Verdict {
	expr = Collapse(expr)
	switch v := expr.(type) {
	case *phpast.FunctionCall:
		// Caller decides whether to descend into trace_function; the
		// oracle alone can't judge an ordinary call result.
		return Verdict{Code: Unknown, Origin: SymbolFromNode(expr), OriginLine: expr.Line()}
	case *phpast.MethodCall:
		// Caller decides whether to descend into method tracing; the
		// oracle alone can't judge an ordinary call result.
		return Verdict{Code: Unknown, Origin: SymbolFromNode(expr), OriginLine: expr.Line()}
	case *phpast.ObjectProperty, *phpast.New:
		// Caller decides whether to descend into trace_new_class; the
		// oracle alone can't judge a call result.
		return Verdict{Code: Unknown, Origin: SymbolFromNode(expr), OriginLine: expr.Line()}
	case *phpast.Variable:
		return classifyName(v.Name, v.Line())
	case *phpast.ArrayOffset:
		return classifyName(phpast.Name(v.Base), v.Line())
	case *phpast.Literal, *phpast.Constant:
		return uncontrolled(expr.Line(), SymbolFromNode(expr))
	default:
		return uncontrolled(expr.Line(), SymbolFromNode(expr))
	}
}

func classifyName(name string, line int) Verdict {
	if sinkcfg.Superglobals[name] {
		return Verdict{Code: Controlled, Origin: VarSymbol(name), OriginLine: line}
	}
	if strings.HasPrefix(name, "$") {
		return Verdict{Code: Unknown, Origin: VarSymbol(name), OriginLine: line}
	}
	return uncontrolled(line, VarSymbol(name))
}
