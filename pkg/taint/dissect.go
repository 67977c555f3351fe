package taint

import "github.com/taintwave/phpsentinel/pkg/phpast"

// The dissectors in this file are pure extractors: given a compound
// expression, pull out the sub-expressions the tracer should classify or
// recurse into next. None of them consult preceding statements; that's the
// tracer's job in tracer.go.

// dissectBinaryOp flattens a BinaryOp into its classifiable leaves: plain
// Variables, ArrayOffset bases, nested BinaryOps (recursively) and
// FunctionCall arguments. Constants pass through unresolved, since the
// include-path resolver is the only caller that cares about their names.
func dissectBinaryOp(n *phpast.BinaryOp) []phpast.Node {
	var out []phpast.Node
	out = append(out, dissectOperand(n.Left)...)
	out = append(out, dissectOperand(n.Right)...)
	return out
}

func dissectOperand(n phpast.Node) []phpast.Node {
	switch v := n.(type) {
	case nil:
		return nil
	case *phpast.BinaryOp:
		return dissectBinaryOp(v)
	case *phpast.FunctionCall:
		return dissectCallArgs(v.Args)
	default:
		return []phpast.Node{n}
	}
}

// dissectCallArgs extracts the classifiable sub-expression of each call
// argument: Variable and ArrayOffset pass through directly, BinaryOp and
// Cast/Silence recurse into their own dissector, nested FunctionCall args
// recurse here again.
func dissectCallArgs(args []phpast.Node) []phpast.Node {
	var out []phpast.Node
	for _, a := range args {
		switch v := a.(type) {
		case *phpast.Variable, *phpast.ArrayOffset:
			out = append(out, v)
		case *phpast.BinaryOp:
			out = append(out, dissectBinaryOp(v)...)
		case *phpast.Cast:
			out = append(out, dissectOperand(v.Expr)...)
		case *phpast.Silence:
			out = append(out, dissectSilence(v)...)
		case *phpast.FunctionCall:
			out = append(out, dissectCallArgs(v.Args)...)
		default:
			out = append(out, a)
		}
	}
	return out
}

// dissectSilence extracts from beneath the `@` error-suppression operator;
// the operator itself never changes a verdict.
func dissectSilence(s *phpast.Silence) []phpast.Node {
	switch v := s.Expr.(type) {
	case *phpast.Variable:
		return []phpast.Node{v}
	case *phpast.FunctionCall:
		return dissectCallArgs(v.Args)
	case *phpast.Eval:
		return []phpast.Node{v.Expr}
	case *phpast.Assignment:
		return []phpast.Node{v.RHS}
	default:
		if s.Expr == nil {
			return nil
		}
		return []phpast.Node{s.Expr}
	}
}
