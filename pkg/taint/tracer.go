package taint

import "github.com/taintwave/phpsentinel/pkg/phpast"

// parametersBack is the backward parameter tracer. nodes is the back-slice
// preceding (and including, for the recursive call sites built from it) the
// point sym needs to be resolved at; formalParams is the enclosing
// function/method's parameter list, or nil at file scope.
func (s *session) parametersBack(sym Symbol, nodes []phpast.Node, formalParams []*phpast.FormalParameter, sinkLine int, inFunction bool) Verdict {
	// Step 1: symbol pre-pass — call results, array elements and `new`
	// instances are redirected to their specialized sub-tracers before
	// any generic statement scanning happens.
	switch sym.Kind {
	case SymCallResult:
		return s.traceFunction(sym, nodes, sinkLine)
	case SymArrayElem:
		return s.traceArray(sym, nodes, sinkLine)
	case SymNewInstance:
		return s.traceNewClass(sym, nodes, sinkLine)
	}

	line := sinkLine
	if len(nodes) > 0 {
		line = nodes[len(nodes)-1].Line()
	}
	// Step 2: initial classification, the fallback verdict if nothing
	// in the back-slice resolves the symbol.
	fallback := classifySymbol(sym, line)

	// Step 3: reverse scan, last statement first.
	for i := len(nodes) - 1; i >= 0; i-- {
		rest := nodes[:i]
		switch n := nodes[i].(type) {
		case *phpast.Assignment:
			if v := s.tryAssignment(sym, n, rest, formalParams, sinkLine, inFunction); v != nil {
				return *v
			}
		case *phpast.If:
			if v := s.tryIf(sym, n, formalParams, sinkLine, inFunction); v != nil {
				return *v
			}
		case *phpast.For:
			v := s.parametersBack(sym, phpast.StatementsOf(n.Body), formalParams, sinkLine, inFunction)
			if strength(v.Code) > 0 && v.Code != Unknown {
				return v
			}
		case *phpast.While:
			v := s.parametersBack(sym, phpast.StatementsOf(n.Body), formalParams, sinkLine, inFunction)
			if strength(v.Code) > 0 && v.Code != Unknown {
				return v
			}
		case *phpast.FuncDecl:
			if !inFunction {
				v := s.traceDeclBody(sym, n.Params, n.Body, n.Line(), sinkLine)
				if strength(v.Code) > 0 && v.Code != Unknown {
					return v
				}
			}
		case *phpast.Method:
			if !inFunction {
				v := s.traceDeclBody(sym, n.Params, n.Body, n.Line(), sinkLine)
				if strength(v.Code) > 0 && v.Code != Unknown {
					return v
				}
			}
		case *phpast.Class:
			// Unconditional: the first Class reached in the reverse scan
			// terminates the scan with whatever traceClass resolves,
			// never falls through to keep scanning earlier statements.
			return s.traceClass(sym, n, sinkLine)
		}
	}

	// Step 4: termination. A tracked name matching a formal parameter
	// here signals UNKNOWN rather than REPAIRED: every other "the caller
	// must keep resolving this" deferral in the tracer (call results,
	// array elements, new-instances) already uses UNKNOWN, and REPAIRED
	// is reserved strictly for an actual matched repair function.
	if formalParams != nil {
		if p := phpast.ParamNamed(formalParams, sym.Name); p != nil {
			return Verdict{Code: Unknown, Origin: VarSymbol(p.Name), OriginLine: line}
		}
	}
	return fallback
}

func classifySymbol(sym Symbol, line int) Verdict {
	switch sym.Kind {
	case SymVar, SymArrayElem:
		return classifyName(sym.Name, line)
	case SymConstant:
		return uncontrolled(line, sym)
	default:
		return Verdict{Code: Unknown, Origin: sym, OriginLine: line}
	}
}

// tryAssignment inspects one candidate defining assignment. A nil return
// means the assignment's lhs didn't match the tracked symbol and the
// reverse scan should simply continue to the previous statement.
func (s *session) tryAssignment(sym Symbol, assign *phpast.Assignment, rest []phpast.Node, formalParams []*phpast.FormalParameter, sinkLine int, inFunction bool) *Verdict {
	if phpast.Name(assign.LHS) != sym.Name {
		return nil
	}

	if s.rhsIsRepaired(assign.RHS) {
		v := Verdict{Code: Repaired, Origin: sym, OriginLine: assign.Line()}
		return &v
	}

	if tern, ok := assign.RHS.(*phpast.TernaryOp); ok {
		v := s.traceTernary(tern, rest, formalParams, sinkLine, inFunction)
		return &v
	}

	if bin, ok := assign.RHS.(*phpast.BinaryOp); ok {
		v := s.traceLeaves(dissectBinaryOp(bin), rest, formalParams, sinkLine, inFunction, assign.Line())
		return &v
	}

	verdict := Classify(assign.RHS)
	if verdict.Code == Controlled {
		return &verdict
	}
	if verdict.Code == Unknown {
		if formalParams != nil {
			if p := phpast.ParamNamed(formalParams, phpast.Name(assign.RHS)); p != nil {
				v := Verdict{Code: Unknown, Origin: VarSymbol(p.Name), OriginLine: assign.Line()}
				return &v
			}
		}
		newSym := SymbolFromNode(assign.RHS)
		v := s.parametersBack(newSym, rest, formalParams, sinkLine, inFunction)
		return &v
	}
	return &verdict
}

// rhsIsRepaired reports whether an assignment's rhs is a direct call to a
// configured repair function, e.g. `$x = htmlspecialchars($_GET['id']);`.
func (s *session) rhsIsRepaired(rhs phpast.Node) bool {
	fc, ok := rhs.(*phpast.FunctionCall)
	if !ok {
		return false
	}
	return s.isRepair(fc.Name)
}

// traceLeaves classifies/recurses each dissected sub-expression of a
// compound rhs (a BinaryOp's operands), short-circuiting on the first
// CONTROLLED leaf and otherwise combining by strength.
func (s *session) traceLeaves(leaves []phpast.Node, rest []phpast.Node, formalParams []*phpast.FormalParameter, sinkLine int, inFunction bool, line int) Verdict {
	best := uncontrolled(line, Symbol{})
	for _, leaf := range leaves {
		c := Classify(leaf)
		if c.Code == Controlled {
			return c
		}
		v := s.parametersBack(SymbolFromNode(leaf), rest, formalParams, sinkLine, inFunction)
		best = stronger(best, v)
	}
	return best
}

// traceTernary traces both arms of a ternary independently, so a sink fed
// by `cond ? $safe : $_GET['x']` still surfaces the tainted arm.
func (s *session) traceTernary(t *phpast.TernaryOp, rest []phpast.Node, formalParams []*phpast.FormalParameter, sinkLine int, inFunction bool) Verdict {
	var arms []phpast.Node
	if t.IfTrue != nil {
		arms = append(arms, t.IfTrue)
	}
	if t.IfFalse != nil {
		arms = append(arms, t.IfFalse)
	}
	best := uncontrolled(t.Line(), Symbol{})
	for _, arm := range arms {
		c := Classify(arm)
		if c.Code == Controlled {
			return c
		}
		v := s.parametersBack(SymbolFromNode(arm), rest, formalParams, sinkLine, inFunction)
		best = stronger(best, v)
	}
	return best
}

// tryIf recurses into an If's branches, Then first, then each ElseIf, then
// Else. A non-nil return is a positive verdict that should terminate the
// outer scan immediately; nil means the outer reverse scan should restart
// on the statements preceding the If with the original symbol. A branch
// that comes back Unknown at a different origin than the entering symbol
// has altered our view of the assignment graph — the remaining branches
// are abandoned right there rather than trusted to resolve the symbol.
func (s *session) tryIf(sym Symbol, n *phpast.If, formalParams []*phpast.FormalParameter, sinkLine int, inFunction bool) *Verdict {
	branches := [][]phpast.Node{phpast.StatementsOf(n.Then)}
	for _, ei := range n.ElseIfs {
		branches = append(branches, phpast.StatementsOf(ei.Then))
	}
	if n.Else != nil {
		branches = append(branches, phpast.StatementsOf(n.Else.Then))
	}
	for _, stmts := range branches {
		v := s.parametersBack(sym, stmts, formalParams, sinkLine, inFunction)
		if strength(v.Code) > 0 && v.Code != Unknown {
			return &v
		}
		if v.Code == Unknown && v.Origin.Name != sym.Name {
			return nil
		}
	}
	return nil
}
