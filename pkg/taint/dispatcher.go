package taint

import "github.com/taintwave/phpsentinel/pkg/phpast"

// Scan is the primary entry point: given PHP source, a sink name list and a
// sink line within it, it returns every positive-verdict finding, in source
// order. Parse failures are swallowed — the caller always gets a (possibly
// empty) slice, never an error from a malformed file.
func (t *Tracer) Scan(source []byte, filePath string, sinkNames []string, sinkLine int, repairFunctions []string) []Finding {
	s := t.newSession(repairFunctions)
	nodes, err := t.parser.Parse(filePath, source)
	if err != nil {
		s.logger.Warnf("taint: %v", err)
		return nil
	}

	sinkSet := make(map[string]bool, len(sinkNames))
	for _, name := range sinkNames {
		sinkSet[name] = true
	}
	d := &dispatchState{sinkNames: sinkSet, sinkLine: sinkLine, filePath: filePath, session: s}
	d.walkBlock(nodes, nil, nil)
	return s.findings
}

// AnalyseParams is a single-symbol query used recursively when a caller
// already has an isolated expression to resolve (e.g. the orchestrator
// re-entering on a NEW_RULE call site argument) rather than a whole sink
// dispatch.
func (t *Tracer) AnalyseParams(expr phpast.Node, source []byte, filePath string, sinkLine int, repairFunctions []string) Verdict {
	s := t.newSession(repairFunctions)
	nodes, err := t.parser.Parse(filePath, source)
	if err != nil {
		s.logger.Warnf("taint: %v", err)
		return uncontrolled(sinkLine, SymbolFromNode(expr))
	}
	return s.deepTrace(SymbolFromNode(expr), nodes, nil, 0, filePath, sinkLine)
}

// AnalyseParamName is the by-name form of AnalyseParams, for callers that
// hold a bare variable name (e.g. "$id") rather than an AST expression.
func (t *Tracer) AnalyseParamName(name string, source []byte, filePath string, sinkLine int, repairFunctions []string) Verdict {
	s := t.newSession(repairFunctions)
	nodes, err := t.parser.Parse(filePath, source)
	if err != nil {
		s.logger.Warnf("taint: %v", err)
		return uncontrolled(sinkLine, VarSymbol(name))
	}
	return s.deepTrace(VarSymbol(name), nodes, nil, 0, filePath, sinkLine)
}

// SinkLines walks nodes and returns every line number at which one of
// sinkNames's forms occurs, in source order with duplicates removed. It is
// not itself a trace — it exists so a whole-file caller (cmd/phpsinkscan)
// can discover the sink-line values Scan's single-line-scoped entry point
// requires, without reimplementing the dispatcher's own AST walk.
func SinkLines(nodes []phpast.Node, sinkNames []string) []int {
	sinkSet := make(map[string]bool, len(sinkNames))
	for _, name := range sinkNames {
		sinkSet[name] = true
	}
	var lines []int
	seen := map[int]bool{}
	var walk func(stmts []phpast.Node)
	walk = func(stmts []phpast.Node) {
		for _, n := range stmts {
			if _, _, ok := matchSink(n, sinkSet); ok && !seen[n.Line()] {
				seen[n.Line()] = true
				lines = append(lines, n.Line())
			}
			switch v := n.(type) {
			case *phpast.If:
				walk(phpast.StatementsOf(v.Then))
				for _, ei := range v.ElseIfs {
					walk(phpast.StatementsOf(ei.Then))
				}
				if v.Else != nil {
					walk(phpast.StatementsOf(v.Else.Then))
				}
			case *phpast.For:
				walk(phpast.StatementsOf(v.Body))
			case *phpast.While:
				walk(phpast.StatementsOf(v.Body))
			case *phpast.FuncDecl:
				walk(v.Body)
			case *phpast.Class:
				for _, m := range v.Members {
					if method, ok := m.(*phpast.Method); ok {
						walk(method.Body)
					}
				}
			}
		}
	}
	walk(nodes)
	return lines
}

// dispatchState carries the sink dispatcher's per-scan configuration. It is
// not part of session because it has nothing to do with the backward
// tracer itself — only with locating sink call sites.
type dispatchState struct {
	sinkNames map[string]bool
	sinkLine  int
	filePath  string
	session   *session
}

// walkBlock traverses one statement list, accumulating the back-slice of
// preceding statements in source order. baseAcc seeds the
// accumulator for nested if/for/while branches (which share their
// enclosing scope's preceding statements); function, method and class
// bodies pass nil, entering a fresh scope.
func (d *dispatchState) walkBlock(stmts []phpast.Node, formalParams []*phpast.FormalParameter, baseAcc []phpast.Node) {
	acc := append([]phpast.Node{}, baseAcc...)
	for _, n := range stmts {
		d.visit(n, formalParams, acc)
		acc = append(acc, n)
	}
}

func (d *dispatchState) visit(n phpast.Node, formalParams []*phpast.FormalParameter, acc []phpast.Node) {
	if n.Line() == d.sinkLine {
		d.dispatchSink(n, acc, formalParams)
	}
	switch v := n.(type) {
	case *phpast.If:
		d.walkBlock(phpast.StatementsOf(v.Then), formalParams, acc)
		for _, ei := range v.ElseIfs {
			d.walkBlock(phpast.StatementsOf(ei.Then), formalParams, acc)
		}
		if v.Else != nil {
			d.walkBlock(phpast.StatementsOf(v.Else.Then), formalParams, acc)
		}
	case *phpast.For:
		d.walkBlock(phpast.StatementsOf(v.Body), formalParams, acc)
	case *phpast.While:
		d.walkBlock(phpast.StatementsOf(v.Body), formalParams, acc)
	case *phpast.FuncDecl:
		d.walkBlock(v.Body, v.Params, nil)
	case *phpast.Class:
		for _, m := range v.Members {
			if method, ok := m.(*phpast.Method); ok {
				d.walkBlock(method.Body, method.Params, nil)
			}
		}
	}
}

// dispatchSink checks whether n is one of the recognized sink forms and,
// if so, traces each of its argument sub-expressions.
func (d *dispatchState) dispatchSink(n phpast.Node, backNodes []phpast.Node, formalParams []*phpast.FormalParameter) {
	sinkName, args, ok := matchSink(n, d.sinkNames)
	if !ok {
		return
	}
	for idx, arg := range args {
		if arg == nil {
			continue
		}
		if tern, ok := arg.(*phpast.TernaryOp); ok {
			// A ternary sink argument traces both arms independently,
			// each contributing its own finding rather than one combined
			// verdict for the whole expression.
			if tern.IfTrue != nil {
				d.traceAndRecord(tern.IfTrue, backNodes, formalParams, sinkName, idx, n.Line())
			}
			if tern.IfFalse != nil {
				d.traceAndRecord(tern.IfFalse, backNodes, formalParams, sinkName, idx, n.Line())
			}
			continue
		}
		d.traceAndRecord(arg, backNodes, formalParams, sinkName, idx, n.Line())
	}
}

func (d *dispatchState) traceAndRecord(arg phpast.Node, backNodes []phpast.Node, formalParams []*phpast.FormalParameter, sinkName string, param int, sinkLine int) {
	// An ObjectProperty argument (e.g. `include $this->path;`) is still
	// routed into the tracer instead of being dropped — the oracle's own
	// ObjProp -> UNKNOWN rule still applies, this only ensures the
	// dispatcher doesn't refuse to descend.
	sym := SymbolFromNode(arg)
	v := d.session.deepTrace(sym, backNodes, formalParams, 0, d.filePath, sinkLine)
	if v.Code > 0 {
		d.session.findings = append(d.session.findings, newFinding(v, sinkName, param, sinkLine))
	}
}

// matchSink reports whether n is a sink form and, if so, its canonical
// name and the sub-expressions the tracer should trace.
func matchSink(n phpast.Node, sinkNames map[string]bool) (string, []phpast.Node, bool) {
	switch v := n.(type) {
	case *phpast.FunctionCall:
		if sinkNames[v.Name] {
			return v.Name, v.Args, true
		}
	case *phpast.MethodCall:
		if sinkNames[v.Name] {
			return v.Name, v.Args, true
		}
	case *phpast.Echo:
		if sinkNames["echo"] {
			return "echo", v.Exprs, true
		}
	case *phpast.Print:
		if sinkNames["print"] {
			return "print", []phpast.Node{v.Expr}, true
		}
	case *phpast.Eval:
		if sinkNames["eval"] {
			return "eval", []phpast.Node{v.Expr}, true
		}
	case *phpast.Include:
		name := v.Kind.String()
		if sinkNames[name] {
			return name, []phpast.Node{v.Expr}, true
		}
	case *phpast.Return:
		if sinkNames["return"] && v.Expr != nil {
			return "return", []phpast.Node{v.Expr}, true
		}
	case *phpast.Assignment:
		// Assignment-with-call transparency: a sink hiding behind
		// `$x = sink(...)` is still reachable.
		switch rhs := v.RHS.(type) {
		case *phpast.FunctionCall:
			if sinkNames[rhs.Name] {
				return rhs.Name, rhs.Args, true
			}
		case *phpast.MethodCall:
			if sinkNames[rhs.Name] {
				return rhs.Name, rhs.Args, true
			}
		}
	}
	return "", nil, false
}
