package taint

import "github.com/taintwave/phpsentinel/pkg/phpast"

// traceFunction locates the most recent earlier user-defined function with
// the tracked call's name and traces its return expressions with the call
// site's arguments bound as new tracked symbols.
func (s *session) traceFunction(sym Symbol, nodes []phpast.Node, sinkLine int) Verdict {
	fn := findFuncDecl(nodes, sym.Name)
	if fn == nil {
		// No definition in this file — the deep tracer may still find it
		// through an include edge, so the caller (Unknown) keeps going.
		return Verdict{Code: Unknown, Origin: sym, OriginLine: sinkLine}
	}
	return s.traceFunctionBody(fn.Params, fn.Body, sym.Args, sinkLine)
}

// traceFunctionBody walks a function/method body's return statements,
// tracing each returned expression with the function's own statements as
// its back-slice, then resolves any verdict that bottoms out at a formal
// parameter against the caller-supplied argument in that position.
func (s *session) traceFunctionBody(params []*phpast.FormalParameter, body []phpast.Node, callArgs []phpast.Node, sinkLine int) Verdict {
	var results []Verdict
	for i, stmt := range body {
		ret, ok := stmt.(*phpast.Return)
		if !ok || ret.Expr == nil {
			continue
		}
		v := s.parametersBack(SymbolFromNode(ret.Expr), body[:i], params, sinkLine, true)
		if v.Code == Unknown {
			if p := phpast.ParamNamed(params, v.Origin.Name); p != nil {
				if idx := paramIndex(params, p); idx >= 0 && idx < len(callArgs) {
					argVerdict := Classify(callArgs[idx])
					if argVerdict.Code != Unknown {
						results = append(results, argVerdict)
						continue
					}
				}
				// Taint flow exits through a parameter with no resolvable
				// call-site argument: the orchestrator needs a new rule
				// targeting every caller of this function.
				v = Verdict{Code: NewRule, Origin: VarSymbol(p.Name), OriginLine: ret.Line()}
			}
		}
		results = append(results, v)
	}
	if len(results) == 0 {
		return Verdict{Code: Unknown, Origin: Symbol{Kind: SymCallResult, Name: ""}, OriginLine: sinkLine}
	}
	best := results[0]
	for _, r := range results[1:] {
		best = stronger(best, r)
	}
	return best
}

// traceDeclBody handles a FuncDecl/Method statement encountered while
// walking backward (only when the enclosing scan isn't already inside a
// function): it re-enters that declaration's own body, continuing to
// trace the *same* tracked symbol rather than its return expressions. If
// that sub-trace bottoms out UNKNOWN at one of the declaration's own
// formal parameters, it emits NEW_RULE against that function/method rather
// than resolving the symbol here.
func (s *session) traceDeclBody(sym Symbol, params []*phpast.FormalParameter, body []phpast.Node, declLine int, sinkLine int) Verdict {
	var scoped []phpast.Node
	for _, stmt := range body {
		if stmt.Line() >= declLine && stmt.Line() < sinkLine {
			scoped = append(scoped, stmt)
		}
	}
	if len(scoped) == 0 {
		return Verdict{Code: Unknown, Origin: sym, OriginLine: declLine}
	}
	v := s.parametersBack(sym, scoped, params, sinkLine, true)
	if v.Code == Unknown {
		if p := phpast.ParamNamed(params, v.Origin.Name); p != nil {
			return Verdict{Code: NewRule, Origin: VarSymbol(p.Name), OriginLine: declLine}
		}
	}
	return v
}

func paramIndex(params []*phpast.FormalParameter, target *phpast.FormalParameter) int {
	for i, p := range params {
		if p == target {
			return i
		}
	}
	return -1
}

func findFuncDecl(nodes []phpast.Node, name string) *phpast.FuncDecl {
	for i := len(nodes) - 1; i >= 0; i-- {
		if fn, ok := nodes[i].(*phpast.FuncDecl); ok && fn.Name == name {
			return fn
		}
	}
	return nil
}

func findClass(nodes []phpast.Node, name string) *phpast.Class {
	for i := len(nodes) - 1; i >= 0; i-- {
		if cls, ok := nodes[i].(*phpast.Class); ok && cls.Name == name {
			return cls
		}
	}
	return nil
}

func findMethod(cls *phpast.Class, name string) *phpast.Method {
	for _, m := range cls.Members {
		if method, ok := m.(*phpast.Method); ok && method.Name == name {
			return method
		}
	}
	return nil
}

// traceArray resolves a tracked array element backward through preceding
// assignments.
func (s *session) traceArray(sym Symbol, nodes []phpast.Node, sinkLine int) Verdict {
	for i := len(nodes) - 1; i >= 0; i-- {
		assign, ok := nodes[i].(*phpast.Assignment)
		if !ok || phpast.Name(assign.LHS) != sym.Name {
			continue
		}
		if lit, ok := assign.RHS.(*phpast.ArrayLiteral); ok {
			item := findArrayItem(lit, sym.Key)
			if item == nil {
				return uncontrolled(assign.Line(), sym)
			}
			if offset, ok := item.Value.(*phpast.ArrayOffset); ok {
				baseVerdict := classifyName(phpast.Name(offset.Base), offset.Line())
				if baseVerdict.Code == Controlled {
					return baseVerdict
				}
				return s.traceArray(Symbol{Kind: SymArrayElem, Name: phpast.Name(offset.Base), Key: offset.Key}, nodes[:i], sinkLine)
			}
			v := Classify(item.Value)
			if v.Code == Unknown {
				return s.parametersBack(SymbolFromNode(item.Value), nodes[:i], nil, sinkLine, false)
			}
			return v
		}
		// Whole-array rebind, e.g. `$arr = $_GET;`.
		v := Classify(assign.RHS)
		if v.Code == Unknown {
			return s.parametersBack(VarSymbol(sym.Name), nodes[:i], nil, sinkLine, false)
		}
		return v
	}
	// No assignment to the array: a superglobal base is controlled as is.
	if v := classifyName(sym.Name, sinkLine); v.Code == Controlled {
		return v
	}
	return Verdict{Code: Unknown, Origin: sym, OriginLine: sinkLine}
}

func findArrayItem(lit *phpast.ArrayLiteral, key phpast.Node) *phpast.ArrayItem {
	for i := range lit.Items {
		if keyEqual(lit.Items[i].Key, key) {
			return &lit.Items[i]
		}
	}
	return nil
}

// keyEqual compares two array keys textually: both absent (append-form),
// or both Literal/Constant nodes with the same name/value. This is a
// deliberately shallow comparison — expression-valued keys are rare in
// practice and fall back to "no match", which is the safe (not falsely
// CONTROLLED) direction.
func keyEqual(a, b phpast.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	al, aok := a.(*phpast.Literal)
	bl, bok := b.(*phpast.Literal)
	if aok && bok {
		return al.Value == bl.Value
	}
	ac, acok := a.(*phpast.Constant)
	bc, bcok := b.(*phpast.Constant)
	if acok && bcok {
		return ac.Name == bc.Name
	}
	return false
}

// traceNewClass captures the `echo new Foo(...)` pattern where
// stringification happens through __toString.
func (s *session) traceNewClass(sym Symbol, nodes []phpast.Node, sinkLine int) Verdict {
	cls := findClass(nodes, sym.Name)
	if cls == nil {
		return Verdict{Code: Unknown, Origin: sym, OriginLine: sinkLine}
	}
	toString := findMethod(cls, "__toString")
	if toString == nil {
		return Verdict{Code: Unknown, Origin: sym, OriginLine: sinkLine}
	}
	return s.traceFunctionBody(toString.Params, toString.Body, sym.Args, sinkLine)
}

// traceClass is invoked when the generic reverse scan encounters a Class
// definition: it checks whether the tracked symbol originates at a
// __construct parameter.
func (s *session) traceClass(sym Symbol, cls *phpast.Class, sinkLine int) Verdict {
	ctor := findMethod(cls, "__construct")
	if ctor == nil {
		return Verdict{Code: Unknown, Origin: sym, OriginLine: sinkLine}
	}
	if p := phpast.ParamNamed(ctor.Params, sym.Name); p != nil {
		return Verdict{Code: NewRule, Origin: sym, OriginLine: ctor.Line()}
	}
	v := s.traceFunctionBody(ctor.Params, ctor.Body, nil, sinkLine)
	if v.Code == Unknown {
		if p := phpast.ParamNamed(ctor.Params, v.Origin.Name); p != nil {
			return Verdict{Code: NewRule, Origin: VarSymbol(p.Name), OriginLine: ctor.Line()}
		}
	}
	return v
}
