package phpast

// Name returns the best-effort "identity" of a node for comparison purposes:
// a Variable's name, the base variable name of an ArrayOffset, or "" for
// anything else.
func Name(n Node) string {
	switch v := n.(type) {
	case *Variable:
		return v.Name
	case *ArrayOffset:
		return Name(v.Base)
	}
	return ""
}

// FlattenFormalParams returns the declared parameter names of a parameter
// list, in order.
func FlattenFormalParams(params []*FormalParameter) []string {
	names := make([]string, 0, len(params))
	for _, p := range params {
		names = append(names, p.Name)
	}
	return names
}

// ParamNamed finds the formal parameter with the given name, or nil.
// Parameter matching is always by name —
// never by comparing a FormalParameter against a Variable's name via any
// other structural equality.
func ParamNamed(params []*FormalParameter, name string) *FormalParameter {
	for _, p := range params {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// StatementsOf normalizes an If/For/While body, which PHP allows to be
// either a brace-delimited Block or a single bare statement, into a flat
// statement slice.
func StatementsOf(n Node) []Node {
	if n == nil {
		return nil
	}
	if b, ok := n.(*Block); ok {
		return b.Stmts
	}
	return []Node{n}
}
