package phpast

// Constructors for every node kind besides Variable (which already has
// NewVariable). Extraction packages outside phpast cannot build these
// struct literals directly since the embedded base field is unexported —
// that's deliberate, it keeps Line() the only way to read a node's position.

func NewAssignment(line int, lhs, rhs Node) *Assignment {
	return &Assignment{base{line}, lhs, rhs}
}

func NewBinaryOp(line int, op string, left, right Node) *BinaryOp {
	return &BinaryOp{base{line}, op, left, right}
}

func NewTernaryOp(line int, cond, ifTrue, ifFalse Node) *TernaryOp {
	return &TernaryOp{base{line}, cond, ifTrue, ifFalse}
}

func NewCast(line int, typ string, expr Node) *Cast {
	return &Cast{base{line}, typ, expr}
}

func NewSilence(line int, expr Node) *Silence {
	return &Silence{base{line}, expr}
}

func NewArrayOffset(line int, arrayBase, key Node) *ArrayOffset {
	return &ArrayOffset{base{line}, arrayBase, key}
}

func NewObjectProperty(line int, objBase Node, prop string) *ObjectProperty {
	return &ObjectProperty{base{line}, objBase, prop}
}

func NewMethodCall(line int, callBase Node, name string, args []Node) *MethodCall {
	return &MethodCall{base{line}, callBase, name, args}
}

func NewNew(line int, className string, args []Node) *New {
	return &New{base{line}, className, args}
}

func NewFunctionCall(line int, name string, args []Node) *FunctionCall {
	return &FunctionCall{base{line}, name, args}
}

func NewEval(line int, expr Node) *Eval {
	return &Eval{base{line}, expr}
}

func NewInclude(line int, kind IncludeKind, expr Node) *Include {
	return &Include{base{line}, kind, expr}
}

func NewPrint(line int, expr Node) *Print {
	return &Print{base{line}, expr}
}

func NewArrayLiteral(line int, items []ArrayItem) *ArrayLiteral {
	return &ArrayLiteral{base{line}, items}
}

func NewEcho(line int, exprs []Node) *Echo {
	return &Echo{base{line}, exprs}
}

func NewReturn(line int, expr Node) *Return {
	return &Return{base{line}, expr}
}

func NewConstant(line int, name string) *Constant {
	return &Constant{base{line}, name}
}

func NewLiteral(line int, value string) *Literal {
	return &Literal{base{line}, value}
}

func NewBlock(line int, stmts []Node) *Block {
	return &Block{base{line}, stmts}
}

func NewIf(line int, cond, then Node) *If {
	return &If{base: base{line}, Cond: cond, Then: then}
}

func NewElseIf(line int, cond, then Node) *ElseIf {
	return &ElseIf{base{line}, cond, then}
}

func NewElse(line int, then Node) *Else {
	return &Else{base{line}, then}
}

func NewFor(line int, init, cond, update []Node, body Node) *For {
	return &For{base{line}, init, cond, update, body}
}

func NewWhile(line int, cond, body Node) *While {
	return &While{base{line}, cond, body}
}

func NewFormalParameter(line int, name string) *FormalParameter {
	return &FormalParameter{base: base{line}, Name: name}
}

func NewFuncDecl(line int, name string, params []*FormalParameter, body []Node) *FuncDecl {
	return &FuncDecl{base{line}, name, params, body}
}

func NewMethod(line int, name string, params []*FormalParameter, body []Node, static bool, visibility string) *Method {
	return &Method{base{line}, name, params, body, static, visibility}
}

func NewClass(line int, name, extends string) *Class {
	return &Class{base: base{line}, Name: name, Extends: extends}
}
