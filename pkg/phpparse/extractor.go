package phpparse

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/taintwave/phpsentinel/pkg/phpast"
)

// extractor walks a tree-sitter PHP concrete syntax tree into the typed
// phpast catalog: a node.Type() switch plus a tolerant fallback for
// anything it doesn't recognize, producing real typed nodes instead of
// text heuristics, since the tracer needs structure, not substrings.
type extractor struct {
	src []byte
}

func (e *extractor) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(e.src)
}

func (e *extractor) line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// statements walks a program or compound_statement node's named children,
// converting each into a phpast.Node. Unrecognized statement kinds are
// skipped rather than erroring, keeping the scan robust against unusual
// grammar output.
func (e *extractor) statements(n *sitter.Node) []phpast.Node {
	if n == nil {
		return nil
	}
	var out []phpast.Node
	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		child := n.NamedChild(i)
		if stmt := e.statement(child); stmt != nil {
			out = append(out, stmt)
		}
	}
	return out
}

func (e *extractor) statement(n *sitter.Node) phpast.Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case nodeExpressionStatement:
		if n.NamedChildCount() == 0 {
			return nil
		}
		return e.expr(n.NamedChild(0))
	case nodeEchoStatement:
		return e.echoStmt(n)
	case nodeReturnStatement:
		return e.returnStmt(n)
	case nodeIfStatement:
		return e.ifStmt(n)
	case nodeForStatement:
		return e.forStmt(n)
	case nodeWhileStatement:
		return e.whileStmt(n)
	case nodeFunctionDefinition:
		return e.funcDecl(n)
	case nodeClassDeclaration:
		return e.classDecl(n)
	case nodeCompoundStatement:
		return phpast.NewBlock(e.line(n), e.statements(n))
	default:
		// Most expression kinds can also appear directly as a statement
		// child in some grammar productions (e.g. inside a braceless
		// if-body); try the expression path before giving up.
		if expr := e.expr(n); expr != nil {
			return expr
		}
		return nil
	}
}

func (e *extractor) expr(n *sitter.Node) phpast.Node {
	if n == nil {
		return nil
	}
	line := e.line(n)
	switch n.Type() {
	case nodeParenthesizedExpression:
		if n.NamedChildCount() > 0 {
			return e.expr(n.NamedChild(0))
		}
		return nil
	case nodeVariableName:
		return phpast.NewVariable(line, e.text(n))
	case nodeAssignmentExpression:
		return phpast.NewAssignment(line, e.expr(field(n, fieldLeft)), e.expr(field(n, fieldRight)))
	case nodeAugmentedAssignExpression:
		// `$x .= $y` etc: the tracer treats the whole expression as a
		// fresh binding of lhs to a BinaryOp of (lhs, rhs), which is
		// conservative but sound — it never under-reports taint.
		lhs := e.expr(field(n, fieldLeft))
		rhs := e.expr(field(n, fieldRight))
		return phpast.NewAssignment(line, lhs, phpast.NewBinaryOp(line, "augmented", lhs, rhs))
	case nodeBinaryExpression:
		op := field(n, fieldOperator)
		opText := ""
		if op != nil {
			opText = e.text(op)
		}
		return phpast.NewBinaryOp(line, opText, e.expr(field(n, fieldLeft)), e.expr(field(n, fieldRight)))
	case nodeConditionalExpression:
		cond := e.expr(field(n, fieldCondition))
		var ifTrue phpast.Node
		if body := field(n, fieldBody); body != nil {
			ifTrue = e.expr(body)
		}
		ifFalse := e.expr(field(n, fieldAlternative))
		return phpast.NewTernaryOp(line, cond, ifTrue, ifFalse)
	case nodeCastExpression:
		return phpast.NewCast(line, e.text(field(n, fieldType)), e.expr(field(n, fieldValue)))
	case nodeErrorSuppressionExpression:
		return phpast.NewSilence(line, e.lastExprChild(n))
	case nodeSubscriptExpression:
		base_ := e.expr(field(n, fieldArray))
		var key phpast.Node
		if idx := field(n, fieldIndex); idx != nil {
			key = e.expr(idx)
		}
		return phpast.NewArrayOffset(line, base_, key)
	case nodeMemberAccessExpression:
		return phpast.NewObjectProperty(line, e.expr(field(n, fieldObject)), e.memberName(field(n, fieldName)))
	case nodeMemberCallExpression:
		return phpast.NewMethodCall(line, e.expr(field(n, fieldObject)), e.memberName(field(n, fieldName)), e.arguments(field(n, fieldArguments)))
	case nodeObjectCreationExpression:
		return phpast.NewNew(line, e.className(n), e.arguments(field(n, fieldArguments)))
	case nodeFunctionCallExpression:
		name := e.text(field(n, fieldFunction))
		args := e.arguments(field(n, fieldArguments))
		if name == "eval" && len(args) == 1 {
			return phpast.NewEval(line, args[0])
		}
		return phpast.NewFunctionCall(line, name, args)
	case nodeIncludeExpression:
		return phpast.NewInclude(line, phpast.KindInclude, e.lastExprChild(n))
	case nodeIncludeOnceExpression:
		return phpast.NewInclude(line, phpast.KindIncludeOnce, e.lastExprChild(n))
	case nodeRequireExpression:
		return phpast.NewInclude(line, phpast.KindRequire, e.lastExprChild(n))
	case nodeRequireOnceExpression:
		return phpast.NewInclude(line, phpast.KindRequireOnce, e.lastExprChild(n))
	case nodePrintIntrinsic:
		return phpast.NewPrint(line, e.lastExprChild(n))
	case nodeArrayCreationExpression:
		return e.arrayLiteral(n)
	case nodeName, nodeQualifiedName:
		return phpast.NewConstant(line, e.text(n))
	case nodeString, nodeEncapsedString, nodeInteger, nodeFloat, nodeBoolean, nodeNull:
		return phpast.NewLiteral(line, e.text(n))
	default:
		return nil
	}
}

func (e *extractor) memberName(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return e.text(n)
}

func (e *extractor) className(n *sitter.Node) string {
	for _, fname := range []string{fieldClass, fieldClassType} {
		if c := field(n, fname); c != nil {
			return e.text(c)
		}
	}
	// Fallback: scan named children for the first name/qualified_name.
	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		c := n.NamedChild(i)
		if c.Type() == nodeName || c.Type() == nodeQualifiedName {
			return e.text(c)
		}
	}
	return ""
}

// lastExprChild returns the last named child of n, used for single-child
// wrapper constructs (include/require/print/silence) whose grammar field
// name varies across tree-sitter-php versions.
func (e *extractor) lastExprChild(n *sitter.Node) phpast.Node {
	count := int(n.NamedChildCount())
	if count == 0 {
		return nil
	}
	return e.expr(n.NamedChild(count - 1))
}

func (e *extractor) arguments(n *sitter.Node) []phpast.Node {
	if n == nil {
		return nil
	}
	var out []phpast.Node
	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		arg := n.NamedChild(i)
		if arg.Type() == nodeArgument && arg.NamedChildCount() > 0 {
			arg = arg.NamedChild(0)
		}
		if expr := e.expr(arg); expr != nil {
			out = append(out, expr)
		}
	}
	return out
}

func (e *extractor) arrayLiteral(n *sitter.Node) *phpast.ArrayLiteral {
	lit := phpast.NewArrayLiteral(e.line(n), nil)
	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		item := n.NamedChild(i)
		if item.Type() != nodeArrayElementInitializer {
			continue
		}
		var key, value phpast.Node
		if k := field(item, fieldKey); k != nil {
			key = e.expr(k)
			value = e.expr(field(item, fieldValue))
		} else if item.NamedChildCount() > 0 {
			value = e.expr(item.NamedChild(0))
		}
		lit.Items = append(lit.Items, phpast.ArrayItem{Key: key, Value: value})
	}
	return lit
}

func (e *extractor) echoStmt(n *sitter.Node) *phpast.Echo {
	echo := phpast.NewEcho(e.line(n), nil)
	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		if expr := e.expr(n.NamedChild(i)); expr != nil {
			echo.Exprs = append(echo.Exprs, expr)
		}
	}
	return echo
}

func (e *extractor) returnStmt(n *sitter.Node) *phpast.Return {
	var expr phpast.Node
	if n.NamedChildCount() > 0 {
		expr = e.expr(n.NamedChild(0))
	}
	return phpast.NewReturn(e.line(n), expr)
}

func (e *extractor) ifStmt(n *sitter.Node) *phpast.If {
	stmt := phpast.NewIf(e.line(n), e.expr(field(n, fieldCondition)), e.body(field(n, fieldBody)))
	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case nodeElseIfClause, nodeElseifClause:
			stmt.ElseIfs = append(stmt.ElseIfs, phpast.NewElseIf(e.line(c), e.expr(field(c, fieldCondition)), e.body(field(c, fieldBody))))
		case nodeElseClause:
			stmt.Else = phpast.NewElse(e.line(c), e.body(field(c, fieldBody)))
		}
	}
	return stmt
}

func (e *extractor) forStmt(n *sitter.Node) *phpast.For {
	var init, cond, update []phpast.Node
	if c := field(n, fieldInitialize); c != nil {
		init = []phpast.Node{e.expr(c)}
	}
	if c := field(n, fieldCondition); c != nil {
		cond = []phpast.Node{e.expr(c)}
	}
	if c := field(n, fieldUpdate); c != nil {
		update = []phpast.Node{e.expr(c)}
	}
	return phpast.NewFor(e.line(n), init, cond, update, e.body(field(n, fieldBody)))
}

func (e *extractor) whileStmt(n *sitter.Node) *phpast.While {
	return phpast.NewWhile(e.line(n), e.expr(field(n, fieldCondition)), e.body(field(n, fieldBody)))
}

// body normalizes a brace-delimited or braceless if/for/while body into a
// *phpast.Block so downstream helpers can use phpast.StatementsOf uniformly.
func (e *extractor) body(n *sitter.Node) phpast.Node {
	if n == nil {
		return phpast.NewBlock(0, nil)
	}
	if n.Type() == nodeCompoundStatement {
		return phpast.NewBlock(e.line(n), e.statements(n))
	}
	if stmt := e.statement(n); stmt != nil {
		return phpast.NewBlock(e.line(n), []phpast.Node{stmt})
	}
	return phpast.NewBlock(e.line(n), nil)
}

func (e *extractor) params(n *sitter.Node) []*phpast.FormalParameter {
	if n == nil {
		return nil
	}
	var out []*phpast.FormalParameter
	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		p := n.NamedChild(i)
		switch p.Type() {
		case nodeSimpleParameter, nodePropertyPromotionParameter:
			out = append(out, e.simpleParam(p))
		case nodeVariadicParameter:
			fp := e.simpleParam(p)
			fp.Variadic = true
			out = append(out, fp)
		}
	}
	return out
}

func (e *extractor) simpleParam(p *sitter.Node) *phpast.FormalParameter {
	name := ""
	if nameNode := field(p, fieldName); nameNode != nil {
		name = e.text(nameNode)
	}
	fp := phpast.NewFormalParameter(e.line(p), name)
	if def := field(p, fieldDefaultValue); def != nil {
		fp.Default = e.expr(def)
	}
	count := int(p.ChildCount())
	for i := 0; i < count; i++ {
		c := p.Child(i)
		if c.Type() == "&" || c.Type() == nodeReferenceModifier {
			fp.ByRef = true
		}
	}
	return fp
}

func (e *extractor) funcDecl(n *sitter.Node) *phpast.FuncDecl {
	return phpast.NewFuncDecl(
		e.line(n),
		e.text(field(n, fieldName)),
		e.params(field(n, fieldParameters)),
		e.statements(field(n, fieldBody)),
	)
}

func (e *extractor) methodDecl(n *sitter.Node) *phpast.Method {
	static := false
	visibility := ""
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		c := n.Child(i)
		switch c.Type() {
		case nodeStaticModifier:
			static = true
		case nodeVisibilityModifier:
			visibility = e.text(c)
		}
	}
	return phpast.NewMethod(
		e.line(n),
		e.text(field(n, fieldName)),
		e.params(field(n, fieldParameters)),
		e.statements(field(n, fieldBody)),
		static,
		visibility,
	)
}

func (e *extractor) classDecl(n *sitter.Node) *phpast.Class {
	extends := ""
	if bc := field(n, fieldBaseClause); bc != nil && bc.NamedChildCount() > 0 {
		extends = e.text(bc.NamedChild(0))
	}
	cls := phpast.NewClass(e.line(n), e.text(field(n, fieldName)), extends)
	body := field(n, fieldBody)
	if body == nil {
		return cls
	}
	count := int(body.NamedChildCount())
	for i := 0; i < count; i++ {
		m := body.NamedChild(i)
		if m.Type() == nodeMethodDeclaration {
			cls.Members = append(cls.Members, e.methodDecl(m))
		}
	}
	return cls
}

// field looks up a named grammar field, returning nil rather than panicking
// when the grammar revision in use doesn't define it — callers treat a nil
// field as structurally absent.
func field(n *sitter.Node, name string) *sitter.Node {
	if n == nil {
		return nil
	}
	return n.ChildByFieldName(name)
}
