package taint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taintwave/phpsentinel/pkg/phpast"
)

// scanNodes drives the dispatcher directly against hand-built phpast
// nodes, bypassing pkg/phpparse entirely. The dispatcher and tracer have no
// dependency on how the AST was produced, so this exercises exactly the
// same code path Tracer.Scan does, without depending on tree-sitter grammar
// details the parser package is responsible for getting right.
func scanNodes(nodes []phpast.Node, sinkNames []string, sinkLine int, repairFunctions []string) []Finding {
	s := &session{repair: toSet(repairFunctions), logger: NopLogger{}}
	d := &dispatchState{sinkNames: toSet(sinkNames), sinkLine: sinkLine, filePath: "test.php", session: s}
	d.walkBlock(nodes, nil, nil)
	return s.findings
}

func toSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func TestDirectTaintReachesEval(t *testing.T) {
	// <?php $x = $_GET['id']; eval($x); ?>
	assign := phpast.NewAssignment(1, phpast.NewVariable(1, "$x"),
		phpast.NewArrayOffset(1, phpast.NewVariable(1, "$_GET"), phpast.NewLiteral(1, "'id'")))
	evalCall := phpast.NewEval(1, phpast.NewVariable(1, "$x"))

	findings := scanNodes([]phpast.Node{assign, evalCall}, []string{"eval"}, 1, nil)

	if assert.Len(t, findings, 1) {
		assert.Equal(t, Controlled, findings[0].Code)
		assert.Equal(t, "eval", findings[0].Sink)
		assert.Equal(t, 1, findings[0].SinkLine)
	}
}

func TestRepairedFlowShortCircuits(t *testing.T) {
	// <?php $x = htmlspecialchars($_GET['id']); eval($x); ?>
	assign := phpast.NewAssignment(1, phpast.NewVariable(1, "$x"),
		phpast.NewFunctionCall(1, "htmlspecialchars", []phpast.Node{
			phpast.NewArrayOffset(1, phpast.NewVariable(1, "$_GET"), phpast.NewLiteral(1, "'id'")),
		}))
	evalCall := phpast.NewEval(1, phpast.NewVariable(1, "$x"))

	findings := scanNodes([]phpast.Node{assign, evalCall}, []string{"eval"}, 1, []string{"htmlspecialchars"})

	if assert.Len(t, findings, 1) {
		assert.Equal(t, Repaired, findings[0].Code)
	}
}

func TestConstantLiteralProducesNoFinding(t *testing.T) {
	// <?php $x = "safe"; eval($x); ?>
	assign := phpast.NewAssignment(1, phpast.NewVariable(1, "$x"), phpast.NewLiteral(1, `"safe"`))
	evalCall := phpast.NewEval(1, phpast.NewVariable(1, "$x"))

	findings := scanNodes([]phpast.Node{assign, evalCall}, []string{"eval"}, 1, nil)

	assert.Empty(t, findings)
}

func TestTaintThroughUserFunction(t *testing.T) {
	// <?php function f($a){ return $a; } $y = f($_POST['u']); echo $y; ?>
	fn := phpast.NewFuncDecl(1, "f",
		[]*phpast.FormalParameter{phpast.NewFormalParameter(1, "$a")},
		[]phpast.Node{phpast.NewReturn(1, phpast.NewVariable(1, "$a"))})
	call := phpast.NewFunctionCall(2, "f", []phpast.Node{
		phpast.NewArrayOffset(2, phpast.NewVariable(2, "$_POST"), phpast.NewLiteral(2, "'u'")),
	})
	assign := phpast.NewAssignment(2, phpast.NewVariable(2, "$y"), call)
	echo := phpast.NewEcho(3, []phpast.Node{phpast.NewVariable(3, "$y")})

	findings := scanNodes([]phpast.Node{fn, assign, echo}, []string{"echo"}, 3, nil)

	if assert.Len(t, findings, 1) {
		assert.Equal(t, Controlled, findings[0].Code)
	}
}

func TestArrayElementPropagation(t *testing.T) {
	// <?php $arr = array('k' => $_COOKIE['c']); eval($arr['k']); ?>
	arrLit := phpast.NewArrayLiteral(1, []phpast.ArrayItem{
		{
			Key:   phpast.NewLiteral(1, "'k'"),
			Value: phpast.NewArrayOffset(1, phpast.NewVariable(1, "$_COOKIE"), phpast.NewLiteral(1, "'c'")),
		},
	})
	assign := phpast.NewAssignment(1, phpast.NewVariable(1, "$arr"), arrLit)
	evalCall := phpast.NewEval(2, phpast.NewArrayOffset(2, phpast.NewVariable(2, "$arr"), phpast.NewLiteral(2, "'k'")))

	findings := scanNodes([]phpast.Node{assign, evalCall}, []string{"eval"}, 2, nil)

	if assert.Len(t, findings, 1) {
		assert.Equal(t, Controlled, findings[0].Code)
	}
}

func TestServerSuperglobalIsNeverControlled(t *testing.T) {
	assign := phpast.NewAssignment(1, phpast.NewVariable(1, "$x"), phpast.NewVariable(1, "$_SERVER"))
	evalCall := phpast.NewEval(1, phpast.NewVariable(1, "$x"))

	findings := scanNodes([]phpast.Node{assign, evalCall}, []string{"eval"}, 1, nil)

	// $_SERVER classifies UNKNOWN like any other `$` variable, and UNKNOWN
	// (code > 0) is still recorded — but never as CONTROLLED.
	if assert.Len(t, findings, 1) {
		assert.Equal(t, Unknown, findings[0].Code, "$_SERVER is deliberately excluded from the controllability universe")
	}
}

func TestFuncDeclInBackSliceEmitsNewRuleForUnmatchedParameter(t *testing.T) {
	// <?php function f($tainted){ $local = 1; } eval($tainted); ?> — $tainted
	// is never assigned at file scope, but a *declaration* of f sits in the
	// back-slice with a same-named formal parameter. The reverse scan must
	// descend into f's own body and, finding no local resolution, emit
	// NEW_RULE against f rather than silently skipping the declaration.
	fn := phpast.NewFuncDecl(1, "f",
		[]*phpast.FormalParameter{phpast.NewFormalParameter(1, "$tainted")},
		[]phpast.Node{phpast.NewAssignment(1, phpast.NewVariable(1, "$local"), phpast.NewLiteral(1, "1"))})
	evalCall := phpast.NewEval(3, phpast.NewVariable(3, "$tainted"))

	findings := scanNodes([]phpast.Node{fn, evalCall}, []string{"eval"}, 3, nil)

	if assert.Len(t, findings, 1) {
		assert.Equal(t, NewRule, findings[0].Code)
	}
}

func TestClassInBackSliceTerminatesScanUnconditionally(t *testing.T) {
	// <?php $x = $_GET['id']; class C {} eval($x); ?> — the reverse scan
	// hits the parameterless Class C first (no __construct, so traceClass
	// resolves UNKNOWN) and must terminate right there rather than falling
	// through to the earlier assignment and reporting it CONTROLLED: a
	// Class boundary in the back-slice is an unconditional stop, unlike
	// the For/While/FuncDecl cases which only stop on a non-UNKNOWN verdict.
	assign := phpast.NewAssignment(1, phpast.NewVariable(1, "$x"),
		phpast.NewArrayOffset(1, phpast.NewVariable(1, "$_GET"), phpast.NewLiteral(1, "'id'")))
	cls := phpast.NewClass(2, "C", "")
	evalCall := phpast.NewEval(3, phpast.NewVariable(3, "$x"))

	findings := scanNodes([]phpast.Node{assign, cls, evalCall}, []string{"eval"}, 3, nil)

	if assert.Len(t, findings, 1) {
		assert.Equal(t, Unknown, findings[0].Code, "the Class boundary must stop the scan before it ever reaches the controlling assignment")
	}
}

func TestIfBranchUnknownAtDifferentOriginShortCircuits(t *testing.T) {
	// <?php
	//   $x = "safe";
	//   if ($c) { $x = mystery($q); } else { $x = $_GET['a']; }
	//   eval($x);
	// ?>
	// The then-branch rebinds $x to an undefined call, so its trace bottoms
	// out Unknown at origin mystery(...) — a different origin than the
	// entering $x. That must abandon the else branch (whose $_GET
	// assignment would otherwise resolve Controlled) and restart the outer
	// scan before the If, where $x = "safe" resolves Uncontrolled: no
	// finding.
	assignSafe := phpast.NewAssignment(1, phpast.NewVariable(1, "$x"), phpast.NewLiteral(1, `"safe"`))
	thenAssign := phpast.NewAssignment(2, phpast.NewVariable(2, "$x"),
		phpast.NewFunctionCall(2, "mystery", []phpast.Node{phpast.NewVariable(2, "$q")}))
	elseAssign := phpast.NewAssignment(3, phpast.NewVariable(3, "$x"),
		phpast.NewArrayOffset(3, phpast.NewVariable(3, "$_GET"), phpast.NewLiteral(3, "'a'")))
	ifStmt := phpast.NewIf(2, phpast.NewVariable(2, "$c"), phpast.NewBlock(2, []phpast.Node{thenAssign}))
	ifStmt.Else = phpast.NewElse(3, phpast.NewBlock(3, []phpast.Node{elseAssign}))
	evalCall := phpast.NewEval(4, phpast.NewVariable(4, "$x"))

	findings := scanNodes([]phpast.Node{assignSafe, ifStmt, evalCall}, []string{"eval"}, 4, nil)

	assert.Empty(t, findings, "the different-origin then-branch must stop branch checking before the else branch's $_GET assignment is ever consulted")
}

func TestTernarySinkTracesBothArms(t *testing.T) {
	// <?php eval($safe ? $_GET['a'] : "literal"); ?> — only the controlled
	// arm should produce a finding, proving both arms were visited
	// independently rather than the ternary being treated as one symbol.
	cond := phpast.NewVariable(1, "$flag")
	ternary := phpast.NewTernaryOp(1, cond,
		phpast.NewArrayOffset(1, phpast.NewVariable(1, "$_GET"), phpast.NewLiteral(1, "'a'")),
		phpast.NewLiteral(1, `"literal"`))
	evalCall := phpast.NewEval(1, ternary)

	findings := scanNodes([]phpast.Node{evalCall}, []string{"eval"}, 1, nil)

	if assert.Len(t, findings, 1) {
		assert.Equal(t, Controlled, findings[0].Code)
	}
}
