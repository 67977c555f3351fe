package taint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taintwave/phpsentinel/pkg/phpast"
)

func TestClassifySuperglobal(t *testing.T) {
	v := Classify(phpast.NewVariable(5, "$_POST"))
	assert.Equal(t, Controlled, v.Code)
}

func TestClassifyServerIsExcluded(t *testing.T) {
	v := Classify(phpast.NewVariable(5, "$_SERVER"))
	assert.NotEqual(t, Controlled, v.Code)
	assert.Equal(t, Unknown, v.Code)
}

func TestClassifyOrdinaryVariableIsUnknown(t *testing.T) {
	v := Classify(phpast.NewVariable(5, "$name"))
	assert.Equal(t, Unknown, v.Code)
}

func TestClassifyLiteralIsUncontrolled(t *testing.T) {
	v := Classify(phpast.NewLiteral(5, `"hi"`))
	assert.Equal(t, Uncontrolled, v.Code)
}

func TestClassifyCallResultDefersToCaller(t *testing.T) {
	v := Classify(phpast.NewFunctionCall(5, "getInput", nil))
	assert.Equal(t, Unknown, v.Code)
}

func TestClassifyArrayOffsetUsesBaseName(t *testing.T) {
	v := Classify(phpast.NewArrayOffset(5, phpast.NewVariable(5, "$_FILES"), phpast.NewLiteral(5, "'f'")))
	assert.Equal(t, Controlled, v.Code)
}

func TestClassifyEnvironmentSourceFunctionDefersToCaller(t *testing.T) {
	// getenv() is an unconditional external source in practice, but
	// Classify never short-circuits a FunctionCall to CONTROLLED by name
	// alone — only the superglobal set does that; calls defer to the
	// caller.
	v := Classify(phpast.NewFunctionCall(5, "getenv", []phpast.Node{phpast.NewLiteral(5, "'PATH'")}))
	assert.Equal(t, Unknown, v.Code)
}

func TestClassifyOrdinaryFunctionCallDefersToCaller(t *testing.T) {
	v := Classify(phpast.NewFunctionCall(5, "strtoupper", nil))
	assert.Equal(t, Unknown, v.Code)
}

func TestClassifyDatabaseFetchMethodDefersToCaller(t *testing.T) {
	// Same rationale as getenv above: a MethodCall never classifies as
	// CONTROLLED by name alone, regardless of how suggestive it is.
	v := Classify(phpast.NewMethodCall(5, phpast.NewVariable(5, "$stmt"), "fetchColumn", nil))
	assert.Equal(t, Unknown, v.Code)
}

func TestClassifyOrdinaryMethodCallDefersToCaller(t *testing.T) {
	v := Classify(phpast.NewMethodCall(5, phpast.NewVariable(5, "$obj"), "getName", nil))
	assert.Equal(t, Unknown, v.Code)
}
