package phpparse

// Tree-sitter-php node kind and field-name vocabulary the extractor
// switches on, driving extractor.go's typed node.Type() switch.
const (
	nodeExpressionStatement = "expression_statement"
	nodeEchoStatement       = "echo_statement"
	nodeReturnStatement     = "return_statement"
	nodeIfStatement         = "if_statement"
	nodeForStatement        = "for_statement"
	nodeWhileStatement      = "while_statement"
	nodeFunctionDefinition  = "function_definition"
	nodeClassDeclaration    = "class_declaration"
	nodeMethodDeclaration   = "method_declaration"
	nodeCompoundStatement   = "compound_statement"
	nodeElseIfClause        = "else_if_clause"
	nodeElseifClause        = "elseif_clause"
	nodeElseClause          = "else_clause"

	nodeParenthesizedExpression    = "parenthesized_expression"
	nodeVariableName               = "variable_name"
	nodeAssignmentExpression       = "assignment_expression"
	nodeAugmentedAssignExpression  = "augmented_assignment_expression"
	nodeBinaryExpression           = "binary_expression"
	nodeConditionalExpression      = "conditional_expression"
	nodeCastExpression             = "cast_expression"
	nodeErrorSuppressionExpression = "error_suppression_expression"
	nodeSubscriptExpression        = "subscript_expression"
	nodeMemberAccessExpression     = "member_access_expression"
	nodeMemberCallExpression       = "member_call_expression"
	nodeObjectCreationExpression   = "object_creation_expression"
	nodeFunctionCallExpression     = "function_call_expression"
	nodeIncludeExpression          = "include_expression"
	nodeIncludeOnceExpression      = "include_once_expression"
	nodeRequireExpression          = "require_expression"
	nodeRequireOnceExpression      = "require_once_expression"
	nodePrintIntrinsic             = "print_intrinsic"
	nodeArrayCreationExpression    = "array_creation_expression"
	nodeArrayElementInitializer    = "array_element_initializer"
	nodeName                       = "name"
	nodeQualifiedName              = "qualified_name"
	nodeString                     = "string"
	nodeEncapsedString             = "encapsed_string"
	nodeInteger                    = "integer"
	nodeFloat                      = "float"
	nodeBoolean                    = "boolean"
	nodeNull                       = "null"

	nodeSimpleParameter            = "simple_parameter"
	nodePropertyPromotionParameter = "property_promotion_parameter"
	nodeVariadicParameter          = "variadic_parameter"
	nodeArgument                   = "argument"
	nodeStaticModifier             = "static_modifier"
	nodeVisibilityModifier         = "visibility_modifier"
	nodeReferenceModifier          = "reference_modifier"

	fieldLeft           = "left"
	fieldRight          = "right"
	fieldOperator       = "operator"
	fieldCondition      = "condition"
	fieldBody           = "body"
	fieldAlternative    = "alternative"
	fieldObject         = "object"
	fieldFunction       = "function"
	fieldName           = "name"
	fieldArguments      = "arguments"
	fieldArray          = "array"
	fieldIndex          = "index"
	fieldType           = "type"
	fieldValue          = "value"
	fieldKey            = "key"
	fieldClass          = "class"
	fieldClassType      = "class_type"
	fieldInitialize     = "initialize"
	fieldUpdate         = "update"
	fieldParameters     = "parameters"
	fieldDefaultValue   = "default_value"
	fieldBaseClause     = "base_clause"
)
