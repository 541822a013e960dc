package expression

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

// ColumnResolver maps a field reference ("Surname" or "RegistryPage.Title")
// to a qualified SQL column. It rejects unknown fields.
type ColumnResolver func(name string) (string, error)

// SQLWalker converts an expr AST to a parameterised SQL condition.
// Only constructs with the same meaning in MySQL and SQLite are accepted.
type SQLWalker struct {
	builder strings.Builder
	args    []interface{}
	resolve ColumnResolver
	err     error
}

// isNilNode checks if a node represents a null/nil value
// In expr-lang, null can be either a NilNode or an IdentifierNode with value "null", "nil", or "NULL"
func isNilNode(node ast.Node) bool {
	if _, ok := node.(*ast.NilNode); ok {
		return true
	}
	if id, ok := node.(*ast.IdentifierNode); ok {
		val := strings.ToLower(id.Value)
		return val == "null" || val == "nil"
	}
	return false
}

// ToSQL converts an expression string to a SQL WHERE clause and arguments.
// A nil resolver quotes identifiers as-is.
func ToSQL(expression string, resolve ColumnResolver) (string, []interface{}, error) {
	tree, err := parser.Parse(expression)
	if err != nil {
		return "", nil, fmt.Errorf("failed to parse expression: %w", err)
	}

	if resolve == nil {
		resolve = quoteOnly
	}

	walker := &SQLWalker{
		args:    make([]interface{}, 0),
		resolve: resolve,
	}

	walker.walk(&tree.Node)

	if walker.err != nil {
		return "", nil, walker.err
	}

	return walker.builder.String(), walker.args, nil
}

func quoteOnly(name string) (string, error) {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = "`" + strings.ReplaceAll(p, "`", "``") + "`"
	}
	return strings.Join(parts, "."), nil
}

func (w *SQLWalker) walk(node *ast.Node) {
	if w.err != nil {
		return
	}
	if node == nil || *node == nil {
		return
	}

	n := *node

	switch v := n.(type) {
	case *ast.BinaryNode:
		w.visitBinary(v)
	case *ast.UnaryNode:
		w.visitUnary(v)
	case *ast.IdentifierNode:
		w.writeColumn(v.Value)
	case *ast.MemberNode:
		path, ok := memberPath(v)
		if !ok {
			w.err = fmt.Errorf("unsupported member access")
			return
		}
		w.writeColumn(path)
	case *ast.IntegerNode:
		w.builder.WriteString("?")
		w.args = append(w.args, v.Value)
	case *ast.FloatNode:
		w.builder.WriteString("?")
		w.args = append(w.args, v.Value)
	case *ast.StringNode:
		w.builder.WriteString("?")
		w.args = append(w.args, v.Value)
	case *ast.BoolNode:
		w.builder.WriteString("?")
		w.args = append(w.args, v.Value)
	case *ast.NilNode:
		w.builder.WriteString("NULL")
	case *ast.CallNode:
		w.visitCall(v)
	default:
		w.err = fmt.Errorf("unsupported node type: %T", n)
	}
}

func (w *SQLWalker) writeColumn(name string) {
	col, err := w.resolve(name)
	if err != nil {
		w.err = err
		return
	}
	w.builder.WriteString(col)
}

// memberPath flattens Rel.Field into "Rel.Field"
func memberPath(node *ast.MemberNode) (string, bool) {
	prop, ok := node.Property.(*ast.StringNode)
	if !ok {
		return "", false
	}
	switch base := node.Node.(type) {
	case *ast.IdentifierNode:
		return base.Value + "." + prop.Value, true
	case *ast.MemberNode:
		parent, ok := memberPath(base)
		if !ok {
			return "", false
		}
		return parent + "." + prop.Value, true
	}
	return "", false
}

func (w *SQLWalker) visitUnary(node *ast.UnaryNode) {
	switch node.Operator {
	case "!", "not":
		w.builder.WriteString("(NOT ")
		w.walk(&node.Node)
		w.builder.WriteString(")")
	case "-":
		w.builder.WriteString("-")
		w.walk(&node.Node)
	default:
		w.err = fmt.Errorf("unsupported unary operator: %s", node.Operator)
	}
}

func (w *SQLWalker) visitBinary(node *ast.BinaryNode) {
	// Null comparisons need IS [NOT] NULL
	rightIsNil := isNilNode(node.Right)
	leftIsNil := isNilNode(node.Left)

	if rightIsNil || leftIsNil {
		var fieldNode ast.Node
		if rightIsNil {
			fieldNode = node.Left
		} else {
			fieldNode = node.Right
		}

		w.builder.WriteString("(")
		w.walk(&fieldNode)
		switch node.Operator {
		case "==":
			w.builder.WriteString(" IS NULL")
		case "!=":
			w.builder.WriteString(" IS NOT NULL")
		default:
			w.err = fmt.Errorf("unsupported operator for null comparison: %s", node.Operator)
		}
		w.builder.WriteString(")")
		return
	}

	if node.Operator == "in" || node.Operator == "not in" {
		w.visitIn(node)
		return
	}

	var op string
	switch node.Operator {
	case "==":
		op = "="
	case "&&", "and":
		op = "AND"
	case "||", "or":
		op = "OR"
	case "!=", "<", ">", "<=", ">=", "+", "-", "*", "/":
		op = node.Operator
	default:
		w.err = fmt.Errorf("unsupported operator: %s", node.Operator)
		return
	}

	w.builder.WriteString("(")
	w.walk(&node.Left)
	w.builder.WriteString(" " + op + " ")
	w.walk(&node.Right)
	w.builder.WriteString(")")
}

// visitIn renders Field in ["a", "b"] as Field IN (?, ?)
func (w *SQLWalker) visitIn(node *ast.BinaryNode) {
	arr, ok := node.Right.(*ast.ArrayNode)
	if !ok || len(arr.Nodes) == 0 {
		w.err = fmt.Errorf("%s requires a non-empty array literal", node.Operator)
		return
	}

	w.builder.WriteString("(")
	w.walk(&node.Left)
	if node.Operator == "not in" {
		w.builder.WriteString(" NOT IN (")
	} else {
		w.builder.WriteString(" IN (")
	}
	w.walkArgs(arr.Nodes)
	w.builder.WriteString("))")
}

func (w *SQLWalker) visitCall(node *ast.CallNode) {
	callee, ok := node.Callee.(*ast.IdentifierNode)
	if !ok {
		w.err = fmt.Errorf("unsupported callee type: %T", node.Callee)
		return
	}

	fnName := strings.ToUpper(callee.Value)

	switch fnName {
	case "UPPER", "LOWER":
		if len(node.Arguments) != 1 {
			w.err = fmt.Errorf("%s requires 1 argument", fnName)
			return
		}
		w.builder.WriteString(fnName + "(")
		w.walkArgs(node.Arguments)
		w.builder.WriteString(")")

	case "LEN":
		if len(node.Arguments) != 1 {
			w.err = fmt.Errorf("LEN requires 1 argument")
			return
		}
		w.builder.WriteString("LENGTH(")
		w.walkArgs(node.Arguments)
		w.builder.WriteString(")")

	case "CONTAINS":
		w.visitLike(node, "CONTAINS", "%", "%")

	case "STARTS_WITH":
		w.visitLike(node, "STARTS_WITH", "", "%")

	case "ENDS_WITH":
		w.visitLike(node, "ENDS_WITH", "%", "")

	default:
		w.err = fmt.Errorf("unsupported function: %s", callee.Value)
	}
}

// visitLike renders FN(field, 'text') as field LIKE ? with the pattern bound
func (w *SQLWalker) visitLike(node *ast.CallNode, fn, prefix, suffix string) {
	if len(node.Arguments) != 2 {
		w.err = fmt.Errorf("%s requires 2 arguments", fn)
		return
	}
	strArg, ok := node.Arguments[1].(*ast.StringNode)
	if !ok {
		w.err = fmt.Errorf("%s second argument must be a string", fn)
		return
	}

	w.builder.WriteString("(")
	arg0 := node.Arguments[0]
	w.walk(&arg0)
	w.builder.WriteString(" LIKE ?)")
	w.args = append(w.args, prefix+strArg.Value+suffix)
}

// Helper to walk multiple args with comma separation
func (w *SQLWalker) walkArgs(args []ast.Node) {
	for i, arg := range args {
		if i > 0 {
			w.builder.WriteString(", ")
		}
		argNode := arg
		w.walk(&argNode)
	}
}
