package engine

import (
	"strconv"
	"strings"

	"auto-i18n/internal/syntax"

	"github.com/ef-ds/deque"
)

// composeTemplate joins the raw quasis of a template literal with a {i}
// placeholder for each embedded expression.
func composeTemplate(n *syntax.TemplateLiteral) (string, []syntax.Node) {
	var b strings.Builder
	for i, q := range n.Quasis {
		b.WriteString(q.Raw)
		if i < len(n.Expressions) {
			writePlaceholder(&b, i)
		}
	}
	return b.String(), n.Expressions
}

// compose assembles an operand list: literal operands contribute their text,
// every other operand becomes the next positional placeholder and argument.
func compose(operands []syntax.Node) (string, []syntax.Node) {
	var b strings.Builder
	var args []syntax.Node
	for _, op := range operands {
		if lit, ok := op.(*syntax.StringLiteral); ok {
			b.WriteString(lit.Value)
			continue
		}
		writePlaceholder(&b, len(args))
		args = append(args, op)
	}
	return b.String(), args
}

func writePlaceholder(b *strings.Builder, i int) {
	b.WriteByte('{')
	b.WriteString(strconv.Itoa(i))
	b.WriteByte('}')
}

func hasLiteral(operands []syntax.Node) bool {
	for _, op := range operands {
		if _, ok := op.(*syntax.StringLiteral); ok {
			return true
		}
	}
	return false
}

func allLiterals(operands []syntax.Node) bool {
	for _, op := range operands {
		if _, ok := op.(*syntax.StringLiteral); !ok {
			return false
		}
	}
	return len(operands) > 0
}

func isConcat(n syntax.Node) (*syntax.BinaryExpression, bool) {
	b, ok := n.(*syntax.BinaryExpression)
	if !ok || b.Operator != "+" || b.Left == nil || b.Right == nil {
		return nil, false
	}
	return b, true
}

// flattenConcat walks the left spine of a "+" chain, prepending each right
// operand, and finally prepends the leftmost non-"+" operand. A right operand
// that is itself a "+" chain of literals only is spliced in, which keeps
// ("a"+"中")+"b" and "a"+("中"+"b") equal. Any other operator ends the chain
// and becomes a single operand.
func flattenConcat(n *syntax.BinaryExpression) []syntax.Node {
	operands := deque.New()
	cur := n
	for {
		pushOperand(operands, cur.Right)
		left, ok := isConcat(cur.Left)
		if !ok {
			operands.PushFront(cur.Left)
			break
		}
		cur = left
	}
	return drain(operands)
}

func pushOperand(operands *deque.Deque, right syntax.Node) {
	if inner, ok := isConcat(right); ok {
		parts := flattenConcat(inner)
		if allLiterals(parts) {
			for i := len(parts) - 1; i >= 0; i-- {
				operands.PushFront(parts[i])
			}
			return
		}
	}
	operands.PushFront(right)
}

// unwindBuilder matches "s".m(a).m(b, c) for builder method m and returns
// ["s", a, b, c]. The innermost receiver must be a string literal.
func unwindBuilder(call *syntax.CallExpression, method string) ([]syntax.Node, bool) {
	operands := deque.New()
	var cur syntax.Node = call
	for {
		c, ok := cur.(*syntax.CallExpression)
		if !ok {
			return nil, false
		}
		member, ok := c.Callee.(*syntax.MemberExpression)
		if !ok || member.Computed {
			return nil, false
		}
		prop, ok := member.Property.(*syntax.Identifier)
		if !ok || prop.Name != method {
			return nil, false
		}
		for i := len(c.Arguments) - 1; i >= 0; i-- {
			operands.PushFront(c.Arguments[i])
		}
		if lit, ok := member.Object.(*syntax.StringLiteral); ok {
			operands.PushFront(lit)
			return drain(operands), true
		}
		cur = member.Object
	}
}

func drain(d *deque.Deque) []syntax.Node {
	out := make([]syntax.Node, 0, d.Len())
	for d.Len() > 0 {
		v, _ := d.PopFront()
		out = append(out, v.(syntax.Node))
	}
	return out
}
