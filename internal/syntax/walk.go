package syntax

import (
	"errors"
	"fmt"
)

// ErrMalformedSyntax is returned when a node lacks a child its kind requires.
var ErrMalformedSyntax = errors.New("malformed syntax")

// SyntaxError names the node kind and the missing or invalid field.
type SyntaxError struct {
	Kind  Kind
	Field string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s node has no valid %q", ErrMalformedSyntax, e.Kind, e.Field)
}

func (e *SyntaxError) Unwrap() error { return ErrMalformedSyntax }

func malformed(kind Kind, field string) error {
	return &SyntaxError{Kind: kind, Field: field}
}

// Validate checks that n carries the children its kind requires. It does not
// descend.
func Validate(n Node) error {
	switch n := n.(type) {
	case *StringLiteral, *Identifier, *Generic:
		return nil
	case *TemplateElement:
		return nil
	case *TemplateLiteral:
		if len(n.Quasis) != len(n.Expressions)+1 {
			return malformed(n.Kind(), "quasis")
		}
		for _, q := range n.Quasis {
			if q == nil {
				return malformed(n.Kind(), "quasis")
			}
		}
		for _, e := range n.Expressions {
			if e == nil {
				return malformed(n.Kind(), "expressions")
			}
		}
	case *BinaryExpression:
		if n.Operator == "" {
			return malformed(n.Kind(), "operator")
		}
		if n.Left == nil {
			return malformed(n.Kind(), "left")
		}
		if n.Right == nil {
			return malformed(n.Kind(), "right")
		}
	case *CallExpression:
		if n.Callee == nil {
			return malformed(n.Kind(), "callee")
		}
		for _, a := range n.Arguments {
			if a == nil {
				return malformed(n.Kind(), "arguments")
			}
		}
	case *MemberExpression:
		if n.Object == nil {
			return malformed(n.Kind(), "object")
		}
		if n.Property == nil {
			return malformed(n.Kind(), "property")
		}
	case *ObjectExpression:
		for _, p := range n.Properties {
			if p == nil {
				return malformed(n.Kind(), "properties")
			}
		}
	case *ObjectProperty:
		if n.Key == nil {
			return malformed(n.Kind(), "key")
		}
		if n.Value == nil {
			return malformed(n.Kind(), "value")
		}
	case *ArrayExpression:
		return nil
	default:
		return fmt.Errorf("unsupported node type %T", n)
	}
	return nil
}

// Slots returns pointers to the child positions of n in traversal order.
// Writing through a slot replaces that child. Template quasis are leaves and
// are not exposed.
func Slots(n Node) []*Node {
	var slots []*Node
	switch n := n.(type) {
	case *TemplateLiteral:
		for i := range n.Expressions {
			slots = append(slots, &n.Expressions[i])
		}
	case *BinaryExpression:
		slots = append(slots, &n.Left, &n.Right)
	case *CallExpression:
		slots = append(slots, &n.Callee)
		for i := range n.Arguments {
			slots = append(slots, &n.Arguments[i])
		}
	case *MemberExpression:
		slots = append(slots, &n.Object, &n.Property)
	case *ObjectExpression:
		for i := range n.Properties {
			slots = append(slots, &n.Properties[i])
		}
	case *ObjectProperty:
		slots = append(slots, &n.Key, &n.Value)
	case *ArrayExpression:
		for i := range n.Elements {
			slots = append(slots, &n.Elements[i])
		}
	case *Generic:
		for pair := n.Fields.Oldest(); pair != nil; pair = pair.Next() {
			v := pair.Value
			switch {
			case v.Node != nil:
				slots = append(slots, &v.Node)
			case v.IsList:
				for i := range v.List {
					slots = append(slots, &v.List[i])
				}
			}
		}
	}
	return slots
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, slot := range Slots(n) {
		Walk(*slot, fn)
	}
}
