// Package syntax models the subset of an ESTree/Babel program tree that the
// rewrite rules inspect. Every other node kind is kept as a Generic node so a
// decoded tree can be encoded back without loss.
package syntax

import (
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind names a node variant. Values match the Babel "type" field.
type Kind string

const (
	KindStringLiteral    Kind = "StringLiteral"
	KindTemplateLiteral  Kind = "TemplateLiteral"
	KindTemplateElement  Kind = "TemplateElement"
	KindBinaryExpression Kind = "BinaryExpression"
	KindCallExpression   Kind = "CallExpression"
	KindMemberExpression Kind = "MemberExpression"
	KindIdentifier       Kind = "Identifier"
	KindObjectExpression Kind = "ObjectExpression"
	KindObjectProperty   Kind = "ObjectProperty"
	KindArrayExpression  Kind = "ArrayExpression"
)

// Fields holds the raw JSON of a node's fields in source order.
type Fields = orderedmap.OrderedMap[string, json.RawMessage]

// Node is a tree node. The set of concrete types is closed: the modelled
// kinds below plus *Generic.
type Node interface {
	Kind() Kind
	// Attrs returns the node's decoded fields, or nil for nodes built in memory.
	Attrs() *Fields
}

type attrs struct {
	fields *Fields
}

func (a *attrs) Attrs() *Fields { return a.fields }

type StringLiteral struct {
	attrs
	Value string
}

// TemplateElement is one quasi of a template literal.
type TemplateElement struct {
	attrs
	Raw    string
	Cooked string
	Tail   bool
}

type TemplateLiteral struct {
	attrs
	Quasis      []*TemplateElement
	Expressions []Node
}

type BinaryExpression struct {
	attrs
	Operator string
	Left     Node
	Right    Node
}

type CallExpression struct {
	attrs
	Callee    Node
	Arguments []Node
}

type MemberExpression struct {
	attrs
	Object   Node
	Property Node
	Computed bool
}

type Identifier struct {
	attrs
	Name string
}

type ObjectExpression struct {
	attrs
	Properties []Node
}

type ObjectProperty struct {
	attrs
	Key      Node
	Value    Node
	Computed bool
}

// ArrayExpression elements may contain nil for holes.
type ArrayExpression struct {
	attrs
	Elements []Node
}

// Value is a field of a Generic node: a single child, a child list, or raw JSON.
type Value struct {
	Node   Node
	List   []Node
	IsList bool
	Raw    json.RawMessage
}

// IsNode reports whether the value holds a single child node.
func (v *Value) IsNode() bool {
	return v.Node != nil
}

// Generic is any node kind the rules do not model.
type Generic struct {
	Type   string
	Fields *orderedmap.OrderedMap[string, *Value]
}

func (*StringLiteral) Kind() Kind    { return KindStringLiteral }
func (*TemplateElement) Kind() Kind  { return KindTemplateElement }
func (*TemplateLiteral) Kind() Kind  { return KindTemplateLiteral }
func (*BinaryExpression) Kind() Kind { return KindBinaryExpression }
func (*CallExpression) Kind() Kind   { return KindCallExpression }
func (*MemberExpression) Kind() Kind { return KindMemberExpression }
func (*Identifier) Kind() Kind       { return KindIdentifier }
func (*ObjectExpression) Kind() Kind { return KindObjectExpression }
func (*ObjectProperty) Kind() Kind   { return KindObjectProperty }
func (*ArrayExpression) Kind() Kind  { return KindArrayExpression }
func (g *Generic) Kind() Kind        { return Kind(g.Type) }
func (g *Generic) Attrs() *Fields    { return nil }

// NewGeneric creates an empty generic node of the given type.
func NewGeneric(typ string) *Generic {
	return &Generic{Type: typ, Fields: orderedmap.New[string, *Value]()}
}

// Get returns a generic field by name.
func (g *Generic) Get(name string) (*Value, bool) {
	return g.Fields.Get(name)
}

// String returns a generic string field, or "" if absent or not a string.
func (g *Generic) String(name string) string {
	v, ok := g.Fields.Get(name)
	if !ok || v.Raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(v.Raw, &s); err != nil {
		return ""
	}
	return s
}

// Str builds a StringLiteral.
func Str(value string) *StringLiteral {
	return &StringLiteral{Value: value}
}

// Ident builds an Identifier.
func Ident(name string) *Identifier {
	return &Identifier{Name: name}
}

// Call builds a CallExpression.
func Call(callee Node, args ...Node) *CallExpression {
	if args == nil {
		args = []Node{}
	}
	return &CallExpression{Callee: callee, Arguments: args}
}

// Array builds an ArrayExpression.
func Array(elements ...Node) *ArrayExpression {
	if elements == nil {
		elements = []Node{}
	}
	return &ArrayExpression{Elements: elements}
}

// Member builds a non-computed MemberExpression object.property.
func Member(object Node, property string) *MemberExpression {
	return &MemberExpression{Object: object, Property: Ident(property)}
}

// Binary builds a BinaryExpression.
func Binary(op string, left, right Node) *BinaryExpression {
	return &BinaryExpression{Operator: op, Left: left, Right: right}
}

// Template builds a TemplateLiteral from raw quasis and the expressions between them.
func Template(quasis []string, expressions ...Node) *TemplateLiteral {
	tl := &TemplateLiteral{Expressions: expressions}
	if tl.Expressions == nil {
		tl.Expressions = []Node{}
	}
	for i, q := range quasis {
		tl.Quasis = append(tl.Quasis, &TemplateElement{Raw: q, Cooked: q, Tail: i == len(quasis)-1})
	}
	return tl
}

// Object builds an ObjectExpression.
func Object(props ...Node) *ObjectExpression {
	if props == nil {
		props = []Node{}
	}
	return &ObjectExpression{Properties: props}
}

// Prop builds a non-computed ObjectProperty with an identifier key.
func Prop(key string, value Node) *ObjectProperty {
	return &ObjectProperty{Key: Ident(key), Value: value}
}

// PropertyName returns the static name of a property key: an identifier
// name or a string literal value.
func PropertyName(key Node) (string, bool) {
	switch k := key.(type) {
	case *Identifier:
		return k.Name, true
	case *StringLiteral:
		return k.Value, true
	}
	return "", false
}
