package syntax

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Decode parses a Babel/ESTree JSON document into a tree.
func Decode(data []byte) (Node, error) {
	n, err := decodeNode(json.RawMessage(data))
	if err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	return n, nil
}

// Encode serializes a tree back to JSON. Decoded fields keep their original
// order; fields of nodes created in memory follow "type".
func Encode(n Node) ([]byte, error) {
	v, err := encodeNode(n)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tree: %w", err)
	}
	return data, nil
}

func firstByte(raw json.RawMessage) byte {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// nodeType returns the "type" of a JSON object, if it looks like a node.
func nodeType(raw json.RawMessage) (string, bool) {
	if firstByte(raw) != '{' {
		return "", false
	}
	var probe struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil || probe.Type == nil || *probe.Type == "" {
		return "", false
	}
	return *probe.Type, true
}

func decodeNode(raw json.RawMessage) (Node, error) {
	typ, ok := nodeType(raw)
	if !ok {
		return nil, fmt.Errorf("value is not a node object")
	}

	fields := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(raw, fields); err != nil {
		return nil, fmt.Errorf("decode %s: %w", typ, err)
	}

	kind := Kind(typ)
	a := attrs{fields: fields}

	switch kind {
	case KindStringLiteral:
		value, err := decodeString(fields, kind, "value")
		if err != nil {
			return nil, err
		}
		return &StringLiteral{attrs: a, Value: value}, nil

	case KindTemplateElement:
		return decodeTemplateElement(fields, a)

	case KindTemplateLiteral:
		quasis, err := decodeList(fields, kind, "quasis")
		if err != nil {
			return nil, err
		}
		exprs, err := decodeList(fields, kind, "expressions")
		if err != nil {
			return nil, err
		}
		tl := &TemplateLiteral{attrs: a, Expressions: exprs}
		for _, q := range quasis {
			te, ok := q.(*TemplateElement)
			if !ok {
				return nil, malformed(kind, "quasis")
			}
			tl.Quasis = append(tl.Quasis, te)
		}
		return tl, nil

	case KindBinaryExpression:
		op, err := decodeString(fields, kind, "operator")
		if err != nil {
			return nil, err
		}
		left, err := decodeChild(fields, kind, "left")
		if err != nil {
			return nil, err
		}
		right, err := decodeChild(fields, kind, "right")
		if err != nil {
			return nil, err
		}
		return &BinaryExpression{attrs: a, Operator: op, Left: left, Right: right}, nil

	case KindCallExpression:
		callee, err := decodeChild(fields, kind, "callee")
		if err != nil {
			return nil, err
		}
		args, err := decodeList(fields, kind, "arguments")
		if err != nil {
			return nil, err
		}
		return &CallExpression{attrs: a, Callee: callee, Arguments: args}, nil

	case KindMemberExpression:
		object, err := decodeChild(fields, kind, "object")
		if err != nil {
			return nil, err
		}
		property, err := decodeChild(fields, kind, "property")
		if err != nil {
			return nil, err
		}
		return &MemberExpression{attrs: a, Object: object, Property: property, Computed: decodeBool(fields, "computed")}, nil

	case KindIdentifier:
		name, err := decodeString(fields, kind, "name")
		if err != nil {
			return nil, err
		}
		return &Identifier{attrs: a, Name: name}, nil

	case KindObjectExpression:
		props, err := decodeList(fields, kind, "properties")
		if err != nil {
			return nil, err
		}
		return &ObjectExpression{attrs: a, Properties: props}, nil

	case KindObjectProperty:
		key, err := decodeChild(fields, kind, "key")
		if err != nil {
			return nil, err
		}
		value, err := decodeChild(fields, kind, "value")
		if err != nil {
			return nil, err
		}
		return &ObjectProperty{attrs: a, Key: key, Value: value, Computed: decodeBool(fields, "computed")}, nil

	case KindArrayExpression:
		elements, err := decodeList(fields, kind, "elements")
		if err != nil {
			return nil, err
		}
		return &ArrayExpression{attrs: a, Elements: elements}, nil
	}

	return decodeGeneric(typ, fields)
}

func decodeGeneric(typ string, fields *Fields) (*Generic, error) {
	g := NewGeneric(typ)
	for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key == "type" {
			continue
		}
		v, err := decodeValue(pair.Value)
		if err != nil {
			return nil, fmt.Errorf("decode %s.%s: %w", typ, pair.Key, err)
		}
		g.Fields.Set(pair.Key, v)
	}
	return g, nil
}

// decodeValue classifies a generic field as a child, a child list, or raw JSON.
func decodeValue(raw json.RawMessage) (*Value, error) {
	switch firstByte(raw) {
	case '{':
		if _, ok := nodeType(raw); ok {
			n, err := decodeNode(raw)
			if err != nil {
				return nil, err
			}
			return &Value{Node: n}, nil
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		for _, item := range items {
			if isNull(item) {
				continue
			}
			if _, ok := nodeType(item); !ok {
				return &Value{Raw: raw}, nil
			}
		}
		list := make([]Node, len(items))
		for i, item := range items {
			if isNull(item) {
				continue
			}
			n, err := decodeNode(item)
			if err != nil {
				return nil, err
			}
			list[i] = n
		}
		return &Value{List: list, IsList: true}, nil
	}
	return &Value{Raw: raw}, nil
}

func decodeString(fields *Fields, kind Kind, name string) (string, error) {
	raw, ok := fields.Get(name)
	if !ok {
		return "", malformed(kind, name)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", malformed(kind, name)
	}
	return s, nil
}

func decodeBool(fields *Fields, name string) bool {
	raw, ok := fields.Get(name)
	if !ok {
		return false
	}
	var b bool
	_ = json.Unmarshal(raw, &b)
	return b
}

func decodeChild(fields *Fields, kind Kind, name string) (Node, error) {
	raw, ok := fields.Get(name)
	if !ok || isNull(raw) {
		return nil, malformed(kind, name)
	}
	n, err := decodeNode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", malformed(kind, name), err)
	}
	return n, nil
}

func decodeList(fields *Fields, kind Kind, name string) ([]Node, error) {
	raw, ok := fields.Get(name)
	if !ok || firstByte(raw) != '[' {
		return nil, malformed(kind, name)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, malformed(kind, name)
	}
	list := make([]Node, len(items))
	for i, item := range items {
		if isNull(item) {
			continue
		}
		n, err := decodeNode(item)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", malformed(kind, name), err)
		}
		list[i] = n
	}
	return list, nil
}

func decodeTemplateElement(fields *Fields, a attrs) (*TemplateElement, error) {
	raw, ok := fields.Get("value")
	if !ok {
		return nil, malformed(KindTemplateElement, "value")
	}
	var value struct {
		Raw    *string `json:"raw"`
		Cooked *string `json:"cooked"`
	}
	if err := json.Unmarshal(raw, &value); err != nil || value.Raw == nil {
		return nil, malformed(KindTemplateElement, "value")
	}
	te := &TemplateElement{attrs: a, Raw: *value.Raw, Tail: decodeBool(fields, "tail")}
	if value.Cooked != nil {
		te.Cooked = *value.Cooked
	}
	return te, nil
}

func encodeNode(n Node) (any, error) {
	if n == nil {
		return nil, nil
	}

	out := orderedmap.New[string, any]()
	out.Set("type", string(n.Kind()))
	if f := n.Attrs(); f != nil {
		for pair := f.Oldest(); pair != nil; pair = pair.Next() {
			if pair.Key != "type" {
				out.Set(pair.Key, pair.Value)
			}
		}
	}

	var err error
	switch n := n.(type) {
	case *StringLiteral:
		out.Set("value", n.Value)
	case *TemplateElement:
		value := orderedmap.New[string, any]()
		value.Set("raw", n.Raw)
		value.Set("cooked", n.Cooked)
		out.Set("value", value)
		out.Set("tail", n.Tail)
	case *TemplateLiteral:
		quasis := make([]Node, len(n.Quasis))
		for i, q := range n.Quasis {
			quasis[i] = q
		}
		err = setList(out, "quasis", quasis)
		if err == nil {
			err = setList(out, "expressions", n.Expressions)
		}
	case *BinaryExpression:
		err = setChild(out, "left", n.Left)
		out.Set("operator", n.Operator)
		if err == nil {
			err = setChild(out, "right", n.Right)
		}
	case *CallExpression:
		err = setChild(out, "callee", n.Callee)
		if err == nil {
			err = setList(out, "arguments", n.Arguments)
		}
	case *MemberExpression:
		err = setChild(out, "object", n.Object)
		if err == nil {
			err = setChild(out, "property", n.Property)
		}
		out.Set("computed", n.Computed)
	case *Identifier:
		out.Set("name", n.Name)
	case *ObjectExpression:
		err = setList(out, "properties", n.Properties)
	case *ObjectProperty:
		err = setChild(out, "key", n.Key)
		out.Set("computed", n.Computed)
		if err == nil {
			err = setChild(out, "value", n.Value)
		}
	case *ArrayExpression:
		err = setList(out, "elements", n.Elements)
	case *Generic:
		for pair := n.Fields.Oldest(); pair != nil && err == nil; pair = pair.Next() {
			v := pair.Value
			switch {
			case v.Node != nil:
				err = setChild(out, pair.Key, v.Node)
			case v.IsList:
				err = setList(out, pair.Key, v.List)
			default:
				out.Set(pair.Key, v.Raw)
			}
		}
	default:
		return nil, fmt.Errorf("encode: unsupported node type %T", n)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func setChild(out *orderedmap.OrderedMap[string, any], key string, child Node) error {
	v, err := encodeNode(child)
	if err != nil {
		return err
	}
	out.Set(key, v)
	return nil
}

func setList(out *orderedmap.OrderedMap[string, any], key string, nodes []Node) error {
	list := make([]any, len(nodes))
	for i, child := range nodes {
		v, err := encodeNode(child)
		if err != nil {
			return err
		}
		list[i] = v
	}
	out.Set(key, list)
	return nil
}
