package engine

import "auto-i18n/internal/syntax"

// directiveFields are the keys every element of a compiled template
// "directives" array carries.
var directiveFields = []string{"name", "rawName", "value", "expression"}

// directiveExpressions finds properties of the shape
//
//	directives: [{name, rawName, value, expression}, ...]
//
// and returns the set of "expression" values, which hold template source text
// rather than user-visible text. The tree is not modified.
func directiveExpressions(root syntax.Node) map[syntax.Node]struct{} {
	ignore := make(map[syntax.Node]struct{})
	syntax.Walk(root, func(n syntax.Node) bool {
		prop, ok := n.(*syntax.ObjectProperty)
		if !ok || prop.Computed {
			return true
		}
		if name, ok := syntax.PropertyName(prop.Key); !ok || name != "directives" {
			return true
		}
		list, ok := prop.Value.(*syntax.ArrayExpression)
		if !ok {
			return true
		}

		var exprs []syntax.Node
		for _, el := range list.Elements {
			obj, ok := el.(*syntax.ObjectExpression)
			if !ok {
				return true
			}
			props := propertiesByName(obj)
			for _, f := range directiveFields {
				if _, ok := props[f]; !ok {
					return true
				}
			}
			exprs = append(exprs, props["expression"].Value)
		}

		for _, e := range exprs {
			ignore[e] = struct{}{}
		}
		return true
	})
	return ignore
}

func propertiesByName(obj *syntax.ObjectExpression) map[string]*syntax.ObjectProperty {
	props := make(map[string]*syntax.ObjectProperty, len(obj.Properties))
	for _, p := range obj.Properties {
		prop, ok := p.(*syntax.ObjectProperty)
		if !ok || prop.Computed {
			continue
		}
		if name, ok := syntax.PropertyName(prop.Key); ok {
			if _, seen := props[name]; !seen {
				props[name] = prop
			}
		}
	}
	return props
}
