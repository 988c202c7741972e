// Package engine rewrites target-script text in a program tree into calls of
// the form fn("hash") or fn("hash", [args...]) and reports every replaced
// phrase to a collector.
package engine

import (
	"fmt"

	"auto-i18n/internal/syntax"
	"auto-i18n/internal/textutil"
)

// ErrMalformedSyntax is returned when a visited node lacks a required child.
var ErrMalformedSyntax = syntax.ErrMalformedSyntax

// SyntaxError names the node kind and field that failed validation.
type SyntaxError = syntax.SyntaxError

// CollectFunc receives each replaced phrase. args holds the original
// sub-expressions in placeholder order and must not be modified.
type CollectFunc func(hash, text string, args []syntax.Node)

// Options configures the rewrite rules.
type Options struct {
	// TranslateFunc is the callee name of generated lookup calls.
	TranslateFunc string
	// EnableConcatenation turns on flattening of "+" chains.
	EnableConcatenation bool
	// EnableDirectiveFilter excludes compiled template directive expressions.
	EnableDirectiveFilter bool
	// BuilderMethod is the method name of string builder chains ("a".concat(b)).
	BuilderMethod string
	// Detector decides what counts as target-script text.
	Detector *textutil.Detector
}

// DefaultOptions returns the stock rule configuration.
func DefaultOptions() Options {
	return Options{
		TranslateFunc:         "$t",
		EnableConcatenation:   false,
		EnableDirectiveFilter: true,
		BuilderMethod:         "concat",
		Detector:              textutil.NewDetector(),
	}
}

// Engine applies the rewrite rules to trees. It holds no per-tree state and is
// safe for concurrent use.
type Engine struct {
	opts Options
}

// New creates an engine, filling unset options with defaults.
func New(opts Options) *Engine {
	def := DefaultOptions()
	if opts.TranslateFunc == "" {
		opts.TranslateFunc = def.TranslateFunc
	}
	if opts.BuilderMethod == "" {
		opts.BuilderMethod = def.BuilderMethod
	}
	if opts.Detector == nil {
		opts.Detector = def.Detector
	}
	return &Engine{opts: opts}
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// Run rewrites root in place and returns the new root, which differs from
// root only when root itself was replaced. On error the tree may be partially
// rewritten and should be discarded.
func (e *Engine) Run(root syntax.Node, collect CollectFunc) (syntax.Node, error) {
	if root == nil {
		return nil, fmt.Errorf("run engine: %w", ErrMalformedSyntax)
	}
	if collect == nil {
		collect = func(string, string, []syntax.Node) {}
	}

	t := &traversal{
		opts:    e.opts,
		collect: collect,
	}
	if e.opts.EnableDirectiveFilter {
		t.ignore = directiveExpressions(root)
	}

	if err := t.visit(&root); err != nil {
		return root, err
	}
	return root, nil
}

type traversal struct {
	opts    Options
	collect CollectFunc
	ignore  map[syntax.Node]struct{}
}

// moduleSourceKinds hold a "source" string that names a module, not text.
var moduleSourceKinds = map[syntax.Kind]bool{
	"ImportDeclaration":      true,
	"ExportNamedDeclaration": true,
	"ExportAllDeclaration":   true,
}

func (t *traversal) visit(slot *syntax.Node) error {
	n := *slot
	if n == nil {
		return nil
	}
	if err := syntax.Validate(n); err != nil {
		return err
	}
	if t.isLookupCall(n) {
		return nil
	}

	if call := t.apply(n); call != nil {
		*slot = call
		if len(call.Arguments) == 2 {
			return t.visit(&call.Arguments[1])
		}
		return nil
	}

	var skip *syntax.Node
	switch n := n.(type) {
	case *syntax.ObjectProperty:
		if !n.Computed {
			skip = &n.Key
		}
	case *syntax.Generic:
		if moduleSourceKinds[n.Kind()] {
			if v, ok := n.Get("source"); ok && v.Node != nil {
				skip = &v.Node
			}
		}
	}

	for _, child := range syntax.Slots(n) {
		if child == skip {
			continue
		}
		if err := t.visit(child); err != nil {
			return err
		}
	}
	return nil
}

// apply runs the rule for n's kind and returns the replacement, if any.
func (t *traversal) apply(n syntax.Node) *syntax.CallExpression {
	if _, ignored := t.ignore[n]; ignored {
		return nil
	}

	switch n := n.(type) {
	case *syntax.StringLiteral:
		return t.replace(n.Value, nil)

	case *syntax.TemplateLiteral:
		text, args := composeTemplate(n)
		return t.replace(text, args)

	case *syntax.BinaryExpression:
		if !t.opts.EnableConcatenation || n.Operator != "+" {
			return nil
		}
		operands := flattenConcat(n)
		if !hasLiteral(operands) {
			return nil
		}
		text, args := compose(operands)
		return t.replace(text, args)

	case *syntax.CallExpression:
		operands, ok := unwindBuilder(n, t.opts.BuilderMethod)
		if !ok {
			return nil
		}
		text, args := compose(operands)
		return t.replace(text, args)

	case *syntax.TemplateElement, *syntax.MemberExpression, *syntax.Identifier,
		*syntax.ObjectExpression, *syntax.ObjectProperty, *syntax.ArrayExpression,
		*syntax.Generic:
		return nil
	}
	return nil
}

// replace collects text and builds its lookup call. It returns nil when text
// has no target-script character.
func (t *traversal) replace(text string, args []syntax.Node) *syntax.CallExpression {
	if !t.opts.Detector.ContainsTarget(text) {
		return nil
	}

	hash := textutil.Hash(text)
	t.collect(hash, text, args)

	call := syntax.Call(syntax.Ident(t.opts.TranslateFunc), syntax.Str(hash))
	if len(args) > 0 {
		elements := make([]syntax.Node, len(args))
		copy(elements, args)
		call.Arguments = append(call.Arguments, syntax.Array(elements...))
	}
	return call
}

// isLookupCall reports whether n already has the shape replace produces.
func (t *traversal) isLookupCall(n syntax.Node) bool {
	call, ok := n.(*syntax.CallExpression)
	if !ok {
		return false
	}
	callee, ok := call.Callee.(*syntax.Identifier)
	if !ok || callee.Name != t.opts.TranslateFunc {
		return false
	}
	switch len(call.Arguments) {
	case 1:
	case 2:
		if _, ok := call.Arguments[1].(*syntax.ArrayExpression); !ok {
			return false
		}
	default:
		return false
	}
	_, ok = call.Arguments[0].(*syntax.StringLiteral)
	return ok
}
