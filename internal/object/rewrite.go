// internal/object/rewrite.go
package object

import (
	"bytes"

	"reckon/internal/errors"
	"reckon/internal/runtime"
)

// The simplifier is a pattern-matching term rewriter. A rule is three
// expressions: from, to and an optional condition. Leaves whose symbol
// name begins with the wildcard sigil '&' match any subexpression and
// bind it; a wildcard used twice must bind equal subexpressions. The
// fixpoint driver repeats a rule batch until nothing fires or the
// rewrite budget runs out.

// Direction selects the traversal order of the rewriter.
type Direction int

const (
	// Down matches the syntax tree root first.
	Down Direction = iota
	// Up matches leaves first.
	Up
)

// enode is the detached tree form of an expression: leaves hold their
// own encoded bytes, so the tree survives garbage collection.
type enode struct {
	op   ID     // command for interior nodes, IDInvalid for leaves
	leaf []byte // encoded object bytes for leaves
	kids []*enode
}

// leafName returns the symbol name of a leaf, if it is a symbol.
func (n *enode) leafName(ctx *Context) (string, bool) {
	if n.op != IDInvalid || len(n.leaf) == 0 {
		return "", false
	}
	v, m := runtime.ULEB(n.leaf)
	if m == 0 || ID(v) != IDSymbol {
		return "", false
	}
	l, k := runtime.ULEB(n.leaf[m:])
	if k == 0 {
		return "", false
	}
	return string(n.leaf[m+k : m+k+int(l)]), true
}

func (n *enode) isWildcard(ctx *Context) (string, bool) {
	name, ok := n.leafName(ctx)
	if ok && len(name) > 0 && name[0] == '&' {
		return name, true
	}
	return "", false
}

// equal compares two trees structurally.
func (n *enode) equal(o *enode) bool {
	if n.op != o.op || len(n.kids) != len(o.kids) {
		return false
	}
	if n.op == IDInvalid && !bytes.Equal(n.leaf, o.leaf) {
		return false
	}
	for i := range n.kids {
		if !n.kids[i].equal(o.kids[i]) {
			return false
		}
	}
	return true
}

func (n *enode) clone() *enode {
	out := &enode{op: n.op, leaf: n.leaf}
	for _, k := range n.kids {
		out.kids = append(out.kids, k.clone())
	}
	return out
}

// exprTree converts an expression (or atom) to detached tree form.
func exprTree(ctx *Context, ref runtime.Ref) (*enode, bool) {
	leafNode := func(r runtime.Ref) *enode {
		b := ctx.RT.At(r)
		sz := sizeAt(b, 0)
		leaf := make([]byte, sz)
		copy(leaf, b[:sz])
		return &enode{op: IDInvalid, leaf: leaf}
	}
	if TypeOf(ctx, ref) != IDExpression {
		return leafNode(ref), true
	}
	var stack []*enode
	ok := true
	forEachChild(ctx, ref, func(c runtime.Ref) bool {
		id := TypeOf(ctx, c)
		if !isCommand(id) {
			stack = append(stack, leafNode(c))
			return true
		}
		n := cmdArity(id)
		if n == 0 || len(stack) < n {
			ok = false
			return false
		}
		node := &enode{op: id}
		node.kids = append(node.kids, stack[len(stack)-n:]...)
		stack = stack[:len(stack)-n]
		stack = append(stack, node)
		return true
	})
	if !ok || len(stack) != 1 {
		return nil, false
	}
	return stack[0], true
}

// treeExpr rebuilds an expression object from a tree.
func treeExpr(ctx *Context, n *enode) runtime.Ref {
	if n.op == IDInvalid && len(n.kids) == 0 {
		// Bare leaf: publish the object directly.
		return ctx.RT.Publish(n.leaf)
	}
	var body []byte
	var flatten func(m *enode)
	flatten = func(m *enode) {
		if m.op == IDInvalid {
			// A leaf that is itself an expression splices its items.
			v, sz := runtime.ULEB(m.leaf)
			if sz > 0 && ID(v) == IDExpression {
				l, k := runtime.ULEB(m.leaf[sz:])
				body = append(body, m.leaf[sz+k:sz+k+int(l)]...)
				return
			}
			body = append(body, m.leaf...)
			return
		}
		for _, k := range m.kids {
			flatten(k)
		}
		body = runtime.AppendULEB(body, uint64(m.op))
	}
	flatten(n)
	return newSized(ctx, IDExpression, body)
}

// Rule is a rewrite rule: match from, produce to, when cond holds.
type Rule struct {
	From, To, Cond *enode
}

// ParseRule builds a rule from expression sources.
func ParseRule(ctx *Context, from, to, cond string) (Rule, bool) {
	fe := ParseExpression(ctx, from)
	if fe == runtime.Nil {
		return Rule{}, false
	}
	fh := ctx.RT.Protect(fe)
	te := ParseExpression(ctx, to)
	fe = fh.Ref()
	fh.Close()
	if te == runtime.Nil {
		return Rule{}, false
	}
	ft, ok1 := exprTree(ctx, fe)
	tt, ok2 := exprTree(ctx, te)
	if !ok1 || !ok2 {
		return Rule{}, false
	}
	r := Rule{From: ft, To: tt}
	if cond != "" {
		ce := ParseExpression(ctx, cond)
		if ce == runtime.Nil {
			return Rule{}, false
		}
		ct, ok := exprTree(ctx, ce)
		if !ok {
			return Rule{}, false
		}
		r.Cond = ct
	}
	return r, true
}

// match binds pattern wildcards against the subject tree.
func match(ctx *Context, subject, pattern *enode, binds map[string]*enode) bool {
	if name, wild := pattern.isWildcard(ctx); wild {
		if prev, ok := binds[name]; ok {
			return prev.equal(subject)
		}
		binds[name] = subject
		return true
	}
	if pattern.op != subject.op || len(pattern.kids) != len(subject.kids) {
		return false
	}
	if pattern.op == IDInvalid {
		return bytes.Equal(pattern.leaf, subject.leaf)
	}
	for i := range pattern.kids {
		if !match(ctx, subject.kids[i], pattern.kids[i], binds) {
			return false
		}
	}
	return true
}

// substitute expands a pattern with the bindings.
func substitute(ctx *Context, pattern *enode, binds map[string]*enode) *enode {
	if name, wild := pattern.isWildcard(ctx); wild {
		if b, ok := binds[name]; ok {
			return b.clone()
		}
		return pattern.clone()
	}
	out := &enode{op: pattern.op, leaf: pattern.leaf}
	for _, k := range pattern.kids {
		out.kids = append(out.kids, substitute(ctx, k, binds))
	}
	return out
}

// condHolds evaluates a rule condition under the bindings. Nested
// simplification is kept out of the evaluation by saving the
// auto-simplify flag.
func condHolds(ctx *Context, cond *enode, binds map[string]*enode) bool {
	if cond == nil {
		return true
	}
	restore := ctx.Cfg.SaveAutoSimplify(false)
	defer restore()
	restoreNum := ctx.Cfg.SaveNumericalResults(true)
	defer restoreNum()

	expanded := substitute(ctx, cond, binds)
	ref := treeExpr(ctx, expanded)
	if ref == runtime.Nil {
		return false
	}
	depth := ctx.RT.Depth()
	if err := Evaluate(ctx, ref); err != nil {
		ctx.RT.ClearError()
		if d := ctx.RT.Depth() - depth; d > 0 {
			ctx.RT.Drop(d)
		}
		return false
	}
	if ctx.RT.Depth() <= depth {
		return false
	}
	out := ctx.RT.Pop()
	switch TypeOf(ctx, out) {
	case IDTrue:
		return true
	case IDFalse:
		return false
	}
	return !isZeroObj(ctx, out)
}

// rewriteNode tries every rule at one node, returning the replacement
// and whether anything fired.
func rewriteNode(ctx *Context, n *enode, rules []Rule) (*enode, bool) {
	for _, rule := range rules {
		binds := map[string]*enode{}
		if match(ctx, n, rule.From, binds) && condHolds(ctx, rule.Cond, binds) {
			return substitute(ctx, rule.To, binds), true
		}
	}
	return n, false
}

// rewritePass walks the tree once in the given direction, applying at
// most one rewrite per node per pass.
func rewritePass(ctx *Context, n *enode, rules []Rule, dir Direction) (*enode, bool) {
	fired := false
	if dir == Down {
		if out, ok := rewriteNode(ctx, n, rules); ok {
			return out, true
		}
	}
	for i, k := range n.kids {
		if out, ok := rewritePass(ctx, k, rules, dir); ok {
			n.kids[i] = out
			fired = true
		}
	}
	if dir == Up && !fired {
		if out, ok := rewriteNode(ctx, n, rules); ok {
			return out, true
		}
	}
	return n, fired
}

// Rewrite applies a rule batch to an expression until fixpoint,
// bounded by the maximum-rewrite setting.
func Rewrite(ctx *Context, expr runtime.Ref, rules []Rule, dir Direction) runtime.Ref {
	tree, ok := exprTree(ctx, expr)
	if !ok {
		return ctx.raise(errors.InvalidAlgebraicError)
	}
	budget := ctx.Cfg.MaxRewrites
	if budget <= 0 {
		budget = 100
	}
	for i := 0; ; i++ {
		if ctx.RT.Interrupted() {
			return ctx.raise(errors.InterruptedError)
		}
		if i >= budget {
			return ctx.raise(errors.TooManyRewritesError)
		}
		out, fired := rewritePass(ctx, tree, rules, dir)
		tree = out
		if !fired {
			break
		}
	}
	return treeExpr(ctx, tree)
}

// simplifyRules is the built-in batch behind Simplify.
var simplifyRules = []struct{ from, to, cond string }{
	{"&x+0", "&x", ""},
	{"0+&x", "&x", ""},
	{"&x-0", "&x", ""},
	{"&x-&x", "0", ""},
	{"&x*0", "0", ""},
	{"0*&x", "0", ""},
	{"&x*1", "&x", ""},
	{"1*&x", "&x", ""},
	{"&x/1", "&x", ""},
	{"&x/&x", "1", ""},
	{"&x^0", "1", ""},
	{"&x^1", "&x", ""},
	{"&x*&x", "&x²", ""},
}

// Simplify runs the built-in simplification batch on an expression.
func Simplify(ctx *Context, expr runtime.Ref) runtime.Ref {
	restore := ctx.Cfg.SaveAutoSimplify(false)
	defer restore()
	eh := ctx.RT.Protect(expr)
	var rules []Rule
	for _, rs := range simplifyRules {
		if r, ok := ParseRule(ctx, rs.from, rs.to, rs.cond); ok {
			rules = append(rules, r)
		}
	}
	expr = eh.Ref()
	eh.Close()
	return Rewrite(ctx, expr, rules, Down)
}
