package mbe

import (
	"fmt"

	"rill/internal/span"
	"rill/internal/tt"
)

// Fragment is the kind of a metavariable, `$x:expr` and friends.
type Fragment uint8

const (
	// FragNone marks a transcriber occurrence, which has no kind.
	FragNone Fragment = iota
	FragIdent
	FragLifetime
	FragLiteral
	FragTT
	FragExpr
	FragTy
	FragPat
	FragPath
	FragBlock
	FragStmt
	FragItem
	FragVis
	FragMeta
)

var fragmentNames = [...]string{
	FragNone:     "",
	FragIdent:    "ident",
	FragLifetime: "lifetime",
	FragLiteral:  "literal",
	FragTT:       "tt",
	FragExpr:     "expr",
	FragTy:       "ty",
	FragPat:      "pat",
	FragPath:     "path",
	FragBlock:    "block",
	FragStmt:     "stmt",
	FragItem:     "item",
	FragVis:      "vis",
	FragMeta:     "meta",
}

func (f Fragment) String() string {
	if int(f) < len(fragmentNames) {
		return fragmentNames[f]
	}
	return fmt.Sprintf("Fragment(%d)", uint8(f))
}

// ParseFragment maps a fragment specifier onto its kind.
func ParseFragment(s string) (Fragment, bool) {
	switch s {
	case "pat_param", "pat":
		return FragPat, true
	case "expr_2021":
		return FragExpr, true
	}
	for f := FragIdent; int(f) < len(fragmentNames); f++ {
		if fragmentNames[f] == s {
			return f, true
		}
	}
	return FragNone, false
}

// RepKind is the Kleene operator of a repetition.
type RepKind uint8

const (
	ZeroOrMore RepKind = iota // *
	OneOrMore                 // +
	ZeroOrOne                 // ?
)

func (k RepKind) String() string {
	switch k {
	case ZeroOrMore:
		return "*"
	case OneOrMore:
		return "+"
	default:
		return "?"
	}
}

// Op is one element of a matcher or transcriber.
type Op interface{ isOp() }

// Leaf matches or emits one literal token.
type Leaf struct {
	Tree tt.Leaf
}

// Var is a metavariable: `$x:frag` in a matcher, `$x` in a transcriber.
type Var struct {
	Name string
	Kind Fragment
	Sp   span.Span
}

// Repeat is `$( ... ) sep? op`.
type Repeat struct {
	Ops  []Op
	Sep  []tt.Leaf
	Kind RepKind
}

// Group is a delimited group of ops.
type Group struct {
	Delim tt.Delimiter
	Ops   []Op
}

// Crate is `$crate` in a transcriber.
type Crate struct {
	Sp span.Span
}

func (Leaf) isOp()   {}
func (Var) isOp()    {}
func (Repeat) isOp() {}
func (Group) isOp()  {}
func (Crate) isOp()  {}

// Rule is one `(matcher) => {transcriber}` arm.
type Rule struct {
	Lhs []Op
	Rhs []Op
}

// ParseError reports a malformed macro definition.
type ParseError struct {
	Msg string
	Sp  span.Span
}

func (e *ParseError) Error() string { return "invalid macro definition: " + e.Msg }

func parseErr(sp span.Span, format string, args ...any) *ParseError {
	return &ParseError{Msg: fmt.Sprintf(format, args...), Sp: sp}
}

// parseRules разбирает тело macro_rules!: правила через `;`.
func parseRules(body *tt.Subtree) ([]Rule, error) {
	it := tt.NewIter(body)
	var rules []Rule
	for !it.Done() {
		lhs, err := it.ExpectSubtree()
		if err != nil {
			return rules, parseErr(it.Peek().FirstSpan(), "expected macro matcher")
		}
		if _, err := it.ExpectPunct('='); err != nil {
			return rules, parseErr(lhs.Delim.Close, "expected `=>` after matcher")
		}
		if _, err := it.ExpectPunct('>'); err != nil {
			return rules, parseErr(lhs.Delim.Close, "expected `=>` after matcher")
		}
		rhs, err := it.ExpectSubtree()
		if err != nil {
			return rules, parseErr(lhs.Delim.Close, "expected macro transcriber")
		}
		l, err := parseOps(tt.NewIter(lhs), true)
		if err != nil {
			return rules, err
		}
		r, err := parseOps(tt.NewIter(rhs), false)
		if err != nil {
			return rules, err
		}
		rules = append(rules, Rule{Lhs: l, Rhs: r})
		if it.Done() {
			break
		}
		if _, err := it.ExpectPunct(';'); err != nil {
			return rules, parseErr(rhs.Delim.Close, "expected `;` between macro rules")
		}
	}
	if len(rules) == 0 {
		return nil, parseErr(body.Delim.Open, "macro definition has no rules")
	}
	return rules, nil
}

func parseOps(it *tt.Iter, matcher bool) ([]Op, error) {
	var ops []Op
	for !it.Done() {
		switch t := it.Next().(type) {
		case *tt.Subtree:
			inner, err := parseOps(tt.NewIter(t), matcher)
			if err != nil {
				return nil, err
			}
			ops = append(ops, Group{Delim: t.Delim, Ops: inner})
		case tt.Punct:
			if t.Char != '$' {
				ops = append(ops, Leaf{Tree: t})
				continue
			}
			op, err := parseDollar(t, it, matcher)
			if err != nil {
				return nil, err
			}
			ops = append(ops, op)
		case tt.Leaf:
			ops = append(ops, Leaf{Tree: t})
		}
	}
	return ops, nil
}

func parseDollar(dollar tt.Punct, it *tt.Iter, matcher bool) (Op, error) {
	switch next := it.Peek().(type) {
	case tt.Ident:
		it.Next()
		if next.Text == "crate" && !matcher {
			return Crate{Sp: next.Sp}, nil
		}
		v := Var{Name: next.Text, Sp: next.Sp}
		if !matcher {
			return v, nil
		}
		if _, err := it.ExpectPunct(':'); err != nil {
			return nil, parseErr(next.Sp, "missing fragment specifier for `$%s`", next.Text)
		}
		kind, err := it.ExpectIdent()
		if err != nil {
			return nil, parseErr(next.Sp, "missing fragment specifier for `$%s`", next.Text)
		}
		frag, ok := ParseFragment(kind.Text)
		if !ok {
			return nil, parseErr(kind.Sp, "invalid fragment specifier `%s`", kind.Text)
		}
		v.Kind = frag
		return v, nil
	case *tt.Subtree:
		if next.Delim.Kind != tt.Parenthesis {
			return Leaf{Tree: dollar}, nil
		}
		it.Next()
		inner, err := parseOps(tt.NewIter(next), matcher)
		if err != nil {
			return nil, err
		}
		sep, kind, err := parseRepeatSuffix(it, next.Delim.Close)
		if err != nil {
			return nil, err
		}
		return Repeat{Ops: inner, Sep: sep, Kind: kind}, nil
	default:
		return Leaf{Tree: dollar}, nil
	}
}

func kleene(t tt.TokenTree) (RepKind, bool) {
	p, ok := t.(tt.Punct)
	if !ok {
		return 0, false
	}
	switch p.Char {
	case '*':
		return ZeroOrMore, true
	case '+':
		return OneOrMore, true
	case '?':
		return ZeroOrOne, true
	}
	return 0, false
}

// parseRepeatSuffix читает необязательный разделитель и оператор повторения.
func parseRepeatSuffix(it *tt.Iter, at span.Span) ([]tt.Leaf, RepKind, error) {
	if k, ok := kleene(it.Peek()); ok {
		it.Next()
		return nil, k, nil
	}
	var sep []tt.Leaf
	switch t := it.Peek().(type) {
	case tt.Punct:
		ps, _ := it.ExpectGluedPunct()
		for _, p := range ps {
			sep = append(sep, p)
		}
	case tt.Ident, tt.Literal:
		it.Next()
		sep = append(sep, t.(tt.Leaf))
	default:
		return nil, 0, parseErr(at, "expected repetition operator")
	}
	k, ok := kleene(it.Peek())
	if !ok || k == ZeroOrOne {
		return nil, 0, parseErr(at, "expected `*` or `+` after repetition separator")
	}
	it.Next()
	return sep, k, nil
}

// varsOf returns the metavariable names used in ops, nested ones included.
func varsOf(ops []Op) []string {
	var out []string
	seen := map[string]bool{}
	var walk func([]Op)
	walk = func(ops []Op) {
		for _, op := range ops {
			switch op := op.(type) {
			case Var:
				if !seen[op.Name] {
					seen[op.Name] = true
					out = append(out, op.Name)
				}
			case Repeat:
				walk(op.Ops)
			case Group:
				walk(op.Ops)
			}
		}
	}
	walk(ops)
	return out
}
