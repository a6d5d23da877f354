package builtin

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"rill/internal/parser"
	"rill/internal/syntax"
	"rill/internal/syntaxbridge"
	"rill/internal/tt"
)

type fieldsKind uint8

const (
	unitFields fieldsKind = iota
	recordFields
	tupleFields
)

// shape is what a derive needs to know about a struct.
type shape struct {
	name      string
	lifetimes []string
	params    []string
	kind      fieldsKind
	// fields are names for record structs and indices for tuple structs.
	fields []string
}

var errNotStruct = errors.New("derive may only be applied to structs")

func parseShape(item *tt.Subtree) (*shape, error) {
	root, _, _ := syntaxbridge.TokenTreeToSyntax(item, parser.MacroItemsEntry)
	st := root.ChildOfKind(syntax.Struct)
	if st == nil {
		return nil, errNotStruct
	}
	s := &shape{name: syntax.NameText(st)}
	if s.name == "" {
		return nil, fmt.Errorf("cannot derive for a struct without a name")
	}
	if gp := st.ChildOfKind(syntax.GenericParamList); gp != nil {
		for _, p := range gp.ChildNodes() {
			switch p.Kind() {
			case syntax.LifetimeParam:
				if lt := p.FirstToken(); lt != nil {
					s.lifetimes = append(s.lifetimes, lt.Text())
				}
			case syntax.TypeParam:
				s.params = append(s.params, syntax.NameText(p))
			}
		}
	}
	if fl := st.ChildOfKind(syntax.RecordFieldList); fl != nil {
		s.kind = recordFields
		for _, f := range fl.ChildrenOfKind(syntax.RecordField) {
			s.fields = append(s.fields, syntax.NameText(f))
		}
	} else if fl := st.ChildOfKind(syntax.TupleFieldList); fl != nil {
		s.kind = tupleFields
		for i := range fl.ChildrenOfKind(syntax.TupleField) {
			s.fields = append(s.fields, strconv.Itoa(i))
		}
	}
	return s, nil
}

// impl renders `impl<...> trait for Name<...> { body }`; every type
// parameter gets the derived trait as a bound.
func (s *shape) impl(trait, body string) string {
	var decl, use []string
	for _, lt := range s.lifetimes {
		decl = append(decl, lt)
		use = append(use, lt)
	}
	for _, p := range s.params {
		decl = append(decl, p+": "+trait)
		use = append(use, p)
	}
	var b strings.Builder
	b.WriteString("impl")
	if len(decl) > 0 {
		b.WriteString("<" + strings.Join(decl, ", ") + ">")
	}
	b.WriteString(" " + trait + " for " + s.name)
	if len(use) > 0 {
		b.WriteString("<" + strings.Join(use, ", ") + ">")
	}
	b.WriteString(" { " + body + " }")
	return b.String()
}

// construct builds `Name { f: expr(f), .. }`, `Name(expr(0), ..)` or `Name`.
func (s *shape) construct(expr func(field string) string) string {
	switch s.kind {
	case recordFields:
		parts := make([]string, len(s.fields))
		for i, f := range s.fields {
			parts[i] = f + ": " + expr(f)
		}
		return s.name + " { " + strings.Join(parts, ", ") + " }"
	case tupleFields:
		parts := make([]string, len(s.fields))
		for i, f := range s.fields {
			parts[i] = expr(f)
		}
		return s.name + "(" + strings.Join(parts, ", ") + ")"
	}
	return s.name
}

func (s *shape) cloneBody() string {
	return "fn clone(&self) -> Self { " +
		s.construct(func(f string) string { return "::core::clone::Clone::clone(&self." + f + ")" }) + " }"
}

func (s *shape) defaultBody() string {
	return "fn default() -> Self { " +
		s.construct(func(string) string { return "::core::default::Default::default()" }) + " }"
}

func (s *shape) debugBody() string {
	var b strings.Builder
	b.WriteString("fn fmt(&self, f: &mut ::core::fmt::Formatter) -> ::core::fmt::Result { ")
	switch s.kind {
	case recordFields:
		b.WriteString("f.debug_struct(" + quoteStr(s.name) + ")")
		for _, fd := range s.fields {
			b.WriteString(".field(" + quoteStr(fd) + ", &self." + fd + ")")
		}
		b.WriteString(".finish()")
	case tupleFields:
		b.WriteString("f.debug_tuple(" + quoteStr(s.name) + ")")
		for _, fd := range s.fields {
			b.WriteString(".field(&self." + fd + ")")
		}
		b.WriteString(".finish()")
	default:
		b.WriteString("f.write_str(" + quoteStr(s.name) + ")")
	}
	b.WriteString(" }")
	return b.String()
}

func (s *shape) eqBody() string {
	conds := []string{"true"}
	for _, f := range s.fields {
		conds = append(conds, "self."+f+" == other."+f)
	}
	return "fn eq(&self, other: &Self) -> bool { " + strings.Join(conds, " && ") + " }"
}

func (s *shape) hashBody() string {
	var b strings.Builder
	b.WriteString("fn hash<H: ::core::hash::Hasher>(&self, state: &mut H) { ")
	for _, f := range s.fields {
		b.WriteString("::core::hash::Hash::hash(&self." + f + ", state); ")
	}
	b.WriteString("}")
	return b.String()
}
