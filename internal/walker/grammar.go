package walker

import (
	"fmt"
	"strings"

	"symdex/internal/errors"
	"symdex/internal/syntax"
)

const (
	// nameFirst selects the first name-like named child.
	nameFirst = ""
	// nameSelf means the node is its own name.
	nameSelf = "."
)

// rule says what the walker does with one node.
type rule struct {
	kind Kind
	// name is the field holding the name node, or nameFirst / nameSelf.
	name string
	// body is the field whose last member ends the declaration.
	body string
	// deepEnd follows nested bodies down to the innermost last statement.
	deepEnd bool
	// iface marks type declarations that declare interfaces.
	iface bool
	// startAtName takes the start coordinate from the name node.
	startAtName bool
}

// Grammar maps one language's node kinds onto walker rules.
type Grammar struct {
	Language syntax.Language

	rules     map[string]rule
	simple    map[string]bool
	qualified map[string]bool
	// unwrap maps wrapper kinds to the field that holds the real name
	// (nameFirst for the first named child).
	unwrap   map[string]string
	comments map[string]bool
	// nested maps statement kinds whose nested statements are not under the
	// rule's body field to the field path that reaches them.
	nested map[string][]string

	// contextual classifies kinds whose role depends on their parent.
	// ok is false when the kind is not contextual.
	contextual func(t *syntax.Tree, n *syntax.Node) (r rule, ok bool)
	// imports lists the names brought in by an import node.
	imports func(t *syntax.Tree, g *Grammar, n *syntax.Node) []string
}

// GrammarFor returns the grammar table for lang.
func GrammarFor(lang syntax.Language) (*Grammar, error) {
	switch lang {
	case syntax.LangJava:
		return javaGrammar, nil
	case syntax.LangPython:
		return pythonGrammar, nil
	case syntax.LangRuby:
		return rubyGrammar, nil
	default:
		return nil, errors.NewSymdexError(errors.UnsupportedLanguage, fmt.Sprintf("no walker grammar for %q", lang), nil)
	}
}

func (g *Grammar) classify(t *syntax.Tree, n *syntax.Node) rule {
	if !n.Named || n.IsError() {
		return rule{}
	}
	if g.contextual != nil {
		if r, ok := g.contextual(t, n); ok {
			return r
		}
	}
	return g.rules[n.Kind]
}

// nameLike reports whether a node of this kind can supply a name.
func (g *Grammar) nameLike(kind string) bool {
	if g.simple[kind] || g.qualified[kind] {
		return true
	}
	_, ok := g.unwrap[kind]
	return ok
}

// nameNode finds the node that names n under r.
func (g *Grammar) nameNode(n *syntax.Node, r rule) *syntax.Node {
	switch r.name {
	case nameSelf:
		return n
	case nameFirst:
		for _, c := range n.Children {
			if c.Named && g.nameLike(c.Kind) {
				return c
			}
		}
		return nil
	default:
		return n.ChildByField(r.name)
	}
}

// isNameChild reports whether child supplies the name of a record for n.
func (g *Grammar) isNameChild(n *syntax.Node, r rule, child *syntax.Node) bool {
	if child.Parent != n || !child.Named {
		return false
	}
	if r.name == nameFirst {
		return g.nameLike(child.Kind)
	}
	return child.Field == r.name
}

// nameText resolves a name node to its normalized text: the literal text
// for simple kinds and the whitespace-free full text for qualified kinds.
func (g *Grammar) nameText(t *syntax.Tree, n *syntax.Node) string {
	for n != nil {
		field, ok := g.unwrap[n.Kind]
		if !ok {
			break
		}
		if field == nameFirst {
			n = firstNamed(n)
		} else {
			n = n.ChildByField(field)
		}
	}
	switch {
	case n == nil:
		return ""
	case g.simple[n.Kind]:
		return t.Text(n)
	case g.qualified[n.Kind]:
		return strings.Join(strings.Fields(t.Text(n)), "")
	default:
		return ""
	}
}

// lastMember returns the last non-comment named child of n's body, or nil
// when there is no body or it is empty.
func (g *Grammar) lastMember(n *syntax.Node, r rule) *syntax.Node {
	if r.body == "" {
		return nil
	}
	body := n.ChildByField(r.body)
	var last *syntax.Node
	for body != nil {
		var next *syntax.Node
		for _, c := range body.Children {
			if c.Named && !g.comments[c.Kind] && !c.IsError() {
				next = c
			}
		}
		if next == nil {
			break
		}
		last = next
		if !r.deepEnd {
			break
		}
		body = g.nestedBody(next, r.body)
	}
	return last
}

// nestedBody returns the node holding n's nested statements: the node at
// the end of n's field path when its kind has one, else its field child.
func (g *Grammar) nestedBody(n *syntax.Node, field string) *syntax.Node {
	path, ok := g.nested[n.Kind]
	if !ok {
		return n.ChildByField(field)
	}
	for _, f := range path {
		if n = n.ChildByField(f); n == nil {
			return nil
		}
	}
	return n
}

func firstNamed(n *syntax.Node) *syntax.Node {
	for _, c := range n.Children {
		if c.Named {
			return c
		}
	}
	return nil
}

func set(kinds ...string) map[string]bool {
	m := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		m[k] = true
	}
	return m
}
