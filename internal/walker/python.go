package walker

import (
	"strings"

	"symdex/internal/syntax"
)

var pythonGrammar = &Grammar{
	Language: syntax.LangPython,
	rules: map[string]rule{
		"class_definition":    {kind: KindTypeDecl, name: "name", body: "body", deepEnd: true},
		"function_definition": {kind: KindCallableDecl, name: "name", body: "body", deepEnd: true},

		"call":                  {kind: KindInvocation, name: "function"},
		"import_statement":      {kind: KindImport},
		"import_from_statement": {kind: KindImport},
	},
	simple:    set("identifier"),
	qualified: set("dotted_name", "relative_import"),
	unwrap: map[string]string{
		"attribute":      "attribute",
		"aliased_import": "name",
	},
	comments: set("comment"),
	nested: map[string][]string{
		"if_statement":         {"consequence"},
		"decorated_definition": {"definition", "body"},
	},
	contextual: pythonContextual,
	imports:    pythonImports,
}

var pythonNameParents = set(
	"dotted_name",
	"aliased_import",
	"import_statement",
	"import_from_statement",
	"relative_import",
	"future_import_statement",
)

// Parents whose identifier children are always bound names.
var pythonBindingParents = set(
	"parameters",
	"lambda_parameters",
	"typed_parameter",
	"list_splat_pattern",
	"dictionary_splat_pattern",
	"as_pattern_target",
)

func pythonContextual(_ *syntax.Tree, n *syntax.Node) (rule, bool) {
	switch n.Kind {
	case "identifier":
		return pythonIdentifier(n), true
	case "attribute":
		if p := n.Parent; p != nil {
			if p.Kind == "call" && n.Field == "function" {
				return rule{}, true
			}
			if p.Kind == "assignment" && n.Field == "left" {
				return rule{kind: KindFieldDecl, name: "attribute", startAtName: true}, true
			}
		}
		return rule{kind: KindFieldAccess, name: "attribute"}, true
	}
	return rule{}, false
}

func pythonIdentifier(n *syntax.Node) rule {
	p := n.Parent
	if p == nil || pythonNameParents[p.Kind] {
		return rule{}
	}
	decl := rule{kind: KindVariableDecl, name: nameSelf}

	switch {
	case pythonBindingParents[p.Kind]:
		return decl
	case p.Kind == "default_parameter" || p.Kind == "typed_default_parameter":
		if n.Field == "name" {
			return decl
		}
	case p.Kind == "assignment" || p.Kind == "for_statement" || p.Kind == "for_in_clause":
		if n.Field == "left" {
			return decl
		}
	case p.Kind == "pattern_list" || p.Kind == "tuple_pattern" || p.Kind == "list_pattern":
		if bindsTargets(p) {
			return decl
		}
	}

	switch {
	case n.Field == "name", n.Field == "attribute":
		return rule{}
	case n.Field == "function" && p.Kind == "call":
		return rule{}
	}
	return rule{kind: KindVariableAccess, name: nameSelf}
}

// bindsTargets reports whether a destructuring pattern is the target of an
// assignment or a for loop.
func bindsTargets(p *syntax.Node) bool {
	for p.Parent != nil && (p.Parent.Kind == "pattern_list" || p.Parent.Kind == "tuple_pattern" || p.Parent.Kind == "list_pattern") {
		p = p.Parent
	}
	if p.Field != "left" || p.Parent == nil {
		return false
	}
	switch p.Parent.Kind {
	case "assignment", "for_statement", "for_in_clause":
		return true
	}
	return false
}

func pythonImports(t *syntax.Tree, g *Grammar, n *syntax.Node) []string {
	var names []string
	switch n.Kind {
	case "import_statement":
		for _, c := range n.ChildrenByField("name") {
			names = append(names, g.nameText(t, c))
		}
	case "import_from_statement":
		module := g.nameText(t, n.ChildByField("module_name"))
		join := func(s string) string {
			if module == "" || s == "" {
				return s
			}
			if strings.HasSuffix(module, ".") {
				return module + s
			}
			return module + "." + s
		}
		for _, c := range n.Children {
			if c.Kind == "wildcard_import" {
				names = append(names, join("*"))
			}
		}
		for _, c := range n.ChildrenByField("name") {
			names = append(names, join(g.nameText(t, c)))
		}
	}
	return names
}
